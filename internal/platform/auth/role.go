package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Role is the closed set of principal kinds. Only the types in this file
// implement it.
type Role interface {
	Name() string
	sealed()
}

// Nurse is a ward nurse. StaffID is the nurse's user id.
type Nurse struct{ StaffID int64 }

// Doctor is a physician. StaffID is the doctor's user id.
type Doctor struct{ StaffID int64 }

// Admin manages the whole system.
type Admin struct{}

// Patient is a patient using the portal. PatientID links to the patient record.
type Patient struct{ PatientID int64 }

func (Nurse) Name() string   { return "nurse" }
func (Doctor) Name() string  { return "doctor" }
func (Admin) Name() string   { return "admin" }
func (Patient) Name() string { return "patient" }

func (Nurse) sealed()   {}
func (Doctor) sealed()  {}
func (Admin) sealed()   {}
func (Patient) sealed() {}

// Capability is a single permission checked by route guards.
type Capability string

const (
	CapViewWard             Capability = "ward:view"
	CapViewChart            Capability = "chart:view"
	CapViewOwnChart         Capability = "chart:view-own"
	CapAdmitPatients        Capability = "patients:admit"
	CapUpdatePatients       Capability = "patients:update"
	CapTransferPatients     Capability = "patients:transfer"
	CapRecordVitals         Capability = "vitals:record"
	CapApplyTreatment       Capability = "treatments:apply"
	CapWriteNotes           Capability = "notes:write"
	CapOrderLabs            Capability = "labs:order"
	CapWriteHistory         Capability = "history:write"
	CapScheduleAppointments Capability = "appointments:schedule"
	CapManageAppointments   Capability = "appointments:manage"
	CapViewShifts           Capability = "shifts:view"
	CapManageShifts         Capability = "shifts:manage"
	CapViewSurgery          Capability = "surgery:view"
	CapManageSurgery        Capability = "surgery:manage"
	CapViewReports          Capability = "reports:view"
)

// CapabilitySet is an immutable set of capabilities.
type CapabilitySet map[Capability]struct{}

func newSet(caps ...Capability) CapabilitySet {
	s := make(CapabilitySet, len(caps))
	for _, c := range caps {
		s[c] = struct{}{}
	}
	return s
}

func (s CapabilitySet) Has(c Capability) bool {
	_, ok := s[c]
	return ok
}

// List returns the capabilities in sorted order.
func (s CapabilitySet) List() []Capability {
	out := make([]Capability, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

var allCapabilities = []Capability{
	CapViewWard, CapViewChart, CapViewOwnChart, CapAdmitPatients, CapUpdatePatients,
	CapTransferPatients, CapRecordVitals, CapApplyTreatment, CapWriteNotes, CapOrderLabs,
	CapWriteHistory, CapScheduleAppointments, CapManageAppointments, CapViewShifts,
	CapManageShifts, CapViewSurgery, CapManageSurgery, CapViewReports,
}

var (
	adminCaps = newSet(allCapabilities...)

	doctorCaps = newSet(
		CapViewWard, CapViewChart, CapAdmitPatients, CapUpdatePatients, CapTransferPatients,
		CapApplyTreatment, CapOrderLabs, CapWriteHistory, CapScheduleAppointments,
		CapManageAppointments, CapViewShifts, CapViewSurgery, CapManageSurgery, CapViewReports,
	)

	nurseCaps = newSet(
		CapViewWard, CapViewChart, CapTransferPatients, CapRecordVitals, CapApplyTreatment,
		CapWriteNotes, CapScheduleAppointments, CapViewShifts, CapViewSurgery,
	)

	patientCaps = newSet(CapViewOwnChart, CapScheduleAppointments)
)

// CapabilitiesOf returns the capability set for role.
func CapabilitiesOf(role Role) CapabilitySet {
	switch role.(type) {
	case Admin:
		return adminCaps
	case Doctor:
		return doctorCaps
	case Nurse:
		return nurseCaps
	case Patient:
		return patientCaps
	default:
		panic(fmt.Sprintf("auth: unhandled role %T", role))
	}
}

// ParseRole maps a role claim to a Role. Spanish and English spellings used
// by the identity issuer are accepted.
func ParseRole(name string, staffID, patientID int64) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrador", "administrator":
		return Admin{}, nil
	case "doctor", "médico", "medico", "physician":
		return Doctor{StaffID: staffID}, nil
	case "nurse", "enfermero", "enfermera":
		return Nurse{StaffID: staffID}, nil
	case "patient", "paciente":
		return Patient{PatientID: patientID}, nil
	default:
		return nil, fmt.Errorf("unknown role %q", name)
	}
}

// DisplayName returns the Spanish label shown to users.
func DisplayName(role Role) string {
	switch role.(type) {
	case Admin:
		return "Administrador"
	case Doctor:
		return "Médico"
	case Nurse:
		return "Enfermero"
	case Patient:
		return "Paciente"
	default:
		panic(fmt.Sprintf("auth: unhandled role %T", role))
	}
}
