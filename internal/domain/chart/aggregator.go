// Package chart assembles the read-only patient detail view from the
// individual record stores.
package chart

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/clinical"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/patient"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/scheduling"
	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/triage"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
)

type PatientStore interface {
	GetByID(ctx context.Context, id int64) (*patient.Patient, error)
}

type TransferStore interface {
	ListByPatient(ctx context.Context, patientID int64) ([]*patient.Transfer, error)
}

type AppointmentStore interface {
	ListByPatient(ctx context.Context, patientID int64) ([]*scheduling.Appointment, error)
}

// PatientDetail is the aggregated chart. Sections are never nil.
type PatientDetail struct {
	Patient             *patient.Patient               `json:"patient"`
	Location            patient.Location               `json:"location"`
	Triage              *triage.Info                   `json:"triage"`
	Treatments          []*clinical.Treatment          `json:"treatments"`
	NonPharmaTreatments []*clinical.NonPharmaTreatment `json:"non_pharma_treatments"`
	Vitals              []*clinical.VitalSigns         `json:"vitals"`
	Notes               []*clinical.NurseNote          `json:"notes"`
	LabTests            []*clinical.LabTest            `json:"lab_tests"`
	MedicalHistory      []*clinical.MedicalHistory     `json:"medical_history"`
	Appointments        []*scheduling.Appointment      `json:"appointments"`
	Transfers           []*patient.Transfer            `json:"transfers"`
}

type Aggregator struct {
	patients     PatientStore
	transfers    TransferStore
	clinical     clinical.Stores
	appointments AppointmentStore
	windows      nursing.ShiftWindows
}

func NewAggregator(patients PatientStore, transfers TransferStore, records clinical.Stores,
	appointments AppointmentStore, windows nursing.ShiftWindows) *Aggregator {
	return &Aggregator{
		patients:     patients,
		transfers:    transfers,
		clinical:     records,
		appointments: appointments,
		windows:      windows,
	}
}

// section reads one list into dst, replacing a nil result with an empty
// slice.
func section[T any](ctx context.Context, g *errgroup.Group, op string, dst *[]T,
	list func(context.Context, int64) ([]T, error), patientID int64) {
	g.Go(func() error {
		items, err := list(ctx, patientID)
		if err != nil {
			return apperr.Store(op, err)
		}
		if items == nil {
			items = []T{}
		}
		*dst = items
		return nil
	})
}

// GetPatientDetail reads every section of a patient's chart concurrently.
// An unknown patient yields an empty chart with the default location.
// Vitals and notes are most recent first and narrowed by f; the other
// sections keep insertion order.
func (a *Aggregator) GetPatientDetail(ctx context.Context, patientID int64, f clinical.VitalsFilter) (*PatientDetail, error) {
	d := &PatientDetail{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		p, err := a.patients.GetByID(gctx, patientID)
		if apperr.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return apperr.Store("get patient", err)
		}
		d.Patient = p
		return nil
	})
	section(gctx, g, "list transfers", &d.Transfers, a.transfers.ListByPatient, patientID)
	section(gctx, g, "list treatments", &d.Treatments, a.clinical.Treatments.ListByPatient, patientID)
	section(gctx, g, "list non-pharma treatments", &d.NonPharmaTreatments, a.clinical.NonPharma.ListByPatient, patientID)
	section(gctx, g, "list vitals", &d.Vitals, a.clinical.Vitals.ListByPatient, patientID)
	section(gctx, g, "list notes", &d.Notes, a.clinical.Notes.ListByPatient, patientID)
	section(gctx, g, "list lab tests", &d.LabTests, a.clinical.Labs.ListByPatient, patientID)
	section(gctx, g, "list medical history", &d.MedicalHistory, a.clinical.History.ListByPatient, patientID)
	section(gctx, g, "list appointments", &d.Appointments, a.appointments.ListByPatient, patientID)

	if err := g.Wait(); err != nil {
		return nil, err
	}

	d.Vitals = clinical.FilterVitals(clinical.Reverse(d.Vitals), f, a.windows)
	d.Notes = clinical.FilterNotes(clinical.Reverse(d.Notes), f, a.windows)
	d.Location = patient.CurrentLocation(d.Patient, d.Transfers)
	if d.Patient != nil {
		info := triage.Classify(d.Patient.TriageLevel)
		d.Triage = &info
	}
	return d, nil
}
