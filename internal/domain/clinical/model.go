package clinical

import (
	"time"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Entry kinds, used in logs and metrics labels.
const (
	KindVitals         = "vitals"
	KindTreatment      = "treatment"
	KindNonPharma      = "non_pharma_treatment"
	KindNote           = "nurse_note"
	KindLabTest        = "lab_test"
	KindMedicalHistory = "medical_history"
)

// VitalSigns maps to the vital_signs table. Readings are kept as entered.
type VitalSigns struct {
	ID              int64               `db:"id" json:"id"`
	PatientID       int64               `db:"patient_id" json:"patient_id"`
	Date            wallclock.Timestamp `db:"date" json:"date"`
	Temperature     string              `db:"temperature" json:"temperature"`
	BloodPressure   string              `db:"blood_pressure" json:"blood_pressure"`
	HeartRate       string              `db:"heart_rate" json:"heart_rate"`
	RespiratoryRate string              `db:"respiratory_rate" json:"respiratory_rate"`
	RegisteredBy    string              `db:"registered_by" json:"registered_by"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`

	// DateTime is accepted on input as an alias of Date.
	DateTime *wallclock.Timestamp `db:"-" json:"date_time,omitempty"`
}

// Treatment maps to the treatments table.
type Treatment struct {
	ID              int64               `db:"id" json:"id"`
	PatientID       int64               `db:"patient_id" json:"patient_id"`
	Medication      string              `db:"medication" json:"medication"`
	Dose            string              `db:"dose" json:"dose"`
	Frequency       string              `db:"frequency" json:"frequency"`
	StartDate       string              `db:"start_date" json:"start_date"`
	AppliedBy       string              `db:"applied_by" json:"applied_by"`
	LastApplication wallclock.Timestamp `db:"last_application" json:"last_application"`
	Notes           string              `db:"notes" json:"notes"`
	CreatedAt       time.Time           `db:"created_at" json:"created_at"`
}

// NonPharmaTreatment maps to the non_pharma_treatments table: wound care,
// physiotherapy, nebulization and similar procedures.
type NonPharmaTreatment struct {
	ID              int64     `db:"id" json:"id"`
	PatientID       int64     `db:"patient_id" json:"patient_id"`
	TreatmentType   string    `db:"treatment_type" json:"treatment_type"`
	Description     string    `db:"description" json:"description"`
	ApplicationDate string    `db:"application_date" json:"application_date"`
	ApplicationTime string    `db:"application_time" json:"application_time"`
	Duration        string    `db:"duration" json:"duration"`
	PerformedBy     string    `db:"performed_by" json:"performed_by"`
	MaterialsUsed   string    `db:"materials_used" json:"materials_used"`
	Observations    string    `db:"observations" json:"observations"`
	Outcome         string    `db:"outcome" json:"outcome"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// NurseNote maps to the nurse_notes table.
type NurseNote struct {
	ID        int64               `db:"id" json:"id"`
	PatientID int64               `db:"patient_id" json:"patient_id"`
	Date      wallclock.Timestamp `db:"date" json:"date"`
	Note      string              `db:"note" json:"note"`
	NoteType  string              `db:"note_type" json:"note_type"`
	NurseName string              `db:"nurse_name" json:"nurse_name"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}

const DefaultNoteType = "evolutiva"

var noteTypes = map[string]bool{
	"evolutiva":     true,
	"observacion":   true,
	"incidente":     true,
	"mejora":        true,
	"deterioro":     true,
	"ingreso":       true,
	"procedimiento": true,
	"incidencia":    true,
	"seguimiento":   true,
}

func ValidNoteType(t string) bool { return noteTypes[t] }

// LabTest maps to the lab_tests table.
type LabTest struct {
	ID        int64               `db:"id" json:"id"`
	PatientID int64               `db:"patient_id" json:"patient_id"`
	Test      string              `db:"test" json:"test"`
	Date      wallclock.Timestamp `db:"date" json:"date"`
	Status    string              `db:"status" json:"status"`
	Results   string              `db:"results" json:"results"`
	OrderedBy string              `db:"ordered_by" json:"ordered_by"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}

const (
	LabStatusPending    = "Pendiente"
	LabStatusInProgress = "En Proceso"
	LabStatusCompleted  = "Completado"
)

func ValidLabStatus(s string) bool {
	switch s {
	case LabStatusPending, LabStatusInProgress, LabStatusCompleted:
		return true
	}
	return false
}

// MedicalHistory maps to the medical_history table.
type MedicalHistory struct {
	ID        int64               `db:"id" json:"id"`
	PatientID int64               `db:"patient_id" json:"patient_id"`
	Date      wallclock.Timestamp `db:"date" json:"date"`
	Diagnosis string              `db:"diagnosis" json:"diagnosis"`
	Treatment string              `db:"treatment" json:"treatment"`
	Notes     string              `db:"notes" json:"notes"`
	Doctor    string              `db:"doctor" json:"doctor"`
	CreatedAt time.Time           `db:"created_at" json:"created_at"`
}
