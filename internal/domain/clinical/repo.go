package clinical

import (
	"context"
)

// Every store returns ListByPatient results in insertion order.

type VitalsRepository interface {
	Create(ctx context.Context, v *VitalSigns) error
	ListByPatient(ctx context.Context, patientID int64) ([]*VitalSigns, error)
	List(ctx context.Context, limit, offset int) ([]*VitalSigns, int, error)
}

type TreatmentRepository interface {
	Create(ctx context.Context, t *Treatment) error
	ListByPatient(ctx context.Context, patientID int64) ([]*Treatment, error)
	List(ctx context.Context, limit, offset int) ([]*Treatment, int, error)
}

type NonPharmaRepository interface {
	Create(ctx context.Context, t *NonPharmaTreatment) error
	ListByPatient(ctx context.Context, patientID int64) ([]*NonPharmaTreatment, error)
	List(ctx context.Context, limit, offset int) ([]*NonPharmaTreatment, int, error)
}

type NoteRepository interface {
	Create(ctx context.Context, n *NurseNote) error
	ListByPatient(ctx context.Context, patientID int64) ([]*NurseNote, error)
	List(ctx context.Context, limit, offset int) ([]*NurseNote, int, error)
}

type LabTestRepository interface {
	Create(ctx context.Context, l *LabTest) error
	ListByPatient(ctx context.Context, patientID int64) ([]*LabTest, error)
	List(ctx context.Context, limit, offset int) ([]*LabTest, int, error)
}

type MedicalHistoryRepository interface {
	Create(ctx context.Context, h *MedicalHistory) error
	ListByPatient(ctx context.Context, patientID int64) ([]*MedicalHistory, error)
	List(ctx context.Context, limit, offset int) ([]*MedicalHistory, int, error)
}

// Stores bundles the clinical record stores.
type Stores struct {
	Vitals     VitalsRepository
	Treatments TreatmentRepository
	NonPharma  NonPharmaRepository
	Notes      NoteRepository
	Labs       LabTestRepository
	History    MedicalHistoryRepository
}
