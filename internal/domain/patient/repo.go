package patient

import (
	"context"
)

type PatientRepository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	// ListByIDs returns the matching patients in the order of ids. Unknown
	// ids are skipped.
	ListByIDs(ctx context.Context, ids []int64) ([]*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error)
	// TriageQueue returns active patients by triage level, then admission date.
	TriageQueue(ctx context.Context) ([]*Patient, error)
}

type TransferRepository interface {
	Create(ctx context.Context, t *Transfer) error
	// ListByPatient returns transfers in insertion order.
	ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error)
}
