package clinical

import (
	"context"
	"sync"
	"time"
)

// record is implemented by every clinical entity pointer.
type record[T any] interface {
	*T
	stamp(id int64, at time.Time)
	owner() int64
}

func (v *VitalSigns) stamp(id int64, at time.Time)         { v.ID, v.CreatedAt = id, at }
func (t *Treatment) stamp(id int64, at time.Time)          { t.ID, t.CreatedAt = id, at }
func (t *NonPharmaTreatment) stamp(id int64, at time.Time) { t.ID, t.CreatedAt = id, at }
func (n *NurseNote) stamp(id int64, at time.Time)          { n.ID, n.CreatedAt = id, at }
func (l *LabTest) stamp(id int64, at time.Time)            { l.ID, l.CreatedAt = id, at }
func (h *MedicalHistory) stamp(id int64, at time.Time)     { h.ID, h.CreatedAt = id, at }

func (v *VitalSigns) owner() int64         { return v.PatientID }
func (t *Treatment) owner() int64          { return t.PatientID }
func (t *NonPharmaTreatment) owner() int64 { return t.PatientID }
func (n *NurseNote) owner() int64          { return n.PatientID }
func (l *LabTest) owner() int64            { return l.PatientID }
func (h *MedicalHistory) owner() int64     { return h.PatientID }

// InMemoryStore is a thread-safe append-only store for one clinical entity.
// It is suitable for development and tests.
type InMemoryStore[T any, P record[T]] struct {
	mu    sync.RWMutex
	items []T
}

func (s *InMemoryStore[T, P]) Create(_ context.Context, item P) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item.stamp(int64(len(s.items)+1), time.Now().UTC())
	s.items = append(s.items, *item)
	return nil
}

func (s *InMemoryStore[T, P]) ListByPatient(_ context.Context, patientID int64) ([]P, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []P{}
	for i := range s.items {
		cp := s.items[i]
		if P(&cp).owner() == patientID {
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (s *InMemoryStore[T, P]) List(_ context.Context, limit, offset int) ([]P, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := []P{}
	for i := offset; i < len(s.items) && len(out) < limit; i++ {
		cp := s.items[i]
		out = append(out, &cp)
	}
	return out, len(s.items), nil
}

// NewInMemoryStores returns empty in-memory clinical stores.
func NewInMemoryStores() Stores {
	return Stores{
		Vitals:     &InMemoryStore[VitalSigns, *VitalSigns]{},
		Treatments: &InMemoryStore[Treatment, *Treatment]{},
		NonPharma:  &InMemoryStore[NonPharmaTreatment, *NonPharmaTreatment]{},
		Notes:      &InMemoryStore[NurseNote, *NurseNote]{},
		Labs:       &InMemoryStore[LabTest, *LabTest]{},
		History:    &InMemoryStore[MedicalHistory, *MedicalHistory]{},
	}
}
