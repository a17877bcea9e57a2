package patient

import (
	"context"
	"strings"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/triage"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/db"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Recorder counts completed transfers.
type Recorder interface {
	PatientTransferred()
}

type Service struct {
	patients  PatientRepository
	transfers TransferRepository
	tx        db.Beginner
	clock     *wallclock.Clock
	rec       Recorder
}

// NewService wires the patient stores. A nil tx runs transfers without a
// surrounding transaction, which is only appropriate for in-memory stores.
func NewService(patients PatientRepository, transfers TransferRepository, tx db.Beginner, clock *wallclock.Clock) *Service {
	return &Service{patients: patients, transfers: transfers, tx: tx, clock: clock}
}

// SetRecorder attaches an optional metrics recorder.
func (s *Service) SetRecorder(r Recorder) {
	s.rec = r
}

func (s *Service) inTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.tx == nil {
		return fn(ctx)
	}
	return db.WithTx(ctx, s.tx, fn)
}

func validateDemographics(p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperr.Required("name")
	}
	if p.Age < 0 || p.Age > 150 {
		return apperr.Invalid("age", "must be between 0 and 150")
	}
	if !ValidCondition(p.Condition) {
		return apperr.Invalid("condition", "must be one of Crítico, Estable, Recuperación, Observación, Grave")
	}
	if p.AdmissionDate != "" && !wallclock.ValidDate(p.AdmissionDate) {
		return apperr.Invalid("admission_date", "must be YYYY-MM-DD")
	}
	return nil
}

// Admit registers a new patient. Condition defaults to Estable, triage to
// level 3 and the admission date to today.
func (s *Service) Admit(ctx context.Context, p *Patient) error {
	if p.Condition == "" {
		p.Condition = ConditionStable
	}
	if err := validateDemographics(p); err != nil {
		return err
	}
	if p.TriageLevel == 0 {
		p.TriageLevel = triage.DefaultLevel
	}
	if !triage.Valid(p.TriageLevel) {
		return apperr.Invalid("triage_level", "must be between 1 and 5")
	}
	if p.AdmissionDate == "" {
		p.AdmissionDate = s.clock.Now().DateString()
	}
	p.Active = true
	return apperr.Store("create patient", s.patients.Create(ctx, p))
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("get patient", err)
	}
	return p, nil
}

func (s *Service) ListByIDs(ctx context.Context, ids []int64) ([]*Patient, error) {
	items, err := s.patients.ListByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Store("list patients by id", err)
	}
	return items, nil
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	if c := params["condition"]; c != "" && !ValidCondition(c) {
		return nil, 0, apperr.Invalid("condition", "is not a known condition")
	}
	items, total, err := s.patients.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("search patients", err)
	}
	return items, total, nil
}

func (s *Service) TriageQueue(ctx context.Context) ([]*Patient, error) {
	items, err := s.patients.TriageQueue(ctx)
	if err != nil {
		return nil, apperr.Store("triage queue", err)
	}
	return items, nil
}

// Update replaces the demographic fields of a patient. Location, triage and
// the active flag have their own operations and are left untouched.
func (s *Service) Update(ctx context.Context, in *Patient) (*Patient, error) {
	p, err := s.Get(ctx, in.ID)
	if err != nil {
		return nil, err
	}
	if in.Condition == "" {
		in.Condition = p.Condition
	}
	if err := validateDemographics(in); err != nil {
		return nil, err
	}
	p.Name = in.Name
	p.Age = in.Age
	p.BloodType = in.BloodType
	p.Allergies = in.Allergies
	p.Condition = in.Condition
	if in.AdmissionDate != "" {
		p.AdmissionDate = in.AdmissionDate
	}
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, apperr.Store("update patient", err)
	}
	return p, nil
}

func (s *Service) UpdateCondition(ctx context.Context, id int64, condition string) (*Patient, error) {
	if strings.TrimSpace(condition) == "" {
		return nil, apperr.Required("condition")
	}
	if !ValidCondition(condition) {
		return nil, apperr.Invalid("condition", "is not a known condition")
	}
	return s.modify(ctx, id, "update condition", func(p *Patient) { p.Condition = condition })
}

func (s *Service) UpdateTriage(ctx context.Context, id int64, level int) (*Patient, error) {
	if !triage.Valid(level) {
		return nil, apperr.Invalid("triage_level", "must be between 1 and 5")
	}
	return s.modify(ctx, id, "update triage", func(p *Patient) { p.TriageLevel = level })
}

// Discharge clears the active flag. The record and its history remain.
func (s *Service) Discharge(ctx context.Context, id int64) (*Patient, error) {
	return s.modify(ctx, id, "discharge patient", func(p *Patient) { p.Active = false })
}

func (s *Service) modify(ctx context.Context, id int64, op string, fn func(*Patient)) (*Patient, error) {
	p, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	fn(p)
	if err := s.patients.Update(ctx, p); err != nil {
		return nil, apperr.Store(op, err)
	}
	return p, nil
}

// Transfer records a move and updates the patient's location in the same
// transaction. The origin is the patient's current location. Destination
// fields left blank keep their current value, except the room which is
// required.
func (s *Service) Transfer(ctx context.Context, t *Transfer) error {
	if t.PatientID == 0 {
		return apperr.Required("patient_id")
	}
	t.ToRoom = strings.TrimSpace(t.ToRoom)
	if t.ToRoom == "" {
		return apperr.Required("to_room")
	}
	if strings.TrimSpace(t.Reason) == "" {
		return apperr.Required("reason")
	}
	if t.TransferDate != "" && !wallclock.ValidDate(t.TransferDate) {
		return apperr.Invalid("transfer_date", "must be YYYY-MM-DD")
	}
	if t.TransferTime != "" {
		hhmm, err := wallclock.NormalizeTime(t.TransferTime)
		if err != nil {
			return apperr.Invalid("transfer_time", "must be HH:MM")
		}
		t.TransferTime = hhmm
	}

	now := s.clock.Now()
	if t.TransferDate == "" {
		t.TransferDate = now.DateString()
	}
	if t.TransferTime == "" {
		t.TransferTime = now.TimeString()
	}
	if t.TransferredBy == "" {
		t.TransferredBy = auth.UserNameFromContext(ctx)
	}

	err := s.inTx(ctx, func(ctx context.Context) error {
		p, err := s.patients.GetByID(ctx, t.PatientID)
		if err != nil {
			return err
		}
		history, err := s.transfers.ListByPatient(ctx, t.PatientID)
		if err != nil {
			return err
		}
		from := CurrentLocation(p, history)
		t.FromFloor, t.FromArea, t.FromRoom, t.FromBed = from.Floor, from.Area, from.Room, from.Bed
		if t.ToFloor == "" {
			t.ToFloor = from.Floor
		}
		if t.ToArea == "" {
			t.ToArea = from.Area
		}
		if t.ToBed == "" {
			t.ToBed = from.Bed
		}

		if err := s.transfers.Create(ctx, t); err != nil {
			return err
		}
		p.Floor, p.Area, p.Room, p.Bed = t.ToFloor, t.ToArea, t.ToRoom, t.ToBed
		return s.patients.Update(ctx, p)
	})
	if err != nil {
		return apperr.Store("transfer patient", err)
	}
	if s.rec != nil {
		s.rec.PatientTransferred()
	}
	return nil
}

func (s *Service) ListTransfers(ctx context.Context, patientID int64) ([]*Transfer, error) {
	items, err := s.transfers.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Store("list transfers", err)
	}
	return items, nil
}

// CurrentLocation resolves the location of an existing patient.
func (s *Service) CurrentLocation(ctx context.Context, patientID int64) (Location, error) {
	p, err := s.Get(ctx, patientID)
	if err != nil {
		return Location{}, err
	}
	transfers, err := s.ListTransfers(ctx, patientID)
	if err != nil {
		return Location{}, err
	}
	return CurrentLocation(p, transfers), nil
}
