package scheduling

import (
	"context"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/auth"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Recorder counts rejected double bookings.
type Recorder interface {
	AppointmentConflict()
}

type Service struct {
	appointments AppointmentRepository
	logger       zerolog.Logger
	rec          Recorder
}

func NewService(appointments AppointmentRepository, logger zerolog.Logger) *Service {
	return &Service{appointments: appointments, logger: logger}
}

// SetRecorder attaches an optional metrics recorder.
func (s *Service) SetRecorder(r Recorder) {
	s.rec = r
}

func (s *Service) conflict(ctx context.Context, a *Appointment) error {
	if s.rec != nil {
		s.rec.AppointmentConflict()
	}
	s.logger.Warn().
		Str("slot", a.Slot()).
		Str("requested_by", auth.UserNameFromContext(ctx)).
		Msg("appointment slot already taken")
	return &apperr.ConflictError{Resource: "appointment", Key: a.Slot(),
		Message: "an appointment already exists at " + a.Slot()}
}

// ScheduleAppointment books a new appointment. A slot is global: any existing
// appointment at the same date and time rejects the booking, whoever it
// belongs to. Patients always book for themselves.
func (s *Service) ScheduleAppointment(ctx context.Context, in *Appointment) (*Appointment, error) {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"patient_name", &in.PatientName},
		{"date", &in.Date},
		{"time", &in.Time},
		{"type", &in.Type},
	} {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return nil, apperr.Required(f.name)
		}
	}
	if !wallclock.ValidDate(in.Date) {
		return nil, apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	slot, err := wallclock.NormalizeTime(in.Time)
	if err != nil {
		return nil, apperr.Invalid("time", "must be HH:MM")
	}
	in.Time = slot

	in.Status = strings.TrimSpace(in.Status)
	if in.Status == "" {
		in.Status = StatusPending
	}
	if !ValidStatus(in.Status) {
		return nil, apperr.Invalid("status", "must be one of Pendiente, Confirmada, Cancelada")
	}
	in.Doctor = strings.TrimSpace(in.Doctor)
	if in.Doctor == "" {
		in.Doctor = DefaultDoctor
	}
	if p, ok := auth.RoleFromContext(ctx).(auth.Patient); ok {
		id := p.PatientID
		in.PatientID = &id
	}

	existing, err := s.appointments.FindBySlot(ctx, in.Date, in.Time)
	if err != nil {
		return nil, apperr.Store("find appointment slot", err)
	}
	if existing != nil {
		return nil, s.conflict(ctx, in)
	}
	if err := s.appointments.Create(ctx, in); err != nil {
		if apperr.IsConflict(err) {
			return nil, s.conflict(ctx, in)
		}
		return nil, apperr.Store("create appointment", err)
	}
	s.logger.Debug().Int64("appointment_id", in.ID).Str("slot", in.Slot()).Msg("appointment scheduled")
	return in, nil
}

// Get returns an appointment. Patients only see their own.
func (s *Service) Get(ctx context.Context, id int64) (*Appointment, error) {
	a, err := s.appointments.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("get appointment", err)
	}
	if p, ok := auth.RoleFromContext(ctx).(auth.Patient); ok && !a.BelongsTo(p.PatientID) {
		return nil, apperr.ErrNotFound
	}
	return a, nil
}

// List searches appointments. A patient principal is always narrowed to
// their own appointments.
func (s *Service) List(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error) {
	if p, ok := auth.RoleFromContext(ctx).(auth.Patient); ok {
		params["patient_id"] = strconv.FormatInt(p.PatientID, 10)
	}
	if d := params["date"]; d != "" && !wallclock.ValidDate(d) {
		return nil, 0, apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	if st := params["status"]; st != "" && !ValidStatus(st) {
		return nil, 0, apperr.Invalid("status", "must be one of Pendiente, Confirmada, Cancelada")
	}
	items, total, err := s.appointments.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("search appointments", err)
	}
	return items, total, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID int64) ([]*Appointment, error) {
	items, err := s.appointments.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, apperr.Store("list appointments", err)
	}
	return items, nil
}

// Confirm moves a pending appointment to Confirmada.
func (s *Service) Confirm(ctx context.Context, id int64) (*Appointment, error) {
	return s.transition(ctx, id, StatusConfirmed)
}

// Cancel marks an appointment as Cancelada. The slot stays taken.
func (s *Service) Cancel(ctx context.Context, id int64) (*Appointment, error) {
	return s.transition(ctx, id, StatusCancelled)
}

func (s *Service) transition(ctx context.Context, id int64, to string) (*Appointment, error) {
	a, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.Status == to {
		return a, nil
	}
	if a.Status == StatusCancelled {
		return nil, apperr.Invalid("status", "appointment is already cancelled")
	}
	if err := s.appointments.UpdateStatus(ctx, id, to); err != nil {
		return nil, apperr.Store("update appointment status", err)
	}
	a.Status = to
	s.logger.Info().Int64("appointment_id", id).Str("status", to).Msg("appointment status changed")
	return a, nil
}
