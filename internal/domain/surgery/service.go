package surgery

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

type Service struct {
	surgeries SurgeryRepository
	rooms     RoomRepository
	clock     *wallclock.Clock
	logger    zerolog.Logger
}

func NewService(surgeries SurgeryRepository, rooms RoomRepository, clock *wallclock.Clock, logger zerolog.Logger) *Service {
	return &Service{surgeries: surgeries, rooms: rooms, clock: clock, logger: logger}
}

// normalize trims, applies defaults and validates s in place. Overlapping
// bookings of the same room are allowed.
func (s *Service) normalize(ctx context.Context, in *Surgery) error {
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"patient_name", &in.PatientName},
		{"surgeon", &in.Surgeon},
		{"surgery_type", &in.SurgeryType},
		{"room", &in.Room},
		{"date", &in.Date},
		{"start_time", &in.StartTime},
	} {
		*f.value = strings.TrimSpace(*f.value)
		if *f.value == "" {
			return apperr.Required(f.name)
		}
	}
	if !wallclock.ValidDate(in.Date) {
		return apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	start, err := wallclock.NormalizeTime(in.StartTime)
	if err != nil {
		return apperr.Invalid("start_time", "must be HH:MM")
	}
	in.StartTime = start
	if in.PatientAge < 0 || in.PatientAge > 150 {
		return apperr.Invalid("patient_age", "must be between 0 and 150")
	}

	if in.Category = strings.TrimSpace(in.Category); in.Category == "" {
		in.Category = DefaultCategory
	}
	if in.Status == "" {
		in.Status = StatusScheduled
	}
	if !ValidStatus(in.Status) {
		return apperr.Invalid("status", "must be one of "+strings.Join(statuses, ", "))
	}
	if in.Priority == "" {
		in.Priority = PriorityElective
	}
	if !ValidPriority(in.Priority) {
		return apperr.Invalid("priority", "must be one of "+strings.Join(priorities, ", "))
	}
	if in.EstimatedDuration == 0 {
		in.EstimatedDuration = DefaultDuration
	}
	if in.EstimatedDuration < 0 {
		return apperr.Invalid("estimated_duration", "must be positive minutes")
	}
	in.Assistants = compact(in.Assistants)
	in.Equipment = compact(in.Equipment)

	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return apperr.Store("list operating rooms", err)
	}
	for _, r := range rooms {
		if r.Name == in.Room {
			return nil
		}
	}
	return apperr.Invalid("room", "is not a known operating room")
}

// compact trims entries and drops blanks. The result is never nil.
func compact(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

func (s *Service) Create(ctx context.Context, in *Surgery) error {
	if err := s.normalize(ctx, in); err != nil {
		return err
	}
	if err := s.surgeries.Create(ctx, in); err != nil {
		return apperr.Store("create surgery", err)
	}
	s.logger.Info().Int64("surgery_id", in.ID).Str("room", in.Room).
		Str("date", in.Date).Str("start_time", in.StartTime).Msg("surgery scheduled")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Surgery, error) {
	out, err := s.surgeries.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("get surgery", err)
	}
	return out, nil
}

// Update replaces every editable field of an existing surgery.
func (s *Service) Update(ctx context.Context, in *Surgery) error {
	existing, err := s.Get(ctx, in.ID)
	if err != nil {
		return err
	}
	if err := s.normalize(ctx, in); err != nil {
		return err
	}
	in.CreatedAt = existing.CreatedAt
	return apperr.Store("update surgery", s.surgeries.Update(ctx, in))
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status string) (*Surgery, error) {
	if !ValidStatus(status) {
		return nil, apperr.Invalid("status", "must be one of "+strings.Join(statuses, ", "))
	}
	if err := s.surgeries.UpdateStatus(ctx, id, status); err != nil {
		return nil, apperr.Store("update surgery status", err)
	}
	s.logger.Info().Int64("surgery_id", id).Str("status", status).Msg("surgery status changed")
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return apperr.Store("delete surgery", s.surgeries.Delete(ctx, id))
}

func (s *Service) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Surgery, int, error) {
	if v := params["status"]; v != "" && !ValidStatus(v) {
		return nil, 0, apperr.Invalid("status", "must be one of "+strings.Join(statuses, ", "))
	}
	if v := params["date"]; v != "" && !wallclock.ValidDate(v) {
		return nil, 0, apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	items, total, err := s.surgeries.Search(ctx, params, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("search surgeries", err)
	}
	return items, total, nil
}

// Stats summarises the board for date, or for today in the clinic zone when
// date is empty.
func (s *Service) Stats(ctx context.Context, date string) (*BoardStats, error) {
	if date == "" {
		date = s.clock.Now().DateString()
	}
	if !wallclock.ValidDate(date) {
		return nil, apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	st, err := s.surgeries.Stats(ctx, date)
	if err != nil {
		return nil, apperr.Store("surgery stats", err)
	}
	return st, nil
}

func (s *Service) ListRooms(ctx context.Context) ([]*OperatingRoom, error) {
	rooms, err := s.rooms.List(ctx)
	if err != nil {
		return nil, apperr.Store("list operating rooms", err)
	}
	return rooms, nil
}

// UpdateRoomStatus changes a room's board status. Only an occupied or
// in-progress room keeps its current surgery.
func (s *Service) UpdateRoomStatus(ctx context.Context, id int64, u RoomStatusUpdate) (*OperatingRoom, error) {
	u.Status = strings.TrimSpace(u.Status)
	if u.Status == "" {
		return nil, apperr.Required("status")
	}
	if !ValidRoomStatus(u.Status) {
		return nil, apperr.Invalid("status", "must be one of "+strings.Join(roomStatuses, ", "))
	}
	if u.CurrentSurgery != nil {
		if v := strings.TrimSpace(*u.CurrentSurgery); v == "" {
			u.CurrentSurgery = nil
		} else {
			u.CurrentSurgery = &v
		}
	}
	if u.Status == RoomAvailable || u.Status == RoomMaintenance {
		u.CurrentSurgery = nil
	}
	u.NextAvailable = strings.TrimSpace(u.NextAvailable)
	if u.NextAvailable == "" && u.Status == RoomAvailable {
		u.NextAvailable = "Ahora"
	}
	room, err := s.rooms.UpdateStatus(ctx, id, u)
	if err != nil {
		return nil, apperr.Store("update room status", err)
	}
	s.logger.Info().Int64("room_id", id).Str("status", u.Status).Msg("operating room status changed")
	return room, nil
}
