package nursing

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Service manages staff accounts, shifts and patient assignments.
type Service struct {
	staff       StaffRepository
	shifts      ShiftRepository
	assignments AssignmentRepository
	patients    PatientLookup
	windows     ShiftWindows
	logger      zerolog.Logger
}

func NewService(staff StaffRepository, shifts ShiftRepository, assignments AssignmentRepository,
	patients PatientLookup, windows ShiftWindows, logger zerolog.Logger) *Service {
	return &Service{
		staff:       staff,
		shifts:      shifts,
		assignments: assignments,
		patients:    patients,
		windows:     windows,
		logger:      logger,
	}
}

// -- Staff --

func (s *Service) CreateStaff(ctx context.Context, st *Staff) error {
	st.Username = strings.TrimSpace(st.Username)
	st.Name = strings.TrimSpace(st.Name)
	st.Role = strings.ToLower(strings.TrimSpace(st.Role))
	if st.Username == "" {
		return apperr.Required("username")
	}
	if st.Name == "" {
		return apperr.Required("name")
	}
	if st.Role == "" {
		return apperr.Required("role")
	}
	if !ValidStaffRole(st.Role) {
		return apperr.Invalid("role", "must be one of nurse, doctor, admin, patient")
	}
	if st.Role == RolePatient && (st.PatientID == nil || *st.PatientID <= 0) {
		return apperr.Invalid("patient_id", "is required for patient accounts")
	}
	if st.Role != RolePatient {
		st.PatientID = nil
	}
	st.Active = true
	if err := s.staff.Create(ctx, st); err != nil {
		return apperr.Store("create user", err)
	}
	s.logger.Info().Int64("user_id", st.ID).Str("role", st.Role).Msg("user created")
	return nil
}

func (s *Service) GetStaff(ctx context.Context, id int64) (*Staff, error) {
	st, err := s.staff.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Store("get user", err)
	}
	return st, nil
}

func (s *Service) ListStaff(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	if role != "" && !ValidStaffRole(role) {
		return nil, 0, apperr.Invalid("role", "is not a known role")
	}
	items, total, err := s.staff.List(ctx, role, limit, offset)
	if err != nil {
		return nil, 0, apperr.Store("list users", err)
	}
	return items, total, nil
}

// -- Shifts --

// CreateShift schedules a nurse. Start and end times default to the
// configured window of the shift type.
func (s *Service) CreateShift(ctx context.Context, sh *NurseShift) error {
	if sh.NurseID == 0 {
		return apperr.Required("nurse_id")
	}
	if strings.TrimSpace(sh.Date) == "" {
		return apperr.Required("date")
	}
	if !wallclock.ValidDate(sh.Date) {
		return apperr.Invalid("date", "must be YYYY-MM-DD")
	}
	if strings.TrimSpace(string(sh.ShiftType)) == "" {
		return apperr.Required("shift_type")
	}
	shift, ok := ParseShift(string(sh.ShiftType))
	if !ok {
		return apperr.Invalid("shift_type", "must be one of Mañana, Tarde, Noche")
	}
	sh.ShiftType = shift

	start, end := s.windows.Hours(shift)
	if sh.StartTime == "" {
		sh.StartTime = start
	}
	if sh.EndTime == "" {
		sh.EndTime = end
	}
	var err error
	if sh.StartTime, err = wallclock.NormalizeTime(sh.StartTime); err != nil {
		return apperr.Invalid("start_time", "must be HH:MM")
	}
	if sh.EndTime, err = wallclock.NormalizeTime(sh.EndTime); err != nil {
		return apperr.Invalid("end_time", "must be HH:MM")
	}
	sh.Department = strings.TrimSpace(sh.Department)

	nurse, err := s.staff.GetByID(ctx, sh.NurseID)
	if apperr.IsNotFound(err) || (err == nil && !nurse.IsNurse()) {
		return apperr.Invalid("nurse_id", "is not an active nurse")
	}
	if err != nil {
		return apperr.Store("get nurse", err)
	}

	if err := s.shifts.Create(ctx, sh); err != nil {
		return apperr.Store("create shift", err)
	}
	s.logger.Debug().
		Int64("shift_id", sh.ID).
		Int64("nurse_id", sh.NurseID).
		Str("date", sh.Date).
		Str("shift_type", string(sh.ShiftType)).
		Msg("shift created")
	return nil
}

// AssignPatient puts a patient under the care of the shift's nurse.
func (s *Service) AssignPatient(ctx context.Context, a *ShiftAssignment) error {
	if a.ShiftID == 0 {
		return apperr.Required("shift_id")
	}
	if a.PatientID == 0 {
		return apperr.Required("patient_id")
	}
	shift, err := s.shifts.GetByID(ctx, a.ShiftID)
	if err != nil {
		return apperr.Store("get shift", err)
	}
	if a.NurseID != 0 && a.NurseID != shift.NurseID {
		return apperr.Invalid("nurse_id", "does not match the shift")
	}
	a.NurseID = shift.NurseID

	found, err := s.patients.ListByIDs(ctx, []int64{a.PatientID})
	if err != nil {
		return apperr.Store("get patient", err)
	}
	if len(found) == 0 || !found[0].Active {
		return apperr.Invalid("patient_id", "is not an admitted patient")
	}

	a.AssignmentNotes = strings.TrimSpace(a.AssignmentNotes)
	if err := s.assignments.Create(ctx, a); err != nil {
		if apperr.IsConflict(err) {
			s.logger.Warn().Int64("shift_id", a.ShiftID).Int64("patient_id", a.PatientID).Msg("duplicate assignment")
		}
		return apperr.Store("create assignment", err)
	}
	s.logger.Debug().
		Int64("assignment_id", a.ID).
		Int64("shift_id", a.ShiftID).
		Int64("patient_id", a.PatientID).
		Msg("patient assigned")
	return nil
}
