package nursing

import (
	"strings"
	"time"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// Staff roles as stored in the users table.
const (
	RoleNurse   = "nurse"
	RoleDoctor  = "doctor"
	RoleAdmin   = "admin"
	RolePatient = "patient"
)

// ValidStaffRole reports whether r is a known account role.
func ValidStaffRole(r string) bool {
	switch r {
	case RoleNurse, RoleDoctor, RoleAdmin, RolePatient:
		return true
	}
	return false
}

// Staff maps to the users table. Credentials live with the token issuer.
type Staff struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Name      string    `db:"name" json:"name"`
	Role      string    `db:"role" json:"role"`
	Email     string    `db:"email" json:"email"`
	PatientID *int64    `db:"patient_id" json:"patient_id,omitempty"`
	Active    bool      `db:"active" json:"active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsNurse reports whether s is an active nurse account.
func (s *Staff) IsNurse() bool {
	return s != nil && s.Active && s.Role == RoleNurse
}

// NurseShift maps to the nurse_shifts table. An end time at or before the
// start time means the shift finishes on the following day.
type NurseShift struct {
	ID                    int64     `db:"id" json:"id"`
	NurseID               int64     `db:"nurse_id" json:"nurse_id"`
	Date                  string    `db:"date" json:"date"`
	ShiftType             Shift     `db:"shift_type" json:"shift_type"`
	StartTime             string    `db:"start_time" json:"start_time"`
	EndTime               string    `db:"end_time" json:"end_time"`
	Department            string    `db:"department" json:"department"`
	AssignedPatientsCount int       `db:"-" json:"assigned_patients_count"`
	CreatedAt             time.Time `db:"created_at" json:"created_at"`
}

// Span returns the wall-clock interval [start, end) the shift covers.
func (s *NurseShift) Span() (start, end time.Time, err error) {
	from, err := wallclock.Combine(s.Date, s.StartTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	to, err := wallclock.Combine(s.Date, s.EndTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if !to.After(from.Time) {
		to.Time = to.Time.Add(24 * time.Hour)
	}
	return from.Time, to.Time, nil
}

// Contains reports whether t falls within the shift.
func (s *NurseShift) Contains(t time.Time) bool {
	start, end, err := s.Span()
	if err != nil {
		return false
	}
	return !t.Before(start) && t.Before(end)
}

// Overlaps reports whether the shift intersects [from, to).
func (s *NurseShift) Overlaps(from, to time.Time) bool {
	start, end, err := s.Span()
	if err != nil {
		return false
	}
	return start.Before(to) && end.After(from)
}

// newerThan orders overlapping shifts: latest created first, then higher id.
func (s *NurseShift) newerThan(o *NurseShift) bool {
	if !s.CreatedAt.Equal(o.CreatedAt) {
		return s.CreatedAt.After(o.CreatedAt)
	}
	return s.ID > o.ID
}

// ShiftAssignment maps to the shift_assignments table.
type ShiftAssignment struct {
	ID              int64     `db:"id" json:"id"`
	NurseID         int64     `db:"nurse_id" json:"nurse_id"`
	PatientID       int64     `db:"patient_id" json:"patient_id"`
	ShiftID         int64     `db:"shift_id" json:"shift_id"`
	AssignmentNotes string    `db:"assignment_notes" json:"assignment_notes"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// Shift is a nursing shift bucket.
type Shift string

const (
	ShiftMorning   Shift = "Mañana"
	ShiftAfternoon Shift = "Tarde"
	ShiftNight     Shift = "Noche"
)

// ParseShift accepts the Spanish names and their English aliases, ignoring
// case and the tilde.
func ParseShift(s string) (Shift, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mañana", "manana", "morning":
		return ShiftMorning, true
	case "tarde", "afternoon":
		return ShiftAfternoon, true
	case "noche", "night":
		return ShiftNight, true
	}
	return "", false
}

// ShiftWindows holds the hours at which each shift begins.
type ShiftWindows struct {
	MorningStart   int
	AfternoonStart int
	NightStart     int
}

func DefaultShiftWindows() ShiftWindows {
	return ShiftWindows{MorningStart: 7, AfternoonStart: 15, NightStart: 23}
}

// Classify maps an hour of the day to its shift.
func (w ShiftWindows) Classify(hour int) Shift {
	switch {
	case hour >= w.MorningStart && hour < w.AfternoonStart:
		return ShiftMorning
	case hour >= w.AfternoonStart && hour < w.NightStart:
		return ShiftAfternoon
	default:
		return ShiftNight
	}
}

// Hours returns the default start and end times for shift s.
func (w ShiftWindows) Hours(s Shift) (start, end string) {
	hhmm := func(h int) string { return time.Date(0, 1, 1, h, 0, 0, 0, time.UTC).Format(wallclock.TimeLayout) }
	switch s {
	case ShiftMorning:
		return hhmm(w.MorningStart), hhmm(w.AfternoonStart)
	case ShiftAfternoon:
		return hhmm(w.AfternoonStart), hhmm(w.NightStart)
	default:
		return hhmm(w.NightStart), hhmm(w.MorningStart)
	}
}

// WindowConfig bounds the assignment lookup around a reference instant.
type WindowConfig struct {
	Before time.Duration
	After  time.Duration
}

func DefaultWindowConfig() WindowConfig {
	return WindowConfig{Before: 72 * time.Hour, After: 96 * time.Hour}
}
