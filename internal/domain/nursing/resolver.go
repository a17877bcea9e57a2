package nursing

import (
	"context"
	"time"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/patient"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// PatientLookup resolves patient ids, keeping the order of ids.
type PatientLookup interface {
	ListByIDs(ctx context.Context, ids []int64) ([]*patient.Patient, error)
}

// Resolver answers which shift a nurse is on and which patients they look
// after. A nurse id that does not belong to an active nurse yields empty
// results rather than an error.
type Resolver struct {
	staff       StaffRepository
	shifts      ShiftRepository
	assignments AssignmentRepository
	patients    PatientLookup
	window      WindowConfig
	clock       *wallclock.Clock
}

func NewResolver(staff StaffRepository, shifts ShiftRepository, assignments AssignmentRepository,
	patients PatientLookup, window WindowConfig, clock *wallclock.Clock) *Resolver {
	return &Resolver{
		staff:       staff,
		shifts:      shifts,
		assignments: assignments,
		patients:    patients,
		window:      window,
		clock:       clock,
	}
}

// Now returns the clinic wall clock.
func (r *Resolver) Now() wallclock.Timestamp { return r.clock.Now() }

func (r *Resolver) isNurse(ctx context.Context, nurseID int64) (bool, error) {
	s, err := r.staff.GetByID(ctx, nurseID)
	if apperr.IsNotFound(err) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Store("get nurse", err)
	}
	return s.IsNurse(), nil
}

// ResolveActiveShift returns the shift containing now, or nil when the nurse
// is off duty. The previous day is scanned too so that a night shift that
// started yesterday is found. Overlapping shifts resolve to the most
// recently created one.
func (r *Resolver) ResolveActiveShift(ctx context.Context, nurseID int64, now wallclock.Timestamp) (*NurseShift, error) {
	ok, err := r.isNurse(ctx, nurseID)
	if err != nil || !ok {
		return nil, err
	}
	day := wallclock.StartOfDay(now.Time)
	candidates, err := r.shifts.ListByNurse(ctx, nurseID,
		day.AddDate(0, 0, -1).Format(wallclock.DateLayout), day.Format(wallclock.DateLayout))
	if err != nil {
		return nil, apperr.Store("list shifts", err)
	}

	var active *NurseShift
	for _, s := range candidates {
		if !s.Contains(now.Time) {
			continue
		}
		if active == nil || s.newerThan(active) {
			active = s
		}
	}
	if active == nil {
		return nil, nil
	}
	if err := r.withCounts(ctx, []*NurseShift{active}); err != nil {
		return nil, err
	}
	return active, nil
}

// ResolveAssignedPatients returns the distinct active patients assigned to
// the nurse on any shift overlapping [ref-Before, ref+After), in assignment
// order.
func (r *Resolver) ResolveAssignedPatients(ctx context.Context, nurseID int64, ref wallclock.Timestamp) ([]*patient.Patient, error) {
	out := []*patient.Patient{}
	ok, err := r.isNurse(ctx, nurseID)
	if err != nil || !ok {
		return out, err
	}

	from := ref.Add(-r.window.Before)
	to := ref.Add(r.window.After)
	candidates, err := r.shifts.ListByNurse(ctx, nurseID,
		wallclock.StartOfDay(from).AddDate(0, 0, -1).Format(wallclock.DateLayout),
		to.Format(wallclock.DateLayout))
	if err != nil {
		return nil, apperr.Store("list shifts", err)
	}
	var shiftIDs []int64
	for _, s := range candidates {
		if s.Overlaps(from, to) {
			shiftIDs = append(shiftIDs, s.ID)
		}
	}
	if len(shiftIDs) == 0 {
		return out, nil
	}

	assigned, err := r.assignments.ListByShifts(ctx, nurseID, shiftIDs)
	if err != nil {
		return nil, apperr.Store("list assignments", err)
	}
	seen := make(map[int64]bool, len(assigned))
	var patientIDs []int64
	for _, a := range assigned {
		if !seen[a.PatientID] {
			seen[a.PatientID] = true
			patientIDs = append(patientIDs, a.PatientID)
		}
	}
	if len(patientIDs) == 0 {
		return out, nil
	}

	patients, err := r.patients.ListByIDs(ctx, patientIDs)
	if err != nil {
		return nil, apperr.Store("list assigned patients", err)
	}
	for _, p := range patients {
		if p.Active {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListShiftsInWindow returns the nurse's shifts dated between start and end
// inclusive, by date and start time, each with its assignment count.
func (r *Resolver) ListShiftsInWindow(ctx context.Context, nurseID int64, start, end time.Time) ([]*NurseShift, error) {
	out := []*NurseShift{}
	ok, err := r.isNurse(ctx, nurseID)
	if err != nil || !ok {
		return out, err
	}
	if end.Before(start) {
		return out, nil
	}
	shifts, err := r.shifts.ListByNurse(ctx, nurseID,
		start.Format(wallclock.DateLayout), end.Format(wallclock.DateLayout))
	if err != nil {
		return nil, apperr.Store("list shifts", err)
	}
	if err := r.withCounts(ctx, shifts); err != nil {
		return nil, err
	}
	return append(out, shifts...), nil
}

func (r *Resolver) withCounts(ctx context.Context, shifts []*NurseShift) error {
	if len(shifts) == 0 {
		return nil
	}
	ids := make([]int64, len(shifts))
	for i, s := range shifts {
		ids[i] = s.ID
	}
	counts, err := r.shifts.CountAssignments(ctx, ids)
	if err != nil {
		return apperr.Store("count assignments", err)
	}
	for _, s := range shifts {
		s.AssignedPatientsCount = counts[s.ID]
	}
	return nil
}
