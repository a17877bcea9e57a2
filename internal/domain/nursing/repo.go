package nursing

import (
	"context"
)

type StaffRepository interface {
	Create(ctx context.Context, s *Staff) error
	GetByID(ctx context.Context, id int64) (*Staff, error)
	List(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error)
}

type ShiftRepository interface {
	Create(ctx context.Context, s *NurseShift) error
	GetByID(ctx context.Context, id int64) (*NurseShift, error)
	// ListByNurse returns shifts dated within [fromDate, toDate], ordered by
	// date, start time and id.
	ListByNurse(ctx context.Context, nurseID int64, fromDate, toDate string) ([]*NurseShift, error)
	// CountAssignments returns the number of assignments per shift id.
	CountAssignments(ctx context.Context, shiftIDs []int64) (map[int64]int, error)
}

type AssignmentRepository interface {
	Create(ctx context.Context, a *ShiftAssignment) error
	// ListByShifts returns the nurse's assignments on the given shifts in
	// insertion order.
	ListByShifts(ctx context.Context, nurseID int64, shiftIDs []int64) ([]*ShiftAssignment, error)
}
