package nursing

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

func connFor(ctx context.Context, pool *pgxpool.Pool) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return pool
}

// =========== Staff Repository ===========

type staffRepoPG struct{ pool *pgxpool.Pool }

func NewStaffRepoPG(pool *pgxpool.Pool) StaffRepository { return &staffRepoPG{pool: pool} }

const staffCols = `id, username, name, role, COALESCE(email, ''), patient_id, active, created_at`

func scanStaff(row pgx.Row) (*Staff, error) {
	var s Staff
	err := row.Scan(&s.ID, &s.Username, &s.Name, &s.Role, &s.Email, &s.PatientID, &s.Active, &s.CreatedAt)
	return &s, err
}

func (r *staffRepoPG) Create(ctx context.Context, s *Staff) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO users (username, name, role, email, patient_id, active)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		RETURNING id, created_at`,
		s.Username, s.Name, s.Role, s.Email, s.PatientID, s.Active,
	).Scan(&s.ID, &s.CreatedAt)
	if db.IsUniqueViolation(err) {
		return &apperr.ConflictError{Resource: "user", Key: s.Username}
	}
	return err
}

func (r *staffRepoPG) GetByID(ctx context.Context, id int64) (*Staff, error) {
	s, err := scanStaff(connFor(ctx, r.pool).QueryRow(ctx, `SELECT `+staffCols+` FROM users WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *staffRepoPG) List(ctx context.Context, role string, limit, offset int) ([]*Staff, int, error) {
	where := ` WHERE 1=1`
	args := []interface{}{}
	idx := 1
	if role != "" {
		where += fmt.Sprintf(` AND role = $%d`, idx)
		args = append(args, role)
		idx++
	}

	var total int
	if err := connFor(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + staffCols + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Staff{}
	for rows.Next() {
		s, err := scanStaff(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

// =========== Shift Repository ===========

type shiftRepoPG struct{ pool *pgxpool.Pool }

func NewShiftRepoPG(pool *pgxpool.Pool) ShiftRepository { return &shiftRepoPG{pool: pool} }

const shiftCols = `id, nurse_id, date, shift_type, start_time, end_time, department, created_at`

func scanShift(row pgx.Row) (*NurseShift, error) {
	var s NurseShift
	var shiftType string
	err := row.Scan(&s.ID, &s.NurseID, &s.Date, &shiftType, &s.StartTime, &s.EndTime, &s.Department, &s.CreatedAt)
	s.ShiftType = Shift(shiftType)
	return &s, err
}

func (r *shiftRepoPG) Create(ctx context.Context, s *NurseShift) error {
	return connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO nurse_shifts (nurse_id, date, shift_type, start_time, end_time, department)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		s.NurseID, s.Date, string(s.ShiftType), s.StartTime, s.EndTime, s.Department,
	).Scan(&s.ID, &s.CreatedAt)
}

func (r *shiftRepoPG) GetByID(ctx context.Context, id int64) (*NurseShift, error) {
	s, err := scanShift(connFor(ctx, r.pool).QueryRow(ctx, `SELECT `+shiftCols+` FROM nurse_shifts WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *shiftRepoPG) ListByNurse(ctx context.Context, nurseID int64, fromDate, toDate string) ([]*NurseShift, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT `+shiftCols+` FROM nurse_shifts
		WHERE nurse_id = $1 AND date >= $2 AND date <= $3
		ORDER BY date, start_time, id`, nurseID, fromDate, toDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*NurseShift{}
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, s)
	}
	return items, rows.Err()
}

func (r *shiftRepoPG) CountAssignments(ctx context.Context, shiftIDs []int64) (map[int64]int, error) {
	counts := make(map[int64]int, len(shiftIDs))
	if len(shiftIDs) == 0 {
		return counts, nil
	}
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT shift_id, COUNT(*) FROM shift_assignments
		WHERE shift_id = ANY($1) GROUP BY shift_id`, shiftIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}

// =========== Assignment Repository ===========

type assignmentRepoPG struct{ pool *pgxpool.Pool }

func NewAssignmentRepoPG(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepoPG{pool: pool}
}

func (r *assignmentRepoPG) Create(ctx context.Context, a *ShiftAssignment) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO shift_assignments (nurse_id, patient_id, shift_id, assignment_notes)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`,
		a.NurseID, a.PatientID, a.ShiftID, a.AssignmentNotes,
	).Scan(&a.ID, &a.CreatedAt)
	if db.IsUniqueViolation(err) {
		return &apperr.ConflictError{
			Resource: "shift assignment",
			Key:      fmt.Sprintf("shift %d, patient %d", a.ShiftID, a.PatientID),
		}
	}
	return err
}

func (r *assignmentRepoPG) ListByShifts(ctx context.Context, nurseID int64, shiftIDs []int64) ([]*ShiftAssignment, error) {
	items := []*ShiftAssignment{}
	if len(shiftIDs) == 0 {
		return items, nil
	}
	rows, err := connFor(ctx, r.pool).Query(ctx, `
		SELECT id, nurse_id, patient_id, shift_id, assignment_notes, created_at
		FROM shift_assignments
		WHERE nurse_id = $1 AND shift_id = ANY($2)
		ORDER BY id`, nurseID, shiftIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var a ShiftAssignment
		if err := rows.Scan(&a.ID, &a.NurseID, &a.PatientID, &a.ShiftID, &a.AssignmentNotes, &a.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, &a)
	}
	return items, rows.Err()
}
