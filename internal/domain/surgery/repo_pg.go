package surgery

import (
	"context"
	"errors"
	"fmt"
	"strings"

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

// =========== Surgery Repository ===========

type surgeryRepoPG struct{ pool *pgxpool.Pool }

func NewSurgeryRepoPG(pool *pgxpool.Pool) SurgeryRepository { return &surgeryRepoPG{pool: pool} }

const surgeryCols = `id, patient_id, patient_name, patient_age, surgeon, anesthesiologist, assistants,
	surgery_type, category, room, date, start_time, estimated_duration, status, priority,
	pre_op_completed, pre_op_notes, allergies, blood_type, consent, equipment, notes,
	post_op_notes, created_at, updated_at`

func scanSurgery(row pgx.Row) (*Surgery, error) {
	var s Surgery
	err := row.Scan(&s.ID, &s.PatientID, &s.PatientName, &s.PatientAge, &s.Surgeon, &s.Anesthesiologist,
		&s.Assistants, &s.SurgeryType, &s.Category, &s.Room, &s.Date, &s.StartTime, &s.EstimatedDuration,
		&s.Status, &s.Priority, &s.PreOpCompleted, &s.PreOpNotes, &s.Allergies, &s.BloodType, &s.Consent,
		&s.Equipment, &s.Notes, &s.PostOpNotes, &s.CreatedAt, &s.UpdatedAt)
	if s.Assistants == nil {
		s.Assistants = []string{}
	}
	if s.Equipment == nil {
		s.Equipment = []string{}
	}
	return &s, err
}

func (r *surgeryRepoPG) Create(ctx context.Context, s *Surgery) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO surgeries (patient_id, patient_name, patient_age, surgeon, anesthesiologist,
			assistants, surgery_type, category, room, date, start_time, estimated_duration,
			status, priority, pre_op_completed, pre_op_notes, allergies, blood_type, consent,
			equipment, notes, post_op_notes)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22)
		RETURNING id, created_at, updated_at`,
		s.PatientID, s.PatientName, s.PatientAge, s.Surgeon, s.Anesthesiologist,
		s.Assistants, s.SurgeryType, s.Category, s.Room, s.Date, s.StartTime, s.EstimatedDuration,
		s.Status, s.Priority, s.PreOpCompleted, s.PreOpNotes, s.Allergies, s.BloodType, s.Consent,
		s.Equipment, s.Notes, s.PostOpNotes,
	).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if db.IsForeignKeyViolation(err) {
		return apperr.Invalid("patient_id", "does not reference a known patient")
	}
	return err
}

func (r *surgeryRepoPG) GetByID(ctx context.Context, id int64) (*Surgery, error) {
	s, err := scanSurgery(connFor(ctx, r.pool).QueryRow(ctx, `SELECT `+surgeryCols+` FROM surgeries WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return s, nil
}

func (r *surgeryRepoPG) Update(ctx context.Context, s *Surgery) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		UPDATE surgeries SET patient_id=$2, patient_name=$3, patient_age=$4, surgeon=$5,
			anesthesiologist=$6, assistants=$7, surgery_type=$8, category=$9, room=$10, date=$11,
			start_time=$12, estimated_duration=$13, status=$14, priority=$15, pre_op_completed=$16,
			pre_op_notes=$17, allergies=$18, blood_type=$19, consent=$20, equipment=$21, notes=$22,
			post_op_notes=$23, updated_at=NOW()
		WHERE id = $1
		RETURNING updated_at`,
		s.ID, s.PatientID, s.PatientName, s.PatientAge, s.Surgeon,
		s.Anesthesiologist, s.Assistants, s.SurgeryType, s.Category, s.Room, s.Date,
		s.StartTime, s.EstimatedDuration, s.Status, s.Priority, s.PreOpCompleted,
		s.PreOpNotes, s.Allergies, s.BloodType, s.Consent, s.Equipment, s.Notes,
		s.PostOpNotes,
	).Scan(&s.UpdatedAt)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		return apperr.ErrNotFound
	case db.IsForeignKeyViolation(err):
		return apperr.Invalid("patient_id", "does not reference a known patient")
	}
	return err
}

func (r *surgeryRepoPG) UpdateStatus(ctx context.Context, id int64, status string) error {
	tag, err := connFor(ctx, r.pool).Exec(ctx,
		`UPDATE surgeries SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *surgeryRepoPG) Delete(ctx context.Context, id int64) error {
	tag, err := connFor(ctx, r.pool).Exec(ctx, `DELETE FROM surgeries WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *surgeryRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Surgery, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if v := strings.TrimSpace(params["q"]); v != "" {
		where += fmt.Sprintf(` AND (patient_name ILIKE $%d OR surgeon ILIKE $%d OR surgery_type ILIKE $%d)`, idx, idx, idx)
		args = append(args, "%"+v+"%")
		idx++
	}
	for _, col := range []string{"status", "room", "date"} {
		if v := params[col]; v != "" {
			where += fmt.Sprintf(` AND %s = $%d`, col, idx)
			args = append(args, v)
			idx++
		}
	}

	var total int
	if err := connFor(ctx, r.pool).QueryRow(ctx, `SELECT COUNT(*) FROM surgeries`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + surgeryCols + ` FROM surgeries` + where +
		fmt.Sprintf(` ORDER BY date, start_time, id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := connFor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	items := []*Surgery{}
	for rows.Next() {
		s, err := scanSurgery(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, s)
	}
	return items, total, rows.Err()
}

func (r *surgeryRepoPG) Stats(ctx context.Context, date string) (*BoardStats, error) {
	st := BoardStats{Date: date}
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE date = $1),
			COUNT(*) FILTER (WHERE status = $2),
			COUNT(*) FILTER (WHERE status = $3),
			COUNT(*) FILTER (WHERE status = $4)
		FROM surgeries`,
		date, StatusInProgress, StatusScheduled, StatusCompleted,
	).Scan(&st.Today, &st.InProgress, &st.Scheduled, &st.Completed)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// =========== Operating Room Repository ===========

type roomRepoPG struct{ pool *pgxpool.Pool }

func NewRoomRepoPG(pool *pgxpool.Pool) RoomRepository { return &roomRepoPG{pool: pool} }

const roomCols = `id, name, status, current_surgery, next_available, updated_at`

func scanRoom(row pgx.Row) (*OperatingRoom, error) {
	var o OperatingRoom
	err := row.Scan(&o.ID, &o.Name, &o.Status, &o.CurrentSurgery, &o.NextAvailable, &o.UpdatedAt)
	return &o, err
}

func (r *roomRepoPG) List(ctx context.Context) ([]*OperatingRoom, error) {
	rows, err := connFor(ctx, r.pool).Query(ctx, `SELECT `+roomCols+` FROM operating_rooms ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*OperatingRoom{}
	for rows.Next() {
		o, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, o)
	}
	return items, rows.Err()
}

func (r *roomRepoPG) GetByID(ctx context.Context, id int64) (*OperatingRoom, error) {
	o, err := scanRoom(connFor(ctx, r.pool).QueryRow(ctx, `SELECT `+roomCols+` FROM operating_rooms WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (r *roomRepoPG) UpdateStatus(ctx context.Context, id int64, u RoomStatusUpdate) (*OperatingRoom, error) {
	o, err := scanRoom(connFor(ctx, r.pool).QueryRow(ctx, `
		UPDATE operating_rooms SET status = $2, current_surgery = $3, next_available = $4, updated_at = NOW()
		WHERE id = $1
		RETURNING `+roomCols,
		id, u.Status, u.CurrentSurgery, u.NextAvailable))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return o, nil
}
