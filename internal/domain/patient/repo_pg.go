package patient

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

// =========== Patient Repository ===========

type patientRepoPG struct{ pool *pgxpool.Pool }

func NewPatientRepoPG(pool *pgxpool.Pool) PatientRepository { return &patientRepoPG{pool: pool} }

func (r *patientRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const patientCols = `id, name, age, room, floor, area, bed, blood_type, allergies,
	condition, admission_date, triage_level, active, created_at, updated_at`

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Room, &p.Floor, &p.Area, &p.Bed, &p.BloodType, &p.Allergies,
		&p.Condition, &p.AdmissionDate, &p.TriageLevel, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return &p, err
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	defer rows.Close()
	items := []*Patient{}
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (r *patientRepoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patients (name, age, room, floor, area, bed, blood_type, allergies,
			condition, admission_date, triage_level, active)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at, updated_at`,
		p.Name, p.Age, p.Room, p.Floor, p.Area, p.Bed, p.BloodType, p.Allergies,
		p.Condition, p.AdmissionDate, p.TriageLevel, p.Active,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *patientRepoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	p, err := scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *patientRepoPG) ListByIDs(ctx context.Context, ids []int64) ([]*Patient, error) {
	if len(ids) == 0 {
		return []*Patient{}, nil
	}
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	found, err := collectPatients(rows)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]*Patient, len(found))
	for _, p := range found {
		byID[p.ID] = p
	}
	out := make([]*Patient, 0, len(found))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r *patientRepoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patients SET name=$2, age=$3, room=$4, floor=$5, area=$6, bed=$7,
			blood_type=$8, allergies=$9, condition=$10, admission_date=$11,
			triage_level=$12, active=$13, updated_at=NOW()
		WHERE id = $1`,
		p.ID, p.Name, p.Age, p.Room, p.Floor, p.Area, p.Bed,
		p.BloodType, p.Allergies, p.Condition, p.AdmissionDate,
		p.TriageLevel, p.Active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (r *patientRepoPG) Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Patient, int, error) {
	where := ` WHERE 1=1`
	var args []interface{}
	idx := 1

	if params["include_inactive"] != "true" {
		where += ` AND active`
	}
	if v, ok := params["condition"]; ok && v != "" {
		where += fmt.Sprintf(` AND condition = $%d`, idx)
		args = append(args, v)
		idx++
	}
	if v, ok := params["q"]; ok && strings.TrimSpace(v) != "" {
		where += fmt.Sprintf(` AND (name ILIKE $%d OR room ILIKE $%d)`, idx, idx)
		args = append(args, "%"+strings.TrimSpace(v)+"%")
		idx++
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patients`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + patientCols + ` FROM patients` + where +
		fmt.Sprintf(` ORDER BY id LIMIT $%d OFFSET $%d`, idx, idx+1)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	items, err := collectPatients(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *patientRepoPG) TriageQueue(ctx context.Context) ([]*Patient, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+patientCols+` FROM patients
		WHERE active ORDER BY triage_level, admission_date, id`)
	if err != nil {
		return nil, err
	}
	return collectPatients(rows)
}

// =========== Transfer Repository ===========

type transferRepoPG struct{ pool *pgxpool.Pool }

func NewTransferRepoPG(pool *pgxpool.Pool) TransferRepository { return &transferRepoPG{pool: pool} }

func (r *transferRepoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const transferCols = `id, patient_id, transfer_date, transfer_time,
	from_floor, from_area, from_room, from_bed, to_floor, to_area, to_room, to_bed,
	reason, notes, transferred_by, created_at`

func scanTransfer(row pgx.Row) (*Transfer, error) {
	var t Transfer
	err := row.Scan(&t.ID, &t.PatientID, &t.TransferDate, &t.TransferTime,
		&t.FromFloor, &t.FromArea, &t.FromRoom, &t.FromBed, &t.ToFloor, &t.ToArea, &t.ToRoom, &t.ToBed,
		&t.Reason, &t.Notes, &t.TransferredBy, &t.CreatedAt)
	return &t, err
}

func (r *transferRepoPG) Create(ctx context.Context, t *Transfer) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO transfers (patient_id, transfer_date, transfer_time,
			from_floor, from_area, from_room, from_bed, to_floor, to_area, to_room, to_bed,
			reason, notes, transferred_by)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id, created_at`,
		t.PatientID, t.TransferDate, t.TransferTime,
		t.FromFloor, t.FromArea, t.FromRoom, t.FromBed, t.ToFloor, t.ToArea, t.ToRoom, t.ToBed,
		t.Reason, t.Notes, t.TransferredBy,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *transferRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Transfer, error) {
	rows, err := r.conn(ctx).Query(ctx, `SELECT `+transferCols+` FROM transfers WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []*Transfer{}
	for rows.Next() {
		t, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}
