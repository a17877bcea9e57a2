package clinical

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/db"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
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

// NewStoresPG returns pgx-backed clinical stores.
func NewStoresPG(pool *pgxpool.Pool) Stores {
	return Stores{
		Vitals:     &vitalsRepoPG{pool: pool},
		Treatments: &treatmentRepoPG{pool: pool},
		NonPharma:  &nonPharmaRepoPG{pool: pool},
		Notes:      &noteRepoPG{pool: pool},
		Labs:       &labTestRepoPG{pool: pool},
		History:    &historyRepoPG{pool: pool},
	}
}

func insertErr(err error) error {
	if db.IsForeignKeyViolation(err) {
		return apperr.Invalid("patient_id", "does not reference a patient")
	}
	return err
}

func collect[T any](rows pgx.Rows, scan func(pgx.Row) (*T, error)) ([]*T, error) {
	defer rows.Close()
	items := []*T{}
	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func listByPatient[T any](ctx context.Context, q queryable, table, cols string, patientID int64,
	scan func(pgx.Row) (*T, error)) ([]*T, error) {
	rows, err := q.Query(ctx, `SELECT `+cols+` FROM `+table+` WHERE patient_id = $1 ORDER BY id`, patientID)
	if err != nil {
		return nil, err
	}
	return collect(rows, scan)
}

func listPage[T any](ctx context.Context, q queryable, table, cols string, limit, offset int,
	scan func(pgx.Row) (*T, error)) ([]*T, int, error) {
	var total int
	if err := q.QueryRow(ctx, `SELECT COUNT(*) FROM `+table).Scan(&total); err != nil {
		return nil, 0, err
	}
	rows, err := q.Query(ctx, `SELECT `+cols+` FROM `+table+` ORDER BY id LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	items, err := collect(rows, scan)
	return items, total, err
}

// =========== Vitals Repository ===========

type vitalsRepoPG struct{ pool *pgxpool.Pool }

const vitalsCols = `id, patient_id, date, temperature, blood_pressure, heart_rate,
	respiratory_rate, registered_by, created_at`

func scanVitals(row pgx.Row) (*VitalSigns, error) {
	var v VitalSigns
	var at time.Time
	err := row.Scan(&v.ID, &v.PatientID, &at, &v.Temperature, &v.BloodPressure, &v.HeartRate,
		&v.RespiratoryRate, &v.RegisteredBy, &v.CreatedAt)
	v.Date = wallclock.Of(at)
	return &v, err
}

func (r *vitalsRepoPG) Create(ctx context.Context, v *VitalSigns) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO vital_signs (patient_id, date, temperature, blood_pressure, heart_rate,
			respiratory_rate, registered_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		v.PatientID, v.Date.Time, v.Temperature, v.BloodPressure, v.HeartRate,
		v.RespiratoryRate, v.RegisteredBy,
	).Scan(&v.ID, &v.CreatedAt)
	return insertErr(err)
}

func (r *vitalsRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*VitalSigns, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "vital_signs", vitalsCols, patientID, scanVitals)
}

func (r *vitalsRepoPG) List(ctx context.Context, limit, offset int) ([]*VitalSigns, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "vital_signs", vitalsCols, limit, offset, scanVitals)
}

// =========== Treatment Repository ===========

type treatmentRepoPG struct{ pool *pgxpool.Pool }

const treatmentCols = `id, patient_id, medication, dose, frequency, start_date, applied_by,
	last_application, notes, created_at`

func scanTreatment(row pgx.Row) (*Treatment, error) {
	var t Treatment
	var last time.Time
	err := row.Scan(&t.ID, &t.PatientID, &t.Medication, &t.Dose, &t.Frequency, &t.StartDate, &t.AppliedBy,
		&last, &t.Notes, &t.CreatedAt)
	t.LastApplication = wallclock.Of(last)
	return &t, err
}

func (r *treatmentRepoPG) Create(ctx context.Context, t *Treatment) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO treatments (patient_id, medication, dose, frequency, start_date, applied_by,
			last_application, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`,
		t.PatientID, t.Medication, t.Dose, t.Frequency, t.StartDate, t.AppliedBy,
		t.LastApplication.Time, t.Notes,
	).Scan(&t.ID, &t.CreatedAt)
	return insertErr(err)
}

func (r *treatmentRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*Treatment, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "treatments", treatmentCols, patientID, scanTreatment)
}

func (r *treatmentRepoPG) List(ctx context.Context, limit, offset int) ([]*Treatment, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "treatments", treatmentCols, limit, offset, scanTreatment)
}

// =========== Non-Pharmacological Treatment Repository ===========

type nonPharmaRepoPG struct{ pool *pgxpool.Pool }

const nonPharmaCols = `id, patient_id, treatment_type, description, application_date, application_time,
	duration, performed_by, materials_used, observations, outcome, created_at`

func scanNonPharma(row pgx.Row) (*NonPharmaTreatment, error) {
	var t NonPharmaTreatment
	err := row.Scan(&t.ID, &t.PatientID, &t.TreatmentType, &t.Description, &t.ApplicationDate, &t.ApplicationTime,
		&t.Duration, &t.PerformedBy, &t.MaterialsUsed, &t.Observations, &t.Outcome, &t.CreatedAt)
	return &t, err
}

func (r *nonPharmaRepoPG) Create(ctx context.Context, t *NonPharmaTreatment) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO non_pharma_treatments (patient_id, treatment_type, description, application_date,
			application_time, duration, performed_by, materials_used, observations, outcome)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at`,
		t.PatientID, t.TreatmentType, t.Description, t.ApplicationDate,
		t.ApplicationTime, t.Duration, t.PerformedBy, t.MaterialsUsed, t.Observations, t.Outcome,
	).Scan(&t.ID, &t.CreatedAt)
	return insertErr(err)
}

func (r *nonPharmaRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*NonPharmaTreatment, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "non_pharma_treatments", nonPharmaCols, patientID, scanNonPharma)
}

func (r *nonPharmaRepoPG) List(ctx context.Context, limit, offset int) ([]*NonPharmaTreatment, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "non_pharma_treatments", nonPharmaCols, limit, offset, scanNonPharma)
}

// =========== Nurse Note Repository ===========

type noteRepoPG struct{ pool *pgxpool.Pool }

const noteCols = `id, patient_id, date, note, note_type, nurse_name, created_at`

func scanNote(row pgx.Row) (*NurseNote, error) {
	var n NurseNote
	var at time.Time
	err := row.Scan(&n.ID, &n.PatientID, &at, &n.Note, &n.NoteType, &n.NurseName, &n.CreatedAt)
	n.Date = wallclock.Of(at)
	return &n, err
}

func (r *noteRepoPG) Create(ctx context.Context, n *NurseNote) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO nurse_notes (patient_id, date, note, note_type, nurse_name)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at`,
		n.PatientID, n.Date.Time, n.Note, n.NoteType, n.NurseName,
	).Scan(&n.ID, &n.CreatedAt)
	return insertErr(err)
}

func (r *noteRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*NurseNote, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "nurse_notes", noteCols, patientID, scanNote)
}

func (r *noteRepoPG) List(ctx context.Context, limit, offset int) ([]*NurseNote, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "nurse_notes", noteCols, limit, offset, scanNote)
}

// =========== Lab Test Repository ===========

type labTestRepoPG struct{ pool *pgxpool.Pool }

const labTestCols = `id, patient_id, test, date, status, results, ordered_by, created_at`

func scanLabTest(row pgx.Row) (*LabTest, error) {
	var l LabTest
	var at time.Time
	err := row.Scan(&l.ID, &l.PatientID, &l.Test, &at, &l.Status, &l.Results, &l.OrderedBy, &l.CreatedAt)
	l.Date = wallclock.Of(at)
	return &l, err
}

func (r *labTestRepoPG) Create(ctx context.Context, l *LabTest) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO lab_tests (patient_id, test, date, status, results, ordered_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		l.PatientID, l.Test, l.Date.Time, l.Status, l.Results, l.OrderedBy,
	).Scan(&l.ID, &l.CreatedAt)
	return insertErr(err)
}

func (r *labTestRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*LabTest, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "lab_tests", labTestCols, patientID, scanLabTest)
}

func (r *labTestRepoPG) List(ctx context.Context, limit, offset int) ([]*LabTest, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "lab_tests", labTestCols, limit, offset, scanLabTest)
}

// =========== Medical History Repository ===========

type historyRepoPG struct{ pool *pgxpool.Pool }

const historyCols = `id, patient_id, date, diagnosis, treatment, notes, doctor, created_at`

func scanHistory(row pgx.Row) (*MedicalHistory, error) {
	var h MedicalHistory
	var at time.Time
	err := row.Scan(&h.ID, &h.PatientID, &at, &h.Diagnosis, &h.Treatment, &h.Notes, &h.Doctor, &h.CreatedAt)
	h.Date = wallclock.Of(at)
	return &h, err
}

func (r *historyRepoPG) Create(ctx context.Context, h *MedicalHistory) error {
	err := connFor(ctx, r.pool).QueryRow(ctx, `
		INSERT INTO medical_history (patient_id, date, diagnosis, treatment, notes, doctor)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		h.PatientID, h.Date.Time, h.Diagnosis, h.Treatment, h.Notes, h.Doctor,
	).Scan(&h.ID, &h.CreatedAt)
	return insertErr(err)
}

func (r *historyRepoPG) ListByPatient(ctx context.Context, patientID int64) ([]*MedicalHistory, error) {
	return listByPatient(ctx, connFor(ctx, r.pool), "medical_history", historyCols, patientID, scanHistory)
}

func (r *historyRepoPG) List(ctx context.Context, limit, offset int) ([]*MedicalHistory, int, error) {
	return listPage(ctx, connFor(ctx, r.pool), "medical_history", historyCols, limit, offset, scanHistory)
}
