package scheduling

import "time"

// Appointment maps to the appointments table. Date and Time are clinic
// wall-clock strings (YYYY-MM-DD and HH:MM).
type Appointment struct {
	ID          int64     `db:"id" json:"id"`
	PatientID   *int64    `db:"patient_id" json:"patient_id"`
	PatientName string    `db:"patient_name" json:"patient_name"`
	Date        string    `db:"date" json:"date"`
	Time        string    `db:"time" json:"time"`
	Type        string    `db:"type" json:"type"`
	Status      string    `db:"status" json:"status"`
	Doctor      string    `db:"doctor" json:"doctor"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

const (
	StatusPending   = "Pendiente"
	StatusConfirmed = "Confirmada"
	StatusCancelled = "Cancelada"
)

// DefaultDoctor is shown until a physician takes the appointment.
const DefaultDoctor = "Por asignar"

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Slot is the "date time" key guarded against double booking.
func (a *Appointment) Slot() string {
	return a.Date + " " + a.Time
}

// BelongsTo reports whether the appointment is linked to patientID.
func (a *Appointment) BelongsTo(patientID int64) bool {
	return a != nil && a.PatientID != nil && *a.PatientID == patientID
}
