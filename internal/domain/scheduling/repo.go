package scheduling

import "context"

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	// FindBySlot returns the appointment booked at date and time, or nil
	// when the slot is free.
	FindBySlot(ctx context.Context, date, time string) (*Appointment, error)
	UpdateStatus(ctx context.Context, id int64, status string) error
	// ListByPatient returns the patient's appointments in insertion order.
	ListByPatient(ctx context.Context, patientID int64) ([]*Appointment, error)
	// Search filters by patient_id, date and status, ordered by date and time.
	Search(ctx context.Context, params map[string]string, limit, offset int) ([]*Appointment, int, error)
}
