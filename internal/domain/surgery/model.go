package surgery

import "time"

// Surgery maps to the surgeries table. Date and StartTime are clinic
// wall-clock strings.
type Surgery struct {
	ID                int64     `db:"id" json:"id"`
	PatientID         *int64    `db:"patient_id" json:"patient_id"`
	PatientName       string    `db:"patient_name" json:"patient_name"`
	PatientAge        int       `db:"patient_age" json:"patient_age"`
	Surgeon           string    `db:"surgeon" json:"surgeon"`
	Anesthesiologist  string    `db:"anesthesiologist" json:"anesthesiologist"`
	Assistants        []string  `db:"assistants" json:"assistants"`
	SurgeryType       string    `db:"surgery_type" json:"surgery_type"`
	Category          string    `db:"category" json:"category"`
	Room              string    `db:"room" json:"room"`
	Date              string    `db:"date" json:"date"`
	StartTime         string    `db:"start_time" json:"start_time"`
	EstimatedDuration int       `db:"estimated_duration" json:"estimated_duration"`
	Status            string    `db:"status" json:"status"`
	Priority          string    `db:"priority" json:"priority"`
	PreOpCompleted    bool      `db:"pre_op_completed" json:"pre_op_completed"`
	PreOpNotes        string    `db:"pre_op_notes" json:"pre_op_notes"`
	Allergies         string    `db:"allergies" json:"allergies"`
	BloodType         string    `db:"blood_type" json:"blood_type"`
	Consent           bool      `db:"consent" json:"consent"`
	Equipment         []string  `db:"equipment" json:"equipment"`
	Notes             string    `db:"notes" json:"notes"`
	PostOpNotes       string    `db:"post_op_notes" json:"post_op_notes"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
	UpdatedAt         time.Time `db:"updated_at" json:"updated_at"`
}

const (
	StatusScheduled  = "Programada"
	StatusInProgress = "En Proceso"
	StatusCompleted  = "Completada"
	StatusCancelled  = "Cancelada"
	StatusPostponed  = "Pospuesta"
)

var statuses = []string{StatusScheduled, StatusInProgress, StatusCompleted, StatusCancelled, StatusPostponed}

func ValidStatus(s string) bool { return contains(statuses, s) }

const (
	PriorityEmergency = "Emergencia"
	PriorityUrgent    = "Urgente"
	PriorityElective  = "Electiva"
)

var priorities = []string{PriorityEmergency, PriorityUrgent, PriorityElective}

func ValidPriority(p string) bool { return contains(priorities, p) }

const (
	DefaultCategory = "General"
	DefaultDuration = 60
)

// OperatingRoom maps to the operating_rooms table.
type OperatingRoom struct {
	ID             int64     `db:"id" json:"id"`
	Name           string    `db:"name" json:"name"`
	Status         string    `db:"status" json:"status"`
	CurrentSurgery *string   `db:"current_surgery" json:"current_surgery"`
	NextAvailable  string    `db:"next_available" json:"next_available"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

const (
	RoomAvailable   = "Disponible"
	RoomOccupied    = "Ocupada"
	RoomInProgress  = "En Proceso"
	RoomMaintenance = "Mantenimiento"
)

var roomStatuses = []string{RoomAvailable, RoomOccupied, RoomInProgress, RoomMaintenance}

func ValidRoomStatus(s string) bool { return contains(roomStatuses, s) }

// RoomStatusUpdate is the body of a room status change.
type RoomStatusUpdate struct {
	Status         string  `json:"status"`
	CurrentSurgery *string `json:"current_surgery"`
	NextAvailable  string  `json:"next_available"`
}

// BoardStats summarises the board. Today counts surgeries on Date; the
// status counters cover every surgery on the board.
type BoardStats struct {
	Date       string `json:"date"`
	Today      int    `json:"today"`
	InProgress int    `json:"in_progress"`
	Scheduled  int    `json:"scheduled"`
	Completed  int    `json:"completed"`
}

func contains(set []string, v string) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
