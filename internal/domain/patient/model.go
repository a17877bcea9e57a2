package patient

import (
	"time"
)

// Patient maps to the patients table. Patients are never deleted; discharge
// clears Active.
type Patient struct {
	ID            int64     `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Age           int       `db:"age" json:"age"`
	Room          string    `db:"room" json:"room"`
	Floor         string    `db:"floor" json:"floor"`
	Area          string    `db:"area" json:"area"`
	Bed           string    `db:"bed" json:"bed"`
	BloodType     string    `db:"blood_type" json:"blood_type"`
	Allergies     string    `db:"allergies" json:"allergies"`
	Condition     string    `db:"condition" json:"condition"`
	AdmissionDate string    `db:"admission_date" json:"admission_date"`
	TriageLevel   int       `db:"triage_level" json:"triage_level"`
	Active        bool      `db:"active" json:"active"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ConditionCritical    = "Crítico"
	ConditionStable      = "Estable"
	ConditionRecovering  = "Recuperación"
	ConditionObservation = "Observación"
	ConditionSevere      = "Grave"
)

var validConditions = map[string]bool{
	ConditionCritical:    true,
	ConditionStable:      true,
	ConditionRecovering:  true,
	ConditionObservation: true,
	ConditionSevere:      true,
}

// ValidCondition reports whether c is one of the recognised conditions.
func ValidCondition(c string) bool { return validConditions[c] }

// Transfer maps to the transfers table. Rows are append-only.
type Transfer struct {
	ID            int64     `db:"id" json:"id"`
	PatientID     int64     `db:"patient_id" json:"patient_id"`
	TransferDate  string    `db:"transfer_date" json:"transfer_date"`
	TransferTime  string    `db:"transfer_time" json:"transfer_time"`
	FromFloor     string    `db:"from_floor" json:"from_floor"`
	FromArea      string    `db:"from_area" json:"from_area"`
	FromRoom      string    `db:"from_room" json:"from_room"`
	FromBed       string    `db:"from_bed" json:"from_bed"`
	ToFloor       string    `db:"to_floor" json:"to_floor"`
	ToArea        string    `db:"to_area" json:"to_area"`
	ToRoom        string    `db:"to_room" json:"to_room"`
	ToBed         string    `db:"to_bed" json:"to_bed"`
	Reason        string    `db:"reason" json:"reason"`
	Notes         string    `db:"notes" json:"notes"`
	TransferredBy string    `db:"transferred_by" json:"transferred_by"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

// Location is where a patient currently is.
type Location struct {
	Floor string `json:"floor"`
	Area  string `json:"area"`
	Room  string `json:"room"`
	Bed   string `json:"bed"`
}

const (
	DefaultFloor = "1"
	DefaultArea  = "General"
	DefaultBed   = "A"
)

// DefaultLocation is reported when nothing better is known.
func DefaultLocation() Location {
	return Location{Floor: DefaultFloor, Area: DefaultArea, Bed: DefaultBed}
}

// Location returns the patient's own location with defaults for unset
// floor, area and bed.
func (p *Patient) Location() Location {
	loc := Location{Floor: p.Floor, Area: p.Area, Room: p.Room, Bed: p.Bed}
	if loc.Floor == "" {
		loc.Floor = DefaultFloor
	}
	if loc.Area == "" {
		loc.Area = DefaultArea
	}
	if loc.Bed == "" {
		loc.Bed = DefaultBed
	}
	return loc
}

// Destination returns the "to" side of the transfer.
func (t *Transfer) Destination() Location {
	return Location{Floor: t.ToFloor, Area: t.ToArea, Room: t.ToRoom, Bed: t.ToBed}
}

// CurrentLocation derives a patient's location: the destination of the last
// transfer in insertion order, else the patient's own fields. A nil patient
// with no transfers yields DefaultLocation.
func CurrentLocation(p *Patient, transfers []*Transfer) Location {
	if n := len(transfers); n > 0 {
		return transfers[n-1].Destination()
	}
	if p == nil {
		return DefaultLocation()
	}
	return p.Location()
}
