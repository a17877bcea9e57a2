package clinical

import (
	"time"

	"github.com/hectobyte1024/sistema-hospitalario/internal/domain/nursing"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/apperr"
	"github.com/hectobyte1024/sistema-hospitalario/internal/platform/wallclock"
)

// VitalsFilter narrows time-stamped entries by calendar date and shift. Zero
// fields are not applied.
type VitalsFilter struct {
	DateFrom time.Time
	DateTo   time.Time
	Shift    nursing.Shift
}

func (f VitalsFilter) IsZero() bool {
	return f.DateFrom.IsZero() && f.DateTo.IsZero() && f.Shift == ""
}

// ParseVitalsFilter reads the date_from, date_to and shift query values.
func ParseVitalsFilter(dateFrom, dateTo, shift string) (VitalsFilter, error) {
	var f VitalsFilter
	var err error
	if dateFrom != "" {
		if f.DateFrom, err = wallclock.ParseDate(dateFrom); err != nil {
			return VitalsFilter{}, apperr.Invalid("date_from", "must be YYYY-MM-DD")
		}
	}
	if dateTo != "" {
		if f.DateTo, err = wallclock.ParseDate(dateTo); err != nil {
			return VitalsFilter{}, apperr.Invalid("date_to", "must be YYYY-MM-DD")
		}
	}
	if shift != "" {
		s, ok := nursing.ParseShift(shift)
		if !ok {
			return VitalsFilter{}, apperr.Invalid("shift", "must be one of Mañana, Tarde, Noche")
		}
		f.Shift = s
	}
	return f, nil
}

func (f VitalsFilter) match(at time.Time, w nursing.ShiftWindows) bool {
	if !f.DateFrom.IsZero() && at.Before(wallclock.StartOfDay(f.DateFrom)) {
		return false
	}
	if !f.DateTo.IsZero() && at.After(wallclock.EndOfDay(f.DateTo)) {
		return false
	}
	if f.Shift != "" && w.Classify(at.Hour()) != f.Shift {
		return false
	}
	return true
}

func filterByTime[T any](items []T, at func(T) time.Time, f VitalsFilter, w nursing.ShiftWindows) []T {
	if f.IsZero() {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if f.match(at(item), w) {
			out = append(out, item)
		}
	}
	return out
}

// FilterVitals keeps the readings matching f, in input order. A zero filter
// returns vitals unchanged.
func FilterVitals(vitals []*VitalSigns, f VitalsFilter, w nursing.ShiftWindows) []*VitalSigns {
	return filterByTime(vitals, func(v *VitalSigns) time.Time { return v.Date.Time }, f, w)
}

// FilterNotes applies the same rules to nurse notes.
func FilterNotes(notes []*NurseNote, f VitalsFilter, w nursing.ShiftWindows) []*NurseNote {
	return filterByTime(notes, func(n *NurseNote) time.Time { return n.Date.Time }, f, w)
}
