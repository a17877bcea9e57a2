// Package wallclock handles clinic wall-clock time.
//
// Clinical timestamps are recorded as naive wall-clock values in the clinic's
// configured zone. A Timestamp keeps those fields in a UTC container so that
// they survive a round trip through a TIMESTAMP WITHOUT TIME ZONE column and
// so that hour and date comparisons never depend on the server's zone.
package wallclock

import (
	"fmt"
	"strings"
	"time"
)

const (
	Layout     = "2006-01-02 15:04"
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Accepted input layouts, most specific first.
var inputLayouts = []string{
	Layout,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.000",
	DateLayout,
}

// Timestamp is a clinic wall-clock instant. The zero value means unset.
type Timestamp struct {
	time.Time
}

// Of strips t to its wall-clock fields.
func Of(t time.Time) Timestamp {
	return Timestamp{time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)}
}

// At builds a Timestamp from calendar fields.
func At(year int, month time.Month, day, hour, min int) Timestamp {
	return Timestamp{time.Date(year, month, day, hour, min, 0, 0, time.UTC)}
}

func (t Timestamp) String() string {
	if t.IsZero() {
		return ""
	}
	return t.Format(Layout)
}

// DateString returns the YYYY-MM-DD part.
func (t Timestamp) DateString() string { return t.Format(DateLayout) }

// TimeString returns the HH:MM part.
func (t Timestamp) TimeString() string { return t.Format(TimeLayout) }

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.Format(Layout) + `"`), nil
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*t = Timestamp{}
		return nil
	}
	parsed, err := Parse(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Parse reads a wall-clock timestamp. Zone offsets are not accepted.
func Parse(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	for _, layout := range inputLayouts {
		if v, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return Timestamp{v}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("invalid timestamp %q: want YYYY-MM-DD HH:MM", s)
}

// Combine joins a YYYY-MM-DD date and an HH:MM time.
func Combine(date, clock string) (Timestamp, error) {
	return Parse(strings.TrimSpace(date) + " " + strings.TrimSpace(clock))
}

// ParseDate reads a YYYY-MM-DD calendar date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD", s)
	}
	return d, nil
}

// ValidDate reports whether s is a YYYY-MM-DD date.
func ValidDate(s string) bool {
	_, err := time.Parse(DateLayout, s)
	return err == nil
}

// NormalizeTime parses a time of day and returns it as zero-padded HH:MM,
// so "9:00" and "09:00" compare and sort as the same value.
func NormalizeTime(s string) (string, error) {
	t, err := time.Parse(TimeLayout, strings.TrimSpace(s))
	if err != nil {
		return "", fmt.Errorf("invalid time %q: want HH:MM", s)
	}
	return t.Format(TimeLayout), nil
}

// StartOfDay returns 00:00:00.000 of d's calendar date.
func StartOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// EndOfDay returns 23:59:59.999 of d's calendar date.
func EndOfDay(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, int(999*time.Millisecond), time.UTC)
}

// Clock reads the current time in the clinic zone.
type Clock struct {
	loc *time.Location
	now func() time.Time
}

// NewClock returns a clock for loc. A nil loc means UTC.
func NewClock(loc *time.Location) *Clock {
	if loc == nil {
		loc = time.UTC
	}
	return &Clock{loc: loc, now: time.Now}
}

// Fixed returns a clock frozen at t, for tests and replays.
func Fixed(loc *time.Location, t time.Time) *Clock {
	c := NewClock(loc)
	c.now = func() time.Time { return t }
	return c
}

func (c *Clock) Location() *time.Location { return c.loc }

// Now returns the clinic wall clock truncated to the minute.
func (c *Clock) Now() Timestamp {
	return Of(c.now().In(c.loc).Truncate(time.Minute))
}

// Today returns the clinic calendar date at midnight.
func (c *Clock) Today() time.Time {
	return StartOfDay(c.Now().Time)
}
