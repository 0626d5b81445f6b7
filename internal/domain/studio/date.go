// internal/domain/studio/date.go
package studio

import (
	"bytes"
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a nullable calendar date as served by the backend ("YYYY-MM-DD").
// Raw keeps the string exactly as received so messages can quote it.
// Null, missing or unparsable values leave Valid false.
type Date struct {
	Raw   string
	Valid bool
	year  int
	month time.Month
	day   int
}

// NewDate builds a valid Date; used by tests and fixtures.
func NewDate(year int, month time.Month, day int) Date {
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Raw: t.Format(dateLayout), Valid: true, year: t.Year(), month: t.Month(), day: t.Day()}
}

// ParseDate parses a backend date string. It never fails: bad input yields an invalid Date.
func ParseDate(raw string) Date {
	d := Date{Raw: raw}
	if raw == "" {
		return d
	}
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		// DRF may serialize a datetime when the field type changes; keep the date part.
		if len(raw) < len(dateLayout) {
			return d
		}
		if t, err = time.Parse(dateLayout, raw[:len(dateLayout)]); err != nil {
			return d
		}
	}
	d.Valid = true
	d.year, d.month, d.day = t.Date()
	return d
}

// Midnight returns the date at 00:00 in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, loc)
}

func (d Date) String() string {
	return d.Raw
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		*d = Date{}
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		*d = Date{}
		return nil
	}
	*d = ParseDate(raw)
	return nil
}

func (d Date) MarshalJSON() ([]byte, error) {
	if !d.Valid {
		return []byte("null"), nil
	}
	return json.Marshal(d.Raw)
}
