package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// DateOnly is a calendar date without a time component. It marshals as
// "YYYY-MM-DD" and maps to a Postgres DATE column. All dates live in the
// server's reference frame (UTC).
type DateOnly struct {
	time.Time
}

// NewDateOnly truncates an instant to its calendar date.
func NewDateOnly(t time.Time) DateOnly {
	return DateOnly{time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDateOnly parses a "YYYY-MM-DD" string.
func ParseDateOnly(raw string) (DateOnly, error) {
	t, err := time.Parse(dateLayout, raw)
	if err != nil {
		return DateOnly{}, fmt.Errorf("invalid date %q", raw)
	}
	return DateOnly{t}, nil
}

func (d DateOnly) String() string {
	return d.Format(dateLayout)
}

// AddDays returns the date shifted by n days.
func (d DateOnly) AddDays(n int) DateOnly {
	return NewDateOnly(d.Time.AddDate(0, 0, n))
}

// DaysUntil returns the whole-day distance to other.
func (d DateOnly) DaysUntil(other DateOnly) int {
	return int(other.Time.Sub(d.Time).Hours() / 24)
}

func (d DateOnly) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *DateOnly) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseDateOnly(raw)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Value renders the date for a DATE column.
func (d DateOnly) Value() (driver.Value, error) {
	return d.Time, nil
}

// Scan accepts DATE column representations produced by lib/pq.
func (d *DateOnly) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*d = DateOnly{}
		return nil
	case time.Time:
		*d = NewDateOnly(v)
		return nil
	case []byte:
		parsed, err := ParseDateOnly(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDateOnly(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	default:
		return fmt.Errorf("cannot scan %T into DateOnly", src)
	}
}
