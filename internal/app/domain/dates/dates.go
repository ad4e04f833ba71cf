// Package dates carries calendar dates across the API. Clients send bare
// YYYY-MM-DD values (the format printed on invoices and stored by existing
// integrations); RFC3339 timestamps are also accepted on input.
package dates

import (
	"database/sql/driver"
	"fmt"
	"time"
)

const layout = "2006-01-02"

// Date is a calendar date with day precision on the wire. It embeds
// time.Time so callers keep the usual comparison and arithmetic methods.
type Date struct {
	time.Time
}

// New wraps a timestamp as a Date.
func New(t time.Time) Date {
	return Date{Time: t}
}

// MarshalJSON emits the date-only wire format, or null for the zero value.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(layout) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD, a full RFC3339 timestamp, or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" {
		*d = Date{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid date %s: expected a string", s)
	}
	s = s[1 : len(s)-1]
	if s == "" {
		*d = Date{}
		return nil
	}
	if t, err := time.Parse(layout, s); err == nil {
		*d = Date{Time: t}
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	*d = Date{Time: t}
	return nil
}

// Value implements driver.Valuer so dates store as SQL DATE values.
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Time, nil
}

// Scan implements sql.Scanner.
func (d *Date) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d = Date{}
	case time.Time:
		*d = Date{Time: v}
	default:
		return fmt.Errorf("cannot scan %T into a date", src)
	}
	return nil
}
