package booking

import (
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time component. All reservation math runs
// at day granularity; anything finer is normalized away on construction.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar day.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return Date{t}, nil
}

func (d Date) String() string { return d.Format(dateLayout) }

func (d Date) AddDays(n int) Date { return DateOf(d.AddDate(0, 0, n)) }

func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

func (d *Date) UnmarshalJSON(b []byte) error {
	s := string(b)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("date must be a %q string", dateLayout)
	}
	parsed, err := ParseDate(s[1 : len(s)-1])
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// overlaps reports whether the half-open ranges [a1,a2) and [b1,b2)
// intersect. A checkout on day D and a check-in on day D do not conflict.
func overlaps(a1, a2, b1, b2 Date) bool {
	return a1.Before(b2.Time) && b1.Before(a2.Time)
}
