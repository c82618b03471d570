package core

import (
	"errors"
	"fmt"
	"time"
)

// PeriodKey identifies the calendar month bucket a transaction or a
// settings record belongs to. Periods are totally ordered by (year, month).
type PeriodKey struct {
	Year  int
	Month time.Month
}

var ErrInvalidPeriod = errors.New("invalid period key")

// NewPeriodKey builds a PeriodKey from a year and a month.
func NewPeriodKey(year int, month time.Month) PeriodKey {
	return PeriodKey{Year: year, Month: month}
}

// PeriodOf returns the period a point in time falls into.
func PeriodOf(t time.Time) PeriodKey {
	return PeriodKey{Year: t.Year(), Month: t.Month()}
}

// Key renders the canonical storage form, e.g. "2025-09".
func (p PeriodKey) Key() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}

// ParsePeriodKey parses the canonical "YYYY-MM" form.
func ParsePeriodKey(s string) (PeriodKey, error) {
	var year, month int
	if _, err := fmt.Sscanf(s, "%4d-%2d", &year, &month); err != nil {
		return PeriodKey{}, fmt.Errorf("parse period key %q: %w", s, ErrInvalidPeriod)
	}
	p := PeriodKey{Year: year, Month: time.Month(month)}
	if err := p.Validate(); err != nil {
		return PeriodKey{}, fmt.Errorf("parse period key %q: %w", s, err)
	}
	return p, nil
}

func (p PeriodKey) Validate() error {
	if p.Month < time.January || p.Month > time.December {
		return ErrInvalidPeriod
	}
	if p.Year < 1 {
		return ErrInvalidPeriod
	}
	return nil
}

func (p PeriodKey) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Next returns the successor period. December wraps into January of the
// following year.
func (p PeriodKey) Next() PeriodKey {
	if p.Month == time.December {
		return PeriodKey{Year: p.Year + 1, Month: time.January}
	}
	return PeriodKey{Year: p.Year, Month: p.Month + 1}
}

// Previous returns the predecessor period. January wraps into December of
// the preceding year.
func (p PeriodKey) Previous() PeriodKey {
	if p.Month == time.January {
		return PeriodKey{Year: p.Year - 1, Month: time.December}
	}
	return PeriodKey{Year: p.Year, Month: p.Month - 1}
}

// Before reports whether p is strictly earlier than other.
func (p PeriodKey) Before(other PeriodKey) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

// After reports whether p is strictly later than other.
func (p PeriodKey) After(other PeriodKey) bool {
	return other.Before(p)
}
