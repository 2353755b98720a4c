package royalty

import (
	"fmt"
	"time"
)

// =============================================================================
// PERIOD - Reporting period boundary for statement generation
// =============================================================================

// Period is a half-open reporting interval [Start, End). A sale dated exactly
// at End belongs to the next period. Statements are always generated for a
// period, never at a point in time.
type Period struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls within [Start, End).
func (p Period) Contains(t time.Time) bool {
	return !t.Before(p.Start) && t.Before(p.End)
}

// Validate checks the period is well formed.
func (p Period) Validate() error {
	if !p.End.After(p.Start) {
		return ErrInvalidPeriod
	}
	return nil
}

// Key returns a stable identifier for the period, used in idempotency keys
// and batch run records.
func (p Period) Key() string {
	return fmt.Sprintf("%s..%s", p.Start.UTC().Format("2006-01-02"), p.End.UTC().Format("2006-01-02"))
}

func (p Period) String() string {
	return "[" + p.Start.UTC().Format("2006-01-02") + ", " + p.End.UTC().Format("2006-01-02") + ")"
}

// Next returns the period of equal length immediately following this one.
// Contiguous by construction: next.Start == p.End.
func (p Period) Next() Period {
	d := p.End.Sub(p.Start)
	return Period{Start: p.End, End: p.End.Add(d)}
}

// =============================================================================
// PERIOD CONSTRUCTORS - Common reporting cadences
// =============================================================================

// MonthlyPeriod returns the calendar month [1st, 1st of next month).
func MonthlyPeriod(year int, month time.Month) Period {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 1, 0)}
}

// QuarterlyPeriod returns the calendar quarter containing the given month.
func QuarterlyPeriod(year int, quarter int) Period {
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 3, 0)}
}

// HalfYearPeriod returns Jan-Jun (half 1) or Jul-Dec (half 2), the standard
// royalty reporting cadence in trade publishing.
func HalfYearPeriod(year int, half int) Period {
	month := time.January
	if half == 2 {
		month = time.July
	}
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return Period{Start: start, End: start.AddDate(0, 6, 0)}
}

// PeriodEnded reports whether the period has fully elapsed as of now.
// The scheduler only generates statements for ended periods.
func (p Period) Ended(now time.Time) bool {
	return !now.Before(p.End)
}
