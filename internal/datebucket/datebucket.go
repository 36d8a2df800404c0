// Package datebucket plans the buckets of the creation date histogram.
package datebucket

import "time"

type Interval string

const (
	Day   Interval = "day"
	Week  Interval = "week"
	Month Interval = "month"
	Year  Interval = "year"
)

const (
	day = 24 * time.Hour

	maxDaySpan   = 20 * day
	maxWeekSpan  = 20 * 7 * day
	maxMonthSpan = 20 * 30 * day
)

// LabelLayout formats bucket keys.
const LabelLayout = "2006-01-02"

// Bucket covers [From, To).
type Bucket struct {
	Key  string
	From time.Time
	To   time.Time
}

type Plan struct {
	Interval Interval
	Buckets  []Bucket
}

// IntervalFor picks the bucket width for a span.
func IntervalFor(span time.Duration) Interval {
	switch {
	case span < maxDaySpan:
		return Day
	case span < maxWeekSpan:
		return Week
	case span < maxMonthSpan:
		return Month
	default:
		return Year
	}
}

// NewPlan returns dense buckets covering [start, end) in loc. The first bucket
// starts at the interval boundary at or before start; the last one holds the
// instant just before end.
func NewPlan(start, end time.Time, loc *time.Location) Plan {
	if loc == nil {
		loc = time.UTC
	}
	interval := IntervalFor(end.Sub(start))
	first := Floor(start, interval, loc)
	last := Floor(end.Add(-time.Millisecond), interval, loc)

	plan := Plan{Interval: interval}
	for b := first; ; {
		next := advance(b, interval)
		plan.Buckets = append(plan.Buckets, Bucket{Key: b.Format(LabelLayout), From: b, To: next})
		if !next.After(last) {
			b = next
			continue
		}
		break
	}
	return plan
}

// Floor truncates t to the start of its interval in loc. Weeks start on Monday.
func Floor(t time.Time, interval Interval, loc *time.Location) time.Time {
	t = t.In(loc)
	y, m, d := t.Date()
	switch interval {
	case Week:
		back := (int(t.Weekday()) + 6) % 7
		return time.Date(y, m, d-back, 0, 0, 0, 0, loc)
	case Month:
		return time.Date(y, m, 1, 0, 0, 0, 0, loc)
	case Year:
		return time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
	default:
		return time.Date(y, m, d, 0, 0, 0, 0, loc)
	}
}

func advance(t time.Time, interval Interval) time.Time {
	switch interval {
	case Week:
		return t.AddDate(0, 0, 7)
	case Month:
		return t.AddDate(0, 1, 0)
	case Year:
		return t.AddDate(1, 0, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}
