package booking

import "time"

// Interval is a closed reservation time span [Start, End].
type Interval struct {
	Start time.Time
	End   time.Time
}

// Valid reports whether the interval is well-formed: start strictly before
// end.
func (i Interval) Valid() bool {
	return i.Start.Before(i.End)
}

// contains reports whether t falls within the interval, endpoints included.
func (i Interval) contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

// Conflicts reports whether two intervals overlap. Boundaries are
// inclusive: an interval ending exactly when another begins counts as a
// conflict. Back-to-back bookings sharing an endpoint are rejected on
// purpose; do not relax this to half-open semantics.
func Conflicts(a, b Interval) bool {
	return a.contains(b.Start) || a.contains(b.End) || (b.Start.Before(a.Start) && b.End.After(a.End))
}
