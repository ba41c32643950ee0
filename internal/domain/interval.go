package domain

import "time"

// Interval is a half-open UTC time window [Start, End).
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewInterval normalizes both ends to UTC whole seconds and rejects empty or inverted windows.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: NormalizeTime(start), End: NormalizeTime(end)}
	if start.IsZero() || end.IsZero() {
		return Interval{}, Validationf("start and end are required")
	}
	if !iv.End.After(iv.Start) {
		return Interval{}, Validationf("end must be after start")
	}
	return iv, nil
}

// Overlaps is strict intersection; intervals that only touch do not overlap.
func (iv Interval) Overlaps(other Interval) bool {
	return iv.Start.Before(other.End) && iv.End.After(other.Start)
}

func (iv Interval) Duration() time.Duration { return iv.End.Sub(iv.Start) }

func NormalizeTime(t time.Time) time.Time {
	return t.UTC().Truncate(time.Second)
}
