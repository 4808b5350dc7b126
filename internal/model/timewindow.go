package model

import (
	"fmt"
	"time"
)

// TimeWindow is one search range in the expansion sequence.
type TimeWindow struct {
	Start    time.Time
	End      time.Time
	Duration time.Duration
	Label    string
}

// expansionSteps is the fixed escalating window sequence the sampler walks.
// Eight steps, from a few hours up to a month.
var expansionSteps = []struct {
	duration time.Duration
	label    string
}{
	{3 * time.Hour, "3 hours"},
	{6 * time.Hour, "6 hours"},
	{12 * time.Hour, "12 hours"},
	{24 * time.Hour, "1 day"},
	{72 * time.Hour, "3 days"},
	{144 * time.Hour, "6 days"},
	{336 * time.Hour, "14 days"},
	{720 * time.Hour, "30 days"},
}

// ExpansionWindows builds the full window sequence anchored at the given
// business-local wall-clock instant. The anchor is interpreted as US Eastern
// time and converted to UTC; every window starts at the anchor and extends
// forward by its duration.
func ExpansionWindows(anchor time.Time) []TimeWindow {
	start := EasternToUTC(anchor)

	windows := make([]TimeWindow, len(expansionSteps))
	for i, step := range expansionSteps {
		windows[i] = TimeWindow{
			Start:    start,
			End:      start.Add(step.duration),
			Duration: step.duration,
			Label:    step.label,
		}
	}
	return windows
}

// EasternToUTC converts a wall-clock instant in US Eastern business time to
// UTC using a fixed offset table: March through October are treated as
// daylight time (UTC-4), the rest as standard time (UTC-5).
//
// This is a deliberate approximation, not real DST arithmetic: the legacy
// behavior downstream consumers were calibrated against uses the same
// month-based heuristic, so it is preserved rather than corrected.
func EasternToUTC(t time.Time) time.Time {
	offset := 5 * time.Hour
	if m := t.Month(); m >= time.March && m <= time.October {
		offset = 4 * time.Hour
	}
	wall := time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
	return wall.Add(offset)
}

// FormatInstant renders a time in the platform's expected ISO-8601 form.
func FormatInstant(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}

func (w TimeWindow) String() string {
	return fmt.Sprintf("%s (%s to %s)", w.Label, FormatInstant(w.Start), FormatInstant(w.End))
}
