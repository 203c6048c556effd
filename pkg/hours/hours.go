// Package hours parses semi-structured opening-hours strings and evaluates
// whether an activity window falls inside the open intervals. Upstream POI
// data carries hours as free text ("09:00-12:00, 14:00-18:00"), so parsing is
// tolerant: segments that do not look like HH:MM-HH:MM are skipped and
// reported, never treated as a hard failure.
package hours

import (
	"regexp"
	"strconv"
	"strings"
)

const minutesPerDay = 1440

// segmentPattern matches a single opening-hours segment. The hour may be one
// or two digits, the minute must be exactly two.
var segmentPattern = regexp.MustCompile(`^(\d{1,2}):(\d{2})-(\d{1,2}):(\d{2})$`)

// splitPattern separates segments on runs of whitespace and/or commas.
var splitPattern = regexp.MustCompile(`[\s,]+`)

// Interval is a half-open span of minutes since midnight. End may exceed 1440
// when the interval crosses midnight (e.g. 22:00-02:00 becomes {1320, 1560}).
type Interval struct {
	Start int
	End   int
}

// Contains reports whether the window [start, end] in minutes since midnight
// is fully inside the interval.
func (iv Interval) Contains(start, end int) bool {
	return start >= iv.Start && end <= iv.End
}

// Completeness describes how much of a raw hours string was understood.
type Completeness int

const (
	// NoData means the input was empty or no segment matched.
	NoData Completeness = iota

	// Partial means some segments matched and some were skipped.
	Partial

	// Complete means every segment matched.
	Complete
)

func (c Completeness) String() string {
	switch c {
	case Partial:
		return "partial"
	case Complete:
		return "complete"
	default:
		return "no-data"
	}
}

// Schedule is the parsed form of an opening-hours string. Intervals keep the
// segment order of the input; order is irrelevant for evaluation. Skipped
// holds the segments that did not match, so callers can decide how to degrade
// instead of losing that information silently.
type Schedule struct {
	Raw       string
	Intervals []Interval
	Skipped   []string
}

// Parse parses a raw opening-hours string into a Schedule. It never fails:
// malformed segments end up in Skipped and an unusable input yields a
// Schedule with no intervals.
func Parse(raw string) Schedule {
	s := Schedule{Raw: raw}

	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return s
	}

	for _, segment := range splitPattern.Split(trimmed, -1) {
		if segment == "" {
			continue
		}

		m := segmentPattern.FindStringSubmatch(segment)
		if m == nil {
			s.Skipped = append(s.Skipped, segment)
			continue
		}

		start := toMinutes(m[1], m[2])
		end := toMinutes(m[3], m[4])

		// Overnight span: 22:00-02:00 means open past midnight.
		if end < start {
			end += minutesPerDay
		}

		s.Intervals = append(s.Intervals, Interval{Start: start, End: end})
	}

	return s
}

// Completeness reports whether the raw input parsed fully, partially, or not
// at all.
func (s Schedule) Completeness() Completeness {
	switch {
	case len(s.Intervals) == 0:
		return NoData
	case len(s.Skipped) > 0:
		return Partial
	default:
		return Complete
	}
}

// MinuteOfDay converts a single "HH:MM" time-of-day string to minutes since
// midnight. The second return value is false when the string does not match
// the expected shape, so midnight remains distinguishable from a parse
// failure.
func MinuteOfDay(s string) (int, bool) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(m) != 2 || len(h) == 0 || len(h) > 2 {
		return 0, false
	}

	hour, err := strconv.Atoi(h)
	if err != nil {
		return 0, false
	}
	minute, err := strconv.Atoi(m)
	if err != nil {
		return 0, false
	}

	return hour*60 + minute, true
}

// toMinutes converts already-validated hour/minute capture groups.
func toMinutes(hour, minute string) int {
	h, _ := strconv.Atoi(hour)
	m, _ := strconv.Atoi(minute)
	return h*60 + m
}

// Verdict is the tri-state result of evaluating an activity window against a
// schedule. Unknown covers absent hours data as well as unparseable activity
// times, cases where true/false would overstate what is known.
type Verdict int

const (
	VerdictUnknown Verdict = iota
	VerdictOpen
	VerdictClosed
)

// String returns the lowercase verdict name.
func (v Verdict) String() string {
	switch v {
	case VerdictOpen:
		return "open"
	case VerdictClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Covers evaluates whether the activity window [start, end] is fully
// contained in a single open interval. It returns VerdictUnknown when the
// schedule has no intervals or either boundary fails to parse. An activity
// spanning a gap between two intervals (a lunch closure, say) is Closed even
// when the union of intervals would cover it.
func (s Schedule) Covers(start, end string) Verdict {
	if len(s.Intervals) == 0 {
		return VerdictUnknown
	}

	startMin, ok := MinuteOfDay(start)
	if !ok {
		return VerdictUnknown
	}
	endMin, ok := MinuteOfDay(end)
	if !ok {
		return VerdictUnknown
	}
	// Overnight activity windows roll into the next day, same as overnight
	// schedule intervals.
	if endMin < startMin {
		endMin += minutesPerDay
	}

	for _, iv := range s.Intervals {
		if iv.Contains(startMin, endMin) {
			return VerdictOpen
		}
	}
	return VerdictClosed
}
