// Package cronexpr parses and matches the standard 5-field cron syntax
// (minute hour day-of-month month day-of-week) used by scheduled jobs.
//
// Matching follows the AND convention for day-of-month and day-of-week —
// both fields must match, never either — unlike some cron dialects that
// OR the two when both are restricted. See Schedule.Matches.
package cronexpr

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/horcrux-nas/horcruxd/internal/horcruxerr"
)

// field bounds, in parse order: minute, hour, day-of-month, month, day-of-week.
var fieldBounds = [5][2]int{
	{0, 59},
	{0, 23},
	{1, 31},
	{1, 12},
	{0, 6},
}

const (
	fieldMinute = iota
	fieldHour
	fieldDay
	fieldMonth
	fieldWeekday
)

// maxNextFireIterations bounds the next-fire search at roughly two years of
// minutes — long enough for any real schedule, short enough to terminate
// quickly on pathological ones like "day 31 of February".
const maxNextFireIterations = 365 * 24 * 60 * 2

// Schedule is a parsed 5-field cron expression: each field is the set of
// values (minute/hour/day/month/weekday) that satisfy it.
type Schedule struct {
	Minutes  map[int]struct{}
	Hours    map[int]struct{}
	Days     map[int]struct{}
	Months   map[int]struct{}
	Weekdays map[int]struct{}

	// Source is the original expression string as given to Parse. Job
	// persistence stores String()'s canonical form, not Source.
	Source string
}

// Parse parses a 5-field cron expression into a Schedule, or returns a
// Validation error describing the first malformed field.
func Parse(expr string) (*Schedule, error) {
	fields := strings.Fields(expr)
	if len(fields) != 5 {
		return nil, horcruxerr.ValidationErr(
			"invalid cron expression %q: expected 5 fields (minute hour day month weekday), got %d",
			expr, len(fields))
	}

	sets := make([]map[int]struct{}, 5)
	for i, f := range fields {
		set, err := parseField(f, fieldBounds[i][0], fieldBounds[i][1])
		if err != nil {
			return nil, horcruxerr.ValidationErr("invalid cron expression %q: field %d: %v", expr, i+1, err)
		}
		sets[i] = set
	}

	return &Schedule{
		Minutes:  sets[fieldMinute],
		Hours:    sets[fieldHour],
		Days:     sets[fieldDay],
		Months:   sets[fieldMonth],
		Weekdays: sets[fieldWeekday],
		Source:   expr,
	}, nil
}

// parseField parses one comma-separated cron field (each element being
// "*", "n", "a-b", or either of those with a "/step" suffix) into the set
// of integers in [min, max] it denotes.
func parseField(field string, min, max int) (map[int]struct{}, error) {
	set := make(map[int]struct{})

	for _, part := range strings.Split(field, ",") {
		if part == "" {
			return nil, fmt.Errorf("empty element in field %q", field)
		}

		rangePart, step := part, 1
		if idx := strings.IndexByte(part, '/'); idx >= 0 {
			rangePart = part[:idx]
			stepStr := part[idx+1:]
			s, err := strconv.Atoi(stepStr)
			if err != nil {
				return nil, fmt.Errorf("invalid step %q", stepStr)
			}
			if s < 1 {
				return nil, fmt.Errorf("step must be >= 1, got %d", s)
			}
			step = s
		}

		var lo, hi int
		switch {
		case rangePart == "*":
			lo, hi = min, max
		case strings.Contains(rangePart, "-"):
			bounds := strings.SplitN(rangePart, "-", 2)
			a, err := strconv.Atoi(bounds[0])
			if err != nil {
				return nil, fmt.Errorf("invalid range start %q", bounds[0])
			}
			b, err := strconv.Atoi(bounds[1])
			if err != nil {
				return nil, fmt.Errorf("invalid range end %q", bounds[1])
			}
			if a > b {
				return nil, fmt.Errorf("reversed range %d-%d", a, b)
			}
			if a < min || b > max {
				return nil, fmt.Errorf("range %d-%d out of bounds %d-%d", a, b, min, max)
			}
			lo, hi = a, b
		default:
			v, err := strconv.Atoi(rangePart)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q", rangePart)
			}
			if v < min || v > max {
				return nil, fmt.Errorf("value %d out of bounds %d-%d", v, min, max)
			}
			lo, hi = v, v
		}

		// Stride origin is the start of this element's range, so "a-b/n"
		// strides from a, and "*/n" strides from min.
		for v := lo; v <= hi; v += step {
			set[v] = struct{}{}
		}
	}

	if len(set) == 0 {
		return nil, fmt.Errorf("field %q produced no values", field)
	}
	return set, nil
}

// Matches reports whether t satisfies every field of the schedule, at
// minute resolution. Day-of-month and day-of-week are ANDed, not ORed.
func (s *Schedule) Matches(t time.Time) bool {
	u := t.UTC()
	if _, ok := s.Minutes[u.Minute()]; !ok {
		return false
	}
	if _, ok := s.Hours[u.Hour()]; !ok {
		return false
	}
	if _, ok := s.Days[u.Day()]; !ok {
		return false
	}
	if _, ok := s.Months[int(u.Month())]; !ok {
		return false
	}
	if _, ok := s.Weekdays[int(u.Weekday())]; !ok {
		return false
	}
	return true
}

// NextFireAfter returns the smallest minute-truncated timestamp strictly
// after t that matches the schedule, or (zero, false) if none is found
// within the search bound (only possible for schedules that can never
// match, like "day 31 of February").
func (s *Schedule) NextFireAfter(t time.Time) (time.Time, bool) {
	cur := t.UTC().Add(time.Minute).Truncate(time.Minute)

	for i := 0; i < maxNextFireIterations; i++ {
		if s.Matches(cur) {
			return cur, true
		}
		cur = cur.Add(time.Minute)
	}
	return time.Time{}, false
}

// String renders the schedule back into canonical 5-field form, with each
// field's values sorted ascending and condensed to a comma list — used for
// persistence round-trips and logging.
func (s *Schedule) String() string {
	return strings.Join([]string{
		renderField(s.Minutes),
		renderField(s.Hours),
		renderField(s.Days),
		renderField(s.Months),
		renderField(s.Weekdays),
	}, " ")
}

func renderField(set map[int]struct{}) string {
	vals := make([]int, 0, len(set))
	for v := range set {
		vals = append(vals, v)
	}
	for i := 1; i < len(vals); i++ {
		for j := i; j > 0 && vals[j-1] > vals[j]; j-- {
			vals[j-1], vals[j] = vals[j], vals[j-1]
		}
	}
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ",")
}
