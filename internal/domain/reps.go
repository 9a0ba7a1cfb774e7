package domain

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// RepsKind tells how a target reps value is expressed.
type RepsKind string

const (
	RepsCount    RepsKind = "count"
	RepsRange    RepsKind = "range"
	RepsDuration RepsKind = "duration"
)

// TargetReps is the parsed form of a prescribed reps string such as "10", "8-12" or "30s".
type TargetReps struct {
	Kind     RepsKind
	Min      int
	Max      int
	Duration time.Duration
}

var (
	repsCountRe    = regexp.MustCompile(`^\d+$`)
	repsRangeRe    = regexp.MustCompile(`^(\d+)\s*[-–]\s*(\d+)$`)
	repsDurationRe = regexp.MustCompile(`(?i)^(\d+)\s*(s|sec|secs|seconds|min|mins|minutes)$`)
)

// ParseTargetReps parses a prescribed reps value. Unparseable input is a validation error.
func ParseTargetReps(raw string) (TargetReps, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return TargetReps{}, Validationf("target reps are required")
	}

	if repsCountRe.MatchString(s) {
		n, err := strconv.Atoi(s)
		if err != nil {
			return TargetReps{}, Validationf("target reps %q out of range", raw)
		}
		return TargetReps{Kind: RepsCount, Min: n, Max: n}, nil
	}

	if m := repsRangeRe.FindStringSubmatch(s); m != nil {
		lo, errLo := strconv.Atoi(m[1])
		hi, errHi := strconv.Atoi(m[2])
		if errLo != nil || errHi != nil {
			return TargetReps{}, Validationf("target reps %q out of range", raw)
		}
		if lo > hi {
			return TargetReps{}, Validationf("target reps range %q has lower bound above upper bound", raw)
		}
		return TargetReps{Kind: RepsRange, Min: lo, Max: hi}, nil
	}

	if m := repsDurationRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return TargetReps{}, Validationf("target reps %q out of range", raw)
		}
		unit := time.Second
		if strings.HasPrefix(strings.ToLower(m[2]), "m") {
			unit = time.Minute
		}
		return TargetReps{Kind: RepsDuration, Duration: time.Duration(n) * unit}, nil
	}

	return TargetReps{}, Validationf("target reps %q must be a number, a range (8-12) or a time (30s)", raw)
}

// Average returns the rep count used for volume: the count itself, the mean of a range,
// and zero for time based targets.
func (t TargetReps) Average() float64 {
	switch t.Kind {
	case RepsCount:
		return float64(t.Min)
	case RepsRange:
		return float64(t.Min+t.Max) / 2
	default:
		return 0
	}
}
