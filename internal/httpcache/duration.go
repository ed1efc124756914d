package httpcache

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ErrBadDuration is returned by ParseDuration for unparseable input
var ErrBadDuration = errors.New("bad time")

// durationUnits maps suffixes to their length in seconds
var durationUnits = []struct {
	seconds  int64
	suffixes []string
}{
	{1, []string{"s", "sec", "second", "seconds"}},
	{60, []string{"m", "min", "minute", "minutes"}},
	{3600, []string{"h", "hour", "hours"}},
}

// maxSeconds is the longest duration, in seconds, a time.Duration holds
const maxSeconds = math.MaxInt64 / int64(time.Second)

// ParseDuration parses cache durations such as "30", "30s", "5 min",
// "1 hour" or anything time.ParseDuration accepts. A bare number counts
// seconds. "never" yields NeverExpire.
func ParseDuration(value string) (time.Duration, error) {
	s := strings.ReplaceAll(strings.TrimSpace(value), " ", "")
	if s == "never" {
		return NeverExpire, nil
	}
	if n, ok := digits(s); ok {
		return inSeconds(n, 1, value)
	}
	for _, unit := range durationUnits {
		for _, suffix := range unit.suffixes {
			if !strings.HasSuffix(s, suffix) {
				continue
			}
			if n, ok := digits(strings.TrimSuffix(s, suffix)); ok {
				return inSeconds(n, unit.seconds, value)
			}
		}
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrBadDuration, value)
}

// inSeconds converts n units of the given length, rejecting durations
// too long to represent
func inSeconds(n, unit int64, value string) (time.Duration, error) {
	if n > maxSeconds/unit {
		return 0, fmt.Errorf("%w: %s is too long", ErrBadDuration, value)
	}
	return time.Duration(n*unit) * time.Second, nil
}

// digits parses a string made only of ASCII digits. Numbers that do not
// fit in an int64 are rejected.
func digits(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	return n, err == nil
}
