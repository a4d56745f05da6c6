package aggregation

import (
	"fmt"
	"strings"
	"time"

	"github.com/mofucat/chatrank/internal/database/types"
)

// Sentinel values accepted in place of a window boundary.
const (
	// SentinelToday resolves to the current day.
	SentinelToday = "t"
	// SentinelLast resolves the start boundary to the previous aggregation's
	// end.
	SentinelLast = "last"
)

const dateLayout = "2006-01-02"

// Window is the inclusive time range over which messages are counted for one
// run. Live windows bypass the message log and rank by the current counters
// instead; the two modes are separate operations and are not expected to
// agree.
type Window struct {
	Start time.Time
	End   time.Time
	Live  bool
}

// LiveWindow returns a window that ranks by the live counters accumulated
// since the last reset.
func LiveWindow(now time.Time) Window {
	return Window{Start: time.Time{}, End: now, Live: true}
}

// ResolveWindow parses the start and end boundary arguments into a concrete
// window. Each boundary is a date, "t" for today, or, for the start only,
// "last" for the end of the most recent aggregation. The last record may be
// nil when the guild has no history.
func ResolveWindow(startArg, endArg string, now time.Time, last *types.AggregateHistory) (Window, error) {
	var start time.Time

	switch strings.ToLower(strings.TrimSpace(startArg)) {
	case SentinelToday, "":
		start = startOfDay(now)
	case SentinelLast:
		if last == nil {
			return Window{}, ErrNoPriorAggregation
		}
		// Continue exactly where the previous window stopped.
		start = last.WindowEnd.Add(time.Nanosecond)
	default:
		parsed, err := parseBoundary(startArg, now)
		if err != nil {
			return Window{}, err
		}

		start = startOfDay(parsed)
	}

	var end time.Time

	switch strings.ToLower(strings.TrimSpace(endArg)) {
	case SentinelToday, "":
		end = endOfDay(now)
	default:
		parsed, err := parseBoundary(endArg, now)
		if err != nil {
			return Window{}, err
		}

		// Both bounds are inclusive: a date argument covers its whole day.
		end = endOfDay(parsed)
	}

	if start.After(end) {
		return Window{}, fmt.Errorf("%w: %s > %s",
			ErrInvalidWindow, start.Format(dateLayout), end.Format(dateLayout))
	}

	return Window{Start: start, End: end}, nil
}

func parseBoundary(arg string, now time.Time) (time.Time, error) {
	parsed, err := time.ParseInLocation(dateLayout, strings.TrimSpace(arg), now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: cannot parse boundary %q", ErrInvalidWindow, arg)
	}

	return parsed, nil
}

func startOfDay(t time.Time) time.Time {
	year, month, day := t.Date()
	return time.Date(year, month, day, 0, 0, 0, 0, t.Location())
}

func endOfDay(t time.Time) time.Time {
	return startOfDay(t).Add(24*time.Hour - time.Nanosecond)
}
