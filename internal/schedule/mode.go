package schedule

import (
	"fmt"
	"strings"
	"time"
)

// Mode is the auto-refresh cadence chosen by the user.
type Mode string

const (
	Off    Mode = "off"
	Fast   Mode = "fast"
	Hourly Mode = "hourly"
	Daily  Mode = "daily"
)

// Modes returns all modes in cycling order.
func Modes() []Mode {
	return []Mode{Off, Fast, Hourly, Daily}
}

// Interval returns the tick interval of m, or 0 for Off.
func (m Mode) Interval() time.Duration {
	switch m {
	case Fast:
		return 2 * time.Minute
	case Hourly:
		return time.Hour
	case Daily:
		return 24 * time.Hour
	default:
		return 0
	}
}

// Next returns the mode after m in cycling order.
func (m Mode) Next() Mode {
	modes := Modes()
	for i, mm := range modes {
		if mm == m {
			return modes[(i+1)%len(modes)]
		}
	}
	return Off
}

// ParseMode parses a persisted or user-supplied mode name.
func ParseMode(s string) (Mode, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, m := range Modes() {
		if string(m) == s {
			return m, nil
		}
	}
	return Off, fmt.Errorf("unknown refresh mode %q (valid: off, fast, hourly, daily)", s)
}
