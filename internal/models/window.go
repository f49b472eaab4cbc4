package models

import (
	"fmt"
	"time"
)

type Timeframe string

const (
	Timeframe1h  Timeframe = "1h"
	Timeframe24h Timeframe = "24h"
	Timeframe7d  Timeframe = "7d"

	DefaultTimeframe = Timeframe24h
)

// ParseTimeframe accepts exactly the three supported selectors. An empty
// value selects DefaultTimeframe.
func ParseTimeframe(s string) (Timeframe, error) {
	switch Timeframe(s) {
	case "":
		return DefaultTimeframe, nil
	case Timeframe1h, Timeframe24h, Timeframe7d:
		return Timeframe(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidTimeframe, s)
	}
}

func (t Timeframe) Duration() time.Duration {
	switch t {
	case Timeframe1h:
		return time.Hour
	case Timeframe7d:
		return 7 * 24 * time.Hour
	default:
		return 24 * time.Hour
	}
}

func (t Timeframe) Label() string {
	switch t {
	case Timeframe1h:
		return "last hour"
	case Timeframe7d:
		return "last 7 days"
	default:
		return "last 24 hours"
	}
}

// Window is the single analysis scope of one engine run.
type Window struct {
	Timeframe Timeframe
	Since     time.Time
	Now       time.Time
}

func NewWindow(tf Timeframe, now time.Time) Window {
	return Window{
		Timeframe: tf,
		Since:     now.Add(-tf.Duration()),
		Now:       now,
	}
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Now)
}
