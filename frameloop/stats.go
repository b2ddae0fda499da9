package frameloop

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Stats describe tick durations, a tick being posts + Advance + Present
type Stats struct {
	Ticks         int64
	MinDuration   time.Duration
	MaxDuration   time.Duration
	AvgDuration   time.Duration
	LastDuration  time.Duration
	TotalDuration time.Duration
}

var statsPrinter = message.NewPrinter(language.English)

func (s Stats) String() string {
	return statsPrinter.Sprintf("%d ticks, last %v, avg %v, min %v, max %v",
		s.Ticks, s.LastDuration, s.AvgDuration, s.MinDuration, s.MaxDuration)
}

type statsInternal struct {
	ticks         int64
	minDuration   time.Duration
	maxDuration   time.Duration
	totalDuration time.Duration
	lastDuration  time.Duration
}

func (s *statsInternal) add(d time.Duration) {
	s.ticks++
	s.lastDuration = d
	s.totalDuration += d
	if d < s.minDuration {
		s.minDuration = d
	}
	if d > s.maxDuration {
		s.maxDuration = d
	}
}

func (s *statsInternal) export() Stats {
	st := Stats{
		Ticks:         s.ticks,
		MaxDuration:   s.maxDuration,
		LastDuration:  s.lastDuration,
		TotalDuration: s.totalDuration,
	}
	if s.ticks > 0 {
		st.MinDuration = s.minDuration
		st.AvgDuration = s.totalDuration / time.Duration(s.ticks)
	}
	return st
}
