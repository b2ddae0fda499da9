package frameloop

import (
	"context"
	"time"
)

// RefreshSource paces the loop. Wait blocks until the next display refresh.
type RefreshSource interface {
	Wait(ctx context.Context) error
}

// TickerSource emulates a display refresh with a time.Ticker.
// Ticks missed while a frame is busy are dropped, there is no catch-up.
type TickerSource struct {
	ticker *time.Ticker
}

func NewTickerSource(fps int) *TickerSource {
	if fps <= 0 {
		fps = 60
	}
	return &TickerSource{ticker: time.NewTicker(time.Second / time.Duration(fps))}
}

func (s *TickerSource) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ticker.C:
		return nil
	}
}

func (s *TickerSource) Stop() {
	s.ticker.Stop()
}

// ManualSource releases one frame per Tick call
type ManualSource struct {
	ch chan struct{}
}

func NewManualSource() *ManualSource {
	return &ManualSource{ch: make(chan struct{})}
}

// Tick blocks until the loop picks the refresh up or ctx is done
func (s *ManualSource) Tick(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.ch <- struct{}{}:
		return nil
	}
}

func (s *ManualSource) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-s.ch:
		return nil
	}
}
