package frameloop

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	. "github.com/smartystreets/goconvey/convey"
)

type countingStage struct {
	lock     sync.Mutex
	advances int
	presents int
	order    []string
	failAt   int
}

func (s *countingStage) Advance() {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.advances++
	s.order = append(s.order, "advance")
}

func (s *countingStage) Present() error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.presents++
	s.order = append(s.order, "present")
	if s.failAt != 0 && s.presents == s.failAt {
		return errors.New("gpu lost")
	}
	return nil
}

func (s *countingStage) counts() (int, int) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.advances, s.presents
}

func TestDriverOnce(t *testing.T) {
	Convey("Once runs posts before advance and present", t, func() {
		stage := &countingStage{}
		d := NewDriver(NewManualSource(), stage)

		So(d.Post(func() { stage.order = append(stage.order, "post") }), ShouldBeNil)
		So(d.Once(), ShouldBeNil)
		So(stage.order, ShouldResemble, []string{"post", "advance", "present"})
		So(d.Stats().Ticks, ShouldEqual, 1)
		So(d.State(), ShouldEqual, StateIdle)
	})
}

func TestDriverRun(t *testing.T) {
	Convey("Given a driver on a manual source", t, func() {
		source := NewManualSource()
		stage := &countingStage{}
		d := NewDriver(source, stage)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		result := make(chan error, 1)
		go func() { result <- d.Run(ctx) }()

		Convey("each refresh produces exactly one tick", func() {
			for i := 0; i < 10; i++ {
				So(source.Tick(ctx), ShouldBeNil)
			}
			posted := make(chan struct{})
			So(d.Post(func() { close(posted) }), ShouldBeNil)
			So(source.Tick(ctx), ShouldBeNil)
			<-posted
			d.Stop()
			So(<-result, ShouldBeNil)

			advances, presents := stage.counts()
			So(advances, ShouldEqual, 11)
			So(presents, ShouldEqual, advances)
			So(d.State(), ShouldEqual, StateStopped)
		})

		Convey("Do executes on the loop goroutine", func() {
			done := make(chan error, 1)
			var value int
			go func() { done <- d.Do(ctx, func() { value = 42 }) }()
			for waiting := true; waiting; {
				select {
				case err := <-done:
					So(err, ShouldBeNil)
					waiting = false
				default:
					So(source.Tick(ctx), ShouldBeNil)
				}
			}
			So(value, ShouldEqual, 42)
			d.Stop()
			So(<-result, ShouldBeNil)
		})

		Convey("second Run is refused", func() {
			So(source.Tick(ctx), ShouldBeNil)
			So(d.Run(ctx), ShouldEqual, ErrAlreadyRunning)
			d.Stop()
			So(<-result, ShouldBeNil)
		})

		Convey("posts after stop are refused", func() {
			So(source.Tick(ctx), ShouldBeNil)
			d.Stop()
			So(<-result, ShouldBeNil)
			So(d.Post(func() {}), ShouldEqual, ErrStopped)
			So(d.Do(ctx, func() {}), ShouldEqual, ErrStopped)
			So(d.Run(ctx), ShouldEqual, ErrStopped)
		})
	})
}

func TestDriverPresentError(t *testing.T) {
	Convey("Run ends when present fails", t, func() {
		source := NewManualSource()
		stage := &countingStage{failAt: 2}
		d := NewDriver(source, stage)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		result := make(chan error, 1)
		go func() { result <- d.Run(ctx) }()

		So(source.Tick(ctx), ShouldBeNil)
		So(source.Tick(ctx), ShouldBeNil)
		err := <-result
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldContainSubstring, "gpu lost")
	})
}

func TestDriverContextCancel(t *testing.T) {
	Convey("cancelling the context stops the loop", t, func() {
		d := NewDriver(NewManualSource(), &countingStage{})
		ctx, cancel := context.WithCancel(context.Background())
		result := make(chan error, 1)
		go func() { result <- d.Run(ctx) }()
		cancel()
		So(<-result, ShouldBeNil)
		So(d.State(), ShouldEqual, StateStopped)
	})
}

func TestTickerSource(t *testing.T) {
	Convey("ticker source wakes up and honors context", t, func() {
		s := NewTickerSource(1000)
		defer s.Stop()
		So(s.Wait(context.Background()), ShouldBeNil)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		slow := NewTickerSource(1)
		defer slow.Stop()
		So(slow.Wait(ctx), ShouldEqual, context.Canceled)
	})
}

func TestStatsString(t *testing.T) {
	Convey("stats format", t, func() {
		st := statsInternal{minDuration: time.Hour}
		st.add(2 * time.Millisecond)
		st.add(4 * time.Millisecond)
		e := st.export()
		So(e.Ticks, ShouldEqual, 2)
		So(e.AvgDuration, ShouldEqual, 3*time.Millisecond)
		So(e.MinDuration, ShouldEqual, 2*time.Millisecond)
		So(e.MaxDuration, ShouldEqual, 4*time.Millisecond)
		So(e.String(), ShouldStartWith, "2 ticks")
	})
}
