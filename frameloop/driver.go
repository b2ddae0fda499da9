package frameloop

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrStopped        = errors.New("frame loop stopped")
	ErrAlreadyRunning = errors.New("frame loop already started")
)

// Stage is driven once per refresh: Advance mutates, Present draws
type Stage interface {
	Advance()
	Present() error
}

type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	}
	return "unknown"
}

const postQueueSize = 256

// Driver owns the goroutine that mutates the scene.
// Everything else hands work over through Post or Do.
type Driver struct {
	source RefreshSource
	stage  Stage

	posts    chan func()
	state    int32
	stop     chan struct{}
	stopOnce sync.Once

	statsLock sync.Mutex
	stats     statsInternal
}

func NewDriver(source RefreshSource, stage Stage) *Driver {
	return &Driver{
		source: source,
		stage:  stage,
		posts:  make(chan func(), postQueueSize),
		stop:   make(chan struct{}),
		stats:  statsInternal{minDuration: time.Duration(1<<63 - 1)},
	}
}

func (d *Driver) State() State {
	return State(atomic.LoadInt32(&d.state))
}

// Post queues fn to run on the loop goroutine before the next Advance
func (d *Driver) Post(fn func()) error {
	select {
	case <-d.stop:
		return ErrStopped
	default:
	}

	select {
	case d.posts <- fn:
		return nil
	case <-d.stop:
		return ErrStopped
	}
}

// Do runs fn on the loop goroutine and waits for it
func (d *Driver) Do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	if err := d.Post(func() {
		defer close(done)
		fn()
	}); err != nil {
		return err
	}

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-d.stop:
		return ErrStopped
	}
}

func (d *Driver) drainPosts() {
	for {
		select {
		case fn := <-d.posts:
			fn()
		default:
			return
		}
	}
}

// Once runs a single tick: queued posts, Advance, Present
func (d *Driver) Once() error {
	start := time.Now()

	d.drainPosts()
	d.stage.Advance()
	err := d.stage.Present()

	d.statsLock.Lock()
	d.stats.add(time.Since(start))
	d.statsLock.Unlock()

	return err
}

// Run ticks once per refresh until ctx is done or Stop is called.
// The next refresh is awaited only after the current tick finished.
func (d *Driver) Run(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&d.state, int32(StateIdle), int32(StateRunning)) {
		if d.State() == StateStopped {
			return ErrStopped
		}
		return ErrAlreadyRunning
	}
	defer atomic.StoreInt32(&d.state, int32(StateStopped))
	defer d.Stop()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-d.stop:
			cancel()
		case <-runCtx.Done():
		}
	}()

	log.Printf("[loop] Started")
	for {
		if err := d.source.Wait(runCtx); err != nil {
			if runCtx.Err() != nil {
				log.Printf("[loop] Stopped after %v ticks", d.Stats().Ticks)
				return nil
			}
			return errors.Wrapf(err, "Refresh source failed")
		}
		if err := d.Once(); err != nil {
			return errors.Wrapf(err, "Present failed on tick %v", d.Stats().Ticks)
		}
	}
}

// Stop ends Run. Posts are refused afterwards.
func (d *Driver) Stop() {
	d.stopOnce.Do(func() {
		close(d.stop)
		atomic.CompareAndSwapInt32(&d.state, int32(StateIdle), int32(StateStopped))
	})
}

func (d *Driver) Stats() Stats {
	d.statsLock.Lock()
	defer d.statsLock.Unlock()
	return d.stats.export()
}
