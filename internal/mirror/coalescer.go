package mirror

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrSyncBusy means a transfer in the other direction is in flight.
var ErrSyncBusy = errors.New("sync busy")

// FlushState tracks the outbound side of the coalescer.
type FlushState int

const (
	// StateIdle means no push is running or queued.
	StateIdle FlushState = iota
	// StateFlushing means one push is in flight.
	StateFlushing
	// StateFlushingRetry means a push is in flight and exactly one more is
	// queued behind it. Further schedules collapse into the queued one.
	StateFlushingRetry
)

func (s FlushState) String() string {
	switch s {
	case StateFlushing:
		return "flushing"
	case StateFlushingRetry:
		return "flushing+retry"
	default:
		return "idle"
	}
}

// Coalescer batches local mutations into debounced pushes and keeps pushes
// and pulls from interleaving. The local store stays authoritative; a
// failed transfer is reported, never fatal.
type Coalescer struct {
	Provider Provider
	// Snapshot is called at flush time so a queued retry pushes current
	// state, not the state captured when the retry was queued.
	Snapshot func(ctx context.Context) (*Snapshot, error)
	// Apply installs a pulled snapshot into the local store.
	Apply    func(ctx context.Context, s *Snapshot) error
	Debounce time.Duration
	Timeout  time.Duration
	OnError  func(err error)
	Log      *slog.Logger

	mu      sync.Mutex
	timer   *time.Timer
	state   FlushState
	pulling bool
}

func (c *Coalescer) log() *slog.Logger {
	if c.Log != nil {
		return c.Log
	}
	return slog.Default()
}

func (c *Coalescer) debounce() time.Duration {
	if c.Debounce <= 0 {
		return 400 * time.Millisecond
	}
	return c.Debounce
}

func (c *Coalescer) timeout() time.Duration {
	if c.Timeout <= 0 {
		return 10 * time.Second
	}
	return c.Timeout
}

func (c *Coalescer) report(err error) {
	c.log().Warn("mirror sync failed", "err", err)
	if c.OnError != nil {
		c.OnError(err)
	}
}

// ScheduleFlush notes that local state changed. Repeated calls within the
// debounce window collapse into one push; the timer resets, it does not
// stack.
func (c *Coalescer) ScheduleFlush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce(), c.flushDue)
}

func (c *Coalescer) flushDue() {
	c.mu.Lock()
	if c.pulling {
		// A pull owns the wire. Try again after another window.
		c.timer = time.AfterFunc(c.debounce(), c.flushDue)
		c.mu.Unlock()
		return
	}
	switch c.state {
	case StateIdle:
		c.state = StateFlushing
		c.mu.Unlock()
		go c.runFlush()
	case StateFlushing:
		c.state = StateFlushingRetry
		c.mu.Unlock()
	case StateFlushingRetry:
		c.mu.Unlock()
	}
}

func (c *Coalescer) runFlush() {
	for {
		if err := c.pushOnce(); err != nil {
			c.report(err)
		}
		c.mu.Lock()
		if c.state == StateFlushingRetry {
			c.state = StateFlushing
			c.mu.Unlock()
			continue
		}
		c.state = StateIdle
		c.mu.Unlock()
		return
	}
}

func (c *Coalescer) pushOnce() error {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout())
	defer cancel()
	snap, err := c.Snapshot(ctx)
	if err != nil {
		return err
	}
	return c.Provider.Push(ctx, snap)
}

// Flush pushes current state now, bypassing the debounce window. It refuses
// while a pull or another push is running.
func (c *Coalescer) Flush(ctx context.Context) error {
	c.mu.Lock()
	if c.pulling || c.state != StateIdle {
		c.mu.Unlock()
		return ErrSyncBusy
	}
	c.state = StateFlushing
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()
	snap, err := c.Snapshot(ctx)
	if err == nil {
		err = c.Provider.Push(ctx, snap)
	}

	c.mu.Lock()
	retry := c.state == StateFlushingRetry
	c.state = StateIdle
	c.mu.Unlock()
	if retry {
		// A mutation landed mid-push; push once more with fresh state.
		c.ScheduleFlush()
	}
	return err
}

// Pull fetches the remote snapshot and applies it locally. Pulls refuse to
// start while a push is in flight, mirroring how pushes defer during pulls.
func (c *Coalescer) Pull(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	if c.pulling || c.state != StateIdle {
		c.mu.Unlock()
		return nil, ErrSyncBusy
	}
	c.pulling = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.pulling = false
		c.mu.Unlock()
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()
	snap, err := c.Provider.Pull(ctx)
	if err != nil {
		return nil, err
	}
	if c.Apply != nil {
		if err := c.Apply(ctx, snap); err != nil {
			return nil, err
		}
	}
	return snap, nil
}

// State reports the outbound state machine's position.
func (c *Coalescer) State() FlushState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pulling reports whether a pull is in flight.
func (c *Coalescer) Pulling() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pulling
}

// Stop cancels any pending debounce timer. In-flight transfers finish on
// their own.
func (c *Coalescer) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}
