package sync

import (
	"context"
	stdsync "sync"
	"time"

	"github.com/fokuslabs/fokus/internal/focus"
)

// Remote is the server side of the snapshot protocol: read the full snapshot
// plus its watermark, or push the full local state.
type Remote interface {
	FetchState(ctx context.Context) (focus.State, time.Time, error)
	PushState(ctx context.Context, state focus.State) error
}

// DefaultDebounce coalesces rapid local edits into one network write.
const DefaultDebounce = 900 * time.Millisecond

// Controller owns the canonical in-memory state for a client session. Every
// applied transition is saved to the local file immediately and pushed to the
// server after a debounce window. Sync and hydrate failures are swallowed:
// the local copy is authoritative for the session and the next edit or
// manual sync simply retries.
type Controller struct {
	mu    stdsync.Mutex
	state focus.State

	file     LocalFile
	remote   Remote
	debounce time.Duration
	timer    *time.Timer
	now      func() time.Time

	// OnSync, when set, observes the outcome of every push attempt. The TUI
	// uses it to show a status line; errors carry no other consequence.
	OnSync func(err error)
}

// NewController restores state from the local file, or seeds a fresh default
// state when the file is absent or carries the wrong schema version.
func NewController(file LocalFile, remote Remote) *Controller {
	c := &Controller{
		file:     file,
		remote:   remote,
		debounce: DefaultDebounce,
		now:      time.Now,
	}
	if state, ok := file.Load(); ok {
		c.state = state
	} else {
		c.state = focus.NewInitialState(c.now())
	}
	return c
}

// State returns the current state value. Being a value, callers can read it
// freely; only Apply mutates the controller's copy.
func (c *Controller) State() focus.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Now returns the controller's clock reading, the same instant transitions
// applied through Apply should use.
func (c *Controller) Now() time.Time {
	return c.now()
}

// Apply runs a transition against the current state, persists the result
// locally, and schedules a debounced push. The returned state is the new
// canonical copy.
func (c *Controller) Apply(fn func(focus.State) focus.State) focus.State {
	c.mu.Lock()
	next := fn(c.state)
	c.state = next
	c.mu.Unlock()

	// Local save failures (quota, permissions) are swallowed like any other
	// transient I/O problem; the in-memory copy stays good.
	_ = c.file.Save(next)

	c.schedulePush()
	return next
}

func (c *Controller) schedulePush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
	c.timer = time.AfterFunc(c.debounce, func() {
		c.push(context.Background())
	})
}

func (c *Controller) push(ctx context.Context) {
	if c.remote == nil {
		return
	}
	state := c.State()
	err := c.remote.PushState(ctx, state)
	if c.OnSync != nil {
		c.OnSync(err)
	}
}

// Flush pushes the current state immediately, cancelling any pending
// debounce. Used by the manual sync key and at shutdown.
func (c *Controller) Flush(ctx context.Context) {
	c.mu.Lock()
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()
	c.push(ctx)
}

// Hydrate fetches the server snapshot and reconciles it into the local copy
// per the watermark rule. Errors are swallowed; hydration is best-effort and
// the caller retries on the next load. The returned state is the possibly
// merged canonical copy.
func (c *Controller) Hydrate(ctx context.Context) focus.State {
	if c.remote == nil {
		return c.State()
	}
	server, watermark, err := c.remote.FetchState(ctx)
	if err != nil || server.Version != focus.Version {
		return c.State()
	}

	c.mu.Lock()
	merged := Reconcile(c.state, server, watermark)
	c.state = merged
	c.mu.Unlock()

	_ = c.file.Save(merged)
	return merged
}
