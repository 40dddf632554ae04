// Package player turns stored, possibly gzip-wrapped vector-animation
// documents into live, time-correct playback handles. Decode runs on
// background goroutines, the outcome crosses back to the controller's run
// loop exactly once, and a single one-shot timer paces frame display.
package player

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/decode"
	"github.com/vecplay/vecplay/internal/util"
	"github.com/vecplay/vecplay/renderer"
)

// DefaultTickInterval is the cadence of the pacing check between one-shot
// deadline timers.
const DefaultTickInterval = 16 * time.Millisecond

// GetCachedFunc asynchronously produces previously persisted cache bytes.
// The collaborator invokes the callback once, from any goroutine, after
// construction has returned.
type GetCachedFunc func(func(cached []byte))

// Options configures a controller. The pool is shared by all animations
// and injected explicitly; nil fields fall back to package defaults.
type Options struct {
	Pool         *renderer.Pool
	Decoder      decode.Decoder
	TickInterval time.Duration
}

var (
	defaultPoolOnce sync.Once
	defaultPool     *renderer.Pool
)

func sharedPool() *renderer.Pool {
	defaultPoolOnce.Do(func() {
		defaultPool = renderer.NewPool(0)
	})
	return defaultPool
}

// Animation owns the playback lifecycle of one document: background
// initialization, registration with the renderer pool and the frame-pacing
// loop. It never blocks at construction and holds no locks itself; the run
// loop goroutine is the single owning context for all mutable state.
type Animation struct {
	id      string
	pool    *renderer.Pool
	decoder decode.Decoder
	tick    time.Duration

	ctx     context.Context
	cancel  context.CancelFunc
	outcome chan initOutcome
	updates chan Update

	closeUpdates sync.Once
	loopDone     chan struct{}

	// stateRef is the observation reference published for Frame and the
	// mark calls once ownership of the state moved to the pool.
	stateRef atomic.Pointer[renderer.SharedState]

	// Run-loop owned fields.
	state         *renderer.SharedState
	info          anim.Information
	nextFrameTime time.Time // zero means unknown
	timer         *time.Timer
	timerArmed    bool
	ticker        *time.Ticker
	failed        bool
}

// New constructs a controller for raw document bytes (or a bounded file at
// path when data is empty) and schedules background initialization.
func New(data []byte, path string, request anim.FrameRequest, opts Options) *Animation {
	a := newAnimation(opts)
	content := ReadContent(data, path)
	go func() {
		if a.ctx.Err() != nil {
			return
		}
		a.deliver(initFromContent(a.decoder, content, request))
	}()
	go a.run()
	return a
}

// NewCached constructs a cache-aware controller. Cached bytes are obtained
// through get after construction returns; newly rendered frames are
// persisted through put. Content and request are fixed at construction.
func NewCached(get GetCachedFunc, put cache.PutFunc, data []byte, path string, request anim.FrameRequest, opts Options) *Animation {
	a := newAnimation(opts)
	content := ReadContent(data, path)
	go func() {
		get(func(cached []byte) {
			go func() {
				if a.ctx.Err() != nil {
					return
				}
				a.deliver(initCached(a.decoder, content, put, cached, request))
			}()
		})
	}()
	go a.run()
	return a
}

func newAnimation(opts Options) *Animation {
	a := &Animation{
		id:       uuid.NewString()[:8],
		pool:     opts.Pool,
		decoder:  opts.Decoder,
		tick:     opts.TickInterval,
		outcome:  make(chan initOutcome),
		updates:  make(chan Update, 64),
		loopDone: make(chan struct{}),
	}
	if a.pool == nil {
		a.pool = sharedPool()
	}
	if a.decoder == nil {
		a.decoder = decode.NewJSON()
	}
	if a.tick <= 0 {
		a.tick = DefaultTickInterval
	}
	a.ctx, a.cancel = context.WithCancel(context.Background())
	a.timer = time.NewTimer(time.Hour)
	if !a.timer.Stop() {
		<-a.timer.C
	}
	return a
}

// deliver hands the initialization outcome to the run loop. When the
// controller was destroyed first the outcome is dropped; the stale
// background task never touches controller state.
func (a *Animation) deliver(out initOutcome) {
	select {
	case a.outcome <- out:
	case <-a.ctx.Done():
	}
}

// Updates returns the event stream: InformationReady then ongoing
// DisplayFrameRequest events, or one terminal Failure. The channel closes
// after a failure or on Close.
func (a *Animation) Updates() <-chan Update {
	return a.updates
}

// Ready reports whether the controller reached the Ready state.
func (a *Animation) Ready() bool {
	return a.stateRef.Load() != nil
}

// Frame returns the current frame prepared for the request. Calling it
// before Ready is a programming error. A request change re-targets future
// frames through the pool; the frame returned now may lag by one frame.
func (a *Animation) Frame(request anim.FrameRequest) image.Image {
	state := a.stateRef.Load()
	if state == nil {
		panic("player: Frame called before Ready")
	}
	img, changed := state.PrepareFrame(request)
	if changed {
		a.pool.UpdateFrameRequest(state, request)
	}
	return img
}

// MarkFrameDisplayed records that the current frame was displayed at now
// and returns the playback position.
func (a *Animation) MarkFrameDisplayed(now time.Time) time.Duration {
	state := a.stateRef.Load()
	if state == nil {
		panic("player: MarkFrameDisplayed called before Ready")
	}
	return state.MarkFrameDisplayed(now)
}

// MarkFrameShown records that the displayed frame was flushed to the
// screen and lets the pool advance its buffers.
func (a *Animation) MarkFrameShown() {
	state := a.stateRef.Load()
	if state == nil {
		panic("player: MarkFrameShown called before Ready")
	}
	state.MarkFrameShown()
	a.pool.FrameShown(state)
}

// Close destroys the controller. A still-running background decode
// becomes a no-op; a registered state is deregistered from the pool before
// Close returns.
func (a *Animation) Close() {
	a.cancel()
	<-a.loopDone
}

// run is the owning context: a single goroutine driving initialization
// dispatch, the periodic pacing tick and the one-shot deadline timer.
func (a *Animation) run() {
	defer close(a.loopDone)
	defer a.teardown()

	var tick <-chan time.Time
	for {
		select {
		case <-a.ctx.Done():
			return
		case out := <-a.outcome:
			a.initDone(out)
			if a.failed {
				return
			}
			tick = a.ticker.C
		case <-tick:
			a.checkStep()
		case <-a.timer.C:
			a.timerArmed = false
			a.checkNextFrameRender()
		}
	}
}

func (a *Animation) teardown() {
	if a.state != nil {
		a.pool.Remove(a.state)
	}
	if a.ticker != nil {
		a.ticker.Stop()
	}
	a.cancelTimer()
	a.closeUpdates.Do(func() { close(a.updates) })
}

// initDone dispatches the one-shot outcome; parseDone and parseFailed are
// mutually exclusive and terminal for the init phase.
func (a *Animation) initDone(out initOutcome) {
	if out.err != nil {
		a.parseFailed(out.err)
		return
	}
	a.parseDone(out.state)
}

func (a *Animation) parseDone(state *renderer.SharedState) {
	a.info = state.Information()
	a.state = state
	a.state.Start(time.Now())
	a.pool.Append(state)
	a.stateRef.Store(state)
	a.emit(InformationReady{Information: a.info})
	util.GetLogger().Debug("animation ready",
		"id", a.id,
		"frames", a.info.FramesCount,
		"rate", a.info.FrameRate,
		"size", a.info.Size.String())

	a.ticker = time.NewTicker(a.tick)
	a.checkStep()
}

func (a *Animation) parseFailed(err error) {
	util.GetLogger().Warn("animation init failed", "id", a.id, "error", err)
	a.failed = true
	a.emit(Failure{Err: err})
	a.closeUpdates.Do(func() { close(a.updates) })
}

func (a *Animation) emit(u Update) {
	select {
	case a.updates <- u:
	case <-a.ctx.Done():
	}
}

func (a *Animation) checkStep() {
	if !a.nextFrameTime.IsZero() {
		a.checkNextFrameRender()
	} else {
		a.checkNextFrameAvailability()
	}
}

// checkNextFrameAvailability asks the state for the next due time; when it
// is already known the same tick handles an already-past deadline.
func (a *Animation) checkNextFrameAvailability() {
	if due, ok := a.state.NextFrameDisplayTime(); ok {
		a.nextFrameTime = due
		a.checkStep()
	}
}

// checkNextFrameRender arms the one-shot timer for the remaining delta, or
// displays the due frame and emits the display event.
func (a *Animation) checkNextFrameRender() {
	now := time.Now()
	if now.Before(a.nextFrameTime) {
		if !a.timerArmed {
			a.timer.Reset(a.nextFrameTime.Sub(now))
			a.timerArmed = true
		}
		return
	}
	a.cancelTimer()
	a.nextFrameTime = time.Time{}
	position := a.state.MarkFrameDisplayed(now)
	a.emit(DisplayFrameRequest{Position: position})
}

func (a *Animation) cancelTimer() {
	if !a.timerArmed {
		return
	}
	if !a.timer.Stop() {
		select {
		case <-a.timer.C:
		default:
		}
	}
	a.timerArmed = false
}
