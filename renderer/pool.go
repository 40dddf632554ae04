package renderer

import (
	"sync"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/internal/util"
)

const defaultWorkers = 2

// Pool renders frames ahead for every registered animation on a small set
// of background workers. One pool is shared by all animations; it is
// injected into each controller instead of living behind a process-wide
// singleton.
type Pool struct {
	mu     sync.Mutex
	states map[*SharedState]struct{}
	closed bool

	queue chan *SharedState
	done  chan struct{}
	wg    sync.WaitGroup
}

// NewPool starts a pool with the given number of render workers.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = defaultWorkers
	}
	p := &Pool{
		states: make(map[*SharedState]struct{}),
		queue:  make(chan *SharedState, 64),
		done:   make(chan struct{}),
	}
	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Append transfers ownership of a playback state to the pool and schedules
// its first render-ahead.
func (p *Pool) Append(state *SharedState) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.states[state] = struct{}{}
	p.mu.Unlock()

	p.schedule(state)
}

// Remove deregisters a state. After Remove returns no worker will start
// touching the state again; the owner may tear it down.
func (p *Pool) Remove(state *SharedState) {
	p.mu.Lock()
	delete(p.states, state)
	p.mu.Unlock()
}

// UpdateFrameRequest re-targets future frames of the state to a new
// request and schedules a re-render of the dropped render-ahead frame.
func (p *Pool) UpdateFrameRequest(state *SharedState, request anim.FrameRequest) {
	if !p.registered(state) {
		return
	}
	state.UpdateRequest(request)
	p.schedule(state)
}

// FrameShown tells the pool the displayed frame reached the screen, so the
// following frame may be rendered into the freed slot.
func (p *Pool) FrameShown(state *SharedState) {
	if !p.registered(state) {
		return
	}
	if state.NeedsRender() {
		p.schedule(state)
	}
}

// Close stops all workers. Registered states are dropped without further
// rendering.
func (p *Pool) Close() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	p.states = make(map[*SharedState]struct{})
	p.mu.Unlock()

	close(p.done)
	p.wg.Wait()
}

func (p *Pool) registered(state *SharedState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	_, ok := p.states[state]
	return ok
}

func (p *Pool) schedule(state *SharedState) {
	select {
	case p.queue <- state:
	case <-p.done:
	}
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case state := <-p.queue:
			// Re-check registration: the owner may have been destroyed
			// between the schedule and now.
			if !p.registered(state) {
				util.GetLogger().Debug("render job dropped for removed state")
				continue
			}
			state.RenderNextFrame()
		case <-p.done:
			return
		}
	}
}
