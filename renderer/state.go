package renderer

import (
	"image"
	"sync"
	"time"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/decode"
)

// SharedState is the per-animation clock and frame-selection state shared
// between the owning controller and the renderer pool. Every method is
// safe to call from the owning context concurrently with pool-side
// rendering; a single mutex guards the whole state.
//
// The state renders one frame ahead: current is the frame being painted,
// next is rendered by a pool worker and waits until its display time.
type SharedState struct {
	mu sync.Mutex

	doc    decode.Document
	frames *cache.Cache

	// reload lazily re-creates the document when initialization skipped
	// the decoder (complete cache) but a later request defeats the cache.
	reload func() decode.Document

	info    anim.Information
	request anim.FrameRequest

	current *Frame
	next    *Frame

	// renderIndex is the monotonic index of the next frame to render;
	// playback loops, so the document frame is renderIndex modulo count.
	renderIndex int

	started   bool
	startTime time.Time
	delay     time.Duration
	shown     bool
}

// NewSharedState builds the playback state and synchronously renders the
// first frame so a paintable raster exists before the controller reaches
// Ready. Either doc or a cache with ready frames must be present; reload
// may be nil when doc is set.
func NewSharedState(reload func() decode.Document, doc decode.Document, frames *cache.Cache, request anim.FrameRequest) *SharedState {
	s := &SharedState{
		doc:    doc,
		frames: frames,
		reload: reload,
	}
	if doc != nil {
		s.info = doc.Information()
		if frames != nil {
			frames.Init(s.info)
		}
	} else if frames != nil {
		s.info = frames.Information()
	}
	s.request = s.normalize(request)

	if img := s.renderLocked(0); img != nil {
		s.current = &Frame{Index: 0, Position: 0, Original: img}
	}
	s.renderIndex = 1
	return s
}

// Information returns the metadata snapshot captured at construction.
func (s *SharedState) Information() anim.Information {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info
}

// Valid reports whether the state carries paintable, invariant-satisfying
// content. The initializer refuses to expose states where this is false.
func (s *SharedState) Valid() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.info.Valid() && s.current != nil
}

// Start begins the playback clock. Called exactly once, when the
// controller transitions to Ready.
func (s *SharedState) Start(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.started = true
	s.startTime = now
}

// Request returns the currently stored frame request.
func (s *SharedState) Request() anim.FrameRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.request
}

// PrepareFrame returns the current frame prepared for the given request
// and reports whether the request differs from the stored one. The stored
// request is left untouched; callers route the change through the pool so
// future frames re-target, tolerating a one-frame lag on the raster
// returned here.
func (s *SharedState) PrepareFrame(request anim.FrameRequest) (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request = s.normalize(request)
	changed := request != s.request
	if s.current == nil {
		return nil, changed
	}
	return s.current.Prepare(request), changed
}

// UpdateRequest replaces the stored request and drops the rendered-ahead
// frame so the pool renders it again with the new parameters.
func (s *SharedState) UpdateRequest(request anim.FrameRequest) {
	s.mu.Lock()
	defer s.mu.Unlock()

	request = s.normalize(request)
	if request == s.request {
		return
	}
	s.request = request
	if s.next != nil {
		s.renderIndex = s.next.Index
		s.next = nil
	}
}

// NextFrameDisplayTime returns the wall-clock moment the rendered-ahead
// frame becomes due. ok is false while no such frame exists yet.
func (s *SharedState) NextFrameDisplayTime() (due time.Time, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.next == nil {
		return time.Time{}, false
	}
	return s.dueLocked(s.next), true
}

// MarkFrameDisplayed advances to the rendered-ahead frame and records the
// display moment, compensating the clock for late display so the cadence
// is measured from the actual display times. Returns the new playback
// position.
func (s *SharedState) MarkFrameDisplayed(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next == nil {
		if s.current == nil {
			return 0
		}
		return s.current.Position
	}
	if due := s.dueLocked(s.next); now.After(due) {
		s.delay += now.Sub(due)
	}
	s.current = s.next
	s.next = nil
	s.shown = false
	return s.current.Position
}

// MarkFrameShown records that the displayed frame reached the screen,
// unblocking the render-ahead of the following frame.
func (s *SharedState) MarkFrameShown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.shown = true
}

// NeedsRender reports whether the pool should render the next frame.
func (s *SharedState) NeedsRender() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next == nil
}

// RenderNextFrame renders one frame ahead. Called from pool workers only;
// a no-op when a rendered-ahead frame already exists.
func (s *SharedState) RenderNextFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.next != nil || s.info.FramesCount <= 0 {
		return
	}
	// Hold render-ahead until the displayed frame actually reached the
	// screen, except during the initial fill.
	if s.current != nil && s.current.Index > 0 && !s.shown {
		return
	}
	index := s.renderIndex
	logical := index % s.info.FramesCount
	img := s.renderLocked(logical)
	if img == nil {
		return
	}
	s.next = &Frame{
		Index:    index,
		Position: time.Duration(logical) * s.frameDurationLocked(),
		Original: img,
	}
	s.renderIndex++
}

func (s *SharedState) dueLocked(f *Frame) time.Time {
	return s.startTime.Add(s.delay + time.Duration(f.Index)*s.frameDurationLocked())
}

func (s *SharedState) frameDurationLocked() time.Duration {
	if s.info.FrameRate <= 0 {
		return 0
	}
	return time.Duration(float64(time.Second) / s.info.FrameRate)
}

// renderLocked produces the raster for one logical frame, preferring the
// cache and persisting freshly decoded frames back into it.
func (s *SharedState) renderLocked(logical int) *image.RGBA {
	if s.frames != nil && s.request.Box == s.frames.Request().Box {
		if img, ok := s.frames.ReadFrame(logical); ok {
			return img
		}
	}
	if s.doc == nil && s.reload != nil {
		s.doc = s.reload()
		s.reload = nil
	}
	if s.doc == nil {
		return nil
	}
	img := s.doc.Render(logical, s.request.Box)
	if img != nil && s.frames != nil && s.request.Box == s.frames.Request().Box {
		s.frames.AppendFrame(logical, img)
	}
	return img
}

func (s *SharedState) normalize(request anim.FrameRequest) anim.FrameRequest {
	if request.Box.Empty() {
		request.Box = s.info.Size
	}
	return request
}
