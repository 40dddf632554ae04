package renderer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitForNextFrame(t *testing.T, state *SharedState) time.Time {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if due, ok := state.NextFrameDisplayTime(); ok {
			return due
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("pool never rendered the next frame")
	return time.Time{}
}

func TestPoolRendersAhead(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	doc := &fakeDocument{info: tenFrameInfo()}
	state := NewSharedState(nil, doc, nil, box(100, 100))
	state.Start(time.Now())

	pool.Append(state)
	due := waitForNextFrame(t, state)

	position := state.MarkFrameDisplayed(due)
	assert.Equal(t, 100*time.Millisecond, position)

	// Render-ahead resumes once the shown frame is acknowledged.
	state.MarkFrameShown()
	pool.FrameShown(state)
	waitForNextFrame(t, state)
}

func TestPoolUpdateFrameRequestReschedules(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	doc := &fakeDocument{info: tenFrameInfo()}
	state := NewSharedState(nil, doc, nil, box(100, 100))
	state.Start(time.Now())
	pool.Append(state)
	waitForNextFrame(t, state)

	pool.UpdateFrameRequest(state, box(40, 40))
	due := waitForNextFrame(t, state)
	state.MarkFrameDisplayed(due)

	img, changed := state.PrepareFrame(box(40, 40))
	assert.False(t, changed)
	require.NotNil(t, img)
	assert.Equal(t, 40, img.Bounds().Dx())
}

func TestPoolRemoveStopsRendering(t *testing.T) {
	pool := NewPool(1)
	defer pool.Close()

	doc := &fakeDocument{info: tenFrameInfo()}
	state := NewSharedState(nil, doc, nil, box(100, 100))
	state.Start(time.Now())
	pool.Append(state)
	due := waitForNextFrame(t, state)
	state.MarkFrameDisplayed(due)

	pool.Remove(state)
	renders := doc.renders

	// None of the scheduling entry points touch a removed state.
	pool.FrameShown(state)
	pool.UpdateFrameRequest(state, box(40, 40))
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, renders, doc.renders)
	_, ok := state.NextFrameDisplayTime()
	assert.False(t, ok)
}

func TestPoolCloseIsIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()

	// Post-close calls are harmless no-ops.
	doc := &fakeDocument{info: tenFrameInfo()}
	state := NewSharedState(nil, doc, nil, box(100, 100))
	pool.Append(state)
	pool.FrameShown(state)
}
