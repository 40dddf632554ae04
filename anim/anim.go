// Package anim holds the value types shared between the player, the
// renderer pool and the frame cache.
package anim

import (
	"fmt"
	"image/color"
)

// Size is a raster size in pixels.
type Size struct {
	Width  int
	Height int
}

// Empty reports whether the size has no visible area.
func (s Size) Empty() bool {
	return s.Width <= 0 || s.Height <= 0
}

func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// FrameRequest describes the desired raster output parameters for a frame.
// It is comparable: replacing the stored request mid-playback is detected
// by plain equality and signals the renderer to re-target future frames.
type FrameRequest struct {
	Box Size

	// Colored replaces the document palette with a single tint when
	// UseColor is set. Kept as a plain NRGBA so the struct stays comparable.
	Colored  color.NRGBA
	UseColor bool
}

// Empty reports whether the request carries no usable output box.
func (r FrameRequest) Empty() bool {
	return r.Box.Empty()
}

// Information is the immutable metadata snapshot captured once at
// successful initialization.
type Information struct {
	FrameRate   float64
	FramesCount int
	Size        Size
}

// Valid reports whether the metadata satisfies the playback invariants.
// No Ready state is reachable while this is false.
func (i Information) Valid() bool {
	return i.FrameRate > 0 && i.FramesCount > 0 && !i.Size.Empty()
}
