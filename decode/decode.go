// Package decode defines the vector decode-library collaborator used by the
// player, together with a built-in reference decoder for keyframed JSON
// documents.
package decode

import (
	"image"

	"github.com/vecplay/vecplay/anim"
)

// Document is an opaque handle to a parsed vector animation, produced by a
// Decoder. Implementations must be safe for use from a single renderer
// worker at a time.
type Document interface {
	// Information returns the document metadata. The player rejects
	// documents whose metadata fails anim.Information.Valid.
	Information() anim.Information

	// Render rasterizes the frame at the given index into a fresh RGBA
	// image of the given box. The index is always in [0, FramesCount).
	Render(index int, box anim.Size) *image.RGBA
}

// Decoder parses raw (already decompressed) document bytes.
//
// A nil Document signals rejection. Decoders never report failures through
// errors or panics; the player maps a nil result to its own error taxonomy.
type Decoder interface {
	LoadFromData(data []byte) Document
}
