package player

import "github.com/pkg/errors"

// Initialization failures collapse into a two-value taxonomy: content that
// could not be parsed at all, and content that parsed but violates the
// playback invariants. Transient and permanent causes are deliberately not
// distinguished; a failed controller is terminal and a new instance must
// be constructed.
var (
	// ErrParseFailed covers unreadable, corrupt or oversized content and
	// decoder rejection.
	ErrParseFailed = errors.New("animation: parse failed")

	// ErrNotSupported covers content that decoded but whose metadata
	// fails validation (frame rate, frame count or size).
	ErrNotSupported = errors.New("animation: not supported")
)
