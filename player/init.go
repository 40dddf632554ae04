package player

import (
	"image"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/decode"
	"github.com/vecplay/vecplay/internal/util"
	"github.com/vecplay/vecplay/renderer"
)

// initOutcome is the one-shot result of background initialization: a
// validated playback state xor an error, never both, produced at most once
// per controller instance.
type initOutcome struct {
	state *renderer.SharedState
	err   error
}

func contentError(content []byte) error {
	if len(content) > MaxFileSize {
		util.GetLogger().Warn("animation content too large", "size", len(content))
		return ErrParseFailed
	}
	return nil
}

// createFromContent decompresses and parses document bytes. A nil result
// means the decoder rejected the content.
func createFromContent(dec decode.Decoder, content []byte) decode.Document {
	data := UnpackGzip(content)
	if len(data) > MaxFileSize {
		return nil
	}
	doc := dec.LoadFromData(data)
	if doc == nil {
		util.GetLogger().Warn("animation parse failed", "size", len(data))
	}
	return doc
}

func checkSharedState(state *renderer.SharedState) initOutcome {
	if !state.Valid() {
		return initOutcome{err: ErrNotSupported}
	}
	return initOutcome{state: state}
}

// initFromContent runs the cache-less initialization: size check,
// decompress, parse, build and validate the shared playback state.
func initFromContent(dec decode.Decoder, content []byte, request anim.FrameRequest) initOutcome {
	if err := contentError(content); err != nil {
		return initOutcome{err: err}
	}
	doc := createFromContent(dec, content)
	if doc == nil {
		return initOutcome{err: ErrParseFailed}
	}
	return checkSharedState(renderer.NewSharedState(nil, doc, nil, request))
}

// initCached runs the cache-aware initialization. The decoder is invoked
// only when the cache cannot satisfy the request on its own.
func initCached(dec decode.Decoder, content []byte, put cache.PutFunc, cached []byte, request anim.FrameRequest) initOutcome {
	if err := contentError(content); err != nil {
		return initOutcome{err: err}
	}
	frames := cache.New(cached, request, put)
	needsDecode := frames.FramesCount() == 0 || frames.FramesReady() < frames.FramesCount()

	var doc decode.Document
	if needsDecode {
		if doc = createFromContent(dec, content); doc == nil {
			return initOutcome{err: ErrParseFailed}
		}
	}
	reload := func() decode.Document {
		return createFromContent(dec, content)
	}
	return checkSharedState(renderer.NewSharedState(reload, doc, frames, request))
}

// Thumbnail synchronously decodes the first frame of a document for static
// previews. Any failure yields an empty image.
func Thumbnail(dec decode.Decoder, content []byte) image.Image {
	if dec == nil {
		dec = decode.NewJSON()
	}
	out := initFromContent(dec, content, anim.FrameRequest{})
	if out.err != nil {
		return image.NewRGBA(image.Rectangle{})
	}
	img, _ := out.state.PrepareFrame(out.state.Request())
	return img
}
