package player

import (
	"encoding/binary"
	"image"
	"image/color"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/cache"
	"github.com/vecplay/vecplay/decode"
)

// stubDocument is a trivially renderable document with fixed metadata.
type stubDocument struct {
	info anim.Information
}

func (d *stubDocument) Information() anim.Information {
	return d.info
}

func (d *stubDocument) Render(index int, box anim.Size) *image.RGBA {
	if box.Empty() {
		box = d.info.Size
	}
	img := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	// Encode the frame index into the raster so tests can tell frames apart.
	img.SetRGBA(0, 0, color.RGBA{R: uint8(index), A: 255})
	return img
}

// stubDecoder counts invocations and can delay to simulate slow decodes.
type stubDecoder struct {
	calls atomic.Int64
	doc   decode.Document
	delay time.Duration
}

func (d *stubDecoder) LoadFromData(data []byte) decode.Document {
	if d.delay > 0 {
		time.Sleep(d.delay)
	}
	d.calls.Add(1)
	return d.doc
}

func validInfo() anim.Information {
	return anim.Information{
		FrameRate:   10,
		FramesCount: 10,
		Size:        anim.Size{Width: 100, Height: 100},
	}
}

func request100() anim.FrameRequest {
	return anim.FrameRequest{Box: anim.Size{Width: 100, Height: 100}}
}

// completeCacheBlob renders every frame through the cache layer and
// returns the persisted blob.
func completeCacheBlob(t *testing.T, info anim.Information, request anim.FrameRequest) []byte {
	t.Helper()
	var blob []byte
	c := cache.New(nil, request, func(b []byte) { blob = b })
	c.Init(info)
	doc := &stubDocument{info: info}
	for i := 0; i < info.FramesCount; i++ {
		c.AppendFrame(i, doc.Render(i, request.Box))
	}
	require.NotNil(t, blob, "cache must persist once the last frame lands")
	return blob
}

func TestInitOversizedContentSkipsDecoder(t *testing.T) {
	dec := &stubDecoder{doc: &stubDocument{info: validInfo()}}

	out := initFromContent(dec, make([]byte, MaxFileSize+1), request100())
	require.ErrorIs(t, out.err, ErrParseFailed)
	assert.Nil(t, out.state)
	assert.EqualValues(t, 0, dec.calls.Load(), "decoder must not run for oversized content")
}

func TestInitDecoderRejectionFails(t *testing.T) {
	dec := &stubDecoder{doc: nil}

	out := initFromContent(dec, []byte("malformed"), request100())
	require.ErrorIs(t, out.err, ErrParseFailed)
	assert.EqualValues(t, 1, dec.calls.Load())
}

func TestInitInvalidMetadataNotSupported(t *testing.T) {
	tests := []struct {
		name string
		info anim.Information
	}{
		{"zero_frame_rate", anim.Information{FramesCount: 10, Size: anim.Size{Width: 10, Height: 10}}},
		{"zero_frames_count", anim.Information{FrameRate: 10, Size: anim.Size{Width: 10, Height: 10}}},
		{"empty_size", anim.Information{FrameRate: 10, FramesCount: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := &stubDecoder{doc: &stubDocument{info: tt.info}}
			out := initFromContent(dec, []byte("doc"), request100())
			require.ErrorIs(t, out.err, ErrNotSupported)
			assert.Nil(t, out.state)
		})
	}
}

func TestInitCompleteCacheSkipsDecoder(t *testing.T) {
	info := validInfo()
	request := request100()
	blob := completeCacheBlob(t, info, request)
	dec := &stubDecoder{doc: &stubDocument{info: info}}

	out := initCached(dec, []byte("doc"), nil, blob, request)
	require.NoError(t, out.err)
	require.NotNil(t, out.state)
	assert.Equal(t, info, out.state.Information())
	assert.EqualValues(t, 0, dec.calls.Load(), "complete cache must not trigger a decode")
}

func TestInitEmptyOrPartialCacheDecodes(t *testing.T) {
	info := validInfo()
	request := request100()

	// A partial blob: the complete blob with the frames-ready counter
	// patched down, leaving trailing entries unread.
	partial := completeCacheBlob(t, info, request)
	binary.LittleEndian.PutUint32(partial[36:], 5)

	tests := []struct {
		name   string
		cached []byte
	}{
		{"empty_cache", nil},
		{"garbage_cache", []byte("not a cache blob")},
		{"partial_cache", partial},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dec := &stubDecoder{doc: &stubDocument{info: info}}
			out := initCached(dec, []byte("doc"), nil, tt.cached, request)
			require.NoError(t, out.err)
			assert.EqualValues(t, 1, dec.calls.Load(), "incomplete cache must trigger a decode")
		})
	}
}

func TestInitCachedDecoderRejectionFails(t *testing.T) {
	dec := &stubDecoder{doc: nil}
	out := initCached(dec, []byte("malformed"), nil, nil, request100())
	require.ErrorIs(t, out.err, ErrParseFailed)
}

func TestThumbnail(t *testing.T) {
	t.Run("valid_document", func(t *testing.T) {
		dec := &stubDecoder{doc: &stubDocument{info: validInfo()}}
		img := Thumbnail(dec, []byte("doc"))
		require.NotNil(t, img)
		assert.False(t, img.Bounds().Empty())
	})

	t.Run("rejected_document", func(t *testing.T) {
		dec := &stubDecoder{doc: nil}
		img := Thumbnail(dec, []byte("garbage"))
		require.NotNil(t, img)
		assert.True(t, img.Bounds().Empty())
	})
}
