// Package cache stores already-rendered animation frames so that a complete
// cache can satisfy playback without running the vector decoder at all.
//
// The serialized layout is a fixed header followed by length-prefixed,
// gzip-compressed RGBA frame payloads. A cache blob is only trusted when its
// magic, version and raster box match the current request; anything else
// degrades to an empty cache, which forces a decode.
package cache

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"image"
	"io"

	"github.com/vecplay/vecplay/anim"
	"github.com/vecplay/vecplay/internal/util"
)

const (
	magic   = uint32('V')<<24 | uint32('P')<<16 | uint32('C')<<8 | uint32('H')
	version = uint32(1)

	headerSize = 4 + 4 + 4 + 4 + 8 + 4 + 4 + 4 + 4
)

// PutFunc persists a serialized cache blob. It may be invoked from a
// renderer worker, never from the owning context.
type PutFunc func(blob []byte)

// Cache holds rendered frames for one animation at one raster box.
//
// Synchronization is the owner's concern: the shared playback state guards
// every call with its own lock.
type Cache struct {
	request anim.FrameRequest
	put     PutFunc

	info   anim.Information
	frames [][]byte // compressed, index-ordered, len == framesReady
}

// New parses a previously persisted blob. A nil or malformed blob, a
// version mismatch or a raster box different from the request all yield an
// empty cache; the caller will decode from scratch and refill it.
func New(cached []byte, request anim.FrameRequest, put PutFunc) *Cache {
	c := &Cache{request: request, put: put}
	if len(cached) == 0 {
		return c
	}
	if !c.parse(cached) {
		util.GetLogger().Debug("animation cache rejected", "size", len(cached))
		c.info = anim.Information{}
		c.frames = nil
	}
	return c
}

// Init records the document metadata before the first frame is appended.
// Calling it on a non-empty cache is a no-op.
func (c *Cache) Init(info anim.Information) {
	if c.info.FramesCount == 0 {
		c.info = info
	}
}

// FramesCount returns the total frame count recorded in the cache header,
// or zero for an empty cache.
func (c *Cache) FramesCount() int {
	return c.info.FramesCount
}

// FramesReady returns how many frames can be served without decoding.
func (c *Cache) FramesReady() int {
	return len(c.frames)
}

// Information returns the metadata recorded in the cache header.
func (c *Cache) Information() anim.Information {
	return c.info
}

// Request returns the raster box this cache was built for.
func (c *Cache) Request() anim.FrameRequest {
	return c.request
}

// ReadFrame decompresses the frame at the given index into a fresh image.
// It reports false for indexes that are not ready or payloads that do not
// match the request box.
func (c *Cache) ReadFrame(index int) (*image.RGBA, bool) {
	if index < 0 || index >= len(c.frames) || c.request.Box.Empty() {
		return nil, false
	}
	r, err := gzip.NewReader(bytes.NewReader(c.frames[index]))
	if err != nil {
		return nil, false
	}
	defer r.Close()

	box := c.request.Box
	img := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	if _, err := io.ReadFull(r, img.Pix); err != nil {
		return nil, false
	}
	return img, true
}

// AppendFrame stores a newly rendered frame. Frames must arrive in index
// order; out-of-order appends are dropped. When the final frame lands the
// whole cache is serialized and handed to the persist callback.
func (c *Cache) AppendFrame(index int, img *image.RGBA) {
	if c.info.FramesCount == 0 || index != len(c.frames) || index >= c.info.FramesCount || c.request.Box.Empty() {
		return
	}
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(img.Pix); err != nil {
		return
	}
	if err := w.Close(); err != nil {
		return
	}
	c.frames = append(c.frames, buf.Bytes())

	if len(c.frames) == c.info.FramesCount && c.put != nil {
		c.put(c.serialize())
	}
}

func (c *Cache) serialize() []byte {
	total := headerSize
	for _, f := range c.frames {
		total += 4 + len(f)
	}
	blob := make([]byte, 0, total)

	var hdr [headerSize]byte
	binary.LittleEndian.PutUint32(hdr[0:], magic)
	binary.LittleEndian.PutUint32(hdr[4:], version)
	binary.LittleEndian.PutUint32(hdr[8:], uint32(c.request.Box.Width))
	binary.LittleEndian.PutUint32(hdr[12:], uint32(c.request.Box.Height))
	binary.LittleEndian.PutUint64(hdr[16:], uint64(int64(c.info.FrameRate*1000)))
	binary.LittleEndian.PutUint32(hdr[24:], uint32(c.info.FramesCount))
	binary.LittleEndian.PutUint32(hdr[28:], uint32(c.info.Size.Width))
	binary.LittleEndian.PutUint32(hdr[32:], uint32(c.info.Size.Height))
	binary.LittleEndian.PutUint32(hdr[36:], uint32(len(c.frames)))
	blob = append(blob, hdr[:]...)

	var lenBuf [4]byte
	for _, f := range c.frames {
		binary.LittleEndian.PutUint32(lenBuf[:], uint32(len(f)))
		blob = append(blob, lenBuf[:]...)
		blob = append(blob, f...)
	}
	return blob
}

func (c *Cache) parse(blob []byte) bool {
	if len(blob) < headerSize {
		return false
	}
	if binary.LittleEndian.Uint32(blob[0:]) != magic {
		return false
	}
	if binary.LittleEndian.Uint32(blob[4:]) != version {
		return false
	}
	box := anim.Size{
		Width:  int(int32(binary.LittleEndian.Uint32(blob[8:]))),
		Height: int(int32(binary.LittleEndian.Uint32(blob[12:]))),
	}
	if box != c.request.Box {
		return false
	}
	c.info = anim.Information{
		FrameRate:   float64(int64(binary.LittleEndian.Uint64(blob[16:]))) / 1000,
		FramesCount: int(int32(binary.LittleEndian.Uint32(blob[24:]))),
		Size: anim.Size{
			Width:  int(int32(binary.LittleEndian.Uint32(blob[28:]))),
			Height: int(int32(binary.LittleEndian.Uint32(blob[32:]))),
		},
	}
	ready := int(int32(binary.LittleEndian.Uint32(blob[36:])))
	if !c.info.Valid() || ready < 0 || ready > c.info.FramesCount {
		return false
	}

	offset := headerSize
	for i := 0; i < ready; i++ {
		if offset+4 > len(blob) {
			return false
		}
		n := int(binary.LittleEndian.Uint32(blob[offset:]))
		offset += 4
		if n <= 0 || offset+n > len(blob) {
			return false
		}
		c.frames = append(c.frames, blob[offset:offset+n])
		offset += n
	}
	return true
}
