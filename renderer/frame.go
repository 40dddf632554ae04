package renderer

import (
	"image"
	"image/color"
	"time"

	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/vecplay/vecplay/anim"
)

// Frame is one rendered animation frame together with the raster it was
// prepared for. Index counts displayed frames monotonically, so it keeps
// growing across loops; Position is the playback position inside the
// document.
type Frame struct {
	Index    int
	Position time.Duration
	Original *image.RGBA

	prepared    *image.RGBA
	preparedFor anim.FrameRequest
}

// Prepare returns the frame adjusted to the given request, reusing the
// previous preparation when the request has not changed.
func (f *Frame) Prepare(request anim.FrameRequest) *image.RGBA {
	if f.prepared != nil && f.preparedFor == request {
		return f.prepared
	}
	img := f.Original
	if !request.Box.Empty() && request.Box != boxOf(img) {
		img = resample(img, request.Box)
	}
	if request.UseColor {
		img = tint(img, request.Colored)
	}
	f.prepared = img
	f.preparedFor = request
	return img
}

func boxOf(img *image.RGBA) anim.Size {
	b := img.Bounds()
	return anim.Size{Width: b.Dx(), Height: b.Dy()}
}

// resample is a nearest-neighbour rescale. Frames are normally rendered
// directly at the requested box; this only runs for the one-frame lag after
// a request change, where quality does not matter.
func resample(src *image.RGBA, box anim.Size) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	sb := src.Bounds()
	for y := 0; y < box.Height; y++ {
		sy := sb.Min.Y + y*sb.Dy()/box.Height
		for x := 0; x < box.Width; x++ {
			sx := sb.Min.X + x*sb.Dx()/box.Width
			dst.SetRGBA(x, y, src.RGBAAt(sx, sy))
		}
	}
	return dst
}

// tint recolors the frame to the requested override while keeping each
// pixel's alpha and relative luminance, so shading survives the recolor.
func tint(src *image.RGBA, override color.NRGBA) *image.RGBA {
	base := colorful.Color{
		R: float64(override.R) / 255,
		G: float64(override.G) / 255,
		B: float64(override.B) / 255,
	}
	h, s, baseLum := base.Hsl()

	b := src.Bounds()
	dst := image.NewRGBA(b)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := src.RGBAAt(x, y)
			if p.A == 0 {
				continue
			}
			pix := colorful.Color{
				R: float64(p.R) / 255,
				G: float64(p.G) / 255,
				B: float64(p.B) / 255,
			}
			_, _, lum := pix.Hsl()
			out := colorful.Hsl(h, s, baseLum*lum).Clamped()
			r, g, bb := out.RGB255()
			dst.SetRGBA(x, y, color.RGBA{R: r, G: g, B: bb, A: p.A})
		}
	}
	return dst
}
