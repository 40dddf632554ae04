package decode

import (
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"math"

	"github.com/vecplay/vecplay/anim"
)

// JSON decodes the built-in keyframed vector JSON format. The format is a
// small subset of the common vector-animation schema: a frame rate, in/out
// points, an intrinsic size and a list of solid shape layers with linear
// position/size/opacity keyframes.
type JSON struct{}

// NewJSON returns the built-in JSON decoder.
func NewJSON() *JSON {
	return &JSON{}
}

type jsonDoc struct {
	FrameRate float64     `json:"fr"`
	InPoint   float64     `json:"ip"`
	OutPoint  float64     `json:"op"`
	Width     int         `json:"w"`
	Height    int         `json:"h"`
	Layers    []jsonLayer `json:"layers"`
}

type jsonLayer struct {
	Type  string    `json:"ty"` // "rect" or "ellipse"
	Color string    `json:"c"`  // #rrggbb
	Keys  jsonTrack `json:"ks"`
}

type jsonTrack struct {
	Position []vecKey    `json:"p"`
	Scale    []vecKey    `json:"s"`
	Opacity  []scalarKey `json:"o"`
}

type vecKey struct {
	T float64    `json:"t"`
	V [2]float64 `json:"v"`
}

type scalarKey struct {
	T float64 `json:"t"`
	V float64 `json:"v"`
}

// LoadFromData parses document bytes. Malformed JSON, a non-positive frame
// range or an empty intrinsic size all yield nil.
func (d *JSON) LoadFromData(data []byte) Document {
	var doc jsonDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil
	}
	frames := int(doc.OutPoint - doc.InPoint)
	if doc.FrameRate <= 0 || frames <= 0 || doc.Width <= 0 || doc.Height <= 0 {
		return nil
	}
	return &jsonDocument{doc: doc, frames: frames}
}

type jsonDocument struct {
	doc    jsonDoc
	frames int
}

func (d *jsonDocument) Information() anim.Information {
	return anim.Information{
		FrameRate:   d.doc.FrameRate,
		FramesCount: d.frames,
		Size:        anim.Size{Width: d.doc.Width, Height: d.doc.Height},
	}
}

func (d *jsonDocument) Render(index int, box anim.Size) *image.RGBA {
	if box.Empty() {
		box = anim.Size{Width: d.doc.Width, Height: d.doc.Height}
	}
	img := image.NewRGBA(image.Rect(0, 0, box.Width, box.Height))
	draw.Draw(img, img.Bounds(), image.Transparent, image.Point{}, draw.Src)

	t := d.doc.InPoint + float64(index)
	sx := float64(box.Width) / float64(d.doc.Width)
	sy := float64(box.Height) / float64(d.doc.Height)
	for _, layer := range d.doc.Layers {
		d.renderLayer(img, layer, t, sx, sy)
	}
	return img
}

func (d *jsonDocument) renderLayer(img *image.RGBA, layer jsonLayer, t, sx, sy float64) {
	pos := sampleVec(layer.Keys.Position, t)
	size := sampleVec(layer.Keys.Scale, t)
	opacity := sampleScalar(layer.Keys.Opacity, t, 1)
	if opacity <= 0 || size[0] <= 0 || size[1] <= 0 {
		return
	}

	fill := parseHexColor(layer.Color)
	fill.A = uint8(math.Round(opacity * 255))

	x0 := (pos[0] - size[0]/2) * sx
	y0 := (pos[1] - size[1]/2) * sy
	x1 := (pos[0] + size[0]/2) * sx
	y1 := (pos[1] + size[1]/2) * sy
	rect := image.Rect(int(x0), int(y0), int(math.Ceil(x1)), int(math.Ceil(y1)))
	rect = rect.Intersect(img.Bounds())
	if rect.Empty() {
		return
	}

	src := image.NewUniform(fill)
	if layer.Type == "ellipse" {
		draw.DrawMask(img, rect, src, image.Point{}, &ellipseMask{rect}, rect.Min, draw.Over)
		return
	}
	draw.Draw(img, rect, src, image.Point{}, draw.Over)
}

// sampleVec interpolates a two-component keyframe track linearly at time t.
func sampleVec(keys []vecKey, t float64) [2]float64 {
	if len(keys) == 0 {
		return [2]float64{}
	}
	if t <= keys[0].T {
		return keys[0].V
	}
	for i := 1; i < len(keys); i++ {
		if t <= keys[i].T {
			a, b := keys[i-1], keys[i]
			f := (t - a.T) / (b.T - a.T)
			return [2]float64{
				a.V[0] + (b.V[0]-a.V[0])*f,
				a.V[1] + (b.V[1]-a.V[1])*f,
			}
		}
	}
	return keys[len(keys)-1].V
}

func sampleScalar(keys []scalarKey, t, fallback float64) float64 {
	if len(keys) == 0 {
		return fallback
	}
	if t <= keys[0].T {
		return keys[0].V
	}
	for i := 1; i < len(keys); i++ {
		if t <= keys[i].T {
			a, b := keys[i-1], keys[i]
			f := (t - a.T) / (b.T - a.T)
			return a.V + (b.V-a.V)*f
		}
	}
	return keys[len(keys)-1].V
}

func parseHexColor(s string) color.NRGBA {
	c := color.NRGBA{A: 255}
	if len(s) != 7 || s[0] != '#' {
		return c
	}
	hex := func(b byte) uint8 {
		switch {
		case b >= '0' && b <= '9':
			return b - '0'
		case b >= 'a' && b <= 'f':
			return b - 'a' + 10
		case b >= 'A' && b <= 'F':
			return b - 'A' + 10
		}
		return 0
	}
	c.R = hex(s[1])<<4 | hex(s[2])
	c.G = hex(s[3])<<4 | hex(s[4])
	c.B = hex(s[5])<<4 | hex(s[6])
	return c
}

// ellipseMask masks a rectangle down to its inscribed ellipse.
type ellipseMask struct {
	rect image.Rectangle
}

func (m *ellipseMask) ColorModel() color.Model {
	return color.AlphaModel
}

func (m *ellipseMask) Bounds() image.Rectangle {
	return m.rect
}

func (m *ellipseMask) At(x, y int) color.Color {
	cx := float64(m.rect.Min.X+m.rect.Max.X) / 2
	cy := float64(m.rect.Min.Y+m.rect.Max.Y) / 2
	rx := float64(m.rect.Dx()) / 2
	ry := float64(m.rect.Dy()) / 2
	if rx <= 0 || ry <= 0 {
		return color.Alpha{}
	}
	dx := (float64(x) + 0.5 - cx) / rx
	dy := (float64(y) + 0.5 - cy) / ry
	if dx*dx+dy*dy <= 1 {
		return color.Alpha{A: 255}
	}
	return color.Alpha{}
}
