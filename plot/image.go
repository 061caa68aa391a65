// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"bytes"
	"image"
	"image/png"
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/rditech/rdi-hitview/data"
)

// Origin selects where row 0 of a frame is drawn.
type Origin int

const (
	OriginLower Origin = iota
	OriginUpper
)

const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 6 * vg.Inch
	DefaultDPI    = 96
)

type ImageOptions struct {
	Title    string
	Min, Max float64
	Origin   Origin
	ColorMap string

	Width, Height vg.Length
	DPI           float64
}

// Rendered is a PNG figure. Colorbar is the colorbar data area in PNG pixel
// coordinates; it is empty for figures without a colorbar.
type Rendered struct {
	PNG      []byte
	Size     image.Point
	Colorbar image.Rectangle
}

// ColorbarFraction maps a click at pixel p to its fractional height on the
// colorbar, 0 at the bottom and 1 at the top.
func (r *Rendered) ColorbarFraction(p image.Point) (float64, bool) {
	if !p.In(r.Colorbar) || r.Colorbar.Dy() <= 1 {
		return 0, false
	}
	return float64(r.Colorbar.Max.Y-1-p.Y) / float64(r.Colorbar.Dy()-1), true
}

func (o *ImageOptions) defaults() {
	if o.Width == 0 {
		o.Width = DefaultWidth
	}
	if o.Height == 0 {
		o.Height = DefaultHeight
	}
	if o.DPI == 0 {
		o.DPI = DefaultDPI
	}
}

// Raster colors every pixel of f, clamping to [min, max]. NaN pixels are
// left transparent.
func Raster(f *data.Frame, cmap palette.ColorMap, min, max float64, origin Origin) *image.RGBA {
	rows, cols := f.Dims()
	img := image.NewRGBA(image.Rect(0, 0, cols, rows))

	setRange(cmap, 0, 1)
	span := max - min
	for i := 0; i < rows; i++ {
		y := rows - 1 - i
		if origin == OriginUpper {
			y = i
		}
		for j, v := range f.RawRowView(i) {
			if math.IsNaN(v) {
				continue
			}
			t := 0.0
			if span > 0 {
				t = (v - min) / span
			} else if v > min {
				t = 1
			}
			t = math.Max(0, math.Min(1, t))
			c, err := cmap.At(t)
			if err != nil {
				continue
			}
			img.Set(j, y, c)
		}
	}
	return img
}

// RenderImage draws f with a vertical colorbar on its right.
func RenderImage(f *data.Frame, opts ImageOptions) (*Rendered, error) {
	opts.defaults()

	cmap, err := ColorMap(opts.ColorMap)
	if err != nil {
		return nil, err
	}
	cbMap, _ := ColorMap(opts.ColorMap)

	min, max := opts.Min, opts.Max
	if !(max > min) {
		max = min + 1
	}
	rows, cols := f.Dims()

	p := plot.New()
	p.Title.Text = opts.Title
	p.Add(plotter.NewImage(Raster(f, cmap, min, max, opts.Origin), 0, 0, float64(cols), float64(rows)))
	p.X.Min, p.X.Max = 0, float64(cols)
	p.Y.Min, p.Y.Max = 0, float64(rows)
	if opts.Origin == OriginUpper {
		p.Y.Tick.Marker = FlipTicks{Height: float64(rows)}
	}

	setRange(cbMap, min, max)
	cb := plot.New()
	cb.HideX()
	cb.Y.Padding = 0
	cb.Y.Tick.Marker = RollTicks{}
	cb.Add(&plotter.ColorBar{ColorMap: cbMap, Vertical: true})

	canvas := vgimg.NewWith(vgimg.UseWH(opts.Width, opts.Height), vgimg.UseDPI(int(opts.DPI)))
	dc := draw.New(canvas)
	cbWidth := opts.Width / 7
	mainArea := draw.Crop(dc, 0, -cbWidth, 0, 0)
	mainData := p.DataCanvas(mainArea)
	cbArea := draw.Crop(dc, opts.Width-cbWidth, 0, mainData.Min.Y-dc.Min.Y, mainData.Max.Y-dc.Max.Y)
	cbData := cb.DataCanvas(cbArea)

	p.Draw(mainArea)
	cb.Draw(cbArea)

	r, err := encode(canvas)
	if err != nil {
		return nil, err
	}
	r.Colorbar = pixelRect(cbData.Rectangle, r.Size.Y, opts.DPI)
	return r, nil
}

func pixelRect(rect vg.Rectangle, height int, dpi float64) image.Rectangle {
	return image.Rect(
		int(math.Round(rect.Min.X.Dots(dpi))),
		height-int(math.Round(rect.Max.Y.Dots(dpi))),
		int(math.Round(rect.Max.X.Dots(dpi))),
		height-int(math.Round(rect.Min.Y.Dots(dpi))),
	)
}

func encode(canvas *vgimg.Canvas) (*Rendered, error) {
	buf := &bytes.Buffer{}
	encoder := png.Encoder{CompressionLevel: png.BestSpeed}
	if err := encoder.Encode(buf, canvas.Image()); err != nil {
		return nil, errors.Wrap(err, "unable to encode png")
	}

	bounds := canvas.Image().Bounds()
	return &Rendered{
		PNG:  buf.Bytes(),
		Size: image.Pt(bounds.Dx(), bounds.Dy()),
	}, nil
}
