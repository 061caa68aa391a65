// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"image/color"

	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"
	"go-hep.org/x/hep/hplot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

var ErrNoData = errors.New("no data to plot")

type LineOptions struct {
	X, Y   []float64
	Title  string
	XLabel string
	YLabel string
	Color  color.Color
	LogY   bool

	Width, Height vg.Length
	DPI           float64
}

func RenderLine(opts LineOptions) (*Rendered, error) {
	if len(opts.X) != len(opts.Y) {
		return nil, errors.Errorf("%d x values for %d y values", len(opts.X), len(opts.Y))
	}
	if len(opts.Y) == 0 {
		return nil, ErrNoData
	}

	pts := make(plotter.XYs, len(opts.Y))
	for i := range pts {
		pts[i].X = opts.X[i]
		pts[i].Y = opts.Y[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, errors.Wrap(err, "unable to build line")
	}
	if opts.Color != nil {
		line.LineStyle.Color = opts.Color
	} else {
		line.LineStyle.Color = color.NRGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	}

	p := hplot.New()
	p.Title.Text = opts.Title
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	if opts.LogY {
		p.Y.Scale = &FuncScale{Func: Log10Min15}
		p.Y.Tick.Marker = LogTicks{}
	}
	p.Add(line, hplot.NewGrid())

	return drawFigure(p, opts.Width, opts.Height, opts.DPI)
}

func RenderHist(h *hbook.H1D, title string) (*Rendered, error) {
	if h == nil || h.Entries() == 0 {
		return nil, ErrNoData
	}

	p := hplot.New()
	p.Title.Text = title
	p.X.Label.Text = "intensity"
	p.Y.Label.Text = "pixels"

	hh := hplot.NewH1D(h)
	hh.Infos.Style = hplot.HInfoSummary
	p.Add(hh, hplot.NewGrid())

	return drawFigure(p, 0, 0, 0)
}

func drawFigure(p *hplot.Plot, w, h vg.Length, dpi float64) (*Rendered, error) {
	if w == 0 {
		w = DefaultWidth
	}
	if h == 0 {
		h = DefaultHeight
	}
	if dpi == 0 {
		dpi = DefaultDPI
	}

	canvas := vgimg.NewWith(vgimg.UseWH(w, h), vgimg.UseDPI(int(dpi)))
	p.Draw(draw.New(canvas))
	return encode(canvas)
}
