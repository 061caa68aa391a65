// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view"
)

var (
	angAverage = view.FlagSet.Bool("a", false, "compute the angular average")
	maxValue   = view.FlagSet.Float64("m", 10000000, "mask out pixels above this value")
	histogram  = view.FlagSet.Bool("H", false, "show the intensity histogram")
	nBins      = view.FlagSet.Int("nbins", 200, "histogram bins")
	centerX    = view.FlagSet.Int("cx", data.AssembledCenterX, "beam center column for the angular average")
	centerY    = view.FlagSet.Int("cy", data.AssembledCenterY, "beam center row for the angular average")
	autoCenter = view.FlagSet.Bool("auto-center", false, "estimate the beam center from the image instead of -cx/-cy")
)

func main() {
	cmd := &view.Command{
		Description: `Shows the run-averaged assembled detector image.
Left-click on the colorbar sets the minimum, right-click the maximum and
center-click resets the color scale ('r' resets to the data range). Press 'p'
to save a png with the current color scale.`,
		Build: build,
	}
	cmd.RunCmd()
}

func build(ctx context.Context, run *data.Run) (*view.Session, error) {
	loc, err := run.Require(ctx, data.Asm2D)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", loc).Msg("reading assembled image")
	f, err := h5.LoadFrame(ctx, loc, run.Credentials, run.Tag())
	if err != nil {
		return nil, err
	}
	f.MaskAbove(*maxValue)

	_, max := f.Limits()
	img := view.NewImageFigure(run.Tag(), f, 0, max, view.ResetToOriginal, plot.ImageOptions{
		Origin:   plot.OriginUpper,
		ColorMap: view.ColorMap(),
	})
	figs := []view.Figure{img}

	if *angAverage {
		rows, cols := f.Dims()
		cx, cy := *centerX, *centerY
		if *autoCenter {
			fx, fy, err := data.BeamCenter(f)
			if err != nil {
				return nil, err
			}
			cx, cy = data.RoundCenter(fx, fy)
			log.Info().Int("cx", cx).Int("cy", cy).Msg("estimated beam center")
		}
		avg, err := data.AngularAverage(f, data.NewRadiusMap(rows, cols, cx, cy))
		if err != nil {
			return nil, err
		}
		bins := make([]float64, len(avg.Mean))
		for i := range bins {
			bins[i] = float64(i)
		}
		name := run.Tag() + "_avg"
		figs = append(figs, view.NewLineFigure(name, plot.LineOptions{
			X:      bins,
			Y:      avg.Mean,
			Title:  name,
			XLabel: "Q",
			YLabel: "I(Q)",
		}))
	}

	if *histogram {
		if h := data.IntensityHistogram(f, *nBins); h != nil {
			figs = append(figs, view.NewHistFigure(run.Tag()+"_hist", h))
		} else {
			log.Warn().Msg("no positive pixels to histogram")
		}
	}

	s := view.NewSession(run.Tag(), run)
	s.AddStep(view.StaticStep(run.Tag(), figs...))
	return s, nil
}
