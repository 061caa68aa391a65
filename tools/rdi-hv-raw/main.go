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
	histogram = view.FlagSet.Bool("H", false, "show the intensity histogram")
	nBins     = view.FlagSet.Int("nbins", 200, "histogram bins")
)

func main() {
	cmd := &view.Command{
		Description: `Shows the run-averaged raw (unassembled) detector image.
Left-click on the colorbar sets the minimum, right-click the maximum and
center-click resets the color scale ('r' resets to the data range). Press 'p'
to save a png with the current color scale.`,
		Build: build,
	}
	cmd.RunCmd()
}

func build(ctx context.Context, run *data.Run) (*view.Session, error) {
	loc, err := run.Require(ctx, data.Raw2D)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", loc).Msg("reading raw image")
	name := run.Tag() + "_raw"
	f, err := h5.LoadFrame(ctx, loc, run.Credentials, name)
	if err != nil {
		return nil, err
	}

	_, max := f.Limits()
	figs := []view.Figure{
		view.NewImageFigure(name, f, 0, max, view.ResetToOriginal, plot.ImageOptions{
			Origin:   plot.OriginLower,
			ColorMap: view.ColorMap(),
		}),
	}

	if *histogram {
		if h := data.IntensityHistogram(f, *nBins); h != nil {
			figs = append(figs, view.NewHistFigure(name+"_hist", h))
		} else {
			log.Warn().Msg("no positive pixels to histogram")
		}
	}

	s := view.NewSession(run.Tag(), run)
	s.AddStep(view.StaticStep(name, figs...))
	return s, nil
}
