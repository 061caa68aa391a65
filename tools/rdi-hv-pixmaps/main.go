// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view"
)

var noView = view.FlagSet.Bool("no-view", false, "only save the pngs")

func main() {
	cmd := &view.Command{
		Description: `Saves a png of every pixel map of a run and shows them.
Left-click on the colorbar sets the minimum, right-click the maximum and
center-click resets the color scale ('r' resets to the data range). Press 'p'
to save a png with the current color scale.`,
		Build: build,
	}
	cmd.RunCmd()
}

func build(ctx context.Context, run *data.Run) (*view.Session, error) {
	names, err := run.PixelMapFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, errors.Wrapf(data.ErrNoFrames, "%s in %s", run.PixelMapPattern(), run.Dir())
	}

	figs := make([]view.Figure, len(names))
	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		i, name := i, name
		g.Go(func() error {
			log.Info().Str("file", run.Location(name)).Msg("reading pixel map")
			f, err := h5.LoadFrame(gctx, run.Location(name), run.Credentials, name)
			if err != nil {
				return err
			}
			min, max := f.Limits()
			figs[i] = view.NewImageFigure(name, f, min, max, view.ResetToOriginal, plot.ImageOptions{
				Origin:   plot.OriginLower,
				ColorMap: view.ColorMap(),
			})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s := view.NewSession(run.Tag(), run)
	s.AddStep(view.StaticStep(run.Tag()+"_pixmaps", figs...))
	if view.SaveRequested() {
		return s, nil
	}

	if err := s.SaveAll(ctx); err != nil {
		return nil, err
	}
	if *noView {
		log.Info().Msg("all pixel maps saved")
		return nil, nil
	}
	return s, nil
}
