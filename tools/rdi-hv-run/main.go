// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view"
)

var (
	watch  = view.FlagSet.Bool("w", false, "keep watching the run directory for new frames")
	settle = view.FlagSet.Duration("settle", data.DefaultSettle, "time a new frame must stay unchanged before it is shown")
)

func main() {
	cmd := &view.Command{
		Description: `Steps through the per-event polar frames of a run.
Left-click on the colorbar sets the minimum, right-click the maximum and
center-click (or 'r') resets the color scale to the frame's range; the color
scale carries over to the next frame. Press 'p' to save a png, a digit 0-9 to
record the frame's file name in r<run>_<digit>.txt, 'n' for the next frame.`,
		Build: build,
	}
	cmd.RunCmd()
}

func frameStep(run *data.Run, name string) *view.Step {
	return &view.Step{
		Name: name,
		Load: func(ctx context.Context) ([]view.Figure, error) {
			f, err := h5.LoadFrame(ctx, run.Location(name), run.Credentials, name)
			if err != nil {
				return nil, err
			}
			f.ClampNegative()
			return []view.Figure{
				view.NewImageFigure(name, f, 0, 100, view.ResetToData, plot.ImageOptions{
					Origin:   plot.OriginLower,
					ColorMap: view.ColorMap(),
				}),
			}, nil
		},
	}
}

func build(ctx context.Context, run *data.Run) (*view.Session, error) {
	log.Info().Str("dir", run.Dir()).Msg("examining polar frames")
	names, err := run.PolarFiles(ctx)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 && !*watch {
		return nil, errors.Wrapf(data.ErrNoFrames, "%s in %s", run.PolarPattern(), run.Dir())
	}
	log.Info().Int("frames", len(names)).Msg("found polar frames")

	s := view.NewSession(run.Tag(), run)
	s.Tagging = true
	s.CarryLimits = true
	s.Min, s.Max = 0, 100

	seen := make(map[string]bool)
	for _, name := range names {
		seen[name] = true
		s.AddStep(frameStep(run, name))
	}

	if *watch {
		s.Watching = true
		newNames, err := data.WatchRun(ctx, run, run.PolarPattern(), *settle)
		if err != nil {
			return nil, err
		}
		go func() {
			for name := range newNames {
				if seen[name] {
					continue
				}
				seen[name] = true
				log.Info().Str("file", name).Msg("new frame")
				s.AddStep(frameStep(run, name))
			}
		}()
	}

	return s, nil
}
