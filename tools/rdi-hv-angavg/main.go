// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"image/color"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view"
)

var (
	qMin      = view.FlagSet.Float64("m", 0, "ignore intensities below this q value")
	qMax      = view.FlagSet.Float64("x", 100000, "ignore intensities above this q value")
	lineColor = view.FlagSet.String("color", "", "line color, e.g. #d62728 or rgb(214,39,40)")
	logY      = view.FlagSet.Bool("log", false, "log scale for I(Q)")
	smooth    = view.FlagSet.Float64("s", 0, "exponential smoothing factor in (0, 1), 0 to disable")
)

func main() {
	cmd := &view.Command{
		Description: "Plots the run-averaged angular intensity I(Q). Press 'p' to save a png.",
		Build:       build,
	}
	cmd.RunCmd()
}

func build(ctx context.Context, run *data.Run) (*view.Session, error) {
	iLoc, err := run.Require(ctx, data.IAvg)
	if err != nil {
		return nil, err
	}
	log.Info().Str("file", iLoc).Msg("reading intensities")
	iRows, err := h5.LoadRows(ctx, iLoc, run.Credentials)
	if err != nil {
		return nil, err
	}
	if len(iRows) == 0 {
		return nil, errors.Wrap(data.ErrEmpty, iLoc)
	}
	profile := &data.Profile{Name: run.AvgName(data.IAvg), Values: iRows[0]}

	var qRows [][]float64
	qLoc, err := run.Require(ctx, data.QAvg)
	switch {
	case err == nil:
		log.Info().Str("file", qLoc).Msg("reading q values")
		if qRows, err = h5.LoadRows(ctx, qLoc, run.Credentials); err != nil {
			return nil, err
		}
	case errors.Is(err, data.ErrSourceNotFound):
		log.Warn().Err(err).Msg("q values not found")
	default:
		return nil, err
	}

	q, fromFile := profile.QAxis(qRows)
	if !fromFile {
		log.Info().Msg("using default q axis")
	}
	qs, values := profile.Window(q, *qMin, *qMax)
	if len(qs) == 0 {
		return nil, errors.Wrapf(plot.ErrNoData, "q range %g..%g", *qMin, *qMax)
	}
	if *smooth > 0 {
		values = plot.Smooth(values, *smooth)
	}

	var c color.Color
	if *lineColor != "" {
		if c, err = plot.ParseColor(*lineColor); err != nil {
			return nil, err
		}
	}

	name := run.Tag() + "_angavg"
	fig := view.NewLineFigure(name, plot.LineOptions{
		X:      qs,
		Y:      values,
		Title:  name,
		XLabel: "Q (pixels)",
		YLabel: "I(Q)",
		Color:  c,
		LogY:   *logY,
	})

	s := view.NewSession(run.Tag(), run)
	s.AddStep(view.StaticStep(name, fig))
	return s, nil
}
