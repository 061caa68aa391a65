// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"image/color"
	"strings"

	"github.com/pkg/errors"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/palette/moreland"
	"gopkg.in/go-playground/colors.v1"
)

var ErrUnknownColorMap = errors.New("unknown color map")

var ColorMapNames = []string{"kindlmann", "extkindlmann", "blackbody", "extblackbody", "bluered"}

func ColorMap(name string) (palette.ColorMap, error) {
	switch strings.ToLower(name) {
	case "", "kindlmann":
		return moreland.Kindlmann(), nil
	case "extkindlmann":
		return moreland.ExtendedKindlmann(), nil
	case "blackbody":
		return moreland.BlackBody(), nil
	case "extblackbody":
		return moreland.ExtendedBlackBody(), nil
	case "bluered":
		return moreland.SmoothBlueRed(), nil
	}
	return nil, errors.Wrap(ErrUnknownColorMap, name)
}

// setRange moves a color map to [min, max] without ever passing through an
// empty range.
func setRange(c palette.ColorMap, min, max float64) {
	if max > c.Max() {
		c.SetMax(max)
		c.SetMin(min)
	} else {
		c.SetMin(min)
		c.SetMax(max)
	}
}

// ParseColor accepts hex ("#1f77b4"), rgb() and rgba() notations.
func ParseColor(s string) (color.Color, error) {
	c, err := colors.Parse(s)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to parse color %q", s)
	}
	rgba := c.ToRGBA()
	return color.NRGBA{R: rgba.R, G: rgba.G, B: rgba.B, A: uint8(rgba.A*255 + 0.5)}, nil
}
