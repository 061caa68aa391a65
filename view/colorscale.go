// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import "math"

// Mouse buttons as numbered by the browser client (MouseEvent.button + 1).
const (
	LeftButton   = 1
	MiddleButton = 2
	RightButton  = 3
)

// ResetMode selects what a middle click on the colorbar restores.
type ResetMode int

const (
	ResetToData ResetMode = iota
	ResetToOriginal
)

func (m ResetMode) String() string {
	switch m {
	case ResetToOriginal:
		return "original"
	default:
		return "data"
	}
}

// ColorScale holds the display limits of an image figure. OrigMin and
// OrigMax are the limits at first display.
type ColorScale struct {
	Min, Max         float64
	DataMin, DataMax float64
	OrigMin, OrigMax float64
	Reset            ResetMode
}

func NewColorScale(min, max, dataMin, dataMax float64, reset ResetMode) *ColorScale {
	return &ColorScale{
		Min:     min,
		Max:     max,
		DataMin: dataMin,
		DataMax: dataMax,
		OrigMin: min,
		OrigMax: max,
		Reset:   reset,
	}
}

// Value maps a fractional colorbar height to a data value.
func (s *ColorScale) Value(frac float64) float64 {
	return s.Min + frac*(s.Max-s.Min)
}

// Click applies a colorbar click at fractional height frac. Left raises the
// lower limit and right lowers the upper limit, both only to values strictly
// inside the current limits and never narrower than MinSpan. It reports
// whether the limits changed.
func (s *ColorScale) Click(button int, frac float64) bool {
	value := s.Value(frac)
	inside := s.Min < value && value < s.Max

	switch button {
	case LeftButton:
		if inside && ValidSpan(value, s.Max) {
			s.Min = value
			return true
		}
	case RightButton:
		if inside && ValidSpan(s.Min, value) {
			s.Max = value
			return true
		}
	case MiddleButton:
		return s.middle()
	}
	return false
}

func (s *ColorScale) middle() bool {
	if s.Reset == ResetToOriginal {
		return s.Set(s.OrigMin, s.OrigMax)
	}
	return s.ResetToData()
}

// ResetToData sets the limits to the data min and max.
func (s *ColorScale) ResetToData() bool {
	return s.Set(s.DataMin, s.DataMax)
}

func (s *ColorScale) Set(min, max float64) bool {
	if s.Min == min && s.Max == max {
		return false
	}
	s.Min, s.Max = min, max
	return true
}

// MinSpan is the narrowest span of display limits around min and max.
func MinSpan(min, max float64) float64 {
	return 1e-9 * math.Max(1, math.Max(math.Abs(min), math.Abs(max)))
}

// ValidSpan reports whether min and max are finite and at least MinSpan apart.
func ValidSpan(min, max float64) bool {
	if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
		return false
	}
	return max-min >= MinSpan(min, max)
}
