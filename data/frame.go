// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

var (
	ErrShape = errors.New("shape mismatch")
	ErrEmpty = errors.New("empty array")
)

// Frame is a 2D detector image, row-major, row 0 first.
type Frame struct {
	Name string

	*mat.Dense
}

func NewFrame(name string, rows, cols int, values []float64) (*Frame, error) {
	if rows <= 0 || cols <= 0 {
		return nil, errors.Wrapf(ErrEmpty, "%s has shape %dx%d", name, rows, cols)
	}
	if rows*cols != len(values) {
		return nil, errors.Wrapf(ErrShape, "%s: %dx%d for %d values", name, rows, cols, len(values))
	}
	return &Frame{Name: name, Dense: mat.NewDense(rows, cols, values)}, nil
}

// FrameFromArray builds a frame from an array of rank 1 or 2. A rank 1 array
// becomes a single row.
func FrameFromArray(name string, dims []int, values []float64) (*Frame, error) {
	switch len(dims) {
	case 1:
		return NewFrame(name, 1, dims[0], values)
	case 2:
		return NewFrame(name, dims[0], dims[1], values)
	}
	return nil, errors.Wrapf(ErrShape, "%s has rank %d", name, len(dims))
}

func (f *Frame) Limits() (min, max float64) {
	return mat.Min(f), mat.Max(f)
}

// MaskAbove zeroes every pixel that is not below max.
func (f *Frame) MaskAbove(max float64) {
	f.Apply(func(_, _ int, v float64) float64 {
		if v < max {
			return v
		}
		return 0
	}, f)
}

// ClampNegative zeroes negative pixels.
func (f *Frame) ClampNegative() {
	f.Apply(func(_, _ int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, f)
}

type Stats struct {
	Min, Max     float64
	Mean, StdDev float64
	Entries      int
}

func (f *Frame) Stats() Stats {
	r, c := f.Dims()
	values := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		values = append(values, f.RawRowView(i)...)
	}

	s := Stats{Entries: len(values)}
	s.Min, s.Max = f.Limits()
	s.Mean, s.StdDev = stat.MeanStdDev(values, nil)
	return s
}

// Profile is a 1D array such as the angular average written by the
// hit-finder.
type Profile struct {
	Name   string
	Values []float64
}

// DefaultQAxis is the q axis used when no matching qAvg array is available:
// 100, 102, 104, ...
func DefaultQAxis(n int) []float64 {
	q := make([]float64, n)
	for i := range q {
		q[i] = 100 + 2*float64(i)
	}
	return q
}

// QAxis picks the first row of the qAvg file when its length matches the
// profile. The second result reports whether the file row was used.
func (p *Profile) QAxis(qRows [][]float64) ([]float64, bool) {
	if len(qRows) > 0 && len(qRows[0]) == len(p.Values) {
		return qRows[0], true
	}
	return DefaultQAxis(len(p.Values)), false
}

// Window returns the points whose q lies within [qMin, qMax].
func (p *Profile) Window(q []float64, qMin, qMax float64) (qs, vs []float64) {
	for i, v := range p.Values {
		if i >= len(q) {
			break
		}
		if q[i] < qMin || q[i] > qMax {
			continue
		}
		qs = append(qs, q[i])
		vs = append(vs, v)
	}
	return
}
