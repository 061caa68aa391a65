// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// BeamCenter estimates the beam position of a frame as the intensity
// weighted mean column and row of its positive pixels.
func BeamCenter(f *Frame) (cx, cy float64, err error) {
	rows, cols := f.Dims()

	w := mat.NewDense(rows, cols, nil)
	w.Apply(func(i, j int, v float64) float64 {
		if v > 0 {
			return v
		}
		return 0
	}, f)

	ones := func(n int) *mat.VecDense {
		v := mat.NewVecDense(n, nil)
		for i := 0; i < n; i++ {
			v.SetVec(i, 1)
		}
		return v
	}
	rowSums := &mat.VecDense{}
	rowSums.MulVec(w, ones(cols))
	colSums := &mat.VecDense{}
	colSums.MulVec(w.T(), ones(rows))

	total := floats.Sum(rowSums.RawVector().Data)
	if total == 0 {
		return 0, 0, errors.Wrapf(ErrEmpty, "%s has no positive pixels", f.Name)
	}

	index := func(n int) []float64 {
		idx := make([]float64, n)
		floats.Span(idx, 0, float64(n-1))
		return idx
	}
	if rows == 1 {
		cy = 0
	} else {
		cy = floats.Dot(index(rows), rowSums.RawVector().Data) / total
	}
	if cols == 1 {
		cx = 0
	} else {
		cx = floats.Dot(index(cols), colSums.RawVector().Data) / total
	}
	return cx, cy, nil
}

// RoundCenter rounds a beam center to the nearest pixel.
func RoundCenter(cx, cy float64) (int, int) {
	return int(math.Round(cx)), int(math.Round(cy))
}
