// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"math"

	"github.com/pkg/errors"
)

// Center of the assembled CSPAD image, in pixels.
const (
	AssembledCenterX = 868
	AssembledCenterY = 868
)

// RadiusMap holds the integer distance of every pixel from a center, in
// row-major order.
type RadiusMap struct {
	Rows, Cols int
	CX, CY     int
	R          []int
	NBins      int
}

func NewRadiusMap(rows, cols, cx, cy int) *RadiusMap {
	m := &RadiusMap{
		Rows: rows,
		Cols: cols,
		CX:   cx,
		CY:   cy,
		R:    make([]int, rows*cols),
	}

	maxR := 0
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		dy := float64(i - cy)
		for j := 0; j < cols; j++ {
			dx := float64(j - cx)
			r := int(math.Sqrt(dx*dx + dy*dy))
			m.R[i*cols+j] = r
			seen[r] = struct{}{}
			if r > maxR {
				maxR = r
			}
		}
	}

	m.NBins = len(seen) + 5
	if m.NBins < maxR+1 {
		m.NBins = maxR + 1
	}
	return m
}

// AngAvg is the result of binning pixel intensities by radius. Var holds the
// mean of the squared intensities per bin.
type AngAvg struct {
	Count []float64
	Mean  []float64
	Var   []float64
}

// AngularAverage accumulates the positive pixels of f into radius bins.
// Bins without entries stay at zero.
func AngularAverage(f *Frame, m *RadiusMap) (*AngAvg, error) {
	rows, cols := f.Dims()
	if rows != m.Rows || cols != m.Cols {
		return nil, errors.Wrapf(ErrShape, "frame %dx%d, radius map %dx%d", rows, cols, m.Rows, m.Cols)
	}

	a := &AngAvg{
		Count: make([]float64, m.NBins),
		Mean:  make([]float64, m.NBins),
		Var:   make([]float64, m.NBins),
	}

	for i := 0; i < rows; i++ {
		row := f.RawRowView(i)
		for j, v := range row {
			if !(v > 0) {
				continue
			}
			r := m.R[i*cols+j]
			a.Count[r]++
			a.Mean[r] += v
			a.Var[r] += v * v
		}
	}

	for i, n := range a.Count {
		if n > 0 {
			a.Mean[i] /= n
			a.Var[i] /= n
		}
	}

	return a, nil
}
