// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestNewFrameShape(t *testing.T) {
	_, err := NewFrame("bad", 2, 2, []float64{1, 2, 3})
	assert.ErrorIs(t, err, ErrShape)

	_, err = NewFrame("empty", 0, 2, nil)
	assert.ErrorIs(t, err, ErrEmpty)

	f, err := FrameFromArray("row", []int{3}, []float64{1, 2, 3})
	require.NoError(t, err)
	r, c := f.Dims()
	assert.Equal(t, 1, r)
	assert.Equal(t, 3, c)

	_, err = FrameFromArray("cube", []int{1, 1, 1}, []float64{1})
	assert.ErrorIs(t, err, ErrShape)
}

func TestFrameMaskAndClamp(t *testing.T) {
	f, err := NewFrame("img", 2, 3, []float64{-2, 0, 5, 10, 11, 3})
	require.NoError(t, err)

	f.MaskAbove(10)
	assert.True(t, mat.Equal(f, mat.NewDense(2, 3, []float64{-2, 0, 5, 0, 0, 3})))

	f.ClampNegative()
	assert.True(t, mat.Equal(f, mat.NewDense(2, 3, []float64{0, 0, 5, 0, 0, 3})))

	min, max := f.Limits()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 5.0, max)
}

func TestFrameStats(t *testing.T) {
	f, err := NewFrame("img", 2, 2, []float64{1, 2, 3, 4})
	require.NoError(t, err)

	s := f.Stats()
	assert.Equal(t, 4, s.Entries)
	assert.Equal(t, 1.0, s.Min)
	assert.Equal(t, 4.0, s.Max)
	assert.InDelta(t, 2.5, s.Mean, 1e-12)
	assert.InDelta(t, 1.2909944, s.StdDev, 1e-6)
}

func TestProfileQAxis(t *testing.T) {
	p := &Profile{Name: "iAvg", Values: []float64{5, 6, 7}}

	q, fromFile := p.QAxis([][]float64{{1, 2, 3}, {9, 9, 9}})
	assert.True(t, fromFile)
	assert.Equal(t, []float64{1, 2, 3}, q)

	q, fromFile = p.QAxis([][]float64{{1, 2}})
	assert.False(t, fromFile)
	assert.Equal(t, []float64{100, 102, 104}, q)

	q, fromFile = p.QAxis(nil)
	assert.False(t, fromFile)
	assert.Len(t, q, 3)

	qs, vs := p.Window([]float64{100, 102, 104}, 101, 104)
	assert.Equal(t, []float64{102, 104}, qs)
	assert.Equal(t, []float64{6, 7}, vs)
}

func TestIntensityHistogram(t *testing.T) {
	f, err := NewFrame("img", 1, 5, []float64{-1, 0, 1, 2, 3})
	require.NoError(t, err)

	h := IntensityHistogram(f, 4)
	require.NotNil(t, h)
	assert.Equal(t, int64(3), h.Entries())
	assert.Equal(t, 1.0, h.XMin())

	none, err := NewFrame("dark", 1, 2, []float64{0, -4})
	require.NoError(t, err)
	assert.Nil(t, IntensityHistogram(none, 4))
}
