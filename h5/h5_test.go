// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package h5

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/rdi-hitview/data"
)

func TestWriteRead2D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img_avg_asm2D.h5")
	values := []float64{0, 1, 2, 3, 4, 5}
	require.NoError(t, Write(path, []int{2, 3}, values))

	dims, got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, []int{2, 3}, dims)
	assert.Equal(t, values, got)

	rows, err := Rows(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, 1, 2}, {3, 4, 5}}, rows)
}

func TestRows1D(t *testing.T) {
	path := filepath.Join(t.TempDir(), "img_avg_iAvg.h5")
	require.NoError(t, Write(path, []int{4}, []float64{1, 2, 3, 4}))

	rows, err := Rows(path)
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 2, 3, 4}}, rows)
}

func TestRowsRank3(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cube.h5")
	require.NoError(t, Write(path, []int{1, 1, 2}, []float64{1, 2}))

	_, err := Rows(path)
	assert.ErrorIs(t, err, ErrRank)
}

func TestReadMissing(t *testing.T) {
	_, _, err := Read(filepath.Join(t.TempDir(), "nope.h5"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteShapeMismatch(t *testing.T) {
	err := Write(filepath.Join(t.TempDir(), "bad.h5"), []int{2, 2}, []float64{1})
	assert.Error(t, err)
}

func TestReadFrameAndProfile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "img_avg_raw2D.h5")
	require.NoError(t, Write(path, []int{2, 2}, []float64{1, -2, 3, 4}))

	f, err := LoadFrame(context.Background(), path, "", "r7_raw")
	require.NoError(t, err)
	assert.Equal(t, "r7_raw", f.Name)
	rows, cols := f.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.Equal(t, -2.0, f.At(0, 1))

	p, err := ReadProfile(path, "q")
	require.NoError(t, err)
	assert.Equal(t, []float64{1, -2}, p.Values)

	qRows, err := LoadRows(context.Background(), "file://"+path, "")
	require.NoError(t, err)
	assert.Len(t, qRows, 2)

	cube := filepath.Join(dir, "cube.h5")
	require.NoError(t, Write(cube, []int{1, 1, 1}, []float64{1}))
	_, err = ReadFrame(cube, "cube")
	assert.ErrorIs(t, err, data.ErrShape)
}
