// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
	"github.com/rditech/rdi-hitview/view"
)

func TestBuildAssembled(t *testing.T) {
	ctx := context.Background()
	run := &data.Run{Number: "0005", InputDir: t.TempDir(), OutputDir: t.TempDir()}
	require.NoError(t, os.MkdirAll(run.Dir(), 0755))

	_, err := build(ctx, run)
	assert.ErrorIs(t, err, data.ErrSourceNotFound)

	require.NoError(t, h5.Write(filepath.Join(run.Dir(), "img_avg_asm2D.h5"), []int{3, 3}, []float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9e9,
	}))
	*maxValue = 100
	*angAverage = true
	*centerX, *centerY = 1, 1
	defer func() { *angAverage = false }()

	s, err := build(ctx, run)
	require.NoError(t, err)
	require.NoError(t, s.Start(ctx))
	_, figs := s.Current()
	require.Len(t, figs, 2)

	img := figs[0].(*view.ImageFigure)
	assert.Equal(t, "r0005", img.Name())
	assert.Equal(t, 0.0, img.Data.At(2, 2))
	min, max := img.Limits()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 8.0, max)
	assert.Equal(t, view.ResetToOriginal, img.Scale.Reset)

	avg := figs[1].(*view.LineFigure)
	assert.Equal(t, "r0005_avg", avg.Name())
	assert.Equal(t, 5.0, avg.Options.Y[0])
}
