// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBeamCenter(t *testing.T) {
	f, err := NewFrame("asm", 3, 4, []float64{
		0, 0, 0, 0,
		0, 0, 2, -7,
		0, 0, 2, 0,
	})
	require.NoError(t, err)

	cx, cy, err := BeamCenter(f)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, cx, 1e-12)
	assert.InDelta(t, 1.5, cy, 1e-12)

	x, y := RoundCenter(cx, cy)
	assert.Equal(t, 2, x)
	assert.Equal(t, 2, y)
}

func TestBeamCenterEmpty(t *testing.T) {
	f, err := NewFrame("dark", 2, 2, []float64{0, -1, 0, 0})
	require.NoError(t, err)

	_, _, err = BeamCenter(f)
	assert.ErrorIs(t, err, ErrEmpty)
}
