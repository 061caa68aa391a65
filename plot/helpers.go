// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

func MakeSmoother(alpha, init float64) func(float64) float64 {
	inv_alpha := 1.0 - alpha
	val := init
	return func(newVal float64) float64 {
		val = inv_alpha*val + alpha*newVal
		return val
	}
}

// Smooth runs an exponential smoother along values. Alpha outside (0, 1)
// returns a copy of values.
func Smooth(values []float64, alpha float64) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}
	if alpha <= 0 || alpha >= 1 {
		copy(out, values)
		return out
	}

	smoother := MakeSmoother(alpha, values[0])
	for i, v := range values {
		out[i] = smoother(v)
	}
	return out
}
