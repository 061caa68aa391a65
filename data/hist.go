// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"math"

	"go-hep.org/x/hep/hbook"
)

// IntensityHistogram fills a histogram with the positive pixels of f. It
// returns nil when the frame has no positive pixel.
func IntensityHistogram(f *Frame, nBins int) *hbook.H1D {
	if nBins <= 0 {
		nBins = 100
	}

	lo, hi := math.Inf(1), math.Inf(-1)
	rows, _ := f.Dims()
	for i := 0; i < rows; i++ {
		for _, v := range f.RawRowView(i) {
			if !(v > 0) {
				continue
			}
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
	}
	if math.IsInf(lo, 1) {
		return nil
	}
	if hi == lo {
		hi = lo + 1
	}

	h := hbook.NewH1D(nBins, lo, math.Nextafter(hi, math.Inf(1)))
	for i := 0; i < rows; i++ {
		for _, v := range f.RawRowView(i) {
			if v > 0 {
				h.Fill(v, 1)
			}
		}
	}
	return h
}
