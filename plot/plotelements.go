// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package plot

import (
	"math"
	"strconv"

	"gonum.org/v1/plot"
)

type FuncScale struct {
	Func func(float64) float64
}

func (s *FuncScale) Normalize(min, max, x float64) float64 {
	if s.Func == nil {
		panic("s.Func is nil")
	}
	fMin := s.Func(min)
	return (s.Func(x) - fMin) / (s.Func(max) - fMin)
}

func Log10Min15(x float64) float64 {
	if x <= 1e-15 {
		return -15
	}
	return math.Log10(x)
}

// RollTicks places round major ticks with labels and unlabelled minor ticks
// between them. It is used for colorbars, where the range changes with every
// click.
type RollTicks struct {
	NSuggestedTicks int
}

func (t RollTicks) Ticks(min, max float64) []plot.Tick {
	if t.NSuggestedTicks == 0 {
		t.NSuggestedTicks = 4
	}

	if max <= min {
		panic("illegal range")
	}

	tens := math.Pow10(int(math.Floor(math.Log10(max - min))))
	n := (max - min) / tens
	for n < float64(t.NSuggestedTicks)-1 {
		tens /= 10
		n = (max - min) / tens
	}

	majorMult := int(n / float64(t.NSuggestedTicks-1))
	switch majorMult {
	case 7:
		majorMult = 6
	case 9:
		majorMult = 8
	}
	majorDelta := float64(majorMult) * tens
	if !steps(min, max, majorDelta) {
		return plot.DefaultTicks{}.Ticks(min, max)
	}
	first := math.Floor(min / majorDelta)
	// Makes a list of non-truncated y-values.
	var labels []float64
	for i := 0; i < maxTickSteps; i++ {
		val := (first + float64(i)) * majorDelta
		if val > max {
			break
		}
		if val >= min {
			labels = append(labels, val)
		}
	}
	prec := 1
	if digits := -int(math.Floor(math.Log10(majorDelta))); digits > 0 {
		prec += digits
	}
	// Makes a list of big ticks.
	var ticks []plot.Tick
	for _, v := range labels {
		vRounded := round(v, prec)
		ticks = append(ticks, plot.Tick{Value: vRounded, Label: formatFloatTick(vRounded, -1)})
	}
	minorDelta := majorDelta / 2
	if len(ticks) > 1 && ticks[len(ticks)-1].Value > max-minorDelta {
		ticks = ticks[:len(ticks)-1]
	}
	switch majorMult {
	case 3, 6:
		minorDelta = majorDelta / 3
	case 5:
		minorDelta = majorDelta / 5
	}

	if !steps(min, max, minorDelta) {
		return ticks
	}
	first = math.Floor(min / minorDelta)
	for i := 0; i < maxTickSteps; i++ {
		val := (first + float64(i)) * minorDelta
		if val > max {
			break
		}
		found := false
		for _, t := range ticks {
			if t.Value == val {
				found = true
			}
		}
		if val >= min && !found {
			ticks = append(ticks, plot.Tick{Value: val})
		}
	}
	return ticks
}

// maxTickSteps bounds the tick loops of RollTicks.
const maxTickSteps = 1000

// steps reports whether delta moves a value near max at all.
func steps(min, max, delta float64) bool {
	ulp := math.Nextafter(max, math.Inf(1)) - max
	if math.Abs(min) > math.Abs(max) {
		ulp = math.Nextafter(math.Abs(min), math.Inf(1)) - math.Abs(min)
	}
	return delta > ulp && !math.IsInf(delta, 0) && !math.IsNaN(delta)
}

func round(x float64, prec int) float64 {
	if x == 0 {
		// Make sure zero is returned
		// without the negative bit set.
		return 0
	}
	// Fast path for positive precision on integers.
	if prec >= 0 && x == math.Trunc(x) {
		return x
	}
	pow := math.Pow10(prec)
	intermed := x * pow
	if math.IsInf(intermed, 0) {
		return x
	}
	if x < 0 {
		x = math.Ceil(intermed - 0.5)
	} else {
		x = math.Floor(intermed + 0.5)
	}

	if x == 0 {
		return 0
	}

	return x / pow
}

type LogTicks struct{}

func (LogTicks) Ticks(min, max float64) []plot.Tick {
	val := math.Pow10(int(Log10Min15(min)))
	max = math.Pow10(int(math.Ceil(Log10Min15(max))))
	var ticks []plot.Tick
	for val < max {
		for i := 1; i < 10; i++ {
			if i == 1 {
				ticks = append(ticks, plot.Tick{Value: val, Label: formatFloatTick(val, 5)})
			}
			ticks = append(ticks, plot.Tick{Value: val * float64(i)})
		}
		val *= 10
	}
	ticks = append(ticks, plot.Tick{Value: val, Label: formatFloatTick(val, 5)})

	return ticks
}

// FlipTicks labels an axis that runs top to bottom: a tick at value v is
// labelled Height - v.
type FlipTicks struct {
	Height float64
}

func (t FlipTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(t.Height-max, t.Height-min)
	for i := range ticks {
		ticks[i].Value = t.Height - ticks[i].Value
	}
	return ticks
}

func formatFloatTick(v float64, prec int) string {
	return strconv.FormatFloat(v, 'g', prec, 64)
}
