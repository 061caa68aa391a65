// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/h5"
)

var (
	runNumber = flag.String("r", "0001", "run number")
	fileTag   = flag.String("t", "img", "file tag")
	outputDir = flag.String("o", ".", "directory to create the run directory in")
	nEvents   = flag.Int("n", 10, "number of polar event frames")
	size      = flag.Int("size", 2*data.AssembledCenterX, "assembled image size in pixels")
	seed      = flag.Int64("seed", 1, "random seed")
)

func printUsage() {
	fmt.Fprintf(os.Stderr,
		`Usage: `+os.Args[0]+` [options]

Writes a synthetic run directory with the files the viewers read: averaged
intensities, q values, assembled and raw images, polar event frames and pixel
maps.

options:
`,
	)
	flag.PrintDefaults()
}

type output struct {
	name  string
	write func(path string) error
}

type synth struct {
	run *data.Run
	rng *rand.Rand
}

func main() {
	flag.Usage = printUsage
	flag.Parse()
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	s := &synth{
		run: &data.Run{Number: *runNumber, FileTag: *fileTag, InputDir: *outputDir},
		rng: rand.New(rand.NewSource(*seed)),
	}
	dir := filepath.Join(*outputDir, s.run.Tag())
	if err := os.MkdirAll(dir, 0755); err != nil {
		log.Fatal().Err(err).Msg("unable to create run dir")
	}

	outputs := []output{
		{s.run.AvgName(data.IAvg), s.writeIAvg},
		{s.run.AvgName(data.QAvg), s.writeQAvg},
		{s.run.AvgName(data.Asm2D), s.writeAssembled},
		{s.run.AvgName(data.Raw2D), s.writeRaw},
	}
	for i := 0; i < *nEvents; i++ {
		evt := 1000 + 37*i
		outputs = append(outputs, output{fmt.Sprintf("%s_evt%d_polar.h5", *fileTag, evt), s.writePolar})
	}
	for _, axis := range []string{"X", "Y", "R"} {
		axis := axis
		outputs = append(outputs, output{fmt.Sprintf("%s_pix%s_um_map.h5", *fileTag, axis), func(path string) error {
			return s.writePixelMap(path, axis)
		}})
	}

	for _, out := range outputs {
		path := filepath.Join(dir, out.name)
		if err := out.write(path); err != nil {
			log.Fatal().Err(err).Str("file", path).Msg("unable to write")
		}
		log.Info().Str("file", path).Msg("wrote")
	}
}

// ring is the radial profile of the synthetic scattering pattern.
func ring(r float64) float64 {
	return 2000*math.Exp(-r/150) + 800*math.Exp(-math.Pow(r-420, 2)/800)
}

func qValues() []float64 {
	return data.DefaultQAxis(351)
}

func (s *synth) writeIAvg(path string) error {
	q := qValues()
	values := make([]float64, len(q))
	for i, qi := range q {
		values[i] = ring(qi) + s.rng.NormFloat64()*5
	}
	return h5.Write(path, []int{len(values)}, values)
}

func (s *synth) writeQAvg(path string) error {
	q := qValues()
	values := append(append([]float64(nil), q...), q...)
	return h5.Write(path, []int{2, len(q)}, values)
}

func (s *synth) writeAssembled(path string) error {
	n := *size
	c := float64(n) / 2
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			r := math.Hypot(float64(j)-c, float64(i)-c)
			v := ring(r) + s.rng.NormFloat64()*20
			// detector gaps
			if math.Abs(float64(j)-c) < 8 || math.Abs(float64(i)-c) < 4 {
				v = 0
			}
			values[i*n+j] = v
		}
	}
	// hot pixels for the -m mask
	for k := 0; k < 50; k++ {
		values[s.rng.Intn(len(values))] = 1e8
	}
	return h5.Write(path, []int{n, n}, values)
}

func (s *synth) writeRaw(path string) error {
	rows, cols := 8*185, 388
	values := make([]float64, rows*cols)
	for i := range values {
		values[i] = 100 + s.rng.NormFloat64()*15 + 50*math.Sin(float64(i%cols)/20)
	}
	return h5.Write(path, []int{rows, cols}, values)
}

func (s *synth) writePolar(path string) error {
	nq, nphi := 200, 360
	peakQ := 40 + s.rng.Float64()*120
	peakPhi := s.rng.Float64() * float64(nphi)
	values := make([]float64, nq*nphi)
	for i := 0; i < nq; i++ {
		for j := 0; j < nphi; j++ {
			d2 := math.Pow(float64(i)-peakQ, 2) + math.Pow(float64(j)-peakPhi, 2)
			values[i*nphi+j] = 150*math.Exp(-d2/30) + s.rng.NormFloat64()*10
		}
	}
	return h5.Write(path, []int{nq, nphi}, values)
}

func (s *synth) writePixelMap(path, axis string) error {
	n := 400
	pitch := 109.92
	values := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x := (float64(j) - float64(n)/2) * pitch
			y := (float64(i) - float64(n)/2) * pitch
			switch axis {
			case "X":
				values[i*n+j] = x
			case "Y":
				values[i*n+j] = y
			default:
				values[i*n+j] = math.Hypot(x, y)
			}
		}
	}
	return h5.Write(path, []int{n, n}, values)
}
