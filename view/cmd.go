// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"flag"
	"fmt"
	"os"
	"runtime/pprof"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/sevlyar/go-daemon"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/plot"
)

var FlagSet = flag.NewFlagSet("", flag.ExitOnError)

var (
	runNumber   = FlagSet.String("r", "", "run number")
	fileTag     = FlagSet.String("t", "img", "file tag of the hit-finder output")
	inputDir    = FlagSet.String("i", envOr("HITVIEW_INPUT_DIR", "."), "input dir: path, file:// or gs:// url")
	outputDir   = FlagSet.String("o", envOr("HITVIEW_OUTPUT_DIR", "."), "output dir for png files and tags")
	openBrowser = FlagSet.Bool("b", false, "open a browser window and stop when it disconnects")
	saveAll     = FlagSet.Bool("save", false, "save every figure as png and exit")
	daemonize   = FlagSet.Bool("d", false, "daemonize the viewer server")
	colorMap    = FlagSet.String("cmap", "kindlmann", "color map name")
	verbose     = FlagSet.Bool("v", false, "verbose logging")
	playPeriod  = FlagSet.Duration("play", 0, "advance to the next step every period, space pauses")
	playSpeed   = FlagSet.Float64("speed", 1, "speed factor for -play")
	cpuProfile  = FlagSet.String("cpuprofile", "", "output file for cpu profiling")
)

func envOr(key, def string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return def
}

// ColorMap is the -cmap flag value.
func ColorMap() string {
	return *colorMap
}

// SaveRequested reports whether -save was given. RunCmd then saves every
// figure of the built session and exits.
func SaveRequested() bool {
	return *saveAll
}

// Command is a viewer tool. Build locates the run files and returns the
// session to show; it returns an error wrapping data.ErrSourceNotFound when
// a required file is missing, or data.ErrNoFrames when nothing matches. A
// nil session ends the tool without viewing.
type Command struct {
	Description string
	Build       func(ctx context.Context, run *data.Run) (*Session, error)
}

func (c *Command) RunCmdFlagParse() {
	FlagSet.Usage = func() {
		fmt.Fprintf(os.Stderr,
			`Usage: `+os.Args[0]+` -r <run number> [options]

`+c.Description+`

options:
`,
		)
		FlagSet.PrintDefaults()
	}
	FlagSet.Parse(os.Args[1:])

	SetupLogging(*verbose)

	if *runNumber == "" || FlagSet.NArg() != 0 {
		FlagSet.Usage()
		log.Fatal().Msg("invalid arguments")
	}
	if _, err := plot.ColorMap(*colorMap); err != nil {
		log.Fatal().Err(err).Str("cmap", *colorMap).Msgf("choose one of %v", plot.ColorMapNames)
	}
	if *playPeriod < 0 || !(*playSpeed > 0) {
		FlagSet.Usage()
		log.Fatal().Dur("play", *playPeriod).Float64("speed", *playSpeed).Msg("-play must not be negative and -speed must be positive")
	}
}

// SetupLogging writes human readable logs to stderr.
func SetupLogging(verbose bool) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})
}

// Run is the run selected by the flags.
func (c *Command) Run() *data.Run {
	return &data.Run{
		Number:      *runNumber,
		FileTag:     *fileTag,
		InputDir:    *inputDir,
		OutputDir:   *outputDir,
		Credentials: os.Getenv("GOOGLE_CREDENTIALS"),
	}
}

func (c *Command) RunCmd() {
	c.RunCmdFlagParse()

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatal().Err(err).Msg("could not create cpu profile file")
		}
		pprof.StartCPUProfile(f)
		defer pprof.StopCPUProfile()
	}

	run := c.Run()
	ctx := context.Background()

	session, err := c.Build(ctx, run)
	if err != nil {
		if errors.Is(err, data.ErrSourceNotFound) || errors.Is(err, data.ErrNoFrames) {
			log.Error().Err(err).Msg("aborting")
			os.Exit(1)
		}
		log.Fatal().Err(err).Str("run", run.Tag()).Msg("unable to build viewer")
	}

	if session == nil {
		return
	}

	if *saveAll {
		if err := session.SaveAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("unable to save figures")
		}
		return
	}

	if *daemonize {
		dctx := &daemon.Context{}
		d, err := dctx.Reborn()
		if err != nil {
			log.Fatal().Err(err).Msg("unable to daemonize viewer")
		}
		if d != nil {
			return
		}
		defer dctx.Release()
		log.Info().Msg("daemon started")
	}

	log.Info().Str("run", run.Tag()).Msg(c.Description)
	srv := &Server{Session: session, OpenBrowser: *openBrowser}
	if *playPeriod > 0 {
		srv.Player = &Player{Period: *playPeriod, Speed: *playSpeed}
	}
	if err := srv.Serve(ctx); err != nil {
		log.Fatal().Err(err).Msg("viewer failed")
	}
	log.Info().Msg("successful quit")
}
