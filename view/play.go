// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"math"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/rditech/rdi-hitview/view/message"
)

// Player advances a session by injecting "next" commands every Period,
// divided by Speed, but never faster than once per MinInterval. The space
// key pauses and resumes.
type Player struct {
	Period time.Duration
	Speed  float64
}

func (p *Player) interval() time.Duration {
	speed := p.Speed
	if speed <= 0 {
		speed = 1
	}
	d := time.Duration(float64(p.Period) / speed)
	if d < MinInterval || math.IsNaN(speed) || math.IsInf(speed, 0) {
		return MinInterval
	}
	return d
}

// MinInterval is the shortest delay between injected "next" commands.
const MinInterval = time.Millisecond

// Play forwards input and interleaves the "next" commands.
func (p *Player) Play(ctx context.Context, input <-chan *message.Cmd) <-chan *message.Cmd {
	output := make(chan *message.Cmd)

	go func() {
		defer close(output)

		ticker := time.NewTicker(p.interval())
		defer ticker.Stop()
		paused := false

		for {
			var cmd *message.Cmd
			select {
			case in, ok := <-input:
				if !ok {
					return
				}
				if in.Command == "key" && in.Metadata["key"] == " " {
					paused = !paused
					log.Info().Bool("paused", paused).Msg("player")
					continue
				}
				cmd = in
			case <-ticker.C:
				if paused {
					continue
				}
				cmd = message.NewCmd("next")
			case <-ctx.Done():
				return
			}

			select {
			case output <- cmd:
			case <-ctx.Done():
				return
			}
		}
	}()

	return output
}
