// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/view/message"
)

// Step is one screen of a session, e.g. one event frame of a run. Name is
// what digit tagging records.
type Step struct {
	Name string
	Load func(ctx context.Context) ([]Figure, error)
}

// StaticStep wraps figures that are already built.
func StaticStep(name string, figs ...Figure) *Step {
	return &Step{
		Name: name,
		Load: func(context.Context) ([]Figure, error) { return figs, nil },
	}
}

// Session steps through figures and applies browser commands to them. All
// state except the step list is owned by the goroutine running Manage.
type Session struct {
	Name string
	Run  *data.Run

	// Tagging enables the digit keys.
	Tagging bool
	// CarryLimits keeps the image limits of one step for the next, starting
	// from Min and Max.
	CarryLimits bool
	Min, Max    float64
	// Watching keeps the session open at the last step, waiting for AddStep.
	Watching bool

	// Publish sends a message to the browser clients.
	Publish func(*message.Msg)

	mu    sync.Mutex
	steps []*Step
	added chan struct{}

	current   int
	figures   []Figure
	ids       map[uuid.UUID]Figure
	lastCount map[uuid.UUID]uint64
	waiting   bool
	done      bool
}

func NewSession(name string, run *data.Run) *Session {
	return &Session{
		Name:  name,
		Run:   run,
		added: make(chan struct{}, 1),
	}
}

// AddStep appends a step. It is safe to call while Manage runs.
func (s *Session) AddStep(step *Step) {
	s.mu.Lock()
	s.steps = append(s.steps, step)
	s.mu.Unlock()

	select {
	case s.added <- struct{}{}:
	default:
	}
}

func (s *Session) NSteps() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.steps)
}

func (s *Session) step(i int) *Step {
	s.mu.Lock()
	defer s.mu.Unlock()

	if i < 0 || i >= len(s.steps) {
		return nil
	}
	return s.steps[i]
}

// Current returns the index and figures of the displayed step.
func (s *Session) Current() (int, []Figure) {
	return s.current, s.figures
}

func (s *Session) Done() bool {
	return s.done
}

// Manage shows the first step and executes commands until the session is
// quit, advanced past its last step or ctx is done.
func (s *Session) Manage(ctx context.Context, cmds <-chan *message.Cmd) error {
	defer s.publish(message.NewMsg("session close"))

	if err := s.Start(ctx); err != nil {
		return err
	}

	for !s.done {
		select {
		case cmd, ok := <-cmds:
			if !ok {
				return nil
			}
			if err := s.Execute(ctx, cmd); err != nil {
				log.Warn().Err(err).Str("session", s.Name).Str("cmd", cmd.Command).Msg("command failed")
				s.notice("%v", err)
			}
		case <-s.added:
			if s.waiting {
				s.show(ctx, s.current+1)
			} else {
				s.pubStatus()
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Start shows the first step.
func (s *Session) Start(ctx context.Context) error {
	if s.ids == nil {
		s.ids = make(map[uuid.UUID]Figure)
		s.lastCount = make(map[uuid.UUID]uint64)
	}
	if s.NSteps() == 0 {
		if !s.Watching {
			return errors.New("session has no steps")
		}
		s.current = -1
		s.waiting = true
		s.notice("waiting for new frames")
		return nil
	}
	s.show(ctx, 0)
	return nil
}

// Execute applies one browser command.
func (s *Session) Execute(ctx context.Context, cmd *message.Cmd) error {
	log.Debug().Str("session", s.Name).Str("cmd", cmd.Command).Interface("meta", cmd.Metadata).Msg("execute")

	switch cmd.Command {
	case "pub all":
		s.pubAll()
	case "key":
		return s.key(ctx, cmd.Metadata["key"], cmd.Metadata["id"])
	case "next":
		s.next(ctx)
	case "prev":
		s.prev(ctx)
	case "goto":
		i, err := strconv.Atoi(cmd.Metadata["index"])
		if err != nil {
			return errors.Wrap(err, "bad step index")
		}
		if s.step(i) == nil {
			return errors.Errorf("no step %d", i)
		}
		s.show(ctx, i)
	case "quit":
		s.done = true
	case "click", "reset", "set params":
		fig, err := s.figure(cmd.Metadata["id"])
		if err != nil {
			return err
		}
		if err := fig.Execute(cmd); err != nil {
			return err
		}
		s.carry(fig)
		s.pubChanged()
	default:
		log.Warn().Str("session", s.Name).Str("cmd", cmd.Command).Msg("unknown command")
	}
	return nil
}

func (s *Session) figure(id string) (Figure, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, errors.Wrap(err, "bad figure id")
	}
	fig, ok := s.ids[uid]
	if !ok {
		return nil, errors.Errorf("no figure %s", id)
	}
	return fig, nil
}

func (s *Session) key(ctx context.Context, key, id string) error {
	switch key {
	case "p":
		if id != "" {
			fig, err := s.figure(id)
			if err != nil {
				return err
			}
			return s.save(fig)
		}
		for _, fig := range s.figures {
			if err := s.save(fig); err != nil {
				return err
			}
		}
	case "r":
		for _, fig := range s.figures {
			img, ok := fig.(*ImageFigure)
			if !ok || !img.ResetLimits() {
				continue
			}
			if err := img.UpdateFrame(); err != nil {
				return err
			}
			s.carry(img)
		}
		s.pubChanged()
	case "n", "ArrowRight":
		s.next(ctx)
	case "b", "ArrowLeft":
		s.prev(ctx)
	case "q", "Escape":
		s.done = true
	default:
		if len(key) == 1 && key[0] >= '0' && key[0] <= '9' {
			if !s.Tagging {
				return nil
			}
			return s.tag(key)
		}
	}
	return nil
}

func (s *Session) next(ctx context.Context) {
	if s.step(s.current+1) != nil {
		s.show(ctx, s.current+1)
		return
	}
	if s.Watching {
		s.waiting = true
		s.notice("no more frames, waiting for new ones")
		return
	}
	s.done = true
}

func (s *Session) prev(ctx context.Context) {
	if s.current <= 0 {
		s.notice("already at the first frame")
		return
	}
	s.show(ctx, s.current-1)
}

// show loads step i and publishes its figures.
func (s *Session) show(ctx context.Context, i int) {
	step := s.step(i)
	s.current = i
	s.waiting = false
	s.figures = nil
	s.ids = make(map[uuid.UUID]Figure)
	s.lastCount = make(map[uuid.UUID]uint64)

	figs, err := s.load(ctx, step)
	if err != nil {
		log.Error().Err(err).Str("session", s.Name).Str("step", step.Name).Msg("unable to load step")
		s.notice("unable to load %s: %v", step.Name, err)
	}
	for _, fig := range figs {
		if err := fig.UpdateFrame(); err != nil {
			log.Error().Err(err).Str("session", s.Name).Str("figure", fig.Name()).Msg("unable to render figure")
			continue
		}
		s.figures = append(s.figures, fig)
		s.ids[fig.Id()] = fig
	}
	log.Info().Str("session", s.Name).Str("step", step.Name).Int("index", i).Int("figures", len(s.figures)).Msg("showing step")
	s.pubAll()
}

// load builds the figures of step, applying carried limits.
func (s *Session) load(ctx context.Context, step *Step) ([]Figure, error) {
	figs, err := step.Load(ctx)
	if err != nil {
		return nil, err
	}
	if s.CarryLimits {
		for _, fig := range figs {
			if img, ok := fig.(*ImageFigure); ok {
				img.SetLimits(s.Min, s.Max)
			}
		}
	}
	return figs, nil
}

func (s *Session) carry(fig Figure) {
	if !s.CarryLimits {
		return
	}
	if img, ok := fig.(*ImageFigure); ok {
		s.Min, s.Max = img.Limits()
	}
}

func (s *Session) save(fig Figure) error {
	path := s.Run.PNGPath(fig.Name())
	if err := writeFigure(s.Run, fig); err != nil {
		return err
	}
	s.notice("saving image as %s", path)
	return nil
}

func writeFigure(run *data.Run, fig Figure) error {
	png, err := fig.PNG()
	if err != nil {
		return err
	}
	if err := run.EnsureOutputDir(); err != nil {
		return errors.Wrap(err, "unable to create output dir")
	}
	path := run.PNGPath(fig.Name())
	if err := os.WriteFile(path, png, 0644); err != nil {
		return errors.Wrapf(err, "unable to save %s", path)
	}
	return nil
}

// tag appends the current step name to the text file of digit.
func (s *Session) tag(digit string) error {
	step := s.step(s.current)
	if step == nil {
		return nil
	}
	if err := s.Run.EnsureOutputDir(); err != nil {
		return errors.Wrap(err, "unable to create output dir")
	}

	path := s.Run.TagPath(digit)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()
	if _, err := f.WriteString(step.Name + "\n"); err != nil {
		return errors.Wrapf(err, "unable to write %s", path)
	}

	s.notice("recording filename in %s", path)
	return nil
}

// SaveAll renders every figure of every step to PNG without a browser.
func (s *Session) SaveAll(ctx context.Context) error {
	s.mu.Lock()
	steps := append([]*Step(nil), s.steps...)
	s.mu.Unlock()

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, step := range steps {
		step := step
		g.Go(func() error {
			figs, err := s.load(ctx, step)
			if err != nil {
				return errors.Wrapf(err, "unable to load %s", step.Name)
			}
			for _, fig := range figs {
				if err := writeFigure(s.Run, fig); err != nil {
					return err
				}
				log.Info().Str("session", s.Name).Str("path", s.Run.PNGPath(fig.Name())).Msg("saved image")
			}
			return nil
		})
	}
	return g.Wait()
}

func (s *Session) status() *Status {
	st := &Status{}
	st.SetString("session", s.Name)
	if s.Run != nil {
		st.SetString("run", s.Run.Tag())
	}
	if step := s.step(s.current); step != nil {
		st.SetString("frame", step.Name)
	}
	st.SetString("step", fmt.Sprintf("%d/%d", s.current+1, s.NSteps()))
	if s.CarryLimits {
		st.SetString("limits", fmt.Sprintf("%g..%g", s.Min, s.Max))
	}
	st.SetString("tagging", strconv.FormatBool(s.Tagging))
	return st
}

func (s *Session) pubStatus() {
	msg, err := s.status().Msg()
	if err != nil {
		log.Error().Err(err).Msg("unable to build status")
		return
	}
	ids := make([]string, len(s.figures))
	for i, fig := range s.figures {
		ids[i] = fig.Id().String()
	}
	msg.Metadata["ids"] = strings.Join(ids, ",")
	s.publish(msg)
}

func (s *Session) pubAll() {
	s.pubStatus()
	for _, fig := range s.figures {
		frame, count := fig.Frame()
		if frame == nil {
			continue
		}
		s.publish(frame)
		s.lastCount[fig.Id()] = count
	}
}

// pubChanged publishes the frames that were re-rendered since last sent.
func (s *Session) pubChanged() {
	for _, fig := range s.figures {
		frame, count := fig.Frame()
		if frame == nil || s.lastCount[fig.Id()] == count {
			continue
		}
		s.publish(frame)
		s.lastCount[fig.Id()] = count
	}
	if s.CarryLimits {
		s.pubStatus()
	}
}

func (s *Session) notice(format string, args ...interface{}) {
	text := fmt.Sprintf(format, args...)
	log.Info().Str("session", s.Name).Msg(text)

	msg := message.NewMsg("notice")
	msg.Metadata["text"] = text
	s.publish(msg)
}

func (s *Session) publish(msg *message.Msg) {
	if s.Publish != nil {
		s.Publish(msg)
	}
}
