// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"fmt"
	"image"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go-hep.org/x/hep/hbook"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view/message"
)

// Figure is one rendered panel of a viewer step.
type Figure interface {
	Id() uuid.UUID
	// Name is the file name, without extension, the figure is saved under.
	Name() string
	Frame() (*message.Msg, uint64)
	UpdateFrame() error
	Execute(*message.Cmd) error
	PNG() ([]byte, error)
}

type frameState struct {
	id         uuid.UUID
	name       string
	rendered   *plot.Rendered
	frame      *message.Msg
	frameCount uint64

	sync.RWMutex
}

func (s *frameState) Id() uuid.UUID {
	return s.id
}

func (s *frameState) Name() string {
	return s.name
}

func (s *frameState) Frame() (*message.Msg, uint64) {
	s.RLock()
	defer s.RUnlock()

	return s.frame, s.frameCount
}

// setFrame must be called with the lock held.
func (s *frameState) setFrame(showType string, r *plot.Rendered) *message.Msg {
	s.rendered = r
	s.frame = message.NewMsg("show frame")
	s.frame.Metadata["id"] = s.id.String()
	s.frame.Metadata["name"] = s.name
	s.frame.Metadata["show type"] = showType
	s.frame.Metadata["is png"] = "true"
	s.frame.Metadata["width"] = strconv.Itoa(r.Size.X)
	s.frame.Metadata["height"] = strconv.Itoa(r.Size.Y)
	s.frame.Payload = r.PNG
	s.frameCount++
	return s.frame
}

type renderFunc func() error

func (s *frameState) png(update renderFunc) ([]byte, error) {
	s.RLock()
	r := s.rendered
	s.RUnlock()
	if r == nil {
		if err := update(); err != nil {
			return nil, err
		}
		s.RLock()
		r = s.rendered
		s.RUnlock()
	}
	return r.PNG, nil
}

// ImageFigure shows a 2D frame with an interactive colorbar.
type ImageFigure struct {
	Data    *data.Frame
	Scale   *ColorScale
	Options plot.ImageOptions

	frameState
}

// NewImageFigure displays f between min and max. The data limits used for
// resets are taken from f.
func NewImageFigure(name string, f *data.Frame, min, max float64, reset ResetMode, opts plot.ImageOptions) *ImageFigure {
	dataMin, dataMax := f.Limits()
	if opts.Title == "" {
		opts.Title = name
	}
	return &ImageFigure{
		Data:       f,
		Scale:      NewColorScale(min, max, dataMin, dataMax, reset),
		Options:    opts,
		frameState: frameState{id: uuid.New(), name: name},
	}
}

func (s *ImageFigure) UpdateFrame() error {
	s.Lock()
	defer s.Unlock()

	opts := s.Options
	opts.Min, opts.Max = s.Scale.Min, s.Scale.Max
	r, err := plot.RenderImage(s.Data, opts)
	if err != nil {
		return errors.Wrapf(err, "unable to render %s", s.name)
	}

	frame := s.setFrame("Image", r)
	frame.Metadata["title"] = opts.Title
	frame.Metadata["min"] = strconv.FormatFloat(s.Scale.Min, 'g', 6, 64)
	frame.Metadata["max"] = strconv.FormatFloat(s.Scale.Max, 'g', 6, 64)
	frame.Metadata["colorbar"] = fmt.Sprintf("%d,%d,%d,%d",
		r.Colorbar.Min.X, r.Colorbar.Min.Y, r.Colorbar.Max.X, r.Colorbar.Max.Y)
	return nil
}

func (s *ImageFigure) PNG() ([]byte, error) {
	return s.png(s.UpdateFrame)
}

// Limits returns the current display limits.
func (s *ImageFigure) Limits() (min, max float64) {
	s.RLock()
	defer s.RUnlock()

	return s.Scale.Min, s.Scale.Max
}

// SetLimits changes the display limits and reports whether they changed.
// Limits that fail ValidSpan are ignored.
func (s *ImageFigure) SetLimits(min, max float64) bool {
	if !ValidSpan(min, max) {
		return false
	}
	s.Lock()
	defer s.Unlock()

	return s.Scale.Set(min, max)
}

// ResetLimits sets the display limits to the data limits.
func (s *ImageFigure) ResetLimits() bool {
	s.Lock()
	defer s.Unlock()

	return s.Scale.ResetToData()
}

// Click applies a mouse click at pixel (x, y) of the rendered frame. Clicks
// outside the colorbar are ignored.
func (s *ImageFigure) Click(button, x, y int) bool {
	s.Lock()
	defer s.Unlock()

	if s.rendered == nil {
		return false
	}
	frac, ok := s.rendered.ColorbarFraction(image.Pt(x, y))
	if !ok {
		return false
	}
	return s.Scale.Click(button, frac)
}

// Execute handles "click", "reset" and "set params" commands and re-renders
// the frame when the limits change.
func (s *ImageFigure) Execute(cmd *message.Cmd) error {
	changed := false
	switch cmd.Command {
	case "click":
		button, x, y, err := parseClick(cmd)
		if err != nil {
			return err
		}
		changed = s.Click(button, x, y)
	case "reset":
		changed = s.ResetLimits()
	case "set params":
		min, max := s.Limits()
		var err error
		if value, ok := cmd.Metadata["min"]; ok {
			if min, err = strconv.ParseFloat(value, 64); err != nil {
				return errors.Wrap(err, "bad min")
			}
		}
		if value, ok := cmd.Metadata["max"]; ok {
			if max, err = strconv.ParseFloat(value, 64); err != nil {
				return errors.Wrap(err, "bad max")
			}
		}
		changed = s.SetLimits(min, max)
	default:
		return nil
	}

	if !changed {
		return nil
	}
	return s.UpdateFrame()
}

func parseClick(cmd *message.Cmd) (button, x, y int, err error) {
	if button, err = strconv.Atoi(cmd.Metadata["button"]); err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad click button")
	}
	if x, err = strconv.Atoi(cmd.Metadata["x"]); err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad click x")
	}
	if y, err = strconv.Atoi(cmd.Metadata["y"]); err != nil {
		return 0, 0, 0, errors.Wrap(err, "bad click y")
	}
	return button, x, y, nil
}

// LineFigure shows a 1D profile.
type LineFigure struct {
	Options plot.LineOptions

	frameState
}

func NewLineFigure(name string, opts plot.LineOptions) *LineFigure {
	if opts.Title == "" {
		opts.Title = name
	}
	return &LineFigure{Options: opts, frameState: frameState{id: uuid.New(), name: name}}
}

func (s *LineFigure) UpdateFrame() error {
	s.Lock()
	defer s.Unlock()

	r, err := plot.RenderLine(s.Options)
	if err != nil {
		return errors.Wrapf(err, "unable to render %s", s.name)
	}

	frame := s.setFrame("Line", r)
	frame.Metadata["title"] = s.Options.Title
	frame.Metadata["logscale"] = strconv.FormatBool(s.Options.LogY)
	return nil
}

func (s *LineFigure) PNG() ([]byte, error) {
	return s.png(s.UpdateFrame)
}

// Execute handles "set params" with a "logscale" value.
func (s *LineFigure) Execute(cmd *message.Cmd) error {
	if cmd.Command != "set params" {
		return nil
	}
	value, ok := cmd.Metadata["logscale"]
	if !ok {
		return nil
	}
	logY, err := strconv.ParseBool(value)
	if err != nil {
		return errors.Wrap(err, "bad logscale")
	}

	s.Lock()
	changed := s.Options.LogY != logY
	s.Options.LogY = logY
	s.Unlock()

	if !changed {
		return nil
	}
	return s.UpdateFrame()
}

// HistFigure shows a fixed histogram.
type HistFigure struct {
	Hist  *hbook.H1D
	Title string

	frameState
}

func NewHistFigure(name string, h *hbook.H1D) *HistFigure {
	return &HistFigure{Hist: h, Title: name, frameState: frameState{id: uuid.New(), name: name}}
}

func (s *HistFigure) UpdateFrame() error {
	s.Lock()
	defer s.Unlock()

	r, err := plot.RenderHist(s.Hist, s.Title)
	if err != nil {
		return errors.Wrapf(err, "unable to render %s", s.name)
	}

	frame := s.setFrame("Histogram", r)
	frame.Metadata["title"] = s.Title
	return nil
}

func (s *HistFigure) PNG() ([]byte, error) {
	return s.png(s.UpdateFrame)
}

func (s *HistFigure) Execute(cmd *message.Cmd) error {
	return nil
}
