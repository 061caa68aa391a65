// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package view

import (
	"context"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rditech/rdi-hitview/data"
	"github.com/rditech/rdi-hitview/plot"
	"github.com/rditech/rdi-hitview/view/message"
)

type sink struct {
	mu   sync.Mutex
	msgs []*message.Msg
}

func (k *sink) publish(msg *message.Msg) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.msgs = append(k.msgs, msg)
}

func (k *sink) ofType(msgType string) []*message.Msg {
	k.mu.Lock()
	defer k.mu.Unlock()

	var msgs []*message.Msg
	for _, msg := range k.msgs {
		if msg.Type == msgType {
			msgs = append(msgs, msg)
		}
	}
	return msgs
}

func (k *sink) reset() {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.msgs = nil
}

func testFrame(t *testing.T, name string, scale float64) *data.Frame {
	values := make([]float64, 16)
	for i := range values {
		values[i] = scale * float64(i)
	}
	f, err := data.NewFrame(name, 4, 4, values)
	require.NoError(t, err)
	return f
}

func testImage(t *testing.T, name string, scale float64, reset ResetMode) *ImageFigure {
	f := testFrame(t, name, scale)
	return NewImageFigure(name, f, 0, 100, reset, plot.ImageOptions{})
}

func newTestSession(t *testing.T, names ...string) (*Session, *sink) {
	run := &data.Run{Number: "7", InputDir: t.TempDir(), OutputDir: t.TempDir()}
	s := NewSession(run.Tag(), run)
	k := &sink{}
	s.Publish = k.publish
	for _, name := range names {
		s.AddStep(StaticStep(name, testImage(t, name, 10, ResetToData)))
	}
	return s, k
}

// colorbarPoint returns the pixel at fractional height frac of the
// colorbar of a rendered image frame.
func colorbarPoint(t *testing.T, frame *message.Msg, frac float64) (x, y int) {
	parts := strings.Split(frame.Metadata["colorbar"], ",")
	require.Len(t, parts, 4)
	var c [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(p)
		require.NoError(t, err)
		c[i] = v
	}
	x = (c[0] + c[2]) / 2
	y = c[3] - 1 - int(frac*float64(c[3]-c[1]-1)+0.5)
	return x, y
}

func click(fig Figure, button, x, y int) *message.Cmd {
	cmd := message.NewCmd("click")
	cmd.Metadata["id"] = fig.Id().String()
	cmd.Metadata["button"] = strconv.Itoa(button)
	cmd.Metadata["x"] = strconv.Itoa(x)
	cmd.Metadata["y"] = strconv.Itoa(y)
	return cmd
}

func key(k string) *message.Cmd {
	cmd := message.NewCmd("key")
	cmd.Metadata["key"] = k
	return cmd
}

func TestSessionStartPublishesFrames(t *testing.T) {
	s, k := newTestSession(t, "img_evt1_polar.h5", "img_evt2_polar.h5")
	require.NoError(t, s.Start(context.Background()))

	i, figs := s.Current()
	assert.Equal(t, 0, i)
	require.Len(t, figs, 1)

	status := k.ofType("status")
	require.Len(t, status, 1)
	assert.Equal(t, "1/2", status[0].Metadata["step"])
	assert.Equal(t, "img_evt1_polar.h5", status[0].Metadata["frame"])
	assert.Equal(t, figs[0].Id().String(), status[0].Metadata["ids"])

	frames := k.ofType("show frame")
	require.Len(t, frames, 1)
	assert.Equal(t, "Image", frames[0].Metadata["show type"])
	assert.NotEmpty(t, frames[0].Payload)

	k.reset()
	require.NoError(t, s.Execute(context.Background(), message.NewCmd("pub all")))
	assert.Len(t, k.ofType("show frame"), 1)
}

func TestSessionEmptyFails(t *testing.T) {
	s, _ := newTestSession(t)
	assert.Error(t, s.Start(context.Background()))
}

func TestSessionNavigation(t *testing.T) {
	ctx := context.Background()
	s, k := newTestSession(t, "a", "b", "c")
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Execute(ctx, key("n")))
	i, _ := s.Current()
	assert.Equal(t, 1, i)

	require.NoError(t, s.Execute(ctx, key("ArrowLeft")))
	i, _ = s.Current()
	assert.Equal(t, 0, i)

	require.NoError(t, s.Execute(ctx, message.NewCmd("prev")))
	i, _ = s.Current()
	assert.Equal(t, 0, i)
	assert.NotEmpty(t, k.ofType("notice"))

	goTo := message.NewCmd("goto")
	goTo.Metadata["index"] = "2"
	require.NoError(t, s.Execute(ctx, goTo))
	i, _ = s.Current()
	assert.Equal(t, 2, i)
	assert.False(t, s.Done())

	require.NoError(t, s.Execute(ctx, message.NewCmd("next")))
	assert.True(t, s.Done())
}

func TestSessionQuit(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, "a", "b")
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Execute(ctx, key("q")))
	assert.True(t, s.Done())
}

func TestSessionSavePNG(t *testing.T) {
	ctx := context.Background()
	s, k := newTestSession(t, "r0007_raw")
	require.NoError(t, s.Start(ctx))

	require.NoError(t, s.Execute(ctx, key("p")))

	path := s.Run.PNGPath("r0007_raw")
	assert.Equal(t, s.Run.OutputRunDir(), strings.TrimSuffix(path, "/r0007_raw.png"))
	buf, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(buf[:4]))

	notices := k.ofType("notice")
	require.NotEmpty(t, notices)
	assert.Equal(t, "saving image as "+path, notices[len(notices)-1].Metadata["text"])
}

func TestSessionSaveOneFigure(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t)
	img := testImage(t, "r7", 1, ResetToOriginal)
	line := NewLineFigure("r7_avg", plot.LineOptions{X: []float64{0, 1, 2}, Y: []float64{3, 2, 1}})
	s.AddStep(StaticStep("r7", img, line))
	require.NoError(t, s.Start(ctx))

	cmd := key("p")
	cmd.Metadata["id"] = line.Id().String()
	require.NoError(t, s.Execute(ctx, cmd))

	_, err := os.Stat(s.Run.PNGPath("r7_avg"))
	assert.NoError(t, err)
	_, err = os.Stat(s.Run.PNGPath("r7"))
	assert.True(t, os.IsNotExist(err))
}

func TestSessionTagging(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, "img_evt1_polar.h5", "img_evt2_polar.h5")
	require.NoError(t, s.Start(ctx))

	// disabled
	require.NoError(t, s.Execute(ctx, key("3")))
	_, err := os.Stat(s.Run.TagPath("3"))
	assert.True(t, os.IsNotExist(err))

	s.Tagging = true
	require.NoError(t, s.Execute(ctx, key("3")))
	require.NoError(t, s.Execute(ctx, key("n")))
	require.NoError(t, s.Execute(ctx, key("3")))
	require.NoError(t, s.Execute(ctx, key("0")))

	buf, err := os.ReadFile(s.Run.TagPath("3"))
	require.NoError(t, err)
	assert.Equal(t, "img_evt1_polar.h5\nimg_evt2_polar.h5\n", string(buf))

	buf, err = os.ReadFile(s.Run.TagPath("0"))
	require.NoError(t, err)
	assert.Equal(t, "img_evt2_polar.h5\n", string(buf))
}

func TestSessionColorbarClicks(t *testing.T) {
	ctx := context.Background()
	s, k := newTestSession(t, "a")
	require.NoError(t, s.Start(ctx))
	_, figs := s.Current()
	img := figs[0].(*ImageFigure)
	frame, count := img.Frame()

	// outside the colorbar
	require.NoError(t, s.Execute(ctx, click(img, LeftButton, 1, 1)))
	min, max := img.Limits()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 100.0, max)

	x, y := colorbarPoint(t, frame, 0.5)
	k.reset()
	require.NoError(t, s.Execute(ctx, click(img, LeftButton, x, y)))
	min, max = img.Limits()
	assert.InDelta(t, 50, min, 5)
	assert.Equal(t, 100.0, max)
	_, newCount := img.Frame()
	assert.Equal(t, count+1, newCount)
	assert.Len(t, k.ofType("show frame"), 1)

	frame, _ = img.Frame()
	x, y = colorbarPoint(t, frame, 0.5)
	require.NoError(t, s.Execute(ctx, click(img, RightButton, x, y)))
	_, max = img.Limits()
	assert.InDelta(t, 75, max, 5)

	// middle resets to the data limits of the frame: 0..150
	require.NoError(t, s.Execute(ctx, click(img, MiddleButton, x, y)))
	min, max = img.Limits()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 150.0, max)

	bad := click(img, LeftButton, x, y)
	bad.Metadata["x"] = "left"
	assert.Error(t, s.Execute(ctx, bad))

	bad = click(img, LeftButton, x, y)
	bad.Metadata["id"] = "nope"
	assert.Error(t, s.Execute(ctx, bad))
}

func TestSessionResetKey(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, "a")
	require.NoError(t, s.Start(ctx))
	_, figs := s.Current()
	img := figs[0].(*ImageFigure)

	require.NoError(t, s.Execute(ctx, key("r")))
	min, max := img.Limits()
	assert.Equal(t, 0.0, min)
	assert.Equal(t, 150.0, max)
}

func TestSessionCarryLimits(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, "a", "b")
	s.CarryLimits = true
	s.Min, s.Max = 0, 100
	require.NoError(t, s.Start(ctx))
	_, figs := s.Current()
	img := figs[0].(*ImageFigure)

	set := message.NewCmd("set params")
	set.Metadata["id"] = img.Id().String()
	set.Metadata["min"] = "20"
	set.Metadata["max"] = "40"
	require.NoError(t, s.Execute(ctx, set))
	assert.Equal(t, 20.0, s.Min)
	assert.Equal(t, 40.0, s.Max)

	require.NoError(t, s.Execute(ctx, key("n")))
	_, figs = s.Current()
	min, max := figs[0].(*ImageFigure).Limits()
	assert.Equal(t, 20.0, min)
	assert.Equal(t, 40.0, max)
}

func TestSessionSetParamsRejectsNarrowLimits(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestSession(t, "a")
	require.NoError(t, s.Start(ctx))
	_, figs := s.Current()
	img := figs[0].(*ImageFigure)
	_, count := img.Frame()

	for _, lim := range [][2]string{{"40", "40"}, {"50", "10"}, {"100", "100.00000000001"}, {"0", "NaN"}} {
		set := message.NewCmd("set params")
		set.Metadata["id"] = img.Id().String()
		set.Metadata["min"] = lim[0]
		set.Metadata["max"] = lim[1]
		require.NoError(t, s.Execute(ctx, set), "limits %v", lim)

		min, max := img.Limits()
		assert.Equal(t, 0.0, min, "limits %v", lim)
		assert.Equal(t, 100.0, max, "limits %v", lim)
	}
	_, newCount := img.Frame()
	assert.Equal(t, count, newCount)
}

func TestSessionLoadError(t *testing.T) {
	ctx := context.Background()
	s, k := newTestSession(t)
	s.AddStep(&Step{
		Name: "broken",
		Load: func(context.Context) ([]Figure, error) { return nil, os.ErrNotExist },
	})
	s.AddStep(StaticStep("ok", testImage(t, "ok", 1, ResetToData)))
	require.NoError(t, s.Start(ctx))

	_, figs := s.Current()
	assert.Empty(t, figs)
	assert.NotEmpty(t, k.ofType("notice"))

	require.NoError(t, s.Execute(ctx, key("n")))
	_, figs = s.Current()
	assert.Len(t, figs, 1)
}

func TestSessionManageWatching(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	s, k := newTestSession(t, "a")
	s.Watching = true
	cmds := make(chan *message.Cmd)
	errs := make(chan error, 1)
	go func() { errs <- s.Manage(ctx, cmds) }()

	cmds <- key("n")
	s.AddStep(StaticStep("b", testImage(t, "b", 1, ResetToData)))

	require.Eventually(t, func() bool {
		for _, msg := range k.ofType("status") {
			if msg.Metadata["frame"] == "b" {
				return true
			}
		}
		return false
	}, 10*time.Second, 10*time.Millisecond)

	cmds <- key("q")
	require.NoError(t, <-errs)
	assert.Len(t, k.ofType("session close"), 1)
}

func TestSessionManageBackOutOfWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	s, k := newTestSession(t, "a", "b")
	s.Watching = true
	cmds := make(chan *message.Cmd)
	errs := make(chan error, 1)
	go func() { errs <- s.Manage(ctx, cmds) }()

	// past the last step, then back to the first
	cmds <- key("n")
	cmds <- key("n")
	cmds <- key("b")
	cmds <- key("b")
	s.AddStep(StaticStep("c", testImage(t, "c", 1, ResetToData)))

	var steps []string
	require.Eventually(t, func() bool {
		steps = nil
		for _, msg := range k.ofType("status") {
			if strings.HasSuffix(msg.Metadata["step"], "/3") {
				steps = append(steps, msg.Metadata["step"])
			}
		}
		return len(steps) > 0
	}, 10*time.Second, 10*time.Millisecond)
	assert.Equal(t, []string{"1/3"}, steps)

	cmds <- key("q")
	require.NoError(t, <-errs)
}

func TestSessionSaveAll(t *testing.T) {
	s, _ := newTestSession(t, "a", "b", "c")
	require.NoError(t, s.SaveAll(context.Background()))

	for _, name := range []string{"a", "b", "c"} {
		_, err := os.Stat(s.Run.PNGPath(name))
		assert.NoError(t, err, name)
	}
}
