// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// Kind names the run-averaged products written by the hit-finder.
type Kind string

const (
	IAvg  Kind = "iAvg"
	QAvg  Kind = "qAvg"
	Asm2D Kind = "asm2D"
	Raw2D Kind = "raw2D"
)

var (
	ErrSourceNotFound = errors.New("source file not found")
	ErrNoFrames       = errors.New("no matching files in run directory")
)

// Run locates the files of one data-collection run. InputDir may be a local
// path, a file:// url or a gs:// url; OutputDir is always local.
type Run struct {
	Number      string
	FileTag     string
	InputDir    string
	OutputDir   string
	Credentials string
}

func (r *Run) Tag() string {
	return "r" + r.Number
}

func (r *Run) fileTag() string {
	if r.FileTag == "" {
		return "img"
	}
	return r.FileTag
}

// Dir is the run directory under InputDir.
func (r *Run) Dir() string {
	return strings.TrimRight(r.InputDir, "/") + "/" + r.Tag()
}

// Location returns the location of a file of the run directory.
func (r *Run) Location(name string) string {
	return r.Dir() + "/" + name
}

func (r *Run) AvgName(kind Kind) string {
	return r.fileTag() + "_avg_" + string(kind) + ".h5"
}

func (r *Run) AvgFile(kind Kind) string {
	return r.Location(r.AvgName(kind))
}

// Require checks that a run-averaged file exists and returns its location,
// or an error wrapping ErrSourceNotFound.
func (r *Run) Require(ctx context.Context, kind Kind) (string, error) {
	location := r.AvgFile(kind)
	ok, err := ObjectExists(ctx, location, r.Credentials)
	if err != nil {
		return "", errors.Wrapf(err, "unable to check %s", location)
	}
	if !ok {
		return "", errors.Wrap(ErrSourceNotFound, location)
	}
	return location, nil
}

func (r *Run) OutputRunDir() string {
	return filepath.Join(r.OutputDir, r.Tag())
}

func (r *Run) PNGPath(name string) string {
	return filepath.Join(r.OutputRunDir(), name+".png")
}

func (r *Run) TagPath(digit string) string {
	return filepath.Join(r.OutputRunDir(), r.Tag()+"_"+digit+".txt")
}

func (r *Run) EnsureOutputDir() error {
	return os.MkdirAll(r.OutputRunDir(), 0755)
}

// PolarPattern matches per-event polar frames, e.g. img_evt1042_polar.h5.
func (r *Run) PolarPattern() *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(r.fileTag()) + `_evt[a-z0-9_]+_polar\.h5`)
}

// PixelMapPattern matches pixel maps, e.g. img_pixX_um_map.h5.
func (r *Run) PixelMapPattern() *regexp.Regexp {
	return regexp.MustCompile(regexp.QuoteMeta(r.fileTag()) + `_pix[A-Z]+_um_+[a-z]+\.h5`)
}

func (r *Run) PolarFiles(ctx context.Context) ([]string, error) {
	return r.Match(ctx, r.PolarPattern())
}

func (r *Run) PixelMapFiles(ctx context.Context) ([]string, error) {
	return r.Match(ctx, r.PixelMapPattern())
}

// Match lists the run directory and returns every substring of the file
// names that matches pattern, in name order.
func (r *Run) Match(ctx context.Context, pattern *regexp.Regexp) ([]string, error) {
	objs, err := ListRunObjects(ctx, r.Dir(), r.Credentials)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to list %s", r.Dir())
	}

	var names []string
	for _, obj := range objs {
		names = append(names, pattern.FindAllString(obj.Name, -1)...)
	}
	return names, nil
}
