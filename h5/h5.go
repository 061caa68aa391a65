// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

// Package h5 reads and writes the single-dataset HDF5 files produced by the
// hit-finder. Every file carries its array at DatasetPath.
package h5

import (
	"context"
	"os"

	"github.com/pkg/errors"
	"gonum.org/v1/hdf5"

	"github.com/rditech/rdi-hitview/data"
)

const (
	GroupName   = "data"
	DatasetName = "data"
	DatasetPath = "/" + GroupName + "/" + DatasetName
)

var ErrRank = errors.New("unsupported dataset rank")

// Read returns the dimensions and the row-major values of the dataset at
// DatasetPath, converted to float64 whatever the stored type.
func Read(path string) (dims []int, values []float64, err error) {
	if _, err = os.Stat(path); err != nil {
		return nil, nil, err
	}

	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open %s", path)
	}
	defer f.Close()

	ds, err := f.OpenDataset(DatasetPath)
	if err != nil {
		return nil, nil, errors.Wrapf(err, "unable to open dataset %s in %s", DatasetPath, path)
	}
	defer ds.Close()

	space := ds.Space()
	defer space.Close()
	extent, _, err := space.SimpleExtentDims()
	if err != nil {
		return nil, nil, errors.Wrap(err, "unable to read dataset extent")
	}

	n := 1
	for _, d := range extent {
		dims = append(dims, int(d))
		n *= int(d)
	}

	values = make([]float64, n)
	if n == 0 {
		return dims, values, nil
	}
	if err = ds.Read(&values); err != nil {
		return nil, nil, errors.Wrapf(err, "unable to read dataset in %s", path)
	}

	return dims, values, nil
}

// Rows reads a 1D or 2D dataset as a list of rows. A 1D dataset yields a
// single row.
func Rows(path string) ([][]float64, error) {
	dims, values, err := Read(path)
	if err != nil {
		return nil, err
	}

	switch len(dims) {
	case 1:
		return [][]float64{values}, nil
	case 2:
		rows := make([][]float64, dims[0])
		for i := range rows {
			rows[i] = values[i*dims[1] : (i+1)*dims[1]]
		}
		return rows, nil
	}
	return nil, errors.Wrapf(ErrRank, "%s has rank %d", path, len(dims))
}

// ReadFrame reads a 2D dataset as a frame. A 1D dataset becomes a single
// row.
func ReadFrame(path, name string) (*data.Frame, error) {
	dims, values, err := Read(path)
	if err != nil {
		return nil, err
	}
	f, err := data.FrameFromArray(name, dims, values)
	if err != nil {
		return nil, errors.Wrapf(err, "unable to read frame from %s", path)
	}
	return f, nil
}

// ReadProfile reads a 1D dataset, or the first row of a 2D one.
func ReadProfile(path, name string) (*data.Profile, error) {
	rows, err := Rows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.Wrapf(data.ErrEmpty, "%s has no rows", path)
	}
	return &data.Profile{Name: name, Values: rows[0]}, nil
}

// Write creates (or truncates) path and stores values under DatasetPath as
// native doubles with the given dimensions.
func Write(path string, dims []int, values []float64) error {
	n := 1
	udims := make([]uint, len(dims))
	for i, d := range dims {
		udims[i] = uint(d)
		n *= d
	}
	if n != len(values) {
		return errors.Errorf("dims %v do not match %d values", dims, len(values))
	}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return errors.Wrapf(err, "unable to create %s", path)
	}
	defer f.Close()

	g, err := f.CreateGroup(GroupName)
	if err != nil {
		return errors.Wrap(err, "unable to create group")
	}
	defer g.Close()

	space, err := hdf5.CreateSimpleDataspace(udims, nil)
	if err != nil {
		return errors.Wrap(err, "unable to create dataspace")
	}
	defer space.Close()

	ds, err := g.CreateDataset(DatasetName, hdf5.T_NATIVE_DOUBLE, space)
	if err != nil {
		return errors.Wrap(err, "unable to create dataset")
	}
	defer ds.Close()

	if err := ds.Write(&values); err != nil {
		return errors.Wrapf(err, "unable to write dataset in %s", path)
	}
	return nil
}

// LoadFrame fetches a run file, possibly remote, and reads it as a frame.
func LoadFrame(ctx context.Context, location, credentials, name string) (*data.Frame, error) {
	path, cleanup, err := data.FetchObject(ctx, location, credentials)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return ReadFrame(path, name)
}

// LoadRows fetches a run file, possibly remote, and reads its rows.
func LoadRows(ctx context.Context, location, credentials string) ([][]float64, error) {
	path, cleanup, err := data.FetchObject(ctx, location, credentials)
	if err != nil {
		return nil, err
	}
	defer cleanup()
	return Rows(path)
}
