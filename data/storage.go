// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

var ErrBadScheme = errors.New("bad url scheme")

type RunObject struct {
	Name string
}

// parseLocation splits a location into its url form. Plain paths without a
// scheme are treated as local files.
func parseLocation(location string) (*url.URL, error) {
	if !strings.Contains(location, "://") {
		return &url.URL{Scheme: "file", Path: location}, nil
	}
	return url.Parse(location)
}

func localPath(u *url.URL) string {
	if u.Host == "" {
		return filepath.Clean(u.Path)
	}
	return filepath.Clean(fmt.Sprintf("%v/%v", u.Host, strings.TrimLeft(u.Path, "/")))
}

// ListRunObjects lists the file names directly under the directory at
// location. Names are returned sorted.
func ListRunObjects(ctx context.Context, location, credentials string) (runs []*RunObject, err error) {
	var thisUrl *url.URL
	thisUrl, err = parseLocation(location)
	if err != nil {
		return
	}

	switch thisUrl.Scheme {
	case "gs":
		runs, err = ListGcsObjects(
			ctx,
			thisUrl.Host,
			strings.Trim(thisUrl.Path, "/"),
			[]byte(credentials),
		)
	case "file":
		var entries []os.DirEntry
		entries, err = os.ReadDir(localPath(thisUrl))
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			runs = append(runs, &RunObject{Name: entry.Name()})
		}
	default:
		err = errors.Wrap(ErrBadScheme, thisUrl.Scheme)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Name < runs[j].Name })
	return
}

func ObjectExists(ctx context.Context, location, credentials string) (bool, error) {
	thisUrl, err := parseLocation(location)
	if err != nil {
		return false, err
	}

	switch thisUrl.Scheme {
	case "gs":
		return GcsObjectExists(
			ctx,
			thisUrl.Host,
			strings.TrimLeft(thisUrl.Path, "/"),
			[]byte(credentials),
		)
	case "file":
		info, err := os.Stat(localPath(thisUrl))
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return !info.IsDir(), nil
	}
	return false, errors.Wrap(ErrBadScheme, thisUrl.Scheme)
}

// FetchObject makes the object at location available as a local file. Local
// files are returned as is; remote objects are downloaded to a temporary file
// that is removed by the returned cleanup function.
func FetchObject(ctx context.Context, location, credentials string) (path string, cleanup func(), err error) {
	cleanup = func() {}

	var thisUrl *url.URL
	thisUrl, err = parseLocation(location)
	if err != nil {
		return
	}

	switch thisUrl.Scheme {
	case "gs":
		path, err = DownloadGcsObject(
			ctx,
			thisUrl.Host,
			strings.TrimLeft(thisUrl.Path, "/"),
			[]byte(credentials),
		)
		if err == nil {
			tmp := path
			cleanup = func() { os.Remove(tmp) }
		}
	case "file":
		path = localPath(thisUrl)
	default:
		err = errors.Wrap(ErrBadScheme, thisUrl.Scheme)
	}
	return
}

// LocalDir returns the local directory for location, failing for remote
// schemes.
func LocalDir(location string) (string, error) {
	thisUrl, err := parseLocation(location)
	if err != nil {
		return "", err
	}
	if thisUrl.Scheme != "file" {
		return "", errors.Wrap(ErrBadScheme, thisUrl.Scheme)
	}
	return localPath(thisUrl), nil
}
