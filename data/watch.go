// Copyright 2019 Radiation Detection and Imaging (RDI), LLC
// Use of this source code is governed by the BSD 3-clause
// license that can be found in the LICENSE file.

package data

import (
	"context"
	"path/filepath"
	"regexp"
	"sort"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// DefaultSettle is how long a new file must stay untouched before it is
// reported by WatchRun.
const DefaultSettle = time.Second

// WatchRun reports the names of files created in the local run directory
// that match pattern, once the writer has stopped touching them for settle.
// The returned channel is closed when ctx is done.
func WatchRun(ctx context.Context, r *Run, pattern *regexp.Regexp, settle time.Duration) (<-chan string, error) {
	dir, err := LocalDir(r.Dir())
	if err != nil {
		return nil, errors.Wrap(err, "only local run directories can be watched")
	}
	if settle <= 0 {
		settle = DefaultSettle
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return nil, errors.Wrapf(err, "unable to watch %s", dir)
	}

	names := make(chan string)

	go func() {
		defer close(names)
		defer watcher.Close()

		log.Info().Str("dir", dir).Msg("watching for new frames")
		defer log.Info().Str("dir", dir).Msg("stopped watching for new frames")

		pending := make(map[string]time.Time)
		reported := make(map[string]bool)
		ticker := time.NewTicker(settle / 4)
		defer ticker.Stop()

		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}
				for _, name := range pattern.FindAllString(filepath.Base(event.Name), -1) {
					if !reported[name] {
						pending[name] = time.Now()
					}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Warn().Err(err).Msg("watcher error")
			case now := <-ticker.C:
				var ready []string
				for name, last := range pending {
					if now.Sub(last) >= settle {
						ready = append(ready, name)
					}
				}
				sort.Strings(ready)
				for _, name := range ready {
					delete(pending, name)
					reported[name] = true
					select {
					case names <- name:
					case <-ctx.Done():
						return
					}
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return names, nil
}
