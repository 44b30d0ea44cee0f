// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ErrNothingToWatch is returned by Watch when no source is a file.
var ErrNothingToWatch = errors.New("config: no file sources to watch")

const watchDebounce = 100 * time.Millisecond

// Watch reloads the configuration whenever a file source changes and
// reports each reload result to onReload. Bursts of events are
// coalesced. The parent directories are watched so that editors which
// replace files by renaming are seen too. Watch blocks until ctx is
// done and then returns nil.
func (c *Config) Watch(ctx context.Context, onReload func(error)) error {
	files := make(map[string]struct{})
	dirs := make(map[string]struct{})
	for _, s := range c.sources {
		p, ok := s.(interface{ Path() string })
		if !ok {
			continue
		}
		abs, err := filepath.Abs(p.Path())
		if err != nil {
			return fmt.Errorf("config: watch %s: %w", p.Path(), err)
		}
		files[abs] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	if len(files) == 0 {
		return ErrNothingToWatch
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("config: watch: %w", err)
	}
	defer w.Close()
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("config: watch %s: %w", dir, err)
		}
	}

	timer := time.NewTimer(watchDebounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if _, watched := files[filepath.Clean(ev.Name)]; !watched {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				timer.Reset(watchDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			if onReload != nil {
				onReload(&Error{Op: "watch", Err: err})
			}
		case <-timer.C:
			err := c.Load(ctx)
			if onReload != nil {
				onReload(err)
			}
		}
	}
}
