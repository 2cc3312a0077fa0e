// Copyright 2026 Bob Vawter (bob@vawter.org)
// SPDX-License-Identifier: Apache-2.0

// Package watch forwards filesystem notifications to a [waker.Sender].
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"vawter.tech/waker"
)

// DefaultIgnore contains directory names that are never watched.
var DefaultIgnore = []string{".git", "node_modules"}

// changeOps are the notifications that cause a path to be sent.
const changeOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// A Watcher recursively watches directory trees.
type Watcher struct {
	fs     *fsnotify.Watcher
	ignore []string
	log    *slog.Logger

	mu struct {
		sync.Mutex
		roots []string // Paths passed to Add.
	}
}

// New constructs a Watcher. Directories whose base name appears in the
// ignore list, or in [DefaultIgnore], will not be watched.
func New(log *slog.Logger, ignore ...string) (*Watcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:     w,
		ignore: append(slices.Clone(DefaultIgnore), ignore...),
		log:    log,
	}, nil
}

// Add watches the path. If the path is a directory, its
// subdirectories are also watched. The ignore list applies only below
// the path, so a path may be watched even if one of its ancestors is
// ignored.
func (w *Watcher) Add(root string) error {
	root = filepath.Clean(root)
	w.mu.Lock()
	w.mu.roots = append(w.mu.roots, root)
	w.mu.Unlock()
	return w.walk(root)
}

// walk watches the directory tree rooted at the path.
func (w *Watcher) walk(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// The root must exist, anything else may have vanished.
			if path == root {
				return err
			}
			return nil
		}
		if !d.IsDir() {
			if path == root {
				return w.fs.Add(path)
			}
			return nil
		}
		if path != root && w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fs.Add(path); err != nil {
			return err
		}
		w.log.Debug("watching", slog.String("path", path))
		return nil
	})
}

// Close releases the underlying watcher, causing Forward to return.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Forward sends the name of each changed path to the Sender until the
// context is canceled or the Watcher is closed. Newly created
// directories are watched automatically. Watcher errors are logged and
// do not stop forwarding.
func (w *Watcher) Forward(ctx context.Context, tx *waker.Sender[string]) error {
	for {
		select {
		case <-ctx.Done():
			return context.Cause(ctx)

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(changeOps) || w.ignored(event.Name) {
				continue
			}
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.walk(event.Name); err != nil {
						w.log.Warn("could not watch new directory",
							slog.String("path", event.Name), slog.Any("error", err))
					}
				}
			}
			w.log.Debug("change", slog.String("path", event.Name), slog.String("op", event.Op.String()))
			tx.Send(event.Name)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watcher error", slog.Any("error", err))
		}
	}
}

// ignored returns true if any element of the path, below the watched
// root that contains it, is ignored.
func (w *Watcher) ignored(path string) bool {
	path = w.relative(path)
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if slices.Contains(w.ignore, part) {
			return true
		}
	}
	return false
}

// relative returns the path relative to the deepest watched root that
// contains it. Paths outside of every root are returned unchanged.
func (w *Watcher) relative(path string) string {
	w.mu.Lock()
	defer w.mu.Unlock()

	ret := path
	for _, root := range w.mu.roots {
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		if len(rel) < len(ret) {
			ret = rel
		}
	}
	return ret
}
