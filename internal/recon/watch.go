package recon

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultSettle is how long a parameter file must stay unchanged before it is
// reconstructed.
const DefaultSettle = 250 * time.Millisecond

// Watcher reconstructs meshes for parameter files as they appear in a
// directory.
type Watcher struct {
	r       *Runner
	fs      *fsnotify.Watcher
	dir     string
	pattern string

	// Settle delays each file until writes to it have stopped.
	Settle time.Duration
}

// NewWatcher starts watching dir for files whose base name matches pattern.
func (r *Runner) NewWatcher(dir, pattern string) (*Watcher, error) {
	if _, err := filepath.Match(pattern, ""); err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}

	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating watcher: %w", err)
	}
	if err := fsWatch.Add(dir); err != nil {
		fsWatch.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		r:       r,
		fs:      fsWatch,
		dir:     dir,
		pattern: pattern,
		Settle:  DefaultSettle,
	}, nil
}

// Run reconstructs every matching file created or rewritten in the directory,
// using tmpl for all job fields except ParamsPath and OutPath, until ctx is
// done. onResult, when non-nil, receives each outcome. A failed job is logged
// and does not stop the watch.
func (w *Watcher) Run(ctx context.Context, tmpl MeshJob, onResult func(params, out string, err error)) error {
	defer w.fs.Close()

	log := w.r.log.With(zap.String("dir", w.dir))
	log.Info("watching for parameter files", zap.String("pattern", w.pattern))

	tick := w.Settle / 2
	if tick <= 0 {
		tick = time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case e, ok := <-w.fs.Events:
			if !ok {
				return errors.New("watcher closed")
			}
			if e.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if match, _ := filepath.Match(w.pattern, filepath.Base(e.Name)); !match {
				continue
			}
			pending[e.Name] = time.Now()

		case err, ok := <-w.fs.Errors:
			if !ok {
				return errors.New("watcher closed")
			}
			log.Warn("watch error", zap.Error(err))

		case now := <-ticker.C:
			for path, changed := range pending {
				if now.Sub(changed) < w.Settle {
					continue
				}
				delete(pending, path)

				job := tmpl
				job.ParamsPath = path
				job.OutPath = ""
				out, err := w.r.Mesh(job)
				if err != nil {
					log.Error("reconstruction failed", zap.String("params", path), zap.Error(err))
				}
				if onResult != nil {
					onResult(path, out, err)
				}
			}
		}
	}
}

// Close stops the watch without running it.
func (w *Watcher) Close() error {
	return w.fs.Close()
}
