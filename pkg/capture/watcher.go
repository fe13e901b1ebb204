package capture

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/tetherbooth/pkg/log"
)

// File is one accepted photo.
type File struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// Result is the outcome of one Watch call.
type Result struct {
	// Files holds accepted files in detection order.
	Files []File

	// TimedOut is set when the deadline passed before the expected count
	// was reached. It is a normal outcome, not an error.
	TimedOut bool

	// Canceled is set when ctx ended the watch early.
	Canceled bool
}

// Complete reports whether the watch reached its expected count.
func (r Result) Complete() bool {
	return !r.TimedOut && !r.Canceled
}

// Paths returns the accepted file paths in detection order.
func (r Result) Paths() []string {
	out := make([]string, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Path
	}
	return out
}

// Baseline is the set of file names present before a shot.
type Baseline struct {
	names   map[string]struct{}
	TakenAt time.Time
}

// Contains reports whether name was present when the baseline was taken.
func (b Baseline) Contains(name string) bool {
	_, ok := b.names[name]
	return ok
}

// Len returns the number of names in the baseline.
func (b Baseline) Len() int {
	return len(b.names)
}

// With returns a copy of b that also contains names.
func (b Baseline) With(names ...string) Baseline {
	c := Baseline{names: make(map[string]struct{}, len(b.names)+len(names)), TakenAt: b.TakenAt}
	for n := range b.names {
		c.names[n] = struct{}{}
	}
	for _, n := range names {
		c.names[n] = struct{}{}
	}
	return c
}

// Watcher polls one directory for new stable files.
type Watcher struct {
	dir  string
	opts options
}

// New creates a Watcher for dir.
func New(dir string, opts ...Option) *Watcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Watcher{dir: dir, opts: o}
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Snapshot records the accepted-extension files currently in the directory.
// A missing directory yields an empty baseline.
func (w *Watcher) Snapshot() (Baseline, error) {
	names, err := w.list()
	if err != nil && !os.IsNotExist(err) {
		return Baseline{}, err
	}
	b := Baseline{
		names:   make(map[string]struct{}, len(names)),
		TakenAt: w.opts.clock.Now(),
	}
	for _, n := range names {
		b.names[n] = struct{}{}
	}
	return b, nil
}

type observation struct {
	size int64
	at   time.Time
}

// Watch polls until expected new files are stable, timeout elapses or ctx
// is done. Whatever was accepted is returned in every case.
func (w *Watcher) Watch(ctx context.Context, base Baseline, expected int, timeout time.Duration) Result {
	res, _ := w.WatchEach(ctx, base, expected, timeout, nil)
	return res
}

// WatchEach is Watch with a callback invoked for every accepted file, in
// detection order, before the next file is examined. A non-nil error from
// onAccept stops the watch; the file is still part of the result.
func (w *Watcher) WatchEach(ctx context.Context, base Baseline, expected int, timeout time.Duration, onAccept func(File) error) (Result, error) {
	var res Result
	if expected <= 0 {
		return res, nil
	}

	logger := log.With(w.opts.logger, log.String("dir", w.dir), log.Int("expected", expected))
	clock := w.opts.clock
	deadline := clock.Now().Add(timeout)

	wake := w.subscribe(logger)
	defer wake.close()

	pending := make(map[string]observation)
	reported := make(map[string]struct{})

	for {
		lastPoll := clock.Now()
		if err := w.poll(logger, base, pending, reported, &res, expected, onAccept); err != nil {
			return res, err
		}
		if len(res.Files) >= expected {
			w.opts.metrics.WatchDone("complete")
			return res, nil
		}

		remaining := deadline.Sub(clock.Now())
		if remaining <= 0 {
			res.TimedOut = true
			logger.Info("Capture window elapsed", log.Int("accepted", len(res.Files)))
			w.opts.metrics.WatchDone("timed_out")
			return res, nil
		}

		wait := w.opts.pollInterval
		if remaining < wait {
			wait = remaining
		}
		if !w.sleep(ctx, wait, wake, lastPoll) {
			res.Canceled = true
			w.opts.metrics.WatchDone("canceled")
			return res, nil
		}
	}
}

// sleep waits for d or an early wake-up. Wake-ups arriving within a quarter
// poll interval of the last scan are coalesced. It returns false when ctx is
// done.
func (w *Watcher) sleep(ctx context.Context, d time.Duration, wake *wakeSource, lastPoll time.Time) bool {
	clock := w.opts.clock
	timer := clock.NewTimer(d)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return false
		case <-timer.Chan():
			return true
		case <-wake.events:
			if clock.Since(lastPoll) >= w.opts.pollInterval/4 {
				return true
			}
		}
	}
}

// poll runs one scan: every candidate is observed once, and candidates whose
// size held for at least the settle delay are accepted.
func (w *Watcher) poll(logger log.Logger, base Baseline, pending map[string]observation, reported map[string]struct{}, res *Result, expected int, onAccept func(File) error) error {
	names, err := w.list()
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn("Failed to list watch directory", log.Err(err))
		}
		return nil
	}

	now := w.opts.clock.Now()
	present := make(map[string]struct{}, len(names))

	for _, name := range names {
		present[name] = struct{}{}
		if base.Contains(name) {
			continue
		}
		if _, ok := reported[name]; ok {
			continue
		}
		if len(res.Files) >= expected {
			return nil
		}

		path := filepath.Join(w.dir, name)
		fi, err := os.Stat(path)
		if err != nil {
			delete(present, name)
			continue
		}
		size := fi.Size()
		if size <= 0 {
			delete(pending, name)
			continue
		}

		prev, seen := pending[name]
		if !seen || prev.size != size {
			pending[name] = observation{size: size, at: now}
			continue
		}
		if now.Sub(prev.at) < w.opts.settleDelay {
			continue
		}

		delete(pending, name)
		reported[name] = struct{}{}
		f := File{Path: path, Name: name, Size: size, ModTime: fi.ModTime()}
		res.Files = append(res.Files, f)
		w.opts.metrics.Accepted()
		logger.Info("Capture accepted", log.String("file", name), log.Int64("size", size))
		if onAccept != nil {
			if err := onAccept(f); err != nil {
				return err
			}
		}
	}

	for name := range pending {
		if _, ok := present[name]; !ok {
			delete(pending, name)
			w.opts.metrics.Dropped()
			logger.Debug("Candidate vanished", log.String("file", name))
		}
	}
	return nil
}

// list returns regular files with an accepted extension, ordered by
// case-insensitive name.
func (w *Watcher) list() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		if _, ok := w.opts.extensions[strings.ToLower(filepath.Ext(e.Name()))]; !ok {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Slice(names, func(i, j int) bool {
		li, lj := strings.ToLower(names[i]), strings.ToLower(names[j])
		if li != lj {
			return li < lj
		}
		return names[i] < names[j]
	})
	return names, nil
}

// wakeSource forwards relevant file system events. A zero value never fires.
type wakeSource struct {
	fsw    *fsnotify.Watcher
	events chan struct{}
	done   chan struct{}
}

func (s *wakeSource) close() {
	if s.fsw == nil {
		return
	}
	close(s.done)
	_ = s.fsw.Close()
}

func (w *Watcher) subscribe(logger log.Logger) *wakeSource {
	src := &wakeSource{}
	if !w.opts.notify {
		return src
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("File notifications unavailable, polling only", log.Err(err))
		return src
	}
	if err := fsw.Add(w.dir); err != nil {
		_ = fsw.Close()
		logger.Warn("Failed to watch directory, polling only", log.Err(err))
		return src
	}

	src.fsw = fsw
	src.events = make(chan struct{}, 1)
	src.done = make(chan struct{})

	go func() {
		for {
			select {
			case <-src.done:
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename) == 0 {
					continue
				}
				select {
				case src.events <- struct{}{}:
				default:
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Debug("File notification error", log.Err(err))
			}
		}
	}()
	return src
}
