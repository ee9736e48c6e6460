package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// BuildHook observes every build the watcher runs
type BuildHook func(result *Result, err error)

// Watcher rebuilds targets when their schema files change
type Watcher struct {
	service  CompileServiceInterface
	targets  map[string]Target // Absolute schema path -> target
	order    []string
	debounce time.Duration
	logger   *slog.Logger
	hook     BuildHook
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithBuildHook registers a function called after every build
func WithBuildHook(hook BuildHook) WatcherOption {
	return func(w *Watcher) {
		w.hook = hook
	}
}

// NewWatcher creates a watcher for targets
func NewWatcher(service CompileServiceInterface, targets []Target, debounce time.Duration, logger *slog.Logger, opts ...WatcherOption) (*Watcher, error) {
	if len(targets) == 0 {
		return nil, ErrNoTargets
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	w := &Watcher{
		service:  service,
		targets:  make(map[string]Target, len(targets)),
		debounce: debounce,
		logger:   logger,
	}
	for _, t := range targets {
		abs, err := filepath.Abs(t.SchemaPath)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", t.SchemaPath, err)
		}
		if _, dup := w.targets[abs]; !dup {
			w.order = append(w.order, abs)
		}
		w.targets[abs] = t
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Run builds every target once, then rebuilds a target each time its schema file is
// written or created. Build failures are logged and do not stop
// the watcher. Run returns when ctx is done.
func (w *Watcher) Run(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	// Editors often replace files, so the directories are watched rather than the files.
	watched := make(map[string]bool)
	for _, path := range w.order {
		dir := filepath.Dir(path)
		if watched[dir] {
			continue
		}
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		watched[dir] = true
	}

	// Each watch starts with an empty compile cache.
	w.service.ResetCache()
	for _, path := range w.order {
		w.build(ctx, w.targets[path])
	}
	w.logger.Info("watching schemas", slog.Int("targets", len(w.order)), slog.Duration("debounce", w.debounce))

	pending := newPendingBuilds(w.debounce)
	defer pending.stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			path := filepath.Clean(event.Name)
			if _, ok := w.targets[path]; !ok {
				continue
			}
			pending.schedule(ctx, path)

		case f := <-pending.fired:
			if !pending.claim(f) {
				continue
			}
			w.logger.Debug("schema changed", slog.String("schema", f.path))
			w.build(ctx, w.targets[f.path])

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watcher error", slog.Any("error", err))
		}
	}
}

func (w *Watcher) build(ctx context.Context, target Target) {
	result, err := w.service.Build(ctx, target)
	if err != nil {
		w.logger.Error("build failed", slog.String("schema", target.SchemaPath), slog.Any("error", err))
	}
	if w.hook != nil {
		w.hook(result, err)
	}
}

// firing is a debounce timer of one schema path that ran out
type firing struct {
	path string
	gen  uint64
}

// pendingBuilds debounces rebuilds, one timer per schema path. Every schedule bumps the
// generation of its path, so a timer that fired just before being replaced is ignored.
type pendingBuilds struct {
	delay  time.Duration
	fired  chan firing
	timers map[string]*time.Timer
	gen    map[string]uint64
}

func newPendingBuilds(delay time.Duration) *pendingBuilds {
	return &pendingBuilds{
		delay:  delay,
		fired:  make(chan firing),
		timers: make(map[string]*time.Timer),
		gen:    make(map[string]uint64),
	}
}

// schedule (re)starts the timer of path
func (p *pendingBuilds) schedule(ctx context.Context, path string) {
	if t, ok := p.timers[path]; ok {
		t.Stop()
	}
	p.gen[path]++
	f := firing{path: path, gen: p.gen[path]}
	p.timers[path] = time.AfterFunc(p.delay, func() {
		select {
		case p.fired <- f:
		case <-ctx.Done():
		}
	})
}

// claim reports whether f comes from the latest timer of its path and forgets that timer
func (p *pendingBuilds) claim(f firing) bool {
	if p.gen[f.path] != f.gen {
		return false
	}
	delete(p.timers, f.path)
	return true
}

func (p *pendingBuilds) stop() {
	for _, t := range p.timers {
		t.Stop()
	}
}
