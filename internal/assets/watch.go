package assets

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/mitsuqtt/buildident/internal/log"
)

// WatchDebounce is the minimum gap between two reports for the same file.
const WatchDebounce = 300 * time.Millisecond

// Change reports an asset edit that makes the bundle object stale.
type Change struct {
	Path   string
	Target string
	Op     fsnotify.Op
}

// Watcher reports template and stylesheet edits under the asset root.
type Watcher struct {
	registrar Registrar
	target    string
	watcher   *fsnotify.Watcher
	root      string

	mu    sync.Mutex
	paths map[string]struct{}
	last  map[string]time.Time
}

// NewWatcher prepares a watcher for r; target is the already substituted
// bundle object path reported with each change.
func NewWatcher(r Registrar, target string) *Watcher {
	return &Watcher{
		registrar: r,
		target:    target,
		paths:     make(map[string]struct{}),
		last:      make(map[string]time.Time),
	}
}

// Start registers the asset tree and delivers changes on the returned
// channel until ctx is cancelled. The channel is closed on exit.
func (w *Watcher) Start(ctx context.Context) (<-chan Change, error) {
	root, err := filepath.Abs(w.registrar.Root)
	if err != nil {
		return nil, err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w.root = root
	w.watcher = watcher
	w.addWatchTree(root)

	out := make(chan Change)
	go w.run(ctx, out)
	return out, nil
}

func (w *Watcher) run(ctx context.Context, out chan<- Change) {
	defer close(out)
	defer func() { _ = w.watcher.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if event.Op&fsnotify.Create != 0 {
				w.maybeWatchNewDir(event.Name)
			}
			if !w.registrar.Matches(event.Name) || !w.shouldReport(event.Name, time.Now()) {
				continue
			}
			select {
			case out <- Change{Path: event.Name, Target: w.target, Op: event.Op}:
			case <-ctx.Done():
				return
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			log.Printf("asset watcher error: %v", err)
		}
	}
}

func (w *Watcher) shouldReport(path string, now time.Time) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if last, ok := w.last[path]; ok && now.Sub(last) < WatchDebounce {
		return false
	}
	w.last[path] = now
	return true
}

func (w *Watcher) isUnderRoot(path string) bool {
	return path == w.root || strings.HasPrefix(path, w.root+string(filepath.Separator))
}

func (w *Watcher) maybeWatchNewDir(path string) {
	if !w.isUnderRoot(path) {
		return
	}
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	w.addWatchTree(path)
}

func (w *Watcher) addWatchDir(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.paths[path]; ok {
		return
	}
	if err := w.watcher.Add(path); err != nil {
		log.Printf("asset watcher add failed for %s: %v", path, err)
		return
	}
	w.paths[path] = struct{}{}
}

func (w *Watcher) addWatchTree(root string) {
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		w.addWatchDir(path)
		return nil
	})
}
