package backend

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"k8s.io/client-go/tools/clientcmd"

	"github.com/luxury-yacht/flowtest-console/backend/internal/config"
)

// Editor and tooling leftovers that never hold a kubeconfig.
var kubeconfigSkipSuffixes = []string{
	".bak", ".backup", ".old", ".tmp", ".swp", ".swo",
	"~", ".orig", ".rej", ".lock", ".log",
}

// watchedPath describes a watched directory and an optional filename filter.
type watchedPath struct {
	dir         string
	filterFiles map[string]struct{}
}

type kubeconfigWatcher struct {
	logger    *Logger
	debounce  time.Duration
	watcher   *fsnotify.Watcher
	onChange  func([]string)
	stopCh    chan struct{}
	stoppedCh chan struct{}

	mu          sync.Mutex
	watched     []watchedPath
	fileFilters map[string]map[string]struct{}
}

func newKubeconfigWatcher(logger *Logger, onChange func([]string)) (*kubeconfigWatcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &kubeconfigWatcher{
		logger:      logger,
		debounce:    config.KubeconfigDebounce,
		watcher:     fsWatcher,
		onChange:    onChange,
		stopCh:      make(chan struct{}),
		stoppedCh:   make(chan struct{}),
		fileFilters: make(map[string]map[string]struct{}),
	}

	go w.eventLoop()
	return w, nil
}

func (w *kubeconfigWatcher) eventLoop() {
	defer close(w.stoppedCh)

	var debounceTimer *time.Timer
	var debounceCh <-chan time.Time
	changedPaths := make(map[string]struct{})

	flush := func() {
		if len(changedPaths) == 0 || w.onChange == nil {
			return
		}
		paths := make([]string, 0, len(changedPaths))
		for p := range changedPaths {
			paths = append(paths, p)
		}
		changedPaths = make(map[string]struct{})
		w.onChange(paths)
	}

	for {
		select {
		case <-w.stopCh:
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !isRelevantFSEvent(event) {
				continue
			}

			filename := filepath.Base(event.Name)
			dir := filepath.Dir(event.Name)

			w.mu.Lock()
			if filters, hasFilters := w.fileFilters[dir]; hasFilters {
				if _, accepted := filters[filename]; !accepted {
					w.mu.Unlock()
					continue
				}
			} else if shouldSkipKubeconfigName(filename) {
				w.mu.Unlock()
				continue
			}
			w.mu.Unlock()

			changedPaths[filepath.Clean(event.Name)] = struct{}{}
			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.NewTimer(w.debounce)
			debounceCh = debounceTimer.C

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			if w.logger != nil {
				w.logger.Warn(fmt.Sprintf("kubeconfig watcher error: %v", err), "KubeconfigWatcher")
			}

		case <-debounceCh:
			debounceCh = nil
			flush()
		}
	}
}

func isRelevantFSEvent(event fsnotify.Event) bool {
	return event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) != 0
}

func (w *kubeconfigWatcher) updateWatchedPaths(paths []watchedPath) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	currentDirs := make(map[string]struct{}, len(w.watched))
	for _, wp := range w.watched {
		currentDirs[wp.dir] = struct{}{}
	}

	type mergedEntry struct {
		dir         string
		filterFiles map[string]struct{}
		unfiltered  bool
	}
	merged := make(map[string]*mergedEntry, len(paths))
	for _, wp := range paths {
		info, err := os.Stat(wp.dir)
		if err != nil || !info.IsDir() {
			continue
		}

		entry, ok := merged[wp.dir]
		if !ok {
			entry = &mergedEntry{dir: wp.dir}
			merged[wp.dir] = entry
		}

		if len(wp.filterFiles) == 0 {
			entry.unfiltered = true
			entry.filterFiles = nil
			continue
		}
		if entry.unfiltered {
			continue
		}
		if entry.filterFiles == nil {
			entry.filterFiles = make(map[string]struct{})
		}
		for name := range wp.filterFiles {
			entry.filterFiles[name] = struct{}{}
		}
	}

	desiredDirs := make(map[string]struct{}, len(merged))
	for dir := range merged {
		desiredDirs[dir] = struct{}{}
	}

	for dir := range currentDirs {
		if _, ok := desiredDirs[dir]; ok {
			continue
		}
		_ = w.watcher.Remove(dir)
	}
	for dir := range desiredDirs {
		if _, ok := currentDirs[dir]; ok {
			continue
		}
		if err := w.watcher.Add(dir); err != nil && w.logger != nil {
			w.logger.Warn("Failed to watch directory: "+dir, "KubeconfigWatcher")
		}
	}

	w.watched = make([]watchedPath, 0, len(merged))
	w.fileFilters = make(map[string]map[string]struct{})
	for _, entry := range merged {
		wp := watchedPath{dir: entry.dir}
		if !entry.unfiltered && entry.filterFiles != nil {
			wp.filterFiles = entry.filterFiles
			w.fileFilters[entry.dir] = entry.filterFiles
		}
		w.watched = append(w.watched, wp)
	}

	return nil
}

func (w *kubeconfigWatcher) stop() {
	select {
	case <-w.stopCh:
		return
	default:
		close(w.stopCh)
	}
	_ = w.watcher.Close()
	<-w.stoppedCh
}

func shouldSkipKubeconfigName(name string) bool {
	if strings.HasPrefix(name, ".") && name != ".kubeconfig" {
		return true
	}
	lower := strings.ToLower(name)
	for _, suffix := range kubeconfigSkipSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return true
		}
	}
	return strings.Contains(lower, "cache") || strings.Contains(lower, "token")
}

// kubeconfigWatchPaths lists the directories holding the kubeconfig files the
// console loads, filtered to those file names. An explicit path wins over
// KUBECONFIG and the default ~/.kube/config.
func kubeconfigWatchPaths(explicit string) []watchedPath {
	var files []string
	if explicit != "" {
		files = []string{explicit}
	} else {
		files = clientcmd.NewDefaultClientConfigLoadingRules().Precedence
	}

	byDir := make(map[string]map[string]struct{})
	var order []string
	for _, file := range files {
		if file == "" {
			continue
		}
		abs, err := filepath.Abs(file)
		if err != nil {
			continue
		}
		dir := filepath.Dir(abs)
		if _, ok := byDir[dir]; !ok {
			byDir[dir] = make(map[string]struct{})
			order = append(order, dir)
		}
		byDir[dir][filepath.Base(abs)] = struct{}{}
	}

	paths := make([]watchedPath, 0, len(order))
	for _, dir := range order {
		paths = append(paths, watchedPath{dir: dir, filterFiles: byDir[dir]})
	}
	return paths
}

// startKubeconfigWatcher rebuilds cluster clients whenever a loaded kubeconfig changes.
func (a *App) startKubeconfigWatcher() {
	if a.watcher != nil {
		return
	}
	w, err := newKubeconfigWatcher(a.logger, a.reloadClients)
	if err != nil {
		a.logger.Warn(fmt.Sprintf("Failed to start kubeconfig watcher: %v", err), "KubeconfigWatcher")
		return
	}
	if err := w.updateWatchedPaths(kubeconfigWatchPaths(a.settings.Kubeconfig)); err != nil {
		a.logger.Warn(fmt.Sprintf("Failed to watch kubeconfig: %v", err), "KubeconfigWatcher")
	}
	a.watcher = w
}

// reloadClients swaps in clients built from the changed kubeconfig. The
// previous clients stay in place when the rebuild fails.
func (a *App) reloadClients(paths []string) {
	a.logger.Info(fmt.Sprintf("Kubeconfig changed (%s), rebuilding clients", strings.Join(paths, ", ")), "KubeconfigWatcher")
	if err := a.initKubeClient(); err != nil {
		a.logger.Warn(fmt.Sprintf("Keeping previous clients: %v", err), "KubeconfigWatcher")
	}
}
