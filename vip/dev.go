package vip

import (
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/howeyc/fsnotify"
)

// WatchROM reloads path into r whenever the file changes on disk,
// debouncing the burst of events an editor save produces. It does not
// return except on watcher setup failure, so it is normally run on its
// own goroutine.
func WatchROM(path string, r *Runner) error {
	path = filepath.Clean(path)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()
	// Watch the directory, not the file: editors that rename into
	// place would otherwise silently detach the watch.
	if err := watcher.Watch(filepath.Dir(path)); err != nil {
		return err
	}

	var reload <-chan time.Time
	for {
		select {
		case <-reload:
			rom, err := os.ReadFile(path)
			if err != nil {
				log.Printf("dev: %v", err)
				break
			}
			log.Printf("dev: reset %s", filepath.Base(path))
			r.Swap(rom)
		case ev := <-watcher.Event:
			if ev.Name == path && !ev.IsAttrib() {
				reload = time.After(100 * time.Millisecond)
			}
		case err := <-watcher.Error:
			log.Printf("dev: watcher: %v", err)
		}
	}
}
