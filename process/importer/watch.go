package importer

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// settle is how long a file must stay quiet before it is imported.
const settle = 300 * time.Millisecond

// Watch imports CSV files as they appear in Dir until ctx is cancelled.
// Files already present once the watcher is registered are queued too.
// Events are debounced so a file still being written is not read early.
func (im *Importer) Watch(ctx context.Context, workers int) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(im.Dir); err != nil {
		return err
	}
	log.Printf("Watching %s (debounced) ...", im.Dir)

	fileCh := make(chan string, 256)
	done := make(chan struct{})
	if workers <= 0 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		go func() {
			for name := range fileCh {
				if res := im.ImportFile(ctx, name); res.Err != nil {
					log.Printf("ERROR %s: %v", name, res.Err)
				}
			}
			done <- struct{}{}
		}()
	}
	defer func() {
		close(fileCh)
		for i := 0; i < workers; i++ {
			<-done
		}
	}()

	pending := map[string]time.Time{}
	for _, name := range ListFiles(im.Dir) {
		pending[name] = time.Now()
	}
	ticker := time.NewTicker(settle / 2)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if filepath.Dir(ev.Name) != filepath.Clean(im.Dir) || !isSupportedExt(name) {
				continue
			}
			pending[name] = time.Now()
		case <-ticker.C:
			now := time.Now()
			for name, t := range pending {
				if now.Sub(t) > settle {
					delete(pending, name)
					fileCh <- name
				}
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Printf("watch error: %v", err)
		}
	}
}
