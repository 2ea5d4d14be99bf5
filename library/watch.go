package library

import (
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/ferraris/geometry_browser/logger"
)

// Watch keeps the index in sync with the directory until Close.
func (l *Library) Watch() error {
	if l.watcher != nil {
		return errors.New("library is already watched")
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrapf(err, "Cannot create watcher")
	}
	if err := w.Add(l.dir); err != nil {
		w.Close()
		return errors.Wrapf(err, "Cannot watch %q", l.dir)
	}
	l.watcher = w
	l.done = make(chan struct{})

	// files created between the scan and the watch would be missed
	if err := l.Rescan(); err != nil {
		logger.Warnf("Rescan before watch: %v", err)
	}

	l.wg.Add(1)
	go l.run()
	return nil
}

func (l *Library) run() {
	defer l.wg.Done()
	for {
		select {
		case e, ok := <-l.watcher.Events:
			if !ok {
				return
			}
			if e.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			logger.Debugf("Library event %v", e)
			if ev, changed := l.refresh(e.Name); changed && l.OnChange != nil {
				l.OnChange(ev)
			}

		case err, ok := <-l.watcher.Errors:
			if !ok {
				return
			}
			logger.Errorf("Library watcher: %v", err)

		case <-l.done:
			return
		}
	}
}

func (l *Library) Close() error {
	if l.watcher == nil {
		return nil
	}
	close(l.done)
	err := l.watcher.Close()
	l.wg.Wait()
	l.watcher = nil
	return err
}
