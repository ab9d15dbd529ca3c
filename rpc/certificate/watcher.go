// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package certificate

import (
	"os"
	"path/filepath"
	"time"

	"github.com/bitmark-inc/logger"
	"github.com/fsnotify/fsnotify"
)

// DefaultSettle - wait after the last change before reloading, so a
// certificate and key written one after the other are read together
const DefaultSettle = 5 * time.Second

// Watcher - background process reloading a store when its
// certificate file's modification time changes
type Watcher struct {
	log      *logger.L
	store    *Store
	settle   time.Duration
	modified time.Time
}

// NewWatcher - settle of zero selects DefaultSettle
func NewWatcher(store *Store, settle time.Duration) *Watcher {
	if settle <= 0 {
		settle = DefaultSettle
	}
	w := &Watcher{
		log:    logger.New("certificate"),
		store:  store,
		settle: settle,
	}
	w.modified = w.modificationTime()
	return w
}

// Run - implements background.Process
func (w *Watcher) Run(args interface{}, shutdown <-chan struct{}) {
	watcher, err := fsnotify.NewWatcher()
	if nil != err {
		w.log.Errorf("new watcher error: %s", err)
		return
	}
	defer watcher.Close()

	// watch the directory so a replaced file is still seen
	fileName := w.store.CertificateFile()
	if err := watcher.Add(filepath.Dir(fileName)); nil != err {
		w.log.Errorf("watch: %q  error: %s", fileName, err)
		return
	}

	var settled <-chan time.Time

loop:
	for {
		select {
		case <-shutdown:
			break loop

		case event, ok := <-watcher.Events:
			if !ok {
				break loop
			}
			if filepath.Base(event.Name) != filepath.Base(fileName) {
				continue
			}
			if 0 == event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Chmod) {
				continue
			}
			modified := w.modificationTime()
			if modified.IsZero() || modified.Equal(w.modified) {
				continue
			}
			w.modified = modified
			w.log.Infof("certificate changed: %q  reload in: %s", fileName, w.settle)
			settled = time.After(w.settle)

		case err, ok := <-watcher.Errors:
			if !ok {
				break loop
			}
			w.log.Warnf("watcher error: %s", err)

		case <-settled:
			settled = nil
			if nil == w.store.Reload() {
				w.log.Info("certificate reloaded")
			}
		}
	}
	w.log.Info("shutting down…")
}

func (w *Watcher) modificationTime() time.Time {
	info, err := os.Stat(w.store.CertificateFile())
	if nil != err {
		return time.Time{}
	}
	return info.ModTime()
}
