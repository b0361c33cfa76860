// Package watcher reloads the dataset when its file changes on disk.
//
// Change notifications come from fsnotify, or from polling the file's size
// and modification time on remote filesystems and when HV_FORCE_POLL is
// set. Either way a notification only schedules a content check: the file
// is reloaded when its digest differs from the last one seen, so a touch
// or a save of identical bytes costs no reload.
package watcher

import (
	"context"
	"crypto/sha256"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/vanderheijden86/hierview/pkg/debug"
	"github.com/vanderheijden86/hierview/pkg/model"
)

// DefaultPollInterval is how often the file is stat'ed in polling mode.
const DefaultPollInterval = 2 * time.Second

var (
	ErrFileRemoved    = errors.New("watched file was removed")
	ErrAlreadyStarted = errors.New("watcher already started")
)

// LoadFunc loads the dataset at path.
type LoadFunc func(path string) (*model.Dataset, error)

// Reload is the outcome of reloading the dataset after a change.
type Reload struct {
	Dataset *model.Dataset
	Err     error
}

// Reloader watches one dataset file and reloads it when its content
// changes. Only the most recent outcome is kept if the reader falls
// behind.
type Reloader struct {
	path         string
	load         LoadFunc
	out          chan Reload
	debounce     time.Duration
	pollInterval time.Duration
	forcePoll    bool

	mu        sync.Mutex
	started   bool
	polling   bool
	cancel    context.CancelFunc
	fsw       *fsnotify.Watcher
	debouncer *Debouncer

	// Last content seen; present is false once the file went missing.
	digest  [sha256.Size]byte
	present bool
}

// NewReloader creates a reloader for path. Call Start to begin watching.
func NewReloader(path string, load LoadFunc) (*Reloader, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	return &Reloader{
		path:         abs,
		load:         load,
		out:          make(chan Reload, 1),
		debounce:     DefaultDebounceDuration,
		pollInterval: DefaultPollInterval,
	}, nil
}

// Start records the current content and begins watching.
func (r *Reloader) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		return ErrAlreadyStarted
	}
	r.digest, r.present = [sha256.Size]byte{}, false
	if d, err := fileDigest(r.path); err == nil {
		r.digest, r.present = d, true
	}

	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.debouncer = NewDebouncer(r.debounce)

	fsType := detectFilesystemTypeFunc(r.path)
	r.polling = r.forcePoll || envBool("HV_FORCE_POLL") || isRemoteFilesystem(fsType)
	if !r.polling {
		if err := r.startFsnotify(ctx); err != nil {
			debug.Log("watcher: fsnotify unavailable for %s, polling: %v", r.path, err)
			r.polling = true
		}
	}
	if r.polling {
		go r.poll(ctx)
	}
	debug.Log("watcher: watching %s (%s filesystem, polling=%v)", r.path, fsType, r.polling)

	r.started = true
	return nil
}

// Stop stops watching. A pending content check is dropped.
func (r *Reloader) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		return
	}
	r.cancel()
	if r.fsw != nil {
		r.fsw.Close()
		r.fsw = nil
	}
	r.debouncer.Cancel()
	r.started = false
}

// Reloads delivers reload outcomes.
func (r *Reloader) Reloads() <-chan Reload {
	return r.out
}

// Path returns the watched file path.
func (r *Reloader) Path() string {
	return r.path
}

// IsPolling reports whether the reloader polls instead of using fsnotify.
func (r *Reloader) IsPolling() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.polling
}

// startFsnotify watches the file's directory, which also sees the rename
// of an atomic save. Called with r.mu held.
func (r *Reloader) startFsnotify(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	if err := fsw.Add(filepath.Dir(r.path)); err != nil {
		fsw.Close()
		return err
	}
	r.fsw = fsw
	go r.watchEvents(ctx, fsw.Events, fsw.Errors)
	return nil
}

func (r *Reloader) watchEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) {
	name := filepath.Base(r.path)
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != name {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0 {
				r.debouncer.Trigger(r.check)
			}
		case err, ok := <-errs:
			if !ok {
				return
			}
			r.publish(Reload{Err: err})
		}
	}
}

func (r *Reloader) poll(ctx context.Context) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	var mtime time.Time
	var size int64 = -1
	if info, err := os.Stat(r.path); err == nil {
		mtime, size = info.ModTime(), info.Size()
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		info, err := os.Stat(r.path)
		switch {
		case err != nil && size < 0:
			continue
		case err != nil:
			size = -1
		case info.ModTime().Equal(mtime) && info.Size() == size:
			continue
		default:
			mtime, size = info.ModTime(), info.Size()
		}
		r.debouncer.Trigger(r.check)
	}
}

// check reloads the file if its content differs from the last content
// seen, and reports a removal once.
func (r *Reloader) check() {
	d, err := fileDigest(r.path)

	r.mu.Lock()
	if !r.started {
		r.mu.Unlock()
		return
	}
	if err != nil {
		wasPresent := r.present
		r.present = false
		r.mu.Unlock()
		switch {
		case !os.IsNotExist(err):
			r.publish(Reload{Err: err})
		case wasPresent:
			r.publish(Reload{Err: ErrFileRemoved})
		}
		return
	}
	unchanged := r.present && d == r.digest
	r.digest, r.present = d, true
	r.mu.Unlock()

	if unchanged {
		debug.Log("watcher: %s touched without content change", r.path)
		return
	}
	ds, err := r.load(r.path)
	debug.LogIf(err != nil, "watcher: reload of %s failed: %v", r.path, err)
	r.publish(Reload{Dataset: ds, Err: err})
}

// publish replaces any undelivered outcome with o.
func (r *Reloader) publish(o Reload) {
	for {
		select {
		case r.out <- o:
			return
		default:
		}
		select {
		case <-r.out:
		default:
		}
	}
}

func fileDigest(path string) ([sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, err
	}
	return sha256.Sum256(data), nil
}

func envBool(name string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(name))) {
	case "1", "true", "yes", "y", "on":
		return true
	}
	return false
}
