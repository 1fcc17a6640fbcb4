// services/watch.go
package services

import (
	"sync"
	"time"
)

// Snapshot is one ordered result set delivered to a subscriber. A non-nil
// Err is terminal: the watcher delivers it once and closes its channel.
type Snapshot[T any] struct {
	Items []T
	Err   error
}

// QueryFunc produces the current ordered result set for a watcher.
type QueryFunc[T any] func() ([]T, error)

// FingerprintFunc reduces one item to a change-detection token. Snapshots
// are delivered only when the joined fingerprints of the result set differ
// from the previous poll.
type FingerprintFunc[T any] func(T) string

// Watcher is an explicit collection-scoped live subscription: it registers
// interest in an ordered query, polls it on a ticker, and pushes a snapshot
// whenever the result set changes. The first snapshot is delivered
// immediately, even when empty. Close is idempotent and blocks until the
// poll loop has stopped, so no snapshot can arrive after Close returns.
// That guarantee is what lets a roster switch tournaments without a stale
// cross-tournament flash.
type Watcher[T any] struct {
	ch   chan Snapshot[T]
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

func NewWatcher[T any](interval time.Duration, query QueryFunc[T], fingerprint FingerprintFunc[T]) *Watcher[T] {
	w := &Watcher[T]{
		ch:   make(chan Snapshot[T], 1),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
	go w.run(interval, query, fingerprint)
	return w
}

// Snapshots delivers ordered snapshots. The channel closes after a terminal
// error or Close.
func (w *Watcher[T]) Snapshots() <-chan Snapshot[T] {
	return w.ch
}

// Close tears the subscription down. Safe to call more than once.
func (w *Watcher[T]) Close() {
	w.once.Do(func() { close(w.stop) })
	<-w.done
}

func (w *Watcher[T]) run(interval time.Duration, query QueryFunc[T], fingerprint FingerprintFunc[T]) {
	defer close(w.done)
	defer close(w.ch)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last string
	first := true

	poll := func() bool {
		items, err := query()
		if err != nil {
			w.send(Snapshot[T]{Err: err})
			return false
		}

		var b []byte
		for _, item := range items {
			b = append(b, fingerprint(item)...)
			b = append(b, '\x1f')
		}
		fp := string(b)
		if !first && fp == last {
			return true
		}
		first = false
		last = fp
		w.send(Snapshot[T]{Items: items})
		return true
	}

	if !poll() {
		return
	}
	for {
		select {
		case <-w.stop:
			return
		case <-ticker.C:
			if !poll() {
				return
			}
		}
	}
}

// send keeps only the latest snapshot when the subscriber lags: a stale
// pending snapshot is dropped in favour of the new one.
func (w *Watcher[T]) send(s Snapshot[T]) {
	for {
		select {
		case w.ch <- s:
			return
		default:
			select {
			case <-w.ch:
			default:
			}
		}
	}
}
