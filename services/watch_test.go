package services

import (
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const watchTestInterval = 5 * time.Millisecond

// mutableSource simulates a collection the watcher polls.
type mutableSource struct {
	mu    sync.Mutex
	items []int
	err   error
}

func (s *mutableSource) query() ([]int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return append([]int(nil), s.items...), nil
}

func (s *mutableSource) set(items ...int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = items
}

func (s *mutableSource) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

func newIntWatcher(src *mutableSource) *Watcher[int] {
	return NewWatcher(watchTestInterval, src.query, strconv.Itoa)
}

func TestWatcherDeliversInitialSnapshotEvenWhenEmpty(t *testing.T) {
	src := &mutableSource{}
	w := newIntWatcher(src)
	defer w.Close()

	select {
	case snap := <-w.Snapshots():
		require.NoError(t, snap.Err)
		assert.Empty(t, snap.Items)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot delivered")
	}
}

func TestWatcherDeliversOnChangeOnly(t *testing.T) {
	src := &mutableSource{}
	src.set(1, 2)
	w := newIntWatcher(src)
	defer w.Close()

	snap := <-w.Snapshots()
	require.NoError(t, snap.Err)
	assert.Equal(t, []int{1, 2}, snap.Items)

	// Unchanged result set: nothing should arrive while we wait.
	select {
	case snap := <-w.Snapshots():
		t.Fatalf("unexpected snapshot for unchanged data: %+v", snap)
	case <-time.After(10 * watchTestInterval):
	}

	src.set(1, 2, 3)
	select {
	case snap := <-w.Snapshots():
		require.NoError(t, snap.Err)
		assert.Equal(t, []int{1, 2, 3}, snap.Items)
	case <-time.After(time.Second):
		t.Fatal("no snapshot after mutation")
	}
}

func TestWatcherKeepsLatestWhenSubscriberLags(t *testing.T) {
	src := &mutableSource{}
	w := newIntWatcher(src)
	defer w.Close()

	// Let several mutations happen without reading.
	for i := 1; i <= 5; i++ {
		src.set(i)
		time.Sleep(3 * watchTestInterval)
	}

	var last Snapshot[int]
	deadline := time.After(time.Second)
	for {
		select {
		case snap := <-w.Snapshots():
			last = snap
			if len(snap.Items) == 1 && snap.Items[0] == 5 {
				return
			}
		case <-deadline:
			t.Fatalf("never saw the latest value, last snapshot: %+v", last)
		}
	}
}

func TestWatcherErrorIsTerminal(t *testing.T) {
	src := &mutableSource{}
	w := newIntWatcher(src)
	defer w.Close()

	<-w.Snapshots() // initial

	src.fail(errors.New("connection lost"))

	select {
	case snap := <-w.Snapshots():
		require.Error(t, snap.Err)
	case <-time.After(time.Second):
		t.Fatal("no error snapshot delivered")
	}

	// Channel must be closed after the terminal error.
	select {
	case _, ok := <-w.Snapshots():
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after terminal error")
	}
}

func TestWatcherCloseStopsDelivery(t *testing.T) {
	src := &mutableSource{}
	src.set(1)
	w := newIntWatcher(src)

	<-w.Snapshots()
	w.Close()

	// Close returned, so the poll loop has stopped: mutations after this
	// point may never surface.
	src.set(2)
	select {
	case snap, ok := <-w.Snapshots():
		if ok {
			t.Fatalf("snapshot delivered after Close: %+v", snap)
		}
	case <-time.After(5 * watchTestInterval):
		t.Fatal("channel not closed after Close")
	}

	// Close is idempotent.
	w.Close()
}
