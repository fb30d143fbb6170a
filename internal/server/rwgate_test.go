package server

import (
	"testing"
	"time"
)

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func (g *RWGate) pending() (writers, readers int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pendingWriters, g.pendingReaders
}

func expectBlocked(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
		t.Fatalf("%s was admitted too early", what)
	case <-time.After(50 * time.Millisecond):
	}
}

func expectAdmitted(t *testing.T, what string, ch <-chan struct{}) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("%s was never admitted", what)
	}
}

func TestWriterExcludesReaders(t *testing.T) {
	g := NewRWGate()
	g.LockWrite()

	admitted := make(chan struct{})
	go func() {
		g.LockRead()
		close(admitted)
	}()

	waitFor(t, "reader to queue", func() bool { _, r := g.pending(); return r == 1 })
	expectBlocked(t, "reader", admitted)

	g.Unlock()
	expectAdmitted(t, "reader", admitted)
	g.Unlock()
}

func TestReadersShareTheGate(t *testing.T) {
	g := NewRWGate()
	g.LockRead()

	admitted := make(chan struct{})
	go func() {
		g.LockRead()
		close(admitted)
	}()
	expectAdmitted(t, "second reader", admitted)
	g.Unlock()
	g.Unlock()
}

// A writer that queues mid-stream is served before any reader that arrives
// after it, and before the earlier readers are re-admitted.
func TestWriterPriorityOverLateReaders(t *testing.T) {
	g := NewRWGate()
	g.LockRead()
	g.LockRead()

	writerGot := make(chan struct{})
	go func() {
		g.LockWrite()
		close(writerGot)
	}()
	waitFor(t, "writer to queue", func() bool { w, _ := g.pending(); return w == 1 })

	lateReaderGot := make(chan struct{})
	go func() {
		g.LockRead()
		close(lateReaderGot)
	}()
	waitFor(t, "late reader to queue", func() bool { _, r := g.pending(); return r == 1 })

	g.Unlock() // first reader leaves; one still holds
	expectBlocked(t, "writer", writerGot)

	g.Unlock() // last reader leaves; the writer must win
	expectAdmitted(t, "writer", writerGot)
	expectBlocked(t, "late reader", lateReaderGot)

	g.Unlock() // writer leaves; queued readers admitted
	expectAdmitted(t, "late reader", lateReaderGot)
	g.Unlock()
}

// All readers queued behind a writer are admitted together when it leaves.
func TestQueuedReadersAdmittedAsOneGeneration(t *testing.T) {
	g := NewRWGate()
	g.LockWrite()

	const n = 4
	admitted := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			g.LockRead()
			admitted <- struct{}{}
		}()
	}
	waitFor(t, "readers to queue", func() bool { _, r := g.pending(); return r == n })

	g.Unlock()
	for i := 0; i < n; i++ {
		select {
		case <-admitted:
		case <-time.After(2 * time.Second):
			t.Fatalf("only %d of %d readers admitted", i, n)
		}
	}
	for i := 0; i < n; i++ {
		g.Unlock()
	}

	// the gate must be fully drained and reusable
	g.LockWrite()
	g.Unlock()
}
