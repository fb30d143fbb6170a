package server

import "sync"

// RWGate is a readers-writer gate with writer priority: a queued writer
// blocks newly arriving readers, and releasing the last user either promotes
// exactly one writer or admits every queued reader as one generation.
type RWGate struct {
	mu       sync.Mutex
	canRead  *sync.Cond
	canWrite *sync.Cond

	currUsers      int // -1 one writer; > 0 reader count; 0 idle
	pendingWriters int
	pendingReaders int

	writerTokens int    // writers promoted by Unlock but not yet resumed
	readGen      uint64 // bumped once per admitted reader generation
}

func NewRWGate() *RWGate {
	g := &RWGate{}
	g.canRead = sync.NewCond(&g.mu)
	g.canWrite = sync.NewCond(&g.mu)
	return g
}

// LockRead acquires shared access. It queues behind any pending writer.
func (g *RWGate) LockRead() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currUsers == -1 || g.pendingWriters > 0 {
		g.pendingReaders++
		gen := g.readGen
		for g.readGen == gen {
			g.canRead.Wait()
		}
		// admitted readers were counted into currUsers by Unlock
		return
	}
	g.currUsers++
}

// LockWrite acquires exclusive access.
func (g *RWGate) LockWrite() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.currUsers != 0 {
		g.pendingWriters++
		for g.writerTokens == 0 {
			g.canWrite.Wait()
		}
		g.writerTokens--
		return
	}
	g.currUsers = -1
}

// Unlock releases one holder, reader or writer. When the gate drains it
// promotes a pending writer first, otherwise admits all pending readers.
func (g *RWGate) Unlock() {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.currUsers == -1 {
		g.currUsers = 0
	} else if g.currUsers > 0 {
		g.currUsers--
	}
	if g.currUsers != 0 {
		return
	}

	if g.pendingWriters > 0 {
		g.currUsers = -1
		g.pendingWriters--
		g.writerTokens++
		g.canWrite.Signal()
	} else if g.pendingReaders > 0 {
		g.currUsers = g.pendingReaders
		g.pendingReaders = 0
		g.readGen++
		g.canRead.Broadcast()
	}
}
