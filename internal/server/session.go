package server

import (
	"net"
	"sync"
	"sync/atomic"

	"tcpchat/internal/protocol"
)

var sessionIDs atomic.Uint64

// Session is the server-side state for one connected client.
//
// The name is written by the accept loop before the session is published and
// afterwards only by the owning worker under the registry write lock; peer
// workers read it while holding at least the registry read lock.
type Session struct {
	conn net.Conn
	addr net.Addr
	id   uint64
	name string

	sendMu sync.Mutex // keeps records from concurrent fan-outs from interleaving
}

func newSession(conn net.Conn) *Session {
	return &Session{
		conn: conn,
		addr: conn.RemoteAddr(),
		id:   sessionIDs.Add(1),
	}
}

func (s *Session) ID() uint64 { return s.id }

// send frames a pre-encoded record onto the session's socket.
func (s *Session) send(body []byte) error {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()
	return protocol.WriteRecord(s.conn, body)
}

func (s *Session) sendMessage(m *protocol.Message) error {
	body, err := m.Encode()
	if err != nil {
		return err
	}
	return s.send(body)
}

func (s *Session) recv() ([]byte, error) {
	return protocol.ReadRecord(s.conn)
}
