package server

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync/atomic"
	"syscall"
	"time"

	"tcpchat/internal/protocol"
)

const DEFAULT_PORT = 51488

const (
	acceptPollInterval = 100 * time.Millisecond
	handshakeTimeout   = 5 * time.Second
)

// Server accepts chat clients and routes their records. One worker
// goroutine runs per session; shutdown is cooperative through the exit flag
// plus closing every session socket.
type Server struct {
	port uint16
	ln   *net.TCPListener
	reg  *Registry
	exit atomic.Bool

	operator io.Reader // the operator's stdin; "exit" stops the server
}

func New(port uint16) *Server {
	return &Server{
		port:     port,
		reg:      NewRegistry(),
		operator: os.Stdin,
	}
}

// Listen binds the accept socket. Run calls it when it was not called
// explicitly; tests call it first to learn the ephemeral port.
func (s *Server) Listen() error {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", s.port))
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.ln = ln.(*net.TCPListener)
	return nil
}

func (s *Server) Addr() net.Addr { return s.ln.Addr() }

// Stop requests a cooperative shutdown, as the operator command does.
func (s *Server) Stop() { s.exit.Store(true) }

// Run accepts connections until the operator asks to exit or the listen
// socket fails, then tears every session down.
func (s *Server) Run() error {
	if s.ln == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	defer s.ln.Close()

	go s.operatorInput()
	log.Printf("listening on %s", s.ln.Addr())

	var runErr error
	for !s.exit.Load() {
		s.ln.SetDeadline(time.Now().Add(acceptPollInterval))
		conn, err := s.ln.AcceptTCP()
		if err != nil {
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				continue
			}
			runErr = fmt.Errorf("accept: %w", err)
			s.exit.Store(true)
			break
		}
		s.acceptClient(conn)
	}

	s.shutdown()
	return runErr
}

func (s *Server) operatorInput() {
	sc := bufio.NewScanner(s.operator)
	for sc.Scan() {
		if sc.Text() == "exit" {
			s.exit.Store(true)
			return
		}
	}
}

// acceptClient runs the connect handshake on the accept goroutine, exactly
// once per connection, and starts the session worker on success.
func (s *Server) acceptClient(conn *net.TCPConn) {
	sess := newSession(conn)
	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	ind, ok := s.processClientConnect(sess)
	if !ok {
		conn.Close()
		return
	}
	conn.SetReadDeadline(time.Time{})
	go s.clientWorker(ind)
}

// clientWorker receives and dispatches records for the session in slot ind
// until the peer leaves, a fault occurs, or the server shuts down. On exit
// it announces the departure, closes the socket and retires the slot.
func (s *Server) clientWorker(ind int) {
	sl := s.reg.slotAt(ind)
	sess := sl.session

	var failed bool
	for !s.exit.Load() {
		data, err := s.receiveData(sess)
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) &&
				!errors.Is(err, syscall.ECONNRESET) {
				failed = true
			}
			break
		}
		if len(data) == 0 { // zero-length record, peer is gone
			break
		}
		var msg protocol.Message
		msg.Decode(data)
		if !s.processReceived(&msg, sess) {
			failed = true
			break
		}
	}
	if failed {
		log.Printf("terminating client %s %d", sess.name, sess.id)
	}

	s.processBroadcast(serverMessage(sess.name+" leaves the chat."), sess)
	sess.conn.Close()
	s.reg.retire(sl)
}

func (s *Server) receiveData(sess *Session) ([]byte, error) {
	data, err := sess.recv()
	if err != nil {
		return nil, err
	}
	if len(data) > 0 {
		log.Printf("client %s %d received %d bytes", sess.name, sess.id, len(data))
	}
	return data, nil
}

// shutdown closes every live session socket, which fails its worker's
// blocking receive, then waits for all workers to exit.
func (s *Server) shutdown() {
	s.reg.gate.LockWrite()
	var pending []chan struct{}
	for _, sl := range s.reg.slots {
		if !sl.completed.Load() {
			sl.session.conn.Close()
			pending = append(pending, sl.done)
		}
	}
	s.reg.gate.Unlock()

	for _, done := range pending {
		<-done
	}
}
