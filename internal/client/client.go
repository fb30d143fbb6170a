package client

import (
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"tcpchat/internal/console"
	"tcpchat/internal/protocol"
)

// Client runs one chat session: the input loop on the calling goroutine and
// the receive task on its own.
type Client struct {
	term Terminal
	conn net.Conn

	nameMu sync.Mutex
	name   string // display name; the receive task may overwrite it

	exit     atomic.Bool
	fatal    atomic.Bool
	recvDone chan struct{}
}

func New(term Terminal, conn net.Conn, name string) *Client {
	return &Client{
		term:     term,
		conn:     conn,
		name:     name,
		recvDone: make(chan struct{}),
	}
}

func (c *Client) Name() string {
	c.nameMu.Lock()
	defer c.nameMu.Unlock()
	return c.name
}

func (c *Client) setName(name string) {
	c.nameMu.Lock()
	c.name = name
	c.nameMu.Unlock()
}

// Run performs the connect handshake and drives the session until /exit,
// input close, or a transport fault.
func (c *Client) Run() error {
	connect := &protocol.Message{
		TimeStamp: uint64(time.Now().Unix()),
		Command:   protocol.CMD_CLIENT_CONNECT,
		From:      c.Name(),
	}
	if err := protocol.WriteMessage(c.conn, connect); err != nil {
		return fmt.Errorf("connect: %w", err)
	}

	go func() {
		defer close(c.recvDone)
		c.receiveLoop()
	}()

	c.inputLoop()

	c.exit.Store(true)
	c.conn.Close()
	<-c.recvDone

	if c.fatal.Load() {
		return errors.New("session terminated by error")
	}
	return nil
}

func (c *Client) inputLoop() {
	for !c.exit.Load() {
		line, ok := c.term.ReadLine()
		if !ok || c.exit.Load() {
			return
		}
		if line == "/exit" {
			return
		}
		msg, err := parseInputLine(line)
		if err != nil {
			c.term.Write(err.Error()+"\n", console.Red)
			continue
		}
		if msg == nil {
			continue
		}
		c.printInput(msg, line)
		if msg.Command == protocol.CMD_HELP {
			continue
		}
		msg.From = c.Name()
		if err := protocol.WriteMessage(c.conn, msg); err != nil {
			c.term.Write("Message was not sent\n", console.Red)
			c.fatal.Store(true)
			return
		}
		if msg.Command == protocol.CMD_CHANGE_NAME {
			// adopt the new name right away; a rejection rolls it back
			c.setName(msg.Msg)
		}
	}
}

// printInput replaces the echoed input line with its formatted form: the
// committed line is erased wrap-aware and the message reprinted in its
// color. List requests leave no echo at all.
func (c *Client) printInput(msg *protocol.Message, line string) {
	var text string
	color := console.Green
	switch msg.Command {
	case protocol.CMD_PRIVATE_MESSAGE:
		text = timeString(msg.TimeStamp) + "You to " + msg.PmTo + ": " + msg.Msg + "\n"
		color = console.Magenta
	case protocol.CMD_BROADCAST_MESSAGE:
		text = timeString(msg.TimeStamp) + "You: " + msg.Msg + "\n"
	case protocol.CMD_HELP:
		text = msg.Msg + "\n"
		color = console.Cyan
	}

	c.term.LockWrite()
	defer c.term.UnlockWrite()
	width, _ := c.term.Size()
	c.term.EraseChars((len(line) + width - 1) / width * width)
	if text != "" {
		c.term.WriteLocked(text, color)
	}
}

func timeString(ts uint64) string {
	return time.Unix(int64(ts), 0).Format("[15:04:05] ")
}
