package client

import (
	"errors"
	"io"
	"net"
	"strings"
	"syscall"

	"tcpchat/internal/console"
	"tcpchat/internal/protocol"
)

const nameExistsMarker = "ErrorNameAlreadyExists"

// receiveLoop decodes inbound records and drives the display until the
// stream ends. It owns the connection's read side.
func (c *Client) receiveLoop() {
	for !c.exit.Load() {
		data, err := protocol.ReadRecord(c.conn)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				c.term.Write("You were disconnected\n", console.White)
			case errors.Is(err, syscall.ECONNRESET):
				c.term.Write("Server shutdown\n", console.White)
			case errors.Is(err, net.ErrClosed), errors.Is(err, io.ErrClosedPipe):
				// closed locally on exit
			default:
				c.term.Write("Error: "+err.Error()+"\n", console.Red)
				c.fatal.Store(true)
			}
			break
		}
		if len(data) == 0 {
			c.term.Write("You were disconnected\n", console.White)
			break
		}

		var msg protocol.Message
		msg.Decode(data)

		if msg.Command == protocol.CMD_SERVER_MSG && strings.HasPrefix(msg.Msg, nameExistsMarker) {
			ok := c.adoptAssignedName(&msg)
			c.printReceived(&msg)
			if !ok {
				c.fatal.Store(true)
				break
			}
			continue
		}
		c.printReceived(&msg)
	}
	c.exit.Store(true)
}

// adoptAssignedName handles the duplicate-name reply. The second token of
// the message is the rejected name, the third the name the server keeps for
// this session; the message is rewritten for display. An empty assigned
// name leaves the client without an identity and is fatal.
func (c *Client) adoptAssignedName(msg *protocol.Message) bool {
	fields := strings.Fields(msg.Msg)
	var attempted, assigned string
	if len(fields) > 1 {
		attempted = fields[1]
	}
	if len(fields) > 2 {
		assigned = fields[2]
	}
	msg.Msg = "User with name '" + attempted + "' already exists"
	c.setName(assigned)
	return assigned != ""
}

func (c *Client) printReceived(msg *protocol.Message) {
	var text string
	var color console.Color
	switch msg.Command {
	case protocol.CMD_SERVER_MSG:
		color = console.Cyan
		text = timeString(msg.TimeStamp) + msg.From + ": " + msg.Msg
	case protocol.CMD_BROADCAST_MESSAGE:
		color = console.Yellow
		text = timeString(msg.TimeStamp) + msg.From + ": " + msg.Msg
	case protocol.CMD_PRIVATE_MESSAGE:
		color = console.Magenta
		text = timeString(msg.TimeStamp) + "From " + msg.From + ": " + msg.Msg
	default:
		return
	}
	c.term.Write(text+"\n", color)
}
