package client

import (
	"errors"
	"fmt"
	"time"
	"unicode"

	"tcpchat/internal/protocol"
)

const helpText = "Available commands:\n" +
	"/pm (user name)- private message\n" +
	"/setname (new name) - change name\n" +
	"/listusers - show current active users\n" +
	"/exit - exit program"

// parseInputLine maps one typed line to an outbound message. A nil message
// with a nil error means the line is silently dropped; a non-nil error is
// shown locally and nothing is sent. The caller fills in From.
func parseInputLine(line string) (*protocol.Message, error) {
	if line == "" {
		return nil, nil
	}

	msg := &protocol.Message{Command: protocol.CMD_BROADCAST_MESSAGE}
	pos := 0
	if line[0] == '/' {
		var keyword string
		keyword, pos = nextToken(line, 0)
		msg.Command = protocol.CommandFromKeyword(keyword)
		if msg.Command == protocol.CMD_ERROR {
			return nil, fmt.Errorf("Invalid command %s", keyword)
		}
	}
	msg.TimeStamp = uint64(time.Now().Unix())

	switch msg.Command {
	case protocol.CMD_HELP:
		msg.Msg = helpText
		return msg, nil
	case protocol.CMD_LIST_CLIENTS:
		return msg, nil
	case protocol.CMD_CHANGE_NAME:
		name, _ := nextToken(line, pos)
		if name == "" {
			return nil, errors.New("Can't change name - no name specified")
		}
		msg.Msg = name
		return msg, nil
	case protocol.CMD_PRIVATE_MESSAGE:
		var to string
		to, pos = nextToken(line, pos)
		if to == "" {
			return nil, errors.New("No client name was specified for private message")
		}
		msg.PmTo = to
	}

	// A broadcast carries the whole line; a private message carries what
	// follows the recipient after one separating space.
	if msg.Command == protocol.CMD_BROADCAST_MESSAGE {
		msg.Msg = line
	} else if pos < len(line) {
		msg.Msg = line[pos+1:]
	}
	if msg.Msg == "" {
		return nil, nil
	}
	return msg, nil
}

// nextToken skips leading spaces from pos and returns the following run of
// non-space bytes plus the position just past it.
func nextToken(s string, pos int) (string, int) {
	for pos < len(s) && unicode.IsSpace(rune(s[pos])) {
		pos++
	}
	start := pos
	for pos < len(s) && !unicode.IsSpace(rune(s[pos])) {
		pos++
	}
	return s[start:pos], pos
}
