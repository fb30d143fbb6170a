package protocol

import (
	"encoding/binary"
	"errors"
	"unicode/utf16"
)

// Command identifies what a message asks the receiver to do. The numeric
// values are part of the wire format.
type Command uint32

const (
	CMD_ERROR Command = iota
	CMD_BROADCAST_MESSAGE
	CMD_PRIVATE_MESSAGE
	CMD_CHANGE_NAME
	CMD_LIST_CLIENTS
	CMD_CLIENT_CONNECT
	CMD_SERVER_MSG
	CMD_HELP
	commandCount
)

// Message is a single chat record. Text fields travel as NUL-terminated
// UTF-16LE; PmTo is present on the wire only for CMD_PRIVATE_MESSAGE, Msg
// only for commands that carry a payload.
type Message struct {
	TimeStamp uint64
	Command   Command
	From      string
	PmTo      string
	Msg       string
}

const (
	commandOffset = 8
	messageOffset = commandOffset + 4
	minRecordSize = messageOffset + 4 // header plus one code unit and its NUL
)

var ErrBadMessage = errors.New("message cannot be serialized")

// CommandFromKeyword maps a client command keyword to its wire command.
// Unknown keywords map to CMD_ERROR.
func CommandFromKeyword(keyword string) Command {
	switch keyword {
	case "/pm":
		return CMD_PRIVATE_MESSAGE
	case "/setname":
		return CMD_CHANGE_NAME
	case "/listusers":
		return CMD_LIST_CLIENTS
	case "/help":
		return CMD_HELP
	default:
		return CMD_ERROR
	}
}

func isCommand(cmd Command) bool {
	return CMD_ERROR < cmd && cmd < commandCount
}

// needsPayload reports whether the command carries a Msg field on the wire.
func needsPayload(cmd Command) bool {
	return cmd != CMD_CLIENT_CONNECT && cmd != CMD_LIST_CLIENTS
}

// Encode serializes the message to its wire form. Messages with an Error
// command, an empty sender, a private message without a recipient, or a
// payload-bearing command without a payload are rejected.
func (m *Message) Encode() ([]byte, error) {
	if !isCommand(m.Command) || m.From == "" {
		return nil, ErrBadMessage
	}
	if m.Command == CMD_PRIVATE_MESSAGE && m.PmTo == "" {
		return nil, ErrBadMessage
	}
	if needsPayload(m.Command) && m.Msg == "" {
		return nil, ErrBadMessage
	}

	data := make([]byte, messageOffset, messageOffset+2*(len(m.From)+len(m.PmTo)+len(m.Msg)+3))
	binary.LittleEndian.PutUint64(data, m.TimeStamp)
	binary.LittleEndian.PutUint32(data[commandOffset:], uint32(m.Command))

	data = appendUTF16(data, m.From)
	if m.Command == CMD_PRIVATE_MESSAGE {
		data = appendUTF16(data, m.PmTo)
	}
	if needsPayload(m.Command) {
		data = appendUTF16(data, m.Msg)
	}
	return data, nil
}

// Decode parses a wire record into m. On any fault m is reset and its
// command is CMD_ERROR; a successfully decoded message never exposes
// partially parsed fields. A trailing odd byte is ignored.
func (m *Message) Decode(data []byte) {
	*m = Message{Command: CMD_ERROR}

	if len(data) < minRecordSize {
		return
	}
	timeStamp := binary.LittleEndian.Uint64(data)
	cmd := Command(binary.LittleEndian.Uint32(data[commandOffset:]))
	if !isCommand(cmd) {
		return
	}

	units := codeUnits(data[messageOffset:])
	if len(units) == 0 || units[len(units)-1] != 0 {
		return
	}

	from, rest, ok := takeUTF16(units)
	if !ok || from == "" {
		return
	}

	var pmTo, msg string
	if needsPayload(cmd) {
		if len(rest) == 0 {
			return
		}
		if cmd == CMD_PRIVATE_MESSAGE {
			pmTo, rest, ok = takeUTF16(rest)
			if !ok || pmTo == "" || len(rest) == 0 {
				return
			}
		}
		msg = string(utf16.Decode(rest[:len(rest)-1]))
		if msg == "" {
			return
		}
	}

	m.TimeStamp = timeStamp
	m.Command = cmd
	m.From = from
	m.PmTo = pmTo
	m.Msg = msg
}

func appendUTF16(dst []byte, s string) []byte {
	for _, u := range utf16.Encode([]rune(s)) {
		dst = append(dst, byte(u), byte(u>>8))
	}
	return append(dst, 0, 0)
}

func codeUnits(data []byte) []uint16 {
	units := make([]uint16, len(data)/2)
	for i := range units {
		units[i] = binary.LittleEndian.Uint16(data[2*i:])
	}
	return units
}

// takeUTF16 splits off the leading NUL-terminated string. It fails when no
// terminator is present.
func takeUTF16(units []uint16) (string, []uint16, bool) {
	for i, u := range units {
		if u == 0 {
			return string(utf16.Decode(units[:i])), units[i+1:], true
		}
	}
	return "", nil, false
}
