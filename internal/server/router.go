package server

import (
	"log"
	"strings"
	"time"

	"tcpchat/internal/protocol"
)

func serverMessage(text string) *protocol.Message {
	return &protocol.Message{
		TimeStamp: uint64(time.Now().Unix()),
		Command:   protocol.CMD_SERVER_MSG,
		From:      "Server",
		Msg:       text,
	}
}

// processClientConnect runs the handshake for a fresh connection: the first
// record must be CMD_CLIENT_CONNECT. A unique name installs the session,
// announces it to the peers and sends the user list back to the joiner; a
// duplicate name gets the ErrorNameAlreadyExists reply and is rejected.
// Returns the slot index on success.
func (s *Server) processClientConnect(sess *Session) (int, bool) {
	data, err := s.receiveData(sess)
	if err != nil || len(data) == 0 {
		log.Printf("client %d handshake failed: %v", sess.id, err)
		return 0, false
	}
	var msg protocol.Message
	msg.Decode(data)
	if msg.Command != protocol.CMD_CLIENT_CONNECT {
		return 0, false
	}
	sess.name = msg.From

	s.reg.gate.LockWrite()
	if s.reg.nameExistsLocked(msg.From) {
		s.reg.gate.Unlock()
		msg.Msg = msg.From
		s.processNameExists(&msg, sess)
		return 0, false
	}
	ind := s.reg.addLocked(sess)
	s.reg.gate.Unlock()

	s.processBroadcast(serverMessage(sess.name+" joined to the chat."), sess)
	if !s.processListClients(sess) {
		log.Printf("client %s %d: sending user list failed", sess.name, sess.id)
	}
	return ind, true
}

// processReceived dispatches one decoded record from sess. A false return
// terminates the session.
func (s *Server) processReceived(msg *protocol.Message, sess *Session) bool {
	switch msg.Command {
	case protocol.CMD_BROADCAST_MESSAGE:
		return s.processBroadcast(msg, sess)
	case protocol.CMD_PRIVATE_MESSAGE:
		return s.processPrivate(msg, sess)
	case protocol.CMD_CHANGE_NAME:
		return s.processNameChange(msg, sess)
	case protocol.CMD_LIST_CLIENTS:
		return s.processListClients(sess)
	default:
		return false
	}
}

// processBroadcast sends msg to every live session except origin. Pass a nil
// origin to include everyone. Individual send failures are logged and
// skipped.
func (s *Server) processBroadcast(msg *protocol.Message, origin *Session) bool {
	body, err := msg.Encode()
	if err != nil {
		return false
	}
	s.reg.gate.LockRead()
	defer s.reg.gate.Unlock()
	for _, sl := range s.reg.slots {
		if sl.completed.Load() || sl.session == origin {
			continue
		}
		if err := sl.session.send(body); err != nil {
			log.Printf("client %s %d: sending data error: %v", sl.session.name, sl.session.id, err)
		}
	}
	return true
}

func (s *Server) processPrivate(msg *protocol.Message, from *Session) bool {
	body, err := msg.Encode()
	if err != nil {
		return false
	}

	s.reg.gate.LockRead()
	if target := s.reg.findByNameLocked(msg.PmTo); target != nil {
		err := target.send(body)
		s.reg.gate.Unlock()
		return err == nil
	}
	s.reg.gate.Unlock()

	reply := serverMessage("There is no user with name " + msg.PmTo)
	return from.sendMessage(reply) == nil
}

// processNameChange renames sess to msg.Msg when the name is free, then
// announces the change to everyone, the origin included so it learns its
// new canonical name.
func (s *Server) processNameChange(msg *protocol.Message, sess *Session) bool {
	s.reg.gate.LockWrite()
	if s.reg.nameExistsLocked(msg.Msg) {
		s.reg.gate.Unlock()
		return s.processNameExists(msg, sess)
	}
	oldName := sess.name
	sess.name = msg.Msg
	s.reg.gate.Unlock()

	return s.processBroadcast(serverMessage(oldName+" changed his name to "+msg.Msg), nil)
}

func (s *Server) processListClients(sess *Session) bool {
	s.reg.gate.LockRead()
	names := s.reg.listNamesLocked()
	s.reg.gate.Unlock()

	list := "there are no active users"
	if len(names) > 0 {
		list = strings.Join(names, "\n")
	}
	return sess.sendMessage(serverMessage("Current active users:\n"+list)) == nil
}

// processNameExists replies to sess that the name in msg.Msg is taken. The
// second token is the attempted name, the third the name the session keeps.
func (s *Server) processNameExists(msg *protocol.Message, sess *Session) bool {
	reply := serverMessage("ErrorNameAlreadyExists " + msg.Msg + " " + sess.name)
	return sess.sendMessage(reply) == nil
}
