/******************************************************************************
 *
 *  Description :
 *
 *    Handling of user sessions/connections. A user has at most one live
 *    session; a new join supersedes the old connection.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/offchat/chat/server/logs"
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/types"
)

// Wire transport.
const (
	NONE = iota
	WEBSOCK
)

// Maximum number of queued outbound messages per session.
const sendQueueLimit = 128

// Session represents a single websocket connection.
type Session struct {
	// protocol - NONE (unset) or WEBSOCK.
	proto int

	// Websocket connection.
	ws *websocket.Conn

	// IP address of the client.
	remoteAddr string

	// Username the session joined as, empty before {join}.
	uname string

	// Time when the session received any packet from the client.
	lastAction time.Time

	// Outbound messages, buffered. The content is serialized to []byte
	// unless it's a *ServerComMessage.
	send chan interface{}

	// Channel for shutting down the session, buffer 1.
	// Content in the same format as for 'send'.
	stop chan interface{}

	// Session ID.
	sid string
}

// now returns the current wall time in the resolution used on the wire.
func now() time.Time {
	return types.TimeNow()
}

// serializeMessage converts a message to the wire format.
func serializeMessage(msg *ServerComMessage) ([]byte, error) {
	return json.Marshal(msg)
}

func (s *Session) serialize(msg *ServerComMessage) interface{} {
	if s.proto == NONE {
		// Unattached session, i.e. a test harness. Pass unserialized.
		return msg
	}
	out, _ := serializeMessage(msg)
	return out
}

// queueOut attempts to send a ServerComMessage to the session write loop;
// if the send buffer is full, the message is dropped after a 50 usec wait.
func (s *Session) queueOut(msg *ServerComMessage) bool {
	if s == nil {
		return true
	}

	select {
	case s.send <- s.serialize(msg):
	case <-time.After(time.Microsecond * 50):
		logs.Err.Println("s.queueOut: timeout", s.sid)
		return false
	}
	return true
}

// cleanUp is called when the session is terminated. The presence record is
// removed only if this session is still the user's live connection: a
// superseded session must not knock the replacement offline.
func (s *Session) cleanUp() {
	globals.sessionStore.Delete(s)

	if s.uname == "" {
		return
	}

	if !globals.presence.Unregister(s.uname, s) {
		return
	}

	// The user went offline: drop the calls the user is a party of and
	// let friends know.
	globals.calls.TerminateAllFor(s.uname)

	friends, err := store.Users.Friends(s.uname)
	if err != nil {
		logs.Err.Println("s.cleanUp: failed to load friends", s.uname, err)
		return
	}
	presNotifyFriends(s.uname, "off", friends)
}

// dispatchRaw parses a raw packet into a ClientComMessage and dispatches it.
func (s *Session) dispatchRaw(raw []byte) {
	var msg ClientComMessage

	toLog := raw
	truncated := ""
	if len(raw) > 512 {
		toLog = raw[:512]
		truncated = "<...>"
	}
	logs.Info.Printf("in: '%s%s' ip='%s' sid='%s' uname='%s'", toLog, truncated, s.remoteAddr, s.sid, s.uname)

	if err := json.Unmarshal(raw, &msg); err != nil {
		logs.Warn.Println("s.dispatch", err, s.sid)
		s.queueOut(ErrMalformed("", now()))
		return
	}

	s.dispatch(&msg)
}

// dispatch routes a parsed client message to its handler. Messages of a
// session are processed sequentially in the order of arrival.
func (s *Session) dispatch(msg *ClientComMessage) {
	s.lastAction = now()
	msg.timestamp = s.lastAction
	msg.from = s.uname

	// Check if the session has joined.
	checkJoined := func(m *ClientComMessage, handler func(*ClientComMessage)) func(*ClientComMessage) {
		return func(m *ClientComMessage) {
			if m.from == "" {
				s.queueOut(ErrAuthRequired(m.id, m.timestamp))
				return
			}
			handler(m)
		}
	}

	var handler func(*ClientComMessage)

	switch {
	case msg.Join != nil:
		handler = s.join
		msg.id = msg.Join.Id

	case msg.Msg != nil:
		handler = checkJoined(msg, s.publish)
		msg.id = msg.Msg.Id

	case msg.Hist != nil:
		handler = checkJoined(msg, s.history)
		msg.id = msg.Hist.Id

	case msg.Friend != nil:
		handler = checkJoined(msg, s.friend)
		msg.id = msg.Friend.Id

	case msg.Group != nil:
		handler = checkJoined(msg, s.groupCreate)
		msg.id = msg.Group.Id

	case msg.Call != nil:
		handler = checkJoined(msg, s.call)
		msg.id = msg.Call.Id

	case msg.Status != nil:
		handler = checkJoined(msg, s.status)
		msg.id = msg.Status.Id

	default:
		// Unknown message.
		s.queueOut(ErrMalformed("", msg.timestamp))
		logs.Warn.Println("s.dispatch: unknown message", s.sid)
		return
	}

	statsInc("IncomingMessagesWebsockTotal", 1)
	handler(msg)
}
