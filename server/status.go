/******************************************************************************
 *
 *  Description :
 *
 *    Ephemeral status feed: short-lived broadcast posts with a TTL.
 *
 *****************************************************************************/

package main

import (
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/types"
)

// status handles the {status} message: posting, listing and deletion.
func (s *Session) status(msg *ClientComMessage) {
	switch msg.Status.What {
	case "post":
		s.statusPost(msg)
	case "list":
		s.statusList(msg)
	case "delete":
		s.statusDelete(msg)
	default:
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
	}
}

func (s *Session) statusPost(msg *ClientComMessage) {
	if msg.Status.Ref == "" {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	status, err := store.Statuses.Save(msg.from, msg.Status.Ref, globals.statusTTL)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErrCreated(msg.id, msg.timestamp, status))
	statsInc("StatusesPostedTotal", 1)

	// Statuses are public: fan out to everyone online.
	s.statusBroadcast("posted", msg.from, status)
}

func (s *Session) statusList(msg *ClientComMessage) {
	statuses, err := store.Statuses.GetAll()
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	s.queueOut(NoErrParams(msg.id, msg.timestamp, statuses))
}

func (s *Session) statusDelete(msg *ClientComMessage) {
	id := types.ParseUid(msg.Status.Status)
	if id.IsZero() {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	status, err := store.Statuses.Get(id)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if status == nil {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}
	if status.Owner != msg.from {
		s.queueOut(ErrPermissionDenied(msg.id, msg.timestamp))
		return
	}

	if err = store.Statuses.Delete(id); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.id, msg.timestamp))
	s.statusBroadcast("deleted", msg.from, map[string]string{"status": status.Id})
}

// statusBroadcast delivers a status feed event to all online users. The
// originator is skipped: the outcome is already in its ctrl reply.
func (s *Session) statusBroadcast(event, from string, payload interface{}) {
	notif := &ServerComMessage{Info: &MsgServerInfo{
		What:      "status",
		Event:     event,
		From:      from,
		Payload:   payload,
		Timestamp: now(),
	}}
	for _, sess := range globals.presence.SessionsOf(globals.presence.Snapshot()) {
		if sess != s {
			sess.queueOut(notif)
		}
	}
}
