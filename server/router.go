/******************************************************************************
 *
 *  Description :
 *
 *    Routing of chat messages: direct and group delivery plus history.
 *
 *****************************************************************************/

package main

import (
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/types"
)

// publish handles the {msg} message. The message is persisted before any
// delivery is attempted, an offline recipient is not an error.
func (s *Session) publish(msg *ClientComMessage) {
	if !msg.Msg.Content.Valid() {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	switch {
	case msg.Msg.To != "" && msg.Msg.Group == "":
		s.routeDirect(msg)
	case msg.Msg.Group != "" && msg.Msg.To == "":
		s.routeGroup(msg)
	default:
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
	}
}

func (s *Session) routeDirect(msg *ClientComMessage) {
	recipient := normalizeName(msg.Msg.To)

	user, err := store.Users.Get(recipient)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if user == nil {
		s.queueOut(ErrUserNotFound(msg.id, msg.timestamp))
		return
	}

	stored := &types.Message{
		From:    msg.from,
		To:      recipient,
		Content: msg.Msg.Content,
	}
	if err = store.Messages.Save(stored); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErrParams(msg.id, msg.timestamp, map[string]interface{}{"msg": stored.Id}))

	data := &ServerComMessage{Data: &MsgServerData{
		Id:        stored.Id,
		From:      msg.from,
		To:        recipient,
		Timestamp: stored.CreatedAt,
		Content:   stored.Content,
	}}
	if sess := globals.presence.Resolve(recipient); sess != nil {
		sess.queueOut(data)
	}
	// The sender receives an echo for consistency with the group fan-out.
	s.queueOut(data)
	statsInc("DirectMessagesTotal", 1)
}

func (s *Session) routeGroup(msg *ClientComMessage) {
	group, err := store.Groups.Get(types.ParseUid(msg.Msg.Group))
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if group == nil {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}
	if !groupHasMember(group, msg.from) {
		s.queueOut(ErrPermissionDenied(msg.id, msg.timestamp))
		return
	}

	stored := &types.Message{
		From:    msg.from,
		Group:   group.Id,
		Content: msg.Msg.Content,
	}
	if err = store.Messages.Save(stored); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErrParams(msg.id, msg.timestamp, map[string]interface{}{"msg": stored.Id}))

	data := &ServerComMessage{Data: &MsgServerData{
		Id:        stored.Id,
		From:      msg.from,
		Group:     group.Id,
		Timestamp: stored.CreatedAt,
		Content:   stored.Content,
	}}
	// The sender receives the fan-out copy as well.
	for _, sess := range globals.presence.SessionsOf(group.Members) {
		sess.queueOut(data)
	}
	statsInc("GroupMessagesTotal", 1)
}

// history handles the {hist} message: fetches stored messages of a direct
// conversation or a group, ordered by creation time ascending.
func (s *Session) history(msg *ClientComMessage) {
	switch {
	case msg.Hist.With != "" && msg.Hist.Group == "":
		s.historyDirect(msg)
	case msg.Hist.Group != "" && msg.Hist.With == "":
		s.historyGroup(msg)
	default:
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
	}
}

func (s *Session) historyDirect(msg *ClientComMessage) {
	with := normalizeName(msg.Hist.With)

	user, err := store.Users.Get(with)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if user == nil {
		s.queueOut(ErrUserNotFound(msg.id, msg.timestamp))
		return
	}

	messages, err := store.Messages.GetPair(msg.from, with)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	s.queueOut(NoErrParams(msg.id, msg.timestamp, messages))
}

func (s *Session) historyGroup(msg *ClientComMessage) {
	group, err := store.Groups.Get(types.ParseUid(msg.Hist.Group))
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if group == nil {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}
	if !groupHasMember(group, msg.from) {
		s.queueOut(ErrPermissionDenied(msg.id, msg.timestamp))
		return
	}

	messages, err := store.Messages.GetGroup(group.Uid())
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	s.queueOut(NoErrParams(msg.id, msg.timestamp, messages))
}

func groupHasMember(group *types.Group, username string) bool {
	for _, member := range group.Members {
		if member == username {
			return true
		}
	}
	return false
}
