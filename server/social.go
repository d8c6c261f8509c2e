/******************************************************************************
 *
 *  Description :
 *
 *    Account join and social graph: friend requests and chat groups.
 *
 *****************************************************************************/

package main

import (
	"github.com/offchat/chat/server/logs"
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/types"
)

// join handles the {join} message: it creates the account on first contact,
// registers the session as the user's live connection and returns the
// account snapshot.
func (s *Session) join(msg *ClientComMessage) {
	username := normalizeName(msg.Join.Username)
	if !validName(username) {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	user, err := store.Users.Get(username)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if user == nil {
		user, err = store.Users.Create(username)
		if err == types.ErrDuplicate {
			// Someone else created the account between Get and Create.
			user, err = store.Users.Get(username)
		}
		if err != nil {
			s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
			return
		}
	}

	friends, err := store.Users.Friends(username)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	requests, err := store.Users.RequestsFor(username)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	groups, err := store.Groups.ForUser(username)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.uname = username
	globals.presence.Register(username, s)

	s.queueOut(NoErrParams(msg.id, msg.timestamp, &MsgUserData{
		Username: user.Username,
		Friends:  friends,
		Requests: requests,
		Groups:   groups,
	}))

	presNotifyFriends(username, "on", friends)
}

// friend handles the {friend} message: sending, accepting and rejecting
// friend requests.
func (s *Session) friend(msg *ClientComMessage) {
	target := normalizeName(msg.Friend.Username)
	if target == "" || target == msg.from {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	switch msg.Friend.What {
	case "request":
		s.friendRequest(msg, target)
	case "accept":
		s.friendAccept(msg, target)
	case "reject":
		s.friendReject(msg, target)
	default:
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
	}
}

func (s *Session) friendRequest(msg *ClientComMessage, target string) {
	user, err := store.Users.Get(target)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if user == nil {
		s.queueOut(ErrUserNotFound(msg.id, msg.timestamp))
		return
	}

	friends, err := store.Users.Friends(msg.from)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	for _, name := range friends {
		if name == target {
			s.queueOut(ErrDuplicate(msg.id, msg.timestamp))
			return
		}
	}

	// A request in the opposite direction also blocks: the target should
	// accept it instead.
	if exists, err := store.Users.RequestExists(target, msg.from); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	} else if exists {
		s.queueOut(ErrDuplicate(msg.id, msg.timestamp))
		return
	}

	if err = store.Users.RequestAdd(msg.from, target); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.id, msg.timestamp))
	if sess := globals.presence.Resolve(target); sess != nil {
		sess.queueOut(&ServerComMessage{Pres: &MsgServerPres{What: "friend-request", Src: msg.from}})
	}
}

func (s *Session) friendAccept(msg *ClientComMessage, target string) {
	exists, err := store.Users.RequestExists(target, msg.from)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if !exists {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}

	if err = store.Users.RequestAccept(target, msg.from); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	// Reply with the recipient's refreshed friend list.
	friends, err := store.Users.Friends(msg.from)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	s.queueOut(NoErrParams(msg.id, msg.timestamp, friends))

	// Push the refreshed friend list to the original sender if online.
	if sess := globals.presence.Resolve(target); sess != nil {
		friends, err := store.Users.Friends(target)
		if err != nil {
			logs.Err.Println("friend.accept: failed to load friends", target, err)
			friends = nil
		}
		sess.queueOut(&ServerComMessage{Pres: &MsgServerPres{
			What:   "request-accepted",
			Src:    msg.from,
			Params: friends,
		}})
	}
}

func (s *Session) friendReject(msg *ClientComMessage, target string) {
	exists, err := store.Users.RequestExists(target, msg.from)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}
	if !exists {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}

	if err = store.Users.RequestDelete(target, msg.from); err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErr(msg.id, msg.timestamp))
}

// groupCreate handles the {group} message. The creator is always a member.
// Unknown usernames in the member list are dropped without failing the
// request.
func (s *Session) groupCreate(msg *ClientComMessage) {
	name := normalizeName(msg.Group.Name)
	if !validName(name) {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	candidates := []string{msg.from}
	for _, raw := range msg.Group.Members {
		candidates = append(candidates, normalizeName(raw))
	}

	var members []string
	for _, member := range stringDedupe(candidates) {
		if member == msg.from {
			members = append(members, member)
			continue
		}
		user, err := store.Users.Get(member)
		if err != nil {
			s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
			return
		}
		if user == nil {
			logs.Warn.Println("group.create: dropping unknown member", member, s.sid)
			continue
		}
		members = append(members, member)
	}

	group, err := store.Groups.Create(name, msg.from, members)
	if err != nil {
		s.queueOut(decodeStoreError(err, msg.id, msg.timestamp))
		return
	}

	s.queueOut(NoErrCreated(msg.id, msg.timestamp, group))

	// Deliver the new group to its online members.
	notif := &ServerComMessage{Pres: &MsgServerPres{What: "group-added", Src: msg.from, Params: group}}
	for _, sess := range globals.presence.SessionsOf(members) {
		if sess != s {
			sess.queueOut(notif)
		}
	}
}
