/******************************************************************************
 *
 *  Description :
 *
 *    Registry of online users. Maps usernames to their live sessions and
 *    generates online/offline notifications for friends.
 *
 *****************************************************************************/

package main

import (
	"sync"

	"github.com/offchat/chat/server/logs"
)

// PresenceRegistry maps usernames to their live sessions. A user has at
// most one session: a later join supersedes the earlier one.
type PresenceRegistry struct {
	lock sync.Mutex

	online map[string]*Session
}

// NewPresenceRegistry initializes an empty registry.
func NewPresenceRegistry() *PresenceRegistry {
	return &PresenceRegistry{online: make(map[string]*Session)}
}

// Register makes the session the live connection for the given user.
// Returns the superseded session, if any. The old session is not closed,
// it's simply no longer addressable and will fail on its own.
func (pr *PresenceRegistry) Register(username string, sess *Session) *Session {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	old := pr.online[username]
	pr.online[username] = sess
	statsSet("LiveUsers", int64(len(pr.online)))
	if old != nil && old != sess {
		logs.Info.Println("pres: session superseded", username, old.sid, "->", sess.sid)
		return old
	}
	return nil
}

// Unregister removes the user from the registry only if the given session
// is still the registered one. Returns true if the user went offline.
func (pr *PresenceRegistry) Unregister(username string, sess *Session) bool {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	if pr.online[username] != sess {
		return false
	}
	delete(pr.online, username)
	statsSet("LiveUsers", int64(len(pr.online)))
	return true
}

// Resolve returns the live session of the user or nil if the user is offline.
func (pr *PresenceRegistry) Resolve(username string) *Session {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	return pr.online[username]
}

// SessionsOf returns live sessions for the given usernames, skipping
// offline users.
func (pr *PresenceRegistry) SessionsOf(usernames []string) []*Session {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	var sessions []*Session
	for _, name := range usernames {
		if sess := pr.online[name]; sess != nil {
			sessions = append(sessions, sess)
		}
	}
	return sessions
}

// Snapshot returns usernames of all online users.
func (pr *PresenceRegistry) Snapshot() []string {
	pr.lock.Lock()
	defer pr.lock.Unlock()

	names := make([]string, 0, len(pr.online))
	for name := range pr.online {
		names = append(names, name)
	}
	return names
}

// presNotifyFriends sends a {pres} notification about the user to all of
// the user's online friends.
func presNotifyFriends(username, what string, friends []string) {
	msg := &ServerComMessage{Pres: &MsgServerPres{What: what, Src: username}}
	for _, sess := range globals.presence.SessionsOf(friends) {
		sess.queueOut(msg)
	}
}
