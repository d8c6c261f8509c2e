package main

import (
	"sort"
	"sync"
	"testing"
)

func TestPresenceRegisterResolve(t *testing.T) {
	pr := NewPresenceRegistry()

	s1 := &Session{sid: "s1"}
	if old := pr.Register("alice", s1); old != nil {
		t.Errorf("first register must supersede nothing, got %v", old)
	}
	if pr.Resolve("alice") != s1 {
		t.Error("alice must resolve to the registered session")
	}
	if pr.Resolve("bob") != nil {
		t.Error("unregistered user must resolve to nil")
	}

	s2 := &Session{sid: "s2"}
	if old := pr.Register("alice", s2); old != s1 {
		t.Errorf("second register must return the superseded session, got %v", old)
	}
	if pr.Resolve("alice") != s2 {
		t.Error("alice must resolve to the replacement session")
	}
}

func TestPresenceUnregister(t *testing.T) {
	pr := NewPresenceRegistry()

	s1 := &Session{sid: "s1"}
	s2 := &Session{sid: "s2"}
	pr.Register("alice", s1)
	pr.Register("alice", s2)

	// The superseded session cannot knock the user offline.
	if pr.Unregister("alice", s1) {
		t.Error("unregister of a superseded session must fail")
	}
	if pr.Resolve("alice") != s2 {
		t.Error("alice must still be online")
	}

	if !pr.Unregister("alice", s2) {
		t.Error("unregister of the live session must succeed")
	}
	if pr.Resolve("alice") != nil {
		t.Error("alice must be offline")
	}
}

func TestPresenceSessionsOf(t *testing.T) {
	pr := NewPresenceRegistry()

	s1 := &Session{sid: "s1"}
	s2 := &Session{sid: "s2"}
	pr.Register("alice", s1)
	pr.Register("bob", s2)

	sessions := pr.SessionsOf([]string{"alice", "carol", "bob"})
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	names := pr.Snapshot()
	sort.Strings(names)
	if len(names) != 2 || names[0] != "alice" || names[1] != "bob" {
		t.Errorf("snapshot: expected [alice bob], got %v", names)
	}
}

func TestPresNotifyFriends(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	bsess, br := newTestSession("s1", "bob", &wg)
	csess, cr := newTestSession("s2", "carol", &wg)
	globals.presence.Register("bob", bsess)
	globals.presence.Register("carol", csess)

	// dave is offline, carol is not a friend.
	presNotifyFriends("alice", "on", []string{"bob", "dave"})

	close(bsess.send)
	close(csess.send)
	wg.Wait()

	if len(br.messages) != 1 {
		t.Fatalf("friend responses: expected 1, received %d", len(br.messages))
	}
	pres := br.messages[0].(*ServerComMessage).Pres
	if pres == nil || pres.What != "on" || pres.Src != "alice" {
		t.Errorf("friend must receive the online notification, got %+v", pres)
	}
	if len(cr.messages) != 0 {
		t.Errorf("non-friend must receive nothing, got %d messages", len(cr.messages))
	}
}
