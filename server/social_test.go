package main

import (
	"net/http"
	"sync"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/mock_store"
	"github.com/offchat/chat/server/store/types"
)

func friendMsg(from, what, target string) *ClientComMessage {
	msg := &ClientComMessage{Friend: &MsgClientFriend{Id: "1", What: what, Username: target}}
	msg.id = "1"
	msg.from = from
	msg.timestamp = now()
	return msg
}

func TestFriendRequest(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	store.Users = um
	defer func() {
		store.Users = nil
		ctrl.Finish()
	}()

	bob := &types.User{Username: "bob"}
	bob.SetUid(types.Uid(2))
	um.EXPECT().Get("bob").Return(bob, nil)
	um.EXPECT().Friends("alice").Return(nil, nil)
	um.EXPECT().RequestExists("bob", "alice").Return(false, nil)
	um.EXPECT().RequestAdd("alice", "bob").Return(nil)

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bsess, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("bob", bsess)

	alice.friend(friendMsg("alice", "request", "bob"))

	close(alice.send)
	close(bsess.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{http.StatusOK}, t)
	if len(br.messages) != 1 {
		t.Fatalf("target responses: expected 1, received %d", len(br.messages))
	}
	pres := br.messages[0].(*ServerComMessage).Pres
	if pres == nil || pres.What != "friend-request" || pres.Src != "alice" {
		t.Errorf("target must receive a friend-request notification, got %+v", pres)
	}
}

func TestFriendRequestRejected(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	store.Users = um
	defer func() {
		store.Users = nil
		ctrl.Finish()
	}()

	bob := &types.User{Username: "bob"}
	bob.SetUid(types.Uid(2))
	// Unknown target.
	um.EXPECT().Get("ghost").Return(nil, nil)
	// Already friends.
	um.EXPECT().Get("bob").Return(bob, nil)
	um.EXPECT().Friends("alice").Return([]string{"bob"}, nil)
	// An opposite request is pending.
	um.EXPECT().Get("bob").Return(bob, nil)
	um.EXPECT().Friends("alice").Return(nil, nil)
	um.EXPECT().RequestExists("bob", "alice").Return(true, nil)

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)

	alice.friend(friendMsg("alice", "request", "alice"))
	alice.friend(friendMsg("alice", "request", "ghost"))
	alice.friend(friendMsg("alice", "request", "bob"))
	alice.friend(friendMsg("alice", "request", "bob"))

	close(alice.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{
		http.StatusBadRequest, // self
		http.StatusNotFound,   // unknown target
		http.StatusConflict,   // already friends
		http.StatusConflict,   // reverse request pending
	}, t)
}

func TestFriendAccept(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	store.Users = um
	defer func() {
		store.Users = nil
		ctrl.Finish()
	}()

	um.EXPECT().RequestExists("alice", "bob").Return(true, nil)
	um.EXPECT().RequestAccept("alice", "bob").Return(nil)
	um.EXPECT().Friends("bob").Return([]string{"alice"}, nil)
	um.EXPECT().Friends("alice").Return([]string{"bob"}, nil)

	wg := sync.WaitGroup{}
	asess, ar := newTestSession("s1", "alice", &wg)
	bsess, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", asess)
	globals.presence.Register("bob", bsess)

	bsess.friend(friendMsg("bob", "accept", "alice"))

	close(asess.send)
	close(bsess.send)
	wg.Wait()

	verifyResponseCodes(br, []int{http.StatusOK}, t)
	// The reply carries the recipient's refreshed friend list.
	if friends := br.messages[0].(*ServerComMessage).Ctrl.Params.([]string); len(friends) != 1 || friends[0] != "alice" {
		t.Errorf("accept reply friends: expected [alice], got %v", friends)
	}
	if len(ar.messages) != 1 {
		t.Fatalf("sender responses: expected 1, received %d", len(ar.messages))
	}
	pres := ar.messages[0].(*ServerComMessage).Pres
	if pres == nil || pres.What != "request-accepted" || pres.Src != "bob" {
		t.Fatalf("sender must receive a request-accepted notification, got %+v", pres)
	}
	if friends := pres.Params.([]string); len(friends) != 1 || friends[0] != "bob" {
		t.Errorf("refreshed friends: expected [bob], got %v", friends)
	}
}

func TestFriendAcceptNoRequest(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	store.Users = um
	defer func() {
		store.Users = nil
		ctrl.Finish()
	}()

	um.EXPECT().RequestExists("alice", "bob").Return(false, nil)

	wg := sync.WaitGroup{}
	bsess, br := newTestSession("s1", "bob", &wg)

	bsess.friend(friendMsg("bob", "accept", "alice"))

	close(bsess.send)
	wg.Wait()

	verifyResponseCodes(br, []int{http.StatusNotFound}, t)
}

func TestFriendReject(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	store.Users = um
	defer func() {
		store.Users = nil
		ctrl.Finish()
	}()

	um.EXPECT().RequestExists("alice", "bob").Return(true, nil)
	um.EXPECT().RequestDelete("alice", "bob").Return(nil)

	wg := sync.WaitGroup{}
	bsess, br := newTestSession("s1", "bob", &wg)

	bsess.friend(friendMsg("bob", "reject", "alice"))

	close(bsess.send)
	wg.Wait()

	verifyResponseCodes(br, []int{http.StatusOK}, t)
}

func TestGroupCreate(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	um := mock_store.NewMockUsersPersistenceInterface(ctrl)
	gm := mock_store.NewMockGroupsPersistenceInterface(ctrl)
	store.Users = um
	store.Groups = gm
	defer func() {
		store.Users = nil
		store.Groups = nil
		ctrl.Finish()
	}()

	bob := &types.User{Username: "bob"}
	bob.SetUid(types.Uid(2))
	um.EXPECT().Get("bob").Return(bob, nil)
	// Unknown member is dropped without failing the request.
	um.EXPECT().Get("ghost").Return(nil, nil)

	grp := &types.Group{Name: "friday", Owner: "alice", Members: []string{"alice", "bob"}}
	grp.SetUid(types.Uid(42))
	gm.EXPECT().Create("friday", "alice", []string{"alice", "bob"}).Return(grp, nil)

	wg := sync.WaitGroup{}
	asess, ar := newTestSession("s1", "alice", &wg)
	bsess, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", asess)
	globals.presence.Register("bob", bsess)

	msg := &ClientComMessage{Group: &MsgClientGroup{
		Id:   "1",
		Name: "friday",
		// The duplicate and the creator are deduplicated, "ghost" dropped.
		Members: []string{"bob", "bob ", "alice", "ghost"},
	}}
	msg.id = "1"
	msg.from = "alice"
	msg.timestamp = now()
	asess.groupCreate(msg)

	close(asess.send)
	close(bsess.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{http.StatusCreated}, t)
	if created := ar.messages[0].(*ServerComMessage).Ctrl.Params.(*types.Group); created.Name != "friday" {
		t.Errorf("created group: expected 'friday', got '%s'", created.Name)
	}

	// The creator is skipped, online members are notified.
	if len(br.messages) != 1 {
		t.Fatalf("member responses: expected 1, received %d", len(br.messages))
	}
	pres := br.messages[0].(*ServerComMessage).Pres
	if pres == nil || pres.What != "group-added" || pres.Src != "alice" {
		t.Errorf("member must receive a group-added notification, got %+v", pres)
	}
}

func TestGroupCreateBadName(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	asess, ar := newTestSession("s1", "alice", &wg)

	for _, name := range []string{"", "x", "   "} {
		msg := &ClientComMessage{Group: &MsgClientGroup{Id: "1", Name: name}}
		msg.id = "1"
		msg.from = "alice"
		msg.timestamp = now()
		asess.groupCreate(msg)
	}

	close(asess.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{http.StatusBadRequest, http.StatusBadRequest, http.StatusBadRequest}, t)
}
