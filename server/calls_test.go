package main

import (
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/mock_store"
	"github.com/offchat/chat/server/store/types"
)

func callMsg(from, what, to, group string, payload string) *ClientComMessage {
	msg := &ClientComMessage{Call: &MsgClientCall{
		Id:    "1",
		What:  what,
		To:    to,
		Group: group,
	}}
	if payload != "" {
		msg.Call.Payload = json.RawMessage(payload)
	}
	msg.id = "1"
	msg.from = from
	msg.timestamp = now()
	return msg
}

// drainInfos extracts {info} call events from collected responses.
func drainInfos(r *responses) []*MsgServerInfo {
	var infos []*MsgServerInfo
	for _, m := range r.messages {
		if resp := m.(*ServerComMessage); resp.Info != nil {
			infos = append(infos, resp.Info)
		}
	}
	return infos
}

func TestCallOfferAnswer(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"x"}`))
	if call := globals.calls.calls[pairKey("alice", "bob")]; call == nil || call.state != callRinging {
		t.Fatal("call must be ringing after the offer is delivered")
	}
	globals.calls.handleAnswer(bob, callMsg("bob", "answer", "alice", "", `{"sdp":"y"}`))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	// Caller: 202 on offer, then the answer relayed.
	if len(ar.messages) != 2 {
		t.Fatalf("caller responses: expected 2, received %d", len(ar.messages))
	}
	if code := ar.messages[0].(*ServerComMessage).Ctrl.Code; code != http.StatusAccepted {
		t.Errorf("offer ack: expected 202, got %d", code)
	}
	answers := drainInfos(ar)
	if len(answers) != 1 || answers[0].Event != "answer" || answers[0].From != "bob" {
		t.Errorf("caller must receive the relayed answer, got %+v", answers)
	}

	// Callee: the offer, then 200 on answer.
	offers := drainInfos(br)
	if len(offers) != 1 || offers[0].Event != "offer" || offers[0].From != "alice" {
		t.Errorf("callee must receive the relayed offer, got %+v", offers)
	}

	if globals.calls.calls[pairKey("alice", "bob")].state != callConnected {
		t.Error("call must be connected after the answer")
	}
}

func TestCallOfferUnreachable(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	globals.presence.Register("alice", alice)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"x"}`))
	close(alice.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{480}, t)
}

func TestCallGlare(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	// Both dial each other. "bob" > "alice", so bob keeps the caller role
	// regardless of the arrival order.
	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	globals.calls.handleOffer(bob, callMsg("bob", "offer", "alice", "", `{"sdp":"b"}`))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	call := globals.calls.calls[pairKey("alice", "bob")]
	if call == nil {
		t.Fatal("the call must survive glare resolution")
	}
	if call.caller != "bob" || call.callee != "alice" {
		t.Errorf("glare winner: expected caller 'bob', got caller '%s' callee '%s'", call.caller, call.callee)
	}

	// Alice received the winning offer; her own is dropped with a 202.
	offers := drainInfos(ar)
	if len(offers) != 1 || offers[0].Event != "offer" || offers[0].From != "bob" {
		t.Errorf("loser must receive the winning offer, got %+v", offers)
	}
	if infos := drainInfos(br); len(infos) != 0 {
		t.Errorf("winner must receive no offer, got %+v", infos)
	}
}

func TestCallGlareReversed(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, _ := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	// The winner's offer arrives first, the loser's second.
	globals.calls.handleOffer(bob, callMsg("bob", "offer", "alice", "", `{"sdp":"b"}`))
	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	call := globals.calls.calls[pairKey("alice", "bob")]
	if call == nil || call.caller != "bob" || call.callee != "alice" {
		t.Fatalf("roles must be unchanged: %+v", call)
	}
	// Alice got bob's offer once and a 202 for her own dropped offer.
	if offers := drainInfos(ar); len(offers) != 1 || offers[0].From != "bob" {
		t.Errorf("loser must hold exactly the winning offer, got %+v", offers)
	}
}

func TestCallCalleeBusy(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, _ := newTestSession("s1", "alice", &wg)
	bob, _ := newTestSession("s2", "bob", &wg)
	carol, cr := newTestSession("s3", "carol", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)
	globals.presence.Register("carol", carol)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	// Carol dials busy bob: auto-rejected without ringing.
	globals.calls.handleOffer(carol, callMsg("carol", "offer", "bob", "", `{"sdp":"c"}`))

	close(alice.send)
	close(bob.send)
	close(carol.send)
	wg.Wait()

	if len(cr.messages) != 2 {
		t.Fatalf("busy caller responses: expected 2, received %d", len(cr.messages))
	}
	if code := cr.messages[0].(*ServerComMessage).Ctrl.Code; code != http.StatusAccepted {
		t.Errorf("busy offer ack: expected 202, got %d", code)
	}
	rejects := drainInfos(cr)
	if len(rejects) != 1 || rejects[0].Event != "reject" || rejects[0].From != "bob" {
		t.Fatalf("expected a reject event, got %+v", rejects)
	}
	if reason := rejects[0].Payload.(map[string]string)["reason"]; reason != "busy" {
		t.Errorf("reject reason: expected 'busy', got '%s'", reason)
	}
}

func TestCallCallerBusy(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, _ := newTestSession("s2", "bob", &wg)
	carol, _ := newTestSession("s3", "carol", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)
	globals.presence.Register("carol", carol)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	// Alice tries a second call while the first is ringing.
	globals.calls.handleOffer(alice, callMsg("alice", "offer", "carol", "", `{"sdp":"a2"}`))

	close(alice.send)
	close(bob.send)
	close(carol.send)
	wg.Wait()

	if len(ar.messages) != 2 {
		t.Fatalf("caller responses: expected 2, received %d", len(ar.messages))
	}
	if code := ar.messages[1].(*ServerComMessage).Ctrl.Code; code != 486 {
		t.Errorf("second offer: expected 486, got %d", code)
	}
}

func TestCallReject(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	globals.calls.handleReject(bob, callMsg("bob", "reject", "alice", "", `{"reason":"declined"}`))
	// Only the callee may reject; the call is gone anyway.
	globals.calls.handleReject(alice, callMsg("alice", "reject", "bob", "", ""))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	if globals.calls.calls[pairKey("alice", "bob")] != nil {
		t.Error("rejected call must be removed")
	}
	rejects := drainInfos(ar)
	if len(rejects) != 1 || rejects[0].Event != "reject" || rejects[0].From != "bob" {
		t.Fatalf("caller must receive the reject notice, got %+v", rejects)
	}
	if string(rejects[0].Payload.(json.RawMessage)) != `{"reason":"declined"}` {
		t.Errorf("reject must carry the reason, got %v", rejects[0].Payload)
	}
	if code := ar.messages[len(ar.messages)-1].(*ServerComMessage).Ctrl.Code; code != http.StatusNotFound {
		t.Errorf("reject of a gone call: expected 404, got %d", code)
	}
	// Callee: the offer, then 200 on reject.
	if code := br.messages[len(br.messages)-1].(*ServerComMessage).Ctrl.Code; code != http.StatusOK {
		t.Errorf("reject ack: expected 200, got %d", code)
	}
}

func TestCallIceQueueFlush(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))

	// Candidates from both sides before the answer: queued, not relayed.
	globals.calls.handleIceCandidate(alice, callMsg("alice", "ice-candidate", "bob", "", `{"c":1}`))
	globals.calls.handleIceCandidate(bob, callMsg("bob", "ice-candidate", "alice", "", `{"c":2}`))
	globals.calls.handleIceCandidate(alice, callMsg("alice", "ice-candidate", "bob", "", `{"c":3}`))

	globals.calls.handleAnswer(bob, callMsg("bob", "answer", "alice", "", `{"sdp":"b"}`))

	// Post-answer candidate is relayed directly.
	globals.calls.handleIceCandidate(alice, callMsg("alice", "ice-candidate", "bob", "", `{"c":4}`))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	var bobIce, aliceIce []string
	for _, info := range drainInfos(br) {
		if info.Event == "ice-candidate" {
			bobIce = append(bobIce, string(info.Payload.(json.RawMessage)))
		}
	}
	for _, info := range drainInfos(ar) {
		if info.Event == "ice-candidate" {
			aliceIce = append(aliceIce, string(info.Payload.(json.RawMessage)))
		}
	}

	// Bob gets alice's candidates in arrival order, the queued ones first.
	if len(bobIce) != 3 || bobIce[0] != `{"c":1}` || bobIce[1] != `{"c":3}` || bobIce[2] != `{"c":4}` {
		t.Errorf("callee candidates out of order: %v", bobIce)
	}
	if len(aliceIce) != 1 || aliceIce[0] != `{"c":2}` {
		t.Errorf("caller candidates: expected [{\"c\":2}], got %v", aliceIce)
	}
}

func TestCallEstablishmentTimeout(t *testing.T) {
	resetGlobals()
	globals.calls = NewCallCoordinator(10 * time.Millisecond)

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))

	// Nobody answers.
	time.Sleep(50 * time.Millisecond)

	close(alice.send)
	close(bob.send)
	wg.Wait()

	if globals.calls.calls[pairKey("alice", "bob")] != nil {
		t.Error("timed out call must be removed")
	}
	for name, r := range map[string]*responses{"caller": ar, "callee": br} {
		var hangups int
		for _, info := range drainInfos(r) {
			if info.Event == "hang-up" {
				hangups++
				if reason := info.Payload.(map[string]string)["reason"]; reason != "timeout" {
					t.Errorf("%s hang-up reason: expected 'timeout', got '%s'", name, reason)
				}
			}
		}
		if hangups != 1 {
			t.Errorf("%s: expected 1 hang-up, got %d", name, hangups)
		}
	}
}

func TestCallHangup(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, _ := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	globals.calls.handleAnswer(bob, callMsg("bob", "answer", "alice", "", `{"sdp":"b"}`))
	globals.calls.handleHangup(alice, callMsg("alice", "hang-up", "bob", "", ""))
	// Concurrent hang-up of a gone call is not an error.
	globals.calls.handleHangup(bob, callMsg("bob", "hang-up", "alice", "", ""))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	if globals.calls.calls[pairKey("alice", "bob")] != nil {
		t.Error("hung-up call must be removed")
	}
	var hangups int
	for _, info := range drainInfos(br) {
		if info.Event == "hang-up" && info.From == "alice" {
			hangups++
		}
	}
	if hangups != 1 {
		t.Errorf("callee: expected 1 hang-up notification, got %d", hangups)
	}
}

func TestCallTerminateAllFor(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, _ := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "", `{"sdp":"a"}`))
	globals.calls.handleAnswer(bob, callMsg("bob", "answer", "alice", "", `{"sdp":"b"}`))

	globals.calls.TerminateAllFor("alice")

	close(alice.send)
	close(bob.send)
	wg.Wait()

	if len(globals.calls.calls) != 0 {
		t.Error("all calls of the user must be dropped")
	}
	var hangups int
	for _, info := range drainInfos(br) {
		if info.Event == "hang-up" {
			hangups++
		}
	}
	if hangups != 1 {
		t.Errorf("peer: expected 1 hang-up notification, got %d", hangups)
	}
}

func TestCallGroupJoin(t *testing.T) {
	resetGlobals()

	ctrl := gomock.NewController(t)
	gm := mock_store.NewMockGroupsPersistenceInterface(ctrl)
	store.Groups = gm
	defer func() {
		store.Groups = nil
		ctrl.Finish()
	}()

	grp := &types.Group{Name: "friday", Owner: "alice", Members: []string{"alice", "bob", "carol"}}
	grp.SetUid(types.Uid(42))
	gm.EXPECT().Get(types.Uid(42)).Return(grp, nil).Times(3)

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, br := newTestSession("s2", "bob", &wg)
	dave, dr := newTestSession("s3", "dave", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)
	globals.presence.Register("dave", dave)

	globals.calls.handleGroupJoin(alice, callMsg("alice", "join", "", grp.Id, ""))
	globals.calls.handleGroupJoin(bob, callMsg("bob", "join", "", grp.Id, ""))
	// Dave is not a member.
	globals.calls.handleGroupJoin(dave, callMsg("dave", "join", "", grp.Id, ""))

	// Mesh legs between joined members are allowed despite being "busy"
	// with each other.
	globals.calls.handleOffer(bob, callMsg("bob", "offer", "alice", grp.Id, `{"sdp":"b"}`))
	globals.calls.handleAnswer(alice, callMsg("alice", "answer", "bob", grp.Id, `{"sdp":"a"}`))

	close(alice.send)
	close(bob.send)
	close(dave.send)
	wg.Wait()

	verifyResponseCodes(dr, []int{http.StatusForbidden}, t)

	// First joiner sees an empty member list, second sees the first.
	first := ar.messages[0].(*ServerComMessage).Ctrl.Params.(map[string]interface{})
	if members := first["members"].([]string); len(members) != 0 {
		t.Errorf("first joiner: expected no members, got %v", members)
	}
	second := br.messages[0].(*ServerComMessage).Ctrl.Params.(map[string]interface{})
	if members := second["members"].([]string); len(members) != 1 || members[0] != "alice" {
		t.Errorf("second joiner: expected [alice], got %v", members)
	}

	call := globals.calls.calls[pairKey("alice", "bob")]
	if call == nil || call.state != callConnected || call.groupId != grp.Id {
		t.Fatalf("mesh leg must be connected and tagged with the group: %+v", call)
	}

	// Leaving tears down the user's legs and withdraws membership.
	globals.calls.lock.Lock()
	globals.calls.leaveGroupCallLocked("bob", grp.Id)
	globals.calls.lock.Unlock()
	if len(globals.calls.calls) != 0 {
		t.Error("leaving must drop the member's mesh legs")
	}
	if globals.calls.inGroupCall("bob", grp.Id) {
		t.Error("leaving must withdraw group call membership")
	}
}

func TestCallGroupOfferUnjoined(t *testing.T) {
	resetGlobals()

	wg := sync.WaitGroup{}
	alice, ar := newTestSession("s1", "alice", &wg)
	bob, _ := newTestSession("s2", "bob", &wg)
	globals.presence.Register("alice", alice)
	globals.presence.Register("bob", bob)

	globals.calls.handleOffer(alice, callMsg("alice", "offer", "bob", "AwFVQmNpVGc", `{"sdp":"a"}`))

	close(alice.send)
	close(bob.send)
	wg.Wait()

	verifyResponseCodes(ar, []int{http.StatusForbidden}, t)
}
