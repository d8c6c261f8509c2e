/******************************************************************************
 *
 *  Description :
 *    Video call handling: establishment, glare resolution, ICE exchange
 *    and termination. Group calls are meshes of pairwise calls.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/offchat/chat/server/logs"
	"github.com/offchat/chat/server/store"
	"github.com/offchat/chat/server/store/types"
)

// Call signal events.
const (
	constCallEventOffer        = "offer"
	constCallEventAnswer       = "answer"
	constCallEventIceCandidate = "ice-candidate"
	constCallEventHangUp       = "hang-up"
	constCallEventReject       = "reject"

	// Reasons reported with "reject" and "hang-up" events.
	constCallReasonBusy    = "busy"
	constCallReasonTimeout = "timeout"

	// Default time the callee is given to answer.
	defaultCallEstablishmentTimeout = 30
)

type callState int

const (
	// The callee has the offer, waiting for the answer.
	callRinging callState = iota
	// Answer delivered, the call is live.
	callConnected
)

// iceCandidate is a queued ICE candidate. Candidates received before the
// call is connected are relayed after the answer, in arrival order.
type iceCandidate struct {
	from    string
	payload json.RawMessage
}

// callSession is a single pairwise call, established or in progress.
type callSession struct {
	// Normalized pair key.
	key string
	// Current signalling roles. Roles may swap once during glare resolution.
	caller string
	callee string

	state callState

	// Group Id when this pair is a leg of a group call mesh.
	groupId string

	// Candidates accumulated before the call is connected.
	pendingIce []iceCandidate

	// Establishment timer, armed at offer time.
	timer *time.Timer

	startedAt time.Time
}

// pairKey produces the map key of an unordered user pair.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

func (call *callSession) other(username string) string {
	if call.caller == username {
		return call.callee
	}
	return call.caller
}

// infoMessage generates the server info message for a call event.
func (call *callSession) infoMessage(event, from string, payload interface{}) *ServerComMessage {
	return &ServerComMessage{Info: &MsgServerInfo{
		What:      "call",
		Event:     event,
		From:      from,
		Group:     call.groupId,
		Payload:   payload,
		Timestamp: now(),
	}}
}

// CallCoordinator tracks all calls being established or in progress.
type CallCoordinator struct {
	lock sync.Mutex

	// Pairwise call sessions indexed by pair key.
	calls map[string]*callSession

	// Group call membership: username -> set of group Ids joined.
	groupJoined map[string]map[string]bool

	establishmentTimeout time.Duration
}

// NewCallCoordinator initializes an empty coordinator.
func NewCallCoordinator(timeout time.Duration) *CallCoordinator {
	if timeout <= 0 {
		timeout = defaultCallEstablishmentTimeout * time.Second
	}
	return &CallCoordinator{
		calls:                make(map[string]*callSession),
		groupJoined:          make(map[string]map[string]bool),
		establishmentTimeout: timeout,
	}
}

// call handles the {call} message.
func (s *Session) call(msg *ClientComMessage) {
	call := msg.Call
	switch call.What {
	case constCallEventOffer:
		globals.calls.handleOffer(s, msg)
	case constCallEventAnswer:
		globals.calls.handleAnswer(s, msg)
	case constCallEventIceCandidate:
		globals.calls.handleIceCandidate(s, msg)
	case constCallEventReject:
		globals.calls.handleReject(s, msg)
	case constCallEventHangUp:
		globals.calls.handleHangup(s, msg)
	case "join":
		globals.calls.handleGroupJoin(s, msg)
	default:
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
	}
}

// busyWith reports whether the user is engaged in any call outside of the
// given group call. Members of one group call are free to establish the
// pairwise mesh legs among themselves.
func (cc *CallCoordinator) busyWith(username, groupId string) bool {
	for _, call := range cc.calls {
		if call.caller != username && call.callee != username {
			continue
		}
		if groupId != "" && call.groupId == groupId {
			continue
		}
		return true
	}
	return false
}

// inGroupCall reports whether the user has joined the given group call.
func (cc *CallCoordinator) inGroupCall(username, groupId string) bool {
	return cc.groupJoined[username][groupId]
}

func (cc *CallCoordinator) handleOffer(s *Session, msg *ClientComMessage) {
	target := normalizeName(msg.Call.To)
	groupId := msg.Call.Group
	if target == "" || target == msg.from || len(msg.Call.Payload) == 0 {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	if groupId != "" {
		// A mesh leg offer is valid only between two joined members.
		cc.lock.Lock()
		joined := cc.inGroupCall(msg.from, groupId) && cc.inGroupCall(target, groupId)
		cc.lock.Unlock()
		if !joined {
			s.queueOut(ErrPermissionDenied(msg.id, msg.timestamp))
			return
		}
	}

	tsess := globals.presence.Resolve(target)
	if tsess == nil {
		s.queueOut(ErrUserUnreachable(msg.id, msg.timestamp))
		return
	}

	cc.lock.Lock()
	defer cc.lock.Unlock()

	key := pairKey(msg.from, target)
	if existing := cc.calls[key]; existing != nil {
		if existing.state != callConnected && existing.caller == target {
			// Glare: both parties dialed each other. The user with the
			// lexicographically greater name keeps the caller role.
			if msg.from > target {
				// This offer wins. Swap roles and replace the callee's copy
				// of the offer with the winning one.
				existing.caller = msg.from
				existing.callee = target
				existing.state = callRinging
				s.queueOut(NoErrAccepted(msg.id, msg.timestamp))
				tsess.queueOut(existing.infoMessage(constCallEventOffer, msg.from, msg.Call.Payload))
			} else {
				// This offer loses. Drop it silently, the winning offer is
				// already on its way to this client.
				s.queueOut(NoErrAccepted(msg.id, msg.timestamp))
			}
			return
		}
		// A call between the pair is already in place.
		s.queueOut(ErrCallBusy(msg.id, msg.timestamp))
		return
	}

	if cc.busyWith(msg.from, groupId) {
		s.queueOut(ErrCallBusy(msg.id, msg.timestamp))
		return
	}
	if cc.busyWith(target, groupId) {
		// The callee is on another call. Auto-reject without ringing.
		s.queueOut(NoErrAccepted(msg.id, msg.timestamp))
		busy := &callSession{groupId: groupId}
		s.queueOut(busy.infoMessage(constCallEventReject, target,
			map[string]string{"reason": constCallReasonBusy}))
		statsInc("CallsRejectedBusyTotal", 1)
		return
	}

	call := &callSession{
		key:       key,
		caller:    msg.from,
		callee:    target,
		state:     callRinging,
		groupId:   groupId,
		startedAt: time.Now(),
	}
	call.timer = time.AfterFunc(cc.establishmentTimeout, func() {
		cc.timeoutCall(key)
	})
	cc.calls[key] = call
	statsInc("CallsEstablishingTotal", 1)

	s.queueOut(NoErrAccepted(msg.id, msg.timestamp))
	tsess.queueOut(call.infoMessage(constCallEventOffer, msg.from, msg.Call.Payload))
}

func (cc *CallCoordinator) handleAnswer(s *Session, msg *ClientComMessage) {
	target := normalizeName(msg.Call.To)
	if target == "" || len(msg.Call.Payload) == 0 {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	cc.lock.Lock()
	defer cc.lock.Unlock()

	call := cc.calls[pairKey(msg.from, target)]
	if call == nil || call.callee != msg.from || call.state == callConnected {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}

	caller := globals.presence.Resolve(call.caller)
	if caller == nil {
		// The caller dropped while the phone was ringing.
		cc.removeCall(call)
		s.queueOut(ErrUserUnreachable(msg.id, msg.timestamp))
		return
	}

	call.state = callConnected
	call.timer.Stop()
	s.queueOut(NoErr(msg.id, msg.timestamp))
	caller.queueOut(call.infoMessage(constCallEventAnswer, msg.from, msg.Call.Payload))

	// Relay candidates accumulated while the call was being established,
	// in arrival order.
	for _, ice := range call.pendingIce {
		if peer := globals.presence.Resolve(call.other(ice.from)); peer != nil {
			peer.queueOut(call.infoMessage(constCallEventIceCandidate, ice.from, ice.payload))
		}
	}
	call.pendingIce = nil
	statsInc("CallsConnectedTotal", 1)
}

// handleReject declines a ringing call. Only the callee may reject; the
// caller is notified with the supplied reason.
func (cc *CallCoordinator) handleReject(s *Session, msg *ClientComMessage) {
	target := normalizeName(msg.Call.To)
	if target == "" {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	cc.lock.Lock()
	defer cc.lock.Unlock()

	call := cc.calls[pairKey(msg.from, target)]
	if call == nil || call.callee != msg.from || call.state == callConnected {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}

	cc.removeCall(call)
	s.queueOut(NoErr(msg.id, msg.timestamp))

	var payload interface{}
	if len(msg.Call.Payload) > 0 {
		payload = msg.Call.Payload
	}
	if caller := globals.presence.Resolve(call.caller); caller != nil {
		caller.queueOut(call.infoMessage(constCallEventReject, msg.from, payload))
	}
}

func (cc *CallCoordinator) handleIceCandidate(s *Session, msg *ClientComMessage) {
	target := normalizeName(msg.Call.To)
	if target == "" || len(msg.Call.Payload) == 0 {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	cc.lock.Lock()
	defer cc.lock.Unlock()

	call := cc.calls[pairKey(msg.from, target)]
	if call == nil {
		s.queueOut(ErrNotFound(msg.id, msg.timestamp))
		return
	}

	if call.state != callConnected {
		call.pendingIce = append(call.pendingIce, iceCandidate{from: msg.from, payload: msg.Call.Payload})
		return
	}

	if peer := globals.presence.Resolve(call.other(msg.from)); peer != nil {
		peer.queueOut(call.infoMessage(constCallEventIceCandidate, msg.from, msg.Call.Payload))
	}
}

func (cc *CallCoordinator) handleHangup(s *Session, msg *ClientComMessage) {
	target := normalizeName(msg.Call.To)

	cc.lock.Lock()
	defer cc.lock.Unlock()

	if target != "" {
		// Hanging up a single call. Absence is not an error: both sides
		// may hang up concurrently.
		if call := cc.calls[pairKey(msg.from, target)]; call != nil {
			cc.endCall(call, msg.from, nil)
		}
		s.queueOut(NoErr(msg.id, msg.timestamp))
		return
	}

	if msg.Call.Group != "" {
		cc.leaveGroupCallLocked(msg.from, msg.Call.Group)
		s.queueOut(NoErr(msg.id, msg.timestamp))
		return
	}

	s.queueOut(ErrMalformed(msg.id, msg.timestamp))
}

// handleGroupJoin admits the user to a group call and returns usernames of
// the members already in it. The caller is expected to send a mesh offer
// to each of them.
func (cc *CallCoordinator) handleGroupJoin(s *Session, msg *ClientComMessage) {
	groupId := msg.Call.Group
	if groupId == "" {
		s.queueOut(ErrMalformed(msg.id, msg.timestamp))
		return
	}

	group, err := store.Groups.Get(types.ParseUid(groupId))
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

	cc.lock.Lock()
	defer cc.lock.Unlock()

	if cc.busyWith(msg.from, groupId) {
		s.queueOut(ErrCallBusy(msg.id, msg.timestamp))
		return
	}

	var present []string
	for member, groups := range cc.groupJoined {
		if member != msg.from && groups[groupId] {
			present = append(present, member)
		}
	}

	if cc.groupJoined[msg.from] == nil {
		cc.groupJoined[msg.from] = make(map[string]bool)
	}
	cc.groupJoined[msg.from][groupId] = true

	s.queueOut(NoErrParams(msg.id, msg.timestamp, map[string]interface{}{
		"group":   groupId,
		"members": present,
	}))
}

// TerminateAllFor drops every call the user is a party of and withdraws the
// user from all group calls. Called when the user goes offline.
func (cc *CallCoordinator) TerminateAllFor(username string) {
	cc.lock.Lock()
	defer cc.lock.Unlock()

	for _, call := range cc.calls {
		if call.caller == username || call.callee == username {
			cc.endCall(call, username, nil)
		}
	}
	delete(cc.groupJoined, username)
}

// leaveGroupCallLocked tears down the user's mesh legs of the group call.
// Lock must be held.
func (cc *CallCoordinator) leaveGroupCallLocked(username, groupId string) {
	for _, call := range cc.calls {
		if call.groupId == groupId && (call.caller == username || call.callee == username) {
			cc.endCall(call, username, nil)
		}
	}
	if groups := cc.groupJoined[username]; groups != nil {
		delete(groups, groupId)
		if len(groups) == 0 {
			delete(cc.groupJoined, username)
		}
	}
}

// endCall removes the call and notifies the other party. Lock must be held.
func (cc *CallCoordinator) endCall(call *callSession, from string, payload interface{}) {
	cc.removeCall(call)
	if peer := globals.presence.Resolve(call.other(from)); peer != nil {
		peer.queueOut(call.infoMessage(constCallEventHangUp, from, payload))
	}
	if call.state == callConnected {
		logs.Info.Println("call: finished", call.key, "duration", time.Since(call.startedAt).Round(time.Second))
	}
}

// timeoutCall terminates a call which was not answered in time.
func (cc *CallCoordinator) timeoutCall(key string) {
	cc.lock.Lock()
	defer cc.lock.Unlock()

	call := cc.calls[key]
	if call == nil || call.state == callConnected {
		return
	}
	cc.removeCall(call)

	reason := map[string]string{"reason": constCallReasonTimeout}
	for _, party := range []string{call.caller, call.callee} {
		if sess := globals.presence.Resolve(party); sess != nil {
			sess.queueOut(call.infoMessage(constCallEventHangUp, call.other(party), reason))
		}
	}
	logs.Info.Println("call: establishment timed out", call.key)
	statsInc("CallsTimedOutTotal", 1)
}

func (cc *CallCoordinator) removeCall(call *callSession) {
	if call.timer != nil {
		call.timer.Stop()
	}
	delete(cc.calls, call.key)
}
