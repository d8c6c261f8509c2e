/******************************************************************************
 *
 *  Description :
 *
 *    Definition of messages exchanged between clients and the server.
 *
 *****************************************************************************/

package main

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/offchat/chat/server/store/types"
)

// MsgClientJoin is a message by a client to announce itself and come online.
type MsgClientJoin struct {
	// Message Id.
	Id string `json:"id,omitempty"`
	// Username to join as.
	Username string `json:"username"`
}

// MsgClientMsg is a chat message sent by a client to a user or a group.
type MsgClientMsg struct {
	Id string `json:"id,omitempty"`
	// Recipient username. Either To or Group is set, never both.
	To string `json:"to,omitempty"`
	// Recipient group Id.
	Group string `json:"group,omitempty"`
	// Message content.
	Content types.MessageContent `json:"content"`
}

// MsgClientHist is a request for message history with a user or a group.
type MsgClientHist struct {
	Id string `json:"id,omitempty"`
	// Fetch the direct conversation with this user.
	With string `json:"with,omitempty"`
	// Fetch messages of this group.
	Group string `json:"group,omitempty"`
}

// MsgClientFriend is a friend graph mutation request.
type MsgClientFriend struct {
	Id string `json:"id,omitempty"`
	// One of "request", "accept", "reject".
	What string `json:"what"`
	// The other user.
	Username string `json:"username"`
}

// MsgClientGroup is a request to create a chat group.
type MsgClientGroup struct {
	Id string `json:"id,omitempty"`
	// Group display name.
	Name string `json:"name"`
	// Usernames of the initial members.
	Members []string `json:"members,omitempty"`
}

// MsgClientCall is a video call signal.
type MsgClientCall struct {
	Id string `json:"id,omitempty"`
	// One of "offer", "answer", "ice-candidate", "hang-up", "join".
	What string `json:"what"`
	// The other party of a one on one call, or the peer the signal is
	// addressed to within a group call.
	To string `json:"to,omitempty"`
	// Group Id for group calls.
	Group string `json:"group,omitempty"`
	// Opaque WebRTC payload: SDP or an ICE candidate.
	Payload json.RawMessage `json:"payload,omitempty"`
}

// MsgClientStatus is an ephemeral status feed request.
type MsgClientStatus struct {
	Id string `json:"id,omitempty"`
	// One of "post", "list", "delete".
	What string `json:"what"`
	// Reference to the posted media, required for "post".
	Ref string `json:"ref,omitempty"`
	// Id of the status to delete.
	Status string `json:"status,omitempty"`
}

// ClientComMessage is a wrapper for client messages.
type ClientComMessage struct {
	Join   *MsgClientJoin   `json:"join"`
	Msg    *MsgClientMsg    `json:"msg"`
	Hist   *MsgClientHist   `json:"hist"`
	Friend *MsgClientFriend `json:"friend"`
	Group  *MsgClientGroup  `json:"group"`
	Call   *MsgClientCall   `json:"call"`
	Status *MsgClientStatus `json:"status"`

	// Message Id denormalized from the embedded message.
	id string
	// Sender's username, as recorded at join time.
	from string
	// Timestamp when the message was received by the server.
	timestamp time.Time
}

// MsgServerCtrl is a server control message, a response to a client request.
type MsgServerCtrl struct {
	Id     string      `json:"id,omitempty"`
	Code   int         `json:"code"`
	Text   string      `json:"text,omitempty"`
	Params interface{} `json:"params,omitempty"`

	Timestamp time.Time `json:"ts"`
}

// MsgServerData is a chat message delivered to a client.
type MsgServerData struct {
	Id string `json:"id,omitempty"`
	// Sender username.
	From string `json:"from"`
	// Recipient username for direct messages.
	To string `json:"to,omitempty"`
	// Group Id for group messages.
	Group string `json:"group,omitempty"`

	Timestamp time.Time            `json:"ts"`
	Content   types.MessageContent `json:"content"`
}

// MsgServerPres is a presence or social-graph notification.
type MsgServerPres struct {
	// One of "on", "off", "friend-request", "request-accepted".
	What string `json:"what"`
	// The user this notification is about.
	Src string `json:"src"`
	// Refreshed friend data attached to "request-accepted".
	Params interface{} `json:"params,omitempty"`
}

// MsgServerInfo is a call signal or a status feed event forwarded to a client.
type MsgServerInfo struct {
	// Either "call" or "status".
	What string `json:"what"`
	// Call: "offer", "answer", "ice-candidate", "hang-up", "reject".
	// Status: "posted", "deleted".
	Event string `json:"event"`
	// Originating user.
	From string `json:"from,omitempty"`
	// Group Id for group call signals.
	Group string `json:"group,omitempty"`
	// Opaque payload: SDP, ICE candidate, reject reason, status object.
	Payload interface{} `json:"payload,omitempty"`

	Timestamp time.Time `json:"ts"`
}

// ServerComMessage is a wrapper for server side messages.
type ServerComMessage struct {
	Ctrl *MsgServerCtrl `json:"ctrl,omitempty"`
	Data *MsgServerData `json:"data,omitempty"`
	Pres *MsgServerPres `json:"pres,omitempty"`
	Info *MsgServerInfo `json:"info,omitempty"`

	// Message Id denormalized from the embedded message.
	id string
	// Timestamp for consistency of timestamps in {ctrl} messages.
	timestamp time.Time
}

// MsgUserData is the account snapshot returned on join.
type MsgUserData struct {
	Username string `json:"username"`
	// Usernames of accepted friends.
	Friends []string `json:"friends"`
	// Usernames with a pending request addressed to this user.
	Requests []string `json:"requests"`
	// Groups the user is a member of.
	Groups []types.Group `json:"groups"`
}

// Generators of server-side error messages {ctrl}.

// NoErr indicates successful completion (200).
func NoErr(id string, ts time.Time) *ServerComMessage {
	return NoErrParams(id, ts, nil)
}

// NoErrParams indicates successful completion with parameters (200).
func NoErrParams(id string, ts time.Time, params interface{}) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusOK, // 200
		Text:      "ok",
		Params:    params,
		Timestamp: ts}, id: id, timestamp: ts}
}

// NoErrCreated indicates successful creation of an object (201).
func NoErrCreated(id string, ts time.Time, params interface{}) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusCreated, // 201
		Text:      "created",
		Params:    params,
		Timestamp: ts}, id: id, timestamp: ts}
}

// NoErrAccepted indicates the request was accepted but not yet completed (202).
func NoErrAccepted(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusAccepted, // 202
		Text:      "accepted",
		Timestamp: ts}, id: id, timestamp: ts}
}

// NoErrShutdown means the server is shutting down (205).
func NoErrShutdown(ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Code:      http.StatusResetContent, // 205
		Text:      "server shutdown",
		Timestamp: ts}}
}

// 4xx Errors

// ErrMalformed request malformed (400).
func ErrMalformed(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusBadRequest, // 400
		Text:      "malformed",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrAuthRequired the client must join first (401).
func ErrAuthRequired(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusUnauthorized, // 401
		Text:      "authentication required",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrPermissionDenied the user is not authorized for the operation (403).
func ErrPermissionDenied(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusForbidden, // 403
		Text:      "permission denied",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrUserNotFound the addressed user does not exist (404).
func ErrUserNotFound(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusNotFound, // 404
		Text:      "user not found",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrNotFound the addressed object does not exist (404).
func ErrNotFound(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusNotFound, // 404
		Text:      "not found",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrDuplicate the object already exists (409).
func ErrDuplicate(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusConflict, // 409
		Text:      "duplicate",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrUserUnreachable the addressed user is offline (480, SIP "temporarily
// unavailable").
func ErrUserUnreachable(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      480,
		Text:      "user unreachable",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrCallBusy the user is busy with another call (486, SIP "busy here").
func ErrCallBusy(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      486,
		Text:      "busy here",
		Timestamp: ts}, id: id, timestamp: ts}
}

// 5xx Errors

// ErrUnknown database or other server error (500).
func ErrUnknown(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusInternalServerError, // 500
		Text:      "internal error",
		Timestamp: ts}, id: id, timestamp: ts}
}

// ErrServiceUnavailable the server is overloaded or shutting down (503).
func ErrServiceUnavailable(id string, ts time.Time) *ServerComMessage {
	return &ServerComMessage{Ctrl: &MsgServerCtrl{
		Id:        id,
		Code:      http.StatusServiceUnavailable, // 503
		Text:      "service unavailable",
		Timestamp: ts}, id: id, timestamp: ts}
}

// decodeStoreError converts an error from the store to a {ctrl} response.
func decodeStoreError(err error, id string, ts time.Time) *ServerComMessage {
	if err == nil {
		return NoErr(id, ts)
	}

	storeErr, ok := err.(types.StoreError)
	if !ok {
		// A raw driver or connection error: the store is not serving requests.
		return ErrServiceUnavailable(id, ts)
	}

	switch storeErr {
	case types.ErrDuplicate:
		return ErrDuplicate(id, ts)
	case types.ErrNotFound:
		return ErrNotFound(id, ts)
	case types.ErrPermissionDenied:
		return ErrPermissionDenied(id, ts)
	case types.ErrMalformed:
		return ErrMalformed(id, ts)
	case types.ErrUnavailable:
		return ErrServiceUnavailable(id, ts)
	default:
		return ErrUnknown(id, ts)
	}
}
