// Package types provides data types for persisting objects in the database.
package types

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"time"
)

// StoreError satisfies Error interface but allows constant values for
// direct comparison.
type StoreError string

// Error is required by error interface.
func (s StoreError) Error() string {
	return string(s)
}

const (
	// ErrInternal means DB or other internal failure.
	ErrInternal = StoreError("internal")
	// ErrMalformed means the secret or request cannot be parsed or otherwise wrong.
	ErrMalformed = StoreError("malformed")
	// ErrFailed means the operation failed for any other reason.
	ErrFailed = StoreError("failed")
	// ErrDuplicate means the object already exists.
	ErrDuplicate = StoreError("duplicate value")
	// ErrNotFound means the object is not found.
	ErrNotFound = StoreError("not found")
	// ErrPermissionDenied means the operation is not permitted.
	ErrPermissionDenied = StoreError("denied")
	// ErrUnavailable means the persistence layer is down or unreachable.
	ErrUnavailable = StoreError("unavailable")
)

// Uid is a database-specific record id, suitable to be used as a primary key.
type Uid uint64

// ZeroUid is a constant representing uninitialized Uid.
const ZeroUid Uid = 0

const (
	uidBase64Unpadded = 11
	uidBase64Padded   = 12
)

// IsZero checks if Uid is uninitialized.
func (uid Uid) IsZero() bool {
	return uid == 0
}

// MarshalBinary converts Uid to byte slice.
func (uid Uid) MarshalBinary() ([]byte, error) {
	dst := make([]byte, 8)
	binary.LittleEndian.PutUint64(dst, uint64(uid))
	return dst, nil
}

// UnmarshalBinary reads Uid from byte slice.
func (uid *Uid) UnmarshalBinary(b []byte) error {
	if len(b) < 8 {
		return errors.New("Uid.UnmarshalBinary: invalid length")
	}
	*uid = Uid(binary.LittleEndian.Uint64(b))
	return nil
}

// UnmarshalText reads Uid from base64 representation.
func (uid *Uid) UnmarshalText(src []byte) error {
	if len(src) != uidBase64Unpadded {
		return errors.New("Uid.UnmarshalText: invalid length")
	}
	for len(src) < uidBase64Padded {
		src = append(src, '=')
	}
	dec := make([]byte, base64.URLEncoding.DecodedLen(uidBase64Padded))
	count, err := base64.URLEncoding.Decode(dec, src)
	if count < 8 {
		if err != nil {
			return errors.New("Uid.UnmarshalText: failed to decode " + err.Error())
		}
		return errors.New("Uid.UnmarshalText: failed to decode")
	}
	*uid = Uid(binary.LittleEndian.Uint64(dec))
	return nil
}

// MarshalText converts Uid to base64 representation.
func (uid Uid) MarshalText() ([]byte, error) {
	if uid == 0 {
		return []byte{}, nil
	}
	src := make([]byte, 8)
	dst := make([]byte, base64.URLEncoding.EncodedLen(8))
	binary.LittleEndian.PutUint64(src, uint64(uid))
	base64.URLEncoding.Encode(dst, src)
	return dst[0:uidBase64Unpadded], nil
}

// MarshalJSON converts Uid to double quoted ("ajjj") string.
func (uid Uid) MarshalJSON() ([]byte, error) {
	dst, _ := uid.MarshalText()
	return append(append([]byte{'"'}, dst...), '"'), nil
}

// UnmarshalJSON reads Uid from a double quoted string.
func (uid *Uid) UnmarshalJSON(b []byte) error {
	size := len(b)
	if size != (uidBase64Unpadded + 2) {
		return errors.New("Uid.UnmarshalJSON: invalid length")
	} else if b[0] != '"' || b[size-1] != '"' {
		return errors.New("Uid.UnmarshalJSON: unrecognized")
	}
	return uid.UnmarshalText(b[1 : size-1])
}

// String converts Uid to its base64 string representation.
func (uid Uid) String() string {
	buf, _ := uid.MarshalText()
	return string(buf)
}

// ParseUid parses Uid from its base64 string representation.
// Returns ZeroUid on failure.
func ParseUid(s string) Uid {
	var uid Uid
	uid.UnmarshalText([]byte(s))
	return uid
}

// ObjHeader is the header shared by all stored objects.
type ObjHeader struct {
	// Id of the object, base64 string form of Uid.
	Id string `json:"id" bson:"_id"`
	// Cached decoded form of Id.
	id        Uid
	CreatedAt time.Time `json:"created" bson:"createdat"`
	UpdatedAt time.Time `json:"updated" bson:"updatedat"`
}

// Uid returns the Uid of the object, decoding it from Id if necessary.
func (h *ObjHeader) Uid() Uid {
	if h.id.IsZero() && h.Id != "" {
		h.id.UnmarshalText([]byte(h.Id))
	}
	return h.id
}

// SetUid assigns the given Uid to the object.
func (h *ObjHeader) SetUid(uid Uid) {
	h.id = uid
	h.Id = uid.String()
}

// InitTimes initializes time.Time variables in the header to current time.
func (h *ObjHeader) InitTimes() {
	if h.CreatedAt.IsZero() {
		h.CreatedAt = TimeNow()
	}
	h.UpdatedAt = h.CreatedAt
}

// TimeNow returns current wall time in UTC rounded to milliseconds.
func TimeNow() time.Time {
	return time.Now().UTC().Round(time.Millisecond)
}

// User is a stored identity. Identities are keyed by case-sensitive
// unique username and are never deleted.
type User struct {
	ObjHeader `bson:",inline"`
	Username  string `json:"username" bson:"username"`
}

// FriendRequest is a pending directed friend request. At most one
// outstanding request exists per ordered (sender, recipient) pair.
type FriendRequest struct {
	Sender    string    `json:"sender" bson:"sender"`
	Recipient string    `json:"recipient" bson:"recipient"`
	CreatedAt time.Time `json:"created" bson:"createdat"`
}

// Group is a named chat group. Membership only grows.
type Group struct {
	ObjHeader `bson:",inline"`
	Name      string   `json:"name" bson:"name"`
	Owner     string   `json:"owner" bson:"owner"`
	Members   []string `json:"members" bson:"members"`
}

// Content type tags of a chat message.
const (
	ContentText  = "text"
	ContentImage = "image"
)

// MessageContent is a tagged variant: plain text or an opaque media
// reference with a type tag.
type MessageContent struct {
	Type     string `json:"type" bson:"type"`
	Text     string `json:"text,omitempty" bson:"text,omitempty"`
	MediaRef string `json:"ref,omitempty" bson:"ref,omitempty"`
}

// Valid checks the content tag and tag-appropriate payload.
func (c *MessageContent) Valid() bool {
	switch c.Type {
	case ContentText:
		return c.Text != ""
	case ContentImage:
		return c.MediaRef != ""
	}
	return false
}

// Message is a stored chat message. Either To (direct) or Group is set,
// never both. Immutable once created.
type Message struct {
	ObjHeader `bson:",inline"`
	From      string         `json:"from" bson:"from"`
	To        string         `json:"to,omitempty" bson:"to,omitempty"`
	Group     string         `json:"group,omitempty" bson:"group,omitempty"`
	Content   MessageContent `json:"content" bson:"content"`
}

// Status is an ephemeral broadcast post. Expiry is enforced by the
// storage adapter, deletion by the owner only.
type Status struct {
	ObjHeader `bson:",inline"`
	Owner     string    `json:"owner" bson:"owner"`
	MediaRef  string    `json:"ref" bson:"ref"`
	ExpiresAt time.Time `json:"expires" bson:"expiresat"`
}
