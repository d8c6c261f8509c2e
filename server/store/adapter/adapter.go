// Package adapter contains the interfaces to be implemented by the database adapter.
package adapter

import (
	"encoding/json"

	t "github.com/offchat/chat/server/store/types"
)

// Adapter is the interface that must be implemented by a database
// adapter. The current schema supports a single connection by database type.
type Adapter interface {
	// Open and configure the adapter.
	Open(jsonconf json.RawMessage) error
	// Close the adapter.
	Close() error
	// IsOpen checks if the adapter is ready for use.
	IsOpen() bool
	// GetName returns the name of the adapter.
	GetName() string
	// CreateDb creates the database optionally dropping an existing one first.
	CreateDb(reset bool) error

	// User management

	// UserGet fetches a user by name. Returns (nil, nil) if the user does not exist.
	UserGet(username string) (*t.User, error)
	// UserCreate persists a new user. Fails with t.ErrDuplicate if the name is taken.
	UserCreate(user *t.User) error

	// Friend graph

	// FriendsGet returns usernames of all friends of the given user.
	FriendsGet(username string) ([]string, error)
	// RequestAdd persists a pending friend request.
	// Fails with t.ErrDuplicate if one already exists for the ordered pair.
	RequestAdd(req *t.FriendRequest) error
	// RequestExists checks for a pending request for the ordered pair.
	RequestExists(sender, recipient string) (bool, error)
	// RequestsForUser returns senders of all pending requests addressed to the user.
	RequestsForUser(recipient string) ([]string, error)
	// RequestDelete removes a pending request without creating an edge.
	RequestDelete(sender, recipient string) error
	// RequestAccept atomically creates the symmetric friend edge and
	// deletes the pending request as one logical unit.
	RequestAccept(sender, recipient string) error

	// Groups

	// GroupCreate persists a new group. Fails with t.ErrDuplicate if the
	// display name is not unique.
	GroupCreate(group *t.Group) error
	// GroupGet fetches a group by id. Returns (nil, nil) if not found.
	GroupGet(id t.Uid) (*t.Group, error)
	// GroupsForUser returns all groups the user is a member of.
	GroupsForUser(username string) ([]t.Group, error)

	// Messages

	// MessageSave appends a message.
	MessageSave(msg *t.Message) error
	// MessagesGetPair returns direct messages between the two users,
	// ordered by creation time ascending.
	MessagesGetPair(userA, userB string) ([]t.Message, error)
	// MessagesGetGroup returns messages of a group ordered by creation
	// time ascending.
	MessagesGetGroup(group t.Uid) ([]t.Message, error)

	// Statuses

	// StatusSave appends a status post with an expiration timestamp.
	StatusSave(status *t.Status) error
	// StatusGet fetches a status by id; expired statuses are reported as
	// absent. Returns (nil, nil) if not found.
	StatusGet(id t.Uid) (*t.Status, error)
	// StatusesGetAll returns all non-expired statuses, newest first.
	StatusesGetAll() ([]t.Status, error)
	// StatusDelete removes a status by id.
	StatusDelete(id t.Uid) error
}
