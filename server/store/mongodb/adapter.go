// Package mongodb is a database adapter for MongoDB.
package mongodb

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/offchat/chat/server/store"
	t "github.com/offchat/chat/server/store/types"
	b "go.mongodb.org/mongo-driver/bson"
	mdb "go.mongodb.org/mongo-driver/mongo"
	mdbopts "go.mongodb.org/mongo-driver/mongo/options"
)

// adapter holds MongoDB connection data.
type adapter struct {
	conn            *mdb.Client
	db              *mdb.Database
	dbName          string
	ctx             context.Context
	useTransactions bool
}

const (
	defaultHost     = "localhost:27017"
	defaultDatabase = "offchat"

	adapterName = "mongodb"
)

// See https://godoc.org/go.mongodb.org/mongo-driver/mongo/options#ClientOptions for explanations.
type configType struct {
	Addresses      interface{} `json:"addresses,omitempty"`
	ConnectTimeout int         `json:"timeout,omitempty"`

	// Options separately from ClientOptions (custom options):
	Database   string `json:"database,omitempty"`
	ReplicaSet string `json:"replica_set,omitempty"`

	AuthSource string `json:"auth_source,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
}

// Open initializes mongodb session.
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.conn != nil {
		return errors.New("adapter mongodb is already connected")
	}

	var err error
	var config configType
	if err = json.Unmarshal(jsonconfig, &config); err != nil {
		return errors.New("adapter mongodb failed to parse config: " + err.Error())
	}

	var opts mdbopts.ClientOptions

	if config.Addresses == nil {
		opts.SetHosts([]string{defaultHost})
	} else if host, ok := config.Addresses.(string); ok {
		opts.SetHosts([]string{host})
	} else if hosts, ok := config.Addresses.([]string); ok {
		opts.SetHosts(hosts)
	} else {
		return errors.New("adapter mongodb failed to parse config.Addresses")
	}

	if config.Database == "" {
		a.dbName = defaultDatabase
	} else {
		a.dbName = config.Database
	}

	if config.ReplicaSet != "" {
		opts.SetReplicaSet(config.ReplicaSet)
		a.useTransactions = true
	}

	if config.Username != "" {
		var passwordSet bool
		if config.AuthSource == "" {
			config.AuthSource = "admin"
		}
		if config.Password != "" {
			passwordSet = true
		}
		opts.SetAuth(
			mdbopts.Credential{
				AuthMechanism: "SCRAM-SHA-256",
				AuthSource:    config.AuthSource,
				Username:      config.Username,
				Password:      config.Password,
				PasswordSet:   passwordSet,
			})
	}

	a.ctx = context.Background()
	a.conn, err = mdb.Connect(a.ctx, &opts)
	a.db = a.conn.Database(a.dbName)
	if err != nil {
		return err
	}

	return nil
}

// Close the adapter.
func (a *adapter) Close() error {
	var err error
	if a.conn != nil {
		err = a.conn.Disconnect(a.ctx)
		a.conn = nil
	}
	return err
}

// IsOpen checks if the adapter is ready for use.
func (a *adapter) IsOpen() bool {
	return a.conn != nil
}

// GetName returns the name of the adapter.
func (a *adapter) GetName() string {
	return adapterName
}

// CreateDb creates indexes, optionally dropping the database first.
func (a *adapter) CreateDb(reset bool) error {
	if reset {
		if err := a.db.Drop(a.ctx); err != nil {
			return err
		}
	}

	indexes := []struct {
		Collection string
		IndexOpts  mdb.IndexModel
	}{
		// Users. Unique index on username.
		{
			Collection: "users",
			IndexOpts: mdb.IndexModel{
				Keys:    b.M{"username": 1},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		// Friend edges, one per unordered pair.
		{
			Collection: "friends",
			IndexOpts: mdb.IndexModel{
				Keys:    b.D{{Key: "user1", Value: 1}, {Key: "user2", Value: 1}},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		{
			Collection: "friends",
			IndexOpts:  mdb.IndexModel{Keys: b.M{"user2": 1}},
		},
		// Pending friend requests, one per ordered pair.
		{
			Collection: "requests",
			IndexOpts: mdb.IndexModel{
				Keys:    b.D{{Key: "sender", Value: 1}, {Key: "recipient", Value: 1}},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		{
			Collection: "requests",
			IndexOpts:  mdb.IndexModel{Keys: b.M{"recipient": 1}},
		},
		// Groups. Unique index on display name.
		{
			Collection: "groups",
			IndexOpts: mdb.IndexModel{
				Keys:    b.M{"name": 1},
				Options: mdbopts.Index().SetUnique(true),
			},
		},
		{
			Collection: "groups",
			IndexOpts:  mdb.IndexModel{Keys: b.M{"members": 1}},
		},
		// Messages, queried by pair or group, ordered by creation time.
		{
			Collection: "messages",
			IndexOpts:  mdb.IndexModel{Keys: b.D{{Key: "from", Value: 1}, {Key: "to", Value: 1}, {Key: "createdat", Value: 1}}},
		},
		{
			Collection: "messages",
			IndexOpts:  mdb.IndexModel{Keys: b.D{{Key: "group", Value: 1}, {Key: "createdat", Value: 1}}},
		},
		// Statuses expire through a TTL index on the expiration timestamp.
		{
			Collection: "statuses",
			IndexOpts: mdb.IndexModel{
				Keys:    b.M{"expiresat": 1},
				Options: mdbopts.Index().SetExpireAfterSeconds(0),
			},
		},
	}

	for _, idx := range indexes {
		if _, err := a.db.Collection(idx.Collection).Indexes().CreateOne(a.ctx, idx.IndexOpts); err != nil {
			return err
		}
	}

	return nil
}

// maybeDuplicate converts mongo unique index violations to t.ErrDuplicate.
func maybeDuplicate(err error) error {
	if mdb.IsDuplicateKeyError(err) {
		return t.ErrDuplicate
	}
	return err
}

// UserGet fetches a user by name.
func (a *adapter) UserGet(username string) (*t.User, error) {
	var user t.User
	err := a.db.Collection("users").FindOne(a.ctx, b.M{"username": username}).Decode(&user)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UserCreate persists a new user.
func (a *adapter) UserCreate(user *t.User) error {
	_, err := a.db.Collection("users").InsertOne(a.ctx, user)
	return maybeDuplicate(err)
}

// friendEdge is a single stored edge; user1 < user2 lexicographically.
type friendEdge struct {
	User1     string    `bson:"user1"`
	User2     string    `bson:"user2"`
	CreatedAt time.Time `bson:"createdat"`
}

func orderPair(userA, userB string) (string, string) {
	if userA < userB {
		return userA, userB
	}
	return userB, userA
}

// FriendsGet returns usernames of all friends of the given user.
func (a *adapter) FriendsGet(username string) ([]string, error) {
	cur, err := a.db.Collection("friends").Find(a.ctx,
		b.M{"$or": b.A{b.M{"user1": username}, b.M{"user2": username}}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(a.ctx)

	var friends []string
	for cur.Next(a.ctx) {
		var edge friendEdge
		if err = cur.Decode(&edge); err != nil {
			return nil, err
		}
		if edge.User1 == username {
			friends = append(friends, edge.User2)
		} else {
			friends = append(friends, edge.User1)
		}
	}
	return friends, cur.Err()
}

// RequestAdd persists a pending friend request.
func (a *adapter) RequestAdd(req *t.FriendRequest) error {
	_, err := a.db.Collection("requests").InsertOne(a.ctx, req)
	return maybeDuplicate(err)
}

// RequestExists checks for a pending request for the ordered pair.
func (a *adapter) RequestExists(sender, recipient string) (bool, error) {
	err := a.db.Collection("requests").FindOne(a.ctx,
		b.M{"sender": sender, "recipient": recipient}).Err()
	if err == mdb.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RequestsForUser returns senders of all pending requests addressed to the user.
func (a *adapter) RequestsForUser(recipient string) ([]string, error) {
	cur, err := a.db.Collection("requests").Find(a.ctx, b.M{"recipient": recipient})
	if err != nil {
		return nil, err
	}
	defer cur.Close(a.ctx)

	var senders []string
	for cur.Next(a.ctx) {
		var req t.FriendRequest
		if err = cur.Decode(&req); err != nil {
			return nil, err
		}
		senders = append(senders, req.Sender)
	}
	return senders, cur.Err()
}

// RequestDelete removes a pending request.
func (a *adapter) RequestDelete(sender, recipient string) error {
	_, err := a.db.Collection("requests").DeleteOne(a.ctx,
		b.M{"sender": sender, "recipient": recipient})
	return err
}

// RequestAccept creates the friend edge and deletes the pending request.
// Runs in a transaction when the deployment supports it. Without transactions
// the edge is created first: a leftover request with an existing edge is
// detectable and safe to re-delete.
func (a *adapter) RequestAccept(sender, recipient string) error {
	user1, user2 := orderPair(sender, recipient)
	edge := &friendEdge{User1: user1, User2: user2, CreatedAt: t.TimeNow()}

	insertAndDelete := func(ctx context.Context) error {
		if _, err := a.db.Collection("friends").InsertOne(ctx, edge); err != nil {
			return maybeDuplicate(err)
		}
		_, err := a.db.Collection("requests").DeleteOne(ctx,
			b.M{"sender": sender, "recipient": recipient})
		return err
	}

	if a.useTransactions {
		sess, err := a.conn.StartSession()
		if err != nil {
			return err
		}
		defer sess.EndSession(a.ctx)

		_, err = sess.WithTransaction(a.ctx, func(sc mdb.SessionContext) (interface{}, error) {
			return nil, insertAndDelete(sc)
		})
		return err
	}

	return insertAndDelete(a.ctx)
}

// GroupCreate persists a new group.
func (a *adapter) GroupCreate(group *t.Group) error {
	_, err := a.db.Collection("groups").InsertOne(a.ctx, group)
	return maybeDuplicate(err)
}

// GroupGet fetches a group by id.
func (a *adapter) GroupGet(id t.Uid) (*t.Group, error) {
	var group t.Group
	err := a.db.Collection("groups").FindOne(a.ctx, b.M{"_id": id.String()}).Decode(&group)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &group, nil
}

// GroupsForUser returns all groups the user is a member of.
func (a *adapter) GroupsForUser(username string) ([]t.Group, error) {
	cur, err := a.db.Collection("groups").Find(a.ctx, b.M{"members": username})
	if err != nil {
		return nil, err
	}
	defer cur.Close(a.ctx)

	var groups []t.Group
	for cur.Next(a.ctx) {
		var group t.Group
		if err = cur.Decode(&group); err != nil {
			return nil, err
		}
		groups = append(groups, group)
	}
	return groups, cur.Err()
}

// MessageSave appends a message.
func (a *adapter) MessageSave(msg *t.Message) error {
	_, err := a.db.Collection("messages").InsertOne(a.ctx, msg)
	return err
}

// MessagesGetPair returns direct messages between the two users ordered by
// creation time ascending.
func (a *adapter) MessagesGetPair(userA, userB string) ([]t.Message, error) {
	filter := b.M{"$or": b.A{
		b.M{"from": userA, "to": userB},
		b.M{"from": userB, "to": userA},
	}}
	return a.messagesGet(filter)
}

// MessagesGetGroup returns messages of a group ordered by creation time ascending.
func (a *adapter) MessagesGetGroup(group t.Uid) ([]t.Message, error) {
	return a.messagesGet(b.M{"group": group.String()})
}

func (a *adapter) messagesGet(filter b.M) ([]t.Message, error) {
	findOpts := mdbopts.Find().SetSort(b.M{"createdat": 1})
	cur, err := a.db.Collection("messages").Find(a.ctx, filter, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(a.ctx)

	var msgs []t.Message
	for cur.Next(a.ctx) {
		var msg t.Message
		if err = cur.Decode(&msg); err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, cur.Err()
}

// StatusSave appends a status post.
func (a *adapter) StatusSave(status *t.Status) error {
	_, err := a.db.Collection("statuses").InsertOne(a.ctx, status)
	return err
}

// StatusGet fetches a non-expired status by id.
func (a *adapter) StatusGet(id t.Uid) (*t.Status, error) {
	var status t.Status
	err := a.db.Collection("statuses").FindOne(a.ctx,
		b.M{"_id": id.String(), "expiresat": b.M{"$gt": t.TimeNow()}}).Decode(&status)
	if err == mdb.ErrNoDocuments {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &status, nil
}

// StatusesGetAll returns all non-expired statuses, newest first.
// The TTL index reaps expired documents eventually; the filter guarantees
// they are never visible in the meantime.
func (a *adapter) StatusesGetAll() ([]t.Status, error) {
	findOpts := mdbopts.Find().SetSort(b.M{"createdat": -1})
	cur, err := a.db.Collection("statuses").Find(a.ctx,
		b.M{"expiresat": b.M{"$gt": t.TimeNow()}}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(a.ctx)

	var statuses []t.Status
	for cur.Next(a.ctx) {
		var status t.Status
		if err = cur.Decode(&status); err != nil {
			return nil, err
		}
		statuses = append(statuses, status)
	}
	return statuses, cur.Err()
}

// StatusDelete removes a status by id.
func (a *adapter) StatusDelete(id t.Uid) error {
	_, err := a.db.Collection("statuses").DeleteOne(a.ctx, b.M{"_id": id.String()})
	return err
}

func init() {
	store.RegisterAdapter(&adapter{})
}
