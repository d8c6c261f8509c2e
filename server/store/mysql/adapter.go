// Package mysql is a database adapter for MySQL.
package mysql

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	ms "github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
	"github.com/offchat/chat/server/store"
	t "github.com/offchat/chat/server/store/types"
)

// adapter holds MySQL connection data.
type adapter struct {
	db     *sqlx.DB
	dbName string
}

const (
	defaultDSN      = "root:@tcp(localhost:3306)/offchat?parseTime=true"
	defaultDatabase = "offchat"

	adapterName = "mysql"
)

type configType struct {
	DSN    string `json:"dsn,omitempty"`
	DBName string `json:"database,omitempty"`
}

// Open initializes the MySQL connection.
func (a *adapter) Open(jsonconfig json.RawMessage) error {
	if a.db != nil {
		return errors.New("mysql adapter is already connected")
	}

	var err error
	var config configType

	if err = json.Unmarshal(jsonconfig, &config); err != nil {
		return errors.New("mysql adapter failed to parse config: " + err.Error())
	}

	dsn := config.DSN
	if dsn == "" {
		dsn = defaultDSN
	}

	a.dbName = config.DBName
	if a.dbName == "" {
		a.dbName = defaultDatabase
	}

	a.db, err = sqlx.Open("mysql", dsn)
	if err != nil {
		return err
	}

	// sql.Open does not open the network connection.
	// Force network connection here.
	err = a.db.Ping()
	if err != nil {
		return err
	}

	return nil
}

// Close closes the underlying database connection.
func (a *adapter) Close() error {
	var err error
	if a.db != nil {
		err = a.db.Close()
		a.db = nil
	}
	return err
}

// IsOpen returns true if connection to database has been established.
// It does not check if connection is actually live.
func (a *adapter) IsOpen() bool {
	return a.db != nil
}

// GetName returns the name of the adapter.
func (a *adapter) GetName() string {
	return adapterName
}

// CreateDb initializes the storage, optionally dropping the existing tables first.
func (a *adapter) CreateDb(reset bool) error {
	var stmts []string

	if reset {
		stmts = append(stmts,
			"DROP TABLE IF EXISTS statuses",
			"DROP TABLE IF EXISTS messages",
			"DROP TABLE IF EXISTS groupmembers",
			"DROP TABLE IF EXISTS groups",
			"DROP TABLE IF EXISTS friendrequests",
			"DROP TABLE IF EXISTS friends",
			"DROP TABLE IF EXISTS users")
	}

	stmts = append(stmts,
		`CREATE TABLE IF NOT EXISTS users(
			id        CHAR(11) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			username  VARCHAR(64) NOT NULL,
			PRIMARY KEY(id),
			UNIQUE INDEX users_username(username)
		)`,
		`CREATE TABLE IF NOT EXISTS friends(
			user1     VARCHAR(64) NOT NULL,
			user2     VARCHAR(64) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			PRIMARY KEY(user1, user2),
			INDEX friends_user2(user2)
		)`,
		`CREATE TABLE IF NOT EXISTS friendrequests(
			sender    VARCHAR(64) NOT NULL,
			recipient VARCHAR(64) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			PRIMARY KEY(sender, recipient),
			INDEX friendrequests_recipient(recipient)
		)`,
		"CREATE TABLE IF NOT EXISTS `groups`("+`
			id        CHAR(11) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			updatedat DATETIME(3) NOT NULL,
			name      VARCHAR(128) NOT NULL,
			owner     VARCHAR(64) NOT NULL,
			PRIMARY KEY(id),
			UNIQUE INDEX groups_name(name)
		)`,
		`CREATE TABLE IF NOT EXISTS groupmembers(
			groupid  CHAR(11) NOT NULL,
			username VARCHAR(64) NOT NULL,
			PRIMARY KEY(groupid, username),
			INDEX groupmembers_username(username)
		)`,
		`CREATE TABLE IF NOT EXISTS messages(
			id        CHAR(11) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			sender    VARCHAR(64) NOT NULL,
			recipient VARCHAR(64),
			groupid   CHAR(11),
			ctype     VARCHAR(8) NOT NULL,
			ctext     TEXT,
			cref      VARCHAR(255),
			PRIMARY KEY(id),
			INDEX messages_pair(sender, recipient, createdat),
			INDEX messages_group(groupid, createdat)
		)`,
		`CREATE TABLE IF NOT EXISTS statuses(
			id        CHAR(11) NOT NULL,
			createdat DATETIME(3) NOT NULL,
			owner     VARCHAR(64) NOT NULL,
			ref       VARCHAR(255) NOT NULL,
			expiresat DATETIME(3) NOT NULL,
			PRIMARY KEY(id),
			INDEX statuses_expiresat(expiresat)
		)`)

	for _, stmt := range stmts {
		if _, err := a.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// Check if MySQL error is a Error Code: 1062. Duplicate entry ... for key ...
func isDupe(err error) bool {
	if err == nil {
		return false
	}
	myerr, ok := err.(*ms.MySQLError)
	return ok && myerr.Number == 1062
}

func maybeDuplicate(err error) error {
	if isDupe(err) {
		return t.ErrDuplicate
	}
	return err
}

// UserGet fetches a user by name.
func (a *adapter) UserGet(username string) (*t.User, error) {
	var row struct {
		Id        string
		Createdat time.Time
		Updatedat time.Time
		Username  string
	}
	err := a.db.Get(&row, "SELECT id,createdat,updatedat,username FROM users WHERE username=?", username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var user t.User
	user.Id = row.Id
	user.CreatedAt = row.Createdat
	user.UpdatedAt = row.Updatedat
	user.Username = row.Username
	return &user, nil
}

// UserCreate persists a new user.
func (a *adapter) UserCreate(user *t.User) error {
	_, err := a.db.Exec("INSERT INTO users(id,createdat,updatedat,username) VALUES(?,?,?,?)",
		user.Id, user.CreatedAt, user.UpdatedAt, user.Username)
	return maybeDuplicate(err)
}

// FriendsGet returns usernames of all friends of the given user.
func (a *adapter) FriendsGet(username string) ([]string, error) {
	rows, err := a.db.Queryx(
		"SELECT user1,user2 FROM friends WHERE user1=? OR user2=?", username, username)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []string
	for rows.Next() {
		var user1, user2 string
		if err = rows.Scan(&user1, &user2); err != nil {
			return nil, err
		}
		if user1 == username {
			friends = append(friends, user2)
		} else {
			friends = append(friends, user1)
		}
	}
	return friends, rows.Err()
}

// RequestAdd persists a pending friend request.
func (a *adapter) RequestAdd(req *t.FriendRequest) error {
	_, err := a.db.Exec("INSERT INTO friendrequests(sender,recipient,createdat) VALUES(?,?,?)",
		req.Sender, req.Recipient, req.CreatedAt)
	return maybeDuplicate(err)
}

// RequestExists checks for a pending request for the ordered pair.
func (a *adapter) RequestExists(sender, recipient string) (bool, error) {
	var count int
	err := a.db.Get(&count,
		"SELECT COUNT(*) FROM friendrequests WHERE sender=? AND recipient=?", sender, recipient)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// RequestsForUser returns senders of all pending requests addressed to the user.
func (a *adapter) RequestsForUser(recipient string) ([]string, error) {
	var senders []string
	err := a.db.Select(&senders,
		"SELECT sender FROM friendrequests WHERE recipient=? ORDER BY createdat", recipient)
	return senders, err
}

// RequestDelete removes a pending request.
func (a *adapter) RequestDelete(sender, recipient string) error {
	_, err := a.db.Exec("DELETE FROM friendrequests WHERE sender=? AND recipient=?",
		sender, recipient)
	return err
}

// RequestAccept creates the friend edge and deletes the pending request in
// one transaction.
func (a *adapter) RequestAccept(sender, recipient string) error {
	tx, err := a.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	user1, user2 := sender, recipient
	if user1 > user2 {
		user1, user2 = user2, user1
	}
	if _, err = tx.Exec("INSERT INTO friends(user1,user2,createdat) VALUES(?,?,?)",
		user1, user2, t.TimeNow()); err != nil {
		return maybeDuplicate(err)
	}
	if _, err = tx.Exec("DELETE FROM friendrequests WHERE sender=? AND recipient=?",
		sender, recipient); err != nil {
		return err
	}

	return tx.Commit()
}

// GroupCreate persists a new group with its member set.
func (a *adapter) GroupCreate(group *t.Group) error {
	tx, err := a.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if _, err = tx.Exec("INSERT INTO `groups`(id,createdat,updatedat,name,owner) VALUES(?,?,?,?,?)",
		group.Id, group.CreatedAt, group.UpdatedAt, group.Name, group.Owner); err != nil {
		return maybeDuplicate(err)
	}
	for _, member := range group.Members {
		if _, err = tx.Exec("INSERT INTO groupmembers(groupid,username) VALUES(?,?)",
			group.Id, member); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GroupGet fetches a group by id.
func (a *adapter) GroupGet(id t.Uid) (*t.Group, error) {
	var row struct {
		Id        string
		Createdat time.Time
		Updatedat time.Time
		Name      string
		Owner     string
	}
	err := a.db.Get(&row, "SELECT id,createdat,updatedat,name,owner FROM `groups` WHERE id=?",
		id.String())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var group t.Group
	group.Id = row.Id
	group.CreatedAt = row.Createdat
	group.UpdatedAt = row.Updatedat
	group.Name = row.Name
	group.Owner = row.Owner
	if err = a.db.Select(&group.Members,
		"SELECT username FROM groupmembers WHERE groupid=? ORDER BY username", row.Id); err != nil {
		return nil, err
	}
	return &group, nil
}

// GroupsForUser returns all groups the user is a member of.
func (a *adapter) GroupsForUser(username string) ([]t.Group, error) {
	var ids []string
	if err := a.db.Select(&ids,
		"SELECT groupid FROM groupmembers WHERE username=?", username); err != nil {
		return nil, err
	}

	var groups []t.Group
	for _, id := range ids {
		group, err := a.GroupGet(t.ParseUid(id))
		if err != nil {
			return nil, err
		}
		if group != nil {
			groups = append(groups, *group)
		}
	}
	return groups, nil
}

// MessageSave appends a message.
func (a *adapter) MessageSave(msg *t.Message) error {
	_, err := a.db.Exec(
		"INSERT INTO messages(id,createdat,sender,recipient,groupid,ctype,ctext,cref) VALUES(?,?,?,?,?,?,?,?)",
		msg.Id, msg.CreatedAt, msg.From,
		sql.NullString{String: msg.To, Valid: msg.To != ""},
		sql.NullString{String: msg.Group, Valid: msg.Group != ""},
		msg.Content.Type, msg.Content.Text, msg.Content.MediaRef)
	return err
}

type messageRow struct {
	Id        string
	Createdat time.Time
	Sender    string
	Recipient sql.NullString
	Groupid   sql.NullString
	Ctype     string
	Ctext     sql.NullString
	Cref      sql.NullString
}

func (r *messageRow) toMessage() t.Message {
	var msg t.Message
	msg.Id = r.Id
	msg.CreatedAt = r.Createdat
	msg.UpdatedAt = r.Createdat
	msg.From = r.Sender
	msg.To = r.Recipient.String
	msg.Group = r.Groupid.String
	msg.Content = t.MessageContent{Type: r.Ctype, Text: r.Ctext.String, MediaRef: r.Cref.String}
	return msg
}

func (a *adapter) messagesSelect(query string, args ...interface{}) ([]t.Message, error) {
	rows, err := a.db.Queryx(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var msgs []t.Message
	for rows.Next() {
		var row messageRow
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}
		msgs = append(msgs, row.toMessage())
	}
	return msgs, rows.Err()
}

// MessagesGetPair returns direct messages between the two users ordered by
// creation time ascending.
func (a *adapter) MessagesGetPair(userA, userB string) ([]t.Message, error) {
	return a.messagesSelect(
		`SELECT id,createdat,sender,recipient,groupid,ctype,ctext,cref FROM messages
		 WHERE (sender=? AND recipient=?) OR (sender=? AND recipient=?)
		 ORDER BY createdat`,
		userA, userB, userB, userA)
}

// MessagesGetGroup returns messages of a group ordered by creation time ascending.
func (a *adapter) MessagesGetGroup(group t.Uid) ([]t.Message, error) {
	return a.messagesSelect(
		`SELECT id,createdat,sender,recipient,groupid,ctype,ctext,cref FROM messages
		 WHERE groupid=? ORDER BY createdat`,
		group.String())
}

// StatusSave appends a status post.
func (a *adapter) StatusSave(status *t.Status) error {
	_, err := a.db.Exec("INSERT INTO statuses(id,createdat,owner,ref,expiresat) VALUES(?,?,?,?,?)",
		status.Id, status.CreatedAt, status.Owner, status.MediaRef, status.ExpiresAt)
	return err
}

type statusRow struct {
	Id        string
	Createdat time.Time
	Owner     string
	Ref       string
	Expiresat time.Time
}

func (r *statusRow) toStatus() t.Status {
	var status t.Status
	status.Id = r.Id
	status.CreatedAt = r.Createdat
	status.UpdatedAt = r.Createdat
	status.Owner = r.Owner
	status.MediaRef = r.Ref
	status.ExpiresAt = r.Expiresat
	return status
}

// StatusGet fetches a non-expired status by id. There is no TTL reaper:
// expired rows are simply never selected and get removed on the next reset.
func (a *adapter) StatusGet(id t.Uid) (*t.Status, error) {
	var row statusRow
	err := a.db.Get(&row,
		"SELECT id,createdat,owner,ref,expiresat FROM statuses WHERE id=? AND expiresat>?",
		id.String(), t.TimeNow())
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	status := row.toStatus()
	return &status, nil
}

// StatusesGetAll returns all non-expired statuses, newest first.
func (a *adapter) StatusesGetAll() ([]t.Status, error) {
	rows, err := a.db.Queryx(
		"SELECT id,createdat,owner,ref,expiresat FROM statuses WHERE expiresat>? ORDER BY createdat DESC",
		t.TimeNow())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var statuses []t.Status
	for rows.Next() {
		var row statusRow
		if err = rows.StructScan(&row); err != nil {
			return nil, err
		}
		statuses = append(statuses, row.toStatus())
	}
	return statuses, rows.Err()
}

// StatusDelete removes a status by id.
func (a *adapter) StatusDelete(id t.Uid) error {
	_, err := a.db.Exec("DELETE FROM statuses WHERE id=?", id.String())
	return err
}

func init() {
	store.RegisterAdapter(&adapter{})
}
