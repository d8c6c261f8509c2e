// Package store provides methods for registering and accessing database adapters.
package store

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/offchat/chat/server/store/adapter"
	"github.com/offchat/chat/server/store/types"
)

var adp adapter.Adapter
var availableAdapters = make(map[string]adapter.Adapter)

// Unique ID generator.
var uGen types.UidGenerator

type configType struct {
	// 16-byte key for XTEA. Used to initialize types.UidGenerator.
	UidKey []byte `json:"uid_key"`
	// DB adapter name to use. Should be one of those specified in `Adapters`.
	UseAdapter string `json:"use_adapter"`
	// Configurations for individual adapters.
	Adapters map[string]json.RawMessage `json:"adapters"`
}

func openAdapter(workerId int, jsonconf json.RawMessage) error {
	var config configType
	if err := json.Unmarshal(jsonconf, &config); err != nil {
		return errors.New("store: failed to parse config: " + err.Error() + "(" + string(jsonconf) + ")")
	}

	if adp == nil {
		if len(config.UseAdapter) > 0 {
			// Adapter name specified explicitly.
			if ad, ok := availableAdapters[config.UseAdapter]; ok {
				adp = ad
			} else {
				return errors.New("store: " + config.UseAdapter + " adapter is not available in this binary")
			}
		} else if len(availableAdapters) == 1 {
			// Default to the only entry in availableAdapters.
			for _, v := range availableAdapters {
				adp = v
			}
		} else {
			return errors.New("store: db adapter is not specified. Please set `store_config.use_adapter` in the config file")
		}
	}

	if adp.IsOpen() {
		return errors.New("store: connection is already opened")
	}

	// Initialize snowflake.
	if workerId < 0 || workerId > 1023 {
		return errors.New("store: invalid worker ID")
	}

	if err := uGen.Init(uint(workerId), config.UidKey); err != nil {
		return errors.New("store: failed to init snowflake: " + err.Error())
	}

	var adapterConfig json.RawMessage
	if config.Adapters != nil {
		adapterConfig = config.Adapters[adp.GetName()]
	}

	return adp.Open(adapterConfig)
}

// Open initializes the persistence system. Adapter holds a connection pool
// for a database instance.
//   workerId - the id of this process to initialize snowflake
//   jsonconf - configuration string
func Open(workerId int, jsonconf json.RawMessage) error {
	return openAdapter(workerId, jsonconf)
}

// Close terminates connection to persistent storage.
func Close() error {
	if adp.IsOpen() {
		return adp.Close()
	}

	return nil
}

// IsOpen checks if persistent storage connection has been initialized.
func IsOpen() bool {
	if adp != nil {
		return adp.IsOpen()
	}

	return false
}

// GetAdapterName returns the name of the current adapter.
func GetAdapterName() string {
	if adp != nil {
		return adp.GetName()
	}

	return ""
}

// InitDb creates the database schema optionally wiping the existing one.
func InitDb(workerId int, jsonconf json.RawMessage, reset bool) error {
	if !IsOpen() {
		if err := openAdapter(workerId, jsonconf); err != nil {
			return err
		}
	}
	return adp.CreateDb(reset)
}

// RegisterAdapter makes a persistence adapter available by the provided name.
// If RegisterAdapter is called twice with the same name or if the adapter is nil,
// it panics.
func RegisterAdapter(a adapter.Adapter) {
	if a == nil {
		panic("store: Register adapter is nil")
	}

	name := a.GetName()
	if _, dup := availableAdapters[name]; dup {
		panic("store: adapter '" + name + "' is already registered")
	}
	availableAdapters[name] = a
}

// GetUid generates a unique ID suitable for use as a primary key.
func GetUid() types.Uid {
	return uGen.Get()
}

// GetUidString generates a unique ID as a string.
func GetUidString() string {
	return uGen.GetStr()
}

// UsersPersistenceInterface must be implemented by the object which handles
// user and friend-graph persistence.
type UsersPersistenceInterface interface {
	Get(username string) (*types.User, error)
	Create(username string) (*types.User, error)
	Friends(username string) ([]string, error)
	RequestAdd(sender, recipient string) error
	RequestExists(sender, recipient string) (bool, error)
	RequestsFor(recipient string) ([]string, error)
	RequestDelete(sender, recipient string) error
	RequestAccept(sender, recipient string) error
}

// Users is the global instance of UsersPersistenceInterface.
var Users UsersPersistenceInterface = usersMapper{}

type usersMapper struct{}

func (usersMapper) Get(username string) (*types.User, error) {
	return adp.UserGet(username)
}

func (usersMapper) Create(username string) (*types.User, error) {
	user := &types.User{Username: username}
	user.SetUid(GetUid())
	user.InitTimes()
	if err := adp.UserCreate(user); err != nil {
		return nil, err
	}
	return user, nil
}

func (usersMapper) Friends(username string) ([]string, error) {
	return adp.FriendsGet(username)
}

func (usersMapper) RequestAdd(sender, recipient string) error {
	return adp.RequestAdd(&types.FriendRequest{
		Sender:    sender,
		Recipient: recipient,
		CreatedAt: types.TimeNow(),
	})
}

func (usersMapper) RequestExists(sender, recipient string) (bool, error) {
	return adp.RequestExists(sender, recipient)
}

func (usersMapper) RequestsFor(recipient string) ([]string, error) {
	return adp.RequestsForUser(recipient)
}

func (usersMapper) RequestDelete(sender, recipient string) error {
	return adp.RequestDelete(sender, recipient)
}

func (usersMapper) RequestAccept(sender, recipient string) error {
	return adp.RequestAccept(sender, recipient)
}

// GroupsPersistenceInterface must be implemented by the object which handles
// group persistence.
type GroupsPersistenceInterface interface {
	Create(name, owner string, members []string) (*types.Group, error)
	Get(id types.Uid) (*types.Group, error)
	ForUser(username string) ([]types.Group, error)
}

// Groups is the global instance of GroupsPersistenceInterface.
var Groups GroupsPersistenceInterface = groupsMapper{}

type groupsMapper struct{}

func (groupsMapper) Create(name, owner string, members []string) (*types.Group, error) {
	group := &types.Group{Name: name, Owner: owner, Members: members}
	group.SetUid(GetUid())
	group.InitTimes()
	if err := adp.GroupCreate(group); err != nil {
		return nil, err
	}
	return group, nil
}

func (groupsMapper) Get(id types.Uid) (*types.Group, error) {
	return adp.GroupGet(id)
}

func (groupsMapper) ForUser(username string) ([]types.Group, error) {
	return adp.GroupsForUser(username)
}

// MessagesPersistenceInterface must be implemented by the object which handles
// message persistence.
type MessagesPersistenceInterface interface {
	Save(msg *types.Message) error
	GetPair(userA, userB string) ([]types.Message, error)
	GetGroup(group types.Uid) ([]types.Message, error)
}

// Messages is the global instance of MessagesPersistenceInterface.
var Messages MessagesPersistenceInterface = messagesMapper{}

type messagesMapper struct{}

func (messagesMapper) Save(msg *types.Message) error {
	msg.SetUid(GetUid())
	msg.InitTimes()
	return adp.MessageSave(msg)
}

func (messagesMapper) GetPair(userA, userB string) ([]types.Message, error) {
	return adp.MessagesGetPair(userA, userB)
}

func (messagesMapper) GetGroup(group types.Uid) ([]types.Message, error) {
	return adp.MessagesGetGroup(group)
}

// StatusesPersistenceInterface must be implemented by the object which handles
// status persistence.
type StatusesPersistenceInterface interface {
	Save(owner, mediaRef string, ttl time.Duration) (*types.Status, error)
	Get(id types.Uid) (*types.Status, error)
	GetAll() ([]types.Status, error)
	Delete(id types.Uid) error
}

// Statuses is the global instance of StatusesPersistenceInterface.
var Statuses StatusesPersistenceInterface = statusesMapper{}

type statusesMapper struct{}

func (statusesMapper) Save(owner, mediaRef string, ttl time.Duration) (*types.Status, error) {
	status := &types.Status{Owner: owner, MediaRef: mediaRef}
	status.SetUid(GetUid())
	status.InitTimes()
	status.ExpiresAt = status.CreatedAt.Add(ttl)
	if err := adp.StatusSave(status); err != nil {
		return nil, err
	}
	return status, nil
}

func (statusesMapper) Get(id types.Uid) (*types.Status, error) {
	return adp.StatusGet(id)
}

func (statusesMapper) GetAll() ([]types.Status, error) {
	return adp.StatusesGetAll()
}

func (statusesMapper) Delete(id types.Uid) error {
	return adp.StatusDelete(id)
}
