package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/matheus3301/puthype/internal/docstore"
)

// Source hands out collections. *docstore.Store and *docstore.Tx both
// satisfy it, so every helper below works inside or outside a transaction.
type Source interface {
	Collection(name string) *docstore.Collection
}

func decodeAll[T any](docs []docstore.Document, setID func(*T, string)) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := d.Decode(&v); err != nil {
			return nil, err
		}
		setID(&v, d.ID)
		out = append(out, v)
	}
	return out, nil
}

func getOne[T any](ctx context.Context, src Source, collection, id string, setID func(*T, string)) (*T, error) {
	doc, err := src.Collection(collection).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	var v T
	if err := doc.Decode(&v); err != nil {
		return nil, err
	}
	setID(&v, doc.ID)
	return &v, nil
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func setUserID(u *User, id string)                 { u.ID = id }
func setMessageID(m *Message, id string)           { m.ID = id }
func setNotificationID(n *Notification, id string) { n.ID = id }
func setEventID(e *Event, id string)               { e.ID = id }
func setCommunityID(c *Community, id string)       { c.ID = id }

// GetUser returns the profile document for uid.
func GetUser(ctx context.Context, src Source, uid string) (*User, error) {
	return getOne(ctx, src, Users, uid, setUserID)
}

// CreateUser inserts a new profile keyed by u.ID.
func CreateUser(ctx context.Context, src Source, u *User) error {
	if u.ID == "" {
		return fmt.Errorf("create user: empty uid")
	}
	fillUser(u)
	return src.Collection(Users).Insert(ctx, u.ID, u)
}

// UpdateUser applies a partial update to the profile of uid.
func UpdateUser(ctx context.Context, src Source, uid string, fields docstore.Fields) error {
	return src.Collection(Users).Update(ctx, uid, fields)
}

// QueryUsers returns the profiles matching q.
func QueryUsers(ctx context.Context, src Source, q docstore.Query) ([]User, error) {
	docs, err := src.Collection(Users).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setUserID)
}

// DecodeUsers turns subscription documents into profiles.
func DecodeUsers(docs []docstore.Document) ([]User, error) { return decodeAll(docs, setUserID) }

func fillUser(u *User) {
	if u.Interests == nil {
		u.Interests = []string{}
	}
	if u.AddedUsers == nil {
		u.AddedUsers = []ContactRef{}
	}
	if u.Favorites == nil {
		u.Favorites = []string{}
	}
	if u.Trash == nil {
		u.Trash = []TrashEntry{}
	}
}

// CreateMessage inserts m, assigning an id when it has none.
func CreateMessage(ctx context.Context, src Source, m *Message) error {
	ensureID(&m.ID)
	if m.ClearedBy == nil {
		m.ClearedBy = []string{}
	}
	return src.Collection(Messages).Insert(ctx, m.ID, m)
}

// QueryMessages returns the messages matching q.
func QueryMessages(ctx context.Context, src Source, q docstore.Query) ([]Message, error) {
	docs, err := src.Collection(Messages).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setMessageID)
}

// DecodeMessages turns subscription documents into messages.
func DecodeMessages(docs []docstore.Document) ([]Message, error) {
	return decodeAll(docs, setMessageID)
}

// Between returns the query for messages exchanged by a and b, oldest first.
func Between(a, b string) docstore.Query {
	return docstore.Where(FieldParticipants, docstore.ArrayContains, a).
		Where(FieldParticipants, docstore.ArrayContains, b).
		Order(FieldTimestamp, false)
}

// CreateNotification inserts n, assigning an id when it has none.
func CreateNotification(ctx context.Context, src Source, n *Notification) error {
	ensureID(&n.ID)
	return src.Collection(Notifications).Insert(ctx, n.ID, n)
}

// GetNotification returns the notification with id.
func GetNotification(ctx context.Context, src Source, id string) (*Notification, error) {
	return getOne(ctx, src, Notifications, id, setNotificationID)
}

// DecodeNotifications turns subscription documents into notifications.
func DecodeNotifications(docs []docstore.Document) ([]Notification, error) {
	return decodeAll(docs, setNotificationID)
}

// CreateEvent inserts e, assigning an id when it has none.
func CreateEvent(ctx context.Context, src Source, e *Event) error {
	ensureID(&e.ID)
	return src.Collection(Events).Insert(ctx, e.ID, e)
}

// GetEvent returns the event with id.
func GetEvent(ctx context.Context, src Source, id string) (*Event, error) {
	return getOne(ctx, src, Events, id, setEventID)
}

// QueryEvents returns the events matching q.
func QueryEvents(ctx context.Context, src Source, q docstore.Query) ([]Event, error) {
	docs, err := src.Collection(Events).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setEventID)
}

// CreateCommunity inserts c, assigning an id when it has none.
func CreateCommunity(ctx context.Context, src Source, c *Community) error {
	ensureID(&c.ID)
	return src.Collection(Communities).Insert(ctx, c.ID, c)
}

// QueryCommunities returns the communities matching q.
func QueryCommunities(ctx context.Context, src Source, q docstore.Query) ([]Community, error) {
	docs, err := src.Collection(Communities).Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs, setCommunityID)
}
