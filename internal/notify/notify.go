// Package notify creates notifications and serves a user's live
// notification list.
package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

// UnknownSender is shown when the sender's profile cannot be loaded.
const UnknownSender = "Unknown user"

// AddedMessage is the text of the notification sent to a new contact.
func AddedMessage(by *store.User) string {
	return "You were added by " + by.DisplayName()
}

// Item is a notification with its sender's display name resolved.
type Item struct {
	store.Notification
	FromUserName string `json:"fromUserName"`
}

// Service manages notifications.
type Service struct {
	store *docstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// New creates a notification service.
func New(st *docstore.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log.Named("notify"), now: time.Now}
}

// Notify stores a notification for to through src, which may be a
// transaction.
func (s *Service) Notify(ctx context.Context, src store.Source, to, from, message string) (*store.Notification, error) {
	n := &store.Notification{
		ToUserID:   to,
		FromUserID: from,
		Message:    message,
		Timestamp:  s.now().UnixMilli(),
	}
	if err := store.CreateNotification(ctx, src, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}
	return n, nil
}

func inbox(uid string) docstore.Query {
	return docstore.Where(store.FieldToUserID, docstore.Eq, uid).Order(store.FieldTimestamp, true)
}

func (s *Service) resolve(ctx context.Context, ns []store.Notification) ([]Item, error) {
	names := make(map[string]string)
	items := make([]Item, len(ns))
	for i, n := range ns {
		name, ok := names[n.FromUserID]
		if !ok {
			u, err := store.GetUser(ctx, s.store, n.FromUserID)
			switch {
			case err == nil && u.DisplayName() != "":
				name = u.DisplayName()
			case err == nil || errors.Is(err, docstore.ErrNotFound):
				name = UnknownSender
			default:
				return nil, err
			}
			names[n.FromUserID] = name
		}
		items[i] = Item{Notification: n, FromUserName: name}
	}
	return items, nil
}

// List returns the notifications of uid, newest first.
func (s *Service) List(ctx context.Context, uid string) ([]Item, error) {
	docs, err := s.store.Collection(store.Notifications).Query(ctx, inbox(uid))
	if err != nil {
		return nil, err
	}
	ns, err := store.DecodeNotifications(docs)
	if err != nil {
		return nil, err
	}
	return s.resolve(ctx, ns)
}

// Update is one delivery of Watch.
type Update struct {
	Items []Item
	Err   error
}

// Watch streams the notification list of uid until ctx ends.
func (s *Service) Watch(ctx context.Context, uid string) (<-chan Update, error) {
	sub, err := s.store.Subscribe(ctx, store.Notifications, inbox(uid))
	if err != nil {
		return nil, err
	}
	out := make(chan Update)
	go func() {
		defer close(out)
		defer sub.Close()
		for snap := range sub.C {
			var upd Update
			if snap.Err != nil {
				upd.Err = snap.Err
			} else if ns, err := store.DecodeNotifications(snap.Docs); err != nil {
				upd.Err = err
			} else {
				upd.Items, upd.Err = s.resolve(ctx, ns)
			}
			select {
			case out <- upd:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// MarkRead flags notification id as read. Notifications of other users
// are reported as not found.
func (s *Service) MarkRead(ctx context.Context, uid, id string) error {
	return s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		n, err := store.GetNotification(ctx, tx, id)
		if err != nil {
			return err
		}
		if n.ToUserID != uid {
			return fmt.Errorf("notification %s: %w", id, docstore.ErrNotFound)
		}
		if n.Read {
			return nil
		}
		return tx.Collection(store.Notifications).Update(ctx, id, docstore.Fields{store.FieldRead: true})
	})
}
