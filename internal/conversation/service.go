package conversation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"reflect"
	"time"

	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

// Service applies conversation list operations to the store.
type Service struct {
	store *docstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// New creates a conversation service.
func New(st *docstore.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log.Named("conversation"), now: time.Now}
}

func (s *Service) lookup(ctx context.Context, uid string) (*store.User, error) {
	return store.GetUser(ctx, s.store, uid)
}

// Load computes the current conversation list of uid.
func (s *Service) Load(ctx context.Context, uid string) (State, error) {
	me, err := store.GetUser(ctx, s.store, uid)
	if err != nil {
		return State{}, err
	}
	msgs, err := store.QueryMessages(ctx, s.store, mine(uid))
	if err != nil {
		return State{}, err
	}
	return Partition(ctx, me, msgs, s.lookup)
}

func mine(uid string) docstore.Query {
	return docstore.Where(store.FieldParticipants, docstore.ArrayContains, uid)
}

// checkContact guards store.Between against blank and self ids.
func checkContact(uid, contactID string) error {
	if strings.TrimSpace(uid) == "" || strings.TrimSpace(contactID) == "" {
		return ErrNoContact
	}
	if uid == contactID {
		return ErrSelf
	}
	return nil
}

// known reports whether contactID is a contact, a user, or someone uid has
// exchanged messages with.
func known(ctx context.Context, tx *docstore.Tx, me *store.User, contactID string) (bool, error) {
	if me.HasContact(contactID) {
		return true, nil
	}
	_, err := store.GetUser(ctx, tx, contactID)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, err
	}
	msgs, err := store.QueryMessages(ctx, tx, store.Between(me.ID, contactID).Take(1))
	if err != nil {
		return false, err
	}
	return len(msgs) > 0, nil
}

// ToggleFavorite flips contactID's membership in the favorites of uid and
// reports the new membership. Only added contacts can become favorites; a
// stale favorite can always be removed.
func (s *Service) ToggleFavorite(ctx context.Context, uid, contactID string) (bool, error) {
	if err := checkContact(uid, contactID); err != nil {
		return false, err
	}
	var favorite bool
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		me, err := store.GetUser(ctx, tx, uid)
		if err != nil {
			return err
		}
		if me.IsFavorite(contactID) {
			return store.UpdateUser(ctx, tx, uid, docstore.Fields{store.FieldFavorites: docstore.ArrayRemove(contactID)})
		}
		if !me.HasContact(contactID) {
			return ErrNotContact
		}
		favorite = true
		return store.UpdateUser(ctx, tx, uid, docstore.Fields{store.FieldFavorites: docstore.ArrayUnion(contactID)})
	})
	if err != nil {
		return false, fmt.Errorf("toggle favorite: %w", err)
	}
	s.log.Debug("favorite toggled", zap.String("uid", uid), zap.String("contact", contactID), zap.Bool("favorite", favorite))
	return favorite, nil
}

// MoveToTrash puts contactID's conversation in the trash of uid. Trashing an
// already trashed conversation keeps the original timestamp.
func (s *Service) MoveToTrash(ctx context.Context, uid, contactID string) error {
	if err := checkContact(uid, contactID); err != nil {
		return err
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		me, err := store.GetUser(ctx, tx, uid)
		if err != nil {
			return err
		}
		if _, ok := me.TrashedEntry(contactID); ok {
			return nil
		}
		ok, err := known(ctx, tx, me, contactID)
		if err != nil {
			return err
		}
		if !ok {
			return ErrUnknownContact
		}
		entry := store.TrashEntry{ID: contactID, TrashedAt: s.now().UnixMilli()}
		return store.UpdateUser(ctx, tx, uid, docstore.Fields{store.FieldTrash: docstore.ArrayUnion(entry)})
	})
	if err != nil {
		return fmt.Errorf("move to trash: %w", err)
	}
	return nil
}

// RestoreFromTrash takes contactID's conversation out of the trash of uid.
func (s *Service) RestoreFromTrash(ctx context.Context, uid, contactID string) error {
	if err := checkContact(uid, contactID); err != nil {
		return err
	}
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		me, err := store.GetUser(ctx, tx, uid)
		if err != nil {
			return err
		}
		entry, ok := me.TrashedEntry(contactID)
		if !ok {
			return ErrNotInTrash
		}
		return store.UpdateUser(ctx, tx, uid, docstore.Fields{store.FieldTrash: docstore.ArrayRemove(entry)})
	})
	if err != nil {
		return fmt.Errorf("restore from trash: %w", err)
	}
	return nil
}

// DeleteConversation deletes every message exchanged between uid and a
// trashed contact and drops the trash entry, all in one transaction. It
// returns how many messages were deleted.
func (s *Service) DeleteConversation(ctx context.Context, uid, contactID string) (int, error) {
	if err := checkContact(uid, contactID); err != nil {
		return 0, err
	}
	var deleted int
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		me, err := store.GetUser(ctx, tx, uid)
		if err != nil {
			return err
		}
		entry, ok := me.TrashedEntry(contactID)
		if !ok {
			return ErrNotInTrash
		}
		msgs, err := store.QueryMessages(ctx, tx, store.Between(uid, contactID))
		if err != nil {
			return err
		}
		ids := make([]string, len(msgs))
		for i, m := range msgs {
			ids[i] = m.ID
		}
		if deleted, err = tx.Collection(store.Messages).DeleteMany(ctx, ids); err != nil {
			return err
		}
		return store.UpdateUser(ctx, tx, uid, docstore.Fields{store.FieldTrash: docstore.ArrayRemove(entry)})
	})
	if err != nil {
		return 0, fmt.Errorf("delete conversation: %w", err)
	}
	s.log.Info("conversation deleted", zap.String("uid", uid), zap.String("contact", contactID), zap.Int("messages", deleted))
	return deleted, nil
}

// Update is one delivery of Watch.
type Update struct {
	State State
	Err   error
}

// Watch streams the conversation list of uid, recomputed whenever the user
// document or any of its messages change. The channel closes when ctx ends.
func (s *Service) Watch(ctx context.Context, uid string) (<-chan Update, error) {
	ctx, cancel := context.WithCancel(ctx)
	userSub, err := s.store.Subscribe(ctx, store.Users, docstore.Where(docstore.DocumentID, docstore.Eq, uid))
	if err != nil {
		cancel()
		return nil, err
	}
	msgSub, err := s.store.Subscribe(ctx, store.Messages, mine(uid))
	if err != nil {
		cancel()
		return nil, err
	}

	out := make(chan Update)
	go func() {
		defer cancel()
		defer close(out)

		var me *store.User
		var msgs []store.Message
		haveMsgs := false
		var last *State

		for {
			var err error
			select {
			case <-ctx.Done():
				return
			case snap, ok := <-userSub.C:
				if !ok {
					return
				}
				err = snap.Err
				if err == nil {
					var users []store.User
					users, err = store.DecodeUsers(snap.Docs)
					me = nil
					if err == nil && len(users) > 0 {
						me = &users[0]
					}
				}
			case snap, ok := <-msgSub.C:
				if !ok {
					return
				}
				err = snap.Err
				if err == nil {
					msgs, err = store.DecodeMessages(snap.Docs)
					haveMsgs = err == nil
				}
			}

			var upd Update
			switch {
			case err != nil:
				upd.Err = err
			case me == nil || !haveMsgs:
				continue
			default:
				st, perr := Partition(ctx, me, msgs, s.lookup)
				if perr != nil {
					upd.Err = perr
					break
				}
				if last != nil && reflect.DeepEqual(*last, st) {
					continue
				}
				last = &st
				upd.State = st
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
