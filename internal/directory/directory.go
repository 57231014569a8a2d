// Package directory searches users by username prefix and adds contacts.
package directory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

// PrefixEnd is appended to a prefix to close its search range.
const PrefixEnd = "\uf8ff"

// ErrSelf is returned by AddContact when a user targets themself.
var ErrSelf = errors.New("cannot add yourself")

// Result is one search hit.
type Result struct {
	store.ContactRef
	Added bool `json:"added"`
}

// Service runs searches and contact additions.
type Service struct {
	store  *docstore.Store
	notify *notify.Service
	log    *zap.Logger
}

// New creates a directory service.
func New(st *docstore.Store, n *notify.Service, log *zap.Logger) *Service {
	return &Service{store: st, notify: n, log: log.Named("directory")}
}

// PrefixQuery matches usernames in [prefix, prefix+PrefixEnd). The match
// is case sensitive.
func PrefixQuery(prefix string) docstore.Query {
	return docstore.Where(store.FieldUsername, docstore.Gte, prefix).
		Where(store.FieldUsername, docstore.Lt, prefix+PrefixEnd).
		Order(store.FieldUsername, false)
}

// Search returns the users whose username starts with prefix, leaving out
// me. A blank prefix returns nothing without querying.
func (s *Service) Search(ctx context.Context, me, prefix string) ([]Result, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return nil, nil
	}
	users, err := store.QueryUsers(ctx, s.store, PrefixQuery(prefix))
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}

	var self *store.User
	if me != "" {
		if self, err = store.GetUser(ctx, s.store, me); err != nil && !errors.Is(err, docstore.ErrNotFound) {
			return nil, err
		}
	}
	results := make([]Result, 0, len(users))
	for i := range users {
		u := &users[i]
		if u.ID == me {
			continue
		}
		results = append(results, Result{ContactRef: u.Ref(), Added: self != nil && self.HasContact(u.ID)})
	}
	return results, nil
}

// AddContact adds target to me's contacts and notifies target, in one
// transaction. Adding an existing contact changes nothing and sends no
// notification. It reports whether the contact was new.
func (s *Service) AddContact(ctx context.Context, me, target string) (bool, error) {
	if me == target {
		return false, ErrSelf
	}
	added := false
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		self, err := store.GetUser(ctx, tx, me)
		if err != nil {
			return err
		}
		if self.HasContact(target) {
			return nil
		}
		other, err := store.GetUser(ctx, tx, target)
		if err != nil {
			return fmt.Errorf("contact %s: %w", target, err)
		}
		if err := store.UpdateUser(ctx, tx, me, docstore.Fields{store.FieldAddedUsers: docstore.ArrayUnion(other.Ref())}); err != nil {
			return err
		}
		if _, err := s.notify.Notify(ctx, tx, target, me, notify.AddedMessage(self)); err != nil {
			return err
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add contact: %w", err)
	}
	if added {
		s.log.Info("contact added", zap.String("uid", me), zap.String("contact", target))
	}
	return added, nil
}
