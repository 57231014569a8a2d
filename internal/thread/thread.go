// Package thread implements two-party direct messaging with per-participant
// history clearing.
package thread

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

var (
	// ErrEmptyMessage is returned by Send for text that is blank once trimmed.
	ErrEmptyMessage = errors.New("message is empty")
	// ErrSelf is returned when both sides of a thread are the same user.
	ErrSelf = errors.New("cannot message yourself")
	// ErrNoPeer is returned when a side of the thread is blank.
	ErrNoPeer = errors.New("no conversation partner given")
)

// checkPair guards store.Between, which matches every thread of a user
// when an id is blank or both ids are equal.
func checkPair(me, peer string) error {
	if strings.TrimSpace(me) == "" || strings.TrimSpace(peer) == "" {
		return ErrNoPeer
	}
	if me == peer {
		return ErrSelf
	}
	return nil
}

var suggestions = []string{"Bom dia", "Olá, tudo bem?", "Oi!"}

// Suggestions returns the quick replies offered on an empty thread.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}

// Service sends and reads messages.
type Service struct {
	store *docstore.Store
	log   *zap.Logger
	now   func() time.Time
}

// New creates a thread service.
func New(st *docstore.Store, log *zap.Logger) *Service {
	return &Service{store: st, log: log.Named("thread"), now: time.Now}
}

// Send stores a message from one user to another. There is no retry: a
// failed write is returned to the caller once.
func (s *Service) Send(ctx context.Context, from, to, text string) (*store.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if err := checkPair(from, to); err != nil {
		return nil, err
	}
	if _, err := store.GetUser(ctx, s.store, to); err != nil {
		return nil, fmt.Errorf("recipient %s: %w", to, err)
	}

	m := &store.Message{
		Text:         text,
		SenderID:     from,
		ReceiverID:   to,
		Participants: []string{from, to},
		Timestamp:    s.now().UnixMilli(),
		ClearedBy:    []string{},
	}
	if err := store.CreateMessage(ctx, s.store, m); err != nil {
		s.log.Warn("send failed", zap.String("from", from), zap.String("to", to), zap.Error(err))
		return nil, fmt.Errorf("send message: %w", err)
	}
	s.log.Debug("message sent", zap.String("id", m.ID), zap.String("from", from), zap.String("to", to))
	return m, nil
}

// Visible drops the messages me has cleared, keeping order.
func Visible(msgs []store.Message, me string) []store.Message {
	out := make([]store.Message, 0, len(msgs))
	for _, m := range msgs {
		if !m.ClearedFor(me) {
			out = append(out, m)
		}
	}
	return out
}

// History returns the messages between me and peer that me can still see,
// oldest first.
func (s *Service) History(ctx context.Context, me, peer string) ([]store.Message, error) {
	if err := checkPair(me, peer); err != nil {
		return nil, err
	}
	msgs, err := store.QueryMessages(ctx, s.store, store.Between(me, peer))
	if err != nil {
		return nil, err
	}
	return Visible(msgs, me), nil
}

// Snapshot is one delivery of Watch.
type Snapshot struct {
	Messages []store.Message
	Err      error
}

// Watch streams the visible thread between me and peer. A snapshot is sent
// first and then only when the visible messages change.
func (s *Service) Watch(ctx context.Context, me, peer string) (<-chan Snapshot, error) {
	if err := checkPair(me, peer); err != nil {
		return nil, err
	}
	sub, err := s.store.Subscribe(ctx, store.Messages, store.Between(me, peer))
	if err != nil {
		return nil, err
	}

	out := make(chan Snapshot)
	go func() {
		defer close(out)
		defer sub.Close()

		var last []store.Message
		first := true
		for snap := range sub.C {
			var next Snapshot
			if snap.Err != nil {
				next.Err = snap.Err
			} else {
				msgs, err := store.DecodeMessages(snap.Docs)
				if err != nil {
					next.Err = err
				} else {
					visible := Visible(msgs, me)
					if !first && reflect.DeepEqual(visible, last) {
						continue
					}
					first = false
					last = visible
					next.Messages = visible
				}
			}
			select {
			case out <- next:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out, nil
}

// ClearHistory hides every message of the thread from me. Messages the peer
// has already cleared are deleted instead. The whole pass is one
// transaction, so two participants clearing at once still converge to
// deletion.
func (s *Service) ClearHistory(ctx context.Context, me, peer string) (hidden, deleted int, err error) {
	if err := checkPair(me, peer); err != nil {
		return 0, 0, err
	}
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		hidden, deleted = 0, 0
		msgs, err := store.QueryMessages(ctx, tx, store.Between(me, peer))
		if err != nil {
			return err
		}
		coll := tx.Collection(store.Messages)
		for _, m := range Visible(msgs, me) {
			if m.ClearedFor(peer) {
				if err := coll.Delete(ctx, m.ID); err != nil {
					return err
				}
				deleted++
				continue
			}
			if err := coll.Update(ctx, m.ID, docstore.Fields{store.FieldClearedBy: docstore.ArrayUnion(me)}); err != nil {
				return err
			}
			hidden++
		}
		return nil
	})
	if err != nil {
		return 0, 0, fmt.Errorf("clear history: %w", err)
	}
	s.log.Info("history cleared", zap.String("uid", me), zap.String("peer", peer),
		zap.Int("hidden", hidden), zap.Int("deleted", deleted))
	return hidden, deleted, nil
}

// MarkRead flags every unread message from peer to me as read and returns
// how many changed.
func (s *Service) MarkRead(ctx context.Context, me, peer string) (int, error) {
	if err := checkPair(me, peer); err != nil {
		return 0, err
	}
	q := docstore.Where(store.FieldSenderID, docstore.Eq, peer).
		Where(store.FieldReceiverID, docstore.Eq, me).
		Where(store.FieldRead, docstore.Eq, false)

	var n int
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		n = 0
		docs, err := tx.Collection(store.Messages).Query(ctx, q)
		if err != nil {
			return err
		}
		for _, d := range docs {
			if err := tx.Collection(store.Messages).Update(ctx, d.ID, docstore.Fields{store.FieldRead: true}); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}
