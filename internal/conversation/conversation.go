// Package conversation builds the conversation list of a user: contacts
// split into added, favorite, unadded and trashed buckets with unread
// counts, plus the operations that move contacts between buckets.
package conversation

import (
	"context"
	"errors"

	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
)

var (
	// ErrNotInTrash is returned when restoring or deleting a conversation
	// that was never trashed.
	ErrNotInTrash = errors.New("conversation is not in the trash")
	// ErrNoContact is returned when no contact id is given.
	ErrNoContact = errors.New("no contact given")
	// ErrSelf is returned when the contact is the user themself.
	ErrSelf = errors.New("cannot hold a conversation with yourself")
	// ErrUnknownContact is returned when the contact is neither a user nor
	// anyone the user has exchanged messages with.
	ErrUnknownContact = errors.New("unknown contact")
	// ErrNotContact is returned when favoriting someone outside addedUsers.
	ErrNotContact = errors.New("not in your contacts")
)

// Tab names one bucket of the conversation list.
type Tab int

const (
	TabAdded Tab = iota
	TabFavorites
	TabUnadded
	TabTrash
)

var tabNames = [...]string{"Added", "Favorites", "Unadded", "Trash"}

// Tabs lists every tab in display order.
var Tabs = []Tab{TabAdded, TabFavorites, TabUnadded, TabTrash}

func (t Tab) String() string {
	if t < 0 || int(t) >= len(tabNames) {
		return "Unknown"
	}
	return tabNames[t]
}

// ParseTab maps a case-sensitive tab name back to its Tab.
func ParseTab(s string) (Tab, bool) {
	for i, n := range tabNames {
		if n == s {
			return Tab(i), true
		}
	}
	return 0, false
}

// Contact is one row of the conversation list.
type Contact struct {
	store.ContactRef
	Unread    int   `json:"unread"`
	Favorite  bool  `json:"favorite"`
	TrashedAt int64 `json:"trashedAt,omitempty"`
}

// State is the full conversation list of one user.
type State struct {
	Added     []Contact `json:"added"`
	Favorites []Contact `json:"favorites"`
	Unadded   []Contact `json:"unadded"`
	Trash     []Contact `json:"trash"`
	Unread    int       `json:"unread"`
}

// Bucket returns the contacts shown under tab.
func (s State) Bucket(t Tab) []Contact {
	switch t {
	case TabAdded:
		return s.Added
	case TabFavorites:
		return s.Favorites
	case TabUnadded:
		return s.Unadded
	case TabTrash:
		return s.Trash
	}
	return nil
}

// Lookup fetches a profile by uid. A docstore.ErrNotFound result drops the
// sender from the unadded bucket.
type Lookup func(ctx context.Context, uid string) (*store.User, error)

// Partition derives the conversation list of me from the messages it takes
// part in. Only messages addressed to me feed the unadded bucket and the
// unread tally.
func Partition(ctx context.Context, me *store.User, msgs []store.Message, lookup Lookup) (State, error) {
	unread := make(map[string]int)
	var senders []string
	seen := make(map[string]bool)
	for _, m := range msgs {
		if m.ReceiverID != me.ID || m.SenderID == "" {
			continue
		}
		if !m.Read && !m.ClearedFor(me.ID) {
			unread[m.SenderID]++
		}
		if !me.HasContact(m.SenderID) && !seen[m.SenderID] {
			seen[m.SenderID] = true
			senders = append(senders, m.SenderID)
		}
	}

	trashed := make(map[string]int64, len(me.Trash))
	for _, e := range me.Trash {
		trashed[e.ID] = e.TrashedAt
	}

	var st State
	for _, n := range unread {
		st.Unread += n
	}

	known := make(map[string]store.ContactRef, len(me.AddedUsers))
	for _, ref := range me.AddedUsers {
		known[ref.ID] = ref
		if _, ok := trashed[ref.ID]; ok {
			continue
		}
		c := Contact{ContactRef: ref, Unread: unread[ref.ID], Favorite: me.IsFavorite(ref.ID)}
		st.Added = append(st.Added, c)
		if c.Favorite {
			st.Favorites = append(st.Favorites, c)
		}
	}

	for _, id := range senders {
		u, err := lookup(ctx, id)
		if errors.Is(err, docstore.ErrNotFound) {
			continue
		}
		if err != nil {
			return State{}, err
		}
		ref := u.Ref()
		ref.ID = id
		known[id] = ref
		if _, ok := trashed[id]; ok {
			continue
		}
		st.Unadded = append(st.Unadded, Contact{ContactRef: ref, Unread: unread[id]})
	}

	for _, e := range me.Trash {
		ref, ok := known[e.ID]
		if !ok {
			ref = store.ContactRef{ID: e.ID}
		}
		st.Trash = append(st.Trash, Contact{ContactRef: ref, Unread: unread[e.ID], TrashedAt: e.TrashedAt})
	}
	return st, nil
}
