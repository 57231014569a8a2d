// Package discovery serves the networking feed: communities and events
// filtered by interest tags, and their creation.
package discovery

import (
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
)

// Tab selects which collection the feed lists.
type Tab string

const (
	TabCommunities Tab = store.Communities
	TabEvents      Tab = store.Events
)

// Valid reports whether t names a feed tab.
func (t Tab) Valid() bool { return t == TabCommunities || t == TabEvents }

// Filter narrows the feed to the user's interests or to one selected tag.
type Filter struct {
	Tab       Tab      `json:"tab"`
	Interests []string `json:"interests"`
	Selected  string   `json:"selected,omitempty"`
}

// Toggle selects tag, or clears the selection when tag is already selected.
func (f *Filter) Toggle(tag string) {
	if f.Selected == tag {
		f.Selected = ""
		return
	}
	f.Selected = tag
}

// Query returns the store query for the filter. ok is false when the
// filter matches nothing and no query should be issued.
func (f Filter) Query() (q docstore.Query, ok bool) {
	switch {
	case f.Selected != "":
		return docstore.Where(store.FieldTag, docstore.Eq, f.Selected), true
	case len(f.Interests) > 0:
		return docstore.Where(store.FieldTag, docstore.In, f.Interests), true
	default:
		return docstore.Query{}, false
	}
}

// Feed is one page of the networking screen.
type Feed struct {
	Tab         Tab               `json:"tab"`
	Communities []store.Community `json:"communities,omitempty"`
	Events      []store.Event     `json:"events,omitempty"`
}

// Len returns the number of items in the feed.
func (f Feed) Len() int { return len(f.Communities) + len(f.Events) }

// CanCreateCommunity reports whether plan unlocks community creation.
func CanCreateCommunity(plan string) bool {
	switch plan {
	case store.PlanBasic, store.PlanAdvanced, store.PlanPremium:
		return true
	}
	return false
}
