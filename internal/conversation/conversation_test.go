package conversation

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

func testService(t *testing.T) (*Service, *docstore.Store) {
	t.Helper()
	db, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	st := docstore.New(db, bus.New())
	return New(st, zap.NewNop()), st
}

func seedUser(t *testing.T, st *docstore.Store, u *store.User) {
	t.Helper()
	if err := store.CreateUser(context.Background(), st, u); err != nil {
		t.Fatal(err)
	}
}

func send(t *testing.T, st *docstore.Store, from, to string, read bool) {
	t.Helper()
	err := store.CreateMessage(context.Background(), st, &store.Message{
		Text: "oi", SenderID: from, ReceiverID: to,
		Participants: []string{from, to}, Timestamp: time.Now().UnixMilli(), Read: read,
	})
	if err != nil {
		t.Fatal(err)
	}
}

func contactIDs(cs []Contact) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.ID
	}
	return out
}

func sameIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPartition(t *testing.T) {
	me := &store.User{
		ID: "me",
		AddedUsers: []store.ContactRef{
			{ID: "ana", Username: "ana"},
			{ID: "bia", Username: "bia"},
			{ID: "caio", Username: "caio"},
		},
		Favorites: []string{"bia", "caio"},
		Trash:     []store.TrashEntry{{ID: "caio", TrashedAt: 1}, {ID: "ghost", TrashedAt: 2}},
	}
	msgs := []store.Message{
		{SenderID: "ana", ReceiverID: "me"},
		{SenderID: "ana", ReceiverID: "me", Read: true},
		{SenderID: "zeca", ReceiverID: "me"},
		{SenderID: "zeca", ReceiverID: "me"},
		{SenderID: "gone", ReceiverID: "me"},
		{SenderID: "me", ReceiverID: "lia"},
		{SenderID: "duda", ReceiverID: "me", Read: true},
	}
	profiles := map[string]*store.User{
		"zeca": {ID: "zeca", Username: "zeca", FullName: "Zeca"},
		"duda": {ID: "duda", Username: "duda"},
	}
	var lookups []string
	lookup := func(_ context.Context, uid string) (*store.User, error) {
		lookups = append(lookups, uid)
		if u, ok := profiles[uid]; ok {
			return u, nil
		}
		return nil, docstore.ErrNotFound
	}

	st, err := Partition(context.Background(), me, msgs, lookup)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		tab  Tab
		want []string
	}{
		{TabAdded, []string{"ana", "bia"}},
		{TabFavorites, []string{"bia"}},
		{TabUnadded, []string{"zeca", "duda"}},
		{TabTrash, []string{"caio", "ghost"}},
	}
	for _, tt := range tests {
		t.Run(tt.tab.String(), func(t *testing.T) {
			if got := contactIDs(st.Bucket(tt.tab)); !sameIDs(got, tt.want) {
				t.Errorf("%s = %v, want %v", tt.tab, got, tt.want)
			}
		})
	}

	if !sameIDs(lookups, []string{"zeca", "gone", "duda"}) {
		t.Errorf("lookups = %v, each sender should be fetched once in first-seen order", lookups)
	}
	if st.Added[0].Unread != 1 || st.Unadded[0].Unread != 2 || st.Unadded[1].Unread != 0 {
		t.Errorf("unread counts wrong: %+v %+v", st.Added, st.Unadded)
	}
	if st.Unread != 4 {
		t.Errorf("total unread = %d, want 4", st.Unread)
	}
	if st.Trash[0].Username != "caio" || st.Trash[1].Username != "" {
		t.Errorf("trash display = %+v", st.Trash)
	}
	if st.Unadded[0].FullName != "Zeca" {
		t.Errorf("unadded profile not resolved: %+v", st.Unadded[0])
	}
}

func TestPartitionLookupError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Partition(context.Background(), &store.User{ID: "me"},
		[]store.Message{{SenderID: "x", ReceiverID: "me"}},
		func(context.Context, string) (*store.User, error) { return nil, boom })
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}
}

func TestParseTab(t *testing.T) {
	for _, tab := range Tabs {
		got, ok := ParseTab(tab.String())
		if !ok || got != tab {
			t.Errorf("ParseTab(%q) = %v, %v", tab.String(), got, ok)
		}
	}
	if _, ok := ParseTab("added"); ok {
		t.Error("tab names are case sensitive")
	}
}

func TestToggleFavoriteParity(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "me", AddedUsers: []store.ContactRef{{ID: "ana"}}})

	for i := 1; i <= 5; i++ {
		fav, err := svc.ToggleFavorite(ctx, "me", "ana")
		if err != nil {
			t.Fatal(err)
		}
		if want := i%2 == 1; fav != want {
			t.Fatalf("toggle %d: favorite = %v, want %v", i, fav, want)
		}
		u, _ := store.GetUser(ctx, st, "me")
		if u.IsFavorite("ana") != fav {
			t.Fatalf("toggle %d: stored membership disagrees", i)
		}
		if len(u.Favorites) > 1 {
			t.Fatalf("duplicate favorites: %v", u.Favorites)
		}
	}
}

func TestToggleFavoriteConcurrentTargets(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	targets := []string{"a", "b", "c", "d", "e", "f"}
	me := &store.User{ID: "me"}
	for _, id := range targets {
		me.AddedUsers = append(me.AddedUsers, store.ContactRef{ID: id})
	}
	seedUser(t, st, me)

	errs := make(chan error, len(targets))
	for _, id := range targets {
		go func(id string) {
			_, err := svc.ToggleFavorite(ctx, "me", id)
			errs <- err
		}(id)
	}
	for range targets {
		if err := <-errs; err != nil {
			t.Fatal(err)
		}
	}
	u, _ := store.GetUser(ctx, st, "me")
	if len(u.Favorites) != len(targets) {
		t.Errorf("favorites = %v, lost updates", u.Favorites)
	}
}

func TestTrashRestoreDelete(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "me", AddedUsers: []store.ContactRef{{ID: "ana"}}})
	send(t, st, "me", "ana", false)
	send(t, st, "ana", "me", false)
	send(t, st, "bia", "me", false)

	if _, err := svc.DeleteConversation(ctx, "me", "ana"); !errors.Is(err, ErrNotInTrash) {
		t.Fatalf("delete outside trash: %v", err)
	}
	if err := svc.RestoreFromTrash(ctx, "me", "ana"); !errors.Is(err, ErrNotInTrash) {
		t.Fatalf("restore outside trash: %v", err)
	}

	if err := svc.MoveToTrash(ctx, "me", "ana"); err != nil {
		t.Fatal(err)
	}
	if err := svc.MoveToTrash(ctx, "me", "ana"); err != nil {
		t.Fatal(err)
	}
	u, _ := store.GetUser(ctx, st, "me")
	if len(u.Trash) != 1 {
		t.Fatalf("trash = %v", u.Trash)
	}

	if err := svc.RestoreFromTrash(ctx, "me", "ana"); err != nil {
		t.Fatal(err)
	}
	u, _ = store.GetUser(ctx, st, "me")
	if len(u.Trash) != 0 {
		t.Fatalf("trash after restore = %v", u.Trash)
	}

	_ = svc.MoveToTrash(ctx, "me", "ana")
	n, err := svc.DeleteConversation(ctx, "me", "ana")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	left, _ := store.QueryMessages(ctx, st, docstore.Query{})
	if len(left) != 1 || left[0].SenderID != "bia" {
		t.Errorf("remaining = %+v", left)
	}
	u, _ = store.GetUser(ctx, st, "me")
	if len(u.Trash) != 0 {
		t.Errorf("trash entry survived: %v", u.Trash)
	}
}

func TestWatch(t *testing.T) {
	svc, st := testService(t)
	seedUser(t, st, &store.User{ID: "me"})
	seedUser(t, st, &store.User{ID: "zeca", Username: "zeca"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	updates, err := svc.Watch(ctx, "me")
	if err != nil {
		t.Fatal(err)
	}

	next := func() State {
		t.Helper()
		select {
		case u, ok := <-updates:
			if !ok {
				t.Fatal("watch closed")
			}
			if u.Err != nil {
				t.Fatal(u.Err)
			}
			return u.State
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for update")
		}
		return State{}
	}

	if st0 := next(); len(st0.Unadded) != 0 {
		t.Fatalf("initial = %+v", st0)
	}

	send(t, st, "zeca", "me", false)
	st1 := next()
	if !sameIDs(contactIDs(st1.Unadded), []string{"zeca"}) || st1.Unread != 1 {
		t.Fatalf("after message = %+v", st1)
	}

	if _, err := svc.ToggleFavorite(ctx, "me", "zeca"); !errors.Is(err, ErrNotContact) {
		t.Fatalf("favorite unadded: %v", err)
	}
	if err := svc.MoveToTrash(ctx, "me", "zeca"); err != nil {
		t.Fatal(err)
	}
	deadline := time.After(2 * time.Second)
	for {
		select {
		case u := <-updates:
			if len(u.State.Trash) == 1 && len(u.State.Unadded) == 0 {
				cancel()
				return
			}
		case <-deadline:
			t.Fatal("trash never showed up")
		}
	}
}

func TestContactOperationsRejectBadIDs(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "me", Trash: []store.TrashEntry{{ID: "me", TrashedAt: 1}}})

	tests := []struct {
		name    string
		contact string
		want    error
	}{
		{"self", "me", ErrSelf},
		{"blank", "", ErrNoContact},
		{"spaces", " ", ErrNoContact},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ToggleFavorite(ctx, "me", tt.contact); !errors.Is(err, tt.want) {
				t.Errorf("ToggleFavorite err = %v", err)
			}
			if err := svc.MoveToTrash(ctx, "me", tt.contact); !errors.Is(err, tt.want) {
				t.Errorf("MoveToTrash err = %v", err)
			}
			if err := svc.RestoreFromTrash(ctx, "me", tt.contact); !errors.Is(err, tt.want) {
				t.Errorf("RestoreFromTrash err = %v", err)
			}
			if _, err := svc.DeleteConversation(ctx, "me", tt.contact); !errors.Is(err, tt.want) {
				t.Errorf("DeleteConversation err = %v", err)
			}
		})
	}
}

func TestMoveToTrashNeedsKnownContact(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "me", AddedUsers: []store.ContactRef{{ID: "ana"}}})
	seedUser(t, st, &store.User{ID: "bia"})
	send(t, st, "gone", "me", false)

	for _, id := range []string{"ana", "bia", "gone"} {
		if err := svc.MoveToTrash(ctx, "me", id); err != nil {
			t.Errorf("MoveToTrash(%s): %v", id, err)
		}
	}
	if err := svc.MoveToTrash(ctx, "me", "nobody"); !errors.Is(err, ErrUnknownContact) {
		t.Errorf("unknown contact: %v", err)
	}
	u, _ := store.GetUser(ctx, st, "me")
	if len(u.Trash) != 3 {
		t.Errorf("trash = %v", u.Trash)
	}
}

func TestDeleteWithSelfKeepsOtherThreads(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "b", AddedUsers: []store.ContactRef{{ID: "c"}}})
	seedUser(t, st, &store.User{ID: "c"})
	send(t, st, "b", "c", false)
	send(t, st, "c", "b", false)
	send(t, st, "a", "b", false)

	if err := svc.MoveToTrash(ctx, "b", "b"); !errors.Is(err, ErrSelf) {
		t.Fatalf("trash self: %v", err)
	}
	if _, err := svc.DeleteConversation(ctx, "b", "b"); !errors.Is(err, ErrSelf) {
		t.Fatalf("delete self: %v", err)
	}
	left, _ := store.QueryMessages(ctx, st, store.Between("b", "c"))
	if len(left) != 2 {
		t.Errorf("b-c messages left = %d, want 2", len(left))
	}
	if all, _ := store.QueryMessages(ctx, st, docstore.Query{}); len(all) != 3 {
		t.Errorf("messages = %d, want 3", len(all))
	}
}

func TestToggleFavoriteNeedsContact(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	seedUser(t, st, &store.User{ID: "me", Favorites: []string{"old"}})

	if _, err := svc.ToggleFavorite(ctx, "me", "zeca"); !errors.Is(err, ErrNotContact) {
		t.Errorf("favorite non-contact: %v", err)
	}
	fav, err := svc.ToggleFavorite(ctx, "me", "old")
	if err != nil || fav {
		t.Errorf("removing stale favorite = %v, %v", fav, err)
	}
	u, _ := store.GetUser(ctx, st, "me")
	if len(u.Favorites) != 0 {
		t.Errorf("favorites = %v", u.Favorites)
	}
}
