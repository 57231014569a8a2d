package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matheus3301/puthype/internal/docstore"
)

func testStore(t *testing.T) *docstore.Store {
	t.Helper()
	db, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return docstore.New(db, nil)
}

func TestCreateUserFillsEmptySets(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if err := CreateUser(ctx, s, &User{ID: "u1", Username: "ana"}); err != nil {
		t.Fatal(err)
	}
	u, err := GetUser(ctx, s, "u1")
	if err != nil {
		t.Fatal(err)
	}
	if u.ID != "u1" || u.Username != "ana" {
		t.Errorf("got %+v", u)
	}
	if u.Favorites == nil || u.Trash == nil || u.AddedUsers == nil || u.Interests == nil {
		t.Errorf("sets should be empty, not nil: %+v", u)
	}

	if err := CreateUser(ctx, s, &User{}); err == nil {
		t.Error("empty uid should be rejected")
	}
	if _, err := GetUser(ctx, s, "nope"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestBetweenSelectsThePairOnly(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	msgs := []*Message{
		{Text: "1", SenderID: "a", ReceiverID: "b", Participants: []string{"a", "b"}, Timestamp: 30},
		{Text: "2", SenderID: "b", ReceiverID: "a", Participants: []string{"b", "a"}, Timestamp: 10},
		{Text: "3", SenderID: "a", ReceiverID: "c", Participants: []string{"a", "c"}, Timestamp: 20},
	}
	for _, m := range msgs {
		if err := CreateMessage(ctx, s, m); err != nil {
			t.Fatal(err)
		}
		if m.ID == "" {
			t.Fatal("message id not assigned")
		}
	}

	got, err := QueryMessages(ctx, s, Between("a", "b"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Text != "2" || got[1].Text != "1" {
		t.Errorf("got %+v", got)
	}
	if got[0].ClearedBy == nil {
		t.Error("clearedBy should default to empty")
	}
}

func TestTransactionalHelpers(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	err := s.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		if err := CreateUser(ctx, tx, &User{ID: "u1"}); err != nil {
			return err
		}
		return UpdateUser(ctx, tx, "u1", docstore.Fields{FieldFavorites: docstore.ArrayUnion("u2")})
	})
	if err != nil {
		t.Fatal(err)
	}
	u, _ := GetUser(ctx, s, "u1")
	if !u.IsFavorite("u2") {
		t.Errorf("favorites = %v", u.Favorites)
	}
}

func TestUserHelpers(t *testing.T) {
	u := &User{
		ID:         "me",
		Username:   "ana",
		AddedUsers: []ContactRef{{ID: "x"}},
		Trash:      []TrashEntry{{ID: "y", TrashedAt: 5}},
	}
	if u.DisplayName() != "ana" {
		t.Errorf("DisplayName = %q", u.DisplayName())
	}
	u.FullName = "Ana Souza"
	if u.DisplayName() != "Ana Souza" {
		t.Errorf("DisplayName = %q", u.DisplayName())
	}
	if !u.HasContact("x") || u.HasContact("y") {
		t.Error("HasContact")
	}
	if e, ok := u.TrashedEntry("y"); !ok || e.TrashedAt != 5 {
		t.Error("TrashedEntry")
	}
	m := Message{SenderID: "me", ReceiverID: "x", ClearedBy: []string{"x"}}
	if m.Peer("me") != "x" || m.Peer("x") != "me" {
		t.Error("Peer")
	}
	if !m.ClearedFor("x") || m.ClearedFor("me") {
		t.Error("ClearedFor")
	}
}

func TestIsInterest(t *testing.T) {
	tests := []struct {
		tag  string
		want bool
	}{
		{"Moda", true},
		{"Programação", true},
		{"Marketing Digital", true},
		{"moda", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			if got := IsInterest(tt.tag); got != tt.want {
				t.Errorf("IsInterest(%q) = %v, want %v", tt.tag, got, tt.want)
			}
		})
	}
}
