package thread

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
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
	for _, uid := range []string{"a", "b", "c"} {
		if err := store.CreateUser(context.Background(), st, &store.User{ID: uid, Username: uid}); err != nil {
			t.Fatal(err)
		}
	}
	return New(st, zap.NewNop()), st
}

func recv(t *testing.T, ch <-chan Snapshot) []store.Message {
	t.Helper()
	select {
	case snap, ok := <-ch:
		if !ok {
			t.Fatal("watch closed")
		}
		if snap.Err != nil {
			t.Fatal(snap.Err)
		}
		return snap.Messages
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	return nil
}

func TestSendValidation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		from, to string
		text     string
		want     error
	}{
		{"blank", "a", "b", "   \n", ErrEmptyMessage},
		{"self", "a", "a", "oi", ErrSelf},
		{"no recipient", "a", "", "oi", ErrNoPeer},
		{"unknown recipient", "a", "zz", "oi", docstore.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Send(ctx, tt.from, tt.to, tt.text); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}

	m, err := svc.Send(ctx, "a", "b", "  oi  ")
	if err != nil {
		t.Fatal(err)
	}
	if m.Text != "oi" || m.Read || len(m.ClearedBy) != 0 || len(m.Participants) != 2 {
		t.Errorf("message = %+v", m)
	}
}

func TestPairScopedOperationsRejectBadPeers(t *testing.T) {
	svc, _ := testService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tests := []struct {
		name     string
		me, peer string
		want     error
	}{
		{"self", "a", "a", ErrSelf},
		{"blank peer", "a", "", ErrNoPeer},
		{"spaces", "a", "  ", ErrNoPeer},
		{"blank me", "", "b", ErrNoPeer},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.History(ctx, tt.me, tt.peer); !errors.Is(err, tt.want) {
				t.Errorf("History err = %v, want %v", err, tt.want)
			}
			if _, err := svc.Watch(ctx, tt.me, tt.peer); !errors.Is(err, tt.want) {
				t.Errorf("Watch err = %v, want %v", err, tt.want)
			}
			if _, _, err := svc.ClearHistory(ctx, tt.me, tt.peer); !errors.Is(err, tt.want) {
				t.Errorf("ClearHistory err = %v, want %v", err, tt.want)
			}
			if _, err := svc.MarkRead(ctx, tt.me, tt.peer); !errors.Is(err, tt.want) {
				t.Errorf("MarkRead err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestClearHistoryWithSelfTouchesNoThread(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	if _, err := svc.Send(ctx, "a", "b", "oi"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Send(ctx, "c", "a", "olá"); err != nil {
		t.Fatal(err)
	}

	if _, _, err := svc.ClearHistory(ctx, "a", "a"); !errors.Is(err, ErrSelf) {
		t.Fatalf("err = %v, want ErrSelf", err)
	}
	for _, peer := range []string{"b", "c"} {
		got, err := svc.History(ctx, "a", peer)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 {
			t.Errorf("thread a-%s = %d messages, want 1", peer, len(got))
		}
	}
	msgs, _ := store.QueryMessages(ctx, st, docstore.Query{})
	for _, m := range msgs {
		if len(m.ClearedBy) != 0 {
			t.Errorf("message %s clearedBy = %v", m.ID, m.ClearedBy)
		}
	}
}

func TestBothSidesConvergeOnOneMessage(t *testing.T) {
	svc, _ := testService(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watchA, err := svc.Watch(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	watchB, err := svc.Watch(ctx, "b", "a")
	if err != nil {
		t.Fatal(err)
	}
	if got := recv(t, watchA); len(got) != 0 {
		t.Fatalf("A initial = %v", got)
	}
	if got := recv(t, watchB); len(got) != 0 {
		t.Fatalf("B initial = %v", got)
	}

	if _, err := svc.Send(ctx, "a", "b", "oi"); err != nil {
		t.Fatal(err)
	}
	// A message in another thread fires the same collection signal.
	if _, err := svc.Send(ctx, "a", "c", "olá"); err != nil {
		t.Fatal(err)
	}

	for name, ch := range map[string]<-chan Snapshot{"A": watchA, "B": watchB} {
		got := recv(t, ch)
		if len(got) != 1 || got[0].Text != "oi" || got[0].SenderID != "a" {
			t.Fatalf("%s = %+v", name, got)
		}
		select {
		case snap := <-ch:
			t.Fatalf("%s got a duplicate snapshot: %+v", name, snap.Messages)
		case <-time.After(100 * time.Millisecond):
		}
	}
}

func TestWatchIsOrderedByTimestamp(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	clock := time.UnixMilli(1000)
	svc.now = func() time.Time { return clock }

	_, _ = svc.Send(ctx, "a", "b", "second")
	clock = time.UnixMilli(500)
	_, _ = svc.Send(ctx, "b", "a", "first")
	clock = time.UnixMilli(1000)
	_, _ = svc.Send(ctx, "a", "b", "third")

	got, err := svc.History(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"first", "second", "third"}
	for i, m := range got {
		if m.Text != want[i] {
			t.Fatalf("order = %v", got)
		}
	}
}

func TestClearHistoryOneSide(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	m, _ := svc.Send(ctx, "a", "b", "oi")

	hidden, deleted, err := svc.ClearHistory(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if hidden != 1 || deleted != 0 {
		t.Errorf("hidden=%d deleted=%d, want 1 0", hidden, deleted)
	}

	doc, err := st.Collection(store.Messages).Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("message should still exist: %v", err)
	}
	var stored store.Message
	_ = doc.Decode(&stored)
	if !stored.ClearedFor("a") {
		t.Errorf("clearedBy = %v", stored.ClearedBy)
	}

	if got, _ := svc.History(ctx, "a", "b"); len(got) != 0 {
		t.Errorf("actor still sees %d messages", len(got))
	}
	if got, _ := svc.History(ctx, "b", "a"); len(got) != 1 {
		t.Errorf("peer sees %d messages, want 1", len(got))
	}

	// Clearing again is a no-op for the actor.
	if hidden, deleted, _ := svc.ClearHistory(ctx, "a", "b"); hidden != 0 || deleted != 0 {
		t.Errorf("second clear: hidden=%d deleted=%d", hidden, deleted)
	}
}

func TestClearHistoryConvergesInEitherOrder(t *testing.T) {
	orders := [][2]string{{"a", "b"}, {"b", "a"}}
	for _, order := range orders {
		t.Run(order[0]+" first", func(t *testing.T) {
			svc, st := testService(t)
			ctx := context.Background()
			_, _ = svc.Send(ctx, "a", "b", "oi")
			_, _ = svc.Send(ctx, "b", "a", "tudo bem?")

			if _, _, err := svc.ClearHistory(ctx, order[0], order[1]); err != nil {
				t.Fatal(err)
			}
			_, deleted, err := svc.ClearHistory(ctx, order[1], order[0])
			if err != nil {
				t.Fatal(err)
			}
			if deleted != 2 {
				t.Errorf("deleted = %d, want 2", deleted)
			}
			left, _ := store.QueryMessages(ctx, st, docstore.Query{})
			if len(left) != 0 {
				t.Errorf("%d messages left", len(left))
			}
		})
	}
}

func TestConcurrentClearsConverge(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, _ = svc.Send(ctx, "a", "b", "oi")
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, pair := range [][2]string{{"a", "b"}, {"b", "a"}} {
		wg.Add(1)
		go func(me, peer string) {
			defer wg.Done()
			_, _, err := svc.ClearHistory(ctx, me, peer)
			errs <- err
		}(pair[0], pair[1])
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatal(err)
		}
	}

	left, _ := store.QueryMessages(ctx, st, docstore.Query{})
	if len(left) != 0 {
		t.Errorf("%d messages survived both clears", len(left))
	}
}

func TestClearHistoryLeavesOtherThreads(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Send(ctx, "a", "b", "oi")
	_, _ = svc.Send(ctx, "a", "c", "oi c")

	_, _, _ = svc.ClearHistory(ctx, "a", "b")
	if got, _ := svc.History(ctx, "a", "c"); len(got) != 1 {
		t.Errorf("other thread lost messages: %v", got)
	}
}

func TestMarkRead(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	_, _ = svc.Send(ctx, "b", "a", "1")
	_, _ = svc.Send(ctx, "b", "a", "2")
	_, _ = svc.Send(ctx, "a", "b", "3")

	n, err := svc.MarkRead(ctx, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("marked = %d, want 2", n)
	}
	if n, _ := svc.MarkRead(ctx, "a", "b"); n != 0 {
		t.Errorf("second pass marked %d", n)
	}
	got, _ := svc.History(ctx, "b", "a")
	for _, m := range got {
		if m.SenderID == "a" && m.Read {
			t.Error("own outgoing message was marked read")
		}
	}
}

func TestSuggestionsAreCopied(t *testing.T) {
	s := Suggestions()
	if len(s) != 3 || s[0] != "Bom dia" {
		t.Fatalf("suggestions = %v", s)
	}
	s[0] = "changed"
	if Suggestions()[0] != "Bom dia" {
		t.Error("Suggestions leaked its backing array")
	}
}
