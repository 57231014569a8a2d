package discovery

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matheus3301/puthype/internal/blob"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/validate"
	"go.uber.org/zap"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

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
	blobs, err := blob.NewFS(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	st := docstore.New(db, nil)
	return New(st, blobs, zap.NewNop()), st
}

func TestFilterToggle(t *testing.T) {
	f := Filter{Tab: TabEvents, Interests: []string{"Moda", "Blogs"}}
	f.Toggle("Moda")
	if f.Selected != "Moda" {
		t.Fatalf("selected = %q", f.Selected)
	}
	f.Toggle("Blogs")
	if f.Selected != "Blogs" {
		t.Fatalf("selected = %q", f.Selected)
	}
	f.Toggle("Blogs")
	if f.Selected != "" {
		t.Fatalf("re-selecting should clear, got %q", f.Selected)
	}
}

func TestFilterQuery(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		ok     bool
		op     docstore.Op
	}{
		{"selected wins", Filter{Interests: []string{"Moda"}, Selected: "Blogs"}, true, docstore.Eq},
		{"interests", Filter{Interests: []string{"Moda", "Blogs"}}, true, docstore.In},
		{"nothing", Filter{}, false, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, ok := tt.filter.Query()
			if ok != tt.ok {
				t.Fatalf("ok = %v", ok)
			}
			if ok && q.Filters[0].Op != tt.op {
				t.Errorf("op = %q, want %q", q.Filters[0].Op, tt.op)
			}
		})
	}
}

func seedFeed(t *testing.T, st *docstore.Store) {
	t.Helper()
	ctx := context.Background()
	for _, c := range []*store.Community{
		{Name: "Moda SP", Tag: "Moda"},
		{Name: "Blogueiros", Tag: "Blogs"},
		{Name: "Gamers", Tag: "Videogames"},
	} {
		if err := store.CreateCommunity(ctx, st, c); err != nil {
			t.Fatal(err)
		}
	}
	if err := store.CreateEvent(ctx, st, &store.Event{Title: "Feira", Tag: "Vendas", Privacy: store.Private, InviteCode: "SECRET"}); err != nil {
		t.Fatal(err)
	}
}

func TestLoad(t *testing.T) {
	svc, st := testService(t)
	seedFeed(t, st)
	ctx := context.Background()

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"zero interests is empty", Filter{Tab: TabCommunities}, 0},
		{"interests", Filter{Tab: TabCommunities, Interests: []string{"Moda", "Blogs"}}, 2},
		{"selected tag", Filter{Tab: TabCommunities, Interests: []string{"Moda", "Blogs"}, Selected: "Blogs"}, 1},
		{"selected outside interests", Filter{Tab: TabCommunities, Selected: "Videogames"}, 1},
		{"events tab", Filter{Tab: TabEvents, Interests: []string{"Vendas"}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			feed, err := svc.Load(ctx, tt.filter)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if feed.Len() != tt.want {
				t.Errorf("len = %d, want %d", feed.Len(), tt.want)
			}
		})
	}

	feed, _ := svc.Load(ctx, Filter{Tab: TabEvents, Interests: []string{"Vendas"}})
	if feed.Events[0].InviteCode != "" {
		t.Error("feed leaked an invite code")
	}
	if _, err := svc.Load(ctx, Filter{Tab: "lives"}); !errors.Is(err, ErrUnknownTab) {
		t.Errorf("unknown tab: %v", err)
	}
}

func TestLoadForUsesProfileInterests(t *testing.T) {
	svc, st := testService(t)
	seedFeed(t, st)
	ctx := context.Background()
	_ = store.CreateUser(ctx, st, &store.User{ID: "me", Interests: []string{"Videogames"}})
	_ = store.CreateUser(ctx, st, &store.User{ID: "blank"})

	feed, err := svc.LoadFor(ctx, "me", TabCommunities, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(feed.Communities) != 1 || feed.Communities[0].Name != "Gamers" {
		t.Errorf("feed = %+v", feed)
	}
	feed, err = svc.LoadFor(ctx, "blank", TabCommunities, "")
	if err != nil || feed.Len() != 0 {
		t.Errorf("blank profile: %+v, %v", feed, err)
	}
}

func TestCanCreateCommunity(t *testing.T) {
	tests := []struct {
		plan string
		want bool
	}{
		{"", false},
		{"gratis", false},
		{store.PlanBasic, true},
		{store.PlanAdvanced, true},
		{store.PlanPremium, true},
	}
	for _, tt := range tests {
		t.Run(tt.plan, func(t *testing.T) {
			if got := CanCreateCommunity(tt.plan); got != tt.want {
				t.Errorf("CanCreateCommunity(%q) = %v", tt.plan, got)
			}
		})
	}
}

func TestCreateEvent(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()
	valid := EventInput{Title: "Live de moda", Description: "Tendências", Location: "Fortaleza", Tag: "Moda"}

	e, err := svc.CreateEvent(ctx, "owner", valid)
	if err != nil {
		t.Fatal(err)
	}
	if e.Privacy != store.Public || e.InviteCode != "" || e.Image != "1" || e.ScheduledAt == 0 {
		t.Errorf("defaults not applied: %+v", e)
	}

	private := valid
	private.Privacy = store.Private
	e, err = svc.CreateEvent(ctx, "owner", private)
	if err != nil {
		t.Fatal(err)
	}
	if len(e.InviteCode) != InviteCodeLen || strings.Trim(e.InviteCode, inviteAlphabet) != "" {
		t.Errorf("invite code = %q", e.InviteCode)
	}

	got, err := svc.GetEvent(ctx, "owner", e.ID)
	if err != nil || got.InviteCode != e.InviteCode {
		t.Errorf("owner view = %+v, %v", got, err)
	}
	got, _ = svc.GetEvent(ctx, "stranger", e.ID)
	if got.InviteCode != "" {
		t.Error("invite code shown to a stranger")
	}

	bad := []struct {
		name string
		in   EventInput
		want error
	}{
		{"missing title", EventInput{Description: "d", Location: "l", Tag: "Moda"}, validate.ErrInvalid},
		{"bad privacy", EventInput{Title: "t", Description: "d", Location: "l", Tag: "Moda", Privacy: "secreto"}, validate.ErrInvalid},
		{"bad image", EventInput{Title: "t", Description: "d", Location: "l", Tag: "Moda", Image: "9"}, validate.ErrInvalid},
		{"unknown tag", EventInput{Title: "t", Description: "d", Location: "l", Tag: "Culinária"}, ErrUnknownTag},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateEvent(ctx, "owner", tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateCommunity(t *testing.T) {
	svc, st := testService(t)
	ctx := context.Background()
	_ = store.CreateUser(ctx, st, &store.User{ID: "free"})
	_ = store.CreateUser(ctx, st, &store.User{ID: "paid", Plan: store.PlanPremium})
	in := CommunityInput{Name: "Devs", Description: "Programadores", Tag: "Programação"}

	if _, err := svc.CreateCommunity(ctx, "free", in, nil); !errors.Is(err, ErrPlanRequired) {
		t.Errorf("free plan: %v", err)
	}
	if _, err := svc.CreateCommunity(ctx, "paid", CommunityInput{Name: "x"}, nil); !errors.Is(err, ErrMissingFields) {
		t.Errorf("missing description: %v", err)
	}
	if _, err := svc.CreateCommunity(ctx, "paid", in, []byte("plain text")); !errors.Is(err, blob.ErrNotImage) {
		t.Errorf("text image: %v", err)
	}

	c, err := svc.CreateCommunity(ctx, "paid", in, pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(c.Image, "file://") || !strings.Contains(c.Image, "comunidades/paid_") {
		t.Errorf("image = %q", c.Image)
	}
	if c.CreatorID != "paid" {
		t.Errorf("creator = %q", c.CreatorID)
	}

	c, err = svc.CreateCommunity(ctx, "paid", CommunityInput{Name: "Sem foto", Description: "d"}, nil)
	if err != nil || c.Image != "" {
		t.Errorf("without image: %+v, %v", c, err)
	}
}
