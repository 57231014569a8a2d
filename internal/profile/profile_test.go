package profile

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

func testService(t *testing.T) *Service {
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
	if err := store.CreateUser(context.Background(), st, &store.User{ID: "me", Username: "ana", Avatar: 2, Plan: store.PlanPremium}); err != nil {
		t.Fatal(err)
	}
	return New(st, blobs, zap.NewNop())
}

func ptr[T any](v T) *T { return &v }

func TestRoleOf(t *testing.T) {
	tests := []struct {
		name string
		user store.User
		want Role
	}{
		{"creator wins", store.User{Creator: true, Status: "colaborador"}, RoleCreator},
		{"collaborator", store.User{Status: "colaborador"}, RoleCollaborator},
		{"other status", store.User{Status: "membro"}, RoleUndefined},
		{"nothing", store.User{}, RoleUndefined},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RoleOf(&tt.user); got != tt.want {
				t.Errorf("RoleOf = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPlanBadge(t *testing.T) {
	tests := map[string]string{
		store.PlanBasic:    "Basic plan",
		store.PlanAdvanced: "Advanced plan",
		store.PlanPremium:  "Premium plan",
		"":                 "",
		"gold":             "",
	}
	for plan, want := range tests {
		if got := PlanBadge(plan); got != want {
			t.Errorf("PlanBadge(%q) = %q, want %q", plan, got, want)
		}
	}
}

func TestGet(t *testing.T) {
	svc := testService(t)
	v, err := svc.Get(context.Background(), "me")
	if err != nil {
		t.Fatal(err)
	}
	if v.User.Username != "ana" || v.Role != RoleUndefined || v.PlanBadge != "Premium plan" {
		t.Errorf("view = %+v", v)
	}
	if _, err := svc.Get(context.Background(), "nobody"); !errors.Is(err, docstore.ErrNotFound) {
		t.Errorf("missing: %v", err)
	}
}

func TestUpdate(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	v, err := svc.Update(ctx, "me", Edit{
		FullName:  ptr("  Ana Souza "),
		Interests: ptr([]string{"Moda", "Moda", "Blogs"}),
		Avatar:    ptr(7),
	})
	if err != nil {
		t.Fatal(err)
	}
	if v.User.FullName != "Ana Souza" || v.User.Avatar != 7 || len(v.User.Interests) != 2 {
		t.Errorf("after update = %+v", v.User)
	}
	if v.User.Username != "ana" {
		t.Error("untouched field changed")
	}

	bad := []struct {
		name string
		edit Edit
		want error
	}{
		{"empty edit", Edit{}, ErrNothingToUpdate},
		{"blank name", Edit{FullName: ptr("   ")}, validate.ErrInvalid},
		{"avatar out of range", Edit{Avatar: ptr(12)}, validate.ErrInvalid},
		{"username with space", Edit{Username: ptr("ana souza")}, validate.ErrInvalid},
		{"no interests", Edit{Interests: ptr([]string{})}, validate.ErrInvalid},
		{"unknown interest", Edit{Interests: ptr([]string{"Culinária"})}, validate.ErrInvalid},
	}
	for _, tt := range bad {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Update(ctx, "me", tt.edit); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdatePicture(t *testing.T) {
	svc := testService(t)
	ctx := context.Background()

	if _, err := svc.UpdatePicture(ctx, "me", []byte("hello")); !errors.Is(err, blob.ErrNotImage) {
		t.Errorf("text: %v", err)
	}
	url, err := svc.UpdatePicture(ctx, "me", pngHeader)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(url, "profile_pictures/me") {
		t.Errorf("url = %q", url)
	}
	v, _ := svc.Get(ctx, "me")
	if v.User.ProfilePicture != url {
		t.Errorf("stored = %q", v.User.ProfilePicture)
	}
}
