package registration

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

func fullForm() Form {
	return Form{
		FullName:  "Ana Souza",
		Phone:     "85 99999-0000",
		Email:     "ana@example.com",
		Password:  "segredo",
		Username:  "ana",
		Interests: []string{"Moda"},
		Avatar:    3,
	}
}

func TestNextBlocksOnEmptyStep(t *testing.T) {
	tests := []struct {
		step    int
		clear   func(f *Form)
		field   string
		message string
	}{
		{StepName, func(f *Form) { f.FullName = "  " }, "fullName", "please fill in your name"},
		{StepPhone, func(f *Form) { f.Phone = "" }, "phone", "please fill in your phone number"},
		{StepCredentials, func(f *Form) { f.Email = "" }, "email", "please fill in your e-mail"},
		{StepCredentials, func(f *Form) { f.Password = "" }, "password", "please fill in a password"},
		{StepUsername, func(f *Form) { f.Username = "" }, "username", "please fill in a username"},
		{StepInterests, func(f *Form) { f.Interests = nil }, "gostos", "please select at least one interest"},
		{StepAvatar, func(f *Form) { f.Avatar = 0 }, "avatar", "please choose an avatar"},
	}
	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			w := NewWizard()
			w.Form = fullForm()
			tt.clear(&w.Form)
			for w.Step() < tt.step {
				if err := w.Next(); err != nil {
					t.Fatalf("advancing to step %d: %v", tt.step, err)
				}
			}

			err := w.Next()
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if verr.Step != tt.step || verr.Field != tt.field || verr.Message != tt.message {
				t.Errorf("got %+v", verr)
			}
			if w.Step() != tt.step {
				t.Errorf("step advanced to %d", w.Step())
			}
		})
	}
}

func TestWizardNavigation(t *testing.T) {
	w := NewWizard()
	if w.Back() {
		t.Error("Back on the first step should not move")
	}
	w.Form = fullForm()
	for i := 0; i < 10; i++ {
		if err := w.Next(); err != nil {
			t.Fatal(err)
		}
	}
	if w.Step() != LastStep {
		t.Errorf("step = %d, want %d", w.Step(), LastStep)
	}
	if !w.Back() || w.Step() != LastStep-1 {
		t.Errorf("Back: step = %d", w.Step())
	}
}

func TestToggleInterestAndAvatar(t *testing.T) {
	w := NewWizard()
	_ = w.ToggleInterest("Moda")
	_ = w.ToggleInterest("Blogs")
	_ = w.ToggleInterest("Moda")
	if len(w.Form.Interests) != 1 || w.Form.Interests[0] != "Blogs" {
		t.Errorf("interests = %v", w.Form.Interests)
	}
	if err := w.ToggleInterest("Culinária"); err == nil {
		t.Error("unknown interest accepted")
	}

	tests := []struct {
		n  int
		ok bool
	}{{1, true}, {11, true}, {0, false}, {12, false}}
	for _, tt := range tests {
		if err := w.SelectAvatar(tt.n); (err == nil) != tt.ok {
			t.Errorf("SelectAvatar(%d) err = %v", tt.n, err)
		}
	}
}

type fakeProvisioner struct {
	err   error
	calls int
}

func (f *fakeProvisioner) Provision(context.Context, Form) (auth.Identity, error) {
	f.calls++
	if f.err != nil {
		return auth.Identity{}, f.err
	}
	return auth.Identity{UID: "u1"}, nil
}

func TestSubmitOutcomes(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		message  string
		redirect bool
	}{
		{"email in use", auth.ErrEmailInUse, MsgEmailInUse, true},
		{"weak password", auth.ErrWeakPassword, MsgWeakPassword, false},
		{"invalid email", auth.ErrInvalidEmail, MsgInvalidEmail, false},
		{"anything else", errors.New("disk full"), MsgGeneric, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewWizard()
			w.Form = fullForm()
			for w.Step() < LastStep {
				_ = w.Next()
			}
			_, err := w.Submit(context.Background(), &fakeProvisioner{err: tt.err})
			var serr *SubmitError
			if !errors.As(err, &serr) {
				t.Fatalf("err = %v", err)
			}
			if serr.Message != tt.message || serr.RedirectToLogin != tt.redirect {
				t.Errorf("got %+v", serr)
			}
			if !errors.Is(err, tt.err) {
				t.Error("cause not wrapped")
			}
		})
	}
}

func TestSubmitRequiresLastStep(t *testing.T) {
	w := NewWizard()
	w.Form = fullForm()
	p := &fakeProvisioner{}
	if _, err := w.Submit(context.Background(), p); !errors.Is(err, ErrNotReady) {
		t.Errorf("err = %v, want ErrNotReady", err)
	}
	if p.calls != 0 {
		t.Error("provisioner called before the last step")
	}
}

func testService(t *testing.T) (*Service, *auth.Service, *docstore.Store) {
	t.Helper()
	db, err := docstore.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := db.Migrate(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	b := bus.New()
	st := docstore.New(db, b)
	a := auth.New(st, b, auth.LogMailer{Log: zap.NewNop()}, auth.Options{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Hash:   auth.HashParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32},
	}, zap.NewNop())
	return New(a, st, zap.NewNop()), a, st
}

func TestProvisionCreatesAccountAndProfile(t *testing.T) {
	svc, a, st := testService(t)
	ctx := context.Background()

	id, err := svc.Provision(ctx, fullForm())
	if err != nil {
		t.Fatal(err)
	}
	u, err := store.GetUser(ctx, st, id.UID)
	if err != nil {
		t.Fatal(err)
	}
	if u.Username != "ana" || u.Avatar != 3 || u.Email != "ana@example.com" || len(u.Interests) != 1 {
		t.Errorf("profile = %+v", u)
	}
	if _, err := a.SignIn(ctx, "ana@example.com", "segredo"); err != nil {
		t.Errorf("sign in: %v", err)
	}

	if _, err := svc.Provision(ctx, fullForm()); !errors.Is(err, auth.ErrEmailInUse) {
		t.Errorf("second provision: %v", err)
	}
}

func TestProvisionLeavesNoOrphanedAccount(t *testing.T) {
	svc, a, _ := testService(t)
	ctx := context.Background()
	boom := errors.New("profile write failed")
	svc.createProfile = func(context.Context, store.Source, *store.User) error { return boom }

	if _, err := svc.Provision(ctx, fullForm()); !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := a.SignIn(ctx, "ana@example.com", "segredo"); !errors.Is(err, auth.ErrInvalidCredentials) {
		t.Errorf("account exists without a profile: %v", err)
	}
}

func TestReconcile(t *testing.T) {
	svc, a, st := testService(t)
	ctx := context.Background()
	id, err := a.CreateAccount(ctx, "bia@example.com", "segredo")
	if err != nil {
		t.Fatal(err)
	}

	created, err := svc.Reconcile(ctx, id)
	if err != nil || !created {
		t.Fatalf("Reconcile = %v, %v", created, err)
	}
	u, _ := store.GetUser(ctx, st, id.UID)
	if u.Username != "bia" || u.Email != "bia@example.com" {
		t.Errorf("profile = %+v", u)
	}
	if created, _ := svc.Reconcile(ctx, id); created {
		t.Error("second Reconcile created again")
	}
}
