package auth

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/docstore"
	"go.uber.org/zap"
)

var fastHash = HashParams{Memory: 1024, Time: 1, Parallelism: 1, SaltLen: 16, KeyLen: 32}

type captureMailer struct {
	mu     sync.Mutex
	tokens map[string]string
}

func (m *captureMailer) SendPasswordReset(_ context.Context, email, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[email] = token
	return nil
}

func newTestService(t *testing.T) (*Service, *bus.Bus, *captureMailer) {
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
	mailer := &captureMailer{tokens: make(map[string]string)}
	svc := New(docstore.New(db, b), b, mailer, Options{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		Hash:   fastHash,
	}, zap.NewNop())
	return svc, b, mailer
}

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("segredo", fastHash)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(hash, "$argon2id$v=19$m=1024,t=1,p=1$") {
		t.Errorf("unexpected format %q", hash)
	}
	ok, err := VerifyPassword("segredo", hash)
	if err != nil || !ok {
		t.Errorf("VerifyPassword(correct) = %v, %v", ok, err)
	}
	ok, err = VerifyPassword("errado", hash)
	if err != nil || ok {
		t.Errorf("VerifyPassword(wrong) = %v, %v", ok, err)
	}
}

func TestVerifyPasswordRejectsMalformedHashes(t *testing.T) {
	tests := []string{
		"",
		"plain",
		"$bcrypt$v=19$m=1,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=x,t=1,p=1$c2FsdA$aGFzaA",
		"$argon2id$v=19$m=1024,t=1,p=1$!!$aGFzaA",
	}
	for _, encoded := range tests {
		t.Run(encoded, func(t *testing.T) {
			if _, err := VerifyPassword("x", encoded); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestCreateAccountValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.CreateAccount(ctx, "Ana@Example.com", "segredo"); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name     string
		email    string
		password string
		want     error
	}{
		{"duplicate email ignores case", "ana@example.COM", "segredo", ErrEmailInUse},
		{"invalid email", "not-an-email", "segredo", ErrInvalidEmail},
		{"weak password", "bia@example.com", "12345", ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.CreateAccount(ctx, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestCreateAccountTxRollsBack(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	boom := errors.New("profile write failed")
	err := svc.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		if _, err := svc.CreateAccountTx(ctx, tx, "ana@example.com", "segredo"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v", err)
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "segredo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("account survived rollback: %v", err)
	}
}

func TestSignInVerifySignOut(t *testing.T) {
	svc, b, _ := newTestService(t)
	ctx := context.Background()
	events, unsub := b.Subscribe(bus.AuthNamespace, 10)
	defer unsub()

	created, err := svc.CreateAccount(ctx, "ana@example.com", "segredo")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "errado"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password: %v", err)
	}
	if _, err := svc.SignIn(ctx, "nobody@example.com", "segredo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email: %v", err)
	}

	sess, err := svc.SignIn(ctx, " ANA@example.com ", "segredo")
	if err != nil {
		t.Fatal(err)
	}
	if sess.UID != created.UID || sess.Token == "" {
		t.Fatalf("session = %+v", sess)
	}
	select {
	case evt := <-events:
		if evt.Kind != bus.KindSignedIn {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed_in event")
	}

	id, err := svc.Verify(ctx, sess.Token)
	if err != nil {
		t.Fatal(err)
	}
	if id.UID != created.UID || id.Email != "ana@example.com" {
		t.Errorf("identity = %+v", id)
	}

	if err := svc.SignOut(ctx, sess.Token); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Verify(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("revoked token still valid: %v", err)
	}
	select {
	case evt := <-events:
		if evt.Kind != bus.KindSignedOut {
			t.Errorf("kind = %q", evt.Kind)
		}
	case <-time.After(time.Second):
		t.Fatal("no signed_out event")
	}
}

func TestVerifyRejectsForeignAndExpiredTokens(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()
	created, _ := svc.CreateAccount(ctx, "ana@example.com", "segredo")

	forged, _ := GenerateToken(created.UID, "s1", []byte("another-secret-another-secret!!"), time.Now(), time.Hour)
	if _, err := svc.Verify(ctx, forged); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("forged: %v", err)
	}
	if _, err := svc.Verify(ctx, "garbage"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage: %v", err)
	}

	sess, _ := svc.SignIn(ctx, "ana@example.com", "segredo")
	svc.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }
	if _, err := svc.Verify(ctx, sess.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired: %v", err)
	}
	if err := svc.SignOut(ctx, sess.Token); err != nil {
		t.Errorf("sign out with expired token: %v", err)
	}
}

func TestPasswordReset(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()
	_, _ = svc.CreateAccount(ctx, "ana@example.com", "segredo")
	old, _ := svc.SignIn(ctx, "ana@example.com", "segredo")

	if err := svc.SendPasswordReset(ctx, "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Errorf("unknown: %v", err)
	}
	if err := svc.SendPasswordReset(ctx, "nope"); !errors.Is(err, ErrInvalidEmail) {
		t.Errorf("invalid: %v", err)
	}
	if err := svc.SendPasswordReset(ctx, "ana@example.com"); err != nil {
		t.Fatal(err)
	}
	token := mailer.tokens["ana@example.com"]
	if token == "" {
		t.Fatal("mailer got no token")
	}

	if err := svc.ConfirmPasswordReset(ctx, token, "123"); !errors.Is(err, ErrWeakPassword) {
		t.Errorf("weak: %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, "wrong", "novasenha"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong token: %v", err)
	}
	if err := svc.ConfirmPasswordReset(ctx, token, "novasenha"); err != nil {
		t.Fatal(err)
	}
	if err := svc.ConfirmPasswordReset(ctx, token, "outrasenha"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("reused token: %v", err)
	}

	if _, err := svc.SignIn(ctx, "ana@example.com", "segredo"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("old password still works: %v", err)
	}
	if _, err := svc.SignIn(ctx, "ana@example.com", "novasenha"); err != nil {
		t.Errorf("new password: %v", err)
	}
	if _, err := svc.Verify(ctx, old.Token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("old session survived reset: %v", err)
	}
}

func TestPasswordResetExpires(t *testing.T) {
	svc, _, mailer := newTestService(t)
	ctx := context.Background()
	_, _ = svc.CreateAccount(ctx, "ana@example.com", "segredo")
	_ = svc.SendPasswordReset(ctx, "ana@example.com")

	svc.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if err := svc.ConfirmPasswordReset(ctx, mailer.tokens["ana@example.com"], "novasenha"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired reset: %v", err)
	}
}

func TestLoadOrCreateSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server", "secret")
	first, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatal(err)
	}
	second, err := LoadOrCreateSecret(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(first) != string(second) || len(first) != secretLen {
		t.Error("secret not persisted")
	}
}
