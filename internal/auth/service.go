// Package auth implements the account gateway: registration, sign-in with
// signed session tokens, password resets and sign-out.
package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/matheus3301/puthype/internal/bus"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/validate"
	sqlite3 "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

// Identity is an authenticated account.
type Identity struct {
	UID       string `json:"uid"`
	Email     string `json:"email"`
	SessionID string `json:"sessionId,omitempty"`
}

// Session is the result of a successful sign-in.
type Session struct {
	Identity
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// Options configures token lifetimes and hashing cost.
type Options struct {
	Secret   []byte
	TokenTTL time.Duration
	ResetTTL time.Duration
	Hash     HashParams
}

// Service is the auth gateway backed by the account tables.
type Service struct {
	store  *docstore.Store
	bus    *bus.Bus
	mailer Mailer
	opts   Options
	log    *zap.Logger
	now    func() time.Time
}

// New creates the auth gateway. Zero lifetimes fall back to 30 days for
// sessions and one hour for reset tokens.
func New(store *docstore.Store, b *bus.Bus, mailer Mailer, opts Options, log *zap.Logger) *Service {
	if opts.TokenTTL <= 0 {
		opts.TokenTTL = 30 * 24 * time.Hour
	}
	if opts.ResetTTL <= 0 {
		opts.ResetTTL = time.Hour
	}
	if opts.Hash == (HashParams{}) {
		opts.Hash = DefaultHashParams
	}
	return &Service{store: store, bus: b, mailer: mailer, opts: opts, log: log.Named("auth"), now: time.Now}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func checkCredentials(email, password string) error {
	if !validate.Email(email) {
		return ErrInvalidEmail
	}
	if len([]rune(password)) < MinPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// CreateAccount registers a new account in its own transaction.
func (s *Service) CreateAccount(ctx context.Context, email, password string) (Identity, error) {
	var id Identity
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		var err error
		id, err = s.CreateAccountTx(ctx, tx, email, password)
		return err
	})
	return id, err
}

// CreateAccountTx registers a new account inside tx, so callers can create
// the profile document in the same commit.
func (s *Service) CreateAccountTx(ctx context.Context, tx *docstore.Tx, email, password string) (Identity, error) {
	email = normalizeEmail(email)
	if err := checkCredentials(email, password); err != nil {
		return Identity{}, err
	}
	hash, err := HashPassword(password, s.opts.Hash)
	if err != nil {
		return Identity{}, err
	}

	uid := uuid.NewString()
	now := s.now().UnixMilli()
	_, err = tx.SQL().ExecContext(ctx, `
		INSERT INTO accounts (uid, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`, uid, email, hash, now, now)
	if err != nil {
		var sqlErr sqlite3.Error
		if errors.As(err, &sqlErr) && sqlErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return Identity{}, ErrEmailInUse
		}
		return Identity{}, fmt.Errorf("insert account: %w", err)
	}
	s.log.Info("account created", zap.String("uid", uid))
	return Identity{UID: uid, Email: email}, nil
}

// Account returns the identity registered under uid.
func (s *Service) Account(ctx context.Context, uid string) (Identity, error) {
	var id Identity
	err := s.store.DB().QueryRowContext(ctx, `SELECT uid, email FROM accounts WHERE uid = ?`, uid).
		Scan(&id.UID, &id.Email)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, fmt.Errorf("get account: %w", err)
	}
	return id, nil
}

// SignIn checks the password and opens a new session.
func (s *Service) SignIn(ctx context.Context, email, password string) (*Session, error) {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return nil, ErrInvalidEmail
	}

	var uid, hash string
	err := s.store.DB().QueryRowContext(ctx, `SELECT uid, password_hash FROM accounts WHERE email = ?`, email).
		Scan(&uid, &hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("get account: %w", err)
	}
	ok, err := VerifyPassword(password, hash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}

	now := s.now()
	sessionID := uuid.NewString()
	expires := now.Add(s.opts.TokenTTL)
	_, err = s.store.DB().ExecContext(ctx, `
		INSERT INTO auth_sessions (id, uid, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		sessionID, uid, now.UnixMilli(), expires.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	token, err := GenerateToken(uid, sessionID, s.opts.Secret, now, s.opts.TokenTTL)
	if err != nil {
		return nil, err
	}

	s.log.Info("signed in", zap.String("uid", uid), zap.String("session", sessionID))
	s.publish(bus.KindSignedIn, uid, sessionID)
	return &Session{
		Identity:  Identity{UID: uid, Email: email, SessionID: sessionID},
		Token:     token,
		ExpiresAt: expires,
	}, nil
}

// Verify resolves a session token to its identity. Tokens of revoked or
// expired sessions fail with ErrInvalidToken.
func (s *Service) Verify(ctx context.Context, token string) (Identity, error) {
	now := s.now()
	claims, err := ParseToken(token, s.opts.Secret, now)
	if err != nil {
		return Identity{}, err
	}

	var id Identity
	var expires int64
	err = s.store.DB().QueryRowContext(ctx, `
		SELECT s.id, a.uid, a.email, s.expires_at
		FROM auth_sessions s JOIN accounts a ON a.uid = s.uid
		WHERE s.id = ?`, claims.ID).
		Scan(&id.SessionID, &id.UID, &id.Email, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return Identity{}, ErrInvalidToken
	}
	if err != nil {
		return Identity{}, fmt.Errorf("get session: %w", err)
	}
	if id.UID != claims.UserID || expires <= now.UnixMilli() {
		return Identity{}, ErrInvalidToken
	}
	return id, nil
}

// SignOut revokes the session behind token. Expired tokens are accepted so
// a stale client can still clean up.
func (s *Service) SignOut(ctx context.Context, token string) error {
	claims, err := ParseToken(token, s.opts.Secret, s.now())
	if claims == nil {
		return err
	}
	res, err := s.store.DB().ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = ?`, claims.ID)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		s.log.Info("signed out", zap.String("uid", claims.UserID), zap.String("session", claims.ID))
		s.publish(bus.KindSignedOut, claims.UserID, claims.ID)
	}
	return nil
}

// SendPasswordReset issues a single-use reset token and hands it to the mailer.
func (s *Service) SendPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if !validate.Email(email) {
		return ErrInvalidEmail
	}
	var uid string
	err := s.store.DB().QueryRowContext(ctx, `SELECT uid FROM accounts WHERE email = ?`, email).Scan(&uid)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get account: %w", err)
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return fmt.Errorf("generate reset token: %w", err)
	}
	token := base64.RawURLEncoding.EncodeToString(raw)
	now := s.now()
	_, err = s.store.DB().ExecContext(ctx, `
		INSERT INTO password_resets (token_hash, uid, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		hashToken(token), uid, now.UnixMilli(), now.Add(s.opts.ResetTTL).UnixMilli())
	if err != nil {
		return fmt.Errorf("insert reset: %w", err)
	}
	if err := s.mailer.SendPasswordReset(ctx, email, token); err != nil {
		return fmt.Errorf("deliver reset: %w", err)
	}
	s.log.Info("password reset issued", zap.String("uid", uid))
	return nil
}

// ConfirmPasswordReset sets a new password using a reset token and revokes
// every open session of the account.
func (s *Service) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if len([]rune(newPassword)) < MinPasswordLength {
		return ErrWeakPassword
	}
	hash, err := HashPassword(newPassword, s.opts.Hash)
	if err != nil {
		return err
	}

	var uid string
	var revoked []string
	err = s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		now := s.now().UnixMilli()
		q := tx.SQL()
		err := q.QueryRowContext(ctx, `
			SELECT uid FROM password_resets
			WHERE token_hash = ? AND used_at IS NULL AND expires_at > ?`, hashToken(token), now).Scan(&uid)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrInvalidToken
		}
		if err != nil {
			return fmt.Errorf("get reset: %w", err)
		}
		if _, err := q.ExecContext(ctx, `UPDATE password_resets SET used_at = ? WHERE token_hash = ?`, now, hashToken(token)); err != nil {
			return fmt.Errorf("use reset: %w", err)
		}
		if _, err := q.ExecContext(ctx, `UPDATE accounts SET password_hash = ?, updated_at = ? WHERE uid = ?`, hash, now, uid); err != nil {
			return fmt.Errorf("update password: %w", err)
		}

		rows, err := q.QueryContext(ctx, `SELECT id FROM auth_sessions WHERE uid = ?`, uid)
		if err != nil {
			return fmt.Errorf("list sessions: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				_ = rows.Close()
				return err
			}
			revoked = append(revoked, id)
		}
		_ = rows.Close()
		if _, err := q.ExecContext(ctx, `DELETE FROM auth_sessions WHERE uid = ?`, uid); err != nil {
			return fmt.Errorf("revoke sessions: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("password reset", zap.String("uid", uid), zap.Int("revoked_sessions", len(revoked)))
	for _, id := range revoked {
		s.publish(bus.KindSignedOut, uid, id)
	}
	return nil
}

func (s *Service) publish(kind, uid, sessionID string) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(bus.Event{Kind: kind, Payload: bus.AuthChange{UID: uid, SessionID: sessionID}})
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
