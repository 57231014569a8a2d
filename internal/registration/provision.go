package registration

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/matheus3301/puthype/internal/auth"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"go.uber.org/zap"
)

// Service provisions accounts against the auth gateway and the store.
type Service struct {
	auth  *auth.Service
	store *docstore.Store
	log   *zap.Logger
	now   func() time.Time

	createProfile func(ctx context.Context, src store.Source, u *store.User) error
}

// New creates a provisioning service.
func New(a *auth.Service, st *docstore.Store, log *zap.Logger) *Service {
	return &Service{
		auth:          a,
		store:         st,
		log:           log.Named("registration"),
		now:           time.Now,
		createProfile: store.CreateUser,
	}
}

// Provision creates the account and the profile document in one
// transaction. A failure on either side leaves neither behind.
func (s *Service) Provision(ctx context.Context, f Form) (auth.Identity, error) {
	if err := f.ValidateAll(); err != nil {
		return auth.Identity{}, err
	}
	var id auth.Identity
	err := s.store.RunInTx(ctx, func(ctx context.Context, tx *docstore.Tx) error {
		var err error
		id, err = s.auth.CreateAccountTx(ctx, tx, f.Email, f.Password)
		if err != nil {
			return err
		}
		return s.createProfile(ctx, tx, &store.User{
			ID:        id.UID,
			FullName:  strings.TrimSpace(f.FullName),
			Phone:     strings.TrimSpace(f.Phone),
			Email:     id.Email,
			Username:  strings.TrimSpace(f.Username),
			Interests: f.Interests,
			Avatar:    f.Avatar,
			CreatedAt: s.now().UnixMilli(),
		})
	})
	if err != nil {
		s.log.Warn("provision failed", zap.Error(err))
		return auth.Identity{}, err
	}
	s.log.Info("account provisioned", zap.String("uid", id.UID))
	return id, nil
}

// Reconcile creates a minimal profile for an identity that has none and
// reports whether it did.
func (s *Service) Reconcile(ctx context.Context, id auth.Identity) (bool, error) {
	_, err := store.GetUser(ctx, s.store, id.UID)
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return false, err
	}

	username, _, _ := strings.Cut(id.Email, "@")
	err = store.CreateUser(ctx, s.store, &store.User{
		ID:        id.UID,
		Email:     id.Email,
		Username:  username,
		Avatar:    1,
		CreatedAt: s.now().UnixMilli(),
	})
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.Info("profile reconciled", zap.String("uid", id.UID))
	return true, nil
}
