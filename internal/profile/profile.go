// Package profile reads and edits user profiles.
package profile

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/matheus3301/puthype/internal/blob"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/validate"
	"go.uber.org/zap"
)

// Role is the community role shown on a profile.
type Role string

const (
	RoleCreator      Role = "creator"
	RoleCollaborator Role = "collaborator"
	RoleUndefined    Role = "undefined"
)

// RoleOf derives the role of u.
func RoleOf(u *store.User) Role {
	switch {
	case u.Creator:
		return RoleCreator
	case u.Status == "colaborador":
		return RoleCollaborator
	default:
		return RoleUndefined
	}
}

// PlanBadge returns the badge label for plan, or "" when there is none.
func PlanBadge(plan string) string {
	switch plan {
	case store.PlanBasic:
		return "Basic plan"
	case store.PlanAdvanced:
		return "Advanced plan"
	case store.PlanPremium:
		return "Premium plan"
	}
	return ""
}

// View is a profile as displayed.
type View struct {
	User      store.User `json:"user"`
	Role      Role       `json:"role"`
	PlanBadge string     `json:"planBadge,omitempty"`
}

// Edit lists the profile fields to change. Nil fields are left alone.
type Edit struct {
	FullName  *string   `json:"fullName,omitempty" validate:"omitnil,min=1,max=100"`
	Phone     *string   `json:"phone,omitempty" validate:"omitnil,min=1,max=30"`
	Username  *string   `json:"username,omitempty" validate:"omitnil,min=1,max=40,excludesall= "`
	Interests *[]string `json:"gostos,omitempty" validate:"omitnil,min=1"`
	Avatar    *int      `json:"avatar,omitempty" validate:"omitnil,min=1,max=11"`
}

// ErrNothingToUpdate is returned by Update for an Edit with no fields set.
var ErrNothingToUpdate = errors.New("nothing to update")

// IsZero reports whether e changes nothing.
func (e Edit) IsZero() bool {
	return e.FullName == nil && e.Phone == nil && e.Username == nil && e.Interests == nil && e.Avatar == nil
}

// Service serves profile reads and edits.
type Service struct {
	store *docstore.Store
	blobs blob.Store
	log   *zap.Logger
}

// New creates a profile service.
func New(st *docstore.Store, blobs blob.Store, log *zap.Logger) *Service {
	return &Service{store: st, blobs: blobs, log: log.Named("profile")}
}

// Get returns the profile of uid.
func (s *Service) Get(ctx context.Context, uid string) (*View, error) {
	u, err := store.GetUser(ctx, s.store, uid)
	if err != nil {
		return nil, err
	}
	return &View{User: *u, Role: RoleOf(u), PlanBadge: PlanBadge(u.Plan)}, nil
}

func trim(p *string) {
	if p != nil {
		*p = strings.TrimSpace(*p)
	}
}

// Update applies e to the profile of uid and returns the new view.
func (s *Service) Update(ctx context.Context, uid string, e Edit) (*View, error) {
	trim(e.FullName)
	trim(e.Phone)
	trim(e.Username)
	if err := validate.Struct(e); err != nil {
		return nil, err
	}

	fields := docstore.Fields{}
	if e.FullName != nil {
		fields[store.FieldFullName] = *e.FullName
	}
	if e.Phone != nil {
		fields[store.FieldPhone] = *e.Phone
	}
	if e.Username != nil {
		fields[store.FieldUsername] = *e.Username
	}
	if e.Interests != nil {
		for _, tag := range *e.Interests {
			if !store.IsInterest(tag) {
				return nil, &validate.Error{Fields: map[string]string{"gostos": fmt.Sprintf("has unknown interest %q", tag)}}
			}
		}
		fields[store.FieldInterests] = dedupe(*e.Interests)
	}
	if e.Avatar != nil {
		fields[store.FieldAvatar] = *e.Avatar
	}
	if len(fields) == 0 {
		return nil, ErrNothingToUpdate
	}

	if err := store.UpdateUser(ctx, s.store, uid, fields); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	s.log.Info("profile updated", zap.String("uid", uid), zap.Int("fields", len(fields)))
	return s.Get(ctx, uid)
}

func dedupe(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}

// UpdatePicture stores data as the profile picture of uid and returns its URL.
func (s *Service) UpdatePicture(ctx context.Context, uid string, data []byte) (string, error) {
	if _, err := store.GetUser(ctx, s.store, uid); err != nil {
		return "", err
	}
	ref, err := s.blobs.Upload(ctx, "profile_pictures/"+uid, data)
	if err != nil {
		return "", fmt.Errorf("upload picture: %w", err)
	}
	url, err := s.blobs.DownloadURL(ctx, ref)
	if err != nil {
		return "", fmt.Errorf("picture url: %w", err)
	}
	if err := store.UpdateUser(ctx, s.store, uid, docstore.Fields{store.FieldProfilePicture: url}); err != nil {
		return "", fmt.Errorf("save picture: %w", err)
	}
	s.log.Info("profile picture updated", zap.String("uid", uid), zap.String("type", ref.ContentType))
	return url, nil
}
