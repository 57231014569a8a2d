package discovery

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/matheus3301/puthype/internal/blob"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/store"
	"github.com/matheus3301/puthype/internal/validate"
	"go.uber.org/zap"
)

// Errors returned by Load and the create operations.
var (
	ErrPlanRequired  = errors.New("your plan does not allow creating communities")
	ErrMissingFields = errors.New("fill in all fields")
	ErrUnknownTab    = errors.New("unknown feed tab")
	ErrUnknownTag    = errors.New("unknown interest tag")
)

// EventImages are the preset event image names.
var EventImages = []string{"1", "2", "3", "4", "5"}

const inviteAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// InviteCodeLen is the length of generated invite codes.
const InviteCodeLen = 6

// EventInput is the form to create an event.
type EventInput struct {
	Title       string `json:"titulo" validate:"required,max=120"`
	Description string `json:"descricao" validate:"required,max=2000"`
	ScheduledAt int64  `json:"dataHora" validate:"gte=0"`
	Location    string `json:"localizacao" validate:"required,max=200"`
	VideoLink   string `json:"videoLink" validate:"omitempty,url"`
	Tag         string `json:"gosto" validate:"required"`
	Privacy     string `json:"privacidade" validate:"omitempty,oneof=publico privado"`
	InviteCode  string `json:"senhaConvite" validate:"omitempty,min=4,max=32"`
	Image       string `json:"imagem" validate:"omitempty,oneof=1 2 3 4 5"`
}

// CommunityInput is the form to create a community.
type CommunityInput struct {
	Name        string `json:"nome" validate:"required,max=80"`
	Description string `json:"descricao" validate:"required,max=2000"`
	Tag         string `json:"gosto"`
}

// Service loads the feed and creates feed items.
type Service struct {
	store *docstore.Store
	blobs blob.Store
	log   *zap.Logger
	now   func() time.Time
}

// New creates a discovery service.
func New(st *docstore.Store, blobs blob.Store, log *zap.Logger) *Service {
	return &Service{store: st, blobs: blobs, log: log.Named("discovery"), now: time.Now}
}

// Load returns the feed matching f. A filter with no interests and no
// selection yields an empty feed without touching the store.
func (s *Service) Load(ctx context.Context, f Filter) (Feed, error) {
	if !f.Tab.Valid() {
		return Feed{}, fmt.Errorf("%w: %q", ErrUnknownTab, f.Tab)
	}
	feed := Feed{Tab: f.Tab}
	q, ok := f.Query()
	if !ok {
		return feed, nil
	}

	var err error
	switch f.Tab {
	case TabCommunities:
		feed.Communities, err = store.QueryCommunities(ctx, s.store, q)
	case TabEvents:
		feed.Events, err = store.QueryEvents(ctx, s.store, q)
		for i := range feed.Events {
			feed.Events[i].InviteCode = ""
		}
	}
	if err != nil {
		return Feed{}, fmt.Errorf("load feed: %w", err)
	}
	return feed, nil
}

// LoadFor builds the filter from uid's interests and loads the feed.
func (s *Service) LoadFor(ctx context.Context, uid string, tab Tab, selected string) (Feed, error) {
	me, err := store.GetUser(ctx, s.store, uid)
	if err != nil {
		return Feed{}, err
	}
	return s.Load(ctx, Filter{Tab: tab, Interests: me.Interests, Selected: selected})
}

func newInviteCode() (string, error) {
	buf := make([]byte, InviteCodeLen)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate invite code: %w", err)
	}
	for i, b := range buf {
		buf[i] = inviteAlphabet[int(b)%len(inviteAlphabet)]
	}
	return string(buf), nil
}

// CreateEvent validates in and stores a new event owned by owner. Private
// events get a generated invite code unless one was given.
func (s *Service) CreateEvent(ctx context.Context, owner string, in EventInput) (*store.Event, error) {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Location = strings.TrimSpace(in.Location)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	if !store.IsInterest(in.Tag) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, in.Tag)
	}

	now := s.now().UnixMilli()
	e := &store.Event{
		Title:       in.Title,
		Description: in.Description,
		ScheduledAt: in.ScheduledAt,
		Location:    in.Location,
		VideoLink:   in.VideoLink,
		Tag:         in.Tag,
		OwnerID:     owner,
		CreatedAt:   now,
		Privacy:     in.Privacy,
		Image:       in.Image,
	}
	if e.ScheduledAt == 0 {
		e.ScheduledAt = now
	}
	if e.Privacy == "" {
		e.Privacy = store.Public
	}
	if e.Image == "" {
		e.Image = EventImages[0]
	}
	if e.Privacy == store.Private {
		e.InviteCode = in.InviteCode
		if e.InviteCode == "" {
			code, err := newInviteCode()
			if err != nil {
				return nil, err
			}
			e.InviteCode = code
		}
	}

	if err := store.CreateEvent(ctx, s.store, e); err != nil {
		return nil, fmt.Errorf("create event: %w", err)
	}
	s.log.Info("event created", zap.String("id", e.ID), zap.String("owner", owner), zap.String("privacy", e.Privacy))
	return e, nil
}

// GetEvent returns an event. The invite code is only shown to its owner.
func (s *Service) GetEvent(ctx context.Context, viewer, id string) (*store.Event, error) {
	e, err := store.GetEvent(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if e.OwnerID != viewer {
		e.InviteCode = ""
	}
	return e, nil
}

// CreateCommunity stores a new community owned by owner, whose plan must
// allow it. image is optional and must be an image file.
func (s *Service) CreateCommunity(ctx context.Context, owner string, in CommunityInput, image []byte) (*store.Community, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Description = strings.TrimSpace(in.Description)
	if err := validate.Struct(in); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMissingFields, err)
	}
	if in.Tag != "" && !store.IsInterest(in.Tag) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, in.Tag)
	}

	me, err := store.GetUser(ctx, s.store, owner)
	if err != nil {
		return nil, err
	}
	if !CanCreateCommunity(me.Plan) {
		return nil, ErrPlanRequired
	}

	now := s.now()
	c := &store.Community{
		Name:        in.Name,
		Description: in.Description,
		Tag:         in.Tag,
		CreatorID:   owner,
		CreatedAt:   now.UnixMilli(),
	}
	if len(image) > 0 {
		ref, err := s.blobs.Upload(ctx, fmt.Sprintf("comunidades/%s_%d", owner, now.UnixMilli()), image)
		if err != nil {
			return nil, fmt.Errorf("upload community image: %w", err)
		}
		if c.Image, err = s.blobs.DownloadURL(ctx, ref); err != nil {
			return nil, fmt.Errorf("community image url: %w", err)
		}
	}

	if err := store.CreateCommunity(ctx, s.store, c); err != nil {
		return nil, fmt.Errorf("create community: %w", err)
	}
	s.log.Info("community created", zap.String("id", c.ID), zap.String("owner", owner))
	return c, nil
}
