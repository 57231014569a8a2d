package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/discovery"
	"github.com/matheus3301/puthype/internal/docstore"
	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/store"
)

// DiscoveryService implements the Discovery gRPC service.
type DiscoveryService struct {
	svc   *discovery.Service
	store *docstore.Store
}

// NewDiscoveryService creates a new discovery service.
func NewDiscoveryService(svc *discovery.Service, st *docstore.Store) *DiscoveryService {
	return &DiscoveryService{svc: svc, store: st}
}

func (s *DiscoveryService) Feed(ctx context.Context, req *rpc.FeedRequest) (*rpc.FeedResponse, error) {
	me, err := store.GetUser(ctx, s.store, userID(ctx))
	if err != nil {
		return nil, err
	}
	tab := req.Tab
	if tab == "" {
		tab = discovery.TabCommunities
	}
	feed, err := s.svc.Load(ctx, discovery.Filter{Tab: tab, Interests: me.Interests, Selected: req.Selected})
	if err != nil {
		return nil, err
	}
	return &rpc.FeedResponse{
		Feed:               feed,
		Interests:          me.Interests,
		CanCreateCommunity: discovery.CanCreateCommunity(me.Plan),
	}, nil
}

func (s *DiscoveryService) CreateEvent(ctx context.Context, req *rpc.CreateEventRequest) (*rpc.EventResponse, error) {
	e, err := s.svc.CreateEvent(ctx, userID(ctx), req.Event)
	if err != nil {
		return nil, err
	}
	return &rpc.EventResponse{Event: *e}, nil
}

func (s *DiscoveryService) GetEvent(ctx context.Context, req *rpc.GetEventRequest) (*rpc.EventResponse, error) {
	e, err := s.svc.GetEvent(ctx, userID(ctx), req.ID)
	if err != nil {
		return nil, err
	}
	return &rpc.EventResponse{Event: *e}, nil
}

func (s *DiscoveryService) CreateCommunity(ctx context.Context, req *rpc.CreateCommunityRequest) (*rpc.CommunityResponse, error) {
	c, err := s.svc.CreateCommunity(ctx, userID(ctx), req.Community, req.Image)
	if err != nil {
		return nil, err
	}
	return &rpc.CommunityResponse{Community: *c}, nil
}
