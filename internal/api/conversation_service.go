package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/conversation"
	"github.com/matheus3301/puthype/internal/rpc"
	"google.golang.org/grpc"
)

// ConversationService implements the Conversations gRPC service.
type ConversationService struct {
	svc *conversation.Service
}

// NewConversationService creates a new conversation service.
func NewConversationService(svc *conversation.Service) *ConversationService {
	return &ConversationService{svc: svc}
}

func (s *ConversationService) Watch(_ *rpc.Empty, stream grpc.ServerStreamingServer[rpc.ConversationState]) error {
	ctx := stream.Context()
	ch, err := s.svc.Watch(ctx, userID(ctx))
	if err != nil {
		return err
	}
	for upd := range ch {
		if upd.Err != nil {
			return upd.Err
		}
		if err := stream.Send(&rpc.ConversationState{State: upd.State}); err != nil {
			return err
		}
	}
	return nil
}

func (s *ConversationService) ToggleFavorite(ctx context.Context, req *rpc.ContactRequest) (*rpc.ToggleFavoriteResponse, error) {
	fav, err := s.svc.ToggleFavorite(ctx, userID(ctx), req.ContactID)
	if err != nil {
		return nil, err
	}
	return &rpc.ToggleFavoriteResponse{Favorite: fav}, nil
}

func (s *ConversationService) MoveToTrash(ctx context.Context, req *rpc.ContactRequest) (*rpc.Empty, error) {
	if err := s.svc.MoveToTrash(ctx, userID(ctx), req.ContactID); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *ConversationService) RestoreFromTrash(ctx context.Context, req *rpc.ContactRequest) (*rpc.Empty, error) {
	if err := s.svc.RestoreFromTrash(ctx, userID(ctx), req.ContactID); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}

func (s *ConversationService) DeleteConversation(ctx context.Context, req *rpc.ContactRequest) (*rpc.DeleteConversationResponse, error) {
	n, err := s.svc.DeleteConversation(ctx, userID(ctx), req.ContactID)
	if err != nil {
		return nil, err
	}
	return &rpc.DeleteConversationResponse{Deleted: n}, nil
}
