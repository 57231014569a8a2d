package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/rpc"
	"github.com/matheus3301/puthype/internal/thread"
	"google.golang.org/grpc"
)

// ThreadService implements the Threads gRPC service.
type ThreadService struct {
	svc *thread.Service
}

// NewThreadService creates a new thread service.
func NewThreadService(svc *thread.Service) *ThreadService {
	return &ThreadService{svc: svc}
}

func (s *ThreadService) Send(ctx context.Context, req *rpc.SendRequest) (*rpc.MessageResponse, error) {
	msg, err := s.svc.Send(ctx, userID(ctx), req.To, req.Text)
	if err != nil {
		return nil, err
	}
	return &rpc.MessageResponse{Message: *msg}, nil
}

func (s *ThreadService) Watch(req *rpc.ThreadRequest, stream grpc.ServerStreamingServer[rpc.ThreadSnapshot]) error {
	ctx := stream.Context()
	ch, err := s.svc.Watch(ctx, userID(ctx), req.Peer)
	if err != nil {
		return err
	}
	for snap := range ch {
		if snap.Err != nil {
			return snap.Err
		}
		out := &rpc.ThreadSnapshot{Messages: snap.Messages}
		if len(snap.Messages) == 0 {
			out.Suggestions = thread.Suggestions()
		}
		if err := stream.Send(out); err != nil {
			return err
		}
	}
	return nil
}

func (s *ThreadService) ClearHistory(ctx context.Context, req *rpc.ThreadRequest) (*rpc.ClearHistoryResponse, error) {
	hidden, deleted, err := s.svc.ClearHistory(ctx, userID(ctx), req.Peer)
	if err != nil {
		return nil, err
	}
	return &rpc.ClearHistoryResponse{Hidden: hidden, Deleted: deleted}, nil
}

func (s *ThreadService) MarkRead(ctx context.Context, req *rpc.ThreadRequest) (*rpc.MarkReadResponse, error) {
	n, err := s.svc.MarkRead(ctx, userID(ctx), req.Peer)
	if err != nil {
		return nil, err
	}
	return &rpc.MarkReadResponse{Updated: n}, nil
}
