package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/notify"
	"github.com/matheus3301/puthype/internal/rpc"
	"google.golang.org/grpc"
)

// NotificationService implements the Notifications gRPC service.
type NotificationService struct {
	svc *notify.Service
}

// NewNotificationService creates a new notification service.
func NewNotificationService(svc *notify.Service) *NotificationService {
	return &NotificationService{svc: svc}
}

func (s *NotificationService) Watch(_ *rpc.Empty, stream grpc.ServerStreamingServer[rpc.NotificationList]) error {
	ctx := stream.Context()
	ch, err := s.svc.Watch(ctx, userID(ctx))
	if err != nil {
		return err
	}
	for upd := range ch {
		if upd.Err != nil {
			return upd.Err
		}
		if err := stream.Send(&rpc.NotificationList{Items: upd.Items}); err != nil {
			return err
		}
	}
	return nil
}

func (s *NotificationService) MarkRead(ctx context.Context, req *rpc.NotificationRequest) (*rpc.Empty, error) {
	if err := s.svc.MarkRead(ctx, userID(ctx), req.ID); err != nil {
		return nil, err
	}
	return &rpc.Empty{}, nil
}
