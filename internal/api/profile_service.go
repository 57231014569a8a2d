package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/profile"
	"github.com/matheus3301/puthype/internal/rpc"
)

// ProfileService implements the Profiles gRPC service.
type ProfileService struct {
	svc *profile.Service
}

// NewProfileService creates a new profile service.
func NewProfileService(svc *profile.Service) *ProfileService {
	return &ProfileService{svc: svc}
}

func (s *ProfileService) Get(ctx context.Context, req *rpc.GetProfileRequest) (*rpc.ProfileResponse, error) {
	uid := req.UID
	if uid == "" {
		uid = userID(ctx)
	}
	v, err := s.svc.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	return &rpc.ProfileResponse{Profile: *v}, nil
}

func (s *ProfileService) Update(ctx context.Context, req *rpc.UpdateProfileRequest) (*rpc.ProfileResponse, error) {
	v, err := s.svc.Update(ctx, userID(ctx), req.Edit)
	if err != nil {
		return nil, err
	}
	return &rpc.ProfileResponse{Profile: *v}, nil
}

func (s *ProfileService) UpdatePicture(ctx context.Context, req *rpc.UpdatePictureRequest) (*rpc.UpdatePictureResponse, error) {
	url, err := s.svc.UpdatePicture(ctx, userID(ctx), req.Image)
	if err != nil {
		return nil, err
	}
	return &rpc.UpdatePictureResponse{URL: url}, nil
}
