package api

import (
	"context"

	"github.com/matheus3301/puthype/internal/directory"
	"github.com/matheus3301/puthype/internal/rpc"
)

// DirectoryService implements the Directory gRPC service.
type DirectoryService struct {
	svc *directory.Service
}

// NewDirectoryService creates a new directory service.
func NewDirectoryService(svc *directory.Service) *DirectoryService {
	return &DirectoryService{svc: svc}
}

func (s *DirectoryService) Search(ctx context.Context, req *rpc.SearchRequest) (*rpc.SearchResponse, error) {
	results, err := s.svc.Search(ctx, userID(ctx), req.Prefix)
	if err != nil {
		return nil, err
	}
	return &rpc.SearchResponse{Results: results}, nil
}

func (s *DirectoryService) AddContact(ctx context.Context, req *rpc.AddContactRequest) (*rpc.AddContactResponse, error) {
	added, err := s.svc.AddContact(ctx, userID(ctx), req.Target)
	if err != nil {
		return nil, err
	}
	return &rpc.AddContactResponse{Added: added}, nil
}
