package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	pb "github.com/dmitrijs2005/lifecycle/internal/proto"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) PurgeOwner(ctx context.Context, req *pb.PurgeOwnerRequest) (*pb.PurgeOwnerResponse, error) {
	ownerID := req.GetOwnerId()
	if ownerID == "" {
		return nil, status.Error(codes.InvalidArgument, "owner id required")
	}

	s.logger.Info(ctx, "purge owner request", "owner_id", ownerID, "caller", ctx.Value(ServiceKey))

	res, err := s.purger.PurgeOwner(ctx, ownerID)
	if err != nil {
		s.logger.Error(ctx, "purge owner failed", "owner_id", ownerID, "error", err)
		return nil, statusFromError(err)
	}

	return &pb.PurgeOwnerResponse{
		Contents:        int32(res.Contents),
		CalendarEntries: res.CalendarEntries,
		DeferredBlobs:   int32(res.DeferredBlobs),
	}, nil
}

func statusFromError(err error) error {
	switch {
	case errors.Is(err, common.ErrorNotFound):
		return status.Error(codes.NotFound, "not found")
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrInvalidToken):
		return status.Error(codes.Unauthenticated, "unauthorized")
	case errors.Is(err, common.ErrTokenExpired):
		return status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
	default:
		return status.Error(codes.Internal, "internal error")
	}
}
