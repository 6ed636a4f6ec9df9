package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	pb "github.com/dmitrijs2005/lifecycle/internal/proto"
	"github.com/dmitrijs2005/lifecycle/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type ctxKey string

// ServiceKey holds the name of the calling service in the handler context.
const ServiceKey ctxKey = "service"

// serviceOnly lists the methods that accept service tokens only.
var serviceOnly = map[string]bool{
	pb.ProfileService_PurgeOwner_FullMethodName: true,
}

func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {

	if serviceOnly[info.FullMethod] {

		var accessToken string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			values := md.Get(common.AccessTokenHeaderName)
			if len(values) > 0 {
				accessToken = values[0]
			}
		}
		if len(accessToken) == 0 {
			return nil, status.Error(codes.Unauthenticated, "missing token")
		}

		service, err := auth.GetServiceFromToken(accessToken, s.jwtSecret)
		if err != nil {
			if errors.Is(err, common.ErrTokenExpired) {
				return nil, status.Error(codes.Unauthenticated, common.ErrTokenExpired.Error())
			}
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}

		ctx = context.WithValue(ctx, ServiceKey, service)

	}

	return handler(ctx, req)
}
