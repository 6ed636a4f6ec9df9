// Package grpc exposes the profile service to other services. The cascade
// delete job of a remote deployment calls PurgeOwner through ProfileClient.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/lifecycle/internal/logging"
	pb "github.com/dmitrijs2005/lifecycle/internal/proto"
	"github.com/dmitrijs2005/lifecycle/internal/server/services"
	"google.golang.org/grpc"
)

// OwnerPurger is the local service behind PurgeOwner.
type OwnerPurger interface {
	PurgeOwner(ctx context.Context, ownerID string) (*services.PurgeResult, error)
}

type GRPCServer struct {
	pb.UnimplementedProfileServiceServer
	address   string
	purger    OwnerPurger
	logger    logging.Logger
	jwtSecret []byte
}

func NewGRPCServer(a string, l logging.Logger, purger OwnerPurger, secretKey string) *GRPCServer {
	return &GRPCServer{
		address:   a,
		logger:    l.With("module", "grpc_server"),
		purger:    purger,
		jwtSecret: []byte(secretKey),
	}
}

func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is done, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	pb.RegisterProfileServiceServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	// starts accepting incoming connections
	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
