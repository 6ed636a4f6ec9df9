package grpc

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	pb "github.com/dmitrijs2005/lifecycle/internal/proto"
	"github.com/dmitrijs2005/lifecycle/internal/retryx"
	"github.com/dmitrijs2005/lifecycle/internal/server/auth"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// ProfileClient calls PurgeOwner on a remote profile service.
type ProfileClient struct {
	conn      *grpc.ClientConn
	client    pb.ProfileServiceClient
	service   string
	jwtSecret []byte
	policy    retryx.Policy
}

func NewProfileClient(endpointURL, service, secretKey string, policy retryx.Policy, opts ...grpc.DialOption) (*ProfileClient, error) {
	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	return &ProfileClient{
		conn:      conn,
		client:    pb.NewProfileServiceClient(conn),
		service:   service,
		jwtSecret: []byte(secretKey),
		policy:    policy,
	}, nil
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

// PurgeOwner removes the dependent rows of ownerID. Transient failures are
// retried; rejected requests are not.
func (c *ProfileClient) PurgeOwner(ctx context.Context, ownerID string) error {
	req := &pb.PurgeOwnerRequest{OwnerId: ownerID}

	return retryx.Do(ctx, c.policy, "profile.purge_owner", func(ctx context.Context) error {
		token, err := auth.GenerateServiceToken(c.service, c.jwtSecret, time.Minute)
		if err != nil {
			return retryx.Permanent(fmt.Errorf("sign service token: %w", err))
		}

		_, err = c.client.PurgeOwner(withAccessToken(ctx, token), req)
		if err == nil {
			return nil
		}

		switch status.Code(err) {
		case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied, codes.NotFound:
			return retryx.Permanent(err)
		}
		return err
	})
}

func (c *ProfileClient) Close() error {
	return c.conn.Close()
}
