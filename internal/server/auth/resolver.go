package auth

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/lifecycle/internal/common"
)

// JWTResolver maps a bearer credential to an account id.
type JWTResolver struct {
	secret []byte
}

func NewJWTResolver(secret []byte) *JWTResolver {
	return &JWTResolver{secret: secret}
}

// Resolve accepts the raw token or an "Authorization" header value with the
// Bearer scheme.
func (r *JWTResolver) Resolve(ctx context.Context, credential string) (string, error) {
	token := strings.TrimSpace(credential)
	if scheme, rest, ok := strings.Cut(token, " "); ok && strings.EqualFold(scheme, "bearer") {
		token = strings.TrimSpace(rest)
	}
	if token == "" {
		return "", common.ErrInvalidToken
	}
	return GetUserIDFromToken(token, r.secret)
}
