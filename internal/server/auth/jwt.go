// Package auth issues and verifies the HS256 JWTs used as member bearer
// credentials and as service credentials on internal gRPC calls.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/lifecycle/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// Claims carries the account id of a member token, or the caller name of a
// service token (Service set).
type Claims struct {
	jwt.RegisteredClaims
	UserID  string `json:"uid,omitempty"`
	Service bool   `json:"svc,omitempty"`
}

func sign(claims Claims, secretKey []byte) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secretKey)
}

func GenerateToken(userID string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		UserID: userID,
	}, secretKey)
}

// GenerateServiceToken mints a token for internal callers such as the
// cascade delete job.
func GenerateServiceToken(service string, secretKey []byte, validityDuration time.Duration) (string, error) {
	return sign(Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   service,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(validityDuration)),
		},
		Service: true,
	}, secretKey)
}

func parse(tokenString string, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, common.ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	if !token.Valid {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

// GetUserIDFromToken verifies a member token and returns its account id.
func GetUserIDFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	if claims.Service || claims.UserID == "" {
		return "", common.ErrInvalidToken
	}
	return claims.UserID, nil
}

// GetServiceFromToken verifies a service token and returns the caller name.
func GetServiceFromToken(tokenString string, secretKey []byte) (string, error) {
	claims, err := parse(tokenString, secretKey)
	if err != nil {
		return "", err
	}
	if !claims.Service {
		return "", common.ErrInvalidToken
	}
	return claims.Subject, nil
}
