// Package auth issues and checks the HS256 bearer tokens that guard the
// administrative HTTP routes.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/filestream/internal/common"
	"github.com/golang-jwt/jwt/v5"
)

// AdminRole is the only role the server recognises.
const AdminRole = "admin"

// Claims holds the standard claims plus the caller's role.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// GenerateToken signs an admin token for subject valid for validityDuration.
func GenerateToken(subject string, secretKey []byte, validityDuration time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validityDuration)),
		},
		Role: AdminRole,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// GetSubjectFromToken validates tokenString and returns its subject.
// Expired tokens yield common.ErrTokenExpired; every other failure, including
// a non-admin role, yields common.ErrorUnauthorized.
func GetSubjectFromToken(tokenString string, secretKey []byte) (string, error) {
	if len(secretKey) == 0 {
		return "", common.ErrorUnauthorized
	}

	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", common.ErrTokenExpired
		}
		return "", common.ErrorUnauthorized
	}

	if !token.Valid || claims.Role != AdminRole {
		return "", common.ErrorUnauthorized
	}

	return claims.Subject, nil
}
