package utils

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
)

// TokenClaims is what the auth middleware extracts from a bearer token.
type TokenClaims struct {
	CustomerID int
	IsAdmin    bool
}

var errInvalidToken = errors.New("invalid token")

func ParseToken(tokenString, secret string) (TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return TokenClaims{}, errInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errInvalidToken
	}

	out := TokenClaims{}
	if id, ok := claims["customer_id"].(float64); ok {
		out.CustomerID = int(id)
	}
	if admin, ok := claims["is_admin"].(bool); ok {
		out.IsAdmin = admin
	}
	if out.CustomerID == 0 && !out.IsAdmin {
		return TokenClaims{}, errInvalidToken
	}
	return out, nil
}
