package utils

import (
	"errors"

	"github.com/dgrijalva/jwt-go"
	"github.com/inquiry-desk/api-go/models"
)

var ErrInvalidClaims = errors.New("invalid token claims")

const (
	tokenTypeAccess = "access"
	tokenTypeReset  = "reset"
)

// UserClaims is what an access token asserts about its bearer.
type UserClaims struct {
	UserID uint        `json:"sub"`
	Email  string      `json:"email"`
	Role   models.Role `json:"role"`
}

func (uc UserClaims) mapClaims() jwt.MapClaims {
	return jwt.MapClaims{
		"sub":   uc.UserID,
		"email": uc.Email,
		"role":  string(uc.Role),
		"typ":   tokenTypeAccess,
	}
}

func claimsFromMap(claims jwt.MapClaims) (*UserClaims, error) {
	if typ, _ := claims["typ"].(string); typ != tokenTypeAccess {
		return nil, ErrInvalidClaims
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return nil, ErrInvalidClaims
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)
	return &UserClaims{
		UserID: uint(sub),
		Email:  email,
		Role:   models.Role(role),
	}, nil
}
