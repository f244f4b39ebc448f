package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

var ErrInvalidToken = errors.New("invalid token")

const ResetTokenTTL = time.Hour

// TokenManager signs and verifies HS256 tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue returns a signed access token for the given claims.
func (tm *TokenManager) Issue(uc UserClaims) (string, error) {
	claims := uc.mapClaims()
	claims["iat"] = tm.now().Unix()
	claims["exp"] = tm.now().Add(tm.ttl).Unix()
	return tm.sign(claims)
}

// Parse verifies an access token and returns its claims.
func (tm *TokenManager) Parse(token string) (*UserClaims, error) {
	claims, err := tm.parse(token)
	if err != nil {
		return nil, err
	}
	return claimsFromMap(claims)
}

// IssueReset returns a password-reset token bound to the current password
// hash, so it stops working once the password changes.
func (tm *TokenManager) IssueReset(userID uint, passwordHash string) (string, error) {
	return tm.sign(jwt.MapClaims{
		"sub": userID,
		"typ": tokenTypeReset,
		"fp":  fingerprint(passwordHash),
		"exp": tm.now().Add(ResetTokenTTL).Unix(),
	})
}

// ParseReset verifies a reset token and returns the user id and the
// fingerprint it was issued against.
func (tm *TokenManager) ParseReset(token string) (uint, string, error) {
	claims, err := tm.parse(token)
	if err != nil {
		return 0, "", err
	}
	if typ, _ := claims["typ"].(string); typ != tokenTypeReset {
		return 0, "", ErrInvalidToken
	}
	sub, ok := claims["sub"].(float64)
	if !ok || sub <= 0 {
		return 0, "", ErrInvalidToken
	}
	fp, _ := claims["fp"].(string)
	return uint(sub), fp, nil
}

// ResetMatches reports whether a reset fingerprint still matches hash.
func ResetMatches(fp, passwordHash string) bool {
	return fp != "" && fp == fingerprint(passwordHash)
}

func (tm *TokenManager) sign(claims jwt.MapClaims) (string, error) {
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) parse(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return tm.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func fingerprint(passwordHash string) string {
	sum := sha256.Sum256([]byte(passwordHash))
	return hex.EncodeToString(sum[:8])
}
