package helpers

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const verifyPurpose = "verify_email"

// JWTManager handles generation and validation of JWT tokens
type JWTManager struct {
	AccessSecret  []byte
	RefreshSecret []byte
	VerifySecret  []byte
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	VerifyTTL     time.Duration
}

func NewJWTManager(accessSecret, refreshSecret, verifySecret string, accessTTL, refreshTTL, verifyTTL time.Duration) *JWTManager {
	return &JWTManager{
		AccessSecret:  []byte(accessSecret),
		RefreshSecret: []byte(refreshSecret),
		VerifySecret:  []byte(verifySecret),
		AccessTTL:     accessTTL,
		RefreshTTL:    refreshTTL,
		VerifyTTL:     verifyTTL,
	}
}

// Claims is the payload of access and refresh tokens.
type Claims struct {
	UserID      string   `json:"uid"`
	Email       string   `json:"email"`
	Authorities []string `json:"authorities,omitempty"`
	SessionID   string   `json:"sid"`
	jwt.RegisteredClaims
}

// HasAuthority reports whether the token was issued to a holder of authority.
func (c *Claims) HasAuthority(authority string) bool {
	for _, a := range c.Authorities {
		if a == authority {
			return true
		}
	}
	return false
}

// VerifyClaims is the payload of an email verification link.
type VerifyClaims struct {
	Email   string `json:"email"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

func (m *JWTManager) GenerateAccessToken(userID, email, sid string, authorities []string) (string, time.Time, error) {
	return m.sign(m.AccessSecret, m.AccessTTL, userID, email, sid, authorities)
}

func (m *JWTManager) GenerateRefreshToken(userID, email, sid string, authorities []string) (string, time.Time, error) {
	return m.sign(m.RefreshSecret, m.RefreshTTL, userID, email, sid, authorities)
}

func (m *JWTManager) sign(secret []byte, ttl time.Duration, userID, email, sid string, authorities []string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(ttl)
	claims := &Claims{
		UserID:      userID,
		Email:       email,
		Authorities: authorities,
		SessionID:   sid,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(secret)
	return s, exp, err
}

// GenerateVerifyToken signs a short-lived token proving ownership of email.
func (m *JWTManager) GenerateVerifyToken(email string) (string, time.Time, error) {
	now := time.Now()
	exp := now.Add(m.VerifyTTL)
	claims := &VerifyClaims{
		Email:   email,
		Purpose: verifyPurpose,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := t.SignedString(m.VerifySecret)
	return s, exp, err
}

func (m *JWTManager) ParseAccessToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.AccessSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

func (m *JWTManager) ParseRefreshToken(tokenStr string) (*Claims, error) {
	claims := &Claims{}
	if err := parseToken(tokenStr, m.RefreshSecret, claims); err != nil {
		return nil, err
	}
	return claims, nil
}

// ParseVerifyToken returns the email a verification token was issued for.
func (m *JWTManager) ParseVerifyToken(tokenStr string) (string, error) {
	claims := &VerifyClaims{}
	if err := parseToken(tokenStr, m.VerifySecret, claims); err != nil {
		return "", err
	}
	if claims.Purpose != verifyPurpose || claims.Email == "" {
		return "", errors.New("invalid token purpose")
	}
	return claims.Email, nil
}

func parseToken(tokenStr string, secret []byte, claims jwt.Claims) error {
	tkn, err := jwt.ParseWithClaims(tokenStr, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
	if err != nil {
		return err
	}
	if !tkn.Valid {
		return errors.New("invalid token")
	}
	return nil
}
