package auth

import (
	"crypto/subtle"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidToken       = errors.New("invalid token")
	ErrExpiredToken       = errors.New("token has expired")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDisabled           = errors.New("admin login is not configured")
)

const (
	DefaultTokenTTL = 12 * time.Hour
	issuer          = "pharma-catalog"
	adminSubject    = "admin"
)

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Manager issues and checks admin tokens. There is a single shared admin
// password; no user table exists.
type Manager struct {
	secret   []byte
	password string
	ttl      time.Duration
	now      func() time.Time
}

func NewManager(secret, password string, ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	return &Manager{secret: []byte(secret), password: password, ttl: ttl, now: time.Now}
}

// Login checks the password and returns a signed token with its expiry.
func (m *Manager) Login(password string) (string, time.Time, error) {
	if len(m.secret) == 0 || m.password == "" {
		return "", time.Time{}, ErrDisabled
	}
	if !m.passwordMatches(password) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	return m.Issue()
}

// passwordMatches accepts ADMIN_PASSWORD either as a bcrypt hash or in plain text.
func (m *Manager) passwordMatches(password string) bool {
	if strings.HasPrefix(m.password, "$2a$") || strings.HasPrefix(m.password, "$2b$") || strings.HasPrefix(m.password, "$2y$") {
		return bcrypt.CompareHashAndPassword([]byte(m.password), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(password), []byte(m.password)) == 1
}

func (m *Manager) Issue() (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.ttl)
	claims := Claims{
		Role: adminSubject,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   adminSubject,
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

func (m *Manager) Validate(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, ErrInvalidToken
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Role != adminSubject {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
