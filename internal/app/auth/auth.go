// Package auth issues and verifies the JWTs the API and web sessions use.
package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// User is a credentialed API user. Passwords are compared in constant time.
type User struct {
	Username string
	Password string
	Role     string
}

// Claims are the JWT claims issued at login.
type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// Manager issues and verifies HS256 tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
	users  map[string]User
}

// NewManager creates a Manager. A zero ttl defaults to one hour.
func NewManager(secret string, ttl time.Duration, users []User) *Manager {
	if ttl <= 0 {
		ttl = time.Hour
	}
	byName := make(map[string]User, len(users))
	for _, u := range users {
		if u.Username == "" {
			continue
		}
		byName[u.Username] = u
	}
	return &Manager{secret: []byte(secret), ttl: ttl, users: byName}
}

// Enabled reports whether the manager can issue tokens.
func (m *Manager) Enabled() bool {
	return len(m.secret) > 0 && len(m.users) > 0
}

// Login checks credentials and returns a signed token plus its expiry.
func (m *Manager) Login(username, password string) (string, time.Time, error) {
	if !m.Enabled() {
		return "", time.Time{}, fmt.Errorf("login is not configured")
	}
	u, ok := m.users[strings.TrimSpace(username)]
	if !ok || subtle.ConstantTimeCompare([]byte(u.Password), []byte(password)) != 1 {
		return "", time.Time{}, fmt.Errorf("invalid credentials")
	}

	expiry := time.Now().Add(m.ttl)
	claims := Claims{
		Username: u.Username,
		Role:     u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.Username,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(expiry),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiry, nil
}

// Verify parses and validates a token string.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	if len(m.secret) == 0 {
		return nil, fmt.Errorf("jwt verification is not configured")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
