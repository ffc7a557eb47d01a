package jwt

import (
	"errors"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/KilloQ/StudentsClubs/config"
)

var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
)

// Claims carries the session identity.
type Claims struct {
	UserID    uint `json:"user_id"`
	IsTeacher bool `json:"is_teacher"`
	jwtv5.RegisteredClaims
}

// Manager issues and verifies access tokens.
type Manager struct {
	secret         []byte
	accessTokenTTL time.Duration
	issuer         string
}

// NewManager creates a Manager from the auth settings.
func NewManager(cfg *config.AuthConfig) *Manager {
	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "student-clubs"
	}
	return &Manager{
		secret:         []byte(cfg.JWTSecret),
		accessTokenTTL: cfg.AccessTokenTTL,
		issuer:         issuer,
	}
}

// GenerateAccessToken signs a token for the user. The jti is a fresh uuid so a single
// token can be revoked on logout.
func (m *Manager) GenerateAccessToken(userID uint, isTeacher bool) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		IsTeacher: isTeacher,
		RegisteredClaims: jwtv5.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwtv5.NewNumericDate(now),
			ExpiresAt: jwtv5.NewNumericDate(now.Add(m.accessTokenTTL)),
			Issuer:    m.issuer,
		},
	}

	token := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseToken verifies signature, issuer and expiry.
func (m *Manager) ParseToken(tokenString string) (*Claims, error) {
	token, err := jwtv5.ParseWithClaims(tokenString, &Claims{}, func(t *jwtv5.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwtv5.SigningMethodHMAC); !ok {
			return nil, ErrTokenInvalid
		}
		return m.secret, nil
	}, jwtv5.WithIssuer(m.issuer))

	if err != nil {
		if errors.Is(err, jwtv5.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenInvalid
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == 0 {
		return nil, ErrTokenInvalid
	}

	return claims, nil
}

// TTL returns the configured access token lifetime.
func (m *Manager) TTL() time.Duration { return m.accessTokenTTL }
