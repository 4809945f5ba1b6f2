package jwt

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/wecare/escalas-backend/internal/domain/auth"
	"github.com/wecare/escalas-backend/internal/domain/user"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenTTL = 5 * time.Minute
)

// Identity is the caller described by a verified access token.
type Identity struct {
	UserID string
	Name   string
	Role   user.Role
}

func (i Identity) Person() user.Person {
	return user.Person{ID: i.UserID, Name: i.Name, Role: i.Role}
}

// Service verifies tokens issued by the session service. Token issuance here
// covers SSE handshakes and test tooling only.
type Service interface {
	GenerateAccessToken(id Identity, ttl time.Duration) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
	RevokeToken(token string)
	IsTokenRevoked(token string) bool
}

type JWTService struct {
	tokenAuth     *jwtauth.JWTAuth
	revokedTokens map[string]int64
	mu            sync.RWMutex
}

func NewJWTService(secretKey string) Service {
	return &JWTService{
		tokenAuth:     jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
		revokedTokens: make(map[string]int64),
	}
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

func (j *JWTService) GenerateAccessToken(id Identity, ttl time.Duration) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(ttl).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": id.UserID,
		"name":    id.Name,
		"role":    string(id.Role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

func (j *JWTService) RevokeToken(token string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.revokedTokens[token] = time.Now().Unix()
}

func (j *JWTService) IsTokenRevoked(token string) bool {
	j.mu.RLock()
	defer j.mu.RUnlock()
	_, revoked := j.revokedTokens[token]
	return revoked
}

// GenerateSSEToken issues a short-lived token for EventSource connections,
// which cannot send an Authorization header.
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenTTL).Unix()
	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(sseTokenTTL.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, err error) {
	if j.IsTokenRevoked(tokenString) {
		return "", auth.ErrTokenRevoked
	}
	token, err := j.tokenAuth.Decode(tokenString)
	if err != nil {
		return "", auth.ErrInvalidToken
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", auth.ErrInvalidToken
	}
	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", auth.ErrInvalidToken
	}
	userID, ok = userIDVal.(string)
	if !ok || userID == "" {
		return "", auth.ErrInvalidToken
	}
	return userID, nil
}

// FromContext reads the caller identity from the token jwtauth.Verifier
// stored in ctx.
func FromContext(ctx context.Context) (Identity, error) {
	_, claims, err := jwtauth.FromContext(ctx)
	if err != nil {
		return Identity{}, fmt.Errorf("failed to extract claims from context: %w", err)
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Identity{}, user.ErrMissingIdentity
	}
	roleStr, _ := claims["role"].(string)
	role := user.Role(roleStr)
	if !role.Valid() {
		return Identity{}, auth.ErrInvalidRole
	}
	name, _ := claims["name"].(string)

	return Identity{UserID: userID, Name: name, Role: role}, nil
}

// NewContext stores a token for id in ctx the way jwtauth.Verifier does.
// Used by tests and background jobs acting on behalf of a person.
func NewContext(ctx context.Context, ja *jwtauth.JWTAuth, id Identity) (context.Context, error) {
	token, _, err := ja.Encode(map[string]interface{}{
		"user_id": id.UserID,
		"name":    id.Name,
		"role":    string(id.Role),
		"type":    TokenTypeAccess,
	})
	if err != nil {
		return ctx, fmt.Errorf("failed to encode token: %w", err)
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}
