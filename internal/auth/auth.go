package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/pendakian/trip-service/internal"
)

// User is the authenticated principal carried through request context.
// GuideID is set only for users with the guide role.
type User struct {
	ID      int64
	Email   string
	Role    string
	GuideID int64
}

type ctxKey string

const userContextKey ctxKey = "auth.user"

func ContextWithUser(ctx context.Context, u *User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

func UserFromContext(ctx context.Context) (*User, bool) {
	u, ok := ctx.Value(userContextKey).(*User)
	return u, ok
}

type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	GuideID int64  `json:"guide_id,omitempty"`
	jwt.RegisteredClaims
}

type TokenManager struct {
	secret   []byte
	duration time.Duration
}

func NewTokenManager(cfg internal.SecurityConfig) *TokenManager {
	duration := cfg.AccessTokenDuration
	if duration <= 0 {
		duration = 15 * time.Minute
	}
	return &TokenManager{
		secret:   []byte(cfg.JWTSecret),
		duration: duration,
	}
}

func (tm *TokenManager) Issue(u *User) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:  u.ID,
		Email:   u.Email,
		Role:    u.Role,
		GuideID: u.GuideID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tm.duration)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
}

func (tm *TokenManager) Validate(tokenString string) (*User, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, internal.ErrInvalidToken
		}
		return tm.secret, nil
	})
	if err != nil || !token.Valid {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, internal.ErrTokenExpired
		}
		return nil, internal.ErrInvalidToken
	}

	return &User{
		ID:      claims.UserID,
		Email:   claims.Email,
		Role:    claims.Role,
		GuideID: claims.GuideID,
	}, nil
}
