// Package auth provides bearer-token authentication for the API: JWT
// issue/validate, the middleware that loads the current user into the
// request context, and role gating.
package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/apperr"
	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/httpjson"
)

// Claims are the JWT claims carried by BloodStream access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// TokenService issues and validates access tokens.
type TokenService struct {
	signingKey []byte
	issuer     string
	ttl        time.Duration
}

// NewTokenService builds a TokenService with an HS256 signing key.
func NewTokenService(signingKey, issuer string, ttl time.Duration) *TokenService {
	return &TokenService{signingKey: []byte(signingKey), issuer: issuer, ttl: ttl}
}

// Issue signs an access token for the given user.
func (s *TokenService) Issue(userID, role string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			ID:        uuid.NewString(),
		},
	})
	return token.SignedString(s.signingKey)
}

// Validate parses and verifies an access token.
func (s *TokenService) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperr.New(apperr.Unauthorized, "token has expired")
		}
		return nil, apperr.New(apperr.Unauthorized, "invalid token")
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, apperr.New(apperr.Unauthorized, "invalid token")
	}
	return claims, nil
}

// SessionUser is the authenticated caller injected into request context.
type SessionUser struct {
	ID   string
	Role string
}

type ctxKey struct{}

// CurrentUser returns the authenticated user and a found flag.
func CurrentUser(r *http.Request) (*SessionUser, bool) {
	u, ok := r.Context().Value(ctxKey{}).(*SessionUser)
	return u, ok
}

// WithTestUser injects a user into the request context, bypassing the
// middleware. For handler tests only.
func WithTestUser(r *http.Request, u *SessionUser) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), ctxKey{}, u))
}

// RequireAuth validates the Authorization bearer token and loads the caller
// into context. Requests without a valid token get a 401.
func RequireAuth(tokens *TokenService, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			const bearerPrefix = "Bearer "
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, bearerPrefix)
			if !ok || token == "" {
				httpjson.ErrorKind(w, apperr.Unauthorized, "missing bearer token")
				return
			}

			claims, err := tokens.Validate(token)
			if err != nil {
				logger.Warn("rejected token", zap.Error(err))
				httpjson.Error(w, err)
				return
			}

			u := &SessionUser{ID: claims.UserID, Role: claims.Role}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, u)))
		})
	}
}

// RequireRole ensures the caller holds one of the allowed roles. It must be
// mounted after RequireAuth.
func RequireRole(allowed ...string) func(http.Handler) http.Handler {
	set := make(map[string]struct{}, len(allowed))
	for _, role := range allowed {
		set[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			u, ok := CurrentUser(r)
			if !ok {
				httpjson.ErrorKind(w, apperr.Unauthorized, "not signed in")
				return
			}
			if _, has := set[strings.ToLower(u.Role)]; !has {
				httpjson.ErrorKind(w, apperr.Forbidden, "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
