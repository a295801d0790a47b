package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Dheeraj-Kumar-8/BloodStream-backend/internal/app/system/auth"
)

func okHandler(t *testing.T, sawUser *auth.SessionUser) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.CurrentUser(r)
		if !ok {
			t.Error("expected user in context")
			return
		}
		*sawUser = *u
		w.WriteHeader(http.StatusOK)
	})
}

func TestTokenRoundTrip(t *testing.T) {
	tokens := auth.NewTokenService("test-signing-key-0123456789abcdef", "bloodstream", time.Hour)

	signed, err := tokens.Issue("user-1", "donor")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := tokens.Validate(signed)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "user-1" || claims.Role != "donor" {
		t.Errorf("claims = %q/%q, want user-1/donor", claims.UserID, claims.Role)
	}
	if claims.ID == "" {
		t.Error("expected a jti on issued tokens")
	}
}

func TestValidate_RejectsExpired(t *testing.T) {
	tokens := auth.NewTokenService("test-signing-key-0123456789abcdef", "bloodstream", -time.Minute)
	signed, err := tokens.Issue("user-1", "donor")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := tokens.Validate(signed); err == nil {
		t.Error("expected expired token to be rejected")
	}
}

func TestValidate_RejectsWrongKey(t *testing.T) {
	issuer := auth.NewTokenService("key-one-0123456789abcdef0123456", "bloodstream", time.Hour)
	verifier := auth.NewTokenService("key-two-0123456789abcdef0123456", "bloodstream", time.Hour)

	signed, err := issuer.Issue("user-1", "donor")
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if _, err := verifier.Validate(signed); err == nil {
		t.Error("expected token signed with another key to be rejected")
	}
}

func TestRequireAuth(t *testing.T) {
	tokens := auth.NewTokenService("test-signing-key-0123456789abcdef", "bloodstream", time.Hour)
	var saw auth.SessionUser
	handler := auth.RequireAuth(tokens, zap.NewNop())(okHandler(t, &saw))

	t.Run("missing header", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer not.a.token")
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		signed, _ := tokens.Issue("user-9", "admin")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+signed)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		if saw.ID != "user-9" || saw.Role != "admin" {
			t.Errorf("context user = %+v, want user-9/admin", saw)
		}
	})
}

func TestRequireRole(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := auth.RequireRole("admin")(next)

	t.Run("no user", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", rec.Code)
		}
	})

	t.Run("wrong role", func(t *testing.T) {
		req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "u", Role: "donor"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	})

	t.Run("allowed role, case-insensitive", func(t *testing.T) {
		req := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "u", Role: "Admin"})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200", rec.Code)
		}
	})
}
