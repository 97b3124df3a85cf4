package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

const testSecret = "unit-test-secret"

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func defaultClaims() Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "usr_1",
			Issuer:    "roastline",
			Audience:  jwt.ClaimStrings{"roastline-api"},
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
		Email: "mika@example.com",
		Role:  RoleAdmin,
	}
}

func newTestAuthenticator(t *testing.T, opts ...Option) *Authenticator {
	t.Helper()
	a, err := NewAuthenticator(testSecret, opts...)
	if err != nil {
		t.Fatalf("new authenticator: %v", err)
	}
	return a
}

func TestVerify(t *testing.T) {
	t.Run("valid token yields identity", func(t *testing.T) {
		a := newTestAuthenticator(t, WithIssuer("roastline"), WithAudience("roastline-api"))

		identity, err := a.Verify(signToken(t, defaultClaims()))
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if identity.UID != "usr_1" {
			t.Fatalf("uid = %q", identity.UID)
		}
		if !identity.HasRole(RoleAdmin) {
			t.Fatalf("expected admin role, got %v", identity.Roles)
		}
	})

	t.Run("expired token", func(t *testing.T) {
		a := newTestAuthenticator(t)

		claims := defaultClaims()
		claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		if _, err := a.Verify(signToken(t, claims)); err != ErrTokenExpired {
			t.Fatalf("expected ErrTokenExpired, got %v", err)
		}
	})

	t.Run("wrong issuer", func(t *testing.T) {
		a := newTestAuthenticator(t, WithIssuer("roastline"))

		claims := defaultClaims()
		claims.Issuer = "someone-else"

		if _, err := a.Verify(signToken(t, claims)); err == nil {
			t.Fatalf("expected issuer mismatch error")
		}
	})

	t.Run("wrong secret", func(t *testing.T) {
		a := newTestAuthenticator(t)

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, defaultClaims())
		signed, err := token.SignedString([]byte("other-secret"))
		if err != nil {
			t.Fatalf("sign token: %v", err)
		}

		if _, err := a.Verify(signed); err == nil {
			t.Fatalf("expected signature error")
		}
	})

	t.Run("missing subject", func(t *testing.T) {
		a := newTestAuthenticator(t)

		claims := defaultClaims()
		claims.Subject = ""

		if _, err := a.Verify(signToken(t, claims)); err == nil {
			t.Fatalf("expected subject error")
		}
	})

	t.Run("fallback role when claims carry none", func(t *testing.T) {
		a := newTestAuthenticator(t)

		claims := defaultClaims()
		claims.Role = ""

		identity, err := a.Verify(signToken(t, claims))
		if err != nil {
			t.Fatalf("verify: %v", err)
		}
		if !identity.HasRole(RoleCustomer) {
			t.Fatalf("expected fallback customer role, got %v", identity.Roles)
		}
	})
}

func TestRequireAuth(t *testing.T) {
	a := newTestAuthenticator(t)

	var seen *Identity
	handler := a.RequireAuth(RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = IdentityFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	t.Run("allows matching role", func(t *testing.T) {
		seen = nil
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, defaultClaims()))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
		}
		if seen == nil || seen.UID != "usr_1" {
			t.Fatalf("identity not propagated: %+v", seen)
		}
	})

	t.Run("rejects missing header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d", rec.Code)
		}
	})

	t.Run("rejects insufficient role", func(t *testing.T) {
		claims := defaultClaims()
		claims.Role = RoleCustomer

		req := httptest.NewRequest(http.MethodGet, "/admin/orders", nil)
		req.Header.Set("Authorization", "Bearer "+signToken(t, claims))
		rec := httptest.NewRecorder()

		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d", rec.Code)
		}
	})
}
