package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func protected() http.Handler {
	return WithAuth(RequireAuth(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		email, _ := EmailFromContext(r.Context())
		_, _ = w.Write([]byte(email))
	})))
}

func TestRequireAuthAcceptsSignedToken(t *testing.T) {
	tok, err := SignToken("admin@example.com", time.Hour)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	protected().ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if rr.Body.String() != "admin@example.com" {
		t.Fatalf("expected claims email in context, got %q", rr.Body.String())
	}
}

func TestRequireAuthRejects(t *testing.T) {
	for name, header := range map[string]string{"missing": "", "garbage": "Bearer not-a-token"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		rr := httptest.NewRecorder()
		protected().ServeHTTP(rr, req)
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", name, rr.Code)
		}
	}
}

func TestRequireAuthRejectsExpiredToken(t *testing.T) {
	tok, err := SignToken("admin@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("SignToken returned error: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rr := httptest.NewRecorder()
	protected().ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", rr.Code)
	}
}
