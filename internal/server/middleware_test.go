package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"afyabima/backend/internal/security"
	"afyabima/backend/internal/server/reqctx"
	sessiondomain "afyabima/backend/internal/session/domain"
	sessionrepo "afyabima/backend/internal/session/repository"
	userdomain "afyabima/backend/internal/user/domain"
)

func newAuthedEngine(t *testing.T) (*gin.Engine, *security.TokenProvider, *sessionrepo.MemoryRepository) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessions := sessionrepo.NewMemoryRepository()
	engine := gin.New()
	engine.GET("/protected", RequireAuth(tokens, sessions), func(c *gin.Context) {
		identity, _ := reqctx.GetIdentity(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"userId": identity.UserID, "role": identity.Role})
	})
	return engine, tokens, sessions
}

func seedSession(t *testing.T, sessions *sessionrepo.MemoryRepository, id, userID string) {
	t.Helper()
	err := sessions.Create(context.Background(), &sessiondomain.Session{
		ID:        id,
		UserID:    userID,
		ExpiresAt: time.Now().UTC().Add(time.Hour),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("seed session: %v", err)
	}
}

func TestRequireAuth_MissingToken(t *testing.T) {
	engine, _, _ := newAuthedEngine(t)

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/protected", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", rec.Code)
	}
}

func TestRequireAuth_ValidToken(t *testing.T) {
	engine, tokens, sessions := newAuthedEngine(t)
	seedSession(t, sessions, "sess-1", "user-1")

	access, _, _, err := tokens.IssueAccess("sess-1", "user-1", string(userdomain.RolePatient))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", rec.Code, rec.Body.String())
	}
}

func TestRequireAuth_RevokedSession(t *testing.T) {
	engine, tokens, sessions := newAuthedEngine(t)
	seedSession(t, sessions, "sess-1", "user-1")
	if err := sessions.Revoke(context.Background(), "sess-1"); err != nil {
		t.Fatalf("Revoke: %v", err)
	}

	access, _, _, err := tokens.IssueAccess("sess-1", "user-1", string(userdomain.RolePatient))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for revoked session", rec.Code)
	}
}

func TestRequireAuth_UnknownSession(t *testing.T) {
	engine, tokens, _ := newAuthedEngine(t)

	access, _, _, err := tokens.IssueAccess("no-such-session", "user-1", string(userdomain.RolePatient))
	if err != nil {
		t.Fatalf("IssueAccess: %v", err)
	}
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+access)
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401 for unknown session", rec.Code)
	}
}

func TestExtractBearer(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"  Bearer   abc  ", "abc"},
		{"Basic abc", ""},
		{"", ""},
		{"Bearer", ""},
	}
	for _, tc := range cases {
		if got := extractBearer(tc.header); got != tc.want {
			t.Errorf("extractBearer(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
