package service

import (
	"context"
	"testing"
	"time"

	"afyabima/backend/internal/apperr"
	"afyabima/backend/internal/security"
	sessionrepo "afyabima/backend/internal/session/repository"
	userdomain "afyabima/backend/internal/user/domain"
	userrepo "afyabima/backend/internal/user/repository"
)

type noopAuditor struct{}

func (noopAuditor) Record(ctx context.Context, actorID, action, resourceType, resourceID, details string) error {
	return nil
}

const goodPassword = "Str0ng-enough-pw!"

func newAuthService(t *testing.T) (*AuthService, *sessionrepo.MemoryRepository) {
	t.Helper()
	tokens, err := security.NewTestTokenProvider()
	if err != nil {
		t.Fatalf("NewTestTokenProvider: %v", err)
	}
	sessions := sessionrepo.NewMemoryRepository()
	svc := NewAuthService(
		userrepo.NewMemoryRepository(),
		sessions,
		noopAuditor{},
		security.NewHasher(4), // bcrypt.MinCost, keeps the tests fast
		tokens,
		24*time.Hour,
	)
	return svc, sessions
}

func register(t *testing.T, svc *AuthService, email string) {
	t.Helper()
	if _, err := svc.Register(context.Background(), email, goodPassword, "Test User", userdomain.RolePatient); err != nil {
		t.Fatalf("Register: %v", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")

	_, err := svc.Register(context.Background(), "Amina@Example.com", goodPassword, "Again", userdomain.RolePatient)
	if apperr.KindOf(err) != apperr.KindValidation {
		t.Errorf("kind = %q, want validation for duplicate email", apperr.KindOf(err))
	}
}

func TestRegister_WeakPassword(t *testing.T) {
	svc, _ := newAuthService(t)

	for _, pw := range []string{"short", "alllowercase12345!", "ALLUPPERCASE12345!", "NoNumbersAtAll!!", "NoSymbols12345abc"} {
		if _, err := svc.Register(context.Background(), "x@example.com", pw, "", userdomain.RolePatient); apperr.KindOf(err) != apperr.KindValidation {
			t.Errorf("password %q: kind = %q, want validation", pw, apperr.KindOf(err))
		}
	}
}

func TestLogin_IssuesTokenPair(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")

	res, err := svc.Login(context.Background(), "amina@example.com", goodPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if res.AccessToken == "" || res.RefreshToken == "" {
		t.Error("login returned empty tokens")
	}
	if res.Role != userdomain.RolePatient {
		t.Errorf("role = %q, want patient", res.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")

	_, err := svc.Login(context.Background(), "amina@example.com", "Wrong-password-1!")
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Errorf("kind = %q, want authentication", apperr.KindOf(err))
	}
	_, err = svc.Login(context.Background(), "nobody@example.com", goodPassword)
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Errorf("unknown email: kind = %q, want authentication", apperr.KindOf(err))
	}
}

func TestRefresh_RotatesToken(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")
	ctx := context.Background()

	login, err := svc.Login(ctx, "amina@example.com", goodPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	refreshed, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if refreshed.RefreshToken == login.RefreshToken {
		t.Error("refresh did not rotate the refresh token")
	}
	if refreshed.AccessToken == "" {
		t.Error("refresh returned empty access token")
	}
}

func TestRefresh_ReuseRevokesAllSessions(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")
	ctx := context.Background()

	login, err := svc.Login(ctx, "amina@example.com", goodPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	rotated, err := svc.Refresh(ctx, login.RefreshToken)
	if err != nil {
		t.Fatalf("first Refresh: %v", err)
	}

	// Presenting the consumed token again is reuse.
	_, err = svc.Refresh(ctx, login.RefreshToken)
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Fatalf("kind = %q, want authentication on reuse", apperr.KindOf(err))
	}
	// The rotated token died with the session.
	_, err = svc.Refresh(ctx, rotated.RefreshToken)
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Errorf("kind = %q, want authentication after revocation", apperr.KindOf(err))
	}
}

func TestLogout_RevokesSession(t *testing.T) {
	svc, _ := newAuthService(t)
	register(t, svc, "amina@example.com")
	ctx := context.Background()

	login, err := svc.Login(ctx, "amina@example.com", goodPassword)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := svc.Logout(ctx, login.RefreshToken, ""); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	_, err = svc.Refresh(ctx, login.RefreshToken)
	if apperr.KindOf(err) != apperr.KindAuthentication {
		t.Errorf("kind = %q, want authentication after logout", apperr.KindOf(err))
	}
}

func TestLogout_MalformedTokenIsNoop(t *testing.T) {
	svc, _ := newAuthService(t)

	if err := svc.Logout(context.Background(), "not-a-jwt", ""); err != nil {
		t.Errorf("Logout with malformed token: %v, want nil", err)
	}
}
