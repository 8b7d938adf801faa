package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want %q", cfg.HTTPAddr, ":8080")
	}
	if cfg.BcryptCost != 12 {
		t.Errorf("BcryptCost = %d, want 12", cfg.BcryptCost)
	}
	if cfg.EnrollmentConflict != EnrollReject {
		t.Errorf("EnrollmentConflict = %q, want %q", cfg.EnrollmentConflict, EnrollReject)
	}
}

func TestLoad_InvalidEnrollmentConflict(t *testing.T) {
	t.Setenv("ENROLLMENT_CONFLICT", "merge")
	if _, err := Load(); err == nil {
		t.Error("Load accepted an invalid ENROLLMENT_CONFLICT")
	}
}

func TestLoad_InvalidBcryptCost(t *testing.T) {
	t.Setenv("BCRYPT_COST", "99")
	if _, err := Load(); err == nil {
		t.Error("Load accepted BCRYPT_COST=99")
	}
}

func TestAccessTTL_FallsBackOnInvalid(t *testing.T) {
	c := &Config{JWTAccessTTL: "nonsense"}
	if got := c.AccessTTL(); got != 15*time.Minute {
		t.Errorf("AccessTTL = %v, want 15m", got)
	}
	c = &Config{JWTAccessTTL: "30m"}
	if got := c.AccessTTL(); got != 30*time.Minute {
		t.Errorf("AccessTTL = %v, want 30m", got)
	}
}

func TestRefreshTTL_FallsBackOnInvalid(t *testing.T) {
	c := &Config{JWTRefreshTTL: ""}
	if got := c.RefreshTTL(); got != 168*time.Hour {
		t.Errorf("RefreshTTL = %v, want 168h", got)
	}
}
