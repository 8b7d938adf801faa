// seed inserts development sample data for local testing.
// Idempotent: skips inserts when the dev admin (admin@afyabima.dev) exists.
package main

import (
	"context"
	"log"
	"time"

	"afyabima/backend/internal/config"
	"afyabima/backend/internal/db"
	insurancedomain "afyabima/backend/internal/insurance/domain"
	insurancerepo "afyabima/backend/internal/insurance/repository"
	"afyabima/backend/internal/security"
	userdomain "afyabima/backend/internal/user/domain"
	userrepo "afyabima/backend/internal/user/repository"
)

const (
	adminEmail   = "admin@afyabima.dev"
	patientEmail = "patient@afyabima.dev"
	devPassword  = "Dev-password-123!"

	adminID   = "dev-admin-001"
	patientID = "dev-patient-001"
	policyID  = "dev-policy-001"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL is not set; seeding requires Postgres")
	}
	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer conn.Close()

	ctx := context.Background()
	users := userrepo.NewPostgresRepository(conn)
	policies := insurancerepo.NewPostgresRepository(conn)

	existing, err := users.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("lookup admin: %v", err)
	}
	if existing != nil {
		log.Println("seed data already present; nothing to do")
		return
	}

	hash, err := security.NewHasher(cfg.BcryptCost).Hash([]byte(devPassword))
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}
	now := time.Now().UTC()

	seedUsers := []*userdomain.User{
		{ID: adminID, Email: adminEmail, Name: "Dev Admin", Role: userdomain.RoleAdmin,
			PasswordHash: hash, Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now},
		{ID: patientID, Email: patientEmail, Name: "Dev Patient", Role: userdomain.RolePatient,
			PasswordHash: hash, Status: userdomain.UserStatusActive, CreatedAt: now, UpdatedAt: now},
	}
	for _, u := range seedUsers {
		if err := users.Create(ctx, u); err != nil {
			log.Fatalf("create user %s: %v", u.Email, err)
		}
	}

	info, _ := insurancedomain.TierDefaults(insurancedomain.TierKati)
	policy := &insurancedomain.Policy{
		ID:            policyID,
		OwnerID:       patientID,
		Tier:          insurancedomain.TierKati,
		Status:        insurancedomain.PolicyStatusActive,
		CoverageLimit: info.CoverageLimit,
		PremiumAmount: info.PremiumAmount,
		StartDate:     now,
		EndDate:       now.AddDate(1, 0, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := policies.Create(ctx, policy); err != nil {
		log.Fatalf("create policy: %v", err)
	}

	log.Printf("seeded admin (%s) and patient (%s) with an active kati policy; password %q", adminEmail, patientEmail, devPassword)
}
