package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"afyabima/backend/internal/audit"
	audithandler "afyabima/backend/internal/audit/handler"
	auditrepo "afyabima/backend/internal/audit/repository"
	authhandler "afyabima/backend/internal/auth/handler"
	authservice "afyabima/backend/internal/auth/service"
	"afyabima/backend/internal/authz"
	claimshandler "afyabima/backend/internal/claims/handler"
	"afyabima/backend/internal/claims/ledger"
	claimsrepo "afyabima/backend/internal/claims/repository"
	claimsservice "afyabima/backend/internal/claims/service"
	"afyabima/backend/internal/config"
	"afyabima/backend/internal/db"
	insurancehandler "afyabima/backend/internal/insurance/handler"
	insurancerepo "afyabima/backend/internal/insurance/repository"
	insuranceservice "afyabima/backend/internal/insurance/service"
	notificationhandler "afyabima/backend/internal/notification/handler"
	notificationrepo "afyabima/backend/internal/notification/repository"
	notificationservice "afyabima/backend/internal/notification/service"
	"afyabima/backend/internal/security"
	"afyabima/backend/internal/server"
	"afyabima/backend/internal/server/reqctx"
	sessionrepo "afyabima/backend/internal/session/repository"
	userrepo "afyabima/backend/internal/user/repository"
)

type repositories struct {
	users         userrepo.Repository
	sessions      sessionrepo.Repository
	policies      insurancerepo.Repository
	claims        claimsrepo.Repository
	auditLogs     auditrepo.Repository
	notifications notificationrepo.Repository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	signer, err := security.ParsePrivateKey(cfg.JWTPrivateKey)
	if err != nil {
		log.Fatalf("JWT_PRIVATE_KEY: %v", err)
	}
	pub, err := security.ParsePublicKey(cfg.JWTPublicKey)
	if err != nil {
		log.Fatalf("JWT_PUBLIC_KEY: %v", err)
	}
	tokens := security.NewTokenProvider(signer, pub, cfg.JWTIssuer, cfg.JWTAudience, cfg.AccessTTL(), cfg.RefreshTTL())

	repos, closeDB := buildRepositories(cfg)
	defer closeDB()

	gate, err := authz.NewOPAGate(context.Background())
	if err != nil {
		log.Fatalf("authz: %v", err)
	}

	trail := audit.NewTrail(repos.auditLogs, reqctx.RequestMeta)
	dispatcher := notificationservice.NewDispatcher(repos.notifications, repos.users, gate)

	var attestor ledger.Attestor
	if cfg.LedgerBaseURL != "" {
		attestor = ledger.NewClient(cfg.LedgerBaseURL, cfg.LedgerAPIKey)
	} else {
		log.Println("LEDGER_BASE_URL not set; using local attestor")
		attestor = ledger.NewLocalAttestor()
	}

	authSvc := authservice.NewAuthService(repos.users, repos.sessions, trail,
		security.NewHasher(cfg.BcryptCost), tokens, cfg.RefreshTTL())
	policySvc := insuranceservice.NewPolicyLedger(repos.policies, gate, trail, dispatcher, nil,
		insuranceservice.EnrollmentConflictMode(cfg.EnrollmentConflict))
	claimsSvc := claimsservice.NewClaimsEngine(repos.claims, repos.policies, gate, trail, dispatcher, attestor)

	srv := server.New(server.Config{
		Addr:        cfg.HTTPAddr,
		CORSOrigins: strings.Split(cfg.CORSOrigins, ","),
		Debug:       cfg.Env == "development",
	})
	server.RegisterRoutes(srv, server.Handlers{
		Auth:         authhandler.NewHTTP(authSvc),
		Insurance:    insurancehandler.NewHTTP(policySvc, gate),
		Claims:       claimshandler.NewHTTP(claimsSvc, gate),
		Audit:        audithandler.NewHTTP(trail, gate),
		Notification: notificationhandler.NewHTTP(dispatcher),
	}, tokens, repos.sessions)

	go func() {
		log.Printf("HTTP server listening on %s", cfg.HTTPAddr)
		if err := srv.Run(); err != nil {
			log.Fatalf("serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Println("shutting down HTTP server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
	log.Println("HTTP server stopped")
}

// buildRepositories wires Postgres stores when DATABASE_URL is set and
// in-memory stores otherwise.
func buildRepositories(cfg *config.Config) (repositories, func()) {
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL not set; running on in-memory stores")
		return repositories{
			users:         userrepo.NewMemoryRepository(),
			sessions:      sessionrepo.NewMemoryRepository(),
			policies:      insurancerepo.NewMemoryRepository(),
			claims:        claimsrepo.NewMemoryRepository(),
			auditLogs:     auditrepo.NewMemoryRepository(),
			notifications: notificationrepo.NewMemoryRepository(),
		}, func() {}
	}

	conn, err := db.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	return repositories{
		users:         userrepo.NewPostgresRepository(conn),
		sessions:      sessionrepo.NewPostgresRepository(conn),
		policies:      insurancerepo.NewPostgresRepository(conn),
		claims:        claimsrepo.NewPostgresRepository(conn),
		auditLogs:     auditrepo.NewPostgresRepository(conn),
		notifications: notificationrepo.NewPostgresRepository(conn),
	}, func() { closeQuietly(conn) }
}

func closeQuietly(conn *sql.DB) {
	if err := conn.Close(); err != nil {
		log.Printf("db close: %v", err)
	}
}
