package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"accauth/internal/auth"
	"accauth/internal/config"
	"accauth/internal/httpserver"
	"accauth/internal/logger"
	"accauth/internal/models"
	"accauth/internal/rbac"
	"accauth/internal/service"
	"accauth/internal/store"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	lg := logger.New(cfg.LogLevel)
	defer lg.Sync()

	if cfg.DatabaseURL == "" {
		lg.Fatalw("DATABASE_URL is empty")
	}
	if cfg.JWTSecret == "" {
		lg.Fatalw("JWT_SECRET is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DatabaseURL), &gorm.Config{TranslateError: true})
	if err != nil {
		lg.Fatalw("db connect failed", "error", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PasswordResetToken{},
		&models.UserSession{},
		&models.AuditLog{},
	); err != nil {
		lg.Fatalw("automigrate failed", "error", err)
	}

	hasher := auth.NewHasher(cfg.HashWorkers)
	tm := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)
	svc := service.NewAuth(
		store.NewGormUsers(db),
		store.NewGormResetTokens(db),
		store.NewGormSessions(db),
		store.NewGormAuditLogs(db),
		hasher, tm, lg,
	)
	seedDefaultAdmin(db, hasher, lg)

	router := httpserver.NewRouter(svc, tm, cfg, lg)
	lg.Infow("listening", "port", cfg.HTTPPort)
	if err := http.ListenAndServe(":"+cfg.HTTPPort, router); err != nil {
		log.Fatal(err)
	}
}

func seedDefaultAdmin(db *gorm.DB, hasher *auth.Hasher, lg *zap.SugaredLogger) {
	var count int64
	db.Model(&models.User{}).Where("role = ?", rbac.RoleSuperAdmin).Count(&count)
	if count > 0 {
		return
	}
	hash, err := hasher.Hash(context.Background(), "changeme-now")
	if err != nil {
		lg.Warnw("seed admin hash failed", "error", err)
		return
	}
	first, last := "System", "Admin"
	now := time.Now()
	u := models.User{
		ID:                uuid.NewString(),
		Name:              first + " " + last,
		Email:             "admin@accauth.local",
		PasswordHash:      &hash,
		FirstName:         &first,
		LastName:          &last,
		Role:              rbac.RoleSuperAdmin,
		Status:            rbac.StatusActive,
		IsEmailVerified:   true,
		PasswordChangedAt: &now,
	}
	if err := db.Create(&u).Error; err != nil {
		lg.Warnw("seed admin failed", "error", err)
		return
	}
	lg.Infow("seeded default super admin", "email", u.Email)
}
