// Command seed prepares a fresh database: it applies the migrations and
// creates the admin account from ADMIN_EMAIL and ADMIN_PASSWORD.
package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/iliyamo/uninest/internal/config"
	"github.com/iliyamo/uninest/internal/database"
	"github.com/iliyamo/uninest/internal/logger"
	"github.com/iliyamo/uninest/internal/repository"
	"github.com/iliyamo/uninest/internal/service"
)

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		logger.New("").Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("seed failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	db, err := database.Open(cfg.DSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		return err
	}
	version, err := database.Version(db)
	if err != nil {
		return err
	}
	log.Info("schema ready", "version", version)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	seeder := service.NewSeeder(repository.NewUserRepo(db), service.WithLogger(log))
	id, created, err := seeder.EnsureAdmin(ctx, service.AdminSeed{
		Email:      cfg.AdminEmail,
		Password:   cfg.AdminPassword,
		Phone:      cfg.AdminPhone,
		BcryptCost: cfg.BcryptCost,
	})
	if err != nil {
		return err
	}
	log.Info("admin ready", "user_id", id, "created", created)
	return nil
}
