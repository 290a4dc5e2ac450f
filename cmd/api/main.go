package main

import (
	"log/slog"
	"os"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/blob"
	"ministry_hub/internal/config"
	"ministry_hub/internal/db"
	"ministry_hub/internal/http"
	"ministry_hub/internal/obs"
	"ministry_hub/internal/seed"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	log := obs.NewLogger(os.Stdout, cfg.SlogLevel())
	slog.SetDefault(log)

	gdb, err := db.Connect(cfg.DBDriver, cfg.DSN)
	if err != nil {
		log.Error("database", "err", err)
		os.Exit(1)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		log.Error("migrate", "err", err)
		os.Exit(1)
	}
	if cfg.Seed {
		if err := seed.FirstSetup(gdb, seed.Admin{Email: cfg.SeedAdminEmail, Password: cfg.SeedAdminPassword}); err != nil {
			log.Error("seed", "err", err)
			os.Exit(1)
		}
	}

	files, err := blob.NewLocal(cfg.UploadDir)
	if err != nil {
		log.Error("upload dir", "err", err)
		os.Exit(1)
	}

	r, err := httpserver.NewRouter(httpserver.Deps{
		DB:              gdb,
		JWTSecret:       cfg.JWTSecret,
		TokenTTL:        cfg.TokenTTL,
		Blob:            files,
		Hub:             activity.NewHub(),
		Log:             log,
		LoginRatePerSec: cfg.LoginRatePerSec,
		LoginBurst:      cfg.LoginBurst,
	})
	if err != nil {
		log.Error("router", "err", err)
		os.Exit(1)
	}

	log.Info("server listening", "port", cfg.AppPort)
	if err := r.Run(":" + cfg.AppPort); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
