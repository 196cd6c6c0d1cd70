package main

import (
	"github.com/arnavshah/team-allocator-go/pkg/auth"
	"github.com/arnavshah/team-allocator-go/pkg/config"
	"github.com/arnavshah/team-allocator-go/pkg/database"
	"github.com/arnavshah/team-allocator-go/pkg/handlers"
	"github.com/arnavshah/team-allocator-go/pkg/logger"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.NewLogger("team-allocator", "").Fatal("invalid configuration", "error", err)
	}

	log := logger.NewLogger("team-allocator", cfg.AppEnv)
	defer log.Sync()

	if cfg.GinMode == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.InitDB(cfg.Database, cfg.DataPath)
	if err != nil {
		log.Fatal("failed to connect database", "error", err)
	}
	created, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword)
	if err != nil {
		log.Error("could not ensure admin user", "error", err)
	} else if created {
		log.Info("default admin user created", "username", cfg.AdminUsername)
	}
	if cfg.MasterSecret == "" {
		log.Warn("API_MASTER_SECRET is empty; API keys are signed with an empty secret")
	}

	r := handlers.NewRouter(handlers.New(db, cfg, log))

	log.Info("server starting", "port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("could not run server", "error", err)
	}
}
