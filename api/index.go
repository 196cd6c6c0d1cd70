package handler

import (
	"net/http"

	"github.com/arnavshah/team-allocator-go/pkg/auth"
	"github.com/arnavshah/team-allocator-go/pkg/config"
	"github.com/arnavshah/team-allocator-go/pkg/database"
	"github.com/arnavshah/team-allocator-go/pkg/handlers"
	"github.com/arnavshah/team-allocator-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var r *gin.Engine

func init() {
	// Load .env if it exists (for local testing with vercel dev)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	log := logger.NewLogger("team-allocator", "production")
	cfg, err := config.Parse()
	if err != nil {
		log.Fatal("invalid configuration", "error", err)
	}

	db, err := database.InitDB(cfg.Database, cfg.DataPath)
	if err != nil {
		log.Fatal("failed to connect database", "error", err)
	}
	if _, err := auth.EnsureAdminExists(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Error("could not ensure admin user", "error", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r = handlers.NewRouter(handlers.New(db, cfg, log))
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
