package handler

import (
	"context"
	"net/http"

	"github.com/arnavshah/roster-api-go/internal/app"
	"github.com/arnavshah/roster-api-go/internal/config"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

var r http.Handler

func init() {
	// .env is only present under vercel dev
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		r = unavailable(err)
		return
	}
	logger.Setup(cfg.LogLevel)

	a, err := app.New(context.Background(), cfg)
	if err != nil {
		r = unavailable(err)
		return
	}
	r = a.Router
}

func unavailable(err error) http.Handler {
	logger.New().WithError(err).Error("failed to initialize application")
	engine := gin.New()
	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
	})
	return engine
}

// Handler is the entry point for Vercel Go Runtime
func Handler(w http.ResponseWriter, req *http.Request) {
	r.ServeHTTP(w, req)
}
