package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version is reported by the root endpoint
const Version = "3.0.0"

// SetupRouter registers every route on a new gin engine
func SetupRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.StaticFS("/static", h.GetStaticFS())

	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Roster API",
			"version": Version,
		})
	})

	r.GET("/admin", h.AdminInterface)
	r.POST("/admin/login", h.Login)

	admin := r.Group("/admin")
	admin.Use(h.AuthMiddleware())
	{
		admin.POST("/keys", h.GenerateKey)
		admin.GET("/keys", h.ListKeys)
		admin.PUT("/keys/:id", h.UpdateKeyLimit)
		admin.DELETE("/keys/:id", h.RevokeKey)
		admin.GET("/usage/:id", h.GetUsage)
		admin.GET("/shift-codes", h.ListShiftCodes)
		admin.PUT("/shift-codes/:code", h.UpdateShiftCode)
	}

	api := r.Group("/api")
	api.Use(h.APIKeyMiddleware())
	{
		api.POST("/schedule", h.ScheduleJSON)
		api.POST("/schedule/apply", h.ApplySchedule)
		api.POST("/validate", h.ValidateInput)
		api.GET("/shifts", h.ListShifts)
		api.GET("/usage", h.GetMyUsage)
	}

	return r
}
