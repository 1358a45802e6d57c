package handlers

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/arnavshah/roster-api-go/internal/errors"
	"github.com/arnavshah/roster-api-go/internal/logger"
	"github.com/arnavshah/roster-api-go/pkg/auth"
	"github.com/arnavshah/roster-api-go/pkg/database"
	"github.com/arnavshah/roster-api-go/pkg/models"
	"github.com/arnavshah/roster-api-go/pkg/roster"
	"github.com/arnavshah/roster-api-go/pkg/scheduler"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed static/*
var staticEmbed embed.FS

const defaultRateLimit = 10000

// Handler contains dependencies for the route handlers
type Handler struct {
	DB      *gorm.DB
	Auth    *auth.Authenticator
	Service *roster.Service
}

// NewHandler creates a Handler
func NewHandler(db *gorm.DB, authn *auth.Authenticator, service *roster.Service) *Handler {
	return &Handler{DB: db, Auth: authn, Service: service}
}

func bearer(c *gin.Context) string {
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

func withUser(c *gin.Context, user string) {
	ctx := context.WithValue(c.Request.Context(), logger.UserKey, user)
	c.Request = c.Request.WithContext(ctx)
}

// respondError maps application errors onto HTTP status codes
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case apperrors.IsValidation(err):
		status = http.StatusBadRequest
	case apperrors.IsNotFound(err):
		status = http.StatusNotFound
	case apperrors.IsConflict(err):
		status = http.StatusConflict
	}

	if status == http.StatusInternalServerError {
		logger.WithContext(c.Request.Context()).WithError(err).
			WithField("path", c.FullPath()).Error("request failed")
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// AuthMiddleware verifies the JWT token for admin routes
func (h *Handler) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearer(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		claims, err := h.Auth.VerifyToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}

		c.Set("username", claims.Username)
		withUser(c, claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for roster routes
func (h *Handler) APIKeyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := bearer(c)
		if key == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key required"})
			return
		}

		userID, err := h.Auth.VerifyHMACKey(key)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid API Key signature"})
			return
		}

		// keys signed by the CLI have no row until first use
		var apiKey database.APIKey
		err = h.DB.Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:        key,
			Name:       userID,
			KeyPreview: keyPreview(key),
			RateLimit:  defaultRateLimit,
		}).Error
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		verified, err := auth.VerifyAPIKey(h.DB, key)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}

		c.Set("apiKey", verified)
		c.Set("userID", userID)
		withUser(c, userID)
		c.Next()
	}
}

// ScheduleJSON previews a schedule without storing it
func (h *Handler) ScheduleJSON(c *gin.Context) {
	var req models.ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sched, err := h.Service.Preview(&req)
	if err != nil {
		respondError(c, err)
		return
	}
	result := sched.Run()
	h.RecordUsage(c, result)

	logger.WithContext(c.Request.Context()).WithFields(map[string]interface{}{
		"staff_count": len(result.Staff),
		"days":        result.Dates.Len(),
		"fairness":    result.FairnessScore,
	}).Info("schedule generated")

	c.JSON(http.StatusOK, models.NewScheduleResponse(result, sched.Options))
}

// ApplySchedule generates a schedule and stores it for a department
func (h *Handler) ApplySchedule(c *gin.Context) {
	var req models.ApplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	outcome, err := h.Service.Apply(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	result := outcome.Scheduler.Run()
	h.RecordUsage(c, result)

	resp := models.ApplyResponse{
		Department:     req.Department,
		RecordsWritten: outcome.Written,
		RecordsDeleted: outcome.Deleted,
		Schedule:       models.NewScheduleResponse(result, outcome.Scheduler.Options),
	}
	if outcome.Written > 0 || outcome.Deleted > 0 {
		resp.BatchID = outcome.BatchID.String()
	}
	c.JSON(http.StatusOK, resp)
}

// ListShifts returns stored shift records filtered by query parameters
func (h *Handler) ListShifts(c *gin.Context) {
	records, err := h.Service.ListShifts(c.Request.Context(), roster.ShiftFilter{
		Department: c.Query("department"),
		StaffID:    c.Query("staff_id"),
		From:       c.Query("from"),
		To:         c.Query("to"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shifts": records, "count": len(records)})
}

// RecordUsage records API usage in the database using an efficient upsert
func (h *Handler) RecordUsage(c *gin.Context, result *scheduler.Result) {
	apiKeyRaw, exists := c.Get("apiKey")
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)

	staffCount := len(result.Staff)
	cellCount := staffCount * result.Dates.Len()
	today := time.Now().Format("2006-01-02")

	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", 1),
			"total_staff":   gorm.Expr("total_staff + ?", staffCount),
			"total_cells":   gorm.Expr("total_cells + ?", cellCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        apiKey.ID,
		Date:         today,
		RequestCount: 1,
		TotalStaff:   staffCount,
		TotalCells:   cellCount,
	}).Error
	if err != nil {
		logger.WithContext(c.Request.Context()).WithError(err).Warn("failed to record usage")
	}
}

// Login handles admin login
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	token, err := h.Auth.Login(h.DB, req.Username, req.Password)
	if errors.Is(err, apperrors.ErrCredentialsInvalid) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

func keyPreview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name" binding:"required"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.RateLimit <= 0 {
		req.RateLimit = defaultRateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: keyPreview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create key record"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey deletes an API key
func (h *Handler) RevokeKey(c *gin.Context) {
	res := h.DB.Delete(&database.APIKey{}, "id = ?", c.Param("id"))
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperrors.ErrAPIKeyNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// JSON body first, then the query string
	if err := c.ShouldBindJSON(&req); err != nil {
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "rate_limit is required"})
			return
		}
	}

	if req.RateLimit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid rate limit"})
		return
	}

	res := h.DB.Model(&database.APIKey{}).Where("id = ?", c.Param("id")).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		respondError(c, res.Error)
		return
	}
	if res.RowsAffected == 0 {
		respondError(c, apperrors.ErrAPIKeyNotFound)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}

// GetUsage returns usage stats for a key
func (h *Handler) GetUsage(c *gin.Context) {
	var usage []database.APIUsage
	if err := h.DB.Where("key_id = ?", c.Param("id")).Order("date desc").Limit(30).Find(&usage).Error; err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"usage": usage})
}

// ListShiftCodes returns the shift-code table
func (h *Handler) ListShiftCodes(c *gin.Context) {
	codes, err := h.Service.ShiftCodes(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"shift_codes": codes})
}

// UpdateShiftCode changes the default times of a shift code
func (h *Handler) UpdateShiftCode(c *gin.Context) {
	var req models.ShiftCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, err := h.Service.UpdateShiftCode(c.Request.Context(), strings.ToUpper(c.Param("code")), &req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, code)
}

// AdminInterface serves the admin web interface from embedded files
func (h *Handler) AdminInterface(c *gin.Context) {
	data, err := staticEmbed.ReadFile("static/index.html")
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "static/index.html not found in embedded FS"})
		return
	}

	c.Data(http.StatusOK, "text/html; charset=utf-8", data)
}

// GetStaticFS returns the embedded filesystem for static assets
func (h *Handler) GetStaticFS() http.FileSystem {
	sub, err := fs.Sub(staticEmbed, "static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}
