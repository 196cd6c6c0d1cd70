package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/arnavshah/team-allocator-go/pkg/auth"
	"github.com/arnavshah/team-allocator-go/pkg/config"
	"github.com/arnavshah/team-allocator-go/pkg/database"
	"github.com/arnavshah/team-allocator-go/pkg/logger"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	ctxAPIKey   = "apiKey"
	ctxUserID   = "userID"
	ctxUsername = "username"
	dateLayout  = "2006-01-02"
)

// Handler contains dependencies for the route handlers
type Handler struct {
	DB     *gorm.DB
	Auth   *auth.Authenticator
	Log    *logger.Logger
	Config config.Config
}

// New creates a handler from its dependencies
func New(db *gorm.DB, cfg config.Config, log *logger.Logger) *Handler {
	return &Handler{
		DB:     db,
		Auth:   auth.NewAuthenticator(cfg.JWTSecret, cfg.MasterSecret),
		Log:    log,
		Config: cfg,
	}
}

func bearer(c *gin.Context) string {
	token := c.GetHeader("Authorization")
	return strings.TrimPrefix(token, "Bearer ")
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

		c.Set(ctxUsername, claims.Username)
		c.Next()
	}
}

// APIKeyMiddleware verifies the HMAC API key for allocator routes,
// enforces the key's daily request limit and counts the request
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

		// Fetch or create the key record to track usage. Unscoped so a
		// revoked key is found instead of being created again.
		var apiKey database.APIKey
		if err := h.DB.Unscoped().Where(database.APIKey{Key: key}).FirstOrCreate(&apiKey, database.APIKey{
			Key:        key,
			KeyPreview: preview(key),
			Name:       userID,
			RateLimit:  h.Config.DefaultRateLimit,
		}).Error; err != nil {
			logger.FromContext(c, h.Log).Error("api key lookup failed", "error", err)
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Could not load API key"})
			return
		}
		if apiKey.DeletedAt.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "API Key revoked"})
			return
		}

		if apiKey.RateLimit > 0 {
			var today database.APIUsage
			err := h.DB.Where("key_id = ? AND date = ?", apiKey.ID, time.Now().Format(dateLayout)).
				Limit(1).Find(&today).Error
			if err == nil && today.RequestCount >= apiKey.RateLimit {
				c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Daily rate limit exceeded"})
				return
			}
		}

		now := time.Now()
		h.DB.Model(&apiKey).Update("last_used", &now)
		h.addUsage(c, apiKey.ID, 1, 0, 0)

		c.Set(ctxAPIKey, &apiKey)
		c.Set(ctxUserID, userID)
		c.Next()
	}
}

// BodyLimit bounds request bodies to MaxUploadBytes
func (h *Handler) BodyLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := h.Config.MaxUploadBytes
		if limit <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > limit {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": errBodyTooLarge.Error(),
				"code":  codeRosterTooLarge,
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// RecordUsage adds an allocation's member and team totals to today's usage.
// The request itself is counted by APIKeyMiddleware.
func (h *Handler) RecordUsage(c *gin.Context, memberCount, teamCount int) {
	apiKeyRaw, exists := c.Get(ctxAPIKey)
	if !exists {
		return
	}
	apiKey := apiKeyRaw.(*database.APIKey)
	h.addUsage(c, apiKey.ID, 0, memberCount, teamCount)
}

// addUsage upserts today's usage row for a key
func (h *Handler) addUsage(c *gin.Context, keyID uint, requests, memberCount, teamCount int) {
	today := time.Now().Format(dateLayout)

	// OnConflict works for both Postgres and SQLite
	err := h.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "key_id"}, {Name: "date"}},
		DoUpdates: clause.Assignments(map[string]interface{}{
			"request_count": gorm.Expr("request_count + ?", requests),
			"total_members": gorm.Expr("total_members + ?", memberCount),
			"total_teams":   gorm.Expr("total_teams + ?", teamCount),
		}),
	}).Create(&database.APIUsage{
		KeyID:        keyID,
		Date:         today,
		RequestCount: requests,
		TotalMembers: memberCount,
		TotalTeams:   teamCount,
	}).Error
	if err != nil {
		logger.FromContext(c, h.Log).Warn("usage not recorded", "key_id", keyID, "error", err)
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

	var user database.MasterUser
	if err := h.DB.Where("username = ?", req.Username).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	if !auth.CheckPasswordHash(req.Password, user.PasswordHash) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
		return
	}

	token, err := h.Auth.CreateToken(user.Username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not create token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token, "token_type": "bearer"})
}

// GenerateKey creates a new API key using the HMAC strategy
func (h *Handler) GenerateKey(c *gin.Context) {
	var req struct {
		Name      string `json:"name"`
		RateLimit int    `json:"rate_limit"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name is required"})
		return
	}
	if req.RateLimit == 0 {
		req.RateLimit = h.Config.DefaultRateLimit
	}

	key := h.Auth.GenerateHMACKey(req.Name)
	apiKey := database.APIKey{
		Key:        key,
		Name:       req.Name,
		KeyPreview: preview(key),
		RateLimit:  req.RateLimit,
	}

	if err := h.DB.Create(&apiKey).Error; err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "Could not create key record"})
		return
	}

	logger.FromContext(c, h.Log).Info("api key created", "key_id", apiKey.ID, "name", req.Name, "by", c.GetString(ctxUsername))
	c.JSON(http.StatusOK, gin.H{
		"id":   apiKey.ID,
		"name": req.Name,
		"key":  key,
	})
}

// preview shortens a key for display, e.g. "chu...9f3a"
func preview(key string) string {
	if len(key) > 8 {
		return key[:3] + "..." + key[len(key)-4:]
	}
	return "****"
}

// ListKeys returns all API keys
func (h *Handler) ListKeys(c *gin.Context) {
	var keys []database.APIKey
	if err := h.DB.Order("id").Find(&keys).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not list keys"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"keys": keys})
}

// RevokeKey revokes an API key. The record is soft deleted and the
// middleware refuses the key from then on.
func (h *Handler) RevokeKey(c *gin.Context) {
	id := c.Param("id")
	res := h.DB.Delete(&database.APIKey{}, id)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not delete key"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Key revoked"})
}

// UpdateKeyLimit updates the rate limit for a key
func (h *Handler) UpdateKeyLimit(c *gin.Context) {
	id := c.Param("id")
	var req struct {
		RateLimit int `json:"rate_limit" form:"rate_limit"`
	}

	// Try JSON first, then query
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

	res := h.DB.Model(&database.APIKey{}).Where("id = ?", id).Update("rate_limit", req.RateLimit)
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not update key limit"})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Key not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rate limit updated successfully"})
}
