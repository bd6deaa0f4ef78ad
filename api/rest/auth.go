package rest

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/cache"
	"github.com/santosrp/clanhub/server/config"
	mw "github.com/santosrp/clanhub/server/middleware"
	"github.com/santosrp/clanhub/server/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// AuthHandler handles authentication REST endpoints.
type AuthHandler struct {
	db    *gorm.DB
	cache cache.Cache
	sec   config.SecurityConfig
	admin config.AdminConfig
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(db *gorm.DB, c cache.Cache, sec config.SecurityConfig, admin config.AdminConfig) *AuthHandler {
	return &AuthHandler{db: db, cache: c, sec: sec, admin: admin}
}

type discordLoginRequest struct {
	DiscordID string `json:"discord_id" binding:"required,min=1,max=64"`
	Name      string `json:"name" binding:"max=64"`
	Avatar    string `json:"avatar" binding:"max=255"`
}

// DiscordLogin handles POST /api/auth/discord.
// The client completes the Discord OAuth flow and posts the verified
// identity here. First login creates an active member with no clan;
// joining a clan still goes through registration and approval.
func (h *AuthHandler) DiscordLogin(c *gin.Context) {
	var req discordLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	var user model.User
	err := h.db.Where("discord_id = ?", req.DiscordID).First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		name := strings.TrimSpace(req.Name)
		if name == "" {
			name = req.DiscordID
		}
		discordID := req.DiscordID
		user = model.User{
			Name:      name,
			DiscordID: &discordID,
			Avatar:    req.Avatar,
			Role:      model.RoleMember,
			Status:    model.StatusAccepted,
		}
		if createErr := h.db.Create(&user).Error; createErr != nil {
			// Unique constraint violation: same identity logged in concurrently.
			if isUniqueViolation(createErr) {
				c.JSON(http.StatusConflict, gin.H{"success": false, "error": "identity already registered"})
			} else {
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "registration failed"})
			}
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	} else if req.Avatar != "" && req.Avatar != user.Avatar {
		// Keep the avatar fresh (best-effort).
		_ = h.db.Model(&user).Update("avatar", req.Avatar).Error
	}

	token, err := h.issueSession(c, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

type adminLoginRequest struct {
	Name     string `json:"name" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AdminLogin handles POST /api/auth/admin/login.
// Verifies the bootstrap admin credentials from config and ensures a
// matching admin user row exists so the session resolves to a real actor.
func (h *AuthHandler) AdminLogin(c *gin.Context) {
	var req adminLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	if h.admin.PasswordHash == "" {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "admin login disabled"})
		return
	}
	if req.Name != h.admin.Name ||
		bcrypt.CompareHashAndPassword([]byte(h.admin.PasswordHash), []byte(req.Password)) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "invalid credentials"})
		return
	}

	var user model.User
	err := h.db.Where("name = ? AND role = ?", h.admin.Name, model.RoleAdmin).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		user = model.User{
			Name:   h.admin.Name,
			Role:   model.RoleAdmin,
			Status: model.StatusAccepted,
		}
		if err := h.db.Create(&user).Error; err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
			return
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal error"})
		return
	}

	token, err := h.issueSession(c, user.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "token error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "token": token, "user": user})
}

// Logout handles POST /api/auth/logout.
func (h *AuthHandler) Logout(c *gin.Context) {
	header := c.GetHeader("Authorization")
	tokenStr := strings.TrimPrefix(header, "Bearer ")
	if tokenStr == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "missing token"})
		return
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	_ = h.cache.Del(ctx, "session:"+tokenStr)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Me handles GET /api/me.
// Anonymous requests are fine; the client uses this to restore sessions.
func (h *AuthHandler) Me(c *gin.Context) {
	user := currentUser(c, h.db)
	if user == nil {
		c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "loggedIn": true, "user": user})
}

// issueSession signs a JWT and stores the session key in the cache.
func (h *AuthHandler) issueSession(c *gin.Context, userID int64) (string, error) {
	token, err := mw.GenerateToken(userID, h.sec.JWTSecret, h.sec.JWTTTLH)
	if err != nil {
		return "", err
	}
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := h.cache.Set(ctx, "session:"+token, strconv.FormatInt(userID, 10), h.sec.JWTTTLH); err != nil {
		return "", err
	}
	return token, nil
}

func isUniqueViolation(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") ||
		strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "already exists")
}
