package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/membership"
	"github.com/santosrp/clanhub/server/model"
	"gorm.io/gorm"
)

// AdminHandler handles admin-only REST endpoints.
type AdminHandler struct {
	db    *gorm.DB
	svc   *membership.Service
	audit *audit.Service
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(db *gorm.DB, svc *membership.Service, auditSvc *audit.Service) *AdminHandler {
	return &AdminHandler{db: db, svc: svc, audit: auditSvc}
}

// ListUsers handles GET /api/admin/users.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	if err := actorOf(currentUser(c, h.db)).CheckAdmin(); err != nil {
		writeError(c, err)
		return
	}

	var users []model.User
	if err := h.db.Order("id").Find(&users).Error; err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "users": users})
}

type changeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

// ChangeRole handles POST /api/admin/users/:id/role.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	start := time.Now()
	user := currentUser(c, h.db)

	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	var req changeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	updated, err := h.svc.ChangeRole(actorOf(user), targetID, req.Role)
	logAudit(h.audit, c, user, "user.role_change",
		gin.H{"user_id": targetID, "role": req.Role}, updated, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": updated})
}
