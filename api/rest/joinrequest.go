package rest

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/audit"
	"github.com/santosrp/clanhub/server/membership"
	"gorm.io/gorm"
)

// JoinRequestHandler handles registration and join-request REST endpoints.
type JoinRequestHandler struct {
	db    *gorm.DB
	svc   *membership.Service
	audit *audit.Service
}

// NewJoinRequestHandler creates a new JoinRequestHandler.
func NewJoinRequestHandler(db *gorm.DB, svc *membership.Service, auditSvc *audit.Service) *JoinRequestHandler {
	return &JoinRequestHandler{db: db, svc: svc, audit: auditSvc}
}

// Register handles POST /api/register.
// Open endpoint: prospective members apply before they have a session.
func (h *JoinRequestHandler) Register(c *gin.Context) {
	start := time.Now()

	var in membership.RegisterInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	user, request, err := h.svc.Register(in)
	logAudit(h.audit, c, user, "user.register", in, user, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "user": user, "request": request})
}

// List handles GET /api/join-requests.
func (h *JoinRequestHandler) List(c *gin.Context) {
	user := currentUser(c, h.db)

	requests, err := h.svc.PendingRequests(actorOf(user))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "requests": requests})
}

// Approve handles POST /api/join-requests/:id/approve.
func (h *JoinRequestHandler) Approve(c *gin.Context) {
	start := time.Now()
	user := currentUser(c, h.db)

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	request, err := h.svc.ApproveJoinRequest(actorOf(user), requestID)
	logAudit(h.audit, c, user, "join_request.approve", gin.H{"request_id": requestID}, request, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": request})
}

type rejectRequest struct {
	Message string `json:"message" binding:"required"`
}

// Reject handles POST /api/join-requests/:id/reject.
func (h *JoinRequestHandler) Reject(c *gin.Context) {
	start := time.Now()
	user := currentUser(c, h.db)

	requestID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	var body rejectRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "rejection message is required"})
		return
	}

	request, err := h.svc.RejectJoinRequest(actorOf(user), requestID, body.Message)
	logAudit(h.audit, c, user, "join_request.reject",
		gin.H{"request_id": requestID, "message": body.Message}, request, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "request": request})
}
