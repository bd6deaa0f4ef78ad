package rest

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Announcer pushes a published announcement to connected stream clients.
type Announcer interface {
	Announce(ctx context.Context, message string) error
}

// AnnouncementHandler handles announcement REST endpoints.
type AnnouncementHandler struct {
	db        *gorm.DB
	announcer Announcer
	logger    *zap.Logger
}

// NewAnnouncementHandler creates a new AnnouncementHandler.
func NewAnnouncementHandler(db *gorm.DB, announcer Announcer, logger *zap.Logger) *AnnouncementHandler {
	return &AnnouncementHandler{db: db, announcer: announcer, logger: logger}
}

type announcementView struct {
	model.Announcement
	AuthorName string `json:"authorName,omitempty"`
}

// List handles GET /api/announcements.
func (h *AnnouncementHandler) List(c *gin.Context) {
	var announcements []model.Announcement
	err := h.db.Order("created_at DESC").Order("id DESC").Find(&announcements).Error
	if err != nil {
		writeError(c, err)
		return
	}

	// Enrich with author names in one query.
	authorIDs := make([]int64, 0, len(announcements))
	for _, a := range announcements {
		if a.AuthorID != nil {
			authorIDs = append(authorIDs, *a.AuthorID)
		}
	}
	names := make(map[int64]string, len(authorIDs))
	if len(authorIDs) > 0 {
		var authors []model.User
		if err := h.db.Where("id IN ?", authorIDs).Find(&authors).Error; err != nil {
			writeError(c, err)
			return
		}
		for _, u := range authors {
			names[u.ID] = u.Name
		}
	}

	views := make([]announcementView, len(announcements))
	for i, a := range announcements {
		views[i] = announcementView{Announcement: a}
		if a.AuthorID != nil {
			views[i].AuthorName = names[*a.AuthorID]
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "announcements": views})
}

type createAnnouncementRequest struct {
	ClanID   *int64 `json:"clan_id"`
	Title    string `json:"title" binding:"max=128"`
	Content  string `json:"content" binding:"required"`
	Priority string `json:"priority"`
}

// Create handles POST /api/announcements.
// Admins post anywhere (clan_id nil means community-wide); clan owners
// post to their own clan only.
func (h *AnnouncementHandler) Create(c *gin.Context) {
	user := currentUser(c, h.db)
	actor := actorOf(user)
	if !actor.Authenticated() {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "authentication required"})
		return
	}
	if !actor.CanPostAnnouncement() {
		c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "insufficient permissions"})
		return
	}

	var req createAnnouncementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	if req.Priority == "" {
		req.Priority = model.PriorityNormal
	}
	if !model.ValidPriority(req.Priority) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid priority"})
		return
	}
	if !actor.IsAdmin() {
		if actor.ClanID == nil || req.ClanID == nil || *req.ClanID != *actor.ClanID {
			c.JSON(http.StatusForbidden, gin.H{"success": false, "error": "clan owners post to their own clan only"})
			return
		}
	}

	announcement := model.Announcement{
		ClanID:   req.ClanID,
		AuthorID: &user.ID,
		Title:    req.Title,
		Content:  req.Content,
		Priority: req.Priority,
	}
	if err := h.db.Create(&announcement).Error; err != nil {
		writeError(c, err)
		return
	}

	// Push to live stream subscribers (best-effort; the row is the source
	// of truth and a missed event is recovered by the next list call).
	if payload, err := json.Marshal(announcement); err == nil {
		if err := h.announcer.Announce(c.Request.Context(), string(payload)); err != nil {
			h.logger.Warn("announcement publish failed", zap.Error(err))
		}
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "announcement": announcement})
}
