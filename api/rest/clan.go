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

// ClanHandler handles clan REST endpoints.
type ClanHandler struct {
	db    *gorm.DB
	svc   *membership.Service
	audit *audit.Service
}

// NewClanHandler creates a new ClanHandler.
func NewClanHandler(db *gorm.DB, svc *membership.Service, auditSvc *audit.Service) *ClanHandler {
	return &ClanHandler{db: db, svc: svc, audit: auditSvc}
}

type clanSummary struct {
	model.Clan
	MemberCount int `json:"memberCount"`
}

// List handles GET /api/clans.
func (h *ClanHandler) List(c *gin.Context) {
	var clans []model.Clan
	if err := h.db.Order("id").Find(&clans).Error; err != nil {
		writeError(c, err)
		return
	}

	type countRow struct {
		ClanID int64
		N      int
	}
	var rows []countRow
	err := h.db.Model(&model.User{}).
		Select("clan_id, COUNT(*) AS n").
		Where("clan_id IS NOT NULL AND status = ?", model.StatusAccepted).
		Group("clan_id").
		Scan(&rows).Error
	if err != nil {
		writeError(c, err)
		return
	}
	counts := make(map[int64]int, len(rows))
	for _, r := range rows {
		counts[r.ClanID] = r.N
	}

	summaries := make([]clanSummary, len(clans))
	for i, clan := range clans {
		summaries[i] = clanSummary{Clan: clan, MemberCount: counts[clan.ID]}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "clans": summaries})
}

// Detail handles GET /api/clans/:id.
func (h *ClanHandler) Detail(c *gin.Context) {
	clanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	var clan model.Clan
	if err := h.db.First(&clan, clanID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "clan not found"})
		return
	}

	var members []model.User
	if err := h.db.Where("clan_id = ? AND status = ?", clanID, model.StatusAccepted).
		Order("id").Find(&members).Error; err != nil {
		writeError(c, err)
		return
	}

	var announcements []model.Announcement
	if err := h.db.Where("clan_id = ?", clanID).
		Order("created_at DESC").Order("id DESC").
		Find(&announcements).Error; err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":       true,
		"clan":          clan,
		"members":       members,
		"announcements": announcements,
	})
}

// Create handles POST /api/clans.
func (h *ClanHandler) Create(c *gin.Context) {
	start := time.Now()
	user := currentUser(c, h.db)

	var in membership.CreateClanInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}

	clan, err := h.svc.CreateClan(actorOf(user), in)
	logAudit(h.audit, c, user, "clan.create", in, clan, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true, "clan": clan})
}

// Delete handles DELETE /api/admin/clans/:id.
func (h *ClanHandler) Delete(c *gin.Context) {
	start := time.Now()
	user := currentUser(c, h.db)

	clanID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid id"})
		return
	}

	err = h.svc.DeleteClan(actorOf(user), clanID)
	logAudit(h.audit, c, user, "clan.delete", gin.H{"clan_id": clanID}, nil, err, start)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
