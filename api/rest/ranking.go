package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/santosrp/clanhub/server/ranking"
)

// RankingHandler handles leaderboard and stats REST endpoints.
type RankingHandler struct {
	svc *ranking.Service
}

// NewRankingHandler creates a new RankingHandler.
func NewRankingHandler(svc *ranking.Service) *RankingHandler {
	return &RankingHandler{svc: svc}
}

// Rankings handles GET /api/ranking.
func (h *RankingHandler) Rankings(c *gin.Context) {
	clans, err := h.svc.ClanRankings()
	if err != nil {
		writeError(c, err)
		return
	}
	members, err := h.svc.MemberRankings()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":        true,
		"clanRankings":   clans,
		"memberRankings": members,
	})
}

// Stats handles GET /api/stats.
func (h *RankingHandler) Stats(c *gin.Context) {
	stats, err := h.svc.CommunityStats()
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "stats": stats})
}
