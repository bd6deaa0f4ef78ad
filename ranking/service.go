package ranking

import (
	"sort"

	"github.com/santosrp/clanhub/server/model"
	"gorm.io/gorm"
)

const memberRankingTop = 10

// Service derives clan and member leaderboards from current state.
// Every call recomputes from the database; there is no cached view.
type Service struct {
	db *gorm.DB
}

// NewService creates a ranking Service.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

// ClanEntry is one row of the clan leaderboard.
type ClanEntry struct {
	model.Clan
	MemberCount int `json:"memberCount"`
	TotalScore  int `json:"totalScore"`
}

// Stats summarizes the community for the dashboard.
type Stats struct {
	TotalUsers      int64 `json:"totalUsers"`
	TotalClans      int64 `json:"totalClans"`
	ActiveUsers     int64 `json:"activeUsers"`
	PendingRequests int64 `json:"pendingRequests"`
}

// ClanRankings returns all clans ordered by accepted member count,
// descending. Ties keep creation order (ascending clan id).
func (s *Service) ClanRankings() ([]ClanEntry, error) {
	var clans []model.Clan
	if err := s.db.Order("id").Find(&clans).Error; err != nil {
		return nil, err
	}

	type aggregate struct {
		ClanID      int64
		MemberCount int
		TotalScore  int
	}
	var aggs []aggregate
	err := s.db.Model(&model.User{}).
		Select("clan_id, COUNT(*) AS member_count, COALESCE(SUM(score), 0) AS total_score").
		Where("clan_id IS NOT NULL AND status = ?", model.StatusAccepted).
		Group("clan_id").
		Scan(&aggs).Error
	if err != nil {
		return nil, err
	}
	byClan := make(map[int64]aggregate, len(aggs))
	for _, a := range aggs {
		byClan[a.ClanID] = a
	}

	entries := make([]ClanEntry, len(clans))
	for i, clan := range clans {
		agg := byClan[clan.ID]
		entries[i] = ClanEntry{
			Clan:        clan,
			MemberCount: agg.MemberCount,
			TotalScore:  agg.TotalScore,
		}
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].MemberCount > entries[j].MemberCount
	})
	return entries, nil
}

// MemberRankings returns the top accepted users by score, descending.
// Ties keep registration order (ascending user id).
func (s *Service) MemberRankings() ([]model.User, error) {
	var users []model.User
	err := s.db.Where("status = ?", model.StatusAccepted).
		Order("score DESC").
		Order("id").
		Limit(memberRankingTop).
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CommunityStats returns the dashboard counters.
func (s *Service) CommunityStats() (*Stats, error) {
	var stats Stats
	if err := s.db.Model(&model.User{}).Count(&stats.TotalUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.Clan{}).Count(&stats.TotalClans).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.User{}).
		Where("status = ?", model.StatusAccepted).
		Count(&stats.ActiveUsers).Error; err != nil {
		return nil, err
	}
	if err := s.db.Model(&model.JoinRequest{}).
		Where("status = ?", model.StatusPending).
		Count(&stats.PendingRequests).Error; err != nil {
		return nil, err
	}
	return &stats, nil
}
