package model

import "time"

// JoinRequest is a user's application to join a clan.
// Status moves from pending to accepted or rejected exactly once;
// terminal states are final.
type JoinRequest struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID    int64     `gorm:"index:idx_request_user;not null" json:"user_id"`
	ClanID    int64     `gorm:"index:idx_request_clan;not null" json:"clan_id"`
	Status    string    `gorm:"size:16;default:pending" json:"status"`
	Message   string    `gorm:"type:text" json:"message,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
