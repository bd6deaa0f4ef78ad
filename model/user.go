package model

import "time"

// Role values for User.Role.
const (
	RoleAdmin     = "admin"
	RoleClanOwner = "clan_owner"
	RoleMember    = "member"
)

// Status values for User.Status and JoinRequest.Status.
const (
	StatusPending  = "pending"
	StatusAccepted = "accepted"
	StatusRejected = "rejected"
)

// ValidRole reports whether s is one of the known role values.
func ValidRole(s string) bool {
	return s == RoleAdmin || s == RoleClanOwner || s == RoleMember
}

// User represents a registered community member.
// ClanID is only set once a join request has been accepted.
type User struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name      string    `gorm:"size:64;not null" json:"name"`
	Phone     string    `gorm:"size:20" json:"phone,omitempty"`
	DiscordID *string   `gorm:"uniqueIndex;size:64" json:"discord_id,omitempty"`
	Age       int       `json:"age,omitempty"`
	Bio       string    `gorm:"type:text" json:"bio,omitempty"`
	Reason    string    `gorm:"type:text" json:"reason,omitempty"`
	ClanID    *int64    `gorm:"index:idx_user_clan" json:"clan_id"`
	Avatar    string    `gorm:"size:255" json:"avatar,omitempty"`
	Role      string    `gorm:"size:16;default:member" json:"role"`
	Status    string    `gorm:"size:16;default:pending" json:"status"`
	Score     int       `gorm:"default:0" json:"score"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
