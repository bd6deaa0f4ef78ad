package model

import "time"

// Priority values for Announcement.Priority.
const (
	PriorityNormal    = "normal"
	PriorityImportant = "important"
	PriorityUrgent    = "urgent"
)

// ValidPriority reports whether s is one of the known priority values.
func ValidPriority(s string) bool {
	return s == PriorityNormal || s == PriorityImportant || s == PriorityUrgent
}

// Announcement is a message posted by an admin or clan owner.
// ClanID is nil for community-wide announcements.
type Announcement struct {
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	ClanID    *int64    `gorm:"index:idx_announce_clan" json:"clan_id"`
	AuthorID  *int64    `json:"author_id"`
	Title     string    `gorm:"size:128" json:"title,omitempty"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Priority  string    `gorm:"size:16;default:normal" json:"priority"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}
