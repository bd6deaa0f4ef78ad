package model

import "time"

// Clan represents a named group users can join.
// OwnerID references the user whose ClanID points back at this clan.
type Clan struct {
	ID          int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string    `gorm:"uniqueIndex;size:64;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	Banner      string    `gorm:"size:255" json:"banner,omitempty"`
	OwnerID     *int64    `json:"owner_id"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
}
