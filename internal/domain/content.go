package domain

import "time"

type ContentStatus string

const (
	ContentStatusActive  ContentStatus = "active"
	ContentStatusBanned  ContentStatus = "banned"
	ContentStatusDeleted ContentStatus = "deleted"
)

// Post and Comment expose only the moderation columns; bodies, media and
// threading belong to the feed service.
type Post struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	UserID    string        `gorm:"size:36;index;not null" json:"user_id"`
	Status    ContentStatus `gorm:"size:16;index;not null" json:"status"`
	BannedAt  *time.Time    `json:"banned_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

type Comment struct {
	ID        string        `gorm:"primaryKey;size:36" json:"id"`
	PostID    string        `gorm:"size:36;index;not null" json:"post_id"`
	UserID    string        `gorm:"size:36;index;not null" json:"user_id"`
	Status    ContentStatus `gorm:"size:16;index;not null" json:"status"`
	BannedAt  *time.Time    `json:"banned_at,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
