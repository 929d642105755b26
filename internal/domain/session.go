package domain

import "time"

type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

func (p Platform) Valid() bool {
	switch p {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
		return true
	}
	return false
}

// Session is one login context. UserID is fixed at creation; a row exists
// until the session is signed out or its owner is banned or deleted.
type Session struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	UserID     string    `gorm:"size:36;index;not null" json:"user_id"`
	DeviceID   string    `gorm:"size:128;not null" json:"device_id"`
	DeviceName string    `gorm:"size:128;not null" json:"device_name"`
	Platform   Platform  `gorm:"size:16;not null" json:"platform"`
	CreatedAt  time.Time `json:"created_at"`
}

// Device is the client metadata recorded on a new session.
type Device struct {
	ID       string
	Name     string
	Platform Platform
}
