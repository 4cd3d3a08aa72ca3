package models

import "time"

// Session stores a refresh-token session for a user.
type Session struct {
	BaseModel

	UserID    string `gorm:"type:uuid;not null;index" json:"user_id"`
	TokenHash string `gorm:"uniqueIndex;not null" json:"-"`

	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`

	ExpiresAt time.Time  `gorm:"index" json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
}

// IsActive reports whether the session can still be refreshed.
func (s Session) IsActive(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}
