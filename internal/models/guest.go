package models

import "time"

// Guest is an ephemeral identity. Records untouched for GuestTTL count as
// expired; expiry is passive (checked on read), there is no sweeper.
type Guest struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	GuestID    string    `gorm:"size:64;uniqueIndex;not null" json:"id"`
	Username   string    `gorm:"size:100;not null" json:"username"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `gorm:"index" json:"last_seen_at"`
}

const GuestTTL = 7 * 24 * time.Hour

func (g *Guest) Expired(now time.Time) bool {
	return now.Sub(g.LastSeenAt) > GuestTTL
}
