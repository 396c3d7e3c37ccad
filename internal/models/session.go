package models

import "time"

type Session struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	Code            string `gorm:"size:6;uniqueIndex;not null" json:"code"`
	Question        string `gorm:"size:500;not null" json:"question"`
	CreatorID       uint   `gorm:"not null;index" json:"creator_id"`
	Creator         User   `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	MaxParticipants int    `gorm:"not null" json:"max_participants"`
	// ParticipantCount backs the conditional admission update; fullness is
	// decided against this column, not by counting participant rows.
	ParticipantCount int           `gorm:"not null;default:0" json:"participant_count"`
	Status           string        `gorm:"size:20;not null;default:'waiting'" json:"status"`
	Participants     []Participant `gorm:"foreignKey:SessionID" json:"participants,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
}

const (
	SessionStatusWaiting   = "waiting"
	SessionStatusActive    = "active"
	SessionStatusCompleted = "completed"

	MinParticipants      = 2
	MaxParticipantsLimit = 20
)

type Participant struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;uniqueIndex:idx_session_principal" json:"session_id"`
	PrincipalKind string    `gorm:"size:10;not null;uniqueIndex:idx_session_principal" json:"principal_kind"`
	PrincipalID   string    `gorm:"size:64;not null;uniqueIndex:idx_session_principal" json:"principal_id"`
	DisplayName   string    `gorm:"size:100;not null" json:"display_name"`
	JoinedAt      time.Time `json:"joined_at"`
}

func (p *Participant) Principal() Principal {
	return Principal{Kind: p.PrincipalKind, ID: p.PrincipalID, DisplayName: p.DisplayName}
}
