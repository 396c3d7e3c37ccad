package models

import "time"

// Prediction is one participant's single answer to a session's question.
// The compound unique index is what makes concurrent duplicate submissions
// safe; the service layer recovers from violations by re-reading.
type Prediction struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	SessionID     uint      `gorm:"not null;uniqueIndex:idx_prediction_principal" json:"session_id"`
	PrincipalKind string    `gorm:"size:10;not null;uniqueIndex:idx_prediction_principal" json:"principal_kind"`
	PrincipalID   string    `gorm:"size:64;not null;uniqueIndex:idx_prediction_principal" json:"principal_id"`
	DisplayName   string    `gorm:"size:100;not null" json:"display_name"`
	Content       string    `gorm:"size:1000;not null" json:"content"`
	SubmittedAt   time.Time `gorm:"index" json:"submitted_at"`
}
