package services

import (
	"errors"
	"math/rand"
	"strings"
	"time"

	"github.com/5inee/predict-battle/internal/models"

	"gorm.io/gorm"
)

// SessionService owns session creation, participant admission and
// prediction submission. It keeps no state between calls; the database is
// the single source of truth.
type SessionService struct {
	db             *gorm.DB
	creationSecret string
}

func NewSessionService(db *gorm.DB, creationSecret string) *SessionService {
	return &SessionService{db: db, creationSecret: creationSecret}
}

func (s *SessionService) CreateSession(creatorID uint, question string, maxParticipants int, secret string) (*models.Session, error) {
	if secret != s.creationSecret {
		return nil, ErrInvalidSecret
	}

	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if maxParticipants < models.MinParticipants || maxParticipants > models.MaxParticipantsLimit {
		return nil, ErrInvalidMaxPlayers
	}

	var creator models.User
	if err := s.db.First(&creator, creatorID).Error; err != nil {
		return nil, ErrUserNotFound
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}
	session := models.Session{
		Code:             code,
		Question:         question,
		CreatorID:        creator.ID,
		MaxParticipants:  maxParticipants,
		ParticipantCount: 1,
		Status:           models.SessionStatusWaiting,
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&session).Error; err != nil {
			return err
		}
		p := models.Participant{
			SessionID:     session.ID,
			PrincipalKind: models.PrincipalRegistered,
			PrincipalID:   models.RegisteredID(creator.ID),
			DisplayName:   creator.Username,
			JoinedAt:      time.Now(),
		}
		return tx.Create(&p).Error
	})
	if err != nil {
		return nil, err
	}

	return s.loadSession(session.ID)
}

// JoinSession admits the principal into the session identified by code.
// Joining twice is a no-op success, never an error.
func (s *SessionService) JoinSession(code string, principal models.Principal) (*models.Session, error) {
	var session models.Session
	if err := s.db.Where("code = ?", code).First(&session).Error; err != nil {
		return nil, ErrSessionNotFound
	}

	if _, err := s.admit(&session, principal); err != nil {
		return nil, err
	}

	return s.loadSession(session.ID)
}

// SubmitResult carries the caller's prediction and the full ordered list.
// AlreadySubmitted marks resubmissions, which are successes.
type SubmitResult struct {
	Prediction       models.Prediction   `json:"prediction"`
	Predictions      []models.Prediction `json:"predictions"`
	AlreadySubmitted bool                `json:"-"`
}

// SubmitPrediction stores one prediction per (session, principal) pair.
// Submitting implies joining: a principal who never joined is admitted
// first, subject to the same fullness check as JoinSession.
func (s *SessionService) SubmitPrediction(sessionID uint, principal models.Principal, content string) (*SubmitResult, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrEmptyPrediction
	}

	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, ErrSessionNotFound
	}

	var existing models.Prediction
	err := s.db.Where("session_id = ? AND principal_kind = ? AND principal_id = ?",
		sessionID, principal.Kind, principal.ID).First(&existing).Error
	if err == nil {
		predictions, err := s.listPredictions(sessionID)
		if err != nil {
			return nil, err
		}
		return &SubmitResult{Prediction: existing, Predictions: predictions, AlreadySubmitted: true}, nil
	}

	if session.Status == models.SessionStatusCompleted {
		return nil, ErrSessionClosed
	}

	if _, err := s.admit(&session, principal); err != nil {
		return nil, err
	}

	prediction := models.Prediction{
		SessionID:     sessionID,
		PrincipalKind: principal.Kind,
		PrincipalID:   principal.ID,
		DisplayName:   principal.DisplayName,
		Content:       content,
		SubmittedAt:   time.Now(),
	}
	if err := s.db.Create(&prediction).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// A concurrent submission from the same principal landed between
			// the existence check and the insert. The stored row wins; the
			// retry reads it back instead of failing.
			if err := s.db.Where("session_id = ? AND principal_kind = ? AND principal_id = ?",
				sessionID, principal.Kind, principal.ID).First(&prediction).Error; err != nil {
				return nil, err
			}
			predictions, err := s.listPredictions(sessionID)
			if err != nil {
				return nil, err
			}
			return &SubmitResult{Prediction: prediction, Predictions: predictions, AlreadySubmitted: true}, nil
		}
		return nil, err
	}

	predictions, err := s.listPredictions(sessionID)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{Prediction: prediction, Predictions: predictions}, nil
}

// SessionDetail is a session plus its predictions, ordered by submission.
type SessionDetail struct {
	Session     models.Session      `json:"session"`
	Predictions []models.Prediction `json:"predictions"`
}

func (s *SessionService) GetSessionByCode(code string) (*SessionDetail, error) {
	var session models.Session
	if err := s.sessionQuery().Where("code = ?", code).First(&session).Error; err != nil {
		return nil, ErrSessionNotFound
	}

	predictions, err := s.listPredictions(session.ID)
	if err != nil {
		return nil, err
	}
	return &SessionDetail{Session: session, Predictions: predictions}, nil
}

func (s *SessionService) GetSessionPredictions(sessionID uint) ([]models.Prediction, error) {
	var session models.Session
	if err := s.db.First(&session, sessionID).Error; err != nil {
		return nil, ErrSessionNotFound
	}
	return s.listPredictions(sessionID)
}

// ListUserSessions returns the sessions a registered user participates in,
// newest first.
func (s *SessionService) ListUserSessions(userID uint) ([]models.Session, error) {
	var sessions []models.Session
	err := s.sessionQuery().
		Select("sessions.*").
		Joins("JOIN participants ON participants.session_id = sessions.id").
		Where("participants.principal_kind = ? AND participants.principal_id = ?",
			models.PrincipalRegistered, models.RegisteredID(userID)).
		Order("sessions.created_at DESC, sessions.id DESC").
		Find(&sessions).Error
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// admit adds the principal as a participant. It reports rejoined=true when
// the principal was already in, which is never an error. The fullness
// check is a conditional update on participant_count, so concurrent joins
// for the last slot resolve to exactly one winner.
func (s *SessionService) admit(session *models.Session, principal models.Principal) (rejoined bool, err error) {
	var existing models.Participant
	err = s.db.Where("session_id = ? AND principal_kind = ? AND principal_id = ?",
		session.ID, principal.Kind, principal.ID).First(&existing).Error
	if err == nil {
		return true, nil
	}

	if session.Status == models.SessionStatusCompleted {
		return false, ErrSessionClosed
	}

	res := s.db.Model(&models.Session{}).
		Where("id = ? AND participant_count < max_participants AND status <> ?",
			session.ID, models.SessionStatusCompleted).
		UpdateColumn("participant_count", gorm.Expr("participant_count + 1"))
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected == 0 {
		var current models.Session
		if err := s.db.First(&current, session.ID).Error; err != nil {
			return false, ErrSessionNotFound
		}
		if current.Status == models.SessionStatusCompleted {
			return false, ErrSessionClosed
		}
		return false, ErrSessionFull
	}

	p := models.Participant{
		SessionID:     session.ID,
		PrincipalKind: principal.Kind,
		PrincipalID:   principal.ID,
		DisplayName:   principal.DisplayName,
		JoinedAt:      time.Now(),
	}
	if err := s.db.Create(&p).Error; err != nil {
		// Hand the reserved slot back before reporting anything.
		s.db.Model(&models.Session{}).Where("id = ?", session.ID).
			UpdateColumn("participant_count", gorm.Expr("participant_count - 1"))
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Same principal raced us past the existence check.
			return true, nil
		}
		return false, err
	}
	return false, nil
}

func (s *SessionService) loadSession(sessionID uint) (*models.Session, error) {
	var session models.Session
	if err := s.sessionQuery().First(&session, sessionID).Error; err != nil {
		return nil, ErrSessionNotFound
	}
	return &session, nil
}

func (s *SessionService) sessionQuery() *gorm.DB {
	return s.db.Preload("Creator").
		Preload("Participants", func(db *gorm.DB) *gorm.DB {
			return db.Order("joined_at ASC, id ASC")
		})
}

func (s *SessionService) listPredictions(sessionID uint) ([]models.Prediction, error) {
	var predictions []models.Prediction
	err := s.db.Where("session_id = ?", sessionID).
		Order("submitted_at ASC, id ASC").
		Find(&predictions).Error
	if err != nil {
		return nil, err
	}
	return predictions, nil
}

const codeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateUniqueCode draws 6-character codes until one is unused by any
// stored session. Codes are never recycled, so lookups by code stay
// unambiguous. With 36^6 codes a second collision is effectively
// impossible, so there is no retry cap.
func (s *SessionService) generateUniqueCode() (string, error) {
	for {
		b := make([]byte, 6)
		for i := range b {
			b[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
		}
		code := string(b)

		var count int64
		if err := s.db.Model(&models.Session{}).
			Where("code = ?", code).
			Count(&count).Error; err != nil {
			return "", err
		}
		if count == 0 {
			return code, nil
		}
	}
}
