package services

import (
	"errors"
	"fmt"
	"regexp"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/5inee/predict-battle/internal/models"
	"github.com/5inee/predict-battle/internal/testutil"

	"gorm.io/gorm"
)

const testSecret = "021"

func newTestRegistry(t *testing.T) (*SessionService, *gorm.DB) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	return NewSessionService(db, testSecret), db
}

func createTestSession(t *testing.T, svc *SessionService, db *gorm.DB, maxParticipants int) (*models.Session, *models.User) {
	t.Helper()
	creator := testutil.CreateUser(t, db, fmt.Sprintf("creator-%d", maxParticipants), "password123")
	session, err := svc.CreateSession(creator.ID, "Who wins?", maxParticipants, testSecret)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	return session, creator
}

func guest(id, name string) models.Principal {
	return models.GuestPrincipal(id, name)
}

func TestCreateSession(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 2)

	if matched := regexp.MustCompile(`^[A-Z0-9]{6}$`).MatchString(session.Code); !matched {
		t.Errorf("code %q is not 6 uppercase alphanumeric characters", session.Code)
	}
	if session.Status != models.SessionStatusWaiting {
		t.Errorf("status: expected waiting, got %q", session.Status)
	}
	if len(session.Participants) != 1 {
		t.Fatalf("expected creator as sole participant, got %d participants", len(session.Participants))
	}
	p := session.Participants[0]
	if p.PrincipalKind != models.PrincipalRegistered || p.PrincipalID != models.RegisteredID(creator.ID) {
		t.Errorf("first participant is not the creator: %+v", p)
	}
	if p.DisplayName != creator.Username {
		t.Errorf("display name: expected %q, got %q", creator.Username, p.DisplayName)
	}
	if session.ParticipantCount != 1 {
		t.Errorf("participant count: expected 1, got %d", session.ParticipantCount)
	}
}

func TestCreateSessionValidation(t *testing.T) {
	svc, db := newTestRegistry(t)
	creator := testutil.CreateUser(t, db, "validator", "password123")

	cases := []struct {
		name     string
		question string
		max      int
		secret   string
		wantErr  error
	}{
		{"bad secret", "Who wins?", 5, "wrong", ErrInvalidSecret},
		{"empty question", "", 5, testSecret, ErrEmptyQuestion},
		{"whitespace question", "   ", 5, testSecret, ErrEmptyQuestion},
		{"max too low", "Who wins?", 1, testSecret, ErrInvalidMaxPlayers},
		{"max too high", "Who wins?", 21, testSecret, ErrInvalidMaxPlayers},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreateSession(creator.ID, tc.question, tc.max, tc.secret)
			if !errors.Is(err, tc.wantErr) {
				t.Errorf("expected %v, got %v", tc.wantErr, err)
			}
		})
	}

	// Boundaries are inclusive.
	for _, max := range []int{2, 20} {
		if _, err := svc.CreateSession(creator.ID, "Who wins?", max, testSecret); err != nil {
			t.Errorf("max=%d should be accepted, got %v", max, err)
		}
	}
}

func TestJoinSession(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 3)

	joined, err := svc.JoinSession(session.Code, guest("g1", "Ana"))
	if err != nil {
		t.Fatalf("JoinSession failed: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Fatalf("expected 2 participants, got %d", len(joined.Participants))
	}
	if joined.Participants[1].DisplayName != "Ana" {
		t.Errorf("expected Ana as second participant, got %q", joined.Participants[1].DisplayName)
	}
	if !joined.Participants[1].Principal().Same(guest("g1", "Ana")) {
		t.Errorf("stored principal does not match joiner: %+v", joined.Participants[1])
	}
}

func TestJoinSessionNotFound(t *testing.T) {
	svc, _ := newTestRegistry(t)

	if _, err := svc.JoinSession("ZZZZZZ", guest("g1", "Ana")); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestJoinSessionIdempotent(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 3)

	first, err := svc.JoinSession(session.Code, guest("g1", "Ana"))
	if err != nil {
		t.Fatalf("first join failed: %v", err)
	}
	second, err := svc.JoinSession(session.Code, guest("g1", "Ana"))
	if err != nil {
		t.Fatalf("repeated join must not error: %v", err)
	}
	if len(first.Participants) != len(second.Participants) {
		t.Errorf("repeated join grew participants: %d then %d",
			len(first.Participants), len(second.Participants))
	}
	if second.ParticipantCount != 2 {
		t.Errorf("participant count: expected 2, got %d", second.ParticipantCount)
	}
}

func TestJoinSessionFull(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 2)

	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Fatalf("second participant should join: %v", err)
	}
	if _, err := svc.JoinSession(session.Code, guest("g2", "Ben")); !errors.Is(err, ErrSessionFull) {
		t.Errorf("expected ErrSessionFull, got %v", err)
	}
	// A member of a full session can still rejoin.
	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Errorf("rejoin of full session must succeed: %v", err)
	}
}

func TestJoinSessionCompleted(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 3)

	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	db.Model(&models.Session{}).Where("id = ?", session.ID).
		Update("status", models.SessionStatusCompleted)

	if _, err := svc.JoinSession(session.Code, guest("g2", "Ben")); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	// Existing members still get the idempotent read-back.
	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Errorf("rejoin of completed session must succeed: %v", err)
	}
}

func TestCompletedSessionKeepsItsCode(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)

	db.Model(&models.Session{}).Where("id = ?", session.ID).
		Update("status", models.SessionStatusCompleted)

	// Codes are never recycled: the unique index rejects a new session
	// reusing a completed session's code.
	dup := models.Session{
		Code:             session.Code,
		Question:         "Recycled?",
		CreatorID:        creator.ID,
		MaxParticipants:  3,
		ParticipantCount: 1,
		Status:           models.SessionStatusWaiting,
	}
	if err := db.Create(&dup).Error; !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("expected duplicate key error for reused code, got %v", err)
	}

	// The completed session still owns its code.
	detail, err := svc.GetSessionByCode(session.Code)
	if err != nil {
		t.Fatalf("lookup by code failed: %v", err)
	}
	if detail.Session.ID != session.ID {
		t.Errorf("code resolved to session %d, want %d", detail.Session.ID, session.ID)
	}

	// Fresh sessions draw codes that avoid every stored one, completed
	// included.
	fresh, err := svc.CreateSession(creator.ID, "Next round?", 3, testSecret)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if fresh.Code == session.Code {
		t.Errorf("new session reused code %q of a completed session", fresh.Code)
	}
}

func TestGuestAndRegisteredIDsAreDistinct(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 5)

	// A guest whose id equals the creator's numeric id string is a
	// different principal.
	impostor := guest(models.RegisteredID(creator.ID), "Impostor")
	if impostor.Same(models.RegisteredPrincipal(creator)) {
		t.Fatal("guest and registered principals with equal ids must differ")
	}

	joined, err := svc.JoinSession(session.Code, impostor)
	if err != nil {
		t.Fatalf("guest join failed: %v", err)
	}
	if len(joined.Participants) != 2 {
		t.Errorf("expected 2 distinct participants, got %d", len(joined.Participants))
	}
}

func TestSubmitPredictionRoundTrip(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)

	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	first, err := svc.SubmitPrediction(session.ID, models.RegisteredPrincipal(creator), "Team A")
	if err != nil {
		t.Fatalf("creator submit failed: %v", err)
	}
	if first.AlreadySubmitted {
		t.Error("first submission flagged as resubmission")
	}

	second, err := svc.SubmitPrediction(session.ID, guest("g1", "Ana"), "Team B")
	if err != nil {
		t.Fatalf("guest submit failed: %v", err)
	}
	if len(second.Predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(second.Predictions))
	}

	predictions, err := svc.GetSessionPredictions(session.ID)
	if err != nil {
		t.Fatalf("GetSessionPredictions failed: %v", err)
	}
	if len(predictions) != 2 {
		t.Fatalf("expected 2 predictions, got %d", len(predictions))
	}
	if predictions[0].Content != "Team A" || predictions[1].Content != "Team B" {
		t.Errorf("predictions out of submission order: %q, %q",
			predictions[0].Content, predictions[1].Content)
	}
	if predictions[1].DisplayName != "Ana" {
		t.Errorf("display name not resolved: %q", predictions[1].DisplayName)
	}
}

func TestSubmitPredictionAutoAdmits(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 3)

	// Submitting implies joining.
	result, err := svc.SubmitPrediction(session.ID, guest("g1", "Ana"), "Team A")
	if err != nil {
		t.Fatalf("submit without prior join failed: %v", err)
	}
	if len(result.Predictions) != 1 {
		t.Fatalf("expected 1 prediction, got %d", len(result.Predictions))
	}

	reloaded, err := svc.GetSessionByCode(session.Code)
	if err != nil {
		t.Fatalf("GetSessionByCode failed: %v", err)
	}
	if len(reloaded.Session.Participants) != 2 {
		t.Errorf("expected auto-admitted guest among participants, got %d",
			len(reloaded.Session.Participants))
	}
}

func TestSubmitPredictionAutoAdmitRespectsCapacity(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 2)

	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Fatalf("join failed: %v", err)
	}
	if _, err := svc.SubmitPrediction(session.ID, guest("g2", "Ben"), "Team B"); !errors.Is(err, ErrSessionFull) {
		t.Errorf("expected ErrSessionFull for non-participant submit, got %v", err)
	}
}

func TestSubmitPredictionIdempotent(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)
	principal := models.RegisteredPrincipal(creator)

	first, err := svc.SubmitPrediction(session.ID, principal, "Team A")
	if err != nil {
		t.Fatalf("first submit failed: %v", err)
	}

	// Resubmission with different content is a success that returns the
	// original, not a second row.
	second, err := svc.SubmitPrediction(session.ID, principal, "Team B")
	if err != nil {
		t.Fatalf("resubmission must not error: %v", err)
	}
	if !second.AlreadySubmitted {
		t.Error("resubmission not flagged as already submitted")
	}
	if second.Prediction.ID != first.Prediction.ID {
		t.Errorf("resubmission returned a different prediction: %d vs %d",
			second.Prediction.ID, first.Prediction.ID)
	}
	if second.Prediction.Content != "Team A" {
		t.Errorf("stored content changed: %q", second.Prediction.Content)
	}
	if len(second.Predictions) != 1 {
		t.Errorf("expected 1 stored prediction, got %d", len(second.Predictions))
	}
}

func TestSubmitPredictionValidation(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)

	if _, err := svc.SubmitPrediction(session.ID, models.RegisteredPrincipal(creator), "   "); !errors.Is(err, ErrEmptyPrediction) {
		t.Errorf("expected ErrEmptyPrediction, got %v", err)
	}
	if _, err := svc.SubmitPrediction(9999, models.RegisteredPrincipal(creator), "Team A"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestSubmitPredictionCompleted(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)
	principal := models.RegisteredPrincipal(creator)

	if _, err := svc.SubmitPrediction(session.ID, principal, "Team A"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	db.Model(&models.Session{}).Where("id = ?", session.ID).
		Update("status", models.SessionStatusCompleted)

	if _, err := svc.SubmitPrediction(session.ID, guest("g1", "Ana"), "Team B"); !errors.Is(err, ErrSessionClosed) {
		t.Errorf("expected ErrSessionClosed, got %v", err)
	}
	// A retried duplicate still reads back the stored prediction.
	result, err := svc.SubmitPrediction(session.ID, principal, "Team A")
	if err != nil {
		t.Fatalf("resubmission after completion must read back: %v", err)
	}
	if !result.AlreadySubmitted {
		t.Error("expected already-submitted read-back")
	}
}

func TestGetSessionByCode(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, creator := createTestSession(t, svc, db, 3)

	if _, err := svc.SubmitPrediction(session.ID, models.RegisteredPrincipal(creator), "Team A"); err != nil {
		t.Fatalf("submit failed: %v", err)
	}

	detail, err := svc.GetSessionByCode(session.Code)
	if err != nil {
		t.Fatalf("GetSessionByCode failed: %v", err)
	}
	if detail.Session.ID != session.ID {
		t.Errorf("wrong session: %d", detail.Session.ID)
	}
	if len(detail.Predictions) != 1 {
		t.Errorf("expected 1 prediction, got %d", len(detail.Predictions))
	}

	if _, err := svc.GetSessionByCode("ZZZZZZ"); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListUserSessions(t *testing.T) {
	svc, db := newTestRegistry(t)
	creator := testutil.CreateUser(t, db, "lister", "password123")
	other := testutil.CreateUser(t, db, "other", "password123")

	first, err := svc.CreateSession(creator.ID, "Round one?", 5, testSecret)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	second, err := svc.CreateSession(other.ID, "Round two?", 5, testSecret)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	// creator joins the other user's session as a participant.
	if _, err := svc.JoinSession(second.Code, models.RegisteredPrincipal(creator)); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	sessions, err := svc.ListUserSessions(creator.ID)
	if err != nil {
		t.Fatalf("ListUserSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != second.ID || sessions[1].ID != first.ID {
		t.Errorf("sessions not ordered newest first: %d, %d", sessions[0].ID, sessions[1].ID)
	}

	sessions, err = svc.ListUserSessions(other.ID)
	if err != nil {
		t.Fatalf("ListUserSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != second.ID {
		t.Errorf("expected only session %d for other user, got %d sessions", second.ID, len(sessions))
	}
}

func TestConcurrentJoinsLastSlot(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 2)

	// Creator holds one slot; several new principals race for the last one.
	numJoiners := 8
	var successes, fulls atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < numJoiners; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			_, err := svc.JoinSession(session.Code, guest(fmt.Sprintf("g%d", n), "Racer"))
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrSessionFull):
				fulls.Add(1)
			default:
				t.Errorf("unexpected join error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successes.Load() != 1 {
		t.Errorf("expected exactly 1 winner for the last slot, got %d", successes.Load())
	}
	if int(fulls.Load()) != numJoiners-1 {
		t.Errorf("expected %d SessionFull losers, got %d", numJoiners-1, fulls.Load())
	}

	var participantCount int64
	db.Model(&models.Participant{}).Where("session_id = ?", session.ID).Count(&participantCount)
	if participantCount != 2 {
		t.Errorf("expected 2 participant rows, got %d", participantCount)
	}

	var current models.Session
	db.First(&current, session.ID)
	if current.ParticipantCount != 2 {
		t.Errorf("participant count column: expected 2, got %d", current.ParticipantCount)
	}
}

func TestConcurrentDuplicateSubmissions(t *testing.T) {
	svc, db := newTestRegistry(t)
	session, _ := createTestSession(t, svc, db, 5)

	if _, err := svc.JoinSession(session.Code, guest("g1", "Ana")); err != nil {
		t.Fatalf("join failed: %v", err)
	}

	attempts := 6
	var successes atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.SubmitPrediction(session.ID, guest("g1", "Ana"), "Team A"); err == nil {
				successes.Add(1)
			} else {
				t.Errorf("concurrent duplicate submission must succeed: %v", err)
			}
		}()
	}
	wg.Wait()

	if int(successes.Load()) != attempts {
		t.Errorf("expected all %d submissions to report success, got %d", attempts, successes.Load())
	}

	var stored int64
	db.Model(&models.Prediction{}).Where("session_id = ?", session.ID).Count(&stored)
	if stored != 1 {
		t.Errorf("expected exactly 1 stored prediction, got %d", stored)
	}
}
