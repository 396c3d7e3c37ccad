package handlers

import (
	"net/http"

	"github.com/5inee/predict-battle/internal/middleware"
	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-gonic/gin"
)

type SessionHandler struct {
	sessionService *services.SessionService
}

func NewSessionHandler(sessionService *services.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

type CreateSessionRequest struct {
	Question        string `json:"question" binding:"required" example:"Who wins?"`
	MaxParticipants int    `json:"max_participants" binding:"required" example:"5"`
	SecretCode      string `json:"secret_code" binding:"required" example:"021"`
}

// CreateSession godoc
// @Summary      Create a prediction session
// @Description  Create a session with a shareable 6-character join code
// @Tags         sessions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body CreateSessionRequest true "Session data"
// @Success      201 {object} models.Session
// @Failure      400 {object} ErrorResponse
// @Failure      403 {object} ErrorResponse
// @Router       /api/v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	userID := c.GetUint("user_id")

	var req CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	session, err := h.sessionService.CreateSession(userID, req.Question, req.MaxParticipants, req.SecretCode)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, session)
}

// JoinSession godoc
// @Summary      Join a session by code
// @Description  Adds the caller as a participant; rejoining is a no-op success
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} models.Session
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code}/join [post]
func (h *SessionHandler) JoinSession(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	session, err := h.sessionService.JoinSession(c.Param("code"), principal)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, session)
}

// GetSession godoc
// @Summary      Get a session with its predictions
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Param        code path string true "Session code"
// @Success      200 {object} services.SessionDetail
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/sessions/{code} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	detail, err := h.sessionService.GetSessionByCode(c.Param("code"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, detail)
}

// ListMySessions godoc
// @Summary      List sessions the current user participates in
// @Tags         sessions
// @Produce      json
// @Security     BearerAuth
// @Success      200 {array} models.Session
// @Failure      401 {object} ErrorResponse
// @Router       /api/v1/sessions/mine [get]
func (h *SessionHandler) ListMySessions(c *gin.Context) {
	userID := c.GetUint("user_id")

	sessions, err := h.sessionService.ListUserSessions(userID)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, sessions)
}
