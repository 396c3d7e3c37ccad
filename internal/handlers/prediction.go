package handlers

import (
	"net/http"
	"strconv"

	"github.com/5inee/predict-battle/internal/middleware"
	"github.com/5inee/predict-battle/internal/models"
	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-gonic/gin"
)

type PredictionHandler struct {
	sessionService *services.SessionService
}

func NewPredictionHandler(sessionService *services.SessionService) *PredictionHandler {
	return &PredictionHandler{sessionService: sessionService}
}

type SubmitPredictionRequest struct {
	SessionID uint   `json:"session_id" binding:"required" example:"1"`
	Content   string `json:"content" binding:"required" example:"Team A"`
}

type SubmitPredictionResponse struct {
	Message     string              `json:"message" example:"Prediction submitted successfully"`
	Prediction  models.Prediction   `json:"prediction"`
	Predictions []models.Prediction `json:"predictions"`
}

// SubmitPrediction godoc
// @Summary      Submit a prediction
// @Description  One prediction per participant; resubmitting returns the stored one
// @Tags         predictions
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body SubmitPredictionRequest true "Prediction data"
// @Success      201 {object} SubmitPredictionResponse
// @Success      200 {object} SubmitPredictionResponse
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/predictions [post]
func (h *PredictionHandler) SubmitPrediction(c *gin.Context) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "authorization required"})
		return
	}

	var req SubmitPredictionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	result, err := h.sessionService.SubmitPrediction(req.SessionID, principal, req.Content)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	resp := SubmitPredictionResponse{
		Message:     "Prediction submitted successfully",
		Prediction:  result.Prediction,
		Predictions: result.Predictions,
	}
	if result.AlreadySubmitted {
		resp.Message = "You have already submitted a prediction"
		c.JSON(http.StatusOK, resp)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// GetSessionPredictions godoc
// @Summary      List a session's predictions
// @Description  All predictions ordered by submission time
// @Tags         predictions
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Session ID"
// @Success      200 {array} models.Prediction
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/predictions/session/{id} [get]
func (h *PredictionHandler) GetSessionPredictions(c *gin.Context) {
	sessionID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid session id"})
		return
	}

	predictions, err := h.sessionService.GetSessionPredictions(uint(sessionID))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, predictions)
}
