package handlers

import (
	"net/http"

	"github.com/5inee/predict-battle/internal/models"
	"github.com/5inee/predict-battle/internal/services"

	"github.com/gin-gonic/gin"
)

type GuestHandler struct {
	guestService *services.GuestService
}

func NewGuestHandler(guestService *services.GuestService) *GuestHandler {
	return &GuestHandler{guestService: guestService}
}

type RegisterGuestRequest struct {
	GuestID  string `json:"guest_id" example:"7f5a1c2e"`
	Username string `json:"username" binding:"required,min=1,max=100" example:"Ana"`
}

type GuestResponse struct {
	Guest *models.Guest `json:"guest"`
}

// RegisterGuest godoc
// @Summary      Register or refresh a guest identity
// @Description  Upserts a guest record; omitting guest_id issues a new id
// @Tags         guests
// @Accept       json
// @Produce      json
// @Param        request body RegisterGuestRequest true "Guest data"
// @Success      201 {object} GuestResponse
// @Failure      400 {object} ErrorResponse
// @Router       /api/v1/guests [post]
func (h *GuestHandler) RegisterGuest(c *gin.Context) {
	var req RegisterGuestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	guest, err := h.guestService.RegisterGuest(req.GuestID, req.Username)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, GuestResponse{Guest: guest})
}

// GetGuest godoc
// @Summary      Get a guest identity
// @Tags         guests
// @Produce      json
// @Param        guest_id path string true "Guest ID"
// @Success      200 {object} GuestResponse
// @Failure      404 {object} ErrorResponse
// @Router       /api/v1/guests/{guest_id} [get]
func (h *GuestHandler) GetGuest(c *gin.Context) {
	guest, err := h.guestService.GetGuest(c.Param("guest_id"))
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, GuestResponse{Guest: guest})
}
