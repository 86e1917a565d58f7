package users

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

type Handler struct {
	store Store
}

func NewHandler(store Store) *Handler {
	return &Handler{store: store}
}

// Upsert godoc
// @Summary Save the caller's profile
// @Description Creates or refreshes the profile for the signed-in email. Name and photo default to the token claims.
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpsertProfileRequest false "Profile overrides"
// @Success 200 {object} response.SuccessResponse{data=Profile}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Router /users [post]
func (h *Handler) Upsert(c *gin.Context) {
	caller := auth.CallerFrom(c)

	var req UpsertProfileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BindJSONError(c, err)
			return
		}
	}

	profile := &Profile{
		Email:    caller.Email,
		Name:     caller.Name,
		PhotoURL: caller.PhotoURL,
	}
	if req.Name != "" {
		profile.Name = req.Name
	}
	if req.PhotoURL != "" {
		profile.PhotoURL = req.PhotoURL
	}

	stored, err := h.store.Upsert(c.Request.Context(), profile)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, stored)
}

// Me godoc
// @Summary Get the caller's profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.SuccessResponse{data=Profile}
// @Failure 401 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /users/me [get]
func (h *Handler) Me(c *gin.Context) {
	profile, err := h.store.GetByEmail(c.Request.Context(), auth.CallerFrom(c).Email)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, profile)
}
