package auth

import (
	"github.com/gin-gonic/gin"

	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

type Handler struct {
	dev *DevTokenVerifier
}

func NewHandler(dev *DevTokenVerifier) *Handler {
	return &Handler{dev: dev}
}

// DevLogin godoc
// @Summary Issue a development token
// @Description Signs a short-lived token for the given email. Disabled in production.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body DevLoginRequest true "Identity to impersonate"
// @Success 200 {object} response.SuccessResponse{data=TokenResponse}
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /auth/dev-login [post]
func (h *Handler) DevLogin(c *gin.Context) {
	if h.dev == nil {
		response.NotFound(c, "Development login is disabled", "NOT_FOUND")
		return
	}

	var req DevLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "A valid email is required", "INVALID_REQUEST")
		return
	}

	caller := Caller{
		Email:    NormalizeEmail(req.Email),
		Name:     req.Name,
		PhotoURL: req.PhotoURL,
	}

	signed, err := h.dev.Issue(caller)
	if err != nil {
		response.InternalServerError(c, "Failed to issue token", "TOKEN_FAILED")
		return
	}

	response.Success(c, TokenResponse{
		Caller:      caller,
		AccessToken: signed,
		ExpiresIn:   int64(h.dev.TTL.Seconds()),
	})
}

// Me godoc
// @Summary Current caller
// @Description Returns the identity resolved from the bearer token
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.SuccessResponse{data=Caller}
// @Failure 401 {object} response.ErrorResponse
// @Router /auth/me [get]
func (h *Handler) Me(c *gin.Context) {
	response.Success(c, CallerFrom(c))
}
