package habits

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/xyz-asif/habitstreak/internal/features/auth"
	"github.com/xyz-asif/habitstreak/internal/pkg/pagination"
	"github.com/xyz-asif/habitstreak/internal/pkg/response"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// parseID writes a 404 for ids that cannot name any habit.
func parseID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		response.NotFound(c, "Habit not found", "NOT_FOUND")
		return primitive.NilObjectID, false
	}
	return id, true
}

// Create godoc
// @Summary Create a habit
// @Description Creates a habit owned by the caller. Streak fields start at zero.
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateHabitRequest true "Habit fields"
// @Success 201 {object} response.SuccessResponse{data=Habit}
// @Failure 400 {object} response.ErrorResponse
// @Failure 401 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /habits [post]
func (h *Handler) Create(c *gin.Context) {
	var req CreateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	habit, err := h.service.Create(c.Request.Context(), auth.CallerFrom(c), req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Created(c, habit)
}

// ListPublic godoc
// @Summary Browse public habits
// @Description Public habits filtered by category and a case-insensitive search over title and description. Paging is applied only when page or limit is given.
// @Tags habits
// @Produce json
// @Param category query string false "Category filter" Enums(All, Morning, Work, Fitness, Evening, Study)
// @Param search query string false "Search text"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Success 200 {object} response.SuccessResponse{data=[]Habit}
// @Failure 422 {object} response.ErrorResponse
// @Router /habits/public [get]
func (h *Handler) ListPublic(c *gin.Context) {
	category, err := ParseCategoryFilter(c.Query("category"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	habits, err := h.service.ListPublic(c.Request.Context(), FeedFilter{
		Category: category,
		Search:   c.Query("search"),
	})
	if err != nil {
		response.FromError(c, err)
		return
	}

	pageStr, limitStr := c.Query("page"), c.Query("limit")
	if !pagination.Requested(pageStr, limitStr) {
		response.Success(c, habits)
		return
	}

	page := pagination.FromQuery(pageStr, limitStr, int64(len(habits)))
	start, end := page.Bounds()
	response.Paginated(c, habits[start:end], page)
}

// Featured godoc
// @Summary Featured habits
// @Description Public habits ranked by current streak, newest first on ties
// @Tags habits
// @Produce json
// @Param limit query int false "How many to return (default 6, max 50)"
// @Success 200 {object} response.SuccessResponse{data=[]Habit}
// @Router /habits/featured [get]
func (h *Handler) Featured(c *gin.Context) {
	n, _ := strconv.Atoi(c.Query("limit"))

	habits, err := h.service.Featured(c.Request.Context(), n)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, habits)
}

// ListByOwner godoc
// @Summary Habits of a user
// @Description All habits owned by the given email, public and private
// @Tags habits
// @Produce json
// @Param email path string true "Owner email"
// @Success 200 {object} response.SuccessResponse{data=[]Habit}
// @Failure 422 {object} response.ErrorResponse
// @Router /habits/user/{email} [get]
func (h *Handler) ListByOwner(c *gin.Context) {
	habits, err := h.service.ListByOwner(c.Request.Context(), c.Param("email"))
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, habits)
}

// Get godoc
// @Summary Get a habit
// @Description Private habits are only visible to their owner
// @Tags habits
// @Produce json
// @Param id path string true "Habit ID"
// @Success 200 {object} response.SuccessResponse{data=Habit}
// @Failure 404 {object} response.ErrorResponse
// @Router /habits/{id} [get]
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	habit, err := h.service.GetByID(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, habit)
}

// Update godoc
// @Summary Update a habit
// @Description Owner-only partial update of the editable fields. History, streaks and owner fields are ignored.
// @Tags habits
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Param request body UpdateHabitRequest true "Fields to change"
// @Success 200 {object} response.SuccessResponse{data=Habit}
// @Failure 400 {object} response.ErrorResponse
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 422 {object} response.ErrorResponse
// @Router /habits/{id} [patch]
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	var req UpdateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BindJSONError(c, err)
		return
	}

	habit, err := h.service.Update(c.Request.Context(), auth.CallerFrom(c), id, req)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, habit)
}

// Complete godoc
// @Summary Mark a habit done today
// @Description Records today's date for the habit and recomputes its streak. Repeating the call on the same day changes nothing.
// @Tags habits
// @Produce json
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Success 200 {object} response.SuccessResponse{data=Habit}
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 503 {object} response.ErrorResponse
// @Router /habits/{id}/complete [patch]
func (h *Handler) Complete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	habit, err := h.service.MarkComplete(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, habit)
}

// Delete godoc
// @Summary Delete a habit
// @Description Permanently removes a habit. Owner only.
// @Tags habits
// @Security BearerAuth
// @Param id path string true "Habit ID"
// @Success 204
// @Failure 403 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Router /habits/{id} [delete]
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), auth.CallerFrom(c), id); err != nil {
		response.FromError(c, err)
		return
	}

	response.NoContent(c)
}

// Progress godoc
// @Summary Streak progress
// @Description Current and longest streak plus 30-day completion percentage as of today
// @Tags habits
// @Produce json
// @Param id path string true "Habit ID"
// @Success 200 {object} response.SuccessResponse{data=Progress}
// @Failure 404 {object} response.ErrorResponse
// @Router /habits/{id}/progress [get]
func (h *Handler) Progress(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	progress, err := h.service.Progress(c.Request.Context(), auth.CallerFrom(c), id)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, progress)
}
