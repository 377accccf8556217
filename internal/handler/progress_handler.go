package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/opencivic/civicflow-api/internal/dto"
	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/service"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// ProgressHandler exposes the work progress log endpoints.
type ProgressHandler struct {
	progress *service.ProgressService
	validate *validator.Validate
}

// NewProgressHandler constructs ProgressHandler.
func NewProgressHandler(progress *service.ProgressService, validate *validator.Validate) *ProgressHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &ProgressHandler{progress: progress, validate: validate}
}

// Submit godoc
// @Summary File a progress entry against a tender
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Tender ID"
// @Param payload body dto.SubmitProgressRequest true "Progress payload"
// @Success 201 {object} response.Envelope
// @Router /tenders/{id}/progress [post]
func (h *ProgressHandler) Submit(c *gin.Context) {
	var req dto.SubmitProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.progress.Submit(c.Request.Context(), actorFromContext(c), c.Param("id"), &models.WorkProgressEntry{
		ProgressType:       models.ProgressType(req.ProgressType),
		ProgressPercentage: req.ProgressPercentage,
		Description:        req.Description,
		IsMilestone:        req.IsMilestone,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, entry)
}

// List godoc
// @Summary List a tender's progress entries
// @Tags Progress
// @Produce json
// @Param id path string true "Tender ID"
// @Param milestones query bool false "Milestones only"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/progress [get]
func (h *ProgressHandler) List(c *gin.Context) {
	limit, offset := pageWindow(c)
	filter := models.ProgressFilter{
		MilestonesOnly: c.Query("milestones") == "true",
		Limit:          limit,
		Offset:         offset,
	}
	entries, err := h.progress.ListForTender(c.Request.Context(), actorFromContext(c), c.Param("id"), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Review godoc
// @Summary Record the review decision on a progress entry
// @Tags Progress
// @Accept json
// @Produce json
// @Param id path string true "Progress entry ID"
// @Param payload body dto.ReviewProgressRequest true "Review payload"
// @Success 200 {object} response.Envelope
// @Router /progress/{id}/review [post]
func (h *ProgressHandler) Review(c *gin.Context) {
	var req dto.ReviewProgressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	entry, err := h.progress.Review(c.Request.Context(), actorFromContext(c), c.Param("id"),
		models.ProgressStatus(req.Decision), req.ReviewNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entry, nil)
}
