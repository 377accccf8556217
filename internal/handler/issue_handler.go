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

// IssueHandler exposes the issue lifecycle endpoints.
type IssueHandler struct {
	issues      *service.IssueService
	assignments *service.AssignmentService
	validate    *validator.Validate
}

// NewIssueHandler constructs IssueHandler.
func NewIssueHandler(issues *service.IssueService, assignments *service.AssignmentService, validate *validator.Validate) *IssueHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &IssueHandler{issues: issues, assignments: assignments, validate: validate}
}

// Report godoc
// @Summary Report a new issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param payload body dto.ReportIssueRequest true "Issue payload"
// @Success 201 {object} response.Envelope
// @Router /issues [post]
func (h *IssueHandler) Report(c *gin.Context) {
	var req dto.ReportIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	issue, err := h.issues.Report(c.Request.Context(), actorFromContext(c), &models.Issue{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, issue)
}

// List godoc
// @Summary List issues visible to the actor
// @Tags Issues
// @Produce json
// @Param stage query string false "Comma separated stage filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /issues [get]
func (h *IssueHandler) List(c *gin.Context) {
	limit, offset := pageWindow(c)
	filter := models.IssueFilter{Limit: limit, Offset: offset}
	for _, s := range splitStages(c.Query("stage")) {
		filter.Stage = append(filter.Stage, models.IssueStage(s))
	}
	issues, err := h.issues.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issues, nil)
}

// Get godoc
// @Summary Get issue detail
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id} [get]
func (h *IssueHandler) Get(c *gin.Context) {
	issue, err := h.issues.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// History godoc
// @Summary Get the issue transition audit trail
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/history [get]
func (h *IssueHandler) History(c *gin.Context) {
	records, err := h.issues.History(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, records, nil)
}

// Delegate godoc
// @Summary Delegate an issue down one tier
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.DelegateIssueRequest true "Delegation payload"
// @Success 201 {object} response.Envelope
// @Router /issues/{id}/assignments [post]
func (h *IssueHandler) Delegate(c *gin.Context) {
	var req dto.DelegateIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	assignment, err := h.assignments.Delegate(c.Request.Context(), actorFromContext(c), service.DelegationRequest{
		IssueID:      c.Param("id"),
		Type:         models.AssignmentType(req.AssignmentType),
		AreaID:       req.AreaID,
		DepartmentID: req.DepartmentID,
		AssigneeID:   req.AssigneeID,
		Notes:        req.Notes,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// ListAssignments godoc
// @Summary List an issue's delegation history
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/assignments [get]
func (h *IssueHandler) ListAssignments(c *gin.Context) {
	assignments, err := h.assignments.ListForIssue(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// Complete godoc
// @Summary Mark the assigned work complete, moving the issue to review
// @Tags Issues
// @Produce json
// @Param id path string true "Issue ID"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/complete [post]
func (h *IssueHandler) Complete(c *gin.Context) {
	issue, err := h.issues.Complete(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}

// Resolve godoc
// @Summary Resolve a reviewed issue
// @Tags Issues
// @Accept json
// @Produce json
// @Param id path string true "Issue ID"
// @Param payload body dto.ResolveIssueRequest true "Resolution payload"
// @Success 200 {object} response.Envelope
// @Router /issues/{id}/resolve [post]
func (h *IssueHandler) Resolve(c *gin.Context) {
	var req dto.ResolveIssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	issue, err := h.issues.Resolve(c.Request.Context(), actorFromContext(c), c.Param("id"), req.ResolutionNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, issue, nil)
}
