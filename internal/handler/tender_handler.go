package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/opencivic/civicflow-api/internal/dto"
	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/service"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/response"
)

// TenderHandler exposes the tender lifecycle endpoints.
type TenderHandler struct {
	tenders  *service.TenderService
	validate *validator.Validate
}

// NewTenderHandler constructs TenderHandler.
func NewTenderHandler(tenders *service.TenderService, validate *validator.Validate) *TenderHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &TenderHandler{tenders: tenders, validate: validate}
}

// Create godoc
// @Summary Create a tender
// @Tags Tenders
// @Accept json
// @Produce json
// @Param payload body dto.CreateTenderRequest true "Tender payload"
// @Success 201 {object} response.Envelope
// @Router /tenders [post]
func (h *TenderHandler) Create(c *gin.Context) {
	var req dto.CreateTenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tender, err := h.tenders.Create(c.Request.Context(), actorFromContext(c), &models.Tender{
		Reference:     req.Reference,
		Title:         req.Title,
		Description:   req.Description,
		SourceIssueID: req.SourceIssueID,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, tender)
}

// List godoc
// @Summary List tenders visible to the actor
// @Tags Tenders
// @Produce json
// @Param stage query string false "Comma separated stage filter"
// @Param department query string false "Department filter"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tenders [get]
func (h *TenderHandler) List(c *gin.Context) {
	limit, offset := pageWindow(c)
	filter := models.TenderFilter{
		DepartmentID: c.Query("department"),
		Limit:        limit,
		Offset:       offset,
	}
	for _, s := range splitStages(c.Query("stage")) {
		filter.Stage = append(filter.Stage, models.TenderStage(s))
	}
	tenders, err := h.tenders.List(c.Request.Context(), actorFromContext(c), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tenders, nil)
}

// Get godoc
// @Summary Get tender detail
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id} [get]
func (h *TenderHandler) Get(c *gin.Context) {
	tender, err := h.tenders.Get(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tender, nil)
}

// OpenBidding godoc
// @Summary Open a tender for bidding
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/open-bidding [post]
func (h *TenderHandler) OpenBidding(c *gin.Context) {
	h.transition(c, h.tenders.OpenBidding)
}

// CloseBidding godoc
// @Summary Close the bidding window
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/close-bidding [post]
func (h *TenderHandler) CloseBidding(c *gin.Context) {
	h.transition(c, h.tenders.CloseBidding)
}

// StartReview godoc
// @Summary Move a tender into bid review
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/start-review [post]
func (h *TenderHandler) StartReview(c *gin.Context) {
	h.transition(c, h.tenders.StartReview)
}

// StartWork godoc
// @Summary Start work on an awarded tender
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/start-work [post]
func (h *TenderHandler) StartWork(c *gin.Context) {
	h.transition(c, h.tenders.StartWork)
}

// Close godoc
// @Summary Close a verified tender
// @Tags Tenders
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/close [post]
func (h *TenderHandler) Close(c *gin.Context) {
	h.transition(c, h.tenders.Close)
}

// Verify godoc
// @Summary Record the verification outcome on completed work
// @Tags Tenders
// @Accept json
// @Produce json
// @Param id path string true "Tender ID"
// @Param payload body dto.VerifyTenderRequest true "Verification payload"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/verify [post]
func (h *TenderHandler) Verify(c *gin.Context) {
	var req dto.VerifyTenderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	tender, err := h.tenders.Verify(c.Request.Context(), actorFromContext(c), c.Param("id"), req.VerificationNotes)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tender, nil)
}

func (h *TenderHandler) transition(c *gin.Context, op func(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error)) {
	tender, err := op(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, tender, nil)
}
