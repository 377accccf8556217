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

// BidHandler exposes bid submission, evaluation, and decision endpoints.
type BidHandler struct {
	tenders  *service.TenderService
	validate *validator.Validate
}

// NewBidHandler constructs BidHandler.
func NewBidHandler(tenders *service.TenderService, validate *validator.Validate) *BidHandler {
	if validate == nil {
		validate = dto.NewValidator()
	}
	return &BidHandler{tenders: tenders, validate: validate}
}

// Submit godoc
// @Summary Submit a bid on an open tender
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path string true "Tender ID"
// @Param payload body dto.SubmitBidRequest true "Bid payload"
// @Success 201 {object} response.Envelope
// @Router /tenders/{id}/bids [post]
func (h *BidHandler) Submit(c *gin.Context) {
	var req dto.SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	bid, err := h.tenders.SubmitBid(c.Request.Context(), actorFromContext(c), c.Param("id"), req.Amount, req.Proposal)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, bid)
}

// List godoc
// @Summary List the bids on a tender
// @Tags Bids
// @Produce json
// @Param id path string true "Tender ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/bids [get]
func (h *BidHandler) List(c *gin.Context) {
	bids, err := h.tenders.ListBids(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bids, nil)
}

// ListOwn godoc
// @Summary List the acting contractor's bids
// @Tags Bids
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /bids [get]
func (h *BidHandler) ListOwn(c *gin.Context) {
	bids, err := h.tenders.ListOwnBids(c.Request.Context(), actorFromContext(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bids, nil)
}

// Accept godoc
// @Summary Accept a bid, awarding the tender
// @Tags Bids
// @Produce json
// @Param id path string true "Tender ID"
// @Param bidId path string true "Bid ID"
// @Success 200 {object} response.Envelope
// @Router /tenders/{id}/bids/{bidId}/accept [post]
func (h *BidHandler) Accept(c *gin.Context) {
	bid, err := h.tenders.AcceptBid(c.Request.Context(), actorFromContext(c), c.Param("id"), c.Param("bidId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bid, nil)
}

// Reject godoc
// @Summary Reject an undecided bid
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} response.Envelope
// @Router /bids/{id}/reject [post]
func (h *BidHandler) Reject(c *gin.Context) {
	bid, err := h.tenders.RejectBid(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bid, nil)
}

// Withdraw godoc
// @Summary Withdraw the actor's own bid
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} response.Envelope
// @Router /bids/{id}/withdraw [post]
func (h *BidHandler) Withdraw(c *gin.Context) {
	bid, err := h.tenders.WithdrawBid(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bid, nil)
}

// Evaluate godoc
// @Summary Append a scored evaluation to a bid
// @Tags Bids
// @Accept json
// @Produce json
// @Param id path string true "Bid ID"
// @Param payload body dto.EvaluateBidRequest true "Evaluation payload"
// @Success 201 {object} response.Envelope
// @Router /bids/{id}/evaluations [post]
func (h *BidHandler) Evaluate(c *gin.Context) {
	var req dto.EvaluateBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	evaluation, err := h.tenders.EvaluateBid(c.Request.Context(), actorFromContext(c), c.Param("id"), &models.BidEvaluation{
		TechnicalScore:  req.TechnicalScore,
		FinancialScore:  req.FinancialScore,
		ExperienceScore: req.ExperienceScore,
		Recommendation:  models.EvaluationRecommendation(req.Recommendation),
		Comments:        req.Comments,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, evaluation)
}

// ListEvaluations godoc
// @Summary List the evaluations on a bid
// @Tags Bids
// @Produce json
// @Param id path string true "Bid ID"
// @Success 200 {object} response.Envelope
// @Router /bids/{id}/evaluations [get]
func (h *BidHandler) ListEvaluations(c *gin.Context) {
	evaluations, err := h.tenders.ListEvaluations(c.Request.Context(), actorFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, evaluations, nil)
}
