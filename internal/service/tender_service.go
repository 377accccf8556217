package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/repository"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type tenderStore interface {
	Create(ctx context.Context, tender *models.Tender) error
	GetByID(ctx context.Context, id string) (*models.Tender, error)
	GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Tender, error)
	List(ctx context.Context, filter models.TenderFilter) ([]models.Tender, error)
	AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.TenderStageUpdate) error
}

type bidStore interface {
	Create(ctx context.Context, bid *models.Bid) error
	GetByID(ctx context.Context, id string) (*models.Bid, error)
	GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Bid, error)
	ListByTender(ctx context.Context, tenderID string) ([]models.Bid, error)
	ListByBidder(ctx context.Context, bidderID string) ([]models.Bid, error)
	AcceptedForTenderWithTx(ctx context.Context, tx *sqlx.Tx, tenderID string) (*models.Bid, error)
	UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, from, to models.BidStatus) error
	RejectSiblingsWithTx(ctx context.Context, tx *sqlx.Tx, tenderID, exceptBidID string) ([]models.Bid, error)
	CreateEvaluation(ctx context.Context, evaluation *models.BidEvaluation) error
	HasEvaluationBy(ctx context.Context, bidID, evaluatorID string) (bool, error)
	ListEvaluations(ctx context.Context, bidID string) ([]models.BidEvaluation, error)
}

type tenderCascader interface {
	Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error
	BidAccepted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid, rejected []models.Bid, actorID string) ([]models.NotificationEvent, error)
	BidRejected(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid) ([]models.NotificationEvent, error)
}

// TenderService owns the procurement lifecycle from creation through
// closure. Bid acceptance is the contested path: the tender row lock
// serializes competitors, the first committed acceptance wins, and a
// repeat acceptance of the same bid is a no-op.
type TenderService struct {
	db                 txProvider
	tenders            tenderStore
	bids               bidStore
	issues             issueStore
	access             *AccessService
	dispatcher         tenderCascader
	delivery           deliveryEnqueuer
	autoRejectSiblings bool
	logger             *zap.Logger
}

// NewTenderService constructs the service.
func NewTenderService(
	db txProvider,
	tenders tenderStore,
	bids bidStore,
	issues issueStore,
	access *AccessService,
	dispatcher tenderCascader,
	delivery deliveryEnqueuer,
	autoRejectSiblings bool,
	logger *zap.Logger,
) *TenderService {
	return &TenderService{
		db:                 db,
		tenders:            tenders,
		bids:               bids,
		issues:             issues,
		access:             access,
		dispatcher:         dispatcher,
		delivery:           delivery,
		autoRejectSiblings: autoRejectSiblings,
		logger:             logger,
	}
}

// Create opens a tender at CREATED in the acting admin's department. A
// source issue, when given, must already be delegated to that department.
func (s *TenderService) Create(ctx context.Context, actor *models.Actor, tender *models.Tender) (*models.Tender, error) {
	if err := s.access.AuthorizeTenderCreation(actor); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDepartmentAdmin {
		tender.DepartmentID = *actor.DepartmentID
	}
	if tender.DepartmentID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required")
	}
	if tender.SourceIssueID != nil {
		issue, err := s.issues.GetByID(ctx, *tender.SourceIssueID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "source issue not found")
			}
			return nil, appErrors.Internal(err, "load source issue")
		}
		if issue.AssignedDepartmentID == nil || *issue.AssignedDepartmentID != tender.DepartmentID {
			return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "source issue is not delegated to this department")
		}
		if issue.WorkflowStage.Terminal() {
			return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "source issue is already resolved")
		}
	}
	tender.WorkflowStage = models.TenderStageCreated
	tender.CreatedBy = actor.ID
	if err := s.tenders.Create(ctx, tender); err != nil {
		return nil, appErrors.Internal(err, "create tender")
	}
	s.logger.Info("tender created",
		zap.String("tender_id", tender.ID),
		zap.String("department_id", tender.DepartmentID))
	return tender, nil
}

// Get returns a tender the actor is allowed to see.
func (s *TenderService) Get(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	tender, err := s.loadTender(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanViewTender(actor, tender) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule tender.VIEW")
	}
	return tender, nil
}

// List returns tenders scoped to the actor's visibility.
func (s *TenderService) List(ctx context.Context, actor *models.Actor, filter models.TenderFilter) ([]models.Tender, error) {
	if actor == nil {
		return nil, appErrors.ErrUnidentified
	}
	switch actor.Role {
	case models.RolePlatformAdmin, models.RoleAreaSupervisor:
	case models.RoleDepartmentAdmin:
		if actor.DepartmentID == nil {
			return []models.Tender{}, nil
		}
		filter.DepartmentID = *actor.DepartmentID
	case models.RoleContractor:
		return s.listForContractor(ctx, actor, filter)
	default:
		return []models.Tender{}, nil
	}
	tenders, err := s.tenders.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list tenders")
	}
	return tenders, nil
}

// contractorOpenStages is the pre-award window every contractor may browse.
var contractorOpenStages = []models.TenderStage{
	models.TenderStageBiddingOpen,
	models.TenderStageBiddingClosed,
	models.TenderStageUnderReview,
}

// listForContractor applies the same visibility the detail rule grants:
// the public bidding window plus the contractor's own awards. A caller
// supplied stage filter is intersected with the window, never widened,
// and awarded tenders of other contractors stay hidden.
func (s *TenderService) listForContractor(ctx context.Context, actor *models.Actor, filter models.TenderFilter) ([]models.Tender, error) {
	public := filter
	public.Stage = intersectStages(filter.Stage, contractorOpenStages)

	tenders := []models.Tender{}
	if len(public.Stage) > 0 {
		got, err := s.tenders.List(ctx, public)
		if err != nil {
			return nil, appErrors.Internal(err, "list tenders")
		}
		tenders = got
	}

	own := filter
	own.ContractorID = actor.ID
	mine, err := s.tenders.List(ctx, own)
	if err != nil {
		return nil, appErrors.Internal(err, "list own tenders")
	}
	seen := make(map[string]struct{}, len(tenders))
	for i := range tenders {
		seen[tenders[i].ID] = struct{}{}
	}
	for i := range mine {
		if _, ok := seen[mine[i].ID]; !ok {
			tenders = append(tenders, mine[i])
		}
	}
	return tenders, nil
}

func intersectStages(requested, allowed []models.TenderStage) []models.TenderStage {
	if len(requested) == 0 {
		return allowed
	}
	out := make([]models.TenderStage, 0, len(requested))
	for _, stage := range requested {
		for _, a := range allowed {
			if stage == a {
				out = append(out, stage)
				break
			}
		}
	}
	return out
}

// OpenBidding moves a tender from CREATED to BIDDING_OPEN.
func (s *TenderService) OpenBidding(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	return s.advance(ctx, actor, id, TenderTransitionOpenBidding,
		models.TenderStageCreated, models.TenderStageBiddingOpen, repository.TenderStageUpdate{})
}

// CloseBidding moves a tender from BIDDING_OPEN to BIDDING_CLOSED.
func (s *TenderService) CloseBidding(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	return s.advance(ctx, actor, id, TenderTransitionCloseBidding,
		models.TenderStageBiddingOpen, models.TenderStageBiddingClosed, repository.TenderStageUpdate{})
}

// StartReview moves a tender from BIDDING_CLOSED to UNDER_REVIEW.
func (s *TenderService) StartReview(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	return s.advance(ctx, actor, id, TenderTransitionStartReview,
		models.TenderStageBiddingClosed, models.TenderStageUnderReview, repository.TenderStageUpdate{})
}

// StartWork moves an awarded tender into WORK_IN_PROGRESS.
func (s *TenderService) StartWork(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	now := time.Now().UTC()
	return s.advance(ctx, actor, id, TenderTransitionStartWork,
		models.TenderStageAwarded, models.TenderStageWorkInProgress,
		repository.TenderStageUpdate{WorkStartedAt: &now})
}

// Verify records the verification outcome, moving WORK_COMPLETED to VERIFIED.
func (s *TenderService) Verify(ctx context.Context, actor *models.Actor, id string, notes string) (*models.Tender, error) {
	return s.advance(ctx, actor, id, TenderTransitionVerify,
		models.TenderStageWorkCompleted, models.TenderStageVerified,
		repository.TenderStageUpdate{VerificationNotes: &notes})
}

// Close moves a verified tender to its terminal CLOSED stage.
func (s *TenderService) Close(ctx context.Context, actor *models.Actor, id string) (*models.Tender, error) {
	return s.advance(ctx, actor, id, TenderTransitionClose,
		models.TenderStageVerified, models.TenderStageClosed, repository.TenderStageUpdate{})
}

func (s *TenderService) advance(ctx context.Context, actor *models.Actor, id string, kind TenderTransition, from, to models.TenderStage, upd repository.TenderStageUpdate) (*models.Tender, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tender, err := s.tenders.GetWithTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	if err := s.access.AuthorizeTenderTransition(actor, tender, kind); err != nil {
		return nil, err
	}
	if tender.WorkflowStage != from {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			"tender is in stage "+string(tender.WorkflowStage)+", expected "+string(from))
	}

	upd.ID = tender.ID
	upd.From = from
	upd.To = to
	if err := s.tenders.AdvanceStageWithTx(ctx, tx, upd); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "advance tender")
	}
	if err := s.dispatcher.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityTender, EntityID: tender.ID,
		From: string(from), To: string(to), ActorID: actor.ID,
	}); err != nil {
		return nil, appErrors.Internal(err, "record tender transition")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit tender transition")
	}

	s.logger.Info("tender transitioned",
		zap.String("tender_id", tender.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.ID))
	tender.WorkflowStage = to
	return tender, nil
}

// SubmitBid places a contractor offer on a tender in BIDDING_OPEN. A
// contractor holds at most one undecided bid per tender.
func (s *TenderService) SubmitBid(ctx context.Context, actor *models.Actor, tenderID string, amount float64, proposal string) (*models.Bid, error) {
	if err := s.access.AuthorizeBidSubmission(actor); err != nil {
		return nil, err
	}
	tender, err := s.loadTender(ctx, tenderID)
	if err != nil {
		return nil, err
	}
	if tender.WorkflowStage != models.TenderStageBiddingOpen {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "tender is not open for bidding")
	}
	existing, err := s.bids.ListByTender(ctx, tenderID)
	if err != nil {
		return nil, appErrors.Internal(err, "list bids")
	}
	for i := range existing {
		if existing[i].BidderID == actor.ID && !existing[i].Status.Decided() {
			return nil, appErrors.Clone(appErrors.ErrConflictingState, "an undecided bid by this contractor already exists")
		}
	}
	bid := &models.Bid{
		TenderID: tenderID,
		BidderID: actor.ID,
		Amount:   amount,
		Proposal: proposal,
		Status:   models.BidStatusSubmitted,
	}
	if err := s.bids.Create(ctx, bid); err != nil {
		return nil, appErrors.Internal(err, "create bid")
	}
	s.logger.Info("bid submitted",
		zap.String("bid_id", bid.ID),
		zap.String("tender_id", tenderID),
		zap.String("bidder_id", actor.ID))
	return bid, nil
}

// ListBids returns the bids on a tender: owning admins see all, a
// contractor sees only their own.
func (s *TenderService) ListBids(ctx context.Context, actor *models.Actor, tenderID string) ([]models.Bid, error) {
	tender, err := s.Get(ctx, actor, tenderID)
	if err != nil {
		return nil, err
	}
	bids, err := s.bids.ListByTender(ctx, tender.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "list bids")
	}
	if actor.Role == models.RoleContractor {
		own := bids[:0]
		for i := range bids {
			if bids[i].BidderID == actor.ID {
				own = append(own, bids[i])
			}
		}
		return own, nil
	}
	return bids, nil
}

// ListOwnBids returns the acting contractor's bids across all tenders,
// newest first.
func (s *TenderService) ListOwnBids(ctx context.Context, actor *models.Actor) ([]models.Bid, error) {
	if err := s.access.AuthorizeBidSubmission(actor); err != nil {
		return nil, err
	}
	bids, err := s.bids.ListByBidder(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "list own bids")
	}
	return bids, nil
}

// EvaluateBid appends a scored evaluation; one per evaluator per bid. The
// first evaluation moves a SUBMITTED bid to UNDER_EVALUATION.
func (s *TenderService) EvaluateBid(ctx context.Context, actor *models.Actor, bidID string, evaluation *models.BidEvaluation) (*models.BidEvaluation, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	tender, err := s.loadTender(ctx, bid.TenderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeTenderTransition(actor, tender, TenderTransitionStartReview); err != nil {
		return nil, err
	}
	if bid.Status.Decided() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "bid is already decided")
	}
	if !tender.WorkflowStage.Awardable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "tender is not in an evaluation stage")
	}
	already, err := s.bids.HasEvaluationBy(ctx, bidID, actor.ID)
	if err != nil {
		return nil, appErrors.Internal(err, "check evaluation")
	}
	if already {
		return nil, appErrors.Clone(appErrors.ErrConflictingState, "evaluator already scored this bid")
	}

	evaluation.BidID = bidID
	evaluation.EvaluatorID = actor.ID
	evaluation.TotalScore = (evaluation.TechnicalScore + evaluation.FinancialScore + evaluation.ExperienceScore) / 3
	if err := s.bids.CreateEvaluation(ctx, evaluation); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvaluation) {
			return nil, appErrors.Clone(appErrors.ErrConflictingState, "evaluator already scored this bid")
		}
		return nil, appErrors.Internal(err, "create evaluation")
	}

	if bid.Status == models.BidStatusSubmitted {
		if err := s.decideBid(ctx, actor, bid, models.BidStatusUnderEvaluation, nil); err != nil {
			s.logger.Warn("bid did not move to under evaluation", zap.Error(err),
				zap.String("bid_id", bidID))
		}
	}
	return evaluation, nil
}

// ListEvaluations returns the evaluations on a bid for the owning admins.
func (s *TenderService) ListEvaluations(ctx context.Context, actor *models.Actor, bidID string) ([]models.BidEvaluation, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	tender, err := s.loadTender(ctx, bid.TenderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeTenderTransition(actor, tender, TenderTransitionStartReview); err != nil {
		return nil, err
	}
	evaluations, err := s.bids.ListEvaluations(ctx, bidID)
	if err != nil {
		return nil, appErrors.Internal(err, "list evaluations")
	}
	return evaluations, nil
}

// AcceptBid awards the tender to a bid. The tender row lock serializes
// concurrent acceptances: the first committed winner holds, a repeat
// acceptance of the same bid returns the already-awarded state unchanged,
// and accepting a different bid after an award is a conflict.
func (s *TenderService) AcceptBid(ctx context.Context, actor *models.Actor, tenderID, bidID string) (*models.Bid, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	tender, err := s.tenders.GetWithTx(ctx, tx, tenderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	if err := s.access.AuthorizeTenderTransition(actor, tender, TenderTransitionAcceptBid); err != nil {
		return nil, err
	}

	accepted, err := s.bids.AcceptedForTenderWithTx(ctx, tx, tenderID)
	if err != nil {
		return nil, appErrors.Internal(err, "find accepted bid")
	}
	if accepted != nil {
		if accepted.ID == bidID {
			return accepted, nil
		}
		return nil, appErrors.Clone(appErrors.ErrConflictingState, "another bid already holds the award")
	}
	if !tender.WorkflowStage.Awardable() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "tender is not in an awardable stage")
	}

	bid, err := s.bids.GetWithTx(ctx, tx, bidID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bid not found")
		}
		return nil, appErrors.Internal(err, "load bid")
	}
	if bid.TenderID != tenderID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "bid does not belong to this tender")
	}
	if bid.Status.Decided() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "bid is already decided")
	}

	if err := s.bids.UpdateStatusWithTx(ctx, tx, bid.ID, bid.Status, models.BidStatusAccepted); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "accept bid")
	}

	var rejected []models.Bid
	if s.autoRejectSiblings {
		rejected, err = s.bids.RejectSiblingsWithTx(ctx, tx, tenderID, bid.ID)
		if err != nil {
			return nil, appErrors.Internal(err, "reject sibling bids")
		}
	}

	now := time.Now().UTC()
	if err := s.tenders.AdvanceStageWithTx(ctx, tx, repository.TenderStageUpdate{
		ID:                  tender.ID,
		From:                tender.WorkflowStage,
		To:                  models.TenderStageAwarded,
		AwardedContractorID: &bid.BidderID,
		AwardedAmount:       &bid.Amount,
		AwardedAt:           &now,
	}); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "award tender")
	}

	events, err := s.dispatcher.BidAccepted(ctx, tx, tender, bid, rejected, actor.ID)
	if err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "cascade bid acceptance")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit bid acceptance")
	}
	s.delivery.EnqueueDelivery(events)

	s.logger.Info("bid accepted",
		zap.String("tender_id", tender.ID),
		zap.String("bid_id", bid.ID),
		zap.String("contractor_id", bid.BidderID),
		zap.Int("siblings_rejected", len(rejected)))

	bid.Status = models.BidStatusAccepted
	bid.DecidedAt = &now
	return bid, nil
}

// RejectBid declines an undecided bid and notifies the bidder.
func (s *TenderService) RejectBid(ctx context.Context, actor *models.Actor, bidID string) (*models.Bid, error) {
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	tender, err := s.loadTender(ctx, bid.TenderID)
	if err != nil {
		return nil, err
	}
	if err := s.access.AuthorizeTenderTransition(actor, tender, TenderTransitionRejectBid); err != nil {
		return nil, err
	}
	if bid.Status.Decided() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "bid is already decided")
	}
	if err := s.decideBid(ctx, actor, bid, models.BidStatusRejected, tender); err != nil {
		return nil, err
	}
	bid.Status = models.BidStatusRejected
	return bid, nil
}

// WithdrawBid lets a contractor pull their own undecided bid.
func (s *TenderService) WithdrawBid(ctx context.Context, actor *models.Actor, bidID string) (*models.Bid, error) {
	if err := s.access.AuthorizeBidSubmission(actor); err != nil {
		return nil, err
	}
	bid, err := s.loadBid(ctx, bidID)
	if err != nil {
		return nil, err
	}
	if bid.BidderID != actor.ID {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule bid.WITHDRAW.owner")
	}
	if bid.Status.Decided() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "bid is already decided")
	}
	if err := s.decideBid(ctx, actor, bid, models.BidStatusWithdrawn, nil); err != nil {
		return nil, err
	}
	bid.Status = models.BidStatusWithdrawn
	return bid, nil
}

// decideBid applies a guarded bid status change in its own transaction and
// records the transition. A BID_REJECTED notification is written when the
// owning tender is provided.
func (s *TenderService) decideBid(ctx context.Context, actor *models.Actor, bid *models.Bid, to models.BidStatus, tender *models.Tender) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.bids.UpdateStatusWithTx(ctx, tx, bid.ID, bid.Status, to); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return appErrors.ErrConflictingState
		}
		return appErrors.Internal(err, "update bid status")
	}
	if err := s.dispatcher.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityBid, EntityID: bid.ID,
		From: string(bid.Status), To: string(to), ActorID: actor.ID,
	}); err != nil {
		return appErrors.Internal(err, "record bid transition")
	}
	var events []models.NotificationEvent
	if to == models.BidStatusRejected && tender != nil {
		events, err = s.dispatcher.BidRejected(ctx, tx, tender, bid)
		if err != nil {
			return appErrors.Internal(err, "notify rejected bidder")
		}
	}
	if err := tx.Commit(); err != nil {
		return appErrors.Internal(err, "commit bid decision")
	}
	if len(events) > 0 {
		s.delivery.EnqueueDelivery(events)
	}
	return nil
}

func (s *TenderService) loadTender(ctx context.Context, id string) (*models.Tender, error) {
	tender, err := s.tenders.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	return tender, nil
}

func (s *TenderService) loadBid(ctx context.Context, id string) (*models.Bid, error) {
	bid, err := s.bids.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bid not found")
		}
		return nil, appErrors.Internal(err, "load bid")
	}
	return bid, nil
}
