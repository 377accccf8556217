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

type progressStore interface {
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, entry *models.WorkProgressEntry) error
	GetByID(ctx context.Context, id string) (*models.WorkProgressEntry, error)
	List(ctx context.Context, filter models.ProgressFilter) ([]models.WorkProgressEntry, error)
	RecordDecisionWithTx(ctx context.Context, tx *sqlx.Tx, id string, decision models.ProgressStatus, reviewerID string, notes *string) error
}

type progressCascader interface {
	Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error
	CompletionSubmitted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, entry *models.WorkProgressEntry, actorID string) ([]models.NotificationEvent, error)
}

// ProgressService owns the append-only work progress log on awarded
// tenders. Submitting the first entry starts the work clock; a COMPLETION
// entry cascades the owning tender to WORK_COMPLETED in the same
// transaction.
type ProgressService struct {
	db         txProvider
	entries    progressStore
	tenders    tenderStore
	access     *AccessService
	dispatcher progressCascader
	delivery   deliveryEnqueuer
	logger     *zap.Logger
}

// NewProgressService constructs the service.
func NewProgressService(
	db txProvider,
	entries progressStore,
	tenders tenderStore,
	access *AccessService,
	dispatcher progressCascader,
	delivery deliveryEnqueuer,
	logger *zap.Logger,
) *ProgressService {
	return &ProgressService{
		db:         db,
		entries:    entries,
		tenders:    tenders,
		access:     access,
		dispatcher: dispatcher,
		delivery:   delivery,
		logger:     logger,
	}
}

// Submit files a contractor entry against a tender. The tender must be
// AWARDED or WORK_IN_PROGRESS; a first entry on an AWARDED tender starts
// the work automatically.
func (s *ProgressService) Submit(ctx context.Context, actor *models.Actor, tenderID string, entry *models.WorkProgressEntry) (*models.WorkProgressEntry, error) {
	if !entry.ProgressType.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown progress type")
	}

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
	if err := s.access.AuthorizeProgressSubmission(actor, tender); err != nil {
		return nil, err
	}

	switch tender.WorkflowStage {
	case models.TenderStageAwarded:
		now := time.Now().UTC()
		if err := s.tenders.AdvanceStageWithTx(ctx, tx, repository.TenderStageUpdate{
			ID:            tender.ID,
			From:          models.TenderStageAwarded,
			To:            models.TenderStageWorkInProgress,
			WorkStartedAt: &now,
		}); err != nil {
			if errors.Is(err, repository.ErrStaleStage) {
				return nil, appErrors.ErrConflictingState
			}
			return nil, appErrors.Internal(err, "start work")
		}
		if err := s.dispatcher.Record(ctx, tx, models.TransitionEvent{
			Entity: models.EntityTender, EntityID: tender.ID,
			From: string(models.TenderStageAwarded), To: string(models.TenderStageWorkInProgress),
			ActorID: actor.ID,
		}); err != nil {
			return nil, appErrors.Internal(err, "record work start")
		}
		tender.WorkflowStage = models.TenderStageWorkInProgress
	case models.TenderStageWorkInProgress:
	default:
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "tender is not accepting progress entries")
	}

	entry.TenderID = tender.ID
	entry.ContractorID = actor.ID
	entry.Status = models.ProgressStatusSubmitted
	entry.IsMilestone = entry.IsMilestone || entry.ProgressType == models.ProgressTypeMilestone
	if err := s.entries.CreateWithTx(ctx, tx, entry); err != nil {
		return nil, appErrors.Internal(err, "create progress entry")
	}
	if err := s.dispatcher.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityProgress, EntityID: entry.ID,
		From: string(models.ProgressStatusDraft), To: string(models.ProgressStatusSubmitted),
		ActorID: actor.ID,
	}); err != nil {
		return nil, appErrors.Internal(err, "record progress submission")
	}

	var events []models.NotificationEvent
	if entry.ProgressType == models.ProgressTypeCompletion {
		events, err = s.dispatcher.CompletionSubmitted(ctx, tx, tender, entry, actor.ID)
		if err != nil {
			if errors.Is(err, repository.ErrStaleStage) {
				return nil, appErrors.ErrConflictingState
			}
			return nil, appErrors.Internal(err, "cascade completion")
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit progress entry")
	}
	if len(events) > 0 {
		s.delivery.EnqueueDelivery(events)
	}
	s.logger.Info("progress submitted",
		zap.String("entry_id", entry.ID),
		zap.String("tender_id", tender.ID),
		zap.String("progress_type", string(entry.ProgressType)))
	return entry, nil
}

// Review records a terminal decision on a submitted entry.
func (s *ProgressService) Review(ctx context.Context, actor *models.Actor, entryID string, decision models.ProgressStatus, notes *string) (*models.WorkProgressEntry, error) {
	if !decision.Decided() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decision must be a terminal review status")
	}
	entry, err := s.loadEntry(ctx, entryID)
	if err != nil {
		return nil, err
	}
	tender, err := s.tenders.GetByID(ctx, entry.TenderID)
	if err != nil {
		return nil, appErrors.Internal(err, "load tender")
	}
	if err := s.access.AuthorizeProgressReview(actor, tender); err != nil {
		return nil, err
	}
	if entry.Status.Decided() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "entry is already decided")
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if err := s.entries.RecordDecisionWithTx(ctx, tx, entry.ID, decision, actor.ID, notes); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "record decision")
	}
	if err := s.dispatcher.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityProgress, EntityID: entry.ID,
		From: string(entry.Status), To: string(decision),
		ActorID: actor.ID,
	}); err != nil {
		return nil, appErrors.Internal(err, "record review transition")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit review")
	}

	s.logger.Info("progress reviewed",
		zap.String("entry_id", entry.ID),
		zap.String("decision", string(decision)),
		zap.String("reviewer_id", actor.ID))
	entry.Status = decision
	entry.ReviewedBy = &actor.ID
	entry.ReviewNotes = notes
	return entry, nil
}

// ListForTender returns a tender's progress log for anyone who may view
// the tender.
func (s *ProgressService) ListForTender(ctx context.Context, actor *models.Actor, tenderID string, filter models.ProgressFilter) ([]models.WorkProgressEntry, error) {
	tender, err := s.tenders.GetByID(ctx, tenderID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tender not found")
		}
		return nil, appErrors.Internal(err, "load tender")
	}
	if !s.access.CanViewTender(actor, tender) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule tender.VIEW")
	}
	filter.TenderID = tenderID
	entries, err := s.entries.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list progress entries")
	}
	return entries, nil
}

func (s *ProgressService) loadEntry(ctx context.Context, id string) (*models.WorkProgressEntry, error) {
	entry, err := s.entries.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "progress entry not found")
		}
		return nil, appErrors.Internal(err, "load progress entry")
	}
	return entry, nil
}
