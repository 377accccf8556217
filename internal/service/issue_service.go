package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/repository"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

type deliveryEnqueuer interface {
	EnqueueDelivery(events []models.NotificationEvent)
}

type issueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	GetByID(ctx context.Context, id string) (*models.Issue, error)
	GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Issue, error)
	List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error)
	AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error
}

type issueCascader interface {
	Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error
	IssueResolved(ctx context.Context, tx *sqlx.Tx, issue *models.Issue, actorID string) ([]models.NotificationEvent, error)
}

type transitionLogReader interface {
	ListForEntity(ctx context.Context, entity models.EntityKind, entityID string) ([]models.TransitionRecord, error)
}

// IssueService owns the issue lifecycle: reporting, the scoped read
// surface, and the transitions not driven by delegation or tendering.
// Each transition runs in its own transaction under the issue row lock.
type IssueService struct {
	db          txProvider
	issues      issueStore
	transitions transitionLogReader
	access      *AccessService
	dispatcher  issueCascader
	delivery    deliveryEnqueuer
	logger      *zap.Logger
}

// NewIssueService constructs the service.
func NewIssueService(
	db txProvider,
	issues issueStore,
	transitions transitionLogReader,
	access *AccessService,
	dispatcher issueCascader,
	delivery deliveryEnqueuer,
	logger *zap.Logger,
) *IssueService {
	return &IssueService{
		db:          db,
		issues:      issues,
		transitions: transitions,
		access:      access,
		dispatcher:  dispatcher,
		delivery:    delivery,
		logger:      logger,
	}
}

// Report files a new issue at REPORTED on behalf of the acting citizen.
// Any authenticated actor may report.
func (s *IssueService) Report(ctx context.Context, actor *models.Actor, req *models.Issue) (*models.Issue, error) {
	if actor == nil {
		return nil, appErrors.ErrUnidentified
	}
	issue := &models.Issue{
		Title:         req.Title,
		Description:   req.Description,
		Category:      req.Category,
		Location:      req.Location,
		ReporterID:    actor.ID,
		WorkflowStage: models.IssueStageReported,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, appErrors.Internal(err, "report issue")
	}
	s.logger.Info("issue reported",
		zap.String("issue_id", issue.ID),
		zap.String("reporter_id", actor.ID))
	return issue, nil
}

// Get returns an issue the actor is allowed to see.
func (s *IssueService) Get(ctx context.Context, actor *models.Actor, id string) (*models.Issue, error) {
	issue, err := s.loadIssue(ctx, id)
	if err != nil {
		return nil, err
	}
	if !s.access.CanViewIssue(actor, issue) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule issue.VIEW")
	}
	return issue, nil
}

// List returns issues scoped to what the actor may see: citizens their own
// reports, supervisors their area, department admins their department,
// contractors their assignments, platform admins everything.
func (s *IssueService) List(ctx context.Context, actor *models.Actor, filter models.IssueFilter) ([]models.Issue, error) {
	if actor == nil {
		return nil, appErrors.ErrUnidentified
	}
	switch actor.Role {
	case models.RolePlatformAdmin:
	case models.RoleCitizen:
		filter.ReporterID = actor.ID
	case models.RoleAreaSupervisor:
		if actor.AreaID == nil {
			return []models.Issue{}, nil
		}
		filter.AreaID = *actor.AreaID
	case models.RoleDepartmentAdmin:
		if actor.DepartmentID == nil {
			return []models.Issue{}, nil
		}
		filter.DepartmentID = *actor.DepartmentID
	case models.RoleContractor:
		filter.AssigneeID = actor.ID
	default:
		return []models.Issue{}, nil
	}
	issues, err := s.issues.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Internal(err, "list issues")
	}
	return issues, nil
}

// History returns the audit trail for an issue the actor may see.
func (s *IssueService) History(ctx context.Context, actor *models.Actor, id string) ([]models.TransitionRecord, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return nil, err
	}
	records, err := s.transitions.ListForEntity(ctx, models.EntityIssue, id)
	if err != nil {
		return nil, appErrors.Internal(err, "load issue history")
	}
	return records, nil
}

// Complete moves an issue from IN_PROGRESS to DEPARTMENT_REVIEW, triggered
// by the current assignee or a supervising role.
func (s *IssueService) Complete(ctx context.Context, actor *models.Actor, id string) (*models.Issue, error) {
	return s.transition(ctx, actor, id, IssueTransitionComplete,
		models.IssueStageInProgress, models.IssueStageDepartmentReview, nil)
}

// Resolve moves an issue from DEPARTMENT_REVIEW to its terminal RESOLVED
// stage and notifies the original reporter.
func (s *IssueService) Resolve(ctx context.Context, actor *models.Actor, id string, notes string) (*models.Issue, error) {
	return s.transition(ctx, actor, id, IssueTransitionResolve,
		models.IssueStageDepartmentReview, models.IssueStageResolved, &notes)
}

func (s *IssueService) transition(ctx context.Context, actor *models.Actor, id string, kind IssueTransition, from, to models.IssueStage, resolutionNotes *string) (*models.Issue, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	issue, err := s.issues.GetWithTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Internal(err, "load issue")
	}
	if err := s.access.AuthorizeIssueTransition(actor, issue, kind); err != nil {
		return nil, err
	}
	if issue.WorkflowStage.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "issue is resolved and immutable")
	}
	if issue.WorkflowStage != from {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			"issue is in stage "+string(issue.WorkflowStage)+", expected "+string(from))
	}

	upd := repository.IssueStageUpdate{
		ID:              issue.ID,
		From:            from,
		To:              to,
		ResolutionNotes: resolutionNotes,
	}
	if err := s.issues.AdvanceStageWithTx(ctx, tx, upd); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "advance issue")
	}

	var events []models.NotificationEvent
	if to == models.IssueStageResolved {
		events, err = s.dispatcher.IssueResolved(ctx, tx, issue, actor.ID)
	} else {
		err = s.dispatcher.Record(ctx, tx, models.TransitionEvent{
			Entity: models.EntityIssue, EntityID: issue.ID,
			From: string(from), To: string(to), ActorID: actor.ID,
		})
	}
	if err != nil {
		return nil, appErrors.Internal(err, "record issue transition")
	}

	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit issue transition")
	}
	if len(events) > 0 {
		s.delivery.EnqueueDelivery(events)
	}
	s.logger.Info("issue transitioned",
		zap.String("issue_id", issue.ID),
		zap.String("from", string(from)),
		zap.String("to", string(to)),
		zap.String("actor_id", actor.ID))

	issue.WorkflowStage = to
	if resolutionNotes != nil {
		issue.ResolutionNotes = resolutionNotes
	}
	return issue, nil
}

func (s *IssueService) loadIssue(ctx context.Context, id string) (*models.Issue, error) {
	issue, err := s.issues.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Internal(err, "load issue")
	}
	return issue, nil
}
