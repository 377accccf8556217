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

type assignmentStore interface {
	ListByIssue(ctx context.Context, issueID string) ([]models.Assignment, error)
	ReassignActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (int64, error)
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, assignment *models.Assignment) error
}

type assignmentCascader interface {
	AssignmentCreated(ctx context.Context, tx *sqlx.Tx, issue *models.Issue, assignment *models.Assignment, actorID string) error
}

type referenceChecker interface {
	RequireActiveArea(ctx context.Context, id string) (*models.Area, error)
	RequireActiveDepartment(ctx context.Context, id string) (*models.Department, error)
	GetActor(ctx context.Context, id string) (*models.Actor, error)
}

// DelegationRequest carries the validated inputs of a delegation.
type DelegationRequest struct {
	IssueID      string
	Type         models.AssignmentType
	AreaID       *string
	DepartmentID *string
	AssigneeID   *string
	Notes        *string
}

// AssignmentService records delegations down the administrative chain.
// Creating an assignment closes any prior ACTIVE one of the same type and
// mirrors the hand-off onto the issue inside one transaction.
type AssignmentService struct {
	db          txProvider
	issues      issueStore
	assignments assignmentStore
	directory   referenceChecker
	access      *AccessService
	dispatcher  assignmentCascader
	logger      *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(
	db txProvider,
	issues issueStore,
	assignments assignmentStore,
	directory referenceChecker,
	access *AccessService,
	dispatcher assignmentCascader,
	logger *zap.Logger,
) *AssignmentService {
	return &AssignmentService{
		db:          db,
		issues:      issues,
		assignments: assignments,
		directory:   directory,
		access:      access,
		dispatcher:  dispatcher,
		logger:      logger,
	}
}

// Delegate hands an issue down one tier. The issue must sit at the stage
// the assignment type departs from, or already at the target stage for a
// same-tier reassignment.
func (s *AssignmentService) Delegate(ctx context.Context, actor *models.Actor, req DelegationRequest) (*models.Assignment, error) {
	if !req.Type.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown assignment type")
	}
	assignment, err := s.buildAssignment(ctx, actor, req)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, appErrors.Internal(err, "begin transaction")
	}
	defer func() { _ = tx.Rollback() }()

	issue, err := s.issues.GetWithTx(ctx, tx, req.IssueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Internal(err, "load issue")
	}
	if err := s.access.AuthorizeDelegation(actor, issue, req.Type); err != nil {
		return nil, err
	}
	if issue.WorkflowStage.Terminal() {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition, "issue is resolved and immutable")
	}
	target := req.Type.TargetStage()
	if issue.WorkflowStage != target && !issue.WorkflowStage.CanAdvanceTo(target) {
		return nil, appErrors.Clone(appErrors.ErrInvalidTransition,
			"issue in stage "+string(issue.WorkflowStage)+" cannot accept a "+string(req.Type)+" assignment")
	}

	closed, err := s.assignments.ReassignActiveWithTx(ctx, tx, issue.ID, req.Type)
	if err != nil {
		return nil, appErrors.Internal(err, "close prior assignment")
	}
	if err := s.assignments.CreateWithTx(ctx, tx, assignment); err != nil {
		return nil, appErrors.Internal(err, "create assignment")
	}
	if err := s.dispatcher.AssignmentCreated(ctx, tx, issue, assignment, actor.ID); err != nil {
		if errors.Is(err, repository.ErrStaleStage) {
			return nil, appErrors.ErrConflictingState
		}
		return nil, appErrors.Internal(err, "mirror assignment")
	}
	if err := tx.Commit(); err != nil {
		return nil, appErrors.Internal(err, "commit delegation")
	}

	s.logger.Info("issue delegated",
		zap.String("issue_id", issue.ID),
		zap.String("assignment_type", string(req.Type)),
		zap.String("assigned_by", actor.ID),
		zap.Int64("closed_prior", closed))
	return assignment, nil
}

// ListForIssue returns the full delegation history of an issue.
func (s *AssignmentService) ListForIssue(ctx context.Context, actor *models.Actor, issueID string) ([]models.Assignment, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "issue not found")
		}
		return nil, appErrors.Internal(err, "load issue")
	}
	if !s.access.CanViewIssue(actor, issue) {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "denied by rule issue.VIEW")
	}
	assignments, err := s.assignments.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, appErrors.Internal(err, "list assignments")
	}
	return assignments, nil
}

// buildAssignment validates the delegation target against the directory.
// New delegations only reference active areas, departments, and actors.
func (s *AssignmentService) buildAssignment(ctx context.Context, actor *models.Actor, req DelegationRequest) (*models.Assignment, error) {
	assignment := &models.Assignment{
		IssueID:    req.IssueID,
		AssignedBy: actor.ID,
		Type:       req.Type,
		Status:     models.AssignmentStatusActive,
		Notes:      req.Notes,
	}
	switch req.Type {
	case models.AssignmentAdminToArea:
		if req.AreaID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "area_id is required for this assignment type")
		}
		if _, err := s.directory.RequireActiveArea(ctx, *req.AreaID); err != nil {
			return nil, err
		}
		assignment.AreaID = req.AreaID
	case models.AssignmentAreaToDepartment:
		if req.DepartmentID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "department_id is required for this assignment type")
		}
		if _, err := s.directory.RequireActiveDepartment(ctx, *req.DepartmentID); err != nil {
			return nil, err
		}
		assignment.DepartmentID = req.DepartmentID
	case models.AssignmentDepartmentToContract:
		if req.AssigneeID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "assignee_id is required for this assignment type")
		}
		assignee, err := s.directory.GetActor(ctx, *req.AssigneeID)
		if err != nil {
			return nil, err
		}
		if assignee.Role != models.RoleContractor || !assignee.Active {
			return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "assignee is not an active contractor")
		}
		assignment.AssignedTo = req.AssigneeID
	}
	return assignment, nil
}
