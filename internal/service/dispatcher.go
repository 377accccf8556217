package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/repository"
)

type dispatcherIssueStore interface {
	GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Issue, error)
	AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error
	MirrorAssignmentWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error
}

type dispatcherTenderStore interface {
	AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.TenderStageUpdate) error
}

type dispatcherAssignmentStore interface {
	GetActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (*models.Assignment, error)
	CloseWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.AssignmentStatus) error
}

type notificationTxStore interface {
	CreateWithTx(ctx context.Context, tx *sqlx.Tx, event *models.NotificationEvent) error
}

type transitionTxStore interface {
	RecordWithTx(ctx context.Context, tx *sqlx.Tx, record *models.TransitionRecord) error
}

type departmentAdminLister interface {
	ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error)
}

type transitionObserver interface {
	ObserveTransition(entity models.EntityKind, from, to string)
}

// Dispatcher applies the cross-entity effects of an accepted transition
// inside the transaction that produced it. Cascade targets are fixed per
// trigger; either everything commits or nothing does. Notification events
// are written here and handed back so the caller can enqueue delivery after
// commit.
type Dispatcher struct {
	issues        dispatcherIssueStore
	tenders       dispatcherTenderStore
	assignments   dispatcherAssignmentStore
	notifications notificationTxStore
	transitions   transitionTxStore
	directory     departmentAdminLister
	metrics       transitionObserver
	logger        *zap.Logger
}

// NewDispatcher constructs the dispatcher. metrics may be nil.
func NewDispatcher(
	issues dispatcherIssueStore,
	tenders dispatcherTenderStore,
	assignments dispatcherAssignmentStore,
	notifications notificationTxStore,
	transitions transitionTxStore,
	directory departmentAdminLister,
	metrics transitionObserver,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		issues:        issues,
		tenders:       tenders,
		assignments:   assignments,
		notifications: notifications,
		transitions:   transitions,
		directory:     directory,
		metrics:       metrics,
		logger:        logger,
	}
}

// Record appends the transition to the audit log and bumps the transition
// counter. Every accepted transition flows through here, cascaded or not.
func (d *Dispatcher) Record(ctx context.Context, tx *sqlx.Tx, event models.TransitionEvent) error {
	record := &models.TransitionRecord{
		Entity:    event.Entity,
		EntityID:  event.EntityID,
		FromState: event.From,
		ToState:   event.To,
		ActorID:   event.ActorID,
		CreatedAt: event.OccurredAt,
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	if err := d.transitions.RecordWithTx(ctx, tx, record); err != nil {
		return err
	}
	if d.metrics != nil {
		d.metrics.ObserveTransition(event.Entity, event.From, event.To)
	}
	return nil
}

// BidAccepted cascades a bid acceptance: the tender is already AWARDED by
// the caller under its row lock; here the source issue (if any) jumps to
// IN_PROGRESS with the winning contractor as assignee, transitions are
// logged, and notification events are written for the winner and any
// auto-rejected siblings.
func (d *Dispatcher) BidAccepted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid, rejected []models.Bid, actorID string) ([]models.NotificationEvent, error) {
	now := time.Now().UTC()

	if err := d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityBid, EntityID: bid.ID,
		From: string(bid.Status), To: string(models.BidStatusAccepted),
		ActorID: actorID, OccurredAt: now,
	}); err != nil {
		return nil, err
	}
	if err := d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityTender, EntityID: tender.ID,
		From: string(tender.WorkflowStage), To: string(models.TenderStageAwarded),
		ActorID: actorID, OccurredAt: now,
	}); err != nil {
		return nil, err
	}
	for i := range rejected {
		if err := d.Record(ctx, tx, models.TransitionEvent{
			Entity: models.EntityBid, EntityID: rejected[i].ID,
			From: string(rejected[i].Status), To: string(models.BidStatusRejected),
			ActorID: actorID, OccurredAt: now,
		}); err != nil {
			return nil, err
		}
	}

	if tender.SourceIssueID != nil {
		if err := d.advanceSourceIssue(ctx, tx, *tender.SourceIssueID, bid.BidderID, actorID, now); err != nil {
			return nil, err
		}
	}

	events := make([]models.NotificationEvent, 0, 1+len(rejected))
	winner := models.NotificationEvent{
		RecipientID:   bid.BidderID,
		Kind:          models.NotificationBidAccepted,
		RelatedEntity: string(models.EntityTender),
		RelatedID:     tender.ID,
		Message:       fmt.Sprintf("Your bid on tender %s was accepted", tender.Reference),
		CreatedAt:     now,
	}
	if err := d.notifications.CreateWithTx(ctx, tx, &winner); err != nil {
		return nil, err
	}
	events = append(events, winner)

	for i := range rejected {
		loser := models.NotificationEvent{
			RecipientID:   rejected[i].BidderID,
			Kind:          models.NotificationBidRejected,
			RelatedEntity: string(models.EntityTender),
			RelatedID:     tender.ID,
			Message:       fmt.Sprintf("Your bid on tender %s was not selected", tender.Reference),
			CreatedAt:     now,
		}
		if err := d.notifications.CreateWithTx(ctx, tx, &loser); err != nil {
			return nil, err
		}
		events = append(events, loser)
	}
	return events, nil
}

// advanceSourceIssue jumps the tender's source issue to IN_PROGRESS under
// its own row lock. An issue already at or past IN_PROGRESS only mirrors the
// new assignee; the acceptance is not blocked.
func (d *Dispatcher) advanceSourceIssue(ctx context.Context, tx *sqlx.Tx, issueID, contractorID, actorID string, now time.Time) error {
	issue, err := d.issues.GetWithTx(ctx, tx, issueID)
	if err != nil {
		return fmt.Errorf("load source issue: %w", err)
	}
	upd := repository.IssueStageUpdate{
		ID:                issue.ID,
		From:              issue.WorkflowStage,
		To:                models.IssueStageInProgress,
		CurrentAssigneeID: &contractorID,
	}
	if !issue.WorkflowStage.CanAdvanceTo(models.IssueStageInProgress) {
		d.logger.Warn("source issue already past award point, mirroring assignee only",
			zap.String("issue_id", issue.ID),
			zap.String("stage", string(issue.WorkflowStage)))
		return d.issues.MirrorAssignmentWithTx(ctx, tx, upd)
	}
	if err := d.issues.AdvanceStageWithTx(ctx, tx, upd); err != nil {
		return err
	}
	return d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityIssue, EntityID: issue.ID,
		From: string(issue.WorkflowStage), To: string(models.IssueStageInProgress),
		ActorID: actorID, OccurredAt: now,
	})
}

// BidRejected writes the bidder's rejection notification after the status
// change was applied by the caller.
func (d *Dispatcher) BidRejected(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, bid *models.Bid) ([]models.NotificationEvent, error) {
	event := models.NotificationEvent{
		RecipientID:   bid.BidderID,
		Kind:          models.NotificationBidRejected,
		RelatedEntity: string(models.EntityTender),
		RelatedID:     tender.ID,
		Message:       fmt.Sprintf("Your bid on tender %s was not selected", tender.Reference),
		CreatedAt:     time.Now().UTC(),
	}
	if err := d.notifications.CreateWithTx(ctx, tx, &event); err != nil {
		return nil, err
	}
	return []models.NotificationEvent{event}, nil
}

// CompletionSubmitted cascades a COMPLETION progress entry: the owning
// tender advances WORK_IN_PROGRESS to WORK_COMPLETED in the same
// transaction, and every admin of the tender's department gets a
// notification event.
func (d *Dispatcher) CompletionSubmitted(ctx context.Context, tx *sqlx.Tx, tender *models.Tender, entry *models.WorkProgressEntry, actorID string) ([]models.NotificationEvent, error) {
	now := time.Now().UTC()

	if err := d.tenders.AdvanceStageWithTx(ctx, tx, repository.TenderStageUpdate{
		ID:              tender.ID,
		From:            models.TenderStageWorkInProgress,
		To:              models.TenderStageWorkCompleted,
		WorkCompletedAt: &now,
	}); err != nil {
		return nil, err
	}
	if err := d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityTender, EntityID: tender.ID,
		From: string(models.TenderStageWorkInProgress), To: string(models.TenderStageWorkCompleted),
		ActorID: actorID, OccurredAt: now,
	}); err != nil {
		return nil, err
	}

	admins, err := d.directory.ListDepartmentAdmins(ctx, tender.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("list department admins: %w", err)
	}
	events := make([]models.NotificationEvent, 0, len(admins))
	for i := range admins {
		event := models.NotificationEvent{
			RecipientID:   admins[i].ID,
			Kind:          models.NotificationWorkCompleted,
			RelatedEntity: string(models.EntityTender),
			RelatedID:     tender.ID,
			Message:       fmt.Sprintf("Work on tender %s was reported complete", tender.Reference),
			CreatedAt:     now,
		}
		if err := d.notifications.CreateWithTx(ctx, tx, &event); err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	if len(admins) == 0 {
		d.logger.Warn("completion submitted with no department admins to notify",
			zap.String("tender_id", tender.ID),
			zap.String("department_id", tender.DepartmentID))
	}
	return events, nil
}

// AssignmentCreated mirrors a new delegation onto the issue: the stage
// moves to the stage the assignment type implies, or only the responsible
// party changes when the issue already sits at that stage.
func (d *Dispatcher) AssignmentCreated(ctx context.Context, tx *sqlx.Tx, issue *models.Issue, assignment *models.Assignment, actorID string) error {
	target := assignment.Type.TargetStage()
	upd := repository.IssueStageUpdate{
		ID:                   issue.ID,
		From:                 issue.WorkflowStage,
		To:                   target,
		AssignedAreaID:       assignment.AreaID,
		AssignedDepartmentID: assignment.DepartmentID,
		CurrentAssigneeID:    assignment.AssignedTo,
	}
	if issue.WorkflowStage == target {
		return d.issues.MirrorAssignmentWithTx(ctx, tx, upd)
	}
	if err := d.issues.AdvanceStageWithTx(ctx, tx, upd); err != nil {
		return err
	}
	return d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityIssue, EntityID: issue.ID,
		From: string(issue.WorkflowStage), To: string(target),
		ActorID: actorID, OccurredAt: time.Now().UTC(),
	})
}

// IssueResolved closes the issue's active delegations as COMPLETED and
// writes the reporter's closure notification after the terminal transition
// was applied by the caller.
func (d *Dispatcher) IssueResolved(ctx context.Context, tx *sqlx.Tx, issue *models.Issue, actorID string) ([]models.NotificationEvent, error) {
	now := time.Now().UTC()
	for _, kind := range []models.AssignmentType{
		models.AssignmentAdminToArea,
		models.AssignmentAreaToDepartment,
		models.AssignmentDepartmentToContract,
	} {
		assignment, err := d.assignments.GetActiveWithTx(ctx, tx, issue.ID, kind)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, fmt.Errorf("load active assignment: %w", err)
		}
		if err := d.assignments.CloseWithTx(ctx, tx, assignment.ID, models.AssignmentStatusCompleted); err != nil {
			return nil, fmt.Errorf("close assignment: %w", err)
		}
	}
	if err := d.Record(ctx, tx, models.TransitionEvent{
		Entity: models.EntityIssue, EntityID: issue.ID,
		From: string(issue.WorkflowStage), To: string(models.IssueStageResolved),
		ActorID: actorID, OccurredAt: now,
	}); err != nil {
		return nil, err
	}
	event := models.NotificationEvent{
		RecipientID:   issue.ReporterID,
		Kind:          models.NotificationIssueResolved,
		RelatedEntity: string(models.EntityIssue),
		RelatedID:     issue.ID,
		Message:       fmt.Sprintf("Your reported issue %q was resolved", issue.Title),
		CreatedAt:     now,
	}
	if err := d.notifications.CreateWithTx(ctx, tx, &event); err != nil {
		return nil, err
	}
	return []models.NotificationEvent{event}, nil
}
