package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	"github.com/opencivic/civicflow-api/internal/repository"
)

type mockCascadeIssueStore struct {
	issues   map[string]models.Issue
	advanced []repository.IssueStageUpdate
	mirrored []repository.IssueStageUpdate
}

func (m *mockCascadeIssueStore) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Issue, error) {
	if issue, ok := m.issues[id]; ok {
		return &issue, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCascadeIssueStore) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error {
	m.advanced = append(m.advanced, upd)
	return nil
}

func (m *mockCascadeIssueStore) MirrorAssignmentWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.IssueStageUpdate) error {
	m.mirrored = append(m.mirrored, upd)
	return nil
}

type mockCascadeTenderStore struct {
	advanced []repository.TenderStageUpdate
}

func (m *mockCascadeTenderStore) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd repository.TenderStageUpdate) error {
	m.advanced = append(m.advanced, upd)
	return nil
}

type mockNotificationTxStore struct {
	created []models.NotificationEvent
}

func (m *mockNotificationTxStore) CreateWithTx(ctx context.Context, tx *sqlx.Tx, event *models.NotificationEvent) error {
	if event.ID == "" {
		event.ID = "evt-new"
	}
	m.created = append(m.created, *event)
	return nil
}

type mockTransitionTxStore struct {
	records []models.TransitionRecord
}

func (m *mockTransitionTxStore) RecordWithTx(ctx context.Context, tx *sqlx.Tx, record *models.TransitionRecord) error {
	m.records = append(m.records, *record)
	return nil
}

type mockAssignmentTxStore struct {
	active map[models.AssignmentType]models.Assignment
	closed []models.Assignment
}

func (m *mockAssignmentTxStore) GetActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (*models.Assignment, error) {
	assignment, ok := m.active[assignmentType]
	if !ok || assignment.IssueID != issueID {
		return nil, sql.ErrNoRows
	}
	return &assignment, nil
}

func (m *mockAssignmentTxStore) CloseWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.AssignmentStatus) error {
	for kind, assignment := range m.active {
		if assignment.ID == id {
			assignment.Status = status
			m.closed = append(m.closed, assignment)
			delete(m.active, kind)
			return nil
		}
	}
	return sql.ErrNoRows
}

type mockAdminLister struct {
	admins []models.Actor
}

func (m *mockAdminLister) ListDepartmentAdmins(ctx context.Context, departmentID string) ([]models.Actor, error) {
	return m.admins, nil
}

type mockObserver struct {
	observed int
}

func (m *mockObserver) ObserveTransition(entity models.EntityKind, from, to string) {
	m.observed++
}

type dispatcherFixture struct {
	issues        *mockCascadeIssueStore
	tenders       *mockCascadeTenderStore
	assignments   *mockAssignmentTxStore
	notifications *mockNotificationTxStore
	transitions   *mockTransitionTxStore
	admins        *mockAdminLister
}

func newDispatcherFixture() (*Dispatcher, *dispatcherFixture) {
	f := &dispatcherFixture{
		issues:        &mockCascadeIssueStore{issues: map[string]models.Issue{}},
		tenders:       &mockCascadeTenderStore{},
		assignments:   &mockAssignmentTxStore{active: map[models.AssignmentType]models.Assignment{}},
		notifications: &mockNotificationTxStore{},
		transitions:   &mockTransitionTxStore{},
		admins:        &mockAdminLister{},
	}
	d := NewDispatcher(f.issues, f.tenders, f.assignments, f.notifications, f.transitions, f.admins, &mockObserver{}, zap.NewNop())
	return d, f
}

func TestDispatcherBidAcceptedAdvancesSourceIssue(t *testing.T) {
	d, f := newDispatcherFixture()
	issues, notifications, transitions := f.issues, f.notifications, f.transitions
	issues.issues["issue-1"] = models.Issue{ID: "issue-1", WorkflowStage: models.IssueStageDepartmentAssigned}

	sourceID := "issue-1"
	tender := newTenderFixture(models.TenderStageUnderReview)
	tender.SourceIssueID = &sourceID
	bid := models.Bid{ID: "bid-1", TenderID: tender.ID, BidderID: "contractor-1", Status: models.BidStatusUnderEvaluation}

	events, err := d.BidAccepted(context.Background(), nil, &tender, &bid, nil, "admin-1")
	require.NoError(t, err)

	require.Len(t, issues.advanced, 1)
	assert.Equal(t, models.IssueStageInProgress, issues.advanced[0].To)
	assert.Equal(t, "contractor-1", *issues.advanced[0].CurrentAssigneeID)
	assert.Empty(t, issues.mirrored)

	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationBidAccepted, events[0].Kind)
	assert.Equal(t, "contractor-1", events[0].RecipientID)
	assert.Len(t, notifications.created, 1)

	// bid, tender, and issue transitions all audited
	assert.Len(t, transitions.records, 3)
}

func TestDispatcherBidAcceptedMirrorsWhenIssuePastAward(t *testing.T) {
	d, f := newDispatcherFixture()
	issues := f.issues
	issues.issues["issue-1"] = models.Issue{ID: "issue-1", WorkflowStage: models.IssueStageDepartmentReview}

	sourceID := "issue-1"
	tender := newTenderFixture(models.TenderStageUnderReview)
	tender.SourceIssueID = &sourceID
	bid := models.Bid{ID: "bid-1", TenderID: tender.ID, BidderID: "contractor-1", Status: models.BidStatusSubmitted}

	_, err := d.BidAccepted(context.Background(), nil, &tender, &bid, nil, "admin-1")
	require.NoError(t, err)
	assert.Empty(t, issues.advanced)
	require.Len(t, issues.mirrored, 1)
	assert.Equal(t, "contractor-1", *issues.mirrored[0].CurrentAssigneeID)
}

func TestDispatcherBidAcceptedNotifiesRejectedSiblings(t *testing.T) {
	d, f := newDispatcherFixture()
	notifications := f.notifications

	tender := newTenderFixture(models.TenderStageBiddingClosed)
	bid := models.Bid{ID: "bid-1", TenderID: tender.ID, BidderID: "contractor-1", Status: models.BidStatusSubmitted}
	rejected := []models.Bid{
		{ID: "bid-2", TenderID: tender.ID, BidderID: "contractor-2", Status: models.BidStatusSubmitted},
		{ID: "bid-3", TenderID: tender.ID, BidderID: "contractor-3", Status: models.BidStatusSubmitted},
	}

	events, err := d.BidAccepted(context.Background(), nil, &tender, &bid, rejected, "admin-1")
	require.NoError(t, err)
	require.Len(t, events, 3)
	assert.Equal(t, models.NotificationBidAccepted, events[0].Kind)
	assert.Equal(t, models.NotificationBidRejected, events[1].Kind)
	assert.Equal(t, models.NotificationBidRejected, events[2].Kind)
	assert.Len(t, notifications.created, 3)
}

func TestDispatcherCompletionSubmitted(t *testing.T) {
	d, f := newDispatcherFixture()
	tenders, notifications, admins := f.tenders, f.notifications, f.admins
	dept1, dept2 := "dept-1", "dept-1"
	admins.admins = []models.Actor{
		{ID: "admin-1", Role: models.RoleDepartmentAdmin, DepartmentID: &dept1},
		{ID: "admin-2", Role: models.RoleDepartmentAdmin, DepartmentID: &dept2},
	}

	tender := newTenderFixture(models.TenderStageWorkInProgress)
	entry := models.WorkProgressEntry{ID: "entry-1", TenderID: tender.ID, ProgressType: models.ProgressTypeCompletion}

	events, err := d.CompletionSubmitted(context.Background(), nil, &tender, &entry, "contractor-1")
	require.NoError(t, err)

	require.Len(t, tenders.advanced, 1)
	assert.Equal(t, models.TenderStageWorkCompleted, tenders.advanced[0].To)
	assert.NotNil(t, tenders.advanced[0].WorkCompletedAt)

	require.Len(t, events, 2)
	assert.Equal(t, models.NotificationWorkCompleted, events[0].Kind)
	assert.Len(t, notifications.created, 2)
}

func TestDispatcherCompletionSubmittedNoAdmins(t *testing.T) {
	d, f := newDispatcherFixture()
	tenders := f.tenders

	tender := newTenderFixture(models.TenderStageWorkInProgress)
	entry := models.WorkProgressEntry{ID: "entry-1", TenderID: tender.ID}

	events, err := d.CompletionSubmitted(context.Background(), nil, &tender, &entry, "contractor-1")
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Len(t, tenders.advanced, 1)
}

func TestDispatcherAssignmentCreatedMirrorsSameStage(t *testing.T) {
	d, f := newDispatcherFixture()
	issues, transitions := f.issues, f.transitions

	area := "area-1"
	issue := models.Issue{ID: "issue-1", WorkflowStage: models.IssueStageAreaReview}
	assignment := models.Assignment{ID: "assignment-1", IssueID: "issue-1", Type: models.AssignmentAdminToArea, AreaID: &area}

	err := d.AssignmentCreated(context.Background(), nil, &issue, &assignment, "root")
	require.NoError(t, err)
	assert.Empty(t, issues.advanced)
	assert.Len(t, issues.mirrored, 1)
	assert.Empty(t, transitions.records)
}

func TestDispatcherIssueResolvedNotifiesReporter(t *testing.T) {
	d, f := newDispatcherFixture()
	notifications, transitions := f.notifications, f.transitions

	issue := models.Issue{ID: "issue-1", Title: "Broken streetlight", ReporterID: "citizen-1", WorkflowStage: models.IssueStageDepartmentReview}
	events, err := d.IssueResolved(context.Background(), nil, &issue, "admin-1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.NotificationIssueResolved, events[0].Kind)
	assert.Equal(t, "citizen-1", events[0].RecipientID)
	assert.Len(t, notifications.created, 1)
	assert.Len(t, transitions.records, 1)
}

func TestDispatcherIssueResolvedClosesActiveAssignments(t *testing.T) {
	d, f := newDispatcherFixture()
	f.assignments.active[models.AssignmentAdminToArea] = models.Assignment{
		ID: "assignment-1", IssueID: "issue-1", Type: models.AssignmentAdminToArea, Status: models.AssignmentStatusActive,
	}
	f.assignments.active[models.AssignmentDepartmentToContract] = models.Assignment{
		ID: "assignment-2", IssueID: "issue-1", Type: models.AssignmentDepartmentToContract, Status: models.AssignmentStatusActive,
	}

	issue := models.Issue{ID: "issue-1", Title: "Broken streetlight", ReporterID: "citizen-1", WorkflowStage: models.IssueStageDepartmentReview}
	_, err := d.IssueResolved(context.Background(), nil, &issue, "admin-1")
	require.NoError(t, err)

	require.Len(t, f.assignments.closed, 2)
	for _, closed := range f.assignments.closed {
		assert.Equal(t, models.AssignmentStatusCompleted, closed.Status)
	}
	assert.Empty(t, f.assignments.active)
}
