package service

import (
	"context"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

type mockAssignmentStore struct {
	created  []*models.Assignment
	closed   int64
	byIssue  []models.Assignment
}

func (m *mockAssignmentStore) ListByIssue(ctx context.Context, issueID string) ([]models.Assignment, error) {
	return m.byIssue, nil
}

func (m *mockAssignmentStore) ReassignActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (int64, error) {
	return m.closed, nil
}

func (m *mockAssignmentStore) CreateWithTx(ctx context.Context, tx *sqlx.Tx, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = "assignment-new"
	}
	m.created = append(m.created, assignment)
	return nil
}

type mockAssignmentCascader struct {
	created []*models.Assignment
}

func (m *mockAssignmentCascader) AssignmentCreated(ctx context.Context, tx *sqlx.Tx, issue *models.Issue, assignment *models.Assignment, actorID string) error {
	m.created = append(m.created, assignment)
	return nil
}

type mockDirectory struct {
	areas       map[string]models.Area
	departments map[string]models.Department
	actors      map[string]models.Actor
}

func (m *mockDirectory) RequireActiveArea(ctx context.Context, id string) (*models.Area, error) {
	if area, ok := m.areas[id]; ok && area.Active {
		return &area, nil
	}
	return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "area not found or inactive")
}

func (m *mockDirectory) RequireActiveDepartment(ctx context.Context, id string) (*models.Department, error) {
	if dept, ok := m.departments[id]; ok && dept.Active {
		return &dept, nil
	}
	return nil, appErrors.Clone(appErrors.ErrReferentialViolation, "department not found or inactive")
}

func (m *mockDirectory) GetActor(ctx context.Context, id string) (*models.Actor, error) {
	if actor, ok := m.actors[id]; ok {
		return &actor, nil
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "actor not found")
}

func delegationFixtureDirectory() *mockDirectory {
	return &mockDirectory{
		areas:       map[string]models.Area{"area-1": {ID: "area-1", Active: true}},
		departments: map[string]models.Department{"dept-1": {ID: "dept-1", Active: true}},
		actors: map[string]models.Actor{
			"contractor-1": {ID: "contractor-1", Role: models.RoleContractor, Active: true},
			"citizen-1":    {ID: "citizen-1", Role: models.RoleCitizen, Active: true},
		},
	}
}

func TestAssignmentServiceDelegateToArea(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	issues := &mockIssueStore{issues: map[string]models.Issue{
		"issue-1": {ID: "issue-1", WorkflowStage: models.IssueStageReported, ReporterID: "citizen-1"},
	}}
	store := &mockAssignmentStore{}
	cascader := &mockAssignmentCascader{}
	svc := NewAssignmentService(db, issues, store, delegationFixtureDirectory(), NewAccessService(), cascader, zap.NewNop())

	area := "area-1"
	assignment, err := svc.Delegate(context.Background(),
		&models.Actor{ID: "root", Role: models.RolePlatformAdmin, Active: true},
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentAdminToArea, AreaID: &area})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentStatusActive, assignment.Status)
	assert.Equal(t, "area-1", *assignment.AreaID)
	assert.Len(t, cascader.created, 1)
}

func TestAssignmentServiceDelegateRoleMismatch(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	issues := &mockIssueStore{issues: map[string]models.Issue{
		"issue-1": {ID: "issue-1", WorkflowStage: models.IssueStageReported},
	}}
	svc := NewAssignmentService(db, issues, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	area := "area-1"
	_, err := svc.Delegate(context.Background(),
		contractor("contractor-1"),
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentAdminToArea, AreaID: &area})
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
}

func TestAssignmentServiceDelegateMissingTarget(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewAssignmentService(db, &mockIssueStore{}, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	_, err := svc.Delegate(context.Background(),
		&models.Actor{ID: "root", Role: models.RolePlatformAdmin, Active: true},
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentAdminToArea})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}

func TestAssignmentServiceDelegateInactiveArea(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	directory := delegationFixtureDirectory()
	directory.areas["area-2"] = models.Area{ID: "area-2", Active: false}
	svc := NewAssignmentService(db, &mockIssueStore{}, &mockAssignmentStore{}, directory, NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	area := "area-2"
	_, err := svc.Delegate(context.Background(),
		&models.Actor{ID: "root", Role: models.RolePlatformAdmin, Active: true},
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentAdminToArea, AreaID: &area})
	assert.ErrorIs(t, err, appErrors.ErrReferentialViolation)
}

func TestAssignmentServiceDelegateToContractor(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectCommit()

	dept := "dept-1"
	issues := &mockIssueStore{issues: map[string]models.Issue{
		"issue-1": {ID: "issue-1", WorkflowStage: models.IssueStageDepartmentAssigned, AssignedDepartmentID: &dept},
	}}
	svc := NewAssignmentService(db, issues, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	assignee := "contractor-1"
	assignment, err := svc.Delegate(context.Background(), deptAdmin("dept-1"),
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentDepartmentToContract, AssigneeID: &assignee})
	require.NoError(t, err)
	assert.Equal(t, "contractor-1", *assignment.AssignedTo)
}

func TestAssignmentServiceDelegateRejectsNonContractorAssignee(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewAssignmentService(db, &mockIssueStore{}, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	assignee := "citizen-1"
	_, err := svc.Delegate(context.Background(), deptAdmin("dept-1"),
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentDepartmentToContract, AssigneeID: &assignee})
	assert.ErrorIs(t, err, appErrors.ErrReferentialViolation)
}

func TestAssignmentServiceDelegateStageMismatch(t *testing.T) {
	db, mock, cleanup := newTxMock(t)
	defer cleanup()
	mock.ExpectBegin()
	mock.ExpectRollback()

	dept := "dept-1"
	issues := &mockIssueStore{issues: map[string]models.Issue{
		"issue-1": {ID: "issue-1", WorkflowStage: models.IssueStageDepartmentReview, AssignedDepartmentID: &dept},
	}}
	svc := NewAssignmentService(db, issues, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	assignee := "contractor-1"
	_, err := svc.Delegate(context.Background(), deptAdmin("dept-1"),
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentDepartmentToContract, AssigneeID: &assignee})
	assert.ErrorIs(t, err, appErrors.ErrInvalidTransition)
}

func TestAssignmentServiceDelegateUnknownType(t *testing.T) {
	db, _, cleanup := newTxMock(t)
	defer cleanup()

	svc := NewAssignmentService(db, &mockIssueStore{}, &mockAssignmentStore{}, delegationFixtureDirectory(), NewAccessService(), &mockAssignmentCascader{}, zap.NewNop())

	_, err := svc.Delegate(context.Background(),
		&models.Actor{ID: "root", Role: models.RolePlatformAdmin, Active: true},
		DelegationRequest{IssueID: "issue-1", Type: models.AssignmentType("SIDEWAYS")})
	assert.ErrorIs(t, err, appErrors.ErrValidation)
}
