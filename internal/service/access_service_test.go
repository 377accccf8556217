package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

func TestAccessIssueTransition(t *testing.T) {
	access := NewAccessService()
	dept := "dept-1"
	assignee := "contractor-1"
	issue := &models.Issue{ID: "issue-1", AssignedDepartmentID: &dept, CurrentAssigneeID: &assignee}

	assert.NoError(t, access.AuthorizeIssueTransition(
		&models.Actor{ID: "root", Role: models.RolePlatformAdmin}, issue, IssueTransitionResolve))
	assert.NoError(t, access.AuthorizeIssueTransition(deptAdmin("dept-1"), issue, IssueTransitionResolve))

	// the current assignee may complete but not resolve
	assert.NoError(t, access.AuthorizeIssueTransition(contractor("contractor-1"), issue, IssueTransitionComplete))
	assert.ErrorIs(t, access.AuthorizeIssueTransition(contractor("contractor-1"), issue, IssueTransitionResolve),
		appErrors.ErrUnauthorized)

	assert.ErrorIs(t, access.AuthorizeIssueTransition(deptAdmin("dept-other"), issue, IssueTransitionResolve),
		appErrors.ErrUnauthorized)
	assert.ErrorIs(t, access.AuthorizeIssueTransition(nil, issue, IssueTransitionResolve),
		appErrors.ErrUnidentified)
}

func TestAccessDelegationScope(t *testing.T) {
	access := NewAccessService()
	area := "area-1"
	issue := &models.Issue{ID: "issue-1", AssignedAreaID: &area}

	supervisor := &models.Actor{ID: "sup-1", Role: models.RoleAreaSupervisor, AreaID: &area}
	assert.NoError(t, access.AuthorizeDelegation(supervisor, issue, models.AssignmentAreaToDepartment))

	otherArea := "area-2"
	stranger := &models.Actor{ID: "sup-2", Role: models.RoleAreaSupervisor, AreaID: &otherArea}
	assert.ErrorIs(t, access.AuthorizeDelegation(stranger, issue, models.AssignmentAreaToDepartment),
		appErrors.ErrUnauthorized)

	// role must match the assignment type
	assert.ErrorIs(t, access.AuthorizeDelegation(supervisor, issue, models.AssignmentAdminToArea),
		appErrors.ErrUnauthorized)
}

func TestAccessDenialsNameTheRule(t *testing.T) {
	access := NewAccessService()
	tender := &models.Tender{ID: "tender-1", DepartmentID: "dept-1"}

	err := access.AuthorizeTenderTransition(contractor("contractor-1"), tender, TenderTransitionAcceptBid)
	assert.ErrorIs(t, err, appErrors.ErrUnauthorized)
	assert.Contains(t, err.Error(), "denied by rule tender.ACCEPT_BID")
}

func TestAccessBidSubmissionContractorsOnly(t *testing.T) {
	access := NewAccessService()
	assert.NoError(t, access.AuthorizeBidSubmission(contractor("contractor-1")))
	assert.ErrorIs(t, access.AuthorizeBidSubmission(deptAdmin("dept-1")), appErrors.ErrUnauthorized)
	assert.ErrorIs(t, access.AuthorizeBidSubmission(nil), appErrors.ErrUnidentified)
}

func TestAccessDocumentUpload(t *testing.T) {
	access := NewAccessService()
	winner := "contractor-1"
	tender := &models.Tender{ID: "tender-1", DepartmentID: "dept-1", AwardedContractorID: &winner}

	assert.NoError(t, access.AuthorizeDocumentUpload(deptAdmin("dept-1"), tender, models.DocumentTypeSpecification))
	assert.NoError(t, access.AuthorizeDocumentUpload(contractor("contractor-1"), tender, models.DocumentTypeProgressReport))
	assert.ErrorIs(t, access.AuthorizeDocumentUpload(contractor("contractor-1"), tender, models.DocumentTypeSpecification),
		appErrors.ErrUnauthorized)
	assert.ErrorIs(t, access.AuthorizeDocumentUpload(contractor("contractor-2"), tender, models.DocumentTypeProgressReport),
		appErrors.ErrUnauthorized)
}

func TestAccessCanViewTender(t *testing.T) {
	access := NewAccessService()
	tender := &models.Tender{ID: "tender-1", DepartmentID: "dept-1", WorkflowStage: models.TenderStageBiddingOpen}

	assert.True(t, access.CanViewTender(deptAdmin("dept-1"), tender))
	assert.False(t, access.CanViewTender(deptAdmin("dept-other"), tender))
	assert.True(t, access.CanViewTender(contractor("contractor-1"), tender))

	created := &models.Tender{ID: "tender-2", DepartmentID: "dept-1", WorkflowStage: models.TenderStageCreated}
	assert.False(t, access.CanViewTender(contractor("contractor-1"), created))
}
