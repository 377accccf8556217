package service

import (
	"fmt"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
)

// IssueTransition names the actor-triggered transitions on an issue.
type IssueTransition string

const (
	IssueTransitionDelegate IssueTransition = "DELEGATE"
	IssueTransitionComplete IssueTransition = "COMPLETE"
	IssueTransitionResolve  IssueTransition = "RESOLVE"
)

// TenderTransition names the actor-triggered transitions on a tender.
type TenderTransition string

const (
	TenderTransitionOpenBidding  TenderTransition = "OPEN_BIDDING"
	TenderTransitionCloseBidding TenderTransition = "CLOSE_BIDDING"
	TenderTransitionStartReview  TenderTransition = "START_REVIEW"
	TenderTransitionAcceptBid    TenderTransition = "ACCEPT_BID"
	TenderTransitionRejectBid    TenderTransition = "REJECT_BID"
	TenderTransitionStartWork    TenderTransition = "START_WORK"
	TenderTransitionVerify       TenderTransition = "VERIFY"
	TenderTransitionClose        TenderTransition = "CLOSE"
)

// AccessService is the single authorization surface: every transition is
// checked here, keyed by actor role, relationship to the entity, and the
// requested transition. Denials carry the failing rule; they never surface
// as generic failures.
type AccessService struct{}

// NewAccessService constructs the evaluator.
func NewAccessService() *AccessService {
	return &AccessService{}
}

func deny(rule string) error {
	return appErrors.Clone(appErrors.ErrUnauthorized, fmt.Sprintf("denied by rule %s", rule))
}

// AuthorizeIssueTransition gates actor-triggered issue transitions: platform
// admin, the supervising area supervisor, the administering department
// admin, or the current assignee performing a completion.
func (s *AccessService) AuthorizeIssueTransition(actor *models.Actor, issue *models.Issue, transition IssueTransition) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if actor.SupervisesArea(issue.AssignedAreaID) {
		return nil
	}
	if actor.AdministersDepartment(issue.AssignedDepartmentID) {
		return nil
	}
	if transition == IssueTransitionComplete &&
		issue.CurrentAssigneeID != nil && *issue.CurrentAssigneeID == actor.ID {
		return nil
	}
	return deny(fmt.Sprintf("issue.%s", transition))
}

// AuthorizeDelegation gates assignment creation: the acting actor is the
// assigner and holds the role empowered for the assignment type.
func (s *AccessService) AuthorizeDelegation(actor *models.Actor, issue *models.Issue, assignmentType models.AssignmentType) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role != assignmentType.EmpoweredRole() {
		return deny(fmt.Sprintf("assignment.%s.role", assignmentType))
	}
	switch assignmentType {
	case models.AssignmentAreaToDepartment:
		if !actor.SupervisesArea(issue.AssignedAreaID) {
			return deny(fmt.Sprintf("assignment.%s.scope", assignmentType))
		}
	case models.AssignmentDepartmentToContract:
		if !actor.AdministersDepartment(issue.AssignedDepartmentID) {
			return deny(fmt.Sprintf("assignment.%s.scope", assignmentType))
		}
	}
	return nil
}

// AuthorizeTenderTransition gates tender transitions: platform admin or the
// department admin of the tender's department.
func (s *AccessService) AuthorizeTenderTransition(actor *models.Actor, tender *models.Tender, transition TenderTransition) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if actor.AdministersDepartment(&tender.DepartmentID) {
		return nil
	}
	return deny(fmt.Sprintf("tender.%s", transition))
}

// AuthorizeTenderCreation gates opening a tender in a department.
func (s *AccessService) AuthorizeTenderCreation(actor *models.Actor) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if actor.Role == models.RoleDepartmentAdmin && actor.DepartmentID != nil {
		return nil
	}
	return deny("tender.CREATE")
}

// AuthorizeBidSubmission gates placing or withdrawing a bid.
func (s *AccessService) AuthorizeBidSubmission(actor *models.Actor) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role != models.RoleContractor {
		return deny("bid.SUBMIT")
	}
	return nil
}

// AuthorizeProgressSubmission gates filing a progress entry: only the
// contractor the tender was awarded to.
func (s *AccessService) AuthorizeProgressSubmission(actor *models.Actor, tender *models.Tender) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role != models.RoleContractor {
		return deny("progress.SUBMIT.role")
	}
	if tender.AwardedContractorID == nil || *tender.AwardedContractorID != actor.ID {
		return deny("progress.SUBMIT.owner")
	}
	return nil
}

// AuthorizeProgressReview gates progress review: platform admin or the
// department admin of the owning tender's department.
func (s *AccessService) AuthorizeProgressReview(actor *models.Actor, tender *models.Tender) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if actor.AdministersDepartment(&tender.DepartmentID) {
		return nil
	}
	return deny("progress.REVIEW")
}

// AuthorizeDocumentUpload gates document uploads: platform admin, the
// department admin of the tender's department, or the awarded contractor
// filing progress-report material.
func (s *AccessService) AuthorizeDocumentUpload(actor *models.Actor, tender *models.Tender, documentType models.DocumentType) error {
	if actor == nil {
		return appErrors.ErrUnidentified
	}
	if actor.Role == models.RolePlatformAdmin {
		return nil
	}
	if actor.AdministersDepartment(&tender.DepartmentID) {
		return nil
	}
	if actor.Role == models.RoleContractor &&
		tender.AwardedContractorID != nil && *tender.AwardedContractorID == actor.ID &&
		(documentType == models.DocumentTypeProgressReport || documentType == models.DocumentTypeBidAttachment) {
		return nil
	}
	return deny("document.UPLOAD")
}

// CanViewIssue filters the read surface per actor visibility.
func (s *AccessService) CanViewIssue(actor *models.Actor, issue *models.Issue) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RolePlatformAdmin:
		return true
	case models.RoleCitizen:
		return issue.ReporterID == actor.ID
	case models.RoleAreaSupervisor:
		return actor.SupervisesArea(issue.AssignedAreaID)
	case models.RoleDepartmentAdmin:
		return actor.AdministersDepartment(issue.AssignedDepartmentID)
	case models.RoleContractor:
		return issue.CurrentAssigneeID != nil && *issue.CurrentAssigneeID == actor.ID
	}
	return false
}

// CanViewTender filters the read surface per actor visibility. Contractors
// see tenders from bidding onward plus anything awarded to them.
func (s *AccessService) CanViewTender(actor *models.Actor, tender *models.Tender) bool {
	if actor == nil {
		return false
	}
	switch actor.Role {
	case models.RolePlatformAdmin:
		return true
	case models.RoleDepartmentAdmin:
		return actor.AdministersDepartment(&tender.DepartmentID)
	case models.RoleAreaSupervisor:
		return true
	case models.RoleContractor:
		if tender.AwardedContractorID != nil && *tender.AwardedContractorID == actor.ID {
			return true
		}
		return tender.WorkflowStage != models.TenderStageCreated && !tender.WorkflowStage.Awarded()
	}
	return false
}
