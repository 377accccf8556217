package models

import "time"

// AssignmentType identifies the tier hand-off an assignment records.
type AssignmentType string

const (
	AssignmentAdminToArea          AssignmentType = "ADMIN_TO_AREA"
	AssignmentAreaToDepartment     AssignmentType = "AREA_TO_DEPARTMENT"
	AssignmentDepartmentToContract AssignmentType = "DEPARTMENT_TO_CONTRACTOR"
)

// Valid reports whether the type is a known value.
func (t AssignmentType) Valid() bool {
	switch t {
	case AssignmentAdminToArea, AssignmentAreaToDepartment, AssignmentDepartmentToContract:
		return true
	}
	return false
}

// TargetStage returns the issue stage implied by creating an assignment of
// this type.
func (t AssignmentType) TargetStage() IssueStage {
	switch t {
	case AssignmentAdminToArea:
		return IssueStageAreaReview
	case AssignmentAreaToDepartment:
		return IssueStageDepartmentAssigned
	case AssignmentDepartmentToContract:
		return IssueStageContractorAssigned
	}
	return ""
}

// EmpoweredRole returns the role allowed to create an assignment of this type.
func (t AssignmentType) EmpoweredRole() ActorRole {
	switch t {
	case AssignmentAdminToArea:
		return RolePlatformAdmin
	case AssignmentAreaToDepartment:
		return RoleAreaSupervisor
	case AssignmentDepartmentToContract:
		return RoleDepartmentAdmin
	}
	return ""
}

// AssignmentStatus is the lifecycle of a delegation record.
type AssignmentStatus string

const (
	AssignmentStatusActive     AssignmentStatus = "ACTIVE"
	AssignmentStatusCompleted  AssignmentStatus = "COMPLETED"
	AssignmentStatusReassigned AssignmentStatus = "REASSIGNED"
	AssignmentStatusCancelled  AssignmentStatus = "CANCELLED"
)

// Assignment is an immutable-once-closed record of delegation of an issue
// from one tier to the next. At most one ACTIVE assignment may exist per
// (issue, type); creating a replacement marks the prior record REASSIGNED.
type Assignment struct {
	ID           string           `db:"id" json:"id"`
	IssueID      string           `db:"issue_id" json:"issue_id"`
	AssignedBy   string           `db:"assigned_by" json:"assigned_by"`
	AssignedTo   *string          `db:"assigned_to" json:"assigned_to,omitempty"`
	AreaID       *string          `db:"area_id" json:"area_id,omitempty"`
	DepartmentID *string          `db:"department_id" json:"department_id,omitempty"`
	Type         AssignmentType   `db:"assignment_type" json:"assignment_type"`
	Status       AssignmentStatus `db:"status" json:"status"`
	Notes        *string          `db:"notes" json:"notes,omitempty"`
	CreatedAt    time.Time        `db:"created_at" json:"created_at"`
	ClosedAt     *time.Time       `db:"closed_at" json:"closed_at,omitempty"`
}
