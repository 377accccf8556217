package models

import "time"

// IssueStage positions an issue within its fixed forward-only sequence.
type IssueStage string

const (
	IssueStageReported           IssueStage = "REPORTED"
	IssueStageAreaReview         IssueStage = "AREA_REVIEW"
	IssueStageDepartmentAssigned IssueStage = "DEPARTMENT_ASSIGNED"
	IssueStageContractorAssigned IssueStage = "CONTRACTOR_ASSIGNED"
	IssueStageInProgress         IssueStage = "IN_PROGRESS"
	IssueStageDepartmentReview   IssueStage = "DEPARTMENT_REVIEW"
	IssueStageResolved           IssueStage = "RESOLVED"
)

var issueStageOrder = map[IssueStage]int{
	IssueStageReported:           0,
	IssueStageAreaReview:         1,
	IssueStageDepartmentAssigned: 2,
	IssueStageContractorAssigned: 3,
	IssueStageInProgress:         4,
	IssueStageDepartmentReview:   5,
	IssueStageResolved:           6,
}

// Valid reports whether the stage is a known value.
func (s IssueStage) Valid() bool {
	_, ok := issueStageOrder[s]
	return ok
}

// Terminal reports whether no further mutation is permitted.
func (s IssueStage) Terminal() bool {
	return s == IssueStageResolved
}

// CanAdvanceTo reports whether a move from s to target is legal. Only the
// immediate successor is reachable, with one exception: bid acceptance jumps
// an issue from any pre-award stage straight to IN_PROGRESS because the
// tender workflow has already encoded the delegation.
func (s IssueStage) CanAdvanceTo(target IssueStage) bool {
	from, ok := issueStageOrder[s]
	if !ok {
		return false
	}
	to, ok := issueStageOrder[target]
	if !ok {
		return false
	}
	if target == IssueStageInProgress {
		return from < to
	}
	return to == from+1
}

// Issue is a citizen-reported problem delegated down the administrative
// hierarchy. Never deleted; RESOLVED is terminal.
type Issue struct {
	ID                   string     `db:"id" json:"id"`
	Title                string     `db:"title" json:"title"`
	Description          string     `db:"description" json:"description"`
	Category             string     `db:"category" json:"category"`
	Location             string     `db:"location" json:"location"`
	ReporterID           string     `db:"reporter_id" json:"reporter_id"`
	WorkflowStage        IssueStage `db:"workflow_stage" json:"workflow_stage"`
	AssignedAreaID       *string    `db:"assigned_area_id" json:"assigned_area_id,omitempty"`
	AssignedDepartmentID *string    `db:"assigned_department_id" json:"assigned_department_id,omitempty"`
	CurrentAssigneeID    *string    `db:"current_assignee_id" json:"current_assignee_id,omitempty"`
	ResolutionNotes      *string    `db:"resolution_notes" json:"resolution_notes,omitempty"`
	CreatedAt            time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt            time.Time  `db:"updated_at" json:"updated_at"`
}

// IssueFilter constrains issue listings.
type IssueFilter struct {
	Stage        []IssueStage
	ReporterID   string
	AreaID       string
	DepartmentID string
	AssigneeID   string
	Limit        int
	Offset       int
}
