package models

import "time"

// TenderStage positions a tender within its fixed forward-only sequence.
type TenderStage string

const (
	TenderStageCreated        TenderStage = "CREATED"
	TenderStageBiddingOpen    TenderStage = "BIDDING_OPEN"
	TenderStageBiddingClosed  TenderStage = "BIDDING_CLOSED"
	TenderStageUnderReview    TenderStage = "UNDER_REVIEW"
	TenderStageAwarded        TenderStage = "AWARDED"
	TenderStageWorkInProgress TenderStage = "WORK_IN_PROGRESS"
	TenderStageWorkCompleted  TenderStage = "WORK_COMPLETED"
	TenderStageVerified       TenderStage = "VERIFIED"
	TenderStageClosed         TenderStage = "CLOSED"
)

var tenderStageOrder = map[TenderStage]int{
	TenderStageCreated:        0,
	TenderStageBiddingOpen:    1,
	TenderStageBiddingClosed:  2,
	TenderStageUnderReview:    3,
	TenderStageAwarded:        4,
	TenderStageWorkInProgress: 5,
	TenderStageWorkCompleted:  6,
	TenderStageVerified:       7,
	TenderStageClosed:         8,
}

// Valid reports whether the stage is a known value.
func (s TenderStage) Valid() bool {
	_, ok := tenderStageOrder[s]
	return ok
}

// Awardable reports whether a bid may be accepted while the tender is in
// this stage.
func (s TenderStage) Awardable() bool {
	return s == TenderStageBiddingClosed || s == TenderStageUnderReview
}

// Awarded reports whether the stage is at or past AWARDED; awarded_contractor
// must be non-null exactly in these stages.
func (s TenderStage) Awarded() bool {
	order, ok := tenderStageOrder[s]
	return ok && order >= tenderStageOrder[TenderStageAwarded]
}

// CanAdvanceTo reports whether a single-step move from s to target is legal.
func (s TenderStage) CanAdvanceTo(target TenderStage) bool {
	from, ok := tenderStageOrder[s]
	if !ok {
		return false
	}
	to, ok := tenderStageOrder[target]
	if !ok {
		return false
	}
	return to == from+1
}

// Tender is a procurement derived (optionally) from an issue. Owns zero or
// one award.
type Tender struct {
	ID                  string      `db:"id" json:"id"`
	Reference           string      `db:"reference" json:"reference"`
	Title               string      `db:"title" json:"title"`
	Description         string      `db:"description" json:"description"`
	DepartmentID        string      `db:"department_id" json:"department_id"`
	SourceIssueID       *string     `db:"source_issue_id" json:"source_issue_id,omitempty"`
	WorkflowStage       TenderStage `db:"workflow_stage" json:"workflow_stage"`
	AwardedContractorID *string     `db:"awarded_contractor_id" json:"awarded_contractor_id,omitempty"`
	AwardedAmount       *float64    `db:"awarded_amount" json:"awarded_amount,omitempty"`
	AwardedAt           *time.Time  `db:"awarded_at" json:"awarded_at,omitempty"`
	WorkStartedAt       *time.Time  `db:"work_started_at" json:"work_started_at,omitempty"`
	WorkCompletedAt     *time.Time  `db:"work_completed_at" json:"work_completed_at,omitempty"`
	VerificationNotes   *string     `db:"verification_notes" json:"verification_notes,omitempty"`
	CreatedBy           string      `db:"created_by" json:"created_by"`
	CreatedAt           time.Time   `db:"created_at" json:"created_at"`
	UpdatedAt           time.Time   `db:"updated_at" json:"updated_at"`
}

// TenderFilter constrains tender listings.
type TenderFilter struct {
	Stage        []TenderStage
	DepartmentID string
	ContractorID string
	SourceIssue  string
	Limit        int
	Offset       int
}
