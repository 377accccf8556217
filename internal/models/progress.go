package models

import "time"

// ProgressType classifies a work progress entry.
type ProgressType string

const (
	ProgressTypeUpdate     ProgressType = "UPDATE"
	ProgressTypeMilestone  ProgressType = "MILESTONE"
	ProgressTypeCompletion ProgressType = "COMPLETION"
	ProgressTypeIssue      ProgressType = "ISSUE"
)

// Valid reports whether the type is a known value.
func (t ProgressType) Valid() bool {
	switch t {
	case ProgressTypeUpdate, ProgressTypeMilestone, ProgressTypeCompletion, ProgressTypeIssue:
		return true
	}
	return false
}

// ProgressStatus is the per-entry review lifecycle. Review decisions are
// terminal; a rejected entry is never resubmitted, the contractor files a
// new one.
type ProgressStatus string

const (
	ProgressStatusDraft           ProgressStatus = "DRAFT"
	ProgressStatusSubmitted       ProgressStatus = "SUBMITTED"
	ProgressStatusUnderReview     ProgressStatus = "UNDER_REVIEW"
	ProgressStatusApproved        ProgressStatus = "APPROVED"
	ProgressStatusRejected        ProgressStatus = "REJECTED"
	ProgressStatusRequiresChanges ProgressStatus = "REQUIRES_CHANGES"
)

// Decided reports whether a review decision has been recorded.
func (s ProgressStatus) Decided() bool {
	switch s {
	case ProgressStatusApproved, ProgressStatusRejected, ProgressStatusRequiresChanges:
		return true
	}
	return false
}

// WorkProgressEntry is an append-only contractor report against a tender.
// A COMPLETION entry reaching SUBMITTED advances the owning tender to
// WORK_COMPLETED.
type WorkProgressEntry struct {
	ID                 string         `db:"id" json:"id"`
	TenderID           string         `db:"tender_id" json:"tender_id"`
	ContractorID       string         `db:"contractor_id" json:"contractor_id"`
	ProgressType       ProgressType   `db:"progress_type" json:"progress_type"`
	ProgressPercentage float64        `db:"progress_percentage" json:"progress_percentage"`
	Description        string         `db:"description" json:"description"`
	IsMilestone        bool           `db:"is_milestone" json:"is_milestone"`
	Status             ProgressStatus `db:"status" json:"status"`
	ReviewedBy         *string        `db:"reviewed_by" json:"reviewed_by,omitempty"`
	ReviewedAt         *time.Time     `db:"reviewed_at" json:"reviewed_at,omitempty"`
	ReviewNotes        *string        `db:"review_notes" json:"review_notes,omitempty"`
	CreatedAt          time.Time      `db:"created_at" json:"created_at"`
}

// ProgressFilter constrains progress listings.
type ProgressFilter struct {
	TenderID       string
	ContractorID   string
	MilestonesOnly bool
	Limit          int
	Offset         int
}
