package dto

// SubmitProgressRequest files a contractor progress entry against a tender.
type SubmitProgressRequest struct {
	ProgressType       string  `json:"progress_type" validate:"required,progress_type"`
	ProgressPercentage float64 `json:"progress_percentage" validate:"gte=0,lte=100"`
	Description        string  `json:"description" validate:"required,max=4000"`
	IsMilestone        bool    `json:"is_milestone"`
}

// ReviewProgressRequest records the reviewer decision for an entry.
type ReviewProgressRequest struct {
	Decision    string  `json:"decision" validate:"required,oneof=APPROVED REJECTED REQUIRES_CHANGES"`
	ReviewNotes *string `json:"review_notes,omitempty" validate:"omitempty,max=2000"`
}

// ProgressQuery filters progress listings.
type ProgressQuery struct {
	Milestones bool `form:"milestones"`
	Page       int  `form:"page"`
	Limit      int  `form:"limit"`
}
