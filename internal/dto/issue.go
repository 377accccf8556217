package dto

// ReportIssueRequest creates a new issue on behalf of the reporting citizen.
type ReportIssueRequest struct {
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"required,max=4000"`
	Category    string `json:"category" validate:"required,max=100"`
	Location    string `json:"location" validate:"required,max=300"`
}

// DelegateIssueRequest hands an issue down one tier of the delegation chain.
type DelegateIssueRequest struct {
	AssignmentType string  `json:"assignment_type" validate:"required,assignment_type"`
	AreaID         *string `json:"area_id,omitempty"`
	DepartmentID   *string `json:"department_id,omitempty"`
	AssigneeID     *string `json:"assignee_id,omitempty"`
	Notes          *string `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ResolveIssueRequest closes out an issue after department review.
type ResolveIssueRequest struct {
	ResolutionNotes string `json:"resolution_notes" validate:"required,max=4000"`
}

// IssueQuery filters issue listings.
type IssueQuery struct {
	Stage string `form:"stage"`
	Page  int    `form:"page"`
	Limit int    `form:"limit"`
}
