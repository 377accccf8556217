package dto

// CreateTenderRequest opens a new tender in the acting admin's department.
type CreateTenderRequest struct {
	Reference     string  `json:"reference" validate:"required,max=50"`
	Title         string  `json:"title" validate:"required,max=200"`
	Description   string  `json:"description" validate:"required,max=4000"`
	SourceIssueID *string `json:"source_issue_id,omitempty"`
}

// VerifyTenderRequest records the department admin's verification outcome.
type VerifyTenderRequest struct {
	VerificationNotes string `json:"verification_notes" validate:"required,max=4000"`
}

// TenderQuery filters tender listings.
type TenderQuery struct {
	Stage      string `form:"stage"`
	Department string `form:"department"`
	Page       int    `form:"page"`
	Limit      int    `form:"limit"`
}

// ExportQuery selects the register export format.
type ExportQuery struct {
	Format string `form:"format" validate:"omitempty,oneof=csv pdf"`
}
