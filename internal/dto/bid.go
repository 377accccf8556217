package dto

// SubmitBidRequest places a contractor offer on an open tender.
type SubmitBidRequest struct {
	Amount   float64 `json:"amount" validate:"required,gt=0"`
	Proposal string  `json:"proposal" validate:"required,max=4000"`
}

// EvaluateBidRequest appends a scored evaluation; one per evaluator.
type EvaluateBidRequest struct {
	TechnicalScore  float64 `json:"technical_score" validate:"gte=0,lte=100"`
	FinancialScore  float64 `json:"financial_score" validate:"gte=0,lte=100"`
	ExperienceScore float64 `json:"experience_score" validate:"gte=0,lte=100"`
	Recommendation  string  `json:"recommendation" validate:"required,recommendation"`
	Comments        *string `json:"comments,omitempty" validate:"omitempty,max=2000"`
}
