package models

import "time"

// BidStatus is the lifecycle of a contractor's offer on a tender.
type BidStatus string

const (
	BidStatusSubmitted       BidStatus = "SUBMITTED"
	BidStatusUnderEvaluation BidStatus = "UNDER_EVALUATION"
	BidStatusAccepted        BidStatus = "ACCEPTED"
	BidStatusRejected        BidStatus = "REJECTED"
	BidStatusWithdrawn       BidStatus = "WITHDRAWN"
)

// Decided reports whether the bid has reached a terminal status.
func (s BidStatus) Decided() bool {
	switch s {
	case BidStatusAccepted, BidStatusRejected, BidStatusWithdrawn:
		return true
	}
	return false
}

// Bid is a contractor offer. At most one bid per tender holds ACCEPTED.
type Bid struct {
	ID          string     `db:"id" json:"id"`
	TenderID    string     `db:"tender_id" json:"tender_id"`
	BidderID    string     `db:"bidder_id" json:"bidder_id"`
	Amount      float64    `db:"amount" json:"amount"`
	Proposal    string     `db:"proposal" json:"proposal"`
	Status      BidStatus  `db:"status" json:"status"`
	SubmittedAt time.Time  `db:"submitted_at" json:"submitted_at"`
	DecidedAt   *time.Time `db:"decided_at" json:"decided_at,omitempty"`
}

// EvaluationRecommendation is an evaluator's verdict on a bid.
type EvaluationRecommendation string

const (
	RecommendAccept        EvaluationRecommendation = "ACCEPT"
	RecommendReject        EvaluationRecommendation = "REJECT"
	RecommendClarification EvaluationRecommendation = "REQUEST_CLARIFICATION"
)

// Valid reports whether the recommendation is a known value.
func (r EvaluationRecommendation) Valid() bool {
	switch r {
	case RecommendAccept, RecommendReject, RecommendClarification:
		return true
	}
	return false
}

// BidEvaluation is an append-only scored review of a bid; one per evaluator.
// Scores are bounded 0-100.
type BidEvaluation struct {
	ID              string                   `db:"id" json:"id"`
	BidID           string                   `db:"bid_id" json:"bid_id"`
	EvaluatorID     string                   `db:"evaluator_id" json:"evaluator_id"`
	TechnicalScore  float64                  `db:"technical_score" json:"technical_score"`
	FinancialScore  float64                  `db:"financial_score" json:"financial_score"`
	ExperienceScore float64                  `db:"experience_score" json:"experience_score"`
	TotalScore      float64                  `db:"total_score" json:"total_score"`
	Recommendation  EvaluationRecommendation `db:"recommendation" json:"recommendation"`
	Comments        *string                  `db:"comments" json:"comments,omitempty"`
	CreatedAt       time.Time                `db:"created_at" json:"created_at"`
}
