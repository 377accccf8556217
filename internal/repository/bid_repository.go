package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/opencivic/civicflow-api/internal/models"
)

const bidColumns = `id, tender_id, bidder_id, amount, proposal, status, submitted_at, decided_at`

// uniqueViolation is the Postgres error code for a unique constraint hit.
const uniqueViolation = pq.ErrorCode("23505")

// BidRepository persists bids and their evaluations.
type BidRepository struct {
	db *sqlx.DB
}

// NewBidRepository constructs the repository.
func NewBidRepository(db *sqlx.DB) *BidRepository {
	return &BidRepository{db: db}
}

// Create inserts a new submitted bid.
func (r *BidRepository) Create(ctx context.Context, bid *models.Bid) error {
	if bid.ID == "" {
		bid.ID = uuid.NewString()
	}
	if bid.Status == "" {
		bid.Status = models.BidStatusSubmitted
	}
	if bid.SubmittedAt.IsZero() {
		bid.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bids
	(id, tender_id, bidder_id, amount, proposal, status, submitted_at, decided_at)
	VALUES (:id, :tender_id, :bidder_id, :amount, :proposal, :status, :submitted_at, :decided_at)`
	if _, err := r.db.NamedExecContext(ctx, query, bid); err != nil {
		return fmt.Errorf("create bid: %w", err)
	}
	return nil
}

// GetByID fetches a bid by identifier.
func (r *BidRepository) GetByID(ctx context.Context, id string) (*models.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE id = $1`, bidColumns)
	var bid models.Bid
	if err := r.db.GetContext(ctx, &bid, query, id); err != nil {
		return nil, err
	}
	return &bid, nil
}

// GetWithTx fetches a bid inside a transaction.
func (r *BidRepository) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE id = $1 FOR UPDATE`, bidColumns)
	var bid models.Bid
	if err := tx.GetContext(ctx, &bid, query, id); err != nil {
		return nil, err
	}
	return &bid, nil
}

// ListByTender returns all bids on a tender, earliest first.
func (r *BidRepository) ListByTender(ctx context.Context, tenderID string) ([]models.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE tender_id = $1 ORDER BY submitted_at ASC`, bidColumns)
	var bids []models.Bid
	if err := r.db.SelectContext(ctx, &bids, query, tenderID); err != nil {
		return nil, fmt.Errorf("list bids: %w", err)
	}
	return bids, nil
}

// ListByBidder returns a contractor's own bids, newest first.
func (r *BidRepository) ListByBidder(ctx context.Context, bidderID string) ([]models.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE bidder_id = $1 ORDER BY submitted_at DESC`, bidColumns)
	var bids []models.Bid
	if err := r.db.SelectContext(ctx, &bids, query, bidderID); err != nil {
		return nil, fmt.Errorf("list bidder bids: %w", err)
	}
	return bids, nil
}

// AcceptedForTenderWithTx returns the accepted bid on a tender, if any.
// Read under the tender row lock so acceptance checks serialize.
func (r *BidRepository) AcceptedForTenderWithTx(ctx context.Context, tx *sqlx.Tx, tenderID string) (*models.Bid, error) {
	query := fmt.Sprintf(`SELECT %s FROM bids WHERE tender_id = $1 AND status = $2`, bidColumns)
	var bid models.Bid
	err := tx.GetContext(ctx, &bid, query, tenderID, models.BidStatusAccepted)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("find accepted bid: %w", err)
	}
	return &bid, nil
}

// UpdateStatusWithTx moves a bid to a new status, guarded by the expected
// current status.
func (r *BidRepository) UpdateStatusWithTx(ctx context.Context, tx *sqlx.Tx, id string, from, to models.BidStatus) error {
	const query = `UPDATE bids SET status = $1, decided_at = $2 WHERE id = $3 AND status = $4`
	var decidedAt interface{}
	if to.Decided() {
		decidedAt = time.Now().UTC()
	}
	result, err := tx.ExecContext(ctx, query, to, decidedAt, id, from)
	if err != nil {
		return fmt.Errorf("update bid status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check bid status rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleStage
	}
	return nil
}

// RejectSiblingsWithTx rejects every undecided bid on the tender except the
// given one. Applied only when the sibling auto-reject policy is enabled.
func (r *BidRepository) RejectSiblingsWithTx(ctx context.Context, tx *sqlx.Tx, tenderID, exceptBidID string) ([]models.Bid, error) {
	query := fmt.Sprintf(`UPDATE bids SET status = $1, decided_at = $2
	WHERE tender_id = $3 AND id <> $4 AND status IN ($5, $6)
	RETURNING %s`, bidColumns)
	var rejected []models.Bid
	err := tx.SelectContext(ctx, &rejected, query,
		models.BidStatusRejected, time.Now().UTC(), tenderID, exceptBidID,
		models.BidStatusSubmitted, models.BidStatusUnderEvaluation)
	if err != nil {
		return nil, fmt.Errorf("reject sibling bids: %w", err)
	}
	return rejected, nil
}

// CreateEvaluation appends a scored evaluation for a bid.
func (r *BidRepository) CreateEvaluation(ctx context.Context, evaluation *models.BidEvaluation) error {
	if evaluation.ID == "" {
		evaluation.ID = uuid.NewString()
	}
	if evaluation.CreatedAt.IsZero() {
		evaluation.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO bid_evaluations
	(id, bid_id, evaluator_id, technical_score, financial_score, experience_score, total_score, recommendation, comments, created_at)
	VALUES (:id, :bid_id, :evaluator_id, :technical_score, :financial_score, :experience_score, :total_score, :recommendation, :comments, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, evaluation); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return ErrDuplicateEvaluation
		}
		return fmt.Errorf("create bid evaluation: %w", err)
	}
	return nil
}

// HasEvaluationBy reports whether the evaluator already scored the bid.
func (r *BidRepository) HasEvaluationBy(ctx context.Context, bidID, evaluatorID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM bid_evaluations WHERE bid_id = $1 AND evaluator_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, bidID, evaluatorID); err != nil {
		return false, fmt.Errorf("check bid evaluation: %w", err)
	}
	return exists, nil
}

// ListEvaluations returns all evaluations for a bid, earliest first.
func (r *BidRepository) ListEvaluations(ctx context.Context, bidID string) ([]models.BidEvaluation, error) {
	const query = `SELECT id, bid_id, evaluator_id, technical_score, financial_score, experience_score,
       total_score, recommendation, comments, created_at
	FROM bid_evaluations WHERE bid_id = $1 ORDER BY created_at ASC`
	var evaluations []models.BidEvaluation
	if err := r.db.SelectContext(ctx, &evaluations, query, bidID); err != nil {
		return nil, fmt.Errorf("list bid evaluations: %w", err)
	}
	return evaluations, nil
}
