package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

const progressColumns = `id, tender_id, contractor_id, progress_type, progress_percentage,
       description, is_milestone, status, reviewed_by, reviewed_at, review_notes, created_at`

// ProgressRepository persists the append-only work progress log.
type ProgressRepository struct {
	db *sqlx.DB
}

// NewProgressRepository constructs the repository.
func NewProgressRepository(db *sqlx.DB) *ProgressRepository {
	return &ProgressRepository{db: db}
}

// CreateWithTx inserts a new entry inside the submission transaction, so a
// completion entry and its tender cascade commit together.
func (r *ProgressRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, entry *models.WorkProgressEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Status == "" {
		entry.Status = models.ProgressStatusSubmitted
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO work_progress_entries
	(id, tender_id, contractor_id, progress_type, progress_percentage, description, is_milestone,
	 status, reviewed_by, reviewed_at, review_notes, created_at)
	VALUES (:id, :tender_id, :contractor_id, :progress_type, :progress_percentage, :description, :is_milestone,
	 :status, :reviewed_by, :reviewed_at, :review_notes, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, entry); err != nil {
		return fmt.Errorf("create progress entry: %w", err)
	}
	return nil
}

// GetByID fetches an entry by identifier.
func (r *ProgressRepository) GetByID(ctx context.Context, id string) (*models.WorkProgressEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM work_progress_entries WHERE id = $1`, progressColumns)
	var entry models.WorkProgressEntry
	if err := r.db.GetContext(ctx, &entry, query, id); err != nil {
		return nil, err
	}
	return &entry, nil
}

// List returns entries matching the filter, newest first.
func (r *ProgressRepository) List(ctx context.Context, filter models.ProgressFilter) ([]models.WorkProgressEntry, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 3)
	fmt.Fprintf(&builder, "SELECT %s FROM work_progress_entries", progressColumns)

	conditions := make([]string, 0, 3)
	if filter.TenderID != "" {
		args = append(args, filter.TenderID)
		conditions = append(conditions, fmt.Sprintf("tender_id = $%d", len(args)))
	}
	if filter.ContractorID != "" {
		args = append(args, filter.ContractorID)
		conditions = append(conditions, fmt.Sprintf("contractor_id = $%d", len(args)))
	}
	if filter.MilestonesOnly {
		conditions = append(conditions, "is_milestone")
	}
	if len(conditions) > 0 {
		builder.WriteString(" WHERE ")
		builder.WriteString(strings.Join(conditions, " AND "))
	}
	builder.WriteString(" ORDER BY created_at DESC")

	limit := filter.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	fmt.Fprintf(&builder, " LIMIT %d OFFSET %d", limit, offset)

	var entries []models.WorkProgressEntry
	if err := r.db.SelectContext(ctx, &entries, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list progress entries: %w", err)
	}
	return entries, nil
}

// RecordDecisionWithTx persists a terminal review decision in the review
// transaction. The guard refuses entries already decided; a rejected entry
// is never resurrected.
func (r *ProgressRepository) RecordDecisionWithTx(ctx context.Context, tx *sqlx.Tx, id string, decision models.ProgressStatus, reviewerID string, notes *string) error {
	const query = `UPDATE work_progress_entries
	SET status = $1, reviewed_by = $2, reviewed_at = $3, review_notes = $4
	WHERE id = $5 AND status IN ($6, $7)`
	result, err := tx.ExecContext(ctx, query,
		decision, reviewerID, time.Now().UTC(), notes, id,
		models.ProgressStatusSubmitted, models.ProgressStatusUnderReview)
	if err != nil {
		return fmt.Errorf("record progress decision: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check progress decision rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleStage
	}
	return nil
}
