package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

const assignmentColumns = `id, issue_id, assigned_by, assigned_to, area_id, department_id,
       assignment_type, status, notes, created_at, closed_at`

// AssignmentRepository persists delegation records.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// ListByIssue returns the delegation history for an issue, newest first.
func (r *AssignmentRepository) ListByIssue(ctx context.Context, issueID string) ([]models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments WHERE issue_id = $1 ORDER BY created_at DESC`, assignmentColumns)
	var assignments []models.Assignment
	if err := r.db.SelectContext(ctx, &assignments, query, issueID); err != nil {
		return nil, fmt.Errorf("list assignments: %w", err)
	}
	return assignments, nil
}

// GetActiveWithTx returns the active assignment of the given type for an
// issue, or sql.ErrNoRows. The issue row lock taken by the caller guards the
// read-modify-write.
func (r *AssignmentRepository) GetActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (*models.Assignment, error) {
	query := fmt.Sprintf(`SELECT %s FROM assignments
	WHERE issue_id = $1 AND assignment_type = $2 AND status = $3`, assignmentColumns)
	var assignment models.Assignment
	if err := tx.GetContext(ctx, &assignment, query, issueID, assignmentType, models.AssignmentStatusActive); err != nil {
		return nil, err
	}
	return &assignment, nil
}

// ReassignActiveWithTx closes any active assignment of the given type,
// marking it REASSIGNED. Returns the number of records closed.
func (r *AssignmentRepository) ReassignActiveWithTx(ctx context.Context, tx *sqlx.Tx, issueID string, assignmentType models.AssignmentType) (int64, error) {
	const query = `UPDATE assignments SET status = $1, closed_at = $2
	WHERE issue_id = $3 AND assignment_type = $4 AND status = $5`
	result, err := tx.ExecContext(ctx, query,
		models.AssignmentStatusReassigned, time.Now().UTC(), issueID, assignmentType, models.AssignmentStatusActive)
	if err != nil {
		return 0, fmt.Errorf("reassign active assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check reassigned rows: %w", err)
	}
	return rows, nil
}

// CreateWithTx inserts a new active assignment inside the delegation
// transaction.
func (r *AssignmentRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, assignment *models.Assignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	if assignment.Status == "" {
		assignment.Status = models.AssignmentStatusActive
	}
	if assignment.CreatedAt.IsZero() {
		assignment.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO assignments
	(id, issue_id, assigned_by, assigned_to, area_id, department_id, assignment_type, status, notes, created_at, closed_at)
	VALUES (:id, :issue_id, :assigned_by, :assigned_to, :area_id, :department_id, :assignment_type, :status, :notes, :created_at, :closed_at)`
	if _, err := tx.NamedExecContext(ctx, query, assignment); err != nil {
		return fmt.Errorf("create assignment: %w", err)
	}
	return nil
}

// CloseWithTx marks an assignment COMPLETED or CANCELLED. Closed records are
// immutable; the guard refuses to touch anything not ACTIVE.
func (r *AssignmentRepository) CloseWithTx(ctx context.Context, tx *sqlx.Tx, id string, status models.AssignmentStatus) error {
	const query = `UPDATE assignments SET status = $1, closed_at = $2 WHERE id = $3 AND status = $4`
	result, err := tx.ExecContext(ctx, query, status, time.Now().UTC(), id, models.AssignmentStatusActive)
	if err != nil {
		return fmt.Errorf("close assignment: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check closed assignment rows: %w", err)
	}
	if rows == 0 {
		return sql.ErrNoRows
	}
	return nil
}
