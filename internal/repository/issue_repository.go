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

const issueColumns = `id, title, description, category, location, reporter_id, workflow_stage,
       assigned_area_id, assigned_department_id, current_assignee_id, resolution_notes,
       created_at, updated_at`

// IssueRepository persists issues and their guarded stage updates.
type IssueRepository struct {
	db *sqlx.DB
}

// NewIssueRepository constructs the repository.
func NewIssueRepository(db *sqlx.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Create inserts a freshly reported issue.
func (r *IssueRepository) Create(ctx context.Context, issue *models.Issue) error {
	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	if issue.WorkflowStage == "" {
		issue.WorkflowStage = models.IssueStageReported
	}
	now := time.Now().UTC()
	if issue.CreatedAt.IsZero() {
		issue.CreatedAt = now
	}
	issue.UpdatedAt = now
	const query = `INSERT INTO issues
	(id, title, description, category, location, reporter_id, workflow_stage,
	 assigned_area_id, assigned_department_id, current_assignee_id, resolution_notes, created_at, updated_at)
	VALUES (:id, :title, :description, :category, :location, :reporter_id, :workflow_stage,
	 :assigned_area_id, :assigned_department_id, :current_assignee_id, :resolution_notes, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, issue); err != nil {
		return fmt.Errorf("create issue: %w", err)
	}
	return nil
}

// GetByID fetches an issue by identifier.
func (r *IssueRepository) GetByID(ctx context.Context, id string) (*models.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id = $1`, issueColumns)
	var issue models.Issue
	if err := r.db.GetContext(ctx, &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// GetWithTx fetches an issue inside a transaction, taking a row lock so
// concurrent transitions on the same issue serialize.
func (r *IssueRepository) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Issue, error) {
	query := fmt.Sprintf(`SELECT %s FROM issues WHERE id = $1 FOR UPDATE`, issueColumns)
	var issue models.Issue
	if err := tx.GetContext(ctx, &issue, query, id); err != nil {
		return nil, err
	}
	return &issue, nil
}

// List returns issues matching the filter (latest first).
func (r *IssueRepository) List(ctx context.Context, filter models.IssueFilter) ([]models.Issue, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 6)
	fmt.Fprintf(&builder, "SELECT %s FROM issues", issueColumns)

	conditions := make([]string, 0, 5)
	if len(filter.Stage) > 0 {
		placeholders := make([]string, len(filter.Stage))
		for i, stage := range filter.Stage {
			args = append(args, stage)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("workflow_stage IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.ReporterID != "" {
		args = append(args, filter.ReporterID)
		conditions = append(conditions, fmt.Sprintf("reporter_id = $%d", len(args)))
	}
	if filter.AreaID != "" {
		args = append(args, filter.AreaID)
		conditions = append(conditions, fmt.Sprintf("assigned_area_id = $%d", len(args)))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("assigned_department_id = $%d", len(args)))
	}
	if filter.AssigneeID != "" {
		args = append(args, filter.AssigneeID)
		conditions = append(conditions, fmt.Sprintf("current_assignee_id = $%d", len(args)))
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

	var issues []models.Issue
	if err := r.db.SelectContext(ctx, &issues, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list issues: %w", err)
	}
	return issues, nil
}

// IssueStageUpdate groups the columns a guarded stage transition may set.
// Nil pointers leave the column untouched.
type IssueStageUpdate struct {
	ID                   string
	From                 models.IssueStage
	To                   models.IssueStage
	AssignedAreaID       *string
	AssignedDepartmentID *string
	CurrentAssigneeID    *string
	ResolutionNotes      *string
}

// AdvanceStageWithTx performs a guarded stage transition: the update only
// applies while the row still holds the expected source stage. Zero rows
// affected means a concurrent transition won; callers map that to a
// conflict.
func (r *IssueRepository) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd IssueStageUpdate) error {
	setParts := []string{"workflow_stage = :to", "updated_at = :updated_at"}
	params := map[string]interface{}{
		"id":         upd.ID,
		"from":       upd.From,
		"to":         upd.To,
		"updated_at": time.Now().UTC(),
	}
	if upd.AssignedAreaID != nil {
		setParts = append(setParts, "assigned_area_id = :assigned_area_id")
		params["assigned_area_id"] = *upd.AssignedAreaID
	}
	if upd.AssignedDepartmentID != nil {
		setParts = append(setParts, "assigned_department_id = :assigned_department_id")
		params["assigned_department_id"] = *upd.AssignedDepartmentID
	}
	if upd.CurrentAssigneeID != nil {
		setParts = append(setParts, "current_assignee_id = :current_assignee_id")
		params["current_assignee_id"] = *upd.CurrentAssigneeID
	}
	if upd.ResolutionNotes != nil {
		setParts = append(setParts, "resolution_notes = :resolution_notes")
		params["resolution_notes"] = *upd.ResolutionNotes
	}

	query := fmt.Sprintf("UPDATE issues SET %s WHERE id = :id AND workflow_stage = :from",
		strings.Join(setParts, ", "))
	result, err := tx.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("advance issue stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check issue stage rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleStage
	}
	return nil
}

// MirrorAssignmentWithTx copies the delegation target onto the issue without
// touching the stage. Used when a same-stage reassignment replaces the
// responsible actor.
func (r *IssueRepository) MirrorAssignmentWithTx(ctx context.Context, tx *sqlx.Tx, upd IssueStageUpdate) error {
	setParts := []string{"updated_at = :updated_at"}
	params := map[string]interface{}{
		"id":         upd.ID,
		"updated_at": time.Now().UTC(),
	}
	if upd.AssignedAreaID != nil {
		setParts = append(setParts, "assigned_area_id = :assigned_area_id")
		params["assigned_area_id"] = *upd.AssignedAreaID
	}
	if upd.AssignedDepartmentID != nil {
		setParts = append(setParts, "assigned_department_id = :assigned_department_id")
		params["assigned_department_id"] = *upd.AssignedDepartmentID
	}
	if upd.CurrentAssigneeID != nil {
		setParts = append(setParts, "current_assignee_id = :current_assignee_id")
		params["current_assignee_id"] = *upd.CurrentAssigneeID
	}

	query := fmt.Sprintf("UPDATE issues SET %s WHERE id = :id", strings.Join(setParts, ", "))
	if _, err := tx.NamedExecContext(ctx, query, params); err != nil {
		return fmt.Errorf("mirror assignment onto issue: %w", err)
	}
	return nil
}
