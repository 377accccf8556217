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

const tenderColumns = `id, reference, title, description, department_id, source_issue_id,
       workflow_stage, awarded_contractor_id, awarded_amount, awarded_at,
       work_started_at, work_completed_at, verification_notes, created_by, created_at, updated_at`

// TenderRepository persists tenders and their guarded stage updates.
type TenderRepository struct {
	db *sqlx.DB
}

// NewTenderRepository constructs the repository.
func NewTenderRepository(db *sqlx.DB) *TenderRepository {
	return &TenderRepository{db: db}
}

// Create inserts a new tender.
func (r *TenderRepository) Create(ctx context.Context, tender *models.Tender) error {
	if tender.ID == "" {
		tender.ID = uuid.NewString()
	}
	if tender.WorkflowStage == "" {
		tender.WorkflowStage = models.TenderStageCreated
	}
	now := time.Now().UTC()
	if tender.CreatedAt.IsZero() {
		tender.CreatedAt = now
	}
	tender.UpdatedAt = now
	const query = `INSERT INTO tenders
	(id, reference, title, description, department_id, source_issue_id, workflow_stage,
	 awarded_contractor_id, awarded_amount, awarded_at, work_started_at, work_completed_at,
	 verification_notes, created_by, created_at, updated_at)
	VALUES (:id, :reference, :title, :description, :department_id, :source_issue_id, :workflow_stage,
	 :awarded_contractor_id, :awarded_amount, :awarded_at, :work_started_at, :work_completed_at,
	 :verification_notes, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, tender); err != nil {
		return fmt.Errorf("create tender: %w", err)
	}
	return nil
}

// GetByID fetches a tender by identifier.
func (r *TenderRepository) GetByID(ctx context.Context, id string) (*models.Tender, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenders WHERE id = $1`, tenderColumns)
	var tender models.Tender
	if err := r.db.GetContext(ctx, &tender, query, id); err != nil {
		return nil, err
	}
	return &tender, nil
}

// GetWithTx fetches a tender inside a transaction, taking a row lock. The
// lock is the serialization point for concurrent bid acceptance.
func (r *TenderRepository) GetWithTx(ctx context.Context, tx *sqlx.Tx, id string) (*models.Tender, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenders WHERE id = $1 FOR UPDATE`, tenderColumns)
	var tender models.Tender
	if err := tx.GetContext(ctx, &tender, query, id); err != nil {
		return nil, err
	}
	return &tender, nil
}

// List returns tenders matching the filter (latest first).
func (r *TenderRepository) List(ctx context.Context, filter models.TenderFilter) ([]models.Tender, error) {
	builder := strings.Builder{}
	args := make([]interface{}, 0, 5)
	fmt.Fprintf(&builder, "SELECT %s FROM tenders", tenderColumns)

	conditions := make([]string, 0, 4)
	if len(filter.Stage) > 0 {
		placeholders := make([]string, len(filter.Stage))
		for i, stage := range filter.Stage {
			args = append(args, stage)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		conditions = append(conditions, fmt.Sprintf("workflow_stage IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.DepartmentID != "" {
		args = append(args, filter.DepartmentID)
		conditions = append(conditions, fmt.Sprintf("department_id = $%d", len(args)))
	}
	if filter.ContractorID != "" {
		args = append(args, filter.ContractorID)
		conditions = append(conditions, fmt.Sprintf("awarded_contractor_id = $%d", len(args)))
	}
	if filter.SourceIssue != "" {
		args = append(args, filter.SourceIssue)
		conditions = append(conditions, fmt.Sprintf("source_issue_id = $%d", len(args)))
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

	var tenders []models.Tender
	if err := r.db.SelectContext(ctx, &tenders, builder.String(), args...); err != nil {
		return nil, fmt.Errorf("list tenders: %w", err)
	}
	return tenders, nil
}

// ListByDepartment returns the full register for a department, used by the
// export surface.
func (r *TenderRepository) ListByDepartment(ctx context.Context, departmentID string) ([]models.Tender, error) {
	query := fmt.Sprintf(`SELECT %s FROM tenders WHERE department_id = $1 ORDER BY created_at ASC`, tenderColumns)
	var tenders []models.Tender
	if err := r.db.SelectContext(ctx, &tenders, query, departmentID); err != nil {
		return nil, fmt.Errorf("list department tenders: %w", err)
	}
	return tenders, nil
}

// TenderStageUpdate groups the columns a guarded stage transition may set.
// Nil pointers leave the column untouched.
type TenderStageUpdate struct {
	ID                  string
	From                models.TenderStage
	To                  models.TenderStage
	AwardedContractorID *string
	AwardedAmount       *float64
	AwardedAt           *time.Time
	WorkStartedAt       *time.Time
	WorkCompletedAt     *time.Time
	VerificationNotes   *string
}

// AdvanceStageWithTx performs a guarded stage transition; zero rows affected
// means a concurrent transition won.
func (r *TenderRepository) AdvanceStageWithTx(ctx context.Context, tx *sqlx.Tx, upd TenderStageUpdate) error {
	setParts := []string{"workflow_stage = :to", "updated_at = :updated_at"}
	params := map[string]interface{}{
		"id":         upd.ID,
		"from":       upd.From,
		"to":         upd.To,
		"updated_at": time.Now().UTC(),
	}
	if upd.AwardedContractorID != nil {
		setParts = append(setParts, "awarded_contractor_id = :awarded_contractor_id")
		params["awarded_contractor_id"] = *upd.AwardedContractorID
	}
	if upd.AwardedAmount != nil {
		setParts = append(setParts, "awarded_amount = :awarded_amount")
		params["awarded_amount"] = *upd.AwardedAmount
	}
	if upd.AwardedAt != nil {
		setParts = append(setParts, "awarded_at = :awarded_at")
		params["awarded_at"] = *upd.AwardedAt
	}
	if upd.WorkStartedAt != nil {
		setParts = append(setParts, "work_started_at = :work_started_at")
		params["work_started_at"] = *upd.WorkStartedAt
	}
	if upd.WorkCompletedAt != nil {
		setParts = append(setParts, "work_completed_at = :work_completed_at")
		params["work_completed_at"] = *upd.WorkCompletedAt
	}
	if upd.VerificationNotes != nil {
		setParts = append(setParts, "verification_notes = :verification_notes")
		params["verification_notes"] = *upd.VerificationNotes
	}

	query := fmt.Sprintf("UPDATE tenders SET %s WHERE id = :id AND workflow_stage = :from",
		strings.Join(setParts, ", "))
	result, err := tx.NamedExecContext(ctx, query, params)
	if err != nil {
		return fmt.Errorf("advance tender stage: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check tender stage rows: %w", err)
	}
	if rows == 0 {
		return ErrStaleStage
	}
	return nil
}
