package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

// TransitionRepository appends to the transition audit log.
type TransitionRepository struct {
	db *sqlx.DB
}

// NewTransitionRepository constructs the repository.
func NewTransitionRepository(db *sqlx.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

// RecordWithTx appends an audit row inside the transition's transaction.
func (r *TransitionRepository) RecordWithTx(ctx context.Context, tx *sqlx.Tx, record *models.TransitionRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO transition_log
	(id, entity, entity_id, from_state, to_state, actor_id, created_at)
	VALUES (:id, :entity, :entity_id, :from_state, :to_state, :actor_id, :created_at)`
	if _, err := tx.NamedExecContext(ctx, query, record); err != nil {
		return fmt.Errorf("record transition: %w", err)
	}
	return nil
}

// ListForEntity returns the audit trail for an entity, oldest first.
func (r *TransitionRepository) ListForEntity(ctx context.Context, entity models.EntityKind, entityID string) ([]models.TransitionRecord, error) {
	const query = `SELECT id, entity, entity_id, from_state, to_state, actor_id, created_at
	FROM transition_log WHERE entity = $1 AND entity_id = $2 ORDER BY created_at ASC`
	var records []models.TransitionRecord
	if err := r.db.SelectContext(ctx, &records, query, entity, entityID); err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	return records, nil
}
