package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/opencivic/civicflow-api/internal/models"
)

const notificationColumns = `id, recipient_id, kind, related_entity, related_id, message, created_at, delivered_at`

// NotificationRepository persists the write-once notification event log.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateWithTx inserts an event inside the originating transition's
// transaction: the event is produced iff the cascade commits.
func (r *NotificationRepository) CreateWithTx(ctx context.Context, tx *sqlx.Tx, event *models.NotificationEvent) error {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notification_events
	(id, recipient_id, kind, related_entity, related_id, message, created_at, delivered_at)
	VALUES (:id, :recipient_id, :kind, :related_entity, :related_id, :message, :created_at, :delivered_at)`
	if _, err := tx.NamedExecContext(ctx, query, event); err != nil {
		return fmt.Errorf("create notification event: %w", err)
	}
	return nil
}

// GetByID fetches an event by identifier.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*models.NotificationEvent, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE id = $1`, notificationColumns)
	var event models.NotificationEvent
	if err := r.db.GetContext(ctx, &event, query, id); err != nil {
		return nil, err
	}
	return &event, nil
}

// ListForRecipient returns a recipient's events, newest first.
func (r *NotificationRepository) ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.NotificationEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE recipient_id = $1
	ORDER BY created_at DESC LIMIT %d OFFSET %d`, notificationColumns, limit, offset)
	var events []models.NotificationEvent
	if err := r.db.SelectContext(ctx, &events, query, recipientID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return events, nil
}

// ListUndelivered returns events the transport has not confirmed yet,
// oldest first. Drives the at-least-once redelivery sweep.
func (r *NotificationRepository) ListUndelivered(ctx context.Context, limit int) ([]models.NotificationEvent, error) {
	if limit <= 0 {
		limit = 100
	}
	query := fmt.Sprintf(`SELECT %s FROM notification_events WHERE delivered_at IS NULL
	ORDER BY created_at ASC LIMIT %d`, notificationColumns, limit)
	var events []models.NotificationEvent
	if err := r.db.SelectContext(ctx, &events, query); err != nil {
		return nil, fmt.Errorf("list undelivered notifications: %w", err)
	}
	return events, nil
}

// MarkDelivered records transport confirmation for an event.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id string) error {
	const query = `UPDATE notification_events SET delivered_at = $1 WHERE id = $2 AND delivered_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("mark notification delivered: %w", err)
	}
	return nil
}
