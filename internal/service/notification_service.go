package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/opencivic/civicflow-api/internal/models"
	appErrors "github.com/opencivic/civicflow-api/pkg/errors"
	"github.com/opencivic/civicflow-api/pkg/jobs"
)

// Transport delivers a notification event through an external channel.
// Implementations must tolerate duplicate deliveries of the same event;
// the pipeline is at-least-once.
type Transport interface {
	Deliver(ctx context.Context, event models.NotificationEvent) error
}

// LogTransport is the default transport: it writes deliveries to the
// application log. Real channels (mail, SMS) slot in behind the same
// interface.
type LogTransport struct {
	Logger *zap.Logger
}

// Deliver logs the event.
func (t *LogTransport) Deliver(_ context.Context, event models.NotificationEvent) error {
	t.Logger.Info("notification delivered",
		zap.String("notification_id", event.ID),
		zap.String("recipient_id", event.RecipientID),
		zap.String("kind", string(event.Kind)),
		zap.String("message", event.Message))
	return nil
}

type notificationStore interface {
	GetByID(ctx context.Context, id string) (*models.NotificationEvent, error)
	ListForRecipient(ctx context.Context, recipientID string, limit, offset int) ([]models.NotificationEvent, error)
	ListUndelivered(ctx context.Context, limit int) ([]models.NotificationEvent, error)
	MarkDelivered(ctx context.Context, id string) error
}

// NotificationService runs the delivery side of the notification pipeline:
// events are written transactionally by the dispatcher, enqueued after
// commit, delivered by the worker pool, and marked delivered afterwards.
// A crash between commit and enqueue is repaired by RequeueUndelivered.
type NotificationService struct {
	store     notificationStore
	transport Transport
	queue     *jobs.Queue
	logger    *zap.Logger
}

// NewNotificationService constructs the service and its delivery queue.
func NewNotificationService(store notificationStore, transport Transport, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	s := &NotificationService{
		store:     store,
		transport: transport,
		logger:    logger,
	}
	s.queue = jobs.NewQueue("notification-delivery", s.deliver, cfg)
	return s
}

// Start launches the delivery workers.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// EnqueueDelivery schedules committed events for delivery. Failures are
// logged, not returned: the events are durable and the requeue sweep picks
// up anything the queue refused.
func (s *NotificationService) EnqueueDelivery(events []models.NotificationEvent) {
	for i := range events {
		if err := s.queue.Enqueue(jobs.Job{
			ID:      events[i].ID,
			Type:    string(events[i].Kind),
			Payload: events[i],
		}); err != nil {
			s.logger.Warn("notification enqueue failed, left for requeue sweep",
				zap.String("notification_id", events[i].ID),
				zap.Error(err))
		}
	}
}

// RequeueUndelivered re-enqueues events that never got a delivery mark.
// Called on startup and periodically.
func (s *NotificationService) RequeueUndelivered(ctx context.Context, limit int) (int, error) {
	events, err := s.store.ListUndelivered(ctx, limit)
	if err != nil {
		return 0, appErrors.Internal(err, "list undelivered notifications")
	}
	s.EnqueueDelivery(events)
	return len(events), nil
}

// RunRequeueLoop periodically repairs the delivery backlog until the
// context ends.
func (s *NotificationService) RunRequeueLoop(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := s.RequeueUndelivered(ctx, 100); err != nil {
				s.logger.Warn("requeue sweep failed", zap.Error(err))
			} else if n > 0 {
				s.logger.Info("requeued undelivered notifications", zap.Int("count", n))
			}
		}
	}
}

// ListForActor returns an actor's own notification feed.
func (s *NotificationService) ListForActor(ctx context.Context, actor *models.Actor, limit, offset int) ([]models.NotificationEvent, error) {
	if actor == nil {
		return nil, appErrors.ErrUnidentified
	}
	events, err := s.store.ListForRecipient(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, appErrors.Internal(err, "list notifications")
	}
	return events, nil
}

// deliver is the queue handler: send through the transport, then mark.
// Marking after sending keeps the at-least-once guarantee; a crash in
// between produces a duplicate delivery, never a lost one.
func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(models.NotificationEvent)
	if !ok {
		fresh, err := s.store.GetByID(ctx, job.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil
			}
			return err
		}
		event = *fresh
	}
	if event.DeliveredAt != nil {
		return nil
	}
	if err := s.transport.Deliver(ctx, event); err != nil {
		return err
	}
	return s.store.MarkDelivered(ctx, event.ID)
}
