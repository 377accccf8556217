package models

import "time"

// NotificationKind labels the cascade that produced an event.
type NotificationKind string

const (
	NotificationBidAccepted   NotificationKind = "BID_ACCEPTED"
	NotificationWorkCompleted NotificationKind = "WORK_COMPLETED"
	NotificationBidRejected   NotificationKind = "BID_REJECTED"
	NotificationIssueResolved NotificationKind = "ISSUE_RESOLVED"
)

// NotificationEvent is a write-once record produced inside the originating
// transaction. Delivery through the external transport is decoupled and
// at-least-once; DeliveredAt is set by the delivery worker.
type NotificationEvent struct {
	ID            string           `db:"id" json:"id"`
	RecipientID   string           `db:"recipient_id" json:"recipient_id"`
	Kind          NotificationKind `db:"kind" json:"kind"`
	RelatedEntity string           `db:"related_entity" json:"related_entity"`
	RelatedID     string           `db:"related_id" json:"related_id"`
	Message       string           `db:"message" json:"message"`
	CreatedAt     time.Time        `db:"created_at" json:"created_at"`
	DeliveredAt   *time.Time       `db:"delivered_at" json:"delivered_at,omitempty"`
}
