package models

import "time"

// EntityKind names the state-machine-bearing entities.
type EntityKind string

const (
	EntityIssue    EntityKind = "ISSUE"
	EntityTender   EntityKind = "TENDER"
	EntityBid      EntityKind = "BID"
	EntityProgress EntityKind = "WORK_PROGRESS"
)

// TransitionEvent describes an accepted state transition handed to the
// propagation dispatcher. Cascade effects execute in the same transaction
// as the originating write.
type TransitionEvent struct {
	Entity     EntityKind
	EntityID   string
	From       string
	To         string
	ActorID    string
	OccurredAt time.Time
}

// TransitionRecord is an append-only audit row for every accepted transition.
type TransitionRecord struct {
	ID        string     `db:"id" json:"id"`
	Entity    EntityKind `db:"entity" json:"entity"`
	EntityID  string     `db:"entity_id" json:"entity_id"`
	FromState string     `db:"from_state" json:"from_state"`
	ToState   string     `db:"to_state" json:"to_state"`
	ActorID   string     `db:"actor_id" json:"actor_id"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}
