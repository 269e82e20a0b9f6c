package domain

import "time"

type EventStatus string

const (
	EventStatusPlanned    EventStatus = "planned"
	EventStatusInProgress EventStatus = "in_progress"
	EventStatusCompleted  EventStatus = "completed"
	EventStatusCancelled  EventStatus = "cancelled"
)

// CanTransitionTo allows planned -> in_progress -> completed and
// planned|in_progress -> cancelled.
func (s EventStatus) CanTransitionTo(next EventStatus) bool {
	switch s {
	case EventStatusPlanned:
		return next == EventStatusInProgress || next == EventStatusCancelled
	case EventStatusInProgress:
		return next == EventStatusCompleted || next == EventStatusCancelled
	}
	return false
}

// Closed reports whether the event no longer accepts positionings.
func (s EventStatus) Closed() bool {
	return s == EventStatusCompleted || s == EventStatusCancelled
}

type Event struct {
	ID          int32       `json:"id"`
	OrganizerID int32       `json:"organizer_id"`
	Title       string      `json:"title"`
	Status      EventStatus `json:"status"`
	StartsAt    *time.Time  `json:"starts_at,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
}

type FulfillmentStatus string

const (
	FulfillmentPlanned FulfillmentStatus = "planned"
	FulfillmentReady   FulfillmentStatus = "ready"
)

type NeedFulfillment struct {
	Need     Need       `json:"need"`
	Assigned int64      `json:"assigned"`
	Status   NeedStatus `json:"status"`
}

// EventAggregate is the informational fulfillment view of an event.
type EventAggregate struct {
	Event   Event                     `json:"event"`
	Needs   map[int32]NeedFulfillment `json:"needs"`
	Overall FulfillmentStatus         `json:"overall"`
}
