package domain

import "time"

type Notification struct {
	ID         int32             `json:"id"`
	UserID     int32             `json:"user_id"`
	Title      string            `json:"title"`
	Message    string            `json:"message"`
	IsRead     bool              `json:"is_read"`
	Attributes map[string]string `json:"attributes"`
	CreatedOn  time.Time         `json:"created_on"`
}

type EngineEventType string

const (
	EngineEventExchangeCreated   EngineEventType = "EXCHANGE_CREATED"
	EngineEventExchangeStarted   EngineEventType = "EXCHANGE_STARTED"
	EngineEventExchangeCompleted EngineEventType = "EXCHANGE_COMPLETED"
	EngineEventExchangeCancelled EngineEventType = "EXCHANGE_CANCELLED"
	EngineEventPositionAccepted  EngineEventType = "POSITION_ACCEPTED"
	EngineEventPositionRejected  EngineEventType = "POSITION_REJECTED"
)

// EngineEvent is handed to the notification collaborator after commit.
type EngineEvent struct {
	Type       EngineEventType
	Recipients []int32
	ExchangeID int32
	NeedID     int32
	EventID    int32
	Reason     string
	OccurredAt time.Time
}
