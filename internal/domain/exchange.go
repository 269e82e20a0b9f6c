package domain

import "time"

type ExchangeKind string

const (
	ExchangeKindLoan             ExchangeKind = "loan"
	ExchangeKindBorrow           ExchangeKind = "borrow"
	ExchangeKindServiceOffered   ExchangeKind = "service_offered"
	ExchangeKindServiceRequested ExchangeKind = "service_requested"
)

// Valid reports whether k is one of the four supported exchange kinds.
func (k ExchangeKind) Valid() bool {
	switch k {
	case ExchangeKindLoan, ExchangeKindBorrow, ExchangeKindServiceOffered, ExchangeKindServiceRequested:
		return true
	}
	return false
}

// CreatorGains reports whether the creator is the one performing the favor
// and therefore gains points when the exchange completes.
func (k ExchangeKind) CreatorGains() bool {
	return k == ExchangeKindLoan || k == ExchangeKindServiceOffered
}

type ExchangeStatus string

const (
	ExchangeStatusActive     ExchangeStatus = "active"
	ExchangeStatusInProgress ExchangeStatus = "in_progress"
	ExchangeStatusCompleted  ExchangeStatus = "completed"
	ExchangeStatusCancelled  ExchangeStatus = "cancelled"
)

// Terminal reports whether no transition can leave s.
func (s ExchangeStatus) Terminal() bool {
	return s == ExchangeStatusCompleted || s == ExchangeStatusCancelled
}

// CanTransitionTo encodes active -> in_progress -> completed with
// active|in_progress -> cancelled as the only side exit.
func (s ExchangeStatus) CanTransitionTo(next ExchangeStatus) bool {
	switch s {
	case ExchangeStatusActive:
		return next == ExchangeStatusInProgress || next == ExchangeStatusCancelled
	case ExchangeStatusInProgress:
		return next == ExchangeStatusCompleted || next == ExchangeStatusCancelled
	}
	return false
}

// ExchangeOrigin is either direct (zero value) or the event need that spawned
// the exchange through an allocation.
type ExchangeOrigin struct {
	EventID *int32 `json:"event_id,omitempty"`
	NeedID  *int32 `json:"need_id,omitempty"`
}

func DirectOrigin() ExchangeOrigin { return ExchangeOrigin{} }

func NeedOrigin(eventID, needID int32) ExchangeOrigin {
	return ExchangeOrigin{EventID: &eventID, NeedID: &needID}
}

// FromNeed reports whether the exchange was spawned by a positioning.
func (o ExchangeOrigin) FromNeed() bool {
	return o.EventID != nil && o.NeedID != nil
}

type Exchange struct {
	ID             int32          `json:"id"`
	Kind           ExchangeKind   `json:"kind"`
	Status         ExchangeStatus `json:"status"`
	Title          string         `json:"title"`
	CreatorID      int32          `json:"creator_id"`
	CounterpartyID *int32         `json:"counterparty_id,omitempty"`
	PointsValue    int32          `json:"points_value"`
	Origin         ExchangeOrigin `json:"origin"`
	CancelReason   string         `json:"cancel_reason,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	StartedAt      *time.Time     `json:"started_at,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
}

// HasParticipant reports whether userID is the creator or the counterparty.
func (e *Exchange) HasParticipant(userID int32) bool {
	if e.CreatorID == userID {
		return true
	}
	return e.CounterpartyID != nil && *e.CounterpartyID == userID
}
