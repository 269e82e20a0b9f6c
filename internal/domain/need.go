package domain

import "time"

type NeedCategory string

const (
	NeedCategoryItem    NeedCategory = "item"
	NeedCategoryService NeedCategory = "service"
)

// ExchangeKind derives the kind of exchange spawned for a participant who
// positions on a need of this category. The organizer is the creator and the
// participant performs the favor, so the participant side gains.
func (c NeedCategory) ExchangeKind() ExchangeKind {
	if c == NeedCategoryService {
		return ExchangeKindServiceRequested
	}
	return ExchangeKindBorrow
}

func (c NeedCategory) Valid() bool {
	return c == NeedCategoryItem || c == NeedCategoryService
}

type NeedStatus string

const (
	NeedStatusFree     NeedStatus = "FREE"
	NeedStatusPartial  NeedStatus = "PARTIAL"
	NeedStatusComplete NeedStatus = "COMPLETE"
)

// NeedStatusFor classifies an assigned quantity against the requested one.
func NeedStatusFor(assigned int64, requested int32) NeedStatus {
	switch {
	case assigned <= 0:
		return NeedStatusFree
	case assigned >= int64(requested):
		return NeedStatusComplete
	default:
		return NeedStatusPartial
	}
}

type Need struct {
	ID                int32        `json:"id"`
	EventID           int32        `json:"event_id"`
	Label             string       `json:"label"`
	Category          NeedCategory `json:"category"`
	RequestedQuantity int32        `json:"requested_quantity"`
	Urgent            bool         `json:"urgent"`
	CreatedAt         time.Time    `json:"created_at"`
}

// Assignment is a participant's reservation of units of a need's capacity.
type Assignment struct {
	ID            int32     `json:"id"`
	NeedID        int32     `json:"need_id"`
	ParticipantID int32     `json:"participant_id"`
	Quantity      int32     `json:"quantity"`
	ExchangeID    int32     `json:"exchange_id"`
	CreatedAt     time.Time `json:"created_at"`
}
