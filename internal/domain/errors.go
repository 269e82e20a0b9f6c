package domain

import "errors"

var (
	// Lifecycle
	ErrInvalidStateTransition = errors.New("invalid state transition")
	ErrAlreadyAccepted        = errors.New("exchange already accepted")
	ErrSelfExchange           = errors.New("creator cannot be the counterparty")
	ErrNotParticipant         = errors.New("user is not a participant of this exchange")

	// Allocation
	ErrDuplicateAssignment = errors.New("participant already positioned on this need")
	ErrNeedFullyAllocated  = errors.New("need fully allocated")
	ErrEventClosed         = errors.New("event no longer accepts positionings")

	// Ledger
	ErrLedgerPostingConflict = errors.New("ledger batch already posted for exchange")
	ErrInvalidPosting        = errors.New("invalid ledger posting")

	// Input
	ErrInvalidQuantity    = errors.New("invalid quantity")
	ErrInvalidPointsValue = errors.New("invalid points value")
	ErrInvalidKind        = errors.New("invalid exchange kind")
	ErrInvalidCategory    = errors.New("invalid need category")

	// Lookup
	ErrUnknownExchange = errors.New("unknown exchange")
	ErrUnknownNeed     = errors.New("unknown need")
	ErrUnknownEvent    = errors.New("unknown event")
)
