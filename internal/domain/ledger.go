package domain

import "time"

type LedgerReason string

const (
	LedgerReasonGain    LedgerReason = "gain"
	LedgerReasonDepense LedgerReason = "depense"
	LedgerReasonBonus   LedgerReason = "bonus"
)

func (r LedgerReason) Valid() bool {
	return r == LedgerReasonGain || r == LedgerReasonDepense || r == LedgerReasonBonus
}

// LedgerEntry is one immutable signed BOBIZ posting.
type LedgerEntry struct {
	ID         int32        `json:"id"`
	BatchID    string       `json:"batch_id"`
	UserID     int32        `json:"user_id"`
	ExchangeID int32        `json:"exchange_id"`
	Amount     int32        `json:"amount"` // positive for gain, negative for depense
	Reason     LedgerReason `json:"reason"`
	CreatedAt  time.Time    `json:"created_at"`
}

// Posting is a requested entry before it is written.
type Posting struct {
	UserID int32        `json:"user_id"`
	Amount int32        `json:"amount"`
	Reason LedgerReason `json:"reason"`
}

// SplitPostings returns the two postings for a completed pairwise exchange.
// loan/service_offered: creator +v, counterparty -v.
// borrow/service_requested: creator -v, counterparty +v.
func SplitPostings(ex *Exchange) []Posting {
	if ex.CounterpartyID == nil {
		return nil
	}
	gainer, payer := ex.CreatorID, *ex.CounterpartyID
	if !ex.Kind.CreatorGains() {
		gainer, payer = payer, gainer
	}
	return []Posting{
		{UserID: gainer, Amount: ex.PointsValue, Reason: LedgerReasonGain},
		{UserID: payer, Amount: -ex.PointsValue, Reason: LedgerReasonDepense},
	}
}

// LedgerAudit is the reconciliation view of one exchange's postings.
type LedgerAudit struct {
	ExchangeID int32 `json:"exchange_id"`
	Entries    int   `json:"entries"`
	Sum        int64 `json:"sum"`
}

// Balanced reports whether the postings conserve points.
func (a LedgerAudit) Balanced() bool {
	return a.Sum == 0
}
