// Package reconcile confirms, after the fact, how much value tracked offers
// actually moved by replaying the ledger's own state-delta notifications.
// Predictions from the book package are optimistic; the running diffs kept
// here are what the ledger says happened.
package reconcile

import (
	"fmt"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// Key identifies an offer for the whole of its life. The ledger guarantees
// nothing else is unique and stable, so nothing else may be used as
// identity.
type Key struct {
	Account  string
	Sequence uint32
}

func (k Key) String() string {
	return fmt.Sprintf("%s:%d", k.Account, k.Sequence)
}

// TxAndMeta pairs a validated transaction with its metadata, either from a
// submission acknowledgment or from the subscription stream.
type TxAndMeta struct {
	Transaction *meta.Transaction
	Meta        *meta.TxMeta
}

// OfferResult is the running reconciliation state for one tracked offer.
// Entries are created lazily on first reference, from either direction:
// registration of a submitted offer, or a ledger event that mentions it
// first. They are never removed automatically; call RemoveOffer once
// Deleted has been observed to bound memory.
//
// An OfferResult is owned by its Processor. Read it only under the
// process-wide coordination described in the Processor docs and do not
// mutate it.
type OfferResult struct {
	// OriginalOffer is the submitted transaction and metadata, when the
	// offer was registered. Entries created purely from event traffic
	// have none until AddOffer attaches it.
	OriginalOffer *TxAndMeta

	// Transactions are the ledger events attributed to this offer so
	// far, in arrival order.
	Transactions []*TxAndMeta

	// XRPDiff is the cumulative XRP change in drops across all
	// attributed events, from the offer owner's perspective.
	XRPDiff rational.Rational

	// CurDiff is the cumulative issued-currency change.
	CurDiff rational.Rational

	// Deleted reports that the ledger has removed the offer, by full
	// crossing or by cancel.
	Deleted bool

	key Key
}

// Key returns the identity this entry is tracked under.
func (r *OfferResult) Key() Key { return r.key }

// Snapshot is an immutable copy of an OfferResult suitable for
// persistence and export. Diffs are exact rational strings.
type Snapshot struct {
	Account  string `json:"account"`
	Sequence uint32 `json:"sequence"`
	XRPDiff  string `json:"xrpDiff"`
	CurDiff  string `json:"curDiff"`
	Deleted  bool   `json:"deleted"`
	Events   int    `json:"events"`
}

// Snapshot captures the entry's current state.
func (r *OfferResult) Snapshot() Snapshot {
	return Snapshot{
		Account:  r.key.Account,
		Sequence: r.key.Sequence,
		XRPDiff:  r.XRPDiff.String(),
		CurDiff:  r.CurDiff.String(),
		Deleted:  r.Deleted,
		Events:   len(r.Transactions),
	}
}
