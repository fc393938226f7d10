package reconcile

import (
	"sort"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// evictedCacheSize bounds the snapshots kept for entries removed from the
// live table.
const evictedCacheSize = 512

// Processor accumulates ledger state-delta notifications into per-offer
// reconciliation entries. Events and offer registrations may arrive in any
// order and any number of times; the accumulated diffs converge to the same
// values regardless, because every attribution recomputes the entry from its
// full event set rather than applying increments.
//
// A Processor is safe for concurrent use.
type Processor struct {
	mu        sync.Mutex
	addresses []string
	entries   map[Key]*OfferResult
	evicted   *lru.Cache[Key, Snapshot]
	log       *zap.Logger
}

// NewProcessor returns a Processor tracking offers owned by the given
// addresses. Events touching no tracked address are logged and dropped.
func NewProcessor(addresses []string, log *zap.Logger) *Processor {
	if log == nil {
		log = zap.NewNop()
	}
	evicted, _ := lru.New[Key, Snapshot](evictedCacheSize)
	return &Processor{
		addresses: addresses,
		entries:   make(map[Key]*OfferResult),
		evicted:   evicted,
		log:       log,
	}
}

// AddOffer registers a submitted offer under (tx.Account, tx.Sequence) and
// attaches its original transaction to the entry. Ledger events for the
// offer that arrived before registration are kept; the entry's diffs are
// recomputed over the combined set.
func (p *Processor) AddOffer(tx *meta.Transaction, txMeta *meta.TxMeta) *OfferResult {
	key := Key{Account: tx.Account, Sequence: tx.Sequence}

	p.mu.Lock()
	defer p.mu.Unlock()

	entry := p.entry(key)
	entry.OriginalOffer = &TxAndMeta{Transaction: tx, Meta: txMeta}
	p.recompute(entry)
	return entry
}

// ProcessTransactionStream folds one validated transaction notification into
// the entries it concerns. A single event can touch several entries: the
// initiating offer when its account is tracked, plus every tracked resting
// offer the transaction created, consumed or partially filled.
func (p *Processor) ProcessTransactionStream(ev *meta.TransactionEvent) {
	if ev == nil || ev.Transaction == nil || ev.Meta == nil {
		return
	}
	tx := ev.Transaction

	p.mu.Lock()
	defer p.mu.Unlock()

	switch tx.TransactionType {
	case meta.TxOfferCancel:
		p.processCancel(ev)
	case meta.TxOfferCreate:
		p.processCreate(ev)
	default:
		p.log.Debug("ignoring transaction type",
			zap.String("type", tx.TransactionType),
			zap.String("account", tx.Account))
	}
}

func (p *Processor) processCancel(ev *meta.TransactionEvent) {
	tx := ev.Transaction
	if !contains(p.addresses, tx.Account) {
		return
	}
	key := Key{Account: tx.Account, Sequence: tx.OfferSequence}
	entry := p.entry(key)
	p.attach(entry, ev)
	p.recompute(entry)
}

func (p *Processor) processCreate(ev *meta.TransactionEvent) {
	tx := ev.Transaction
	nodes := ev.Meta.AffectedNodes

	touched := make(map[Key]*OfferResult)
	touch := func(key Key) {
		if _, ok := touched[key]; ok {
			return
		}
		touched[key] = p.entry(key)
	}

	// The taker side. Deltas on the initiator's AccountRoot and trust
	// lines belong to the new offer even when it was fully consumed and
	// no Offer node was ever created for it. A create that touched no
	// Offer node at all concerns no entry.
	if contains(p.addresses, tx.Account) && takerOfferEvidence(nodes, tx.Account) {
		touch(Key{Account: tx.Account, Sequence: tx.Sequence})
	}

	// The maker side: tracked resting offers this transaction crossed,
	// whether it consumed them outright or left a remainder.
	for _, kind := range []meta.NodeKind{meta.KindCreated, meta.KindModified, meta.KindDeleted} {
		for _, of := range meta.OwnedOffers(nodes, kind, p.addresses) {
			touch(Key{Account: of.Account, Sequence: of.Sequence})
		}
	}

	if len(touched) == 0 {
		p.log.Debug("offer create touches no tracked offer",
			zap.String("account", tx.Account),
			zap.Uint32("sequence", tx.Sequence))
		return
	}

	for _, entry := range touched {
		p.attach(entry, ev)
		p.recompute(entry)
	}
}

// GetOffer returns the live entry for key, or nil when none exists.
func (p *Processor) GetOffer(key Key) *OfferResult {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.entries[key]
}

// GetEvicted returns the snapshot of a removed entry, if it is still in the
// eviction cache.
func (p *Processor) GetEvicted(key Key) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.evicted.Get(key)
}

// RemoveOffer drops the live entry for key, keeping a snapshot in the
// eviction cache. It returns the snapshot, and false when no entry existed.
func (p *Processor) RemoveOffer(key Key) (Snapshot, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	entry, ok := p.entries[key]
	if !ok {
		return Snapshot{}, false
	}
	delete(p.entries, key)
	snap := entry.Snapshot()
	p.evicted.Add(key, snap)
	return snap, true
}

// RemoveOfferResult drops the live entry the result belongs to. Convenient
// when the caller holds the entry rather than its key.
func (p *Processor) RemoveOfferResult(r *OfferResult) (Snapshot, bool) {
	if r == nil {
		return Snapshot{}, false
	}
	return p.RemoveOffer(r.key)
}

// Snapshots returns a copy of every live entry, ordered by account then
// sequence.
func (p *Processor) Snapshots() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Snapshot, 0, len(p.entries))
	for _, entry := range p.entries {
		out = append(out, entry.Snapshot())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Account != out[j].Account {
			return out[i].Account < out[j].Account
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out
}

// entry returns the live entry for key, creating it when absent.
func (p *Processor) entry(key Key) *OfferResult {
	if e, ok := p.entries[key]; ok {
		return e
	}
	e := &OfferResult{key: key}
	p.entries[key] = e
	return e
}

// attach adds the event to the entry unless an event with the same
// initiating account and sequence is already attributed. Duplicate delivery
// is routine: an offer acknowledged at submission shows up again on the
// subscription stream.
func (p *Processor) attach(entry *OfferResult, ev *meta.TransactionEvent) {
	for _, have := range entry.Transactions {
		if have.Transaction.Account == ev.Transaction.Account &&
			have.Transaction.Sequence == ev.Transaction.Sequence {
			return
		}
	}
	entry.Transactions = append(entry.Transactions, &TxAndMeta{
		Transaction: ev.Transaction,
		Meta:        ev.Meta,
	})
}

// recompute rebuilds the entry's diffs and deletion flag from scratch.
// Every event is attributed at most once, keyed by its initiating account
// and sequence, and the fold is a plain sum, so the result does not depend
// on arrival order. Only OfferCreate events enter the sum; a cancel marks
// the entry deleted but its fee debit is not part of the offer's outcome.
func (p *Processor) recompute(entry *OfferResult) {
	events := make([]*TxAndMeta, 0, len(entry.Transactions)+1)
	if entry.OriginalOffer != nil && entry.OriginalOffer.Meta != nil {
		events = append(events, entry.OriginalOffer)
	}
	events = append(events, entry.Transactions...)

	xrp := rational.Zero
	cur := rational.Zero
	deleted := false
	seen := make(map[Key]bool, len(events))
	for _, e := range events {
		origin := Key{Account: e.Transaction.Account, Sequence: e.Transaction.Sequence}
		if seen[origin] {
			continue
		}
		seen[origin] = true
		if deletesOffer(e, entry.key) {
			deleted = true
		}
		if e.Transaction.TransactionType != meta.TxOfferCreate {
			continue
		}
		xrp = xrp.Add(meta.AccountRootDelta(e.Meta.AffectedNodes, entry.key.Account))
		cur = cur.Add(meta.TrustLineDelta(e.Meta.AffectedNodes, entry.key.Account))
	}
	entry.XRPDiff = xrp
	entry.CurDiff = cur
	entry.Deleted = deleted
}

// takerOfferEvidence reports whether an OfferCreate left any trace of the
// initiating offer on the ledger: a resting remainder under the initiator's
// account, a foreign resting offer it crossed, or an offer it consumed
// outright. A no-op create carries none of these and its fee debit spawns
// no entry.
func takerOfferEvidence(nodes []meta.AffectedNode, account string) bool {
	if len(meta.OwnedOffers(nodes, meta.KindCreated, []string{account})) > 0 {
		return true
	}
	if len(meta.ForeignModifiedOffers(nodes, []string{account})) > 0 {
		return true
	}
	for _, n := range nodes {
		if n.Kind == meta.KindDeleted && n.LedgerEntryType == meta.EntryOffer {
			return true
		}
	}
	return false
}

// deletesOffer reports whether the event removed the offer identified by
// key, either by cancelling it or by consuming its Offer node.
func deletesOffer(e *TxAndMeta, key Key) bool {
	tx := e.Transaction
	if tx.TransactionType == meta.TxOfferCancel &&
		tx.Account == key.Account && tx.OfferSequence == key.Sequence {
		return true
	}
	for _, of := range meta.OwnedOffers(e.Meta.AffectedNodes, meta.KindDeleted, []string{key.Account}) {
		if of.Sequence == key.Sequence {
			return true
		}
	}
	return false
}

func contains(addresses []string, addr string) bool {
	for _, a := range addresses {
		if a == addr {
			return true
		}
	}
	return false
}
