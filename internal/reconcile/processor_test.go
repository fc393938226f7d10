package reconcile

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
)

const (
	alice   = "rAliceXoKpH4LEB7WzJqPGRt5Ds5WjS9nx"
	bob     = "rBobzpDdRTxoCgiTFmNDHkzQBMAEMTx9qG"
	carol   = "rCaro1m9cPSE8jV46QSpsoBqgTxKJrqCmA"
	gateway = "rGateWayhE5NVeMTPCmnXt4ZihgXPqG41A"
)

func accountRootMod(account, prev, final string) meta.AffectedNode {
	return meta.AffectedNode{
		Kind:            meta.KindModified,
		LedgerEntryType: meta.EntryAccountRoot,
		FinalFields:     map[string]any{"Account": account, "Balance": final},
		PreviousFields:  map[string]any{"Balance": prev},
	}
}

func trustLineMod(low, high, prev, final string) meta.AffectedNode {
	return meta.AffectedNode{
		Kind:            meta.KindModified,
		LedgerEntryType: meta.EntryRippleState,
		FinalFields: map[string]any{
			"LowLimit":  map[string]any{"currency": "USD", "issuer": low, "value": "0"},
			"HighLimit": map[string]any{"currency": "USD", "issuer": high, "value": "1000"},
			"Balance":   map[string]any{"currency": "USD", "issuer": "rrrrrrrrrrrrrrrrrrrrBZbvji", "value": final},
		},
		PreviousFields: map[string]any{
			"Balance": map[string]any{"currency": "USD", "issuer": "rrrrrrrrrrrrrrrrrrrrBZbvji", "value": prev},
		},
	}
}

func offerNode(kind meta.NodeKind, account string, sequence uint32) meta.AffectedNode {
	fields := map[string]any{
		"Account":   account,
		"Sequence":  float64(sequence),
		"TakerGets": map[string]any{"currency": "USD", "issuer": gateway, "value": "40"},
		"TakerPays": "20000000",
	}
	n := meta.AffectedNode{Kind: kind, LedgerEntryType: meta.EntryOffer}
	if kind == meta.KindCreated {
		n.NewFields = fields
	} else {
		n.FinalFields = fields
	}
	return n
}

func createEvent(account string, sequence uint32, nodes ...meta.AffectedNode) *meta.TransactionEvent {
	return &meta.TransactionEvent{
		Type: "transaction",
		Transaction: &meta.Transaction{
			TransactionType: meta.TxOfferCreate,
			Account:         account,
			Sequence:        sequence,
		},
		Meta:      &meta.TxMeta{AffectedNodes: nodes, TransactionResult: "tesSUCCESS"},
		Validated: true,
	}
}

func cancelEvent(account string, sequence, offerSequence uint32, nodes ...meta.AffectedNode) *meta.TransactionEvent {
	return &meta.TransactionEvent{
		Type: "transaction",
		Transaction: &meta.Transaction{
			TransactionType: meta.TxOfferCancel,
			Account:         account,
			Sequence:        sequence,
			OfferSequence:   offerSequence,
		},
		Meta:      &meta.TxMeta{AffectedNodes: nodes, TransactionResult: "tesSUCCESS"},
		Validated: true,
	}
}

// aliceCreateEvent is alice's own OfferCreate, seq 7, partially crossed on
// entry: she gains drops, spends USD, and a remainder offer rests.
func aliceCreateEvent() *meta.TransactionEvent {
	return createEvent(alice, 7,
		accountRootMod(alice, "100000000", "129999988"),
		trustLineMod(alice, gateway, "500", "440"),
		offerNode(meta.KindCreated, alice, 7),
	)
}

// takeoutEvent is carol's later OfferCreate consuming alice's resting
// remainder: alice gains more drops, spends more USD, her offer node goes.
func takeoutEvent() *meta.TransactionEvent {
	return createEvent(carol, 12,
		accountRootMod(alice, "129999988", "149999988"),
		trustLineMod(alice, gateway, "440", "400"),
		offerNode(meta.KindDeleted, alice, 7),
	)
}

func newTestProcessor(t *testing.T) *Processor {
	t.Helper()
	return NewProcessor([]string{alice}, zap.NewNop())
}

func TestProcessorAccumulatesDiffs(t *testing.T) {
	p := newTestProcessor(t)

	p.ProcessTransactionStream(aliceCreateEvent())
	p.ProcessTransactionStream(takeoutEvent())

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.Equal(t, "49999988", entry.XRPDiff.String())
	require.Equal(t, "-100", entry.CurDiff.String())
	require.True(t, entry.Deleted)
	require.Len(t, entry.Transactions, 2)
}

func TestProcessorOrderIndependence(t *testing.T) {
	key := Key{Account: alice, Sequence: 7}

	forward := newTestProcessor(t)
	forward.ProcessTransactionStream(aliceCreateEvent())
	forward.ProcessTransactionStream(takeoutEvent())

	reversed := newTestProcessor(t)
	reversed.ProcessTransactionStream(takeoutEvent())
	reversed.ProcessTransactionStream(aliceCreateEvent())

	a, b := forward.GetOffer(key), reversed.GetOffer(key)
	require.NotNil(t, a)
	require.NotNil(t, b)
	require.True(t, a.XRPDiff.Eq(b.XRPDiff))
	require.True(t, a.CurDiff.Eq(b.CurDiff))
	require.Equal(t, a.Deleted, b.Deleted)
}

func TestProcessorDuplicateDeliveryIsIdempotent(t *testing.T) {
	p := newTestProcessor(t)

	ev := aliceCreateEvent()
	p.ProcessTransactionStream(ev)
	p.ProcessTransactionStream(ev)
	p.ProcessTransactionStream(aliceCreateEvent())

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.Equal(t, "29999988", entry.XRPDiff.String())
	require.Equal(t, "-60", entry.CurDiff.String())
	require.Len(t, entry.Transactions, 1)
}

func TestProcessorAckThenStreamCountsOnce(t *testing.T) {
	p := newTestProcessor(t)

	// Submission acknowledgment carries the same transaction the stream
	// will deliver again.
	ack := aliceCreateEvent()
	p.AddOffer(ack.Transaction, ack.Meta)
	p.ProcessTransactionStream(aliceCreateEvent())

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.NotNil(t, entry.OriginalOffer)
	require.Equal(t, "29999988", entry.XRPDiff.String())
	require.Equal(t, "-60", entry.CurDiff.String())
}

func TestProcessorLateRegistrationKeepsBufferedEvents(t *testing.T) {
	p := newTestProcessor(t)

	// The takeout arrives before the offer is registered. Registration
	// must attach the original without losing the buffered event.
	p.ProcessTransactionStream(takeoutEvent())

	ack := aliceCreateEvent()
	entry := p.AddOffer(ack.Transaction, ack.Meta)
	require.Equal(t, "49999988", entry.XRPDiff.String())
	require.Equal(t, "-100", entry.CurDiff.String())
	require.True(t, entry.Deleted)
}

func TestProcessorCancelMarksDeleted(t *testing.T) {
	p := newTestProcessor(t)

	p.ProcessTransactionStream(aliceCreateEvent())
	p.ProcessTransactionStream(cancelEvent(alice, 9, 7,
		offerNode(meta.KindDeleted, alice, 7),
		accountRootMod(alice, "129999988", "129999976"),
	))

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.True(t, entry.Deleted)
	// The cancel marks the entry deleted; its fee debit is not part of
	// the offer's outcome and must not move the diff.
	require.Equal(t, "29999988", entry.XRPDiff.String())
	require.Equal(t, "-60", entry.CurDiff.String())
}

func TestProcessorCancelBeforeCreate(t *testing.T) {
	p := newTestProcessor(t)

	p.ProcessTransactionStream(cancelEvent(alice, 9, 7,
		offerNode(meta.KindDeleted, alice, 7),
		accountRootMod(alice, "129999988", "129999976"),
	))
	p.ProcessTransactionStream(aliceCreateEvent())

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.True(t, entry.Deleted)
	require.Equal(t, "29999988", entry.XRPDiff.String())
	require.Equal(t, "-60", entry.CurDiff.String())
}

func TestProcessorFullyConsumedTakerOffer(t *testing.T) {
	p := newTestProcessor(t)

	// Alice's offer crossed completely on entry: no Offer node of hers
	// exists, only the counterparty's modified one. The deltas still
	// belong to (alice, 7).
	p.ProcessTransactionStream(createEvent(alice, 7,
		accountRootMod(alice, "100000000", "149999988"),
		trustLineMod(alice, gateway, "500", "400"),
		offerNode(meta.KindModified, bob, 3),
	))

	entry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, entry)
	require.Equal(t, "49999988", entry.XRPDiff.String())
	require.Equal(t, "-100", entry.CurDiff.String())
	require.False(t, entry.Deleted)
}

func TestProcessorIgnoresCreateWithoutOfferNodes(t *testing.T) {
	p := newTestProcessor(t)

	// A tracked account's OfferCreate that left no trace of any offer on
	// the ledger is just a fee debit. It must not spawn an entry.
	p.ProcessTransactionStream(createEvent(alice, 11,
		accountRootMod(alice, "100000000", "99999988"),
	))

	require.Nil(t, p.GetOffer(Key{Account: alice, Sequence: 11}))
	require.Empty(t, p.Snapshots())
}

func TestProcessorIgnoresUntrackedTraffic(t *testing.T) {
	p := newTestProcessor(t)

	p.ProcessTransactionStream(createEvent(bob, 3,
		accountRootMod(bob, "100000000", "99999988"),
		offerNode(meta.KindCreated, bob, 3),
	))
	p.ProcessTransactionStream(cancelEvent(bob, 4, 3,
		offerNode(meta.KindDeleted, bob, 3),
	))

	require.Empty(t, p.Snapshots())
}

func TestProcessorEventTouchingSeveralEntries(t *testing.T) {
	p := NewProcessor([]string{alice, bob}, zap.NewNop())

	// Carol's transaction consumes alice's resting offer and modifies
	// bob's in one go. Both tracked entries get the event, each with
	// diffs computed for its own account.
	p.ProcessTransactionStream(createEvent(carol, 20,
		offerNode(meta.KindDeleted, alice, 7),
		offerNode(meta.KindModified, bob, 3),
		accountRootMod(alice, "100000000", "120000000"),
		accountRootMod(bob, "200000000", "210000000"),
		trustLineMod(alice, gateway, "100", "60"),
		trustLineMod(bob, gateway, "50", "30"),
	))

	aliceEntry := p.GetOffer(Key{Account: alice, Sequence: 7})
	require.NotNil(t, aliceEntry)
	require.Equal(t, "20000000", aliceEntry.XRPDiff.String())
	require.Equal(t, "-40", aliceEntry.CurDiff.String())
	require.True(t, aliceEntry.Deleted)

	bobEntry := p.GetOffer(Key{Account: bob, Sequence: 3})
	require.NotNil(t, bobEntry)
	require.Equal(t, "10000000", bobEntry.XRPDiff.String())
	require.Equal(t, "-20", bobEntry.CurDiff.String())
	require.False(t, bobEntry.Deleted)
}

func TestProcessorRemoveOfferEvicts(t *testing.T) {
	p := newTestProcessor(t)
	key := Key{Account: alice, Sequence: 7}

	p.ProcessTransactionStream(aliceCreateEvent())
	p.ProcessTransactionStream(takeoutEvent())

	snap, ok := p.RemoveOffer(key)
	require.True(t, ok)
	require.Equal(t, "49999988", snap.XRPDiff)
	require.True(t, snap.Deleted)

	require.Nil(t, p.GetOffer(key))

	cached, ok := p.GetEvicted(key)
	require.True(t, ok)
	require.Equal(t, snap, cached)

	_, ok = p.RemoveOffer(key)
	require.False(t, ok)
}

func TestProcessorRemoveByResult(t *testing.T) {
	p := newTestProcessor(t)
	key := Key{Account: alice, Sequence: 7}

	p.ProcessTransactionStream(aliceCreateEvent())
	entry := p.GetOffer(key)
	require.NotNil(t, entry)

	snap, ok := p.RemoveOfferResult(entry)
	require.True(t, ok)
	require.Equal(t, key, Key{snap.Account, snap.Sequence})
	require.Nil(t, p.GetOffer(key))

	_, ok = p.RemoveOfferResult(nil)
	require.False(t, ok)
}

func TestProcessorSnapshotsOrdered(t *testing.T) {
	p := NewProcessor([]string{alice, bob}, zap.NewNop())

	p.ProcessTransactionStream(createEvent(bob, 3,
		accountRootMod(bob, "1000", "2000"),
		offerNode(meta.KindCreated, bob, 3),
	))
	p.ProcessTransactionStream(aliceCreateEvent())
	p.ProcessTransactionStream(createEvent(alice, 2,
		accountRootMod(alice, "1000", "1500"),
		offerNode(meta.KindCreated, alice, 2),
	))

	snaps := p.Snapshots()
	require.Len(t, snaps, 3)
	require.Equal(t, Key{alice, 2}, Key{snaps[0].Account, snaps[0].Sequence})
	require.Equal(t, Key{alice, 7}, Key{snaps[1].Account, snaps[1].Sequence})
	require.Equal(t, Key{bob, 3}, Key{snaps[2].Account, snaps[2].Sequence})
}
