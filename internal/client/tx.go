package client

import (
	"github.com/LeJamon/goXRPLtrade/internal/meta"
)

// OfferCreateTx builds an OfferCreate transaction. The sequence is assigned
// by a Sequencer at submission time when left zero.
func OfferCreateTx(account string, sequence, flags uint32, takerPays, takerGets meta.Amount) *meta.Transaction {
	return &meta.Transaction{
		TransactionType: meta.TxOfferCreate,
		Account:         account,
		Sequence:        sequence,
		Flags:           flags,
		TakerPays:       takerPays,
		TakerGets:       takerGets,
	}
}

// OfferCancelTx builds an OfferCancel for the offer the account created with
// offerSequence.
func OfferCancelTx(account string, sequence, offerSequence uint32) *meta.Transaction {
	return &meta.Transaction{
		TransactionType: meta.TxOfferCancel,
		Account:         account,
		Sequence:        sequence,
		OfferSequence:   offerSequence,
	}
}

// BidTx offers to buy XRP: the taker pays drops into the account, the
// account gives out issued currency.
func BidTx(account string, flags uint32, drops string, currency, issuer, value string) *meta.Transaction {
	return OfferCreateTx(account, 0, flags,
		meta.NewDrops(drops),
		meta.NewIssued(currency, issuer, value))
}

// AskTx offers to sell XRP: the taker pays issued currency, the account
// gives out drops.
func AskTx(account string, flags uint32, currency, issuer, value string, drops string) *meta.Transaction {
	return OfferCreateTx(account, 0, flags,
		meta.NewIssued(currency, issuer, value),
		meta.NewDrops(drops))
}

// txJSON flattens a transaction into the tx_json object the submit command
// expects.
func txJSON(tx *meta.Transaction) map[string]any {
	out := map[string]any{
		"TransactionType": tx.TransactionType,
		"Account":         tx.Account,
	}
	if tx.Sequence != 0 {
		out["Sequence"] = tx.Sequence
	}
	if tx.Flags != 0 {
		out["Flags"] = tx.Flags
	}
	if tx.Fee != "" {
		out["Fee"] = tx.Fee
	}
	if !tx.TakerGets.IsZero() {
		out["TakerGets"] = amountJSON(tx.TakerGets)
	}
	if !tx.TakerPays.IsZero() {
		out["TakerPays"] = amountJSON(tx.TakerPays)
	}
	if tx.OfferSequence != 0 {
		out["OfferSequence"] = tx.OfferSequence
	}
	return out
}

func amountJSON(a meta.Amount) any {
	if a.Native {
		return a.Drops
	}
	return map[string]any{
		"currency": a.Currency,
		"issuer":   a.Issuer,
		"value":    a.Value,
	}
}
