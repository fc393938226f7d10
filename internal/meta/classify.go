package meta

import (
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// OfferFields is the flattened state of an Offer ledger entry pulled out of
// an affected node: NewFields for created offers, FinalFields for modified
// and deleted ones.
type OfferFields struct {
	Account   string
	Sequence  uint32
	TakerGets Amount
	TakerPays Amount
	Flags     uint32
}

func offerFieldsFrom(m map[string]any) OfferFields {
	of := OfferFields{
		Account:  stringField(m, "Account"),
		Sequence: uint32Field(m, "Sequence"),
		Flags:    uint32Field(m, "Flags"),
	}
	if a, ok := amountFromField(m["TakerGets"]); ok {
		of.TakerGets = a
	}
	if a, ok := amountFromField(m["TakerPays"]); ok {
		of.TakerPays = a
	}
	return of
}

func contains(addresses []string, addr string) bool {
	for _, a := range addresses {
		if a == addr {
			return true
		}
	}
	return false
}

// OwnedOffers returns the Offer entries of the given kind whose owning
// account is one of addresses.
func OwnedOffers(nodes []AffectedNode, kind NodeKind, addresses []string) []OfferFields {
	var out []OfferFields
	for _, n := range nodes {
		if n.Kind != kind || n.LedgerEntryType != EntryOffer {
			continue
		}
		of := offerFieldsFrom(n.fields())
		if of.Account == "" || !contains(addresses, of.Account) {
			continue
		}
		out = append(out, of)
	}
	return out
}

// ForeignModifiedOffers returns modified Offer entries owned by none of the
// given addresses. A transaction we submitted that crossed somebody else's
// resting order shows up this way.
func ForeignModifiedOffers(nodes []AffectedNode, addresses []string) []OfferFields {
	var out []OfferFields
	for _, n := range nodes {
		if n.Kind != KindModified || n.LedgerEntryType != EntryOffer {
			continue
		}
		of := offerFieldsFrom(n.fields())
		if of.Account == "" || contains(addresses, of.Account) {
			continue
		}
		out = append(out, of)
	}
	return out
}

// AccountRootDelta sums the XRP balance change, in drops, over the modified
// AccountRoot entries belonging to address. Zero when the address does not
// appear or a node is missing the expected fields.
func AccountRootDelta(nodes []AffectedNode, address string) rational.Rational {
	sum := rational.Zero
	for _, n := range nodes {
		if n.Kind != KindModified || n.LedgerEntryType != EntryAccountRoot {
			continue
		}
		if stringField(n.FinalFields, "Account") != address {
			continue
		}
		final, err1 := rational.Parse(stringField(n.FinalFields, "Balance"))
		prev, err2 := rational.Parse(stringField(n.PreviousFields, "Balance"))
		if err1 != nil || err2 != nil {
			continue
		}
		sum = sum.Add(final.Sub(prev))
	}
	return sum
}

// TrustLineDelta sums the issued-currency balance change over the RippleState
// entries in which address is either the low or the high limit holder.
// Created trust lines contribute their initial balance. For modified lines
// the delta is final minus previous -- except that when either balance is
// negative the subtraction order is flipped, because the ledger stores
// trust-line balances signed relative to the canonical low/high ordering
// rather than to either party's own perspective. The flip matches observed
// ledger behavior.
func TrustLineDelta(nodes []AffectedNode, address string) rational.Rational {
	sum := rational.Zero
	for _, n := range nodes {
		if n.LedgerEntryType != EntryRippleState {
			continue
		}
		switch n.Kind {
		case KindModified:
			if !lineInvolves(n.FinalFields, address) {
				continue
			}
			final, err1 := rational.Parse(balanceValue(n.FinalFields))
			prev, err2 := rational.Parse(balanceValue(n.PreviousFields))
			if err1 != nil || err2 != nil {
				continue
			}
			if final.Sign() < 0 || prev.Sign() < 0 {
				sum = sum.Add(prev.Sub(final))
			} else {
				sum = sum.Add(final.Sub(prev))
			}
		case KindCreated:
			if !lineInvolves(n.NewFields, address) {
				continue
			}
			initial, err := rational.Parse(balanceValue(n.NewFields))
			if err != nil {
				continue
			}
			sum = sum.Add(initial)
		}
	}
	return sum
}

// lineInvolves reports whether address holds either end of the trust line
// described by fields.
func lineInvolves(fields map[string]any, address string) bool {
	if fields == nil {
		return false
	}
	if _, ok := fields["LowLimit"]; !ok {
		return false
	}
	if _, ok := fields["HighLimit"]; !ok {
		return false
	}
	return issuerOf(fields, "LowLimit") == address || issuerOf(fields, "HighLimit") == address
}

func balanceValue(fields map[string]any) string {
	if fields == nil {
		return ""
	}
	bal, _ := fields["Balance"].(map[string]any)
	return stringField(bal, "value")
}
