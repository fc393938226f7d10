package book

import (
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// OfferCreate flags.
// Reference: rippled TxFlags.h
const (
	// FlagPassive crosses only strictly better-priced counter-offers.
	FlagPassive uint32 = 0x00010000
	// FlagImmediateOrCancel never leaves the counter-offer resting.
	FlagImmediateOrCancel uint32 = 0x00020000
	// FlagFillOrKill executes entirely or not at all. Mutually exclusive
	// with FlagImmediateOrCancel by protocol convention; not enforced
	// here, and when both are set the immediate-or-cancel strip runs
	// first, so fill-or-kill can never trigger. See DESIGN.md.
	FlagFillOrKill uint32 = 0x00040000
	// FlagSell is accepted but has no effect on crossing prediction.
	FlagSell uint32 = 0x00080000
)

// Precision of reported quantities: XRP legs are quantized to whole drops,
// currency legs to 12 fractional digits. Unfilled remainders below either
// resolution count as dust and the offer is treated as fully consumed.
var currencyScale = rational.FromInt64(1_000_000_000_000)

// Modify is the reduced resting state of a partially filled offer,
// in the same units as the offer's own legs.
type Modify struct {
	Pays rational.Rational
	Gets rational.Rational
}

// SideResult is one side's outcome of a predicted cross. Gains are signed
// from that side's perspective: a sell offer pays away drops and receives
// currency, a buy offer the mirror.
type SideResult struct {
	Type    OfferType
	XRPGain rational.Rational // drops, signed
	CurGain rational.Rational // currency units, signed
	Modify  *Modify           // nil when fully consumed
}

// CrossResult pairs the two sides of a predicted cross. The gains of Self
// and Other are exact negations of each other.
type CrossResult struct {
	Self  SideResult
	Other SideResult
}

// quantizeDrops rounds v to whole drops.
func quantizeDrops(v rational.Rational) rational.Rational {
	return v.Round()
}

// quantizeCur rounds v to 12 fractional digits.
func quantizeCur(v rational.Rational) rational.Rational {
	return v.Mul(currencyScale).Round().Div(currencyScale)
}

// Cross predicts whether self would cross other and, if so, how much value
// each side would exchange. It returns nil when the offers do not cross:
// same orientation, price not met (strictly better price required under
// FlagPassive), or a FlagFillOrKill order that would be left partially
// unfilled. The computation is pure and exact; feeding identical inputs
// always yields identical results.
func Cross(self, other *Offer, flags uint32) *CrossResult {
	if self.typ == other.typ {
		return nil
	}
	if self.typ == Sell {
		return crossSellWithBuy(self, other, flags)
	}
	return crossBuyWithSell(self, other, flags)
}

// crossSellWithBuy handles a sell initiator against a resting buy. The buy
// side must meet or beat the sell's asking ratio.
func crossSellWithBuy(self, other *Offer, flags uint32) *CrossResult {
	var willCross bool
	if flags&FlagPassive != 0 {
		willCross = other.Ratio().Gt(self.Ratio())
	} else {
		willCross = other.Ratio().Geq(self.Ratio())
	}
	if !willCross {
		return nil
	}

	// Currency first: how much the buy side can absorb, capped by what we
	// offer. Convert through our ratio, clamp by both drops legs, then
	// recompute the currency leg from the binding drops quantity.
	cur := rational.Min(other.gets, self.pays)
	xrp := cur.Div(self.Ratio())
	xrp = rational.Min(other.pays, self.gets, xrp)
	cur = xrp.Mul(self.Ratio())

	ret := &CrossResult{
		Self: SideResult{
			Type:    Sell,
			XRPGain: quantizeDrops(xrp).Neg(),
			CurGain: quantizeCur(cur),
			Modify:  remainder(self.pays.Sub(cur), self.gets.Sub(xrp), Sell),
		},
		Other: SideResult{
			Type:    Buy,
			XRPGain: quantizeDrops(xrp),
			CurGain: quantizeCur(cur).Neg(),
			Modify:  remainder(other.pays.Sub(xrp), other.gets.Sub(cur), Buy),
		},
	}
	return applyFillFlags(ret, flags)
}

// crossBuyWithSell is the mirror: a buy initiator against a resting sell.
// The sell side must ask no more than the buy's ratio.
func crossBuyWithSell(self, other *Offer, flags uint32) *CrossResult {
	var willCross bool
	if flags&FlagPassive != 0 {
		willCross = other.Ratio().Lt(self.Ratio())
	} else {
		willCross = other.Ratio().Leq(self.Ratio())
	}
	if !willCross {
		return nil
	}

	xrp := rational.Min(other.gets, self.pays)
	cur := xrp.Mul(self.Ratio())
	cur = rational.Min(other.pays, self.gets, cur)
	xrp = cur.Div(self.Ratio())

	ret := &CrossResult{
		Self: SideResult{
			Type:    Buy,
			XRPGain: quantizeDrops(xrp),
			CurGain: quantizeCur(cur).Neg(),
			Modify:  remainder(self.pays.Sub(xrp), self.gets.Sub(cur), Buy),
		},
		Other: SideResult{
			Type:    Sell,
			XRPGain: quantizeDrops(xrp).Neg(),
			CurGain: quantizeCur(cur),
			Modify:  remainder(other.pays.Sub(cur), other.gets.Sub(xrp), Sell),
		},
	}
	return applyFillFlags(ret, flags)
}

// remainder builds the Modify for a side left with the given unfilled pays
// and gets legs, or nil when either leg is dust at its precision.
func remainder(pays, gets rational.Rational, typ OfferType) *Modify {
	var qPays, qGets rational.Rational
	if typ == Sell {
		qPays, qGets = quantizeCur(pays), quantizeDrops(gets)
	} else {
		qPays, qGets = quantizeDrops(pays), quantizeCur(gets)
	}
	if qPays.Sign() <= 0 || qGets.Sign() <= 0 {
		return nil
	}
	return &Modify{Pays: qPays, Gets: qGets}
}

// applyFillFlags post-processes the result for the immediate-or-cancel and
// fill-or-kill flags, in that order.
func applyFillFlags(ret *CrossResult, flags uint32) *CrossResult {
	if flags&FlagImmediateOrCancel != 0 {
		ret.Other.Modify = nil
	}
	if flags&FlagFillOrKill != 0 && ret.Other.Modify != nil {
		return nil
	}
	return ret
}
