// Package book models offers on the XRP/issued-currency order book and
// predicts, before submission, how two opposing offers would cross. All
// quantities are exact rationals; XRP legs are carried in drops and issued
// legs in currency units.
package book

import (
	"errors"
	"fmt"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// ErrMalformedOffer is returned when an offer's legs do not match the
// expected bare-drops/issued-amount pairing. It is fatal to that one offer
// only.
var ErrMalformedOffer = errors.New("book: malformed offer")

// OfferType gives an offer's orientation. A sell offer pays away XRP for
// issued currency (TakerGets is the bare drops leg); a buy offer is the
// mirror (TakerPays is the bare drops leg).
type OfferType int

const (
	Buy OfferType = iota
	Sell
)

func (t OfferType) String() string {
	if t == Sell {
		return "sell"
	}
	return "buy"
}

// DropsPerXRP is the number of drops in one XRP.
const DropsPerXRP = 1_000_000

var dropsPerXRP = rational.FromInt64(DropsPerXRP)

// Offer is a normalized view over either a locally built OfferCreate or a
// ledger-reported resting offer. Orientation is derived from which leg is
// the bare drops string.
type Offer struct {
	Account  string
	Sequence uint32
	Flags    uint32

	typ  OfferType
	pays rational.Rational // drops for buy, currency units for sell
	gets rational.Rational // currency units for buy, drops for sell
}

// NewOffer normalizes the given offer fields. It fails with
// ErrMalformedOffer unless exactly one leg is the bare drops string and the
// other an issued amount, both legs are strictly positive, and both values
// parse.
func NewOffer(of meta.OfferFields) (*Offer, error) {
	gets, pays := of.TakerGets, of.TakerPays
	if gets.Native == pays.Native {
		return nil, fmt.Errorf("%w: legs %s / %s", ErrMalformedOffer, gets, pays)
	}

	o := &Offer{
		Account:  of.Account,
		Sequence: of.Sequence,
		Flags:    of.Flags,
	}

	var err error
	if pays.Native {
		// TakerPays is what the taker pays the owner, so a bare drops
		// leg here means the owner is buying XRP.
		o.typ = Buy
		if o.pays, err = rational.Parse(pays.Drops); err != nil {
			return nil, fmt.Errorf("%w: TakerPays drops: %v", ErrMalformedOffer, err)
		}
		if o.gets, err = rational.Parse(gets.Value); err != nil {
			return nil, fmt.Errorf("%w: TakerGets value: %v", ErrMalformedOffer, err)
		}
	} else {
		o.typ = Sell
		if o.pays, err = rational.Parse(pays.Value); err != nil {
			return nil, fmt.Errorf("%w: TakerPays value: %v", ErrMalformedOffer, err)
		}
		if o.gets, err = rational.Parse(gets.Drops); err != nil {
			return nil, fmt.Errorf("%w: TakerGets drops: %v", ErrMalformedOffer, err)
		}
	}

	// A zero leg would make the price undefined.
	if o.pays.Sign() <= 0 || o.gets.Sign() <= 0 {
		return nil, fmt.Errorf("%w: non-positive leg", ErrMalformedOffer)
	}
	return o, nil
}

// NewOfferFromTx normalizes an OfferCreate acknowledgment.
func NewOfferFromTx(tx *meta.Transaction) (*Offer, error) {
	return NewOffer(meta.OfferFields{
		Account:   tx.Account,
		Sequence:  tx.Sequence,
		TakerGets: tx.TakerGets,
		TakerPays: tx.TakerPays,
		Flags:     tx.Flags,
	})
}

// Type returns the offer's orientation.
func (o *Offer) Type() OfferType { return o.typ }

// Pays returns the taker-pays leg: drops for a buy offer, currency units
// for a sell offer.
func (o *Offer) Pays() rational.Rational { return o.pays }

// Gets returns the taker-gets leg: currency units for a buy offer, drops
// for a sell offer.
func (o *Offer) Gets() rational.Rational { return o.gets }

// Ratio is the offer's price in currency units per drop, comparable across
// orientations: gets/pays for a buy offer, pays/gets for a sell offer.
func (o *Offer) Ratio() rational.Rational {
	if o.typ == Buy {
		return o.gets.Div(o.pays)
	}
	return o.pays.Div(o.gets)
}

// Quality is the ratio scaled to currency units per million drops, the
// canonical unit used to compare book positions.
func (o *Offer) Quality() rational.Rational {
	return o.Ratio().Mul(dropsPerXRP)
}

// CrossQuality is the reciprocal quality, the price the opposite side of
// the book would have to meet.
func (o *Offer) CrossQuality() rational.Rational {
	return rational.One.Div(o.Quality())
}

func (o *Offer) String() string {
	if o.typ == Sell {
		return fmt.Sprintf("sell seq=%d pays=%s gets=%s drops ratio=%s",
			o.Sequence, o.pays.Decimal(12), o.gets.Decimal(0), o.Ratio().Decimal(15))
	}
	return fmt.Sprintf("buy seq=%d pays=%s drops gets=%s ratio=%s",
		o.Sequence, o.pays.Decimal(0), o.gets.Decimal(12), o.Ratio().Decimal(15))
}
