package book

import (
	"encoding/json"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// Spread tracks the best bid and ask observed for one currency pair. A buy
// offer (paying drops for currency) is a bid; a sell offer is an ask. Prices
// are kept as exact ratios in currency units per drop.
type Spread struct {
	bid, ask               rational.Rational
	bidQuality, askQuality rational.Rational
	hasBid, hasAsk         bool
}

// NewSpread returns an empty spread.
func NewSpread() *Spread {
	return &Spread{}
}

// Set ingests a resting offer and records it as the current bid or ask
// depending on its orientation. Malformed offers are ignored.
func (s *Spread) Set(of meta.OfferFields) {
	o, err := NewOffer(of)
	if err != nil {
		return
	}
	switch o.Type() {
	case Buy:
		s.bid = o.Ratio()
		s.bidQuality = o.Quality()
		s.hasBid = true
	case Sell:
		s.ask = o.Ratio()
		s.askQuality = o.Quality()
		s.hasAsk = true
	}
}

// HasBid reports whether a bid has been recorded.
func (s *Spread) HasBid() bool { return s.hasBid }

// HasAsk reports whether an ask has been recorded.
func (s *Spread) HasAsk() bool { return s.hasAsk }

// Bid returns the recorded bid ratio.
func (s *Spread) Bid() rational.Rational { return s.bid }

// Ask returns the recorded ask ratio.
func (s *Spread) Ask() rational.Rational { return s.ask }

// BidQuality returns the bid in currency units per million drops.
func (s *Spread) BidQuality() rational.Rational { return s.bidQuality }

// AskQuality returns the ask in currency units per million drops.
func (s *Spread) AskQuality() rational.Rational { return s.askQuality }

// Diff returns ask minus bid. The second return is false until both sides
// have been recorded.
func (s *Spread) Diff() (rational.Rational, bool) {
	if !s.hasBid || !s.hasAsk {
		return rational.Zero, false
	}
	return s.ask.Sub(s.bid), true
}

type spreadJSON struct {
	Bid        string `json:"bid,omitempty"`
	Ask        string `json:"ask,omitempty"`
	BidQuality string `json:"bidQuality,omitempty"`
	AskQuality string `json:"askQuality,omitempty"`
}

// MarshalJSON persists the spread with exact rational strings.
func (s *Spread) MarshalJSON() ([]byte, error) {
	var out spreadJSON
	if s.hasBid {
		out.Bid = s.bid.String()
		out.BidQuality = s.bidQuality.String()
	}
	if s.hasAsk {
		out.Ask = s.ask.String()
		out.AskQuality = s.askQuality.String()
	}
	return json.Marshal(out)
}

// UnmarshalJSON restores a spread persisted by MarshalJSON.
func (s *Spread) UnmarshalJSON(data []byte) error {
	var in spreadJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*s = Spread{}
	if in.Bid != "" {
		bid, err := rational.Parse(in.Bid)
		if err != nil {
			return err
		}
		s.bid, s.hasBid = bid, true
	}
	if in.BidQuality != "" {
		q, err := rational.Parse(in.BidQuality)
		if err != nil {
			return err
		}
		s.bidQuality = q
	}
	if in.Ask != "" {
		ask, err := rational.Parse(in.Ask)
		if err != nil {
			return err
		}
		s.ask, s.hasAsk = ask, true
	}
	if in.AskQuality != "" {
		q, err := rational.Parse(in.AskQuality)
		if err != nil {
			return err
		}
		s.askQuality = q
	}
	return nil
}
