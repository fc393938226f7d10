package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// Sequencer hands out transaction sequence numbers for one account. The
// first call fetches the current sequence from the server; later calls
// increment locally, so concurrent submitters never reuse a number.
//
// A failed or dropped transaction leaves a gap the ledger will reject
// everything after; call Reset to resynchronize with the server in that
// case.
type Sequencer struct {
	requester Requester
	account   string

	mu     sync.Mutex
	next   uint32
	primed bool
}

// NewSequencer returns a Sequencer for account backed by requester.
func NewSequencer(requester Requester, account string) *Sequencer {
	return &Sequencer{requester: requester, account: account}
}

// Next returns the sequence number to use for the account's next
// transaction.
func (s *Sequencer) Next(ctx context.Context) (uint32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.primed {
		seq, err := s.fetch(ctx)
		if err != nil {
			return 0, err
		}
		s.next = seq
		s.primed = true
	}
	seq := s.next
	s.next++
	return seq, nil
}

// Reset discards the local counter; the next call to Next fetches from the
// server again.
func (s *Sequencer) Reset() {
	s.mu.Lock()
	s.primed = false
	s.mu.Unlock()
}

func (s *Sequencer) fetch(ctx context.Context) (uint32, error) {
	result, err := s.requester.Request(ctx, "account_info", map[string]any{
		"account": s.account,
		"ledger_index": "current",
	})
	if err != nil {
		return 0, fmt.Errorf("client: fetch sequence for %s: %w", s.account, err)
	}
	var info struct {
		AccountData struct {
			Sequence uint32 `json:"Sequence"`
		} `json:"account_data"`
	}
	if err := json.Unmarshal(result, &info); err != nil {
		return 0, fmt.Errorf("client: decode account_info for %s: %w", s.account, err)
	}
	if info.AccountData.Sequence == 0 {
		return 0, fmt.Errorf("client: account_info for %s carries no sequence", s.account)
	}
	return info.AccountData.Sequence, nil
}
