package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/wallet"
)

// ErrPassiveAccount is returned when asked to submit on behalf of an
// account with no secret.
var ErrPassiveAccount = errors.New("client: account has no secret, cannot submit")

// SubmitResult is the server's preliminary verdict on a submission. The
// transaction is not final until it shows up validated on the stream.
type SubmitResult struct {
	EngineResult        string            `json:"engine_result"`
	EngineResultMessage string            `json:"engine_result_message"`
	TxJSON              *meta.Transaction `json:"tx_json"`
}

// Acknowledged reports whether the server accepted the transaction into its
// open ledger or queue.
func (r *SubmitResult) Acknowledged() bool {
	return r.EngineResult == "tesSUCCESS" || r.EngineResult == "terQUEUED"
}

// permanentResult reports engine results that no amount of retrying fixes:
// malformed transactions and outright failures.
func permanentResult(code string) bool {
	return strings.HasPrefix(code, "tem") || strings.HasPrefix(code, "tef")
}

// Submitter signs and submits transactions for one account, assigning
// sequence numbers and retrying transient rejections with exponential
// backoff.
type Submitter struct {
	requester Requester
	account   wallet.Account
	sequencer *Sequencer
	log       *zap.Logger

	// MaxElapsed caps the total retry window. Zero uses the default.
	MaxElapsed time.Duration
}

// NewSubmitter returns a Submitter for account. The account must carry a
// secret; passive accounts fail at Submit time.
func NewSubmitter(requester Requester, account wallet.Account, log *zap.Logger) *Submitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Submitter{
		requester: requester,
		account:   account,
		sequencer: NewSequencer(requester, account.Address),
		log:       log,
	}
}

// Submit assigns the transaction a sequence number if it has none, then
// submits it, retrying transient rejections. On success the returned result
// is acknowledged; terminal rejections come back as errors immediately.
func (s *Submitter) Submit(ctx context.Context, tx *meta.Transaction) (*SubmitResult, error) {
	if s.account.Passive() {
		return nil, fmt.Errorf("%w: %s", ErrPassiveAccount, s.account.Address)
	}
	if tx.Account == "" {
		tx.Account = s.account.Address
	}
	if tx.Sequence == 0 {
		seq, err := s.sequencer.Next(ctx)
		if err != nil {
			return nil, err
		}
		tx.Sequence = seq
	}

	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 500 * time.Millisecond
	if s.MaxElapsed > 0 {
		policy.MaxElapsedTime = s.MaxElapsed
	}

	var result *SubmitResult
	operation := func() error {
		res, err := s.submitOnce(ctx, tx)
		if err != nil {
			var reqErr *RequestError
			if errors.As(err, &reqErr) {
				return backoff.Permanent(err)
			}
			return err
		}
		if res.Acknowledged() {
			result = res
			return nil
		}
		if permanentResult(res.EngineResult) {
			return backoff.Permanent(fmt.Errorf("client: submit rejected: %s (%s)",
				res.EngineResult, res.EngineResultMessage))
		}
		s.log.Info("retrying submission",
			zap.String("account", tx.Account),
			zap.Uint32("sequence", tx.Sequence),
			zap.String("engine_result", res.EngineResult))
		return fmt.Errorf("client: transient submit result %s", res.EngineResult)
	}

	if err := backoff.Retry(operation, backoff.WithContext(policy, ctx)); err != nil {
		return nil, err
	}
	s.log.Info("transaction acknowledged",
		zap.String("account", tx.Account),
		zap.Uint32("sequence", tx.Sequence),
		zap.String("engine_result", result.EngineResult))
	return result, nil
}

func (s *Submitter) submitOnce(ctx context.Context, tx *meta.Transaction) (*SubmitResult, error) {
	raw, err := s.requester.Request(ctx, "submit", map[string]any{
		"secret":  s.account.Secret,
		"tx_json": txJSON(tx),
	})
	if err != nil {
		return nil, err
	}
	var res SubmitResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("client: decode submit result: %w", err)
	}
	return &res, nil
}
