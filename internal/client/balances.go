package client

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/LeJamon/goXRPLtrade/internal/rational"
)

// Line is one trust line from account_lines.
type Line struct {
	Account  string `json:"account"`
	Currency string `json:"currency"`
	Balance  string `json:"balance"`
	Limit    string `json:"limit"`
}

// XRPBalance returns the account's XRP balance in drops.
func XRPBalance(ctx context.Context, r Requester, account string) (rational.Rational, error) {
	raw, err := r.Request(ctx, "account_info", map[string]any{
		"account":      account,
		"ledger_index": "validated",
	})
	if err != nil {
		return rational.Zero, err
	}
	var info struct {
		AccountData struct {
			Balance string `json:"Balance"`
		} `json:"account_data"`
	}
	if err := json.Unmarshal(raw, &info); err != nil {
		return rational.Zero, fmt.Errorf("client: decode account_info for %s: %w", account, err)
	}
	balance, err := rational.Parse(info.AccountData.Balance)
	if err != nil {
		return rational.Zero, fmt.Errorf("client: balance of %s: %w", account, err)
	}
	return balance, nil
}

// Lines returns the account's trust lines.
func Lines(ctx context.Context, r Requester, account string) ([]Line, error) {
	raw, err := r.Request(ctx, "account_lines", map[string]any{
		"account":      account,
		"ledger_index": "validated",
	})
	if err != nil {
		return nil, err
	}
	var result struct {
		Lines []Line `json:"lines"`
	}
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("client: decode account_lines for %s: %w", account, err)
	}
	return result.Lines, nil
}

// LineBalance returns the account's balance in one issued currency, zero
// when no matching trust line exists.
func LineBalance(ctx context.Context, r Requester, account, currency, issuer string) (rational.Rational, error) {
	lines, err := Lines(ctx, r, account)
	if err != nil {
		return rational.Zero, err
	}
	for _, l := range lines {
		if l.Currency == currency && l.Account == issuer {
			balance, err := rational.Parse(l.Balance)
			if err != nil {
				return rational.Zero, fmt.Errorf("client: line balance of %s: %w", account, err)
			}
			return balance, nil
		}
	}
	return rational.Zero, nil
}
