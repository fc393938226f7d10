package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLtrade/internal/book"
	"github.com/LeJamon/goXRPLtrade/internal/client"
	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/wallet"
)

var (
	submitAccount  string
	submitDrops    string
	submitCurrency string
	submitIssuer   string
	submitValue    string
	submitPassive  bool
	submitIOC      bool
	submitFOK      bool
)

var submitCmd = &cobra.Command{
	Use:   "submit <bid|ask>",
	Short: "Submit an offer",
	Long: `Submit an OfferCreate for the named account. A bid buys XRP (the taker
pays drops, the account gives out issued currency); an ask sells XRP.

Example:
    xrpltrade submit bid --account trader \
        --drops 50000000 --currency USD --issuer rGateway... --value 100`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"bid", "ask"},
	RunE:      runSubmit,
}

func init() {
	rootCmd.AddCommand(submitCmd)
	submitCmd.Flags().StringVar(&submitAccount, "account", "", "account name to submit from")
	submitCmd.Flags().StringVar(&submitDrops, "drops", "", "XRP leg, in drops")
	submitCmd.Flags().StringVar(&submitCurrency, "currency", "", "issued currency code")
	submitCmd.Flags().StringVar(&submitIssuer, "issuer", "", "issuer address")
	submitCmd.Flags().StringVar(&submitValue, "value", "", "issued currency amount")
	submitCmd.Flags().BoolVar(&submitPassive, "passive", false, "do not cross offers at the same price")
	submitCmd.Flags().BoolVar(&submitIOC, "ioc", false, "immediate or cancel: never rest on the book")
	submitCmd.Flags().BoolVar(&submitFOK, "fok", false, "fill or kill: fill completely or not at all")
	submitCmd.MarkFlagRequired("account")
	submitCmd.MarkFlagRequired("drops")
	submitCmd.MarkFlagRequired("currency")
	submitCmd.MarkFlagRequired("issuer")
	submitCmd.MarkFlagRequired("value")
}

func submitFlags() uint32 {
	var flags uint32
	if submitPassive {
		flags |= book.FlagPassive
	}
	if submitIOC {
		flags |= book.FlagImmediateOrCancel
	}
	if submitFOK {
		flags |= book.FlagFillOrKill
	}
	return flags
}

func runSubmit(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	acct, err := wallet.NewFileFactory(cfg.Accounts.Dir).Load(submitAccount)
	if err != nil {
		return err
	}

	var tx *meta.Transaction
	switch args[0] {
	case "bid":
		tx = client.BidTx(acct.Address, submitFlags(), submitDrops, submitCurrency, submitIssuer, submitValue)
	case "ask":
		tx = client.AskTx(acct.Address, submitFlags(), submitCurrency, submitIssuer, submitValue, submitDrops)
	default:
		return fmt.Errorf("side must be bid or ask, got %q", args[0])
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.SubmitTimeout)
	defer cancel()
	c, err := client.Dial(ctx, cfg.Server.URL, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	submitter := client.NewSubmitter(c, acct, logger)
	submitter.MaxElapsed = cfg.Server.SubmitTimeout
	res, err := submitter.Submit(ctx, tx)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s (sequence %d)\n", res.EngineResult, res.EngineResultMessage, tx.Sequence)
	return nil
}
