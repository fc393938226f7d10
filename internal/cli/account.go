package cli

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLtrade/internal/client"
	"github.com/LeJamon/goXRPLtrade/internal/wallet"
)

var accountCmd = &cobra.Command{
	Use:   "account <name>",
	Short: "Show an account's XRP balance and trust lines",
	Args:  cobra.ExactArgs(1),
	RunE:  runAccount,
}

func init() {
	rootCmd.AddCommand(accountCmd)
}

func runAccount(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	acct, err := wallet.NewFileFactory(cfg.Accounts.Dir).Load(args[0])
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), cfg.Server.ConnectTimeout)
	defer cancel()
	c, err := client.Dial(ctx, cfg.Server.URL, logger)
	if err != nil {
		return err
	}
	defer c.Close()

	xrp, err := client.XRPBalance(ctx, c, acct.Address)
	if err != nil {
		return err
	}
	lines, err := client.Lines(ctx, c, acct.Address)
	if err != nil {
		return err
	}

	fmt.Printf("%s (%s)%s\n", acct.Name, acct.Address, passiveMark(acct))
	fmt.Printf("XRP: %s drops\n", xrp.String())
	if len(lines) == 0 {
		return nil
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "CURRENCY\tISSUER\tBALANCE\tLIMIT")
	for _, l := range lines {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", l.Currency, l.Account, l.Balance, l.Limit)
	}
	return w.Flush()
}

func passiveMark(acct wallet.Account) string {
	if acct.Passive() {
		return " [watch-only]"
	}
	return ""
}
