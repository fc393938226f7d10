package cli

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/LeJamon/goXRPLtrade/internal/journal"
	"github.com/LeJamon/goXRPLtrade/internal/meta"
	"github.com/LeJamon/goXRPLtrade/internal/reconcile"
	"github.com/LeJamon/goXRPLtrade/internal/wallet"
)

var reconcileJSON bool

var reconcileCmd = &cobra.Command{
	Use:   "reconcile <events.jsonl>",
	Short: "Replay recorded transaction notifications and report per-offer diffs",
	Long: `Read a file of transaction notifications, one JSON object per line, fold
them into per-offer settlement diffs for the configured accounts, and print
the result. Events may appear in any order and may repeat; the diffs come
out the same.

When the journal is enabled in the configuration, the resulting snapshots
are also persisted.`,
	Args: cobra.ExactArgs(1),
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	reconcileCmd.Flags().BoolVar(&reconcileJSON, "json", false, "emit snapshots as JSON")
}

func runReconcile(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer logger.Sync()

	accounts, err := wallet.NewFileFactory(cfg.Accounts.Dir).LoadAll(cfg.Accounts.Names)
	if err != nil {
		return err
	}
	if len(accounts) == 0 {
		return fmt.Errorf("no accounts configured, nothing to reconcile")
	}

	processor := reconcile.NewProcessor(wallet.Addresses(accounts), logger)
	if err := replayEvents(args[0], processor, logger); err != nil {
		return err
	}

	snaps := processor.Snapshots()
	if cfg.Journal.Enabled {
		store, err := journal.Open(cfg.Journal.Dir)
		if err != nil {
			return err
		}
		defer store.Close()
		if err := store.SaveAll(snaps); err != nil {
			return err
		}
		logger.Info("snapshots journaled", zap.Int("count", len(snaps)))
	}

	return printSnapshots(snaps)
}

func replayEvents(path string, processor *reconcile.Processor, logger *zap.Logger) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 1024*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev meta.TransactionEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			logger.Warn("skipping unparseable event",
				zap.Int("line", line), zap.Error(err))
			continue
		}
		processor.ProcessTransactionStream(&ev)
	}
	return scanner.Err()
}

func printSnapshots(snaps []reconcile.Snapshot) error {
	if reconcileJSON {
		return json.NewEncoder(os.Stdout).Encode(snaps)
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ACCOUNT\tSEQ\tXRP (drops)\tCURRENCY\tDELETED\tEVENTS")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%d\t%s\t%s\t%v\t%d\n",
			s.Account, s.Sequence, s.XRPDiff, s.CurDiff, s.Deleted, s.Events)
	}
	return w.Flush()
}
