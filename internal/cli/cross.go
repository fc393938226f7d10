package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/LeJamon/goXRPLtrade/internal/book"
	"github.com/LeJamon/goXRPLtrade/internal/meta"
)

var crossAsJSON bool

var crossCmd = &cobra.Command{
	Use:   "cross <offer.json> <counter-offer.json>",
	Short: "Predict how two offers would cross",
	Long: `Load two OfferCreate transactions from JSON files and predict the fill
each side would see if the first were submitted against the second resting
on the book. Fill-or-kill and immediate-or-cancel flags on the first offer
are honored.

Example:
    xrpltrade cross my-ask.json their-bid.json`,
	Args: cobra.ExactArgs(2),
	RunE: runCross,
}

func init() {
	rootCmd.AddCommand(crossCmd)
	crossCmd.Flags().BoolVar(&crossAsJSON, "json", false, "emit the result as JSON")
}

func loadOffer(path string) (*book.Offer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tx meta.Transaction
	if err := json.Unmarshal(data, &tx); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	offer, err := book.NewOfferFromTx(&tx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return offer, nil
}

func runCross(cmd *cobra.Command, args []string) error {
	self, err := loadOffer(args[0])
	if err != nil {
		return err
	}
	other, err := loadOffer(args[1])
	if err != nil {
		return err
	}

	result := book.Cross(self, other, self.Flags)
	if crossAsJSON {
		return json.NewEncoder(os.Stdout).Encode(result)
	}

	if result == nil {
		fmt.Println("no cross: prices do not meet, or the fill policy killed the offer")
		return nil
	}
	printSide("self", self, result.Self)
	printSide("other", other, result.Other)
	return nil
}

func printSide(label string, offer *book.Offer, side book.SideResult) {
	fmt.Printf("%s (%s %s seq %d):\n", label, offer.Type(), offer.Account, offer.Sequence)
	fmt.Printf("  xrp: %s drops\n", side.XRPGain.String())
	fmt.Printf("  currency: %s\n", side.CurGain.String())
	if side.Modify != nil {
		fmt.Printf("  rests with TakerPays %s, TakerGets %s\n",
			side.Modify.Pays.String(), side.Modify.Gets.String())
	} else {
		fmt.Println("  fully consumed")
	}
}
