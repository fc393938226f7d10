package meta

// Transaction type names handled by this module.
const (
	TxOfferCreate = "OfferCreate"
	TxOfferCancel = "OfferCancel"
)

// Transaction is the subset of a ledger transaction the reconciliation layer
// needs. Unknown fields are dropped at decode time.
type Transaction struct {
	TransactionType string `json:"TransactionType"`
	Account         string `json:"Account"`
	Sequence        uint32 `json:"Sequence"`
	Flags           uint32 `json:"Flags,omitempty"`
	Fee             string `json:"Fee,omitempty"`

	// TakerGets and TakerPays are present on OfferCreate.
	TakerGets Amount `json:"TakerGets,omitzero"`
	TakerPays Amount `json:"TakerPays,omitzero"`

	// OfferSequence is present on OfferCancel and names the offer being
	// cancelled.
	OfferSequence uint32 `json:"OfferSequence,omitempty"`
}

// TxMeta is the metadata block attached to a validated transaction.
type TxMeta struct {
	AffectedNodes     []AffectedNode `json:"AffectedNodes"`
	TransactionIndex  uint32         `json:"TransactionIndex"`
	TransactionResult string         `json:"TransactionResult,omitempty"`
}

// TransactionEvent is one notification from a transaction subscription
// stream: the validated transaction plus its metadata.
type TransactionEvent struct {
	Type        string       `json:"type,omitempty"`
	Transaction *Transaction `json:"transaction"`
	Meta        *TxMeta      `json:"meta"`
	Validated   bool         `json:"validated,omitempty"`
	LedgerIndex uint32       `json:"ledger_index,omitempty"`
}
