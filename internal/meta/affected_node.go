// Package meta models transaction metadata as reported by a ledger node and
// classifies its affected-node list into balance deltas. Everything here is
// pure parsing over decoded structures; the ledger guarantees well-formed
// diffs, so missing fields classify as "no delta" rather than errors.
package meta

import (
	"encoding/json"
	"fmt"
)

// NodeKind tags what happened to a ledger entry in one transaction.
type NodeKind int

const (
	KindCreated NodeKind = iota
	KindModified
	KindDeleted
)

// Wire labels for the three node kinds.
const (
	createdNodeLabel  = "CreatedNode"
	modifiedNodeLabel = "ModifiedNode"
	deletedNodeLabel  = "DeletedNode"
)

func (k NodeKind) String() string {
	switch k {
	case KindCreated:
		return createdNodeLabel
	case KindModified:
		return modifiedNodeLabel
	case KindDeleted:
		return deletedNodeLabel
	}
	return fmt.Sprintf("NodeKind(%d)", int(k))
}

// Ledger entry types this package classifies. Anything else passes through
// untouched.
const (
	EntryOffer       = "Offer"
	EntryAccountRoot = "AccountRoot"
	EntryRippleState = "RippleState"
)

// AffectedNode is one ledger entry touched by a transaction. The wire form
// wraps the body in a single key naming the kind ({"CreatedNode": {...}});
// it is decoded once here so the classifier never re-inspects raw JSON.
type AffectedNode struct {
	Kind            NodeKind
	LedgerEntryType string
	LedgerIndex     string

	// NewFields is set for created entries.
	NewFields map[string]any

	// FinalFields and PreviousFields are set for modified entries;
	// deleted entries carry FinalFields only.
	FinalFields    map[string]any
	PreviousFields map[string]any
}

type affectedNodeBody struct {
	LedgerEntryType string         `json:"LedgerEntryType"`
	LedgerIndex     string         `json:"LedgerIndex"`
	NewFields       map[string]any `json:"NewFields,omitempty"`
	FinalFields     map[string]any `json:"FinalFields,omitempty"`
	PreviousFields  map[string]any `json:"PreviousFields,omitempty"`
}

// UnmarshalJSON decodes the single-key wire wrapper into the tagged form.
func (n *AffectedNode) UnmarshalJSON(data []byte) error {
	var wrapper map[string]affectedNodeBody
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return err
	}
	for label, body := range wrapper {
		var kind NodeKind
		switch label {
		case createdNodeLabel:
			kind = KindCreated
		case modifiedNodeLabel:
			kind = KindModified
		case deletedNodeLabel:
			kind = KindDeleted
		default:
			continue
		}
		*n = AffectedNode{
			Kind:            kind,
			LedgerEntryType: body.LedgerEntryType,
			LedgerIndex:     body.LedgerIndex,
			NewFields:       body.NewFields,
			FinalFields:     body.FinalFields,
			PreviousFields:  body.PreviousFields,
		}
		return nil
	}
	return fmt.Errorf("meta: affected node has no recognized kind")
}

// MarshalJSON emits the single-key wire wrapper.
func (n AffectedNode) MarshalJSON() ([]byte, error) {
	body := affectedNodeBody{
		LedgerEntryType: n.LedgerEntryType,
		LedgerIndex:     n.LedgerIndex,
		NewFields:       n.NewFields,
		FinalFields:     n.FinalFields,
		PreviousFields:  n.PreviousFields,
	}
	return json.Marshal(map[string]affectedNodeBody{n.Kind.String(): body})
}

// fields returns the field map carrying the entry's state for its kind:
// NewFields for created entries, FinalFields otherwise.
func (n AffectedNode) fields() map[string]any {
	if n.Kind == KindCreated {
		return n.NewFields
	}
	return n.FinalFields
}

func stringField(m map[string]any, key string) string {
	if m == nil {
		return ""
	}
	s, _ := m[key].(string)
	return s
}

func uint32Field(m map[string]any, key string) uint32 {
	if m == nil {
		return 0
	}
	switch v := m[key].(type) {
	case float64:
		return uint32(v)
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return uint32(n)
		}
	}
	return 0
}

// issuerOf digs the issuer address out of a limit field (LowLimit/HighLimit).
func issuerOf(m map[string]any, key string) string {
	limit, _ := m[key].(map[string]any)
	return stringField(limit, "issuer")
}
