package meta

import (
	"encoding/json"
	"fmt"
)

// Amount is a currency amount as it appears on the wire. XRP amounts are a
// bare string of drops; issued-currency amounts are an object with currency,
// issuer and value.
type Amount struct {
	// Native indicates an XRP amount (Drops set) rather than an issued
	// currency amount (Currency/Issuer/Value set).
	Native bool

	// Drops holds the XRP quantity in drops when Native.
	Drops string

	Currency string
	Issuer   string
	Value    string
}

// NewDrops returns a native XRP amount.
func NewDrops(drops string) Amount {
	return Amount{Native: true, Drops: drops}
}

// NewIssued returns an issued-currency amount.
func NewIssued(currency, issuer, value string) Amount {
	return Amount{Currency: currency, Issuer: issuer, Value: value}
}

// IsZero reports whether the amount carries no value at all (an absent
// field decodes to the zero Amount).
func (a Amount) IsZero() bool {
	return a.Drops == "" && a.Value == ""
}

func (a Amount) String() string {
	if a.Native {
		return a.Drops + " drops"
	}
	return fmt.Sprintf("%s %s/%s", a.Value, a.Currency, a.Issuer)
}

// UnmarshalJSON decodes either wire form of an amount.
func (a *Amount) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var drops string
		if err := json.Unmarshal(data, &drops); err != nil {
			return err
		}
		*a = Amount{Native: true, Drops: drops}
		return nil
	}
	var issued struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}
	if err := json.Unmarshal(data, &issued); err != nil {
		return err
	}
	*a = Amount{Currency: issued.Currency, Issuer: issued.Issuer, Value: issued.Value}
	return nil
}

// MarshalJSON emits the wire form matching Native.
func (a Amount) MarshalJSON() ([]byte, error) {
	if a.Native {
		return json.Marshal(a.Drops)
	}
	return json.Marshal(struct {
		Currency string `json:"currency"`
		Issuer   string `json:"issuer"`
		Value    string `json:"value"`
	}{a.Currency, a.Issuer, a.Value})
}

// amountFromField converts a decoded metadata field (string or object) into
// an Amount. The second return is false when the value has neither shape.
func amountFromField(v any) (Amount, bool) {
	switch t := v.(type) {
	case string:
		return Amount{Native: true, Drops: t}, true
	case map[string]any:
		return Amount{
			Currency: stringField(t, "currency"),
			Issuer:   stringField(t, "issuer"),
			Value:    stringField(t, "value"),
		}, true
	default:
		return Amount{}, false
	}
}
