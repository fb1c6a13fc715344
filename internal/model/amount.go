package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Amount is an optional currency value. The zero Amount is absent.
type Amount struct {
	value float64
	known bool
}

// NewAmount returns a present Amount
func NewAmount(v float64) Amount {
	return Amount{value: v, known: true}
}

// Value returns the amount and whether it is present
func (a Amount) Value() (float64, bool) {
	return a.value, a.known
}

// IsZero reports whether the amount is absent. Used by omitzero/omitempty.
func (a Amount) IsZero() bool {
	return !a.known
}

// String renders the amount as dollars with two decimals, or "unknown"
func (a Amount) String() string {
	if !a.known {
		return "unknown"
	}
	return fmt.Sprintf("$%.2f", a.value)
}

// MarshalJSON emits a bare number, or null when absent
func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.known {
		return []byte("null"), nil
	}
	return json.Marshal(a.value)
}

// UnmarshalJSON accepts a number or null
func (a *Amount) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Amount{}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = NewAmount(v)
	return nil
}

// MarshalYAML emits a bare number, or null when absent
func (a Amount) MarshalYAML() (interface{}, error) {
	if !a.known {
		return nil, nil
	}
	return a.value, nil
}

// UnmarshalYAML accepts a scalar number or null
func (a *Amount) UnmarshalYAML(node *yaml.Node) error {
	if node.Tag == "!!null" || node.Value == "" {
		*a = Amount{}
		return nil
	}
	v, err := strconv.ParseFloat(node.Value, 64)
	if err != nil {
		return fmt.Errorf("amount: %w", err)
	}
	*a = NewAmount(v)
	return nil
}
