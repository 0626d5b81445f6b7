package studio

import (
	"bytes"
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Amount is a money value as served by the backend, usually a decimal string ("50.00").
// Null, empty or unparsable values decode as zero so one bad record
// cannot fail the whole collection.
type Amount struct {
	decimal.Decimal
}

func NewAmount(d decimal.Decimal) Amount {
	return Amount{Decimal: d}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	if bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		raw = s
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return nil
	}
	a.Decimal = d
	return nil
}
