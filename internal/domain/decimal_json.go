package domain

import (
	"bytes"
	"fmt"

	"github.com/shopspring/decimal"
)

// jsonDecimal serializa un decimal como numero JSON y solo acepta numeros al leer:
// strings, booleanos y null se rechazan en lugar de convertirse en silencio.
type jsonDecimal struct {
	decimal.Decimal
}

func (d jsonDecimal) MarshalJSON() ([]byte, error) {
	return []byte(d.Decimal.String()), nil
}

func (d *jsonDecimal) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	if len(raw) == 0 || raw[0] == '"' || bytes.Equal(raw, []byte("null")) {
		return fmt.Errorf("expected JSON number, got %s", raw)
	}
	v, err := decimal.NewFromString(string(raw))
	if err != nil {
		return fmt.Errorf("expected JSON number, got %s", raw)
	}
	d.Decimal = v
	return nil
}
