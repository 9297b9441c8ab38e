package domain

import (
	"bytes"
	"encoding/json"
)

// Table is the columnar wire shape: an ordered column list plus value rows.
// Rows are not required to have the same length.
type Table struct {
	Columns []string `json:"columns"`
	Data    [][]any  `json:"data"`
}

func (t Table) MarshalJSON() ([]byte, error) {
	type plain Table
	out := plain(t)
	if out.Columns == nil {
		out.Columns = []string{}
	}
	if out.Data == nil {
		out.Data = [][]any{}
	}
	return marshalUnescaped(out)
}

// marshalUnescaped encodes v without HTML escaping, so '<', '>' and '&'
// in prompt text reach the model unchanged.
func marshalUnescaped(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
