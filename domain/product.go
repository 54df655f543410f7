package domain

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Field names of the remote product ("obat") record.
const (
	FieldProductID      = "obat_id"
	FieldName           = "nama_obat"
	FieldDescription    = "deskripsi"
	FieldDosage         = "dosis"
	FieldUnitPrice      = "harga_satuan"
	FieldWholesalePrice = "harga_grosir"
	FieldStock          = "stok"
	FieldUnit           = "satuan"
	FieldPhoto          = "foto"
	FieldCategory       = "kategori"
)

var ErrMissingStock = errors.New("product record has no stock field")

// ProductStockRecord is the full remote product record. Fields are kept as raw JSON so that
// writing the record back leaves every field other than the stock byte-for-byte unchanged.
type ProductStockRecord struct {
	fields map[string]json.RawMessage
}

func NewProductStockRecord(fields map[string]json.RawMessage) ProductStockRecord {
	cp := make(map[string]json.RawMessage, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return ProductStockRecord{fields: cp}
}

func (p *ProductStockRecord) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return errors.New("product record is not a JSON object")
	}
	p.fields = fields
	return nil
}

func (p ProductStockRecord) MarshalJSON() ([]byte, error) {
	if p.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(p.fields)
}

// Fields returns a copy of the raw fields.
func (p ProductStockRecord) Fields() map[string]json.RawMessage {
	cp := make(map[string]json.RawMessage, len(p.fields))
	for k, v := range p.fields {
		cp[k] = v
	}
	return cp
}

// Raw returns the raw JSON of one field.
func (p ProductStockRecord) Raw(name string) (json.RawMessage, bool) {
	v, ok := p.fields[name]
	return v, ok
}

// Stock parses the stok field. The remote API sends it either as a number or as a numeric string.
func (p ProductStockRecord) Stock() (int64, error) {
	raw, ok := p.fields[FieldStock]
	if !ok || isNull(raw) {
		return 0, ErrMissingStock
	}
	n, err := ParseInteger(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %s: %w", FieldStock, string(raw), err)
	}
	return n, nil
}

// WithStock returns a copy of the record with only the stok field replaced.
func (p ProductStockRecord) WithStock(stock int64) ProductStockRecord {
	cp := p.Fields()
	cp[FieldStock] = json.RawMessage(strconv.FormatInt(stock, 10))
	return ProductStockRecord{fields: cp}
}

func (p ProductStockRecord) ID() int64 {
	raw, ok := p.fields[FieldProductID]
	if !ok {
		return 0
	}
	n, err := ParseInteger(raw)
	if err != nil {
		return 0
	}
	return n
}

// Text returns a text field, or "" when absent, null or not a string.
func (p ProductStockRecord) Text(name string) string {
	raw, ok := p.fields[name]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func (p ProductStockRecord) Name() string { return p.Text(FieldName) }

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// ParseInteger decodes a JSON number or numeric string holding an integral value.
func ParseInteger(raw json.RawMessage) (int64, error) {
	var num json.Number
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return 0, err
	}
	switch t := v.(type) {
	case json.Number:
		num = t
	case string:
		num = json.Number(strings.TrimSpace(t))
	default:
		return 0, fmt.Errorf("unexpected type %T", v)
	}
	if n, err := num.Int64(); err == nil {
		return n, nil
	}
	f, err := num.Float64()
	if err != nil {
		return 0, err
	}
	if f != float64(int64(f)) {
		return 0, fmt.Errorf("%s is not an integer", num)
	}
	return int64(f), nil
}
