package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductStockRecord_WithStockKeepsOtherFields(t *testing.T) {
	body := `{"obat_id":7,"nama_obat":"Paracetamol","harga_satuan":"1000.00","stok":10,"kategori":null,"extra":{"a":[1,2]}}`
	var rec ProductStockRecord
	require.NoError(t, json.Unmarshal([]byte(body), &rec))

	stock, err := rec.Stock()
	require.NoError(t, err)
	assert.Equal(t, int64(10), stock)

	updated := rec.WithStock(-3)
	out, err := json.Marshal(updated)
	require.NoError(t, err)

	var got map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(out, &got))
	assert.Equal(t, "-3", string(got["stok"]))
	for _, k := range []string{"obat_id", "nama_obat", "harga_satuan", "kategori", "extra"} {
		orig, _ := rec.Raw(k)
		assert.JSONEq(t, string(orig), string(got[k]), k)
	}

	// original record is not mutated
	stock, _ = rec.Stock()
	assert.Equal(t, int64(10), stock)
}

func TestProductStockRecord_StockAsString(t *testing.T) {
	var rec ProductStockRecord
	require.NoError(t, json.Unmarshal([]byte(`{"stok":"12"}`), &rec))
	stock, err := rec.Stock()
	require.NoError(t, err)
	assert.Equal(t, int64(12), stock)
}

func TestProductStockRecord_MissingStock(t *testing.T) {
	var rec ProductStockRecord
	require.NoError(t, json.Unmarshal([]byte(`{"nama_obat":"X","stok":null}`), &rec))
	_, err := rec.Stock()
	assert.ErrorIs(t, err, ErrMissingStock)
}

func TestProductStockRecord_InvalidStock(t *testing.T) {
	var rec ProductStockRecord
	require.NoError(t, json.Unmarshal([]byte(`{"stok":"banyak"}`), &rec))
	_, err := rec.Stock()
	assert.ErrorContains(t, err, "invalid stok value")
}

func TestProductStockRecord_Accessors(t *testing.T) {
	var rec ProductStockRecord
	require.NoError(t, json.Unmarshal([]byte(`{"obat_id":"9","nama_obat":"Amoxicillin","satuan":"strip"}`), &rec))
	assert.Equal(t, int64(9), rec.ID())
	assert.Equal(t, "Amoxicillin", rec.Name())
	assert.Equal(t, "strip", rec.Text(FieldUnit))
	assert.Equal(t, "", rec.Text(FieldPhoto))
}
