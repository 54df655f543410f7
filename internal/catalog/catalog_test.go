package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/fjod/go_cart/order-placement/internal/gateway"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	records map[int64]string
	calls   atomic.Int32
	release chan struct{}
}

func (m *mockFetcher) GetProductByID(_ context.Context, id int64) (domain.ProductStockRecord, error) {
	m.calls.Add(1)
	if m.release != nil {
		<-m.release
	}
	body, ok := m.records[id]
	if !ok {
		return domain.ProductStockRecord{}, &gateway.RemoteError{Op: "get product", Status: 404}
	}
	var record domain.ProductStockRecord
	if err := json.Unmarshal([]byte(body), &record); err != nil {
		return domain.ProductStockRecord{}, err
	}
	return record, nil
}

const fullRecord = `{
	"obat_id": 7, "nama_obat": "Paracetamol 500mg", "harga_satuan": "12500.00", "stok": "10",
	"satuan": "strip", "foto": "https://img/7.png", "kategori": "Analgesik",
	"deskripsi": "Pereda nyeri", "dosis": "3x1", "golongan_obat": "Obat Bebas", "keterangan": null
}`

func TestGetProductDetail_Fallbacks(t *testing.T) {
	svc := NewService(&mockFetcher{records: map[int64]string{7: fullRecord}})

	d, err := svc.GetProductDetail(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, int64(7), d.ID)
	assert.Equal(t, "Paracetamol 500mg", d.Name)
	assert.True(t, d.Price.Valid)
	assert.Equal(t, "12500", d.Price.Decimal.String())
	assert.Equal(t, int64(10), d.Stock)
	assert.True(t, d.InStock)
	assert.Equal(t, "Analgesik", d.Category)
	assert.Equal(t, "Pereda nyeri", d.Description)
	assert.Equal(t, "3x1", d.Dosage)
	assert.Equal(t, "Obat Bebas", d.DrugClass)
	assert.Equal(t, missingInfo, d.Composition)
	assert.Equal(t, missingInfo, d.SideEffects)
	assert.Equal(t, missingInfo, d.References)
	assert.Empty(t, d.Notes)
}

func TestGetProductDetail_SparseRecord(t *testing.T) {
	svc := NewService(&mockFetcher{records: map[int64]string{3: `{"obat_id": 3, "nama_obat": "", "stok": 0}`}})

	d, err := svc.GetProductDetail(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, missingName, d.Name)
	assert.Equal(t, missingCategory, d.Category)
	assert.False(t, d.Price.Valid)
	assert.False(t, d.InStock)

	out, err := json.Marshal(d)
	require.NoError(t, err)
	assert.Contains(t, string(out), `"price":null`)
}

func TestGetProductDetail_NotFound(t *testing.T) {
	svc := NewService(&mockFetcher{records: map[int64]string{}})

	_, err := svc.GetProductDetail(context.Background(), 99)
	require.Error(t, err)
	remote, ok := gateway.AsRemoteError(err)
	require.True(t, ok)
	assert.True(t, remote.IsNotFound())
}

func TestGetProductDetail_CollapsesConcurrentLookups(t *testing.T) {
	fetcher := &mockFetcher{records: map[int64]string{7: fullRecord}, release: make(chan struct{})}
	svc := NewService(fetcher)

	var wg sync.WaitGroup
	results := make([]*ProductDetail, 5)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			d, err := svc.GetProductDetail(context.Background(), 7)
			assert.NoError(t, err)
			results[i] = d
		}()
	}
	// wait for the first caller to reach the fetcher before letting it finish
	require.Eventually(t, func() bool { return fetcher.calls.Load() >= 1 }, time.Second, time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(fetcher.release)
	wg.Wait()

	assert.Less(t, fetcher.calls.Load(), int32(5))
	for _, d := range results {
		require.NotNil(t, d)
		assert.Equal(t, "Paracetamol 500mg", d.Name)
	}
}

func TestCartItemFor(t *testing.T) {
	svc := NewService(&mockFetcher{records: map[int64]string{
		7: fullRecord,
		8: `{"obat_id": 8, "nama_obat": "Habis", "harga_satuan": 1000, "stok": 0}`,
		9: `{"obat_id": 9, "nama_obat": "Tanpa harga", "harga_satuan": "n/a", "stok": 4}`,
	}})
	ctx := context.Background()

	item, err := svc.CartItemFor(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(7), item.ProductID)
	assert.Equal(t, "Paracetamol 500mg", item.Name)
	assert.Equal(t, "37500", item.Subtotal().String())
	assert.Equal(t, "strip", item.Unit)
	assert.Equal(t, "https://img/7.png", item.Image)

	_, err = svc.CartItemFor(ctx, 7, 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	_, err = svc.CartItemFor(ctx, 7, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CartItemFor(ctx, 8, 1)
	assert.ErrorIs(t, err, ErrOutOfStock)

	_, err = svc.CartItemFor(ctx, 9, 1)
	assert.ErrorIs(t, err, ErrProductUnavailable)
}
