// Package catalog serves the product detail page and turns products into cart lines.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

const (
	missingInfo     = "Informasi tidak tersedia."
	missingName     = "Nama Tidak Tersedia"
	missingCategory = "Tidak ada kategori"
)

var (
	ErrOutOfStock         = errors.New("product is out of stock")
	ErrInsufficientStock  = errors.New("requested quantity exceeds available stock")
	ErrInvalidQuantity    = errors.New("quantity must be at least 1")
	ErrProductUnavailable = errors.New("product has no usable price")
)

// ProductFetcher reads one product record from the remote API.
type ProductFetcher interface {
	GetProductByID(ctx context.Context, id int64) (domain.ProductStockRecord, error)
}

// ProductDetail is the product page view. Descriptive fields fall back to placeholder text.
type ProductDetail struct {
	ID            int64               `json:"id"`
	Name          string              `json:"name"`
	Price         decimal.NullDecimal `json:"price"`
	Stock         int64               `json:"stock"`
	InStock       bool                `json:"in_stock"`
	Photo         string              `json:"foto"`
	Unit          string              `json:"satuan"`
	Category      string              `json:"kategori"`
	Description   string              `json:"deskripsi"`
	Composition   string              `json:"komposisi"`
	Packaging     string              `json:"kemasan"`
	Benefits      string              `json:"manfaat"`
	Dosage        string              `json:"dosis,omitempty"`
	Usage         string              `json:"penyajian"`
	Storage       string              `json:"cara_penyimpanan"`
	Warnings      string              `json:"perhatian"`
	SideEffects   string              `json:"efek_samping"`
	MIMSName      string              `json:"nama_standar_mims"`
	LicenseNumber string              `json:"nomor_izin_edar"`
	DrugClass     string              `json:"golongan_obat"`
	Notes         string              `json:"keterangan,omitempty"`
	References    string              `json:"referensi"`
}

type Service struct {
	products ProductFetcher
	sfg      singleflight.Group // collapses concurrent lookups of the same product
}

func NewService(products ProductFetcher) *Service {
	return &Service{products: products}
}

func (s *Service) GetProductDetail(ctx context.Context, id int64) (*ProductDetail, error) {
	v, err, _ := s.sfg.Do(strconv.FormatInt(id, 10), func() (interface{}, error) {
		record, err := s.products.GetProductByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get product %d: %w", id, err)
		}
		return detailFrom(id, record), nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*ProductDetail), nil
}

// CartItemFor builds the cart line for adding quantity units of a product.
func (s *Service) CartItemFor(ctx context.Context, id int64, quantity int) (domain.CartItem, error) {
	if quantity < 1 {
		return domain.CartItem{}, ErrInvalidQuantity
	}
	detail, err := s.GetProductDetail(ctx, id)
	if err != nil {
		return domain.CartItem{}, err
	}
	if !detail.InStock {
		return domain.CartItem{}, ErrOutOfStock
	}
	if int64(quantity) > detail.Stock {
		return domain.CartItem{}, fmt.Errorf("%w: %d available", ErrInsufficientStock, detail.Stock)
	}
	if !detail.Price.Valid || detail.Price.Decimal.IsNegative() {
		return domain.CartItem{}, ErrProductUnavailable
	}
	return domain.CartItem{
		ProductID: detail.ID,
		Name:      detail.Name,
		Price:     detail.Price.Decimal,
		Quantity:  quantity,
		Unit:      detail.Unit,
		Image:     detail.Photo,
	}, nil
}

func detailFrom(id int64, r domain.ProductStockRecord) *ProductDetail {
	d := &ProductDetail{
		ID:            r.ID(),
		Name:          orDefault(r.Name(), missingName),
		Price:         decimalField(r, domain.FieldUnitPrice),
		Photo:         r.Text(domain.FieldPhoto),
		Unit:          r.Text(domain.FieldUnit),
		Category:      orDefault(r.Text(domain.FieldCategory), missingCategory),
		Description:   info(r, domain.FieldDescription),
		Composition:   info(r, "komposisi"),
		Packaging:     info(r, "kemasan"),
		Benefits:      info(r, "manfaat"),
		Dosage:        r.Text(domain.FieldDosage),
		Usage:         info(r, "penyajian"),
		Storage:       info(r, "cara_penyimpanan"),
		Warnings:      info(r, "perhatian"),
		SideEffects:   info(r, "efek_samping"),
		MIMSName:      info(r, "nama_standar_mims"),
		LicenseNumber: info(r, "nomor_izin_edar"),
		DrugClass:     info(r, "golongan_obat"),
		Notes:         r.Text("keterangan"),
		References:    info(r, "referensi"),
	}
	if d.ID == 0 {
		d.ID = id
	}
	if stock, err := r.Stock(); err == nil {
		d.Stock = stock
	}
	d.InStock = d.Stock > 0
	return d
}

func info(r domain.ProductStockRecord, field string) string {
	return orDefault(r.Text(field), missingInfo)
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

// decimalField reads a price sent either as a JSON number or a numeric string.
func decimalField(r domain.ProductStockRecord, field string) decimal.NullDecimal {
	raw, ok := r.Raw(field)
	if !ok {
		return decimal.NullDecimal{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		s = string(raw)
	}
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}
