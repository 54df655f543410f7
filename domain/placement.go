package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PlacementStatus string

const (
	PlacementStatusInitiated    PlacementStatus = "INITIATED"
	PlacementStatusOrderCreated PlacementStatus = "ORDER_CREATED"
	PlacementStatusCompleted    PlacementStatus = "COMPLETED"
	PlacementStatusFailed       PlacementStatus = "FAILED"
	// PlacementStatusInterrupted marks an order that was created upstream but whose placement never
	// finished, so its detail rows and stock may be incomplete.
	PlacementStatusInterrupted PlacementStatus = "INTERRUPTED"
)

func (s PlacementStatus) IsTerminal() bool {
	return s == PlacementStatusCompleted || s == PlacementStatusFailed || s == PlacementStatusInterrupted
}

// String representation (for logging)
func (s PlacementStatus) String() string {
	return string(s)
}

type Step string

const (
	StepLineItem Step = "line_item"
	StepStock    Step = "stock_update"
)

// LineItemResult is the outcome of creating one order detail row.
type LineItemResult struct {
	ProductID int64
	Quantity  int
	Err       error
}

func (r LineItemResult) OK() bool { return r.Err == nil }

// StockResult is the outcome of reconciling stock for one product.
type StockResult struct {
	ProductID     int64
	Quantity      int
	PreviousStock int64
	NewStock      int64
	Err           error
}

func (r StockResult) OK() bool { return r.Err == nil }

// Oversold reports whether the written stock went below zero.
func (r StockResult) Oversold() bool { return r.Err == nil && r.NewStock < 0 }

// ItemFailure is a non-fatal per-item failure recorded during placement.
type ItemFailure struct {
	Step      Step   `json:"step"`
	ProductID int64  `json:"product_id"`
	Message   string `json:"message"`
}

// Redirect asks the caller to navigate to Target once After has elapsed.
type Redirect struct {
	Target string
	After  time.Duration
}

// Placement is the report of one checkout attempt.
type Placement struct {
	AttemptID         uuid.UUID
	OrderID           int64
	CustomerID        int64
	TotalPrice        decimal.Decimal
	ShippingFee       decimal.Decimal
	TotalWithShipping decimal.Decimal
	Status            PlacementStatus
	LineItems         []LineItemResult
	Stock             []StockResult
	Redirect          Redirect
	CreatedAt         time.Time
}

// Failures lists every failed per-item sub-operation in processing order.
func (p *Placement) Failures() []ItemFailure {
	var failures []ItemFailure
	for _, r := range p.LineItems {
		if r.Err != nil {
			failures = append(failures, ItemFailure{Step: StepLineItem, ProductID: r.ProductID, Message: r.Err.Error()})
		}
	}
	for _, r := range p.Stock {
		if r.Err != nil {
			failures = append(failures, ItemFailure{Step: StepStock, ProductID: r.ProductID, Message: r.Err.Error()})
		}
	}
	return failures
}
