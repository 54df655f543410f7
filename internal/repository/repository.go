package repository

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	EventOrderPlaced      = "order.placed"
	EventOrderInterrupted = "order.placement_interrupted"
)

var (
	ErrPlacementNotFound  = errors.New("placement not found")
	ErrDuplicatePlacement = errors.New("placement already recorded")
)

type Credentials struct {
	Host              string
	Port              int
	User              string
	Password          string
	DBName            string
	MigrationsDirPath string
}

// PlacementRecord is one journal row.
type PlacementRecord struct {
	AttemptID         uuid.UUID              `json:"attempt_id"`
	OrderID           int64                  `json:"order_id"`
	CustomerID        int64                  `json:"customer_id"`
	TotalPrice        decimal.Decimal        `json:"total_price"`
	ShippingFee       decimal.Decimal        `json:"shipping_fee"`
	TotalWithShipping decimal.Decimal        `json:"total_with_shipping"`
	Status            domain.PlacementStatus `json:"status"`
	Failures          []domain.ItemFailure   `json:"failures"`
	CreatedAt         time.Time              `json:"created_at"`
	UpdatedAt         time.Time              `json:"updated_at"`
}

type OutboxEvent struct {
	ID          int
	AggregateId string
	EventType   string
	Payload     json.RawMessage
	CreatedAt   time.Time
}

type RepoInterface interface {
	OrderCreated(ctx context.Context, p *domain.Placement) error
	OrderCompleted(ctx context.Context, p *domain.Placement) error
	GetPlacement(ctx context.Context, attemptID uuid.UUID) (*PlacementRecord, error)
	ListPlacementsByCustomer(ctx context.Context, customerID int64, limit int) ([]*PlacementRecord, error)
	GetStuckPlacements(ctx context.Context, olderThan time.Duration) ([]*PlacementRecord, error)
	MarkPlacementInterrupted(ctx context.Context, attemptID uuid.UUID, payload []byte) error
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
	RunMigrations(*Credentials) error
	Close() error
}
