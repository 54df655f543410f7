package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/fjod/go_cart/order-placement/domain"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

type Repository struct {
	db *sql.DB
}

func NewRepository(cred *Credentials) (*Repository, error) {
	psqlconn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		cred.Host,
		cred.Port,
		cred.User,
		cred.Password,
		cred.DBName)

	db, err := sql.Open("postgres", psqlconn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if e2 := db.Ping(); e2 != nil {
		return nil, fmt.Errorf("failed to ping database: %w", e2)
	}

	db.SetMaxOpenConns(50)
	db.SetMaxIdleConns(10)
	log.Info().Str("host", cred.Host).Str("db", cred.DBName).Msg("connected to postgres")
	return &Repository{db: db}, nil
}

func (r *Repository) RunMigrations(cred *Credentials) error {
	driver, err := postgres.WithInstance(r.db, &postgres.Config{
		MigrationsTable: "placement_schema_migrations",
	})
	if err != nil {
		return fmt.Errorf("could not create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		fmt.Sprintf("file://%s", cred.MigrationsDirPath),
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("could not create migrate instance: %w", err)
	}

	if e2 := m.Up(); e2 != nil && !errors.Is(e2, migrate.ErrNoChange) {
		return fmt.Errorf("could not run migrations: %w", e2)
	}

	return nil
}

// OrderCreated journals a placement as soon as the remote order exists.
func (r *Repository) OrderCreated(ctx context.Context, p *domain.Placement) error {
	query := `INSERT INTO placements (attempt_id, order_id, customer_id, total_price, shipping_fee, total_with_shipping, status, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW())`

	_, err := r.db.ExecContext(ctx, query,
		p.AttemptID,
		p.OrderID,
		p.CustomerID,
		p.TotalPrice,
		p.ShippingFee,
		p.TotalWithShipping,
		p.Status,
		p.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return ErrDuplicatePlacement
		}
		return fmt.Errorf("insert placement: %w", err)
	}
	return nil
}

// OrderCompleted stores the final report and enqueues the order.placed event in one transaction.
func (r *Repository) OrderCompleted(ctx context.Context, p *domain.Placement) error {
	failures := p.Failures()
	if failures == nil {
		failures = []domain.ItemFailure{}
	}
	failuresJSON, err := json.Marshal(failures)
	if err != nil {
		return fmt.Errorf("marshal failures: %w", err)
	}
	payload, err := json.Marshal(newPlacedEvent(p, failures))
	if err != nil {
		return fmt.Errorf("marshal event payload: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx,
		`UPDATE placements SET status = $1, failures = $2, updated_at = NOW() WHERE attempt_id = $3`,
		p.Status, failuresJSON, p.AttemptID)
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPlacementNotFound
	}

	if err := insertOutboxEvent(ctx, tx, strconv.FormatInt(p.OrderID, 10), EventOrderPlaced, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) GetPlacement(ctx context.Context, attemptID uuid.UUID) (*PlacementRecord, error) {
	query := `SELECT attempt_id, order_id, customer_id, total_price, shipping_fee, total_with_shipping, status, failures, created_at, updated_at
	          FROM placements WHERE attempt_id = $1`

	rec, err := scanPlacement(r.db.QueryRowContext(ctx, query, attemptID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlacementNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query placement: %w", err)
	}
	return rec, nil
}

func (r *Repository) ListPlacementsByCustomer(ctx context.Context, customerID int64, limit int) ([]*PlacementRecord, error) {
	query := `SELECT attempt_id, order_id, customer_id, total_price, shipping_fee, total_with_shipping, status, failures, created_at, updated_at
	          FROM placements WHERE customer_id = $1 ORDER BY created_at DESC LIMIT $2`

	return r.queryPlacements(ctx, query, customerID, limit)
}

// GetStuckPlacements returns placements whose order was created but that never completed.
func (r *Repository) GetStuckPlacements(ctx context.Context, olderThan time.Duration) ([]*PlacementRecord, error) {
	query := `SELECT attempt_id, order_id, customer_id, total_price, shipping_fee, total_with_shipping, status, failures, created_at, updated_at
	          FROM placements WHERE status = $1 AND updated_at < $2 ORDER BY created_at`

	return r.queryPlacements(ctx, query, domain.PlacementStatusOrderCreated, time.Now().Add(-olderThan))
}

// MarkPlacementInterrupted flags a stuck placement and enqueues an interruption event.
func (r *Repository) MarkPlacementInterrupted(ctx context.Context, attemptID uuid.UUID, payload []byte) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var orderID int64
	err = tx.QueryRowContext(ctx,
		`UPDATE placements SET status = $1, updated_at = NOW() WHERE attempt_id = $2 AND status = $3 RETURNING order_id`,
		domain.PlacementStatusInterrupted, attemptID, domain.PlacementStatusOrderCreated).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrPlacementNotFound
	}
	if err != nil {
		return fmt.Errorf("update placement: %w", err)
	}

	if err := insertOutboxEvent(ctx, tx, strconv.FormatInt(orderID, 10), EventOrderInterrupted, payload); err != nil {
		return err
	}
	return tx.Commit()
}

func (r *Repository) GetUnprocessedEvents(ctx context.Context, limit int) ([]*OutboxEvent, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, aggregate_id, event_type, payload, created_at FROM outbox_events
		 WHERE processed_at IS NULL ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query outbox events: %w", err)
	}
	defer rows.Close()

	var events []*OutboxEvent
	for rows.Next() {
		var e OutboxEvent
		if err := rows.Scan(&e.ID, &e.AggregateId, &e.EventType, &e.Payload, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan outbox row: %w", err)
		}
		events = append(events, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return events, nil
}

func (r *Repository) MarkEventAsProcessed(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE outbox_events SET processed_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark event %d processed: %w", id, err)
	}
	return nil
}

func (r *Repository) Close() error {
	return r.db.Close()
}

func (r *Repository) queryPlacements(ctx context.Context, query string, args ...any) ([]*PlacementRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query placements: %w", err)
	}
	defer rows.Close()

	var records []*PlacementRecord
	for rows.Next() {
		rec, err := scanPlacement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan placement row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}
	return records, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlacement(row rowScanner) (*PlacementRecord, error) {
	var rec PlacementRecord
	var orderID sql.NullInt64
	var failuresJSON []byte
	err := row.Scan(
		&rec.AttemptID,
		&orderID,
		&rec.CustomerID,
		&rec.TotalPrice,
		&rec.ShippingFee,
		&rec.TotalWithShipping,
		&rec.Status,
		&failuresJSON,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	rec.OrderID = orderID.Int64
	if err := json.Unmarshal(failuresJSON, &rec.Failures); err != nil {
		return nil, fmt.Errorf("unmarshal failures: %w", err)
	}
	return &rec, nil
}

func insertOutboxEvent(ctx context.Context, tx *sql.Tx, aggregateID, eventType string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO outbox_events (aggregate_id, event_type, payload, created_at) VALUES ($1, $2, $3, NOW())`,
		aggregateID, eventType, payload)
	if err != nil {
		return fmt.Errorf("insert outbox event: %w", err)
	}
	return nil
}
