package publisher

import (
	"context"
	"encoding/json"
	"time"

	r "github.com/fjod/go_cart/order-placement/internal/repository"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

const batchSize = 100

// OutboxStore is the part of the journal the poller needs.
type OutboxStore interface {
	GetUnprocessedEvents(ctx context.Context, limit int) ([]*r.OutboxEvent, error)
	MarkEventAsProcessed(ctx context.Context, id int) error
	GetStuckPlacements(ctx context.Context, olderThan time.Duration) ([]*r.PlacementRecord, error)
	MarkPlacementInterrupted(ctx context.Context, attemptID uuid.UUID, payload []byte) error
}

type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type OutboxPoller struct {
	timeout      time.Duration
	eventTick    time.Duration
	recoveryTick time.Duration
	stuckAfter   time.Duration
	repo         OutboxStore
	writer       MessageWriter
}

func NewOutboxPoller(repo OutboxStore, topic string, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{
		timeout:      time.Second * 5,
		eventTick:    time.Second,
		recoveryTick: time.Minute,
		stuckAfter:   time.Minute * 10,
		repo:         repo,
		writer:       w,
	}
}

// Run publishes pending outbox events until ctx is cancelled.
func (p *OutboxPoller) Run(ctx context.Context) {
	eventTicker := time.NewTicker(p.eventTick)
	recoveryTicker := time.NewTicker(p.recoveryTick)
	defer eventTicker.Stop()
	defer recoveryTicker.Stop()
	for {
		select {
		case <-eventTicker.C:
			p.processUnpublishedEvents(ctx)
		case <-recoveryTicker.C:
			p.recoverStuckPlacements(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() error {
	return p.writer.Close()
}

func (p *OutboxPoller) processUnpublishedEvents(ctx context.Context) {
	events, err := p.repo.GetUnprocessedEvents(ctx, batchSize)
	if err != nil {
		log.Error().Err(err).Msg("failed to fetch outbox events")
		return
	}

	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			log.Error().Err(errPublish).Int("event_id", event.ID).Msg("failed to publish event")
			continue
		}

		if errMark := p.repo.MarkEventAsProcessed(ctx, event.ID); errMark != nil {
			log.Error().Err(errMark).Int("event_id", event.ID).Msg("failed to mark event as processed")
		}
	}
}

// recoverStuckPlacements flags placements that created an order upstream but never completed,
// typically because the process stopped between steps. Their detail rows and stock need a manual check.
func (p *OutboxPoller) recoverStuckPlacements(ctx context.Context) {
	placements, err := p.repo.GetStuckPlacements(ctx, p.stuckAfter)
	if err != nil {
		log.Error().Err(err).Msg("failed to get stuck placements")
		return
	}
	for _, placement := range placements {
		payload, err := json.Marshal(map[string]interface{}{
			"attempt_id":          placement.AttemptID.String(),
			"order_id":            placement.OrderID,
			"customer_id":         placement.CustomerID,
			"total_with_shipping": placement.TotalWithShipping,
			"created_at":          placement.CreatedAt,
		})
		if err != nil {
			log.Error().Err(err).Str("attempt_id", placement.AttemptID.String()).Msg("failed to marshal interruption payload")
			continue
		}

		if err := p.repo.MarkPlacementInterrupted(ctx, placement.AttemptID, payload); err != nil {
			log.Error().Err(err).Str("attempt_id", placement.AttemptID.String()).Msg("failed to mark placement interrupted")
			continue
		}
		log.Warn().
			Str("attempt_id", placement.AttemptID.String()).
			Int64("order_id", placement.OrderID).
			Msg("placement interrupted after order creation")
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event *r.OutboxEvent) error {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(event.AggregateId), // order id keeps events of one order on one partition
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
