package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"

	"github.com/babylonlabs-io/staking-rewards-distributor/internal/config"
	"github.com/babylonlabs-io/staking-rewards-distributor/internal/observability/metrics"
)

type EventType string

const (
	SnapshotPublishedEvent EventType = "SNAPSHOT_PUBLISHED"
	PeriodSeededEvent      EventType = "PERIOD_SEEDED"
)

// SnapshotMessage tells downstream consumers (claim UIs, indexers) where
// the artifact of a period can be fetched.
type SnapshotMessage struct {
	EventType       EventType `json:"event_type"`
	PeriodID        uint64    `json:"period_id"`
	ContentID       string    `json:"content_id"`
	Root            string    `json:"root"`
	TotalAllocation string    `json:"total_allocation"`
	Leaves          int       `json:"leaves"`
}

//go:generate mockery --name=Notifier --output=../../tests/mocks --outpkg=mocks --filename=mock_notifier.go
type Notifier interface {
	PublishSnapshot(ctx context.Context, msg SnapshotMessage) error
}

type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

type QueueManager struct {
	conn *amqp.Connection
	ch   channel
	cfg  *config.QueueConfig
}

func NewQueueManager(cfg *config.QueueConfig) (*QueueManager, error) {
	amqpURI := fmt.Sprintf("amqp://%s:%s@%s", cfg.User, cfg.Password, cfg.URL)
	conn, err := amqp.Dial(amqpURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to queue: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close() //nolint:errcheck
		return nil, fmt.Errorf("failed to open queue channel: %w", err)
	}

	if cfg.Exchange != "" {
		err = ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeTopic, true, false, false, false, nil)
		if err != nil {
			conn.Close() //nolint:errcheck
			return nil, fmt.Errorf("failed to declare exchange %s: %w", cfg.Exchange, err)
		}
	}

	qm := newQueueManager(ch, cfg)
	qm.conn = conn
	return qm, nil
}

func newQueueManager(ch channel, cfg *config.QueueConfig) *QueueManager {
	return &QueueManager{ch: ch, cfg: cfg}
}

func (qm *QueueManager) PublishSnapshot(ctx context.Context, msg SnapshotMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, qm.cfg.PublishTimeout)
	defer cancel()

	err = qm.ch.PublishWithContext(ctx, qm.cfg.Exchange, qm.cfg.RoutingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
		Type:         string(msg.EventType),
		Body:         body,
	})
	if err != nil {
		metrics.RecordQueueSendError()
		return fmt.Errorf("failed to publish %s message for period %d: %w", msg.EventType, msg.PeriodID, err)
	}

	log.Ctx(ctx).Debug().
		Str("event_type", string(msg.EventType)).
		Uint64("period", msg.PeriodID).
		Msg("Queue message published")
	return nil
}

// Shutdown gracefully stops the interaction with the queue, ensuring all resources are properly released.
func (qm *QueueManager) Shutdown() {
	log.Info().Msg("Shutting down queue manager")

	if err := qm.ch.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close queue channel")
	}
	if qm.conn != nil {
		if err := qm.conn.Close(); err != nil {
			log.Error().Err(err).Msg("Failed to close queue connection")
		}
	}
}
