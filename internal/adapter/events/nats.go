package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"spareparts-billing/config"
	"spareparts-billing/internal/core/domain"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects used on the broadcast bus.
const (
	SubjectBalanceChanged    = "wallet.events.balance_changed"
	SubjectInventoryPrefix   = "inventory.events"
	SubjectInventoryMatchAll = SubjectInventoryPrefix + ".>"
)

// NATSBus implements ports.EventPublisher and ports.EventSubscriber over a
// core NATS connection. Inventory broadcasts arrive from upstream flows
// (reserve / release / update); wallet events go out to notification
// dispatch. Both directions are best-effort.
type NATSBus struct {
	conn *nats.Conn
	log  zerolog.Logger
}

// NewNATSBus connects to NATS with reconnect handling.
func NewNATSBus(cfg config.NATSConfig, log zerolog.Logger) (*NATSBus, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(c *nats.Conn, err error) {
			log.Warn().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			log.Info().Str("url", c.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("connecting to NATS: %w", err)
	}

	log.Info().Str("url", conn.ConnectedUrl()).Msg("NATS connection established")
	return &NATSBus{conn: conn, log: log}, nil
}

// Close drains and closes the connection.
func (b *NATSBus) Close() {
	b.conn.Close()
}

// PublishBalanceChanged announces a committed wallet movement.
func (b *NATSBus) PublishBalanceChanged(_ context.Context, event domain.BalanceChangedEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal balance event: %w", err)
	}
	if err := b.conn.Publish(SubjectBalanceChanged, data); err != nil {
		return fmt.Errorf("publish balance event: %w", err)
	}
	return nil
}

// PublishInventoryEvent broadcasts a stock change, subject-suffixed by the
// event type (inventory.events.reserved etc).
func (b *NATSBus) PublishInventoryEvent(_ context.Context, event domain.InventoryEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal inventory event: %w", err)
	}
	subject := InventorySubject(event.Type)
	if err := b.conn.Publish(subject, data); err != nil {
		return fmt.Errorf("publish inventory event: %w", err)
	}
	return nil
}

// SubscribeInventoryEvents delivers decoded inventory broadcasts to the
// handler until ctx is done. Undecodable payloads are logged and dropped.
func (b *NATSBus) SubscribeInventoryEvents(ctx context.Context, handler func(domain.InventoryEvent)) error {
	sub, err := b.conn.Subscribe(SubjectInventoryMatchAll, func(msg *nats.Msg) {
		event, err := DecodeInventoryEvent(msg.Data)
		if err != nil {
			b.log.Warn().Err(err).Str("subject", msg.Subject).Msg("dropping undecodable inventory event")
			return
		}
		handler(event)
	})
	if err != nil {
		return fmt.Errorf("subscribe inventory events: %w", err)
	}

	go func() {
		<-ctx.Done()
		if err := sub.Unsubscribe(); err != nil {
			b.log.Warn().Err(err).Msg("inventory event unsubscribe failed")
		}
	}()
	return nil
}

// InventorySubject builds the subject for an inventory event type.
func InventorySubject(t domain.InventoryEventType) string {
	return SubjectInventoryPrefix + "." + strings.ToLower(string(t))
}

// DecodeInventoryEvent parses a broadcast payload and validates the fields
// cache invalidation depends on.
func DecodeInventoryEvent(data []byte) (domain.InventoryEvent, error) {
	var event domain.InventoryEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return domain.InventoryEvent{}, fmt.Errorf("decode inventory event: %w", err)
	}
	if event.PartID == "" {
		return domain.InventoryEvent{}, fmt.Errorf("inventory event missing part_id")
	}
	switch event.Type {
	case domain.InventoryEventReserved, domain.InventoryEventReleased, domain.InventoryEventUpdated:
	default:
		return domain.InventoryEvent{}, fmt.Errorf("unknown inventory event type %q", event.Type)
	}
	return event, nil
}
