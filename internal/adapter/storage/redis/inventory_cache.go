package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"spareparts-billing/internal/core/domain"
	"spareparts-billing/internal/core/ports"
	"spareparts-billing/pkg/apperror"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// InventoryCache implements ports.InventoryCache over Redis. Each part id
// is stored twice: a fresh copy bounded by the configured TTL, and a
// long-lived stale copy. When the inventory of record is unreachable the
// stale copy is served instead of an error, trading freshness for
// availability.
// Callers must never base financial decisions on these views.
type InventoryCache struct {
	client   *goredis.Client
	source   ports.InventorySource
	freshTTL time.Duration
	staleTTL time.Duration
	log      zerolog.Logger
}

// NewInventoryCache creates a Redis-backed inventory view cache.
func NewInventoryCache(client *goredis.Client, source ports.InventorySource, freshTTL, staleTTL time.Duration, log zerolog.Logger) *InventoryCache {
	return &InventoryCache{
		client:   client,
		source:   source,
		freshTTL: freshTTL,
		staleTTL: staleTTL,
		log:      log,
	}
}

func freshKey(partID string) string { return "inv:fresh:" + partID }
func staleKey(partID string) string { return "inv:stale:" + partID }

// Get serves the cached view for a part, refetching from the inventory of
// record on miss or expiry. On source failure a stale copy is returned
// with its Stale flag set.
func (c *InventoryCache) Get(ctx context.Context, partID string) (*domain.GlobalInventoryView, error) {
	if partID == "" {
		return nil, apperror.Validation("part_id is required")
	}

	if view, err := c.load(ctx, freshKey(partID)); err != nil {
		c.log.Warn().Err(err).Str("part_id", partID).Msg("inventory cache read failed, fetching from source")
	} else if view != nil {
		return view, nil
	}

	view, err := c.source.FetchGlobalInventory(ctx, partID)
	if err != nil {
		stale, loadErr := c.load(ctx, staleKey(partID))
		if loadErr == nil && stale != nil {
			c.log.Warn().Err(err).Str("part_id", partID).Msg("inventory source unavailable, serving stale view")
			stale.Stale = true
			return stale, nil
		}
		return nil, apperror.ErrInventoryUnavailable(err)
	}
	view.FetchedAt = time.Now().UTC()

	c.store(ctx, partID, view)
	return view, nil
}

// Invalidate drops the fresh copy so the next read goes to the source of
// record. The stale fallback copy is kept on purpose.
func (c *InventoryCache) Invalidate(ctx context.Context, partID string) error {
	if err := c.client.Del(ctx, freshKey(partID)).Err(); err != nil {
		return fmt.Errorf("invalidate inventory view: %w", err)
	}
	c.log.Debug().Str("part_id", partID).Msg("inventory view invalidated")
	return nil
}

func (c *InventoryCache) load(ctx context.Context, key string) (*domain.GlobalInventoryView, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == goredis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis inventory get: %w", err)
	}
	view := &domain.GlobalInventoryView{}
	if err := json.Unmarshal(data, view); err != nil {
		return nil, fmt.Errorf("decode inventory view: %w", err)
	}
	return view, nil
}

// store writes both copies best-effort; a cache write failure only costs
// the next reader a source fetch.
func (c *InventoryCache) store(ctx context.Context, partID string, view *domain.GlobalInventoryView) {
	data, err := json.Marshal(view)
	if err != nil {
		c.log.Warn().Err(err).Str("part_id", partID).Msg("encode inventory view failed")
		return
	}
	if err := c.client.Set(ctx, freshKey(partID), data, c.freshTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("part_id", partID).Msg("cache fresh inventory view failed")
	}
	if err := c.client.Set(ctx, staleKey(partID), data, c.staleTTL).Err(); err != nil {
		c.log.Warn().Err(err).Str("part_id", partID).Msg("cache stale inventory view failed")
	}
}
