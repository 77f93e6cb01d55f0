package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// MarkerStore records fire-once escalation markers per invoice and
// threshold. MarkOnce must be atomic: when two scans race for the same
// (invoiceID, thresholdDays) pair, exactly one of them wins.
type MarkerStore interface {
	MarkOnce(ctx context.Context, invoiceID string, thresholdDays int) (bool, error)
	HasMarker(ctx context.Context, invoiceID string, thresholdDays int) (bool, error)
}

// RedisMarkerStore implements MarkerStore on Redis using SETNX.
// Markers are never expired: a paid invoice simply stops being scanned,
// so its markers become inert.
type RedisMarkerStore struct {
	client *redis.Client
}

// NewRedisMarkerStore creates a MarkerStore backed by the given client.
func NewRedisMarkerStore(client *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{client: client}
}

func markerKey(invoiceID string, thresholdDays int) string {
	return fmt.Sprintf("escalation:%s:%dd", invoiceID, thresholdDays)
}

// MarkOnce sets the marker and reports whether this call set it. A
// false result with nil error means another scan already fired this
// threshold.
func (s *RedisMarkerStore) MarkOnce(ctx context.Context, invoiceID string, thresholdDays int) (bool, error) {
	won, err := s.client.SetNX(ctx, markerKey(invoiceID, thresholdDays), "1", 0).Result()
	if err != nil {
		return false, fmt.Errorf("failed to set escalation marker for %s: %w", invoiceID, err)
	}
	return won, nil
}

// HasMarker reports whether the threshold has already fired for the invoice.
func (s *RedisMarkerStore) HasMarker(ctx context.Context, invoiceID string, thresholdDays int) (bool, error) {
	n, err := s.client.Exists(ctx, markerKey(invoiceID, thresholdDays)).Result()
	if err != nil {
		return false, fmt.Errorf("failed to read escalation marker for %s: %w", invoiceID, err)
	}
	return n > 0, nil
}
