package repo

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/pkordes/tripweaver/backend/internal/domain"
)

// CachePool is the read-only view of the pooled prior itineraries.
// The matcher never writes to the pool; entries are published by the
// generation pipeline that produced them.
type CachePool interface {
	// Candidates returns pool entries for the destination and season whose
	// duration falls within [minDuration, maxDuration], ordered by quality
	// score descending and capped at limit.
	Candidates(ctx context.Context, destinationSlug string, season domain.Season, minDuration, maxDuration, limit int) ([]domain.CacheEntry, error)
}

// redisCachePool reads candidates from Redis sorted sets. Each destination
// and season pair has one set keyed poolKey, with entry JSON as the member
// and quality_score as the member score, so a reverse range is already in
// quality order.
type redisCachePool struct {
	rdb *redis.Client
}

// NewCachePool constructs a CachePool over the given Redis client.
func NewCachePool(rdb *redis.Client) CachePool {
	return &redisCachePool{rdb: rdb}
}

func poolKey(destinationSlug string, season domain.Season) string {
	return fmt.Sprintf("pool:%s:%s", destinationSlug, season)
}

// Candidates fetches the full quality-ordered set and filters by duration in
// code; duration is not part of the score, so the range query cannot do it.
func (p *redisCachePool) Candidates(ctx context.Context, destinationSlug string, season domain.Season, minDuration, maxDuration, limit int) ([]domain.CacheEntry, error) {
	members, err := p.rdb.ZRevRange(ctx, poolKey(destinationSlug, season), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("repo.CachePool.Candidates: %w", err)
	}

	var entries []domain.CacheEntry
	for _, m := range members {
		var e domain.CacheEntry
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			// A malformed pool entry is a publisher bug; skip it rather than
			// failing every match for the destination.
			continue
		}
		if e.DurationDays < minDuration || e.DurationDays > maxDuration {
			continue
		}
		entries = append(entries, e)
		if len(entries) == limit {
			break
		}
	}

	return entries, nil
}
