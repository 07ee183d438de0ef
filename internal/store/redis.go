package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/yourname/geoplus/internal/config"
	"github.com/yourname/geoplus/internal/geo"
)

// Redis implements GeoIndex on a Redis connection.
type Redis struct {
	Client *redis.Client
}

// Connect opens a Redis client and verifies the connection.
func Connect(cfg config.RedisConfig) (*Redis, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return &Redis{Client: client}, nil
}

// Close releases the connection.
func (r *Redis) Close() error {
	return r.Client.Close()
}

// MemberUpsert writes positions via GEOADD.
func (r *Redis) MemberUpsert(ctx context.Context, index string, members ...Member) (int64, error) {
	locs := make([]*redis.GeoLocation, len(members))
	for i, m := range members {
		locs[i] = &redis.GeoLocation{
			Name:      m.Name,
			Longitude: m.Point.Lon,
			Latitude:  m.Point.Lat,
		}
	}
	added, err := r.Client.GeoAdd(ctx, index, locs...).Result()
	if err != nil {
		return 0, fmt.Errorf("geoadd %s: %w", index, err)
	}
	return added, nil
}

// MemberRemove deletes members from the index's underlying sorted set.
func (r *Redis) MemberRemove(ctx context.Context, index string, names ...string) (int64, error) {
	args := make([]interface{}, len(names))
	for i, n := range names {
		args[i] = n
	}
	removed, err := r.Client.ZRem(ctx, index, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("zrem %s: %w", index, err)
	}
	return removed, nil
}

// MemberPosition reads positions via GEOPOS, nil per absent member.
func (r *Redis) MemberPosition(ctx context.Context, index string, names ...string) ([]*geo.Point, error) {
	positions, err := r.Client.GeoPos(ctx, index, names...).Result()
	if err != nil {
		return nil, fmt.Errorf("geopos %s: %w", index, err)
	}
	out := make([]*geo.Point, len(positions))
	for i, pos := range positions {
		if pos == nil {
			continue
		}
		out[i] = &geo.Point{Lon: pos.Longitude, Lat: pos.Latitude}
	}
	return out, nil
}

// RadiusQuery runs GEORADIUS with the requested reply columns.
func (r *Redis) RadiusQuery(ctx context.Context, index string, center geo.Point, radiusM float64, withCoord, withDist, withHash bool) ([]RadiusRow, error) {
	locs, err := r.Client.GeoRadius(ctx, index, center.Lon, center.Lat, &redis.GeoRadiusQuery{
		Radius:      radiusM,
		Unit:        "m",
		WithCoord:   withCoord,
		WithDist:    withDist,
		WithGeoHash: withHash,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("georadius %s: %w", index, err)
	}

	rows := make([]RadiusRow, len(locs))
	for i, loc := range locs {
		row := RadiusRow{Name: loc.Name}
		if withCoord {
			row.Coord = &geo.Point{Lon: loc.Longitude, Lat: loc.Latitude}
		}
		if withDist {
			d := loc.Dist
			row.Dist = &d
		}
		if withHash {
			h := loc.GeoHash
			row.Hash = &h
		}
		rows[i] = row
	}
	return rows, nil
}

// PairDistance reads GEODIST in meters, ok=false when either member is
// absent.
func (r *Redis) PairDistance(ctx context.Context, index, memberA, memberB string) (float64, bool, error) {
	d, err := r.Client.GeoDist(ctx, index, memberA, memberB, "m").Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("geodist %s: %w", index, err)
	}
	return d, true, nil
}

// ScoredUpsert sets a score via ZADD.
func (r *Redis) ScoredUpsert(ctx context.Context, key, member string, score float64) error {
	if err := r.Client.ZAdd(ctx, key, redis.Z{Score: score, Member: member}).Err(); err != nil {
		return fmt.Errorf("zadd %s: %w", key, err)
	}
	return nil
}

// ScoredRemove deletes members via ZREM.
func (r *Redis) ScoredRemove(ctx context.Context, key string, members ...string) (int64, error) {
	args := make([]interface{}, len(members))
	for i, m := range members {
		args[i] = m
	}
	removed, err := r.Client.ZRem(ctx, key, args...).Result()
	if err != nil {
		return 0, fmt.Errorf("zrem %s: %w", key, err)
	}
	return removed, nil
}

// ScoredGet reads a score via ZSCORE, ok=false when absent.
func (r *Redis) ScoredGet(ctx context.Context, key, member string) (float64, bool, error) {
	score, err := r.Client.ZScore(ctx, key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("zscore %s: %w", key, err)
	}
	return score, true, nil
}

// FieldSet writes a hash field via HSET, reporting whether it was new.
func (r *Redis) FieldSet(ctx context.Context, key, field string, value []byte) (bool, error) {
	added, err := r.Client.HSet(ctx, key, field, value).Result()
	if err != nil {
		return false, fmt.Errorf("hset %s: %w", key, err)
	}
	return added == 1, nil
}

// FieldGet reads a hash field via HGET, nil when absent.
func (r *Redis) FieldGet(ctx context.Context, key, field string) ([]byte, error) {
	val, err := r.Client.HGet(ctx, key, field).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("hget %s: %w", key, err)
	}
	return []byte(val), nil
}

// FieldMultiGet reads hash fields via HMGET, nil per absent field.
func (r *Redis) FieldMultiGet(ctx context.Context, key string, fields ...string) ([][]byte, error) {
	vals, err := r.Client.HMGet(ctx, key, fields...).Result()
	if err != nil {
		return nil, fmt.Errorf("hmget %s: %w", key, err)
	}
	out := make([][]byte, len(vals))
	for i, v := range vals {
		if s, ok := v.(string); ok {
			out[i] = []byte(s)
		}
	}
	return out, nil
}

// Notify publishes via PUBLISH, fire and forget.
func (r *Redis) Notify(ctx context.Context, channel, payload string) error {
	if err := r.Client.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("publish %s: %w", channel, err)
	}
	return nil
}

// CheckKind verifies the key's TYPE before any read or write touches it.
func (r *Redis) CheckKind(ctx context.Context, key, kind string) error {
	actual, err := r.Client.Type(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("type %s: %w", key, err)
	}
	if actual != KindNone && actual != kind {
		return fmt.Errorf("%w: %s is %s, want %s", ErrWrongKind, key, actual, kind)
	}
	return nil
}
