// Package store binds the external geospatial key-value store. Services
// depend on the GeoIndex interface; the Redis client lives behind it.
package store

import (
	"context"
	"errors"

	"github.com/yourname/geoplus/internal/geo"
)

// ErrWrongKind reports a storage key holding a different structural kind
// than the operation expects.
var ErrWrongKind = errors.New("key holds the wrong kind of value")

// Member is a named 2D position for upserts.
type Member struct {
	Name  string
	Point geo.Point
}

// RadiusRow is one row of a radius query reply. Coord, Dist and Hash are
// populated only when the corresponding reply columns were requested.
type RadiusRow struct {
	Name  string
	Coord *geo.Point
	Dist  *float64
	Hash  *int64
}

// Kind names for CheckKind.
const (
	KindZSet = "zset"
	KindHash = "hash"
	KindNone = "none"
)

// GeoIndex is the full consumed surface of the external store: the geo
// index itself, the scored side store, the field/value geometry store,
// fire-and-forget publish and the key kind check.
//
// Implementations return store errors unmodified; callers classify them.
type GeoIndex interface {
	// MemberUpsert writes positions and reports how many members were new.
	MemberUpsert(ctx context.Context, index string, members ...Member) (int64, error)
	// MemberRemove deletes members and reports how many existed.
	MemberRemove(ctx context.Context, index string, names ...string) (int64, error)
	// MemberPosition returns one position per requested member, nil for
	// absent members, in request order.
	MemberPosition(ctx context.Context, index string, names ...string) ([]*geo.Point, error)
	// RadiusQuery returns members within radiusM meters of center, in the
	// store's reply order.
	RadiusQuery(ctx context.Context, index string, center geo.Point, radiusM float64, withCoord, withDist, withHash bool) ([]RadiusRow, error)
	// PairDistance returns the stored distance in meters between two
	// members, or ok=false when either is absent.
	PairDistance(ctx context.Context, index, memberA, memberB string) (float64, bool, error)

	// ScoredUpsert sets member's score in a plain scored set.
	ScoredUpsert(ctx context.Context, key, member string, score float64) error
	// ScoredRemove deletes members from a scored set, reporting how many
	// existed.
	ScoredRemove(ctx context.Context, key string, members ...string) (int64, error)
	// ScoredGet returns member's score, ok=false when absent.
	ScoredGet(ctx context.Context, key, member string) (float64, bool, error)

	// FieldSet writes one field of a hash store, reporting whether the
	// field was new.
	FieldSet(ctx context.Context, key, field string, value []byte) (bool, error)
	// FieldGet reads one field, nil when absent.
	FieldGet(ctx context.Context, key, field string) ([]byte, error)
	// FieldMultiGet reads several fields, nil per absent field, in request
	// order.
	FieldMultiGet(ctx context.Context, key string, fields ...string) ([][]byte, error)

	// Notify publishes a payload on a channel, fire and forget.
	Notify(ctx context.Context, channel, payload string) error

	// CheckKind verifies that key is absent or holds the given kind,
	// returning ErrWrongKind otherwise.
	CheckKind(ctx context.Context, key, kind string) error
}
