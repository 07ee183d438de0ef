package service

import (
	"context"
	"fmt"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/store"
)

// XYZService stores three-axis positions: lon/lat in the geo index, the
// altitude in a parallel scored set keyed off the same index name. The two
// writes are not atomic. Step order is fixed: index before altitude on
// write, altitude before index on remove, so a crash between steps never
// leaves an index entry pointing at a deleted altitude mid-removal.
// Partial failures surface the store error unmodified.
type XYZService struct {
	store store.GeoIndex
}

// NewXYZService creates the three-axis service.
func NewXYZService(s store.GeoIndex) *XYZService {
	return &XYZService{store: s}
}

// altKey names the altitude side store for an index.
func altKey(index string) string {
	return index + ":alt"
}

// XYZMember is a named three-axis position.
type XYZMember struct {
	Name     string  `json:"name"`
	Lon      float64 `json:"lon"`
	Lat      float64 `json:"lat"`
	Altitude float64 `json:"alt"`
}

// XYZPosition is one Position result; nil entries mean the member is
// absent from the index. Altitude is nil when the side store has no score
// for the member.
type XYZPosition struct {
	Name     string   `json:"name"`
	Lon      float64  `json:"lon"`
	Lat      float64  `json:"lat"`
	Altitude *float64 `json:"alt,omitempty"`
}

// Upsert writes members into the geo index, then the altitude store.
// Returns the number of members new to the index.
func (s *XYZService) Upsert(ctx context.Context, index string, members []XYZMember) (int64, error) {
	if len(members) == 0 {
		return 0, fmt.Errorf("no members given")
	}
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return 0, err
	}
	if err := s.store.CheckKind(ctx, altKey(index), store.KindZSet); err != nil {
		return 0, err
	}

	points := make([]store.Member, len(members))
	for i, m := range members {
		points[i] = store.Member{Name: m.Name, Point: geo.Point{Lon: m.Lon, Lat: m.Lat}}
	}
	added, err := s.store.MemberUpsert(ctx, index, points...)
	if err != nil {
		return 0, err
	}

	for _, m := range members {
		if err := s.store.ScoredUpsert(ctx, altKey(index), m.Name, m.Altitude); err != nil {
			return 0, err
		}
	}
	return added, nil
}

// Remove deletes members from the altitude store, then the geo index.
// Returns the number removed from the index.
func (s *XYZService) Remove(ctx context.Context, index string, members []string) (int64, error) {
	if len(members) == 0 {
		return 0, fmt.Errorf("no members given")
	}
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return 0, err
	}

	if _, err := s.store.ScoredRemove(ctx, altKey(index), members...); err != nil {
		return 0, err
	}
	return s.store.MemberRemove(ctx, index, members...)
}

// Position reads lon/lat/altitude per member, in request order.
func (s *XYZService) Position(ctx context.Context, index string, members []string) ([]*XYZPosition, error) {
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return nil, err
	}

	positions, err := s.store.MemberPosition(ctx, index, members...)
	if err != nil {
		return nil, err
	}

	out := make([]*XYZPosition, len(members))
	for i, pos := range positions {
		if pos == nil {
			continue
		}
		entry := &XYZPosition{Name: members[i], Lon: pos.Lon, Lat: pos.Lat}
		score, ok, err := s.store.ScoredGet(ctx, altKey(index), members[i])
		if err != nil {
			return nil, err
		}
		if ok {
			entry.Altitude = &score
		}
		out[i] = entry
	}
	return out, nil
}
