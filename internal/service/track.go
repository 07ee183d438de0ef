package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/store"
)

// TrackService upserts member locations and tells anyone listening. One
// notification per member goes out on that member's own channel; upsert
// first, publish after, errors surfaced unmodified (no rollback of the
// upsert when a publish fails).
type TrackService struct {
	store         store.GeoIndex
	channelPrefix string
}

// NewTrackService creates the location tracker. channelPrefix is prepended
// to the member name to form the publish channel.
func NewTrackService(s store.GeoIndex, channelPrefix string) *TrackService {
	return &TrackService{store: s, channelPrefix: channelPrefix}
}

// Upsert writes the positions and publishes "<lon>:<lat>" per member.
// Returns the number of members new to the index.
func (s *TrackService) Upsert(ctx context.Context, index string, members []store.Member) (int64, error) {
	if len(members) == 0 {
		return 0, fmt.Errorf("no members given")
	}
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return 0, err
	}

	added, err := s.store.MemberUpsert(ctx, index, members...)
	if err != nil {
		return 0, err
	}

	for _, m := range members {
		if err := s.store.Notify(ctx, s.channelPrefix+m.Name, trackPayload(m.Point)); err != nil {
			return 0, err
		}
	}
	return added, nil
}

func trackPayload(p geo.Point) string {
	return strconv.FormatFloat(p.Lon, 'f', -1, 64) + ":" +
		strconv.FormatFloat(p.Lat, 'f', -1, 64)
}
