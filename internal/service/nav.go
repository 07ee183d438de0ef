package service

import (
	"context"
	"fmt"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/store"
)

// NavService answers navigational questions about indexed members.
type NavService struct {
	store store.GeoIndex
}

// NewNavService creates the navigation service.
func NewNavService(s store.GeoIndex) *NavService {
	return &NavService{store: s}
}

// BearingResult holds the forward azimuths between two members.
type BearingResult struct {
	Initial float64 `json:"initial"`
	Final   float64 `json:"final"`
}

// Bearing returns the initial and final bearing from one member to another.
// Nil result (no error) when either member is absent from the index.
func (s *NavService) Bearing(ctx context.Context, index, from, to string) (*BearingResult, error) {
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return nil, err
	}

	positions, err := s.store.MemberPosition(ctx, index, from, to)
	if err != nil {
		return nil, err
	}
	if len(positions) != 2 {
		return nil, fmt.Errorf("geo index returned %d positions for 2 members", len(positions))
	}
	if positions[0] == nil || positions[1] == nil {
		return nil, nil
	}

	return &BearingResult{
		Initial: geo.InitialBearing(*positions[0], *positions[1]),
		Final:   geo.FinalBearing(*positions[0], *positions[1]),
	}, nil
}

// PathLength sums the stored pairwise distances along a member chain.
// ok=false (and a zero total) the moment any consecutive pair is
// unmeasurable; the caller gets an empty result, never a partial sum.
func (s *NavService) PathLength(ctx context.Context, index string, members []string) (float64, bool, error) {
	if len(members) < 2 {
		return 0, false, fmt.Errorf("path needs at least 2 members, got %d", len(members))
	}
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return 0, false, err
	}

	var total float64
	for i := 0; i < len(members)-1; i++ {
		d, ok, err := s.store.PairDistance(ctx, index, members[i], members[i+1])
		if err != nil {
			return 0, false, err
		}
		if !ok {
			return 0, false, nil
		}
		total += d
	}
	return total, true, nil
}
