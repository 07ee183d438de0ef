package service

import (
	"context"
	"fmt"

	"github.com/yourname/geoplus/internal/geo"
	"github.com/yourname/geoplus/internal/model"
	"github.com/yourname/geoplus/internal/store"
)

// GeometryService stores polygon geometries as encoded blobs in a field
// store and filters geo-index members through them.
type GeometryService struct {
	store store.GeoIndex
}

// NewGeometryService creates the geometry service.
func NewGeometryService(s store.GeoIndex) *GeometryService {
	return &GeometryService{store: s}
}

// Upsert validates and stores a polygon ring under id. Returns 1 when the
// id was new, 0 when it overwrote an existing geometry.
func (s *GeometryService) Upsert(ctx context.Context, geomKey, kind, id string, coords []float64) (int, error) {
	if kind != model.KindPolygon.String() {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedGeometry, kind)
	}
	if err := s.store.CheckKind(ctx, geomKey, store.KindHash); err != nil {
		return 0, err
	}

	polygon, err := model.NewPolygon(coords)
	if err != nil {
		return 0, err
	}

	added, err := s.store.FieldSet(ctx, geomKey, id, model.EncodeGeometry(polygon))
	if err != nil {
		return 0, err
	}
	if added {
		return 1, nil
	}
	return 0, nil
}

// GetFlags selects which derived metrics Get includes.
type GetFlags struct {
	WithPerimeter bool
	WithBox       bool
	WithCircle    bool
}

// GeometryView is one Get result. Nil entries in the returned slice mean
// the id is absent.
type GeometryView struct {
	ID        string                `json:"id"`
	Type      string                `json:"type"`
	Ring      []float64             `json:"ring"`
	Perimeter *float64              `json:"perimeter,omitempty"`
	Box       *model.BoundingBox    `json:"box,omitempty"`
	Circle    *model.BoundingCircle `json:"circle,omitempty"`
}

// Get loads geometries by id, attaching the metrics the flags request.
func (s *GeometryService) Get(ctx context.Context, geomKey string, ids []string, flags GetFlags) ([]*GeometryView, error) {
	if err := s.store.CheckKind(ctx, geomKey, store.KindHash); err != nil {
		return nil, err
	}

	payloads, err := s.store.FieldMultiGet(ctx, geomKey, ids...)
	if err != nil {
		return nil, err
	}

	views := make([]*GeometryView, len(ids))
	for i, payload := range payloads {
		if payload == nil {
			continue
		}
		rec, err := model.DecodeGeometry(payload)
		if err != nil {
			return nil, fmt.Errorf("geometry %q: %w", ids[i], err)
		}
		if rec.Polygon == nil {
			return nil, fmt.Errorf("%w: geometry %q is %s", ErrUnsupportedGeometry, ids[i], rec.Kind)
		}

		view := &GeometryView{
			ID:   ids[i],
			Type: rec.Polygon.TypeName(),
			Ring: rec.Polygon.RingCoords(),
		}
		if flags.WithPerimeter {
			p := rec.Polygon.Perimeter()
			view.Perimeter = &p
		}
		if flags.WithBox {
			b := rec.Polygon.BoundingBox()
			view.Box = &b
		}
		if flags.WithCircle {
			c := rec.Polygon.BoundingCircle()
			view.Circle = &c
		}
		views[i] = view
	}
	return views, nil
}

// FilterOptions control the shape of a Filter result.
type FilterOptions struct {
	// WithCoordinates includes each survivor's position in the result.
	WithCoordinates bool
	// StoreTarget, when set, re-adds survivors to that index and the
	// result is the written count instead of the member list.
	StoreTarget string
}

// FilterMatch is one member that passed the containment test.
type FilterMatch struct {
	Member string     `json:"member"`
	Coord  *geo.Point `json:"coord,omitempty"`
}

// FilterResult is either the surviving member list or, with a store
// target, the count written.
type FilterResult struct {
	Matches []FilterMatch `json:"matches,omitempty"`
	Stored  int64         `json:"stored,omitempty"`
}

// Filter finds the indexed members inside the stored polygon. Candidates
// come from one radius query centered on the bounding-box midpoint using
// the box radius (over-inclusive by construction); the ray cast then
// refines them, preserving the store's reply order.
func (s *GeometryService) Filter(ctx context.Context, geomKey, index, id string, opts FilterOptions) (*FilterResult, error) {
	if err := s.store.CheckKind(ctx, geomKey, store.KindHash); err != nil {
		return nil, err
	}
	if err := s.store.CheckKind(ctx, index, store.KindZSet); err != nil {
		return nil, err
	}

	payload, err := s.store.FieldGet(ctx, geomKey, id)
	if err != nil {
		return nil, err
	}
	if payload == nil {
		return nil, fmt.Errorf("%w: %q", ErrGeometryNotFound, id)
	}
	rec, err := model.DecodeGeometry(payload)
	if err != nil {
		return nil, fmt.Errorf("geometry %q: %w", id, err)
	}
	if rec.Polygon == nil {
		return nil, fmt.Errorf("%w: geometry %q is %s", ErrUnsupportedGeometry, id, rec.Kind)
	}
	polygon := rec.Polygon

	box := polygon.BoundingBox()
	rows, err := s.store.RadiusQuery(ctx, index, box.Center(), box.RadiusM, true, false, false)
	if err != nil {
		return nil, err
	}

	var matches []FilterMatch
	for _, row := range rows {
		if row.Coord == nil {
			return nil, fmt.Errorf("%w: radius reply for %q", ErrMissingCoordinates, row.Name)
		}
		if !polygon.Contains(row.Coord.Lon, row.Coord.Lat) {
			continue
		}
		match := FilterMatch{Member: row.Name}
		if opts.WithCoordinates || opts.StoreTarget != "" {
			match.Coord = row.Coord
		}
		matches = append(matches, match)
	}

	if opts.StoreTarget != "" {
		if err := s.store.CheckKind(ctx, opts.StoreTarget, store.KindZSet); err != nil {
			return nil, err
		}
		members := make([]store.Member, len(matches))
		for i, m := range matches {
			members[i] = store.Member{Name: m.Member, Point: *m.Coord}
		}
		if len(members) > 0 {
			if _, err := s.store.MemberUpsert(ctx, opts.StoreTarget, members...); err != nil {
				return nil, err
			}
		}
		return &FilterResult{Stored: int64(len(members))}, nil
	}

	if !opts.WithCoordinates {
		for i := range matches {
			matches[i].Coord = nil
		}
	}
	return &FilterResult{Matches: matches}, nil
}
