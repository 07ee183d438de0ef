package store

import (
	"context"
	"fmt"

	"github.com/yourname/geoplus/internal/geo"
)

// Memory is an in-process GeoIndex used by tests and local development.
// Radius replies come back in insertion order, which keeps tests
// deterministic.
type Memory struct {
	geoSets  map[string]*memberSet
	zsets    map[string]map[string]float64
	hashes   map[string]map[string][]byte
	Messages []Notification
}

// Notification records one Notify call.
type Notification struct {
	Channel string
	Payload string
}

type memberSet struct {
	order  []string
	points map[string]geo.Point
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		geoSets: map[string]*memberSet{},
		zsets:   map[string]map[string]float64{},
		hashes:  map[string]map[string][]byte{},
	}
}

func (m *Memory) geoSet(index string) *memberSet {
	s, ok := m.geoSets[index]
	if !ok {
		s = &memberSet{points: map[string]geo.Point{}}
		m.geoSets[index] = s
	}
	return s
}

// MemberUpsert implements GeoIndex.
func (m *Memory) MemberUpsert(_ context.Context, index string, members ...Member) (int64, error) {
	s := m.geoSet(index)
	var added int64
	for _, mem := range members {
		if _, ok := s.points[mem.Name]; !ok {
			s.order = append(s.order, mem.Name)
			added++
		}
		s.points[mem.Name] = mem.Point
	}
	return added, nil
}

// MemberRemove implements GeoIndex.
func (m *Memory) MemberRemove(_ context.Context, index string, names ...string) (int64, error) {
	s, ok := m.geoSets[index]
	if !ok {
		return 0, nil
	}
	var removed int64
	for _, n := range names {
		if _, ok := s.points[n]; !ok {
			continue
		}
		delete(s.points, n)
		removed++
		for i, o := range s.order {
			if o == n {
				s.order = append(s.order[:i], s.order[i+1:]...)
				break
			}
		}
	}
	return removed, nil
}

// MemberPosition implements GeoIndex.
func (m *Memory) MemberPosition(_ context.Context, index string, names ...string) ([]*geo.Point, error) {
	out := make([]*geo.Point, len(names))
	s, ok := m.geoSets[index]
	if !ok {
		return out, nil
	}
	for i, n := range names {
		if p, ok := s.points[n]; ok {
			cp := p
			out[i] = &cp
		}
	}
	return out, nil
}

// RadiusQuery implements GeoIndex.
func (m *Memory) RadiusQuery(_ context.Context, index string, center geo.Point, radiusM float64, withCoord, withDist, withHash bool) ([]RadiusRow, error) {
	var rows []RadiusRow
	s, ok := m.geoSets[index]
	if !ok {
		return rows, nil
	}
	for _, name := range s.order {
		p := s.points[name]
		d := geo.Distance(center, p)
		if d > radiusM {
			continue
		}
		row := RadiusRow{Name: name}
		if withCoord {
			cp := p
			row.Coord = &cp
		}
		if withDist {
			dd := d
			row.Dist = &dd
		}
		if withHash {
			h := int64(geo.EncodeGeohash(p.Lon, p.Lat))
			row.Hash = &h
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// PairDistance implements GeoIndex.
func (m *Memory) PairDistance(_ context.Context, index, memberA, memberB string) (float64, bool, error) {
	s, ok := m.geoSets[index]
	if !ok {
		return 0, false, nil
	}
	a, okA := s.points[memberA]
	b, okB := s.points[memberB]
	if !okA || !okB {
		return 0, false, nil
	}
	return geo.Distance(a, b), true, nil
}

// ScoredUpsert implements GeoIndex.
func (m *Memory) ScoredUpsert(_ context.Context, key, member string, score float64) error {
	z, ok := m.zsets[key]
	if !ok {
		z = map[string]float64{}
		m.zsets[key] = z
	}
	z[member] = score
	return nil
}

// ScoredRemove implements GeoIndex.
func (m *Memory) ScoredRemove(_ context.Context, key string, members ...string) (int64, error) {
	z, ok := m.zsets[key]
	if !ok {
		return 0, nil
	}
	var removed int64
	for _, mem := range members {
		if _, ok := z[mem]; ok {
			delete(z, mem)
			removed++
		}
	}
	return removed, nil
}

// ScoredGet implements GeoIndex.
func (m *Memory) ScoredGet(_ context.Context, key, member string) (float64, bool, error) {
	z, ok := m.zsets[key]
	if !ok {
		return 0, false, nil
	}
	score, ok := z[member]
	return score, ok, nil
}

// FieldSet implements GeoIndex.
func (m *Memory) FieldSet(_ context.Context, key, field string, value []byte) (bool, error) {
	h, ok := m.hashes[key]
	if !ok {
		h = map[string][]byte{}
		m.hashes[key] = h
	}
	_, existed := h[field]
	h[field] = append([]byte(nil), value...)
	return !existed, nil
}

// FieldGet implements GeoIndex.
func (m *Memory) FieldGet(_ context.Context, key, field string) ([]byte, error) {
	h, ok := m.hashes[key]
	if !ok {
		return nil, nil
	}
	return h[field], nil
}

// FieldMultiGet implements GeoIndex.
func (m *Memory) FieldMultiGet(_ context.Context, key string, fields ...string) ([][]byte, error) {
	out := make([][]byte, len(fields))
	h, ok := m.hashes[key]
	if !ok {
		return out, nil
	}
	for i, f := range fields {
		out[i] = h[f]
	}
	return out, nil
}

// Notify implements GeoIndex, recording the message.
func (m *Memory) Notify(_ context.Context, channel, payload string) error {
	m.Messages = append(m.Messages, Notification{Channel: channel, Payload: payload})
	return nil
}

// CheckKind implements GeoIndex.
func (m *Memory) CheckKind(_ context.Context, key, kind string) error {
	actual := KindNone
	if _, ok := m.geoSets[key]; ok {
		actual = KindZSet
	} else if _, ok := m.zsets[key]; ok {
		actual = KindZSet
	} else if _, ok := m.hashes[key]; ok {
		actual = KindHash
	}
	if actual != KindNone && actual != kind {
		return fmt.Errorf("%w: %s is %s, want %s", ErrWrongKind, key, actual, kind)
	}
	return nil
}
