package model

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"

	"github.com/yourname/geoplus/internal/geo"
)

// ErrCorruptGeometry reports a payload the codec cannot decode.
var ErrCorruptGeometry = errors.New("corrupt geometry payload")

// Binary layout, little-endian, in fixed order:
//
//	magic   [4]byte "GM01"
//	kind    uint8
//	rings   uint16                 number of rings (1 today)
//	counts  rings × uint32         vertices per ring
//	lons    Σcounts × float64
//	lats    Σcounts × float64
//	metrics uint16 + n × float64   perimeter, centroid lon, centroid lat,
//	                               circle radius, min lon, min lat,
//	                               max lon, max lat, box radius
//
// Floats pass through as raw bits, so decode(encode(p)) is exact. Metrics
// are trusted as stored and never rederived on decode.

var codecMagic = [4]byte{'G', 'M', '0', '1'}

const codecMetricCount = 9

// GeometryRecord is the decoded form of a stored geometry. Polygon is
// populated only for KindPolygon; the reserved kinds decode structurally but
// carry no behavior.
type GeometryRecord struct {
	Kind    GeometryKind
	Polygon *Polygon
}

// EncodeGeometry serializes a polygon to an opaque blob for the geometry
// store.
func EncodeGeometry(p *Polygon) []byte {
	nVerts := len(p.lons)
	size := 4 + 1 + 2 + 4 + 16*nVerts + 2 + 8*codecMetricCount
	buf := make([]byte, 0, size)

	buf = append(buf, codecMagic[:]...)
	buf = append(buf, byte(KindPolygon))
	buf = binary.LittleEndian.AppendUint16(buf, 1)
	buf = binary.LittleEndian.AppendUint32(buf, uint32(nVerts))
	for _, v := range p.lons {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}
	for _, v := range p.lats {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(v))
	}

	buf = binary.LittleEndian.AppendUint16(buf, codecMetricCount)
	for _, m := range [codecMetricCount]float64{
		p.perimeter,
		p.centroid.Lon, p.centroid.Lat,
		p.circle.RadiusM,
		p.box.MinLon, p.box.MinLat, p.box.MaxLon, p.box.MaxLat,
		p.box.RadiusM,
	} {
		buf = binary.LittleEndian.AppendUint64(buf, math.Float64bits(m))
	}
	return buf
}

type codecReader struct {
	buf []byte
	off int
}

func (r *codecReader) bytes(n int) ([]byte, error) {
	if r.off+n > len(r.buf) {
		return nil, fmt.Errorf("%w: truncated at offset %d", ErrCorruptGeometry, r.off)
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *codecReader) u16() (uint16, error) {
	b, err := r.bytes(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *codecReader) u32() (uint32, error) {
	b, err := r.bytes(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *codecReader) f64s(n int) ([]float64, error) {
	b, err := r.bytes(8 * n)
	if err != nil {
		return nil, err
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[8*i:]))
	}
	return out, nil
}

// DecodeGeometry parses a blob produced by EncodeGeometry.
func DecodeGeometry(payload []byte) (*GeometryRecord, error) {
	r := &codecReader{buf: payload}

	magic, err := r.bytes(4)
	if err != nil {
		return nil, err
	}
	if [4]byte(magic) != codecMagic {
		return nil, fmt.Errorf("%w: bad magic", ErrCorruptGeometry)
	}

	kindByte, err := r.bytes(1)
	if err != nil {
		return nil, err
	}
	kind := GeometryKind(kindByte[0])
	if kind < KindPolygon || kind > KindLineString {
		return nil, fmt.Errorf("%w: unrecognized kind tag %d", ErrCorruptGeometry, kindByte[0])
	}

	rings, err := r.u16()
	if err != nil {
		return nil, err
	}
	if rings != 1 {
		return nil, fmt.Errorf("%w: %d rings, want 1", ErrCorruptGeometry, rings)
	}
	count, err := r.u32()
	if err != nil {
		return nil, err
	}
	if count < 4 {
		return nil, fmt.Errorf("%w: ring of %d vertices", ErrCorruptGeometry, count)
	}

	lons, err := r.f64s(int(count))
	if err != nil {
		return nil, err
	}
	lats, err := r.f64s(int(count))
	if err != nil {
		return nil, err
	}

	nMetrics, err := r.u16()
	if err != nil {
		return nil, err
	}
	if nMetrics != codecMetricCount {
		return nil, fmt.Errorf("%w: %d metrics, want %d", ErrCorruptGeometry, nMetrics, codecMetricCount)
	}
	m, err := r.f64s(codecMetricCount)
	if err != nil {
		return nil, err
	}
	if r.off != len(payload) {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrCorruptGeometry, len(payload)-r.off)
	}

	rec := &GeometryRecord{Kind: kind}
	if kind == KindPolygon {
		centroid := geo.Point{Lon: m[1], Lat: m[2]}
		rec.Polygon = NewPolygonFromParts(lons, lats,
			m[0],
			centroid,
			BoundingCircle{Center: centroid, RadiusM: m[3]},
			BoundingBox{MinLon: m[4], MinLat: m[5], MaxLon: m[6], MaxLat: m[7], RadiusM: m[8]},
		)
	}
	return rec, nil
}
