package geo

// 52-bit interleaved geohash, same layout the geo index uses as sorted-set
// scores. Even bits encode longitude, odd bits latitude.

const geohashBits = 26

// Latitude is clamped to the web-mercator range, matching the index.
const (
	geohashLonMin = -180.0
	geohashLonMax = 180.0
	geohashLatMin = -85.05112878
	geohashLatMax = 85.05112878
)

const geohashBase32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// EncodeGeohash interleaves lon and lat into a 52-bit integer hash.
func EncodeGeohash(lon, lat float64) uint64 {
	lonMin, lonMax := geohashLonMin, geohashLonMax
	latMin, latMax := geohashLatMin, geohashLatMax

	var hash uint64
	for i := 0; i < 2*geohashBits; i++ {
		if i%2 == 0 {
			mid := (lonMin + lonMax) / 2
			if lon < mid {
				hash <<= 1
				lonMax = mid
			} else {
				hash = hash<<1 | 1
				lonMin = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat < mid {
				hash <<= 1
				latMax = mid
			} else {
				hash = hash<<1 | 1
				latMin = mid
			}
		}
	}
	return hash
}

// DecodeGeohash reverses EncodeGeohash, returning the midpoint of the cell
// the hash denotes. Lossy: the result is an approximation of the encoded
// coordinates.
func DecodeGeohash(hash uint64) (lon, lat float64) {
	lonMin, lonMax := geohashLonMin, geohashLonMax
	latMin, latMax := geohashLatMin, geohashLatMax

	for i := 2*geohashBits - 1; i >= 0; i-- {
		bit := (hash >> i) & 1
		if (2*geohashBits-1-i)%2 == 0 {
			mid := (lonMin + lonMax) / 2
			if bit == 0 {
				lonMax = mid
			} else {
				lonMin = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if bit == 0 {
				latMax = mid
			} else {
				latMin = mid
			}
		}
	}
	return (lonMin + lonMax) / 2, (latMin + latMax) / 2
}

// GeohashString returns the conventional 11-character base32 text form for
// a coordinate pair.
func GeohashString(lon, lat float64) string {
	lonMin, lonMax := geohashLonMin, geohashLonMax
	latMin, latMax := -90.0, 90.0

	buf := make([]byte, 0, 11)
	var bit, ch int
	even := true
	for len(buf) < 11 {
		if even {
			mid := (lonMin + lonMax) / 2
			if lon >= mid {
				ch |= 1 << (4 - bit)
				lonMin = mid
			} else {
				lonMax = mid
			}
		} else {
			mid := (latMin + latMax) / 2
			if lat >= mid {
				ch |= 1 << (4 - bit)
				latMin = mid
			} else {
				latMax = mid
			}
		}
		even = !even
		if bit < 4 {
			bit++
		} else {
			buf = append(buf, geohashBase32[ch])
			bit, ch = 0, 0
		}
	}
	return string(buf)
}
