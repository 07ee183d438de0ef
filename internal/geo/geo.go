package geo

import "math"

// EarthRadiusM is the earth radius (meters) used by the backing geo index.
// Keeping the same constant means our distances agree with the ones the
// index reports.
const EarthRadiusM = 6372797.560856

// Point is a lon/lat pair in decimal degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

func degToRad(d float64) float64 {
	return d * math.Pi / 180.0
}

func radToDeg(r float64) float64 {
	return r * 180.0 / math.Pi
}

// Distance returns the great-circle distance between p1 and p2 in meters
// (haversine formula).
func Distance(p1, p2 Point) float64 {
	lat1 := degToRad(p1.Lat)
	lat2 := degToRad(p2.Lat)
	dLat := degToRad(p2.Lat - p1.Lat)
	dLon := degToRad(p2.Lon - p1.Lon)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusM * c
}

// InitialBearing returns the forward azimuth from p1 to p2 in degrees,
// normalized into [0, 360).
func InitialBearing(p1, p2 Point) float64 {
	lat1 := degToRad(p1.Lat)
	lat2 := degToRad(p2.Lat)
	dLon := degToRad(p2.Lon - p1.Lon)

	x := math.Sin(dLon) * math.Cos(lat2)
	y := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)

	return math.Mod(radToDeg(math.Atan2(x, y))+360, 360)
}

// FinalBearing returns the bearing at arrival when travelling from p1 to p2,
// in degrees normalized into [0, 360).
func FinalBearing(p1, p2 Point) float64 {
	return math.Mod(InitialBearing(p2, p1)+180, 360)
}
