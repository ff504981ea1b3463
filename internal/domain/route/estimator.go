package route

import "math"

// EarthRadiusMeters is the mean Earth radius used by the haversine formula.
const EarthRadiusMeters = 6371000.0

// CalculateDistance returns the great-circle distance between a and b in meters.
func CalculateDistance(a, b GeoPoint) float64 {
	lat1 := degreesToRadians(a.Lat)
	lat2 := degreesToRadians(b.Lat)
	dLat := degreesToRadians(b.Lat - a.Lat)
	dLng := degreesToRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c
}

// EstimateTime returns the travel time in whole seconds for distanceMeters at
// the average speed of mode. It ignores traffic and road network shape.
func EstimateTime(distanceMeters float64, mode TravelMode) float64 {
	if distanceMeters <= 0 {
		return 0
	}
	return math.Round(distanceMeters / mode.Speed())
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
