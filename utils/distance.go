package utils

import (
	"fmt"
	"math"
)

// EarthRadiusKM is the mean Earth radius used by HaversineKM.
const EarthRadiusKM = 6371.0

const (
	// MetersPerKilometer converts kilometres to metres
	MetersPerKilometer = 1000.0
	atStopMeters       = 50.0
)

// HaversineKM returns the great-circle distance in kilometres between two
// coordinates given in decimal degrees. NaN input yields NaN.
func HaversineKM(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180
	la1 := lat1 * math.Pi / 180
	la2 := lat2 * math.Pi / 180
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(la1)*math.Cos(la2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// Rounding can push a just outside [0, 1] near antipodal points.
	a = math.Min(math.Max(a, 0), 1)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKM * c
}

// RoundKM rounds a distance to two decimal places.
func RoundKM(km float64) float64 {
	return math.Round(km*100) / 100
}

// FormatKM renders a distance with exactly two decimals, e.g. "12.30".
func FormatKM(km float64) string {
	return fmt.Sprintf("%.2f", km)
}

// PresentableDistance formats a remaining distance for display
func PresentableDistance(km float64) string {
	if math.IsNaN(km) || km < 0 {
		return ""
	}
	m := km * MetersPerKilometer
	if m < atStopMeters {
		return "at stop"
	}
	if km < 1 {
		return fmt.Sprintf("%d m", int(math.Round(m)))
	}
	return FormatKM(km) + " km"
}
