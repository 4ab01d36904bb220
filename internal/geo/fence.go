// Package geo holds the default geofence predicate used by the arrival flow.
package geo

import (
	"math"

	"github.com/kirinyoku/park-go/internal/domain"
)

const earthRadiusMeters = 6371000.0

// Fence answers whether a point lies inside a geometry.
type Fence interface {
	Contains(g domain.Geometry, p domain.Point) bool
}

type defaultFence struct{}

// Default handles polygon rings and circles.
var Default Fence = defaultFence{}

func (defaultFence) Contains(g domain.Geometry, p domain.Point) bool {
	return Contains(g, p)
}

func Contains(g domain.Geometry, p domain.Point) bool {
	if g.IsCircle() {
		return Distance(*g.Center, p) <= g.RadiusMeters
	}
	return inRing(g.Ring, p)
}

// inRing is an even-odd ray cast. Points on an edge may land either way.
func inRing(ring []domain.Point, p domain.Point) bool {
	if len(ring) < 3 {
		return false
	}
	in := false
	j := len(ring) - 1
	for i := range ring {
		a, b := ring[i], ring[j]
		if (a.Lat > p.Lat) != (b.Lat > p.Lat) {
			x := (b.Lng-a.Lng)*(p.Lat-a.Lat)/(b.Lat-a.Lat) + a.Lng
			if p.Lng < x {
				in = !in
			}
		}
		j = i
	}
	return in
}

// Distance is the haversine distance in meters.
func Distance(a, b domain.Point) float64 {
	lat1 := a.Lat * math.Pi / 180
	lat2 := b.Lat * math.Pi / 180
	dLat := lat2 - lat1
	dLng := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	return 2 * earthRadiusMeters * math.Asin(math.Min(1, math.Sqrt(h)))
}

// SquareStrips splits the square of half-size half (degrees) around center
// into n vertical strips of equal width, west to east.
func SquareStrips(center domain.Point, half float64, n int) (domain.Geometry, []domain.Geometry) {
	west, east := center.Lng-half, center.Lng+half
	south, north := center.Lat-half, center.Lat+half

	boundary := domain.Geometry{Ring: []domain.Point{
		{Lat: south, Lng: west},
		{Lat: south, Lng: east},
		{Lat: north, Lng: east},
		{Lat: north, Lng: west},
	}}

	if n <= 0 {
		return boundary, nil
	}

	step := (east - west) / float64(n)
	strips := make([]domain.Geometry, 0, n)
	for i := 0; i < n; i++ {
		l := west + float64(i)*step
		r := l + step
		strips = append(strips, domain.Geometry{Ring: []domain.Point{
			{Lat: south, Lng: l},
			{Lat: south, Lng: r},
			{Lat: north, Lng: r},
			{Lat: north, Lng: l},
		}})
	}
	return boundary, strips
}
