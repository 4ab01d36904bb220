package geo

import (
	"math"
	"testing"

	"github.com/kirinyoku/park-go/internal/domain"
)

func TestContainsPolygon(t *testing.T) {
	center := domain.Point{Lat: 41.0082, Lng: 28.9784}
	boundary, strips := SquareStrips(center, 0.001, 4)

	tests := []struct {
		name string
		p    domain.Point
		want bool
	}{
		{"center", center, true},
		{"north outside", domain.Point{Lat: center.Lat + 0.002, Lng: center.Lng}, false},
		{"west inside", domain.Point{Lat: center.Lat, Lng: center.Lng - 0.0009}, true},
		{"east outside", domain.Point{Lat: center.Lat, Lng: center.Lng + 0.0011}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Default.Contains(boundary, tt.p); got != tt.want {
				t.Fatalf("Contains = %v, want %v", got, tt.want)
			}
		})
	}

	// The westmost point belongs to the first strip only.
	p := domain.Point{Lat: center.Lat, Lng: center.Lng - 0.0009}
	hits := 0
	for i, s := range strips {
		if Contains(s, p) {
			hits++
			if i != 0 {
				t.Fatalf("point landed in strip %d", i)
			}
		}
	}
	if hits != 1 {
		t.Fatalf("point landed in %d strips", hits)
	}
}

func TestContainsCircle(t *testing.T) {
	c := domain.Point{Lat: 52.52, Lng: 13.405}
	g := domain.Geometry{Center: &c, RadiusMeters: 50}

	if !Contains(g, c) {
		t.Fatalf("center must be inside")
	}
	// ~111m north
	if Contains(g, domain.Point{Lat: c.Lat + 0.001, Lng: c.Lng}) {
		t.Fatalf("point 111m away must be outside a 50m circle")
	}
}

func TestDistance(t *testing.T) {
	a := domain.Point{Lat: 0, Lng: 0}
	b := domain.Point{Lat: 1, Lng: 0}
	d := Distance(a, b)
	if math.Abs(d-111195) > 50 {
		t.Fatalf("one degree of latitude = %.0fm", d)
	}
}

func TestDegenerateRing(t *testing.T) {
	g := domain.Geometry{Ring: []domain.Point{{Lat: 0, Lng: 0}, {Lat: 1, Lng: 1}}}
	if Contains(g, domain.Point{Lat: 0.5, Lng: 0.5}) {
		t.Fatalf("two-point ring has no interior")
	}
}
