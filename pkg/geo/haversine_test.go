package geo

import (
	"math"
	"testing"

	"github.com/paulmach/orb"
)

func TestHaversine(t *testing.T) {
	tests := []struct {
		name             string
		lat1, lon1       float64
		lat2, lon2       float64
		wantMeters       float64
		tolerancePercent float64
	}{
		{
			name: "Hoan Kiem to Noi Bai",
			lat1: 21.0285, lon1: 105.8542,
			lat2: 21.2187, lon2: 105.8042,
			wantMeters:       21_700,
			tolerancePercent: 2,
		},
		{
			name: "Same point",
			lat1: 20.962223, lon1: 105.830595,
			lat2: 20.962223, lon2: 105.830595,
			wantMeters:       0,
			tolerancePercent: 0,
		},
		{
			name: "Short distance (~100m)",
			lat1: 20.9620, lon1: 105.8300,
			lat2: 20.9629, lon2: 105.8300,
			wantMeters:       100,
			tolerancePercent: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Haversine(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if tt.wantMeters == 0 {
				if got != 0 {
					t.Errorf("expected 0, got %f", got)
				}
				return
			}
			diff := math.Abs(got-tt.wantMeters) / tt.wantMeters * 100
			if diff > tt.tolerancePercent {
				t.Errorf("Haversine = %f m, want ~%f m (diff %.1f%%)", got, tt.wantMeters, diff)
			}
		})
	}
}

func TestPointToSegmentDist(t *testing.T) {
	tests := []struct {
		name       string
		pLat, pLon float64
		aLat, aLon float64
		bLat, bLon float64
		wantRatio  float64
		maxDistM   float64
	}{
		{
			name: "Point at start of segment",
			pLat: 20.9600, pLon: 105.8300,
			aLat: 20.9600, aLon: 105.8300,
			bLat: 20.9700, bLon: 105.8300,
			wantRatio: 0.0,
			maxDistM:  1,
		},
		{
			name: "Point at end of segment",
			pLat: 20.9700, pLon: 105.8300,
			aLat: 20.9600, aLon: 105.8300,
			bLat: 20.9700, bLon: 105.8300,
			wantRatio: 1.0,
			maxDistM:  1,
		},
		{
			name: "Point at midpoint perpendicular",
			pLat: 20.9650, pLon: 105.8310,
			aLat: 20.9600, aLon: 105.8300,
			bLat: 20.9700, bLon: 105.8300,
			wantRatio: 0.5,
			maxDistM:  200,
		},
		{
			name: "Degenerate segment (A == B)",
			pLat: 20.9600, pLon: 105.8310,
			aLat: 20.9600, aLon: 105.8300,
			bLat: 20.9600, bLon: 105.8300,
			wantRatio: 0.0,
			maxDistM:  200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dist, ratio := PointToSegmentDist(tt.pLat, tt.pLon, tt.aLat, tt.aLon, tt.bLat, tt.bLon)
			if dist > tt.maxDistM {
				t.Errorf("dist = %f m, want <= %f m", dist, tt.maxDistM)
			}
			if math.Abs(ratio-tt.wantRatio) > 0.05 {
				t.Errorf("ratio = %f, want ~%f", ratio, tt.wantRatio)
			}
		})
	}
}

func TestMetersToDegrees(t *testing.T) {
	lat := 20.962223
	dLat, dLon := MetersToDegrees(lat, 1000)

	north := Haversine(lat, 105.83, lat+dLat, 105.83)
	if math.Abs(north-1000) > 5 {
		t.Errorf("north span = %f m, want ~1000", north)
	}
	east := Haversine(lat, 105.83, lat, 105.83+dLon)
	if math.Abs(east-1000) > 5 {
		t.Errorf("east span = %f m, want ~1000", east)
	}
}

func TestCircleBound(t *testing.T) {
	c := Point(20.962223, 105.830595)
	b := CircleBound(c, 500)
	if !b.Contains(c) {
		t.Fatalf("bound %v does not contain center", b)
	}
	height := Haversine(b.Min.Lat(), c.Lon(), b.Max.Lat(), c.Lon())
	if math.Abs(height-1000) > 5 {
		t.Errorf("height = %f m, want ~1000", height)
	}
}

func TestPadBound(t *testing.T) {
	// A single point gets the minimum pad.
	p := Point(20.96, 105.83)
	b := PadBound(orb.Bound{Min: p, Max: p}, 0.1, 50)
	if b.Max.Lat()-b.Min.Lat() <= 0 || b.Max.Lon()-b.Min.Lon() <= 0 {
		t.Fatalf("padded bound has no area: %v", b)
	}

	// A large bound gets the fractional pad.
	big := orb.Bound{Min: Point(20.0, 105.0), Max: Point(21.0, 106.0)}
	got := PadBound(big, 0.1, 50)
	if math.Abs(got.Min.Lat()-19.9) > 1e-9 || math.Abs(got.Max.Lon()-106.1) > 1e-9 {
		t.Errorf("PadBound = %v, want 10%% pad", got)
	}
}

func TestValidLatLng(t *testing.T) {
	tests := []struct {
		lat, lon float64
		want     bool
	}{
		{20.96, 105.83, true},
		{math.NaN(), 105.83, false},
		{20.96, math.Inf(1), false},
		{91, 0, false},
		{0, -181, false},
	}
	for _, tt := range tests {
		if got := ValidLatLng(tt.lat, tt.lon); got != tt.want {
			t.Errorf("ValidLatLng(%v, %v) = %v, want %v", tt.lat, tt.lon, got, tt.want)
		}
	}
}

func BenchmarkHaversine(b *testing.B) {
	for b.Loop() {
		Haversine(20.9622, 105.8306, 21.0285, 105.8542)
	}
}
