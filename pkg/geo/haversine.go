package geo

import (
	"math"

	"github.com/paulmach/orb"
)

const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusMeters * c
}

// degToMeters converts degree-scaled equirectangular distances to meters.
const degToMeters = math.Pi / 180 * earthRadiusMeters

// PointToSegmentDist computes the perpendicular distance from point P to segment AB,
// and returns the projection ratio along AB (clamped to [0,1]).
// dist is in meters, ratio is in [0.0, 1.0].
func PointToSegmentDist(pLat, pLon, aLat, aLon, bLat, bLon float64) (dist float64, ratio float64) {
	// Equirectangular projection; edges are short enough for this.
	cosLat := math.Cos((aLat + bLat) / 2 * math.Pi / 180)

	ax := aLon * cosLat
	ay := aLat
	bx := bLon * cosLat
	by := bLat
	px := pLon * cosLat
	py := pLat

	// Degenerate segment is checked on the raw coordinates; after the cosLat
	// multiplication identical points can differ by ~1e-15.
	if aLat == bLat && aLon == bLon {
		ex := px - ax
		ey := py - ay
		return math.Sqrt(ex*ex+ey*ey) * degToMeters, 0
	}

	dx := bx - ax
	dy := by - ay
	lenSq := dx*dx + dy*dy

	var t float64
	if lenSq > 0 {
		t = ((px-ax)*dx + (py-ay)*dy) / lenSq
		if t < 0 {
			t = 0
		} else if t > 1 {
			t = 1
		}
	}

	ex := px - (ax + t*dx)
	ey := py - (ay + t*dy)
	return math.Sqrt(ex*ex+ey*ey) * degToMeters, t
}

// MetersToDegrees converts a ground distance at the given latitude into the
// latitude and longitude spans it covers.
func MetersToDegrees(lat, meters float64) (dLat, dLon float64) {
	dLat = meters / degToMeters
	cosLat := math.Cos(lat * math.Pi / 180)
	if cosLat < 1e-6 {
		cosLat = 1e-6
	}
	dLon = dLat / cosLat
	return dLat, dLon
}

// Point builds an orb point from latitude/longitude. orb stores X=lon, Y=lat.
func Point(lat, lon float64) orb.Point {
	return orb.Point{lon, lat}
}

// CircleBound returns the bounding box of a circle of radius meters.
func CircleBound(center orb.Point, radius float64) orb.Bound {
	dLat, dLon := MetersToDegrees(center.Lat(), radius)
	return orb.Bound{
		Min: orb.Point{center.Lon() - dLon, center.Lat() - dLat},
		Max: orb.Point{center.Lon() + dLon, center.Lat() + dLat},
	}
}

// PadBound grows b by frac of its size on each side, but by at least
// minMeters, so a single point or a straight north-south path still
// yields a viewport with area.
func PadBound(b orb.Bound, frac, minMeters float64) orb.Bound {
	center := b.Center()
	minLat, minLon := MetersToDegrees(center.Lat(), minMeters)

	padLat := math.Max((b.Max.Lat()-b.Min.Lat())*frac, minLat)
	padLon := math.Max((b.Max.Lon()-b.Min.Lon())*frac, minLon)

	return orb.Bound{
		Min: orb.Point{b.Min.Lon() - padLon, b.Min.Lat() - padLat},
		Max: orb.Point{b.Max.Lon() + padLon, b.Max.Lat() + padLat},
	}
}

// Finite reports whether every value is a usable coordinate number.
func Finite(vals ...float64) bool {
	for _, v := range vals {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// ValidLatLng reports whether lat/lon are finite and within WGS84 range.
func ValidLatLng(lat, lon float64) bool {
	if !Finite(lat, lon) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
