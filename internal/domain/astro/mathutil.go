package astro

import (
	"math"
	"time"
)

const (
	kmPerAU       = 149597870.7
	earthRadiusKm = 6378.14
)

// j2000 is the J2000.0 epoch: 2000-01-01 12:00:00 UTC.
var j2000 = time.Date(2000, time.January, 1, 12, 0, 0, 0, time.UTC)

// daysSinceJ2000 ignores the TT/UTC offset, which is well below the model error.
func daysSinceJ2000(t time.Time) float64 {
	return t.UTC().Sub(j2000).Hours() / 24.0
}

func julianCenturies(t time.Time) float64 {
	return daysSinceJ2000(t) / 36525.0
}

func deg2rad(d float64) float64 { return d * math.Pi / 180.0 }

func rad2deg(r float64) float64 { return r * 180.0 / math.Pi }

func normalize360(d float64) float64 {
	d = math.Mod(d, 360.0)
	if d < 0 {
		d += 360.0
	}
	return d
}

// normalize180 maps an angle to [-180, 180).
func normalize180(d float64) float64 {
	d = normalize360(d + 180.0)
	return d - 180.0
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// greenwichSiderealDeg is the mean sidereal angle at Greenwich.
func greenwichSiderealDeg(t time.Time) float64 {
	return normalize360(280.46061837 + 360.98564736629*daysSinceJ2000(t))
}

// horizontal converts equatorial coordinates to azimuth (from north,
// eastward) and altitude for an observer, all in degrees.
func horizontal(lat, lon, raDeg, decDeg float64, t time.Time) (az, alt float64) {
	lst := normalize360(greenwichSiderealDeg(t) + lon)
	h := deg2rad(normalize180(lst - raDeg))
	phi := deg2rad(lat)
	dec := deg2rad(decDeg)

	sinAlt := math.Sin(phi)*math.Sin(dec) + math.Cos(phi)*math.Cos(dec)*math.Cos(h)
	alt = rad2deg(math.Asin(clamp(sinAlt, -1, 1)))

	y := -math.Sin(h) * math.Cos(dec)
	x := math.Sin(dec)*math.Cos(phi) - math.Cos(dec)*math.Sin(phi)*math.Cos(h)
	az = normalize360(rad2deg(math.Atan2(y, x)))
	return az, clamp(alt, -90, 90)
}

// eclipticToEquatorial rotates ecliptic rectangular coordinates by the
// obliquity and returns RA/Dec in degrees.
func eclipticToEquatorial(x, y, z, obliquityDeg float64) (raDeg, decDeg float64) {
	eps := deg2rad(obliquityDeg)
	xe := x
	ye := y*math.Cos(eps) - z*math.Sin(eps)
	ze := y*math.Sin(eps) + z*math.Cos(eps)
	raDeg = normalize360(rad2deg(math.Atan2(ye, xe)))
	decDeg = rad2deg(math.Atan2(ze, math.Hypot(xe, ye)))
	return raDeg, decDeg
}
