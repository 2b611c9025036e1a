package astro

import (
	"math"
	"time"
)

const meanMoonDistanceKm = 384400.0

// moonGeocentric evaluates a truncated lunar series: the dominant terms in
// ecliptic longitude, latitude and distance.
func moonGeocentric(t time.Time) equatorial {
	d := daysSinceJ2000(t)

	lp := deg2rad(normalize360(218.3164477 + 13.17639648*d))
	ms := deg2rad(normalize360(357.5291092 + 0.98560028*d))
	mm := deg2rad(normalize360(134.9633964 + 13.06499295*d))
	el := deg2rad(normalize360(297.8501921 + 12.19074912*d))
	f := deg2rad(normalize360(93.2720950 + 13.22935024*d))

	lon := lp +
		deg2rad(6.289)*math.Sin(mm) +
		deg2rad(1.274)*math.Sin(2*el-mm) +
		deg2rad(0.658)*math.Sin(2*el) +
		deg2rad(0.214)*math.Sin(2*mm) -
		deg2rad(0.186)*math.Sin(ms) -
		deg2rad(0.114)*math.Sin(2*f)

	lat := deg2rad(5.128)*math.Sin(f) +
		deg2rad(0.280)*math.Sin(mm+f) +
		deg2rad(0.277)*math.Sin(mm-f) +
		deg2rad(0.173)*math.Sin(2*el-f)

	dist := 385000.56 -
		20905.0*math.Cos(mm) -
		3699.0*math.Cos(2*el-mm) -
		2956.0*math.Cos(2*el) -
		570.0*math.Cos(2*mm) +
		246.0*math.Cos(2*el-2*mm)

	x := math.Cos(lat) * math.Cos(lon)
	y := math.Cos(lat) * math.Sin(lon)
	z := math.Sin(lat)
	ra, dec := eclipticToEquatorial(x, y, z, 23.439291-0.0000137*d)
	return equatorial{ra: ra, dec: dec, distanceKm: dist}
}

// moonTopocentric applies horizontal parallax for a sea-level observer and
// returns azimuth and altitude in degrees.
func moonTopocentric(lat, lon float64, t time.Time) (az, alt float64, eq equatorial) {
	eq = moonGeocentric(t)

	lst := normalize360(greenwichSiderealDeg(t) + lon)
	h := deg2rad(normalize180(lst - eq.ra))
	phi := deg2rad(lat)
	dec := deg2rad(eq.dec)

	sinPi := earthRadiusKm / math.Max(eq.distanceKm, earthRadiusKm*2)
	rhoSin := 0.99883 * math.Sin(phi)
	rhoCos := 0.99883 * math.Cos(phi)

	dAlpha := math.Atan2(-rhoCos*sinPi*math.Sin(h), math.Cos(dec)-rhoCos*sinPi*math.Cos(h))
	decTopo := math.Atan2(
		(math.Sin(dec)-rhoSin*sinPi)*math.Cos(dAlpha),
		math.Cos(dec)-rhoCos*sinPi*math.Cos(h),
	)
	raTopo := normalize360(eq.ra + rad2deg(dAlpha))

	az, alt = horizontal(lat, lon, raTopo, rad2deg(decTopo), t)
	return az, alt, eq
}

// moonHorizon is the topocentric altitude of the Moon's center at rise and
// set; a closer Moon has a larger disc, so its center sits lower.
func moonHorizon(distanceKm float64) float64 {
	const base = -0.90
	if distanceKm <= 0 {
		return base
	}
	return base - 0.6*(distanceKm-meanMoonDistanceKm)/meanMoonDistanceKm
}

func moonAltitude(lat, lon float64) altitudeFunc {
	return func(t time.Time) float64 {
		_, alt, _ := moonTopocentric(lat, lon, t)
		return alt
	}
}

// moonPhaseAt derives illumination from the Sun-Moon elongation.
func moonPhaseAt(t time.Time) MoonPhase {
	sun := sunEquatorial(t)
	moon := moonGeocentric(t)

	s1, s2 := deg2rad(sun.dec), deg2rad(moon.dec)
	dRA := deg2rad(moon.ra - sun.ra)
	cosPsi := math.Sin(s1)*math.Sin(s2) + math.Cos(s1)*math.Cos(s2)*math.Cos(dRA)
	psi := math.Acos(clamp(cosPsi, -1, 1))

	fraction := clamp((1-math.Cos(psi))/2, 0, 1)
	waxing := normalize360(moon.ra-sun.ra) < 180
	return MoonPhase{
		Instant:    t,
		Fraction:   fraction,
		Elongation: rad2deg(psi),
		Waxing:     waxing,
		Name:       ClassifyPhase(fraction, waxing),
	}
}
