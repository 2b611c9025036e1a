package astro

import (
	"math"
	"time"
)

// keplerElements are J2000 mean orbital elements and their rates per Julian
// century: semi-major axis (AU), eccentricity, inclination, mean longitude,
// longitude of perihelion and longitude of the ascending node (degrees).
type keplerElements struct {
	a, e, i, l, peri, node float64

	aDot, eDot, iDot, lDot, periDot, nodeDot float64
}

var earthElements = keplerElements{
	a: 1.00000261, e: 0.01671123, i: -0.00001531, l: 100.46457166, peri: 102.93768193, node: 0,
	aDot: 0.00000562, eDot: -0.00004392, iDot: -0.01294668, lDot: 35999.37244981, periDot: 0.32327364, nodeDot: 0,
}

var planetElements = map[Target]keplerElements{
	TargetMercury: {
		a: 0.38709927, e: 0.20563593, i: 7.00497902, l: 252.25032350, peri: 77.45779628, node: 48.33076593,
		aDot: 0.00000037, eDot: 0.00001906, iDot: -0.00594749, lDot: 149472.67411175, periDot: 0.16047689, nodeDot: -0.12534081,
	},
	TargetVenus: {
		a: 0.72333566, e: 0.00677672, i: 3.39467605, l: 181.97909950, peri: 131.60246718, node: 76.67984255,
		aDot: 0.00000390, eDot: -0.00004107, iDot: -0.00078890, lDot: 58517.81538729, periDot: 0.00268329, nodeDot: -0.27769418,
	},
	TargetMars: {
		a: 1.52371034, e: 0.09339410, i: 1.84969142, l: -4.55343205, peri: -23.94362959, node: 49.55953891,
		aDot: 0.00001847, eDot: 0.00007882, iDot: -0.00813131, lDot: 19140.30268499, periDot: 0.44441088, nodeDot: -0.29257343,
	},
	TargetJupiter: {
		a: 5.20288700, e: 0.04838624, i: 1.30439695, l: 34.39644051, peri: 14.72847983, node: 100.47390909,
		aDot: -0.00011607, eDot: -0.00013253, iDot: -0.00183714, lDot: 3034.74612775, periDot: 0.21252668, nodeDot: 0.20469106,
	},
	TargetSaturn: {
		a: 9.53667594, e: 0.05386179, i: 2.48599187, l: 49.95424423, peri: 92.59887831, node: 113.66242448,
		aDot: -0.00125060, eDot: -0.00050991, iDot: 0.00193609, lDot: 1222.49362201, periDot: -0.41897216, nodeDot: -0.28867794,
	},
}

// j2000Obliquity is used because the elements are referred to the J2000 ecliptic.
const j2000Obliquity = 23.43928

type vec3 struct{ x, y, z float64 }

func (v vec3) sub(o vec3) vec3 { return vec3{v.x - o.x, v.y - o.y, v.z - o.z} }

func (v vec3) norm() float64 { return math.Sqrt(v.x*v.x + v.y*v.y + v.z*v.z) }

// heliocentric returns ecliptic rectangular coordinates in AU.
func (k keplerElements) heliocentric(t time.Time) vec3 {
	c := julianCenturies(t)
	a := k.a + k.aDot*c
	e := k.e + k.eDot*c
	inc := deg2rad(k.i + k.iDot*c)
	l := k.l + k.lDot*c
	peri := k.peri + k.periDot*c
	node := k.node + k.nodeDot*c

	m := deg2rad(normalize180(l - peri))
	w := deg2rad(peri - node)
	om := deg2rad(node)

	ea := solveKepler(m, e)
	xp := a * (math.Cos(ea) - e)
	yp := a * math.Sqrt(1-e*e) * math.Sin(ea)

	cw, sw := math.Cos(w), math.Sin(w)
	co, so := math.Cos(om), math.Sin(om)
	ci, si := math.Cos(inc), math.Sin(inc)
	return vec3{
		x: (cw*co-sw*so*ci)*xp + (-sw*co-cw*so*ci)*yp,
		y: (cw*so+sw*co*ci)*xp + (-sw*so+cw*co*ci)*yp,
		z: (sw*si)*xp + (cw*si)*yp,
	}
}

// solveKepler returns the eccentric anomaly for mean anomaly m (radians).
func solveKepler(m, e float64) float64 {
	ea := m + e*math.Sin(m)
	for i := 0; i < 12; i++ {
		delta := (ea - e*math.Sin(ea) - m) / (1 - e*math.Cos(ea))
		ea -= delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}
	return ea
}

type planetState struct {
	equatorial
	illumination float64
}

func planetGeocentric(k keplerElements, t time.Time) planetState {
	p := k.heliocentric(t)
	earth := earthElements.heliocentric(t)
	geo := p.sub(earth)

	ra, dec := eclipticToEquatorial(geo.x, geo.y, geo.z, j2000Obliquity)
	r, delta, big := p.norm(), geo.norm(), earth.norm()
	illum := ((r+delta)*(r+delta) - big*big) / (4 * r * delta)
	return planetState{
		equatorial:   equatorial{ra: ra, dec: dec, distanceKm: delta * kmPerAU},
		illumination: clamp(illum, 0, 1),
	}
}

func planetAltitude(k keplerElements, lat, lon float64) altitudeFunc {
	return func(t time.Time) float64 {
		s := planetGeocentric(k, t)
		_, alt := horizontal(lat, lon, s.ra, s.dec, t)
		return alt
	}
}
