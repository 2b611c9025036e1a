package astro

import (
	"math"
	"time"
)

// Solar altitude thresholds in degrees for the geometric center of the disc.
const (
	SunriseAltitude      = -0.833
	CivilAltitude        = -6.0
	NauticalAltitude     = -12.0
	AstronomicalAltitude = -18.0
	GoldenHourUpper      = 6.0
	GoldenHourLower      = -4.0
	BlueHourUpper        = -4.0
	BlueHourLower        = -6.0
)

type equatorial struct {
	ra         float64
	dec        float64
	distanceKm float64
}

// sunEquatorial is the low-precision solar model: mean anomaly, ecliptic
// longitude with the equation of center, and a linear obliquity.
func sunEquatorial(t time.Time) equatorial {
	d := daysSinceJ2000(t)
	g := deg2rad(normalize360(357.529 + 0.98560028*d))
	q := normalize360(280.459 + 0.98564736*d)
	l := deg2rad(normalize360(q + 1.915*math.Sin(g) + 0.020*math.Sin(2*g)))
	eps := deg2rad(23.439 - 0.00000036*d)

	ra := normalize360(rad2deg(math.Atan2(math.Cos(eps)*math.Sin(l), math.Cos(l))))
	dec := rad2deg(math.Asin(math.Sin(eps) * math.Sin(l)))
	r := 1.00014 - 0.01671*math.Cos(g) - 0.00014*math.Cos(2*g)
	return equatorial{ra: ra, dec: dec, distanceKm: r * kmPerAU}
}

func sunAltitude(lat, lon float64) altitudeFunc {
	return func(t time.Time) float64 {
		eq := sunEquatorial(t)
		_, alt := horizontal(lat, lon, eq.ra, eq.dec, t)
		return alt
	}
}

func computeSunTimes(date time.Time, lat, lon float64, loc *time.Location) SunTimes {
	y, mo, d := date.Date()
	start, end := dayBounds(y, mo, d, loc)
	f := sunAltitude(lat, lon)
	samples := sampleDay(f, start, end)

	st := SunTimes{Date: start.Format(time.DateOnly)}
	at := func(target float64, dir crossing) *time.Time {
		t, ok := samples.findCrossing(f, target, dir)
		if !ok {
			return nil
		}
		t = t.In(loc)
		return &t
	}

	st.Sunrise = at(SunriseAltitude, crossingUp)
	st.Sunset = at(SunriseAltitude, crossingDown)
	st.CivilDawn = at(CivilAltitude, crossingUp)
	st.CivilDusk = at(CivilAltitude, crossingDown)
	st.NauticalDawn = at(NauticalAltitude, crossingUp)
	st.NauticalDusk = at(NauticalAltitude, crossingDown)
	st.AstronomicalDawn = at(AstronomicalAltitude, crossingUp)
	st.AstronomicalDusk = at(AstronomicalAltitude, crossingDown)
	if noon, ok := samples.findMaximum(f); ok {
		noon = noon.In(loc)
		st.SolarNoon = &noon
	}

	if st.Sunrise == nil && st.Sunset == nil {
		if samples.min() > SunriseAltitude {
			st.AlwaysUp = true
		} else if samples.max() < SunriseAltitude {
			st.AlwaysDown = true
		}
	}

	peak, trough := samples.max(), samples.min()
	goldenMorningStart := at(GoldenHourLower, crossingUp)
	goldenMorningEnd := at(GoldenHourUpper, crossingUp)
	goldenEveningStart := at(GoldenHourUpper, crossingDown)
	goldenEveningEnd := at(GoldenHourLower, crossingDown)
	if peak < GoldenHourUpper && st.SolarNoon != nil {
		// Low winter sun: golden light lasts until noon and resumes after it.
		goldenMorningEnd = st.SolarNoon
		goldenEveningStart = st.SolarNoon
	}
	if trough > GoldenHourLower && trough < GoldenHourUpper {
		// Low summer sun never leaves the band overnight: golden light runs
		// through midnight, so the windows meet the day bounds.
		dayStart, dayEnd := start.In(loc), end.In(loc)
		if goldenMorningStart == nil {
			goldenMorningStart = &dayStart
		}
		if goldenEveningEnd == nil {
			goldenEveningEnd = &dayEnd
		}
	}
	st.GoldenHourMorning = window(goldenMorningStart, goldenMorningEnd)
	st.GoldenHourEvening = window(goldenEveningStart, goldenEveningEnd)
	st.BlueHourMorning = window(at(BlueHourLower, crossingUp), at(BlueHourUpper, crossingUp))
	st.BlueHourEvening = window(at(BlueHourUpper, crossingDown), at(BlueHourLower, crossingDown))
	return st
}

func window(start, end *time.Time) *Window {
	if start == nil || end == nil || end.Before(*start) {
		return nil
	}
	return &Window{Start: *start, End: *end}
}
