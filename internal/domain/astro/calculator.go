package astro

import (
	"time"

	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// Calculator computes ephemeris data. Implementations are pure and safe for
// concurrent use.
type Calculator interface {
	Position(target Target, m GeoMoment) (CelestialPosition, error)
	SunTimes(date time.Time, lat, lon float64, loc *time.Location) (SunTimes, error)
	MoonIllumination(m GeoMoment) (MoonPhase, error)
}

type calculator struct{}

// NewCalculator returns the low-precision analytic calculator.
func NewCalculator() Calculator {
	return calculator{}
}

var _ Calculator = calculator{}

// Position returns the topocentric position of target plus its rise, set and
// transit for the observer's local calendar day.
func (calculator) Position(target Target, m GeoMoment) (CelestialPosition, error) {
	if err := m.Validate(); err != nil {
		return CelestialPosition{}, err
	}
	lat, lon, t := m.Latitude, m.Longitude, m.Instant

	pos := CelestialPosition{Target: target, Instant: m.Local()}
	var (
		f       altitudeFunc
		horizon float64
	)
	switch target {
	case TargetSun:
		eq := sunEquatorial(t)
		pos.Azimuth, pos.Altitude = horizontal(lat, lon, eq.ra, eq.dec, t)
		pos.DistanceKm = eq.distanceKm
		pos.Illumination = 1
		pos.IsVisible = pos.Altitude > SunriseAltitude
		f, horizon = sunAltitude(lat, lon), SunriseAltitude
	case TargetMoon:
		az, alt, eq := moonTopocentric(lat, lon, t)
		pos.Azimuth, pos.Altitude = az, alt
		pos.DistanceKm = eq.distanceKm
		pos.Illumination = moonPhaseAt(t).Fraction
		pos.IsVisible = alt > 0
		f, horizon = moonAltitude(lat, lon), moonHorizon(eq.distanceKm)
	default:
		elements, ok := planetElements[target]
		if !ok {
			return CelestialPosition{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown target "+string(target), nil)
		}
		s := planetGeocentric(elements, t)
		pos.Azimuth, pos.Altitude = horizontal(lat, lon, s.ra, s.dec, t)
		pos.DistanceKm = s.distanceKm
		pos.Illumination = s.illumination
		sun := sunEquatorial(t)
		_, sunAlt := horizontal(lat, lon, sun.ra, sun.dec, t)
		pos.IsVisible = pos.Altitude > 0 && sunAlt < CivilAltitude
		f, horizon = planetAltitude(elements, lat, lon), -0.5667
	}

	local := m.Local()
	start, end := dayBounds(local.Year(), local.Month(), local.Day(), m.Location)
	samples := sampleDay(f, start, end)
	if rise, ok := samples.findCrossing(f, horizon, crossingUp); ok {
		rise = rise.In(m.Location)
		pos.Rise = &rise
	}
	if set, ok := samples.findCrossing(f, horizon, crossingDown); ok {
		set = set.In(m.Location)
		pos.Set = &set
	}
	if transit, ok := samples.findMaximum(f); ok {
		transit = transit.In(m.Location)
		pos.Transit = &transit
	}
	return pos, nil
}

// SunTimes computes solar events for the calendar date of date (its year,
// month and day fields) interpreted in loc. Polar day and night yield nil
// fields plus AlwaysUp or AlwaysDown, never an error.
func (calculator) SunTimes(date time.Time, lat, lon float64, loc *time.Location) (SunTimes, error) {
	if err := ValidateCoordinates(lat, lon); err != nil {
		return SunTimes{}, err
	}
	if loc == nil {
		return SunTimes{}, apperrors.Wrap(apperrors.CodeInvalidInput, "time zone is required", nil)
	}
	if date.IsZero() {
		return SunTimes{}, apperrors.Wrap(apperrors.CodeInvalidInput, "date is required", nil)
	}
	return computeSunTimes(date, lat, lon, loc), nil
}

func (calculator) MoonIllumination(m GeoMoment) (MoonPhase, error) {
	if m.Instant.IsZero() {
		return MoonPhase{}, apperrors.Wrap(apperrors.CodeInvalidInput, "instant is required", nil)
	}
	phase := moonPhaseAt(m.Instant)
	phase.Instant = m.Local()
	return phase, nil
}
