package lightpredict

import (
	"math"

	"github.com/yanqian/lightcast/internal/domain/astro"
)

// noonReferenceAltitude is where clear-sky daylight reaches EV 15.
const noonReferenceAltitude = 50.0

const nightEV = -6.0

type anchor struct{ alt, ev float64 }

// twilightAnchors run from the horizon downward.
var twilightAnchors = []anchor{
	{0, daylightEV(0)},
	{astro.GoldenHourLower, 6},
	{astro.CivilAltitude, 4},
	{astro.NauticalAltitude, -1},
	{astro.AstronomicalAltitude, -4},
	{-21, nightEV},
}

func daylightEV(alt float64) float64 {
	s := math.Max(math.Sin(alt*math.Pi/180), 0.02)
	return 15 + math.Log2(s/math.Sin(noonReferenceAltitude*math.Pi/180))
}

// clearSkyEV maps solar altitude to the EV100 of an unobstructed scene.
func clearSkyEV(alt float64) float64 {
	if alt > 0 {
		return daylightEV(alt)
	}
	for i := 1; i < len(twilightAnchors); i++ {
		hi, lo := twilightAnchors[i-1], twilightAnchors[i]
		if alt >= lo.alt {
			f := (alt - lo.alt) / (hi.alt - lo.alt)
			return lo.ev + f*(hi.ev-lo.ev)
		}
	}
	return nightEV
}

// moonlightEV is the floor a risen moon puts under the night curve.
func moonlightEV(fraction float64) float64 {
	return -3 + math.Log2(math.Max(fraction, 0.01))
}

func phaseFor(alt float64) Phase {
	switch {
	case alt >= astro.GoldenHourUpper:
		return PhaseDaylight
	case alt >= astro.GoldenHourLower:
		return PhaseGoldenHour
	case alt >= astro.BlueHourLower:
		return PhaseBlueHour
	case alt >= astro.NauticalAltitude:
		return PhaseNautical
	case alt >= astro.AstronomicalAltitude:
		return PhaseAstronomical
	default:
		return PhaseNight
	}
}
