package lightpredict

import (
	"math"
)

type conditions struct {
	altitude    float64
	phase       Phase
	cloud       float64
	factor      float64
	moonVisible bool
}

// assessQuality grades the light for photography, returning its character
// and a 0..1 score.
func assessQuality(c conditions) (LightQuality, float64) {
	sinAlt := math.Max(math.Sin(c.altitude*math.Pi/180), 0)
	directness := sinAlt * (1 - c.cloud)

	q := LightQuality{
		ColorTemperatureK: colorTemperature(c),
		Shadows:           shadowHardness(c.phase, directness),
	}
	q.Tone = toneFor(q.ColorTemperatureK)

	var base float64
	switch c.phase {
	case PhaseGoldenHour:
		base = 0.95
		q.Label = "Golden hour warm light"
	case PhaseBlueHour:
		base = 0.85
		q.Label = "Blue hour"
	case PhaseDaylight:
		base = 0.5 + 0.3*(1-sinAlt)
		switch {
		case c.cloud >= 0.7:
			q.Label = "Soft overcast daylight"
		case sinAlt > 0.75:
			q.Label = "Harsh midday sun"
		default:
			q.Label = "Bright daylight"
		}
	case PhaseNautical:
		base = 0.5
		q.Label = "Nautical twilight"
	case PhaseAstronomical:
		base = 0.35
		q.Label = "Astronomical twilight"
	default:
		base = 0.25
		q.Label = "Dark night"
		if c.moonVisible {
			base = 0.4
			q.Label = "Moonlit night"
		}
	}
	score := base * (0.4 + 0.6*c.factor)
	return q, math.Round(clamp(score, 0, 1)*1000) / 1000
}

func colorTemperature(c conditions) int {
	switch c.phase {
	case PhaseGoldenHour:
		return 3500
	case PhaseBlueHour:
		return 9000
	case PhaseNautical, PhaseAstronomical:
		return 10000
	case PhaseNight:
		if c.moonVisible {
			return 4100
		}
		return 10000
	}
	// low sun is warmer; cloud pushes toward overcast blue
	k := 5000 + 700*math.Min(c.altitude/45, 1) + 1300*c.cloud
	return int(math.Round(k/100) * 100)
}

func toneFor(k int) ColorTone {
	switch {
	case k < 4500:
		return ToneWarm
	case k > 6500:
		return ToneCool
	default:
		return ToneNeutral
	}
}

func shadowHardness(phase Phase, directness float64) ShadowHardness {
	if phase != PhaseDaylight && phase != PhaseGoldenHour {
		return ShadowsNone
	}
	switch {
	case directness >= 0.5:
		return ShadowsHard
	case directness >= 0.2:
		return ShadowsMedium
	case directness > 0.02:
		return ShadowsSoft
	default:
		return ShadowsNone
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Min(math.Max(v, lo), hi)
}
