package weather

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAnalyzeClearSky(t *testing.T) {
	a := NewAnalyzer(Config{})
	impact := a.Analyze(&ForecastPoint{
		CloudCover:               ptr(0.1),
		PrecipitationProbability: ptr(0),
		Humidity:                 ptr(0.5),
		VisibilityKm:             ptr(24),
		WindSpeedKmh:             ptr(8),
	}, 0)

	require.Equal(t, 1.0, impact.OverallLightReductionFactor)
	require.Zero(t, impact.ConfidenceImpact)
	require.False(t, impact.Missing)
	require.False(t, impact.WindAdvisory)
	require.Len(t, impact.Reasoning, 4)
}

func TestAnalyzeOvercastRain(t *testing.T) {
	a := NewAnalyzer(Config{})
	impact := a.Analyze(&ForecastPoint{
		CloudCover:               ptr(1),
		PrecipitationProbability: ptr(1),
		Humidity:                 ptr(0.7),
		VisibilityKm:             ptr(12),
	}, 0)

	require.InDelta(t, 0.6, impact.CloudCoverReduction, 1e-9)
	require.InDelta(t, 0.5, impact.PrecipitationReduction, 1e-9)
	require.InDelta(t, 0.2, impact.OverallLightReductionFactor, 1e-9)
	require.Less(t, impact.OverallLightReductionFactor, 0.3)
}

func TestAnalyzeCurves(t *testing.T) {
	a := NewAnalyzer(Config{})
	cases := []struct {
		name  string
		point ForecastPoint
		check func(t *testing.T, f ImpactFactor)
	}{
		{
			name:  "cloud midpoint",
			point: ForecastPoint{CloudCover: ptr(0.6)},
			check: func(t *testing.T, f ImpactFactor) {
				require.InDelta(t, 0.3, f.CloudCoverReduction, 1e-9)
			},
		},
		{
			name:  "humidity saturated",
			point: ForecastPoint{Humidity: ptr(1)},
			check: func(t *testing.T, f ImpactFactor) {
				require.InDelta(t, 0.1, f.HumidityReduction, 1e-9)
			},
		},
		{
			name:  "fog",
			point: ForecastPoint{VisibilityKm: ptr(0.5)},
			check: func(t *testing.T, f ImpactFactor) {
				require.InDelta(t, 0.285, f.VisibilityReduction, 1e-9)
			},
		},
		{
			name:  "windy",
			point: ForecastPoint{WindSpeedKmh: ptr(45)},
			check: func(t *testing.T, f ImpactFactor) {
				require.True(t, f.WindAdvisory)
				require.Equal(t, 1.0, f.OverallLightReductionFactor)
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.check(t, a.Analyze(&tc.point, 0))
		})
	}
}

func TestAnalyzeOverallFactorBounds(t *testing.T) {
	a := NewAnalyzer(Config{})
	values := []float64{0, 0.15, 0.2, 0.5, 0.85, 1}
	for _, c := range values {
		for _, p := range values {
			for _, h := range values {
				for _, v := range []float64{0, 2, 9.9, 10, 50} {
					f := a.Analyze(&ForecastPoint{
						CloudCover:               ptr(c),
						PrecipitationProbability: ptr(p),
						Humidity:                 ptr(h),
						VisibilityKm:             ptr(v),
					}, 0)
					require.Greater(t, f.OverallLightReductionFactor, 0.0)
					require.LessOrEqual(t, f.OverallLightReductionFactor, 1.0)
					allZero := f.CloudCoverReduction == 0 && f.PrecipitationReduction == 0 &&
						f.HumidityReduction == 0 && f.VisibilityReduction == 0
					require.Equal(t, allZero, f.OverallLightReductionFactor == 1.0)
				}
			}
		}
	}
}

func TestAnalyzeMissingData(t *testing.T) {
	a := NewAnalyzer(Config{})

	whole := a.Analyze(nil, 0)
	require.True(t, whole.Missing)
	require.Equal(t, 1.0, whole.OverallLightReductionFactor)
	require.InDelta(t, 0.5, whole.ConfidenceImpact, 1e-9)

	partial := a.Analyze(&ForecastPoint{CloudCover: ptr(0.5), Humidity: ptr(1.7), VisibilityKm: ptr(math.NaN())}, 0)
	require.False(t, partial.Missing)
	// precipitation missing, humidity out of range, visibility NaN
	require.InDelta(t, 0.3, partial.ConfidenceImpact, 1e-9)
	require.Zero(t, partial.HumidityReduction)
}

func TestAnalyzeLeadTime(t *testing.T) {
	a := NewAnalyzer(Config{})
	full := &ForecastPoint{CloudCover: ptr(0), PrecipitationProbability: ptr(0), Humidity: ptr(0.4), VisibilityKm: ptr(20)}

	require.InDelta(t, 0.1, a.Analyze(full, 48*time.Hour).ConfidenceImpact, 1e-9)
	require.InDelta(t, 0.25, a.Analyze(full, 10*24*time.Hour).ConfidenceImpact, 1e-9)
	require.InDelta(t, 0.75, a.Analyze(nil, 10*24*time.Hour).ConfidenceImpact, 1e-9)
}

func TestForecastAt(t *testing.T) {
	base := time.Date(2024, time.June, 21, 0, 0, 0, 0, time.UTC)
	f := Forecast{Points: []ForecastPoint{
		{Time: base.Add(2 * time.Hour), CloudCover: ptr(0.3)},
		{Time: base, CloudCover: ptr(0.1)},
		{Time: base.Add(time.Hour), CloudCover: ptr(0.2)},
	}}
	f.Sort()

	p := f.At(base.Add(time.Hour + 30*time.Minute))
	require.NotNil(t, p)
	require.InDelta(t, 0.2, *p.CloudCover, 1e-9)

	denver := time.FixedZone("MDT", -6*3600)
	p = f.At(base.Add(2 * time.Hour).In(denver))
	require.NotNil(t, p)
	require.InDelta(t, 0.3, *p.CloudCover, 1e-9)

	require.Nil(t, f.At(base.Add(5*time.Hour)))
}
