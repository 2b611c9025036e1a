package lightpredict

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/exposure"
	"github.com/yanqian/lightcast/internal/domain/weather"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

type calcEphemeris struct {
	calc astro.Calculator
}

func (e calcEphemeris) Position(_ context.Context, target astro.Target, m astro.GeoMoment) (astro.CelestialPosition, error) {
	return e.calc.Position(target, m)
}

func (e calcEphemeris) SunTimes(_ context.Context, date time.Time, lat, lon float64, loc *time.Location) (astro.SunTimes, error) {
	return e.calc.SunTimes(date, lat, lon, loc)
}

func ptr(v float64) *float64 { return &v }

func newTestPredictor(start time.Time) *Predictor {
	p := NewPredictor(calcEphemeris{calc: astro.NewCalculator()}, weather.NewAnalyzer(weather.Config{}), Config{}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	p.now = func() time.Time { return start }
	return p
}

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func forecast(start time.Time, hours int, point weather.ForecastPoint) *weather.Forecast {
	f := &weather.Forecast{}
	for i := 0; i < hours; i++ {
		p := point
		p.Time = start.Add(time.Duration(i) * time.Hour).UTC()
		f.Points = append(f.Points, p)
	}
	return f
}

var clearSky = weather.ForecastPoint{
	CloudCover:               ptr(0.05),
	PrecipitationProbability: ptr(0),
	Humidity:                 ptr(0.3),
	VisibilityKm:             ptr(30),
	WindSpeedKmh:             ptr(5),
}

func TestPredictClearSummerDay(t *testing.T) {
	denver := mustLoad(t, "America/Denver")
	start := time.Date(2024, time.June, 21, 0, 0, 0, 0, denver)
	p := newTestPredictor(start)

	hours, err := p.Predict(context.Background(), Request{
		Latitude:  40,
		Longitude: -105,
		Location:  denver,
		Start:     start,
		Hours:     24,
		Forecast:  forecast(start, 24, clearSky),
	})
	require.NoError(t, err)
	require.Len(t, hours, 24)

	midday := hours[13]
	require.Equal(t, PhaseDaylight, midday.Phase)
	require.InDelta(t, 15.3, midday.PredictedEV, 0.3)
	require.False(t, midday.IsOptimalForPhotography)
	require.Equal(t, exposure.AxisShutter, midday.SuggestedSettings.SolvedFor)
	require.Equal(t, "f/8", midday.SuggestedSettings.Aperture.Label)
	require.Equal(t, ShadowsHard, midday.LightQuality.Shadows)
	require.False(t, midday.WeatherMissing)

	evening := hours[20]
	require.True(t, evening.IsOptimalForPhotography)

	night := hours[1]
	require.Less(t, night.PredictedEV, 0.0)
	require.True(t, night.IsMoonVisible)
	require.False(t, night.IsOptimalForPhotography)
	require.Equal(t, PhaseNight, night.Phase)

	for i, h := range hours {
		require.Equal(t, start.Add(time.Duration(i)*time.Hour), h.DateTime)
		require.GreaterOrEqual(t, h.ConfidenceLevel, 0.0)
		require.LessOrEqual(t, h.ConfidenceLevel, 1.0)
		require.GreaterOrEqual(t, h.EVConfidenceMargin, 0.25)
		require.NotEmpty(t, h.Recommendations)
	}
}

func TestPredictOvercastRainIsNeverOptimal(t *testing.T) {
	denver := mustLoad(t, "America/Denver")
	start := time.Date(2024, time.June, 21, 0, 0, 0, 0, denver)
	p := newTestPredictor(start)

	hours, err := p.Predict(context.Background(), Request{
		Latitude:  40,
		Longitude: -105,
		Location:  denver,
		Start:     start,
		Hours:     24,
		Forecast: forecast(start, 24, weather.ForecastPoint{
			CloudCover:               ptr(1),
			PrecipitationProbability: ptr(1),
			Humidity:                 ptr(0.7),
			VisibilityKm:             ptr(15),
		}),
	})
	require.NoError(t, err)
	for _, h := range hours {
		require.Less(t, h.Weather.OverallLightReductionFactor, 0.3)
		require.False(t, h.IsOptimalForPhotography, h.DateTime)
	}
	require.Equal(t, "Soft overcast daylight", hours[13].LightQuality.Label)
	require.Less(t, hours[13].PredictedEV, hours[13].ClearSkyEV)
}

func TestPredictOvercastNightFlagsClampedSettings(t *testing.T) {
	start := time.Date(2024, time.January, 11, 0, 0, 0, 0, time.UTC)
	p := newTestPredictor(start)

	hours, err := p.Predict(context.Background(), Request{
		Latitude:  51.5,
		Longitude: 0,
		Location:  time.UTC,
		Start:     start,
		Hours:     1,
		Forecast: forecast(start, 1, weather.ForecastPoint{
			CloudCover:               ptr(1),
			PrecipitationProbability: ptr(1),
			Humidity:                 ptr(1),
			VisibilityKm:             ptr(0),
		}),
	})
	require.NoError(t, err)
	require.Len(t, hours, 1)

	night := hours[0]
	require.Equal(t, PhaseNight, night.Phase)
	require.True(t, night.SettingsClamped)
	require.Greater(t, night.ExposureErrorStops, 0.5)
	require.InDelta(t, night.SuggestedSettings.EV100()-night.PredictedEV, night.ExposureErrorStops, 0.02)

	joined := strings.Join(night.Recommendations, "\n")
	require.Contains(t, joined, "Underexposed by")
	require.Contains(t, joined, "Rain likely")
	require.NotContains(t, joined, "astrophotography")
}

func TestPredictClearHoursKeepPhaseAdvice(t *testing.T) {
	denver := mustLoad(t, "America/Denver")
	start := time.Date(2024, time.June, 21, 12, 0, 0, 0, denver)
	p := newTestPredictor(start)

	hours, err := p.Predict(context.Background(), Request{
		Latitude: 40, Longitude: -105, Location: denver, Start: start, Hours: 2,
		Forecast: forecast(start, 2, clearSky),
	})
	require.NoError(t, err)
	for _, h := range hours {
		require.False(t, h.SettingsClamped)
		require.Zero(t, h.ExposureErrorStops)
		joined := strings.Join(h.Recommendations, "\n")
		require.NotContains(t, joined, "Heavy cloud")
		require.Contains(t, joined, "Hard shadows")
	}
}

func TestPredictMissingWeatherDegradesConfidence(t *testing.T) {
	denver := mustLoad(t, "America/Denver")
	start := time.Date(2024, time.June, 21, 12, 0, 0, 0, denver)
	p := newTestPredictor(start)

	hours, err := p.Predict(context.Background(), Request{
		Latitude: 40, Longitude: -105, Location: denver, Start: start, Hours: 2,
	})
	require.NoError(t, err)
	require.True(t, hours[0].WeatherMissing)
	require.InDelta(t, 0.5, hours[0].ConfidenceLevel, 1e-9)
	require.InDelta(t, 2.0, hours[0].EVConfidenceMargin, 1e-9)
	require.Equal(t, hours[0].ClearSkyEV, hours[0].PredictedEV)
	require.Contains(t, hours[0].Recommendations, "Forecast unavailable; estimate assumes a clear sky")
}

func TestPredictAppliesCalibration(t *testing.T) {
	denver := mustLoad(t, "America/Denver")
	start := time.Date(2024, time.June, 21, 13, 0, 0, 0, denver)
	p := newTestPredictor(start)
	req := Request{Latitude: 40, Longitude: -105, Location: denver, Start: start, Hours: 1, Forecast: forecast(start, 1, clearSky)}

	base, err := p.Predict(context.Background(), req)
	require.NoError(t, err)

	req.Calibration = &Calibration{MeasuredEV: base[0].PredictedEV + 1, PredictedEV: base[0].PredictedEV, MeasuredAt: start}
	calibrated, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.InDelta(t, base[0].PredictedEV+1, calibrated[0].PredictedEV, 0.02)
	require.Less(t, calibrated[0].EVConfidenceMargin, base[0].EVConfidenceMargin)

	// a day-old reading counts half and large shifts are capped
	req.Calibration = &Calibration{MeasuredEV: 30, PredictedEV: 15, MeasuredAt: start.Add(-24 * time.Hour)}
	capped, err := p.Predict(context.Background(), req)
	require.NoError(t, err)
	require.InDelta(t, base[0].PredictedEV+1, capped[0].PredictedEV, 0.02)
}

func TestPredictRejectsInvalidInput(t *testing.T) {
	start := time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)
	p := newTestPredictor(start)
	ctx := context.Background()

	cases := []Request{
		{Latitude: 40, Longitude: -105, Location: time.UTC, Start: start, Hours: 0},
		{Latitude: 40, Longitude: -105, Location: time.UTC, Start: start, Hours: 169},
		{Latitude: 95, Longitude: -105, Location: time.UTC, Start: start, Hours: 1},
		{Latitude: 40, Longitude: -105, Start: start, Hours: 1},
		{Latitude: 40, Longitude: -105, Location: time.UTC, Start: start, Hours: 1, Equipment: &Equipment{FocalLengthMM: -35}},
		{Latitude: 40, Longitude: -105, Location: time.UTC, Start: start, Hours: 1, StopScale: "quarter"},
	}
	for i, req := range cases {
		_, err := p.Predict(ctx, req)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), "case %d: %v", i, err)
	}
}

func TestPredictHonorsCancellation(t *testing.T) {
	start := time.Date(2024, time.June, 21, 12, 0, 0, 0, time.UTC)
	p := newTestPredictor(start)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Predict(ctx, Request{Latitude: 40, Longitude: -105, Location: time.UTC, Start: start, Hours: 24})
	require.ErrorIs(t, err, context.Canceled)
}

func TestClearSkyCurve(t *testing.T) {
	require.InDelta(t, 15.0, clearSkyEV(50), 1e-9)
	require.InDelta(t, daylightEV(0), clearSkyEV(0), 1e-9)
	require.InDelta(t, 6.0, clearSkyEV(-4), 1e-9)
	require.InDelta(t, 4.0, clearSkyEV(-6), 1e-9)
	require.InDelta(t, -1.0, clearSkyEV(-12), 1e-9)
	require.InDelta(t, -4.0, clearSkyEV(-18), 1e-9)
	require.Equal(t, nightEV, clearSkyEV(-40))

	prev := clearSkyEV(-90)
	for alt := -89.5; alt <= 90; alt += 0.5 {
		cur := clearSkyEV(alt)
		require.GreaterOrEqual(t, cur, prev, "altitude %v", alt)
		prev = cur
	}
	require.InDelta(t, -3.0, moonlightEV(1), 1e-9)
}

func TestPhaseFor(t *testing.T) {
	require.Equal(t, PhaseDaylight, phaseFor(30))
	require.Equal(t, PhaseGoldenHour, phaseFor(2))
	require.Equal(t, PhaseBlueHour, phaseFor(-5))
	require.Equal(t, PhaseNautical, phaseFor(-8))
	require.Equal(t, PhaseAstronomical, phaseFor(-15))
	require.Equal(t, PhaseNight, phaseFor(-25))
}

func TestSuggestSettings(t *testing.T) {
	gear := Equipment{}.withDefaults()

	bright, notes, err := suggestSettings(15, gear, exposure.ScaleThird)
	require.NoError(t, err)
	require.Empty(t, notes)
	require.Equal(t, "f/8", bright.Triangle.Aperture.Label)
	require.Equal(t, "ISO 100", bright.Triangle.ISO.Label)
	require.False(t, bright.Clamped)

	dim, notes, err := suggestSettings(5.5, gear, exposure.ScaleThird)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.True(t, strings.HasPrefix(notes[0], "Raise ISO"), notes[0])
	require.Equal(t, "1/50", dim.Triangle.Shutter.Label)
	require.Equal(t, exposure.AxisISO, dim.Triangle.SolvedFor)

	dark, notes, err := suggestSettings(-1, Equipment{MaxISO: 3200}.withDefaults(), exposure.ScaleThird)
	require.NoError(t, err)
	require.Len(t, notes, 1)
	require.True(t, strings.HasPrefix(notes[0], "Use a tripod"), notes[0])
	require.Equal(t, "ISO 3200", dark.Triangle.ISO.Label)
	require.Equal(t, "f/2.8", dark.Triangle.Aperture.Label)
	require.False(t, dark.Clamped)

	pitch, _, err := suggestSettings(-9, gear, exposure.ScaleThird)
	require.NoError(t, err)
	require.True(t, pitch.Clamped)
	require.Equal(t, "30s", pitch.Triangle.Shutter.Label)
	require.Greater(t, pitch.Triangle.EV100(), -9.0)

	fast, _, err := suggestSettings(2, Equipment{MaxAperture: 1.4, MinAperture: 16, MaxISO: 12800}.withDefaults(), exposure.ScaleThird)
	require.NoError(t, err)
	require.Equal(t, "f/1.4", fast.Triangle.Aperture.Label)
}

func TestAssessQuality(t *testing.T) {
	golden, score := assessQuality(conditions{altitude: 3, phase: PhaseGoldenHour, cloud: 0.1, factor: 1})
	require.Equal(t, ToneWarm, golden.Tone)
	require.InDelta(t, 0.95, score, 1e-9)

	blue, _ := assessQuality(conditions{altitude: -5, phase: PhaseBlueHour, factor: 1})
	require.Equal(t, ToneCool, blue.Tone)
	require.Equal(t, ShadowsNone, blue.Shadows)

	noon, noonScore := assessQuality(conditions{altitude: 70, phase: PhaseDaylight, factor: 1})
	require.Equal(t, "Harsh midday sun", noon.Label)
	require.Equal(t, ToneNeutral, noon.Tone)
	require.Less(t, noonScore, 0.75)

	_, dull := assessQuality(conditions{altitude: 3, phase: PhaseGoldenHour, cloud: 1, factor: 0.2})
	require.Less(t, dull, 0.75)
}
