package lightpredict

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/exposure"
	"github.com/yanqian/lightcast/internal/domain/weather"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// Ephemeris supplies sun and moon geometry, typically through the astro cache.
type Ephemeris interface {
	Position(ctx context.Context, target astro.Target, m astro.GeoMoment) (astro.CelestialPosition, error)
	SunTimes(ctx context.Context, date time.Time, lat, lon float64, loc *time.Location) (astro.SunTimes, error)
}

// Predictor fuses ephemeris and forecast data into hourly light estimates.
type Predictor struct {
	eph      Ephemeris
	analyzer *weather.Analyzer
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewPredictor fills zero config fields from DefaultConfig.
func NewPredictor(eph Ephemeris, analyzer *weather.Analyzer, cfg Config, logger *slog.Logger) *Predictor {
	def := DefaultConfig()
	if cfg.MaxHours <= 0 {
		cfg.MaxHours = def.MaxHours
	}
	if cfg.BaseMargin <= 0 {
		cfg.BaseMargin = def.BaseMargin
	}
	if cfg.CalibrationHalfLife <= 0 {
		cfg.CalibrationHalfLife = def.CalibrationHalfLife
	}
	if cfg.MaxCalibrationShift <= 0 {
		cfg.MaxCalibrationShift = def.MaxCalibrationShift
	}
	if cfg.OptimalMinFactor <= 0 {
		cfg.OptimalMinFactor = def.OptimalMinFactor
	}
	if cfg.OptimalMinQuality <= 0 {
		cfg.OptimalMinQuality = def.OptimalMinQuality
	}
	if cfg.OptimalMaxCloud <= 0 {
		cfg.OptimalMaxCloud = def.OptimalMaxCloud
	}
	return &Predictor{
		eph:      eph,
		analyzer: analyzer,
		cfg:      cfg,
		logger:   logger.With("component", "lightpredict"),
		now:      time.Now,
	}
}

// Predict returns one prediction per hour. Hours are independent; invalid
// input fails the whole request and ctx is checked between hours.
func (p *Predictor) Predict(ctx context.Context, req Request) ([]HourlyPrediction, error) {
	scale, err := p.validate(req)
	if err != nil {
		return nil, err
	}
	gear := Equipment{}
	if req.Equipment != nil {
		gear = *req.Equipment
	}
	gear = gear.withDefaults()

	days := map[string]astro.SunTimes{}
	now := p.now()
	out := make([]HourlyPrediction, 0, req.Hours)
	for i := 0; i < req.Hours; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		at := req.Start.Add(time.Duration(i) * time.Hour).In(req.Location)
		sun, err := p.sunTimesFor(ctx, days, at, req)
		if err != nil {
			return nil, err
		}
		hour, err := p.predictHour(ctx, req, at, now, sun, gear, scale)
		if err != nil {
			return nil, err
		}
		out = append(out, hour)
	}
	p.logger.Debug("light predicted",
		"latitude", req.Latitude,
		"longitude", req.Longitude,
		"start", req.Start.Format(time.RFC3339),
		"hours", req.Hours,
	)
	return out, nil
}

func (p *Predictor) validate(req Request) (exposure.StopScale, error) {
	m := astro.GeoMoment{Latitude: req.Latitude, Longitude: req.Longitude, Location: req.Location, Instant: req.Start}
	if err := m.Validate(); err != nil {
		return "", err
	}
	if req.Hours < 1 || req.Hours > p.cfg.MaxHours {
		return "", apperrors.Wrap(apperrors.CodeInvalidInput, fmt.Sprintf("hours must be within [1, %d]", p.cfg.MaxHours), nil)
	}
	if req.Equipment != nil {
		if err := req.Equipment.Validate(); err != nil {
			return "", err
		}
	}
	if c := req.Calibration; c != nil {
		if !finite(c.MeasuredEV) || !finite(c.PredictedEV) || c.MeasuredAt.IsZero() {
			return "", apperrors.Wrap(apperrors.CodeInvalidInput, "calibration reading is incomplete", nil)
		}
	}
	if req.StopScale == "" {
		return exposure.ScaleThird, nil
	}
	return exposure.ParseStopScale(string(req.StopScale))
}

func (p *Predictor) sunTimesFor(ctx context.Context, days map[string]astro.SunTimes, at time.Time, req Request) (astro.SunTimes, error) {
	key := at.Format(time.DateOnly)
	if st, ok := days[key]; ok {
		return st, nil
	}
	st, err := p.eph.SunTimes(ctx, at, req.Latitude, req.Longitude, req.Location)
	if err != nil {
		return astro.SunTimes{}, ephemerisError(err)
	}
	days[key] = st
	return st, nil
}

func (p *Predictor) predictHour(ctx context.Context, req Request, at, now time.Time, sun astro.SunTimes, gear Equipment, scale exposure.StopScale) (HourlyPrediction, error) {
	m := astro.GeoMoment{Latitude: req.Latitude, Longitude: req.Longitude, Location: req.Location, Instant: at}
	sunPos, err := p.eph.Position(ctx, astro.TargetSun, m)
	if err != nil {
		return HourlyPrediction{}, ephemerisError(err)
	}
	moonPos, err := p.eph.Position(ctx, astro.TargetMoon, m)
	if err != nil {
		return HourlyPrediction{}, ephemerisError(err)
	}
	moonUp := moonPos.Altitude > 0

	clearEV := clearSkyEV(sunPos.Altitude)
	if moonUp {
		clearEV = math.Max(clearEV, moonlightEV(moonPos.Illumination))
	}

	var point *weather.ForecastPoint
	if req.Forecast != nil {
		point = req.Forecast.At(at)
	}
	impact := p.analyzer.Analyze(point, at.Sub(now))
	ev := exposure.LuxToEV(exposure.EVToLux(clearEV) * impact.OverallLightReductionFactor)

	r := 0.0
	if c := req.Calibration; c != nil {
		age := at.Sub(c.MeasuredAt)
		if age < 0 {
			age = -age
		}
		r = math.Exp2(-float64(age) / float64(p.cfg.CalibrationHalfLife))
		shift := clamp(c.MeasuredEV-c.PredictedEV, -p.cfg.MaxCalibrationShift, p.cfg.MaxCalibrationShift)
		ev += r * shift
	}
	margin := clamp((p.cfg.BaseMargin+2*impact.ConfidenceImpact)*(1-0.5*r), 0.25, 4)
	confidence := clamp(1-impact.ConfidenceImpact+0.1*r, 0, 1)

	solved, notes, err := suggestSettings(ev, gear, scale)
	if err != nil {
		return HourlyPrediction{}, apperrors.Wrap(apperrors.CodePredictionError, "failed to solve exposure", err)
	}
	settings := solved.Triangle
	exposureError := 0.0
	if solved.Clamped {
		exposureError = round2(settings.EV100() - ev)
	}

	cloud, rain := 0.0, 0.0
	if point != nil && point.CloudCover != nil {
		cloud = clamp(*point.CloudCover, 0, 1)
	}
	if point != nil && point.PrecipitationProbability != nil {
		rain = clamp(*point.PrecipitationProbability, 0, 1)
	}
	phase := phaseFor(sunPos.Altitude)
	quality, score := assessQuality(conditions{
		altitude:    sunPos.Altitude,
		phase:       phase,
		cloud:       cloud,
		factor:      impact.OverallLightReductionFactor,
		moonVisible: moonUp,
	})

	inWindow := overlapsAny(at, sun.GoldenHours()) || overlapsAny(at, sun.BlueHours())
	optimal := (inWindow && impact.OverallLightReductionFactor >= p.cfg.OptimalMinFactor) ||
		(score >= p.cfg.OptimalMinQuality && cloud <= p.cfg.OptimalMaxCloud)

	hour := HourlyPrediction{
		DateTime:                at,
		PredictedEV:             round2(ev),
		ClearSkyEV:              round2(clearEV),
		EVConfidenceMargin:      round2(margin),
		ConfidenceLevel:         round2(confidence),
		SuggestedSettings:       settings,
		SettingsClamped:         solved.Clamped,
		ExposureErrorStops:      exposureError,
		LightQuality:            quality,
		QualityScore:            score,
		Phase:                   phase,
		IsOptimalForPhotography: optimal,
		SunPosition:             sunPos,
		IsMoonVisible:           moonUp,
		MoonIllumination:        round2(moonPos.Illumination),
		Weather:                 impact,
		WeatherMissing:          point == nil,
	}
	hour.Recommendations = p.recommendations(hour, notes, cloud, rain)
	return hour, nil
}

// rainLikely is the precipitation probability above which rain advice
// replaces the phase tips.
const rainLikely = 0.5

func (p *Predictor) recommendations(h HourlyPrediction, notes []string, cloud, rain float64) []string {
	s := h.SuggestedSettings
	out := []string{fmt.Sprintf("Start at %s, %s, %s", s.Aperture.Label, s.Shutter.Label, s.ISO.Label)}
	out = append(out, notes...)
	switch {
	case h.ExposureErrorStops > 0:
		out = append(out, fmt.Sprintf("Underexposed by %.1f stops at the equipment limits; stack exposures or add light", h.ExposureErrorStops))
	case h.ExposureErrorStops < 0:
		out = append(out, fmt.Sprintf("Overexposed by %.1f stops at the equipment limits; add an ND filter", -h.ExposureErrorStops))
	}

	clearSky := cloud <= p.cfg.OptimalMaxCloud && h.Weather.OverallLightReductionFactor >= p.cfg.OptimalMinFactor
	switch {
	case rain >= rainLikely:
		out = append(out, "Rain likely: protect the gear and look for reflections in wet surfaces")
	case !clearSky:
		out = append(out, "Heavy cloud: expect flat, diffuse light")
	}
	if !clearSky {
		return append(out, trailingNotes(h)...)
	}

	switch h.Phase {
	case PhaseGoldenHour:
		out = append(out, "Golden hour: side or back light the subject for warm rim light")
	case PhaseBlueHour:
		out = append(out, "Blue hour: balance ambient sky with artificial lights")
	case PhaseNight, PhaseAstronomical:
		if h.IsMoonVisible {
			out = append(out, fmt.Sprintf("Moon is up at %.0f%% illumination; use it as a key light for landscapes", h.MoonIllumination*100))
		} else {
			out = append(out, "Dark sky: good conditions for astrophotography")
		}
	}
	if h.LightQuality.Shadows == ShadowsHard {
		out = append(out, "Hard shadows: look for open shade or use a diffuser")
	}
	return append(out, trailingNotes(h)...)
}

func trailingNotes(h HourlyPrediction) []string {
	var out []string
	if h.Weather.WindAdvisory {
		out = append(out, "Strong wind: keep shutter speeds fast and weigh down the tripod")
	}
	if h.WeatherMissing {
		out = append(out, "Forecast unavailable; estimate assumes a clear sky")
	}
	return out
}

func overlapsAny(at time.Time, windows []astro.Window) bool {
	end := at.Add(time.Hour)
	for _, w := range windows {
		if w.Overlaps(at, end) {
			return true
		}
	}
	return false
}

func ephemerisError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Wrap(apperrors.CodeEphemerisError, "ephemeris calculation failed", err)
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
