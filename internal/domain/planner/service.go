package planner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/astrocache"
	"github.com/yanqian/lightcast/internal/domain/exposure"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/recommend"
	"github.com/yanqian/lightcast/internal/domain/weather"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
	"github.com/yanqian/lightcast/pkg/util"
)

// Service exposes light planning capabilities.
type Service interface {
	Predict(ctx context.Context, req Request) (PredictionResponse, error)
	Recommend(ctx context.Context, req Request) (RecommendationResponse, error)
	RecordCalibration(ctx context.Context, req CalibrationRequest) error
	Preload(ctx context.Context, locationID string, days int) (astrocache.PreloadResult, error)
	PreloadAll(ctx context.Context, days int) error
}

type WeatherProvider interface {
	Forecast(ctx context.Context, lat, lon float64, from, to time.Time) (weather.Forecast, error)
}

type LocationStore interface {
	Get(ctx context.Context, id string) (Location, error)
	List(ctx context.Context) ([]Location, error)
}

type CalibrationStore interface {
	LatestCalibration(ctx context.Context, locationID string) (lightpredict.Calibration, bool, error)
	SaveCalibration(ctx context.Context, locationID string, c lightpredict.Calibration) error
}

type EquipmentStore interface {
	Get(ctx context.Context, id string) (Gear, error)
}

type Predictor interface {
	Predict(ctx context.Context, req lightpredict.Request) ([]lightpredict.HourlyPrediction, error)
}

// Ephemeris is the cached calculator plus bulk preload.
type Ephemeris interface {
	lightpredict.Ephemeris
	Preload(ctx context.Context, from, to time.Time, lat, lon float64, loc *time.Location) (astrocache.PreloadResult, error)
}

type service struct {
	cfg          Config
	predictor    Predictor
	synthesizer  *recommend.Synthesizer
	ephemeris    Ephemeris
	weather      WeatherProvider
	locations    LocationStore
	calibrations CalibrationStore
	equipment    EquipmentStore
	logger       *slog.Logger
	now          func() time.Time
}

// NewService wires up the planner domain.
func NewService(
	cfg Config,
	predictor Predictor,
	synthesizer *recommend.Synthesizer,
	ephemeris Ephemeris,
	weatherProvider WeatherProvider,
	locations LocationStore,
	calibrations CalibrationStore,
	equipment EquipmentStore,
	logger *slog.Logger,
) Service {
	if cfg.DefaultHours <= 0 {
		cfg.DefaultHours = 24
	}
	if cfg.DefaultTimeZone == "" {
		cfg.DefaultTimeZone = "UTC"
	}
	if cfg.PreloadDays <= 0 {
		cfg.PreloadDays = 7
	}
	return &service{
		cfg:          cfg,
		predictor:    predictor,
		synthesizer:  synthesizer,
		ephemeris:    ephemeris,
		weather:      weatherProvider,
		locations:    locations,
		calibrations: calibrations,
		equipment:    equipment,
		logger:       logger.With("component", "planner.service"),
		now:          time.Now,
	}
}

type plan struct {
	place    Place
	loc      *time.Location
	request  lightpredict.Request
	sunTimes *astro.SunTimes
	source   string
}

func (s *service) Predict(ctx context.Context, req Request) (PredictionResponse, error) {
	p, err := s.resolve(ctx, req)
	if err != nil {
		return PredictionResponse{}, err
	}
	hours, err := s.predictor.Predict(ctx, p.request)
	if err != nil {
		return PredictionResponse{}, predictionError(err)
	}
	s.logger.Info("light prediction served", "place", p.place.Name, "hours", len(hours), "forecast", p.source != "")
	return PredictionResponse{
		ID:             uuid.NewString(),
		Place:          p.place,
		GeneratedAt:    s.now().UTC(),
		ForecastSource: p.source,
		SunTimes:       p.sunTimes,
		Hours:          hours,
	}, nil
}

func (s *service) Recommend(ctx context.Context, req Request) (RecommendationResponse, error) {
	p, err := s.resolve(ctx, req)
	if err != nil {
		return RecommendationResponse{}, err
	}
	hours, err := s.predictor.Predict(ctx, p.request)
	if err != nil {
		return RecommendationResponse{}, predictionError(err)
	}
	rec := s.synthesizer.Synthesize(hours, p.sunTimes)
	s.logger.Info("light recommendation served", "place", p.place.Name, "found", rec.Found, "alternatives", len(rec.Alternatives))
	return RecommendationResponse{
		ID:             uuid.NewString(),
		Place:          p.place,
		GeneratedAt:    s.now().UTC(),
		ForecastSource: p.source,
		Recommendation: rec,
	}, nil
}

func (s *service) RecordCalibration(ctx context.Context, req CalibrationRequest) error {
	if strings.TrimSpace(req.LocationID) == "" {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "locationId is required", nil)
	}
	if _, err := s.locations.Get(ctx, req.LocationID); err != nil {
		return storeError(err, "location")
	}
	measuredAt := s.now().UTC()
	if req.MeasuredAt != "" {
		parsed, err := time.Parse(time.RFC3339, req.MeasuredAt)
		if err != nil {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "measuredAt must be RFC3339", err)
		}
		measuredAt = parsed
	}
	c := lightpredict.Calibration{MeasuredEV: req.MeasuredEV, PredictedEV: req.PredictedEV, MeasuredAt: measuredAt}
	if err := s.calibrations.SaveCalibration(ctx, req.LocationID, c); err != nil {
		return apperrors.Wrap(apperrors.CodeStoreError, "failed to save calibration", err)
	}
	s.logger.Info("calibration recorded", "location", req.LocationID, "shift", req.MeasuredEV-req.PredictedEV)
	return nil
}

func (s *service) Preload(ctx context.Context, locationID string, days int) (astrocache.PreloadResult, error) {
	location, err := s.locations.Get(ctx, locationID)
	if err != nil {
		return astrocache.PreloadResult{}, storeError(err, "location")
	}
	return s.preloadLocation(ctx, location, days)
}

// PreloadAll warms the cache for every saved location and reports every
// failure, not just the first.
func (s *service) PreloadAll(ctx context.Context, days int) error {
	locations, err := s.locations.List(ctx)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeStoreError, "failed to list locations", err)
	}
	var errs []error
	for _, location := range locations {
		if _, err := s.preloadLocation(ctx, location, days); err != nil {
			s.logger.Warn("preload failed", "location", location.ID, "error", err)
			errs = append(errs, fmt.Errorf("preload %s: %w", location.ID, err))
		}
	}
	return errors.Join(errs...)
}

func (s *service) preloadLocation(ctx context.Context, location Location, days int) (astrocache.PreloadResult, error) {
	if days <= 0 {
		days = s.cfg.PreloadDays
	}
	loc, err := loadZone(location.TimeZone)
	if err != nil {
		return astrocache.PreloadResult{}, err
	}
	from := util.StartOfDay(s.now().In(loc))
	to := from.AddDate(0, 0, days-1)
	return s.ephemeris.Preload(ctx, from, to, location.Latitude, location.Longitude, loc)
}

func (s *service) resolve(ctx context.Context, req Request) (plan, error) {
	place, err := s.resolvePlace(ctx, req)
	if err != nil {
		return plan{}, err
	}
	loc, err := loadZone(place.TimeZone)
	if err != nil {
		return plan{}, err
	}
	if err := astro.ValidateCoordinates(place.Latitude, place.Longitude); err != nil {
		return plan{}, err
	}

	start := util.StartOfHour(s.now().In(loc))
	if raw := strings.TrimSpace(req.Start); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return plan{}, apperrors.Wrap(apperrors.CodeInvalidInput, "start must be RFC3339", err)
		}
		start = parsed.In(loc)
	}
	hours := req.Hours
	if hours == 0 {
		hours = s.cfg.DefaultHours
	}
	scale, err := exposure.ParseStopScale(firstNonEmpty(req.StopScale, s.cfg.DefaultStopScale))
	if err != nil {
		return plan{}, err
	}

	p := plan{
		place: place,
		loc:   loc,
		request: lightpredict.Request{
			Latitude:  place.Latitude,
			Longitude: place.Longitude,
			Location:  loc,
			Start:     start,
			Hours:     hours,
			StopScale: scale,
		},
	}

	if id := strings.TrimSpace(req.EquipmentID); id != "" {
		gear, err := s.equipment.Get(ctx, id)
		if err != nil {
			return plan{}, storeError(err, "equipment")
		}
		p.request.Equipment = &gear.Equipment
	}
	if place.ID != "" {
		c, ok, err := s.calibrations.LatestCalibration(ctx, place.ID)
		switch {
		case err != nil:
			s.logger.Warn("calibration lookup failed", "location", place.ID, "error", err)
		case ok:
			p.request.Calibration = &c
		}
	}

	if hours >= 1 {
		forecast, err := s.weather.Forecast(ctx, place.Latitude, place.Longitude, start, start.Add(time.Duration(hours)*time.Hour))
		if err != nil {
			s.logger.Warn("forecast unavailable; predicting clear sky", "latitude", place.Latitude, "longitude", place.Longitude, "error", err)
		} else {
			forecast.Sort()
			p.request.Forecast = &forecast
			p.source = forecast.Source
		}
	}

	if st, err := s.ephemeris.SunTimes(ctx, start, place.Latitude, place.Longitude, loc); err == nil {
		p.sunTimes = &st
	} else {
		return plan{}, predictionError(err)
	}
	return p, nil
}

func (s *service) resolvePlace(ctx context.Context, req Request) (Place, error) {
	if id := strings.TrimSpace(req.LocationID); id != "" {
		location, err := s.locations.Get(ctx, id)
		if err != nil {
			return Place{}, storeError(err, "location")
		}
		return Place{
			ID:        location.ID,
			Name:      location.Name,
			Latitude:  location.Latitude,
			Longitude: location.Longitude,
			TimeZone:  firstNonEmpty(location.TimeZone, s.cfg.DefaultTimeZone),
		}, nil
	}
	if req.Latitude == nil || req.Longitude == nil {
		return Place{}, apperrors.Wrap(apperrors.CodeInvalidInput, "either locationId or latitude and longitude are required", nil)
	}
	return Place{
		Latitude:  *req.Latitude,
		Longitude: *req.Longitude,
		TimeZone:  firstNonEmpty(req.TimeZone, s.cfg.DefaultTimeZone),
	}, nil
}

func loadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown time zone "+name, err)
	}
	return loc, nil
}

func storeError(err error, what string) error {
	if errors.Is(err, ErrNotFound) {
		return apperrors.Wrap(apperrors.CodeNotFound, what+" not found", err)
	}
	return apperrors.Wrap(apperrors.CodeStoreError, "failed to load "+what, err)
}

func predictionError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return apperrors.Wrap(apperrors.CodePredictionError, "light prediction failed", err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
