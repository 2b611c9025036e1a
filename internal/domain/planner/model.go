package planner

import (
	"errors"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
	"github.com/yanqian/lightcast/internal/domain/recommend"
)

// ErrNotFound is returned by stores when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Location is a saved shooting spot.
type Location struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  string  `json:"timezone"`
}

// Gear is a saved camera and lens combination.
type Gear struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Equipment lightpredict.Equipment `json:"equipment"`
}

// Request captures the payload accepted by Predict and Recommend. Either
// LocationID or Latitude/Longitude must be set.
type Request struct {
	LocationID  string   `json:"locationId"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	TimeZone    string   `json:"timezone"`
	Start       string   `json:"start"`
	Hours       int      `json:"hours"`
	StopScale   string   `json:"stopScale"`
	EquipmentID string   `json:"equipmentId"`
}

// CalibrationRequest records a light-meter reading for a saved location.
type CalibrationRequest struct {
	LocationID  string  `json:"locationId"`
	MeasuredEV  float64 `json:"measuredEv"`
	PredictedEV float64 `json:"predictedEv"`
	MeasuredAt  string  `json:"measuredAt"`
}

// Place is the resolved location echoed back to clients.
type Place struct {
	ID        string  `json:"id,omitempty"`
	Name      string  `json:"name,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	TimeZone  string  `json:"timezone"`
}

// PredictionResponse is serialized back to API consumers.
type PredictionResponse struct {
	ID             string                          `json:"id"`
	Place          Place                           `json:"place"`
	GeneratedAt    time.Time                       `json:"generatedAt"`
	ForecastSource string                          `json:"forecastSource,omitempty"`
	SunTimes       *astro.SunTimes                 `json:"sunTimes,omitempty"`
	Hours          []lightpredict.HourlyPrediction `json:"hours"`
}

// RecommendationResponse wraps the synthesized windows.
type RecommendationResponse struct {
	ID             string                   `json:"id"`
	Place          Place                    `json:"place"`
	GeneratedAt    time.Time                `json:"generatedAt"`
	ForecastSource string                   `json:"forecastSource,omitempty"`
	Recommendation recommend.Recommendation `json:"recommendation"`
}

// Config wires runtime defaults for the planner.
type Config struct {
	DefaultHours     int
	DefaultTimeZone  string
	DefaultStopScale string
	PreloadDays      int
}
