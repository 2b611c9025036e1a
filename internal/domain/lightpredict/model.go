package lightpredict

import (
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/exposure"
	"github.com/yanqian/lightcast/internal/domain/weather"
)

// Phase classifies the sky by solar altitude.
type Phase string

const (
	PhaseNight        Phase = "night"
	PhaseAstronomical Phase = "astronomical_twilight"
	PhaseNautical     Phase = "nautical_twilight"
	PhaseBlueHour     Phase = "blue_hour"
	PhaseGoldenHour   Phase = "golden_hour"
	PhaseDaylight     Phase = "daylight"
)

// ColorTone is the perceived color cast of the light.
type ColorTone string

const (
	ToneWarm    ColorTone = "warm"
	ToneNeutral ColorTone = "neutral"
	ToneCool    ColorTone = "cool"
)

// ShadowHardness grades shadow edges from direct sun.
type ShadowHardness string

const (
	ShadowsNone   ShadowHardness = "none"
	ShadowsSoft   ShadowHardness = "soft"
	ShadowsMedium ShadowHardness = "medium"
	ShadowsHard   ShadowHardness = "hard"
)

// LightQuality is the character of the light in one hour.
type LightQuality struct {
	Label             string         `json:"label"`
	ColorTemperatureK int            `json:"colorTemperatureK"`
	Tone              ColorTone      `json:"tone"`
	Shadows           ShadowHardness `json:"shadows"`
}

// HourlyPrediction is the light estimate for one hour.
type HourlyPrediction struct {
	DateTime                time.Time               `json:"dateTime"`
	PredictedEV             float64                 `json:"predictedEv"`
	ClearSkyEV              float64                 `json:"clearSkyEv"`
	EVConfidenceMargin      float64                 `json:"evConfidenceMargin"`
	ConfidenceLevel         float64                 `json:"confidenceLevel"`
	SuggestedSettings       exposure.Triangle       `json:"suggestedSettings"`
	// SettingsClamped is set when the equipment cannot reach a correct
	// exposure; ExposureErrorStops is then positive for underexposure.
	SettingsClamped         bool                    `json:"settingsClamped"`
	ExposureErrorStops      float64                 `json:"exposureErrorStops"`
	LightQuality            LightQuality            `json:"lightQuality"`
	QualityScore            float64                 `json:"qualityScore"`
	Phase                   Phase                   `json:"phase"`
	Recommendations         []string                `json:"recommendations"`
	IsOptimalForPhotography bool                    `json:"isOptimalForPhotography"`
	SunPosition             astro.CelestialPosition `json:"sunPosition"`
	IsMoonVisible           bool                    `json:"isMoonVisible"`
	MoonIllumination        float64                 `json:"moonIllumination"`
	Weather                 weather.ImpactFactor    `json:"weather"`
	WeatherMissing          bool                    `json:"weatherMissing"`
}

// Calibration is a light-meter reading compared against the model.
type Calibration struct {
	MeasuredEV  float64   `json:"measuredEv"`
	PredictedEV float64   `json:"predictedEv"`
	MeasuredAt  time.Time `json:"measuredAt"`
}

// Equipment constrains suggested settings. Zero fields use defaults.
type Equipment struct {
	FocalLengthMM float64 `json:"focalLengthMm"`
	// MaxAperture is the widest opening (smallest f-number).
	MaxAperture float64 `json:"maxAperture"`
	// MinAperture is the narrowest opening (largest f-number).
	MinAperture float64 `json:"minAperture"`
	MinISO      int     `json:"minIso"`
	MaxISO      int     `json:"maxIso"`
}

// Request asks for hours consecutive hourly predictions starting at Start.
type Request struct {
	Latitude    float64
	Longitude   float64
	Location    *time.Location
	Start       time.Time
	Hours       int
	Forecast    *weather.Forecast
	Calibration *Calibration
	Equipment   *Equipment
	StopScale   exposure.StopScale
}

// Config holds predictor tuning.
type Config struct {
	MaxHours            int           `yaml:"maxHours"`
	BaseMargin          float64       `yaml:"baseMargin"`
	CalibrationHalfLife time.Duration `yaml:"calibrationHalfLife"`
	MaxCalibrationShift float64       `yaml:"maxCalibrationShift"`
	OptimalMinFactor    float64       `yaml:"optimalMinFactor"`
	OptimalMinQuality   float64       `yaml:"optimalMinQuality"`
	OptimalMaxCloud     float64       `yaml:"optimalMaxCloud"`
}

// DefaultConfig returns the standard tuning.
func DefaultConfig() Config {
	return Config{
		MaxHours:            168,
		BaseMargin:          1.0,
		CalibrationHalfLife: 24 * time.Hour,
		MaxCalibrationShift: 2,
		OptimalMinFactor:    0.35,
		OptimalMinQuality:   0.75,
		OptimalMaxCloud:     0.30,
	}
}
