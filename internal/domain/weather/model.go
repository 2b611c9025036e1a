package weather

import (
	"sort"
	"time"
)

// ForecastPoint is one hourly forecast sample. Fractions are 0..1; a nil
// field means the provider did not report that dimension.
type ForecastPoint struct {
	Time                     time.Time `json:"time"`
	TemperatureC             *float64  `json:"temperatureC,omitempty"`
	CloudCover               *float64  `json:"cloudCover,omitempty"`
	PrecipitationProbability *float64  `json:"precipitationProbability,omitempty"`
	Humidity                 *float64  `json:"humidity,omitempty"`
	VisibilityKm             *float64  `json:"visibilityKm,omitempty"`
	WindSpeedKmh             *float64  `json:"windSpeedKmh,omitempty"`
}

// Forecast is an hourly series for one location.
type Forecast struct {
	Latitude  float64         `json:"latitude"`
	Longitude float64         `json:"longitude"`
	Source    string          `json:"source"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Points    []ForecastPoint `json:"points"`
}

// At returns the point whose hour contains t, or nil.
func (f Forecast) At(t time.Time) *ForecastPoint {
	hour := t.UTC().Truncate(time.Hour)
	idx := sort.Search(len(f.Points), func(i int) bool {
		return !f.Points[i].Time.UTC().Truncate(time.Hour).Before(hour)
	})
	if idx < len(f.Points) && f.Points[idx].Time.UTC().Truncate(time.Hour).Equal(hour) {
		p := f.Points[idx]
		return &p
	}
	return nil
}

// Sort orders points by time so At can binary search.
func (f *Forecast) Sort() {
	sort.Slice(f.Points, func(i, j int) bool { return f.Points[i].Time.Before(f.Points[j].Time) })
}

// ImpactFactor describes how weather attenuates light for one hour.
type ImpactFactor struct {
	CloudCoverReduction         float64  `json:"cloudCoverReduction"`
	PrecipitationReduction      float64  `json:"precipitationReduction"`
	HumidityReduction           float64  `json:"humidityReduction"`
	VisibilityReduction         float64  `json:"visibilityReduction"`
	OverallLightReductionFactor float64  `json:"overallLightReductionFactor"`
	ConfidenceImpact            float64  `json:"confidenceImpact"`
	Missing                     bool     `json:"missing"`
	WindAdvisory                bool     `json:"windAdvisory"`
	Reasoning                   []string `json:"reasoning"`
}

// Config holds the attenuation curves. Fractions are 0..1.
type Config struct {
	CloudFreeThreshold      float64 `yaml:"cloudFreeThreshold"`
	CloudMaxReduction       float64 `yaml:"cloudMaxReduction"`
	PrecipMaxReduction      float64 `yaml:"precipMaxReduction"`
	HumidityThreshold       float64 `yaml:"humidityThreshold"`
	HumidityMaxReduction    float64 `yaml:"humidityMaxReduction"`
	VisibilityReferenceKm   float64 `yaml:"visibilityReferenceKm"`
	VisibilityMaxReduction  float64 `yaml:"visibilityMaxReduction"`
	MinFactor               float64 `yaml:"minFactor"`
	MissingDimensionPenalty float64 `yaml:"missingDimensionPenalty"`
	LeadTimePenaltyPerDay   float64 `yaml:"leadTimePenaltyPerDay"`
	LeadTimePenaltyCap      float64 `yaml:"leadTimePenaltyCap"`
	MissingPointPenalty     float64 `yaml:"missingPointPenalty"`
	WindAdvisoryKmh         float64 `yaml:"windAdvisoryKmh"`
}

// DefaultConfig returns the standard curves.
func DefaultConfig() Config {
	return Config{
		CloudFreeThreshold:      0.2,
		CloudMaxReduction:       0.6,
		PrecipMaxReduction:      0.5,
		HumidityThreshold:       0.8,
		HumidityMaxReduction:    0.1,
		VisibilityReferenceKm:   10,
		VisibilityMaxReduction:  0.3,
		MinFactor:               0.01,
		MissingDimensionPenalty: 0.1,
		LeadTimePenaltyPerDay:   0.05,
		LeadTimePenaltyCap:      0.25,
		MissingPointPenalty:     0.5,
		WindAdvisoryKmh:         30,
	}
}
