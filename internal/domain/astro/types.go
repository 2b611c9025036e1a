package astro

import (
	"math"
	"strings"
	"time"

	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// Target names a body the calculator can locate.
type Target string

const (
	TargetSun     Target = "sun"
	TargetMoon    Target = "moon"
	TargetMercury Target = "mercury"
	TargetVenus   Target = "venus"
	TargetMars    Target = "mars"
	TargetJupiter Target = "jupiter"
	TargetSaturn  Target = "saturn"
)

// Targets lists every supported body in display order.
var Targets = []Target{TargetSun, TargetMoon, TargetMercury, TargetVenus, TargetMars, TargetJupiter, TargetSaturn}

// ParseTarget accepts a case-insensitive body name.
func ParseTarget(raw string) (Target, error) {
	candidate := Target(strings.ToLower(strings.TrimSpace(raw)))
	for _, t := range Targets {
		if t == candidate {
			return t, nil
		}
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unknown target "+raw, nil)
}

// IsPlanet reports whether t is one of the naked-eye planets.
func (t Target) IsPlanet() bool {
	_, ok := planetElements[t]
	return ok
}

// GeoMoment is an observer location plus an instant.
type GeoMoment struct {
	Latitude  float64        `json:"latitude"`
	Longitude float64        `json:"longitude"`
	Location  *time.Location `json:"-"`
	Instant   time.Time      `json:"instant"`
}

// NewGeoMoment builds a GeoMoment and validates it.
func NewGeoMoment(lat, lon float64, loc *time.Location, instant time.Time) (GeoMoment, error) {
	m := GeoMoment{Latitude: lat, Longitude: lon, Location: loc, Instant: instant}
	if err := m.Validate(); err != nil {
		return GeoMoment{}, err
	}
	return m, nil
}

// Validate rejects coordinates outside the globe and a missing time zone.
func (m GeoMoment) Validate() error {
	if err := ValidateCoordinates(m.Latitude, m.Longitude); err != nil {
		return err
	}
	if m.Location == nil {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "time zone is required", nil)
	}
	if m.Instant.IsZero() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "instant is required", nil)
	}
	return nil
}

// Local returns the instant in the observer's time zone.
func (m GeoMoment) Local() time.Time {
	if m.Location == nil {
		return m.Instant
	}
	return m.Instant.In(m.Location)
}

// ValidateCoordinates checks latitude and longitude ranges.
func ValidateCoordinates(lat, lon float64) error {
	if math.IsNaN(lat) || lat < -90 || lat > 90 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "latitude must be within [-90, 90]", nil)
	}
	if math.IsNaN(lon) || lon < -180 || lon > 180 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "longitude must be within [-180, 180]", nil)
	}
	return nil
}

// Window is a closed time interval.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration is End - Start.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Overlaps reports whether [start, end) intersects the window.
func (w Window) Overlaps(start, end time.Time) bool {
	return start.Before(w.End) && end.After(w.Start)
}

// SunTimes holds the solar events of one local calendar day. A nil field
// means the event does not occur that day.
type SunTimes struct {
	Date              string     `json:"date"`
	Sunrise           *time.Time `json:"sunrise,omitempty"`
	Sunset            *time.Time `json:"sunset,omitempty"`
	SolarNoon         *time.Time `json:"solarNoon,omitempty"`
	CivilDawn         *time.Time `json:"civilDawn,omitempty"`
	CivilDusk         *time.Time `json:"civilDusk,omitempty"`
	NauticalDawn      *time.Time `json:"nauticalDawn,omitempty"`
	NauticalDusk      *time.Time `json:"nauticalDusk,omitempty"`
	AstronomicalDawn  *time.Time `json:"astronomicalDawn,omitempty"`
	AstronomicalDusk  *time.Time `json:"astronomicalDusk,omitempty"`
	GoldenHourMorning *Window    `json:"goldenHourMorning,omitempty"`
	GoldenHourEvening *Window    `json:"goldenHourEvening,omitempty"`
	BlueHourMorning   *Window    `json:"blueHourMorning,omitempty"`
	BlueHourEvening   *Window    `json:"blueHourEvening,omitempty"`
	AlwaysUp          bool       `json:"alwaysUp"`
	AlwaysDown        bool       `json:"alwaysDown"`
}

// DayLength returns sunset - sunrise when both occur.
func (s SunTimes) DayLength() (time.Duration, bool) {
	if s.Sunrise == nil || s.Sunset == nil {
		return 0, false
	}
	return s.Sunset.Sub(*s.Sunrise), true
}

// GoldenHours returns the golden-hour windows that exist.
func (s SunTimes) GoldenHours() []Window {
	return presentWindows(s.GoldenHourMorning, s.GoldenHourEvening)
}

// BlueHours returns the blue-hour windows that exist.
func (s SunTimes) BlueHours() []Window {
	return presentWindows(s.BlueHourMorning, s.BlueHourEvening)
}

func presentWindows(ws ...*Window) []Window {
	out := make([]Window, 0, len(ws))
	for _, w := range ws {
		if w != nil {
			out = append(out, *w)
		}
	}
	return out
}

// CelestialPosition is the topocentric position of a body plus its events
// for the observer's local day.
type CelestialPosition struct {
	Target       Target     `json:"target"`
	Instant      time.Time  `json:"instant"`
	Azimuth      float64    `json:"azimuth"`
	Altitude     float64    `json:"altitude"`
	DistanceKm   float64    `json:"distanceKm"`
	Illumination float64    `json:"illumination"`
	Rise         *time.Time `json:"rise,omitempty"`
	Set          *time.Time `json:"set,omitempty"`
	Transit      *time.Time `json:"transit,omitempty"`
	IsVisible    bool       `json:"isVisible"`
}

// MoonPhase describes lunar illumination at an instant.
type MoonPhase struct {
	Instant    time.Time `json:"instant"`
	Fraction   float64   `json:"fraction"`
	Elongation float64   `json:"elongation"`
	Waxing     bool      `json:"waxing"`
	Name       PhaseName `json:"name"`
}
