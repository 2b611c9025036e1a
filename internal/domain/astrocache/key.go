package astrocache

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
)

const (
	kindSunTimes  = "sun-times"
	kindMoonPhase = "moon-phase"
)

// keyer builds stable keys: kind|instant|lat|lon|tz with the instant
// truncated to the minute in UTC and coordinates rounded to precision.
type keyer struct {
	precision int
}

func (k keyer) round(v float64) float64 {
	p := math.Pow10(k.precision)
	return math.Round(v*p) / p
}

func (k keyer) coord(v float64) string {
	return strconv.FormatFloat(k.round(v), 'f', k.precision, 64)
}

func (k keyer) position(target astro.Target, m astro.GeoMoment) string {
	return join(string(target), minute(m.Instant).Format(time.RFC3339), k.coord(m.Latitude), k.coord(m.Longitude), m.Location.String())
}

func (k keyer) sunTimes(date time.Time, lat, lon float64, loc *time.Location) string {
	return join(kindSunTimes, date.Format(time.DateOnly), k.coord(lat), k.coord(lon), loc.String())
}

func (k keyer) moonPhase(m astro.GeoMoment) string {
	return join(kindMoonPhase, minute(m.Instant).Format(time.RFC3339), m.Location.String())
}

// normalize returns the moment the key describes, so a cached value is the
// same no matter which caller computed it first.
func (k keyer) normalize(m astro.GeoMoment) astro.GeoMoment {
	m.Latitude = k.round(m.Latitude)
	m.Longitude = k.round(m.Longitude)
	m.Instant = minute(m.Instant)
	return m
}

func minute(t time.Time) time.Time {
	return t.UTC().Truncate(time.Minute)
}

func join(parts ...string) string {
	return strings.Join(parts, "|")
}
