package weather

import (
	"fmt"
	"math"
	"time"
)

// Analyzer converts forecast samples into light attenuation. It is pure and
// safe for concurrent use.
type Analyzer struct {
	cfg Config
}

// NewAnalyzer fills zero-valued config fields from DefaultConfig.
func NewAnalyzer(cfg Config) *Analyzer {
	return &Analyzer{cfg: withDefaults(cfg)}
}

func withDefaults(cfg Config) Config {
	def := DefaultConfig()
	pick := func(v, d float64) float64 {
		if v <= 0 {
			return d
		}
		return v
	}
	return Config{
		CloudFreeThreshold:      pick(cfg.CloudFreeThreshold, def.CloudFreeThreshold),
		CloudMaxReduction:       pick(cfg.CloudMaxReduction, def.CloudMaxReduction),
		PrecipMaxReduction:      pick(cfg.PrecipMaxReduction, def.PrecipMaxReduction),
		HumidityThreshold:       pick(cfg.HumidityThreshold, def.HumidityThreshold),
		HumidityMaxReduction:    pick(cfg.HumidityMaxReduction, def.HumidityMaxReduction),
		VisibilityReferenceKm:   pick(cfg.VisibilityReferenceKm, def.VisibilityReferenceKm),
		VisibilityMaxReduction:  pick(cfg.VisibilityMaxReduction, def.VisibilityMaxReduction),
		MinFactor:               pick(cfg.MinFactor, def.MinFactor),
		MissingDimensionPenalty: pick(cfg.MissingDimensionPenalty, def.MissingDimensionPenalty),
		LeadTimePenaltyPerDay:   pick(cfg.LeadTimePenaltyPerDay, def.LeadTimePenaltyPerDay),
		LeadTimePenaltyCap:      pick(cfg.LeadTimePenaltyCap, def.LeadTimePenaltyCap),
		MissingPointPenalty:     pick(cfg.MissingPointPenalty, def.MissingPointPenalty),
		WindAdvisoryKmh:         pick(cfg.WindAdvisoryKmh, def.WindAdvisoryKmh),
	}
}

// Config returns the effective configuration.
func (a *Analyzer) Config() Config {
	return a.cfg
}

// Analyze scores one hour. leadTime is how far ahead of now the hour lies;
// longer horizons reduce confidence. A nil point yields a neutral factor
// flagged Missing.
func (a *Analyzer) Analyze(point *ForecastPoint, leadTime time.Duration) ImpactFactor {
	if point == nil {
		return ImpactFactor{
			OverallLightReductionFactor: 1,
			ConfidenceImpact:            clamp01(a.cfg.MissingPointPenalty + a.leadPenalty(leadTime)),
			Missing:                     true,
			Reasoning:                   []string{"no forecast for this hour; assuming clear sky"},
		}
	}

	var (
		out     ImpactFactor
		penalty float64
	)
	missing := func(name string) {
		penalty += a.cfg.MissingDimensionPenalty
		out.Reasoning = append(out.Reasoning, name+" unavailable; confidence lowered")
	}

	if c, ok := fraction(point.CloudCover); ok {
		out.CloudCoverReduction = a.cloudReduction(c)
		out.Reasoning = append(out.Reasoning, fmt.Sprintf("cloud cover %.0f%% reduces light by %.0f%%", c*100, out.CloudCoverReduction*100))
	} else {
		missing("cloud cover")
	}

	if p, ok := fraction(point.PrecipitationProbability); ok {
		out.PrecipitationReduction = a.cfg.PrecipMaxReduction * p
		out.Reasoning = append(out.Reasoning, fmt.Sprintf("precipitation chance %.0f%% reduces light by %.0f%%", p*100, out.PrecipitationReduction*100))
	} else {
		missing("precipitation probability")
	}

	if h, ok := fraction(point.Humidity); ok {
		if h > a.cfg.HumidityThreshold {
			span := 1 - a.cfg.HumidityThreshold
			out.HumidityReduction = a.cfg.HumidityMaxReduction * (h - a.cfg.HumidityThreshold) / span
			out.Reasoning = append(out.Reasoning, fmt.Sprintf("humidity %.0f%% adds haze", h*100))
		} else {
			out.Reasoning = append(out.Reasoning, fmt.Sprintf("humidity %.0f%% has no effect", h*100))
		}
	} else {
		missing("humidity")
	}

	if v := point.VisibilityKm; v != nil && !math.IsNaN(*v) && *v >= 0 {
		ref := a.cfg.VisibilityReferenceKm
		if *v < ref {
			out.VisibilityReduction = a.cfg.VisibilityMaxReduction * (ref - *v) / ref
			out.Reasoning = append(out.Reasoning, fmt.Sprintf("visibility %.1f km reduces contrast", *v))
		} else {
			out.Reasoning = append(out.Reasoning, fmt.Sprintf("visibility %.0f km is clear", *v))
		}
	} else {
		missing("visibility")
	}

	if w := point.WindSpeedKmh; w != nil && *w >= a.cfg.WindAdvisoryKmh {
		out.WindAdvisory = true
		out.Reasoning = append(out.Reasoning, fmt.Sprintf("wind %.0f km/h may cause motion blur", *w))
	}

	overall := (1 - out.CloudCoverReduction) *
		(1 - out.PrecipitationReduction) *
		(1 - out.HumidityReduction) *
		(1 - out.VisibilityReduction)
	out.OverallLightReductionFactor = math.Max(overall, a.cfg.MinFactor)
	out.ConfidenceImpact = clamp01(penalty + a.leadPenalty(leadTime))
	return out
}

func (a *Analyzer) cloudReduction(c float64) float64 {
	if c <= a.cfg.CloudFreeThreshold {
		return 0
	}
	return a.cfg.CloudMaxReduction * (c - a.cfg.CloudFreeThreshold) / (1 - a.cfg.CloudFreeThreshold)
}

func (a *Analyzer) leadPenalty(lead time.Duration) float64 {
	if lead <= 0 {
		return 0
	}
	days := lead.Hours() / 24
	return math.Min(days*a.cfg.LeadTimePenaltyPerDay, a.cfg.LeadTimePenaltyCap)
}

// fraction treats nil, NaN and values outside 0..1 as missing.
func fraction(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || *v < 0 || *v > 1 {
		return 0, false
	}
	return *v, true
}

func clamp01(v float64) float64 {
	return math.Min(math.Max(v, 0), 1)
}
