package recommend

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/yanqian/lightcast/internal/domain/astro"
	"github.com/yanqian/lightcast/internal/domain/lightpredict"
)

// Window is a run of consecutive optimal hours. End is one hour after the
// last hour in the run.
type Window struct {
	Start        time.Time                       `json:"start"`
	End          time.Time                       `json:"end"`
	QualityScore float64                         `json:"qualityScore"`
	Description  string                          `json:"description"`
	Hours        []lightpredict.HourlyPrediction `json:"-"`
}

// Recommendation is the ranked outcome for a prediction run.
type Recommendation struct {
	Found        bool     `json:"found"`
	Best         *Window  `json:"best,omitempty"`
	Alternatives []Window `json:"alternatives"`
	Summary      string   `json:"summary"`
	KeyInsights  []string `json:"keyInsights"`
}

// Synthesizer turns hourly predictions into shooting windows.
type Synthesizer struct {
	alternatives int
}

const defaultAlternatives = 3

// NewSynthesizer keeps up to alternatives runner-up windows.
func NewSynthesizer(alternatives int) *Synthesizer {
	if alternatives <= 0 {
		alternatives = defaultAlternatives
	}
	return &Synthesizer{alternatives: alternatives}
}

// Synthesize merges optimal hours into windows and ranks them by mean
// quality weighted by confidence. sun may be nil.
func (s *Synthesizer) Synthesize(hours []lightpredict.HourlyPrediction, sun *astro.SunTimes) Recommendation {
	windows := mergeWindows(hours)
	sort.SliceStable(windows, func(i, j int) bool {
		if windows[i].QualityScore == windows[j].QualityScore {
			return windows[i].Start.Before(windows[j].Start)
		}
		return windows[i].QualityScore > windows[j].QualityScore
	})

	rec := Recommendation{
		Alternatives: []Window{},
		KeyInsights:  keyInsights(hours, sun),
	}
	if len(windows) == 0 {
		rec.Summary = noWindowSummary(hours)
		return rec
	}

	best := windows[0]
	rec.Found = true
	rec.Best = &best
	rest := windows[1:]
	if len(rest) > s.alternatives {
		rest = rest[:s.alternatives]
	}
	rec.Alternatives = append(rec.Alternatives, rest...)
	rec.Summary = fmt.Sprintf("Best light: %s. %s", best.Description, confidencePhrase(best))
	return rec
}

func mergeWindows(hours []lightpredict.HourlyPrediction) []Window {
	var (
		out []Window
		run []lightpredict.HourlyPrediction
	)
	flush := func() {
		if len(run) > 0 {
			out = append(out, newWindow(run))
			run = nil
		}
	}
	for _, h := range hours {
		if !h.IsOptimalForPhotography {
			flush()
			continue
		}
		if len(run) > 0 && !h.DateTime.Equal(run[len(run)-1].DateTime.Add(time.Hour)) {
			flush()
		}
		run = append(run, h)
	}
	flush()
	return out
}

func newWindow(run []lightpredict.HourlyPrediction) Window {
	total := 0.0
	for _, h := range run {
		total += h.QualityScore * h.ConfidenceLevel
	}
	w := Window{
		Start:        run[0].DateTime,
		End:          run[len(run)-1].DateTime.Add(time.Hour),
		QualityScore: math.Round(total/float64(len(run))*1000) / 1000,
		Hours:        run,
	}
	w.Description = fmt.Sprintf("%s from %s to %s",
		dominantLabel(run), w.Start.Format("Mon 15:04"), w.End.Format("15:04"))
	return w
}

// dominantLabel picks the most frequent light label; ties go to the earliest.
func dominantLabel(run []lightpredict.HourlyPrediction) string {
	counts := map[string]int{}
	best, bestCount := "", 0
	for _, h := range run {
		label := h.LightQuality.Label
		counts[label]++
		if counts[label] > bestCount {
			best, bestCount = label, counts[label]
		}
	}
	return best
}

func confidencePhrase(w Window) string {
	mean := 0.0
	for _, h := range w.Hours {
		mean += h.ConfidenceLevel
	}
	mean /= float64(len(w.Hours))
	switch {
	case mean >= 0.8:
		return "Forecast confidence is high."
	case mean >= 0.5:
		return "Forecast confidence is moderate."
	default:
		return "Forecast confidence is low; check conditions closer to the time."
	}
}

func noWindowSummary(hours []lightpredict.HourlyPrediction) string {
	if len(hours) == 0 {
		return "No optimal window found: no hours were predicted."
	}
	worst := 1.0
	for _, h := range hours {
		worst = math.Min(worst, h.Weather.OverallLightReductionFactor)
	}
	if worst < 0.35 {
		return "No optimal window found: heavy cloud or rain dims the light throughout this period."
	}
	return "No optimal window found in this period; light stays flat or dark."
}

func keyInsights(hours []lightpredict.HourlyPrediction, sun *astro.SunTimes) []string {
	insights := []string{}
	if sun != nil {
		if w := sun.GoldenHourMorning; w != nil {
			insights = append(insights, fmt.Sprintf("Morning golden hour starts at %s", w.Start.Format("15:04")))
		}
		if w := sun.GoldenHourEvening; w != nil {
			insights = append(insights, fmt.Sprintf("Evening golden hour starts at %s", w.Start.Format("15:04")))
		}
		switch {
		case sun.AlwaysUp:
			insights = append(insights, "The sun does not set today")
		case sun.AlwaysDown:
			insights = append(insights, "The sun does not rise today")
		}
	}
	if len(hours) == 0 {
		return insights
	}

	missing, windy := 0, 0
	cloudSum, cloudN := 0.0, 0
	moonHours, moonIllum := 0, 0.0
	for _, h := range hours {
		if h.WeatherMissing {
			missing++
		} else {
			cloudSum += h.Weather.CloudCoverReduction
			cloudN++
		}
		if h.Weather.WindAdvisory {
			windy++
		}
		if h.IsMoonVisible && h.Phase == lightpredict.PhaseNight {
			moonHours++
			moonIllum = math.Max(moonIllum, h.MoonIllumination)
		}
	}
	switch {
	case missing == len(hours):
		insights = append(insights, "No forecast available; estimates assume a clear sky")
	case cloudN > 0 && cloudSum/float64(cloudN) > 0.3:
		insights = append(insights, "Cloud cover will noticeably soften and dim the light")
	case cloudN > 0 && cloudSum/float64(cloudN) < 0.05:
		insights = append(insights, "Mostly clear skies expected")
	}
	if windy > 0 {
		insights = append(insights, fmt.Sprintf("Strong wind expected for %d hour(s)", windy))
	}
	if moonHours > 0 {
		insights = append(insights, fmt.Sprintf("Moon visible for %d night hour(s), up to %.0f%% illuminated", moonHours, moonIllum*100))
	}
	return insights
}
