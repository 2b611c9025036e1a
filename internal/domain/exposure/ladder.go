package exposure

import (
	"math"
	"strconv"
	"strings"

	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// Axis is one leg of the exposure triangle.
type Axis string

const (
	AxisAperture Axis = "aperture"
	AxisShutter  Axis = "shutter"
	AxisISO      Axis = "iso"
)

// ParseAxis accepts aperture, shutter or iso.
func ParseAxis(raw string) (Axis, error) {
	switch Axis(strings.ToLower(strings.TrimSpace(raw))) {
	case AxisAperture, "f", "fnumber":
		return AxisAperture, nil
	case AxisShutter, "shutterspeed", "time":
		return AxisShutter, nil
	case AxisISO:
		return AxisISO, nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unknown axis "+raw, nil)
}

// StopScale is the ladder granularity.
type StopScale string

const (
	ScaleFull  StopScale = "full"
	ScaleHalf  StopScale = "half"
	ScaleThird StopScale = "third"
)

// ParseStopScale defaults an empty value to third stops.
func ParseStopScale(raw string) (StopScale, error) {
	switch StopScale(strings.ToLower(strings.TrimSpace(raw))) {
	case "":
		return ScaleThird, nil
	case ScaleFull:
		return ScaleFull, nil
	case ScaleHalf:
		return ScaleHalf, nil
	case ScaleThird:
		return ScaleThird, nil
	}
	return "", apperrors.Wrap(apperrors.CodeInvalidInput, "unknown stop scale "+raw, nil)
}

// StepsPerStop returns 1, 2 or 3.
func (s StopScale) StepsPerStop() int {
	switch s {
	case ScaleHalf:
		return 2
	case ScaleThird:
		return 3
	default:
		return 1
	}
}

func (s StopScale) valid() bool {
	return s == ScaleFull || s == ScaleHalf || s == ScaleThird
}

// Value is a setting on one axis. Index is in stops: aperture 2*log2(N),
// shutter -log2(t), ISO log2(S/100).
type Value struct {
	Raw   float64 `json:"value"`
	Index float64 `json:"index"`
	Label string  `json:"label"`
}

// ladder is a nominal sequence of settings; entry k sits at origin + k/steps.
type ladder struct {
	origin float64
	steps  int
	labels []string
	values []float64
}

func (l ladder) index(k int) float64 {
	return l.origin + float64(k)/float64(l.steps)
}

func (l ladder) max() float64 {
	return l.index(len(l.values) - 1)
}

func (l ladder) value(k int) Value {
	return Value{Raw: l.values[k], Index: l.index(k), Label: l.labels[k]}
}

var (
	apertureFull  = []float64{1, 1.4, 2, 2.8, 4, 5.6, 8, 11, 16, 22, 32, 45, 64}
	apertureHalf  = []float64{1, 1.2, 1.4, 1.7, 2, 2.4, 2.8, 3.3, 4, 4.8, 5.6, 6.7, 8, 9.5, 11, 13, 16, 19, 22, 27, 32, 38, 45, 54, 64}
	apertureThird = []float64{1, 1.1, 1.2, 1.4, 1.6, 1.8, 2, 2.2, 2.5, 2.8, 3.2, 3.5, 4, 4.5, 5, 5.6, 6.3, 7.1, 8, 9, 10, 11, 13, 14, 16, 18, 20, 22, 25, 29, 32, 36, 40, 45, 51, 57, 64}

	shutterFull = []string{"30", "15", "8", "4", "2", "1", "1/2", "1/4", "1/8", "1/15", "1/30", "1/60", "1/125", "1/250", "1/500", "1/1000", "1/2000", "1/4000", "1/8000"}
	shutterHalf = []string{
		"30", "20", "15", "10", "8", "6", "4", "3", "2", "1.5", "1", "0.7", "1/2", "1/3", "1/4", "1/6", "1/8", "1/10", "1/15",
		"1/20", "1/30", "1/45", "1/60", "1/90", "1/125", "1/180", "1/250", "1/350", "1/500", "1/750", "1/1000", "1/1500",
		"1/2000", "1/3000", "1/4000", "1/6000", "1/8000",
	}
	shutterThird = []string{
		"30", "25", "20", "15", "13", "10", "8", "6", "5", "4", "3.2", "2.5", "2", "1.6", "1.3", "1", "0.8", "0.6", "0.5", "0.4", "0.3",
		"1/4", "1/5", "1/6", "1/8", "1/10", "1/13", "1/15", "1/20", "1/25", "1/30", "1/40", "1/50", "1/60", "1/80", "1/100",
		"1/125", "1/160", "1/200", "1/250", "1/320", "1/400", "1/500", "1/640", "1/800", "1/1000", "1/1250", "1/1600",
		"1/2000", "1/2500", "1/3200", "1/4000", "1/5000", "1/6400", "1/8000",
	}

	isoFull  = []float64{50, 100, 200, 400, 800, 1600, 3200, 6400, 12800, 25600}
	isoHalf  = []float64{50, 70, 100, 140, 200, 280, 400, 560, 800, 1100, 1600, 2200, 3200, 4500, 6400, 9000, 12800, 18000, 25600}
	isoThird = []float64{50, 64, 80, 100, 125, 160, 200, 250, 320, 400, 500, 640, 800, 1000, 1250, 1600, 2000, 2500, 3200, 4000, 5000, 6400, 8000, 10000, 12800, 16000, 20000, 25600}
)

var ladders = buildLadders()

func buildLadders() map[Axis]map[StopScale]ladder {
	apertures := map[StopScale][]float64{ScaleFull: apertureFull, ScaleHalf: apertureHalf, ScaleThird: apertureThird}
	shutters := map[StopScale][]string{ScaleFull: shutterFull, ScaleHalf: shutterHalf, ScaleThird: shutterThird}
	isos := map[StopScale][]float64{ScaleFull: isoFull, ScaleHalf: isoHalf, ScaleThird: isoThird}

	out := map[Axis]map[StopScale]ladder{
		AxisAperture: {},
		AxisShutter:  {},
		AxisISO:      {},
	}
	for _, scale := range []StopScale{ScaleFull, ScaleHalf, ScaleThird} {
		steps := scale.StepsPerStop()

		ap := ladder{origin: 0, steps: steps, values: apertures[scale]}
		for _, v := range ap.values {
			ap.labels = append(ap.labels, Label(AxisAperture, v))
		}
		out[AxisAperture][scale] = ap

		sh := ladder{origin: -5, steps: steps}
		for _, s := range shutters[scale] {
			sh.values = append(sh.values, parseShutter(s))
			if strings.Contains(s, "/") {
				sh.labels = append(sh.labels, s)
			} else {
				sh.labels = append(sh.labels, s+"s")
			}
		}
		out[AxisShutter][scale] = sh

		iso := ladder{origin: -1, steps: steps, values: isos[scale]}
		for _, v := range iso.values {
			iso.labels = append(iso.labels, Label(AxisISO, v))
		}
		out[AxisISO][scale] = iso
	}
	return out
}

func parseShutter(s string) float64 {
	if num, den, ok := strings.Cut(s, "/"); ok {
		n, _ := strconv.ParseFloat(num, 64)
		d, _ := strconv.ParseFloat(den, 64)
		return n / d
	}
	v, _ := strconv.ParseFloat(s, 64)
	return v
}

// StopLadder returns the nominal settings of an axis, darkest-first for
// aperture and shutter and lowest-first for ISO.
func StopLadder(axis Axis, scale StopScale) ([]Value, error) {
	byScale, ok := ladders[axis]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown axis "+string(axis), nil)
	}
	l, ok := byScale[scale]
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown stop scale "+string(scale), nil)
	}
	out := make([]Value, len(l.values))
	for k := range l.values {
		out[k] = l.value(k)
	}
	return out, nil
}

// Label formats a raw setting the way a camera displays it.
func Label(axis Axis, raw float64) string {
	switch axis {
	case AxisAperture:
		return "f/" + strconv.FormatFloat(math.Round(raw*10)/10, 'f', -1, 64)
	case AxisShutter:
		if raw >= 0.3 {
			return strconv.FormatFloat(math.Round(raw*10)/10, 'f', -1, 64) + "s"
		}
		return "1/" + strconv.FormatFloat(math.Round(1/raw), 'f', -1, 64)
	case AxisISO:
		return "ISO " + strconv.FormatFloat(math.Round(raw), 'f', -1, 64)
	}
	return strconv.FormatFloat(raw, 'g', -1, 64)
}

// exactIndex converts a raw setting to stops.
func exactIndex(axis Axis, raw float64) float64 {
	switch axis {
	case AxisAperture:
		return 2 * math.Log2(raw)
	case AxisShutter:
		return -math.Log2(raw)
	default:
		return math.Log2(raw / 100)
	}
}

// snapTolerance is how close (in stops) a raw input must be to a nominal
// ladder entry to take that entry's index.
const snapTolerance = 1.0 / 6

// valueOf resolves a raw input. Nominal markings such as f/5.6 or 1/60 map to
// their ladder index instead of the exact logarithm.
func valueOf(axis Axis, raw float64, scale StopScale) Value {
	exact := exactIndex(axis, raw)
	for _, s := range []StopScale{scale, ScaleThird} {
		l := ladders[axis][s]
		k := int(math.Round((exact - l.origin) * float64(l.steps)))
		if k < 0 || k >= len(l.values) {
			continue
		}
		if math.Abs(l.index(k)-exact) <= snapTolerance {
			v := l.value(k)
			if math.Abs(exactIndex(axis, v.Raw)-exact) > 1e-9 {
				// keep what the caller passed, at the nominal index
				v.Raw = raw
				v.Label = Label(axis, raw)
			}
			return v
		}
	}
	return Value{Raw: raw, Index: exact, Label: Label(axis, raw)}
}
