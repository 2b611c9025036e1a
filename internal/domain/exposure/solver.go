package exposure

import (
	"math"

	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

// Triangle is a complete exposure setting. SolvedFor names the leg that was
// derived from the other two.
type Triangle struct {
	Aperture  Value `json:"aperture"`
	Shutter   Value `json:"shutter"`
	ISO       Value `json:"iso"`
	SolvedFor Axis  `json:"solvedFor,omitempty"`
}

// EV100 is the scene brightness at ISO 100 this triangle exposes correctly.
func (t Triangle) EV100() float64 {
	return t.Aperture.Index + t.Shutter.Index - t.ISO.Index
}

// Solution is a solved triangle plus how well the ladder could match the
// ideal value.
type Solution struct {
	Triangle    Triangle `json:"triangle"`
	TargetIndex float64  `json:"targetIndex"`
	Clamped     bool     `json:"clamped"`
	// Residual is target minus chosen index, in stops.
	Residual float64 `json:"residual"`
}

const clampEpsilon = 1e-6

// SolveShutterSpeed finds the shutter speed that exposes a scene of ev (EV100)
// at the given aperture and ISO. Positive compensation brightens the image.
func SolveShutterSpeed(ev, aperture, iso, compensation float64, scale StopScale) (Solution, error) {
	if err := validate(scale, ev, compensation); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisAperture, aperture); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisISO, iso); err != nil {
		return Solution{}, err
	}
	ap := valueOf(AxisAperture, aperture, scale)
	is := valueOf(AxisISO, iso, scale)

	target := ev - compensation - ap.Index + is.Index
	sh, clamped := snap(ladders[AxisShutter][scale], target, towardLowerIndex)
	return Solution{
		Triangle:    Triangle{Aperture: ap, Shutter: sh, ISO: is, SolvedFor: AxisShutter},
		TargetIndex: target,
		Clamped:     clamped,
		Residual:    target - sh.Index,
	}, nil
}

// SolveAperture finds the f-number for a fixed shutter speed and ISO.
func SolveAperture(ev, shutter, iso, compensation float64, scale StopScale) (Solution, error) {
	if err := validate(scale, ev, compensation); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisShutter, shutter); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisISO, iso); err != nil {
		return Solution{}, err
	}
	sh := valueOf(AxisShutter, shutter, scale)
	is := valueOf(AxisISO, iso, scale)

	target := ev - compensation - sh.Index + is.Index
	ap, clamped := snap(ladders[AxisAperture][scale], target, towardLowerIndex)
	return Solution{
		Triangle:    Triangle{Aperture: ap, Shutter: sh, ISO: is, SolvedFor: AxisAperture},
		TargetIndex: target,
		Clamped:     clamped,
		Residual:    target - ap.Index,
	}, nil
}

// SolveISO finds the sensitivity for a fixed aperture and shutter speed.
func SolveISO(ev, aperture, shutter, compensation float64, scale StopScale) (Solution, error) {
	if err := validate(scale, ev, compensation); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisAperture, aperture); err != nil {
		return Solution{}, err
	}
	if err := validateSetting(AxisShutter, shutter); err != nil {
		return Solution{}, err
	}
	ap := valueOf(AxisAperture, aperture, scale)
	sh := valueOf(AxisShutter, shutter, scale)

	target := ap.Index + sh.Index - ev + compensation
	is, clamped := snap(ladders[AxisISO][scale], target, towardHigherIndex)
	return Solution{
		Triangle:    Triangle{Aperture: ap, Shutter: sh, ISO: is, SolvedFor: AxisISO},
		TargetIndex: target,
		Clamped:     clamped,
		Residual:    target - is.Index,
	}, nil
}

// Solve dispatches on the axis to derive.
func Solve(axis Axis, ev float64, known Triangle, compensation float64, scale StopScale) (Solution, error) {
	switch axis {
	case AxisShutter:
		return SolveShutterSpeed(ev, known.Aperture.Raw, known.ISO.Raw, compensation, scale)
	case AxisAperture:
		return SolveAperture(ev, known.Shutter.Raw, known.ISO.Raw, compensation, scale)
	case AxisISO:
		return SolveISO(ev, known.Aperture.Raw, known.Shutter.Raw, compensation, scale)
	}
	return Solution{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown axis "+string(axis), nil)
}

// TriangleOf resolves three raw settings against the scale without solving.
func TriangleOf(aperture, shutter, iso float64, scale StopScale) (Triangle, error) {
	if !scale.valid() {
		return Triangle{}, apperrors.Wrap(apperrors.CodeInvalidInput, "unknown stop scale "+string(scale), nil)
	}
	for axis, raw := range map[Axis]float64{AxisAperture: aperture, AxisShutter: shutter, AxisISO: iso} {
		if err := validateSetting(axis, raw); err != nil {
			return Triangle{}, err
		}
	}
	return Triangle{
		Aperture: valueOf(AxisAperture, aperture, scale),
		Shutter:  valueOf(AxisShutter, shutter, scale),
		ISO:      valueOf(AxisISO, iso, scale),
	}, nil
}

type tieBreak int

const (
	// lower index: smaller f-number or slower shutter
	towardLowerIndex tieBreak = iota
	// higher index: higher ISO
	towardHigherIndex
)

// snap picks the ladder entry nearest target. Exact ties go to the entry that
// gathers more light. Targets past either end clamp to it.
func snap(l ladder, target float64, tie tieBreak) (Value, bool) {
	last := len(l.values) - 1
	if target < l.origin-clampEpsilon {
		return l.value(0), true
	}
	if target > l.max()+clampEpsilon {
		return l.value(last), true
	}
	pos := (target - l.origin) * float64(l.steps)
	lo := math.Floor(pos)
	frac := pos - lo
	k := int(lo)
	switch {
	case math.Abs(frac-0.5) < 1e-9:
		if tie == towardHigherIndex {
			k++
		}
	case frac > 0.5:
		k++
	}
	if k < 0 {
		k = 0
	}
	if k > last {
		k = last
	}
	return l.value(k), false
}

func validate(scale StopScale, values ...float64) error {
	if !scale.valid() {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "unknown stop scale "+string(scale), nil)
	}
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return apperrors.Wrap(apperrors.CodeInvalidInput, "exposure value must be finite", nil)
		}
	}
	return nil
}

func validateSetting(axis Axis, raw float64) error {
	if math.IsNaN(raw) || math.IsInf(raw, 0) || raw <= 0 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, string(axis)+" must be a positive number", nil)
	}
	return nil
}
