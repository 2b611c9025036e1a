package lightpredict

import (
	"fmt"

	"github.com/yanqian/lightcast/internal/domain/exposure"
	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

const (
	defaultFocalLength = 50.0
	defaultMaxAperture = 2.8
	defaultMinAperture = 22.0
	defaultMinISO      = 100
	defaultMaxISO      = 6400
)

// Validate rejects negative values and inverted ranges. Zero fields take defaults.
func (e Equipment) Validate() error {
	if e.FocalLengthMM < 0 || e.MaxAperture < 0 || e.MinAperture < 0 || e.MinISO < 0 || e.MaxISO < 0 {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "equipment values must not be negative", nil)
	}
	if e.MaxAperture > 0 && e.MinAperture > 0 && e.MaxAperture > e.MinAperture {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "widest aperture must not exceed narrowest aperture", nil)
	}
	if e.MinISO > 0 && e.MaxISO > 0 && e.MinISO > e.MaxISO {
		return apperrors.Wrap(apperrors.CodeInvalidInput, "minimum ISO must not exceed maximum ISO", nil)
	}
	return nil
}

func (e Equipment) withDefaults() Equipment {
	if e.FocalLengthMM == 0 {
		e.FocalLengthMM = defaultFocalLength
	}
	if e.MaxAperture == 0 {
		e.MaxAperture = defaultMaxAperture
	}
	if e.MinAperture == 0 {
		e.MinAperture = defaultMinAperture
	}
	if e.MinISO == 0 {
		e.MinISO = defaultMinISO
	}
	if e.MaxISO == 0 {
		e.MaxISO = defaultMaxISO
	}
	return e
}

// suggestSettings applies the EV policy, then solves shutter speed. When the
// shutter falls below the handheld limit, ISO is raised first; if the body
// cannot go high enough, the slow shutter stays and a tripod is suggested.
// The returned Solution reports whether the ladder ran out.
func suggestSettings(ev float64, gear Equipment, scale exposure.StopScale) (exposure.Solution, []string, error) {
	var aperture, iso float64
	switch {
	case ev >= 10:
		aperture, iso = 8, 100
	case ev >= 5:
		aperture, iso = 5.6, 400
	default:
		aperture, iso = gear.MaxAperture, 1600
	}
	aperture = clamp(aperture, gear.MaxAperture, gear.MinAperture)
	iso = clamp(iso, float64(gear.MinISO), float64(gear.MaxISO))

	sol, err := exposure.SolveShutterSpeed(ev, aperture, iso, 0, scale)
	if err != nil {
		return exposure.Solution{}, nil, err
	}
	handheld := 1 / gear.FocalLengthMM
	if sol.Triangle.Shutter.Raw <= handheld*1.0001 {
		return sol, nil, nil
	}

	limit := exposure.Label(exposure.AxisShutter, handheld)
	pinned, err := exposure.SolveISO(ev, aperture, handheld, 0, scale)
	if err != nil {
		return exposure.Solution{}, nil, err
	}
	if !pinned.Clamped && pinned.Triangle.ISO.Raw <= float64(gear.MaxISO)*1.0001 {
		return pinned, []string{
			fmt.Sprintf("Raise ISO to %s to hold a handheld shutter of %s", pinned.Triangle.ISO.Label, limit),
		}, nil
	}

	slow, err := exposure.SolveShutterSpeed(ev, aperture, float64(gear.MaxISO), 0, scale)
	if err != nil {
		return exposure.Solution{}, nil, err
	}
	return slow, []string{
		fmt.Sprintf("Use a tripod: %s is slower than the %s handheld limit", slow.Triangle.Shutter.Label, limit),
	}, nil
}
