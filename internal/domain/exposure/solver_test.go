package exposure

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/lightcast/pkg/errors"
)

func TestStopLadderSizes(t *testing.T) {
	cases := []struct {
		axis  Axis
		scale StopScale
		size  int
		first string
		last  string
	}{
		{AxisAperture, ScaleFull, 13, "f/1", "f/64"},
		{AxisAperture, ScaleHalf, 25, "f/1", "f/64"},
		{AxisAperture, ScaleThird, 37, "f/1", "f/64"},
		{AxisShutter, ScaleFull, 19, "30s", "1/8000"},
		{AxisShutter, ScaleHalf, 37, "30s", "1/8000"},
		{AxisShutter, ScaleThird, 55, "30s", "1/8000"},
		{AxisISO, ScaleFull, 10, "ISO 50", "ISO 25600"},
		{AxisISO, ScaleHalf, 19, "ISO 50", "ISO 25600"},
		{AxisISO, ScaleThird, 28, "ISO 50", "ISO 25600"},
	}
	for _, tc := range cases {
		values, err := StopLadder(tc.axis, tc.scale)
		require.NoError(t, err)
		require.Len(t, values, tc.size, "%s/%s", tc.axis, tc.scale)
		require.Equal(t, tc.first, values[0].Label)
		require.Equal(t, tc.last, values[len(values)-1].Label)

		step := 1.0 / float64(tc.scale.StepsPerStop())
		for i := 1; i < len(values); i++ {
			require.InDelta(t, step, values[i].Index-values[i-1].Index, 1e-9)
		}
		for _, v := range values {
			require.InDelta(t, exactIndex(tc.axis, v.Raw), v.Index, 0.2, v.Label)
		}
	}
}

func TestStopLadderLabels(t *testing.T) {
	shutters, err := StopLadder(AxisShutter, ScaleThird)
	require.NoError(t, err)
	labels := make([]string, 0, len(shutters))
	for _, v := range shutters {
		labels = append(labels, v.Label)
	}
	require.Contains(t, labels, "0.8s")
	require.Contains(t, labels, "1/4")
	require.Contains(t, labels, "1/640")

	_, err = StopLadder(Axis("focus"), ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
	_, err = StopLadder(AxisISO, StopScale("quarter"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestSolveShutterRoundTripOnFullStops(t *testing.T) {
	apertures, err := StopLadder(AxisAperture, ScaleFull)
	require.NoError(t, err)
	shutters, err := StopLadder(AxisShutter, ScaleFull)
	require.NoError(t, err)
	isos, err := StopLadder(AxisISO, ScaleFull)
	require.NoError(t, err)

	for _, ap := range apertures {
		for _, sh := range shutters {
			for _, iso := range isos {
				tri := Triangle{Aperture: ap, Shutter: sh, ISO: iso}
				sol, err := SolveShutterSpeed(tri.EV100(), ap.Raw, iso.Raw, 0, ScaleFull)
				require.NoError(t, err)
				require.False(t, sol.Clamped)
				require.Equal(t, sh.Label, sol.Triangle.Shutter.Label)
				require.InDelta(t, 0, sol.Residual, 1e-9)
			}
		}
	}
}

func TestSolveRecoversCompensation(t *testing.T) {
	for _, scale := range []StopScale{ScaleFull, ScaleHalf, ScaleThird} {
		half := 0.5 / float64(scale.StepsPerStop())
		for _, comp := range []float64{-2, -1.3, -0.7, 0, 0.3, 1, 1.7} {
			sol, err := SolveShutterSpeed(12, 8, 200, comp, scale)
			require.NoError(t, err)
			require.False(t, sol.Clamped)
			require.InDelta(t, 12-comp-6+1, sol.TargetIndex, 1e-9)
			require.LessOrEqual(t, math.Abs(sol.Residual), half+1e-9)

			// the chosen triangle meters within one quantization step of ev - comp
			require.InDelta(t, 12-comp, sol.Triangle.EV100(), half+1e-9)
		}
	}
}

func TestSolveTieBreaksFavorMoreLight(t *testing.T) {
	ap, err := SolveAperture(11.5, 1.0/125, 100, 0, ScaleFull)
	require.NoError(t, err)
	require.InDelta(t, 4.5, ap.TargetIndex, 1e-9)
	require.Equal(t, "f/4", ap.Triangle.Aperture.Label)
	require.Equal(t, AxisAperture, ap.Triangle.SolvedFor)

	sh, err := SolveShutterSpeed(10.5, 4, 100, 0, ScaleFull)
	require.NoError(t, err)
	require.InDelta(t, 6.5, sh.TargetIndex, 1e-9)
	require.Equal(t, "1/60", sh.Triangle.Shutter.Label)

	iso, err := SolveISO(8.5, 4, 1.0/125, 0, ScaleFull)
	require.NoError(t, err)
	require.InDelta(t, 2.5, iso.TargetIndex, 1e-9)
	require.Equal(t, "ISO 800", iso.Triangle.ISO.Label)
	require.Equal(t, AxisISO, iso.Triangle.SolvedFor)
}

func TestSolveMiddayExceedsFastShutter(t *testing.T) {
	sol, err := SolveShutterSpeed(15, 2.8, 400, 0, ScaleThird)
	require.NoError(t, err)
	require.True(t, sol.Clamped)
	require.Equal(t, "1/8000", sol.Triangle.Shutter.Label)
	require.Greater(t, sol.Triangle.Shutter.Index, exactIndex(AxisShutter, 1.0/500))
}

func TestSolveClampsDarkScenes(t *testing.T) {
	sol, err := SolveShutterSpeed(-6, 2.8, 100, 0, ScaleFull)
	require.NoError(t, err)
	require.True(t, sol.Clamped)
	require.Equal(t, "30s", sol.Triangle.Shutter.Label)
	require.Less(t, sol.Residual, 0.0)

	iso, err := SolveISO(-14, 1.4, 30, 0, ScaleThird)
	require.NoError(t, err)
	require.True(t, iso.Clamped)
	require.Equal(t, "ISO 25600", iso.Triangle.ISO.Label)
}

func TestSolveRejectsInvalidInput(t *testing.T) {
	_, err := SolveShutterSpeed(10, 0, 100, 0, ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = SolveAperture(10, -1, 100, 0, ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = SolveISO(math.NaN(), 4, 0.01, 0, ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = SolveISO(10, 4, 0.01, math.Inf(1), ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = SolveShutterSpeed(10, 4, 100, 0, StopScale("tenth"))
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = Solve(Axis("focus"), 10, Triangle{}, 0, ScaleFull)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))
}

func TestSolveDispatch(t *testing.T) {
	known, err := TriangleOf(5.6, 1.0/250, 100, ScaleThird)
	require.NoError(t, err)
	require.InDelta(t, 5.0, known.Aperture.Index, 1e-9)
	require.Equal(t, "f/5.6", known.Aperture.Label)
	require.Equal(t, "1/250", known.Shutter.Label)

	sol, err := Solve(AxisISO, 13, known, 0, ScaleThird)
	require.NoError(t, err)
	require.Equal(t, "ISO 100", sol.Triangle.ISO.Label)
}

func TestValueOfKeepsOffLadderInputs(t *testing.T) {
	v := valueOf(AxisAperture, 0.8, ScaleFull)
	require.InDelta(t, 2*math.Log2(0.8), v.Index, 1e-9)
	require.Equal(t, "f/0.8", v.Label)

	snapped := valueOf(AxisAperture, 6.3, ScaleFull)
	require.InDelta(t, 16.0/3, snapped.Index, 1e-9)
	require.Equal(t, "f/6.3", snapped.Label)
}

func TestParseHelpers(t *testing.T) {
	scale, err := ParseStopScale("")
	require.NoError(t, err)
	require.Equal(t, ScaleThird, scale)

	scale, err = ParseStopScale("HALF")
	require.NoError(t, err)
	require.Equal(t, 2, scale.StepsPerStop())

	_, err = ParseStopScale("quarter")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	axis, err := ParseAxis("Shutter")
	require.NoError(t, err)
	require.Equal(t, AxisShutter, axis)

	_, err = ParseAxis("zoom")
	require.Error(t, err)
}

func TestLightConversions(t *testing.T) {
	require.InDelta(t, 14.97, EV100(16, 1.0/125), 0.01)
	require.InDelta(t, 2.5, EVToLux(0), 1e-9)
	require.InDelta(t, 2.5*32768, EVToLux(15), 1e-6)
	for _, ev := range []float64{-6, 0, 7.5, 15} {
		require.InDelta(t, ev, LuxToEV(EVToLux(ev)), 1e-9)
	}
	require.False(t, math.IsInf(LuxToEV(0), 0))
}
