package astro

import (
	"fmt"
	"math"
)

// PhaseName is the conventional name of a lunar phase.
type PhaseName int

const (
	NewMoon PhaseName = iota
	WaxingCrescent
	FirstQuarter
	WaxingGibbous
	FullMoon
	WaningGibbous
	LastQuarter
	WaningCrescent
)

var phaseNames = [...]string{
	NewMoon:        "New Moon",
	WaxingCrescent: "Waxing Crescent",
	FirstQuarter:   "First Quarter",
	WaxingGibbous:  "Waxing Gibbous",
	FullMoon:       "Full Moon",
	WaningGibbous:  "Waning Gibbous",
	LastQuarter:    "Last Quarter",
	WaningCrescent: "Waning Crescent",
}

func (p PhaseName) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return fmt.Sprintf("PhaseName(%d)", int(p))
	}
	return phaseNames[p]
}

func (p PhaseName) MarshalText() ([]byte, error) {
	if p < 0 || int(p) >= len(phaseNames) {
		return nil, fmt.Errorf("invalid phase name %d", int(p))
	}
	return []byte(phaseNames[p]), nil
}

func (p *PhaseName) UnmarshalText(b []byte) error {
	for i, name := range phaseNames {
		if name == string(b) {
			*p = PhaseName(i)
			return nil
		}
	}
	return fmt.Errorf("unknown phase name %q", string(b))
}

const (
	phaseEdgeTolerance    = 0.01
	phaseQuarterTolerance = 0.05
)

// ClassifyPhase names a phase from the illuminated fraction and direction.
func ClassifyPhase(fraction float64, waxing bool) PhaseName {
	switch {
	case fraction < phaseEdgeTolerance:
		return NewMoon
	case fraction > 1-phaseEdgeTolerance:
		return FullMoon
	case math.Abs(fraction-0.5) <= phaseQuarterTolerance:
		if waxing {
			return FirstQuarter
		}
		return LastQuarter
	case fraction < 0.5:
		if waxing {
			return WaxingCrescent
		}
		return WaningCrescent
	default:
		if waxing {
			return WaxingGibbous
		}
		return WaningGibbous
	}
}
