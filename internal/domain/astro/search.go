package astro

import (
	"time"
)

// altitudeFunc returns altitude in degrees at t.
type altitudeFunc func(t time.Time) float64

type crossing int

const (
	crossingUp crossing = iota
	crossingDown
)

const (
	sampleInterval  = 30 * time.Minute
	searchTolerance = time.Second
)

// dayBounds returns local midnight of the date's calendar day and the next
// local midnight, so DST days are 23 or 25 hours long.
func dayBounds(year int, month time.Month, day int, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(year, month, day, 0, 0, 0, 0, loc)
	end := time.Date(year, month, day+1, 0, 0, 0, 0, loc)
	return start, end
}

// daySamples evaluates f across [start, end] every sampleInterval.
type daySamples struct {
	times []time.Time
	alts  []float64
}

func sampleDay(f altitudeFunc, start, end time.Time) daySamples {
	var s daySamples
	for t := start; !t.After(end); t = t.Add(sampleInterval) {
		s.times = append(s.times, t)
		s.alts = append(s.alts, f(t))
	}
	if last := s.times[len(s.times)-1]; last.Before(end) {
		s.times = append(s.times, end)
		s.alts = append(s.alts, f(end))
	}
	return s
}

func (s daySamples) max() float64 {
	m := s.alts[0]
	for _, a := range s.alts[1:] {
		if a > m {
			m = a
		}
	}
	return m
}

func (s daySamples) min() float64 {
	m := s.alts[0]
	for _, a := range s.alts[1:] {
		if a < m {
			m = a
		}
	}
	return m
}

// findCrossing brackets the first crossing of target in the given direction
// from the samples, then bisects it down to searchTolerance.
func (s daySamples) findCrossing(f altitudeFunc, target float64, dir crossing) (time.Time, bool) {
	for i := 1; i < len(s.times); i++ {
		a, b := s.alts[i-1]-target, s.alts[i]-target
		if hasCrossing(a, b, dir) {
			return bisect(f, s.times[i-1], s.times[i], target, dir), true
		}
	}
	return time.Time{}, false
}

func hasCrossing(a, b float64, dir crossing) bool {
	if dir == crossingUp {
		return a < 0 && b >= 0
	}
	return a > 0 && b <= 0
}

func bisect(f altitudeFunc, a, b time.Time, target float64, dir crossing) time.Time {
	altA := f(a) - target
	for b.Sub(a) > searchTolerance {
		mid := a.Add(b.Sub(a) / 2)
		altM := f(mid) - target
		if hasCrossing(altA, altM, dir) {
			b = mid
		} else {
			a = mid
			altA = altM
		}
	}
	return a.Add(b.Sub(a) / 2).Round(time.Second)
}

// findMaximum returns the instant of the highest interior altitude sample,
// refined by golden-section search. A maximum on the day boundary is not a
// transit and reports false.
func (s daySamples) findMaximum(f altitudeFunc) (time.Time, bool) {
	best := 0
	for i, a := range s.alts {
		if a > s.alts[best] {
			best = i
		}
	}
	if best == 0 || best == len(s.alts)-1 {
		return time.Time{}, false
	}
	return goldenSection(f, s.times[best-1], s.times[best+1]), true
}

func goldenSection(f altitudeFunc, a, b time.Time) time.Time {
	const invPhi = 0.6180339887498949
	for b.Sub(a) > searchTolerance {
		span := float64(b.Sub(a))
		c := b.Add(-time.Duration(span * invPhi))
		d := a.Add(time.Duration(span * invPhi))
		if f(c) > f(d) {
			b = d
		} else {
			a = c
		}
	}
	return a.Add(b.Sub(a) / 2).Round(time.Second)
}
