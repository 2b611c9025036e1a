package exposure

import "math"

// Incident-meter calibration constant C = 250: lux = 2.5 * 2^EV100.
const luxPerEV0 = 2.5

// minLux keeps LuxToEV finite for dark or zero readings.
const minLux = 1e-6

// EV100 returns log2(N^2/t) for an f-number and shutter time in seconds.
func EV100(aperture, shutter float64) float64 {
	return math.Log2(aperture * aperture / shutter)
}

// EVToLux converts EV100 to illuminance.
func EVToLux(ev float64) float64 {
	return luxPerEV0 * math.Exp2(ev)
}

// LuxToEV converts illuminance to EV100.
func LuxToEV(lux float64) float64 {
	if lux < minLux {
		lux = minLux
	}
	return math.Log2(lux / luxPerEV0)
}
