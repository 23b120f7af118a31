package airquality

import (
	"time"

	"greenpulse/internal/common"
)

const (
	morningPeakStart = 7
	morningPeakEnd   = 10
	eveningPeakStart = 18
	eveningPeakEnd   = 21

	morningMultiplier = 1.7
	eveningMultiplier = 1.85
	offPeakMultiplier = 1.0

	// Indian grid average, kg CO2 per kWh.
	gridEmissionFactor = 0.82
)

// PeakMultiplier returns the load multiplier for the given local hour.
// Morning (07-10) and evening (18-21) rush windows, bounds inclusive.
func PeakMultiplier(hour int) float64 {
	switch {
	case hour >= morningPeakStart && hour <= morningPeakEnd:
		return morningMultiplier
	case hour >= eveningPeakStart && hour <= eveningPeakEnd:
		return eveningMultiplier
	default:
		return offPeakMultiplier
	}
}

// EstimateCO2 derives the estimated CO2 emission rate in kg/hr for a zone
// from its AQI and the wall-clock hour of the cycle. The estimate scales a
// base power draw with AQI, applies the time-of-day multiplier and the grid
// emission factor over an 8-hour equivalent window. Deterministic for a
// given (aqi, hour) pair.
func EstimateCO2(aqi float64, at time.Time) float64 {
	basePowerKW := 500 + (aqi/100)*300
	co2 := (basePowerKW * PeakMultiplier(at.Hour()) / 1000) * gridEmissionFactor * 8
	return common.Round(co2, 2)
}
