// Package aqi implements the US EPA conversion from PM2.5 concentration
// to the 0-500 Air Quality Index scale.
package aqi

import "math"

// Category represents one of the six EPA AQI bands.
type Category string

const (
	CategoryGood               Category = "Good"
	CategoryModerate           Category = "Moderate"
	CategoryUnhealthySensitive Category = "Unhealthy for Sensitive Groups"
	CategoryUnhealthy          Category = "Unhealthy"
	CategoryVeryUnhealthy      Category = "Very Unhealthy"
	CategoryHazardous          Category = "Hazardous"
)

// Color returns the conventional EPA display color for the category.
func (c Category) Color() string {
	switch c {
	case CategoryGood:
		return "#00e400"
	case CategoryModerate:
		return "#ffff00"
	case CategoryUnhealthySensitive:
		return "#ff7e00"
	case CategoryUnhealthy:
		return "#ff0000"
	case CategoryVeryUnhealthy:
		return "#8f3f97"
	default:
		return "#7e0023"
	}
}

// Severity returns a numeric rank for sorting (higher = worse air).
func (c Category) Severity() int {
	switch c {
	case CategoryHazardous:
		return 5
	case CategoryVeryUnhealthy:
		return 4
	case CategoryUnhealthy:
		return 3
	case CategoryUnhealthySensitive:
		return 2
	case CategoryModerate:
		return 1
	default:
		return 0
	}
}

type breakpoint struct {
	concLow, concHigh float64
	aqiLow, aqiHigh   int
}

// PM2.5 breakpoints (µg/m³), scanned in increasing order so that
// boundary values resolve to the lower band.
var breakpoints = []breakpoint{
	{0.0, 12.0, 0, 50},
	{12.1, 35.4, 51, 100},
	{35.5, 55.4, 101, 150},
	{55.5, 150.4, 151, 200},
	{150.5, 250.4, 201, 300},
	{250.5, 500.4, 301, 500},
}

// Convert maps a PM2.5 concentration to an AQI value using piecewise-linear
// interpolation over the breakpoint table. Concentrations below zero clamp
// to 0 and concentrations above the top of the table clamp to 500.
func Convert(pm25 float64) int {
	if pm25 <= 0 {
		return 0
	}
	if pm25 > breakpoints[len(breakpoints)-1].concHigh {
		return 500
	}

	for _, bp := range breakpoints {
		if pm25 >= bp.concLow && pm25 <= bp.concHigh {
			aqi := float64(bp.aqiHigh-bp.aqiLow)/(bp.concHigh-bp.concLow)*(pm25-bp.concLow) + float64(bp.aqiLow)
			return int(math.Round(aqi))
		}
	}

	// Gap between bands (e.g. 12.05): interpolate within the band above.
	for _, bp := range breakpoints {
		if pm25 < bp.concLow {
			return bp.aqiLow
		}
	}
	return 500
}

// Categorize maps an AQI value to its band.
func Categorize(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategoryUnhealthySensitive
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}
