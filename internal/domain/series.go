package domain

import (
	"maps"
	"slices"
)

// TemperatureSeries maps a year to a mean temperature on an absolute scale (K).
type TemperatureSeries map[int]float64

// Years returns the series' years in ascending order.
func (s TemperatureSeries) Years() []int { return sortedYears(s) }

// SeaLevelSeries maps a year to an observed sea-level change.
type SeaLevelSeries map[int]float64

// Years returns the series' years in ascending order.
func (s SeaLevelSeries) Years() []int { return sortedYears(s) }

func sortedYears(m map[int]float64) []int {
	return slices.Sorted(maps.Keys(m))
}

// ClimateData is the input to one assessment run: a temperature series per
// quadrant and the shared observed sea-level record.
type ClimateData struct {
	Temperatures QuadrantSeries `json:"temperatures"`
	SeaLevels    SeaLevelSeries `json:"sea_levels"`
}
