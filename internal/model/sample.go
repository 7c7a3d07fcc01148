// Package model holds the data types shared across the pipeline:
// Sample, Entry (one normalized reading of a cell), Batch, EpochResult,
// CrossEpochMap, and HGCParams.
package model

import "github.com/nrg-champ/geohgc/internal/hexgrid"

// Sample is one incoming sensor reading, possibly carrying nested
// samples that are validated and normalized recursively.
type Sample struct {
	GeoCellID hexgrid.CellID `json:"geoCellId"`
	Timestamp int64          `json:"timestamp"`
	Issuer    string         `json:"issuer,omitempty"`
	CO2       *float64       `json:"co2,omitempty"`
	PM25      *float64       `json:"pm25,omitempty"`
	TempC     *float64       `json:"temp,omitempty"`
	Humidity  *float64       `json:"hum,omitempty"`
	Samples   []Sample       `json:"samples,omitempty"`
}

// Clone returns a deep-enough copy of s so callers may normalize or
// rewrite fields without mutating the caller's slice.
func (s Sample) Clone() Sample {
	cp := s
	if s.Samples != nil {
		cp.Samples = make([]Sample, len(s.Samples))
		for i, inner := range s.Samples {
			cp.Samples[i] = inner.Clone()
		}
	}
	return cp
}

// SensorRange is a closed [Min, Max] bound for one sensor field.
type SensorRange struct {
	Min, Max float64
}

// DefaultSensorRanges gives the accepted range for each declared
// sensor field (e.g. 0 <= pm25 <= 1000).
var DefaultSensorRanges = map[string]SensorRange{
	"co2":  {Min: 0, Max: 100000},
	"pm25": {Min: 0, Max: 1000},
	"temp": {Min: -90, Max: 90},
	"hum":  {Min: 0, Max: 100},
}

// Entry is one normalized, validated reading attached to a cell in a
// Batch's data map: a plain payload keyed by the original sample's
// exported sensor fields.
type Entry struct {
	Timestamp int64    `json:"timestamp"`
	Issuer    string   `json:"issuer,omitempty"`
	CO2       *float64 `json:"co2,omitempty"`
	PM25      *float64 `json:"pm25,omitempty"`
	TempC     *float64 `json:"temp,omitempty"`
	Humidity  *float64 `json:"hum,omitempty"`
	Samples   []Entry  `json:"samples,omitempty"`
}

// SampleCount returns the number of aggregated samples this entry
// represents: the length of its inner Samples array, or 1 if absent.
func (e Entry) SampleCount() int {
	if len(e.Samples) == 0 {
		return 1
	}
	return len(e.Samples)
}
