package config

import "github.com/nrg-champ/geohgc/internal/model"

// TierDefaults selects a default budget set by sample volume (< 5000,
// < 50000, >= 50000). This is a pure function of volume: no ambient
// state is read here, and the result is computed once at run start and
// threaded explicitly through every layer.
func TierDefaults(volume int64) model.HGCParams {
	switch {
	case volume < 5000:
		return model.HGCParams{
			BaseRes:            8,
			MinRes:             0,
			MaxLeavesPerBatch:  64,
			MaxSamplesPerBatch: 2000,
			HysteresisNear:     0.9,
			HysteresisFar:      1.1,
			Volume:             volume,
		}
	case volume < 50000:
		return model.HGCParams{
			BaseRes:            8,
			MinRes:             0,
			MaxLeavesPerBatch:  256,
			MaxSamplesPerBatch: 20000,
			HysteresisNear:     0.9,
			HysteresisFar:      1.1,
			Volume:             volume,
		}
	default:
		return model.HGCParams{
			BaseRes:            8,
			MinRes:             0,
			MaxLeavesPerBatch:  1024,
			MaxSamplesPerBatch: 200000,
			HysteresisNear:     0.9,
			HysteresisFar:      1.1,
			Volume:             volume,
		}
	}
}
