// Package simulate generates a deterministic set of synthetic samples
// for exercising an epoch run without a live sensor feed, driven by
// the N_SAMPLES, NUM_NODES, and RNG_SEED knobs. Unlike the teacher's
// live, ticker-driven device simulator, this generator is seeded and
// produces the same samples for the same inputs every call: a live
// clock has no place upstream of a deterministic pipeline.
package simulate

import (
	"math/rand"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Config controls synthetic sample generation.
type Config struct {
	NumSamples int
	NumNodes   int
	RNGSeed    int64
	EpochStart int64
	WindowMs   int64
}

// Generate deterministically produces cfg.NumSamples readings spread
// across cfg.NumNodes synthetic sensor nodes, each pinned to a fixed
// lat/lng and issuer id, with timestamps uniformly spread across the
// epoch window.
func Generate(cfg Config) []model.Sample {
	if cfg.NumNodes <= 0 {
		cfg.NumNodes = 1
	}
	if cfg.WindowMs <= 0 {
		cfg.WindowMs = model.WindowMs
	}

	rng := rand.New(rand.NewSource(cfg.RNGSeed))
	nodes := make([]node, cfg.NumNodes)
	for i := range nodes {
		nodes[i] = node{
			issuer: nodeIssuer(i),
			lat:    rng.Float64()*178 - 89,
			lon:    rng.Float64()*358 - 179,
		}
	}

	samples := make([]model.Sample, 0, cfg.NumSamples)
	for i := 0; i < cfg.NumSamples; i++ {
		n := nodes[i%len(nodes)]
		ts := cfg.EpochStart + rng.Int63n(cfg.WindowMs)
		pm25 := rng.Float64() * 100
		temp := rng.Float64()*60 - 20
		samples = append(samples, model.Sample{
			GeoCellID: nodeCell(n, 8),
			Timestamp: ts,
			Issuer:    n.issuer,
			PM25:      &pm25,
			TempC:     &temp,
		})
	}
	return samples
}

type node struct {
	issuer string
	lat    float64
	lon    float64
}

func nodeCell(n node, res int) hexgrid.CellID {
	return hexgrid.FromLatLng(n.lat, n.lon, res)
}

func nodeIssuer(i int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
	if i < len(alphabet) {
		return "node-" + string(alphabet[i])
	}
	return "node-" + string(alphabet[i%len(alphabet)]) + string(alphabet[(i/len(alphabet))%len(alphabet)])
}
