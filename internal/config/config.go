package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
)

// OnInvalidMode names the three ways a run can react to a sample that
// fails validation.
type OnInvalidMode string

const (
	OnInvalidThrow   OnInvalidMode = "throw"
	OnInvalidMark    OnInvalidMode = "mark"
	OnInvalidDiscard OnInvalidMode = "discard"
)

// Config is the fully resolved configuration for one epochrunner run:
// tier defaults overridden by environment, overridden again by CLI
// flags.
type Config struct {
	HGC       model.HGCParams
	OnInvalid OnInvalidMode

	// Simulation knobs, used only by internal/simulate when no real
	// ingest source is configured.
	NumSamples int
	NumNodes   int
	RNGSeed    int64

	DataDir   string
	KafkaAddr string
}

// Validate enforces config-level invariants beyond what HGCParams
// itself checks.
func (c Config) Validate() error {
	if err := c.HGC.Validate(hexgrid.MaxRes); err != nil {
		return err
	}
	switch c.OnInvalid {
	case OnInvalidThrow, OnInvalidMark, OnInvalidDiscard:
	default:
		return &model.ConfigError{Reason: fmt.Sprintf("unsupported onInvalid mode: %s", c.OnInvalid)}
	}
	if c.NumSamples < 0 {
		return &model.ConfigError{Reason: "numSamples must be non-negative"}
	}
	if c.NumNodes < 0 {
		return &model.ConfigError{Reason: "numNodes must be non-negative"}
	}
	if c.DataDir == "" {
		return &model.ConfigError{Reason: "dataDir is required"}
	}
	return nil
}

// Clone returns a copy safe for independent mutation.
func (c Config) Clone() Config {
	return c
}

// Load resolves a Config from tier defaults, then environment
// variables, then CLI flags, in that precedence order. args is the
// flag set to parse (cmd/epochrunner passes os.Args[2:], the arguments
// after the positional epoch); callers that only want
// env-layer resolution can pass nil.
func Load(args []string) (Config, error) {
	volume := int64(getEnvInt("HGC_VOLUME", 0))
	cfg := Config{
		HGC:        TierDefaults(volume),
		OnInvalid:  OnInvalidMode(getEnv("HGC_ON_INVALID", string(OnInvalidThrow))),
		NumSamples: getEnvInt("N_SAMPLES", 1000),
		NumNodes:   getEnvInt("NUM_NODES", 10),
		RNGSeed:    int64(getEnvInt("RNG_SEED", 42)),
		DataDir:    getEnv("HGC_DATA_DIR", "./data"),
		KafkaAddr:  getEnv("HGC_KAFKA_ADDR", ""),
	}

	cfg.HGC.BaseRes = getEnvInt("HGC_BASE_RES", cfg.HGC.BaseRes)
	cfg.HGC.MinRes = getEnvInt("HGC_MIN_RES", cfg.HGC.MinRes)
	cfg.HGC.MaxLeavesPerBatch = getEnvInt("HGC_MAX_LEAVES_PER_BATCH", cfg.HGC.MaxLeavesPerBatch)
	cfg.HGC.MaxSamplesPerBatch = getEnvInt("HGC_MAX_SAMPLES_PER_BATCH", cfg.HGC.MaxSamplesPerBatch)
	cfg.HGC.HysteresisNear = getEnvFloat("HGC_HYSTERESIS_NEAR", cfg.HGC.HysteresisNear)
	cfg.HGC.HysteresisFar = getEnvFloat("HGC_HYSTERESIS_FAR", cfg.HGC.HysteresisFar)

	if args != nil {
		if err := applyFlags(&cfg, args); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyFlags(cfg *Config, args []string) error {
	fs := flag.NewFlagSet("geohgc", flag.ContinueOnError)
	baseRes := fs.Int("base-res", cfg.HGC.BaseRes, "base grid resolution")
	minRes := fs.Int("min-res", cfg.HGC.MinRes, "minimum coarsening resolution")
	maxLeaves := fs.Int("max-leaves-per-batch", cfg.HGC.MaxLeavesPerBatch, "leaf budget per batch")
	maxSamples := fs.Int("max-samples-per-batch", cfg.HGC.MaxSamplesPerBatch, "sample budget per batch")
	hystNear := fs.Float64("hysteresis-near", cfg.HGC.HysteresisNear, "coalescing tolerance in (0, 1]; validated but not used by the compressor")
	hystFar := fs.Float64("hysteresis-far", cfg.HGC.HysteresisFar, "budget multiplier (>= 1) applied in the fit test")
	onInvalid := fs.String("on-invalid", string(cfg.OnInvalid), "throw|mark|discard")
	numSamples := fs.Int("num-samples", cfg.NumSamples, "synthetic sample count")
	numNodes := fs.Int("num-nodes", cfg.NumNodes, "synthetic node count")
	rngSeed := fs.Int64("rng-seed", cfg.RNGSeed, "synthetic generator seed")
	dataDir := fs.String("data-dir", cfg.DataDir, "output data directory")
	kafkaAddr := fs.String("kafka-addr", cfg.KafkaAddr, "kafka bootstrap address, empty disables ingest")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg.HGC.BaseRes = *baseRes
	cfg.HGC.MinRes = *minRes
	cfg.HGC.MaxLeavesPerBatch = *maxLeaves
	cfg.HGC.MaxSamplesPerBatch = *maxSamples
	cfg.HGC.HysteresisNear = *hystNear
	cfg.HGC.HysteresisFar = *hystFar
	cfg.OnInvalid = OnInvalidMode(*onInvalid)
	cfg.NumSamples = *numSamples
	cfg.NumNodes = *numNodes
	cfg.RNGSeed = *rngSeed
	cfg.DataDir = *dataDir
	cfg.KafkaAddr = *kafkaAddr
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
