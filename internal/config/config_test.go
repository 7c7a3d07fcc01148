package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTierDefaultsSelectsByVolume(t *testing.T) {
	require.Equal(t, 64, TierDefaults(100).MaxLeavesPerBatch)
	require.Equal(t, 256, TierDefaults(5000).MaxLeavesPerBatch)
	require.Equal(t, 1024, TierDefaults(50000).MaxLeavesPerBatch)
}

func TestLoadEnvOverridesTierDefault(t *testing.T) {
	t.Setenv("HGC_VOLUME", "100")
	t.Setenv("HGC_MAX_LEAVES_PER_BATCH", "7")

	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, 7, cfg.HGC.MaxLeavesPerBatch)
}

func TestLoadCLIOverridesEnv(t *testing.T) {
	t.Setenv("HGC_VOLUME", "100")
	t.Setenv("HGC_MAX_LEAVES_PER_BATCH", "7")

	cfg, err := Load([]string{"-max-leaves-per-batch", "9", "-data-dir", "/tmp/out"})
	require.NoError(t, err)
	require.Equal(t, 9, cfg.HGC.MaxLeavesPerBatch)
	require.Equal(t, "/tmp/out", cfg.DataDir)
}

func TestLoadDefaultsOnInvalidToThrow(t *testing.T) {
	cfg, err := Load(nil)
	require.NoError(t, err)
	require.Equal(t, OnInvalidThrow, cfg.OnInvalid)
}

func TestLoadRejectsUnknownOnInvalidMode(t *testing.T) {
	t.Setenv("HGC_ON_INVALID", "explode")
	_, err := Load(nil)
	require.Error(t, err)
}

func TestLoadRejectsBadHGCParams(t *testing.T) {
	t.Setenv("HGC_MIN_RES", "20")
	t.Setenv("HGC_BASE_RES", "8")
	_, err := Load(nil)
	require.Error(t, err)
}
