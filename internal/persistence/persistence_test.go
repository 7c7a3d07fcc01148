package persistence

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/stretchr/testify/require"
)

func TestWriteEpochProducesExpectedLayout(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	batch := model.Batch{GeoBatchID: "aaa", Epoch: 3, Hash: "deadbeef", Data: map[string][]model.Entry{}}
	doc := model.SuperRootDocument{Epoch: 3, SuperRoot: "root", SchemaVersion: model.SchemaVersion}

	err = store.WriteEpoch(3, []model.Batch{batch}, doc, map[string]string{"aaa": "aaa"})
	require.NoError(t, err)

	require.FileExists(t, filepath.Join(dir, "data", "epoch_3", "aaa.json"))
	require.FileExists(t, filepath.Join(dir, "data", "epoch_3", "superRoot.json"))
	require.FileExists(t, filepath.Join(dir, "data", "cellToBatchMap.json"))
}

func TestMergeCrossEpochMapDetectsConflict(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.MergeCrossEpochMap(0, map[string]string{"c1": "batchA"}))
	err = store.MergeCrossEpochMap(0, map[string]string{"c1": "batchB"})
	require.Error(t, err)
	var conflict *model.CellMapConflict
	require.ErrorAs(t, err, &conflict)
}

func TestMergeCrossEpochMapIdempotentRerunNoConflict(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.MergeCrossEpochMap(0, map[string]string{"c1": "batchA"}))
	require.NoError(t, store.MergeCrossEpochMap(0, map[string]string{"c1": "batchA"}))
}

func TestMergeCrossEpochMapOrdersEpochsNumerically(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.MergeCrossEpochMap(10, map[string]string{"c": "b"}))
	require.NoError(t, store.MergeCrossEpochMap(2, map[string]string{"c": "b"}))

	raw, err := os.ReadFile(store.crossEpochMapPath())
	require.NoError(t, err)
	require.True(t, indexOf(t, raw, `"2"`) < indexOf(t, raw, `"10"`))

	var parsed map[string]map[string]string
	require.NoError(t, json.Unmarshal(raw, &parsed))
	require.Equal(t, "b", parsed["2"]["c"])
	require.Equal(t, "b", parsed["10"]["c"])
}

func TestMergeCrossEpochMapAppendsAuditLine(t *testing.T) {
	dir := t.TempDir()
	store, err := New(dir, nil)
	require.NoError(t, err)

	require.NoError(t, store.MergeCrossEpochMap(5, map[string]string{"c1": "batchA", "c2": "batchB"}))
	require.NoError(t, store.MergeCrossEpochMap(5, map[string]string{"c1": "batchA"}))

	raw, err := os.ReadFile(store.auditLogPath())
	require.NoError(t, err)
	lines := splitLines(raw)
	require.Len(t, lines, 2)

	var rec auditRecord
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	require.Equal(t, int64(5), rec.Epoch)
	require.NotEmpty(t, rec.MergeID)
	require.Equal(t, 2, rec.CellCount)

	require.NoError(t, json.Unmarshal(lines[1], &rec))
	require.NotEmpty(t, rec.MergeID)
}

func splitLines(raw []byte) [][]byte {
	var out [][]byte
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if i > start {
				out = append(out, raw[start:i])
			}
			start = i + 1
		}
	}
	return out
}

func indexOf(t *testing.T, haystack []byte, needle string) int {
	t.Helper()
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if string(haystack[i:i+len(needle)]) == needle {
			return i
		}
	}
	t.Fatalf("needle %q not found", needle)
	return -1
}
