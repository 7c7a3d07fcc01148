package sink

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nrg-champ/geohgc/internal/circuitbreaker"
	"github.com/stretchr/testify/require"
)

func newSink(t *testing.T) (*MockSink, string) {
	t.Helper()
	dir := t.TempDir()
	ledger := filepath.Join(dir, "registry.jsonl")
	upload := circuitbreaker.New("upload", circuitbreaker.Config{MaxFailures: 5, ResetTimeout: time.Second}, nil)
	register := circuitbreaker.New("register", circuitbreaker.Config{MaxFailures: 5, ResetTimeout: time.Second}, nil)
	return NewMockSink(ledger, upload, register), dir
}

func TestUploadFolderIsDeterministic(t *testing.T) {
	s, dir := newSink(t)
	folder := filepath.Join(dir, "epoch_0")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.json"), []byte(`{"x":1}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "b.json"), []byte(`{"y":2}`), 0o644))

	cid1, err := s.UploadFolder(context.Background(), folder)
	require.NoError(t, err)
	cid2, err := s.UploadFolder(context.Background(), folder)
	require.NoError(t, err)
	require.Equal(t, cid1, cid2)
	require.NotEmpty(t, cid1)
}

func TestUploadFolderChangesWithContent(t *testing.T) {
	s, dir := newSink(t)
	folder := filepath.Join(dir, "epoch_0")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.json"), []byte(`{"x":1}`), 0o644))

	cid1, err := s.UploadFolder(context.Background(), folder)
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(folder, "a.json"), []byte(`{"x":2}`), 0o644))
	cid2, err := s.UploadFolder(context.Background(), folder)
	require.NoError(t, err)
	require.NotEqual(t, cid1, cid2)
}

func TestRegisterBatchAppendsJSONL(t *testing.T) {
	s, dir := newSink(t)
	require.NoError(t, s.RegisterBatch(context.Background(), 0, "aaa", "root1", "cid1"))
	require.NoError(t, s.RegisterBatch(context.Background(), 0, "bbb", "root2", "cid2"))

	raw, err := os.ReadFile(filepath.Join(dir, "registry.jsonl"))
	require.NoError(t, err)
	require.Contains(t, string(raw), "aaa")
	require.Contains(t, string(raw), "bbb")
}
