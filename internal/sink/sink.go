// Package sink implements two external, best-effort collaborators:
// UploadFolder (content-addressed storage) and RegisterBatch (on-chain
// registry submission). Both are mocked here: the contract is
// preserved, the transport is not. Sink failures are surfaced but
// never invalidate already-written local epoch artifacts, so callers
// route every call through a Breaker.
package sink

import (
	"bufio"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nrg-champ/geohgc/internal/circuitbreaker"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Sink is the pluggable pair of async collaborators described above.
type Sink interface {
	UploadFolder(ctx context.Context, path string) (string, error)
	RegisterBatch(ctx context.Context, epoch int64, geoBatchID, merkleRoot, cid string) error
}

// MockSink implements Sink against the local filesystem: UploadFolder
// computes a deterministic content hash over the folder instead of
// actually transmitting it; RegisterBatch appends to a JSONL ledger
// file instead of calling a registry contract.
type MockSink struct {
	upload   *circuitbreaker.Breaker
	register *circuitbreaker.Breaker
	ledger   string
}

// NewMockSink returns a MockSink whose RegisterBatch calls append to
// ledgerPath.
func NewMockSink(ledgerPath string, upload, register *circuitbreaker.Breaker) *MockSink {
	return &MockSink{upload: upload, register: register, ledger: ledgerPath}
}

// UploadFolder hashes every file under path and combines them into a
// single content id using the mock-mode formula in folderContentHash.
func (s *MockSink) UploadFolder(ctx context.Context, path string) (string, error) {
	var cid string
	err := s.upload.Execute(ctx, func(ctx context.Context) error {
		c, err := folderContentHash(path)
		if err != nil {
			return err
		}
		cid = c
		return nil
	})
	return cid, err
}

// RegisterBatch appends a JSONL record describing the registration
// instead of calling an on-chain registry.
func (s *MockSink) RegisterBatch(ctx context.Context, epoch int64, geoBatchID, merkleRoot, cid string) error {
	return s.register.Execute(ctx, func(ctx context.Context) error {
		f, err := os.OpenFile(s.ledger, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return &model.IOError{Path: s.ledger, Err: err}
		}
		defer f.Close()

		record := map[string]any{
			"epoch":      epoch,
			"geoBatchId": geoBatchID,
			"merkleRoot": merkleRoot,
			"cid":        cid,
		}
		payload, err := json.Marshal(record)
		if err != nil {
			return err
		}
		w := bufio.NewWriter(f)
		if _, err := w.Write(payload); err != nil {
			return err
		}
		if err := w.WriteByte('\n'); err != nil {
			return err
		}
		return w.Flush()
	})
}

// folderContentHash computes sha256Hex(join(sha256Hex(file)+":"+relPath
// for every file, sorted by relPath, joined with "|")).
func folderContentHash(root string) (string, error) {
	var relPaths []string
	fileHashes := map[string]string{}

	err := filepath.WalkDir(root, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(data)
		fileHashes[rel] = hex.EncodeToString(sum[:])
		relPaths = append(relPaths, rel)
		return nil
	})
	if err != nil {
		return "", &model.IOError{Path: root, Err: err}
	}

	sort.Strings(relPaths)
	parts := make([]string, len(relPaths))
	for i, rel := range relPaths {
		parts[i] = fmt.Sprintf("%s:%s", fileHashes[rel], rel)
	}
	joined := strings.Join(parts, "|")
	sum := sha256.Sum256([]byte(joined))
	return hex.EncodeToString(sum[:]), nil
}
