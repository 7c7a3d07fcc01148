// Package verify recomputes the hashes and Merkle roots of a written
// epoch directory and reports any mismatch.
package verify

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nrg-champ/geohgc/internal/canonical"
	"github.com/nrg-champ/geohgc/internal/merkle"
	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/nrg-champ/geohgc/internal/superroot"
)

// FileResult is the verdict for one file in the epoch directory.
type FileResult struct {
	Path string
	OK   bool
	Err  error
}

// Report is the outcome of verifying an entire epoch directory.
type Report struct {
	Files []FileResult
}

// OK reports whether every file in the directory verified.
func (r Report) OK() bool {
	for _, f := range r.Files {
		if !f.OK {
			return false
		}
	}
	return true
}

// Dir verifies every batch file and the super-root file under dir.
func Dir(dir string) (Report, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Report{}, &model.IOError{Path: dir, Err: err}
	}

	var report Report
	var batches []model.Batch

	for _, entry := range entries {
		if entry.IsDir() || entry.Name() == "superRoot.json" || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		b, err := verifyBatchFile(path)
		report.Files = append(report.Files, FileResult{Path: path, OK: err == nil, Err: err})
		if err == nil {
			batches = append(batches, b)
		}
	}

	srPath := filepath.Join(dir, "superRoot.json")
	if _, err := os.Stat(srPath); err == nil {
		err := verifySuperRootFile(srPath, batches)
		report.Files = append(report.Files, FileResult{Path: srPath, OK: err == nil, Err: err})
	}

	sort.Slice(report.Files, func(i, j int) bool { return report.Files[i].Path < report.Files[j].Path })
	return report, nil
}

func verifyBatchFile(path string) (model.Batch, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return model.Batch{}, &model.IOError{Path: path, Err: err}
	}
	var b model.Batch
	if err := json.Unmarshal(raw, &b); err != nil {
		return model.Batch{}, &model.IOError{Path: path, Err: err}
	}

	payload, err := canonical.Marshal(b.WithoutHash())
	if err != nil {
		return model.Batch{}, err
	}
	sum := sha256.Sum256(payload)
	wantHash := hex.EncodeToString(sum[:])
	if wantHash != b.Hash {
		return model.Batch{}, fmt.Errorf("hash mismatch: stored=%s recomputed=%s", b.Hash, wantHash)
	}

	dataForMerkle := make(map[string]any, len(b.Data))
	for k, v := range b.Data {
		dataForMerkle[k] = v
	}
	tree, err := merkle.BuildFromCellData(dataForMerkle)
	if err != nil {
		return model.Batch{}, err
	}
	wantRoot := hex.EncodeToString(tree.Root)
	if wantRoot != b.MerkleRoot {
		return model.Batch{}, fmt.Errorf("merkle root mismatch: stored=%s recomputed=%s", b.MerkleRoot, wantRoot)
	}
	return b, nil
}

func verifySuperRootFile(path string, batches []model.Batch) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &model.IOError{Path: path, Err: err}
	}
	var doc model.SuperRootDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &model.IOError{Path: path, Err: err}
	}

	recomputed, err := superroot.Build(batches)
	if err != nil {
		return err
	}
	if recomputed.SuperRoot != doc.SuperRoot {
		return fmt.Errorf("superRoot mismatch: stored=%s recomputed=%s", doc.SuperRoot, recomputed.SuperRoot)
	}
	if !stringSlicesEqual(recomputed.BatchIDs, doc.BatchIDs) {
		return fmt.Errorf("batchIds mismatch: stored=%v recomputed=%v", doc.BatchIDs, recomputed.BatchIDs)
	}
	if !stringSlicesEqual(recomputed.BatchRoots, doc.BatchRoots) {
		return fmt.Errorf("batchRoots mismatch: stored=%v recomputed=%v", doc.BatchRoots, recomputed.BatchRoots)
	}
	return nil
}

func stringSlicesEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
