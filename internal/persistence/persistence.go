// Package persistence writes epoch artifacts to disk and merges each
// epoch's leaf-cell-to-batch map into the cross-epoch map. Writes are
// atomic (write-to-temp then rename); the cross-epoch map merge is
// guarded by an exclusive file lock so concurrent epoch runs against
// the same base directory are detected rather than silently racing.
package persistence

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"

	"github.com/nrg-champ/geohgc/internal/canonical"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Store writes and merges epoch artifacts under a configurable base
// directory.
type Store struct {
	baseDir string
	log     *slog.Logger
}

// New returns a Store rooted at baseDir, creating the directory tree
// if absent.
func New(baseDir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(filepath.Join(baseDir, "data"), 0o755); err != nil {
		return nil, &model.IOError{Path: baseDir, Err: err}
	}
	return &Store{baseDir: baseDir, log: log}, nil
}

func (s *Store) epochDir(epoch int64) string {
	return filepath.Join(s.baseDir, "data", fmt.Sprintf("epoch_%d", epoch))
}

func (s *Store) batchPath(epoch int64, geoBatchID string) string {
	return filepath.Join(s.epochDir(epoch), geoBatchID+".json")
}

func (s *Store) superRootPath(epoch int64) string {
	return filepath.Join(s.epochDir(epoch), "superRoot.json")
}

func (s *Store) crossEpochMapPath() string {
	return filepath.Join(s.baseDir, "data", "cellToBatchMap.json")
}

func (s *Store) auditLogPath() string {
	return filepath.Join(s.baseDir, "data", "mergeAudit.jsonl")
}

// WriteEpoch writes every batch file and the super-root file for one
// epoch, then merges the epoch's leaf-cell map into the cross-epoch
// map. All local writes succeed before the merge is attempted, so a
// merge conflict never leaves a half-written epoch directory.
func (s *Store) WriteEpoch(epoch int64, batches []model.Batch, doc model.SuperRootDocument, leafToBatch map[string]string) error {
	dir := s.epochDir(epoch)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &model.IOError{Path: dir, Err: err}
	}

	for _, b := range batches {
		payload, err := canonical.Marshal(b)
		if err != nil {
			return err
		}
		path := s.batchPath(epoch, b.GeoBatchID)
		if err := writeAtomic(path, payload); err != nil {
			return &model.IOError{Path: path, Err: err}
		}
	}

	docPayload, err := canonical.Marshal(doc)
	if err != nil {
		return err
	}
	srPath := s.superRootPath(epoch)
	if err := writeAtomic(srPath, docPayload); err != nil {
		return &model.IOError{Path: srPath, Err: err}
	}

	return s.MergeCrossEpochMap(epoch, leafToBatch)
}

// MergeCrossEpochMap loads the existing cross-epoch map under an
// exclusive lock, merges in this epoch's leaf->batch assignments
// (failing on any conflicting re-assignment), re-sorts, and writes
// atomically.
func (s *Store) MergeCrossEpochMap(epoch int64, leafToBatch map[string]string) error {
	path := s.crossEpochMapPath()
	lockPath := path + ".lock"

	lockFile, err := os.OpenFile(lockPath, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return &model.IOError{Path: lockPath, Err: err}
	}
	defer lockFile.Close()

	if err := unix.Flock(int(lockFile.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		return &model.ConcurrentMergeError{Path: path}
	}
	defer unix.Flock(int(lockFile.Fd()), unix.LOCK_UN)

	existing, err := loadCrossEpochMap(path)
	if err != nil {
		return err
	}

	epochKey := strconv.FormatInt(epoch, 10)
	epochCells := existing[epochKey]
	if epochCells == nil {
		epochCells = map[string]string{}
	}
	for cell, geoBatchID := range leafToBatch {
		if prior, ok := epochCells[cell]; ok && prior != geoBatchID {
			return &model.CellMapConflict{Epoch: epochKey, Cell: cell, Existing: prior, New: geoBatchID}
		}
		epochCells[cell] = geoBatchID
	}
	existing[epochKey] = epochCells

	orderedEpochs, sorted := sortCrossEpochMap(existing)

	fileBytes, err := encodeOrdered(orderedEpochs, sorted)
	if err != nil {
		return err
	}
	if err := writeAtomic(path, fileBytes); err != nil {
		return &model.IOError{Path: path, Err: err}
	}

	hashPayload, err := canonical.Marshal(sorted)
	if err != nil {
		return err
	}
	sum := sha256.Sum256(hashPayload)
	contentHash := hex.EncodeToString(sum[:])
	s.log.Info("merged cross-epoch map", slog.String("path", path), slog.String("contentHash", contentHash))

	if err := s.appendMergeAudit(epoch, contentHash, len(epochCells)); err != nil {
		return err
	}
	return nil
}

// appendMergeAudit records one line per successful cross-epoch merge,
// mirroring the teacher's append-only ledger file discipline applied to
// the map-merge step rather than to transactions. MergeID and MergedAt
// make this file non-deterministic across runs by design; it is a
// supplement outside the determinism floor, which only covers the
// batch, super-root, and cross-epoch map bytes themselves.
func (s *Store) appendMergeAudit(epoch int64, contentHash string, cellCount int) error {
	f, err := os.OpenFile(s.auditLogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return &model.IOError{Path: s.auditLogPath(), Err: err}
	}
	defer f.Close()

	line, err := json.Marshal(auditRecord{
		MergeID:     uuid.New().String(),
		Epoch:       epoch,
		ContentHash: contentHash,
		CellCount:   cellCount,
		MergedAt:    time.Now().UTC(),
	})
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return &model.IOError{Path: s.auditLogPath(), Err: err}
	}
	return f.Sync()
}

// auditRecord is one line of the append-only cross-epoch merge audit.
type auditRecord struct {
	MergeID     string    `json:"mergeId"`
	Epoch       int64     `json:"epoch"`
	ContentHash string    `json:"contentHash"`
	CellCount   int       `json:"cellCount"`
	MergedAt    time.Time `json:"mergedAt"`
}

// encodeOrdered writes { "<epoch>": {...}, ... } with outer keys in
// the given numeric-ascending order; encoding/json always sorts
// map[string]X keys lexicographically, which would put epoch "10"
// before "9", so the outer level is hand-written while each inner
// per-cell map (whose keys already sort correctly both numerically
// and lexicographically as strings) is encoded with encoding/json.
func encodeOrdered(order []int64, m map[string]map[string]string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range order {
		if i > 0 {
			buf.WriteByte(',')
		}
		key := strconv.FormatInt(e, 10)
		keyBytes, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')
		innerBytes, err := json.Marshal(m[key])
		if err != nil {
			return nil, err
		}
		buf.Write(innerBytes)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func loadCrossEpochMap(path string) (model.CrossEpochMap, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return model.CrossEpochMap{}, nil
		}
		return nil, &model.IOError{Path: path, Err: err}
	}
	var m model.CrossEpochMap
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &model.IOError{Path: path, Err: err}
	}
	return m, nil
}

// sortCrossEpochMap returns the epoch keys in numeric ascending order
// alongside a copy of the map for those epochs. The copy is a Go map
// and carries no order itself: cell-id code-point order in the written
// file comes from encoding/json's sorted map keys in encodeOrdered.
// Epoch keys that do not parse as integers are left out of both.
func sortCrossEpochMap(m model.CrossEpochMap) ([]int64, map[string]map[string]string) {
	epochs := make([]int64, 0, len(m))
	for k := range m {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		epochs = append(epochs, n)
	}
	sort.Slice(epochs, func(i, j int) bool { return epochs[i] < epochs[j] })

	out := make(map[string]map[string]string, len(m))
	for _, e := range epochs {
		key := strconv.FormatInt(e, 10)
		cells := m[key]
		cellKeys := make([]string, 0, len(cells))
		for c := range cells {
			cellKeys = append(cellKeys, c)
		}
		sort.Strings(cellKeys)
		inner := make(map[string]string, len(cells))
		for _, c := range cellKeys {
			inner[c] = cells[c]
		}
		out[key] = inner
	}
	return epochs, out
}

// writeAtomic writes data to a temp file in the same directory as
// path and renames it into place, so a crash or cancellation never
// leaves a partially written file visible at path.
func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}
