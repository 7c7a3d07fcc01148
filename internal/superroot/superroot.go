// Package superroot builds the epoch-level super-root committing to
// every batch produced in a run.
package superroot

import (
	"encoding/hex"
	"sort"

	"github.com/nrg-champ/geohgc/internal/merkle"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Result is the ordered, deterministic view of an epoch's batches
// needed to populate a SuperRootDocument.
type Result struct {
	SuperRoot  string
	BatchIDs   []string
	BatchRoots []string
}

// Build sorts batches by geoBatchId ascending, builds leaves
// keccak256(geoBatchId ‖ merkleRoot), and returns the sorted-pair
// Merkle root. Permuting the input batches yields the same result,
// since the sort happens here.
func Build(batches []model.Batch) (Result, error) {
	sorted := make([]model.Batch, len(batches))
	copy(sorted, batches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].GeoBatchID < sorted[j].GeoBatchID })

	leaves := make([]merkle.Leaf, len(sorted))
	batchIDs := make([]string, len(sorted))
	batchRoots := make([]string, len(sorted))

	for i, b := range sorted {
		rootBytes, err := hex.DecodeString(b.MerkleRoot)
		if err != nil {
			return Result{}, err
		}
		leaves[i] = merkle.Leaf{
			Key:  b.GeoBatchID,
			Hash: merkle.Keccak256([]byte(b.GeoBatchID), rootBytes),
		}
		batchIDs[i] = b.GeoBatchID
		batchRoots[i] = b.MerkleRoot
	}

	root := merkle.BuildFromLeaves(leaves)
	return Result{
		SuperRoot:  hex.EncodeToString(root),
		BatchIDs:   batchIDs,
		BatchRoots: batchRoots,
	}, nil
}
