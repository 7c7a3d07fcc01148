// Package merkle builds the sorted-pair Merkle trees used both per batch
// (over a batch's cell data) and at epoch level (over its batches).
// Keccak-256 is used for every leaf and internal node hash; this is
// deliberately not unified with the SHA-256 used elsewhere for
// canonical content hashes.
package merkle

import (
	"bytes"
	"sort"

	"golang.org/x/crypto/sha3"
	"golang.org/x/sync/errgroup"

	"github.com/nrg-champ/geohgc/internal/canonical"
)

// Keccak256 hashes data with Keccak-256 (not the NIST SHA3-256 variant).
func Keccak256(data ...[]byte) []byte {
	h := sha3.NewLegacyKeccak256()
	for _, d := range data {
		h.Write(d)
	}
	return h.Sum(nil)
}

// Tree is a built Merkle tree with its leaves indexed by the sorted key
// they were derived from.
type Tree struct {
	Root        []byte
	LeavesIndex map[string]int
}

// BuildFromCellData builds the per-batch Merkle tree: given a mapping
// of cell id to its entry list, leaves are
// keccak256(cell ‖ ':' ‖ canonical(entries)), sorted by cell id ascending.
func BuildFromCellData(data map[string]any) (*Tree, error) {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	leaves := make([][]byte, len(keys))
	index := make(map[string]int, len(keys))
	for i, k := range keys {
		index[k] = i
	}

	var g errgroup.Group
	for i, k := range keys {
		i, k := i, k
		g.Go(func() error {
			payload, err := canonical.Marshal(data[k])
			if err != nil {
				return err
			}
			leaves[i] = Keccak256([]byte(k), []byte(":"), payload)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &Tree{Root: buildSortedPairRoot(leaves), LeavesIndex: index}, nil
}

// Leaf is a pre-hashed Merkle leaf paired with the sort key used to order
// it before tree construction — used by the epoch super-root builder,
// whose leaves are keccak256(geoBatchId ‖ merkleRoot) rather than a
// canonical cell payload.
type Leaf struct {
	Key  string
	Hash []byte
}

// BuildFromLeaves sorts leaves by Key ascending and returns the
// sorted-pair Merkle root over their hashes.
func BuildFromLeaves(leaves []Leaf) []byte {
	sorted := make([]Leaf, len(leaves))
	copy(sorted, leaves)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Key < sorted[j].Key })
	hashes := make([][]byte, len(sorted))
	for i, l := range sorted {
		hashes[i] = l.Hash
	}
	return buildSortedPairRoot(hashes)
}

// buildSortedPairRoot builds a binary Merkle tree where each internal
// node hashes its two children under Keccak-256 with the child hashes
// sorted ascending (as byte strings) before concatenation. An odd node
// at any level is promoted unchanged to the next level.
func buildSortedPairRoot(leaves [][]byte) []byte {
	if len(leaves) == 0 {
		return Keccak256()
	}
	level := leaves
	for len(level) > 1 {
		next := make([][]byte, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 == len(level) {
				next = append(next, level[i])
				continue
			}
			a, b := level[i], level[i+1]
			if bytes.Compare(a, b) > 0 {
				a, b = b, a
			}
			next = append(next, Keccak256(a, b))
		}
		level = next
	}
	return level[0]
}
