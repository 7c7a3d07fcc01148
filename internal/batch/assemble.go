// Package batch assembles the segments produced by internal/compress
// into fully populated Batch records: data object, aggregate metadata,
// Merkle root, and content hash.
package batch

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/nrg-champ/geohgc/internal/aggregate"
	"github.com/nrg-champ/geohgc/internal/canonical"
	"github.com/nrg-champ/geohgc/internal/compress"
	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/merkle"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Assemble builds one Batch from a compressor segment.
func Assemble(seg compress.Segment, epoch int64, baseRes int, table aggregate.Table, params model.HGCParams) (model.Batch, error) {
	if len(seg.Cells) == 0 {
		return model.Batch{}, fmt.Errorf("batch: segment has no cells")
	}

	geoBatchID, err := hexgrid.ToParent(seg.Cells[0], seg.Res)
	if err != nil {
		return model.Batch{}, err
	}

	data := make(map[string][]model.Entry, len(seg.Cells))
	compressedFrom := make([]string, len(seg.Cells))
	dataForMerkle := make(map[string]any, len(seg.Cells))

	countSamples := 0
	var tsMin, tsMax *int64

	for i, cell := range seg.Cells {
		entries := table.EntriesByCell[cell]
		data[string(cell)] = entries
		dataForMerkle[string(cell)] = entries
		compressedFrom[i] = string(cell)

		for _, e := range entries {
			countSamples += e.SampleCount()
			ts := e.Timestamp
			if tsMin == nil || ts < *tsMin {
				tsMin = &ts
			}
			if tsMax == nil || ts > *tsMax {
				tsMax = &ts
			}
		}
	}

	tree, err := merkle.BuildFromCellData(dataForMerkle)
	if err != nil {
		return model.Batch{}, err
	}

	lat, lng := hexgrid.Center(geoBatchID)
	boundaryPts := hexgrid.Boundary(geoBatchID)
	boundary := make([][2]float64, len(boundaryPts))
	copy(boundary, boundaryPts)

	b := model.Batch{
		GeoBatchID:     string(geoBatchID),
		Epoch:          epoch,
		CompressedFrom: compressedFrom,
		Data:           data,
		CountLeaves:    len(seg.Cells),
		CountSamples:   countSamples,
		TsMin:          tsMin,
		TsMax:          tsMax,
		Center:         [2]float64{lat, lng},
		Boundary:       boundary,
		ResBase:        baseRes,
		ResBatch:       seg.Res,
		EpochStartMs:   epoch * model.WindowMs,
		WindowMs:       model.WindowMs,
		SchemaVersion:  model.SchemaVersion,
		HGCParams:      params,
		MerkleRoot:     hex.EncodeToString(tree.Root),
		LeavesIndex:    tree.LeavesIndex,
	}

	hash, err := contentHash(b)
	if err != nil {
		return model.Batch{}, err
	}
	b.Hash = hash
	return b, nil
}

// contentHash is sha256Hex(canonical(batch \ {hash})).
func contentHash(b model.Batch) (string, error) {
	payload, err := canonical.Marshal(b.WithoutHash())
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}
