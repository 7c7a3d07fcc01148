// Package compress implements the top-down hierarchical compressor: a
// tree walk from minRes down to baseRes that groups leaf cells under
// common parents and emits a batch segment once a subtree fits under
// both the leaf-count and sample-count budgets.
package compress

import (
	"sort"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Segment is one emitted group of leaf cells sharing a common parent
// at Res; it becomes one Batch.
type Segment struct {
	Res   int
	Cells []hexgrid.CellID
}

// Run partitions cells into segments, starting the walk at
// params.MinRes.
func Run(cells []hexgrid.CellID, sampleCountByCell map[hexgrid.CellID]int, params model.HGCParams) ([]Segment, error) {
	return compress(cells, params.MinRes, sampleCountByCell, params)
}

func compress(cellIDs []hexgrid.CellID, currentRes int, counts map[hexgrid.CellID]int, params model.HGCParams) ([]Segment, error) {
	if currentRes == params.BaseRes {
		return []Segment{{Res: params.BaseRes, Cells: sortedCopy(cellIDs)}}, nil
	}

	groups, order, err := groupByParent(cellIDs, currentRes)
	if err != nil {
		return nil, err
	}

	var out []Segment
	for _, p := range order {
		children := groups[p]
		leafCount := len(children)
		sampleCount := sumSamples(children, counts)

		if fitsAtCurrentLevel(leafCount, sampleCount, params) {
			out = append(out, Segment{Res: currentRes, Cells: sortedCopy(children)})
			continue
		}

		childGroups, childOrder, err := groupByParent(children, currentRes+1)
		if err != nil {
			return nil, err
		}
		for _, chunk := range stablePack(childGroups, childOrder, counts, params) {
			segs, err := compress(chunk, currentRes+1, counts, params)
			if err != nil {
				return nil, err
			}
			out = append(out, segs...)
		}
	}
	return out, nil
}

// fitsAtCurrentLevel is the fit test with far-hysteresis: the subtree
// may overshoot the plain budget by hysteresisFar and still be
// accepted as one batch at this resolution.
func fitsAtCurrentLevel(leafCount, sampleCount int, params model.HGCParams) bool {
	maxLeaves := float64(params.MaxLeavesPerBatch) * params.HysteresisFar
	maxSamples := float64(params.MaxSamplesPerBatch) * params.HysteresisFar
	return float64(leafCount) <= maxLeaves && float64(sampleCount) <= maxSamples
}

// stablePack packs whole child-groups into chunks using the plain
// (unscaled) budget, never splitting a group.
func stablePack(childGroups map[hexgrid.CellID][]hexgrid.CellID, childOrder []hexgrid.CellID, counts map[hexgrid.CellID]int, params model.HGCParams) [][]hexgrid.CellID {
	var chunks [][]hexgrid.CellID
	var current []hexgrid.CellID
	var leafCount, sampleCount int

	for _, p := range childOrder {
		group := childGroups[p]
		groupLeaves := len(group)
		groupSamples := sumSamples(group, counts)

		if len(current) > 0 && (leafCount+groupLeaves > params.MaxLeavesPerBatch || sampleCount+groupSamples > params.MaxSamplesPerBatch) {
			chunks = append(chunks, current)
			current = nil
			leafCount, sampleCount = 0, 0
		}
		current = append(current, group...)
		leafCount += groupLeaves
		sampleCount += groupSamples
	}
	if len(current) > 0 {
		chunks = append(chunks, current)
	}
	return chunks
}

func groupByParent(cellIDs []hexgrid.CellID, res int) (map[hexgrid.CellID][]hexgrid.CellID, []hexgrid.CellID, error) {
	groups := make(map[hexgrid.CellID][]hexgrid.CellID)
	for _, c := range cellIDs {
		p, err := hexgrid.ToParent(c, res)
		if err != nil {
			return nil, nil, err
		}
		groups[p] = append(groups[p], c)
	}
	order := make([]hexgrid.CellID, 0, len(groups))
	for p := range groups {
		order = append(order, p)
	}
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })
	return groups, order, nil
}

func sumSamples(cells []hexgrid.CellID, counts map[hexgrid.CellID]int) int {
	total := 0
	for _, c := range cells {
		total += counts[c]
	}
	return total
}

func sortedCopy(cells []hexgrid.CellID) []hexgrid.CellID {
	out := make([]hexgrid.CellID, len(cells))
	copy(out, cells)
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
