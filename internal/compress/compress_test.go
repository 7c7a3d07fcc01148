package compress

import (
	"testing"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/stretchr/testify/require"
)

func uniformParams(baseRes, minRes, maxLeaves, maxSamples int) model.HGCParams {
	return model.HGCParams{
		BaseRes:            baseRes,
		MinRes:             minRes,
		MaxLeavesPerBatch:  maxLeaves,
		MaxSamplesPerBatch: maxSamples,
		HysteresisNear:     0.9,
		HysteresisFar:      1.0,
	}
}

func countsOf(cells []hexgrid.CellID, n int) map[hexgrid.CellID]int {
	out := make(map[hexgrid.CellID]int, len(cells))
	for _, c := range cells {
		out[c] = n
	}
	return out
}

func TestRunSingleCellFitsAtMinRes(t *testing.T) {
	cells := []hexgrid.CellID{"aa"}
	segs, err := Run(cells, countsOf(cells, 1), uniformParams(2, 0, 100, 100))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, 0, segs[0].Res)
	require.Equal(t, cells, segs[0].Cells)
}

func TestRunSplitsOnLeafBudgetViaStablePacking(t *testing.T) {
	cells := []hexgrid.CellID{"aa", "ab", "ac", "ad"}
	segs, err := Run(cells, countsOf(cells, 1), uniformParams(2, 0, 2, 1000))
	require.NoError(t, err)
	require.Len(t, segs, 2)
	require.Equal(t, 2, segs[0].Res)
	require.Equal(t, []hexgrid.CellID{"aa", "ab"}, segs[0].Cells)
	require.Equal(t, []hexgrid.CellID{"ac", "ad"}, segs[1].Cells)
}

func TestRunUnionAndDisjointness(t *testing.T) {
	cells := []hexgrid.CellID{"aa", "ab", "ba", "bb", "bc"}
	segs, err := Run(cells, countsOf(cells, 1), uniformParams(2, 0, 2, 1000))
	require.NoError(t, err)

	seen := map[hexgrid.CellID]bool{}
	for _, s := range segs {
		for _, c := range s.Cells {
			require.False(t, seen[c], "cell %s appeared in more than one segment", c)
			seen[c] = true
		}
	}
	require.Len(t, seen, len(cells))
}

func TestRunEmitsIndivisibleSegmentAtBaseResWhenOverBudget(t *testing.T) {
	cells := []hexgrid.CellID{"aa", "ab", "ac"}
	// baseRes == minRes: no room to descend, so a group over budget at
	// baseRes is still emitted whole.
	segs, err := Run(cells, countsOf(cells, 1), uniformParams(2, 2, 1, 1000))
	require.NoError(t, err)
	require.Len(t, segs, 1)
	require.Equal(t, 2, segs[0].Res)
	require.ElementsMatch(t, cells, segs[0].Cells)
}

func TestRunOrderIndependentOfInputPermutation(t *testing.T) {
	cells := []hexgrid.CellID{"aa", "ab", "ac", "ad"}
	permuted := []hexgrid.CellID{"ad", "ab", "aa", "ac"}
	params := uniformParams(2, 0, 2, 1000)

	a, err := Run(cells, countsOf(cells, 1), params)
	require.NoError(t, err)
	b, err := Run(permuted, countsOf(permuted, 1), params)
	require.NoError(t, err)
	require.Equal(t, a, b)
}
