package batch

import (
	"testing"

	"github.com/nrg-champ/geohgc/internal/aggregate"
	"github.com/nrg-champ/geohgc/internal/compress"
	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }

func TestAssembleSingleCellMatchesSpecExampleS1(t *testing.T) {
	cell := hexgrid.FromLatLng(10, 20, 8)
	entries := map[hexgrid.CellID][]model.Entry{
		cell: {{Timestamp: 0, PM25: f(10)}},
	}
	table := aggregate.Build(entries)
	seg := compress.Segment{Res: 0, Cells: table.Cells}

	params := model.HGCParams{BaseRes: 8, MinRes: 0, MaxLeavesPerBatch: 100, MaxSamplesPerBatch: 100, HysteresisNear: 0.9, HysteresisFar: 1.1}
	b, err := Assemble(seg, 0, 8, table, params)
	require.NoError(t, err)

	require.Equal(t, 1, b.CountLeaves)
	require.Equal(t, 1, b.CountSamples)
	require.Len(t, b.Data[string(cell)], 1)
	require.NotEmpty(t, b.MerkleRoot)
	require.NotEmpty(t, b.Hash)
}

func TestAssembleHashExcludesItself(t *testing.T) {
	cell := hexgrid.FromLatLng(1, 1, 8)
	entries := map[hexgrid.CellID][]model.Entry{cell: {{Timestamp: 0, PM25: f(1)}}}
	table := aggregate.Build(entries)
	seg := compress.Segment{Res: 0, Cells: table.Cells}
	params := model.HGCParams{BaseRes: 8, MaxLeavesPerBatch: 10, MaxSamplesPerBatch: 10, HysteresisNear: 0.9, HysteresisFar: 1.1}

	b1, err := Assemble(seg, 0, 8, table, params)
	require.NoError(t, err)
	b2, err := Assemble(seg, 0, 8, table, params)
	require.NoError(t, err)
	require.Equal(t, b1.Hash, b2.Hash)

	mutated := b1
	mutated.CountSamples = 999
	h2, err := contentHash(mutated)
	require.NoError(t, err)
	require.NotEqual(t, b1.Hash, h2)
}

func TestAssembleTsMinMaxNilWhenNoSamples(t *testing.T) {
	cell := hexgrid.FromLatLng(1, 1, 8)
	entries := map[hexgrid.CellID][]model.Entry{cell: {}}
	table := aggregate.Build(entries)
	seg := compress.Segment{Res: 0, Cells: table.Cells}
	params := model.HGCParams{BaseRes: 8, MaxLeavesPerBatch: 10, MaxSamplesPerBatch: 10, HysteresisNear: 0.9, HysteresisFar: 1.1}

	b, err := Assemble(seg, 0, 8, table, params)
	require.NoError(t, err)
	require.Nil(t, b.TsMin)
	require.Nil(t, b.TsMax)
}
