package aggregate

import (
	"testing"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
	"github.com/stretchr/testify/require"
)

func TestBuildSortsCellsAndSumsSampleCounts(t *testing.T) {
	entries := map[hexgrid.CellID][]model.Entry{
		"zzz": {{Timestamp: 0}, {Timestamp: 1, Samples: []model.Entry{{}, {}, {}}}},
		"aaa": {{Timestamp: 0}},
	}
	tbl := Build(entries)
	require.Equal(t, []hexgrid.CellID{"aaa", "zzz"}, tbl.Cells)
	require.Equal(t, 1, tbl.SampleCountByCell["aaa"])
	require.Equal(t, 4, tbl.SampleCountByCell["zzz"])
}
