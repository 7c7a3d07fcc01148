// Package aggregate builds the per-cell reading table and sample
// counts that the compressor walks.
package aggregate

import (
	"sort"

	"github.com/nrg-champ/geohgc/internal/hexgrid"
	"github.com/nrg-champ/geohgc/internal/model"
)

// Table is the sorted, per-cell view the compressor consumes.
type Table struct {
	Cells             []hexgrid.CellID
	EntriesByCell     map[hexgrid.CellID][]model.Entry
	SampleCountByCell map[hexgrid.CellID]int
}

// Build sorts cell ids code-point ascending and computes each cell's
// sample count as the sum of its entries' SampleCount.
func Build(entriesByCell map[hexgrid.CellID][]model.Entry) Table {
	cells := make([]hexgrid.CellID, 0, len(entriesByCell))
	counts := make(map[hexgrid.CellID]int, len(entriesByCell))
	for cell, entries := range entriesByCell {
		cells = append(cells, cell)
		total := 0
		for _, e := range entries {
			total += e.SampleCount()
		}
		counts[cell] = total
	}
	sort.Slice(cells, func(i, j int) bool { return cells[i] < cells[j] })
	return Table{Cells: cells, EntriesByCell: entriesByCell, SampleCountByCell: counts}
}
