package catalog

import (
	"slices"

	"github.com/huam/biocurate/internal/specimen"
	"github.com/huam/biocurate/internal/tabular"
)

// FamilyCount is one census entry
type FamilyCount struct {
	Family string `json:"family" yaml:"family"`
	Count  int    `json:"count" yaml:"count"`
}

// Census is the row count per family over a whole dataset
type Census struct {
	TotalFamilies int           `json:"total_families" yaml:"total_families"`
	TotalRecords  int           `json:"total_records" yaml:"total_records"`
	Families      []FamilyCount `json:"families" yaml:"families"`
}

// Names returns the family names in census order
func (c Census) Names() []string {
	names := make([]string, len(c.Families))
	for i, fc := range c.Families {
		names[i] = fc.Family
	}
	return names
}

// FamilyCensus counts rows per family, sorted ascending by count. Families
// with equal counts keep the order of their first appearance in the store.
// Rows without a family are left out.
func FamilyCensus(ds *specimen.Dataset) Census {
	census := Census{Families: []FamilyCount{}}
	if ds == nil {
		return census
	}
	census.TotalRecords = ds.Len()

	position := make(map[string]int)
	for _, rec := range ds.All() {
		if tabular.IsAbsent(rec.Family) {
			continue
		}
		if i, ok := position[rec.Family]; ok {
			census.Families[i].Count++
			continue
		}
		position[rec.Family] = len(census.Families)
		census.Families = append(census.Families, FamilyCount{Family: rec.Family, Count: 1})
	}

	// SortStableFunc keeps first-appearance order among ties
	slices.SortStableFunc(census.Families, func(a, b FamilyCount) int {
		return a.Count - b.Count
	})
	census.TotalFamilies = len(census.Families)
	return census
}
