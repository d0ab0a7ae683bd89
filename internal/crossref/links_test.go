package crossref

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchTerm(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "Miconia albicans", SearchTerm(" Miconia albicans ", "Melastomataceae"))
	assert.Equal(t, "Melastomataceae", SearchTerm("  ", "Melastomataceae "))
	assert.Equal(t, "", SearchTerm("", ""))
}

func TestLinks(t *testing.T) {
	t.Parallel()

	links := Links("Miconia albicans")
	require.Len(t, links, 8)

	byName := make(map[string]string, len(links))
	for _, l := range links {
		byName[l.Name] = l.URL
	}
	assert.Equal(t, "https://www.gbif.org/search?q=Miconia+albicans", byName["GBIF"])
	assert.Equal(t, "https://powo.science.kew.org/results?q=Miconia+albicans", byName["POWO"])
	assert.Equal(t, "https://www.ipni.org/search?q=Miconia+albicans", byName["IPNI"])
	assert.Equal(t, "https://www.worldfloraonline.org/search?query=Miconia+albicans", byName["World Flora"])
	assert.Equal(t, "https://plants.jstor.org/search?filter=name&so=ps_group_by_genus_species+asc&Query=Miconia+albicans", byName["JSTOR Plants"])
	assert.Equal(t, "https://specieslink.net/search/", byName["SpeciesLink"])
	assert.Contains(t, byName["Reflora Lista"], "nomeCompleto=Miconia+albicans")
	assert.Contains(t, byName["Reflora HV"], "nomeCientifico=Miconia+albicans")
	assert.Equal(t, "GBIF", links[0].Name)
}

func TestLinksEmptyTerm(t *testing.T) {
	t.Parallel()
	assert.Empty(t, Links("   "))
}

func TestGBIF(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "https://www.gbif.org/search?q=Ficus+benjamina", GBIF("Ficus benjamina"))
	assert.Equal(t, "https://www.gbif.org/search?q=A+%26+B", GBIF("A & B"))
}
