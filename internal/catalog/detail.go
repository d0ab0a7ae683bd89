package catalog

import (
	"strings"

	"github.com/huam/biocurate/internal/crossref"
	"github.com/huam/biocurate/internal/specimen"
)

// IndeterminateName is shown for specimens without a scientific name
const IndeterminateName = "Indeterminate"

// SpecimenDetail is the display form of one resolved specimen
type SpecimenDetail struct {
	Code            string          `json:"code" yaml:"code"`
	DisplayName     string          `json:"display_name" yaml:"display_name"`
	Author          string          `json:"author,omitempty" yaml:"author,omitempty"`
	Family          string          `json:"family,omitempty" yaml:"family,omitempty"`
	StorageLocation string          `json:"storage_location,omitempty" yaml:"storage_location,omitempty"`
	Collectors      string          `json:"collectors,omitempty" yaml:"collectors,omitempty"`
	CollectionDate  string          `json:"collection_date,omitempty" yaml:"collection_date,omitempty"`
	FieldNumber     string          `json:"field_number,omitempty" yaml:"field_number,omitempty"`
	Links           []crossref.Link `json:"links,omitempty" yaml:"links,omitempty"`
}

// Detail builds the display form of rec
func Detail(rec *specimen.Record) SpecimenDetail {
	name := strings.TrimSpace(rec.ScientificName)
	if name == "" {
		name = IndeterminateName
	}
	return SpecimenDetail{
		Code:            rec.CollectionCode,
		DisplayName:     name,
		Author:          strings.TrimSpace(rec.ScientificNameAuthor),
		Family:          rec.Family,
		StorageLocation: rec.StorageLocation,
		Collectors:      CollectorLine(rec),
		CollectionDate:  rec.CollectionDate(),
		FieldNumber:     strings.TrimSpace(rec.FieldNumber),
		Links:           crossref.Links(crossref.SearchTerm(rec.ScientificName, rec.Family)),
	}
}

// CollectorLine renders "Collector nº Number & Addcoll". Missing parts are
// dropped; a record with neither collector nor number yields "".
func CollectorLine(rec *specimen.Record) string {
	collector := strings.TrimSpace(rec.Collector)
	number := strings.TrimSpace(rec.CollectorNumberPrefix + rec.CollectorNumber + rec.CollectorNumberSuffix)
	if collector == "" && number == "" {
		return ""
	}

	var b strings.Builder
	b.WriteString(collector)
	if number != "" {
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString("nº ")
		b.WriteString(number)
	}
	if add := strings.TrimSpace(rec.AdditionalCollectors); add != "" {
		b.WriteString(" & ")
		b.WriteString(add)
	}
	return b.String()
}
