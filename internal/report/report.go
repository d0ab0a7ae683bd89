// Package report renders curation results for terminals and scripts, as
// aligned text, JSON or YAML.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/huam/biocurate/internal/catalog"
	"github.com/huam/biocurate/internal/curation"
	"github.com/huam/biocurate/internal/exsicata"
	"github.com/huam/biocurate/internal/specimen"
)

// Format selects the rendering
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts text, json and yaml in any case; "" means text
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q, use text, json or yaml", s)
	}
}

// Message is a one-line notice such as an inline error
type Message struct {
	Level string `json:"level" yaml:"level"`
	Text  string `json:"message" yaml:"message"`
}

// DatasetSummary describes a loaded specimen or image worksheet
type DatasetSummary struct {
	Kind    string          `json:"kind" yaml:"kind"`
	Origin  specimen.Origin `json:"origin,omitempty" yaml:"origin,omitempty"`
	Name    string          `json:"name" yaml:"name"`
	Records int             `json:"records" yaml:"records"`
}

// SummarizeSpecimens describes a specimen snapshot
func SummarizeSpecimens(ds *specimen.Dataset) DatasetSummary {
	src := ds.Source()
	return DatasetSummary{Kind: "specimens", Origin: src.Origin, Name: src.Name, Records: ds.Len()}
}

// SummarizeImages describes an image worksheet
func SummarizeImages(ds *exsicata.Dataset, name string) DatasetSummary {
	return DatasetSummary{Kind: "images", Origin: specimen.OriginUpload, Name: name, Records: ds.Len()}
}

// Render writes v to w in format
func Render(w io.Writer, format Format, v any) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return renderText(w, v)
	}
}

func renderText(w io.Writer, v any) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	p := &printer{w: tw}
	switch r := v.(type) {
	case Message:
		p.line("%s: %s", strings.ToUpper(r.Level), r.Text)
	case DatasetSummary:
		p.datasetSummary(r)
	case curation.CodeLookup:
		p.codeLookup(r)
	case catalog.FieldNumberResult:
		p.fieldNumber(r)
	case catalog.TaxonReport:
		p.taxonReport(r)
	case catalog.Census:
		p.census(r)
	case curation.ImageSearch:
		p.imageSearch(r)
	default:
		p.line("%v", v)
	}
	if p.err != nil {
		return p.err
	}
	return tw.Flush()
}

// printer keeps the first write error
type printer struct {
	w   io.Writer
	err error
}

func (p *printer) line(format string, args ...any) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format+"\n", args...)
}

// field prints "label:\tvalue", skipping blank values
func (p *printer) field(label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	p.line("%s:\t%s", label, value)
}

func (p *printer) list(label string, values []string) {
	if len(values) == 0 {
		p.line("%s:\t-", label)
		return
	}
	p.line("%s:\t%s", label, strings.Join(values, ", "))
}

func (p *printer) datasetSummary(s DatasetSummary) {
	p.line("Loaded %d %s records from %s (%s)", s.Records, s.Kind, s.Name, s.Origin)
}

func (p *printer) codeLookup(r curation.CodeLookup) {
	if r.Detail == nil {
		p.line("No specimen matches code %s", r.Query)
		return
	}
	d := r.Detail
	p.field("Code", d.Code)
	name := d.DisplayName
	if d.Author != "" {
		name += " " + d.Author
	}
	p.field("Species", name)
	p.field("Family", d.Family)
	p.field("Storage", d.StorageLocation)
	p.field("Collectors", d.Collectors)
	p.field("Collected", d.CollectionDate)
	p.field("Field number", d.FieldNumber)
	for _, link := range d.Links {
		p.line("  %s\t%s", link.Name, link.URL)
	}
	if len(r.Matches) > 1 {
		codes := make([]string, 0, len(r.Matches)-1)
		for _, rec := range r.Matches[1:] {
			codes = append(codes, rec.CollectionCode)
		}
		p.line("Also matching %s:\t%s", r.Query, strings.Join(codes, ", "))
	}
}

func (p *printer) fieldNumber(r catalog.FieldNumberResult) {
	p.line("Field number %s: %d records", r.Query, len(r.Matches))
	p.records(r.Matches)
}

func (p *printer) records(recs []specimen.Record) {
	if len(recs) == 0 {
		return
	}
	p.line("CODE\tSCIENTIFIC NAME\tFAMILY\tSTORAGE")
	for i := range recs {
		rec := &recs[i]
		name := rec.ScientificName
		if strings.TrimSpace(name) == "" {
			name = catalog.IndeterminateName
		}
		p.line("%s\t%s\t%s\t%s", rec.CollectionCode, name, rec.Family, rec.StorageLocation)
	}
}

func (p *printer) taxonReport(r catalog.TaxonReport) {
	p.line("%s %s: %d records", cases.Title(language.English).String(string(r.Level)), r.Query, r.Count)
	switch r.Level {
	case catalog.LevelFamily:
		p.list("Genera", r.Genera)
		p.list("Species", r.Species)
	case catalog.LevelGenus:
		p.list("Families", r.Families)
		p.list("Species", r.Species)
		p.line("Identified to genus only:\t%d", r.GenusOnly)
	case catalog.LevelSpecies:
		p.list("Families", r.Families)
	}
	p.list("Storage locations", r.StorageLocations)
	if r.Level == catalog.LevelSpecies {
		p.records(r.Records)
	}
}

func (p *printer) census(c catalog.Census) {
	p.line("%d families, %d records", c.TotalFamilies, c.TotalRecords)
	p.line("FAMILY\tRECORDS")
	for _, fc := range c.Families {
		p.line("%s\t%d", fc.Family, fc.Count)
	}
}

func (p *printer) imageSearch(s curation.ImageSearch) {
	p.line("Images for %s: %d rows, %d identified", s.Query, len(s.Results), s.Count(curation.OutcomeIdentified))
	for _, r := range s.Results {
		label := r.Barcode
		if r.ArchiveName != "" {
			label += " (" + r.ArchiveName + ")"
		}
		switch r.Outcome {
		case curation.OutcomeIdentified:
			p.line("%s\t%s", label, r.DirectURL)
			for _, c := range r.Candidates {
				p.line("  %s\t%s\t%s", c.ScientificName, c.Percent(), c.GBIFURL())
			}
		default:
			p.line("%s\t%s\t%s", label, r.Outcome, r.Message)
		}
	}
}
