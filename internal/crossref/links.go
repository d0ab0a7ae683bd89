// Package crossref builds outbound search links to external biodiversity databases.
package crossref

import (
	"net/url"
	"strings"
)

// Link is a named outbound search URL
type Link struct {
	Name string `json:"name" yaml:"name"`
	URL  string `json:"url" yaml:"url"`
}

type endpoint struct {
	name string
	base string
	// fixed means the page takes no query term
	fixed bool
}

var endpoints = []endpoint{
	{name: "GBIF", base: "https://www.gbif.org/search?q="},
	{name: "Reflora Lista", base: "https://floradobrasil.jbrj.gov.br/reflora/listaBrasil/ConsultaPublicaUC/BemVindoConsultaPublicaConsultar.do?nomeCompleto="},
	{name: "Reflora HV", base: "https://floradobrasil.jbrj.gov.br/reflora/herbarioVirtual/ConsultaPublicoHVUC/BemVindoConsultaPublicaHVConsultar.do?nomeCientifico="},
	{name: "World Flora", base: "https://www.worldfloraonline.org/search?query="},
	{name: "POWO", base: "https://powo.science.kew.org/results?q="},
	{name: "IPNI", base: "https://www.ipni.org/search?q="},
	{name: "JSTOR Plants", base: "https://plants.jstor.org/search?filter=name&so=ps_group_by_genus_species+asc&Query="},
	{name: "SpeciesLink", base: "https://specieslink.net/search/", fixed: true},
}

// SearchTerm picks the scientific name, falling back to the family
func SearchTerm(scientificName, family string) string {
	if term := strings.TrimSpace(scientificName); term != "" {
		return term
	}
	return strings.TrimSpace(family)
}

// Encode query-escapes a taxon name; spaces become "+"
func Encode(term string) string {
	return url.QueryEscape(strings.TrimSpace(term))
}

// Links returns the search links for term in a fixed order. An empty term yields none.
func Links(term string) []Link {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}
	encoded := Encode(term)
	links := make([]Link, 0, len(endpoints))
	for _, ep := range endpoints {
		u := ep.base
		if !ep.fixed {
			u += encoded
		}
		links = append(links, Link{Name: ep.name, URL: u})
	}
	return links
}

// GBIF returns the GBIF search URL for a taxon name
func GBIF(name string) string {
	return endpoints[0].base + Encode(name)
}
