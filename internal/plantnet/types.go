// Package plantnet provides a client for the Pl@ntNet species identification API v2
package plantnet

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/huam/biocurate/internal/crossref"
)

const (
	// DefaultEndpoint is the "all floras" identification endpoint
	DefaultEndpoint = "https://my-api.plantnet.org/v2/identify/all"
	// DefaultOrgan is sent when no organ is configured
	DefaultOrgan = "leaf"
)

// Config holds configuration for the identification client
type Config struct {
	APIKey   string        `json:"api_key"`
	Endpoint string        `json:"endpoint"`
	Organ    string        `json:"organ"`
	Timeout  time.Duration `json:"timeout"`
	// RateLimit is the minimum interval between two requests; 0 disables limiting
	RateLimit time.Duration `json:"rate_limit"`
	// CacheTTL keeps results per image hash; 0 disables caching
	CacheTTL time.Duration `json:"cache_ttl"`
}

// DefaultConfig returns the default configuration without an API key
func DefaultConfig() Config {
	return Config{
		Endpoint:  DefaultEndpoint,
		Organ:     DefaultOrgan,
		Timeout:   60 * time.Second,
		RateLimit: 500 * time.Millisecond,
		CacheTTL:  30 * time.Minute,
	}
}

// Candidate is one ranked identification
type Candidate struct {
	ScientificName string  `json:"scientific_name" yaml:"scientific_name"`
	Score          float64 `json:"score" yaml:"score"`
}

// Percent renders the score as a percentage with two decimals, e.g. "87.65%"
func (c Candidate) Percent() string {
	return fmt.Sprintf("%.2f%%", c.Score*100)
}

// GBIFURL links the candidate name to a GBIF search
func (c Candidate) GBIFURL() string {
	return crossref.GBIF(c.ScientificName)
}

// candidateView is the serialized form; it carries the formatted values so
// API and file consumers see what the text report shows
type candidateView struct {
	ScientificName string  `json:"scientific_name" yaml:"scientific_name"`
	Score          float64 `json:"score" yaml:"score"`
	Percent        string  `json:"percent" yaml:"percent"`
	GBIFURL        string  `json:"gbif_url" yaml:"gbif_url"`
}

func (c Candidate) view() candidateView {
	return candidateView{
		ScientificName: c.ScientificName,
		Score:          c.Score,
		Percent:        c.Percent(),
		GBIFURL:        c.GBIFURL(),
	}
}

func (c Candidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.view())
}

func (c Candidate) MarshalYAML() (any, error) {
	return c.view(), nil
}

// identifyResponse is the subset of the API response that is read
type identifyResponse struct {
	Results []struct {
		Score   float64 `json:"score"`
		Species struct {
			ScientificNameWithoutAuthor string `json:"scientificNameWithoutAuthor"`
		} `json:"species"`
	} `json:"results"`
}

// apiError is the body returned with non-200 responses
type apiError struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}
