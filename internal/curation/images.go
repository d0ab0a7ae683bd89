package curation

import (
	"context"
	"time"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/exsicata"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/plantnet"
	"github.com/huam/biocurate/internal/tabular"
)

// ImageOutcome is the per-row result of an image search
type ImageOutcome string

const (
	OutcomeIdentified            ImageOutcome = "identified"
	OutcomeNoMatch               ImageOutcome = "no_match"
	OutcomeInvalidLink           ImageOutcome = "invalid_link"
	OutcomeFetchError            ImageOutcome = "fetch_error"
	OutcomeNotImage              ImageOutcome = "not_image"
	OutcomeIdentificationError   ImageOutcome = "identification_error"
	OutcomeIdentificationSkipped ImageOutcome = "identification_skipped"
)

// uploadFilename is the form filename sent with every scan
const uploadFilename = "image.jpg"

// notImageMessage is shown when Drive answers with a page instead of the file
const notImageMessage = "the link did not return an image, check that the file is shared publicly"

// ImageResult is one matched image row
type ImageResult struct {
	Row         int                  `json:"row" yaml:"row"`
	Barcode     string               `json:"barcode" yaml:"barcode"`
	URL         string               `json:"url" yaml:"url"`
	ArchiveName string               `json:"archive_name,omitempty" yaml:"archive_name,omitempty"`
	FileID      string               `json:"file_id,omitempty" yaml:"file_id,omitempty"`
	DirectURL   string               `json:"direct_url,omitempty" yaml:"direct_url,omitempty"`
	Outcome     ImageOutcome         `json:"outcome" yaml:"outcome"`
	Message     string               `json:"message,omitempty" yaml:"message,omitempty"`
	FromArchive bool                 `json:"from_archive,omitempty" yaml:"from_archive,omitempty"`
	Candidates  []plantnet.Candidate `json:"candidates,omitempty" yaml:"candidates,omitempty"`
}

// Best returns the top ranked candidate
func (r ImageResult) Best() (plantnet.Candidate, bool) {
	if len(r.Candidates) == 0 {
		return plantnet.Candidate{}, false
	}
	return r.Candidates[0], true
}

// ImageSearch lists every image row matched by a code, in worksheet order
type ImageSearch struct {
	Query   string        `json:"query" yaml:"query"`
	Results []ImageResult `json:"results" yaml:"results"`
}

// Count returns how many rows ended with outcome
func (s ImageSearch) Count(outcome ImageOutcome) int {
	n := 0
	for _, r := range s.Results {
		if r.Outcome == outcome {
			n++
		}
	}
	return n
}

// SearchImages resolves code against the image worksheet, then downloads
// and identifies every linked scan. A failing row is reported in its result
// and never aborts the others; the returned error only covers failures
// before any row is processed, or a code without image rows.
func (s *Service) SearchImages(ctx context.Context, code string) (ImageSearch, error) {
	start := time.Now()
	search := ImageSearch{Query: tabular.Normalize(code), Results: []ImageResult{}}

	ds, err := s.imageDataset(ctx)
	if err != nil {
		s.recordQuery(ActionImages, start, err)
		return search, err
	}

	links := exsicata.Resolve(ds, code)
	if len(links) == 0 {
		err := errors.Newf("no image rows match code %q", search.Query).
			Component("curation").
			Category(errors.CategoryNotFound).
			Context("code", search.Query).
			Build()
		s.recordQuery(ActionImages, start, err)
		return search, err
	}

	for _, link := range links {
		if err := ctx.Err(); err != nil {
			s.recordQuery(ActionImages, start, err)
			return search, errors.New(err).
				Component("curation").
				Category(errors.CategoryCancellation).
				Build()
		}
		result := s.processLink(ctx, link)
		s.exsicataMetrics.RecordOutcome(string(result.Outcome))
		search.Results = append(search.Results, result)
	}

	s.recordQuery(ActionImages, start, nil)
	s.log.Info("image search completed",
		logger.String("code", search.Query),
		logger.Int("rows", len(search.Results)),
		logger.Int("identified", search.Count(OutcomeIdentified)))
	return search, nil
}

// imageDataset returns the uploaded image worksheet, or reads the remote one
func (s *Service) imageDataset(ctx context.Context) (*exsicata.Dataset, error) {
	if ds := s.images.Load(); ds != nil {
		return ds, nil
	}
	if s.source == nil {
		return nil, errRemoteDisabled()
	}
	table, err := s.source.Worksheet(ctx, s.config.ImageSheet)
	if err != nil {
		s.catalogMetrics.RecordLoad(datasetImages, "remote", 0, err)
		return nil, err
	}
	ds, err := exsicata.FromTable(table)
	s.catalogMetrics.RecordLoad(datasetImages, "remote", ds.Len(), err)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

func (s *Service) processLink(ctx context.Context, link exsicata.Link) ImageResult {
	result := ImageResult{
		Row:         link.Record.Row,
		Barcode:     link.Record.Barcode,
		URL:         link.Record.URL,
		ArchiveName: link.Record.ArchiveName,
		FileID:      link.FileID,
		DirectURL:   link.DirectURL(),
	}
	if !link.Resolved() {
		result.Outcome = OutcomeInvalidLink
		result.Message = link.Reason
		return result
	}
	if s.fetcher == nil {
		result.Outcome = OutcomeIdentificationSkipped
		result.Message = "image download is disabled"
		return result
	}

	img, err := s.fetcher.Fetch(ctx, link.FileID)
	if err != nil {
		result.Message = err.Error()
		result.Outcome = OutcomeFetchError
		if errors.Is(err, exsicata.ErrNotImage) {
			result.Outcome = OutcomeNotImage
			result.Message = notImageMessage
		}
		s.log.Warn("image fetch failed",
			logger.String("barcode", link.Record.Barcode),
			logger.String("file_id", link.FileID),
			logger.Error(err))
		return result
	}
	result.FromArchive = img.FromArchive

	if s.identifier == nil {
		result.Outcome = OutcomeIdentificationSkipped
		result.Message = "no identification API key configured"
		return result
	}

	candidates, err := s.identifier.Identify(ctx, img.Data, uploadFilename, img.ContentType)
	if err != nil {
		result.Outcome = OutcomeIdentificationError
		result.Message = err.Error()
		s.log.Warn("identification failed",
			logger.String("barcode", link.Record.Barcode),
			logger.Error(err))
		return result
	}
	if len(candidates) == 0 {
		result.Outcome = OutcomeNoMatch
		result.Message = "no species match"
		return result
	}
	result.Outcome = OutcomeIdentified
	result.Candidates = candidates
	return result
}
