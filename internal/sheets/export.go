package sheets

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"

	"github.com/huam/biocurate/internal/httpclient"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/tabular"
)

// DefaultExportBaseURL is the spreadsheet document root used for CSV export
const DefaultExportBaseURL = "https://docs.google.com/spreadsheets/d/"

// maxExportBytes bounds one exported worksheet
const maxExportBytes = 64 << 20

// ExportSource reads worksheets of a link-shared spreadsheet through the
// gviz CSV export endpoint. No credentials are sent.
type ExportSource struct {
	spreadsheetID string
	baseURL       string
	http          *httpclient.Client
	log           logger.Logger
}

// NewExportSource creates an export source. An empty baseURL uses DefaultExportBaseURL.
func NewExportSource(spreadsheetID, baseURL string, client *httpclient.Client, log logger.Logger) (*ExportSource, error) {
	if spreadsheetID == "" {
		return nil, configError("spreadsheet id is required")
	}
	if baseURL == "" {
		baseURL = DefaultExportBaseURL
	}
	if !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	if client == nil {
		client = httpclient.New(nil)
	}
	if log == nil {
		log = logger.Global().Module("sheets")
	}
	return &ExportSource{spreadsheetID: spreadsheetID, baseURL: baseURL, http: client, log: log}, nil
}

// ExportURL returns the CSV export URL of a worksheet
func (s *ExportSource) ExportURL(name string) string {
	q := url.Values{}
	q.Set("tqx", "out:csv")
	q.Set("sheet", name)
	return s.baseURL + url.PathEscape(s.spreadsheetID) + "/gviz/tq?" + q.Encode()
}

// Worksheet downloads and parses the named worksheet
func (s *ExportSource) Worksheet(ctx context.Context, name string) (*tabular.Table, error) {
	target := s.ExportURL(name)
	resp, err := s.http.Get(ctx, target)
	if err != nil {
		s.log.Warn("worksheet export failed",
			logger.String("worksheet", name),
			logger.Error(err))
		return nil, remoteError(err, name).NetworkContext(target, 0).Build()
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, remoteError(fmt.Errorf("worksheet export returned status %d", resp.StatusCode), name).
			Context("status_code", resp.StatusCode).
			Build()
	}
	// A private document redirects to the sign-in page
	if mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mediaType == "text/html" {
		return nil, remoteError(fmt.Errorf("spreadsheet is not shared publicly"), name).
			Context("content_type", mediaType).
			Build()
	}

	table, err := tabular.Read(io.LimitReader(resp.Body, maxExportBytes))
	if err != nil {
		return nil, err
	}
	s.log.Debug("worksheet exported",
		logger.String("worksheet", name),
		logger.Int("rows", table.Len()))
	return table, nil
}
