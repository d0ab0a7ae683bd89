package sheets

import (
	"context"
	"net/http"
	"os"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/tabular"
)

// APIConfig configures the Sheets API v4 source. Exactly one of APIKey and
// CredentialsFile is expected; the credentials file wins when both are set.
type APIConfig struct {
	SpreadsheetID   string
	APIKey          string
	CredentialsFile string
	// Endpoint overrides the API base URL, mainly for tests
	Endpoint string
	// HTTPClient carries the shared transport; nil uses http.DefaultClient
	HTTPClient *http.Client
}

// APISource reads worksheets through the Google Sheets API
type APISource struct {
	spreadsheetID string
	service       *sheets.Service
	log           logger.Logger
}

// NewAPISource builds the Sheets service for cfg
func NewAPISource(ctx context.Context, cfg APIConfig, log logger.Logger) (*APISource, error) {
	if cfg.SpreadsheetID == "" {
		return nil, configError("spreadsheet id is required")
	}
	if log == nil {
		log = logger.Global().Module("sheets")
	}
	base := cfg.HTTPClient
	if base == nil {
		base = http.DefaultClient
	}

	var client *http.Client
	switch {
	case cfg.CredentialsFile != "":
		data, err := os.ReadFile(cfg.CredentialsFile)
		if err != nil {
			return nil, errors.New(err).
				Component("sheets").
				Category(errors.CategoryConfiguration).
				FileContext(cfg.CredentialsFile, 0).
				Build()
		}
		jwt, err := google.JWTConfigFromJSON(data, sheets.SpreadsheetsReadonlyScope)
		if err != nil {
			return nil, errors.New(err).
				Component("sheets").
				Category(errors.CategoryConfiguration).
				Context("reason", "invalid service account credentials").
				Build()
		}
		// Token and API requests share the instrumented transport
		client = jwt.Client(context.WithValue(ctx, oauth2.HTTPClient, base))
	case cfg.APIKey != "":
		client = &http.Client{Transport: &transport.APIKey{Key: cfg.APIKey, Transport: base.Transport}}
	default:
		return nil, configError("an API key or service account credentials file is required")
	}

	opts := []option.ClientOption{option.WithHTTPClient(client)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.New(err).
			Component("sheets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return &APISource{spreadsheetID: cfg.SpreadsheetID, service: service, log: log}, nil
}

// Worksheet reads every populated cell of the named worksheet
func (s *APISource) Worksheet(ctx context.Context, name string) (*tabular.Table, error) {
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(name)).
		ValueRenderOption("FORMATTED_VALUE").
		Context(ctx).
		Do()
	if err != nil {
		s.log.Warn("worksheet read failed",
			logger.String("worksheet", name),
			logger.Error(err))
		return nil, remoteError(err, name).Build()
	}

	table := tabular.FromValues(resp.Values)
	s.log.Debug("worksheet read",
		logger.String("worksheet", name),
		logger.Int("rows", table.Len()))
	return table, nil
}

// quoteSheet turns a worksheet name into an A1 range covering the sheet
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}

func configError(msg string) error {
	return errors.Newf("%s", msg).
		Component("sheets").
		Category(errors.CategoryConfiguration).
		Build()
}
