// conf/validate.go

package conf

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/huam/biocurate/internal/blob"
	"github.com/huam/biocurate/internal/tabular"
)

// Organs accepted by the identification service
var validOrgans = []string{"auto", "leaf", "flower", "fruit", "bark", "habit", "other"}

// ValidationError represents a collection of validation errors
type ValidationError struct {
	Errors []string
}

// Error returns a string representation of the validation errors
func (ve ValidationError) Error() string {
	return fmt.Sprintf("Validation errors: %v", ve.Errors)
}

// ValidateSettings validates the entire Settings struct and reports every problem at once
func ValidateSettings(settings *Settings) error {
	ve := ValidationError{}

	ve.Errors = append(ve.Errors, validateDatasetSettings(&settings.Dataset)...)
	ve.Errors = append(ve.Errors, validatePlantNetSettings(&settings.PlantNet)...)
	ve.Errors = append(ve.Errors, validateImageSettings(&settings.Images)...)
	ve.Errors = append(ve.Errors, validateWebServerSettings(&settings.WebServer)...)

	if settings.Sentry.Enabled && strings.TrimSpace(settings.Sentry.DSN) == "" {
		ve.Errors = append(ve.Errors, "Sentry DSN is required when sentry is enabled")
	}

	if len(ve.Errors) > 0 {
		return ve
	}
	return nil
}

func validateDatasetSettings(settings *DatasetSettings) []string {
	var errs []string

	switch settings.Source {
	case SourceAPI:
		// Remote loading off without a spreadsheet; uploads still work
		if settings.SpreadsheetID != "" && settings.APIKey == "" && settings.CredentialsFile == "" {
			errs = append(errs, "dataset source api needs an API key or a credentials file")
		}
	case SourceExport:
	default:
		errs = append(errs, fmt.Sprintf("dataset source must be %q or %q, got %q", SourceAPI, SourceExport, settings.Source))
	}

	if strings.TrimSpace(settings.SpecimenSheet) == "" {
		errs = append(errs, "dataset specimen worksheet name must not be empty")
	}
	if strings.TrimSpace(settings.ImageSheet) == "" {
		errs = append(errs, "dataset image worksheet name must not be empty")
	}
	if settings.CacheTTL < 0 {
		errs = append(errs, "dataset cache TTL must not be negative")
	}

	switch strings.ToLower(settings.Encoding) {
	case "", tabular.EncodingUTF8, tabular.EncodingLatin1, tabular.EncodingWindows1252:
	default:
		errs = append(errs, fmt.Sprintf("unsupported dataset encoding %q", settings.Encoding))
	}
	return errs
}

func validatePlantNetSettings(settings *PlantNetSettings) []string {
	var errs []string

	if !slices.Contains(validOrgans, settings.Organ) {
		errs = append(errs, fmt.Sprintf("plantnet organ must be one of %s", strings.Join(validOrgans, ", ")))
	}
	if settings.Timeout <= 0 {
		errs = append(errs, "plantnet timeout must be positive")
	}
	if settings.RateLimit < 0 {
		errs = append(errs, "plantnet rate limit must not be negative")
	}
	if settings.CacheTTL < 0 {
		errs = append(errs, "plantnet cache TTL must not be negative")
	}
	if !strings.HasPrefix(settings.Endpoint, "https://") && !strings.HasPrefix(settings.Endpoint, "http://") {
		errs = append(errs, "plantnet endpoint must be an http(s) URL")
	}
	return errs
}

func validateImageSettings(settings *ImageSettings) []string {
	var errs []string

	switch blob.Driver(settings.Archive) {
	case blob.DriverFilesystem:
		if strings.TrimSpace(settings.Path) == "" {
			errs = append(errs, "images path is required for the fs archive")
		}
	case blob.DriverS3:
		if settings.S3.Bucket == "" {
			errs = append(errs, "images s3 bucket is required for the s3 archive")
		}
	case blob.DriverMemory, blob.DriverNone, "":
	default:
		errs = append(errs, fmt.Sprintf("unknown images archive driver %q", settings.Archive))
	}

	if settings.MaxBytes <= 0 {
		errs = append(errs, "images max bytes must be positive")
	}
	return errs
}

func validateWebServerSettings(settings *WebServerSettings) []string {
	var errs []string

	if settings.Enabled {
		port, err := strconv.Atoi(settings.Port)
		if err != nil || port < 1 || port > 65535 {
			errs = append(errs, fmt.Sprintf("webserver port must be between 1 and 65535, got %q", settings.Port))
		}
	}
	if settings.MaxUploadBytes <= 0 {
		errs = append(errs, "webserver max upload bytes must be positive")
	}
	for _, origin := range settings.AllowedOrigins {
		if origin != "*" && !strings.HasPrefix(origin, "http://") && !strings.HasPrefix(origin, "https://") {
			errs = append(errs, fmt.Sprintf("webserver allowed origin %q must be \"*\" or an http(s) origin", origin))
		}
	}
	return errs
}
