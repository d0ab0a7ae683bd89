// config.go: settings struct for BioCurate and the functions to load and save it
package conf

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
)

// Dataset source kinds
const (
	SourceAPI    = "api"    // Google Sheets API v4
	SourceExport = "export" // public gviz CSV export
)

// DatasetSettings selects where specimen and image worksheets come from
type DatasetSettings struct {
	Source          string        // "api" or "export"
	SpreadsheetID   string        // document id; empty disables remote loading
	SpecimenSheet   string        // worksheet with specimen rows
	ImageSheet      string        // worksheet with exsicata links
	APIKey          string        // Sheets API key
	CredentialsFile string        // service account JSON, preferred over APIKey
	CacheTTL        time.Duration // how long fetched worksheets are reused
	ExportBaseURL   string        // override of the export document root
	Encoding        string        // text encoding of uploaded CSV files
}

// PlantNetSettings configures the species identification client
type PlantNetSettings struct {
	APIKey    string        // empty skips identification
	Endpoint  string        // identify endpoint
	Organ     string        // organ sent with every image
	Timeout   time.Duration // per request
	RateLimit time.Duration // minimum interval between requests
	CacheTTL  time.Duration // result reuse per image
}

// S3Settings configures the S3 compatible image archive
type S3Settings struct {
	Bucket          string
	Region          string
	Endpoint        string // custom endpoint for MinIO or similar
	PathStyle       bool
	AccessKeyID     string
	SecretAccessKey string
}

// ImageSettings configures exsicata downloads and the archive they are kept in
type ImageSettings struct {
	Archive  string // fs, s3, memory or none
	Path     string // fs archive root
	MaxBytes int64  // largest accepted image
	S3       S3Settings
}

// WebServerSettings configures the HTTP API
type WebServerSettings struct {
	Enabled        bool
	Host           string // empty binds all interfaces
	Port           string
	Debug          bool
	MaxUploadBytes int64    // multipart dataset upload limit
	AllowedOrigins []string // CORS origins, "*" for any
}

// MetricsSettings toggles the Prometheus endpoint
type MetricsSettings struct {
	Enabled bool
}

// SentrySettings configures optional error telemetry
type SentrySettings struct {
	Enabled bool
	DSN     string
}

// Settings contains all configuration options for BioCurate
type Settings struct {
	Debug     bool
	Dataset   DatasetSettings
	PlantNet  PlantNetSettings
	Images    ImageSettings
	WebServer WebServerSettings
	Metrics   MetricsSettings
	Logging   logger.LoggingConfig
	Sentry    SentrySettings

	// ConfigFile is the file the settings were read from, empty when defaults only
	ConfigFile string `yaml:"-" mapstructure:"-"`
}

var (
	settingsInstance *Settings
	settingsMutex    sync.RWMutex
)

// Load reads configFile, or the first config.yaml found in the default
// paths when configFile is empty, and overlays BIOCURATE_* environment
// variables. A missing default file is not an error; a missing explicit
// file is.
func Load(configFile string) (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)

	if err := configureEnvironmentVariables(v); err != nil {
		GetLogger().Warn("environment configuration issues", logger.Error(err))
	}

	used, err := readConfig(v, configFile)
	if err != nil {
		return nil, err
	}

	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling config into struct: %w", err)).
			Category(errors.CategoryConfiguration).
			Component("conf").
			FileContext(used, 0).
			Build()
	}
	settings.ConfigFile = used

	if err := resolveSecrets(settings); err != nil {
		return nil, err
	}

	if err := ValidateSettings(settings); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}

	settingsMutex.Lock()
	settingsInstance = settings
	settingsMutex.Unlock()
	return settings, nil
}

// readConfig loads the YAML file into v and returns its path
func readConfig(v *viper.Viper, configFile string) (string, error) {
	v.SetConfigType("yaml")
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return "", errors.New(fmt.Errorf("error reading config file: %w", err)).
				Category(errors.CategoryConfiguration).
				Component("conf").
				FileContext(configFile, 0).
				Build()
		}
		return configFile, nil
	}

	v.SetConfigName("config")
	for _, path := range GetDefaultConfigPaths() {
		v.AddConfigPath(path)
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			GetLogger().Debug("no config file found, using defaults")
			return "", nil
		}
		return "", errors.New(fmt.Errorf("fatal error reading config file: %w", err)).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	return v.ConfigFileUsed(), nil
}

// GetSettings returns the most recently loaded settings, or nil
func GetSettings() *Settings {
	settingsMutex.RLock()
	defer settingsMutex.RUnlock()
	return settingsInstance
}

// Defaults returns the built-in settings, ignoring config files and the
// environment
func Defaults() (*Settings, error) {
	v := viper.New()
	setDefaultConfig(v)
	settings := &Settings{}
	if err := v.Unmarshal(settings); err != nil {
		return nil, errors.New(fmt.Errorf("error unmarshaling default config: %w", err)).
			Category(errors.CategoryConfiguration).
			Component("conf").
			Build()
	}
	return settings, nil
}

// InitConfigFile writes the default settings to path. An existing file is
// left alone and reported as an error.
func InitConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Newf("config file %s already exists", path).
			Category(errors.CategoryValidation).
			Component("conf").
			FileContext(path, 0).
			Build()
	}
	settings, err := Defaults()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.New(err).
				Category(errors.CategoryFileIO).
				Component("conf").
				FileContext(path, 0).
				Build()
		}
	}
	if err := SaveYAMLConfig(path, settings); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Component("conf").
			FileContext(path, 0).
			Build()
	}
	return nil
}

// SaveYAMLConfig writes settings to configPath atomically.
// It overwrites the existing file, not preserving comments or structure.
func SaveYAMLConfig(configPath string, settings *Settings) error {
	yamlData, err := yaml.Marshal(settings)
	if err != nil {
		return fmt.Errorf("error marshaling settings to YAML: %w", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(configPath), "config-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temporary file: %w", err)
	}
	tempFileName := tempFile.Name()
	defer func() { _ = os.Remove(tempFileName) }()

	if _, err := tempFile.Write(yamlData); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("error writing to temporary file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("error closing temporary file: %w", err)
	}

	// The file may hold API keys
	if err := os.Chmod(tempFileName, 0o600); err != nil {
		return fmt.Errorf("error setting config file permissions: %w", err)
	}
	if err := os.Rename(tempFileName, configPath); err != nil {
		return fmt.Errorf("error replacing config file: %w", err)
	}
	return nil
}

// RemoteEnabled reports whether a spreadsheet is configured
func (s *Settings) RemoteEnabled() bool {
	return s.Dataset.SpreadsheetID != ""
}

// IdentificationEnabled reports whether a Pl@ntNet key is configured
func (s *Settings) IdentificationEnabled() bool {
	return s.PlantNet.APIKey != ""
}
