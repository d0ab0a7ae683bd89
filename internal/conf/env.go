// env.go - Environment variable configuration and validation for BioCurate
package conf

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every automatically bound variable, e.g. BIOCURATE_DATASET_SOURCE
const EnvPrefix = "BIOCURATE"

// envBinding holds metadata for environment variable bindings (internal use)
type envBinding struct {
	ConfigKey string             // Viper config key
	EnvVar    string             // Environment variable name
	Validate  func(string) error // Optional validation function
}

// getEnvBindings returns the short-named variables; every other key is
// reachable through the prefixed automatic binding
func getEnvBindings() []envBinding {
	return []envBinding{
		{"debug", "BIOCURATE_DEBUG", validateEnvBool},

		// Dataset
		{"dataset.spreadsheetid", "BIOCURATE_SPREADSHEET_ID", nil},
		{"dataset.apikey", "BIOCURATE_SHEETS_API_KEY", nil},
		{"dataset.credentialsfile", "GOOGLE_APPLICATION_CREDENTIALS", validateEnvPath},
		{"dataset.source", "BIOCURATE_DATASET_SOURCE", validateEnvSource},

		// Identification
		{"plantnet.apikey", "BIOCURATE_PLANTNET_API_KEY", nil},
		{"plantnet.apikey", "PLANTNET_API_KEY", nil},

		// Archive
		{"images.s3.accesskeyid", "AWS_ACCESS_KEY_ID", nil},
		{"images.s3.secretaccesskey", "AWS_SECRET_ACCESS_KEY", nil},

		// Surfaces
		{"webserver.port", "BIOCURATE_PORT", validateEnvPort},
		{"sentry.dsn", "SENTRY_DSN", nil},
	}
}

// bindEnvVars sets up environment variable bindings with validation (internal)
func bindEnvVars(v *viper.Viper) error {
	var warnings []string

	// BindEnv replaces earlier bindings of the same key, so all names of a key go in one call
	names := make(map[string][]string)
	var order []string
	for _, binding := range getEnvBindings() {
		if _, seen := names[binding.ConfigKey]; !seen {
			order = append(order, binding.ConfigKey)
		}
		names[binding.ConfigKey] = append(names[binding.ConfigKey], binding.EnvVar)

		if binding.Validate != nil {
			if envValue := os.Getenv(binding.EnvVar); envValue != "" {
				if err := binding.Validate(envValue); err != nil {
					warnings = append(warnings, fmt.Sprintf("Invalid %s value '%s': %v", binding.EnvVar, envValue, err))
				}
			}
		}
	}

	for _, key := range order {
		input := append([]string{key}, names[key]...)
		if err := v.BindEnv(input...); err != nil {
			warnings = append(warnings, fmt.Sprintf("Failed to bind %s: %v", key, err))
		}
	}

	if len(warnings) > 0 {
		return fmt.Errorf("environment variable issues:\n  - %s", strings.Join(warnings, "\n  - "))
	}
	return nil
}

// validateEnvBool validates boolean environment variables
func validateEnvBool(value string) error {
	if _, err := strconv.ParseBool(value); err != nil {
		return fmt.Errorf("must be true or false")
	}
	return nil
}

// validateEnvPort validates a TCP port number
func validateEnvPort(value string) error {
	port, err := strconv.Atoi(value)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("must be a port between 1 and 65535")
	}
	return nil
}

// validateEnvSource validates the dataset source kind
func validateEnvSource(value string) error {
	switch value {
	case SourceAPI, SourceExport:
		return nil
	}
	return fmt.Errorf("must be %q or %q", SourceAPI, SourceExport)
}

// validateEnvPath warns about files that do not exist
func validateEnvPath(value string) error {
	if _, err := os.Stat(value); err != nil {
		return fmt.Errorf("warning: file does not exist: %s", value)
	}
	return nil
}

// configureEnvironmentVariables sets up environment variable support for Viper
func configureEnvironmentVariables(v *viper.Viper) error {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return bindEnvVars(v)
}
