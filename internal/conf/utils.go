package conf

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
	"github.com/huam/biocurate/internal/secrets"
)

const (
	appDirName = "biocurate"
	osWindows  = "windows"
)

// GetDefaultConfigPaths returns the directories searched for config.yaml:
// the working directory, then the per-user and system-wide locations
func GetDefaultConfigPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		if runtime.GOOS == osWindows {
			paths = append(paths, filepath.Join(homeDir, "AppData", "Roaming", appDirName))
		} else {
			paths = append(paths, filepath.Join(homeDir, ".config", appDirName))
		}
	}
	if runtime.GOOS != osWindows {
		paths = append(paths, filepath.Join("/etc", appDirName))
	}
	return paths
}

// GetLogger returns the config package logger scoped to the config module.
// The logger is fetched from the global logger each time to ensure it uses
// the current centralized logger (which may be set after package init).
func GetLogger() logger.Logger {
	return logger.Global().Module("config")
}

// resolveSecrets replaces credential settings given as ${VAR} or file:
// references with their values
func resolveSecrets(settings *Settings) error {
	fields := []struct {
		key   string
		value *string
	}{
		{"dataset.apikey", &settings.Dataset.APIKey},
		{"plantnet.apikey", &settings.PlantNet.APIKey},
		{"images.s3.accesskeyid", &settings.Images.S3.AccessKeyID},
		{"images.s3.secretaccesskey", &settings.Images.S3.SecretAccessKey},
		{"sentry.dsn", &settings.Sentry.DSN},
	}
	for _, f := range fields {
		resolved, err := secrets.Resolve(*f.value)
		if err != nil {
			return errors.New(err).
				Category(errors.CategoryConfiguration).
				Component("conf").
				Context("key", f.key).
				Build()
		}
		*f.value = resolved
	}
	return nil
}
