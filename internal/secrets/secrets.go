// Package secrets resolves credential settings that refer to environment
// variables or to mounted secret files (Docker, Kubernetes) instead of
// holding the value itself. Resolved values are never logged.
package secrets

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/logger"
)

// FilePrefix marks a value that names a secret file, e.g. "file:/run/secrets/plantnet"
const FilePrefix = "file:"

// maxFileSize bounds secret file reads; credentials are small
const maxFileSize = 64 << 10

// Resolve returns the credential described by value:
//
//	""                    -> ""
//	"file:/path"          -> contents of /path without trailing newlines
//	"${VAR}", "k-${VAR}"  -> environment expansion, ${VAR:-default} allowed
//	anything else         -> value unchanged
func Resolve(value string) (string, error) {
	if value == "" {
		return "", nil
	}
	if path, ok := strings.CutPrefix(value, FilePrefix); ok {
		return ReadFile(path)
	}
	return Expand(value)
}

// Expand substitutes ${VAR} and ${VAR:-default} references. A variable that
// is unset or empty without a default is an error.
func Expand(s string) (string, error) {
	var missing []string
	expanded := os.Expand(s, func(key string) string {
		name, fallback, hasFallback := strings.Cut(key, ":-")
		if value := os.Getenv(name); value != "" {
			return value
		}
		if hasFallback {
			return fallback
		}
		missing = append(missing, name)
		return ""
	})
	if len(missing) > 0 {
		return "", errors.Newf("missing environment variable(s) %s", strings.Join(missing, ", ")).
			Component("secrets").
			Category(errors.CategoryConfiguration).
			Build()
	}
	return expanded, nil
}

// ReadFile reads a secret file. Group or world readable files are accepted
// with a warning.
func ReadFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", fileError(path, fmt.Errorf("secret file path is empty"))
	}
	clean := filepath.Clean(path)

	info, err := os.Stat(clean)
	if err != nil {
		return "", fileError(clean, err)
	}
	if !info.Mode().IsRegular() {
		return "", fileError(clean, fmt.Errorf("secret path is not a regular file"))
	}
	if info.Size() > maxFileSize {
		return "", fileError(clean, fmt.Errorf("secret file exceeds %d bytes", maxFileSize))
	}
	if perm := info.Mode().Perm(); perm&0o077 != 0 {
		logger.Global().Module("secrets").Warn("secret file is readable by group or others",
			logger.String("path", clean),
			logger.String("mode", fmt.Sprintf("%04o", perm)))
	}

	data, err := os.ReadFile(clean)
	if err != nil {
		return "", fileError(clean, err)
	}
	secret := strings.TrimRight(string(data), "\r\n")
	if secret == "" {
		return "", fileError(clean, fmt.Errorf("secret file is empty"))
	}
	return secret, nil
}

func fileError(path string, err error) error {
	return errors.New(err).
		Component("secrets").
		Category(errors.CategoryConfiguration).
		FileContext(path, 0).
		Build()
}
