package logger

import (
	"net/url"
	"regexp"
	"strings"
)

// sensitiveQueryParams are query parameters whose values never reach a log line
var sensitiveQueryParams = []string{"api-key", "api_key", "apikey", "key", "token", "access_token"}

// sensitiveDataPatterns catch credentials embedded in free text
var sensitiveDataPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(bearer\s+)([A-Za-z0-9-._~+/]+=*)`),
	regexp.MustCompile(`(?i)((api[-_]?key|token|secret|passw(or)?d)[\s:=]+)([^;,&\s]{5,})`),
}

// RedactURL masks the values of credential query parameters; unparsable input is redacted as text
func RedactURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.RawQuery == "" {
		return RedactSensitiveData(rawURL)
	}

	query := u.Query()
	changed := false
	for name := range query {
		for _, sensitive := range sensitiveQueryParams {
			if strings.EqualFold(name, sensitive) {
				query.Set(name, "[REDACTED]")
				changed = true
			}
		}
	}
	if !changed {
		return rawURL
	}
	u.RawQuery = query.Encode()
	return u.String()
}

// RedactSensitiveData replaces sensitive information with "[REDACTED]"
func RedactSensitiveData(input string) string {
	if input == "" {
		return input
	}
	for _, pattern := range sensitiveDataPatterns {
		input = pattern.ReplaceAllString(input, "${1}[REDACTED]")
	}
	return input
}
