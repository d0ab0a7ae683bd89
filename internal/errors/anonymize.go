package errors

import (
	"net/url"
	"path/filepath"
	"strings"
)

// pathKind reports whether a path is absolute without revealing it
func pathKind(path string) string {
	if filepath.IsAbs(path) || strings.Contains(path, `:\`) {
		return "absolute-path"
	}
	return "relative-path"
}

// extensionOf returns the lowercased extension; dotfiles have none
func extensionOf(path string) string {
	base := filepath.Base(path)
	dot := strings.LastIndex(base, ".")
	if dot <= 0 || dot == len(base)-1 {
		return "none"
	}
	return strings.ToLower(base[dot+1:])
}

// sizeClass buckets sizes so telemetry can group by magnitude
func sizeClass(size int64) string {
	const kib, mib = 1 << 10, 1 << 20
	switch {
	case size < kib:
		return "tiny"
	case size < mib:
		return "small"
	case size < 10*mib:
		return "medium"
	case size < 100*mib:
		return "large"
	default:
		return "very-large"
	}
}

// serviceKinds maps host suffixes to the collaborator they belong to
var serviceKinds = []struct{ suffix, kind string }{
	{"docs.google.com", "spreadsheet"},
	{"sheets.googleapis.com", "spreadsheet"},
	{"drive.google.com", "drive"},
	{"drive.usercontent.google.com", "drive"},
	{"plantnet.org", "identification"},
	{"amazonaws.com", "object-storage"},
}

// serviceKind names the collaborator behind a URL, dropping host, path and
// query
func serviceKind(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil || u.Host == "" {
		return "other-protocol"
	}
	host := strings.ToLower(u.Hostname())
	for _, s := range serviceKinds {
		if host == s.suffix || strings.HasSuffix(host, "."+s.suffix) {
			return s.kind
		}
	}
	switch strings.ToLower(u.Scheme) {
	case "https":
		return "https-endpoint"
	case "http":
		return "http-endpoint"
	default:
		return "other-protocol"
	}
}
