// Package buildinfo carries the build-time metadata stamped into the binary
package buildinfo

import "runtime/debug"

// UnknownValue is reported for metadata the build did not set
const UnknownValue = "unknown"

// Set with -ldflags "-X github.com/huam/biocurate/internal/buildinfo.version=..."
var (
	version   string
	buildDate string
)

// Info is the build metadata of a running binary
type Info struct {
	Version   string `json:"version" yaml:"version"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

// New returns metadata with blanks replaced by UnknownValue
func New(version, buildDate string) *Info {
	return &Info{Version: orUnknown(version), BuildDate: orUnknown(buildDate)}
}

// Current returns the metadata of this binary. Without linker flags the
// module version recorded by the go tool is used.
func Current() *Info {
	v := version
	if v == "" {
		if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "(devel)" {
			v = bi.Main.Version
		}
	}
	return New(v, buildDate)
}

// GetVersion is nil-safe
func (i *Info) GetVersion() string {
	if i == nil {
		return UnknownValue
	}
	return orUnknown(i.Version)
}

// GetBuildDate is nil-safe
func (i *Info) GetBuildDate() string {
	if i == nil {
		return UnknownValue
	}
	return orUnknown(i.BuildDate)
}

// String renders "version (build date)"
func (i *Info) String() string {
	return i.GetVersion() + " (" + i.GetBuildDate() + ")"
}

func orUnknown(s string) string {
	if s == "" {
		return UnknownValue
	}
	return s
}
