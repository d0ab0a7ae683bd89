package exsicata

import (
	"net/url"
	"strings"

	"github.com/huam/biocurate/internal/errors"
	"github.com/huam/biocurate/internal/tabular"
)

// CodeWidth is the digit width short image codes are zero-filled to
const CodeWidth = 6

// DirectURLBase is the Drive download endpoint a file ID is appended to
const DirectURLBase = "https://drive.google.com/uc?export=view&id="

// ReasonInvalidLink is reported for links without a /d/<id> segment
const ReasonInvalidLink = "invalid link"

// LinkStatus tags a Link as resolved or not
type LinkStatus string

const (
	LinkResolved   LinkStatus = "resolved"
	LinkUnresolved LinkStatus = "unresolved"
)

// Link is the outcome of resolving one image row. FileID is set for
// resolved links, Reason for unresolved ones.
type Link struct {
	Record ImageRecord `json:"record" yaml:"record"`
	Status LinkStatus  `json:"status" yaml:"status"`
	FileID string      `json:"file_id,omitempty" yaml:"file_id,omitempty"`
	Reason string      `json:"reason,omitempty" yaml:"reason,omitempty"`
}

// Resolved reports whether a Drive file ID was extracted
func (l Link) Resolved() bool { return l.Status == LinkResolved }

// DirectURL returns the download URL of a resolved link, "" otherwise
func (l Link) DirectURL() string {
	if !l.Resolved() {
		return ""
	}
	return DirectURL(l.FileID)
}

// Err returns a malformed-link error for unresolved links
func (l Link) Err() error {
	if l.Resolved() {
		return nil
	}
	return errors.Newf("image link for %s is not a Drive file link", l.Record.Barcode).
		Component("exsicata").
		Category(errors.CategoryMalformedLink).
		Priority(errors.PriorityLow).
		Context("barcode", l.Record.Barcode).
		Context("row", l.Record.Row).
		Build()
}

// DirectURL builds the Drive download URL for fileID
func DirectURL(fileID string) string {
	return DirectURLBase + url.QueryEscape(fileID)
}

// DriveFileID returns the path segment following the first "/d/" in link,
// up to the next "/" or the end of the string.
func DriveFileID(link string) (string, bool) {
	_, after, found := strings.Cut(link, "/d/")
	if !found {
		return "", false
	}
	id, _, _ := strings.Cut(after, "/")
	// Query and fragment never belong to the identifier
	if i := strings.IndexAny(id, "?#"); i >= 0 {
		id = id[:i]
	}
	if id == "" {
		return "", false
	}
	return id, true
}

// Resolve links every image row whose barcode matches code. A barcode
// matches when it equals the normalized code, ends with it, or ends with it
// zero-filled to CodeWidth. Blank codes match nothing.
func Resolve(ds *Dataset, code string) []Link {
	query := tabular.Normalize(code)
	links := []Link{}
	if query == "" {
		return links
	}
	padded := tabular.ZeroFill(query, CodeWidth)

	for rec := range ds.All() {
		barcode := tabular.Normalize(rec.Barcode)
		if barcode == "" {
			continue
		}
		if barcode != query && !strings.HasSuffix(barcode, query) && !strings.HasSuffix(barcode, padded) {
			continue
		}
		links = append(links, linkFor(rec))
	}
	return links
}

func linkFor(rec ImageRecord) Link {
	if id, ok := DriveFileID(rec.URL); ok {
		return Link{Record: rec, Status: LinkResolved, FileID: id}
	}
	return Link{Record: rec, Status: LinkUnresolved, Reason: ReasonInvalidLink}
}
