// Package export writes generated planning documents to the local filesystem.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"unicode"

	"github.com/rotisserie/eris"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/pitchforge/pitchforge/internal/model"
)

const maxSlugLen = 60

// Exporter saves documents under a root output directory, one folder per
// opportunity.
type Exporter struct {
	root string
}

func NewExporter(root string) *Exporter {
	return &Exporter{root: root}
}

// SaveDocument writes the document's markdown to
// <root>/<opportunity id>_<slug of title>/<TYPE>_v<version>.md and returns
// the written path.
func (e *Exporter) SaveDocument(opp *model.Opportunity, doc *model.Document) (string, error) {
	dir := filepath.Join(e.root, fmt.Sprintf("%s_%s", opp.ID, Slugify(opp.Title)))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create directory %s", dir)
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_v%d.md", doc.Type, doc.Version))
	if err := os.WriteFile(path, []byte(doc.Markdown), 0o644); err != nil {
		return "", eris.Wrapf(err, "export: write %s", path)
	}
	return path, nil
}

// stripMarks removes combining marks after NFKD decomposition, so accented
// characters fold to their ASCII base.
var stripMarks = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Slugify converts an opportunity title into a filesystem-safe directory
// name: accents folded, lowercased, non-alphanumeric runs collapsed to a
// single underscore, truncated to a fixed length.
func Slugify(title string) string {
	folded, _, err := transform.String(stripMarks, title)
	if err != nil {
		folded = title
	}

	var b strings.Builder
	lastUnderscore := true
	for _, r := range strings.ToLower(folded) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteByte('_')
				lastUnderscore = true
			}
		}
	}

	slug := strings.Trim(b.String(), "_")
	if len(slug) > maxSlugLen {
		slug = strings.Trim(slug[:maxSlugLen], "_")
	}
	if slug == "" {
		slug = "untitled"
	}
	return slug
}
