package report

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/juparave/secretgate/internal/domain"
	"github.com/juparave/secretgate/internal/util"
)

// MaxRows is the maximum number of findings listed in a report
const MaxRows = 20

// Format renders the offending findings as a markdown table. At most MaxRows
// findings are listed; the remainder is summarized in a trailing line.
func Format(offending []domain.Finding) string {
	var b strings.Builder
	b.WriteString("## Secret Scanning Alerts\n\n")
	b.WriteString("| Alert | Severity | Created At |\n")
	b.WriteString("|-------|----------|------------|\n")

	for i, f := range offending {
		if i == MaxRows {
			break
		}
		fmt.Fprintf(&b, "| %s | %s | %s |\n", cell(f.SecretLabel), cell(string(f.Severity)), cell(f.CreatedAtRaw))
	}

	if extra := len(offending) - MaxRows; extra > 0 {
		fmt.Fprintf(&b, "\n...and %d more alerts.\n", extra)
	}

	return b.String()
}

// cell keeps a value on one line and inside its table column
func cell(s string) string {
	s = strings.ReplaceAll(s, "\r", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "|", "\\|")
}

// Formatter renders reports and optionally keeps a copy on disk
type Formatter struct {
	outputDir string
	now       func() time.Time
}

// NewFormatter creates a new Formatter. An empty outputDir disables saving.
func NewFormatter(outputDir string) *Formatter {
	return &Formatter{
		outputDir: util.ExpandPath(outputDir),
		now:       time.Now,
	}
}

// Format renders the offending findings
func (f *Formatter) Format(offending []domain.Finding) string {
	return Format(offending)
}

// Write saves a rendered report and returns its path. It returns an empty
// path when saving is disabled.
func (f *Formatter) Write(body string) (string, error) {
	if f.outputDir == "" {
		return "", nil
	}

	name := fmt.Sprintf("secret-scanning-%s.md", f.now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(f.outputDir, name)
	if err := util.WriteFileAtomic(path, []byte(body)); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}

	return path, nil
}
