// Package input loads requirements documents (markdown, plain text or HTML)
// and prepares their text for validation.
package input

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/bmatcuk/doublestar/v4"

	"github.com/dshills/reqguard/internal/redact"
)

// Format is the detected document format.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatText     Format = "text"
	FormatHTML     Format = "html"
)

// MaxBytes bounds a single document.
const MaxBytes = 2 * 1024 * 1024

// Document is a loaded requirements document.
type Document struct {
	Path   string
	Hash   string // "sha256:<hex>" of the bytes as read, before conversion or redaction
	Format Format
	Raw    string // original content
	Text   string // content sent for validation
	// Redactions counts masked values per rule when redaction is on.
	Redactions map[string]int
}

// Options controls how a document is prepared.
type Options struct {
	// NoRedact disables PII and secret masking.
	NoRedact bool
}

var (
	scriptRe         = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	styleRe          = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	excessiveLinesRe = regexp.MustCompile(`\n{3,}`)
	htmlSniff        = regexp.MustCompile(`(?i)^\s*(?:<!doctype html|<html|<body|<div|<p>|<h[1-6])`)
)

// Load reads path and prepares its text.
func Load(path string, opts Options) (*Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading requirements file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("reading requirements file: %s is a directory", path)
	}
	if info.Size() > MaxBytes {
		return nil, fmt.Errorf("requirements file %s is %d bytes; limit is %d", path, info.Size(), MaxBytes)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading requirements file: %w", err)
	}
	return Parse(path, data, opts)
}

// Parse prepares data as if it had been read from name. The extension of
// name selects the format; content sniffing catches HTML saved as .txt.
func Parse(name string, data []byte, opts Options) (*Document, error) {
	sum := sha256.Sum256(data)
	doc := &Document{
		Path:   name,
		Hash:   fmt.Sprintf("sha256:%x", sum),
		Format: detect(name, data),
		Raw:    string(data),
	}

	text := doc.Raw
	if doc.Format == FormatHTML {
		converted, err := htmlToMarkdown(text)
		if err != nil {
			return nil, fmt.Errorf("converting %s from HTML: %w", name, err)
		}
		text = converted
	}
	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return nil, fmt.Errorf("requirements file %s is empty", name)
	}

	if !opts.NoRedact {
		text, doc.Redactions = redact.RedactCount(text)
	}
	doc.Text = text
	return doc, nil
}

func detect(name string, data []byte) Format {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm":
		return FormatHTML
	case ".md", ".markdown":
		return FormatMarkdown
	}
	head := data
	if len(head) > 512 {
		head = head[:512]
	}
	if htmlSniff.Match(head) {
		return FormatHTML
	}
	return FormatText
}

func htmlToMarkdown(s string) (string, error) {
	s = scriptRe.ReplaceAllString(s, "")
	s = styleRe.ReplaceAllString(s, "")

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())
	out, err := converter.ConvertString(s)
	if err != nil {
		return "", err
	}
	return excessiveLinesRe.ReplaceAllString(out, "\n\n"), nil
}

// Expand resolves file arguments. Arguments containing glob characters are
// expanded with doublestar (so "docs/**/*.md" works); plain paths are kept
// as given. The result is de-duplicated and sorted. A pattern that matches
// nothing is an error.
func Expand(args []string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, a := range args {
		if !strings.ContainsAny(a, "*?[{") {
			if !seen[a] {
				seen[a] = true
				out = append(out, a)
			}
			continue
		}
		matches, err := doublestar.FilepathGlob(a, doublestar.WithFilesOnly())
		if err != nil {
			return nil, fmt.Errorf("glob %q: %w", a, err)
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("no files match pattern: %s", a)
		}
		for _, m := range matches {
			if !seen[m] {
				seen[m] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
