package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/jonathan/resume-matcher/internal/fetch"
)

// MaxDocumentBytes bounds how much of a file or stdin is read.
const MaxDocumentBytes = 1 << 20

// StdinPath selects standard input in LoadTextFile.
const StdinPath = "-"

// ErrEmptyDocument is returned when a source holds no text after cleaning.
var ErrEmptyDocument = errors.New("document is empty")

// Document is cleaned text plus where it came from.
type Document struct {
	Text     string
	Metadata *Metadata
}

// LoadTextFile reads a plain-text document from path, or from stdin when path is "-".
func LoadTextFile(path string) (*Document, error) {
	return LoadText(path, os.Stdin)
}

// LoadText is LoadTextFile with an explicit stdin.
func LoadText(path string, stdin io.Reader) (*Document, error) {
	var r io.Reader
	if path == StdinPath {
		r = stdin
	} else {
		f, err := os.Open(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("file not found: %w", err)
			}
			return nil, fmt.Errorf("failed to read file: %w", err)
		}
		defer func() { _ = f.Close() }()
		r = f
	}

	content, err := io.ReadAll(io.LimitReader(r, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(content) > MaxDocumentBytes {
		return nil, fmt.Errorf("%s exceeds %d bytes", path, MaxDocumentBytes)
	}

	text := CleanText(string(content))
	if text == "" {
		return nil, fmt.Errorf("%s: %w", path, ErrEmptyDocument)
	}
	meta := NewMetadata(text, SourceFile)
	if path != StdinPath {
		meta.Path = path
	} else {
		meta.Source = SourceStdin
	}
	return &Document{Text: text, Metadata: meta}, nil
}

// Fetcher returns posting text for a URL.
type Fetcher interface {
	Fetch(ctx context.Context, urlStr string) (*fetch.CachedResult, error)
}

// LoadURL fetches a job posting and cleans its text.
func LoadURL(ctx context.Context, f Fetcher, urlStr string) (*Document, error) {
	res, err := f.Fetch(ctx, strings.TrimSpace(urlStr))
	if err != nil {
		return nil, fmt.Errorf("fetch job posting: %w", err)
	}

	text := CleanText(res.Text)
	if text == "" {
		return nil, fmt.Errorf("%s: %w", urlStr, ErrEmptyDocument)
	}
	meta := NewMetadata(text, SourceURL)
	meta.URL = res.URL
	meta.Platform = string(res.Platform)
	meta.FromCache = res.FromCache
	return &Document{Text: text, Metadata: meta}, nil
}
