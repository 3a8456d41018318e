package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
	"unicode/utf8"
)

// Source kinds.
const (
	SourceFile  = "file"
	SourceStdin = "stdin"
	SourceURL   = "url"
)

// Metadata describes an ingested document.
type Metadata struct {
	Source    string `json:"source"`
	Path      string `json:"path,omitempty"`
	URL       string `json:"url,omitempty"`
	Platform  string `json:"platform,omitempty"`
	FromCache bool   `json:"fromCache,omitempty"`
	Timestamp string `json:"timestamp"` // RFC3339
	Hash      string `json:"hash"`      // SHA256 hex of the cleaned text
	Chars     int    `json:"chars"`
}

// NewMetadata stamps cleaned content with the current time and its hash.
func NewMetadata(content, source string) *Metadata {
	return &Metadata{
		Source:    source,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Hash:      computeHash(content),
		Chars:     utf8.RuneCountInString(content),
	}
}

// computeHash computes SHA256 hash of content and returns hex string
func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}
