// Package schemas embeds the JSON Schemas describing the matcher's output documents.
package schemas

import "embed"

// Names of the embedded schemas.
const (
	ScanReport     = "scan_report.schema.json"
	KeywordsReport = "keywords_report.schema.json"
)

//go:embed *.schema.json
var FS embed.FS
