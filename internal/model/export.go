package model

import "time"

// ResultsExport is the top-level JSON structure for result log export.
type ResultsExport struct {
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Results    []StoredResult `json:"results"`
}
