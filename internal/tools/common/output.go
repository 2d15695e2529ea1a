// Package common holds the plumbing shared by the maintenance CLIs:
// .env loading and machine-readable result output for --ci runs.
package common

import (
	"encoding/json"
	"os"
)

// CIResult is the JSON document a tool prints in --ci mode. Pipelines key
// off OK and Error; Details repeats the interactive summary lines verbatim
// so both modes report the same facts.
type CIResult struct {
	OK      bool     `json:"ok"`
	Title   string   `json:"title"`
	Details []string `json:"details,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// PrintCIResult writes the result document to stdout, indented so it stays
// readable inside CI logs.
func PrintCIResult(ok bool, title string, details []string, err error) {
	res := CIResult{OK: ok, Title: title, Details: details}
	if err != nil {
		res.Error = err.Error()
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(res)
}
