package plugin

import (
	"encoding/json"
	"io"
)

// Output is the single JSON document the plugin writes to stdout. Exactly one
// of the two fields is set.
type Output struct {
	Output any    `json:"output,omitempty"`
	Error  string `json:"error,omitempty"`
}

// BatchReport mirrors the run summary Stash displays for batch scopes.
type BatchReport struct {
	Processed int `json:"processed"`
	Skipped   int `json:"skipped"`
	Failed    int `json:"failed"`
}

// InstallReport is the payload for install-scope runs.
type InstallReport struct {
	Installed bool   `json:"installed"`
	Message   string `json:"message"`
}

func writeResult(w io.Writer, payload any) error {
	return json.NewEncoder(w).Encode(Output{Output: payload})
}

func writeError(w io.Writer, message string) error {
	return json.NewEncoder(w).Encode(Output{Error: message})
}
