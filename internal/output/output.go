package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// JSONMode controls whether output is JSON or human-readable
var JSONMode bool

// Stdout and Stderr are the output streams, overridable in tests.
var (
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// exitFunc terminates the process after PrintError.
var exitFunc = os.Exit

// Result represents a generic result for JSON output
type Result struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Print outputs data. In JSON mode, marshals to JSON. Otherwise calls the textFn.
func Print(data any, textFn func()) {
	if JSONMode {
		out, err := json.MarshalIndent(Result{Success: true, Data: data}, "", "  ")
		if err != nil {
			PrintError(err)
			return
		}
		fmt.Fprintln(Stdout, string(out))
		return
	}
	textFn()
}

// PrintError outputs an error and exits with status 1. In JSON mode the
// error is reported on stdout inside a Result.
func PrintError(err error) {
	if JSONMode {
		out, _ := json.MarshalIndent(Result{Success: false, Error: err.Error()}, "", "  ")
		fmt.Fprintln(Stdout, string(out))
		exitFunc(1)
		return
	}
	fmt.Fprintf(Stderr, "Error: %v\n", err)
	exitFunc(1)
}
