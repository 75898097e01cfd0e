// Package output provides helpers for consistent CLI output
// formatting.
package output

import (
	"encoding/json"
	"io"
	"os"

	"golang.org/x/term"
)

// IsTTY reports whether f is connected to a terminal.
func IsTTY(f *os.File) bool {
	return term.IsTerminal(int(f.Fd()))
}

// WriteJSON writes v to w as JSON: pretty-printed when w is a
// terminal, compact single-line when piped or redirected.
func WriteJSON(w io.Writer, v any) error {
	pretty := false
	if f, ok := w.(*os.File); ok {
		pretty = IsTTY(f)
	}
	return EncodeJSON(w, v, pretty)
}

// EncodeJSON writes v to w with explicit formatting control. Pretty
// output is indented with 2 spaces. A trailing newline is written
// either way.
func EncodeJSON(w io.Writer, v any, pretty bool) error {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}
