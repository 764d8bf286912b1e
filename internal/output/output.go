// Package output formats what the sitesearch commands print: status lines,
// tables and JSON documents.
package output

import (
	"encoding/json"
	"fmt"
	"io"
)

// Status icons.
const (
	IconSuccess = "✅"
	IconWarning = "⚠️ "
	IconError   = "❌"
	IconHint    = "💡"
)

// Writer prints CLI output. Write errors are dropped, as console output has
// nowhere to report them.
type Writer struct {
	out io.Writer
}

// New creates a Writer on out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints msg after icon. An empty icon indents msg to line up with
// iconned lines.
func (w *Writer) Status(icon, msg string) {
	if icon == "" {
		icon = "  "
	}
	_, _ = fmt.Fprintln(w.out, icon, msg)
}

// Statusf is Status with a format string.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints msg with the success icon.
func (w *Writer) Success(msg string) { w.Status(IconSuccess, msg) }

// Warning prints msg with the warning icon.
func (w *Writer) Warning(msg string) { w.Status(IconWarning, msg) }

// Warningf is Warning with a format string.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Errorf prints a formatted message with the error icon.
func (w *Writer) Errorf(format string, args ...any) {
	w.Status(IconError, fmt.Sprintf(format, args...))
}

// Line prints msg as is.
func (w *Writer) Line(msg string) {
	_, _ = fmt.Fprintln(w.out, msg)
}

// Linef prints a formatted line.
func (w *Writer) Linef(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format+"\n", args...)
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// JSON writes v as indented JSON. Markup in search results stays readable.
func (w *Writer) JSON(v any) error {
	enc := json.NewEncoder(w.out)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// Table starts a table on this writer's output.
func (w *Writer) Table(headers ...string) *Table {
	return NewTableWithWriter(w.out, headers)
}
