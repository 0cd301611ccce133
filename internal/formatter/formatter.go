// Package formatter renders operator-facing output in the formats accepted by
// --output: table, json and yaml.
package formatter

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// ErrUnknownFormat is returned for an unsupported --output value.
var ErrUnknownFormat = fmt.Errorf("unknown output format (want %s, %s or %s)", FormatTable, FormatJSON, FormatYAML)

// Row is one line of a table.
type Row []string

// Tabular is implemented by values that have a table rendering.
type Tabular interface {
	Headers() []string
	Rows() []Row
}

// Render writes v to w in format. Table output requires v to implement Tabular.
func Render(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetEscapeHTML(false)
		enc.SetIndent("", "  ")
		return enc.Encode(v)

	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()

	case FormatTable, "":
		t, ok := v.(Tabular)
		if !ok {
			return fmt.Errorf("%T has no table rendering", v)
		}
		return WriteTable(w, t.Headers(), t.Rows())

	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// WriteTable writes headers, a dashed separator and rows as aligned columns.
// Rows shorter than headers are padded; extra cells are dropped.
func WriteTable(w io.Writer, headers []string, rows []Row) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	sep := make([]string, len(headers))
	for i, h := range headers {
		sep[i] = strings.Repeat("-", len(h))
	}

	lines := append([]Row{headers, sep}, rows...)
	for _, line := range lines {
		cells := make([]string, len(headers))
		copy(cells, line)
		if _, err := fmt.Fprintln(tw, strings.Join(cells, "\t")); err != nil {
			return err
		}
	}
	return tw.Flush()
}
