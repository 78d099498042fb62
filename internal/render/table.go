package render

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// Placeholder is shown for empty cells and values.
const Placeholder = "-"

// WriteTable writes rows under header in whitespace-separated columns.
// Writes nothing when there are no rows.
func WriteTable(w io.Writer, header []string, rows [][]string) error {
	if len(rows) == 0 {
		return nil
	}

	widths := columnWidths(header, rows)
	if _, err := fmt.Fprintln(w, formatRow(header, widths)); err != nil {
		return err
	}
	for _, row := range rows {
		if _, err := fmt.Fprintln(w, formatRow(row, widths)); err != nil {
			return err
		}
	}
	return nil
}

// columnWidths calculates the maximum width for each column.
func columnWidths(header []string, rows [][]string) []int {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i := 0; i < len(row) && i < len(widths); i++ {
			if n := utf8.RuneCountInString(cell(row[i])); n > widths[i] {
				widths[i] = n
			}
		}
	}
	return widths
}

// formatRow pads every column but the last.
func formatRow(row []string, widths []int) string {
	var b strings.Builder
	for i, width := range widths {
		v := ""
		if i < len(row) {
			v = cell(row[i])
		}
		if i == len(widths)-1 {
			b.WriteString(v)
			break
		}
		b.WriteString(v)
		b.WriteString(strings.Repeat(" ", width-utf8.RuneCountInString(v)+2))
	}
	return strings.TrimRight(b.String(), " ")
}

func cell(s string) string {
	if s == "" {
		return Placeholder
	}
	return s
}

// JoinStrings joins non-empty strings with the given separator.
func JoinStrings(sep string, strs ...string) string {
	var parts []string
	for _, s := range strs {
		if s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, sep)
}
