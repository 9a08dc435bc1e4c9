package inventory

import (
	"fmt"
	"strings"
)

type column struct {
	name      string
	dataType  string
	maxLength *int
	precision *int
	scale     *int
	nullable  string // "YES" or "NO" per information_schema
}

// formatType renders the column type with its length or precision, matching
// how the source would print it.
func (c column) formatType() string {
	t := strings.ToUpper(c.dataType)
	switch {
	case c.maxLength != nil:
		return fmt.Sprintf("%s(%d)", t, *c.maxLength)
	case strings.Contains(t, "NUMERIC") || strings.Contains(t, "DECIMAL"):
		if c.precision != nil && c.scale != nil {
			return fmt.Sprintf("%s(%d,%d)", t, *c.precision, *c.scale)
		}
		return t
	default:
		return t
	}
}

// buildTableDDL synthesizes a CREATE TABLE statement from column metadata.
// The statement is the translation input, not something executed verbatim,
// so constraints beyond nullability are intentionally not reconstructed.
func buildTableDDL(schema, table string, cols []column) string {
	if len(cols) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE %s.%s (\n", schema, table)
	for i, c := range cols {
		fmt.Fprintf(&b, "    %s %s", c.name, c.formatType())
		if c.nullable == "NO" {
			b.WriteString(" NOT NULL")
		}
		if i < len(cols)-1 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	b.WriteString(")")
	return b.String()
}
