// Package cardcsv turns uploaded card spreadsheets into catalog records.
//
// A document is split into lines and each line is tokenized on the
// delimiter. The first non-blank line names the columns and every later
// line becomes a header-keyed Row. Rows are then mapped onto
// catalog.NewCard values by MapRow.
//
// Quote handling is minimal. A double quote toggles quoted mode, inside
// which the delimiter is literal, and the quote characters themselves are
// always dropped. There is no escaped-quote ("") support, so a field can
// never contain a literal double quote.
package cardcsv

import "strings"

// Comma is the delimiter used for uploaded files.
const Comma = ','

// TokenizeLine splits one line into trimmed fields.
// The result always has at least one element.
func TokenizeLine(line string, delim rune) []string {
	var (
		fields   []string
		cur      strings.Builder
		inQuotes bool
	)

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			fields = append(fields, strings.TrimSpace(cur.String()))
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}

	return append(fields, strings.TrimSpace(cur.String()))
}
