package cardcsv

import "strings"

// Row is one data line keyed by header text.
type Row map[string]string

// DroppedRow describes a data line left out of the result because its
// field count did not match the header.
type DroppedRow struct {
	Line int `json:"line"` // 1-based line number in the source text
	Want int `json:"want"`
	Got  int `json:"got"`
}

// ParseResult is the output of Parse.
type ParseResult struct {
	Headers []string
	Rows    []Row
	Dropped []DroppedRow

	// DataLines counts non-blank lines after the header.
	DataLines int
}

// Parse splits text into header-keyed rows.
//
// Blank lines are ignored. With fewer than two non-blank lines the result
// has no rows. len(Rows)+len(Dropped) always equals DataLines.
func Parse(text string) ParseResult {
	var res ParseResult

	lines := strings.Split(text, "\n")
	headerSeen := false

	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}

		fields := TokenizeLine(line, Comma)
		if !headerSeen {
			res.Headers = fields
			headerSeen = true
			continue
		}

		res.DataLines++
		if len(fields) != len(res.Headers) {
			res.Dropped = append(res.Dropped, DroppedRow{
				Line: i + 1,
				Want: len(res.Headers),
				Got:  len(fields),
			})
			continue
		}

		row := make(Row, len(fields))
		for j, h := range res.Headers {
			row[h] = fields[j]
		}
		res.Rows = append(res.Rows, row)
	}

	if res.Rows == nil {
		res.Rows = []Row{}
	}
	return res
}

// ParseRows returns only the rows of Parse(text).
func ParseRows(text string) []Row {
	return Parse(text).Rows
}
