package pgstore

import (
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// WhereBuilder assembles a parameterized WHERE clause. Placeholders are
// numbered in the order conditions are added.
type WhereBuilder struct {
	conditions []string
	args       []any
	argIndex   int
}

func NewWhereBuilder() *WhereBuilder {
	return &WhereBuilder{argIndex: 1}
}

// Add appends "col = $n". Nil and empty-string values are skipped.
func (wb *WhereBuilder) Add(col string, value any) {
	switch v := value.(type) {
	case nil:
		return
	case string:
		if v == "" {
			return
		}
	}
	wb.conditions = append(wb.conditions, fmt.Sprintf("%s = $%d", col, wb.argIndex))
	wb.args = append(wb.args, value)
	wb.argIndex++
}

// AddSearch appends a case-insensitive substring match of query against
// any of cols. LIKE wildcards in query are matched literally.
func (wb *WhereBuilder) AddSearch(query string, cols ...string) {
	query = strings.TrimSpace(query)
	if query == "" || len(cols) == 0 {
		return
	}

	parts := make([]string, len(cols))
	for i, col := range cols {
		parts[i] = fmt.Sprintf("%s ILIKE $%d", col, wb.argIndex)
	}
	wb.conditions = append(wb.conditions, "("+strings.Join(parts, " OR ")+")")
	wb.args = append(wb.args, "%"+escapeLike(query)+"%")
	wb.argIndex++
}

// NextArgIndex is the placeholder number the next argument will use.
func (wb *WhereBuilder) NextArgIndex() int {
	return wb.argIndex
}

// Build returns the clause with a leading " WHERE ", or "" and nil args
// when nothing was added.
func (wb *WhereBuilder) Build() (string, []any) {
	if len(wb.conditions) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(wb.conditions, " AND "), wb.args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func quoteIdentifier(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
