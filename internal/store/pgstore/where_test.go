package pgstore

import (
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

func TestWhereBuilder_Build_Empty(t *testing.T) {
	wb := NewWhereBuilder()
	whereClause, args := wb.Build()

	if whereClause != "" {
		t.Errorf("expected empty string for no conditions, got %q", whereClause)
	}
	if args != nil {
		t.Errorf("expected nil args for no conditions, got %v", args)
	}
	if wb.NextArgIndex() != 1 {
		t.Errorf("NextArgIndex() = %d, want 1", wb.NextArgIndex())
	}
}

func TestWhereBuilder_Add(t *testing.T) {
	wb := NewWhereBuilder()
	wb.Add("status", "active")
	wb.Add("skipped", "")
	wb.Add("nothing", nil)
	wb.Add("type", "user")

	whereClause, args := wb.Build()

	expectedClause := " WHERE status = $1 AND type = $2"
	if whereClause != expectedClause {
		t.Errorf("expected %q, got %q", expectedClause, whereClause)
	}
	if len(args) != 2 || args[0] != "active" || args[1] != "user" {
		t.Errorf("expected args [active user], got %v", args)
	}
	if wb.NextArgIndex() != 3 {
		t.Errorf("NextArgIndex() = %d, want 3", wb.NextArgIndex())
	}
}

func TestWhereBuilder_AddSearch(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		cols       []string
		wantClause string
		wantArg    string
	}{
		{
			name:       "empty query skipped",
			query:      "  ",
			cols:       []string{"name"},
			wantClause: "",
		},
		{
			name:       "no columns skipped",
			query:      "pika",
			wantClause: "",
		},
		{
			name:       "single column",
			query:      "pika",
			cols:       []string{"name"},
			wantClause: " WHERE (name ILIKE $1)",
			wantArg:    "%pika%",
		},
		{
			name:       "columns share one placeholder",
			query:      "rare",
			cols:       []string{"name", "number", "rarity"},
			wantClause: " WHERE (name ILIKE $1 OR number ILIKE $1 OR rarity ILIKE $1)",
			wantArg:    "%rare%",
		},
		{
			name:       "wildcards escaped",
			query:      `50%_off\`,
			cols:       []string{"name"},
			wantClause: " WHERE (name ILIKE $1)",
			wantArg:    `%50\%\_off\\%`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wb := NewWhereBuilder()
			wb.AddSearch(tt.query, tt.cols...)

			gotClause, gotArgs := wb.Build()
			if gotClause != tt.wantClause {
				t.Errorf("clause = %q, want %q", gotClause, tt.wantClause)
			}
			if tt.wantArg == "" {
				if len(gotArgs) != 0 {
					t.Errorf("args = %v, want none", gotArgs)
				}
				return
			}
			if len(gotArgs) != 1 || gotArgs[0] != tt.wantArg {
				t.Errorf("args = %v, want [%s]", gotArgs, tt.wantArg)
			}
		})
	}
}

func TestQuoteIdentifier(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"cards", `"cards"`},
		{"select", `"select"`},
		{`user"name`, `"user""name"`},
		{`cards"; DROP TABLE sets; --`, `"cards""; DROP TABLE sets; --"`},
	}
	for _, tt := range tests {
		if got := quoteIdentifier(tt.input); got != tt.want {
			t.Errorf("quoteIdentifier(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestBuildCardQuery(t *testing.T) {
	setID := uuid.New()

	tests := []struct {
		name      string
		q         catalog.CardQuery
		wantWhere string
		wantOrder string
		wantArgs  int
	}{
		{
			name:      "defaults to newest first",
			q:         catalog.CardQuery{},
			wantOrder: "ORDER BY c.created_at DESC NULLS LAST, c.id",
		},
		{
			name:      "set filter",
			q:         catalog.CardQuery{SetID: setID, Sort: catalog.SortName},
			wantWhere: "WHERE c.set_id = $1",
			wantOrder: "ORDER BY c.name ASC NULLS LAST, c.id",
			wantArgs:  1,
		},
		{
			name:      "set and search",
			q:         catalog.CardQuery{SetID: setID, Search: "pika", Sort: catalog.SortUSDPrice, Desc: true},
			wantWhere: "WHERE c.set_id = $1 AND (c.name ILIKE $2 OR c.number ILIKE $2 OR c.rarity ILIKE $2)",
			wantOrder: "ORDER BY c.usd_price DESC NULLS LAST, c.id",
			wantArgs:  2,
		},
		{
			name:      "unknown sort falls back",
			q:         catalog.CardQuery{Sort: "price; DROP TABLE cards"},
			wantOrder: "ORDER BY c.created_at DESC NULLS LAST, c.id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query, args := buildCardQuery(tt.q)

			if tt.wantWhere != "" && !strings.Contains(query, tt.wantWhere) {
				t.Errorf("query missing %q:\n%s", tt.wantWhere, query)
			}
			if tt.wantWhere == "" && strings.Contains(query, "WHERE") {
				t.Errorf("query should have no WHERE:\n%s", query)
			}
			if !strings.HasSuffix(query, tt.wantOrder) {
				t.Errorf("query should end with %q:\n%s", tt.wantOrder, query)
			}
			if len(args) != tt.wantArgs {
				t.Errorf("args = %d, want %d", len(args), tt.wantArgs)
			}
		})
	}
}

func TestEveryCardSortFieldHasColumn(t *testing.T) {
	for _, f := range []catalog.CardSortField{
		catalog.SortName, catalog.SortNumber, catalog.SortRarity, catalog.SortHP,
		catalog.SortEURPrice, catalog.SortUSDPrice, catalog.SortCreatedAt,
	} {
		if _, ok := sortColumns[f]; !ok {
			t.Errorf("no column for sort field %q", f)
		}
	}
}
