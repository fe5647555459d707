package cardcsv

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestTokenizeLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"quoted delimiter", `"Name, with comma",5`, []string{"Name, with comma", "5"}},
		{"trims fields", "  a , b  ,c ", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"trailing delimiter", "a,b,", []string{"a", "b", ""}},
		{"quotes dropped mid-field", `ab"c"d,e`, []string{"abcd", "e"}},
		{"doubled quote is not an escape", `"say ""hi""",x`, []string{"say hi", "x"}},
		{"unterminated quote swallows rest", `"a,b,c`, []string{"a,b,c"}},
		{"carriage return trimmed", "a,b\r", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := TokenizeLine(tt.line, Comma)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("TokenizeLine(%q) mismatch (-want +got):\n%s", tt.line, diff)
			}
		})
	}
}

func TestTokenizeLine_OtherDelimiter(t *testing.T) {
	got := TokenizeLine(`a;"b;c";d`, ';')
	want := []string{"a", "b;c", "d"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_FewerThanTwoLines(t *testing.T) {
	for _, text := range []string{"", "\n\n", "A,B", "   \nA,B\n  \n"} {
		res := Parse(text)
		if len(res.Rows) != 0 {
			t.Errorf("Parse(%q) rows = %d, want 0", text, len(res.Rows))
		}
		if res.Rows == nil {
			t.Errorf("Parse(%q) rows = nil, want empty slice", text)
		}
	}
}

func TestParse_Basic(t *testing.T) {
	res := Parse("A,B\n1,2\n3,4")

	want := []Row{{"A": "1", "B": "2"}, {"A": "3", "B": "4"}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"A", "B"}, res.Headers); diff != "" {
		t.Errorf("headers mismatch (-want +got):\n%s", diff)
	}
	if res.DataLines != 2 {
		t.Errorf("DataLines = %d, want 2", res.DataLines)
	}
}

func TestParse_QuotedHeaderAndValues(t *testing.T) {
	res := Parse("\"Card Name\",\"Price\"\n\"Name, with comma\",5\n")

	want := []Row{{"Card Name": "Name, with comma", "Price": "5"}}
	if diff := cmp.Diff(want, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestParse_DropsMismatchedRows(t *testing.T) {
	text := "A,B\n1,2\n\n1,2,3\nonly\n5,6\n"
	res := Parse(text)

	wantRows := []Row{{"A": "1", "B": "2"}, {"A": "5", "B": "6"}}
	if diff := cmp.Diff(wantRows, res.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	wantDropped := []DroppedRow{
		{Line: 4, Want: 2, Got: 3},
		{Line: 5, Want: 2, Got: 1},
	}
	if diff := cmp.Diff(wantDropped, res.Dropped); diff != "" {
		t.Errorf("dropped mismatch (-want +got):\n%s", diff)
	}

	if got := len(res.Rows) + len(res.Dropped); got != res.DataLines {
		t.Errorf("rows+dropped = %d, want DataLines %d", got, res.DataLines)
	}
}

func TestParse_RowCountBound(t *testing.T) {
	inputs := []string{
		"A,B\n1,2\n3,4",
		"A\n1\n2\n3",
		"A,B\n1\n2\n3,4,5",
		"x,y,z\n\"1,2\",3,4\n",
	}
	for _, text := range inputs {
		lines := 0
		for _, l := range strings.Split(text, "\n") {
			if strings.TrimSpace(l) != "" {
				lines++
			}
		}
		rows := ParseRows(text)
		if len(rows) > lines-1 {
			t.Errorf("ParseRows(%q) = %d rows, more than %d data lines", text, len(rows), lines-1)
		}
	}
}

func TestParse_CRLF(t *testing.T) {
	rows := ParseRows("A,B\r\n1,2\r\n")
	want := []Row{{"A": "1", "B": "2"}}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestValidateHeaders(t *testing.T) {
	all := []string{"Set Name", "Card Name", "Card Number", "Rarity", "Image URL"}

	tests := []struct {
		name    string
		headers []string
		want    bool
	}{
		{"exact", all, true},
		{"reordered", []string{"Image URL", "Rarity", "Card Number", "Card Name", "Set Name"}, true},
		{"extras", append([]string{"HP", "USD Price"}, all...), true},
		{"missing one", all[1:], false},
		{"case sensitive", []string{"set name", "Card Name", "Card Number", "Rarity", "Image URL"}, false},
		{"empty", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ValidateHeaders(tt.headers); got != tt.want {
				t.Errorf("ValidateHeaders(%v) = %v, want %v", tt.headers, got, tt.want)
			}
		})
	}
}

func TestMissingHeaders(t *testing.T) {
	got := MissingHeaders([]string{"Card Name", "Rarity"})
	want := []string{"Set Name", "Card Number", "Image URL"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("MissingHeaders mismatch (-want +got):\n%s", diff)
	}
}

func TestPreview(t *testing.T) {
	rows := []Row{{"A": "1"}, {"A": "2"}, {"A": "3"}}

	tests := []struct {
		n    int
		want int
	}{
		{0, 0},
		{-1, 0},
		{2, 2},
		{3, 3},
		{10, 3},
	}
	for _, tt := range tests {
		got := Preview(rows, tt.n)
		if len(got) != tt.want {
			t.Errorf("Preview(rows, %d) len = %d, want %d", tt.n, len(got), tt.want)
		}
	}

	_ = append(Preview(rows, 2), Row{"A": "x"})
	if rows[2]["A"] != "3" {
		t.Error("appending to a preview must not overwrite the source rows")
	}
	if len(rows) != 3 {
		t.Errorf("source rows len = %d, want 3", len(rows))
	}
}
