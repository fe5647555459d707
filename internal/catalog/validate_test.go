package catalog

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

func validInput() SetInput {
	return SetInput{
		Name:        "Base Set",
		Series:      "Original",
		CardAmount:  102,
		ReleaseDate: "1999-01-09",
		LogoURL:     "https://images.example.com/base/logo.png",
	}
}

func TestSetInput_Validate(t *testing.T) {
	tests := []struct {
		name       string
		mutate     func(*SetInput)
		wantFields []string
	}{
		{"valid", func(*SetInput) {}, nil},
		{"empty urls allowed", func(in *SetInput) { in.LogoURL, in.BackgroundURL = "", "" }, nil},
		{"name required", func(in *SetInput) { in.Name = "" }, []string{"set_name"}},
		{"name too long", func(in *SetInput) { in.Name = strings.Repeat("a", 101) }, []string{"set_name"}},
		{"name at limit", func(in *SetInput) { in.Name = strings.Repeat("é", 100) }, nil},
		{"series required", func(in *SetInput) { in.Series = "" }, []string{"series"}},
		{"series too long", func(in *SetInput) { in.Series = strings.Repeat("s", 51) }, []string{"series"}},
		{"zero cards", func(in *SetInput) { in.CardAmount = 0 }, []string{"card_amount"}},
		{"too many cards", func(in *SetInput) { in.CardAmount = 10001 }, []string{"card_amount"}},
		{"card limit", func(in *SetInput) { in.CardAmount = 10000 }, nil},
		{"release date required", func(in *SetInput) { in.ReleaseDate = "" }, []string{"release_date"}},
		{"release date format", func(in *SetInput) { in.ReleaseDate = "01/09/1999" }, []string{"release_date"}},
		{"bad logo", func(in *SetInput) { in.LogoURL = "not a url" }, []string{"logo_url"}},
		{"relative background", func(in *SetInput) { in.BackgroundURL = "/bg.png" }, []string{"background_url"}},
		{
			"several at once",
			func(in *SetInput) { *in = SetInput{} },
			[]string{"card_amount", "release_date", "series", "set_name"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)

			err := in.Validate()
			if tt.wantFields == nil {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}

			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if !errors.Is(err, ErrInvalidInput) {
				t.Error("ValidationError should match ErrInvalidInput")
			}

			var got []string
			for k := range verr.Fields {
				got = append(got, k)
			}
			if diff := cmp.Diff(tt.wantFields, got, cmpopts.SortSlices(func(a, b string) bool { return a < b })); diff != "" {
				t.Errorf("invalid fields mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestSetInput_Normalize(t *testing.T) {
	in := SetInput{Name: "  Base  ", Series: " Original ", LogoURL: " https://x.y/z "}.Normalize()
	if in.Name != "Base" || in.Series != "Original" || in.LogoURL != "https://x.y/z" {
		t.Errorf("Normalize() = %+v", in)
	}
}

func TestValidationError_Message(t *testing.T) {
	err := &ValidationError{Fields: map[string]string{"series": "b", "card_amount": "a"}}
	if got, want := err.Error(), "invalid input: card_amount: a; series: b"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestCardQuery_Normalize(t *testing.T) {
	q := CardQuery{Sort: "bogus"}.Normalize()
	if q.Sort != SortCreatedAt || !q.Desc {
		t.Errorf("Normalize() = %+v, want created_at desc", q)
	}

	q = CardQuery{Sort: SortName}.Normalize()
	if q.Sort != SortName || q.Desc {
		t.Errorf("Normalize() = %+v, want name asc", q)
	}
}
