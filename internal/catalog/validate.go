package catalog

import (
	"net/url"
	"sort"
	"strings"
	"time"
)

// ValidationError holds per-field messages keyed by JSON field name.
type ValidationError struct {
	Fields map[string]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func (e *ValidationError) Unwrap() error { return ErrInvalidInput }

// Normalize trims surrounding whitespace from every text field.
func (in SetInput) Normalize() SetInput {
	in.Name = strings.TrimSpace(in.Name)
	in.Series = strings.TrimSpace(in.Series)
	in.ReleaseDate = strings.TrimSpace(in.ReleaseDate)
	in.LogoURL = strings.TrimSpace(in.LogoURL)
	in.BackgroundURL = strings.TrimSpace(in.BackgroundURL)
	return in
}

// Validate checks the set form rules. It returns a *ValidationError or nil.
func (in SetInput) Validate() error {
	fields := map[string]string{}

	switch n := len([]rune(in.Name)); {
	case n == 0:
		fields["set_name"] = "Set name is required"
	case n > 100:
		fields["set_name"] = "Set name must be 100 characters or less"
	}

	switch n := len([]rune(in.Series)); {
	case n == 0:
		fields["series"] = "Series is required"
	case n > 50:
		fields["series"] = "Series must be 50 characters or less"
	}

	switch {
	case in.CardAmount < 1:
		fields["card_amount"] = "Card amount must be at least 1"
	case in.CardAmount > 10000:
		fields["card_amount"] = "Card amount must be 10000 or less"
	}

	if in.ReleaseDate == "" {
		fields["release_date"] = "Release date is required"
	} else if _, err := time.Parse("2006-01-02", in.ReleaseDate); err != nil {
		fields["release_date"] = "Release date must be a date (YYYY-MM-DD)"
	}

	if !validOptionalURL(in.LogoURL) {
		fields["logo_url"] = "Must be a valid URL"
	}
	if !validOptionalURL(in.BackgroundURL) {
		fields["background_url"] = "Must be a valid URL"
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

func validOptionalURL(s string) bool {
	if s == "" {
		return true
	}
	u, err := url.Parse(s)
	return err == nil && u.Scheme != "" && u.Host != ""
}
