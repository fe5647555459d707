package cardcsv

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// FieldWarning records an optional value that was present but could not
// be coerced. The field is left unset on the record.
type FieldWarning struct {
	Row    int    `json:"row"` // 0-based index into the mapped rows
	Column string `json:"column"`
	Value  string `json:"value"`
}

func (w FieldWarning) String() string {
	return fmt.Sprintf("row %d: %s %q is not valid", w.Row+1, w.Column, w.Value)
}

// MapRow converts one row into a card record for setID.
//
// Required columns are copied as is and default to "". Optional columns
// are set only when present and non-blank; numeric and boolean columns
// that fail to parse are skipped and returned as warnings (with Row 0).
func MapRow(row Row, setID uuid.UUID) (catalog.NewCard, []FieldWarning) {
	card := catalog.NewCard{
		SetID:  setID,
		Name:   row[ColCardName],
		Number: row[ColCardNumber],
		Rarity: row[ColRarity],
		Image:  row[ColImageURL],
	}

	slugSource := card.Name
	if strings.TrimSpace(slugSource) == "" {
		slugSource = card.Number
	}
	card.Slug = Slugify(slugSource)

	var warnings []FieldWarning
	warn := func(col, val string) {
		warnings = append(warnings, FieldWarning{Column: col, Value: val})
	}

	card.TCGPlayerURL = optString(row, ColTCGPlayerURL)
	card.CardmarketURL = optString(row, ColCardmarketURL)
	card.VariantType = optString(row, ColVariantType)
	card.VariantID = optString(row, ColVariantID)
	card.BaseCardID = optString(row, ColBaseCardID)

	if v, ok := optValue(row, ColUSDPrice); ok {
		if p, ok := ParsePrice(v); ok {
			card.USDPrice = &p
		} else {
			warn(ColUSDPrice, v)
		}
	}
	if v, ok := optValue(row, ColEURPrice); ok {
		if p, ok := ParsePrice(v); ok {
			card.EURPrice = &p
		} else {
			warn(ColEURPrice, v)
		}
	}
	if v, ok := optValue(row, ColHP); ok {
		// HP is stored as a 32-bit integer column.
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			hp := int(n)
			card.HP = &hp
		} else {
			warn(ColHP, v)
		}
	}
	if v, ok := optValue(row, ColIsBaseCard); ok {
		if b, ok := ParseBool(v); ok {
			card.IsBaseCard = &b
		} else {
			warn(ColIsBaseCard, v)
		}
	}

	return card, warnings
}

// MapRows maps every row, tagging warnings with their row index.
func MapRows(rows []Row, setID uuid.UUID) ([]catalog.NewCard, []FieldWarning) {
	cards := make([]catalog.NewCard, 0, len(rows))
	var warnings []FieldWarning

	for i, row := range rows {
		card, ws := MapRow(row, setID)
		for _, w := range ws {
			w.Row = i
			warnings = append(warnings, w)
		}
		cards = append(cards, card)
	}
	return cards, warnings
}

func optValue(row Row, col string) (string, bool) {
	v, ok := row[col]
	if !ok {
		return "", false
	}
	v = strings.TrimSpace(v)
	return v, v != ""
}

func optString(row Row, col string) *string {
	v, ok := optValue(row, col)
	if !ok {
		return nil
	}
	return &v
}

var (
	priceRegex   = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)$`)
	groupedPrice = regexp.MustCompile(`^[+-]?\d{1,3}(,\d{3})+(\.\d*)?$`)
)

// ParsePrice parses a decimal price, tolerating currency symbols and
// thousands separators ("$1,234.50", "€3.10"). A comma is accepted only
// in groups of three digits, so decimal commas like "3,10" are rejected.
func ParsePrice(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	for _, sym := range []string{"$", "€", "£"} {
		s = strings.ReplaceAll(s, sym, "")
	}
	s = strings.TrimSpace(s)

	if strings.Contains(s, ",") {
		if !groupedPrice.MatchString(s) {
			return 0, false
		}
		s = strings.ReplaceAll(s, ",", "")
	}

	if !priceRegex.MatchString(s) {
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// ParseBool accepts true/false, t/f, yes/no, y/n and 1/0 in any case.
func ParseBool(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1":
		return true, true
	case "false", "f", "no", "n", "0":
		return false, true
	}
	return false, false
}

var (
	slugInvalid    = regexp.MustCompile(`[^a-z0-9\s-]`)
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugDashes     = regexp.MustCompile(`-+`)
)

// Slugify derives a URL slug: lowercase, only [a-z0-9] and dashes,
// whitespace runs become a single dash. Uniqueness is not checked.
func Slugify(s string) string {
	s = strings.ToLower(s)
	s = slugInvalid.ReplaceAllString(s, "")
	s = strings.TrimSpace(s)
	s = slugWhitespace.ReplaceAllString(s, "-")
	s = slugDashes.ReplaceAllString(s, "-")
	return s
}
