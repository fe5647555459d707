// Package catalog defines the card-set catalog domain: sets, cards, the
// record shape written by imports, and the Store contract every backend
// implements.
package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Set is a released card set.
type Set struct {
	ID            uuid.UUID `json:"id"`
	Name          string    `json:"set_name"`
	Series        string    `json:"series"`
	CardAmount    int       `json:"card_amount"`
	ReleaseDate   string    `json:"release_date"`
	LogoURL       string    `json:"logo_url"`
	BackgroundURL string    `json:"background_url"`
	CreatedAt     time.Time `json:"created_at"`
}

// SetInput carries the editable fields of a Set. It is used for both
// creation and full updates.
type SetInput struct {
	Name          string `json:"set_name"`
	Series        string `json:"series"`
	CardAmount    int    `json:"card_amount"`
	ReleaseDate   string `json:"release_date"`
	LogoURL       string `json:"logo_url"`
	BackgroundURL string `json:"background_url"`
}

// NewCard is the persistence-ready record produced by the field mapper and
// by the single-card form.
//
// Optional fields are pointers: nil means the source had no value and the
// column is left out of the insert, while a non-nil pointer is written as is.
type NewCard struct {
	SetID  uuid.UUID `json:"set_id"`
	Name   string    `json:"name"`
	Slug   string    `json:"slug"`
	Number string    `json:"number"`
	Rarity string    `json:"rarity"`
	Image  string    `json:"image"`

	HP            *int     `json:"hp,omitempty"`
	TCGPlayerURL  *string  `json:"tcg_player,omitempty"`
	CardmarketURL *string  `json:"card_market,omitempty"`
	USDPrice      *float64 `json:"usd_price,omitempty"`
	EURPrice      *float64 `json:"euro_price,omitempty"`
	VariantType   *string  `json:"variant_type,omitempty"`
	VariantID     *string  `json:"variant_id,omitempty"`
	IsBaseCard    *bool    `json:"is_base_card,omitempty"`
	BaseCardID    *string  `json:"base_card_id,omitempty"`
}

// Card is a stored card.
type Card struct {
	ID uuid.UUID `json:"id"`
	NewCard
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CardWithSet is a card joined with the display fields of its set.
// SetName and SetSeries are empty when the referenced set no longer exists.
type CardWithSet struct {
	Card
	SetName   string `json:"set_name"`
	SetSeries string `json:"set_series"`
}

// SetOrder selects the ordering of ListSets.
type SetOrder int

const (
	// SetsNewestFirst orders by created_at descending.
	SetsNewestFirst SetOrder = iota
	// SetsByName orders by set_name ascending.
	SetsByName
)

// CardSortField is a sortable card column.
type CardSortField string

const (
	SortName      CardSortField = "name"
	SortNumber    CardSortField = "number"
	SortRarity    CardSortField = "rarity"
	SortHP        CardSortField = "hp"
	SortEURPrice  CardSortField = "euro_price"
	SortUSDPrice  CardSortField = "usd_price"
	SortCreatedAt CardSortField = "created_at"
)

var sortFields = map[CardSortField]bool{
	SortName: true, SortNumber: true, SortRarity: true, SortHP: true,
	SortEURPrice: true, SortUSDPrice: true, SortCreatedAt: true,
}

// Valid reports whether f is one of the sortable columns.
func (f CardSortField) Valid() bool {
	return sortFields[f]
}

// CardQuery filters and orders ListCards.
type CardQuery struct {
	SetID  uuid.UUID // uuid.Nil means all sets
	Search string    // case-insensitive substring of name, number or rarity
	Sort   CardSortField
	Desc   bool
}

// Normalize fills defaults: newest cards first.
func (q CardQuery) Normalize() CardQuery {
	if !q.Sort.Valid() {
		q.Sort = SortCreatedAt
		q.Desc = true
	}
	return q
}

// Counts holds catalog totals for the overview page.
type Counts struct {
	Sets  int64 `json:"sets"`
	Cards int64 `json:"cards"`
}
