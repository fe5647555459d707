package gormstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// SetModel is the gorm mapping of the sets table.
type SetModel struct {
	ID            string    `gorm:"type:uuid;primaryKey"`
	SetName       string    `gorm:"not null"`
	Series        string    `gorm:"not null"`
	CardAmount    int       `gorm:"not null"`
	ReleaseDate   time.Time `gorm:"type:date;not null"`
	LogoURL       string    `gorm:"not null;default:''"`
	BackgroundURL string    `gorm:"not null;default:''"`
	CreatedAt     time.Time `gorm:"index:sets_created_at_idx,sort:desc"`
}

func (SetModel) TableName() string { return "sets" }

// CardModel is the gorm mapping of the cards table.
type CardModel struct {
	ID          string    `gorm:"type:uuid;primaryKey"`
	SetID       string    `gorm:"type:uuid;not null;index:cards_set_id_idx"`
	Name        string    `gorm:"not null"`
	Slug        string    `gorm:"not null"`
	Number      string    `gorm:"not null"`
	Rarity      string    `gorm:"not null"`
	Image       string    `gorm:"not null"`
	HP          *int      `gorm:"column:hp"`
	TCGPlayer   *string   `gorm:"column:tcg_player"`
	CardMarket  *string   `gorm:"column:card_market"`
	USDPrice    *float64  `gorm:"column:usd_price;type:numeric(12,2)"`
	EuroPrice   *float64  `gorm:"column:euro_price;type:numeric(12,2)"`
	VariantType *string
	VariantID   *string
	IsBaseCard  *bool
	BaseCardID  *string
	CreatedAt   time.Time `gorm:"index:cards_created_at_idx,sort:desc"`
	UpdatedAt   time.Time
}

func (CardModel) TableName() string { return "cards" }

// cardRow is a card joined with its set's display fields.
type cardRow struct {
	CardModel `gorm:"embedded"`
	SetName   string
	SetSeries string
}

const dateLayout = "2006-01-02"

func (m SetModel) toSet() catalog.Set {
	id, _ := uuid.Parse(m.ID)
	release := ""
	if !m.ReleaseDate.IsZero() {
		release = m.ReleaseDate.Format(dateLayout)
	}
	return catalog.Set{
		ID:            id,
		Name:          m.SetName,
		Series:        m.Series,
		CardAmount:    m.CardAmount,
		ReleaseDate:   release,
		LogoURL:       m.LogoURL,
		BackgroundURL: m.BackgroundURL,
		CreatedAt:     m.CreatedAt,
	}
}

func applySetInput(m *SetModel, in catalog.SetInput) {
	m.SetName = in.Name
	m.Series = in.Series
	m.CardAmount = in.CardAmount
	m.ReleaseDate, _ = time.Parse(dateLayout, in.ReleaseDate)
	m.LogoURL = in.LogoURL
	m.BackgroundURL = in.BackgroundURL
}

func newCardModel(c catalog.NewCard) CardModel {
	return CardModel{
		ID:          uuid.NewString(),
		SetID:       c.SetID.String(),
		Name:        c.Name,
		Slug:        c.Slug,
		Number:      c.Number,
		Rarity:      c.Rarity,
		Image:       c.Image,
		HP:          c.HP,
		TCGPlayer:   c.TCGPlayerURL,
		CardMarket:  c.CardmarketURL,
		USDPrice:    c.USDPrice,
		EuroPrice:   c.EURPrice,
		VariantType: c.VariantType,
		VariantID:   c.VariantID,
		IsBaseCard:  c.IsBaseCard,
		BaseCardID:  c.BaseCardID,
	}
}

func (r cardRow) toCard() catalog.CardWithSet {
	id, _ := uuid.Parse(r.ID)
	setID, _ := uuid.Parse(r.SetID)
	return catalog.CardWithSet{
		Card: catalog.Card{
			ID: id,
			NewCard: catalog.NewCard{
				SetID:         setID,
				Name:          r.Name,
				Slug:          r.Slug,
				Number:        r.Number,
				Rarity:        r.Rarity,
				Image:         r.Image,
				HP:            r.HP,
				TCGPlayerURL:  r.TCGPlayer,
				CardmarketURL: r.CardMarket,
				USDPrice:      r.USDPrice,
				EURPrice:      r.EuroPrice,
				VariantType:   r.VariantType,
				VariantID:     r.VariantID,
				IsBaseCard:    r.IsBaseCard,
				BaseCardID:    r.BaseCardID,
			},
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
		SetName:   r.SetName,
		SetSeries: r.SetSeries,
	}
}
