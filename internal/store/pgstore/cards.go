package pgstore

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

var cardCopyColumns = []string{
	"id", "set_id", "name", "slug", "number", "rarity", "image",
	"hp", "tcg_player", "card_market", "usd_price", "euro_price",
	"variant_type", "variant_id", "is_base_card", "base_card_id",
	"created_at", "updated_at",
}

const cardSelect = `SELECT c.id, c.set_id, c.name, c.slug, c.number, c.rarity, c.image,
	c.hp, c.tcg_player, c.card_market, c.usd_price, c.euro_price,
	c.variant_type, c.variant_id, c.is_base_card, c.base_card_id,
	c.created_at, c.updated_at,
	COALESCE(s.set_name, ''), COALESCE(s.series, '')
FROM cards c
LEFT JOIN sets s ON s.id = c.set_id`

// sortColumns maps sortable fields to qualified column names.
var sortColumns = map[catalog.CardSortField]string{
	catalog.SortName:      "c.name",
	catalog.SortNumber:    "c.number",
	catalog.SortRarity:    "c.rarity",
	catalog.SortHP:        "c.hp",
	catalog.SortEURPrice:  "c.euro_price",
	catalog.SortUSDPrice:  "c.usd_price",
	catalog.SortCreatedAt: "c.created_at",
}

// InsertCards writes the batch with a single COPY, so the batch is stored
// completely or not at all.
func (s *Store) InsertCards(ctx context.Context, cards []catalog.NewCard) error {
	if len(cards) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, len(cards))
	for i, c := range cards {
		row, err := cardCopyRow(uuid.New(), c, now)
		if err != nil {
			return fmt.Errorf("card %d of batch: %w", i+1, err)
		}
		rows[i] = row
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{"cards"}, cardCopyColumns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("copy %d cards: %w", len(cards), err)
	}
	if n != int64(len(cards)) {
		return fmt.Errorf("copy cards: wrote %d of %d rows", n, len(cards))
	}
	return nil
}

// cardCopyRow lays c out in cardCopyColumns order.
func cardCopyRow(id uuid.UUID, c catalog.NewCard, now time.Time) ([]any, error) {
	hp, err := int4Param(c.HP)
	if err != nil {
		return nil, fmt.Errorf("hp: %w", err)
	}
	return []any{
		id, c.SetID, c.Name, c.Slug, c.Number, c.Rarity, c.Image,
		hp, textParam(c.TCGPlayerURL), textParam(c.CardmarketURL),
		numericParam(c.USDPrice), numericParam(c.EURPrice),
		textParam(c.VariantType), textParam(c.VariantID),
		boolParam(c.IsBaseCard), textParam(c.BaseCardID),
		now, now,
	}, nil
}

func scanCard(row pgx.Row) (catalog.CardWithSet, error) {
	var (
		c                      catalog.CardWithSet
		hp                     pgtype.Int4
		tcg, cm, vt, vid, base pgtype.Text
		usd, eur               pgtype.Numeric
		isBase                 pgtype.Bool
	)
	err := row.Scan(
		&c.ID, &c.SetID, &c.Name, &c.Slug, &c.Number, &c.Rarity, &c.Image,
		&hp, &tcg, &cm, &usd, &eur,
		&vt, &vid, &isBase, &base,
		&c.CreatedAt, &c.UpdatedAt,
		&c.SetName, &c.SetSeries,
	)
	if err != nil {
		return catalog.CardWithSet{}, err
	}

	c.HP = int4Value(hp)
	c.TCGPlayerURL = textValue(tcg)
	c.CardmarketURL = textValue(cm)
	c.USDPrice = numericValue(usd)
	c.EURPrice = numericValue(eur)
	c.VariantType = textValue(vt)
	c.VariantID = textValue(vid)
	c.IsBaseCard = boolValue(isBase)
	c.BaseCardID = textValue(base)
	return c, nil
}

// buildCardQuery returns the SELECT for q and its arguments.
func buildCardQuery(q catalog.CardQuery) (string, []any) {
	q = q.Normalize()

	wb := NewWhereBuilder()
	if q.SetID != uuid.Nil {
		wb.Add("c.set_id", q.SetID)
	}
	wb.AddSearch(q.Search, "c.name", "c.number", "c.rarity")
	where, args := wb.Build()

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	order := fmt.Sprintf(" ORDER BY %s %s NULLS LAST, c.id", sortColumns[q.Sort], dir)

	return cardSelect + where + order, args
}

func (s *Store) ListCards(ctx context.Context, q catalog.CardQuery) ([]catalog.CardWithSet, error) {
	query, args := buildCardQuery(q)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}
	defer rows.Close()

	cards := []catalog.CardWithSet{}
	for rows.Next() {
		c, err := scanCard(rows)
		if err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return cards, nil
}

func (s *Store) GetCard(ctx context.Context, id uuid.UUID) (catalog.CardWithSet, error) {
	c, err := scanCard(s.pool.QueryRow(ctx, cardSelect+" WHERE c.id = $1", id))
	if err != nil {
		return catalog.CardWithSet{}, fmt.Errorf("get card %s: %w", id, notFound(err))
	}
	return c, nil
}

func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM cards WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete card %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete card %s: %w", id, catalog.ErrNotFound)
	}
	return nil
}
