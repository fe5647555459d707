package pgstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

const setColumns = "id, set_name, series, card_amount, release_date, logo_url, background_url, created_at"

func scanSet(row pgx.Row) (catalog.Set, error) {
	var (
		set  catalog.Set
		date pgtype.Date
	)
	err := row.Scan(
		&set.ID, &set.Name, &set.Series, &set.CardAmount, &date,
		&set.LogoURL, &set.BackgroundURL, &set.CreatedAt,
	)
	if err != nil {
		return catalog.Set{}, err
	}
	set.ReleaseDate = dateValue(date)
	return set, nil
}

func listSetsQuery(order catalog.SetOrder) string {
	orderBy := "created_at DESC, id"
	if order == catalog.SetsByName {
		orderBy = "set_name ASC, id"
	}
	return "SELECT " + setColumns + " FROM sets ORDER BY " + orderBy
}

func (s *Store) ListSets(ctx context.Context, order catalog.SetOrder) ([]catalog.Set, error) {
	rows, err := s.pool.Query(ctx, listSetsQuery(order))
	if err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}
	defer rows.Close()

	sets := []catalog.Set{}
	for rows.Next() {
		set, err := scanSet(rows)
		if err != nil {
			return nil, fmt.Errorf("scan set: %w", err)
		}
		sets = append(sets, set)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return sets, nil
}

func (s *Store) GetSet(ctx context.Context, id uuid.UUID) (catalog.Set, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+setColumns+" FROM sets WHERE id = $1", id)
	set, err := scanSet(row)
	if err != nil {
		return catalog.Set{}, fmt.Errorf("get set %s: %w", id, notFound(err))
	}
	return set, nil
}

func (s *Store) CreateSet(ctx context.Context, in catalog.SetInput) (catalog.Set, error) {
	query := `INSERT INTO sets (id, set_name, series, card_amount, release_date, logo_url, background_url)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + setColumns

	row := s.pool.QueryRow(ctx, query,
		uuid.New(), in.Name, in.Series, in.CardAmount, dateParam(in.ReleaseDate),
		in.LogoURL, in.BackgroundURL,
	)
	set, err := scanSet(row)
	if err != nil {
		return catalog.Set{}, fmt.Errorf("insert set: %w", err)
	}
	return set, nil
}

func (s *Store) UpdateSet(ctx context.Context, id uuid.UUID, in catalog.SetInput) (catalog.Set, error) {
	query := `UPDATE sets SET set_name = $2, series = $3, card_amount = $4, release_date = $5,
			logo_url = $6, background_url = $7
		WHERE id = $1
		RETURNING ` + setColumns

	row := s.pool.QueryRow(ctx, query,
		id, in.Name, in.Series, in.CardAmount, dateParam(in.ReleaseDate),
		in.LogoURL, in.BackgroundURL,
	)
	set, err := scanSet(row)
	if err != nil {
		return catalog.Set{}, fmt.Errorf("update set %s: %w", id, notFound(err))
	}
	return set, nil
}

func (s *Store) DeleteSet(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, "DELETE FROM sets WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("delete set %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("delete set %s: %w", id, catalog.ErrNotFound)
	}
	return nil
}
