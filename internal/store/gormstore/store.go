// Package gormstore implements catalog.Store with gorm, on PostgreSQL or
// SQLite. It backs the gorm-postgres and sqlite store drivers and the
// store tests that need a real database.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

// Dialect names accepted by Open.
const (
	Postgres = "postgres"
	SQLite   = "sqlite"
)

// Store is a gorm-backed catalog.Store.
type Store struct {
	db *gorm.DB
}

var _ catalog.Store = (*Store)(nil)

// Open connects with the named dialect. dsn is a connection string for
// postgres or a file name / URI for sqlite.
func Open(dialect, dsn string) (*Store, error) {
	var dialector gorm.Dialector
	switch dialect {
	case Postgres:
		dialector = postgres.Open(dsn)
	case SQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown gorm dialect %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: newLogger(),
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}
	return New(db), nil
}

// newLogger routes gorm's warnings and slow-query reports through slog.
func newLogger() logger.Interface {
	w := slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn)
	return logger.New(w, logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  logger.Warn,
		IgnoreRecordNotFoundError: true,
	})
}

// New wraps an existing gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates or updates the sets and cards tables.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&SetModel{}, &CardModel{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) ListSets(ctx context.Context, order catalog.SetOrder) ([]catalog.Set, error) {
	q := s.db.WithContext(ctx).Order("created_at DESC")
	if order == catalog.SetsByName {
		q = s.db.WithContext(ctx).Order("set_name ASC")
	}

	var models []SetModel
	if err := q.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("query sets: %w", err)
	}

	sets := make([]catalog.Set, len(models))
	for i, m := range models {
		sets[i] = m.toSet()
	}
	return sets, nil
}

func (s *Store) GetSet(ctx context.Context, id uuid.UUID) (catalog.Set, error) {
	var m SetModel
	if err := s.db.WithContext(ctx).First(&m, "id = ?", id.String()).Error; err != nil {
		return catalog.Set{}, fmt.Errorf("get set %s: %w", id, notFound(err))
	}
	return m.toSet(), nil
}

func (s *Store) CreateSet(ctx context.Context, in catalog.SetInput) (catalog.Set, error) {
	m := SetModel{ID: uuid.NewString()}
	applySetInput(&m, in)

	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return catalog.Set{}, fmt.Errorf("insert set: %w", err)
	}
	return m.toSet(), nil
}

func (s *Store) UpdateSet(ctx context.Context, id uuid.UUID, in catalog.SetInput) (catalog.Set, error) {
	var m SetModel
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&m, "id = ?", id.String()).Error; err != nil {
			return notFound(err)
		}
		applySetInput(&m, in)
		return tx.Save(&m).Error
	})
	if err != nil {
		return catalog.Set{}, fmt.Errorf("update set %s: %w", id, err)
	}
	return m.toSet(), nil
}

func (s *Store) DeleteSet(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&SetModel{}, "id = ?", id.String())
	if res.Error != nil {
		return fmt.Errorf("delete set %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete set %s: %w", id, catalog.ErrNotFound)
	}
	return nil
}

// InsertCards creates the batch in one transaction.
func (s *Store) InsertCards(ctx context.Context, cards []catalog.NewCard) error {
	if len(cards) == 0 {
		return nil
	}

	models := make([]CardModel, len(cards))
	for i, c := range cards {
		models[i] = newCardModel(c)
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&models).Error
	})
	if err != nil {
		return fmt.Errorf("insert %d cards: %w", len(cards), err)
	}
	return nil
}

var sortColumns = map[catalog.CardSortField]string{
	catalog.SortName:      "cards.name",
	catalog.SortNumber:    "cards.number",
	catalog.SortRarity:    "cards.rarity",
	catalog.SortHP:        "cards.hp",
	catalog.SortEURPrice:  "cards.euro_price",
	catalog.SortUSDPrice:  "cards.usd_price",
	catalog.SortCreatedAt: "cards.created_at",
}

func (s *Store) cardQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Table("cards").
		Select("cards.*, COALESCE(sets.set_name, '') AS set_name, COALESCE(sets.series, '') AS set_series").
		Joins("LEFT JOIN sets ON sets.id = cards.set_id")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func (s *Store) ListCards(ctx context.Context, q catalog.CardQuery) ([]catalog.CardWithSet, error) {
	q = q.Normalize()
	db := s.cardQuery(ctx)

	if q.SetID != uuid.Nil {
		db = db.Where("cards.set_id = ?", q.SetID.String())
	}
	if term := strings.TrimSpace(q.Search); term != "" {
		pattern := "%" + strings.ToLower(likeEscaper.Replace(term)) + "%"
		db = db.Where(
			`(LOWER(cards.name) LIKE ? ESCAPE '\' OR LOWER(cards.number) LIKE ? ESCAPE '\' OR LOWER(cards.rarity) LIKE ? ESCAPE '\')`,
			pattern, pattern, pattern,
		)
	}

	dir := "ASC"
	if q.Desc {
		dir = "DESC"
	}
	db = db.Order(fmt.Sprintf("%s %s NULLS LAST", sortColumns[q.Sort], dir)).Order("cards.id")

	var rows []cardRow
	if err := db.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("query cards: %w", err)
	}

	cards := make([]catalog.CardWithSet, len(rows))
	for i, r := range rows {
		cards[i] = r.toCard()
	}
	return cards, nil
}

func (s *Store) GetCard(ctx context.Context, id uuid.UUID) (catalog.CardWithSet, error) {
	var rows []cardRow
	if err := s.cardQuery(ctx).Where("cards.id = ?", id.String()).Limit(1).Scan(&rows).Error; err != nil {
		return catalog.CardWithSet{}, fmt.Errorf("get card %s: %w", id, err)
	}
	if len(rows) == 0 {
		return catalog.CardWithSet{}, fmt.Errorf("get card %s: %w", id, catalog.ErrNotFound)
	}
	return rows[0].toCard(), nil
}

func (s *Store) DeleteCard(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&CardModel{}, "id = ?", id.String())
	if res.Error != nil {
		return fmt.Errorf("delete card %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete card %s: %w", id, catalog.ErrNotFound)
	}
	return nil
}

func (s *Store) CountSets(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&SetModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count sets: %w", err)
	}
	return n, nil
}

func (s *Store) CountCards(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&CardModel{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count cards: %w", err)
	}
	return n, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return catalog.ErrNotFound
	}
	return err
}
