// Package core holds the catalog admin business logic shared by the web
// server and the CLI: set and card operations over the injected store, and
// CSV import sessions that run in the background and report progress.
package core

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/config"
	"github.com/JonMunkholm/cardadmin/internal/importer"
)

// Options tunes the import pipeline. Zero values fall back to defaults.
type Options struct {
	BatchSize     int
	PreviewRows   int
	MaxFileSize   int64
	ChunkTimeout  time.Duration
	MaxConcurrent int
	MaxWait       time.Duration
	SessionTTL    time.Duration
}

// OptionsFromConfig maps the import settings of the configuration.
func OptionsFromConfig(c config.ImportConfig) Options {
	return Options{
		BatchSize:     c.BatchSize,
		PreviewRows:   c.PreviewRows,
		MaxFileSize:   c.MaxFileSize,
		ChunkTimeout:  c.ChunkTimeout,
		MaxConcurrent: c.MaxConcurrent,
		MaxWait:       c.MaxWaitTime,
		SessionTTL:    c.SessionTTL,
	}
}

// DefaultSessionTTL is how long an untouched import session is kept.
const DefaultSessionTTL = time.Hour

// Service provides the catalog operations used by every front end.
type Service struct {
	store   catalog.Store
	opts    Options
	limiter *ImportLimiter

	mu      sync.RWMutex
	imports map[string]*activeImport
}

// NewService wraps store. The store is owned by the caller.
func NewService(store catalog.Store, opts Options) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = importer.DefaultBatchSize
	}
	if opts.PreviewRows <= 0 {
		opts.PreviewRows = cardcsv.DefaultPreviewRows
	}
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = DefaultSessionTTL
	}

	return &Service{
		store:   store,
		opts:    opts,
		limiter: NewImportLimiter(opts.MaxConcurrent, opts.MaxWait),
		imports: make(map[string]*activeImport),
	}
}

// Options returns the effective options after defaults.
func (s *Service) Options() Options {
	return s.opts
}

// Ping checks the store connection.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// ListSets returns all sets in the given order.
func (s *Service) ListSets(ctx context.Context, order catalog.SetOrder) ([]catalog.Set, error) {
	return s.store.ListSets(ctx, order)
}

func (s *Service) GetSet(ctx context.Context, id uuid.UUID) (catalog.Set, error) {
	return s.store.GetSet(ctx, id)
}

// CreateSet trims and validates the form before storing it.
func (s *Service) CreateSet(ctx context.Context, in catalog.SetInput) (catalog.Set, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return catalog.Set{}, err
	}
	return s.store.CreateSet(ctx, in)
}

// UpdateSet replaces every editable field of the set.
func (s *Service) UpdateSet(ctx context.Context, id uuid.UUID, in catalog.SetInput) (catalog.Set, error) {
	in = in.Normalize()
	if err := in.Validate(); err != nil {
		return catalog.Set{}, err
	}
	return s.store.UpdateSet(ctx, id, in)
}

// DeleteSet removes the set. Its cards stay in place.
func (s *Service) DeleteSet(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteSet(ctx, id)
}

func (s *Service) ListCards(ctx context.Context, q catalog.CardQuery) ([]catalog.CardWithSet, error) {
	return s.store.ListCards(ctx, q.Normalize())
}

func (s *Service) GetCard(ctx context.Context, id uuid.UUID) (catalog.CardWithSet, error) {
	return s.store.GetCard(ctx, id)
}

func (s *Service) DeleteCard(ctx context.Context, id uuid.UUID) error {
	return s.store.DeleteCard(ctx, id)
}

// CreateCard stores a single card entered through the form. The slug is
// derived like an imported card's when left blank.
func (s *Service) CreateCard(ctx context.Context, c catalog.NewCard) (catalog.NewCard, error) {
	c.Name = strings.TrimSpace(c.Name)
	c.Number = strings.TrimSpace(c.Number)
	c.Rarity = strings.TrimSpace(c.Rarity)
	c.Image = strings.TrimSpace(c.Image)
	c.Slug = strings.TrimSpace(c.Slug)

	fields := map[string]string{}
	if c.SetID == uuid.Nil {
		fields["set_id"] = "Set is required"
	}
	if c.Name == "" && c.Number == "" {
		fields["name"] = "Card name or number is required"
	}
	if c.HP != nil && *c.HP < 0 {
		fields["hp"] = "HP cannot be negative"
	}
	if len(fields) > 0 {
		return catalog.NewCard{}, &catalog.ValidationError{Fields: fields}
	}

	if _, err := s.store.GetSet(ctx, c.SetID); err != nil {
		return catalog.NewCard{}, fmt.Errorf("card set: %w", err)
	}

	if c.Slug == "" {
		src := c.Name
		if src == "" {
			src = c.Number
		}
		c.Slug = cardcsv.Slugify(src)
	}

	if err := s.store.InsertCards(ctx, []catalog.NewCard{c}); err != nil {
		return catalog.NewCard{}, err
	}
	return c, nil
}

// Stats is the overview page summary.
type Stats struct {
	catalog.Counts
	Imports  LimiterStatus `json:"imports"`
	Sessions int           `json:"sessions"`
}

// Stats counts sets and cards concurrently.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	var st Stats

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountSets(gctx)
		st.Sets = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountCards(gctx)
		st.Cards = n
		return err
	})
	if err := g.Wait(); err != nil {
		return Stats{}, fmt.Errorf("catalog stats: %w", err)
	}

	st.Imports = s.limiter.Status()
	s.mu.RLock()
	st.Sessions = len(s.imports)
	s.mu.RUnlock()
	return st, nil
}
