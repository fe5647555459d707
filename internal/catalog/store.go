package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a set or card does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidInput wraps validation failures.
	ErrInvalidInput = errors.New("invalid input")
)

// CardInserter writes one batch of cards in a single call. The call either
// stores every record or none of them.
type CardInserter interface {
	InsertCards(ctx context.Context, cards []NewCard) error
}

// Store is the data-store client. It is constructed once at startup and
// passed to whichever component needs it.
type Store interface {
	CardInserter

	ListSets(ctx context.Context, order SetOrder) ([]Set, error)
	GetSet(ctx context.Context, id uuid.UUID) (Set, error)
	CreateSet(ctx context.Context, in SetInput) (Set, error)
	UpdateSet(ctx context.Context, id uuid.UUID, in SetInput) (Set, error)
	// DeleteSet removes the set only. Its cards are left in place.
	DeleteSet(ctx context.Context, id uuid.UUID) error

	ListCards(ctx context.Context, q CardQuery) ([]CardWithSet, error)
	GetCard(ctx context.Context, id uuid.UUID) (CardWithSet, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error

	CountSets(ctx context.Context) (int64, error)
	CountCards(ctx context.Context) (int64, error)

	Ping(ctx context.Context) error
	Close() error
}
