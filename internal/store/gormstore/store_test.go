package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)

	s, err := Open(SQLite, dsn)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	return s
}

func ptr[T any](v T) *T { return &v }

func baseSetInput(name string) catalog.SetInput {
	return catalog.SetInput{
		Name:        name,
		Series:      "Original",
		CardAmount:  102,
		ReleaseDate: "1999-01-09",
		LogoURL:     "https://img/logo.png",
	}
}

func TestSets_CRUD(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	created, err := s.CreateSet(ctx, baseSetInput("Base Set"))
	if err != nil {
		t.Fatalf("CreateSet() error = %v", err)
	}
	if created.ID == uuid.Nil {
		t.Fatal("CreateSet() returned nil ID")
	}
	if created.ReleaseDate != "1999-01-09" {
		t.Errorf("ReleaseDate = %q, want %q", created.ReleaseDate, "1999-01-09")
	}

	got, err := s.GetSet(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetSet() error = %v", err)
	}
	if got.Name != "Base Set" || got.CardAmount != 102 || got.ReleaseDate != "1999-01-09" {
		t.Errorf("GetSet() = %+v", got)
	}

	in := baseSetInput("Base Set 2")
	in.CardAmount = 130
	updated, err := s.UpdateSet(ctx, created.ID, in)
	if err != nil {
		t.Fatalf("UpdateSet() error = %v", err)
	}
	if updated.Name != "Base Set 2" || updated.CardAmount != 130 {
		t.Errorf("UpdateSet() = %+v", updated)
	}

	if err := s.DeleteSet(ctx, created.ID); err != nil {
		t.Fatalf("DeleteSet() error = %v", err)
	}
	if _, err := s.GetSet(ctx, created.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetSet() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSet(ctx, created.ID); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("second DeleteSet() error = %v, want ErrNotFound", err)
	}
	if _, err := s.UpdateSet(ctx, uuid.New(), in); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("UpdateSet(missing) error = %v, want ErrNotFound", err)
	}
}

func TestListSets_Order(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, name := range []string{"Jungle", "Base Set", "Fossil"} {
		if _, err := s.CreateSet(ctx, baseSetInput(name)); err != nil {
			t.Fatalf("CreateSet(%q) error = %v", name, err)
		}
	}

	byName, err := s.ListSets(ctx, catalog.SetsByName)
	if err != nil {
		t.Fatalf("ListSets() error = %v", err)
	}
	var names []string
	for _, set := range byName {
		names = append(names, set.Name)
	}
	if strings.Join(names, ",") != "Base Set,Fossil,Jungle" {
		t.Errorf("by name = %v", names)
	}

	newest, err := s.ListSets(ctx, catalog.SetsNewestFirst)
	if err != nil {
		t.Fatalf("ListSets() error = %v", err)
	}
	if len(newest) != 3 {
		t.Fatalf("len = %d, want 3", len(newest))
	}
	for i := 1; i < len(newest); i++ {
		if newest[i].CreatedAt.After(newest[i-1].CreatedAt) {
			t.Errorf("sets not newest first at %d", i)
		}
	}
}

func TestInsertAndListCards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	set, err := s.CreateSet(ctx, baseSetInput("Base Set"))
	if err != nil {
		t.Fatalf("CreateSet() error = %v", err)
	}
	other := uuid.New()

	cards := []catalog.NewCard{
		{SetID: set.ID, Name: "Pikachu", Slug: "pikachu", Number: "58", Rarity: "Common", Image: "a", HP: ptr(60), USDPrice: ptr(2.5)},
		{SetID: set.ID, Name: "Raichu", Slug: "raichu", Number: "14", Rarity: "Rare", Image: "b", HP: ptr(90), USDPrice: ptr(12.0), IsBaseCard: ptr(true)},
		{SetID: other, Name: "Mew 100%", Slug: "mew-100", Number: "8", Rarity: "Promo", Image: "c"},
	}
	if err := s.InsertCards(ctx, cards); err != nil {
		t.Fatalf("InsertCards() error = %v", err)
	}

	n, err := s.CountCards(ctx)
	if err != nil || n != 3 {
		t.Fatalf("CountCards() = %d, %v, want 3", n, err)
	}

	t.Run("filter by set", func(t *testing.T) {
		got, err := s.ListCards(ctx, catalog.CardQuery{SetID: set.ID, Sort: catalog.SortName})
		if err != nil {
			t.Fatalf("ListCards() error = %v", err)
		}
		if len(got) != 2 || got[0].Name != "Pikachu" || got[1].Name != "Raichu" {
			t.Fatalf("ListCards() = %+v", got)
		}
		if got[0].SetName != "Base Set" || got[0].SetSeries != "Original" {
			t.Errorf("joined set = %q / %q", got[0].SetName, got[0].SetSeries)
		}
		if got[0].HP == nil || *got[0].HP != 60 {
			t.Errorf("HP = %v, want 60", got[0].HP)
		}
		if got[0].IsBaseCard != nil {
			t.Errorf("IsBaseCard = %v, want nil", *got[0].IsBaseCard)
		}
		if got[1].IsBaseCard == nil || !*got[1].IsBaseCard {
			t.Errorf("IsBaseCard = %v, want true", got[1].IsBaseCard)
		}
	})

	t.Run("search is case-insensitive across columns", func(t *testing.T) {
		tests := []struct {
			term string
			want int
		}{
			{"pika", 1},
			{"RARE", 1},
			{"58", 1},
			{"chu", 2},
			{"100%", 1},
			{"%", 1},
			{"zzz", 0},
		}
		for _, tt := range tests {
			got, err := s.ListCards(ctx, catalog.CardQuery{Search: tt.term})
			if err != nil {
				t.Fatalf("ListCards(%q) error = %v", tt.term, err)
			}
			if len(got) != tt.want {
				t.Errorf("ListCards(%q) = %d cards, want %d", tt.term, len(got), tt.want)
			}
		}
	})

	t.Run("sort by price desc puts nulls last", func(t *testing.T) {
		got, err := s.ListCards(ctx, catalog.CardQuery{Sort: catalog.SortUSDPrice, Desc: true})
		if err != nil {
			t.Fatalf("ListCards() error = %v", err)
		}
		if len(got) != 3 || got[0].Name != "Raichu" || got[1].Name != "Pikachu" || got[2].USDPrice != nil {
			var names []string
			for _, c := range got {
				names = append(names, c.Name)
			}
			t.Errorf("order = %v", names)
		}
	})

	t.Run("orphaned card keeps empty set fields", func(t *testing.T) {
		got, err := s.ListCards(ctx, catalog.CardQuery{SetID: other})
		if err != nil {
			t.Fatalf("ListCards() error = %v", err)
		}
		if len(got) != 1 || got[0].SetName != "" {
			t.Errorf("ListCards() = %+v", got)
		}
	})
}

func TestDeleteSet_KeepsCards(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	set, _ := s.CreateSet(ctx, baseSetInput("Base Set"))
	if err := s.InsertCards(ctx, []catalog.NewCard{{SetID: set.ID, Name: "Pikachu"}}); err != nil {
		t.Fatalf("InsertCards() error = %v", err)
	}
	if err := s.DeleteSet(ctx, set.ID); err != nil {
		t.Fatalf("DeleteSet() error = %v", err)
	}

	n, err := s.CountCards(ctx)
	if err != nil || n != 1 {
		t.Errorf("CountCards() = %d, %v, want 1", n, err)
	}
}

func TestCards_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.InsertCards(ctx, []catalog.NewCard{{SetID: uuid.New(), Name: "Pikachu"}}); err != nil {
		t.Fatalf("InsertCards() error = %v", err)
	}
	all, err := s.ListCards(ctx, catalog.CardQuery{})
	if err != nil || len(all) != 1 {
		t.Fatalf("ListCards() = %d, %v", len(all), err)
	}
	id := all[0].ID

	got, err := s.GetCard(ctx, id)
	if err != nil {
		t.Fatalf("GetCard() error = %v", err)
	}
	if got.Name != "Pikachu" {
		t.Errorf("GetCard().Name = %q", got.Name)
	}

	if err := s.DeleteCard(ctx, id); err != nil {
		t.Fatalf("DeleteCard() error = %v", err)
	}
	if _, err := s.GetCard(ctx, id); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("GetCard() after delete error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteCard(ctx, id); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("DeleteCard() again error = %v, want ErrNotFound", err)
	}
}

func TestInsertCards_Empty(t *testing.T) {
	s := openTestStore(t)
	if err := s.InsertCards(context.Background(), nil); err != nil {
		t.Errorf("InsertCards(nil) error = %v", err)
	}
}

func TestOpen_UnknownDialect(t *testing.T) {
	if _, err := Open("oracle", "x"); err == nil {
		t.Error("Open() expected error for unknown dialect")
	}
}
