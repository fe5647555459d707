package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/catalog"
)

func ptr[T any](v T) *T { return &v }

func names(cards []catalog.CardWithSet) []string {
	out := make([]string, len(cards))
	for i, c := range cards {
		out[i] = c.Name
	}
	return out
}

func TestStore_Sets(t *testing.T) {
	ctx := context.Background()
	s := New()

	var ids []uuid.UUID
	for _, name := range []string{"Jungle", "Base Set", "Fossil"} {
		set, err := s.CreateSet(ctx, catalog.SetInput{Name: name, Series: "Original", CardAmount: 1, ReleaseDate: "1999-01-09"})
		if err != nil {
			t.Fatalf("CreateSet() error = %v", err)
		}
		ids = append(ids, set.ID)
	}

	newest, _ := s.ListSets(ctx, catalog.SetsNewestFirst)
	if got := newest[0].Name; got != "Fossil" {
		t.Errorf("newest first = %q, want Fossil", got)
	}
	byName, _ := s.ListSets(ctx, catalog.SetsByName)
	if got := byName[0].Name; got != "Base Set" {
		t.Errorf("by name first = %q, want Base Set", got)
	}

	if _, err := s.UpdateSet(ctx, uuid.New(), catalog.SetInput{}); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("UpdateSet(missing) error = %v, want ErrNotFound", err)
	}
	if err := s.DeleteSet(ctx, ids[0]); err != nil {
		t.Fatalf("DeleteSet() error = %v", err)
	}
	if err := s.DeleteSet(ctx, ids[0]); !errors.Is(err, catalog.ErrNotFound) {
		t.Errorf("DeleteSet() again error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListCards(t *testing.T) {
	ctx := context.Background()
	s := New()

	set, _ := s.CreateSet(ctx, catalog.SetInput{Name: "Base Set", Series: "Original"})
	err := s.InsertCards(ctx, []catalog.NewCard{
		{SetID: set.ID, Name: "Pikachu", Number: "58", Rarity: "Common", USDPrice: ptr(2.5)},
		{SetID: set.ID, Name: "Raichu", Number: "14", Rarity: "Rare", USDPrice: ptr(12.0)},
		{SetID: uuid.New(), Name: "Mew", Number: "8", Rarity: "Promo"},
	})
	if err != nil {
		t.Fatalf("InsertCards() error = %v", err)
	}

	tests := []struct {
		name string
		q    catalog.CardQuery
		want []string
	}{
		{"default newest first", catalog.CardQuery{}, []string{"Mew", "Raichu", "Pikachu"}},
		{"by set and name", catalog.CardQuery{SetID: set.ID, Sort: catalog.SortName}, []string{"Pikachu", "Raichu"}},
		{"search rarity", catalog.CardQuery{Search: "RARE"}, []string{"Raichu"}},
		{"price asc nulls last", catalog.CardQuery{Sort: catalog.SortUSDPrice}, []string{"Pikachu", "Raichu", "Mew"}},
		{"price desc nulls last", catalog.CardQuery{Sort: catalog.SortUSDPrice, Desc: true}, []string{"Raichu", "Pikachu", "Mew"}},
		{"no match", catalog.CardQuery{Search: "zzz"}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.ListCards(ctx, tt.q)
			if err != nil {
				t.Fatalf("ListCards() error = %v", err)
			}
			if diff := cmp.Diff(tt.want, names(got)); diff != "" {
				t.Errorf("ListCards() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	all, _ := s.ListCards(ctx, catalog.CardQuery{SetID: set.ID})
	if all[0].SetName != "Base Set" {
		t.Errorf("SetName = %q, want Base Set", all[0].SetName)
	}
}

func TestStore_InsertHookFailsWholeBatch(t *testing.T) {
	s := New()
	s.InsertHook = func(context.Context, []catalog.NewCard) error { return errors.New("boom") }

	if err := s.InsertCards(context.Background(), []catalog.NewCard{{Name: "a"}}); err == nil {
		t.Fatal("InsertCards() expected error")
	}
	if n, _ := s.CountCards(context.Background()); n != 0 {
		t.Errorf("CountCards() = %d, want 0", n)
	}
	if got := len(s.Batches()); got != 0 {
		t.Errorf("len(Batches()) = %d, want 0", got)
	}
}
