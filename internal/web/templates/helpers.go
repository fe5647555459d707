package templates

import (
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"

	"github.com/JonMunkholm/cardadmin/internal/cardcsv"
	"github.com/JonMunkholm/cardadmin/internal/catalog"
	"github.com/JonMunkholm/cardadmin/internal/core"
	"github.com/JonMunkholm/cardadmin/internal/importer"
)

type navItem struct {
	Key, Label, Href string
}

var navItems = []navItem{
	{"overview", "Overview", "/"},
	{"sets", "Sets", "/sets"},
	{"cards", "Cards", "/cards"},
	{"import", "Import", "/import"},
	{"analytics", "Analytics", "/analytics"},
	{"users", "Users", "/users"},
	{"settings", "Settings", "/settings"},
}

var sortOptions = []struct {
	Field catalog.CardSortField
	Label string
}{
	{catalog.SortCreatedAt, "Newest"},
	{catalog.SortName, "Name"},
	{catalog.SortNumber, "Number"},
	{catalog.SortRarity, "Rarity"},
	{catalog.SortHP, "HP"},
	{catalog.SortUSDPrice, "USD price"},
	{catalog.SortEURPrice, "EUR price"},
}

// maxDroppedShown caps the dropped-row list on the import page.
const maxDroppedShown = 20

// SetFormFromSet fills the edit form from a stored set.
func SetFormFromSet(set catalog.Set) catalog.SetInput {
	return catalog.SetInput{
		Name:          set.Name,
		Series:        set.Series,
		CardAmount:    set.CardAmount,
		ReleaseDate:   set.ReleaseDate,
		LogoURL:       set.LogoURL,
		BackgroundURL: set.BackgroundURL,
	}
}

func setURL(id uuid.UUID) string {
	return "/sets/" + id.String()
}

func importURL(id string) string {
	return "/import/" + id
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func optional[T any](v *T, format string) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf(format, *v)
}

// amountValue leaves the card amount input empty until one is entered.
func amountValue(n int) string {
	if n == 0 {
		return ""
	}
	return fmt.Sprint(n)
}

func cardsQueryString(q catalog.CardQuery) string {
	v := url.Values{}
	if q.SetID != uuid.Nil {
		v.Set("set", q.SetID.String())
	}
	if q.Search != "" {
		v.Set("q", q.Search)
	}
	if q.Sort != "" {
		v.Set("sort", string(q.Sort))
	}
	if q.Desc {
		v.Set("dir", "desc")
	}
	return v.Encode()
}

func shownDropped(dropped []cardcsv.DroppedRow) []cardcsv.DroppedRow {
	if len(dropped) > maxDroppedShown {
		return dropped[:maxDroppedShown]
	}
	return dropped
}

// canStart reports whether the import page offers the start button.
func canStart(v core.ImportView) bool {
	return v.State == importer.StatePreviewed && v.SetID != uuid.Nil && len(v.Missing) == 0
}
