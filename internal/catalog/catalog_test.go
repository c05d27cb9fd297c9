package catalog

import (
	"fmt"
	"math"
	"net/url"
	"testing"

	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func product(name, brand string, price int64, mutate ...func(*models.Product)) models.Product {
	p := models.Product{
		ID:              uuid.New(),
		Name:            name,
		Brand:           brand,
		Price:           decimal.NewFromInt(price),
		Quantity:        5,
		CategoryID:      models.CategoryPowerBanks,
		Characteristics: map[string]string{},
	}
	for _, m := range mutate {
		m(&p)
	}
	return p
}

func names(products []models.Product) []string {
	out := make([]string, 0, len(products))
	for _, p := range products {
		out = append(out, p.Name)
	}
	return out
}

func decPtr(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func intPtr(v int) *int { return &v }

func TestStore_MinPriceThenClear(t *testing.T) {
	s := NewStore()
	s.SetProducts([]models.Product{product("a", "A", 100), product("b", "B", 500)})

	got := s.Apply(Filter{MinPrice: decPtr(200)})
	require.Len(t, got, 1)
	assert.Equal(t, "B", got[0].Brand)
	assert.True(t, decimal.NewFromInt(500).Equal(got[0].Price))

	assert.Len(t, s.Apply(Filter{}), 2)
}

func TestStore_CapacityBoundExcludesUnknownCapacity(t *testing.T) {
	s := NewStore()
	s.SetProducts([]models.Product{
		product("small", "X", 500, func(p *models.Product) { p.Characteristics[models.CharCapacity] = "5000" }),
		product("big", "X", 900, func(p *models.Product) { p.Characteristics[models.CharCapacity] = "20000" }),
		product("cable", "X", 150, func(p *models.Product) { p.CategoryID = models.CategoryCables }),
	})

	assert.Equal(t, []string{"big"}, names(s.Apply(Filter{MinCapacity: intPtr(10000)})))
	assert.Equal(t, []string{"small", "big"}, names(s.Apply(Filter{MaxCapacity: intPtr(100000)})))
	assert.Len(t, s.Apply(Filter{}), 3)
}

func TestStore_CombinesDimensionsWithAnd(t *testing.T) {
	s := NewStore()
	s.SetProducts([]models.Product{
		product("Кабель Type-C 1м", "Baseus", 200, func(p *models.Product) {
			p.CategoryID = models.CategoryCables
			p.Characteristics[models.CharInputConnector] = "USB-A"
			p.Characteristics[models.CharOutputConnector] = "Type-C"
			p.Characteristics[models.CharCableLength] = "1"
		}),
		product("Кабель Lightning 2м", "Baseus", 250, func(p *models.Product) {
			p.CategoryID = models.CategoryCables
			p.Characteristics[models.CharOutputConnector] = "Lightning"
			p.Characteristics[models.CharCableLength] = "2"
		}),
		product("PB Anker", "Anker", 1200, func(p *models.Product) { p.Quantity = 0 }),
	})

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{name: "category alias", filter: Filter{Categories: []string{"cables"}}, want: []string{"Кабель Type-C 1м", "Кабель Lightning 2м"}},
		{name: "ukrainian alias", filter: Filter{Categories: []string{"Павербанки"}}, want: []string{"PB Anker"}},
		{name: "numeric category", filter: Filter{Categories: []string{"1002"}}, want: []string{"Кабель Type-C 1м", "Кабель Lightning 2м"}},
		{name: "brand case-insensitive", filter: Filter{Brands: []string{"baseus"}}, want: []string{"Кабель Type-C 1м", "Кабель Lightning 2м"}},
		{name: "search brand", filter: Filter{Search: "ANKER"}, want: []string{"PB Anker"}},
		{name: "output connector", filter: Filter{OutputConnector: "type-c"}, want: []string{"Кабель Type-C 1м"}},
		{name: "cable length numeric", filter: Filter{CableLength: "2.0"}, want: []string{"Кабель Lightning 2м"}},
		{name: "in stock", filter: Filter{InStockOnly: true}, want: []string{"Кабель Type-C 1м", "Кабель Lightning 2м"}},
		{name: "and", filter: Filter{Brands: []string{"Baseus"}, MaxPrice: decPtr(220)}, want: []string{"Кабель Type-C 1м"}},
		{name: "unknown category", filter: Filter{Categories: []string{"phones"}}, want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, names(s.Apply(tt.filter)))
		})
	}
}

func TestStore_MemoizesEquivalentFilters(t *testing.T) {
	s := NewStore()
	s.SetProducts([]models.Product{product("a", "A", 100), product("b", "B", 500)})

	first := s.Apply(Filter{Brands: []string{"A", "B"}})
	second := s.Apply(Filter{Brands: []string{" b", "a"}})
	require.Len(t, first, 2)
	assert.Same(t, &first[0], &second[0], "equivalent filters share the memoized slice")

	s.SetProducts([]models.Product{product("c", "A", 100)})
	assert.Equal(t, []string{"c"}, names(s.Apply(Filter{Brands: []string{"A", "B"}})))
}

func TestStore_Page(t *testing.T) {
	s := NewStore()
	var products []models.Product
	for i := 0; i < 25; i++ {
		products = append(products, product(fmt.Sprintf("p%02d", i), "A", int64(100+i)))
	}
	s.SetProducts(products)

	page := s.Page(Filter{}, 3, 10)
	assert.Equal(t, 25, page.Total)
	assert.Len(t, page.Items, 5)
	assert.False(t, page.HasMore)

	page = s.Page(Filter{}, 1, 0)
	assert.Len(t, page.Items, DefaultPageSize)
	assert.True(t, page.HasMore)

	assert.Empty(t, s.Page(Filter{}, 9, 10).Items)
}

func TestStore_PageBoundsAreClamped(t *testing.T) {
	s := NewStore()
	var products []models.Product
	for i := 0; i < 150; i++ {
		products = append(products, product(fmt.Sprintf("p%03d", i), "A", int64(100+i)))
	}
	s.SetProducts(products)

	page := s.Page(Filter{}, 1, math.MaxInt)
	assert.Equal(t, MaxPageSize, page.Limit)
	assert.Len(t, page.Items, MaxPageSize)
	assert.True(t, page.HasMore)

	page = s.Page(Filter{}, 2, math.MaxInt)
	assert.Len(t, page.Items, 50)
	assert.False(t, page.HasMore)

	require.NotPanics(t, func() {
		page = s.Page(Filter{}, math.MaxInt, 10)
	})
	assert.Empty(t, page.Items)
	assert.Equal(t, 150, page.Total)
}

func TestStore_MemoIsBounded(t *testing.T) {
	s := NewStore()
	s.SetProducts([]models.Product{product("Baseus 10000", "Baseus", 500)})

	for i := 0; i < 3*MemoSize; i++ {
		s.Apply(Filter{Search: fmt.Sprintf("query-%d", i)})
	}
	assert.Equal(t, MemoSize, s.MemoLen())

	assert.Len(t, s.Apply(Filter{Search: "baseus"}), 1)
	s.Reset()
	assert.Zero(t, s.MemoLen())
}

func TestSession_LoadMoreAndClear(t *testing.T) {
	s := NewStore()
	var products []models.Product
	for i := 0; i < 5; i++ {
		products = append(products, product(fmt.Sprintf("p%d", i), "A", int64(100*(i+1))))
	}
	s.SetProducts(products)

	session := s.NewSession(2)
	assert.Len(t, session.Visible(), 2)
	session.LoadMore()
	assert.Len(t, session.Visible(), 4)
	session.LoadMore()
	session.LoadMore()
	assert.Len(t, session.Visible(), 5)
	assert.False(t, session.HasMore())

	session.SetFilter(Filter{MinPrice: decPtr(300)})
	assert.Equal(t, []string{"p2", "p3"}, names(session.Visible()))
	assert.True(t, session.HasMore())

	session.ClearFilters()
	assert.Len(t, session.Visible(), 2)
	assert.True(t, session.Filter().IsEmpty())
}

func TestFilterFromQuery(t *testing.T) {
	q := url.Values{
		"category":    {"powerbanks,cables"},
		"brand":       {"Anker", "Baseus"},
		"minPrice":    {"100"},
		"maxCapacity": {"20000"},
		"inStock":     {"true"},
		"q":           {"кабель"},
	}
	f, err := FilterFromQuery(q)
	require.NoError(t, err)
	assert.Equal(t, []string{"powerbanks", "cables"}, f.Categories)
	assert.Equal(t, []string{"Anker", "Baseus"}, f.Brands)
	assert.True(t, decimal.NewFromInt(100).Equal(*f.MinPrice))
	assert.Equal(t, 20000, *f.MaxCapacity)
	assert.True(t, f.InStockOnly)
	assert.Equal(t, "кабель", f.Search)

	_, err = FilterFromQuery(url.Values{"minPrice": {"cheap"}})
	assert.Error(t, err)
}
