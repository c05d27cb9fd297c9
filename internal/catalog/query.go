package catalog

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// FilterFromQuery construit un filtre depuis les paramètres de GET /api/products.
// Les listes acceptent des valeurs répétées ou séparées par des virgules.
func FilterFromQuery(q url.Values) (Filter, error) {
	f := Filter{
		Categories:      splitValues(q["category"]),
		Brands:          splitValues(q["brand"]),
		Search:          q.Get("q"),
		InputConnector:  q.Get("inputConnector"),
		OutputConnector: q.Get("outputConnector"),
		CableLength:     q.Get("cableLength"),
	}
	if f.Search == "" {
		f.Search = q.Get("search")
	}

	var err error
	if f.MinPrice, err = decimalParam(q, "minPrice"); err != nil {
		return Filter{}, err
	}
	if f.MaxPrice, err = decimalParam(q, "maxPrice"); err != nil {
		return Filter{}, err
	}
	if f.MinCapacity, err = intParam(q, "minCapacity"); err != nil {
		return Filter{}, err
	}
	if f.MaxCapacity, err = intParam(q, "maxCapacity"); err != nil {
		return Filter{}, err
	}
	if v := q.Get("inStock"); v != "" {
		if f.InStockOnly, err = strconv.ParseBool(v); err != nil {
			return Filter{}, fmt.Errorf("inStock invalide: %q", v)
		}
	}
	return f, nil
}

func splitValues(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func decimalParam(q url.Values, name string) (*decimal.Decimal, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, fmt.Errorf("%s invalide: %q", name, v)
	}
	return &d, nil
}

func intParam(q url.Values, name string) (*int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil, fmt.Errorf("%s invalide: %q", name, v)
	}
	return &n, nil
}
