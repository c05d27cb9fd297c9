package catalog

import (
	"sort"
	"strconv"
	"strings"

	"voltshop_back_end/internal/models"

	"github.com/shopspring/decimal"
)

// categoryAliases : noms d'URL du front vers les catégories canoniques
var categoryAliases = map[string]int{
	"powerbanks":  models.CategoryPowerBanks,
	"power-banks": models.CategoryPowerBanks,
	"павербанки":  models.CategoryPowerBanks,
	"cables":      models.CategoryCables,
	"кабелі":      models.CategoryCables,
}

// ResolveCategory accepte un alias ou un identifiant numérique
func ResolveCategory(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if id, ok := categoryAliases[name]; ok {
		return id, true
	}
	if id, err := strconv.Atoi(name); err == nil {
		return id, true
	}
	return 0, false
}

// Filter : dimensions combinées en ET, une dimension vide ne contraint rien
type Filter struct {
	Categories      []string         `json:"categories,omitempty"`
	Brands          []string         `json:"brands,omitempty"`
	MinPrice        *decimal.Decimal `json:"min_price,omitempty"`
	MaxPrice        *decimal.Decimal `json:"max_price,omitempty"`
	MinCapacity     *int             `json:"min_capacity,omitempty"`
	MaxCapacity     *int             `json:"max_capacity,omitempty"`
	Search          string           `json:"search,omitempty"`
	InputConnector  string           `json:"input_connector,omitempty"`
	OutputConnector string           `json:"output_connector,omitempty"`
	CableLength     string           `json:"cable_length,omitempty"`
	InStockOnly     bool             `json:"in_stock_only,omitempty"`
}

// normalized retourne une copie triée et mise en minuscules, base de la clé de mémo
func (f Filter) normalized() Filter {
	n := f
	n.Categories = normalizeList(f.Categories)
	n.Brands = normalizeList(f.Brands)
	n.Search = strings.ToLower(strings.TrimSpace(f.Search))
	n.InputConnector = strings.ToLower(strings.TrimSpace(f.InputConnector))
	n.OutputConnector = strings.ToLower(strings.TrimSpace(f.OutputConnector))
	n.CableLength = strings.TrimSpace(f.CableLength)
	return n
}

func normalizeList(values []string) []string {
	var out []string
	for _, v := range values {
		v = strings.ToLower(strings.TrimSpace(v))
		if v != "" {
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// IsEmpty indique qu'aucune dimension n'est contrainte
func (f Filter) IsEmpty() bool {
	n := f.normalized()
	return len(n.Categories) == 0 && len(n.Brands) == 0 && n.MinPrice == nil && n.MaxPrice == nil &&
		n.MinCapacity == nil && n.MaxCapacity == nil && n.Search == "" && n.InputConnector == "" &&
		n.OutputConnector == "" && n.CableLength == "" && !n.InStockOnly
}

// Capacity lit la capacité normalisée, 0 si absente ou illisible
func Capacity(p models.Product) int {
	v, err := strconv.Atoi(strings.TrimSpace(p.Characteristic(models.CharCapacity)))
	if err != nil {
		return 0
	}
	return v
}

// match attend un filtre normalisé
func (f Filter) match(p models.Product) bool {
	if len(f.Categories) > 0 {
		ok := false
		for _, name := range f.Categories {
			if id, known := ResolveCategory(name); known && id == p.CategoryID {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if len(f.Brands) > 0 {
		brand := strings.ToLower(strings.TrimSpace(p.Brand))
		ok := false
		for _, b := range f.Brands {
			if b == brand {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}

	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}

	if f.MinCapacity != nil || f.MaxCapacity != nil {
		capacity := Capacity(p)
		if capacity <= 0 {
			return false
		}
		if f.MinCapacity != nil && capacity < *f.MinCapacity {
			return false
		}
		if f.MaxCapacity != nil && capacity > *f.MaxCapacity {
			return false
		}
	}

	if f.Search != "" {
		haystack := strings.ToLower(p.Name + "\n" + p.Description + "\n" + p.Brand)
		if !strings.Contains(haystack, f.Search) {
			return false
		}
	}

	if f.InputConnector != "" && strings.ToLower(p.Characteristic(models.CharInputConnector)) != f.InputConnector {
		return false
	}
	if f.OutputConnector != "" && strings.ToLower(p.Characteristic(models.CharOutputConnector)) != f.OutputConnector {
		return false
	}
	if f.CableLength != "" && !sameLength(p.Characteristic(models.CharCableLength), f.CableLength) {
		return false
	}

	if f.InStockOnly && !p.InStock() {
		return false
	}
	return true
}

// sameLength compare numériquement ("1" == "1.0"), à défaut en texte
func sameLength(stored, wanted string) bool {
	a, errA := decimal.NewFromString(strings.TrimSpace(stored))
	b, errB := decimal.NewFromString(wanted)
	if errA == nil && errB == nil {
		return a.Equal(b)
	}
	return strings.TrimSpace(stored) == wanted
}
