package catalog

import (
	"encoding/json"
	"strconv"
	"sync"

	"voltshop_back_end/internal/models"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	DefaultPageSize = 12
	MaxPageSize     = 100

	// MemoSize borne le nombre de filtres distincts gardés en mémoire
	MemoSize = 512
)

// Store garde le tableau complet des produits et mémoïse les résultats des filtres
type Store struct {
	mu       sync.RWMutex
	products []models.Product
	loaded   bool
	version  uint64
	memo     *lru.Cache[string, []models.Product]
}

func NewStore() *Store {
	memo, err := lru.New[string, []models.Product](MemoSize)
	if err != nil {
		panic(err)
	}
	return &Store{memo: memo}
}

// SetProducts remplace les données et invalide le mémo
func (s *Store) SetProducts(products []models.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = append([]models.Product(nil), products...)
	s.loaded = true
	s.version++
	s.memo.Purge()
}

// Reset force le prochain appel à recharger depuis la base
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.products = nil
	s.loaded = false
	s.version++
	s.memo.Purge()
}

func (s *Store) Loaded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loaded
}

func (s *Store) Products() []models.Product {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.Product(nil), s.products...)
}

// MemoLen retourne le nombre de filtres mémoïsés
func (s *Store) MemoLen() int {
	return s.memo.Len()
}

func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func memoKey(f Filter, version uint64) string {
	data, _ := json.Marshal(f)
	return strconv.FormatUint(version, 10) + ":" + string(data)
}

// Apply retourne les produits filtrés. Deux filtres équivalents partagent le même résultat
// tant que les données n'ont pas changé. Le slice retourné ne doit pas être modifié.
func (s *Store) Apply(f Filter) []models.Product {
	n := f.normalized()

	s.mu.RLock()
	key := memoKey(n, s.version)
	if cached, ok := s.memo.Get(key); ok {
		s.mu.RUnlock()
		return cached
	}
	products := s.products
	version := s.version
	s.mu.RUnlock()

	result := make([]models.Product, 0)
	for _, p := range products {
		if n.match(p) {
			result = append(result, p)
		}
	}

	s.mu.Lock()
	if s.version == version {
		s.memo.Add(key, result)
	}
	s.mu.Unlock()
	return result
}

type Page struct {
	Items   []models.Product `json:"items"`
	Total   int              `json:"total"`
	Page    int              `json:"page"`
	Limit   int              `json:"limit"`
	HasMore bool             `json:"has_more"`
}

// Page découpe le résultat filtré, page commence à 1 et limit est ramené à MaxPageSize
func (s *Store) Page(f Filter, page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	all := s.Apply(f)
	start := len(all)
	if page-1 <= len(all)/limit {
		start = min((page-1)*limit, len(all))
	}
	end := min(start+limit, len(all))
	return Page{
		Items:   all[start:end],
		Total:   len(all),
		Page:    page,
		Limit:   limit,
		HasMore: end < len(all),
	}
}
