package catalog

import (
	"sync"

	"voltshop_back_end/internal/models"
)

// Session suit le filtre courant et le nombre de produits visibles d'un client
type Session struct {
	mu       sync.Mutex
	store    *Store
	filter   Filter
	visible  int
	pageSize int
}

func (s *Store) NewSession(pageSize int) *Session {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Session{store: s, visible: pageSize, pageSize: pageSize}
}

// SetFilter remplace le filtre et revient à la première page
func (s *Session) SetFilter(f Filter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.filter = f
	s.visible = s.pageSize
}

func (s *Session) Filter() Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

func (s *Session) ClearFilters() {
	s.SetFilter(Filter{})
}

// LoadMore affiche une page de plus, sans dépasser le total
func (s *Session) LoadMore() {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.store.Apply(s.filter))
	if s.visible < total {
		s.visible += s.pageSize
	}
}

func (s *Session) Visible() []models.Product {
	s.mu.Lock()
	defer s.mu.Unlock()
	all := s.store.Apply(s.filter)
	if s.visible < len(all) {
		return all[:s.visible]
	}
	return all
}

func (s *Session) HasMore() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.visible < len(s.store.Apply(s.filter))
}
