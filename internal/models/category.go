package models

// Catégories canoniques visées par l'import
const (
	CategoryPowerBanks = 1001
	CategoryCables     = 1002
)

type Category struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	ParentID *int   `json:"parent_id,omitempty"`
}

var CanonicalCategories = []Category{
	{ID: CategoryPowerBanks, Name: "Павербанки"},
	{ID: CategoryCables, Name: "Кабелі"},
}
