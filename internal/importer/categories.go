package importer

import (
	"strings"

	"voltshop_back_end/internal/models"
)

// supplierCategories : codes catégorie fournisseur vers catégories canoniques
var supplierCategories = map[string]int{
	"3":  models.CategoryPowerBanks,
	"7":  models.CategoryPowerBanks,
	"12": models.CategoryPowerBanks,
	"15": models.CategoryPowerBanks,
	"5":  models.CategoryCables,
	"9":  models.CategoryCables,
	"14": models.CategoryCables,
	"18": models.CategoryCables,
}

// MapCategory retourne false pour un code non suivi
func MapCategory(code string) (int, bool) {
	id, ok := supplierCategories[strings.TrimSpace(code)]
	return id, ok
}
