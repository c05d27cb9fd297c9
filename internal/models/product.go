package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clés localisées des caractéristiques normalisées par l'import
const (
	CharCapacity        = "Ємність акумулятора, мАг"
	CharCableLength     = "Довжина кабелю, м"
	CharInputConnector  = "Вхідний роз'єм"
	CharOutputConnector = "Вихідний роз'єм"
)

type Product struct {
	ID              uuid.UUID         `json:"id"`
	ExternalID      *string           `json:"external_id,omitempty"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Price           decimal.Decimal   `json:"price"`
	Quantity        int               `json:"quantity"`
	Brand           string            `json:"brand"`
	CategoryID      int               `json:"category_id"`
	ImageURL        string            `json:"image_url"`
	ImageURLs       []string          `json:"image_urls"`
	VendorCode      string            `json:"vendor_code"`
	Characteristics map[string]string `json:"characteristics"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// InStock indique si le produit est visible dans les vues "en stock"
func (p Product) InStock() bool {
	return p.Quantity > 0
}

// Characteristic retourne la valeur d'une caractéristique ou "" si absente
func (p Product) Characteristic(key string) string {
	if p.Characteristics == nil {
		return ""
	}
	return p.Characteristics[key]
}

// ExternalIDValue retourne l'identifiant fournisseur ou ""
func (p Product) ExternalIDValue() string {
	if p.ExternalID == nil {
		return ""
	}
	return *p.ExternalID
}
