package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductRef est la référence produit envoyée par le client (nombre ou chaîne)
type ProductRef string

func (r *ProductRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*r = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*r = ProductRef(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("référence produit invalide: %s", string(data))
	}
	*r = ProductRef(n.String())
	return nil
}

// ProductNamespace sert à dériver les UUID produits depuis l'identifiant fournisseur
var ProductNamespace = uuid.MustParse("6f1d2b7c-3a54-5e8b-9c0d-4e2f1a7b8c9d")

// ProductUUID résout une référence client vers l'UUID du produit stocké
func ProductUUID(ref string) uuid.UUID {
	ref = strings.TrimSpace(ref)
	if id, err := uuid.Parse(ref); err == nil {
		return id
	}
	return uuid.NewSHA1(ProductNamespace, []byte(ref))
}

// CartLine est une ligne du panier côté client
type CartLine struct {
	ProductID ProductRef      `json:"productId"`
	ID        ProductRef      `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
}

// Ref retourne productId, ou id à défaut
func (l CartLine) Ref() string {
	if l.ProductID != "" {
		return string(l.ProductID)
	}
	return string(l.ID)
}

type CartClearingEvent struct {
	OrderID   uuid.UUID `json:"order_id"`
	CreatedAt time.Time `json:"created_at"`
}
