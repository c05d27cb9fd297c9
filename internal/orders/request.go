package orders

import (
	"encoding/json"
	"strings"

	"voltshop_back_end/internal/models"

	"github.com/shopspring/decimal"
)

type CustomerData struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	CityRef      string `json:"cityRef"`
	Warehouse    string `json:"warehouse"`
	WarehouseRef string `json:"warehouseRef"`
	Address      string `json:"address"`
}

// CreateRequest est le corps de POST /api/order/create et /api/payment/create-session
type CreateRequest struct {
	CustomerData  CustomerData      `json:"customerData"`
	Items         []models.CartLine `json:"items"`
	TotalAmount   json.RawMessage   `json:"totalAmount"`
	PaymentMethod string            `json:"paymentMethod"`
}

func (c CustomerData) snapshot() models.Customer {
	return models.Customer{
		Name:         strings.TrimSpace(c.Name),
		Email:        strings.TrimSpace(c.Email),
		Phone:        strings.TrimSpace(c.Phone),
		City:         strings.TrimSpace(c.City),
		CityRef:      strings.TrimSpace(c.CityRef),
		Warehouse:    strings.TrimSpace(c.Warehouse),
		WarehouseRef: strings.TrimSpace(c.WarehouseRef),
		Address:      strings.TrimSpace(c.Address),
	}
}

// validate vérifie le corps sans toucher au stockage
func (r CreateRequest) validate() (models.PaymentMethod, decimal.Decimal, error) {
	c := r.CustomerData.snapshot()
	if c.Name == "" {
		return "", decimal.Zero, invalid("customerData.name", "le nom est obligatoire")
	}
	if c.Email == "" {
		return "", decimal.Zero, invalid("customerData.email", "l'e-mail est obligatoire")
	}
	if !strings.Contains(c.Email, "@") {
		return "", decimal.Zero, invalid("customerData.email", "e-mail invalide")
	}
	if len(r.Items) == 0 {
		return "", decimal.Zero, invalid("items", "le panier est vide")
	}
	total, err := models.ParseAmount(r.TotalAmount)
	if err != nil {
		return "", decimal.Zero, invalid("totalAmount", "montant total manquant ou non numérique")
	}
	method, err := models.ParsePaymentMethod(r.PaymentMethod)
	if err != nil {
		return "", decimal.Zero, invalid("paymentMethod", "doit valoir online ou cash_on_delivery")
	}
	for i, line := range r.Items {
		if strings.TrimSpace(line.Ref()) == "" {
			return "", decimal.Zero, invalidLine(i, "productId", "référence produit manquante")
		}
		if line.Quantity <= 0 {
			return "", decimal.Zero, invalidLine(i, "quantity", "la quantité doit être positive")
		}
		if line.Price.IsNegative() {
			return "", decimal.Zero, invalidLine(i, "price", "le prix ne peut pas être négatif")
		}
	}
	return method, total, nil
}
