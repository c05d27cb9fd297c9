package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentSessionStatus string

const (
	SessionPending   PaymentSessionStatus = "pending"
	SessionCompleted PaymentSessionStatus = "completed"
	SessionFailed    PaymentSessionStatus = "failed"
)

// Customer est l'instantané des coordonnées client
type Customer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	City         string `json:"city"`
	CityRef      string `json:"cityRef,omitempty"`
	Warehouse    string `json:"warehouse"`
	WarehouseRef string `json:"warehouseRef,omitempty"`
	Address      string `json:"address,omitempty"`
}

type SessionItem struct {
	ProductRef string          `json:"product_ref"`
	Name       string          `json:"name"`
	UnitPrice  decimal.Decimal `json:"unit_price"`
	Quantity   int             `json:"quantity"`
}

type PaymentSession struct {
	OrderID     uuid.UUID            `json:"order_id"`
	Customer    Customer             `json:"customer"`
	Items       []SessionItem        `json:"items"`
	TotalAmount decimal.Decimal      `json:"total_amount"`
	Provider    string               `json:"provider"`
	Status      PaymentSessionStatus `json:"status"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
}
