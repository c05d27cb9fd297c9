package database

import (
	"context"
	"errors"

	"voltshop_back_end/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("enregistrement introuvable")
	ErrOrderExists = errors.New("la commande existe déjà")
)

type ProductStore interface {
	ListProducts(ctx context.Context) ([]models.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error)
	ProductExists(ctx context.Context, id uuid.UUID) (bool, error)
	// ListExternalIDs retourne external_id → product_id pour les produits importés
	ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error)
	InsertProducts(ctx context.Context, products []models.Product) error
	UpdateProduct(ctx context.Context, p models.Product) error
	DeleteProducts(ctx context.Context, ids []uuid.UUID) error
	UpdateProductCategory(ctx context.Context, id uuid.UUID, categoryID int) error
	ListCategories(ctx context.Context) ([]models.Category, error)
	UpsertCategory(ctx context.Context, c models.Category) error
	InsertImportLog(ctx context.Context, l models.ImportLog) error
	ListImportLogs(ctx context.Context, limit int) ([]models.ImportLog, error)
}

type OrderStore interface {
	// CreateOrder écrit la commande et ses lignes, ErrOrderExists si l'id est déjà pris
	CreateOrder(ctx context.Context, o *models.Order, items []models.OrderItem) error
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	ListOrderItems(ctx context.Context, orderID uuid.UUID) ([]models.OrderItem, error)
	// InsertOrderItems complète les lignes d'une commande restée en pending_items
	InsertOrderItems(ctx context.Context, orderID uuid.UUID, items []models.OrderItem) error
	// ListOrders trie par date décroissante, limit <= 0 retourne tout
	ListOrders(ctx context.Context, limit int) ([]models.Order, error)
	UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) error

	SavePaymentSession(ctx context.Context, s *models.PaymentSession) error
	GetPaymentSession(ctx context.Context, orderID uuid.UUID) (*models.PaymentSession, error)
	UpdatePaymentSessionStatus(ctx context.Context, orderID uuid.UUID, status models.PaymentSessionStatus) error

	InsertCartClearingEvent(ctx context.Context, e models.CartClearingEvent) error
	GetCartClearingEvent(ctx context.Context, orderID uuid.UUID) (*models.CartClearingEvent, error)
}

type Store interface {
	ProductStore
	OrderStore
	Close()
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*ScyllaStore)(nil)
)
