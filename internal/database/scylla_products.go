package database

import (
	"context"
	"fmt"
	"time"

	"voltshop_back_end/internal/models"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"gopkg.in/inf.v0"
)

const importLogSource = "supplier_feed"

func nullableString(s *string) interface{} {
	if s == nil {
		return nil
	}
	return *s
}

func scanProducts(iter *gocql.Iter) ([]models.Product, error) {
	var products []models.Product
	for {
		var (
			p          models.Product
			id         gocql.UUID
			externalID string
			price      *inf.Dec
		)
		if !iter.Scan(&id, &externalID, &p.Name, &p.Description, &price, &p.Quantity, &p.Brand, &p.CategoryID,
			&p.ImageURL, &p.ImageURLs, &p.VendorCode, &p.Characteristics, &p.CreatedAt, &p.UpdatedAt) {
			break
		}
		p.ID = uuid.UUID(id)
		if externalID != "" {
			ext := externalID
			p.ExternalID = &ext
		}
		p.Price = fromDec(price)
		products = append(products, p)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture produits: %w", err)
	}
	return products, nil
}

func (s *ScyllaStore) ListProducts(ctx context.Context) ([]models.Product, error) {
	return scanProducts(s.products.Query(selectAllProductsQuery).WithContext(ctx).Iter())
}

func (s *ScyllaStore) GetProduct(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	products, err := scanProducts(s.products.Query(selectProductQuery, gocql.UUID(id)).WithContext(ctx).Iter())
	if err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, ErrNotFound
	}
	return &products[0], nil
}

func (s *ScyllaStore) ProductExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var found gocql.UUID
	err := s.products.Query(productExistsQuery, gocql.UUID(id)).WithContext(ctx).Scan(&found)
	if err == gocql.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("vérification produit %s: %w", id, err)
	}
	return true, nil
}

func (s *ScyllaStore) ListExternalIDs(ctx context.Context) (map[string]uuid.UUID, error) {
	iter := s.products.Query(selectExternalIDsQuery).WithContext(ctx).Iter()
	out := make(map[string]uuid.UUID)
	var (
		id         gocql.UUID
		externalID string
	)
	for iter.Scan(&id, &externalID) {
		if externalID != "" {
			out[externalID] = uuid.UUID(id)
		}
		externalID = ""
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture identifiants fournisseur: %w", err)
	}
	return out, nil
}

func productArgs(p models.Product) []interface{} {
	return []interface{}{
		gocql.UUID(p.ID), nullableString(p.ExternalID), p.Name, p.Description, toDec(p.Price), p.Quantity, p.Brand,
		p.CategoryID, p.ImageURL, p.ImageURLs, p.VendorCode, p.Characteristics, p.CreatedAt, p.UpdatedAt,
	}
}

// InsertProducts écrit le lot dans un UNLOGGED BATCH (une seule requête réseau)
func (s *ScyllaStore) InsertProducts(ctx context.Context, products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	now := time.Now()
	batch := s.products.NewBatch(gocql.UnloggedBatch).WithContext(ctx)
	for _, p := range products {
		if p.CreatedAt.IsZero() {
			p.CreatedAt = now
		}
		p.UpdatedAt = now
		batch.Query(insertProductQuery, productArgs(p)...)
	}
	if err := s.products.ExecuteBatch(batch); err != nil {
		return fmt.Errorf("insertion de %d produits: %w", len(products), err)
	}
	return nil
}

func (s *ScyllaStore) UpdateProduct(ctx context.Context, p models.Product) error {
	applied, err := s.products.Query(updateProductQuery,
		nullableString(p.ExternalID), p.Name, p.Description, toDec(p.Price), p.Quantity, p.Brand, p.CategoryID,
		p.ImageURL, p.ImageURLs, p.VendorCode, p.Characteristics, time.Now(), gocql.UUID(p.ID),
	).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("mise à jour produit %s: %w", p.ID, err)
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaStore) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	for _, id := range ids {
		if err := s.products.Query(deleteProductQuery, gocql.UUID(id)).WithContext(ctx).Exec(); err != nil {
			return fmt.Errorf("suppression produit %s: %w", id, err)
		}
	}
	return nil
}

func (s *ScyllaStore) UpdateProductCategory(ctx context.Context, id uuid.UUID, categoryID int) error {
	applied, err := s.products.Query(updateProductCategoryQuery, categoryID, time.Now(), gocql.UUID(id)).
		WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return fmt.Errorf("mise à jour catégorie du produit %s: %w", id, err)
	}
	if !applied {
		return ErrNotFound
	}
	return nil
}

func (s *ScyllaStore) ListCategories(ctx context.Context) ([]models.Category, error) {
	iter := s.products.Query(selectCategoriesQuery).WithContext(ctx).Iter()
	var categories []models.Category
	for {
		var (
			c        models.Category
			parentID *int
		)
		if !iter.Scan(&c.ID, &c.Name, &parentID) {
			break
		}
		c.ParentID = parentID
		categories = append(categories, c)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture catégories: %w", err)
	}
	return categories, nil
}

func (s *ScyllaStore) UpsertCategory(ctx context.Context, c models.Category) error {
	var parent interface{}
	if c.ParentID != nil {
		parent = *c.ParentID
	}
	if err := s.products.Query(upsertCategoryQuery, c.ID, c.Name, parent).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("écriture catégorie %d: %w", c.ID, err)
	}
	return nil
}

func (s *ScyllaStore) InsertImportLog(ctx context.Context, l models.ImportLog) error {
	err := s.products.Query(insertImportLogQuery, importLogSource, l.CreatedAt, gocql.UUID(l.ID), l.Inserted, l.Updated,
		l.Deleted, l.Skipped, l.Errors, l.Success, l.ErrorMessage, l.FeedObject).WithContext(ctx).Exec()
	if err != nil {
		return fmt.Errorf("écriture journal d'import: %w", err)
	}
	return nil
}

func (s *ScyllaStore) ListImportLogs(ctx context.Context, limit int) ([]models.ImportLog, error) {
	if limit <= 0 {
		limit = 1000
	}
	iter := s.products.Query(selectImportLogsQuery, importLogSource, limit).WithContext(ctx).Iter()
	var logs []models.ImportLog
	for {
		var (
			l  models.ImportLog
			id gocql.UUID
		)
		if !iter.Scan(&id, &l.Inserted, &l.Updated, &l.Deleted, &l.Skipped, &l.Errors, &l.Success, &l.ErrorMessage,
			&l.FeedObject, &l.CreatedAt) {
			break
		}
		l.ID = uuid.UUID(id)
		logs = append(logs, l)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("lecture journaux d'import: %w", err)
	}
	return logs, nil
}
