package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"voltshop_back_end/internal/config"
	"voltshop_back_end/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
	"github.com/google/uuid"
)

var ErrSearchDisabled = errors.New("client Elasticsearch non initialisé")

// SearchIndex tient l'index produits. Un *SearchIndex nil ignore l'indexation.
type SearchIndex struct {
	client *elasticsearch.Client
	index  string
}

// NewSearchIndex retourne nil sans erreur quand ELASTIC_URL est vide
func NewSearchIndex(cfg config.ElasticConfig) (*SearchIndex, error) {
	if cfg.URL == "" {
		log.Println("⚠️ ELASTIC_URL non configuré : recherche servie par le catalogue")
		return nil, nil
	}
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("création client Elasticsearch: %w", err)
	}
	index := cfg.Index
	if index == "" {
		index = "products"
	}
	log.Println("✅ Client Elasticsearch prêt:", cfg.URL)
	return &SearchIndex{client: client, index: index}, nil
}

type searchDocument struct {
	ID              string            `json:"id"`
	Name            string            `json:"name"`
	Description     string            `json:"description"`
	Brand           string            `json:"brand"`
	CategoryID      int               `json:"category_id"`
	Price           float64           `json:"price"`
	Quantity        int               `json:"quantity"`
	Characteristics map[string]string `json:"characteristics,omitempty"`
}

func toDocument(p models.Product) searchDocument {
	price, _ := p.Price.Float64()
	return searchDocument{
		ID:              p.ID.String(),
		Name:            p.Name,
		Description:     p.Description,
		Brand:           p.Brand,
		CategoryID:      p.CategoryID,
		Price:           price,
		Quantity:        p.Quantity,
		Characteristics: p.Characteristics,
	}
}

func (s *SearchIndex) IndexProduct(ctx context.Context, p models.Product) error {
	if s == nil {
		return nil
	}
	data, err := json.Marshal(toDocument(p))
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      s.index,
		DocumentID: p.ID.String(),
		Body:       bytes.NewReader(data),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("envoi Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("Elastic a renvoyé une erreur pour %s: %s", p.Name, res.String())
	}
	log.Printf("✅ Produit indexé dans Elasticsearch: %s", p.Name)
	return nil
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
	} `json:"items"`
}

func (s *SearchIndex) bulk(ctx context.Context, body *bytes.Buffer) error {
	req := esapi.BulkRequest{Index: s.index, Body: body, Refresh: "true"}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return fmt.Errorf("requête bulk Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("bulk Elastic: %s", res.String())
	}
	var br bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&br); err != nil {
		return fmt.Errorf("décodage réponse bulk: %w", err)
	}
	if br.Errors {
		failed := 0
		for _, item := range br.Items {
			for _, op := range item {
				if op.Status >= 300 && op.Status != 404 {
					failed++
				}
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d opérations bulk en échec", failed)
		}
	}
	return nil
}

// IndexProducts réindexe un lot via l'API bulk
func (s *SearchIndex) IndexProducts(ctx context.Context, products []models.Product) error {
	if s == nil || len(products) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, p := range products {
		if err := enc.Encode(map[string]interface{}{"index": map[string]string{"_id": p.ID.String()}}); err != nil {
			return err
		}
		if err := enc.Encode(toDocument(p)); err != nil {
			return err
		}
	}
	if err := s.bulk(ctx, &buf); err != nil {
		return err
	}
	log.Printf("✅ %d produits indexés dans Elasticsearch", len(products))
	return nil
}

func (s *SearchIndex) DeleteProducts(ctx context.Context, ids []uuid.UUID) error {
	if s == nil || len(ids) == 0 {
		return nil
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(map[string]interface{}{"delete": map[string]string{"_id": id.String()}}); err != nil {
			return err
		}
	}
	return s.bulk(ctx, &buf)
}

// Search retourne les identifiants des produits par pertinence (multi_match)
func (s *SearchIndex) Search(ctx context.Context, query string, limit int) ([]uuid.UUID, error) {
	if s == nil {
		return nil, ErrSearchDisabled
	}
	if limit <= 0 {
		limit = 20
	}
	var buf bytes.Buffer
	q := map[string]interface{}{
		"size": limit,
		"query": map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     query,
				"fields":    []string{"name^3", "brand^2", "description"},
				"fuzziness": "AUTO",
			},
		},
	}
	if err := json.NewEncoder(&buf).Encode(q); err != nil {
		return nil, fmt.Errorf("erreur encodage requête: %w", err)
	}

	req := esapi.SearchRequest{Index: []string{s.index}, Body: &buf}
	res, err := req.Do(ctx, s.client)
	if err != nil {
		return nil, fmt.Errorf("erreur requête Elastic: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, fmt.Errorf("Elasticsearch erreur: %s", res.String())
	}

	var r struct {
		Hits struct {
			Hits []struct {
				ID string `json:"_id"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, fmt.Errorf("erreur décodage JSON: %w", err)
	}
	ids := make([]uuid.UUID, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		if id, err := uuid.Parse(strings.TrimSpace(hit.ID)); err == nil {
			ids = append(ids, id)
		}
	}
	return ids, nil
}
