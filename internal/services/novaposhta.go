package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/config"
)

const (
	NovaPoshtaCacheTTL = 12 * time.Hour
	novaPoshtaLimit    = "20"
)

var ErrNovaPoshta = errors.New("erreur API Nova Poshta")

type City struct {
	Ref         string `json:"Ref"`
	Description string `json:"Description"`
	Area        string `json:"AreaDescription"`
	Type        string `json:"SettlementTypeDescription"`
}

type Warehouse struct {
	Ref          string `json:"Ref"`
	Description  string `json:"Description"`
	ShortAddress string `json:"ShortAddress"`
	Number       string `json:"Number"`
	CityRef      string `json:"CityRef"`
	Category     string `json:"CategoryOfWarehouse"`
}

type npRequest struct {
	APIKey           string            `json:"apiKey"`
	ModelName        string            `json:"modelName"`
	CalledMethod     string            `json:"calledMethod"`
	MethodProperties map[string]string `json:"methodProperties"`
}

type npResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Errors  []string        `json:"errors"`
}

// NovaPoshta interroge l'API JSON du transporteur avec cache Redis
type NovaPoshta struct {
	apiKey    string
	baseURL   string
	http      *http.Client
	cache     *cache.Cache
	baseDelay time.Duration
}

func NewNovaPoshta(cfg config.NovaPoshtaConfig, c *cache.Cache) *NovaPoshta {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NovaPoshta{
		apiKey:    cfg.APIKey,
		baseURL:   cfg.BaseURL,
		http:      &http.Client{Timeout: timeout},
		cache:     c,
		baseDelay: retryBaseDelay,
	}
}

func (np *NovaPoshta) call(ctx context.Context, model, method string, props map[string]string, dest interface{}) error {
	body, err := json.Marshal(npRequest{APIKey: np.apiKey, ModelName: model, CalledMethod: method, MethodProperties: props})
	if err != nil {
		return err
	}

	var lastErr error
	for attempt := 0; attempt <= retryMax; attempt++ {
		if attempt > 0 {
			if err := sleepWithContext(ctx, retryDelay(np.baseDelay, attempt-1)); err != nil {
				return err
			}
		}
		lastErr = np.do(ctx, body, dest)
		if lastErr == nil || !isRetryableHTTPError(lastErr) {
			return lastErr
		}
		log.Printf("⚠️ Nova Poshta %s.%s tentative %d/%d: %v", model, method, attempt+1, retryMax+1, lastErr)
	}
	return lastErr
}

func (np *NovaPoshta) do(ctx context.Context, body []byte, dest interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, np.baseURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := np.http.Do(req)
	if err != nil {
		return fmt.Errorf("appel Nova Poshta: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return newHTTPStatusError(resp.StatusCode, resp.Status, raw)
	}

	var r npResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return fmt.Errorf("réponse Nova Poshta illisible: %w", err)
	}
	if !r.Success {
		return fmt.Errorf("%w: %s", ErrNovaPoshta, strings.Join(r.Errors, "; "))
	}
	return json.Unmarshal(r.Data, dest)
}

func cacheKey(parts ...string) string {
	for i, p := range parts {
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return "np:" + strings.Join(parts, ":")
}

// SearchCities cherche les villes par nom
func (np *NovaPoshta) SearchCities(ctx context.Context, query string) ([]City, error) {
	key := cacheKey("cities", query)
	var cities []City
	if err := np.cache.GetJSON(ctx, key, &cities); err == nil {
		return cities, nil
	}

	props := map[string]string{"FindByString": strings.TrimSpace(query), "Limit": novaPoshtaLimit}
	if err := np.call(ctx, "Address", "getCities", props, &cities); err != nil {
		return nil, err
	}
	if cities == nil {
		cities = []City{}
	}
	if err := np.cache.SetJSON(ctx, key, cities, NovaPoshtaCacheTTL); err != nil {
		log.Printf("⚠️ Cache Nova Poshta non écrit: %v", err)
	}
	return cities, nil
}

// Warehouses liste les agences d'une ville, filtrées par texte
func (np *NovaPoshta) Warehouses(ctx context.Context, cityRef, query string) ([]Warehouse, error) {
	key := cacheKey("warehouses", cityRef, query)
	var warehouses []Warehouse
	if err := np.cache.GetJSON(ctx, key, &warehouses); err == nil {
		return warehouses, nil
	}

	props := map[string]string{"CityRef": strings.TrimSpace(cityRef), "Limit": "50"}
	if q := strings.TrimSpace(query); q != "" {
		props["FindByString"] = q
	}
	if err := np.call(ctx, "Address", "getWarehouses", props, &warehouses); err != nil {
		return nil, err
	}
	if warehouses == nil {
		warehouses = []Warehouse{}
	}
	if err := np.cache.SetJSON(ctx, key, warehouses, NovaPoshtaCacheTTL); err != nil {
		log.Printf("⚠️ Cache Nova Poshta non écrit: %v", err)
	}
	return warehouses, nil
}
