package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	ProductsAllKey  = "products:all"
	ProductCacheTTL = 10 * time.Minute
	ListCacheTTL    = time.Hour
)

var ErrMiss = errors.New("absent du cache")

func ProductKey(id string) string {
	return "product:" + id
}

// CartChannel est le canal pub/sub des événements panier d'une commande
func CartChannel(orderID string) string {
	return "cart:events:" + orderID
}

// Cache enveloppe Redis. Un *Cache nil (Redis non configuré) se comporte comme un cache
// toujours vide : lectures en ErrMiss, écritures ignorées.
type Cache struct {
	client *redis.Client
}

func New(client *redis.Client) *Cache {
	if client == nil {
		return nil
	}
	return &Cache{client: client}
}

func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

func (c *Cache) Client() *redis.Client {
	if !c.Enabled() {
		return nil
	}
	return c.client
}

// GetJSON décode la valeur de key dans dest
func (c *Cache) GetJSON(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("valeur en cache illisible pour %s: %w", key, err)
	}
	return nil
}

func (c *Cache) SetJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if !c.Enabled() || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

// InvalidateProducts supprime la liste et les fiches produit en cache
func (c *Cache) InvalidateProducts(ctx context.Context, ids ...string) {
	keys := []string{ProductsAllKey}
	for _, id := range ids {
		keys = append(keys, ProductKey(id))
	}
	if err := c.Delete(ctx, keys...); err != nil {
		log.Printf("⚠️ Erreur invalidation cache produits: %v", err)
	}
}

// AcquireLock pose un verrou SETNX. Sans Redis le verrou est toujours accordé.
func (c *Cache) AcquireLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if !c.Enabled() {
		return true, nil
	}
	return c.client.SetNX(ctx, "lock:"+key, "1", ttl).Result()
}

func (c *Cache) ReleaseLock(ctx context.Context, key string) {
	if !c.Enabled() {
		return
	}
	if err := c.client.Del(ctx, "lock:"+key).Err(); err != nil {
		log.Printf("⚠️ Erreur libération verrou %s: %v", key, err)
	}
}

// IncrementRateLimit incrémente le compteur et arme l'expiration au premier appel
func (c *Cache) IncrementRateLimit(ctx context.Context, key string, window time.Duration) (int64, error) {
	if !c.Enabled() {
		return 0, nil
	}
	n, err := c.client.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if n == 1 {
		if err := c.client.Expire(ctx, key, window).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *Cache) Publish(ctx context.Context, channel string, message interface{}) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}
	return c.client.Publish(ctx, channel, data).Err()
}

// Subscribe retourne nil sans Redis
func (c *Cache) Subscribe(ctx context.Context, channel string) *redis.PubSub {
	if !c.Enabled() {
		return nil
	}
	return c.client.Subscribe(ctx, channel)
}
