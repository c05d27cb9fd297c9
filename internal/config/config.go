package config

import (
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	BaseURL         string
	FrontendURL     string
	CORSOrigins     []string
	StoreDriver     string
	PaymentProvider string
	AdminEmail      string
	// AdminToken protège /api/admin, vide = routes admin ouvertes
	AdminToken      string

	Scylla     ScyllaConfig
	Redis      RedisConfig
	Elastic    ElasticConfig
	MinIO      MinIOConfig
	SMTP       SMTPConfig
	LiqPay     LiqPayConfig
	Stripe     StripeConfig
	NovaPoshta NovaPoshtaConfig
	Feed       FeedConfig
	Orders     OrdersConfig
}

type ScyllaConfig struct {
	Hosts            []string
	ProductsKeyspace string
	OrdersKeyspace   string
	Username         string
	Password         string
	Timeout          time.Duration
	NumConns         int
}

type RedisConfig struct {
	Host     string
	Password string
}

type ElasticConfig struct {
	URL      string
	Username string
	Password string
	Index    string
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type LiqPayConfig struct {
	PublicKey  string
	PrivateKey string
	Sandbox    bool
	ResultURL  string
	ServerURL  string
}

type StripeConfig struct {
	SecretKey     string
	WebhookSecret string
	Currency      string
}

type NovaPoshtaConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
}

type FeedConfig struct {
	URL     string
	Timeout time.Duration
}

type OrdersConfig struct {
	RateLimitPerMinute int
	ReconcileInterval  time.Duration
	ReconcileAfter     time.Duration
}

// Load charge le .env puis construit la configuration
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}
	return FromEnv()
}

// FromEnv lit la configuration depuis l'environnement courant
func FromEnv() (*Config, error) {
	var errs []error
	collect := func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	}

	cfg := &Config{
		Port:            stringWithDefault("PORT", "8080"),
		BaseURL:         stringWithDefault("BASE_URL", "http://localhost:8080"),
		FrontendURL:     stringWithDefault("FRONTEND_URL", "http://localhost:3000"),
		StoreDriver:     stringWithDefault("STORE_DRIVER", "scylla"),
		PaymentProvider: stringWithDefault("PAYMENT_PROVIDER", "liqpay"),
		AdminEmail:      stringWithDefault("ADMIN_EMAIL", ""),
		AdminToken:      stringWithDefault("ADMIN_TOKEN", ""),
	}
	cfg.CORSOrigins = listWithDefault("CORS_ORIGINS", []string{cfg.FrontendURL})

	cfg.Scylla = ScyllaConfig{
		Hosts:            listWithDefault("SCYLLA_HOSTS", []string{"127.0.0.1"}),
		ProductsKeyspace: stringWithDefault("SCYLLA_KS_PRODUCTS_KEYSPACE", "voltshop_products"),
		OrdersKeyspace:   stringWithDefault("SCYLLA_KS_ORDERS_KEYSPACE", "voltshop_orders"),
		Username:         stringWithDefault("SCYLLA_USERNAME", ""),
		Password:         stringWithDefault("SCYLLA_PASSWORD", ""),
	}
	var err error
	cfg.Scylla.Timeout, err = durationWithDefault("SCYLLA_TIMEOUT", 5*time.Second)
	collect(err)
	cfg.Scylla.NumConns, err = intWithDefault("SCYLLA_NUM_CONNS", 20)
	collect(err)

	cfg.Redis = RedisConfig{
		Host:     stringWithDefault("REDIS_HOST", ""),
		Password: stringWithDefault("REDIS_PASSWORD", ""),
	}
	cfg.Elastic = ElasticConfig{
		URL:      stringWithDefault("ELASTIC_URL", ""),
		Username: stringWithDefault("ELASTIC_USER", ""),
		Password: stringWithDefault("ELASTIC_PASSWORD", ""),
		Index:    stringWithDefault("ELASTIC_INDEX", "products"),
	}
	cfg.MinIO = MinIOConfig{
		Endpoint:  stringWithDefault("MINIO_ENDPOINT", ""),
		AccessKey: stringWithDefault("MINIO_ACCESS_KEY", ""),
		SecretKey: stringWithDefault("MINIO_SECRET_KEY", ""),
		Bucket:    stringWithDefault("MINIO_BUCKET", "voltshop-feeds"),
		UseSSL:    boolWithDefault("MINIO_USE_SSL", false),
	}

	cfg.SMTP = SMTPConfig{
		Host:     stringWithDefault("SMTP_HOST", ""),
		Username: stringWithDefault("SMTP_USERNAME", ""),
		Password: stringWithDefault("SMTP_PASSWORD", ""),
		From:     stringWithDefault("SMTP_FROM", "noreply@voltshop.ua"),
	}
	cfg.SMTP.Port, err = intWithDefault("SMTP_PORT", 587)
	collect(err)

	cfg.LiqPay = LiqPayConfig{
		PublicKey:  stringWithDefault("LIQPAY_PUBLIC_KEY", ""),
		PrivateKey: stringWithDefault("LIQPAY_PRIVATE_KEY", ""),
		Sandbox:    boolWithDefault("LIQPAY_SANDBOX", false),
		ResultURL:  stringWithDefault("LIQPAY_RESULT_URL", cfg.FrontendURL+"/order/status"),
		ServerURL:  stringWithDefault("LIQPAY_SERVER_URL", cfg.BaseURL+"/api/payment/liqpay-callback"),
	}
	cfg.Stripe = StripeConfig{
		SecretKey:     stringWithDefault("STRIPE_SECRET_KEY", ""),
		WebhookSecret: stringWithDefault("STRIPE_WEBHOOK_SECRET", ""),
		Currency:      stringWithDefault("STRIPE_CURRENCY", "uah"),
	}

	cfg.NovaPoshta = NovaPoshtaConfig{
		APIKey:  stringWithDefault("NOVA_POSHTA_API_KEY", ""),
		BaseURL: stringWithDefault("NOVA_POSHTA_URL", "https://api.novaposhta.ua/v2.0/json/"),
	}
	cfg.NovaPoshta.Timeout, err = durationWithDefault("NOVA_POSHTA_TIMEOUT", 10*time.Second)
	collect(err)

	cfg.Feed = FeedConfig{URL: stringWithDefault("FEED_URL", "")}
	cfg.Feed.Timeout, err = durationWithDefault("FEED_TIMEOUT", 60*time.Second)
	collect(err)

	cfg.Orders.RateLimitPerMinute, err = intWithDefault("ORDER_RATE_LIMIT", 10)
	collect(err)
	cfg.Orders.ReconcileInterval, err = durationWithDefault("RECONCILE_INTERVAL", 0)
	collect(err)
	cfg.Orders.ReconcileAfter, err = durationWithDefault("RECONCILE_AFTER", 15*time.Minute)
	collect(err)

	switch cfg.PaymentProvider {
	case "liqpay":
		if _, err := requiredString("LIQPAY_PRIVATE_KEY"); err != nil {
			log.Println("⚠️ LIQPAY_PRIVATE_KEY manquant — les callbacks LiqPay seront rejetés")
		}
	case "stripe":
		if _, err := requiredString("STRIPE_SECRET_KEY"); err != nil {
			collect(err)
		}
	default:
		collect(errors.New("PAYMENT_PROVIDER doit valoir liqpay ou stripe"))
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return cfg, nil
}
