package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"voltshop_back_end/internal/cache"
	"voltshop_back_end/internal/catalog"
	"voltshop_back_end/internal/config"
	"voltshop_back_end/internal/database"
	"voltshop_back_end/internal/handlers/cart"
	importhandler "voltshop_back_end/internal/handlers/importer"
	"voltshop_back_end/internal/handlers/order"
	"voltshop_back_end/internal/handlers/payement"
	"voltshop_back_end/internal/handlers/product"
	"voltshop_back_end/internal/handlers/shipping"
	"voltshop_back_end/internal/importer"
	"voltshop_back_end/internal/mailer"
	"voltshop_back_end/internal/middleware"
	"voltshop_back_end/internal/orders"
	"voltshop_back_end/internal/payment"
	"voltshop_back_end/internal/routes"
	"voltshop_back_end/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Configuration invalide: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := database.Open(cfg)
	if err != nil {
		log.Fatalf("❌ Base de données indisponible: %v", err)
	}
	defer store.Close()

	var redisCache *cache.Cache
	if client, err := cache.NewRedisClient(ctx, cfg.Redis); err != nil {
		log.Printf("⚠️ Redis désactivé (cache, verrous, rate limit, temps réel): %v", err)
	} else {
		defer client.Close()
		redisCache = cache.New(client)
	}

	search, err := services.NewSearchIndex(cfg.Elastic)
	if err != nil {
		log.Printf("⚠️ Elasticsearch désactivé: %v", err)
	}
	archive, err := services.NewFeedArchive(ctx, cfg.MinIO)
	if err != nil {
		log.Printf("⚠️ Archivage MinIO désactivé: %v", err)
	}

	sender := mailer.NewSender(cfg.SMTP)
	mail := mailer.New(sender, cfg.AdminEmail, cfg.FrontendURL)

	liqpay, stripeGateway, gateway := gateways(cfg)

	cat := catalog.NewStore()
	importOpts := importer.Options{
		FeedURL: cfg.Feed.URL,
		Timeout: cfg.Feed.Timeout,
		Cache:   redisCache,
		Catalog: cat,
	}
	if archive != nil {
		importOpts.Archiver = archive
	}
	if search != nil {
		importOpts.Indexer = search
	}
	feedImporter := importer.New(store, importOpts)

	svc := orders.NewService(store, orders.Options{Gateway: gateway, Mailer: mail, Cache: redisCache})
	go svc.RunReconciler(ctx, cfg.Orders.ReconcileInterval, cfg.Orders.ReconcileAfter)

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.AdminTokenHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	routes.RegisterRoutes(r, routes.Handlers{
		Products:       product.NewHandler(store, cat, redisCache, search),
		Orders:         order.NewHandler(svc, cfg.Orders.ReconcileAfter),
		Payments:       payement.NewHandler(svc, liqpay, stripeGateway),
		Import:         importhandler.NewHandler(feedImporter, store, archive),
		Shipping:       shipping.NewHandler(services.NewNovaPoshta(cfg.NovaPoshta, redisCache)),
		Cart:           cart.NewHandler(svc, redisCache, cfg.CORSOrigins),
		Cache:          redisCache,
		AdminToken:     cfg.AdminToken,
		OrderRateLimit: cfg.Orders.RateLimitPerMinute,
	})
	if cfg.AdminToken == "" {
		log.Println("⚠️ ADMIN_TOKEN absent : les routes /api/admin sont ouvertes")
	}

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		log.Println("🚀 Serveur Voltshop lancé sur le port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("❌ Serveur arrêté: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Arrêt du serveur...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("❌ Arrêt forcé: %v", err)
	}
}

// gateways instancie LiqPay et Stripe si leurs clés sont présentes
// et retourne la passerelle choisie par PAYMENT_PROVIDER
func gateways(cfg *config.Config) (*payment.LiqPay, *payment.Stripe, payment.Gateway) {
	var liqpay *payment.LiqPay
	var stripeGateway *payment.Stripe
	if cfg.LiqPay.PrivateKey != "" {
		liqpay = payment.NewLiqPay(cfg.LiqPay)
		log.Println("✅ LiqPay initialisé")
	}
	if cfg.Stripe.SecretKey != "" {
		stripeGateway = payment.NewStripe(cfg.Stripe)
		log.Println("✅ Stripe initialisé")
	}

	switch cfg.PaymentProvider {
	case payment.StripeProvider:
		if stripeGateway != nil {
			return liqpay, stripeGateway, stripeGateway
		}
	default:
		if liqpay != nil {
			return liqpay, stripeGateway, liqpay
		}
	}
	log.Printf("⚠️ Passerelle %q non configurée : paiement en ligne indisponible", cfg.PaymentProvider)
	return liqpay, stripeGateway, nil
}
