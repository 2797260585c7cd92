package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"looptrust-ledger/internal/audit"
	"looptrust-ledger/internal/auth"
	"looptrust-ledger/internal/chain"
	"looptrust-ledger/internal/eventing"
	"looptrust-ledger/internal/observability/metrics"
	purchaseapp "looptrust-ledger/internal/purchase/application"
	"looptrust-ledger/internal/purchase/catalog"
	purchase "looptrust-ledger/internal/purchase/domain"
	purchasememory "looptrust-ledger/internal/purchase/infrastructure/memory"
	purchaseredis "looptrust-ledger/internal/purchase/infrastructure/redis"
	purchasehttp "looptrust-ledger/internal/purchase/interfaces/http"
	ledgerapp "looptrust-ledger/internal/shipment/application"
	shipment "looptrust-ledger/internal/shipment/domain"
	shipmentmemory "looptrust-ledger/internal/shipment/infrastructure/memory"
	shipmentpostgres "looptrust-ledger/internal/shipment/infrastructure/postgres"
	shipmenthttp "looptrust-ledger/internal/shipment/interfaces/http"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	goredis "github.com/redis/go-redis/v9"
)

func main() {
	_ = godotenv.Load()
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.DatabaseURL)
		if err != nil {
			logger.Fatalf("db open error: %v", err)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			logger.Fatalf("db ping error: %v", err)
		}
	}

	metrics.Init(db, logger)

	var auditLogger audit.Logger
	if db != nil {
		auditLogger = audit.NewRepository(db)
	}

	var shipmentRepo shipment.Repository
	if db != nil {
		shipmentRepo = shipmentpostgres.NewRepository(db)
	} else {
		logger.Printf("no DATABASE_URL set, using in-memory shipment ledger")
		shipmentRepo = shipmentmemory.NewRepository()
	}

	var purchaseStore purchase.Store
	if cfg.RedisAddr != "" {
		client := goredis.NewClient(&goredis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
		defer client.Close()
		store, err := purchaseredis.NewStore(client, logger)
		if err != nil {
			logger.Fatalf("purchase store error: %v", err)
		}
		purchaseStore = store
	} else {
		logger.Printf("no REDIS_ADDR set, using in-memory purchase store")
		purchaseStore = purchasememory.NewStore()
	}

	var confirmer chain.Confirmer = chain.Immediate{}
	if cfg.ChainGatewayURL != "" {
		client, err := chain.NewClient(cfg.ChainGatewayURL, cfg.ChainGatewayToken,
			chain.WithConfirmTimeout(cfg.ChainConfirmTimeout))
		if err != nil {
			logger.Fatalf("chain client error: %v", err)
		}
		confirmer = client
	} else {
		logger.Printf("no CHAIN_GATEWAY_URL set, confirming transactions locally")
	}

	bus := eventing.NewInMemoryBus()
	if cfg.KafkaBroker != "" {
		publisher, err := eventing.NewKafkaPublisher(cfg.KafkaBroker, cfg.KafkaTopic)
		if err != nil {
			logger.Fatalf("kafka publisher error: %v", err)
		}
		defer publisher.Close()
		for _, eventType := range []string{
			eventing.EventTypeOf[ledgerapp.ShipmentCreated](),
			eventing.EventTypeOf[ledgerapp.ShipmentStarted](),
			eventing.EventTypeOf[ledgerapp.ShipmentDelivered](),
			eventing.EventTypeOf[purchaseapp.ServicePurchased](),
		} {
			bus.Subscribe(eventType, publisher.Handler())
		}
	}
	bus.Subscribe(eventing.EventTypeOf[ledgerapp.ShipmentDelivered](), func(ctx context.Context, event any) error {
		evt, ok := event.(ledgerapp.ShipmentDelivered)
		if !ok {
			return eventing.ErrInvalidEventType
		}
		logger.Printf("shipment delivered: index=%d sender=%s tx=%s", evt.Index, evt.Sender, evt.TxHash)
		return nil
	})

	ledgerService, err := ledgerapp.NewLedgerService(shipmentRepo, confirmer, bus, ledgerapp.SystemClock{})
	if err != nil {
		logger.Fatalf("ledger service error: %v", err)
	}
	if cfg.SeedDemoData {
		if err := seedDemoShipments(context.Background(), shipmentRepo, cfg.DemoWallet); err != nil {
			logger.Fatalf("demo seed error: %v", err)
		}
		logger.Printf("seeded demo shipments for %s", cfg.DemoWallet)
	}

	serviceCatalog, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatalf("catalog error: %v", err)
	}
	purchaseService, err := purchaseapp.NewPurchaseService(purchaseStore, serviceCatalog, confirmer, bus, purchaseapp.SystemClock{}, logger)
	if err != nil {
		logger.Fatalf("purchase service error: %v", err)
	}

	shipmentHandler, err := shipmenthttp.NewShipmentHandler(ledgerService, auditLogger)
	if err != nil {
		logger.Fatalf("shipment handler error: %v", err)
	}
	purchaseHandler, err := purchasehttp.NewPurchaseHandler(purchaseService, auditLogger)
	if err != nil {
		logger.Fatalf("purchase handler error: %v", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/api/v1/shipments", shipmentHandler)
	mux.Handle("/api/v1/shipments/", shipmentHandler)
	mux.Handle("/api/v1/catalog", purchaseHandler)
	mux.Handle("/api/v1/purchases", purchaseHandler)
	mux.Handle("/api/v1/exports/purchases.csv", purchaseHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	var handler http.Handler = mux
	if cfg.JWTSecret != "" {
		policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
		handler = auth.NewMiddleware([]byte(cfg.JWTSecret), policy).Wrap(mux)
	} else {
		logger.Printf("AUTH_JWT_SECRET not set, running without authentication")
	}

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(handler, logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	HTTPAddr            string
	DatabaseURL         string
	RedisAddr           string
	RedisPassword       string
	KafkaBroker         string
	KafkaTopic          string
	ChainGatewayURL     string
	ChainGatewayToken   string
	ChainConfirmTimeout time.Duration
	CatalogPath         string
	JWTSecret           string
	SeedDemoData        bool
	DemoWallet          string
}

func loadConfig() config {
	return config{
		HTTPAddr:            getenvDefault("HTTP_ADDR", ":8080"),
		DatabaseURL:         getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		RedisAddr:           getenvDefault("REDIS_ADDR", ""),
		RedisPassword:       getenvDefault("REDIS_PASSWORD", ""),
		KafkaBroker:         getenvDefault("KAFKA_BROKER", ""),
		KafkaTopic:          getenvDefault("KAFKA_TOPIC", "shipment.events"),
		ChainGatewayURL:     getenvDefault("CHAIN_GATEWAY_URL", ""),
		ChainGatewayToken:   getenvDefault("CHAIN_GATEWAY_TOKEN", ""),
		ChainConfirmTimeout: getenvDuration("CHAIN_CONFIRM_TIMEOUT", 30*time.Second),
		CatalogPath:         getenvDefault("CATALOG_PATH", ""),
		JWTSecret:           getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		SeedDemoData:        getenvBoolDefault("SEED_DEMO_DATA", false),
		DemoWallet:          getenvDefault("DEMO_WALLET", "0xA1C0FFEE00000000000000000000000000000000"),
	}
}

// seedDemoShipments loads the sample ledger entries used by local
// demos: one in transit, one delivered, one pending.
func seedDemoShipments(ctx context.Context, repo shipment.Repository, wallet string) error {
	now := time.Now().UTC()
	seeds := []*shipment.Shipment{
		{
			Sender:     wallet,
			Receiver:   "0x1234567890123456789012345678901234567890",
			PickupTime: now.Add(-48 * time.Hour),
			Distance:   150,
			Price:      "0.05",
			Status:     shipment.StatusInTransit,
			CreatedAt:  now.Add(-48 * time.Hour),
		},
		{
			Sender:       "0x9876543210987654321098765432109876543210",
			Receiver:     wallet,
			PickupTime:   now.Add(-72 * time.Hour),
			DeliveryTime: now.Add(-24 * time.Hour),
			Distance:     75,
			Price:        "0.02",
			Status:       shipment.StatusDelivered,
			IsPaid:       true,
			CreatedAt:    now.Add(-72 * time.Hour),
		},
		{
			Sender:     wallet,
			Receiver:   "0x5555555555555555555555555555555555555555",
			PickupTime: now.Add(-96 * time.Hour),
			Distance:   200,
			Price:      "0.07",
			Status:     shipment.StatusPending,
			CreatedAt:  now.Add(-96 * time.Hour),
		},
	}
	for _, seed := range seeds {
		if _, err := repo.Append(ctx, seed); err != nil {
			return err
		}
	}
	return nil
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
