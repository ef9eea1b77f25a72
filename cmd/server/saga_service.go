package main

import (
	"context"
	"database/sql"
	"log"
	"os"
	"strings"
	"time"

	"tradewind/cmd/server/config"
	kvdb "tradewind/internal/db/kv"
	ordersdb "tradewind/internal/db/orders"
	"tradewind/internal/kv"
	"tradewind/internal/observability"
	"tradewind/internal/orders"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

var openOrdersDB = func(driver, dsn string) (*sql.DB, error) {
	return sql.Open(driver, dsn)
}

// buildSagaService wires a SagaService from env. Redis backs the
// request/order mapping index and Postgres backs the order, payment, and
// inventory ports; either can be omitted, in which case the in-memory
// implementations are used. The returned cleanup closes external resources.
func buildSagaService(ctx context.Context, metrics *observability.Metrics, logf func(format string, args ...any)) (*orders.SagaService, func(), error) {
	if logf == nil {
		logf = log.Printf
	}

	closers := []func(){}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	mappingStore, closeRedis, err := buildMappingStore(ctx, logf)
	if err != nil {
		return nil, nil, err
	}
	if closeRedis != nil {
		closers = append(closers, closeRedis)
	}

	var (
		inventory orders.InventoryPort
		payments  orders.PaymentPort
		store     orders.OrderStore
	)

	dsn := strings.TrimSpace(os.Getenv("DATABASE_URL"))
	if dsn == "" {
		logf("DATABASE_URL not set, using in-memory order ports")
		inventory = orders.NewMemoryInventoryPort()
		payments = orders.NewMemoryPaymentPort()
		store = orders.NewMemoryOrderStore()
	} else {
		db, err := openOrdersDB("pgx", dsn)
		if err != nil {
			cleanup()
			return nil, nil, err
		}

		setupCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		paymentPort, err := ordersdb.NewPostgresPaymentPortWithSchema(setupCtx, db)
		if err == nil {
			var inventoryPort *ordersdb.PostgresInventoryPort
			inventoryPort, err = ordersdb.NewPostgresInventoryPortWithSchema(setupCtx, db)
			if err == nil {
				var orderStore *ordersdb.PostgresOrderStore
				orderStore, err = ordersdb.NewPostgresOrderStoreWithSchema(setupCtx, db)
				if err == nil {
					inventory = inventoryPort
					payments = paymentPort
					store = orderStore
				}
			}
		}
		if err != nil {
			_ = db.Close()
			cleanup()
			return nil, nil, err
		}

		logf("postgres order ports enabled")
		closers = append(closers, func() {
			if err := db.Close(); err != nil {
				logf("close postgres: %v", err)
			}
		})
	}

	if strings.TrimSpace(os.Getenv("ORDER_RETRY_MAX_ATTEMPTS")) != "" {
		relCfg, err := orders.LoadReliabilityConfigFromEnv()
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		inventory = orders.NewReliableInventoryPort(inventory, relCfg.Guard(metrics.RecordCall))
		payments = orders.NewReliablePaymentPort(payments, relCfg.Guard(metrics.RecordCall))
	} else {
		logf("ORDER_RETRY_MAX_ATTEMPTS not set, reliability guards disabled")
	}

	service := orders.NewSagaService(
		orders.UUIDGenerator{},
		inventory,
		payments,
		store,
		orders.NewMappingIndex(mappingStore, logf),
		logf,
	)
	return service, cleanup, nil
}

func buildMappingStore(ctx context.Context, logf func(format string, args ...any)) (kv.Store, func(), error) {
	if strings.TrimSpace(os.Getenv("REDIS_URL")) == "" {
		logf("REDIS_URL not set, using in-memory mapping store")
		return kv.NewMemory(), nil, nil
	}

	cfg, err := config.LoadRedis()
	if err != nil {
		return nil, nil, err
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, nil, err
	}
	if cfg.DialTimeout != nil {
		opts.DialTimeout = *cfg.DialTimeout
	}
	if cfg.ReadTimeout != nil {
		opts.ReadTimeout = *cfg.ReadTimeout
	}
	if cfg.WriteTimeout != nil {
		opts.WriteTimeout = *cfg.WriteTimeout
	}
	if cfg.PoolSize != nil {
		opts.PoolSize = *cfg.PoolSize
	}
	if cfg.MinIdleConns != nil {
		opts.MinIdleConns = *cfg.MinIdleConns
	}
	if cfg.MaxRetries != nil {
		opts.MaxRetries = *cfg.MaxRetries
	}
	if cfg.TLSConfig != nil {
		opts.TLSConfig = cfg.TLSConfig
	}

	client := redis.NewClient(opts)
	if cfg.EnableOTel {
		if err := redisotel.InstrumentTracing(client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
		if err := redisotel.InstrumentMetrics(client); err != nil {
			_ = client.Close()
			return nil, nil, err
		}
	}

	pingCtx := ctx
	if pingCtx == nil {
		pingCtx = context.Background()
	}
	if cfg.HealthcheckTimeout > 0 {
		var cancel context.CancelFunc
		pingCtx, cancel = context.WithTimeout(pingCtx, cfg.HealthcheckTimeout)
		defer cancel()
	}
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, err
	}

	closeRedis := func() {
		if err := client.Close(); err != nil {
			logf("close redis: %v", err)
		}
	}
	return kvdb.NewRedisStore(client, cfg.KeyPrefix, cfg.MappingTTL), closeRedis, nil
}
