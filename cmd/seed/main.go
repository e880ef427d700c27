// Command seed loads a JSON product catalog for one tenant into the
// configured store.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"oeo-pos/internal/cache"
	"oeo-pos/internal/config"
	"oeo-pos/internal/domain"
	"oeo-pos/internal/logger"
	"oeo-pos/internal/server"
	"oeo-pos/internal/service"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	var (
		tenantFlag = flag.String("tenant", "", "tenant to import into (defaults to TENANT_DEFAULT)")
		fileFlag   = flag.String("file", "catalog.json", "path to a JSON array of products")
	)
	flag.Parse()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	tenant := cfg.Tenant.Default
	if *tenantFlag != "" {
		if tenant, err = domain.ParseTenant(*tenantFlag); err != nil {
			log.Fatal("Invalid tenant", zap.Error(err))
		}
	}

	f, err := os.Open(*fileFlag)
	if err != nil {
		log.Fatal("Failed to open catalog file", zap.String("file", *fileFlag), zap.Error(err))
	}
	defer f.Close()

	products, err := parseCatalog(f, tenant)
	if err != nil {
		log.Fatal("Failed to parse catalog", zap.Error(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store, err := server.OpenStore(ctx, cfg, log)
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}
	defer store.Close(context.Background())

	var catalogCache cache.CatalogCache = cache.NoopCache{}
	if cfg.Redis.Enabled() {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		catalogCache = cache.NewRedisCache(client, cfg.POS.CatalogCacheTTL)
	}

	catalog := service.NewCatalogService(store.Products, store.Tx, catalogCache, nil, log)

	count, err := catalog.ImportProducts(ctx, tenant, products)
	if err != nil {
		log.Fatal("Failed to import catalog", zap.String("tenant", tenant.String()), zap.Error(err))
	}

	log.Info("Catalog imported",
		zap.String("tenant", tenant.String()),
		zap.Int("products", count),
		zap.String("store", cfg.Store.Driver),
	)
}
