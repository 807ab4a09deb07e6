package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"ecommerce-backend/internal/cache"
	"ecommerce-backend/internal/config"
	"ecommerce-backend/internal/db"
	"ecommerce-backend/internal/httpserver"
	"ecommerce-backend/internal/lock"
	"ecommerce-backend/internal/payment"
	accountrepo "ecommerce-backend/internal/repository/account"
	basketrepo "ecommerce-backend/internal/repository/basket"
	orderrepo "ecommerce-backend/internal/repository/order"
	productrepo "ecommerce-backend/internal/repository/product"
	basketsvc "ecommerce-backend/internal/service/basket"
	checkoutsvc "ecommerce-backend/internal/service/checkout"
	ordersvc "ecommerce-backend/internal/service/order"
	productsvc "ecommerce-backend/internal/service/product"
	"ecommerce-backend/internal/stock"
	"ecommerce-backend/internal/txn"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	cacheStore := cache.NewRedis(redisClient, cfg.CacheTTL, logger)

	var locks lock.Coordinator
	switch cfg.LockBackend {
	case "redis":
		locks = lock.NewRedis(redisClient, cfg.LeaseTTL, logger)
	default:
		locks = lock.NewMemory(cfg.LeaseTTL, logger)
	}

	accountRepo := accountrepo.NewPostgres(dbpool, logger)
	productRepo := productrepo.NewPostgres(dbpool, logger)
	basketRepo := basketrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)

	txCoordinator := txn.NewPgx(dbpool, logger)
	ledger := stock.NewLedger(logger)
	gateway := payment.NewSandbox(logger)

	productService := productsvc.New(productRepo, cacheStore, logger)
	basketService := basketsvc.New(basketRepo, productRepo, locks, cacheStore, logger)
	orderService := ordersvc.New(orderRepo, cacheStore, logger)
	checkoutService := checkoutsvc.New(
		basketRepo,
		accountRepo,
		orderRepo,
		ledger,
		locks,
		txCoordinator,
		gateway,
		cacheStore,
		cfg.CheckoutWait,
		logger,
	)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		ProductSvc:  productService,
		BasketSvc:   basketService,
		CheckoutSvc: checkoutService,
		OrderSvc:    orderService,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
