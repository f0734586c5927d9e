package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"thriftshop/internal/cart"
	"thriftshop/internal/checkout"
	"thriftshop/internal/config"
	"thriftshop/internal/db"
	"thriftshop/internal/events"
	"thriftshop/internal/httpserver"
	"thriftshop/internal/payment"
	adminrepo "thriftshop/internal/repository/admin"
	orderrepo "thriftshop/internal/repository/order"
	productrepo "thriftshop/internal/repository/product"
	adminsvc "thriftshop/internal/service/admin"
	ordersvc "thriftshop/internal/service/order"
	productsvc "thriftshop/internal/service/product"
	"thriftshop/internal/session"
	"thriftshop/internal/storage"
)

func main() {
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
	carts := cart.NewManager(cart.NewRedisStorage(redisClient), logger)

	auth, err := session.NewFirebaseProvider(ctx, cfg.FirebaseProject)
	if err != nil {
		logger.Fatalf("init firebase auth: %v", err)
	}

	var images storage.ImageStore
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.GCSBucket)
		if err != nil {
			logger.Fatalf("init gcs: %v", err)
		}
		defer gcs.Close()
		images = gcs
	} else {
		logger.Printf("GCS_BUCKET not set, image uploads disabled")
	}

	var publisher events.Publisher
	if len(cfg.KafkaBrokers) > 0 {
		kafka, err := events.NewKafka(cfg.KafkaBrokers, cfg.OrderTopic, logger)
		if err != nil {
			logger.Fatalf("init kafka: %v", err)
		}
		defer kafka.Close()
		publisher = kafka
	} else {
		logger.Printf("KAFKA_BROKERS not set, order events disabled")
	}

	var razorpay *payment.Client
	if cfg.RazorpayKeyID != "" {
		razorpay = payment.NewClient(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	} else {
		logger.Printf("RAZORPAY_KEY_ID not set, payments run unsigned")
	}
	gateway := payment.NewWidgetGateway(razorpay, "Thrift Shop", logger)

	productRepo := productrepo.NewPostgres(dbpool, logger)
	orderRepo := orderrepo.NewPostgres(dbpool, logger)
	adminRepo := adminrepo.NewPostgres(dbpool, logger)

	productService := productsvc.New(productRepo, images)
	orderService := ordersvc.New(orderRepo)
	adminService := adminsvc.New(adminRepo, orderRepo)

	orchestrator := checkout.New(gateway, orderRepo, publisher, cfg.Currency, logger)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, dbpool, httpserver.Deps{
		Auth:        auth,
		Roles:       adminRepo,
		Carts:       carts,
		Checkout:    orchestrator,
		Gateway:     gateway,
		Products:    productService,
		Orders:      orderService,
		Admins:      adminService,
		CORSOrigins: cfg.CORSOrigins,
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
