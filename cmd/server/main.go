package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"orderpay/internal/config"
	"orderpay/internal/gateway"
	"orderpay/internal/handler"
	"orderpay/internal/infrastructure/cache"
	"orderpay/internal/infrastructure/database"
	"orderpay/internal/infrastructure/lock"
	"orderpay/internal/infrastructure/mq"
	"orderpay/internal/job"
	"orderpay/internal/logger"
	"orderpay/internal/repository"
	"orderpay/internal/service"
	"orderpay/pkg/idgen"

	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", envOr("CONFIG_PATH", "config/config.yaml"), "path to config file")
	flag.Parse()

	cfg := config.LoadConfig(*configPath)

	logger.Init(cfg.Log.Env)
	defer logger.Sync()
	log := logger.L()

	if err := idgen.Init(1); err != nil {
		log.Fatal("init id generator", zap.Error(err))
	}

	db, err := database.InitMySQL(&cfg.MySQL)
	if err != nil {
		log.Fatal("init mysql", zap.Error(err))
	}
	defer database.Close(db)

	redisClient, err := cache.InitRedis(&cfg.Redis)
	if err != nil {
		log.Fatal("init redis", zap.Error(err))
	}
	defer redisClient.Close()

	producer, err := mq.NewSyncProducer(&cfg.Kafka)
	if err != nil {
		log.Fatal("init kafka", zap.Error(err))
	}
	publisher := mq.NewPublisher(producer)
	defer publisher.Close()

	orderRepo := repository.NewOrderRepository(db)
	transactionRepo := repository.NewTransactionRepository(db)
	outboxRepo := repository.NewOutboxRepository(db)
	locker := lock.NewRedisLocker(redisClient,
		cfg.Business.LockTTL,
		cfg.Business.LockRetryInterval,
		cfg.Business.LockMaxRetries,
	)
	gw := gateway.NewRazorpayGateway(cfg.Razorpay)

	orderService := service.NewOrderService(orderRepo, gw, cfg)
	paymentService := service.NewPaymentService(
		repository.NewTxManager(db),
		orderRepo,
		transactionRepo,
		outboxRepo,
		locker,
		gw,
		cfg,
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	outboxSender := job.NewOutboxSender(outboxRepo, publisher, &cfg.Business)
	go outboxSender.Start(ctx)

	router := handler.SetupRouter(handler.NewHandler(orderService, paymentService), cfg)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.RequestTimeout,
		WriteTimeout: cfg.WriteTimeout(),
	}

	go func() {
		log.Info("http server listening", zap.Int("port", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("http server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info("shutting down", zap.String("signal", sig.String()))

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown", zap.Error(err))
	}

	log.Info("server stopped")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
