package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-order-payments.git/internal/auth"
	"github.com/ariefcatur/go-order-payments.git/internal/config"
	"github.com/ariefcatur/go-order-payments.git/internal/gateways"
	"github.com/ariefcatur/go-order-payments.git/internal/httpx"
	kafkax "github.com/ariefcatur/go-order-payments.git/internal/kafka"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/ariefcatur/go-order-payments.git/internal/postgres"
	"github.com/ariefcatur/go-order-payments.git/internal/redisx"
	"github.com/ariefcatur/go-order-payments.git/internal/workflow"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	prod := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderEvents, 1024)
	prod.Start(ctx)
	finProd := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicPaymentFinalized, 256)
	finProd.Start(ctx)

	store := &orders.Repo{DB: db}
	authSvc := &auth.Service{
		Store:     store,
		Secret:    []byte(cfg.JWTSecret),
		TokenTTL:  cfg.TokenTTL,
		Blocklist: redisx.Blocklist{RDB: rdb},
	}
	svc := &workflow.Service{
		Store:     store,
		Gateways:  gateways.Default(),
		Events:    prod,
		Finalized: finProd,
		Producer:  cfg.ServiceName,
	}

	router := httpx.NewRouter()
	(&httpx.AuthHandler{Auth: authSvc}).Register(router)
	(&httpx.OrdersHandler{Svc: svc, Auth: authSvc, Redis: rdb}).Register(router)
	(&httpx.PaymentsHandler{Svc: svc, Auth: authSvc}).Register(router)
	(&httpx.GatewaysHandler{Svc: svc, Auth: authSvc}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()
	finProd.Close()
	cancel()
	prod.WaitClosed()
	finProd.WaitClosed()
}
