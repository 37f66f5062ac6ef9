// notifier consumes finalized-payment events and materializes a receipt per
// order into Redis, so checkout frontends can poll a cheap key instead of
// the API.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-order-payments.git/internal/config"
	kafkax "github.com/ariefcatur/go-order-payments.git/internal/kafka"
	"github.com/ariefcatur/go-order-payments.git/internal/orders"
	"github.com/ariefcatur/go-order-payments.git/internal/redisx"
	"github.com/joho/godotenv"
	kafkago "github.com/segmentio/kafka-go"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, "payment-notifier", orders.TopicPaymentFinalized, 4)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		log.Println("shutting down...")
		cancel()
	}()

	err := cons.Start(ctx, func(ctx context.Context, m kafkago.Message) error {
		var env orders.Envelope
		if err := json.Unmarshal(m.Value, &env); err != nil {
			log.Printf("bad envelope, skipping: %v", err)
			return nil
		}
		if env.EventType != orders.EventPaymentFinalized {
			return nil
		}

		dedupKey := fmt.Sprintf(redisx.KeyDedup, "payment-notifier", env.EventID)
		seen, err := redisx.Seen(ctx, rdb, dedupKey, redisx.TTLDedup)
		if err != nil {
			return err
		}
		if seen {
			return nil
		}

		p, err := kafkax.UnwrapPayload[orders.PaymentFinalizedPayload](env.Payload)
		if err != nil {
			log.Printf("bad payload, skipping: %v", err)
			return nil
		}

		receipt := kafkax.MustMarshal(map[string]any{
			"payment_id": p.PaymentID,
			"status":     p.Status,
			"updated_at": env.OccurredAt,
		})
		key := fmt.Sprintf(redisx.KeyPaymentReceipt, p.OrderID)
		if err := rdb.Set(ctx, key, receipt, redisx.TTLReceipt).Err(); err != nil {
			return err
		}
		log.Printf("receipt cached order=%s status=%s", p.OrderID, p.Status)
		return nil
	})
	if err != nil {
		log.Fatalf("consumer: %v", err)
	}
}
