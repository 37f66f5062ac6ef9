package kafka

import (
	"context"
	"log"
	"sync"

	"github.com/segmentio/kafka-go"
)

// Producer buffers messages in an inbox channel and writes them from a
// single loop, so request handlers never block on the broker.
type Producer struct {
	w         *kafka.Writer
	inbox     chan kafka.Message
	closeCh   chan struct{}
	closeOnce sync.Once
}

func NewProducer(brokers []string, topic string, buf int) *Producer {
	return &Producer{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			RequiredAcks: kafka.RequireAll,
			Async:        true,
		},
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
	}
}

func (p *Producer) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m, ok := <-p.inbox:
				if !ok {
					p.flushAndClose()
					return
				}
				if err := p.w.WriteMessages(ctx, m); err != nil {
					log.Printf("kafka produce: %v", err)
				}
			}
		}
	}()
}

// Publish enqueues a message; drops with a log line when the inbox is full
// rather than stalling the caller.
func (p *Producer) Publish(key, value []byte) {
	select {
	case p.inbox <- kafka.Message{Key: key, Value: value}:
	default:
		log.Printf("kafka produce: inbox full, dropping message key=%s", key)
	}
}

func (p *Producer) Close() { p.closeOnce.Do(func() { close(p.inbox) }) }

func (p *Producer) WaitClosed() { <-p.closeCh }

func (p *Producer) drain() {
	p.Close()
	p.flushAndClose()
}

func (p *Producer) flushAndClose() {
	for m := range p.inbox {
		_ = p.w.WriteMessages(context.Background(), m)
	}
	_ = p.w.Close()
	close(p.closeCh)
}
