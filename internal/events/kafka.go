package events

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// ErrBufferFull is returned when the producer queue cannot take more events.
var ErrBufferFull = errors.New("event buffer full")

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka is an asynchronous producer. Publish enqueues; a single goroutine
// started by Start drains the queue into the writer. Messages are keyed by
// store id so one store's events stay ordered within a partition.
type Kafka struct {
	w     messageWriter
	log   zerolog.Logger
	inbox chan kafka.Message
	done  chan struct{}

	mu     sync.RWMutex
	closed bool
}

// NewKafka builds a producer for topic on brokers with a queue of buf events.
func NewKafka(brokers []string, topic string, buf int, log zerolog.Logger) *Kafka {
	return newKafka(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: 10 * time.Second,
	}, buf, log)
}

func newKafka(w messageWriter, buf int, log zerolog.Logger) *Kafka {
	if buf <= 0 {
		buf = 256
	}
	return &Kafka{
		w:     w,
		log:   log,
		inbox: make(chan kafka.Message, buf),
		done:  make(chan struct{}),
	}
}

// Start runs the drain loop until Close.
func (k *Kafka) Start() {
	go func() {
		defer close(k.done)
		for m := range k.inbox {
			if err := k.w.WriteMessages(context.Background(), m); err != nil {
				k.log.Warn().Err(err).Str("key", string(m.Key)).Msg("kafka write failed")
			}
		}
		if err := k.w.Close(); err != nil {
			k.log.Warn().Err(err).Msg("kafka writer close")
		}
	}()
}

// Publish enqueues e without waiting for the broker.
func (k *Kafka) Publish(ctx context.Context, e Event) error {
	b, err := e.marshal()
	if err != nil {
		return err
	}
	msg := kafka.Message{
		Key:   []byte(e.StoreID),
		Value: b,
		Time:  e.OccurredAt,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(e.Type)},
		},
	}

	k.mu.RLock()
	defer k.mu.RUnlock()
	if k.closed {
		return ErrClosed
	}
	select {
	case k.inbox <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return ErrBufferFull
	}
}

// Close stops accepting events, flushes the queue and waits for the writer.
// Start must have been called.
func (k *Kafka) Close() error {
	k.mu.Lock()
	if k.closed {
		k.mu.Unlock()
		return nil
	}
	k.closed = true
	close(k.inbox)
	k.mu.Unlock()

	<-k.done
	return nil
}
