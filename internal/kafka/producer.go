package kafka

import (
	"context"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	HeaderEventType    = "x-event-type"
	HeaderEventVersion = "x-event-version"
)

// Publisher is the fire-and-forget side of a topic producer.
type Publisher interface {
	Publish(key, value []byte, headers ...kafka.Header)
}

type writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	w        writer
	topic    string
	inbox    chan kafka.Message
	stopping chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	log      *slog.Logger
}

func NewProducer(brokers []string, topic string, buf int, log *slog.Logger) *Producer {
	return newProducer(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, topic, buf, log)
}

func newProducer(w writer, topic string, buf int, log *slog.Logger) *Producer {
	if log == nil {
		log = slog.Default()
	}
	return &Producer{
		w:        w,
		topic:    topic,
		inbox:    make(chan kafka.Message, buf),
		stopping: make(chan struct{}),
		done:     make(chan struct{}),
		log:      log.With("topic", topic),
	}
}

// Start runs the write loop until ctx is cancelled or Close is called.
// Buffered messages are flushed before the writer is closed.
func (p *Producer) Start(ctx context.Context) {
	go func() {
		defer close(p.done)
		for {
			select {
			case m := <-p.inbox:
				p.write(m)
			case <-ctx.Done():
				p.flush()
				return
			case <-p.stopping:
				p.flush()
				return
			}
		}
	}()
}

func (p *Producer) flush() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Warn("kafka writer close", "err", err)
			}
			return
		}
	}
}

func (p *Producer) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		p.log.Error("kafka publish failed", "key", string(m.Key), "err", err)
	}
}

// Publish enqueues a message. Messages published after Close are dropped.
func (p *Producer) Publish(key, value []byte, headers ...kafka.Header) {
	m := kafka.Message{
		Key:     key,
		Value:   value,
		Time:    time.Now(),
		Headers: headers,
	}
	select {
	case <-p.stopping:
		p.log.Warn("producer closed, dropping message", "key", string(key))
		return
	default:
	}
	select {
	case p.inbox <- m:
	case <-p.stopping:
		p.log.Warn("producer closed, dropping message", "key", string(key))
	}
}

// Close stops accepting messages; the loop flushes what is buffered and exits.
func (p *Producer) Close() { p.stopOnce.Do(func() { close(p.stopping) }) }

// WaitClosed blocks until the write loop has exited.
func (p *Producer) WaitClosed() { <-p.done }

// PublishEvent marshals v and publishes it with the event type/version headers.
func PublishEvent(p Publisher, key []byte, eventType string, version int, v any) {
	p.Publish(key, MustMarshal(v),
		kafka.Header{Key: HeaderEventType, Value: []byte(eventType)},
		kafka.Header{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(version))},
	)
}
