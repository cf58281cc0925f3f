package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycore/internal/kyc/models"
	"kycore/pkg/platform/circuit"
	"kycore/pkg/requestcontext"
)

const (
	headerKind      = "kind"
	headerRequestID = "request_id"
)

// Producer is the subset of *kgo.Client the sink needs.
type Producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// DefaultPublishTimeout bounds one publish when no WithPublishTimeout is given.
const DefaultPublishTimeout = 5 * time.Second

// ErrCircuitOpen is returned when the breaker is open and no fallback is configured.
var ErrCircuitOpen = errors.New("kafka notifier circuit open")

// KafkaNotifier publishes notifications as JSON records keyed by reference, so
// every event of one verification lands on the same partition in order.
//
// A publish never outlives the publish timeout, whatever the caller's context.
// After repeated failures the breaker opens and notifications go straight to the
// fallback sink without touching the producer until the cooldown admits a trial call.
type KafkaNotifier struct {
	producer Producer
	topic    string
	timeout  time.Duration
	breaker  *circuit.Breaker
	fallback Notifier
	logger   *slog.Logger
}

type KafkaOption func(*KafkaNotifier)

func WithFallback(n Notifier) KafkaOption {
	return func(k *KafkaNotifier) {
		k.fallback = n
	}
}

func WithBreaker(b *circuit.Breaker) KafkaOption {
	return func(k *KafkaNotifier) {
		k.breaker = b
	}
}

func WithKafkaLogger(logger *slog.Logger) KafkaOption {
	return func(k *KafkaNotifier) {
		k.logger = logger
	}
}

func WithPublishTimeout(d time.Duration) KafkaOption {
	return func(k *KafkaNotifier) {
		if d > 0 {
			k.timeout = d
		}
	}
}

func NewKafkaNotifier(producer Producer, topic string, opts ...KafkaOption) *KafkaNotifier {
	k := &KafkaNotifier{
		producer: producer,
		topic:    topic,
		timeout:  DefaultPublishTimeout,
		breaker:  circuit.New("kafka-notify"),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

func (k *KafkaNotifier) Notify(ctx context.Context, n models.Notification) error {
	rec, err := k.record(ctx, n)
	if err != nil {
		return err
	}
	if !k.breaker.Allow() {
		return k.routeAround(ctx, n, ErrCircuitOpen)
	}

	if err := k.publish(ctx, rec); err != nil {
		useFallback, change := k.breaker.RecordFailure()
		if change.Opened {
			k.logger.WarnContext(ctx, "kafka notifier circuit opened", "topic", k.topic, "error", err)
		}
		if useFallback {
			return k.routeAround(ctx, n, err)
		}
		return fmt.Errorf("publish notification %s: %w", n.Reference, err)
	}

	if _, change := k.breaker.RecordSuccess(); change.Closed {
		k.logger.InfoContext(ctx, "kafka notifier circuit closed", "topic", k.topic)
	}
	return nil
}

func (k *KafkaNotifier) publish(ctx context.Context, rec *kgo.Record) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), k.timeout)
	defer cancel()
	return k.producer.ProduceSync(ctx, rec).FirstErr()
}

func (k *KafkaNotifier) routeAround(ctx context.Context, n models.Notification, cause error) error {
	if k.fallback != nil {
		return k.fallback.Notify(ctx, n)
	}
	return fmt.Errorf("publish notification %s: %w", n.Reference, cause)
}

func (k *KafkaNotifier) record(ctx context.Context, n models.Notification) (*kgo.Record, error) {
	value, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("encode notification: %w", err)
	}
	rec := &kgo.Record{
		Topic:     k.topic,
		Key:       []byte(n.Reference),
		Value:     value,
		Timestamp: n.OccurredAt,
		Headers:   []kgo.RecordHeader{{Key: headerKind, Value: []byte(n.Kind)}},
	}
	if id := requestcontext.RequestID(ctx); id != "" {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: headerRequestID, Value: []byte(id)})
	}
	return rec, nil
}

// EnsureTopic creates topic if it does not exist yet.
func EnsureTopic(ctx context.Context, admin *kadm.Client, topic string, partitions int32, replication int16) error {
	resps, err := admin.CreateTopics(ctx, partitions, replication, nil, topic)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", topic, err)
	}
	for _, resp := range resps {
		if resp.Err != nil && !errors.Is(resp.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", resp.Topic, resp.Err)
		}
	}
	return nil
}
