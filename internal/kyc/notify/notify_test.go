package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/mock/gomock"

	"kycore/internal/kyc/models"
	"kycore/internal/kyc/notify"
	"kycore/internal/kyc/notify/mocks"
	"kycore/pkg/platform/circuit"
	"kycore/pkg/requestcontext"
)

type fakeProducer struct {
	mu       sync.Mutex
	records  []*kgo.Record
	canceled []bool
	err      error
}

func (f *fakeProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.canceled = append(f.canceled, ctx.Err() != nil)
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		if f.err == nil {
			f.records = append(f.records, r)
		}
		results = append(results, kgo.ProduceResult{Record: r, Err: f.err})
	}
	return results
}

func (f *fakeProducer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.canceled)
}

func completed() models.Notification {
	return models.Notification{
		Kind:       models.NotificationCompleted,
		Owner:      models.OwnerRef{Type: "user", ID: "42"},
		Reference:  "SP_1700000000_abcd1234",
		Driver:     "shuftipro",
		Status:     models.StatusVerificationCompleted,
		Event:      models.EventCompleted,
		OccurredAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestKafkaNotifierEncoding(t *testing.T) {
	producer := &fakeProducer{}
	sink := notify.NewKafkaNotifier(producer, "kyc.notifications")

	ctx := requestcontext.WithRequestID(context.Background(), "req-1")
	require.NoError(t, sink.Notify(ctx, completed()))

	require.Len(t, producer.records, 1)
	rec := producer.records[0]
	assert.Equal(t, "kyc.notifications", rec.Topic)
	assert.Equal(t, "SP_1700000000_abcd1234", string(rec.Key))
	assert.Equal(t, completed().OccurredAt, rec.Timestamp)

	headers := map[string]string{}
	for _, h := range rec.Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, "verification.completed", headers["kind"])
	assert.Equal(t, "req-1", headers["request_id"])

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(rec.Value, &decoded))
	assert.Equal(t, "verification.completed", decoded["kind"])
	assert.Equal(t, "verification_completed", decoded["status"])
	assert.Equal(t, map[string]any{"type": "user", "id": "42"}, decoded["owner"])
}

func TestKafkaNotifierFallsBackWhenCircuitOpens(t *testing.T) {
	ctrl := gomock.NewController(t)
	fallback := mocks.NewMockNotifier(ctrl)

	producer := &fakeProducer{err: errors.New("broker down")}
	sink := notify.NewKafkaNotifier(producer, "kyc.notifications",
		notify.WithBreaker(circuit.New("kafka-notify", circuit.WithFailureThreshold(2))),
		notify.WithFallback(fallback),
	)
	ctx := context.Background()

	err := sink.Notify(ctx, completed())
	require.Error(t, err, "breaker still closed, error surfaces")

	fallback.EXPECT().Notify(gomock.Any(), completed()).Return(nil).Times(3)
	require.NoError(t, sink.Notify(ctx, completed()), "second failure opens the circuit")
	require.NoError(t, sink.Notify(ctx, completed()))
	require.NoError(t, sink.Notify(ctx, completed()))
	assert.Equal(t, 2, producer.callCount(), "open circuit routes around the producer")
}

// blockingProducer never completes a produce until its context ends.
type blockingProducer struct {
	mu    sync.Mutex
	calls int
}

func (b *blockingProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	b.mu.Lock()
	b.calls++
	b.mu.Unlock()

	<-ctx.Done()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: ctx.Err()})
	}
	return results
}

func TestKafkaNotifierBoundsPublish(t *testing.T) {
	producer := &blockingProducer{}
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	breaker := circuit.New("kafka-notify",
		circuit.WithFailureThreshold(2),
		circuit.WithCooldown(time.Minute),
		circuit.WithClock(func() time.Time { return now }),
	)
	sink := notify.NewKafkaNotifier(producer, "kyc.notifications",
		notify.WithBreaker(breaker),
		notify.WithPublishTimeout(50*time.Millisecond),
	)

	for i := 0; i < 2; i++ {
		start := time.Now()
		err := sink.Notify(context.Background(), completed())
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Less(t, time.Since(start), time.Second)
	}
	require.True(t, breaker.IsOpen())

	start := time.Now()
	err := sink.Notify(context.Background(), completed())
	assert.ErrorIs(t, err, notify.ErrCircuitOpen)
	assert.Less(t, time.Since(start), 50*time.Millisecond, "open circuit does not wait on the producer")
	assert.Equal(t, 2, producer.calls)

	now = now.Add(time.Minute)
	_ = sink.Notify(context.Background(), completed())
	assert.Equal(t, 3, producer.calls, "cooldown admits one trial call")
}

func TestKafkaNotifierOutlivesCanceledCaller(t *testing.T) {
	producer := &fakeProducer{}
	sink := notify.NewKafkaNotifier(producer, "kyc.notifications")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, sink.Notify(ctx, completed()))
	assert.Len(t, producer.records, 1)
	assert.Equal(t, []bool{false}, producer.canceled, "publish runs on its own deadline")
}

func TestFanOutDeliversToAllSinks(t *testing.T) {
	first := notify.NewRecorder()
	second := notify.NewRecorder()
	first.FailWith(errors.New("sink one down"))

	err := notify.FanOut{first, nil, second}.Notify(context.Background(), completed())
	require.Error(t, err)
	assert.Len(t, first.Notifications(), 1)
	assert.Len(t, second.Notifications(), 1)
	assert.Equal(t, []models.NotificationKind{models.NotificationCompleted}, second.Kinds())
}

func TestFuncAndDiscard(t *testing.T) {
	var got models.Notification
	f := notify.Func(func(_ context.Context, n models.Notification) error {
		got = n
		return nil
	})
	require.NoError(t, f.Notify(context.Background(), completed()))
	assert.Equal(t, completed(), got)
	assert.NoError(t, notify.Discard{}.Notify(context.Background(), completed()))
}
