package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"kycore/internal/kyc/models"
	"kycore/internal/kyc/notify"
	"kycore/pkg/platform/circuit"
)

// stalledProducer behaves like a client whose brokers are unreachable: every
// produce waits until its context ends.
type stalledProducer struct {
	calls atomic.Int32
}

func (p *stalledProducer) ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults {
	p.calls.Add(1)
	<-ctx.Done()
	results := make(kgo.ProduceResults, 0, len(rs))
	for _, r := range rs {
		results = append(results, kgo.ProduceResult{Record: r, Err: ctx.Err()})
	}
	return results
}

func (s *ManagerSuite) TestKafkaOutageDoesNotHoldWebhooks() {
	producer := &stalledProducer{}
	s.notifier = notify.NewKafkaNotifier(producer, "kyc.notifications",
		notify.WithPublishTimeout(50*time.Millisecond),
		notify.WithBreaker(circuit.New("kafka-notify", circuit.WithFailureThreshold(2))),
		notify.WithFallback(s.sink),
	)
	s.build()

	for i := 0; i < 5; i++ {
		ref := fmt.Sprintf("ref-%d", i)
		s.seed(ref, models.StatusInProgress, "", 0)

		start := time.Now()
		_, err := s.webhook(map[string]any{"reference": ref, "event": "verification.accepted"})
		s.Require().NoError(err, "notification failures never fail the webhook")
		s.Less(time.Since(start), time.Second, "webhook %d waited on the broker", i)
		s.Equal(models.StatusVerificationCompleted, s.record(ref).Status)
	}

	s.Equal(int32(2), producer.calls.Load(), "open circuit skips the producer")
	s.Len(s.sink.Notifications(), 4, "notifications after the circuit opened go to the fallback")
}
