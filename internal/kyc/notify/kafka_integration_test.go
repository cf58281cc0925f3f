//go:build integration

package notify_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	"kycore/internal/kyc/models"
	"kycore/internal/kyc/notify"
	"kycore/pkg/testutil/containers"
)

type KafkaNotifierSuite struct {
	suite.Suite
	kafka  *containers.KafkaContainer
	client *kgo.Client
}

func TestKafkaNotifierSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(KafkaNotifierSuite))
}

func (s *KafkaNotifierSuite) SetupSuite() {
	s.kafka = containers.GetManager().GetKafka(s.T())
	client, err := kgo.NewClient(kgo.SeedBrokers(s.kafka.Brokers...))
	s.Require().NoError(err)
	s.client = client
}

func (s *KafkaNotifierSuite) TearDownSuite() {
	if s.client != nil {
		s.client.Close()
	}
}

func (s *KafkaNotifierSuite) TestPublishesKeyedByReference() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	const topic = "kyc.notifications.it"
	admin := kadm.NewClient(s.client)
	s.Require().NoError(notify.EnsureTopic(ctx, admin, topic, 1, 1))
	s.Require().NoError(notify.EnsureTopic(ctx, admin, topic, 1, 1), "existing topic is not an error")

	sink := notify.NewKafkaNotifier(s.client, topic)
	n := models.Notification{
		Kind:       models.NotificationStarted,
		Owner:      models.OwnerRef{Type: "user", ID: "7"},
		Reference:  "SP_it_1",
		Driver:     "shuftipro",
		Status:     models.StatusInProgress,
		OccurredAt: time.Now().UTC().Truncate(time.Millisecond),
	}
	s.Require().NoError(sink.Notify(ctx, n))

	consumer, err := kgo.NewClient(
		kgo.SeedBrokers(s.kafka.Brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	s.Require().NoError(err)
	defer consumer.Close()

	fetches := consumer.PollFetches(ctx)
	s.Require().Empty(fetches.Errors())
	records := fetches.Records()
	s.Require().NotEmpty(records)

	s.Equal("SP_it_1", string(records[0].Key))
	var got models.Notification
	s.Require().NoError(json.Unmarshal(records[0].Value, &got))
	s.Equal(n.Kind, got.Kind)
	s.Equal(n.Owner, got.Owner)
	s.True(n.OccurredAt.Equal(got.OccurredAt))
}
