package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wyfcoding/optionpricing/internal/pricing/domain"
	"github.com/wyfcoding/optionpricing/pkg/mq"
)

type sent struct {
	topic string
	msg   mq.Message
}

type fakeSender struct {
	sent []sent
	err  error
}

func (f *fakeSender) SendMessages(_ context.Context, topic string, messages ...mq.Message) error {
	for _, m := range messages {
		f.sent = append(f.sent, sent{topic, m})
	}
	return f.err
}

func TestPublishOptionPriced(t *testing.T) {
	sender := &fakeSender{}
	p := newKafkaEventPublisher(sender, "pricing.events")

	event := domain.OptionPricedEvent{Symbol: "AAPL", OptionPrice: 6.08, OccurredOn: time.Now()}
	require.NoError(t, p.PublishOptionPriced(context.Background(), event))

	require.Len(t, sender.sent, 1)
	got := sender.sent[0]
	assert.Equal(t, "pricing.events", got.topic)
	assert.Equal(t, "AAPL", got.msg.Key)
	assert.Equal(t, domain.OptionPricedEventType, got.msg.Headers["event_type"])
	assert.Equal(t, event, got.msg.Value)
}

func TestPublishBatchPricingCompleted(t *testing.T) {
	sender := &fakeSender{err: errors.New("broker unavailable")}
	p := newKafkaEventPublisher(sender, "pricing.events")

	err := p.PublishBatchPricingCompleted(context.Background(), domain.BatchPricingCompletedEvent{BatchID: "b-1"})
	assert.Error(t, err)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "b-1", sender.sent[0].msg.Key)
	assert.Equal(t, domain.BatchPricingCompletedEventType, sender.sent[0].msg.Headers["event_type"])
}
