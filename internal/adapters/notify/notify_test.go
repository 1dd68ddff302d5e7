package notify

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/licores/internal/domain"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	b := NewBroker()
	a := b.Subscribe()
	c := b.Subscribe()
	require.Equal(t, 2, b.Subscribers())

	b.Notify(context.Background(), domain.TopicOrders)

	assert.Equal(t, domain.TopicOrders, <-a)
	assert.Equal(t, domain.TopicOrders, <-c)

	b.Unsubscribe(a)
	b.Unsubscribe(a)
	assert.Equal(t, 1, b.Subscribers())
	_, open := <-a
	assert.False(t, open)
}

func TestBrokerDropsWhenSubscriberIsFull(t *testing.T) {
	b := NewBroker()
	ch := b.Subscribe()
	done := make(chan struct{})
	go func() {
		for i := 0; i < 100; i++ {
			b.Notify(context.Background(), domain.TopicProducts)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Notify quedó bloqueado")
	}
	assert.Len(t, ch, cap(ch))
}

type recorder struct {
	mu     sync.Mutex
	topics []string
}

func (r *recorder) Notify(_ context.Context, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.topics = append(r.topics, topic)
}

func TestMultiFansOut(t *testing.T) {
	r1, r2 := &recorder{}, &recorder{}
	m := Multi{r1, nil, Log{}, r2}
	m.Notify(context.Background(), domain.TopicInvoices)
	assert.Equal(t, []string{domain.TopicInvoices}, r1.topics)
	assert.Equal(t, []string{domain.TopicInvoices}, r2.topics)
}

type fakeWriter struct {
	mu     sync.Mutex
	msgs   []kafka.Message
	err    error
	closed bool
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, msgs...)
	return f.err
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaPublishesTopicEvent(t *testing.T) {
	w := &fakeWriter{}
	k := &Kafka{writer: w, timeout: time.Second}

	k.Notify(context.Background(), domain.TopicOrders)
	require.NoError(t, k.Close())

	require.Len(t, w.msgs, 1)
	assert.Equal(t, []byte(domain.TopicOrders), w.msgs[0].Key)
	var ev event
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &ev))
	assert.Equal(t, domain.TopicOrders, ev.Topic)
	assert.NotEmpty(t, ev.ID)
	assert.True(t, w.closed)
}

func TestKafkaErrorsAreSwallowed(t *testing.T) {
	w := &fakeWriter{err: errors.New("broker caído")}
	k := &Kafka{writer: w, timeout: time.Second}
	assert.NotPanics(t, func() { k.Notify(context.Background(), domain.TopicProducts) })
	require.NoError(t, k.Close())
	assert.Len(t, w.msgs, 1)
}
