package notify

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/licores/internal/domain"
)

// Broker reparte los topics a los suscriptores en proceso (stream SSE).
// Un suscriptor lento pierde eventos en vez de frenar al que publica.
type Broker struct {
	mu   sync.Mutex
	subs map[chan string]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: map[chan string]struct{}{}}
}

func (b *Broker) Subscribe() chan string {
	ch := make(chan string, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(ch chan string) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

func (b *Broker) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broker) Notify(_ context.Context, topic string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs {
		select {
		case ch <- topic:
		default:
		}
	}
}

// Log deja constancia de cada cambio en el log.
type Log struct{}

func (Log) Notify(_ context.Context, topic string) {
	log.Debug().Str("topic", topic).Msg("cambio notificado")
}

// Multi reenvía a varios notificadores en orden.
type Multi []domain.Notifier

func (m Multi) Notify(ctx context.Context, topic string) {
	for _, n := range m {
		if n != nil {
			n.Notify(ctx, topic)
		}
	}
}
