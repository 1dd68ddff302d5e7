package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"
)

type event struct {
	ID    string    `json:"id"`
	Topic string    `json:"topic"`
	At    time.Time `json:"at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Kafka publica cada cambio como mensaje JSON. El envío corre en segundo plano y
// los errores sólo se registran.
type Kafka struct {
	writer  messageWriter
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewKafka(brokers []string, topic string) *Kafka {
	return &Kafka{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(brokers...),
			Topic:                  topic,
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
		},
		timeout: 5 * time.Second,
	}
}

func (k *Kafka) Notify(_ context.Context, topic string) {
	data, err := json.Marshal(event{ID: uuid.NewString(), Topic: topic, At: time.Now().UTC()})
	if err != nil {
		log.Error().Err(err).Msg("codificar evento")
		return
	}
	msg := kafka.Message{Key: []byte(topic), Value: data}
	k.wg.Add(1)
	go func() {
		defer k.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), k.timeout)
		defer cancel()
		if err := k.writer.WriteMessages(ctx, msg); err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("no se pudo publicar en kafka")
		}
	}()
}

// Close espera los envíos pendientes y cierra el writer.
func (k *Kafka) Close() error {
	k.wg.Wait()
	return k.writer.Close()
}
