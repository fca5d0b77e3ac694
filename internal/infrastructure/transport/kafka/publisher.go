// internal/infrastructure/transport/kafka/publisher.go
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"stars-subscription-bot/internal/core/domain/subscription"
	"github.com/IBM/sarama"
	"github.com/rs/zerolog"
)

// ProducerConfig настройки продюсера событий активации
type ProducerConfig struct {
	Brokers    []string
	Topic      string
	ClientID   string
	MaxRetries int // по умолчанию 5
	Logger     zerolog.Logger
}

func (c *ProducerConfig) validate() error {
	if len(c.Brokers) == 0 {
		return fmt.Errorf("no kafka brokers specified")
	}
	if c.Topic == "" {
		return fmt.Errorf("kafka topic is required")
	}
	if c.MaxRetries <= 0 {
		c.MaxRetries = 5
	}
	return nil
}

// ActivationPublisher публикует события активации подписок в Kafka
type ActivationPublisher struct {
	producer  sarama.SyncProducer
	topic     string
	logger    zerolog.Logger
	closeOnce sync.Once
	closeErr  error
}

// NewActivationPublisher создает синхронный продюсер
func NewActivationPublisher(cfg ProducerConfig) (*ActivationPublisher, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	config := sarama.NewConfig()
	if cfg.ClientID != "" {
		config.ClientID = cfg.ClientID
	}
	config.Producer.Return.Successes = true
	config.Producer.Return.Errors = true
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Idempotent = true
	config.Net.MaxOpenRequests = 1
	config.Producer.Retry.Max = cfg.MaxRetries
	// Ключ сообщения - telegram id, события одного пользователя идут в одну партицию
	config.Producer.Partitioner = sarama.NewHashPartitioner

	producer, err := sarama.NewSyncProducer(cfg.Brokers, config)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания kafka продюсера: %w", err)
	}

	cfg.Logger.Info().
		Str("topic", cfg.Topic).
		Strs("brokers", cfg.Brokers).
		Msg("kafka activation producer created")
	return NewActivationPublisherWithProducer(producer, cfg.Topic, cfg.Logger), nil
}

// NewActivationPublisherWithProducer оборачивает готовый продюсер
func NewActivationPublisherWithProducer(producer sarama.SyncProducer, topic string, log zerolog.Logger) *ActivationPublisher {
	return &ActivationPublisher{producer: producer, topic: topic, logger: log}
}

// PublishActivation отправляет событие активации
func (p *ActivationPublisher) PublishActivation(ctx context.Context, event subscription.ActivationEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("ошибка сериализации события активации: %w", err)
	}

	msg := &sarama.ProducerMessage{
		Topic: p.topic,
		Key:   sarama.StringEncoder(strconv.FormatInt(event.TelegramUserID, 10)),
		Value: sarama.ByteEncoder(payload),
		Headers: []sarama.RecordHeader{
			{Key: []byte("event_type"), Value: []byte("subscription.activated")},
			{Key: []byte("transaction_id"), Value: []byte(event.TransactionID)},
		},
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		p.logger.Error().Err(err).
			Str("transaction_id", event.TransactionID).
			Int64("user_id", event.TelegramUserID).
			Str("plan", event.Plan).
			Msg("failed to publish activation event")
		return fmt.Errorf("ошибка отправки события активации %s: %w", event.TransactionID, err)
	}

	p.logger.Debug().
		Str("transaction_id", event.TransactionID).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("activation event published")
	return nil
}

// Close закрывает продюсер
func (p *ActivationPublisher) Close() error {
	p.closeOnce.Do(func() {
		p.closeErr = p.producer.Close()
	})
	return p.closeErr
}
