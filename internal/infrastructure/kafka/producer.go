package kafka

import (
	"context"
	"encoding/json"
	"time"

	"github.com/DRSN-tech/products-api/internal/cfg"
	"github.com/DRSN-tech/products-api/internal/domain"
	"github.com/DRSN-tech/products-api/internal/usecase"
	"github.com/DRSN-tech/products-api/pkg/e"
	"github.com/DRSN-tech/products-api/pkg/logger"
	"github.com/google/uuid"
	"github.com/jimlawless/whereami"
	"github.com/segmentio/kafka-go"
)

const envelopeVersion = 1

// MessageWriter — подмножество *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Producer struct {
	writer  MessageWriter
	logger  logger.Logger
	service string
}

// Envelope: ключ сообщения равен ID продукта, порядок событий сохраняется в рамках продукта.
type Envelope struct {
	EventID      string          `json:"event_id"`
	EventType    string          `json:"event_type"`
	EventVersion int             `json:"event_version"`
	OccurredAt   time.Time       `json:"occurred_at"`
	Producer     string          `json:"producer"`
	ProductID    string          `json:"product_id"`
	Payload      json.RawMessage `json:"payload,omitempty"`
}

type productPayload struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Price       json.Number `json:"price"`
	Stock       int64       `json:"stock"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

func NewProducer(logger logger.Logger, cfg *cfg.KafkaCfg, service string) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchSize:    10,
		BatchTimeout: 50 * time.Millisecond,
		WriteTimeout: cfg.WriteTimeout,
	}

	return NewProducerWithWriter(writer, logger, service)
}

func NewProducerWithWriter(writer MessageWriter, logger logger.Logger, service string) *Producer {
	return &Producer{
		writer:  writer,
		logger:  logger,
		service: service,
	}
}

// PublishProductEvent синхронно пишет событие в топик.
func (p *Producer) PublishProductEvent(ctx context.Context, event *usecase.ProductEvent) error {
	value, err := p.marshalEnvelope(event)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.ProductID),
		Value: value,
		Headers: []kafka.Header{
			{Key: "x-event-type", Value: []byte(event.Type)},
		},
	}); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	p.logger.Debugf("published %s for product %s", event.Type, event.ProductID)
	return nil
}

func (p *Producer) Close(_ context.Context) error {
	return p.writer.Close()
}

func (p *Producer) marshalEnvelope(event *usecase.ProductEvent) ([]byte, error) {
	env := Envelope{
		EventID:      uuid.NewString(),
		EventType:    string(event.Type),
		EventVersion: envelopeVersion,
		OccurredAt:   event.OccurredAt.UTC(),
		Producer:     p.service,
		ProductID:    event.ProductID,
	}

	if event.Product != nil {
		payload, err := json.Marshal(toPayload(event.Product))
		if err != nil {
			return nil, err
		}
		env.Payload = payload
	}

	return json.Marshal(env)
}

func toPayload(p *domain.Product) productPayload {
	return productPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       json.Number(p.Price.String()),
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
