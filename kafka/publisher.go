package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/IBM/sarama"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/seytkalikov/stock-ledger/internal/ledger/domain"
	"github.com/seytkalikov/stock-ledger/pkg/logger"
)

// Publisher wraps a Kafka sync producer and emits stock movement events.
type Publisher struct {
	producer sarama.SyncProducer
	brokers  []string
}

// NewPublisher creates a new Kafka publisher
func NewPublisher(brokers []string) (*Publisher, error) {
	config := sarama.NewConfig()
	config.Producer.Return.Successes = true
	config.Producer.Retry.Max = 3
	config.Producer.RequiredAcks = sarama.WaitForAll
	config.Producer.Compression = sarama.CompressionSnappy

	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka producer: %w", err)
	}

	logger.Logger.Info().
		Strs("brokers", brokers).
		Msg("Kafka publisher initialized")

	return &Publisher{producer: producer, brokers: brokers}, nil
}

// StockDeducted publishes a stock.deducted event. Best-effort: failures are
// logged, never propagated into the deduction result.
func (p *Publisher) StockDeducted(ctx context.Context, ref domain.Reference, result domain.DeductionResult) {
	p.publish(ctx, StockMovementEvent{
		EventType:     EventTypeStockDeducted,
		ReferenceType: string(ref.Type),
		ReferenceID:   ref.ID,
		Deducted:      result.Deducted,
		Skipped:       result.Skipped,
	})
}

// StockReceived publishes a stock.received event.
func (p *Publisher) StockReceived(ctx context.Context, ref domain.Reference, quantity int) {
	p.publish(ctx, StockMovementEvent{
		EventType:     EventTypeStockReceived,
		ReferenceType: string(ref.Type),
		ReferenceID:   ref.ID,
		Quantity:      quantity,
	})
}

func (p *Publisher) publish(ctx context.Context, event StockMovementEvent) {
	tracer := otel.Tracer("kafka-publisher")
	ctx, span := tracer.Start(ctx, "kafka.publish.stock_movement",
		trace.WithSpanKind(trace.SpanKindProducer),
		trace.WithAttributes(
			attribute.String("messaging.system", "kafka"),
			attribute.String("messaging.destination", TopicStockMovements),
			attribute.String("messaging.destination_kind", "topic"),
			attribute.String("event.type", event.EventType),
			attribute.String("movement.reference_type", event.ReferenceType),
			attribute.Int64("movement.reference_id", int64(event.ReferenceID)),
		),
	)
	defer span.End()

	event.EventID = uuid.NewString()
	event.Timestamp = time.Now()
	span.SetAttributes(attribute.String("event.id", event.EventID))

	eventBytes, err := json.Marshal(event)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to marshal event")
		logger.Error(ctx).Err(err).Msg("Failed to marshal stock movement event")
		return
	}

	// Inject trace context into Kafka headers.
	carrier := propagation.MapCarrier{}
	otel.GetTextMapPropagator().Inject(ctx, carrier)

	headers := []sarama.RecordHeader{
		{Key: []byte("event_type"), Value: []byte(event.EventType)},
		{Key: []byte("event_id"), Value: []byte(event.EventID)},
	}
	for key, value := range carrier {
		headers = append(headers, sarama.RecordHeader{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}

	msg := &sarama.ProducerMessage{
		Topic:   TopicStockMovements,
		Key:     sarama.StringEncoder(fmt.Sprintf("%s_%d", event.ReferenceType, event.ReferenceID)),
		Value:   sarama.ByteEncoder(eventBytes),
		Headers: headers,
	}

	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to send message")
		logger.Error(ctx).
			Err(err).
			Str("topic", TopicStockMovements).
			Str("event_type", event.EventType).
			Msg("Failed to publish stock movement event")
		return
	}

	span.SetAttributes(
		attribute.Int("messaging.kafka.partition", int(partition)),
		attribute.Int64("messaging.kafka.offset", offset),
	)
	span.SetStatus(codes.Ok, "Event published")

	logger.Info(ctx).
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Str("topic", TopicStockMovements).
		Int32("partition", partition).
		Int64("offset", offset).
		Msg("Stock movement event published")
}

// Close closes the Kafka producer
func (p *Publisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
