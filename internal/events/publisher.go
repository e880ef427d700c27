package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"oeo-pos/internal/config"
	"oeo-pos/internal/domain"

	"github.com/segmentio/kafka-go"
)

const TypeReceiptIssued = "receipt.issued"

// ReceiptIssued is published once a checkout has committed
type ReceiptIssued struct {
	Type          string               `json:"type"`
	ReceiptID     string               `json:"receipt_id"`
	TenantID      domain.TenantID      `json:"tenant_id"`
	Total         string               `json:"total"`
	ItemCount     int                  `json:"item_count"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	IssuedAt      time.Time            `json:"issued_at"`
}

// Publisher announces receipts to downstream consumers
type Publisher interface {
	PublishReceiptIssued(ctx context.Context, receipt *domain.Receipt) error
	Close() error
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type KafkaPublisher struct {
	writer messageWriter
}

// NewPublisher returns a Kafka publisher, or a no-op one when no brokers are configured
func NewPublisher(cfg config.KafkaConfig) Publisher {
	if !cfg.Enabled() {
		return NoopPublisher{}
	}
	return NewKafkaPublisher(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.ReceiptTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireOne,
		BatchTimeout: 10 * time.Millisecond,
	})
}

func NewKafkaPublisher(writer messageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishReceiptIssued(ctx context.Context, receipt *domain.Receipt) error {
	msg, err := NewReceiptIssuedMessage(receipt)
	if err != nil {
		return err
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("failed to publish %s: %w", TypeReceiptIssued, err)
	}
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// NewReceiptIssuedMessage keys the message by tenant so one tenant's receipts stay ordered
func NewReceiptIssuedMessage(receipt *domain.Receipt) (kafka.Message, error) {
	items := 0
	for _, item := range receipt.Items {
		items += item.Quantity
	}

	data, err := json.Marshal(ReceiptIssued{
		Type:          TypeReceiptIssued,
		ReceiptID:     receipt.ReceiptID,
		TenantID:      receipt.TenantID,
		Total:         receipt.Total.StringFixed(2),
		ItemCount:     items,
		PaymentMethod: receipt.PaymentMethod,
		IssuedAt:      receipt.IssuedAt.UTC(),
	})
	if err != nil {
		return kafka.Message{}, fmt.Errorf("failed to marshal %s: %w", TypeReceiptIssued, err)
	}

	return kafka.Message{
		Key:   []byte(receipt.TenantID),
		Value: data,
		Time:  receipt.IssuedAt.UTC(),
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(TypeReceiptIssued)},
		},
	}, nil
}

type NoopPublisher struct{}

func (NoopPublisher) PublishReceiptIssued(context.Context, *domain.Receipt) error { return nil }

func (NoopPublisher) Close() error { return nil }
