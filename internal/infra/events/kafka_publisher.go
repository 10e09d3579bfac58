package events

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"storefront/internal/domain/model"

	"github.com/segmentio/kafka-go"
)

const EventTypeOrderStatusChanged = "OrderStatusChanged"

// kafka.Writer の WriteMessages だけを使う
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// 注文ステータス変更を Kafka に流す。キーは注文番号（同じ注文の順序を保つ）。
type KafkaPublisher struct {
	writer messageWriter
}

func NewKafkaPublisher(brokersCSV string, topic string) *KafkaPublisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(SplitBrokers(brokersCSV)...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
	return &KafkaPublisher{writer: w}
}

func (p *KafkaPublisher) PublishOrderStatusChanged(ctx context.Context, ev model.OrderStatusChanged) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(ev.OrderID),
		Value: data,
		Time:  time.Now().UTC(),
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(EventTypeOrderStatusChanged)},
		},
	})
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

// KAFKA_BROKERS 未設定時に使う
type NopPublisher struct{}

func (NopPublisher) PublishOrderStatusChanged(context.Context, model.OrderStatusChanged) error {
	return nil
}

func (NopPublisher) Close() error { return nil }

func SplitBrokers(csv string) []string {
	brokers := []string{}
	for _, b := range strings.Split(csv, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}
