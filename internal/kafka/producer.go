package kafka

import (
	"context"
	"encoding/json"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// TicketEvent is the message body published on ticket lifecycle changes.
type TicketEvent struct {
	Event    string `json:"event"`
	TicketID int64  `json:"ticket_id"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Actor    string `json:"actor,omitempty"`
}

// TicketEventProducer — интерфейс для отправки событий тикета в Kafka (для подмены моком в тестах).
type TicketEventProducer interface {
	ProduceTicketEvent(ctx context.Context, ev TicketEvent)
}

// Producer пишет события тикетов в топик Kafka (best-effort, не блокирует API).
type Producer struct {
	writer *kafka.Writer
	topic  string
}

// NewProducer создаёт продюсер. Если brokers пустой или topic пустой — методы no-op.
func NewProducer(brokers []string, topic string) *Producer {
	if len(brokers) == 0 || topic == "" {
		return &Producer{}
	}
	return &Producer{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{},
			BatchTimeout: 10 * time.Millisecond,
		},
	}
}

// ProduceTicketEvent отправляет событие тикета в топик. Messages are keyed by
// ticket id so all events for one ticket land on the same partition in order.
func (p *Producer) ProduceTicketEvent(ctx context.Context, ev TicketEvent) {
	if p.writer == nil {
		return
	}
	body, err := json.Marshal(ev)
	if err != nil {
		log.Printf("kafka: marshal ticket event: %v", err)
		return
	}
	msg := kafka.Message{
		Key:   []byte(strconv.FormatInt(ev.TicketID, 10)),
		Value: body,
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		log.Printf("kafka: write ticket event %s for ticket %d: %v", ev.Event, ev.TicketID, err)
	}
}

// Close закрывает writer.
func (p *Producer) Close() error {
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}

// ParseBrokers разбивает строку брокеров "host1:9092,host2:9092" на слайс.
func ParseBrokers(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
