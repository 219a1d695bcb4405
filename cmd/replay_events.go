package cmd

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/psds-microservice/helpdesk-service/internal/config"
	"github.com/psds-microservice/helpdesk-service/internal/database"
	"github.com/psds-microservice/helpdesk-service/internal/kafka"
	"github.com/psds-microservice/helpdesk-service/internal/model"
	"github.com/spf13/cobra"
)

var replayEventsCmd = &cobra.Command{
	Use:   "replay-events",
	Short: "Republish all tickets to the Kafka topic for downstream consumers",
	RunE:  runReplayEvents,
}

func init() {
	rootCmd.AddCommand(replayEventsCmd)
}

func runReplayEvents(cmd *cobra.Command, args []string) error {
	_ = godotenv.Load(".env")
	_ = godotenv.Load("../.env")
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	brokers := kafka.ParseBrokers(cfg.KafkaBrokers)
	if len(brokers) == 0 || cfg.KafkaTopicTicket == "" {
		return fmt.Errorf("replay-events: KAFKA_BROKERS and KAFKA_TOPIC_TICKET must be set")
	}
	conn, err := database.Open(cfg.DSN())
	if err != nil {
		return fmt.Errorf("db: %w", err)
	}

	var tickets []model.Ticket
	if err := conn.Find(&tickets).Error; err != nil {
		return fmt.Errorf("list tickets: %w", err)
	}
	log.Printf("replay-events: found %d tickets", len(tickets))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	producer := kafka.NewProducer(brokers, cfg.KafkaTopicTicket)
	defer producer.Close()
	for i := range tickets {
		t := &tickets[i]
		producer.ProduceTicketEvent(ctx, kafka.TicketEvent{
			Event:    "ticket.status_updated",
			TicketID: int64(t.TicketID),
			Status:   string(t.Status),
			Priority: t.Priority,
			Subject:  t.Subject,
		})
		if (i+1)%50 == 0 || i == len(tickets)-1 {
			log.Printf("replay-events: sent %d/%d events", i+1, len(tickets))
		}
	}
	log.Printf("replay-events: done, sent %d events", len(tickets))
	return nil
}
