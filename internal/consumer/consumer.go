package consumer

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/segmentio/kafka-go"

	"github.com/JOHNINFA/crm-fabrica-sub005/internal/entity"
	"github.com/JOHNINFA/crm-fabrica-sub005/internal/service"
)

// Consumer drops stored drafts when the POS backend announces that another
// client changed a route load, so the next load re-reads the backend.
type Consumer struct {
	draftSvc *service.DraftService
	brokers  []string
}

func NewConsumer(draftSvc *service.DraftService, brokers []string) *Consumer {
	return &Consumer{draftSvc: draftSvc, brokers: brokers}
}

// StartKafkaConsumer starts a Kafka consumer to listen for route-load events
func (c *Consumer) StartKafkaConsumer() {
	cargueReader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  c.brokers,
		Topic:    "cargue-topic",
		GroupID:  "draft-service-group",
		MinBytes: 10e3, // 10KB
		MaxBytes: 10e6, // 10MB
	})

	for {
		ctx := context.Background()
		msg, err := cargueReader.ReadMessage(ctx)
		if err != nil {
			log.Error().Msgf("Error reading message: %v", err)
			continue
		}

		c.processMessage(ctx, msg)
	}
}

// processMessage processes one route-load event from the POS backend
func (c *Consumer) processMessage(ctx context.Context, msg kafka.Message) {
	// key -> "cargue.updated.vendorID"
	parts := strings.Split(string(msg.Key), ".")
	if len(parts) < 3 {
		log.Error().Msgf("Unknown event key: %s", msg.Key)
		return
	}
	eventType, vendorID := parts[1], parts[2]

	var event struct {
		Kind string `json:"kind"`
		Date string `json:"date"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		log.Error().Msgf("Error unmarshalling message: %v", err)
		return
	}
	if event.Kind == "" {
		event.Kind = entity.KindRoute
	}

	switch eventType {
	case "updated":
		prefix := entity.KeyPrefix(event.Kind, vendorID)
		if event.Date != "" {
			date, err := entity.ParseDate(event.Date)
			if err != nil {
				log.Error().Msgf("Bad date in event for vendor %s: %v", vendorID, err)
				return
			}
			prefix = entity.NewDraftKey(event.Kind, vendorID, date).String()
		}

		removed, err := c.draftSvc.Purge(ctx, prefix)
		if err != nil {
			log.Error().Msgf("Error purging drafts for vendor %s: %v", vendorID, err)
			return
		}
		log.Info().Msgf("Purged %d drafts for vendor %s", removed, vendorID)
	default:
		log.Error().Msgf("Unknown cargue event: %s", eventType)
	}
}
