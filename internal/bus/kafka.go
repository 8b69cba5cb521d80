package bus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kgo"

	id "sponsorhub/pkg/domain"
)

// envelope is the wire form of a domain event. The consumer rebuilds a
// RemoteEvent from it rather than the original tagged variant; downstream
// code only depends on the Event interface.
type envelope struct {
	Name           string    `json:"name"`
	TenantID       string    `json:"tenant_id"`
	EntityType     string    `json:"entity_type"`
	EntityID       string    `json:"entity_id"`
	ActorID        string    `json:"actor_id"`
	ActorRole      string    `json:"actor_role"`
	PreviousStatus string    `json:"previous_status,omitempty"`
	NewStatus      string    `json:"new_status,omitempty"`
	ReviewerNotes  string    `json:"reviewer_notes,omitempty"`
	OccurredAt     time.Time `json:"occurred_at"`
}

// RemoteEvent is an event decoded from the Kafka topic.
type RemoteEvent struct {
	name   string
	entity id.EntityRef
	meta   Meta
}

func (e RemoteEvent) Name() string         { return e.name }
func (e RemoteEvent) Key() string          { return e.entity.ID.String() }
func (e RemoteEvent) Entity() id.EntityRef { return e.entity }
func (e RemoteEvent) EventMeta() Meta      { return e.meta }

// KafkaPublisher mirrors published events onto a Kafka topic so other
// services can consume the same stream. It is a bus Subscriber, wired only
// when brokers are configured.
type KafkaPublisher struct {
	client *kgo.Client
	topic  string
	logger *slog.Logger
}

func NewKafkaPublisher(brokers []string, topic string, logger *slog.Logger) (*KafkaPublisher, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka producer: %w", err)
	}
	return &KafkaPublisher{client: client, topic: topic, logger: logger}, nil
}

// EnsureTopic creates the event topic if the cluster does not have it yet.
func (p *KafkaPublisher) EnsureTopic(ctx context.Context, partitions int32) error {
	adm := kadm.NewClient(p.client)
	_, err := adm.CreateTopic(ctx, partitions, 1, nil, p.topic)
	if err != nil {
		// Already-exists is fine: another instance won the race.
		existing, listErr := adm.ListTopics(ctx, p.topic)
		if listErr == nil && existing.Has(p.topic) {
			return nil
		}
		return fmt.Errorf("create topic %s: %w", p.topic, err)
	}
	return nil
}

func (p *KafkaPublisher) HandleEvent(ctx context.Context, event Event) error {
	meta := event.EventMeta()
	ref := event.Entity()
	payload, err := json.Marshal(envelope{
		Name:           event.Name(),
		TenantID:       meta.TenantID.String(),
		EntityType:     string(ref.Type),
		EntityID:       ref.ID.String(),
		ActorID:        meta.ActorID.String(),
		ActorRole:      string(meta.ActorRole),
		PreviousStatus: meta.PreviousStatus,
		NewStatus:      meta.NewStatus,
		ReviewerNotes:  meta.ReviewerNotes,
		OccurredAt:     meta.OccurredAt,
	})
	if err != nil {
		return fmt.Errorf("encode event %s: %w", event.Name(), err)
	}

	record := &kgo.Record{
		Topic: p.topic,
		Key:   []byte(event.Key()),
		Value: payload,
	}
	if err := p.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce event %s: %w", event.Name(), err)
	}
	return nil
}

func (p *KafkaPublisher) Close() {
	p.client.Close()
}

// KafkaConsumer feeds events from the topic into a Subscriber, typically the
// jobs producer in a deployment where mutations happen in another process.
type KafkaConsumer struct {
	client *kgo.Client
	sub    Subscriber
	logger *slog.Logger
}

func NewKafkaConsumer(brokers []string, topic, groupID string, sub Subscriber, logger *slog.Logger) (*KafkaConsumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumeTopics(topic),
		kgo.ConsumerGroup(groupID),
		kgo.ConsumeResetOffset(kgo.NewOffset().AtStart()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &KafkaConsumer{client: client, sub: sub, logger: logger}, nil
}

// Run polls until the context is cancelled. Undecodable records are logged
// and committed; redelivering them would never succeed.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	defer c.client.Close()
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.Error("kafka fetch error", "topic", topic, "partition", partition, "error", err)
		})
		fetches.EachRecord(func(record *kgo.Record) {
			event, err := decodeRecord(record)
			if err != nil {
				c.logger.Warn("skipping undecodable event record",
					"topic", record.Topic,
					"key", string(record.Key),
					"error", err,
				)
				return
			}
			if err := c.sub.HandleEvent(ctx, event); err != nil {
				c.logger.Error("event subscriber failed",
					"event", event.Name(),
					"key", event.Key(),
					"error", err,
				)
			}
		})
	}
}

func decodeRecord(record *kgo.Record) (Event, error) {
	var env envelope
	if err := json.Unmarshal(record.Value, &env); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	tenantID, err := id.ParseTenantID(env.TenantID)
	if err != nil {
		return nil, fmt.Errorf("tenant id: %w", err)
	}
	entityID, err := uuid.Parse(env.EntityID)
	if err != nil {
		return nil, fmt.Errorf("entity id: %w", err)
	}
	actorID, err := id.ParseUserID(env.ActorID)
	if err != nil {
		return nil, fmt.Errorf("actor id: %w", err)
	}
	return RemoteEvent{
		name:   env.Name,
		entity: id.EntityRef{Type: id.EntityType(env.EntityType), ID: entityID},
		meta: Meta{
			TenantID:       tenantID,
			ActorID:        actorID,
			ActorRole:      id.Role(env.ActorRole),
			PreviousStatus: env.PreviousStatus,
			NewStatus:      env.NewStatus,
			ReviewerNotes:  env.ReviewerNotes,
			OccurredAt:     env.OccurredAt,
		},
	}, nil
}
