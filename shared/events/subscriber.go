package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Handler func(ctx context.Context, event Event) error

// DeadLetterSuffix is appended to a stream name to form the stream that
// receives messages whose handler kept failing.
const DeadLetterSuffix = ".dead"

// Subscriber consumes one stream as a member of a consumer group. Messages
// whose handler fails stay pending and are retried on the next poll until
// MaxAttempts is reached, after which they move to the dead-letter stream.
type Subscriber struct {
	client        *redis.Client
	group         string
	consumer      string
	stream        string
	handler       Handler
	batchSize     int64
	blockDuration time.Duration
	maxAttempts   int
	attempts      map[string]int
}

type SubscriberConfig struct {
	Group         string
	Consumer      string
	Stream        string
	Handler       Handler
	BatchSize     int64
	BlockDuration time.Duration
	MaxAttempts   int
}

func NewSubscriber(client *redis.Client, config SubscriberConfig) *Subscriber {
	if config.BatchSize == 0 {
		config.BatchSize = 10
	}
	if config.BlockDuration == 0 {
		config.BlockDuration = 5 * time.Second
	}
	if config.MaxAttempts == 0 {
		config.MaxAttempts = 5
	}
	return &Subscriber{
		client:        client,
		group:         config.Group,
		consumer:      config.Consumer,
		stream:        config.Stream,
		handler:       config.Handler,
		batchSize:     config.BatchSize,
		blockDuration: config.BlockDuration,
		maxAttempts:   config.MaxAttempts,
		attempts:      make(map[string]int),
	}
}

// Start blocks, consuming the stream until ctx is cancelled.
func (s *Subscriber) Start(ctx context.Context) error {
	if err := s.ensureGroup(ctx); err != nil {
		return err
	}
	log.Printf("Subscriber started: stream=%s, group=%s, consumer=%s", s.stream, s.group, s.consumer)

	for ctx.Err() == nil {
		if _, err := s.Poll(ctx); err != nil && ctx.Err() == nil {
			log.Printf("Subscriber %s: %v", s.stream, err)
			time.Sleep(time.Second)
		}
	}
	log.Printf("Subscriber stopping: %s", s.stream)
	return ctx.Err()
}

func (s *Subscriber) ensureGroup(ctx context.Context) error {
	err := s.client.XGroupCreateMkStream(ctx, s.stream, s.group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("failed to create consumer group: %w", err)
	}
	return nil
}

// Poll first retries this consumer's pending messages, then waits up to the
// block duration for new ones. It returns how many messages were
// acknowledged, dead-lettered ones included.
func (s *Subscriber) Poll(ctx context.Context) (int, error) {
	retried, err := s.read(ctx, "0", -1)
	if err != nil {
		return retried, err
	}
	fresh, err := s.read(ctx, ">", s.blockDuration)
	return retried + fresh, err
}

func (s *Subscriber) read(ctx context.Context, from string, block time.Duration) (int, error) {
	streams, err := s.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    s.group,
		Consumer: s.consumer,
		Streams:  []string{s.stream, from},
		Count:    s.batchSize,
		Block:    block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream: %w", err)
	}

	acked := 0
	for _, stream := range streams {
		for _, message := range stream.Messages {
			if s.handle(ctx, message) {
				acked++
			}
		}
	}
	return acked, nil
}

// handle reports whether the message was acknowledged.
func (s *Subscriber) handle(ctx context.Context, message redis.XMessage) bool {
	err := s.dispatch(ctx, message)
	if err != nil {
		s.attempts[message.ID]++
		if s.attempts[message.ID] < s.maxAttempts {
			log.Printf("Failed to process message %s (attempt %d/%d): %v",
				message.ID, s.attempts[message.ID], s.maxAttempts, err)
			return false
		}
		if dlErr := s.deadLetter(ctx, message, err); dlErr != nil {
			log.Printf("Failed to dead-letter message %s: %v", message.ID, dlErr)
			return false
		}
		log.Printf("Message %s moved to %s after %d attempts: %v", message.ID, s.stream+DeadLetterSuffix, s.maxAttempts, err)
	}

	if err := s.client.XAck(ctx, s.stream, s.group, message.ID).Err(); err != nil {
		log.Printf("Failed to ACK message %s: %v", message.ID, err)
		return false
	}
	delete(s.attempts, message.ID)
	return true
}

func (s *Subscriber) dispatch(ctx context.Context, message redis.XMessage) error {
	raw, ok := message.Values["event"].(string)
	if !ok {
		return fmt.Errorf("message has no event field")
	}
	var event Event
	if err := json.Unmarshal([]byte(raw), &event); err != nil {
		return fmt.Errorf("failed to unmarshal event: %w", err)
	}
	return s.handler(ctx, event)
}

func (s *Subscriber) deadLetter(ctx context.Context, message redis.XMessage, cause error) error {
	values := map[string]any{
		"source_id": message.ID,
		"error":     cause.Error(),
	}
	if raw, ok := message.Values["event"]; ok {
		values["event"] = raw
	}
	return s.client.XAdd(ctx, &redis.XAddArgs{Stream: s.stream + DeadLetterSuffix, Values: values}).Err()
}
