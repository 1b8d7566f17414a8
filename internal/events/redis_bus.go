package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus implements Bus on Redis Pub/Sub so appends fan out to every
// connected process.
type RedisBus struct {
	client   *redis.Client
	handlers map[EventType][]Handler
	pubsub   *redis.PubSub
	mu       sync.RWMutex
	ctx      context.Context
	cancel   context.CancelFunc
	running  bool
}

func NewRedisBus(client *redis.Client) *RedisBus {
	ctx, cancel := context.WithCancel(context.Background())
	return &RedisBus{
		client:   client,
		handlers: make(map[EventType][]Handler),
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (b *RedisBus) Start() error {
	b.running = true
	b.pubsub = b.client.PSubscribe(b.ctx, "channel:*")
	go b.listen()
	return nil
}

func (b *RedisBus) Stop() error {
	b.cancel()
	b.running = false
	if b.pubsub != nil {
		b.pubsub.Close()
	}
	return nil
}

func (b *RedisBus) Publish(ctx context.Context, event Event) error {
	if !b.running {
		return fmt.Errorf("event bus not started")
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return b.client.Publish(ctx, channelFor(event), data).Err()
}

func (b *RedisBus) Subscribe(eventType EventType, handler Handler) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[eventType] = append(b.handlers[eventType], handler)
	return nil
}

func channelFor(event Event) string {
	if event.Type == EventContactUpdated {
		return ChannelContacts
	}
	return ChannelPrefixContact + event.ContactID.String()
}

func (b *RedisBus) listen() {
	ch := b.pubsub.Channel()
	for {
		select {
		case <-b.ctx.Done():
			return
		case msg := <-ch:
			if msg == nil {
				continue
			}

			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				continue
			}
			b.dispatch(event)
		}
	}
}

func (b *RedisBus) dispatch(event Event) {
	b.mu.RLock()
	handlers := b.handlers[event.Type]
	b.mu.RUnlock()

	for _, handler := range handlers {
		_ = handler.Handle(b.ctx, event)
	}
}
