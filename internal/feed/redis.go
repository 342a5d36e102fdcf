package feed

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// messagesChannel is the pub/sub channel carrying message change events.
const messagesChannel = "globalroom:messages"

// RedisFeed is a Feed backed by redis pub/sub, so change events reach every
// server instance sharing the store, not just the one that committed them.
type RedisFeed struct {
	client *redis.Client
}

// NewRedisFeed connects a feed to the redis instance at the given URL.
func NewRedisFeed(url string) (*RedisFeed, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisFeed{client: redis.NewClient(opts)}, nil
}

// Ping checks the connection.
func (f *RedisFeed) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close releases the underlying client.
func (f *RedisFeed) Close() error {
	return f.client.Close()
}

// Publish emits the event on the shared pub/sub channel.
func (f *RedisFeed) Publish(ctx context.Context, ev Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return f.client.Publish(ctx, messagesChannel, payload).Err()
}

// Subscribe opens a pub/sub subscription and decodes incoming payloads into
// events until the cancel function is called or the context ends.
func (f *RedisFeed) Subscribe(ctx context.Context) (<-chan Event, func(), error) {
	sub := f.client.Subscribe(ctx, messagesChannel)

	// Force the subscription to be established before returning, so callers
	// do not race their first publish against it.
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, subscriberBuffer)
	done := make(chan struct{})

	go func() {
		defer close(out)
		in := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var ev Event
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					log.Printf("feed: dropping undecodable event: %v", err)
					continue
				}
				select {
				case out <- ev:
				case <-done:
					return
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			close(done)
			_ = sub.Close()
		})
	}
	return out, cancel, nil
}
