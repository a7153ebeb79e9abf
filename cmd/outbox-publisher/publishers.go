package main

import (
	"context"
	"errors"
	"sync"

	gcppubsub "cloud.google.com/go/pubsub/v2"
)

// publisherCache hands out one Pub/Sub publisher per topic. Each publisher
// owns batching goroutines, so they are reused and stopped on shutdown.
type publisherCache struct {
	source interface {
		Publisher(name string) *gcppubsub.Publisher
	}

	mu     sync.Mutex
	topics map[string]*gcppubsub.Publisher
}

func newPublisherCache(source pubSubClient) *publisherCache {
	return &publisherCache{source: source, topics: map[string]*gcppubsub.Publisher{}}
}

func (c *publisherCache) get(topic string) publisher {
	c.mu.Lock()
	defer c.mu.Unlock()

	p, ok := c.topics[topic]
	if !ok {
		p = c.source.Publisher(topic)
		if p == nil {
			return nil
		}
		c.topics[topic] = p
	}
	return &gcpPublisher{Publisher: p}
}

// stopAll flushes pending messages and releases every cached publisher.
func (c *publisherCache) stopAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for topic, p := range c.topics {
		p.Stop()
		delete(c.topics, topic)
	}
}

type gcpPublisher struct {
	*gcppubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	if p == nil || p.Publisher == nil {
		return nil
	}
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*gcppubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
