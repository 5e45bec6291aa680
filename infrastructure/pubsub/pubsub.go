package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"

	"cloud.google.com/go/pubsub"
	"google.golang.org/api/option"
)

// NewPubSub creates a client for projectID. PUBSUB_EMULATOR_HOST is honoured by the SDK.
func NewPubSub(ctx context.Context, projectID string, opts ...option.ClientOption) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("pubsub client: %w", err)
	}
	return client, nil
}

// PlaylistEventPublisher publishes refresh notifications to a Pub/Sub topic,
// creating the topic on first use when it is missing.
type PlaylistEventPublisher struct {
	client    *pubsub.Client
	topicName string

	mu    sync.Mutex
	topic *pubsub.Topic
}

var _ repository.IPlaylistEvents = (*PlaylistEventPublisher)(nil)

func NewPlaylistEventPublisher(client *pubsub.Client, topicName string) *PlaylistEventPublisher {
	return &PlaylistEventPublisher{client: client, topicName: topicName}
}

func (p *PlaylistEventPublisher) ensureTopic(ctx context.Context) (*pubsub.Topic, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		return p.topic, nil
	}

	topic := p.client.Topic(p.topicName)
	exists, err := topic.Exists(ctx)
	if err != nil {
		return nil, err
	}
	if !exists {
		logger.GetLogger().WithField("topic", p.topicName).Info("Topic doesn't exist - creating it")
		topic, err = p.client.CreateTopic(ctx, p.topicName)
		if err != nil {
			return nil, err
		}
	}
	p.topic = topic
	return topic, nil
}

func (p *PlaylistEventPublisher) PublishRefreshed(ctx context.Context, event model.PlaylistRefreshedEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	topic, err := p.ensureTopic(ctx)
	if err != nil {
		return fmt.Errorf("pubsub topic %s: %w", p.topicName, err)
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{
		Data:       payload,
		Attributes: map[string]string{"type": event.Type, "playlistId": event.PlaylistID},
	}).Get(ctx)
	if err != nil {
		return fmt.Errorf("pubsub publish: %w", err)
	}

	logger.GetLogger().WithField("server ID", serverID).WithField("playlist_id", event.PlaylistID).Debug("Message published")
	return nil
}

// Close flushes pending publishes.
func (p *PlaylistEventPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.topic != nil {
		p.topic.Stop()
	}
}
