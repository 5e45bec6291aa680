package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/configuration"
	"playlist-service/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewServiceBus builds a client from a connection string when one is configured,
// otherwise from the namespace with the default Azure credential chain.
func NewServiceBus(cfg configuration.ServiceBus) (*azservicebus.Client, error) {
	if cfg.ConnectionString != "" {
		return azservicebus.NewClientFromConnectionString(cfg.ConnectionString, nil)
	}
	if cfg.Namespace == "" {
		return nil, errors.New("servicebus: namespace or connection string is required")
	}
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("servicebus credential: %w", err)
	}
	return azservicebus.NewClient(cfg.Namespace, cred, nil)
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// PlaylistEventPublisher sends refresh notifications to a Service Bus queue.
type PlaylistEventPublisher struct {
	sender messageSender
	queue  string
}

var _ repository.IPlaylistEvents = (*PlaylistEventPublisher)(nil)

func NewPlaylistEventPublisher(client *azservicebus.Client, queue string) (*PlaylistEventPublisher, error) {
	sender, err := client.NewSender(queue, nil)
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return nil, err
	}
	return newPlaylistEventPublisher(sender, queue), nil
}

func newPlaylistEventPublisher(sender messageSender, queue string) *PlaylistEventPublisher {
	return &PlaylistEventPublisher{sender: sender, queue: queue}
}

func (p *PlaylistEventPublisher) PublishRefreshed(ctx context.Context, event model.PlaylistRefreshedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}
	contentType := "application/json"
	subject := event.Type
	msg := &azservicebus.Message{
		Body:                  body,
		ContentType:           &contentType,
		Subject:               &subject,
		ApplicationProperties: map[string]any{"playlistId": event.PlaylistID},
	}
	if err := p.sender.SendMessage(ctx, msg, nil); err != nil {
		logger.GetLogger().WithField("error", err).WithField("queue", p.queue).Error("Error while sending message.")
		return err
	}
	return nil
}

func (p *PlaylistEventPublisher) Close(ctx context.Context) {
	if err := p.sender.Close(ctx); err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while closing sender.")
	}
}
