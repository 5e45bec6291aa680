package servicebus

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"playlist-service/domain/model"
	"playlist-service/infrastructure/configuration"

	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSender struct {
	mock.Mock
}

func (m *mockSender) SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error {
	args := m.Called(ctx, message, options)
	return args.Error(0)
}

func (m *mockSender) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func TestPlaylistEventPublisher_PublishRefreshed(t *testing.T) {
	event := model.PlaylistRefreshedEvent{
		Type:       model.PlaylistRefreshedType,
		PlaylistID: "PL123",
		Total:      3,
		Pages:      1,
		FetchedAt:  time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	sender := new(mockSender)
	sender.On("SendMessage", mock.Anything, mock.MatchedBy(func(m *azservicebus.Message) bool {
		var got model.PlaylistRefreshedEvent
		if err := json.Unmarshal(m.Body, &got); err != nil {
			return false
		}
		return got.PlaylistID == event.PlaylistID &&
			got.Total == event.Total &&
			got.FetchedAt.Equal(event.FetchedAt) &&
			*m.Subject == model.PlaylistRefreshedType &&
			*m.ContentType == "application/json" &&
			m.ApplicationProperties["playlistId"] == "PL123"
	}), (*azservicebus.SendMessageOptions)(nil)).Return(nil).Once()

	pub := newPlaylistEventPublisher(sender, "playlist-refreshed")
	require.NoError(t, pub.PublishRefreshed(context.Background(), event))
	sender.AssertExpectations(t)
}

func TestPlaylistEventPublisher_SendError(t *testing.T) {
	sender := new(mockSender)
	sender.On("SendMessage", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("queue not found"))
	sender.On("Close", mock.Anything).Return(errors.New("already closed"))

	pub := newPlaylistEventPublisher(sender, "missing")
	err := pub.PublishRefreshed(context.Background(), model.PlaylistRefreshedEvent{PlaylistID: "PL"})
	assert.EqualError(t, err, "queue not found")

	pub.Close(context.Background())
	sender.AssertCalled(t, "Close", mock.Anything)
}

func TestNewServiceBus_RequiresTarget(t *testing.T) {
	_, err := NewServiceBus(configuration.ServiceBus{})
	assert.Error(t, err)
}
