package persistence

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"playlist-service/domain/model"
	"playlist-service/domain/repository"
	"playlist-service/infrastructure/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	dynamoTypes "github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// DynamoAPI is the subset of *dynamodb.Client the repository uses.
type DynamoAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// dynamoPlaylistRecord stores fetched_at as unix milliseconds so the condition can compare numbers.
type dynamoPlaylistRecord struct {
	PlaylistID string            `dynamodbav:"playlist_id"`
	Items      []model.VideoItem `dynamodbav:"items"`
	FetchedAt  int64             `dynamodbav:"fetched_at"`
}

// PlaylistCacheRepositoryDynamo implements IPlaylistCache on a DynamoDB table keyed by playlist_id.
type PlaylistCacheRepositoryDynamo struct {
	client    DynamoAPI
	tableName string
}

var _ repository.IPlaylistCache = (*PlaylistCacheRepositoryDynamo)(nil)

func NewPlaylistCacheRepositoryDynamo(client DynamoAPI, tableName string) *PlaylistCacheRepositoryDynamo {
	return &PlaylistCacheRepositoryDynamo{client: client, tableName: tableName}
}

// CreateTableIfNotExists creates the on-demand table when DescribeTable fails.
func (r *PlaylistCacheRepositoryDynamo) CreateTableIfNotExists(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("dynamodb client is nil")
	}
	_, err := r.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.tableName)})
	if err == nil {
		return nil
	}
	var notFound *dynamoTypes.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return fmt.Errorf("describe table %s: %w", r.tableName, err)
	}

	logger.GetLogger().WithField("table", r.tableName).Info("Creating DynamoDB table")
	_, err = r.client.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.tableName),
		KeySchema: []dynamoTypes.KeySchemaElement{
			{AttributeName: aws.String("playlist_id"), KeyType: dynamoTypes.KeyTypeHash},
		},
		AttributeDefinitions: []dynamoTypes.AttributeDefinition{
			{AttributeName: aws.String("playlist_id"), AttributeType: dynamoTypes.ScalarAttributeTypeS},
		},
		BillingMode: dynamoTypes.BillingModePayPerRequest,
	})
	if err != nil {
		return fmt.Errorf("create table %s: %w", r.tableName, err)
	}
	return nil
}

func (r *PlaylistCacheRepositoryDynamo) GetPlaylist(ctx context.Context, playlistID string) (*model.CacheRecord, error) {
	if r.client == nil {
		return nil, nil
	}
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]dynamoTypes.AttributeValue{
			"playlist_id": &dynamoTypes.AttributeValueMemberS{Value: playlistID},
		},
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("dynamodb get playlist: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, nil
	}
	var rec dynamoPlaylistRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal playlist record: %w", err)
	}
	return &model.CacheRecord{
		PlaylistID: rec.PlaylistID,
		Items:      rec.Items,
		FetchedAt:  time.UnixMilli(rec.FetchedAt).UTC(),
	}, nil
}

func (r *PlaylistCacheRepositoryDynamo) UpsertPlaylist(ctx context.Context, playlistID string, items []model.VideoItem, fetchedAt time.Time) error {
	if r.client == nil {
		return nil
	}
	if items == nil {
		items = []model.VideoItem{}
	}
	av, err := attributevalue.MarshalMap(dynamoPlaylistRecord{
		PlaylistID: playlistID,
		Items:      items,
		FetchedAt:  fetchedAt.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal playlist record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(playlist_id) OR fetched_at <= :fetched_at"),
		ExpressionAttributeValues: map[string]dynamoTypes.AttributeValue{
			":fetched_at": &dynamoTypes.AttributeValueMemberN{Value: strconv.FormatInt(fetchedAt.UnixMilli(), 10)},
		},
	})
	if err != nil {
		var conditionFailed *dynamoTypes.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return nil
		}
		return fmt.Errorf("dynamodb put playlist: %w", err)
	}
	return nil
}
