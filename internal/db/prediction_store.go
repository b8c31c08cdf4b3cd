package db

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/spacesedan/tweetclassifier/internal/models"
	"github.com/spacesedan/tweetclassifier/internal/utils"
)

const (
	PREDICTIONS_TABLE_NAME = "TweetPredictions"
	MAX_BATCH_WRITE        = 25
	MAX_WRITE_RETRIES      = 3
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

type predictionItem struct {
	models.PredictionResult
	ExpiresAt int64 `dynamodbav:"expires_at,omitempty"`
}

// PredictionStore keeps classification history in DynamoDB.
type PredictionStore struct {
	client       DynamoDBAPI
	table        string
	ttl          time.Duration
	retryBackoff time.Duration
}

// NewPredictionStore writes to table; items expire after ttl when ttl > 0.
func NewPredictionStore(client DynamoDBAPI, table string, ttl time.Duration) *PredictionStore {
	if table == "" {
		table = PREDICTIONS_TABLE_NAME
	}
	return &PredictionStore{
		client:       client,
		table:        table,
		ttl:          ttl,
		retryBackoff: 500 * time.Millisecond,
	}
}

func (s *PredictionStore) StorePredictions(ctx context.Context, results []models.PredictionResult) error {
	for _, chunk := range utils.Chunk(results, MAX_BATCH_WRITE) {
		if err := ctx.Err(); err != nil {
			slog.Warn("[DynamoDB] context canceled")
			return err
		}

		writeRequests := make([]types.WriteRequest, 0, len(chunk))
		for _, result := range chunk {
			item, err := s.toItem(result)
			if err != nil {
				return err
			}
			writeRequests = append(writeRequests, types.WriteRequest{
				PutRequest: &types.PutRequest{Item: item},
			})
		}

		if err := s.batchWrite(ctx, writeRequests); err != nil {
			return err
		}
	}

	slog.Info("[DynamoDB] Stored predictions", slog.Int("count", len(results)))
	return nil
}

func (s *PredictionStore) toItem(result models.PredictionResult) (map[string]types.AttributeValue, error) {
	item := predictionItem{PredictionResult: result}
	if s.ttl > 0 {
		item.ExpiresAt = result.CreatedAt.Add(s.ttl).Unix()
	}
	av, err := attributevalue.MarshalMap(item)
	if err != nil {
		return nil, fmt.Errorf("[DynamoDB] marshal prediction %s: %w", result.ID, err)
	}
	return av, nil
}

// batchWrite sends one chunk and retries unprocessed items with backoff.
func (s *PredictionStore) batchWrite(ctx context.Context, writeRequests []types.WriteRequest) error {
	out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
		RequestItems: map[string][]types.WriteRequest{
			s.table: writeRequests,
		},
	})
	if err != nil {
		return fmt.Errorf("[DynamoDB] Failed to batch write predictions: %w", err)
	}

	retryCount := 0
	backoff := s.retryBackoff
	for len(out.UnprocessedItems) > 0 && retryCount < MAX_WRITE_RETRIES {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2

		slog.Warn("[DynamoDB] Retrying unprocessed predictions...",
			slog.Int("attempt", retryCount+1),
			slog.Int("remaining", len(out.UnprocessedItems[s.table])))

		out, err = s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: out.UnprocessedItems,
		})
		if err != nil {
			return fmt.Errorf("[DynamoDB] Retry error: %w", err)
		}
		retryCount++
	}

	if remaining := len(out.UnprocessedItems[s.table]); remaining > 0 {
		slog.Error("[DynamoDB] Some predictions failed after retries",
			slog.Int("remaining", remaining))
		return fmt.Errorf("[DynamoDB] %d predictions left unprocessed", remaining)
	}
	return nil
}

// Recent returns up to limit predictions, newest first.
func (s *PredictionStore) Recent(ctx context.Context, limit int) ([]models.PredictionResult, error) {
	var results []models.PredictionResult
	paginator := dynamodb.NewScanPaginator(s.client, &dynamodb.ScanInput{
		TableName: aws.String(s.table),
	})

	for paginator.HasMorePages() {
		out, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("[DynamoDB] Scan for predictions failed: %w", err)
		}
		var page []models.PredictionResult
		if err := attributevalue.UnmarshalListOfMaps(out.Items, &page); err != nil {
			slog.Error("[DynamoDB] Unable to unmarshal prediction page", slog.String("error", err.Error()))
			return nil, err
		}
		results = append(results, page...)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	for i := range results {
		results[i].Description = results[i].Label.Description()
	}
	return results, nil
}
