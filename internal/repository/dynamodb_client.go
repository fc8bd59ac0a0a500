package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"pdc-bot/internal/domain"
)

const (
	pkPrefixShare    = "SHARE#"
	skPrefixFeedback = "FEEDBACK#"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client stores feedback votes in a DynamoDB table keyed by share id.
type Client struct {
	api       dynamodbAPI
	tableName string
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName}, nil
}

// sharePK returns the partition key for a share.
func sharePK(shareID string) string {
	return pkPrefixShare + shareID
}

// feedbackSK orders votes chronologically within a share.
func feedbackSK(ts time.Time, userID string) string {
	return skPrefixFeedback + ts.UTC().Format(time.RFC3339Nano) + "#" + userID
}

// Name identifies the sink in logs.
func (c *Client) Name() string {
	return "dynamodb"
}

// AppendFeedback writes one vote. A second write with the same key is
// rejected rather than overwritten.
func (c *Client) AppendFeedback(ctx context.Context, rec domain.FeedbackRecord) error {
	if strings.TrimSpace(rec.ShareID) == "" {
		return errors.New("repository: AppendFeedback: share id is required")
	}
	if rec.Timestamp.IsZero() {
		return errors.New("repository: AppendFeedback: timestamp is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                feedbackItem(rec),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: AppendFeedback: %w", err)
	}
	return nil
}

// ListFeedback returns the votes recorded for a share, oldest first. It pages
// through the table until limit records are read, or all of them when limit is
// zero or negative.
func (c *Client) ListFeedback(ctx context.Context, shareID string, limit int) ([]domain.FeedbackRecord, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: sharePK(shareID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixFeedback},
		},
		ScanIndexForward: aws.Bool(true),
	}

	var records []domain.FeedbackRecord
	for {
		if limit > 0 {
			in.Limit = aws.Int32(int32(limit - len(records)))
		}
		out, err := c.api.Query(ctx, in)
		if err != nil {
			return nil, fmt.Errorf("repository: ListFeedback query: %w", err)
		}
		for _, item := range out.Items {
			rec, err := itemToFeedback(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ListFeedback unmarshal: %w", err)
			}
			records = append(records, rec)
		}
		if len(out.LastEvaluatedKey) == 0 || (limit > 0 && len(records) >= limit) {
			break
		}
		in.ExclusiveStartKey = out.LastEvaluatedKey
	}
	if records == nil {
		records = []domain.FeedbackRecord{}
	}
	return records, nil
}

func feedbackItem(rec domain.FeedbackRecord) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: sharePK(rec.ShareID)},
		"SK":        &types.AttributeValueMemberS{Value: feedbackSK(rec.Timestamp, rec.UserID)},
		"timestamp": &types.AttributeValueMemberS{Value: rec.Timestamp.UTC().Format(time.RFC3339Nano)},
		"rating":    &types.AttributeValueMemberS{Value: string(rec.Rating)},
		"userTag":   &types.AttributeValueMemberS{Value: rec.UserTag},
		"userId":    &types.AttributeValueMemberS{Value: rec.UserID},
		"shareId":   &types.AttributeValueMemberS{Value: rec.ShareID},
		"query":     &types.AttributeValueMemberS{Value: rec.Query},
		"shareUrl":  &types.AttributeValueMemberS{Value: rec.ShareURL},
		"summary":   &types.AttributeValueMemberS{Value: rec.Summary},
		"guildId":   &types.AttributeValueMemberS{Value: rec.GuildID},
		"channelId": &types.AttributeValueMemberS{Value: rec.ChannelID},
	}
}

// itemToFeedback converts a DynamoDB attribute map to a FeedbackRecord.
func itemToFeedback(item map[string]types.AttributeValue) (domain.FeedbackRecord, error) {
	shareID, err := strAttr(item, "shareId")
	if err != nil {
		return domain.FeedbackRecord{}, err
	}
	rawTS, err := strAttr(item, "timestamp")
	if err != nil {
		return domain.FeedbackRecord{}, err
	}
	ts, err := time.Parse(time.RFC3339Nano, rawTS)
	if err != nil {
		return domain.FeedbackRecord{}, fmt.Errorf("repository: parse attribute %q: %w", "timestamp", err)
	}
	rating, err := strAttr(item, "rating")
	if err != nil {
		return domain.FeedbackRecord{}, err
	}

	return domain.FeedbackRecord{
		Timestamp: ts,
		Rating:    domain.Rating(rating),
		ShareID:   shareID,
		UserTag:   optStrAttr(item, "userTag"),
		UserID:    optStrAttr(item, "userId"),
		Query:     optStrAttr(item, "query"),
		ShareURL:  optStrAttr(item, "shareUrl"),
		Summary:   optStrAttr(item, "summary"),
		GuildID:   optStrAttr(item, "guildId"),
		ChannelID: optStrAttr(item, "channelId"),
	}, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}

func optStrAttr(item map[string]types.AttributeValue, key string) string {
	s, _ := strAttr(item, key) // allow empty
	return s
}
