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

	"climate-dashboard/internal/domain"
)

const (
	skPrefixTurn = "TURN#"
	ttlDuration  = 30 * 24 * time.Hour // 30-day TTL

	// Fixed-width so sort keys order byte-wise the same as by time.
	turnSKLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
}

// Client wraps a DynamoDB table holding chat transcripts.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

// New creates a new repository Client.
func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

// convPK returns the DynamoDB partition key for a conversation.
func convPK(conversationID string) string {
	return "CONV#" + conversationID
}

// turnSK returns the sort key for a turn recorded at ts.
func turnSK(ts time.Time) string {
	return skPrefixTurn + ts.UTC().Format(turnSKLayout)
}

// GetHistory returns up to limit most recent turns as chronological chat
// messages (one user and one assistant message per turn).
func (c *Client) GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		return nil, nil
	}
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: convPK(conversationID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixTurn},
		},
		// Read newest first so LIMIT favors the most recent context.
		ScanIndexForward: aws.Bool(false),
		Limit:            aws.Int32(int32(limit)),
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetHistory query: %w", err)
	}

	turns := make([]domain.Turn, 0, len(out.Items))
	for _, item := range out.Items {
		turn, err := itemToTurn(item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory unmarshal: %w", err)
		}
		turns = append(turns, turn)
	}

	msgs := make([]domain.ChatMessage, 0, 2*len(turns))
	for i := len(turns) - 1; i >= 0; i-- {
		msgs = append(msgs,
			domain.ChatMessage{Role: domain.RoleUser, Content: turns[i].Message},
			domain.ChatMessage{Role: domain.RoleAssistant, Content: turns[i].Response},
		)
	}
	return msgs, nil
}

// SaveTurn persists one completed exchange.
func (c *Client) SaveTurn(ctx context.Context, conversationID, message, response, source string) error {
	if strings.TrimSpace(conversationID) == "" {
		return errors.New("repository: SaveTurn: conversation id is required")
	}
	now := c.now()
	turn := domain.Turn{
		PK:             convPK(conversationID),
		SK:             turnSK(now),
		ConversationID: conversationID,
		Message:        message,
		Response:       response,
		Source:         source,
		TTL:            now.Add(ttlDuration).Unix(),
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(c.tableName),
		Item:                turnItem(turn),
		ConditionExpression: aws.String("attribute_not_exists(PK) AND attribute_not_exists(SK)"),
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

// itemToTurn converts a DynamoDB attribute map to a Turn.
func itemToTurn(item map[string]types.AttributeValue) (domain.Turn, error) {
	pk, err := strAttr(item, "PK")
	if err != nil {
		return domain.Turn{}, err
	}
	sk, err := strAttr(item, "SK")
	if err != nil {
		return domain.Turn{}, err
	}
	message, err := strAttr(item, "message")
	if err != nil {
		return domain.Turn{}, err
	}
	response, err := strAttr(item, "response")
	if err != nil {
		return domain.Turn{}, err
	}
	source, _ := strAttr(item, "source") // allow empty

	return domain.Turn{
		PK:       pk,
		SK:       sk,
		Message:  message,
		Response: response,
		Source:   source,
	}, nil
}

func turnItem(t domain.Turn) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: t.PK},
		"SK":             &types.AttributeValueMemberS{Value: t.SK},
		"conversationId": &types.AttributeValueMemberS{Value: t.ConversationID},
		"message":        &types.AttributeValueMemberS{Value: t.Message},
		"response":       &types.AttributeValueMemberS{Value: t.Response},
		"source":         &types.AttributeValueMemberS{Value: t.Source},
		"ttl":            &types.AttributeValueMemberN{Value: fmt.Sprintf("%d", t.TTL)},
	}
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
