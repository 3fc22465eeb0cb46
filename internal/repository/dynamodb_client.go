package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"support-agent/internal/domain"
)

const (
	pkPrefixConv = "CONV#"
	skPrefixMsg  = "MSG#"
	skMeta       = "META#"

	// Conversations live for a support session, not beyond.
	sessionTTL = 24 * time.Hour

	statusComplete = "complete"

	attrText   = "text"
	attrAnswer = "answer"
	attrSource = "source"
	attrStatus = "status"
	attrTurns  = "turns"
)

const putIfAbsent = "attribute_not_exists(PK) AND attribute_not_exists(SK)"

type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	TransactWriteItems(ctx context.Context, in *dynamodb.TransactWriteItemsInput, optFns ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error)
}

// Client stores support conversations in a single DynamoDB table. Every
// exchange is one MSG# item under the conversation partition, and the META#
// item tracks the turn count. Items expire one session after they are written.
type Client struct {
	api       dynamodbAPI
	tableName string
	now       func() time.Time
}

func New(api dynamodbAPI, tableName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	tableName = strings.TrimSpace(tableName)
	if tableName == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	return &Client{api: api, tableName: tableName, now: time.Now}, nil
}

func convPK(conversationID string) string {
	return pkPrefixConv + conversationID
}

// msgSK sorts lexically in write order.
func msgSK(ts time.Time) string {
	return skPrefixMsg + ts.UTC().Format(time.RFC3339Nano)
}

func expiresAt(ts time.Time) int64 {
	return ts.Add(sessionTTL).Unix()
}

func (c *Client) keyOf(conversationID, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: convPK(conversationID)},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

// GetHistory returns up to limit of the most recent exchanges, oldest first.
func (c *Client) GetHistory(ctx context.Context, conversationID string, limit int) ([]domain.Message, error) {
	in := &dynamodb.QueryInput{
		TableName:              aws.String(c.tableName),
		KeyConditionExpression: aws.String("PK = :pk AND begins_with(SK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pk":     &types.AttributeValueMemberS{Value: convPK(conversationID)},
			":prefix": &types.AttributeValueMemberS{Value: skPrefixMsg},
		},
		ScanIndexForward: aws.Bool(false),
	}
	if limit > 0 {
		in.Limit = aws.Int32(int32(limit))
	}

	out, err := c.api.Query(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("repository: GetHistory query: %w", err)
	}

	msgs := make([]domain.Message, len(out.Items))
	for i, item := range out.Items {
		msg, err := decodeMessage(item)
		if err != nil {
			return nil, fmt.Errorf("repository: GetHistory decode: %w", err)
		}
		msg.ConversationID = conversationID
		// Newest-first from the query; fill from the back.
		msgs[len(out.Items)-1-i] = msg
	}
	return msgs, nil
}

// GetConversationTurnCount reads the META# item. A conversation without
// one has no turns yet.
func (c *Client) GetConversationTurnCount(ctx context.Context, conversationID string) (int, error) {
	out, err := c.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(c.tableName),
		Key:            c.keyOf(conversationID, skMeta),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, fmt.Errorf("repository: GetConversationTurnCount get item: %w", err)
	}
	if out == nil || len(out.Item) == 0 {
		return 0, nil
	}
	turns, err := numberAttr(out.Item, attrTurns)
	if err != nil {
		return 0, fmt.Errorf("repository: GetConversationTurnCount decode turns: %w", err)
	}
	return int(turns), nil
}

// SaveTurn writes an exchange and the refreshed META# item atomically.
func (c *Client) SaveTurn(ctx context.Context, msg domain.Message, meta domain.ConversationMeta) error {
	if msg.PK == "" || msg.SK == "" {
		return errors.New("repository: SaveTurn: message PK and SK are required")
	}
	if meta.PK == "" || meta.SK == "" {
		return errors.New("repository: SaveTurn: meta PK and SK are required")
	}

	table := aws.String(c.tableName)
	_, err := c.api.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: table, Item: encodeMessage(msg), ConditionExpression: aws.String(putIfAbsent)}},
			{Put: &types.Put{TableName: table, Item: encodeMeta(meta)}},
		},
	})
	if err != nil {
		return fmt.Errorf("repository: SaveTurn: %w", err)
	}
	return nil
}

// SaveCompletedTurn records an answered question and where the answer came
// from, bumping the conversation to turns.
func (c *Client) SaveCompletedTurn(ctx context.Context, conversationID, question, answer, source string, turns int) error {
	now := c.now()
	msg := NewMessage(conversationID, question, source, statusComplete, now)
	msg.Answer = answer
	if err := c.SaveTurn(ctx, msg, NewConversationMeta(conversationID, turns, now)); err != nil {
		return fmt.Errorf("repository: SaveCompletedTurn: %w", err)
	}
	return nil
}

// NewMessage builds an exchange item keyed at ts.
func NewMessage(conversationID, question, source, status string, ts time.Time) domain.Message {
	return domain.Message{
		PK:             convPK(conversationID),
		SK:             msgSK(ts),
		ConversationID: conversationID,
		Text:           question,
		Source:         source,
		Status:         status,
		TTL:            expiresAt(ts),
	}
}

func NewConversationMeta(conversationID string, turns int, ts time.Time) domain.ConversationMeta {
	return domain.ConversationMeta{
		PK:             convPK(conversationID),
		SK:             skMeta,
		ConversationID: conversationID,
		LastActivity:   ts.UTC().Format(time.RFC3339),
		Turns:          turns,
		TTL:            expiresAt(ts),
	}
}

func decodeMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	var (
		msg domain.Message
		err error
	)
	if msg.PK, err = stringAttr(item, "PK"); err != nil {
		return domain.Message{}, err
	}
	if msg.SK, err = stringAttr(item, "SK"); err != nil {
		return domain.Message{}, err
	}
	if msg.Text, err = stringAttr(item, attrText); err != nil {
		return domain.Message{}, err
	}
	msg.Answer = optionalString(item, attrAnswer)
	msg.Source = optionalString(item, attrSource)
	msg.Status = optionalString(item, attrStatus)
	if ttl, err := numberAttr(item, "ttl"); err == nil {
		msg.TTL = ttl
	}
	return msg, nil
}

func encodeMessage(msg domain.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: msg.PK},
		"SK":             &types.AttributeValueMemberS{Value: msg.SK},
		"conversationId": &types.AttributeValueMemberS{Value: msg.ConversationID},
		attrText:         &types.AttributeValueMemberS{Value: msg.Text},
		attrAnswer:       &types.AttributeValueMemberS{Value: msg.Answer},
		attrSource:       &types.AttributeValueMemberS{Value: msg.Source},
		attrStatus:       &types.AttributeValueMemberS{Value: msg.Status},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(msg.TTL, 10)},
	}
}

func encodeMeta(meta domain.ConversationMeta) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":             &types.AttributeValueMemberS{Value: meta.PK},
		"SK":             &types.AttributeValueMemberS{Value: meta.SK},
		"conversationId": &types.AttributeValueMemberS{Value: meta.ConversationID},
		"lastActivity":   &types.AttributeValueMemberS{Value: meta.LastActivity},
		attrTurns:        &types.AttributeValueMemberN{Value: strconv.Itoa(meta.Turns)},
		"ttl":            &types.AttributeValueMemberN{Value: strconv.FormatInt(meta.TTL, 10)},
	}
}

func stringAttr(item map[string]types.AttributeValue, key string) (string, error) {
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

func optionalString(item map[string]types.AttributeValue, key string) string {
	s, _ := stringAttr(item, key)
	return s
}

func numberAttr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	parsed, err := strconv.ParseInt(n.Value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return parsed, nil
}
