package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"support-agent/internal/domain"
	"support-agent/internal/usecase"
)

type fakeDynamo struct {
	getOut   *dynamodb.GetItemOutput
	getErr   error
	queryOut *dynamodb.QueryOutput
	queryErr error
	txErr    error

	lastGet   *dynamodb.GetItemInput
	lastQuery *dynamodb.QueryInput
	lastTx    *dynamodb.TransactWriteItemsInput
}

func (f *fakeDynamo) GetItem(_ context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	f.lastGet = in
	return f.getOut, f.getErr
}

func (f *fakeDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	f.lastQuery = in
	if f.queryOut == nil {
		return &dynamodb.QueryOutput{}, f.queryErr
	}
	return f.queryOut, f.queryErr
}

func (f *fakeDynamo) TransactWriteItems(_ context.Context, in *dynamodb.TransactWriteItemsInput, _ ...func(*dynamodb.Options)) (*dynamodb.TransactWriteItemsOutput, error) {
	f.lastTx = in
	return &dynamodb.TransactWriteItemsOutput{}, f.txErr
}

var fixedNow = time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)

func exchangeItem(sk, question, answer, source string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK":       &types.AttributeValueMemberS{Value: "CONV#abc"},
		"SK":       &types.AttributeValueMemberS{Value: sk},
		attrText:   &types.AttributeValueMemberS{Value: question},
		attrAnswer: &types.AttributeValueMemberS{Value: answer},
		attrSource: &types.AttributeValueMemberS{Value: source},
		attrStatus: &types.AttributeValueMemberS{Value: statusComplete},
	}
}

func newTestClient(t *testing.T, db *fakeDynamo) *Client {
	t.Helper()
	c, err := New(db, "support-conversations")
	require.NoError(t, err)
	c.now = func() time.Time { return fixedNow }
	return c
}

func str(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberS)
	require.True(t, ok, "attribute %q", key)
	return v.Value
}

func num(t *testing.T, item map[string]types.AttributeValue, key string) string {
	t.Helper()
	v, ok := item[key].(*types.AttributeValueMemberN)
	require.True(t, ok, "attribute %q", key)
	return v.Value
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, "table")
	require.ErrorContains(t, err, "must not be nil")

	_, err = New(&fakeDynamo{}, " ")
	require.ErrorContains(t, err, "must not be empty")
}

func TestGetConversationTurnCount(t *testing.T) {
	db := &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrTurns: &types.AttributeValueMemberN{Value: "4"},
	}}}
	c := newTestClient(t, db)

	turns, err := c.GetConversationTurnCount(context.Background(), "abc")
	require.NoError(t, err)
	require.Equal(t, 4, turns)
	require.True(t, *db.lastGet.ConsistentRead)
	require.Equal(t, "CONV#abc", str(t, db.lastGet.Key, "PK"))
	require.Equal(t, skMeta, str(t, db.lastGet.Key, "SK"))
}

func TestGetConversationTurnCount_NewConversation(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{}})
	turns, err := c.GetConversationTurnCount(context.Background(), "abc")
	require.NoError(t, err)
	require.Zero(t, turns)
}

func TestGetConversationTurnCount_Errors(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{getErr: errors.New("throttled")})
	_, err := c.GetConversationTurnCount(context.Background(), "abc")
	require.ErrorContains(t, err, "GetConversationTurnCount")

	c = newTestClient(t, &fakeDynamo{getOut: &dynamodb.GetItemOutput{Item: map[string]types.AttributeValue{
		attrTurns: &types.AttributeValueMemberS{Value: "four"},
	}}})
	_, err = c.GetConversationTurnCount(context.Background(), "abc")
	require.ErrorContains(t, err, "decode turns")
}

func TestGetHistory_ChronologicalWithSource(t *testing.T) {
	db := &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{
		exchangeItem("MSG#2026-03-02T09:05:00Z", "Is there a free trial?", "Yes, 14 days.", domain.SourceFAQ),
		exchangeItem("MSG#2026-03-02T09:00:00Z", "What is ACOS?", "Advertising Cost of Sale.", domain.SourceModel),
	}}}
	c := newTestClient(t, db)

	msgs, err := c.GetHistory(context.Background(), "abc", 5)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	require.Equal(t, "What is ACOS?", msgs[0].Text)
	require.Equal(t, domain.SourceModel, msgs[0].Source)
	require.Equal(t, "Is there a free trial?", msgs[1].Text)
	require.Equal(t, "Yes, 14 days.", msgs[1].Answer)
	require.Equal(t, domain.SourceFAQ, msgs[1].Source)
	require.Equal(t, "abc", msgs[1].ConversationID)

	require.Equal(t, "PK = :pk AND begins_with(SK, :prefix)", *db.lastQuery.KeyConditionExpression)
	require.False(t, *db.lastQuery.ScanIndexForward)
	require.Equal(t, int32(5), *db.lastQuery.Limit)
}

func TestGetHistory_NoLimit(t *testing.T) {
	db := &fakeDynamo{}
	c := newTestClient(t, db)

	msgs, err := c.GetHistory(context.Background(), "abc", 0)
	require.NoError(t, err)
	require.Empty(t, msgs)
	require.Nil(t, db.lastQuery.Limit)
}

func TestGetHistory_Errors(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{queryErr: errors.New("ResourceNotFoundException")})
	_, err := c.GetHistory(context.Background(), "abc", 5)
	require.ErrorContains(t, err, "GetHistory query")

	broken := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "CONV#abc"},
		"SK": &types.AttributeValueMemberS{Value: "MSG#ts"},
	}
	c = newTestClient(t, &fakeDynamo{queryOut: &dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{broken}}})
	_, err = c.GetHistory(context.Background(), "abc", 5)
	require.ErrorContains(t, err, `"text"`)
}

func TestSaveCompletedTurn(t *testing.T) {
	db := &fakeDynamo{}
	c := newTestClient(t, db)

	err := c.SaveCompletedTurn(context.Background(), "abc", "How do I cancel?", "Settings > Billing.", domain.SourceModel, 3)
	require.NoError(t, err)
	require.Len(t, db.lastTx.TransactItems, 2)

	msg := db.lastTx.TransactItems[0].Put
	require.Equal(t, putIfAbsent, *msg.ConditionExpression)
	require.Equal(t, "support-conversations", *msg.TableName)
	require.Equal(t, "CONV#abc", str(t, msg.Item, "PK"))
	require.Equal(t, "MSG#2026-03-02T09:30:00Z", str(t, msg.Item, "SK"))
	require.Equal(t, "How do I cancel?", str(t, msg.Item, attrText))
	require.Equal(t, "Settings > Billing.", str(t, msg.Item, attrAnswer))
	require.Equal(t, domain.SourceModel, str(t, msg.Item, attrSource))
	require.Equal(t, statusComplete, str(t, msg.Item, attrStatus))

	meta := db.lastTx.TransactItems[1].Put
	require.Nil(t, meta.ConditionExpression)
	require.Equal(t, skMeta, str(t, meta.Item, "SK"))
	require.Equal(t, "3", num(t, meta.Item, attrTurns))
	require.Equal(t, "2026-03-02T09:30:00Z", str(t, meta.Item, "lastActivity"))
}

func TestSaveCompletedTurn_ExpiresAfterOneDay(t *testing.T) {
	db := &fakeDynamo{}
	c := newTestClient(t, db)

	require.NoError(t, c.SaveCompletedTurn(context.Background(), "abc", "q", "a", domain.SourceFAQ, 1))
	want := "1772530200" // fixedNow + 24h
	require.Equal(t, want, num(t, db.lastTx.TransactItems[0].Put.Item, "ttl"))
	require.Equal(t, want, num(t, db.lastTx.TransactItems[1].Put.Item, "ttl"))
}

func TestSaveCompletedTurn_DynamoError(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{txErr: errors.New("transaction canceled")})
	err := c.SaveCompletedTurn(context.Background(), "abc", "q", "a", domain.SourceModel, 1)
	require.ErrorContains(t, err, "SaveCompletedTurn")
	require.ErrorContains(t, err, "transaction canceled")
}

func TestSaveTurn_RequiresKeys(t *testing.T) {
	c := newTestClient(t, &fakeDynamo{})

	err := c.SaveTurn(context.Background(), domain.Message{SK: "MSG#ts"}, NewConversationMeta("abc", 1, fixedNow))
	require.ErrorContains(t, err, "message PK")

	err = c.SaveTurn(context.Background(), NewMessage("abc", "q", domain.SourceFAQ, statusComplete, fixedNow), domain.ConversationMeta{SK: skMeta})
	require.ErrorContains(t, err, "meta PK")
}

func TestDecodeMessage_RoundTripsEncodedItem(t *testing.T) {
	msg := NewMessage("abc", "What is Adigy?", domain.SourceFAQ, statusComplete, fixedNow)
	msg.Answer = "An ads automation platform."

	got, err := decodeMessage(encodeMessage(msg))
	require.NoError(t, err)
	msg.ConversationID = ""
	require.Equal(t, msg, got)
}

func TestKeys(t *testing.T) {
	require.Equal(t, "CONV#my-conv", convPK("my-conv"))
	require.Equal(t, "MSG#2026-02-25T10:00:00.5Z", msgSK(time.Date(2026, 2, 25, 10, 0, 0, 500000000, time.UTC)))
}

func TestClient_IsTheServiceConversationStore(t *testing.T) {
	var store usecase.StateReadWriter = newTestClient(t, &fakeDynamo{})
	require.NotNil(t, store)
}
