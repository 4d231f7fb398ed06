package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"codeatlas/internal/vectorstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRetriever struct {
	chunks   []vectorstore.Metadata
	err      error
	gotQuery string
	gotTopK  int
}

func (f *fakeRetriever) Retrieve(_ context.Context, query string, topK int) ([]vectorstore.Metadata, error) {
	f.gotQuery = query
	f.gotTopK = topK
	return f.chunks, f.err
}

type fakeChat struct {
	response string
	err      error
	gotMsgs  []Message
	gotTemp  float64
	gotMax   int
}

func (f *fakeChat) Generate(_ context.Context, messages []Message, temperature float64, maxTokens int) (string, error) {
	f.gotMsgs = messages
	f.gotTemp = temperature
	f.gotMax = maxTokens
	return f.response, f.err
}

func TestExplainFunction(t *testing.T) {
	ret := &fakeRetriever{chunks: []vectorstore.Metadata{
		{Content: "FunctionDef:add file=math.js params=a, b code=function add(a,b){return a+b;}"},
		{Content: "FunctionCall:add file=app.js parentFunc=main args=1, 2"},
	}}
	chat := &fakeChat{response: "**Purpose**: adds numbers"}
	c := NewComposer(ret, chat, 0.3, 1000, zap.NewNop())

	out, err := c.ExplainFunction(context.Background(), "add")

	require.NoError(t, err)
	assert.Equal(t, "**Purpose**: adds numbers", out)
	assert.Equal(t, "FunctionDef:add OR FunctionCall:add", ret.gotQuery)
	assert.Equal(t, explainTopK, ret.gotTopK)
	assert.Equal(t, 0.3, chat.gotTemp)
	assert.Equal(t, 1000, chat.gotMax)

	require.Len(t, chat.gotMsgs, 2)
	assert.Equal(t, "system", chat.gotMsgs[0].Role)
	assert.Contains(t, chat.gotMsgs[1].Content, "**Function to Explain**: add")
	assert.Contains(t, chat.gotMsgs[1].Content, "FunctionDef:add file=math.js")
	assert.Contains(t, chat.gotMsgs[1].Content, "FunctionCall:add file=app.js")
}

func TestExplainFunctionRetrieveError(t *testing.T) {
	ret := &fakeRetriever{err: errors.New("index down")}
	c := NewComposer(ret, &fakeChat{}, 0.3, 1000, zap.NewNop())

	_, err := c.ExplainFunction(context.Background(), "add")
	assert.ErrorContains(t, err, "retrieve context for add")
}

func TestExplainParsesStructuredResponse(t *testing.T) {
	ret := &fakeRetriever{chunks: []vectorstore.Metadata{{Content: "File:a.js"}}}
	chat := &fakeChat{response: "```json\n{\"summary\": \"s\", \"detailedExplanation\": \"d\"}\n```"}
	c := NewComposer(ret, chat, 0.3, 1000, zap.NewNop())

	e, raw, err := c.Explain(context.Background(), "how does ingestion work")

	require.NoError(t, err)
	assert.Equal(t, "s", e.Summary)
	assert.Contains(t, raw, "summary")
	assert.Equal(t, "how does ingestion work", ret.gotQuery)
	assert.Contains(t, chat.gotMsgs[0].Content, "valid JSON")
}

func TestExplainReturnsRawOnParseFailure(t *testing.T) {
	chat := &fakeChat{response: "Sorry, I can only answer in prose."}
	c := NewComposer(&fakeRetriever{}, chat, 0.3, 1000, zap.NewNop())

	e, raw, err := c.Explain(context.Background(), "q")

	assert.ErrorIs(t, err, ErrInvalidResponse)
	assert.Nil(t, e)
	assert.Equal(t, "Sorry, I can only answer in prose.", raw)
}

func TestExplainChatError(t *testing.T) {
	chat := &fakeChat{err: errors.New("rate limited")}
	c := NewComposer(&fakeRetriever{}, chat, 0.3, 1000, zap.NewNop())

	_, _, err := c.Explain(context.Background(), "q")
	assert.ErrorContains(t, err, "rate limited")
}

func TestJoinContextCapsLength(t *testing.T) {
	chunks := []vectorstore.Metadata{
		{Content: strings.Repeat("a", 2000)},
		{Content: strings.Repeat("b", 2000)},
	}
	joined := joinContext(chunks)
	assert.Len(t, joined, contextCharLimit)
	assert.True(t, strings.HasPrefix(joined, "aaaa"))
}
