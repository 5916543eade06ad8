package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/schema"

	"github.com/zatgpt/zatgpt-backend/pkg/config"
	"github.com/zatgpt/zatgpt-backend/pkg/enums"
	"github.com/zatgpt/zatgpt-backend/pkg/metrics"
)

type stubModel struct {
	reply string
	err   error
	wait  bool

	got []llms.MessageContent
}

func (s *stubModel) GenerateContent(
	ctx context.Context,
	messages []llms.MessageContent,
	_ ...llms.CallOption,
) (*llms.ContentResponse, error) {
	s.got = messages
	if s.wait {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if s.err != nil {
		return nil, s.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: s.reply}}}, nil
}

func (s *stubModel) Call(context.Context, string, ...llms.CallOption) (string, error) {
	return s.reply, s.err
}

func TestCompleteMapsRolesInOrder(t *testing.T) {
	model := &stubModel{reply: "hi there"}
	client := NewWithModel(model, "azure", time.Second, nil)

	reply, err := client.Complete(context.Background(), []Message{
		{Role: enums.MessageRoleSystem, Content: "You are a helpful assistant."},
		{Role: enums.MessageRoleUser, Content: "hello"},
		{Role: enums.MessageRoleAssistant, Content: "hey"},
		{Role: enums.MessageRoleUser, Content: "again"},
	})
	require.NoError(t, err)
	assert.Equal(t, "hi there", reply)

	require.Len(t, model.got, 4)
	wantTypes := []schema.ChatMessageType{
		schema.ChatMessageTypeSystem,
		schema.ChatMessageTypeHuman,
		schema.ChatMessageTypeAI,
		schema.ChatMessageTypeHuman,
	}
	for i, msg := range model.got {
		assert.Equal(t, wantTypes[i], msg.Role)
	}
	assert.Equal(t, llms.TextContent{Text: "again"}, model.got[3].Parts[0])
}

func TestCompleteFailures(t *testing.T) {
	upstream := errors.New("boom")

	_, err := NewWithModel(&stubModel{err: upstream}, "azure", 0, nil).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, upstream)

	_, err = NewWithModel(&stubModel{reply: "   "}, "azure", 0, nil).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, ErrEmptyReply)

	_, err = NewWithModel(&stubModel{wait: true}, "azure", 10*time.Millisecond, nil).Complete(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCompleteRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewLLMMetrics(reg)

	_, _ = NewWithModel(&stubModel{reply: "ok"}, "openai", 0, m).Complete(context.Background(), nil)
	_, _ = NewWithModel(&stubModel{err: errors.New("x")}, "openai", 0, m).Complete(context.Background(), nil)

	count, err := testutil.GatherAndCount(reg, "llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestNewBuildsProviderClients(t *testing.T) {
	azure, err := New(config.LLMConfig{
		Provider:   config.LLMProviderAzure,
		Endpoint:   "https://example.openai.azure.com/",
		APIKey:     "key",
		Model:      "gpt-4o",
		APIVersion: "2024-02-01",
		Timeout:    time.Minute,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, time.Minute, azure.timeout)

	_, err = New(config.LLMConfig{
		Provider: config.LLMProviderOpenAI,
		APIKey:   "key",
		Model:    "gpt-4o-mini",
	}, nil)
	require.NoError(t, err)
}
