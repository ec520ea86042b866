package chat

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/betty/internal/llm"
	"github.com/fyrsmithlabs/betty/internal/retrieval"
)

type fakeRetriever struct {
	result *retrieval.Result
	err    error
}

func (f *fakeRetriever) Retrieve(context.Context, string) (*retrieval.Result, error) {
	return f.result, f.err
}

// fakeProvider records the request and returns a canned reply.
type fakeProvider struct {
	lastReq llm.Request
	reply   string
	err     error
}

func (f *fakeProvider) Complete(_ context.Context, req llm.Request) (string, error) {
	f.lastReq = req
	return f.reply, f.err
}

func (f *fakeProvider) Stream(_ context.Context, req llm.Request, fn llm.StreamFunc) (string, error) {
	f.lastReq = req
	if f.err != nil {
		return "", f.err
	}
	if fn != nil {
		if err := fn(f.reply); err != nil {
			return "", err
		}
	}
	return f.reply, nil
}

func (f *fakeProvider) Model() string { return "fake-model" }

func TestAsk_AugmentsPromptWithContext(t *testing.T) {
	retr := &fakeRetriever{result: &retrieval.Result{
		Context: "Document: roadmap.md\nContent: The PIM rollout finishes in Q3.",
		Sources: []string{"roadmap.md"},
	}}
	provider := &fakeProvider{reply: "The rollout finishes in Q3.\n\nSources: roadmap.md"}

	svc, err := NewService(retr, provider, "You are Betty.", zap.NewNop())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), "When does the PIM rollout finish?")
	require.NoError(t, err)

	assert.Equal(t, []string{"roadmap.md"}, resp.Sources)
	assert.Equal(t, "fake-model", resp.Model)
	assert.Contains(t, provider.lastReq.System, "You are Betty.")
	assert.Contains(t, provider.lastReq.System, "Relevant context from permanent knowledge base:")
	assert.Contains(t, provider.lastReq.System, "The PIM rollout finishes in Q3.")
	assert.Contains(t, provider.lastReq.System, "'Sources:' section listing the documents you referenced: roadmap.md")
	assert.Equal(t, "When does the PIM rollout finish?", provider.lastReq.UserMessage)
}

func TestAsk_NoContextLeavesPromptUnchanged(t *testing.T) {
	retr := &fakeRetriever{result: &retrieval.Result{}}
	provider := &fakeProvider{reply: "I don't have information on that."}

	svc, err := NewService(retr, provider, "You are Betty.", zap.NewNop())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), "What is the meaning of life?")
	require.NoError(t, err)

	assert.Empty(t, resp.Sources)
	assert.Equal(t, "You are Betty.", provider.lastReq.System)
}

func TestAsk_RetrievalFailureDegradesGracefully(t *testing.T) {
	retr := &fakeRetriever{err: errors.New("store unreachable")}
	provider := &fakeProvider{reply: "answering from general knowledge"}

	svc, err := NewService(retr, provider, "You are Betty.", zap.NewNop())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), "What projects exist?")
	require.NoError(t, err, "retrieval failure must not fail the turn")
	assert.Equal(t, "answering from general knowledge", resp.Text)
	assert.Equal(t, "You are Betty.", provider.lastReq.System)
}

func TestAsk_EmptyMessage(t *testing.T) {
	svc, err := NewService(nil, &fakeProvider{}, "", zap.NewNop())
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestAsk_NilRetrieverSkipsRetrieval(t *testing.T) {
	provider := &fakeProvider{reply: "plain answer"}
	svc, err := NewService(nil, provider, "prompt", zap.NewNop())
	require.NoError(t, err)

	resp, err := svc.Ask(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "plain answer", resp.Text)
	assert.Equal(t, "prompt", provider.lastReq.System)
}

func TestAskTurn_HistoryAndOptOut(t *testing.T) {
	retr := &fakeRetriever{result: &retrieval.Result{
		Context: "Document: a.md\nContent: context",
		Sources: []string{"a.md"},
	}}
	provider := &fakeProvider{reply: "reply"}

	svc, err := NewService(retr, provider, "base", zap.NewNop())
	require.NoError(t, err)

	history := []llm.Message{
		{Role: llm.RoleUser, Content: "earlier question"},
		{Role: llm.RoleAssistant, Content: "earlier answer"},
	}

	t.Run("history is forwarded to the provider", func(t *testing.T) {
		_, err := svc.AskTurn(context.Background(), Turn{Message: "follow-up", History: history})
		require.NoError(t, err)
		assert.Equal(t, history, provider.lastReq.History)
		assert.Contains(t, provider.lastReq.System, "Relevant context")
	})

	t.Run("retrieval opt-out skips augmentation", func(t *testing.T) {
		resp, err := svc.AskTurn(context.Background(), Turn{Message: "follow-up", DisableRetrieval: true})
		require.NoError(t, err)
		assert.Equal(t, "base", provider.lastReq.System)
		assert.Empty(t, resp.Sources)
	})
}

func TestStream_DeliversDeltas(t *testing.T) {
	retr := &fakeRetriever{result: &retrieval.Result{MultiPass: true}}
	provider := &fakeProvider{reply: "streamed reply"}

	svc, err := NewService(retr, provider, "", zap.NewNop())
	require.NoError(t, err)

	var got string
	resp, err := svc.Stream(context.Background(), Turn{Message: "comprehensive analysis"}, func(delta string) error {
		got += delta
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "streamed reply", got)
	assert.Equal(t, "streamed reply", resp.Text)
	assert.True(t, resp.MultiPass)
}

func TestLoadSystemPrompt(t *testing.T) {
	t.Run("empty path uses built-in prompt", func(t *testing.T) {
		prompt, err := LoadSystemPrompt("")
		require.NoError(t, err)
		assert.Contains(t, prompt, "Betty")
	})

	t.Run("reads and trims file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.txt")
		require.NoError(t, os.WriteFile(path, []byte("  You are Betty v4.3.\n"), 0o644))

		prompt, err := LoadSystemPrompt(path)
		require.NoError(t, err)
		assert.Equal(t, "You are Betty v4.3.", prompt)
	})

	t.Run("missing file errors", func(t *testing.T) {
		_, err := LoadSystemPrompt(filepath.Join(t.TempDir(), "absent.txt"))
		assert.Error(t, err)
	})

	t.Run("empty file errors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")
		require.NoError(t, os.WriteFile(path, []byte("   \n"), 0o644))
		_, err := LoadSystemPrompt(path)
		assert.Error(t, err)
	})
}

func TestAugmentSystemPrompt(t *testing.T) {
	t.Run("no context returns base", func(t *testing.T) {
		assert.Equal(t, "base", AugmentSystemPrompt("base", "", []string{"a.md"}))
	})

	t.Run("context without sources omits citation instruction", func(t *testing.T) {
		got := AugmentSystemPrompt("base", "Document: unknown\nContent: text", nil)
		assert.Contains(t, got, "Relevant context from permanent knowledge base:")
		assert.NotContains(t, got, "Sources:")
	})

	t.Run("sources joined with comma", func(t *testing.T) {
		got := AugmentSystemPrompt("base", "ctx", []string{"a.md", "b.md"})
		assert.Contains(t, got, "referenced: a.md, b.md")
	})
}
