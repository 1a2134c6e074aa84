package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	resp  Response
	err   error
	calls int
	// block makes Generate wait for ctx to end
	block bool
}

func (f *fakeClient) Generate(ctx context.Context, _ []Message) (Response, error) {
	f.calls++
	if f.block {
		<-ctx.Done()
		return Response{}, ctx.Err()
	}
	return f.resp, f.err
}

func TestLimited_BlankIsUnavailable(t *testing.T) {
	l := NewLimited(&fakeClient{resp: Response{Content: "  \n", Model: "m"}}, 0, 1, time.Second)
	_, err := l.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestLimited_PassesThrough(t *testing.T) {
	boom := errors.New("boom")
	l := NewLimited(&fakeClient{err: boom}, 10, 2, time.Second)
	_, err := l.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, boom)

	ok := NewLimited(&fakeClient{resp: Response{Content: "hello"}}, 10, 2, time.Second)
	resp, err := ok.Generate(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", resp.Content)
}

func TestLimited_Timeout(t *testing.T) {
	l := NewLimited(&fakeClient{block: true}, 0, 1, 20*time.Millisecond)
	start := time.Now()
	_, err := l.Generate(context.Background(), nil)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestFactory_CreateClient(t *testing.T) {
	f := &Factory{OpenaiModel: "gpt-4o-mini"}

	c, err := f.CreateClient(context.Background(), "none")
	require.NoError(t, err)
	assert.Nil(t, c)

	c, err = f.CreateClient(context.Background(), "")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = f.CreateClient(context.Background(), "openai")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = f.CreateClient(context.Background(), "gemini")
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = f.CreateClient(context.Background(), "cohere")
	assert.Error(t, err)

	f.OpenaiAPIKey = "sk-test"
	c, err = f.CreateClient(context.Background(), "OpenAI")
	require.NoError(t, err)
	assert.IsType(t, &OpenAIClient{}, c)
}

func TestOpenAIClient_Generate(t *testing.T) {
	var gotReferrer string
	var gotBody struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotReferrer = r.Header.Get("HTTP-Referer")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "x", "object": "chat.completion", "model": "test-model",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Who is calling?"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 7, "completion_tokens": 3, "total_tokens": 10}
		}`))
	}))
	defer srv.Close()

	c := NewOpenAI("sk-test", srv.URL+"/v1", "test-model", "https://honeypot.local", "honeypot")
	resp, err := c.Generate(context.Background(), []Message{
		{Role: RoleSystem, Content: "persona"},
		{Role: RoleUser, Content: "your account is blocked"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Who is calling?", resp.Content)
	assert.Equal(t, 10, resp.TotalTokens)
	assert.Equal(t, "https://honeypot.local", gotReferrer)
	assert.Equal(t, "test-model", gotBody.Model)
	require.Len(t, gotBody.Messages, 2)
	assert.Equal(t, "system", gotBody.Messages[0].Role)
}
