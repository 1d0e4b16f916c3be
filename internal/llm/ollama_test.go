package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOllamaGenerate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/generate", r.URL.Path)

		var req ollamaRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "llama3.2", req.Model)
		require.False(t, req.Stream)
		require.Contains(t, req.Prompt, "System: be terse")

		json.NewEncoder(w).Encode(ollamaResponse{
			Model:           "llama3.2",
			Response:        "short answer",
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 12,
			EvalCount:       4,
		})
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2")
	resp, err := p.Generate(context.Background(), GenerateOptions{
		Prompt: "what is Go?",
		System: "be terse",
	})
	require.NoError(t, err)
	require.Equal(t, "short answer", resp.Text)
	require.Equal(t, "ollama", resp.Provider)
	require.Equal(t, 16, resp.Usage.TotalTokens)
}

func TestOllamaGenerateModelMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "nope")
	_, err := p.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.Error(t, err)
	require.True(t, IsUnavailable(err))
	require.Contains(t, err.Error(), "rocket models pull nope")
}

func TestOllamaStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chunks := []ollamaResponse{
			{Response: "hel"},
			{Response: "lo"},
			{Done: true},
		}
		enc := json.NewEncoder(w)
		for _, c := range chunks {
			enc.Encode(c)
		}
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2")
	var got strings.Builder
	err := p.Stream(context.Background(), GenerateOptions{Prompt: "hi"}, func(chunk string) error {
		got.WriteString(chunk)
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, "hello", got.String())
}

func TestOllamaModels(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/tags", r.URL.Path)
		w.Write([]byte(`{"models":[{"name":"llama3.2"},{"name":"codellama"}]}`))
	}))
	defer srv.Close()

	p := NewOllamaProvider(srv.URL, "llama3.2")
	models, err := p.Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"llama3.2", "codellama"}, models)
	require.True(t, p.Available(context.Background()))
}

func TestOllamaUnreachable(t *testing.T) {
	p := NewOllamaProvider("http://127.0.0.1:1", "llama3.2")
	require.False(t, p.Available(context.Background()))
	_, err := p.Generate(context.Background(), GenerateOptions{Prompt: "hi"})
	require.True(t, IsUnavailable(err))
}
