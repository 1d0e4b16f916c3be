package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const defaultOllamaURL = "http://localhost:11434"

// OllamaProvider runs prompts against a local Ollama server over its native
// HTTP API.
type OllamaProvider struct {
	baseURL string
	model   string
	httpc   *http.Client
}

// NewOllamaProvider builds a provider against baseURL (default
// http://localhost:11434).
func NewOllamaProvider(baseURL, model string) *OllamaProvider {
	if baseURL == "" {
		baseURL = defaultOllamaURL
	}
	if model == "" {
		model = "llama3.2"
	}
	return &OllamaProvider{
		baseURL: baseURL,
		model:   model,
		httpc:   &http.Client{Timeout: 5 * time.Minute},
	}
}

func (p *OllamaProvider) Name() string        { return "ollama" }
func (p *OllamaProvider) Tier() Tier          { return TierLocal }
func (p *OllamaProvider) SupportsTools() bool { return false }

type ollamaRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Stream  bool           `json:"stream"`
	Options map[string]any `json:"options,omitempty"`
}

type ollamaResponse struct {
	Model           string `json:"model"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason"`
	PromptEvalCount int    `json:"prompt_eval_count"`
	EvalCount       int    `json:"eval_count"`
	Error           string `json:"error"`
}

// Generate runs a non-streaming completion against /api/generate.
func (p *OllamaProvider) Generate(ctx context.Context, opts GenerateOptions) (Response, error) {
	body, err := p.post(ctx, "/api/generate", p.buildRequest(opts, false))
	if err != nil {
		return Response{}, err
	}
	defer body.Close()

	var out ollamaResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return Response{}, Errorf(p.Name(), "decode response: %v", err)
	}
	if out.Error != "" {
		return Response{}, Errorf(p.Name(), "%s", out.Error)
	}
	return Response{
		Text:         out.Response,
		Model:        out.Model,
		Provider:     p.Name(),
		FinishReason: out.DoneReason,
		Usage: Usage{
			PromptTokens:     out.PromptEvalCount,
			CompletionTokens: out.EvalCount,
			TotalTokens:      out.PromptEvalCount + out.EvalCount,
		},
	}, nil
}

// Stream reads the NDJSON stream from /api/generate and forwards each chunk.
func (p *OllamaProvider) Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error {
	body, err := p.post(ctx, "/api/generate", p.buildRequest(opts, true))
	if err != nil {
		return err
	}
	defer body.Close()

	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		var chunk ollamaResponse
		if err := json.Unmarshal(scanner.Bytes(), &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return Errorf(p.Name(), "%s", chunk.Error)
		}
		if chunk.Response != "" {
			if err := fn(chunk.Response); err != nil {
				return err
			}
		}
		if chunk.Done {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return Errorf(p.Name(), "stream read: %v", err)
	}
	return nil
}

// Available checks whether the server answers /api/tags.
func (p *OllamaProvider) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// Models lists locally pulled models from /api/tags.
func (p *OllamaProvider) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/api/tags", nil)
	if err != nil {
		return nil, err
	}
	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, NewUnavailableError(p.Name(), "cannot reach ollama: "+err.Error())
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, Errorf(p.Name(), "tags returned HTTP %d", resp.StatusCode)
	}
	var tags struct {
		Models []struct {
			Name string `json:"name"`
		} `json:"models"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return nil, Errorf(p.Name(), "decode tags: %v", err)
	}
	names := make([]string, 0, len(tags.Models))
	for _, m := range tags.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// RateLimits always reports an open window; local models are unmetered.
func (p *OllamaProvider) RateLimits(ctx context.Context) (RateLimit, error) {
	return RateLimit{Tier: TierLocal}, nil
}

// Pull asks the server to download a model, discarding progress output.
func (p *OllamaProvider) Pull(ctx context.Context, model string) error {
	payload := map[string]any{"name": model, "stream": false}
	body, err := p.post(ctx, "/api/pull", payload)
	if err != nil {
		return err
	}
	defer body.Close()
	_, err = io.Copy(io.Discard, body)
	return err
}

func (p *OllamaProvider) buildRequest(opts GenerateOptions, stream bool) ollamaRequest {
	// Ollama's generate endpoint takes a single prompt; fold the system
	// instruction and any prior turns into it.
	prompt := opts.Prompt
	if len(opts.Messages) > 0 {
		var buf bytes.Buffer
		for _, m := range opts.Messages {
			fmt.Fprintf(&buf, "%s: %s\n", m.Role, m.Content)
		}
		prompt = buf.String()
	}
	if opts.System != "" {
		prompt = fmt.Sprintf("System: %s\n\nUser: %s", opts.System, prompt)
	}

	options := map[string]any{}
	if opts.Temperature > 0 {
		options["temperature"] = opts.Temperature
	}
	if opts.MaxTokens > 0 {
		options["num_predict"] = opts.MaxTokens
	}
	if len(opts.Stop) > 0 {
		options["stop"] = opts.Stop
	}
	return ollamaRequest{Model: p.model, Prompt: prompt, Stream: stream, Options: options}
}

func (p *OllamaProvider) post(ctx context.Context, path string, payload any) (io.ReadCloser, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpc.Do(req)
	if err != nil {
		return nil, NewUnavailableError(p.Name(), "cannot reach ollama at "+p.baseURL+"; is it running?")
	}
	switch resp.StatusCode {
	case http.StatusOK:
		return resp.Body, nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, NewUnavailableError(p.Name(),
			fmt.Sprintf("model %q not found; pull it with: rocket models pull %s", p.model, p.model))
	default:
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, Errorf(p.Name(), "HTTP %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
}
