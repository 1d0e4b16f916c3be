package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"
	"time"
)

const defaultProxyURL = "https://api.rocket-cli.dev"

// ProxyProvider talks to the community proxy, a shared free-tier backend.
// Anonymous callers get a small daily quota; a GitHub token raises it.
type ProxyProvider struct {
	baseURL string
	token   string
	httpc   *http.Client

	// mu guards the limit cache; the serve command calls Generate and
	// RateLimits from concurrent request handlers.
	mu            sync.Mutex
	cachedLimit   *RateLimit
	limitFetched  time.Time
	limitCacheTTL time.Duration
}

// NewProxyProvider builds a proxy provider. token may be empty for anonymous
// access.
func NewProxyProvider(baseURL, token string) *ProxyProvider {
	if baseURL == "" {
		baseURL = defaultProxyURL
	}
	return &ProxyProvider{
		baseURL:       baseURL,
		token:         token,
		httpc:         &http.Client{Timeout: 90 * time.Second},
		limitCacheTTL: time.Minute,
	}
}

func (p *ProxyProvider) Name() string { return "proxy" }

func (p *ProxyProvider) Tier() Tier {
	if p.token != "" {
		return TierAuth
	}
	return TierAnon
}

func (p *ProxyProvider) SupportsTools() bool { return false }

type proxyRequest struct {
	Prompt            string    `json:"prompt"`
	SystemInstruction string    `json:"systemInstruction,omitempty"`
	Temperature       float64   `json:"temperature"`
	MaxTokens         int       `json:"maxTokens"`
	Messages          []Message `json:"messages,omitempty"`
}

type proxyResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	FinishReason string `json:"finishReason"`
	Error        string `json:"error"`
	Usage        struct {
		PromptTokens     int `json:"promptTokens"`
		CompletionTokens int `json:"completionTokens"`
		TotalTokens      int `json:"totalTokens"`
	} `json:"usage"`
}

// Generate posts to /v1/generate and maps proxy status codes onto the
// provider error taxonomy.
func (p *ProxyProvider) Generate(ctx context.Context, opts GenerateOptions) (Response, error) {
	payload := proxyRequest{
		Prompt:            opts.Prompt,
		SystemInstruction: opts.System,
		Temperature:       opts.Temperature,
		MaxTokens:         opts.MaxTokens,
		Messages:          opts.Messages,
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/v1/generate", bytes.NewReader(data))
	if err != nil {
		return Response{}, err
	}
	p.setHeaders(req)

	resp, err := p.httpc.Do(req)
	if err != nil {
		return Response{}, NewUnavailableError(p.Name(), "cannot reach community proxy: "+err.Error())
	}
	defer resp.Body.Close()

	var body proxyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil && resp.StatusCode == http.StatusOK {
		return Response{}, Errorf(p.Name(), "decode response: %v", err)
	}

	limit := p.parseRateLimit(resp.Header)
	p.storeLimit(limit)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		msg := body.Error
		if msg == "" {
			msg = "daily limit exceeded"
		}
		upgrade := ""
		if p.token == "" {
			upgrade = "https://rocket-cli.dev/upgrade"
		}
		return Response{}, NewRateLimitError(p.Name(), msg, limit.Limit, limit.ResetAt, upgrade)
	case http.StatusUnauthorized:
		return Response{}, NewConfigError(p.Name(), "invalid or expired GitHub token; set a fresh one with: rocket config set ROCKET_GITHUB_TOKEN <token>")
	case http.StatusServiceUnavailable:
		return Response{}, NewUnavailableError(p.Name(), "community proxy is temporarily unavailable; try again later")
	default:
		msg := body.Error
		if msg == "" {
			msg = fmt.Sprintf("HTTP %d", resp.StatusCode)
		}
		return Response{}, Errorf(p.Name(), "%s", msg)
	}

	return Response{
		Text:         body.Text,
		Model:        body.Model,
		Provider:     p.Name(),
		FinishReason: body.FinishReason,
		Usage: Usage{
			PromptTokens:     body.Usage.PromptTokens,
			CompletionTokens: body.Usage.CompletionTokens,
			TotalTokens:      body.Usage.TotalTokens,
		},
		RateLimit: &limit,
	}, nil
}

// Stream is simulated: the proxy does not stream, so the full response is
// delivered as one chunk.
func (p *ProxyProvider) Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error {
	resp, err := p.Generate(ctx, opts)
	if err != nil {
		return err
	}
	return fn(resp.Text)
}

// Available checks the proxy health endpoint.
func (p *ProxyProvider) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, p.baseURL+"/health", nil)
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

// Models returns the fixed set the proxy serves.
func (p *ProxyProvider) Models(ctx context.Context) ([]string, error) {
	return []string{"proxy-default"}, nil
}

// RateLimits returns the quota window, served from a short-lived cache to
// avoid hammering /v1/limits on every status call.
func (p *ProxyProvider) RateLimits(ctx context.Context) (RateLimit, error) {
	p.mu.Lock()
	if p.cachedLimit != nil && time.Since(p.limitFetched) < p.limitCacheTTL {
		limit := *p.cachedLimit
		p.mu.Unlock()
		return limit, nil
	}
	p.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/v1/limits", nil)
	if err != nil {
		return RateLimit{}, err
	}
	p.setHeaders(req)
	resp, err := p.httpc.Do(req)
	if err != nil {
		return RateLimit{}, NewUnavailableError(p.Name(), "cannot reach community proxy: "+err.Error())
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body) //nolint:errcheck

	limit := p.parseRateLimit(resp.Header)
	p.storeLimit(limit)
	return limit, nil
}

func (p *ProxyProvider) storeLimit(limit RateLimit) {
	p.mu.Lock()
	p.cachedLimit = &limit
	p.limitFetched = time.Now()
	p.mu.Unlock()
}

func (p *ProxyProvider) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "rocket-cli")
	if p.token != "" {
		req.Header.Set("Authorization", "Bearer "+p.token)
	}
}

func (p *ProxyProvider) parseRateLimit(h http.Header) RateLimit {
	limit := RateLimit{Tier: p.Tier()}
	if v := h.Get("X-RateLimit-Limit"); v != "" {
		limit.Limit, _ = strconv.Atoi(v)
	}
	if v := h.Get("X-RateLimit-Remaining"); v != "" {
		limit.Remaining, _ = strconv.Atoi(v)
	}
	if v := h.Get("X-RateLimit-Reset"); v != "" {
		if ts, err := strconv.ParseInt(v, 10, 64); err == nil {
			limit.ResetAt = time.Unix(ts, 0)
		}
	}
	return limit
}
