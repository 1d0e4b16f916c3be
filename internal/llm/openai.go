package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"rocket-cli/internal/retry"
)

const (
	defaultChatTimeout = 60 * time.Second
	probeTimeout       = 5 * time.Second
)

// OpenAIProvider talks to api.openai.com or any OpenAI-compatible /v1 server
// (LM Studio, vLLM, llama.cpp server) when a base URL override is set.
type OpenAIProvider struct {
	client     *openai.Client
	model      string
	tier       Tier
	maxRetries int
	retryBase  time.Duration
}

// NewOpenAIProvider builds a provider with the user's own key. baseURL may be
// empty for the default endpoint.
func NewOpenAIProvider(apiKey, baseURL, model string, maxRetries int, retryBase time.Duration) (*OpenAIProvider, error) {
	if apiKey == "" && baseURL == "" {
		return nil, NewConfigError("openai", "OPENAI_API_KEY is required (or set OPENAI_BASE_URL for a local server)")
	}
	if model == "" {
		model = openai.ChatModelGPT4oMini
	}
	// The SDK's own retry loop is disabled; retry.Do handles backoff so the
	// manager sees consistent behavior across providers.
	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}
	if baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(baseURL))
	}
	cli := openai.NewClient(reqOpts...)
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryBase <= 0 {
		retryBase = time.Second
	}
	return &OpenAIProvider{
		client:     &cli,
		model:      model,
		tier:       TierBYOK,
		maxRetries: maxRetries,
		retryBase:  retryBase,
	}, nil
}

func (p *OpenAIProvider) Name() string        { return "openai" }
func (p *OpenAIProvider) Tier() Tier          { return p.tier }
func (p *OpenAIProvider) SupportsTools() bool { return true }

// Generate runs a chat completion, retrying rate limits with backoff.
func (p *OpenAIProvider) Generate(ctx context.Context, opts GenerateOptions) (Response, error) {
	reqCtx, cancel := context.WithTimeout(ctx, defaultChatTimeout)
	defer cancel()

	params := p.buildParams(opts)

	var resp *openai.ChatCompletion
	err := retry.Do(reqCtx, p.maxRetries, p.retryBase, isRetryableOpenAI, func() error {
		var callErr error
		resp, callErr = p.client.Chat.Completions.New(reqCtx, params)
		return callErr
	})
	if err != nil {
		return Response{}, p.wrapError(err)
	}
	if len(resp.Choices) == 0 {
		return Response{}, Errorf(p.Name(), "no choices returned")
	}

	choice := resp.Choices[0]
	out := Response{
		Text:         choice.Message.Content,
		Model:        resp.Model,
		Provider:     p.Name(),
		FinishReason: string(choice.FinishReason),
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		args := map[string]any{}
		if raw := tc.Function.Arguments; raw != "" {
			// Malformed arguments become an empty map; the tool layer
			// reports missing parameters itself.
			_ = json.Unmarshal([]byte(raw), &args)
		}
		out.ToolCalls = append(out.ToolCalls, ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

// Stream runs a streaming chat completion, invoking fn for each content delta.
func (p *OpenAIProvider) Stream(ctx context.Context, opts GenerateOptions, fn StreamFunc) error {
	params := p.buildParams(opts)
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer stream.Close()

	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			if err := fn(delta); err != nil {
				return err
			}
		}
	}
	if err := stream.Err(); err != nil {
		return p.wrapError(err)
	}
	return nil
}

// Available probes the models endpoint with a short timeout.
func (p *OpenAIProvider) Available(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	_, err := p.client.Models.List(probeCtx)
	return err == nil
}

// Models lists model identifiers from the backend.
func (p *OpenAIProvider) Models(ctx context.Context) ([]string, error) {
	page, err := p.client.Models.List(ctx)
	if err != nil {
		return nil, p.wrapError(err)
	}
	var names []string
	for _, m := range page.Data {
		names = append(names, m.ID)
	}
	return names, nil
}

// RateLimits is not exposed by the chat API; report an open window.
func (p *OpenAIProvider) RateLimits(ctx context.Context) (RateLimit, error) {
	return RateLimit{Tier: p.tier}, nil
}

func (p *OpenAIProvider) buildParams(opts GenerateOptions) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(p.model),
		Messages: p.buildMessages(opts),
	}
	if opts.Temperature > 0 {
		params.Temperature = openai.Float(opts.Temperature)
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(opts.MaxTokens))
	}
	if len(opts.Stop) > 0 {
		params.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: opts.Stop}
	}
	for _, t := range opts.Tools {
		params.Tools = append(params.Tools, openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		}))
	}
	return params
}

func (p *OpenAIProvider) buildMessages(opts GenerateOptions) []openai.ChatCompletionMessageParamUnion {
	var messages []openai.ChatCompletionMessageParamUnion
	if opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	if len(opts.Messages) == 0 {
		return append(messages, openai.UserMessage(opts.Prompt))
	}
	for _, m := range opts.Messages {
		switch m.Role {
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		case "assistant":
			messages = append(messages, assistantMessage(m))
		case "tool":
			messages = append(messages, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}
	return messages
}

// assistantMessage converts an assistant turn, preserving tool calls so the
// model sees its own requests when tool results are replayed.
func assistantMessage(m Message) openai.ChatCompletionMessageParamUnion {
	if len(m.ToolCalls) == 0 {
		return openai.AssistantMessage(m.Content)
	}
	assistant := openai.ChatCompletionAssistantMessageParam{}
	if m.Content != "" {
		assistant.Content.OfString = openai.String(m.Content)
	}
	for _, tc := range m.ToolCalls {
		args, err := json.Marshal(tc.Arguments)
		if err != nil {
			args = []byte("{}")
		}
		assistant.ToolCalls = append(assistant.ToolCalls, openai.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
				ID: tc.ID,
				Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      tc.Name,
					Arguments: string(args),
				},
			},
		})
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

func isRetryableOpenAI(err error) bool {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return apierr.StatusCode == http.StatusTooManyRequests ||
			apierr.StatusCode >= http.StatusInternalServerError
	}
	return false
}

func (p *OpenAIProvider) wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusTooManyRequests:
			return NewRateLimitError(p.Name(), "rate limit exceeded after retries", 0, time.Time{}, "")
		case apierr.StatusCode == http.StatusUnauthorized:
			return NewConfigError(p.Name(), "invalid API key; run: rocket config set OPENAI_API_KEY <key>")
		case apierr.StatusCode >= http.StatusInternalServerError:
			return NewUnavailableError(p.Name(), "backend error: "+apierr.Error())
		}
	}
	return &ProviderError{Provider: p.Name(), Message: "request failed", Err: err}
}
