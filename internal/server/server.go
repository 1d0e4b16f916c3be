// Package server exposes rocket over a local HTTP API (`rocket serve`), so
// editors and scripts can reuse a running instance instead of shelling out.
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"rocket-cli/internal/agent"
	"rocket-cli/internal/app"
	"rocket-cli/internal/cache"
	"rocket-cli/internal/httputil"
	"rocket-cli/internal/llm"
	"rocket-cli/internal/prompts"
)

// New builds the router with all API routes mounted.
func New(deps app.Deps) *chi.Mux {
	r := httputil.NewRouter(deps.Log)

	r.Post("/api/generate", generateHandler(deps))
	r.Post("/api/chat", chatHandler(deps))
	r.Post("/api/run", runHandler(deps))
	r.Get("/api/status", statusHandler(deps))
	r.Get("/healthz", healthHandler(deps))

	return r
}

type generateRequest struct {
	Description string  `json:"description" validate:"required,min=3,max=4000"`
	Language    string  `json:"language" validate:"omitempty,alphanum,max=30"`
	Temperature float64 `json:"temperature" validate:"omitempty,gte=0,lte=2"`
	MaxTokens   int     `json:"max_tokens" validate:"omitempty,gt=0,lte=16384"`
}

func generateHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}
		if req.Language == "" {
			req.Language = "python"
		}
		if req.Temperature == 0 {
			req.Temperature = deps.Config.Temperature
		}
		if req.MaxTokens == 0 {
			req.MaxTokens = deps.Config.MaxTokens
		}

		ctx := r.Context()
		system := prompts.System("generate", req.Language)
		prompt := prompts.Generate(req.Description, req.Language)

		key := cache.Key("generate", deps.Config.Model, system, prompt)
		if cached, err := deps.Cache.GetResponse(ctx, key); err == nil && cached != nil {
			deps.Log.Info("cache hit", "command", "generate")
			httputil.WriteJSON(w, http.StatusOK, map[string]any{
				"text":     cached.Text,
				"model":    cached.Model,
				"provider": cached.Provider,
				"cached":   true,
			})
			return
		}

		resp, err := deps.Manager.Generate(ctx, llm.GenerateOptions{
			Prompt:      prompt,
			System:      system,
			Temperature: req.Temperature,
			MaxTokens:   req.MaxTokens,
		})
		if err != nil {
			writeProviderError(deps, w, err)
			return
		}

		ttl := time.Duration(deps.Config.CacheTTL) * time.Second
		if err := deps.Cache.SetResponse(ctx, key, &cache.Response{
			Text:     resp.Text,
			Model:    resp.Model,
			Provider: resp.Provider,
			Tokens:   resp.Usage.TotalTokens,
		}, ttl); err != nil {
			deps.Log.Warn("failed to cache response", "err", err)
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"text":     resp.Text,
			"model":    resp.Model,
			"provider": resp.Provider,
			"tokens":   resp.Usage.TotalTokens,
			"cached":   false,
		})
	}
}

type chatRequest struct {
	Message string `json:"message" validate:"required,min=1,max=8000"`
}

func chatHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		resp, err := deps.Manager.Generate(r.Context(), llm.GenerateOptions{
			Prompt:      req.Message,
			System:      prompts.ChatSystem,
			Temperature: deps.Config.Temperature,
			MaxTokens:   deps.Config.MaxTokens,
		})
		if err != nil {
			writeProviderError(deps, w, err)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"text":     resp.Text,
			"model":    resp.Model,
			"provider": resp.Provider,
			"tokens":   resp.Usage.TotalTokens,
		})
	}
}

type runRequest struct {
	Prompt string `json:"prompt" validate:"required,min=3,max=8000"`
	Mode   string `json:"mode" validate:"omitempty,alpha,max=20"`
}

func runHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httputil.Fail(deps.Log, w, "invalid payload", err, http.StatusBadRequest)
			return
		}
		if err := httputil.Validator.Struct(&req); err != nil {
			httputil.ValidationError(deps.Log, w, err)
			return
		}

		result, err := deps.Workflow.Execute(r.Context(), req.Prompt, agent.Options{
			Mode: req.Mode,
		})
		if err != nil {
			deps.Log.Error("workflow failed", "err", err)
			httputil.WriteJSON(w, http.StatusInternalServerError, result)
			return
		}
		httputil.WriteJSON(w, http.StatusOK, result)
	}
}

func statusHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		type providerStatus struct {
			Name      string `json:"name"`
			Tier      string `json:"tier"`
			Available bool   `json:"available"`
			Healthy   bool   `json:"healthy"`
			LastError string `json:"last_error,omitempty"`
		}

		statuses := deps.Manager.Statuses()
		out := make([]providerStatus, 0, len(statuses))
		for i := range statuses {
			s := &statuses[i]
			out = append(out, providerStatus{
				Name:      s.Provider.Name(),
				Tier:      s.Provider.Tier().String(),
				Available: s.Available,
				Healthy:   s.Healthy(),
				LastError: s.LastError,
			})
		}

		active := ""
		if p := deps.Manager.Active(); p != nil {
			active = p.Name()
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]any{
			"active":    active,
			"providers": out,
		})
	}
}

func healthHandler(deps app.Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("ok")); err != nil {
			deps.Log.Warn("healthz write failed", "err", err)
		}
	}
}

func writeProviderError(deps app.Deps, w http.ResponseWriter, err error) {
	switch {
	case llm.IsRateLimit(err):
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusTooManyRequests)
	case llm.IsUnavailable(err):
		httputil.Fail(deps.Log, w, err.Error(), err, http.StatusServiceUnavailable)
	default:
		httputil.Fail(deps.Log, w, "generation failed", err, http.StatusInternalServerError)
	}
}
