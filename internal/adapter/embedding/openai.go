package embedding

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"musicrec/internal/logging"
	"musicrec/internal/metrics"
)

// OpenAIEmbedder talks to any server exposing the OpenAI /embeddings API
// (OpenAI itself, Ollama, LocalAI, text-embeddings-inference).
type OpenAIEmbedder struct {
	apiKey    string
	model     string
	baseURL   string
	dimension int
	client    *http.Client
	breaker   *gobreaker.CircuitBreaker[[][]float32]
}

// Options tune the HTTP client and its circuit breaker.
type Options struct {
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

type embeddingRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embeddingResponse struct {
	Data  []embeddingData `json:"data"`
	Usage embeddingUsage  `json:"usage"`
	Error *apiError       `json:"error,omitempty"`
}

type embeddingData struct {
	Embedding []float32 `json:"embedding"`
	Index     int       `json:"index"`
}

type embeddingUsage struct {
	PromptTokens int `json:"prompt_tokens"`
	TotalTokens  int `json:"total_tokens"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func NewOpenAIEmbedder(apiKeyEnv, model string, opts Options) (*OpenAIEmbedder, error) {
	apiKey := os.Getenv(apiKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("API key not found in environment variable: %s", apiKeyEnv)
	}
	return newEmbedder(apiKey, model, "https://api.openai.com/v1", opts), nil
}

// NewOllamaEmbedder points at a local Ollama server. all-minilm is the
// same MiniLM-L6 sentence model the catalog was designed around.
func NewOllamaEmbedder(model, baseURL string, opts Options) *OpenAIEmbedder {
	if baseURL == "" {
		baseURL = "http://localhost:11434/v1"
	}
	return newEmbedder("ollama", model, baseURL, opts)
}

// NewCompatibleEmbedder is used for self-hosted servers; apiKeyEnv may be empty.
func NewCompatibleEmbedder(apiKeyEnv, model, baseURL string, opts Options) (*OpenAIEmbedder, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("base URL is required for provider \"compatible\"")
	}
	apiKey := ""
	if apiKeyEnv != "" {
		apiKey = os.Getenv(apiKeyEnv)
	}
	return newEmbedder(apiKey, model, baseURL, opts), nil
}

func newEmbedder(apiKey, model, baseURL string, opts Options) *OpenAIEmbedder {
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.BreakerFailures == 0 {
		opts.BreakerFailures = 5
	}

	e := &OpenAIEmbedder{
		apiKey:    apiKey,
		model:     model,
		baseURL:   baseURL,
		dimension: modelDimension(model),
		client: &http.Client{
			Timeout: opts.Timeout,
		},
	}

	e.breaker = gobreaker.NewCircuitBreaker[[][]float32](gobreaker.Settings{
		Name:    "embedding:" + model,
		Timeout: opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("embedding circuit breaker state changed")
			metrics.EmbeddingBreakerOpen.Set(boolGauge(to == gobreaker.StateOpen))
		},
	})

	return e
}

func modelDimension(model string) int {
	switch model {
	case "all-minilm", "all-minilm:l6-v2", "all-MiniLM-L6-v2", "sentence-transformers/all-MiniLM-L6-v2":
		return 384
	case "nomic-embed-text":
		return 768
	case "mxbai-embed-large":
		return 1024
	case "text-embedding-3-large":
		return 3072
	case "text-embedding-3-small", "text-embedding-ada-002":
		return 1536
	default:
		return 384
	}
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	const maxBatch = 100
	var allEmbeddings [][]float32

	for i := 0; i < len(texts); i += maxBatch {
		end := i + maxBatch
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[i:end]

		embeddings, err := e.breaker.Execute(func() ([][]float32, error) {
			return e.embedBatch(ctx, batch)
		})
		if err != nil {
			metrics.EmbeddingErrors.Inc()
			return nil, err
		}
		allEmbeddings = append(allEmbeddings, embeddings...)
	}

	return allEmbeddings, nil
}

func (e *OpenAIEmbedder) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	reqBody := embeddingRequest{
		Input: texts,
		Model: e.model,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, e.baseURL+"/embeddings", bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if e.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+e.apiKey)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	var embResp embeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		bodyPreview := string(body)
		if len(bodyPreview) > 200 {
			bodyPreview = bodyPreview[:200]
		}
		return nil, fmt.Errorf("failed to parse response (body: %s): %w", bodyPreview, err)
	}

	if embResp.Error != nil {
		return nil, fmt.Errorf("API error: %s", embResp.Error.Message)
	}

	embeddings := make([][]float32, len(texts))
	for _, data := range embResp.Data {
		if data.Index < 0 || data.Index >= len(embeddings) {
			return nil, fmt.Errorf("API returned embedding index %d out of range for %d inputs", data.Index, len(embeddings))
		}
		embeddings[data.Index] = data.Embedding
	}
	for i, emb := range embeddings {
		if emb == nil {
			return nil, fmt.Errorf("API returned no embedding for input %d", i)
		}
	}

	return embeddings, nil
}

func (e *OpenAIEmbedder) Dimension() int {
	return e.dimension
}

func (e *OpenAIEmbedder) ModelName() string {
	return e.model
}

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
