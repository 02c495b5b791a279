package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codelens-labs/codelens/internal/config"
)

const (
	defaultOpenRouterModel   = "openai/text-embedding-3-small"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1/embeddings"
	defaultDimensions        = 1536
	openRouterMaxRetries     = 3
	openRouterRetryDelay     = 2 * time.Second
	openRouterBatchSize      = 100 // avoid huge responses that get truncated or time out
	openRouterConcurrency    = 10  // max simultaneous in-flight API requests
)

// OpenRouterClient implements Embedder using the OpenAI-compatible
// OpenRouter embeddings API.
type OpenRouterClient struct {
	apiKey     string
	model      string
	baseURL    string
	dimensions int
	http       *http.Client
}

// NewOpenRouterClient creates a new OpenRouter embedding client.
func NewOpenRouterClient(cfg config.OpenRouterConfig) (*OpenRouterClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	model := cfg.Model
	if model == "" {
		model = defaultOpenRouterModel
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	} else {
		baseURL = strings.TrimRight(baseURL, "/")
		if !strings.HasSuffix(baseURL, "/embeddings") {
			baseURL += "/embeddings"
		}
	}

	dimensions := cfg.Dimensions
	if dimensions <= 0 {
		dimensions = defaultDimensions
	}

	return &OpenRouterClient{
		apiKey:     cfg.APIKey,
		model:      model,
		baseURL:    baseURL,
		dimensions: dimensions,
		http:       &http.Client{Timeout: 30 * time.Second},
	}, nil
}

type openAIEmbedRequest struct {
	Model          string   `json:"model"`
	Input          []string `json:"input"`
	Dimensions     int      `json:"dimensions,omitempty"`
	EncodingFormat string   `json:"encoding_format,omitempty"`
}

type openAIEmbedResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// EmbedBatch generates embeddings for a batch of texts.
//
// Texts are split into sub-batches of openRouterBatchSize and up to
// openRouterConcurrency requests are sent in parallel using errgroup. Each
// chunk writes into a pre-allocated slot in the result slice, so no
// synchronisation beyond errgroup is required.
func (c *OpenRouterClient) EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type span struct {
		start int
		end   int
	}
	var spans []span
	for i := 0; i < len(texts); i += openRouterBatchSize {
		spans = append(spans, span{i, min(i+openRouterBatchSize, len(texts))})
	}

	// Pre-allocate one slot per span; each goroutine owns its own slot.
	results := make([][][]float32, len(spans))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(openRouterConcurrency)

	for idx, sp := range spans {
		eg.Go(func() error {
			payload := openAIEmbedRequest{
				Model:          c.model,
				Input:          texts[sp.start:sp.end],
				EncodingFormat: "float",
			}
			if strings.HasPrefix(c.model, "openai/") || strings.HasPrefix(c.model, "qwen/") {
				payload.Dimensions = c.dimensions
			}
			reqBody, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("marshal request (chunk %d): %w", idx, err)
			}

			var lastErr error
			for attempt := 0; attempt < openRouterMaxRetries; attempt++ {
				if attempt > 0 {
					select {
					case <-egCtx.Done():
						return egCtx.Err()
					case <-time.After(openRouterRetryDelay * time.Duration(attempt)):
					}
				}

				vectors, err := c.doEmbedRequest(egCtx, reqBody)
				if err == nil {
					results[idx] = vectors
					return nil
				}
				lastErr = err
				if !retryable(err) {
					return err
				}
			}
			return fmt.Errorf("chunk %d exhausted retries: %w", idx, lastErr)
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}

	all := make([][]float32, 0, len(texts))
	for _, r := range results {
		all = append(all, r...)
	}
	return all, nil
}

// retryable returns true for transient upstream failures worth retrying.
func retryable(err error) bool {
	s := err.Error()
	return strings.Contains(s, "status 429") ||
		strings.Contains(s, "status 529") ||
		strings.Contains(s, "status 503") ||
		strings.Contains(s, "empty response")
}

func (c *OpenRouterClient) doEmbedRequest(ctx context.Context, reqBody []byte) ([][]float32, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(reqBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embeddings API error (status %d): %s", resp.StatusCode, truncate(body, 200))
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, fmt.Errorf("embeddings API returned empty response")
	}

	var result openAIEmbedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w; body: %s", err, truncate(body, 200))
	}
	if result.Error != nil {
		return nil, fmt.Errorf("embeddings API error: %s", result.Error.Message)
	}

	vectors := make([][]float32, len(result.Data))
	for _, d := range result.Data {
		vectors[d.Index] = d.Embedding
	}
	return vectors, nil
}

func truncate(b []byte, n int) string {
	s := string(bytes.TrimSpace(b))
	if len(s) > n {
		return s[:n] + "..."
	}
	return s
}

// ModelID returns the model identifier.
func (c *OpenRouterClient) ModelID() string {
	return c.model
}
