package embedding

import (
	"context"
	"encoding/json"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"golang.org/x/sync/errgroup"

	"github.com/codelens-labs/codelens/internal/config"
)

const (
	bedrockMaxBatchSize = 96 // Cohere embed API limit
	bedrockConcurrency  = 8  // max simultaneous in-flight Bedrock requests
)

// BedrockClient wraps the AWS Bedrock runtime for embedding generation.
type BedrockClient struct {
	bedrock *bedrockruntime.Client
	modelID string
}

// NewBedrockClient creates a new Bedrock embedding client.
func NewBedrockClient(cfg config.BedrockConfig) (*BedrockClient, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return &BedrockClient{
		bedrock: bedrockruntime.NewFromConfig(awsCfg),
		modelID: cfg.ModelID,
	}, nil
}

// cohereEmbedRequest is the Cohere Embed API request format.
type cohereEmbedRequest struct {
	Texts     []string `json:"texts"`
	InputType string   `json:"input_type"`
}

// cohereEmbedResponse is the Cohere Embed API response format.
type cohereEmbedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// EmbedBatch generates embeddings for a batch of texts via AWS Bedrock.
// Texts are split into sub-batches of bedrockMaxBatchSize and up to
// bedrockConcurrency requests are sent in parallel using errgroup.
func (c *BedrockClient) EmbedBatch(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	type span struct {
		start int
		end   int
	}
	var spans []span
	for i := 0; i < len(texts); i += bedrockMaxBatchSize {
		spans = append(spans, span{i, min(i+bedrockMaxBatchSize, len(texts))})
	}

	results := make([][][]float32, len(spans))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(bedrockConcurrency)

	for idx, sp := range spans {
		eg.Go(func() error {
			vectors, err := c.embedSingle(egCtx, texts[sp.start:sp.end], inputType)
			if err != nil {
				return fmt.Errorf("chunk %d: %w", idx, err)
			}
			results[idx] = vectors
			return nil
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

func (c *BedrockClient) embedSingle(ctx context.Context, texts []string, inputType string) ([][]float32, error) {
	reqBody, err := json.Marshal(cohereEmbedRequest{
		Texts:     texts,
		InputType: inputType,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	contentType := "application/json"
	resp, err := c.bedrock.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     &c.modelID,
		ContentType: &contentType,
		Body:        reqBody,
	})
	if err != nil {
		return nil, fmt.Errorf("invoke model: %w", err)
	}

	var result cohereEmbedResponse
	if err := json.Unmarshal(resp.Body, &result); err != nil {
		return nil, fmt.Errorf("unmarshal response: %w", err)
	}

	return result.Embeddings, nil
}

// ModelID returns the Bedrock model identifier.
func (c *BedrockClient) ModelID() string { return c.modelID }
