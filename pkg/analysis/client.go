// Package analysis talks to the Gemini model that turns a skin photo into a SkinAnalysis.
package analysis

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/unowned-ai/dermavision/pkg/journal"
)

const (
	DefaultModel = "gemini-2.5-flash"
	// APIKeySetting names the credential in configuration errors.
	APIKeySetting = "API key (DERMAVISION_API_KEY)"
)

const instruction = `Analyze this image of human skin. Identify potential dermatological issues like acne, pimples, scars, pigmentation, moles, or rashes.
Based on the visual analysis, provide a list of identified issues.
For each issue, recommend suitable food items and over-the-counter medicines or treatments.
If the skin appears healthy, return an empty array.
Strictly follow the provided JSON schema.`

// Analyzer turns an image into a SkinAnalysis.
type Analyzer interface {
	Analyze(ctx context.Context, img Image) (journal.SkinAnalysis, error)
}

// Generator is the slice of the genai client the adapter needs. *genai.Models satisfies it.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type Config struct {
	APIKey string
	Model  string
}

type Option func(*Client)

// WithGenerator replaces the genai backend, mostly for tests.
func WithGenerator(gen Generator) Option {
	return func(c *Client) {
		c.gen = gen
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is the only network-facing piece of dermavision. One attempt per call,
// no retries, no caching.
type Client struct {
	cfg    Config
	logger *zap.Logger

	mu  sync.Mutex
	gen Generator
}

// New returns a client. A missing API key is only reported when Analyze is called.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	c := &Client{cfg: cfg, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// Analyze sends img to the model and validates the structured answer.
func (c *Client) Analyze(ctx context.Context, img Image) (journal.SkinAnalysis, error) {
	if c.cfg.APIKey == "" {
		return nil, &ConfigurationError{Setting: APIKeySetting}
	}
	if len(img.Data) == 0 {
		return nil, ErrEmptyImage
	}

	gen, err := c.generator(ctx)
	if err != nil {
		return nil, &ServiceError{Op: "connect", Err: err}
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(img.Data, img.MIMEType),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema:   analysisSchema(),
	}

	start := time.Now()
	resp, err := gen.GenerateContent(ctx, c.cfg.Model, contents, config)
	if err != nil {
		c.logger.Warn("Analysis request failed", zap.String("model", c.cfg.Model), zap.Error(err))
		return nil, &ServiceError{Op: "generate", Err: err}
	}
	if resp == nil {
		return nil, &ServiceError{Op: "generate", Err: fmt.Errorf("%w: no response", ErrInvalidResponse)}
	}

	result, err := ParseAnalysis([]byte(resp.Text()))
	if err != nil {
		c.logger.Warn("Analysis response rejected", zap.String("model", c.cfg.Model), zap.Error(err))
		return nil, &ServiceError{Op: "parse", Err: err}
	}

	c.logger.Debug("Analysis received",
		zap.String("model", c.cfg.Model),
		zap.Int("issues", len(result)),
		zap.Duration("took", time.Since(start)))
	return result, nil
}

func (c *Client) generator(ctx context.Context) (Generator, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.gen != nil {
		return c.gen, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	c.gen = client.Models
	return c.gen, nil
}

// analysisSchema is the response schema the model is asked to follow.
func analysisSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"issue": {
					Type:        genai.TypeString,
					Description: "The identified skin issue, e.g., 'Acne Vulgaris', 'Hyperpigmentation', 'Scarring'.",
				},
				"description": {
					Type:        genai.TypeString,
					Description: "A brief, user-friendly description of the identified issue.",
				},
				"food_recommendations": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of food items beneficial for this condition.",
				},
				"medicine_recommendations": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "A list of over-the-counter medicines or treatments. Include common brand names if applicable.",
				},
			},
			Required: []string{"issue", "description", "food_recommendations", "medicine_recommendations"},
		},
	}
}
