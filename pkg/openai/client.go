package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
)

const (
	defaultBaseURL             = "https://api.openai.com/v1"
	maxResponseBytes     int64 = 4 << 20
	errorBodyReadLimit   int64 = 1024
	defaultClientTimeout       = 60 * time.Second
)

var errAPIKeyRequired = errors.New("openai api key is required")

// Client calls the OpenAI chat completions and embeddings endpoints.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL points the client at a proxy or compatible API.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		if trimmed := strings.TrimSpace(baseURL); trimmed != "" {
			c.baseURL = strings.TrimRight(trimmed, "/")
		}
	}
}

// WithTimeout sets the per-request timeout of the default HTTP client.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 && c.httpClient != nil {
			c.httpClient.Timeout = timeout
		}
	}
}

func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}
	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultClientTimeout},
	}
	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}
	return client, nil
}

// FunctionDefinition describes a callable tool offered to the model.
type FunctionDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters"`
}

// ChatCompletionRequest is the body of POST /chat/completions. Messages stay
// raw so caller supplied fields survive the round trip untouched.
type ChatCompletionRequest struct {
	Model        string               `json:"model"`
	Messages     []json.RawMessage    `json:"messages"`
	Functions    []FunctionDefinition `json:"functions,omitempty"`
	FunctionCall any                  `json:"function_call,omitempty"`
}

// RawResponse is an upstream reply kept byte-for-byte with its status code.
type RawResponse struct {
	StatusCode int
	Body       []byte
}

// CreateChatCompletion posts a chat completion and returns the upstream reply
// verbatim, whatever its status. Only transport failures return an error.
func (c *Client) CreateChatCompletion(ctx context.Context, req ChatCompletionRequest) (*RawResponse, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "openai client not configured")
	}
	if strings.TrimSpace(req.Model) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "model is required")
	}

	resp, err := c.post(ctx, "chat/completions", req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read chat completion response")
	}
	return &RawResponse{StatusCode: resp.StatusCode, Body: body}, nil
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// CreateEmbeddings embeds every input and returns vectors in input order.
func (c *Client) CreateEmbeddings(ctx context.Context, model string, inputs []string) ([][]float32, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "openai client not configured")
	}
	if len(inputs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one input is required")
	}

	resp, err := c.post(ctx, "embeddings", embeddingRequest{Model: model, Input: inputs})
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, errorBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "embeddings request failed")
	}

	var apiResp struct {
		Data []struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		} `json:"data"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode embeddings response")
	}
	if len(apiResp.Data) != len(inputs) {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("expected %d embeddings, got %d", len(inputs), len(apiResp.Data)))
	}

	out := make([][]float32, len(inputs))
	for _, item := range apiResp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, pkgerrors.New(pkgerrors.CodeDependency, fmt.Sprintf("embedding index %d out of range", item.Index))
		}
		out[item.Index] = item.Embedding
	}
	return out, nil
}

func (c *Client) post(ctx context.Context, path string, body any) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal "+path+" request")
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(payload))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build "+path+" request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute "+path+" request")
	}
	return resp, nil
}
