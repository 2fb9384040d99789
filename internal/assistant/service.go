package assistant

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/angelmondragon/vapevault-backend/internal/catalog"
	"github.com/angelmondragon/vapevault-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/vapevault-backend/pkg/errors"
	"github.com/angelmondragon/vapevault-backend/pkg/logger"
	"github.com/angelmondragon/vapevault-backend/pkg/openai"
)

const (
	SearchFunctionName = "search_products"
	DefaultMatchCount  = 5

	fallbackMessage = "Failed to reach the assistant"

	formattingInstruction = "You now have an array of products, each with `name`, `brand`, and `price`. " +
		"Please format your reply as a Markdown bullet list, **with a blank line between each item**. " +
		"Each bullet should read: `- Name, Brand: <brand>, Price: $<price>`."
)

var searchFunction = openai.FunctionDefinition{
	Name:        SearchFunctionName,
	Description: "Find products matching a natural-language query",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "User's search text"},
			"k": map[string]any{
				"type":        "integer",
				"description": "Number of results to return",
				"default":     DefaultMatchCount,
			},
		},
		"required": []string{"query"},
	},
}

// Reply is the upstream completion relayed to the client with its status.
type Reply struct {
	Status int
	Body   []byte
}

// Service runs the two-hop chat flow.
type Service interface {
	Chat(ctx context.Context, messages []json.RawMessage) (*Reply, error)
}

type completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (*openai.RawResponse, error)
}

type embedder interface {
	CreateEmbeddings(ctx context.Context, model string, inputs []string) ([][]float32, error)
}

type productSearcher interface {
	MatchProductVectors(ctx context.Context, embedding []float32, k int) ([]catalog.VectorMatch, error)
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type ServiceParams struct {
	Completions    completer
	Embeddings     embedder
	Products       productSearcher
	ChatModel      string
	EmbeddingModel string
	Logger         *logger.Logger
}

type service struct {
	completions    completer
	embeddings     embedder
	products       productSearcher
	chatModel      string
	embeddingModel string
	logger         *logger.Logger
}

func NewService(params ServiceParams) (Service, error) {
	if params.Completions == nil {
		return nil, fmt.Errorf("completions client required")
	}
	if params.Embeddings == nil {
		return nil, fmt.Errorf("embeddings client required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product search required")
	}
	if strings.TrimSpace(params.ChatModel) == "" || strings.TrimSpace(params.EmbeddingModel) == "" {
		return nil, fmt.Errorf("chat and embedding models required")
	}
	return &service{
		completions:    params.Completions,
		embeddings:     params.Embeddings,
		products:       params.Products,
		chatModel:      params.ChatModel,
		embeddingModel: params.EmbeddingModel,
		logger:         params.Logger,
	}, nil
}

type firstChoice struct {
	Choices []struct {
		Message json.RawMessage `json:"message"`
	} `json:"choices"`
}

type functionCallMessage struct {
	FunctionCall *struct {
		Name      string `json:"name"`
		Arguments string `json:"arguments"`
	} `json:"function_call"`
}

type searchArgs struct {
	Query string `json:"query"`
	K     *int   `json:"k"`
}

// Chat asks the model once with search_products on offer. A reply without
// that call is returned verbatim. Otherwise the query is embedded, matched
// against product vectors, and the products are handed back to the model for
// a second, formatted reply.
func (s *service) Chat(ctx context.Context, messages []json.RawMessage) (*Reply, error) {
	if len(messages) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "messages are required")
	}

	first, err := s.completions.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:        s.chatModel,
		Messages:     messages,
		Functions:    []openai.FunctionDefinition{searchFunction},
		FunctionCall: "auto",
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallbackMessage)
	}

	choice, call := parseFunctionCall(first.Body)
	if call == nil || call.FunctionCall == nil || call.FunctionCall.Name != SearchFunctionName {
		return &Reply{Status: first.StatusCode, Body: first.Body}, nil
	}

	args, err := parseSearchArgs(call.FunctionCall.Arguments)
	if err != nil {
		return nil, err
	}

	vectors, err := s.embeddings.CreateEmbeddings(ctx, s.embeddingModel, []string{args.Query})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to embed query")
	}
	if len(vectors) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "Failed to embed query")
	}

	k := DefaultMatchCount
	if args.K != nil && *args.K > 0 {
		k = *args.K
	}
	matches, err := s.products.MatchProductVectors(ctx, vectors[0], k)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to run vector search")
	}

	ids := make([]uuid.UUID, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.ProductID)
	}
	rows, err := s.products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to load products")
	}
	if s.logger != nil {
		ctx = s.logger.WithFields(ctx, map[string]any{"matches": len(matches), "products": len(rows)})
		s.logger.Debug(ctx, "assistant.search_products")
	}

	followUp, err := buildFollowUp(messages, choice, rows)
	if err != nil {
		return nil, err
	}
	second, err := s.completions.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    s.chatModel,
		Messages: followUp,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallbackMessage)
	}
	return &Reply{Status: second.StatusCode, Body: second.Body}, nil
}

func parseFunctionCall(body []byte) (json.RawMessage, *functionCallMessage) {
	var resp firstChoice
	if err := json.Unmarshal(body, &resp); err != nil || len(resp.Choices) == 0 {
		return nil, nil
	}
	choice := resp.Choices[0].Message
	var msg functionCallMessage
	if err := json.Unmarshal(choice, &msg); err != nil {
		return nil, nil
	}
	return choice, &msg
}

func parseSearchArgs(raw string) (searchArgs, error) {
	var args searchArgs
	if strings.TrimSpace(raw) == "" {
		raw = "{}"
	}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return args, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "Invalid search arguments")
	}
	return args, nil
}

func buildFollowUp(messages []json.RawMessage, choice json.RawMessage, rows []models.Product) ([]json.RawMessage, error) {
	cards := make([]catalog.ProductCard, 0, len(rows))
	for _, p := range rows {
		cards = append(cards, catalog.ProductCard{
			ID:            p.ID,
			Name:          p.Name,
			Brand:         p.Brand,
			Price:         p.Price,
			ImageURL:      p.ImageURL,
			StockQuantity: p.StockQuantity,
		})
	}
	products, err := json.Marshal(cards)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "Failed to load products")
	}
	function, err := json.Marshal(map[string]string{
		"role":    "function",
		"name":    SearchFunctionName,
		"content": string(products),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallbackMessage)
	}
	system, err := json.Marshal(map[string]string{
		"role":    "system",
		"content": formattingInstruction,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, fallbackMessage)
	}

	out := make([]json.RawMessage, 0, len(messages)+3)
	out = append(out, messages...)
	out = append(out, choice, function, system)
	return out, nil
}

// FailureMessage is the {error} text shown for a failed chat. Validation
// errors and the named upstream steps keep their own message.
func FailureMessage(err error) string {
	if typed := pkgerrors.As(err); typed != nil && typed.Message() != "" {
		return typed.Message()
	}
	return fallbackMessage
}
