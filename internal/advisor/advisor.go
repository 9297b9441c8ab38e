package advisor

import (
	"context"
	"errors"
	"fmt"

	"crypto-predictor/internal/domain"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gpt-4o"

var ErrNoChoices = errors.New("no choices in LLM response")

// LLMClient abstracts the OpenAI chat completions API for testability.
type LLMClient interface {
	CreateChatCompletion(ctx context.Context, params openai.ChatCompletionNewParams) (*openai.ChatCompletion, error)
}

// ChatClient sends role-tagged conversations to the chat completion endpoint.
type ChatClient struct {
	tracer trace.Tracer
	llm    LLMClient
	model  string
}

func NewChatClient(tracer trace.Tracer, llm LLMClient, model string) *ChatClient {
	if model == "" {
		model = DefaultModel
	}
	return &ChatClient{tracer: tracer, llm: llm, model: model}
}

func (c *ChatClient) SetModel(model string) {
	c.model = model
}

func (c *ChatClient) Model() string {
	return c.model
}

// SendMessageContexts sends the conversation as-is. With jsonMode the
// provider is asked for a well-formed JSON object instead of free text.
// Provider errors are returned wrapped but otherwise untouched.
func (c *ChatClient) SendMessageContexts(ctx context.Context, contexts []domain.MessageContext, jsonMode bool) (*domain.ChatResponse, error) {
	ctx, span := c.tracer.Start(ctx, "advisor.send-message-contexts")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.model),
		attribute.Int("llm.message_count", len(contexts)),
		attribute.Bool("llm.json_mode", jsonMode),
	)

	messages, err := buildMessages(contexts)
	if err != nil {
		return nil, err
	}

	completion, err := c.llm.CreateChatCompletion(ctx, openai.ChatCompletionNewParams{
		Model:          c.model,
		Messages:       messages,
		ResponseFormat: responseFormat(jsonMode),
	})
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, ErrNoChoices
	}

	choice := completion.Choices[0]
	resp := &domain.ChatResponse{
		ID:           completion.ID,
		Model:        completion.Model,
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Usage: domain.TokenUsage{
			PromptTokens:     completion.Usage.PromptTokens,
			CompletionTokens: completion.Usage.CompletionTokens,
			TotalTokens:      completion.Usage.TotalTokens,
		},
		Raw: completion,
	}
	span.SetAttributes(
		attribute.Int("llm.reply_length", len(resp.Content)),
		attribute.Int64("llm.total_tokens", resp.Usage.TotalTokens),
	)
	return resp, nil
}

func buildMessages(contexts []domain.MessageContext) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(contexts))
	for _, msg := range contexts {
		switch msg.Role {
		case domain.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case domain.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case domain.RoleAssistant:
			messages = append(messages, openai.AssistantMessage(msg.Content))
		default:
			return nil, fmt.Errorf("unsupported message role %q", msg.Role)
		}
	}
	return messages, nil
}

func responseFormat(jsonMode bool) openai.ChatCompletionNewParamsResponseFormatUnion {
	if jsonMode {
		return openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		}
	}
	return openai.ChatCompletionNewParamsResponseFormatUnion{
		OfText: &shared.ResponseFormatTextParam{},
	}
}

// openaiClient wraps the official SDK's chat completions service.
type openaiClient struct {
	client openai.Client
}

func NewOpenAIClient(apiKey string) LLMClient {
	client := openai.NewClient(option.WithAPIKey(apiKey))
	return &openaiClient{client: client}
}

func (c *openaiClient) CreateChatCompletion(
	ctx context.Context,
	params openai.ChatCompletionNewParams,
) (*openai.ChatCompletion, error) {
	return c.client.Chat.Completions.New(ctx, params)
}
