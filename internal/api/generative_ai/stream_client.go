package generativeAI

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"iter"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"

	"github.com/FACorreiaa/go-trip-planner-chat/config"
	"github.com/FACorreiaa/go-trip-planner-chat/internal/types"
)

const defaultMaxToolRounds = 4

// ToolHandler executes one tool call on behalf of the model.
type ToolHandler func(ctx context.Context, call types.ToolCall) types.ToolExecutionResult

// StreamRequest is one user turn sent to the model.
type StreamRequest struct {
	SystemPrompt string
	History      []types.LLMHistoryMessage
	Message      string
	HandleTool   ToolHandler
}

// ChatStreamer streams a model reply. The sequence always ends with exactly
// one done or error chunk unless the consumer stops early.
type ChatStreamer interface {
	StreamChat(ctx context.Context, req StreamRequest) iter.Seq[types.LLMChunk]
}

// chatSession is the part of *genai.Chat the client drives.
type chatSession interface {
	SendMessageStream(ctx context.Context, parts ...genai.Part) iter.Seq2[*genai.GenerateContentResponse, error]
}

type sessionFactory func(ctx context.Context, cfg *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error)

var _ ChatStreamer = (*AIClient)(nil)

type AIClient struct {
	newSession    sessionFactory
	model         string
	temperature   float32
	maxToolRounds int
	logger        *slog.Logger
}

func NewAIClient(ctx context.Context, cfg config.LLMConfig, logger *slog.Logger) (*AIClient, error) {
	ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "NewAIClient")
	defer span.End()

	if cfg.APIKey == "" {
		err := errors.New("gemini api key is not set")
		span.RecordError(err)
		span.SetStatus(codes.Error, "API key not set")
		return nil, err
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Failed to create Gemini client")
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	factory := func(ctx context.Context, gc *genai.GenerateContentConfig, history []*genai.Content) (chatSession, error) {
		chat, err := client.Chats.Create(ctx, cfg.Model, gc, history)
		if err != nil {
			return nil, err
		}
		return chat, nil
	}
	return newAIClient(factory, cfg, logger), nil
}

func newAIClient(factory sessionFactory, cfg config.LLMConfig, logger *slog.Logger) *AIClient {
	rounds := cfg.MaxToolRounds
	if rounds <= 0 {
		rounds = defaultMaxToolRounds
	}
	return &AIClient{
		newSession:    factory,
		model:         cfg.Model,
		temperature:   cfg.Temperature,
		maxToolRounds: rounds,
		logger:        logger,
	}
}

func (ai *AIClient) generateConfig(systemPrompt string) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(ai.temperature),
		Tools:       []*genai.Tool{{FunctionDeclarations: ToolDeclarations()}},
	}
	if systemPrompt != "" {
		gc.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}
	return gc
}

func historyContents(history []types.LLMHistoryMessage) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		if m.Content == "" {
			continue
		}
		role := genai.RoleUser
		if m.Role == types.RoleAssistant {
			role = genai.RoleModel
		}
		out = append(out, genai.NewContentFromText(m.Content, genai.Role(role)))
	}
	return out
}

// StreamChat sends the message and yields text as it arrives. Function calls
// are executed through req.HandleTool and their results fed back to the model
// for at most maxToolRounds rounds.
func (ai *AIClient) StreamChat(ctx context.Context, req StreamRequest) iter.Seq[types.LLMChunk] {
	return func(yield func(types.LLMChunk) bool) {
		ctx, span := otel.Tracer("GenerativeAI").Start(ctx, "StreamChat")
		defer span.End()
		span.SetAttributes(
			attribute.String("model", ai.model),
			attribute.Int("history.length", len(req.History)),
			attribute.Int("prompt.length", len(req.Message)),
		)
		l := ai.logger.With(slog.String("method", "StreamChat"))

		fail := func(err error) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "stream failed")
			yield(types.LLMChunk{Type: types.LLMChunkError, Err: err})
		}

		session, err := ai.newSession(ctx, ai.generateConfig(req.SystemPrompt), historyContents(req.History))
		if err != nil {
			fail(fmt.Errorf("failed to create chat: %w", err))
			return
		}

		parts := []genai.Part{{Text: req.Message}}
		for round := 0; ; round++ {
			var calls []*genai.FunctionCall
			for resp, err := range session.SendMessageStream(ctx, parts...) {
				if err != nil {
					fail(fmt.Errorf("gemini stream: %w", err))
					return
				}
				for _, part := range responseParts(resp) {
					switch {
					case part.FunctionCall != nil:
						calls = append(calls, part.FunctionCall)
					case part.Text != "" && !part.Thought:
						if !yield(types.LLMChunk{Type: types.LLMChunkText, Text: part.Text}) {
							return
						}
					}
				}
			}
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			if len(calls) == 0 {
				break
			}
			if round >= ai.maxToolRounds {
				l.WarnContext(ctx, "tool round limit reached, ending turn", slog.Int("rounds", round))
				break
			}

			parts = parts[:0]
			for _, fc := range calls {
				call := toolCall(fc)
				var res types.ToolExecutionResult
				if req.HandleTool != nil {
					res = req.HandleTool(ctx, call)
				} else {
					res = types.ToolExecutionResult{Success: false, Error: "tools are not available"}
				}
				if !yield(types.LLMChunk{Type: types.LLMChunkToolCall, ToolCall: &call, ToolResult: &res}) {
					return
				}
				p := genai.NewPartFromFunctionResponse(fc.Name, functionResponse(res))
				p.FunctionResponse.ID = fc.ID
				parts = append(parts, *p)
			}
		}

		span.SetStatus(codes.Ok, "stream completed")
		yield(types.LLMChunk{Type: types.LLMChunkDone})
	}
}

func responseParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func toolCall(fc *genai.FunctionCall) types.ToolCall {
	args, err := json.Marshal(fc.Args)
	if err != nil || fc.Args == nil {
		args = json.RawMessage(`{}`)
	}
	return types.ToolCall{ID: fc.ID, Name: fc.Name, Args: args}
}

// functionResponse shapes a tool result the way Gemini expects it: an
// "output" key on success and an "error" key otherwise.
func functionResponse(res types.ToolExecutionResult) map[string]any {
	if !res.Success {
		return map[string]any{"error": res.Error}
	}
	var output any
	if b, err := json.Marshal(res.Data); err == nil {
		_ = json.Unmarshal(b, &output)
	}
	return map[string]any{"output": output}
}
