// Package genai provides a model wrapper for the Google Gemini API.
package genai

import (
	"context"
	"encoding/json"
	"fmt"

	"google.golang.org/genai"

	"github.com/gridmind/gridmind/model"
)

// Options configures the Gemini model adapter.
type Options struct {
	Model       string
	Temperature float64
	APIKey      string
}

// Model wraps the Gemini API behind the generic model.Model interface.
type Model struct {
	client *genai.Client
	opts   Options
}

// NewModel creates a new Gemini model using the official client. The API key
// falls back to the GEMINI_API_KEY environment variable when empty.
func NewModel(optFns ...func(o *Options)) (*Model, error) {
	opts := Options{
		Model:       "gemini-1.5-flash",
		Temperature: 0.7,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{APIKey: opts.APIKey})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &Model{client: client, opts: opts}, nil
}

// NewModelFromClient creates a new Gemini model from an existing client
func NewModelFromClient(client *genai.Client, optFns ...func(o *Options)) *Model {
	opts := Options{
		Model:       "gemini-1.5-flash",
		Temperature: 0.7,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &Model{client: client, opts: opts}
}

// Complete performs one non-streaming generation with tool support.
func (m *Model) Complete(ctx context.Context, req model.Request) (*model.Response, error) {
	temp := float32(m.opts.Temperature)
	cfg := &genai.GenerateContentConfig{Temperature: &temp}

	if req.Instructions != "" {
		cfg.SystemInstruction = genai.NewContentFromText(req.Instructions, genai.RoleUser)
	}

	if len(req.Tools) > 0 {
		decls := make([]*genai.FunctionDeclaration, len(req.Tools))
		for i, tdef := range req.Tools {
			decls[i] = &genai.FunctionDeclaration{
				Name:                 tdef.Function.Name,
				Description:          tdef.Function.Description,
				ParametersJsonSchema: tdef.Function.Parameters,
			}
		}
		cfg.Tools = []*genai.Tool{{FunctionDeclarations: decls}}
	}

	contents, err := buildContents(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.opts.Model, contents, cfg)
	if err != nil {
		return nil, fmt.Errorf("genai api error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, fmt.Errorf("no candidates returned")
	}

	cand := resp.Candidates[0]
	out := &model.Response{FinishReason: "stop"}
	if cand.FinishReason != "" {
		out.FinishReason = string(cand.FinishReason)
	}

	for _, part := range cand.Content.Parts {
		if part.Text != "" {
			out.Text += part.Text
		}
		if part.FunctionCall != nil {
			args, err := json.Marshal(part.FunctionCall.Args)
			if err != nil {
				args = []byte("{}")
			}
			id := part.FunctionCall.ID
			if id == "" {
				id = fmt.Sprintf("call-%d", len(out.ToolCalls)+1)
			}
			out.ToolCalls = append(out.ToolCalls, model.ToolCall{
				ID:       id,
				Type:     "function",
				Function: model.ToolCallFunction{Name: part.FunctionCall.Name, Arguments: args},
			})
		}
	}
	if out.HasToolCalls() {
		out.FinishReason = "tool_calls"
	}

	if resp.UsageMetadata != nil {
		out.Usage = &model.TokenUsage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}

	return out, nil
}

// buildContents converts normalized messages to Gemini contents. Assistant
// turns map to the model role; tool results become function response parts.
func buildContents(messages []model.Message) ([]*genai.Content, error) {
	var contents []*genai.Content

	callNames := map[string]string{}
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			callNames[tc.ID] = tc.Function.Name
		}
	}

	for _, msg := range messages {
		switch msg.Role {
		case "user":
			contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
		case "assistant":
			var parts []*genai.Part
			if msg.Text != "" {
				parts = append(parts, genai.NewPartFromText(msg.Text))
			}
			for _, tc := range msg.ToolCalls {
				var args map[string]any
				if err := json.Unmarshal(tc.Function.Arguments, &args); err != nil {
					args = map[string]any{}
				}
				parts = append(parts, genai.NewPartFromFunctionCall(tc.Function.Name, args))
			}
			if len(parts) > 0 {
				contents = append(contents, genai.NewContentFromParts(parts, genai.RoleModel))
			}
		case "tool":
			name := msg.Name
			if name == "" {
				name = callNames[msg.ToolCallID]
			}
			resp := map[string]any{"result": msg.Text}
			contents = append(contents, genai.NewContentFromParts(
				[]*genai.Part{genai.NewPartFromFunctionResponse(name, resp)}, genai.RoleUser))
		default:
			if msg.Text != "" {
				contents = append(contents, genai.NewContentFromText(msg.Text, genai.RoleUser))
			}
		}
	}

	return contents, nil
}

// Info returns metadata describing this Gemini model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "genai",
		SupportsTools: true,
	}
}
