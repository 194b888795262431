package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/vinayprograms/slackagent/errors"
)

// GoogleProvider implements the Provider interface using the official Google Gemini SDK.
type GoogleProvider struct {
	client    *genai.Client
	model     *genai.GenerativeModel
	modelName string
	maxTokens int
}

// GoogleConfig holds configuration for the Google provider.
type GoogleConfig struct {
	APIKey    string
	Model     string
	MaxTokens int
}

// NewGoogleProvider creates a new Google Gemini provider using the official SDK.
func NewGoogleProvider(cfg GoogleConfig) (*GoogleProvider, error) {
	if cfg.APIKey == "" {
		return nil, errors.Validation("api_key is required for google")
	}
	if cfg.Model == "" {
		return nil, errors.Validation("model is required for google")
	}
	if cfg.MaxTokens <= 0 {
		return nil, errors.Validation("max_tokens is required for google")
	}

	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, errors.Initialization("failed to create google client: "+err.Error(), errors.WithCause(err))
	}

	model := client.GenerativeModel(cfg.Model)
	maxTokens := int32(cfg.MaxTokens)
	model.MaxOutputTokens = &maxTokens

	return &GoogleProvider{
		client:    client,
		model:     model,
		modelName: cfg.Model,
		maxTokens: cfg.MaxTokens,
	}, nil
}

// Close closes the underlying client.
func (p *GoogleProvider) Close() error {
	return p.client.Close()
}

// Chat implements the Provider interface.
func (p *GoogleProvider) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	for _, m := range req.Messages {
		if m.Role == "system" {
			p.model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(m.Content)},
			}
			break
		}
	}

	if len(req.Tools) > 0 {
		funcDecls := make([]*genai.FunctionDeclaration, 0, len(req.Tools))
		for _, t := range req.Tools {
			funcDecls = append(funcDecls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  convertToGeminiSchema(t.Parameters),
			})
		}
		p.model.Tools = []*genai.Tool{{FunctionDeclarations: funcDecls}}
	}

	cs := p.model.StartChat()

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			continue
		case "user":
			cs.History = append(cs.History, &genai.Content{
				Role:  "user",
				Parts: []genai.Part{genai.Text(m.Content)},
			})
		case "assistant":
			content := &genai.Content{
				Role:  "model",
				Parts: []genai.Part{},
			}
			if m.Content != "" {
				content.Parts = append(content.Parts, genai.Text(m.Content))
			}
			for _, tc := range m.ToolCalls {
				content.Parts = append(content.Parts, genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Args,
				})
			}
			cs.History = append(cs.History, content)
		case "tool":
			// ToolCallID carries the tool name in Gemini's format
			cs.History = append(cs.History, &genai.Content{
				Role: "user",
				Parts: []genai.Part{
					genai.FunctionResponse{
						Name:     m.ToolCallID,
						Response: map[string]interface{}{"result": m.Content},
					},
				},
			})
		}
	}

	// The last user message becomes the prompt rather than history.
	var prompt string
	if len(cs.History) > 0 && cs.History[len(cs.History)-1].Role == "user" {
		lastContent := cs.History[len(cs.History)-1]
		cs.History = cs.History[:len(cs.History)-1]
		if len(lastContent.Parts) > 0 {
			if text, ok := lastContent.Parts[0].(genai.Text); ok {
				prompt = string(text)
			}
		}
	}

	resp, err := cs.SendMessage(ctx, genai.Text(prompt))
	if err != nil {
		return nil, classifySDKError("google", err)
	}

	result := &ChatResponse{
		Model: p.modelName,
	}

	if len(resp.Candidates) > 0 {
		candidate := resp.Candidates[0]
		if candidate.FinishReason != 0 {
			result.StopReason = candidate.FinishReason.String()
		}

		if candidate.Content != nil {
			for _, part := range candidate.Content.Parts {
				switch v := part.(type) {
				case genai.Text:
					result.Content += string(v)
				case genai.FunctionCall:
					result.ToolCalls = append(result.ToolCalls, ToolCallResponse{
						ID:   fmt.Sprintf("call_%s", v.Name),
						Name: v.Name,
						Args: v.Args,
					})
				}
			}
		}
	}

	if resp.UsageMetadata != nil {
		result.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		result.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	return result, nil
}

// convertToGeminiSchema converts a JSON Schema map to Gemini's Schema type.
func convertToGeminiSchema(params map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if props, ok := params["properties"].(map[string]interface{}); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, prop := range props {
			if propMap, ok := prop.(map[string]interface{}); ok {
				schema.Properties[name] = convertPropertyToSchema(propMap)
			}
		}
	}

	if required, ok := params["required"].([]interface{}); ok {
		for _, r := range required {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	}

	return schema
}

// convertPropertyToSchema converts a single property to Gemini Schema.
func convertPropertyToSchema(prop map[string]interface{}) *genai.Schema {
	schema := &genai.Schema{}

	if typ, ok := prop["type"].(string); ok {
		switch typ {
		case "string":
			schema.Type = genai.TypeString
		case "number":
			schema.Type = genai.TypeNumber
		case "integer":
			schema.Type = genai.TypeInteger
		case "boolean":
			schema.Type = genai.TypeBoolean
		case "array":
			schema.Type = genai.TypeArray
			if items, ok := prop["items"].(map[string]interface{}); ok {
				schema.Items = convertPropertyToSchema(items)
			}
		case "object":
			schema.Type = genai.TypeObject
			if props, ok := prop["properties"].(map[string]interface{}); ok {
				schema.Properties = make(map[string]*genai.Schema)
				for name, p := range props {
					if propMap, ok := p.(map[string]interface{}); ok {
						schema.Properties[name] = convertPropertyToSchema(propMap)
					}
				}
			}
		}
	}

	if desc, ok := prop["description"].(string); ok {
		schema.Description = desc
	}

	return schema
}
