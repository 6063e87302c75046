package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

type GeminiProvider struct {
	client *genai.Client
}

func NewGeminiProvider(ctx context.Context, apiKey string) (*GeminiProvider, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiProvider{client: client}, nil
}

func (p *GeminiProvider) Close() error {
	return p.client.Close()
}

func (p *GeminiProvider) Chat(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
	model := p.client.GenerativeModel(req.Model)

	// Set system instructions
	systemContent := p.extractSystemPrompts(req.Messages)
	if systemContent != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(systemContent))
	}

	if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: p.convertDecls(req.Tools)}}
	}

	// Start chat and set history; the last message is sent separately
	chat := model.StartChat()
	chat.History = p.convertHistory(req.Messages)

	lastParts, err := p.lastMessageParts(req.Messages)
	if err != nil {
		return nil, err
	}

	resp, err := chat.SendMessage(ctx, lastParts...)
	if err != nil {
		return nil, err
	}

	out := &ChatResponse{ID: uuid.New().String()}
	if len(resp.Candidates) > 0 {
		out.FinishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
	}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			InputTokens:  int(resp.UsageMetadata.PromptTokenCount),
			OutputTokens: int(resp.UsageMetadata.CandidatesTokenCount),
		}
	}

	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			switch v := part.(type) {
			case genai.Text:
				out.Content += string(v)
			case genai.FunctionCall:
				out.ToolCalls = append(out.ToolCalls, ToolCall{
					Name: v.Name,
					Args: v.Args,
				})
			}
		}
	}

	return out, nil
}

func (p *GeminiProvider) extractSystemPrompts(messages []Message) string {
	var system string
	for _, m := range messages {
		if m.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
		}
	}
	return system
}

// convertHistory maps every non-system message except the last into Gemini
// content. Assistant tool requests become FunctionCall parts and tool results
// become FunctionResponse parts, so resubmission rounds replay faithfully.
func (p *GeminiProvider) convertHistory(messages []Message) []*genai.Content {
	msgs := p.nonSystem(messages)
	if len(msgs) > 0 {
		msgs = msgs[:len(msgs)-1]
	}

	var history []*genai.Content
	for _, m := range msgs {
		content := p.convertMessage(m)
		if content != nil {
			history = append(history, content)
		}
	}
	return history
}

func (p *GeminiProvider) convertMessage(m Message) *genai.Content {
	switch m.Role {
	case RoleUser:
		return &genai.Content{Role: "user", Parts: []genai.Part{genai.Text(m.Content)}}
	case RoleAssistant:
		parts := []genai.Part{}
		if m.Content != "" {
			parts = append(parts, genai.Text(m.Content))
		}
		for _, tc := range m.ToolCalls {
			parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: tc.Args})
		}
		if len(parts) == 0 {
			return nil
		}
		return &genai.Content{Role: "model", Parts: parts}
	case RoleTool:
		if m.ToolResult == nil {
			return nil
		}
		return &genai.Content{
			Role: "function",
			Parts: []genai.Part{genai.FunctionResponse{
				Name:     m.ToolResult.Name,
				Response: map[string]any{"result": m.ToolResult.Result},
			}},
		}
	default:
		return nil
	}
}

func (p *GeminiProvider) lastMessageParts(messages []Message) ([]genai.Part, error) {
	msgs := p.nonSystem(messages)
	if len(msgs) == 0 {
		return nil, fmt.Errorf("gemini: no message to send")
	}

	last := msgs[len(msgs)-1]
	if last.Role == RoleTool {
		if last.ToolResult == nil {
			return nil, fmt.Errorf("gemini: tool message without result")
		}
		return []genai.Part{genai.FunctionResponse{
			Name:     last.ToolResult.Name,
			Response: map[string]any{"result": last.ToolResult.Result},
		}}, nil
	}
	return []genai.Part{genai.Text(last.Content)}, nil
}

func (p *GeminiProvider) nonSystem(messages []Message) []Message {
	out := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role != RoleSystem {
			out = append(out, m)
		}
	}
	return out
}

func (p *GeminiProvider) convertDecls(decls []ToolDecl) []*genai.FunctionDeclaration {
	out := make([]*genai.FunctionDeclaration, 0, len(decls))
	for _, d := range decls {
		out = append(out, &genai.FunctionDeclaration{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  schemaToGenai(d.Parameters),
		})
	}
	return out
}

func schemaToGenai(s Schema) *genai.Schema {
	out := &genai.Schema{
		Type:       genaiType(s.Type),
		Properties: map[string]*genai.Schema{},
		Required:   s.Required,
	}
	for name, prop := range s.Properties {
		out.Properties[name] = propertyToGenai(prop)
	}
	return out
}

func propertyToGenai(p Property) *genai.Schema {
	out := &genai.Schema{
		Type:        genaiType(p.Type),
		Description: p.Description,
	}
	if p.Items != nil {
		out.Items = propertyToGenai(*p.Items)
	}
	if len(p.Properties) > 0 {
		out.Properties = map[string]*genai.Schema{}
		for name, nested := range p.Properties {
			out.Properties[name] = propertyToGenai(nested)
		}
		out.Required = p.Required
	}
	return out
}

func genaiType(t PropertyType) genai.Type {
	switch t {
	case TypeString:
		return genai.TypeString
	case TypeNumber:
		return genai.TypeNumber
	case TypeInteger:
		return genai.TypeInteger
	case TypeBoolean:
		return genai.TypeBoolean
	case TypeArray:
		return genai.TypeArray
	case TypeObject:
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}
