package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"taskchat/llm"
	"taskchat/tasktools"
)

// ToolInvocation records a single function call the model issued during a
// turn, in the shape persisted alongside the assistant message.
type ToolInvocation struct {
	ToolName   string         `json:"tool_name"`
	Parameters map[string]any `json:"parameters"`
	Result     map[string]any `json:"result"`
	Timestamp  time.Time      `json:"timestamp"`
}

// TurnResult is the outcome of a completed turn: the assistant's final text
// and every tool call made along the way, in execution order.
type TurnResult struct {
	Content     string
	Invocations []ToolInvocation
}

// Driver runs one conversational turn against a model. It is stateless across
// turns; callers supply the reconstructed history each time.
type Driver struct {
	provider      llm.Provider
	model         string
	systemPrompt  string
	maxToolRounds int
	log           hclog.Logger
}

// NewDriver builds a turn driver for the given provider and model. A
// maxToolRounds of zero or less falls back to a single round.
func NewDriver(provider llm.Provider, model, systemPrompt string, maxToolRounds int, log hclog.Logger) *Driver {
	if maxToolRounds < 1 {
		maxToolRounds = 1
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Driver{
		provider:      provider,
		model:         model,
		systemPrompt:  systemPrompt,
		maxToolRounds: maxToolRounds,
		log:           log,
	}
}

// RunTurn submits the user message on top of the given history and drives the
// function-call loop until the model produces a final text answer. Each round
// resubmits the full message list; the provider holds no session state. Tool
// failures are reported back to the model as failed results rather than
// aborting the turn.
func (d *Driver) RunTurn(ctx context.Context, history []llm.Message, userMessage string, exec *tasktools.Executor, obs TurnObserver) (*TurnResult, error) {
	if obs == nil {
		obs = NopObserver()
	}

	msgs := make([]llm.Message, 0, len(history)+2)
	if d.systemPrompt != "" {
		msgs = append(msgs, llm.NewTextMessage(llm.RoleSystem, d.systemPrompt))
	}
	msgs = append(msgs, history...)
	msgs = append(msgs, llm.NewTextMessage(llm.RoleUser, userMessage))

	req := &llm.ChatRequest{
		Model: d.model,
		Tools: exec.Declarations(),
	}

	var invocations []ToolInvocation
	for round := 0; round < d.maxToolRounds; round++ {
		obs.Thinking()

		req.Messages = msgs
		resp, err := d.provider.Chat(ctx, req)
		if err != nil {
			return nil, classifyProviderError(ctx, err)
		}

		if len(resp.ToolCalls) == 0 {
			return &TurnResult{Content: resp.Content, Invocations: invocations}, nil
		}

		msgs = append(msgs, llm.Message{
			Role:      llm.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})

		for _, call := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return nil, classifyProviderError(ctx, err)
			}

			obs.CallingTool(call.Name, call.Args)
			d.log.Debug("executing tool", "tool", call.Name, "round", round)

			result := exec.Execute(ctx, call.Name, call.Args)
			obs.ToolComplete(call.Name)

			invocations = append(invocations, ToolInvocation{
				ToolName:   call.Name,
				Parameters: call.Args,
				Result:     result,
				Timestamp:  time.Now().UTC(),
			})
			msgs = append(msgs, llm.NewToolResultMessage(call, result))
		}
	}

	d.log.Warn("tool-call loop hit round cap", "rounds", d.maxToolRounds)
	return nil, fmt.Errorf("%w: %d rounds", ErrTooManyRounds, d.maxToolRounds)
}
