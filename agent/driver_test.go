package agent_test

import (
	"context"
	"errors"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskchat/agent"
	"taskchat/llm"
	"taskchat/store"
	"taskchat/tasktools"
)

// scriptedProvider replays canned responses and records every request it saw.
type scriptedProvider struct {
	mu        sync.Mutex
	responses []*llm.ChatResponse
	errs      []error
	requests  []*llm.ChatRequest
}

func (p *scriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	copied := *req
	copied.Messages = append([]llm.Message(nil), req.Messages...)
	p.requests = append(p.requests, &copied)

	i := len(p.requests) - 1
	if i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	if i < len(p.responses) {
		return p.responses[i], nil
	}
	return &llm.ChatResponse{Content: "fallback"}, nil
}

func textResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{Content: content, FinishReason: "stop"}
}

func toolCallResponse(calls ...llm.ToolCall) *llm.ChatResponse {
	return &llm.ChatResponse{ToolCalls: calls, FinishReason: "tool_calls"}
}

// recordingObserver captures progress events in order.
type recordingObserver struct {
	events []string
}

func (o *recordingObserver) Thinking() { o.events = append(o.events, "thinking") }
func (o *recordingObserver) CallingTool(name string, _ map[string]any) {
	o.events = append(o.events, "calling:"+name)
}
func (o *recordingObserver) ToolComplete(name string) {
	o.events = append(o.events, "done:"+name)
}

var _ = Describe("Driver", func() {
	var (
		bundle *store.Bundle
		exec   *tasktools.Executor
		ctx    context.Context
	)

	BeforeEach(func() {
		bundle = store.NewMemoryBundle()
		exec = tasktools.NewExecutor(bundle.Tasks, "user-1")
		ctx = context.Background()
	})

	newDriver := func(p llm.Provider, rounds int) *agent.Driver {
		return agent.NewDriver(p, "test-model", "You manage todo lists.", rounds, nil)
	}

	It("returns the model's text when no tools are requested", func() {
		provider := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("Hello!")}}

		result, err := newDriver(provider, 8).RunTurn(ctx, nil, "hi", exec, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Content).To(Equal("Hello!"))
		Expect(result.Invocations).To(BeEmpty())
	})

	It("sends the system prompt, history and user message with tool declarations", func() {
		provider := &scriptedProvider{responses: []*llm.ChatResponse{textResponse("ok")}}
		history := []llm.Message{
			llm.NewTextMessage(llm.RoleUser, "earlier question"),
			llm.NewTextMessage(llm.RoleAssistant, "earlier answer"),
		}

		_, err := newDriver(provider, 8).RunTurn(ctx, history, "next question", exec, nil)
		Expect(err).NotTo(HaveOccurred())

		Expect(provider.requests).To(HaveLen(1))
		req := provider.requests[0]
		Expect(req.Model).To(Equal("test-model"))
		Expect(req.Tools).To(HaveLen(5))
		Expect(req.Messages).To(HaveLen(4))
		Expect(req.Messages[0].Role).To(Equal(llm.RoleSystem))
		Expect(req.Messages[1].Content).To(Equal("earlier question"))
		Expect(req.Messages[3].Content).To(Equal("next question"))
	})

	It("executes requested tools and resubmits their results", func() {
		provider := &scriptedProvider{responses: []*llm.ChatResponse{
			toolCallResponse(llm.ToolCall{ID: "call-1", Name: "add_task", Args: map[string]any{"title": "buy groceries"}}),
			textResponse("Added buy groceries to your list."),
		}}

		obs := &recordingObserver{}
		result, err := newDriver(provider, 8).RunTurn(ctx, nil, "add buy groceries", exec, obs)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Content).To(Equal("Added buy groceries to your list."))

		Expect(result.Invocations).To(HaveLen(1))
		inv := result.Invocations[0]
		Expect(inv.ToolName).To(Equal("add_task"))
		Expect(inv.Parameters).To(HaveKeyWithValue("title", "buy groceries"))
		Expect(inv.Result).To(HaveKeyWithValue("success", true))
		Expect(inv.Timestamp.IsZero()).To(BeFalse())

		tasks, err := bundle.Tasks.ListTasks(ctx, "user-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].Title).To(Equal("buy groceries"))

		// Second round carries the assistant tool call and its result
		Expect(provider.requests).To(HaveLen(2))
		second := provider.requests[1].Messages
		Expect(second[len(second)-2].ToolCalls).To(HaveLen(1))
		Expect(second[len(second)-1].Role).To(Equal(llm.RoleTool))
		Expect(second[len(second)-1].ToolResult.Name).To(Equal("add_task"))

		Expect(obs.events).To(Equal([]string{
			"thinking",
			"calling:add_task",
			"done:add_task",
			"thinking",
		}))
	})

	It("feeds tool failures back to the model instead of aborting", func() {
		provider := &scriptedProvider{responses: []*llm.ChatResponse{
			toolCallResponse(llm.ToolCall{Name: "complete_task", Args: map[string]any{"task_identifier": "nothing"}}),
			textResponse("I couldn't find that task."),
		}}

		result, err := newDriver(provider, 8).RunTurn(ctx, nil, "complete nothing", exec, nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(result.Invocations).To(HaveLen(1))
		Expect(result.Invocations[0].Result).To(HaveKeyWithValue("success", false))
	})

	It("stops after the round cap", func() {
		looping := toolCallResponse(llm.ToolCall{Name: "list_tasks", Args: map[string]any{}})
		provider := &scriptedProvider{responses: []*llm.ChatResponse{looping, looping, looping}}

		_, err := newDriver(provider, 3).RunTurn(ctx, nil, "loop forever", exec, nil)
		Expect(err).To(MatchError(agent.ErrTooManyRounds))
		Expect(provider.requests).To(HaveLen(3))
	})

	It("classifies context expiry as a timeout", func() {
		provider := &scriptedProvider{errs: []error{context.DeadlineExceeded}}

		_, err := newDriver(provider, 8).RunTurn(ctx, nil, "slow", exec, nil)
		Expect(err).To(MatchError(agent.ErrTimeout))
	})

	It("classifies rate-limit failures as quota errors", func() {
		provider := &scriptedProvider{errs: []error{errors.New("googleapi: Error 429: ResourceExhausted")}}

		_, err := newDriver(provider, 8).RunTurn(ctx, nil, "hi", exec, nil)

		var quota *agent.QuotaError
		Expect(errors.As(err, &quota)).To(BeTrue())
		Expect(quota.Error()).To(ContainSubstring("quota"))
	})

	It("passes other provider failures through", func() {
		provider := &scriptedProvider{errs: []error{errors.New("connection reset")}}

		_, err := newDriver(provider, 8).RunTurn(ctx, nil, "hi", exec, nil)
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, agent.ErrTimeout)).To(BeFalse())

		var quota *agent.QuotaError
		Expect(errors.As(err, &quota)).To(BeFalse())
	})
})
