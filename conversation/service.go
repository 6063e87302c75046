package conversation

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/hashicorp/go-hclog"

	"taskchat/agent"
	"taskchat/store"
	"taskchat/tasktools"
)

const maxMessageLength = 10000

// TurnRequest is one inbound chat turn. ConversationID is empty for the
// first message of a new conversation. UserID is validated by the transport
// before it reaches the engine.
type TurnRequest struct {
	UserID         string
	ConversationID string
	Message        string
}

// TurnResponse is the completed turn handed back to the transport.
type TurnResponse struct {
	ConversationID  string                 `json:"conversation_id"`
	MessageID       string                 `json:"message_id"`
	Role            string                 `json:"role"`
	Content         string                 `json:"content"`
	ToolInvocations []agent.ToolInvocation `json:"tool_invocations"`
	CreatedAt       time.Time              `json:"created_at"`
}

// Service orchestrates a turn: conversation resolution, history
// reconstruction, the agent loop, and atomic persistence. It holds no
// per-conversation state; every turn is rebuilt from storage.
type Service struct {
	stores      *store.Bundle
	driver      *agent.Driver
	turnTimeout time.Duration
	log         hclog.Logger
}

// NewService wires the orchestrator. A turnTimeout of zero or less falls
// back to 30 seconds.
func NewService(stores *store.Bundle, driver *agent.Driver, turnTimeout time.Duration, log hclog.Logger) *Service {
	if turnTimeout <= 0 {
		turnTimeout = 30 * time.Second
	}
	if log == nil {
		log = hclog.NewNullLogger()
	}
	return &Service{
		stores:      stores,
		driver:      driver,
		turnTimeout: turnTimeout,
		log:         log,
	}
}

// ProcessTurn runs one full turn for the requesting user. Failures from the
// agent or persistence abort the turn with nothing persisted; conversation
// creation is never rolled back, so a conversation may exist with zero
// messages after a downstream failure. The observer may be nil.
func (s *Service) ProcessTurn(ctx context.Context, req TurnRequest, obs agent.TurnObserver) (*TurnResponse, *Error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	conv, cerr := s.resolveConversation(ctx, req)
	if cerr != nil {
		return nil, cerr
	}

	history, err := loadHistory(ctx, s.stores.Messages, conv.ID, s.log)
	if err != nil {
		s.log.Error("history retrieval failed", "conversation_id", conv.ID, "error", err)
		return nil, newError(CodeDatabaseError, "failed to load conversation history")
	}

	exec := tasktools.NewExecutor(s.stores.Tasks, req.UserID)

	turnCtx, cancel := context.WithTimeout(ctx, s.turnTimeout)
	defer cancel()

	started := time.Now()
	result, err := s.driver.RunTurn(turnCtx, FormatContext(history), req.Message, exec, obs)
	if warnAfter := s.turnTimeout - 5*time.Second; warnAfter > 0 && err == nil && time.Since(started) > warnAfter {
		s.log.Warn("turn completed close to time budget", "conversation_id", conv.ID, "elapsed", time.Since(started))
	}
	if err != nil {
		return nil, s.mapAgentError(conv.ID, err)
	}

	userMsg, assistantMsg, err := persistTurn(ctx, s.stores.Messages, conv.ID, req.Message, result, s.log)
	if err != nil {
		s.log.Error("turn persistence failed", "conversation_id", conv.ID, "error", err)
		return nil, newError(CodeDatabaseError, "failed to save conversation turn")
	}
	s.log.Debug("turn persisted", "conversation_id", conv.ID, "user_message_id", userMsg.ID, "assistant_message_id", assistantMsg.ID)

	resp := &TurnResponse{
		ConversationID:  conv.ID,
		MessageID:       assistantMsg.ID,
		Role:            assistantMsg.Role,
		Content:         assistantMsg.Content,
		ToolInvocations: result.Invocations,
		CreatedAt:       assistantMsg.CreatedAt,
	}
	if verr := validateResponse(resp); verr != nil {
		s.log.Error("response shape validation failed", "conversation_id", conv.ID, "error", verr)
		return nil, newError(CodeInternal, "internal response validation failed")
	}
	return resp, nil
}

func validateRequest(req TurnRequest) *Error {
	if req.UserID == "" {
		return newError(CodeMissingParameter, "user_id is required")
	}
	if strings.TrimSpace(req.Message) == "" {
		return newError(CodeValidation, "message cannot be empty")
	}
	if utf8.RuneCountInString(req.Message) > maxMessageLength {
		return newError(CodeValidation, "message exceeds maximum length of %d characters", maxMessageLength)
	}
	return nil
}

// resolveConversation loads the referenced conversation or creates a fresh
// one. A supplied id owned by another user is a distinct forbidden outcome,
// not a generic failure.
func (s *Service) resolveConversation(ctx context.Context, req TurnRequest) (store.Conversation, *Error) {
	if req.ConversationID == "" {
		conv, err := s.stores.Conversations.CreateConversation(ctx, req.UserID)
		if err != nil {
			s.log.Error("conversation creation failed", "user_id", req.UserID, "error", err)
			return store.Conversation{}, newError(CodeDatabaseError, "failed to create conversation")
		}
		return conv, nil
	}

	conv, err := s.stores.Conversations.GetConversation(ctx, req.ConversationID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Conversation{}, newError(CodeNotFound, "conversation %s not found", req.ConversationID)
	}
	if err != nil {
		s.log.Error("conversation lookup failed", "conversation_id", req.ConversationID, "error", err)
		return store.Conversation{}, newError(CodeDatabaseError, "failed to load conversation")
	}
	if conv.UserID != req.UserID {
		return store.Conversation{}, newError(CodeForbidden, "conversation belongs to another user")
	}
	return conv, nil
}

func (s *Service) mapAgentError(conversationID string, err error) *Error {
	var quota *agent.QuotaError
	switch {
	case errors.Is(err, agent.ErrTimeout):
		s.log.Warn("agent turn timed out", "conversation_id", conversationID)
		return newError(CodeAgentTimeout, "the assistant took too long to respond, please try again")
	case errors.As(err, &quota):
		s.log.Warn("agent quota exhausted", "conversation_id", conversationID, "cause", quota.Unwrap())
		return newError(CodeAgentError, quota.Error())
	default:
		s.log.Error("agent turn failed", "conversation_id", conversationID, "error", err)
		return newError(CodeAgentError, "the assistant failed to process the message")
	}
}

func validateResponse(resp *TurnResponse) error {
	switch {
	case resp.ConversationID == "":
		return errors.New("missing conversation_id")
	case resp.MessageID == "":
		return errors.New("missing message_id")
	case resp.Role != "assistant":
		return errors.New("unexpected role " + resp.Role)
	case resp.CreatedAt.IsZero():
		return errors.New("missing created_at")
	}
	return nil
}
