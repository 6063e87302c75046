package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskchat/agent"
	"taskchat/conversation"
	"taskchat/llm"
	"taskchat/server"
	"taskchat/store"
)

// scriptedProvider returns canned responses in order.
type scriptedProvider struct {
	responses []*llm.ChatResponse
	err       error
	calls     int
}

func (p *scriptedProvider) Chat(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	if p.calls <= len(p.responses) {
		return p.responses[p.calls-1], nil
	}
	return &llm.ChatResponse{Content: "fallback"}, nil
}

var _ = Describe("HTTP API", func() {
	var (
		bundle *store.Bundle
		srv    *server.Server
	)

	newServer := func(provider llm.Provider) *server.Server {
		driver := agent.NewDriver(provider, "test-model", "", 8, nil)
		svc := conversation.NewService(bundle, driver, time.Second, nil)
		return server.New(svc, ":0", nil)
	}

	postChat := func(userID string, body any) *httptest.ResponseRecorder {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())

		req := httptest.NewRequest(http.MethodPost, "/api/"+userID+"/chat", bytes.NewReader(raw))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		return rec
	}

	BeforeEach(func() {
		bundle = store.NewMemoryBundle()
	})

	It("serves a successful chat turn", func() {
		srv = newServer(&scriptedProvider{responses: []*llm.ChatResponse{{Content: "Hello!"}}})

		rec := postChat("user-1", map[string]any{"message": "hi"})
		Expect(rec.Code).To(Equal(http.StatusOK))

		var resp conversation.TurnResponse
		Expect(json.Unmarshal(rec.Body.Bytes(), &resp)).To(Succeed())
		Expect(resp.Content).To(Equal("Hello!"))
		Expect(resp.Role).To(Equal("assistant"))
		Expect(resp.ConversationID).NotTo(BeEmpty())
	})

	It("answers health checks", func() {
		srv = newServer(&scriptedProvider{})

		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusOK))
	})

	It("rejects malformed user ids", func() {
		srv = newServer(&scriptedProvider{})

		rec := postChat("bad%20user!", map[string]any{"message": "hi"})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("rejects invalid JSON bodies", func() {
		srv = newServer(&scriptedProvider{})

		req := httptest.NewRequest(http.MethodPost, "/api/user-1/chat", bytes.NewReader([]byte("{nope")))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, req)
		Expect(rec.Code).To(Equal(http.StatusBadRequest))
	})

	It("maps validation failures to 400", func() {
		srv = newServer(&scriptedProvider{})

		rec := postChat("user-1", map[string]any{"message": "   "})
		Expect(rec.Code).To(Equal(http.StatusBadRequest))

		var body map[string]map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["code"]).To(Equal("VALIDATION_ERROR"))
	})

	It("maps unknown conversations to 404", func() {
		srv = newServer(&scriptedProvider{})

		rec := postChat("user-1", map[string]any{"message": "hi", "conversation_id": "missing"})
		Expect(rec.Code).To(Equal(http.StatusNotFound))
	})

	It("maps agent failures to 500", func() {
		srv = newServer(&scriptedProvider{err: context.DeadlineExceeded})

		rec := postChat("user-1", map[string]any{"message": "hi"})
		Expect(rec.Code).To(Equal(http.StatusInternalServerError))

		var body map[string]map[string]string
		Expect(json.Unmarshal(rec.Body.Bytes(), &body)).To(Succeed())
		Expect(body["error"]["code"]).To(Equal("AI_AGENT_TIMEOUT"))
	})

	It("maps foreign conversations to 403", func() {
		conv, err := bundle.Conversations.CreateConversation(context.Background(), "owner")
		Expect(err).NotTo(HaveOccurred())

		srv = newServer(&scriptedProvider{})
		rec := postChat("intruder", map[string]any{"message": "hi", "conversation_id": conv.ID})
		Expect(rec.Code).To(Equal(http.StatusForbidden))
	})
})
