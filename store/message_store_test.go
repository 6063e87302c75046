package store_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskchat/store"
)

var _ = Describe("MessageStore", func() {
	runMessageStoreTests := func(newBundle func() (*store.Bundle, func())) {
		var (
			bundle  *store.Bundle
			cleanup func()
			ctx     context.Context
		)

		BeforeEach(func() {
			bundle, cleanup = newBundle()
			ctx = context.Background()
		})

		AfterEach(func() {
			cleanup()
		})

		It("appends exactly two messages per turn in order", func() {
			conv, err := bundle.Conversations.CreateConversation(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())

			userMsg, assistantMsg, err := bundle.Messages.AppendTurn(ctx, conv.ID, "hello", "hi there", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(userMsg.Role).To(Equal("user"))
			Expect(assistantMsg.Role).To(Equal("assistant"))

			msgs, err := bundle.Messages.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(2))
			Expect(msgs[0].ID).To(Equal(userMsg.ID))
			Expect(msgs[0].Content).To(Equal("hello"))
			Expect(msgs[1].ID).To(Equal(assistantMsg.ID))
			Expect(msgs[1].Content).To(Equal("hi there"))
		})

		It("keeps messages sorted by creation time across turns", func() {
			conv, err := bundle.Conversations.CreateConversation(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 3; i++ {
				_, _, err := bundle.Messages.AppendTurn(ctx, conv.ID, "q", "a", nil)
				Expect(err).NotTo(HaveOccurred())
			}

			msgs, err := bundle.Messages.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(HaveLen(6))
			for i := 1; i < len(msgs); i++ {
				Expect(msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt)).To(BeFalse())
			}
			for i := 0; i < len(msgs); i += 2 {
				Expect(msgs[i].Role).To(Equal("user"))
				Expect(msgs[i+1].Role).To(Equal("assistant"))
			}
		})

		It("returns identical sequences on repeated reads", func() {
			conv, err := bundle.Conversations.CreateConversation(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = bundle.Messages.AppendTurn(ctx, conv.ID, "one", "two", nil)
			Expect(err).NotTo(HaveOccurred())

			first, err := bundle.Messages.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			second, err := bundle.Messages.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(second).To(Equal(first))
		})

		It("persists tool invocation metadata on the assistant message only", func() {
			conv, err := bundle.Conversations.CreateConversation(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())

			payload := `[{"tool_name":"add_task","parameters":{},"result":{},"timestamp":"2026-01-01T00:00:00Z"}]`
			_, assistantMsg, err := bundle.Messages.AppendTurn(ctx, conv.ID, "add it", "done", &payload)
			Expect(err).NotTo(HaveOccurred())
			Expect(assistantMsg.ToolInvocations).NotTo(BeNil())
			Expect(*assistantMsg.ToolInvocations).To(Equal(payload))

			msgs, err := bundle.Messages.ListMessages(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs[0].ToolInvocations).To(BeNil())
			Expect(msgs[1].ToolInvocations).NotTo(BeNil())
		})

		It("advances the conversation activity timestamp on each turn", func() {
			conv, err := bundle.Conversations.CreateConversation(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())

			_, _, err = bundle.Messages.AppendTurn(ctx, conv.ID, "q", "a", nil)
			Expect(err).NotTo(HaveOccurred())

			after, err := bundle.Conversations.GetConversation(ctx, conv.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(after.UpdatedAt.Before(conv.UpdatedAt)).To(BeFalse())
		})

		It("rejects turns against an unknown conversation without writing", func() {
			_, _, err := bundle.Messages.AppendTurn(ctx, "nonexistent", "q", "a", nil)
			Expect(err).To(MatchError(store.ErrNotFound))

			msgs, err := bundle.Messages.ListMessages(ctx, "nonexistent")
			Expect(err).NotTo(HaveOccurred())
			Expect(msgs).To(BeEmpty())
		})
	}

	Context("Memory backend", func() {
		runMessageStoreTests(func() (*store.Bundle, func()) {
			return store.NewMemoryBundle(), func() {}
		})
	})

	Context("SQLite backend", func() {
		runMessageStoreTests(func() (*store.Bundle, func()) {
			dir, err := os.MkdirTemp("", "store-test-*")
			Expect(err).NotTo(HaveOccurred())

			bundle, err := store.NewSQLiteBundle(filepath.Join(dir, "test.db"))
			Expect(err).NotTo(HaveOccurred())

			return bundle, func() {
				bundle.Close()
				os.RemoveAll(dir)
			}
		})
	})
})
