package store_test

import (
	"context"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"taskchat/store"
)

var _ = Describe("TaskStore", func() {
	runTaskStoreTests := func(newBundle func() (*store.Bundle, func())) {
		var (
			bundle  *store.Bundle
			cleanup func()
			tasks   store.TaskStore
			ctx     context.Context
		)

		BeforeEach(func() {
			bundle, cleanup = newBundle()
			tasks = bundle.Tasks
			ctx = context.Background()
		})

		AfterEach(func() {
			cleanup()
		})

		It("creates and lists tasks per user in creation order", func() {
			first, err := tasks.CreateTask(ctx, "user-1", "buy groceries", "milk and eggs", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(first.Completed).To(BeFalse())

			_, err = tasks.CreateTask(ctx, "user-1", "do homework", "", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = tasks.CreateTask(ctx, "user-2", "other user task", "", nil)
			Expect(err).NotTo(HaveOccurred())

			list, err := tasks.ListTasks(ctx, "user-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(2))
			Expect(list[0].Title).To(Equal("buy groceries"))
			Expect(list[0].Description).To(Equal("milk and eggs"))
			Expect(list[1].Title).To(Equal("do homework"))
		})

		It("scopes lookups to the owning user", func() {
			task, err := tasks.CreateTask(ctx, "user-1", "private", "", nil)
			Expect(err).NotTo(HaveOccurred())

			_, err = tasks.GetTask(ctx, "user-2", task.ID)
			Expect(err).To(MatchError(store.ErrNotFound))

			found, err := tasks.GetTask(ctx, "user-1", task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(found.ID).To(Equal(task.ID))
		})

		It("updates fields and refreshes the update timestamp", func() {
			task, err := tasks.CreateTask(ctx, "user-1", "draft", "", nil)
			Expect(err).NotTo(HaveOccurred())

			task.Title = "final"
			task.Completed = true
			updated, err := tasks.UpdateTask(ctx, task)
			Expect(err).NotTo(HaveOccurred())
			Expect(updated.Title).To(Equal("final"))
			Expect(updated.Completed).To(BeTrue())
			Expect(updated.UpdatedAt.Before(task.CreatedAt)).To(BeFalse())

			reread, err := tasks.GetTask(ctx, "user-1", task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(reread.Title).To(Equal("final"))
			Expect(reread.Completed).To(BeTrue())
		})

		It("deletes tasks and reports missing ones", func() {
			task, err := tasks.CreateTask(ctx, "user-1", "temp", "", nil)
			Expect(err).NotTo(HaveOccurred())

			Expect(tasks.DeleteTask(ctx, "user-1", task.ID)).To(Succeed())
			Expect(tasks.DeleteTask(ctx, "user-1", task.ID)).To(MatchError(store.ErrNotFound))

			_, err = tasks.GetTask(ctx, "user-1", task.ID)
			Expect(err).To(MatchError(store.ErrNotFound))
		})

		It("rejects updates against another user's task", func() {
			task, err := tasks.CreateTask(ctx, "user-1", "mine", "", nil)
			Expect(err).NotTo(HaveOccurred())

			task.UserID = "user-2"
			task.Title = "stolen"
			_, err = tasks.UpdateTask(ctx, task)
			Expect(err).To(MatchError(store.ErrNotFound))

			original, err := tasks.GetTask(ctx, "user-1", task.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(original.Title).To(Equal("mine"))
		})
	}

	Context("Memory backend", func() {
		runTaskStoreTests(func() (*store.Bundle, func()) {
			return store.NewMemoryBundle(), func() {}
		})
	})

	Context("SQLite backend", func() {
		runTaskStoreTests(func() (*store.Bundle, func()) {
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
