package sqlite

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/engine"
)

var _ = Describe("Engine", func() {
	var (
		ctx context.Context
		eng *Engine
	)

	BeforeEach(func() {
		ctx = context.Background()

		tmpDir, err := os.MkdirTemp("", "recall-sqlite-*")
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = os.RemoveAll(tmpDir)
		})

		eng, err = NewEngine(filepath.Join(tmpDir, "recall.db"), zap.NewNop())
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(func() {
			_ = eng.Close()
		})
	})

	It("stores and loads a memory", func() {
		id, err := eng.AddMemory(ctx, engine.AddRequest{
			Content:    "adopted a cat named Noir",
			Summary:    "adopted a cat named Noir | the cat is called Noir",
			SessionID:  "sess-1",
			PersonaID:  "persona-1",
			Importance: 0.8,
			Metadata: map[string]any{
				"topics":         []string{"pets"},
				"schema_version": "v3",
			},
		})
		Expect(err).NotTo(HaveOccurred())
		Expect(id).NotTo(BeEmpty())

		m, err := eng.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Content).To(Equal("adopted a cat named Noir"))
		Expect(m.Summary).To(Equal("adopted a cat named Noir | the cat is called Noir"))
		Expect(m.SessionID).To(Equal("sess-1"))
		Expect(m.PersonaID).To(Equal("persona-1"))
		Expect(m.Importance).To(Equal(0.8))
		Expect(m.Metadata["schema_version"]).To(Equal("v3"))
	})

	It("assigns a unique id per insertion", func() {
		req := engine.AddRequest{Content: "a", Summary: "a", SessionID: "s", Importance: 0.5}

		id1, err := eng.AddMemory(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		id2, err := eng.AddMemory(ctx, req)
		Expect(err).NotTo(HaveOccurred())
		Expect(id1).NotTo(Equal(id2))

		n, err := eng.Count(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(n).To(Equal(2))
	})

	It("reports not connected after a handle drop", func() {
		Expect(eng.Ready()).To(BeTrue())
		Expect(eng.Close()).To(Succeed())
		Expect(eng.Ready()).To(BeFalse())

		_, err := eng.AddMemory(ctx, engine.AddRequest{Content: "a", Summary: "a", SessionID: "s"})
		Expect(errors.Is(err, engine.ErrNotConnected)).To(BeTrue())
	})

	It("restores the handle and the data on reconnect", func() {
		id, err := eng.AddMemory(ctx, engine.AddRequest{
			Content: "survives the drop", Summary: "survives the drop", SessionID: "s", Importance: 0.5,
		})
		Expect(err).NotTo(HaveOccurred())

		Expect(eng.Close()).To(Succeed())
		Expect(eng.Reconnect(ctx)).To(Succeed())
		Expect(eng.Ready()).To(BeTrue())

		m, err := eng.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		Expect(m.Content).To(Equal("survives the drop"))
	})

	It("treats reconnect on a live handle as a no-op", func() {
		Expect(eng.Reconnect(ctx)).To(Succeed())
		Expect(eng.Ready()).To(BeTrue())
	})

	It("misses on an unknown id", func() {
		_, err := eng.Get(ctx, "nope")
		Expect(err).To(HaveOccurred())
	})
})
