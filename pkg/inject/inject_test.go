package inject_test

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/command"
	"github.com/inkmem/etch/pkg/engine"
	"github.com/inkmem/etch/pkg/enginetest"
	"github.com/inkmem/etch/pkg/extract"
	"github.com/inkmem/etch/pkg/guard"
	"github.com/inkmem/etch/pkg/host"
	"github.com/inkmem/etch/pkg/inject"
	"github.com/inkmem/etch/pkg/locate"
	"github.com/inkmem/etch/pkg/record"
)

// newInserter wires an Inserter against a fake engine registered under the
// default plugin name. call is the extraction provider; nil means no
// provider configured.
func newInserter(eng *enginetest.Engine, call extract.CallFunc) *inject.Inserter {
	log := zap.NewNop()

	registry := host.NewRegistry()
	Expect(registry.Register(&enginetest.Plugin{PluginName: "recall", Eng: eng})).To(Succeed())

	assembler, err := record.NewAssembler(record.Config{DefaultImportance: 0.8})
	Expect(err).NotTo(HaveOccurred())

	return inject.New(
		locate.New(registry, "recall", log),
		guard.New(log),
		extract.New(call, time.Second, log),
		assembler,
		inject.Config{MaxContentChars: 4096},
		log,
	)
}

var _ = Describe("InsertText", func() {
	var (
		ctx context.Context
		eng *enginetest.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		eng = enginetest.NewEngine()
	})

	It("inserts with extracted fields and the default importance", func() {
		call := func(_ context.Context, _ string) (string, error) {
			return `{"topics": ["pets"], "key_facts": ["has a cat"], "sentiment": "positive"}`, nil
		}
		inserter := newInserter(eng, call)

		report, err := inserter.InsertText(ctx, &command.AddCommand{Text: "adopted a cat named Noir"}, "sess-1", "persona-1")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.ID).To(Equal("mem-0001"))
		Expect(report.Importance).To(Equal(0.8))
		Expect(report.Topics).To(Equal([]string{"pets"}))
		Expect(report.Sentiment).To(Equal("positive"))

		Expect(eng.Added).To(HaveLen(1))
		req := eng.Added[0]
		Expect(req.Content).To(Equal("adopted a cat named Noir"))
		Expect(req.Summary).To(Equal("adopted a cat named Noir | has a cat"))
		Expect(req.SessionID).To(Equal("sess-1"))
		Expect(req.PersonaID).To(Equal("persona-1"))
		Expect(req.Metadata["schema_version"]).To(Equal("v3"))
	})

	It("still inserts with defaults when extraction fails", func() {
		call := func(_ context.Context, _ string) (string, error) {
			return "", errors.New("connection refused")
		}
		inserter := newInserter(eng, call)

		report, err := inserter.InsertText(ctx, &command.AddCommand{Text: "ships on Fridays"}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Importance).To(Equal(0.8))
		Expect(report.Topics).To(BeEmpty())
		Expect(report.Sentiment).To(Equal("neutral"))

		Expect(eng.Added[0].Summary).To(Equal("ships on Fridays"))
	})

	It("still inserts when no provider is configured at all", func() {
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: "ships on Fridays"}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Added).To(HaveLen(1))
	})

	It("honors the importance override", func() {
		imp := 0.95
		inserter := newInserter(eng, nil)

		report, err := inserter.InsertText(ctx, &command.AddCommand{Text: "allergic to shellfish", Importance: &imp}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Importance).To(Equal(0.95))
		Expect(eng.Added[0].Importance).To(Equal(0.95))
	})

	It("rejects an out-of-range importance before any engine traffic", func() {
		imp := 1.5
		called := false
		call := func(_ context.Context, _ string) (string, error) {
			called = true
			return "", nil
		}
		inserter := newInserter(eng, call)

		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: "a", Importance: &imp}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(command.IsUsageError(err)).To(BeTrue())
		Expect(called).To(BeFalse())
		Expect(eng.Added).To(BeEmpty())
	})

	It("rejects empty text as a usage error", func() {
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: "   "}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(command.IsUsageError(err)).To(BeTrue())
	})

	It("rejects text over the configured limit", func() {
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: strings.Repeat("x", 4097)}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(command.IsUsageError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("too long"))
	})

	It("counts the limit in characters, not bytes", func() {
		inserter := newInserter(eng, nil)

		// 2000 CJK characters are 6000 bytes but well under the limit.
		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: strings.Repeat("记", 2000)}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.Added).To(HaveLen(1))

		_, err = inserter.InsertText(ctx, &command.AddCommand{Text: strings.Repeat("记", 4097)}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("4097 chars"))
	})

	It("rejects a missing session id", func() {
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertText(ctx, &command.AddCommand{Text: "a"}, "", "")
		Expect(err).To(HaveOccurred())
		Expect(command.IsUsageError(err)).To(BeTrue())
	})
})

var _ = Describe("InsertPayload", func() {
	var (
		ctx context.Context
		eng *enginetest.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		eng = enginetest.NewEngine()
	})

	It("inserts the payload without any LLM call", func() {
		imp := 0.95
		called := false
		call := func(_ context.Context, _ string) (string, error) {
			called = true
			return "", nil
		}
		inserter := newInserter(eng, call)

		report, err := inserter.InsertPayload(ctx, &command.Payload{
			Text:       "A",
			Topics:     []string{"t"},
			KeyFacts:   []string{"f1", "f2"},
			Sentiment:  "neutral",
			Importance: &imp,
		}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(called).To(BeFalse())

		Expect(report.Importance).To(Equal(0.95))
		Expect(eng.Added).To(HaveLen(1))
		Expect(eng.Added[0].Summary).To(Equal("A | f1；f2"))
		Expect(eng.Added[0].Metadata["key_facts"]).To(Equal([]string{"f1", "f2"}))
	})

	It("surfaces engine failures with context", func() {
		eng.FailAdd = errors.New("disk full")
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertPayload(ctx, &command.Payload{
			Text: "A", Sentiment: "neutral",
		}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("inserting memory"))
		Expect(err.Error()).To(ContainSubstring("disk full"))
	})
})

var _ = Describe("insertion against a degraded engine", func() {
	var (
		ctx context.Context
		eng *enginetest.Engine
	)

	BeforeEach(func() {
		ctx = context.Background()
		eng = enginetest.NewEngine()
	})

	It("reconnects a dropped storage handle and proceeds", func() {
		eng.ReadyState = false
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertPayload(ctx, &command.Payload{Text: "A", Sentiment: "neutral"}, "sess-1", "")
		Expect(err).NotTo(HaveOccurred())
		Expect(eng.ReconnectCalls).To(Equal(1))
		Expect(eng.Added).To(HaveLen(1))
	})

	It("aborts when the reconnect fails", func() {
		eng.ReadyState = false
		eng.FailReconnect = errors.New("database locked")
		inserter := newInserter(eng, nil)

		_, err := inserter.InsertPayload(ctx, &command.Payload{Text: "A", Sentiment: "neutral"}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, engine.ErrNotConnected)).To(BeTrue())
		Expect(eng.Added).To(BeEmpty())
	})

	It("fails with ErrUnavailable when no plugin carries an engine", func() {
		log := zap.NewNop()
		registry := host.NewRegistry()
		assembler, err := record.NewAssembler(record.Config{DefaultImportance: 0.8})
		Expect(err).NotTo(HaveOccurred())

		inserter := inject.New(
			locate.New(registry, "recall", log),
			guard.New(log),
			extract.New(nil, time.Second, log),
			assembler,
			inject.Config{},
			log,
		)

		_, err = inserter.InsertPayload(ctx, &command.Payload{Text: "A", Sentiment: "neutral"}, "sess-1", "")
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, engine.ErrUnavailable)).To(BeTrue())
	})
})

var _ = Describe("Report", func() {
	It("previews long content at 100 characters", func() {
		r := &inject.Report{Content: strings.Repeat("x", 150)}
		Expect(r.Preview()).To(HaveLen(103))
		Expect(r.Preview()).To(HaveSuffix("..."))
	})

	It("passes short content through", func() {
		r := &inject.Report{Content: "short"}
		Expect(r.Preview()).To(Equal("short"))
	})

	It("never splits a multi-byte character", func() {
		r := &inject.Report{Content: strings.Repeat("忆", 150)}
		preview := r.Preview()
		Expect(utf8.ValidString(preview)).To(BeTrue())
		Expect(preview).To(Equal(strings.Repeat("忆", 100) + "..."))
	})
})
