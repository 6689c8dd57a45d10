package locate

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"go.uber.org/zap"

	"github.com/inkmem/etch/pkg/engine"
	"github.com/inkmem/etch/pkg/enginetest"
	"github.com/inkmem/etch/pkg/host"
)

var _ = Describe("Engine", func() {
	var registry *host.Registry

	BeforeEach(func() {
		registry = host.NewRegistry()
	})

	It("resolves the engine from the configured plugin name", func() {
		eng := enginetest.NewEngine()
		Expect(registry.Register(&enginetest.Plugin{PluginName: "recall", Eng: eng})).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		got, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(eng))
	})

	It("falls back to scanning when the name does not match", func() {
		eng := enginetest.NewEngine()
		Expect(registry.Register(&enginetest.Bare{PluginName: "telemetry"})).To(Succeed())
		Expect(registry.Register(&enginetest.Plugin{PluginName: "recall-next", Eng: eng})).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		got, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(eng))
	})

	It("fails with ErrUnavailable when no plugin carries an engine", func() {
		Expect(registry.Register(&enginetest.Bare{PluginName: "telemetry"})).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		_, err := l.Engine()
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, engine.ErrUnavailable)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring(`"recall" plugin`))
	})

	It("fails when the plugin exists but its engine is not initialized", func() {
		Expect(registry.Register(&enginetest.Plugin{PluginName: "recall", Stale: true})).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		_, err := l.Engine()
		Expect(errors.Is(err, engine.ErrUnavailable)).To(BeTrue())
	})

	It("re-resolves when the cached provider goes stale", func() {
		eng := enginetest.NewEngine()
		plugin := &enginetest.Plugin{PluginName: "recall", Eng: eng}
		Expect(registry.Register(plugin)).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		_, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())

		// Simulate a plugin reload: old provider goes stale, a fresh
		// plugin registers under the same name with a new engine.
		plugin.Stale = true
		registry.Deregister("recall")
		fresh := enginetest.NewEngine()
		Expect(registry.Register(&enginetest.Plugin{PluginName: "recall", Eng: fresh})).To(Succeed())

		got, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(fresh))
	})

	It("fetches through the provider on every call rather than caching the engine", func() {
		eng := enginetest.NewEngine()
		plugin := &enginetest.Plugin{PluginName: "recall", Eng: eng}
		Expect(registry.Register(plugin)).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		_, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())

		// The plugin swaps its engine in place; the locator must hand
		// back the replacement, not the original.
		replacement := enginetest.NewEngine()
		plugin.Eng = replacement

		got, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())
		Expect(got).To(BeIdenticalTo(replacement))
	})
})

var _ = Describe("Invalidate", func() {
	It("forces re-resolution from the registry", func() {
		registry := host.NewRegistry()
		eng := enginetest.NewEngine()
		plugin := &enginetest.Plugin{PluginName: "recall", Eng: eng}
		Expect(registry.Register(plugin)).To(Succeed())

		l := New(registry, "recall", zap.NewNop())
		_, err := l.Engine()
		Expect(err).NotTo(HaveOccurred())

		registry.Deregister("recall")
		l.Invalidate()
		plugin.Stale = false

		_, err = l.Engine()
		Expect(err).To(HaveOccurred())
		Expect(errors.Is(err, engine.ErrUnavailable)).To(BeTrue())
	})
})
