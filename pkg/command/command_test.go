package command

import (
	"errors"
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("ParseAdd", func() {
	It("parses a bare bracketed text", func() {
		cmd, err := ParseAdd("<prefers dark roast coffee>")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Text).To(Equal("prefers dark roast coffee"))
		Expect(cmd.Importance).To(BeNil())
		Expect(cmd.MemoryType).To(BeEmpty())
	})

	It("parses a trailing importance", func() {
		cmd, err := ParseAdd("<ships on Fridays> 0.9")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Importance).NotTo(BeNil())
		Expect(*cmd.Importance).To(Equal(0.9))
	})

	It("parses importance and memory type together", func() {
		cmd, err := ParseAdd("<allergic to shellfish> 0.95 fact")
		Expect(err).NotTo(HaveOccurred())
		Expect(*cmd.Importance).To(Equal(0.95))
		Expect(cmd.MemoryType).To(Equal("fact"))
	})

	It("trims whitespace inside the brackets", func() {
		cmd, err := ParseAdd("<  has two cats  >")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Text).To(Equal("has two cats"))
	})

	It("accepts newlines inside the brackets", func() {
		cmd, err := ParseAdd("<line one\nline two>")
		Expect(err).NotTo(HaveOccurred())
		Expect(cmd.Text).To(Equal("line one\nline two"))
	})

	It("rejects input without brackets", func() {
		_, err := ParseAdd("prefers dark roast coffee")
		Expect(err).To(HaveOccurred())
		Expect(IsUsageError(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("wrapped in < >"))
	})

	It("rejects empty bracketed text", func() {
		_, err := ParseAdd("<   >")
		Expect(err).To(HaveOccurred())
		Expect(IsUsageError(err)).To(BeTrue())
	})

	It("rejects a non-numeric importance", func() {
		_, err := ParseAdd("<some text> high")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid importance"))
	})

	It("rejects an importance above 1 instead of clamping", func() {
		_, err := ParseAdd("<some text> 1.5")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("out of range"))
	})

	It("rejects a negative importance", func() {
		_, err := ParseAdd("<some text> -0.2")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("out of range"))
	})

	It("rejects more than two trailing arguments", func() {
		_, err := ParseAdd("<some text> 0.9 fact extra")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("unexpected trailing arguments"))
	})
})

var _ = Describe("ParsePut", func() {
	valid := `<{"text": "adopted a cat named Noir", "topics": ["pets"], "key_facts": ["the cat is called Noir"], "sentiment": "neutral"}>`

	It("parses a valid payload", func() {
		p, err := ParsePut(valid)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Text).To(Equal("adopted a cat named Noir"))
		Expect(p.Topics).To(Equal([]string{"pets"}))
		Expect(p.KeyFacts).To(Equal([]string{"the cat is called Noir"}))
		Expect(p.Sentiment).To(Equal("neutral"))
		Expect(p.Importance).To(BeNil())
	})

	It("parses optional importance and memory_type", func() {
		p, err := ParsePut(`<{"text": "a", "topics": [], "key_facts": [], "sentiment": "positive", "importance": 0.75, "memory_type": "preference"}>`)
		Expect(err).NotTo(HaveOccurred())
		Expect(*p.Importance).To(Equal(0.75))
		Expect(p.MemoryType).To(Equal("preference"))
	})

	It("rejects input without brackets", func() {
		_, err := ParsePut(`{"text": "a"}`)
		Expect(err).To(HaveOccurred())
		Expect(IsUsageError(err)).To(BeTrue())
	})

	It("rejects invalid JSON", func() {
		_, err := ParsePut("<not json at all>")
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("invalid JSON"))
	})

	It("lists all missing required fields", func() {
		_, err := ParsePut(`<{"text": "a"}>`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("missing required fields: topics, key_facts, sentiment"))
	})

	It("rejects an unknown sentiment", func() {
		_, err := ParsePut(`<{"text": "a", "topics": [], "key_facts": [], "sentiment": "ecstatic"}>`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("must be one of positive, negative, neutral"))
	})

	It("rejects topics that are not a string array", func() {
		_, err := ParsePut(`<{"text": "a", "topics": "pets", "key_facts": [], "sentiment": "neutral"}>`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("topics must be an array"))
	})

	It("rejects an out-of-range importance", func() {
		_, err := ParsePut(`<{"text": "a", "topics": [], "key_facts": [], "sentiment": "neutral", "importance": 1.2}>`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("out of range"))
	})

	It("rejects whitespace-only text", func() {
		_, err := ParsePut(`<{"text": "  ", "topics": [], "key_facts": [], "sentiment": "neutral"}>`)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("text is empty"))
	})

	It("tolerates unknown keys", func() {
		p, err := ParsePut(`<{"text": "a", "topics": [], "key_facts": [], "sentiment": "neutral", "color": "blue"}>`)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Text).To(Equal("a"))
	})
})

var _ = Describe("IsUsageError", func() {
	It("detects a wrapped UsageError", func() {
		err := fmt.Errorf("handling command: %w", &UsageError{Reason: "bad input"})
		Expect(IsUsageError(err)).To(BeTrue())
	})

	It("is false for unrelated errors", func() {
		Expect(IsUsageError(errors.New("boom"))).To(BeFalse())
	})
})
