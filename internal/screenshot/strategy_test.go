package screenshot

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Strategy", func() {
	var (
		ctx    context.Context
		calls  []int
		stages []Stage
		parse  ParseFunc
	)

	// stage records its position when evaluated
	stage := func(i int, texts ...string) Stage {
		return func(context.Context) []string {
			calls = append(calls, i)
			return texts
		}
	}

	minute := func(m int) time.Time {
		return time.Date(2025, 8, 21, 23, m, 0, 0, time.UTC)
	}

	BeforeEach(func() {
		ctx = context.Background()
		calls = nil
		parse = func(text string) (time.Time, bool) {
			switch text {
			case "a", "a2":
				return minute(30), true
			case "a-late":
				return minute(30).Add(40 * time.Second), true
			case "b":
				return minute(45), true
			}
			return time.Time{}, false
		}
	})

	Describe("FirstSuccess", func() {
		It("returns the first candidate that parses and stops", func() {
			stages = []Stage{stage(0, "noise"), stage(1, "noise", "b", "a"), stage(2, "a")}
			hit, ok := FirstSuccess{}.Select(ctx, stages, parse)
			Expect(ok).To(BeTrue())
			Expect(hit.Text).To(Equal("b"))
			Expect(calls).To(Equal([]int{0, 1}))
		})

		It("returns false when nothing parses", func() {
			stages = []Stage{stage(0, "x"), stage(1)}
			_, ok := FirstSuccess{}.Select(ctx, stages, parse)
			Expect(ok).To(BeFalse())
			Expect(calls).To(Equal([]int{0, 1}))
		})

		It("stops when the context is cancelled", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			_, ok := FirstSuccess{}.Select(cctx, []Stage{stage(0, "a")}, parse)
			Expect(ok).To(BeFalse())
			Expect(calls).To(BeEmpty())
		})
	})

	Describe("MajorityVote", func() {
		It("picks the minute most candidates agree on", func() {
			stages = []Stage{stage(0, "b"), stage(1, "a"), stage(2, "a-late", "x")}
			hit, ok := MajorityVote{}.Select(ctx, stages, parse)
			Expect(ok).To(BeTrue())
			Expect(hit.Text).To(Equal("a"))
			Expect(hit.Instant).To(BeTemporally("==", minute(30)))
			Expect(calls).To(Equal([]int{0, 1, 2}))
		})

		It("breaks ties by the first minute seen", func() {
			stages = []Stage{stage(0, "b"), stage(1, "a")}
			hit, ok := MajorityVote{}.Select(ctx, stages, parse)
			Expect(ok).To(BeTrue())
			Expect(hit.Text).To(Equal("b"))
		})

		It("returns false when nothing parses", func() {
			_, ok := MajorityVote{}.Select(ctx, []Stage{stage(0, "x")}, parse)
			Expect(ok).To(BeFalse())
		})
	})

	DescribeTable("StrategyByName",
		func(name string, expected Strategy, valid bool) {
			s, err := StrategyByName(name)
			if !valid {
				Expect(err).To(HaveOccurred())
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(s).To(Equal(expected))
		},
		Entry("default", "", FirstSuccess{}, true),
		Entry("first", "first", FirstSuccess{}, true),
		Entry("vote", "vote", MajorityVote{}, true),
		Entry("unknown", "best", nil, false),
	)
})
