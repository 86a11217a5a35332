package scanning

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gocv.io/x/gocv"
)

// mockRecognizer returns scripted lines, one script entry per call.
type mockRecognizer struct {
	replies [][]Line
	errs    []error
	calls   int
	inputs  [][]byte
}

func (m *mockRecognizer) Recognize(ctx context.Context, png []byte) ([]Line, error) {
	i := m.calls
	m.calls++
	m.inputs = append(m.inputs, png)
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i < len(m.replies) {
		return m.replies[i], nil
	}
	return nil, nil
}

func (m *mockRecognizer) Close() error {
	return nil
}

var _ = Describe("TimeLines", func() {
	var (
		rec      *mockRecognizer
		variants []gocv.Mat
		ctx      context.Context
		lines    []string
	)

	BeforeEach(func() {
		ctx = context.Background()
		rec = &mockRecognizer{}
		variants = []gocv.Mat{
			gocv.NewMatWithSize(20, 40, gocv.MatTypeCV8UC1),
			gocv.NewMatWithSize(20, 40, gocv.MatTypeCV8UC1),
			gocv.NewMatWithSize(20, 40, gocv.MatTypeCV8UC1),
		}
	})

	AfterEach(func() {
		for i := range variants {
			variants[i].Close()
		}
	})

	JustBeforeEach(func() {
		lines = TimeLines(ctx, rec, variants)
	})

	When("the recognizer returns mixed lines", func() {
		BeforeEach(func() {
			rec.replies = [][]Line{
				{{Text: "@someone"}, {Text: "11:30 PM ·  Aug 21, 2025"}},
				{{Text: "12.4K Views"}},
				{{Text: "Posted 9:05"}, {Text: "   "}},
			}
		})

		It("calls the recognizer once per variant", func() {
			Expect(rec.calls).To(Equal(3))
		})

		It("submits PNG data", func() {
			Expect(rec.inputs[0][:4]).To(Equal([]byte("\x89PNG")))
		})

		It("keeps only lines with a time token, whitespace normalized", func() {
			Expect(lines).To(Equal([]string{"11:30 PM · Aug 21, 2025", "Posted 9:05"}))
		})
	})

	When("the recognizer fails on a variant", func() {
		BeforeEach(func() {
			rec.errs = []error{errors.New("engine crashed")}
			rec.replies = [][]Line{nil, {{Text: "11:30 PM"}}}
		})

		It("continues with the remaining variants", func() {
			Expect(rec.calls).To(Equal(3))
			Expect(lines).To(Equal([]string{"11:30 PM"}))
		})
	})

	When("the recognizer returns nothing", func() {
		It("returns an empty result", func() {
			Expect(lines).To(BeEmpty())
		})
	})

	When("the context is cancelled", func() {
		BeforeEach(func() {
			c, cancel := context.WithCancel(context.Background())
			cancel()
			ctx = c
		})

		It("stops before recognizing", func() {
			Expect(rec.calls).To(Equal(0))
		})
	})
})
