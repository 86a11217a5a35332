package timestamp

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

// stubStrategy records calls and returns a fixed answer.
type stubStrategy struct {
	name   string
	result time.Time
	ok     bool
	calls  int
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) Parse(text string, loc *time.Location) (time.Time, bool) {
	s.calls++
	return s.result, s.ok
}

var _ = Describe("Parser", func() {
	var (
		parser *Parser
		text   string
		loc    *time.Location
		result time.Time
		ok     bool
	)

	BeforeEach(func() {
		parser = DefaultParser()
		loc = time.UTC
	})

	JustBeforeEach(func() {
		result, ok = parser.Parse(text, loc)
	})

	When("the date uses a two-digit year", func() {
		BeforeEach(func() {
			text = "11:30 PM 8/21/25"
		})

		It("finds an instant", func() {
			Expect(ok).To(BeTrue())
		})

		It("expands the year and converts the hour", func() {
			Expect(result).To(BeTemporally("==", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)))
		})
	})

	When("the date uses a month name", func() {
		BeforeEach(func() {
			text = "11:30 PM Aug 21, 2025"
		})

		It("matches the numeric form", func() {
			Expect(ok).To(BeTrue())
			Expect(result).To(BeTemporally("==", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)))
		})
	})

	When("the line still carries UI noise", func() {
		BeforeEach(func() {
			text = "11:30PM · Aug 21, 2025 · 12.4K Views"
		})

		It("cleans before parsing", func() {
			Expect(ok).To(BeTrue())
			Expect(result).To(BeTemporally("==", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)))
		})
	})

	When("the base timezone is not UTC", func() {
		BeforeEach(func() {
			var err error
			loc, err = LoadLocation("America/Toronto")
			Expect(err).NotTo(HaveOccurred())
			text = "11:30 PM Aug 21, 2025"
		})

		It("returns the instant normalized to UTC", func() {
			Expect(ok).To(BeTrue())
			Expect(result.Location()).To(Equal(time.UTC))
			Expect(result).To(BeTemporally("==", time.Date(2025, 8, 22, 3, 30, 0, 0, time.UTC)))
		})
	})

	When("there is no date", func() {
		BeforeEach(func() {
			text = "Posted 11:30"
		})

		It("reports not found", func() {
			Expect(ok).To(BeFalse())
		})
	})

	When("the text is empty after cleaning", func() {
		BeforeEach(func() {
			text = "Likes · Views"
		})

		It("reports not found", func() {
			Expect(ok).To(BeFalse())
		})
	})

	Describe("strategy order", func() {
		var first, second, third *stubStrategy

		BeforeEach(func() {
			text = "anything 11:30"
			first = &stubStrategy{name: "first"}
			second = &stubStrategy{name: "second", ok: true, result: time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)}
			third = &stubStrategy{name: "third", ok: true}
			parser = NewParser(first, second, third)
		})

		It("returns the first success", func() {
			Expect(ok).To(BeTrue())
			Expect(result).To(BeTemporally("==", time.Date(2024, 1, 2, 3, 4, 0, 0, time.UTC)))
		})

		It("does not run later strategies", func() {
			Expect(first.calls).To(Equal(1))
			Expect(second.calls).To(Equal(1))
			Expect(third.calls).To(Equal(0))
		})
	})
})

var _ = Describe("NumericDate", func() {
	DescribeTable("parses",
		func(text string, expected time.Time) {
			t, ok := NumericDate{}.Parse(text, time.UTC)
			Expect(ok).To(BeTrue())
			Expect(t).To(BeTemporally("==", expected))
		},
		Entry("day-first with slashes", "11:30 PM 21/08/2025", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)),
		Entry("day-first with dots", "9:05 AM · 03.04.2024", time.Date(2024, 4, 3, 9, 5, 0, 0, time.UTC)),
		Entry("dashes and 24h clock", "18:45 21-08-25", time.Date(2025, 8, 21, 18, 45, 0, 0, time.UTC)),
		Entry("month-first when day-first is impossible", "11:30 PM 8/21/25", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)),
		Entry("midnight", "12:05 AM 21/08/2025", time.Date(2025, 8, 21, 0, 5, 0, 0, time.UTC)),
		Entry("noon", "12:05 PM 21/08/2025", time.Date(2025, 8, 21, 12, 5, 0, 0, time.UTC)),
		Entry("early afternoon", "1:05 PM 21/08/2025", time.Date(2025, 8, 21, 13, 5, 0, 0, time.UTC)),
	)

	DescribeTable("rejects",
		func(text string) {
			_, ok := NumericDate{}.Parse(text, time.UTC)
			Expect(ok).To(BeFalse())
		},
		Entry("no date", "11:30 PM"),
		Entry("date before time", "21/08/2025 11:30 PM"),
		Entry("impossible day", "11:30 PM 32/13/2025"),
		Entry("february 30th", "11:30 PM 30/02/2025"),
		Entry("hour overflow after meridiem", "13:30 PM 21/08/2025"),
		Entry("minute overflow", "11:75 21/08/2025"),
	)
})

var _ = Describe("MonthNameDate", func() {
	DescribeTable("parses",
		func(text string, expected time.Time) {
			t, ok := MonthNameDate{}.Parse(text, time.UTC)
			Expect(ok).To(BeTrue())
			Expect(t).To(BeTemporally("==", expected))
		},
		Entry("abbreviation", "11:30 PM Aug 21, 2025", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)),
		Entry("full name", "7:02 AM September 3, 2024", time.Date(2024, 9, 3, 7, 2, 0, 0, time.UTC)),
		Entry("lower case and two-digit year", "7:02 am sep 3, 24", time.Date(2024, 9, 3, 7, 2, 0, 0, time.UTC)),
		Entry("no space before the day", "11:30 PM Aug21, 2025", time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)),
	)

	DescribeTable("rejects",
		func(text string) {
			_, ok := MonthNameDate{}.Parse(text, time.UTC)
			Expect(ok).To(BeFalse())
		},
		Entry("unknown month", "11:30 PM Foo 21, 2025"),
		Entry("no comma before the year", "11:30 PM Aug 21 2025"),
		Entry("day out of range", "11:30 PM Feb 30, 2025"),
	)
})

var _ = Describe("To24Hour", func() {
	DescribeTable("converts",
		func(hour int, meridiem string, expected int) {
			Expect(To24Hour(hour, meridiem)).To(Equal(expected))
		},
		Entry("12 AM is midnight", 12, "AM", 0),
		Entry("12 PM is noon", 12, "PM", 12),
		Entry("1 PM", 1, "PM", 13),
		Entry("11 AM", 11, "am", 11),
		Entry("no meridiem", 18, "", 18),
	)
})

var _ = Describe("LoadLocation", func() {
	It("treats an empty name as UTC", func() {
		loc, err := LoadLocation("")
		Expect(err).NotTo(HaveOccurred())
		Expect(loc).To(Equal(time.UTC))
	})

	It("loads IANA names", func() {
		loc, err := LoadLocation("America/Toronto")
		Expect(err).NotTo(HaveOccurred())
		Expect(loc.String()).To(Equal("America/Toronto"))
	})

	It("rejects unknown names", func() {
		_, err := LoadLocation("Invalid/Timezone")
		Expect(err).To(MatchError(ContainSubstring("invalid timezone")))
	})
})
