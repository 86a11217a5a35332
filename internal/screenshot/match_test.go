package screenshot

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/zombor/screenstamp/internal/timestamp"
)

var _ = Describe("Window", func() {
	candidate := time.Date(2025, 8, 21, 23, 30, 0, 0, time.UTC)

	DescribeTable("Contains",
		func(w Window, query time.Time, expected bool) {
			Expect(w.Contains(query, candidate)).To(Equal(expected))
		},
		Entry("exact ignores seconds", Exact(), candidate.Add(45*time.Second), true),
		Entry("exact rejects the next minute", Exact(), candidate.Add(time.Minute), false),
		Entry("tolerance includes its bound", Within(5), candidate.Add(5*time.Minute), true),
		Entry("tolerance includes its bound before", Within(5), candidate.Add(-5*time.Minute), true),
		Entry("tolerance excludes one second past", Within(5), candidate.Add(5*time.Minute+time.Second), false),
	)

	DescribeTable("ParseWindow",
		func(input string, expected Window, valid bool) {
			w, err := ParseWindow(input)
			if !valid {
				Expect(err).To(MatchError(ErrInvalidQuery))
				return
			}
			Expect(err).NotTo(HaveOccurred())
			Expect(w).To(Equal(expected))
		},
		Entry("empty", "", Exact(), true),
		Entry("exact", "Exact", Exact(), true),
		Entry("zero", "0", Exact(), true),
		Entry("plain minutes", "5", Within(5), true),
		Entry("suffixed", "15m", Within(15), true),
		Entry("plus-minus sign", "±5", Within(5), true),
		Entry("ascii plus-minus", "+-60", Within(60), true),
		Entry("negative", "-5", Window{}, false),
		Entry("garbage", "soon", Window{}, false),
	)

	It("describes itself", func() {
		Expect(Exact().String()).To(Equal("exact"))
		Expect(Within(5).String()).To(Equal("±5 min"))
	})
})

var _ = Describe("Query", func() {
	var q Query

	BeforeEach(func() {
		q = Query{Year: 2025, Month: time.August, Day: 21, Hour: 11, Minute: 30, Meridiem: "PM", Location: time.UTC}
	})

	DescribeTable("Instant converts 12-hour fields",
		func(hour int, meridiem string, expectedHour int) {
			q.Hour, q.Meridiem = hour, meridiem
			at, err := q.Instant()
			Expect(err).NotTo(HaveOccurred())
			Expect(at.Hour()).To(Equal(expectedHour))
		},
		Entry("midnight", 12, "AM", 0),
		Entry("noon", 12, "PM", 12),
		Entry("one in the afternoon", 1, "PM", 13),
		Entry("morning", 9, "am", 9),
	)

	It("converts from the query timezone to UTC", func() {
		loc, err := timestamp.LoadLocation("America/Toronto")
		Expect(err).NotTo(HaveOccurred())
		q.Location = loc
		at, err := q.Instant()
		Expect(err).NotTo(HaveOccurred())
		Expect(at).To(BeTemporally("==", time.Date(2025, 8, 22, 3, 30, 0, 0, time.UTC)))
		Expect(at.Location()).To(Equal(time.UTC))
	})

	DescribeTable("Instant rejects invalid fields",
		func(mutate func(*Query)) {
			mutate(&q)
			_, err := q.Instant()
			Expect(err).To(MatchError(ErrInvalidQuery))
		},
		Entry("hour zero", func(q *Query) { q.Hour = 0 }),
		Entry("hour thirteen", func(q *Query) { q.Hour = 13 }),
		Entry("minute sixty", func(q *Query) { q.Minute = 60 }),
		Entry("bad meridiem", func(q *Query) { q.Meridiem = "XM" }),
		Entry("February 30", func(q *Query) { q.Month, q.Day = time.February, 30 }),
		Entry("no timezone", func(q *Query) { q.Location = nil }),
	)
})

var _ = Describe("Match", func() {
	var (
		idx *Index
		q   Query
	)

	BeforeEach(func() {
		idx = &Index{Records: []Record{
			{Source: "z.png", Instant: postedAt.Add(3 * time.Minute), Text: "11:33 PM"},
			{Source: "a.png", Instant: postedAt, Text: footer},
			{Source: "m.png", Instant: postedAt.Add(-2 * time.Minute), Text: "11:28 PM"},
			{Source: "far.png", Instant: postedAt.Add(time.Hour), Text: "12:30 AM"},
		}}
		q = Query{Year: 2025, Month: time.August, Day: 21, Hour: 11, Minute: 30, Meridiem: "PM", Location: time.UTC}
	})

	It("returns exact matches", func() {
		matches, err := Match(q, idx)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).To(HaveLen(1))
		Expect(matches[0].Source).To(Equal("a.png"))
	})

	It("returns window matches in index order", func() {
		q.Window = Within(5)
		matches, err := Match(q, idx)
		Expect(err).NotTo(HaveOccurred())
		var sources []string
		for _, m := range matches {
			sources = append(sources, m.Source)
		}
		Expect(sources).To(Equal([]string{"z.png", "a.png", "m.png"}))
	})

	It("returns an empty result when nothing is in the window", func() {
		q.Day = 20
		matches, err := Match(q, idx)
		Expect(err).NotTo(HaveOccurred())
		Expect(matches).NotTo(BeNil())
		Expect(matches).To(BeEmpty())
	})

	It("reports an empty index distinctly", func() {
		_, err := Match(q, &Index{})
		Expect(err).To(MatchError(ErrEmptyIndex))

		_, err = Match(q, nil)
		Expect(err).To(MatchError(ErrEmptyIndex))
	})

	It("validates the query", func() {
		q.Hour = 0
		_, err := Match(q, idx)
		Expect(err).To(MatchError(ErrInvalidQuery))
	})
})

var _ = Describe("ParseQuery", func() {
	It("parses form values", func() {
		q, err := ParseQuery("2025-08-21", "11", "05", "PM", "±5")
		Expect(err).NotTo(HaveOccurred())
		Expect(q).To(Equal(Query{Year: 2025, Month: time.August, Day: 21, Hour: 11, Minute: 5, Meridiem: "PM", Window: Within(5)}))
	})

	DescribeTable("rejects malformed values",
		func(date, hour, minute, window string) {
			_, err := ParseQuery(date, hour, minute, "PM", window)
			Expect(err).To(MatchError(ErrInvalidQuery))
		},
		Entry("date", "08/21/2025", "11", "30", "exact"),
		Entry("hour", "2025-08-21", "eleven", "30", "exact"),
		Entry("minute", "2025-08-21", "11", "", "exact"),
		Entry("window", "2025-08-21", "11", "30", "a while"),
	)
})
