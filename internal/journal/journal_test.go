package journal_test

import (
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/journal"
	"github.com/cockroachdb/pebble/vfs"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Journal", func() {
	var j journal.Journal
	BeforeEach(func() {
		var err error
		j, err = journal.Open("", vfs.NewMem())
		Expect(err).ToNot(HaveOccurred())
	})
	AfterEach(func() { Expect(j.Close()).To(Succeed()) })

	It("Should return the events of a run in sequence order", func() {
		for i, r := range []string{"peer:3", "peer:1", "peer:2"} {
			seq := []int{2, 0, 1}[i]
			Expect(j.Record("run-a", seq, event.Event{Type: event.Ping, Direction: event.Request, Receiver: r})).To(Succeed())
		}
		events, err := j.Events("run-a")
		Expect(err).ToNot(HaveOccurred())
		Expect(event.Buffer(events).Receivers()).To(Equal([]string{"peer:1", "peer:2", "peer:3"}))
	})

	It("Should keep runs apart", func() {
		Expect(j.Record("run-a", 0, event.Event{Type: event.Join})).To(Succeed())
		Expect(j.Record("run-a0", 0, event.Event{Type: event.Stats})).To(Succeed())
		Expect(j.Record("run-b", 0, event.Event{Type: event.Ping})).To(Succeed())
		events, err := j.Events("run-a")
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(HaveLen(1))
		Expect(events[0].Type).To(Equal(event.Join))
		runs, err := j.Runs()
		Expect(err).ToNot(HaveOccurred())
		Expect(runs).To(Equal([]string{"run-a", "run-a0", "run-b"}))
	})

	It("Should preserve the event body", func() {
		e, err := event.New(event.Ping, event.Response, "sut:1", "peer:1", map[string]int{"checksum": 7})
		Expect(err).ToNot(HaveOccurred())
		Expect(j.Record("run-a", 0, e)).To(Succeed())
		events, err := j.Events("run-a")
		Expect(err).ToNot(HaveOccurred())
		var body map[string]int
		Expect(events[0].Decode(&body)).To(Succeed())
		Expect(body["checksum"]).To(Equal(7))
	})

	It("Should reject run ids containing the key separator", func() {
		Expect(j.Record("a/b", 0, event.Event{})).ToNot(Succeed())
	})

	It("Should return nothing for an unknown run", func() {
		events, err := j.Events("missing")
		Expect(err).ToNot(HaveOccurred())
		Expect(events).To(BeEmpty())
	})
})
