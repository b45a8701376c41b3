package swimcheck_test

import (
	"context"
	"github.com/arya-analytics/swimcheck"
	"github.com/arya-analytics/swimcheck/internal/event"
	"github.com/arya-analytics/swimcheck/internal/journal"
	"github.com/arya-analytics/swimcheck/internal/member"
	"github.com/arya-analytics/swimcheck/internal/report"
	"github.com/arya-analytics/swimcheck/internal/scenario"
	"github.com/arya-analytics/swimcheck/internal/scenario/scenariomock"
	"github.com/arya-analytics/swimcheck/internal/step"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"os"
	"time"
)

var _ = Describe("Validate", func() {
	var (
		ctx context.Context
		net *scenariomock.Network
		sc  *swimcheck.Context
		rec *report.Recorder
	)
	BeforeEach(func() {
		ctx = context.Background()
		net = scenariomock.NewNetwork("127.0.0.1:3000")
		var err error
		sc, err = net.Context(ctx, 4)
		Expect(err).ToNot(HaveOccurred())
		rec = report.NewRecorder()
	})

	Describe("Piggybacking", func() {
		It("Should disseminate a suspicion and its refutation", func() {
			reg := prometheus.NewRegistry()
			res, err := swimcheck.Validate(ctx, sc, net.Stream, swimcheck.Scheme{
				step.SendPing(sc, 0, &scenario.PiggybackOptions{
					Source:  0,
					Subject: 1,
					Status:  member.StatusSuspect,
				}),
				step.WaitForPingResponse(sc, 0),
				step.AssertStats(rec, sc, 4, 1, 0),
				step.SendPing(sc, 1, &scenario.PiggybackOptions{
					Source:            1,
					Subject:           1,
					Status:            member.StatusAlive,
					SubjectIncNoDelta: 1,
				}),
				step.WaitForPingResponse(sc, 1),
				step.AssertStats(rec, sc, 5, 0, 0, map[int]step.Expected{1: {IncarnationNumber: step.Incarnation(2)}}),
				step.AssertChecksum(rec, sc),
			},
				swimcheck.WithReporter(report.Logging(zap.NewNop(), rec)),
				swimcheck.WithDeadline(time.Second),
				swimcheck.WithMetrics(reg),
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Outcome).To(Equal(swimcheck.Passed))
			Expect(rec.Err()).ToNot(HaveOccurred())
			Expect(rec.Done()).To(BeClosed())
			n, err := testutil.GatherAndCount(reg, "swimcheck_runs_total")
			Expect(err).ToNot(HaveOccurred())
			Expect(n).To(Equal(1))
		})
	})

	Describe("Failures", func() {
		It("Should time out when the node never pings", func() {
			res, err := swimcheck.Validate(ctx, sc, net.Stream,
				swimcheck.Scheme{step.WaitForPing(sc)},
				swimcheck.WithReporter(rec),
				swimcheck.WithDeadline(50*time.Millisecond),
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Outcome).To(Equal(swimcheck.TimedOut))
			Expect(res.Err).To(MatchError(swimcheck.ErrTimeout))
			Expect(rec.Failed()).To(BeTrue())
			Expect(net.SUT.IsShutdown()).To(BeTrue())
		})
		It("Should require a reporter", func() {
			_, err := swimcheck.Validate(ctx, sc, net.Stream, nil)
			Expect(err).To(MatchError(swimcheck.ErrNoReporter))
			Expect(net.SUT.IsShutdown()).To(BeFalse())
		})
		It("Should reject a journal set twice", func() {
			_, err := swimcheck.Validate(ctx, sc, net.Stream, nil,
				swimcheck.WithReporter(rec),
				swimcheck.WithJournal(nopJournal{}),
				swimcheck.JournalDir("unused"),
			)
			Expect(err).To(HaveOccurred())
		})
	})

	Describe("Journal", func() {
		It("Should journal the events of the run to disk", func() {
			dir, err := os.MkdirTemp("", "swimcheck")
			Expect(err).ToNot(HaveOccurred())
			defer os.RemoveAll(dir)
			res, err := swimcheck.Validate(ctx, sc, net.Stream,
				swimcheck.Scheme{step.SendJoin(sc, 2), step.WaitForJoinResponse(sc, 2)},
				swimcheck.WithReporter(rec),
				swimcheck.WithRunID("join"),
				swimcheck.JournalDir(dir),
			)
			Expect(err).ToNot(HaveOccurred())
			Expect(res.Outcome).To(Equal(swimcheck.Passed))
			j, err := journal.Open(dir, nil)
			Expect(err).ToNot(HaveOccurred())
			defer func() { Expect(j.Close()).To(Succeed()) }()
			events, err := j.Events("join")
			Expect(err).ToNot(HaveOccurred())
			Expect(event.Buffer(events).Kinds()).To(Equal([]string{"join/response"}))
		})
	})
})

type nopJournal struct{}

func (nopJournal) Record(string, int, event.Event) error { return nil }
func (nopJournal) Events(string) ([]event.Event, error)  { return nil, nil }
func (nopJournal) Runs() ([]string, error)               { return nil, nil }
func (nopJournal) Close() error                          { return nil }
