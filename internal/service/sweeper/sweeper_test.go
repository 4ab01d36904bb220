package sweeper_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/kirinyoku/park-go/internal/clock"
	"github.com/kirinyoku/park-go/internal/domain"
	"github.com/kirinyoku/park-go/internal/repository/sqlite"
	"github.com/kirinyoku/park-go/internal/service/reservation"
	"github.com/kirinyoku/park-go/internal/service/sweeper"
	"github.com/kirinyoku/park-go/internal/testutil"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

// flakyTransitioner fails the listed ids and delegates the rest.
type flakyTransitioner struct {
	sweeper.Transitioner
	fail map[uuid.UUID]bool
}

func (f flakyTransitioner) Expire(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	if f.fail[id] {
		return nil, errors.New("disk on fire")
	}
	return f.Transitioner.Expire(ctx, id)
}

type fakeLease struct {
	mu       sync.Mutex
	held     bool
	released int
}

func (l *fakeLease) Acquire(context.Context, time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return !l.held, nil
}

func (l *fakeLease) Release(context.Context) error {
	l.mu.Lock()
	l.released++
	l.mu.Unlock()
	return nil
}

var _ = Describe("Sweeper", func() {
	var (
		ctx    context.Context
		store  *sqlite.Store
		clk    *clock.Manual
		svc    *reservation.Service
		zoneID int64
	)

	hold := func(user string, startMin, endMin int) domain.Reservation {
		GinkgoHelper()
		res, err := svc.RequestHold(ctx, reservation.HoldRequest{
			UserID: user,
			ZoneID: zoneID,
			Window: testutil.Window(startMin, endMin),
		})
		Expect(err).NotTo(HaveOccurred())
		return res.Reservation
	}

	status := func(id uuid.UUID) domain.Status {
		GinkgoHelper()
		r, err := svc.Get(ctx, id)
		Expect(err).NotTo(HaveOccurred())
		return r.Status
	}

	newSweeper := func(mode sweeper.Mode, batch int) *sweeper.Sweeper {
		return sweeper.New(store.Reservations(), svc, nil, clk, logger, sweeper.Config{
			Batch: batch,
			Mode:  mode,
		})
	}

	BeforeEach(func() {
		ctx = context.Background()
		store = testutil.NewSQLiteStore(GinkgoT())
		zoneID = testutil.SeedZone(GinkgoT(), store, "Zone A", 10, 0)
		clk = clock.NewManual(testutil.T0)
		svc = reservation.New(store, nil, nil, clk, logger, reservation.Config{})
	})

	Describe("expiry", func() {
		It("expires ended holds once and leaves them alone afterwards", func() {
			pending := hold("pending", 1, 60)
			active := hold("active", 2, 60)

			clk.Set(testutil.At(3))
			_, err := svc.CheckIn(ctx, active.ID, reservation.Requester{UserID: "active"})
			Expect(err).NotTo(HaveOccurred())

			s := newSweeper(sweeper.ModeConfirmed, 0)

			clk.Set(testutil.At(61))
			rep, err := s.SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Expired).To(Equal(2))
			Expect(status(pending.ID)).To(Equal(domain.StatusExpired))
			Expect(status(active.ID)).To(Equal(domain.StatusExpired))

			clk.Set(testutil.At(62))
			rep, err = s.SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep).To(Equal(sweeper.Report{}))
			Expect(status(pending.ID)).To(Equal(domain.StatusExpired))
		})

		It("does not expire a hold whose window ends exactly now", func() {
			r := hold("u", 1, 60)

			clk.Set(testutil.At(60))
			rep, err := newSweeper(sweeper.ModeConfirmed, 0).SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Expired).To(BeZero())
			Expect(status(r.ID)).To(Equal(domain.StatusPending))
		})

		It("never touches terminal records", func() {
			r := hold("u", 1, 30)
			_, err := svc.Cancel(ctx, r.ID, reservation.Requester{UserID: "u"})
			Expect(err).NotTo(HaveOccurred())

			clk.Set(testutil.At(90))
			rep, err := newSweeper(sweeper.ModeConfirmed, 0).SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep).To(Equal(sweeper.Report{}))
			Expect(status(r.ID)).To(Equal(domain.StatusCancelled))
		})

		It("pages through more records than one batch", func() {
			ids := make([]uuid.UUID, 0, 7)
			for i := 0; i < 7; i++ {
				ids = append(ids, hold(fmt.Sprintf("user-%d", i), 1, 30).ID)
			}

			clk.Set(testutil.At(31))
			rep, err := newSweeper(sweeper.ModeConfirmed, 3).SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Expired).To(Equal(7))
			for _, id := range ids {
				Expect(status(id)).To(Equal(domain.StatusExpired))
			}
		})

		It("logs and counts a failing record without blocking the rest", func() {
			bad := hold("bad", 1, 30)
			good := hold("good", 1, 30)

			tr := flakyTransitioner{Transitioner: svc, fail: map[uuid.UUID]bool{bad.ID: true}}
			s := sweeper.New(store.Reservations(), tr, nil, clk, logger, sweeper.Config{Batch: 1})

			clk.Set(testutil.At(31))
			rep, err := s.SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Failed).To(Equal(1))
			Expect(rep.Expired).To(Equal(1))
			Expect(status(good.ID)).To(Equal(domain.StatusExpired))
			Expect(status(bad.ID)).To(Equal(domain.StatusPending))
		})
	})

	Describe("check-in mode", func() {
		It("leaves started holds pending in confirmed mode", func() {
			r := hold("u", 1, 60)

			clk.Set(testutil.At(5))
			rep, err := newSweeper(sweeper.ModeConfirmed, 0).SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Activated).To(BeZero())
			Expect(status(r.ID)).To(Equal(domain.StatusPending))
		})

		It("activates started holds in auto mode", func() {
			started := hold("a", 1, 60)
			future := hold("b", 30, 60)

			clk.Set(testutil.At(5))
			rep, err := newSweeper(sweeper.ModeAuto, 0).SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Activated).To(Equal(1))
			Expect(status(started.ID)).To(Equal(domain.StatusActive))
			Expect(status(future.ID)).To(Equal(domain.StatusPending))
		})

		It("rejects unknown modes", func() {
			_, err := sweeper.ParseMode("sometimes")
			Expect(err).To(HaveOccurred())

			m, err := sweeper.ParseMode("")
			Expect(err).NotTo(HaveOccurred())
			Expect(m).To(Equal(sweeper.ModeConfirmed))
		})
	})

	Describe("lease", func() {
		It("stands by while another replica holds the lease", func() {
			r := hold("u", 1, 30)
			lease := &fakeLease{held: true}
			s := sweeper.New(store.Reservations(), svc, lease, clk, logger, sweeper.Config{})

			clk.Set(testutil.At(31))
			rep, err := s.SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Standby).To(BeTrue())
			Expect(status(r.ID)).To(Equal(domain.StatusPending))
			Expect(lease.released).To(BeZero())
		})

		It("sweeps and releases when the lease is free", func() {
			hold("u", 1, 30)
			lease := &fakeLease{}
			s := sweeper.New(store.Reservations(), svc, lease, clk, logger, sweeper.Config{})

			clk.Set(testutil.At(31))
			rep, err := s.SweepOnce(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(rep.Expired).To(Equal(1))
			Expect(lease.released).To(Equal(1))
		})
	})

	Describe("Run", func() {
		It("sweeps on start and stops with the context", func() {
			r := hold("u", 1, 30)
			clk.Set(testutil.At(31))

			runCtx, cancel := context.WithCancel(ctx)
			s := sweeper.New(store.Reservations(), svc, nil, clk, logger, sweeper.Config{Interval: 10 * time.Millisecond})

			done := make(chan error, 1)
			go func() { done <- s.Run(runCtx) }()

			Eventually(func() domain.Status { return status(r.ID) }).Should(Equal(domain.StatusExpired))

			cancel()
			Eventually(done).Should(Receive(BeNil()))
		})
	})
})
