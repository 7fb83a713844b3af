package jobs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sweeperStub struct {
	releaseCutoff string
	abandonCutoff string
	err           error
}

func (s *sweeperStub) AutoRelease(_ context.Context, cutoff string) (int, error) {
	s.releaseCutoff = cutoff
	return 2, s.err
}

func (s *sweeperStub) AbandonUnpaid(_ context.Context, cutoff string) (int, error) {
	s.abandonCutoff = cutoff
	return 1, s.err
}

type purgerStub struct{ now string }

func (p *purgerStub) PurgeExpiredSecrets(_ context.Context, now string) (int64, error) {
	p.now = now
	return 3, nil
}

func newTestJobs(o OrderSweeper, u SecretPurger) *Jobs {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	j := NewJobs(o, u, logger, 72*time.Hour, 24*time.Hour)
	j.now = func() time.Time { return time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC) }
	return j
}

func TestReleaseEscrow_UsesConfiguredWindow(t *testing.T) {
	sw := &sweeperStub{}
	newTestJobs(sw, &purgerStub{}).ReleaseEscrow()
	assert.Equal(t, "2025-03-07T12:00:00Z", sw.releaseCutoff)
}

func TestAbandonPayments_UsesConfiguredWindow(t *testing.T) {
	sw := &sweeperStub{}
	newTestJobs(sw, &purgerStub{}).AbandonPayments()
	assert.Equal(t, "2025-03-09T12:00:00Z", sw.abandonCutoff)
}

func TestPurgeSecrets_PassesCurrentTime(t *testing.T) {
	p := &purgerStub{}
	newTestJobs(&sweeperStub{}, p).PurgeSecrets()
	assert.Equal(t, "2025-03-10T12:00:00Z", p.now)
}

func TestJobs_SurviveErrors(t *testing.T) {
	sw := &sweeperStub{err: errors.New("db locked")}
	j := newTestJobs(sw, &purgerStub{})
	assert.NotPanics(t, j.ReleaseEscrow)
	assert.NotPanics(t, j.AbandonPayments)
}

func TestScheduler_SkipsEmptyAndInvalidSpecs(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s := NewScheduler(newTestJobs(&sweeperStub{}, &purgerStub{}), logger, Schedules{
		Escrow:   "@every 30m",
		Payments: "not a schedule",
	})
	require.Equal(t, 1, s.Start())
	<-s.Stop().Done()
}
