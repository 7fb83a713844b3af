// Package jobs runs the periodic maintenance tasks of the marketplace.
package jobs

import (
	"context"
	"log/slog"
	"time"
)

// OrderSweeper settles orders nobody acted on.
type OrderSweeper interface {
	AutoRelease(ctx context.Context, cutoff string) (int, error)
	AbandonUnpaid(ctx context.Context, cutoff string) (int, error)
}

// SecretPurger clears expired one-time codes and reset tokens.
type SecretPurger interface {
	PurgeExpiredSecrets(ctx context.Context, now string) (int64, error)
}

type Jobs struct {
	orders OrderSweeper
	users  SecretPurger
	logger *slog.Logger

	escrowAfter  time.Duration
	abandonAfter time.Duration
	timeout      time.Duration
	now          func() time.Time
}

func NewJobs(orders OrderSweeper, users SecretPurger, logger *slog.Logger, escrowAfter, abandonAfter time.Duration) *Jobs {
	return &Jobs{
		orders:       orders,
		users:        users,
		logger:       logger,
		escrowAfter:  escrowAfter,
		abandonAfter: abandonAfter,
		timeout:      2 * time.Minute,
		now:          time.Now,
	}
}

func (j *Jobs) cutoff(d time.Duration) string {
	return j.now().UTC().Add(-d).Format(time.RFC3339)
}

// ReleaseEscrow confirms deliveries the buyer never confirmed.
func (j *Jobs) ReleaseEscrow() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.orders.AutoRelease(ctx, j.cutoff(j.escrowAfter))
	if err != nil {
		j.logger.Error("escrow auto-release job failed", "released", n, "error", err)
		return
	}
	j.logger.Info("escrow auto-release job finished", "released", n)
}

// AbandonPayments voids orders left unpaid and restocks them.
func (j *Jobs) AbandonPayments() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.orders.AbandonUnpaid(ctx, j.cutoff(j.abandonAfter))
	if err != nil {
		j.logger.Error("payment abandon job failed", "voided", n, "error", err)
		return
	}
	j.logger.Info("payment abandon job finished", "voided", n)
}

// PurgeSecrets drops expired OTP and reset hashes.
func (j *Jobs) PurgeSecrets() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	n, err := j.users.PurgeExpiredSecrets(ctx, j.now().UTC().Format(time.RFC3339))
	if err != nil {
		j.logger.Error("secret purge job failed", "error", err)
		return
	}
	j.logger.Info("secret purge job finished", "cleared", n)
}
