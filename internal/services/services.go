package services

import (
	"context"
	"time"

	"campusmart/internal/apperr"
	applog "campusmart/internal/log"
	"campusmart/internal/payments"
)

// Mailer delivers account emails.
type Mailer interface {
	SendOTP(ctx context.Context, to, name, code string, ttl time.Duration) error
	SendPasswordReset(ctx context.Context, to, name, token string) error
}

// Gateway is the payment provider used for checkout and seller payouts.
type Gateway interface {
	Initialize(ctx context.Context, in payments.InitializeRequest) (*payments.InitializeResult, error)
	Verify(ctx context.Context, reference string) (*payments.Transaction, error)
	CreateRecipient(ctx context.Context, in payments.RecipientRequest) (*payments.Recipient, error)
	Transfer(ctx context.Context, in payments.TransferRequest) (*payments.Transfer, error)
	VerifySignature(body []byte, signature string) bool
}

// Publisher emits domain events; failures are logged, never surfaced to the caller.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, data any) error
}

// WithTimeout runs fn and returns whichever comes first: its result or ErrTimeout after d.
// fn receives a context cancelled at the deadline so it can stop early.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, apperr.ErrTimeout
	}
}

// emit publishes an event and logs instead of failing the caller.
func emit(ctx context.Context, pub Publisher, key string, data any) {
	if pub == nil {
		return
	}
	if err := pub.Publish(ctx, key, data); err != nil {
		applog.Logger().Warn("event.publish.failed", "routing_key", key, "error", err)
	}
}
