// Package notify delivers requester and user emails.
package notify

import (
	"context"
	"sync"
	"time"

	"github.com/inquiry-desk/api-go/metrics"
	"github.com/sirupsen/logrus"
)

type Notifier interface {
	SendConfirmation(ctx context.Context, to string, inquiryID uint, subject, summary string) error
	SendCompletion(ctx context.Context, to string, inquiryID uint, subject string) error
	SendPasswordReset(ctx context.Context, to, token string) error
}

// Noop drops every message. It is used when no mail server is configured.
type Noop struct{}

func (Noop) SendConfirmation(context.Context, string, uint, string, string) error { return nil }
func (Noop) SendCompletion(context.Context, string, uint, string) error           { return nil }
func (Noop) SendPasswordReset(context.Context, string, string) error              { return nil }

const sendTimeout = 30 * time.Second

// Async sends through next on a background goroutine. Calls return nil
// immediately; delivery failures are logged and counted, never retried.
type Async struct {
	next    Notifier
	log     logrus.FieldLogger
	metrics *metrics.Metrics
	wg      sync.WaitGroup
}

func NewAsync(next Notifier, log logrus.FieldLogger, m *metrics.Metrics) *Async {
	return &Async{next: next, log: log, metrics: m}
}

func (a *Async) SendConfirmation(_ context.Context, to string, inquiryID uint, subject, summary string) error {
	a.dispatch("confirmation", to, inquiryID, func(ctx context.Context) error {
		return a.next.SendConfirmation(ctx, to, inquiryID, subject, summary)
	})
	return nil
}

func (a *Async) SendCompletion(_ context.Context, to string, inquiryID uint, subject string) error {
	a.dispatch("completion", to, inquiryID, func(ctx context.Context) error {
		return a.next.SendCompletion(ctx, to, inquiryID, subject)
	})
	return nil
}

func (a *Async) SendPasswordReset(_ context.Context, to, token string) error {
	a.dispatch("password_reset", to, 0, func(ctx context.Context) error {
		return a.next.SendPasswordReset(ctx, to, token)
	})
	return nil
}

// Wait blocks until every dispatched message has been attempted.
func (a *Async) Wait() {
	a.wg.Wait()
}

// dispatch detaches from the request context so a finished request does
// not cancel delivery.
func (a *Async) dispatch(kind, to string, inquiryID uint, send func(ctx context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		err := send(ctx)
		a.metrics.Notification(kind, err)
		if err != nil {
			a.log.WithFields(logrus.Fields{
				"kind":       kind,
				"to":         to,
				"inquiry_id": inquiryID,
				"error":      err.Error(),
			}).Error("failed to send notification")
			return
		}
		a.log.WithFields(logrus.Fields{"kind": kind, "inquiry_id": inquiryID}).Debug("notification sent")
	}()
}
