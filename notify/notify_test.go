package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubNotifier struct {
	Noop
	calls atomic.Int32
	err   error
}

func (s *stubNotifier) SendCompletion(context.Context, string, uint, string) error {
	s.calls.Add(1)
	return s.err
}

func TestAsync_FailureIsLoggedNotReturned(t *testing.T) {
	log, hook := test.NewNullLogger()
	next := &stubNotifier{err: errors.New("connection refused")}
	async := NewAsync(next, log, nil)

	err := async.SendCompletion(context.Background(), "r@example.lk", 3, "Leave request")
	require.NoError(t, err)
	async.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
	require.Len(t, hook.Entries, 1)
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
	assert.Equal(t, "completion", hook.LastEntry().Data["kind"])
}

func TestAsync_CanceledRequestStillDelivers(t *testing.T) {
	log, _ := test.NewNullLogger()
	next := &stubNotifier{}
	async := NewAsync(next, log, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.NoError(t, async.SendCompletion(ctx, "r@example.lk", 1, "x"))
	async.Wait()

	assert.Equal(t, int32(1), next.calls.Load())
}

func TestSMTPMailer_RendersMessage(t *testing.T) {
	m := NewSMTPMailer(SMTPConfig{Host: "mail.local", From: "desk@example.lk", AppName: "Desk"})

	var gotAddr string
	var gotMsg string
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = string(msg)
		assert.Equal(t, "desk@example.lk", from)
		assert.Equal(t, []string{"r@example.lk"}, to)
		return nil
	}

	err := m.SendConfirmation(context.Background(), "r@example.lk", 12, "Pay <issue>", "Summary")
	require.NoError(t, err)
	assert.Equal(t, "mail.local:587", gotAddr)
	assert.Contains(t, gotMsg, "Subject: Inquiry #12 received")
	assert.Contains(t, gotMsg, "Pay &lt;issue&gt;")
	assert.True(t, strings.HasSuffix(gotMsg, "<p>Desk</p>"))
}
