package txbuilder

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/rs/zerolog"

	"github.com/ninja0404/tipsend-go/pkg/metrics"
)

// Status is the observed state of a submitted transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusFinalized Status = "finalized"
	StatusFailed    Status = "failed"
	StatusTimedOut  Status = "timed_out"
)

// Final reports whether polling stops at s.
func (s Status) Final() bool {
	return s != StatusPending
}

// Succeeded reports whether s means the transaction landed without error.
func (s Status) Succeeded() bool {
	return s == StatusConfirmed || s == StatusFinalized
}

// Polling defaults.
const (
	DefaultPollInterval   = time.Second
	DefaultConfirmTimeout = 30 * time.Second
)

// StatusSource reports the status of one signature; nil means unknown.
type StatusSource interface {
	GetSignatureStatus(ctx context.Context, sig solana.Signature) (*solanarpc.SignatureStatusesResult, error)
}

// Monitor polls a StatusSource until a final status or the timeout.
type Monitor struct {
	Source   StatusSource
	Interval time.Duration
	Timeout  time.Duration
	Log      zerolog.Logger
	Metrics  *metrics.Metrics

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewMonitor returns a monitor with DefaultPollInterval and DefaultConfirmTimeout.
func NewMonitor(source StatusSource, log zerolog.Logger) *Monitor {
	return &Monitor{
		Source:   source,
		Interval: DefaultPollInterval,
		Timeout:  DefaultConfirmTimeout,
		Log:      log,
	}
}

// MonitorStatus polls sig's status. It returns confirmed, finalized or
// failed as soon as one is seen, and timed_out once Timeout elapses or ctx is
// done. Poll errors count as pending.
func (m *Monitor) MonitorStatus(ctx context.Context, sig solana.Signature) Status {
	interval, timeout := m.Interval, m.Timeout
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	now, sleep := m.now, m.sleep
	if now == nil {
		now = time.Now
	}
	if sleep == nil {
		sleep = sleepCtx
	}

	start := now()
	polls := 0
	for {
		polls++
		status := m.poll(ctx, sig)
		if status.Final() {
			m.finish(sig, status, polls, now().Sub(start))
			return status
		}
		if now().Sub(start) >= timeout {
			break
		}
		if err := sleep(ctx, interval); err != nil {
			break
		}
	}
	m.finish(sig, StatusTimedOut, polls, now().Sub(start))
	return StatusTimedOut
}

func (m *Monitor) poll(ctx context.Context, sig solana.Signature) Status {
	if m.Source == nil {
		return StatusPending
	}
	res, err := m.Source.GetSignatureStatus(ctx, sig)
	if err != nil {
		m.Log.Debug().Err(err).Str("signature", sig.String()).Msg("status poll failed")
		return StatusPending
	}
	return statusOf(res)
}

func statusOf(res *solanarpc.SignatureStatusesResult) Status {
	if res == nil {
		return StatusPending
	}
	if res.Err != nil {
		return StatusFailed
	}
	switch res.ConfirmationStatus {
	case solanarpc.ConfirmationStatusFinalized:
		return StatusFinalized
	case solanarpc.ConfirmationStatusConfirmed:
		return StatusConfirmed
	}
	return StatusPending
}

func (m *Monitor) finish(sig solana.Signature, status Status, polls int, took time.Duration) {
	m.Metrics.RecordConfirmation(string(status), took)
	ev := m.Log.Info()
	if !status.Succeeded() {
		ev = m.Log.Warn()
	}
	ev.Str("signature", sig.String()).
		Str("status", string(status)).
		Int("polls", polls).
		Dur("took", took).
		Msg("confirmation finished")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
