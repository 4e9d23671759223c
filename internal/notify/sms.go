package notify

import (
	"context"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// SMSSender sends SMS messages to patients.
type SMSSender interface {
	SendSMS(ctx context.Context, to, body string) error
}

// SMSFunc adapts a send function to the SMSSender interface, so a provider
// client can be plugged in without a wrapper type.
type SMSFunc func(ctx context.Context, to, body string) error

func (f SMSFunc) SendSMS(ctx context.Context, to, body string) error {
	return f(ctx, to, body)
}

// StubSMSSender logs outbound SMS without sending.
type StubSMSSender struct {
	logger *logging.Logger
}

// NewStubSMSSender creates a stub SMS sender.
func NewStubSMSSender(logger *logging.Logger) *StubSMSSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubSMSSender{logger: logger}
}

func (s *StubSMSSender) SendSMS(ctx context.Context, to, body string) error {
	s.logger.Info("notify: stub sms sender, would send", "to", to, "chars", len(body))
	return nil
}

var _ SMSSender = (SMSFunc)(nil)
var _ SMSSender = (*StubSMSSender)(nil)
