package notify

import (
	"context"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// VoiceSender places automated voice calls.
type VoiceSender interface {
	Call(ctx context.Context, to, script string) error
}

// StubVoiceSender logs calls without placing them. No telephony provider is
// wired yet; replace this when one is.
type StubVoiceSender struct {
	logger *logging.Logger
}

// NewStubVoiceSender creates a stub voice sender.
func NewStubVoiceSender(logger *logging.Logger) *StubVoiceSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubVoiceSender{logger: logger}
}

func (s *StubVoiceSender) Call(ctx context.Context, to, script string) error {
	s.logger.Info("notify: stub voice sender, would call", "to", to, "chars", len(script))
	return nil
}

var _ VoiceSender = (*StubVoiceSender)(nil)
