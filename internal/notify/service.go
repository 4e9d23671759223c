package notify

import (
	"context"
	"fmt"

	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

const followUpSubject = "Appointment follow-up"

// Service routes one outbound message to the right transport by channel
// name ("sms", "email", "voice").
type Service struct {
	sms    SMSSender
	email  EmailSender
	voice  VoiceSender
	logger *logging.Logger
}

// NewService creates a notification service. Missing senders fall back to
// logging stubs so dispatch never depends on provider configuration.
func NewService(sms SMSSender, email EmailSender, voice VoiceSender, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	if sms == nil {
		sms = NewStubSMSSender(logger)
	}
	if email == nil {
		email = NewStubEmailSender(logger)
	}
	if voice == nil {
		voice = NewStubVoiceSender(logger)
	}
	return &Service{sms: sms, email: email, voice: voice, logger: logger}
}

// Send delivers one message to a destination over the named channel.
func (s *Service) Send(ctx context.Context, channel, destination, message string) error {
	switch channel {
	case "sms":
		return s.sms.SendSMS(ctx, destination, message)
	case "email":
		return s.email.Send(ctx, EmailMessage{To: destination, Subject: followUpSubject, Body: message})
	case "voice":
		return s.voice.Call(ctx, destination, message)
	default:
		return fmt.Errorf("notify: unknown channel %q", channel)
	}
}
