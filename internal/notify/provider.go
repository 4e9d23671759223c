package notify

import (
	"context"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/harborhealth/clinic-queue-platform/internal/config"
	"github.com/harborhealth/clinic-queue-platform/pkg/logging"
)

// FromConfig builds the notification service from application configuration.
// Both the API and the dispatch worker wire their transports through here so
// provider selection behaves identically in either binary.
func FromConfig(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) *Service {
	return NewService(
		SMSSenderFromConfig(cfg, logger),
		EmailSenderFromConfig(ctx, cfg, logger),
		nil,
		logger,
	)
}

// EmailSenderFromConfig selects the email transport named by EMAIL_PROVIDER.
// Misconfigured providers fall back to the logging stub rather than failing
// startup.
func EmailSenderFromConfig(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	switch cfg.EmailProvider {
	case "sendgrid":
		if sender := NewSendGridSender(SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.SendGridFromEmail,
			FromName:  cfg.SendGridFromName,
		}, logger); sender != nil {
			return sender
		}
		logger.Warn("notify: sendgrid selected but no API key, using stub email")
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			logger.Error("notify: failed to load AWS config, using stub email", "error", err)
			break
		}
		if sender := NewSESSender(sesv2.NewFromConfig(awsCfg), SESConfig{
			FromEmail: cfg.SESFromEmail,
			FromName:  cfg.SESFromName,
		}, logger); sender != nil {
			return sender
		}
	}
	return NewStubEmailSender(logger)
}

// SMSSenderFromConfig returns an SMS transport stamped with the configured
// from-number, or nil (the logging stub) when no number is set.
func SMSSenderFromConfig(cfg *appconfig.Config, logger *logging.Logger) SMSSender {
	if cfg.SMSFromNumber == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	from := cfg.SMSFromNumber
	return SMSFunc(func(ctx context.Context, to, body string) error {
		logger.Info("notify: sms dispatch", "from", from, "to", to, "chars", len(body))
		return nil
	})
}
