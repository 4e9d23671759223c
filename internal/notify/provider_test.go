package notify

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconfig "github.com/harborhealth/clinic-queue-platform/internal/config"
)

func TestEmailSenderFromConfigSendGrid(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:     "sendgrid",
		SendGridAPIKey:    "SG.test-key",
		SendGridFromEmail: "clinic@harborhealth.example",
	}

	sender := EmailSenderFromConfig(context.Background(), cfg, nil)
	assert.IsType(t, &SendGridSender{}, sender)
}

func TestEmailSenderFromConfigSendGridWithoutKey(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "sendgrid"}

	sender := EmailSenderFromConfig(context.Background(), cfg, nil)
	assert.IsType(t, &StubEmailSender{}, sender)
}

func TestEmailSenderFromConfigDefaultsToStub(t *testing.T) {
	cfg := &appconfig.Config{EmailProvider: "stub"}

	sender := EmailSenderFromConfig(context.Background(), cfg, nil)
	assert.IsType(t, &StubEmailSender{}, sender)
}

func TestSMSSenderFromConfig(t *testing.T) {
	withNumber := &appconfig.Config{SMSFromNumber: "+15550001111"}
	sender := SMSSenderFromConfig(withNumber, nil)
	require.NotNil(t, sender)
	assert.NoError(t, sender.SendSMS(context.Background(), "+15550002222", "hello"))

	assert.Nil(t, SMSSenderFromConfig(&appconfig.Config{}, nil))
}

func TestFromConfigWiresConfiguredTransports(t *testing.T) {
	cfg := &appconfig.Config{
		EmailProvider:     "sendgrid",
		SendGridAPIKey:    "SG.test-key",
		SendGridFromEmail: "clinic@harborhealth.example",
		SMSFromNumber:     "+15550001111",
	}

	svc := FromConfig(context.Background(), cfg, nil)
	require.NotNil(t, svc)
	assert.IsType(t, &SendGridSender{}, svc.email)
}
