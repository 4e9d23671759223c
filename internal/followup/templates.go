package followup

// Static, PII-free message templates keyed by task kind.

const (
	reminderMessage = "Hi! This is a gentle reminder about your upcoming appointment. " +
		"If you feel unwell or need to reschedule, please contact the clinic."
	checkinMessage = "Hi! We hope you are feeling okay after your recent visit. " +
		"If your symptoms get worse or you feel worried, please contact your doctor or local emergency services."
	genericMessage = "Hi! This is a follow-up message from your clinic."
)

// MessageFor returns the outreach text for a task kind.
func MessageFor(kind TaskKind) string {
	switch kind {
	case KindReminder:
		return reminderMessage
	case KindCheckin:
		return checkinMessage
	default:
		return genericMessage
	}
}
