package followup

import (
	"context"
	"strings"
)

// ReplyClassifier triages a patient reply that has already been redacted.
type ReplyClassifier interface {
	Classify(ctx context.Context, text string) ReplyLabel
}

var (
	rescheduleKeywords = []string{"change", "reschedule", "another time", "different time"}
	reviewKeywords     = []string{"worse", "worst", "pain", "bleeding", "fever", "emergency"}
)

// KeywordClassifier applies simple substring rules. Reschedule intent wins
// over medical concern when both match, so a patient asking to move an
// appointment because of mild symptoms is not escalated.
type KeywordClassifier struct{}

func (KeywordClassifier) Classify(_ context.Context, text string) ReplyLabel {
	lower := strings.ToLower(text)
	for _, kw := range rescheduleKeywords {
		if strings.Contains(lower, kw) {
			return ReplyNeedReschedule
		}
	}
	for _, kw := range reviewKeywords {
		if strings.Contains(lower, kw) {
			return ReplyNeedHumanReview
		}
	}
	return ReplyOK
}
