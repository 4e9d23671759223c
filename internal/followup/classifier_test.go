package followup

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeywordClassifier(t *testing.T) {
	tests := []struct {
		name string
		text string
		want ReplyLabel
	}{
		{"empty", "", ReplyOK},
		{"thanks", "Thank you, all good!", ReplyOK},
		{"reschedule", "Can we reschedule to next week?", ReplyNeedReschedule},
		{"change", "I need to CHANGE my appointment", ReplyNeedReschedule},
		{"another time", "could we do another time please", ReplyNeedReschedule},
		{"different time", "is a different time possible", ReplyNeedReschedule},
		{"pain", "I still have a lot of pain", ReplyNeedHumanReview},
		{"bleeding", "the wound is bleeding again", ReplyNeedHumanReview},
		{"fever", "I have a Fever since yesterday", ReplyNeedHumanReview},
		{"worse", "feeling much worse today", ReplyNeedHumanReview},
		{"emergency", "is this an emergency?", ReplyNeedHumanReview},
		{"reschedule wins over symptoms", "the pain is back, can we change the date", ReplyNeedReschedule},
	}
	c := KeywordClassifier{}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, c.Classify(context.Background(), tt.text))
		})
	}
}
