package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/amelia751/cloudly/internal/model"
)

type sample struct {
	VoiceID string `json:"voiceId" validate:"notblank"`
	Email   string `json:"recipientEmail,omitempty" validate:"omitempty,email"`
	Name    string `json:"assistantName" validate:"max=5"`
}

func TestStruct(t *testing.T) {
	cases := []struct {
		name string
		in   sample
		msg  string
	}{
		{"ok", sample{VoiceID: "v1"}, ""},
		{"blank voice", sample{VoiceID: "   "}, "voiceId is required"},
		{"bad email", sample{VoiceID: "v1", Email: "nope"}, "recipientEmail must be a valid email"},
		{"too long", sample{VoiceID: "v1", Name: "abcdefg"}, "assistantName exceeds 5 characters"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Struct(tc.in)
			if tc.msg == "" {
				assert.NoError(t, err)
				return
			}
			assert.True(t, model.IsValidation(err))
			assert.EqualError(t, err, tc.msg)
		})
	}
}
