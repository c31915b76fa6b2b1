package email

import (
	"strings"
	"testing"
)

func TestSMTPSenderBuildsMultipartMessage(t *testing.T) {
	s := NewSMTPSender("localhost", 1025, "", "", "noreply@goclean.app", "GoClean")

	if got := s.envelopeFrom(); got != "noreply@goclean.app" {
		t.Errorf("unexpected envelope sender %q", got)
	}

	raw := string(s.build("jane@example.com", &Message{
		Subject: "Verify your email",
		Text:    "code 123456",
		HTML:    "<b>123456</b>",
	}))

	for _, want := range []string{
		"From: GoClean <noreply@goclean.app>\r\n",
		"To: jane@example.com\r\n",
		"Subject: Verify your email\r\n",
		"Content-Type: text/plain; charset=utf-8",
		"code 123456",
		"<b>123456</b>",
		"--goclean-alternative--",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("message missing %q", want)
		}
	}
}
