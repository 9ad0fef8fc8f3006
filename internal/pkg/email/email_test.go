package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestUnconfiguredServiceLogsInsteadOfSending(t *testing.T) {
	var buf strings.Builder
	svc := NewEmailService(SMTPConfig{}, zerolog.New(&buf))

	assert.NoError(t, svc.SendWelcomeEmail(context.Background(), "a@b.c", "Asha"))
	assert.NoError(t, svc.SendPasswordResetEmail(context.Background(), "a@b.c", "http://x/reset-password/t", 10*time.Minute))
	assert.NoError(t, svc.SendStatusUpdateEmail(context.Background(), StatusUpdate{ToEmail: "a@b.c", Status: "Collected"}))

	out := buf.String()
	assert.Contains(t, out, "http://x/reset-password/t")
	assert.Equal(t, 3, strings.Count(out, "SMTP credentials not configured"))
}

func TestBuildMessage(t *testing.T) {
	svc := NewEmailService(SMTPConfig{FromName: "CertTrack", FromEmail: "noreply@college.edu"}, zerolog.Nop())
	msg := string(svc.buildMessage("s@college.edu", "Update on your Bonafide request", "<p>hi</p>"))

	assert.True(t, strings.HasPrefix(msg, "From: CertTrack <noreply@college.edu>\r\n"))
	assert.Contains(t, msg, "Subject: Update on your Bonafide request\r\n")
	assert.True(t, strings.HasSuffix(msg, "\r\n\r\n<p>hi</p>"))
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "10 minutes", humanDuration(10*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
	assert.Equal(t, "1m30s", humanDuration(90*time.Second))
}
