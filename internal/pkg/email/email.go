package email

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// EmailService defines the interface for email operations
type EmailService interface {
	SendWelcomeEmail(ctx context.Context, toEmail, toName string) error
	SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string, ttl time.Duration) error
	SendStatusUpdateEmail(ctx context.Context, msg StatusUpdate) error
}

// StatusUpdate is the content of a certificate request status mail
type StatusUpdate struct {
	ToEmail         string
	ToName          string
	CertificateType string
	Status          string
	Comment         string
}

// SMTPConfig holds configuration for SMTP server
type SMTPConfig struct {
	Host      string
	Port      int
	Username  string
	Password  string
	FromName  string
	FromEmail string
	UseTLS    bool
}

// EmailServiceImpl implements EmailService over SMTP
type EmailServiceImpl struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewEmailService creates a new EmailService
func NewEmailService(config SMTPConfig, logger zerolog.Logger) *EmailServiceImpl {
	return &EmailServiceImpl{
		config: config,
		logger: logger,
	}
}

// configured reports whether SMTP credentials are present. Without them mail is
// logged instead of sent so local development works without a mail server.
func (s *EmailServiceImpl) configured() bool {
	return s.config.Host != "" && s.config.Username != "" && s.config.Password != ""
}

// SendWelcomeEmail greets a newly registered user
func (s *EmailServiceImpl) SendWelcomeEmail(ctx context.Context, toEmail, toName string) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Msg("SMTP credentials not configured - welcome email not sent.")
		return nil
	}

	body := fmt.Sprintf(`<h1>Hi %s,</h1><p>Welcome! Your account has been created successfully.</p>`,
		html.EscapeString(toName))

	return s.sendHTMLEmail(ctx, toEmail, "Welcome to the Certificate Tracking App!", body)
}

// SendPasswordResetEmail mails the reset link
func (s *EmailServiceImpl) SendPasswordResetEmail(ctx context.Context, toEmail, resetURL string, ttl time.Duration) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", toEmail).
			Str("resetURL", resetURL).
			Msg("SMTP credentials not configured - reset email not sent. Use the URL above for testing.")
		return nil
	}

	link := html.EscapeString(resetURL)
	body := fmt.Sprintf(`<p>You requested a password reset. Please click this link to reset your password: <a href="%s">%s</a></p><p>This link will expire in %s.</p>`,
		link, link, humanDuration(ttl))

	return s.sendHTMLEmail(ctx, toEmail, "Password Reset Request", body)
}

// SendStatusUpdateEmail tells a student that their request moved to a new status
func (s *EmailServiceImpl) SendStatusUpdateEmail(ctx context.Context, msg StatusUpdate) error {
	if !s.configured() {
		s.logger.Warn().
			Str("toEmail", msg.ToEmail).
			Str("status", msg.Status).
			Msg("SMTP credentials not configured - status update email not sent.")
		return nil
	}

	subject := fmt.Sprintf("Update on your %s request", msg.CertificateType)
	body := fmt.Sprintf(`<h1>Hi %s,</h1><p>There has been an update on your certificate request.</p><p><b>New Status:</b> <strong>%s</strong></p><p><b>Comment:</b> %s</p><br><p>You can view the full details by logging into the portal.</p>`,
		html.EscapeString(msg.ToName), html.EscapeString(msg.Status), html.EscapeString(msg.Comment))

	return s.sendHTMLEmail(ctx, msg.ToEmail, subject, body)
}

func humanDuration(d time.Duration) string {
	if d > 0 && d%time.Minute == 0 {
		m := int(d / time.Minute)
		if m == 1 {
			return "1 minute"
		}
		return strconv.Itoa(m) + " minutes"
	}
	return d.String()
}

// buildMessage renders headers and body in a stable order
func (s *EmailServiceImpl) buildMessage(toEmail, subject, htmlBody string) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s <%s>\r\n", s.config.FromName, s.config.FromEmail)
	fmt.Fprintf(&b, "To: %s\r\n", toEmail)
	fmt.Fprintf(&b, "Subject: %s\r\n", subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return []byte(b.String())
}

// sendHTMLEmail sends an HTML email
func (s *EmailServiceImpl) sendHTMLEmail(ctx context.Context, toEmail, subject, htmlBody string) error {
	auth := smtp.PlainAuth("", s.config.Username, s.config.Password, s.config.Host)
	message := s.buildMessage(toEmail, subject, htmlBody)
	serverAddress := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))

	if !s.config.UseTLS {
		if err := smtp.SendMail(serverAddress, auth, s.config.FromEmail, []string{toEmail}, message); err != nil {
			s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to send email")
			return fmt.Errorf("failed to send email: %w", err)
		}
		return nil
	}

	dialer := &tls.Dialer{Config: &tls.Config{ServerName: s.config.Host}}
	conn, err := dialer.DialContext(ctx, "tcp", serverAddress)
	if err != nil {
		s.logger.Error().Err(err).Str("server", serverAddress).Msg("Failed to connect to SMTP server")
		return fmt.Errorf("failed to connect to SMTP server: %w", err)
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}

	client, err := smtp.NewClient(conn, s.config.Host)
	if err != nil {
		return fmt.Errorf("failed to create SMTP client: %w", err)
	}
	defer client.Quit()

	if err = client.Auth(auth); err != nil {
		s.logger.Error().Err(err).Msg("SMTP authentication failed")
		return fmt.Errorf("SMTP authentication failed: %w", err)
	}
	if err = client.Mail(s.config.FromEmail); err != nil {
		return fmt.Errorf("failed to set sender: %w", err)
	}
	if err = client.Rcpt(toEmail); err != nil {
		return fmt.Errorf("failed to set recipient: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("failed to get data writer: %w", err)
	}
	if _, err = w.Write(message); err != nil {
		return fmt.Errorf("failed to write email message: %w", err)
	}
	if err = w.Close(); err != nil {
		return fmt.Errorf("failed to close data writer: %w", err)
	}

	return nil
}
