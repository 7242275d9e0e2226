// Package mail sends transactional email over SMTP.
package mail

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dtroode/feedback-server/internal/model"
)

var _ model.Mailer = (*Mailer)(nil)

const (
	otpSubject   = "Your OTP Code - Verify Your Account"
	resetSubject = "Forgot Password Link"

	dialTimeout = 10 * time.Second
	sendTimeout = 30 * time.Second
)

var (
	otpTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #333;">Verify Your Email</h2>
  <p>Hello {{.Name}},</p>
  <p>Use the following OTP to complete your registration:</p>
  <div style="font-size: 32px; letter-spacing: 8px; font-weight: bold; text-align: center;">{{.Code}}</div>
  <p>This OTP will expire in <strong>{{.Minutes}} minutes</strong>.</p>
  <p style="color: #999; font-size: 12px;">If you didn't request this OTP, please ignore this email.</p>
</div>`))

	resetTemplate = template.Must(template.New("reset").Parse(`<div style="font-family: Arial, sans-serif; max-width: 500px; margin: 0 auto; padding: 20px;">
  <p>We have received a request to reset your password. Please reset your password using the link below.</p>
  <p><a href="{{.Link}}">Reset Password</a></p>
</div>`))
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string
}

type sendFunc func(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error

// Mailer renders HTML messages and relays them through an SMTP server.
type Mailer struct {
	cfg     Config
	auth    smtp.Auth
	send    sendFunc
	timeout time.Duration
}

func NewMailer(cfg Config) *Mailer {
	var auth smtp.Auth
	if cfg.User != "" {
		auth = smtp.PlainAuth("", cfg.User, cfg.Password, cfg.Host)
	}
	if cfg.From == "" {
		cfg.From = cfg.User
	}
	return &Mailer{
		cfg:     cfg,
		auth:    auth,
		send:    sendMail,
		timeout: sendTimeout,
	}
}

func (m *Mailer) SendOTP(ctx context.Context, to, name, code string) error {
	if name == "" {
		name = "User"
	}
	var body bytes.Buffer
	err := otpTemplate.Execute(&body, struct {
		Name    string
		Code    string
		Minutes int
	}{name, code, int(model.OTPLifetime / time.Minute)})
	if err != nil {
		return fmt.Errorf("failed to render otp email: %w", err)
	}
	return m.deliver(ctx, to, otpSubject, body.String())
}

func (m *Mailer) SendPasswordReset(ctx context.Context, to, link string) error {
	var body bytes.Buffer
	if err := resetTemplate.Execute(&body, struct{ Link string }{link}); err != nil {
		return fmt.Errorf("failed to render reset email: %w", err)
	}
	return m.deliver(ctx, to, resetSubject, body.String())
}

func (m *Mailer) deliver(ctx context.Context, to, subject, html string) error {
	if strings.ContainsAny(to, "\r\n") {
		return fmt.Errorf("invalid recipient %q", to)
	}

	msg := strings.Join([]string{
		"From: " + m.cfg.From,
		"To: " + to,
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="UTF-8"`,
		"",
		html,
	}, "\r\n")

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	if err := m.send(ctx, addr, m.auth, m.cfg.From, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	return nil
}

// sendMail is smtp.SendMail bounded by ctx. The connection deadline covers
// the whole exchange and cancellation closes the connection.
func sendMail(ctx context.Context, addr string, auth smtp.Auth, from string, to []string, msg []byte) error {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(sendTimeout)
	}
	_ = conn.SetDeadline(deadline)
	stop := context.AfterFunc(ctx, func() { _ = conn.SetDeadline(time.Now()) })
	defer stop()

	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(tlsConfig(host)); err != nil {
			return err
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
