package notify

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"strings"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	AppName  string
	// ResetURL is prefixed to reset tokens in password reset emails.
	ResetURL string
}

// SMTPMailer renders HTML emails and sends them with PLAIN auth.
type SMTPMailer struct {
	cfg  SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(cfg SMTPConfig) *SMTPMailer {
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.AppName == "" {
		cfg.AppName = "Inquiry Desk"
	}
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail}
}

var templates = template.Must(template.New("confirmation").Parse(`<p>Dear requester,</p>
<p>Your inquiry <strong>#{{.InquiryID}}</strong> "{{.Subject}}" has been received.</p>
<p>{{.Summary}}</p>
<p>We will contact you once it has been handled.</p>
<p>{{.AppName}}</p>`))

func init() {
	template.Must(templates.New("completion").Parse(`<p>Dear requester,</p>
<p>Your inquiry <strong>#{{.InquiryID}}</strong> "{{.Subject}}" has been completed.</p>
<p>Thank you for contacting us.</p>
<p>{{.AppName}}</p>`))
	template.Must(templates.New("password_reset").Parse(`<p>A password reset was requested for your account.</p>
<p><a href="{{.Link}}">Reset your password</a>. The link expires in one hour.</p>
<p>If you did not request this, ignore this email.</p>
<p>{{.AppName}}</p>`))
}

type mailData struct {
	AppName   string
	InquiryID uint
	Subject   string
	Summary   string
	Link      string
}

func (m *SMTPMailer) SendConfirmation(ctx context.Context, to string, inquiryID uint, subject, summary string) error {
	return m.deliver(ctx, to, fmt.Sprintf("Inquiry #%d received", inquiryID), "confirmation", mailData{
		InquiryID: inquiryID,
		Subject:   subject,
		Summary:   summary,
	})
}

func (m *SMTPMailer) SendCompletion(ctx context.Context, to string, inquiryID uint, subject string) error {
	return m.deliver(ctx, to, fmt.Sprintf("Inquiry #%d completed", inquiryID), "completion", mailData{
		InquiryID: inquiryID,
		Subject:   subject,
	})
}

func (m *SMTPMailer) SendPasswordReset(ctx context.Context, to, token string) error {
	return m.deliver(ctx, to, "Password reset", "password_reset", mailData{
		Link: m.cfg.ResetURL + token,
	})
}

func (m *SMTPMailer) deliver(ctx context.Context, to, subject, tmpl string, data mailData) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data.AppName = m.cfg.AppName

	var body bytes.Buffer
	if err := templates.ExecuteTemplate(&body, tmpl, data); err != nil {
		return fmt.Errorf("failed to render %s email: %w", tmpl, err)
	}

	msg := buildMessage(m.cfg.From, to, subject, body.String())
	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))

	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}
	if err := m.send(addr, auth, m.cfg.From, []string{to}, msg); err != nil {
		return fmt.Errorf("failed to send %s email: %w", tmpl, err)
	}
	return nil
}

func buildMessage(from, to, subject, html string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"UTF-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(html)
	return []byte(b.String())
}
