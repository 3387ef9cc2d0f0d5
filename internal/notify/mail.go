package notify

import (
	"context"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"solveit/config"
)

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// MailSender delivers over SMTP
type MailSender struct {
	addr     string
	from     string
	auth     smtp.Auth
	sendMail sendMailFunc
}

// NewMailSender returns nil when no SMTP host is configured
func NewMailSender(cfg *config.MailConfig) *MailSender {
	if cfg.SMTPHost == "" {
		return nil
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.SMTPHost)
	}
	return &MailSender{
		addr:     net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from:     cfg.From,
		auth:     auth,
		sendMail: smtp.SendMail,
	}
}

// Send skips recipients without an email address
func (s *MailSender) Send(ctx context.Context, msg Message) error {
	if msg.To.Email == "" {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	envelopeFrom := s.from
	if addr, err := parseAddress(s.from); err == nil {
		envelopeFrom = addr
	}
	if err := s.sendMail(s.addr, s.auth, envelopeFrom, []string{msg.To.Email}, s.compose(msg, time.Now())); err != nil {
		return fmt.Errorf("smtp send to %s: %w", msg.To.Email, err)
	}
	return nil
}

func (s *MailSender) compose(msg Message, now time.Time) []byte {
	to := msg.To.Email
	if msg.To.Name != "" {
		to = fmt.Sprintf("%s <%s>", mime.QEncoding.Encode("utf-8", msg.To.Name), msg.To.Email)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", msg.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// parseAddress extracts the bare address from "Name <addr>"
func parseAddress(s string) (string, error) {
	start := strings.LastIndex(s, "<")
	end := strings.LastIndex(s, ">")
	if start < 0 || end < start {
		return "", fmt.Errorf("no angle-bracket address in %q", s)
	}
	return s[start+1 : end], nil
}
