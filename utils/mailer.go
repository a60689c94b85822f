package utils

import (
	"crypto/tls"
	"encoding/base64"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/aronm-sonance/sonance-marketing-hub/config"
)

// Mailer sends HTML email over SMTP. It is constructed from configuration and
// passed around explicitly so components depending on email can be tested
// against a fake.
type Mailer struct {
	host     string
	port     int
	username string
	password string
	from     string
	fromName string
	useTLS   bool
}

// NewMailer builds a Mailer from SMTP configuration.
func NewMailer(cfg config.AppConfig) *Mailer {
	return &Mailer{
		host:     cfg.SMTPHost,
		port:     cfg.SMTPPort,
		username: cfg.SMTPUsername,
		password: cfg.SMTPPassword,
		from:     cfg.SMTPFrom,
		fromName: cfg.SMTPFromName,
		useTLS:   cfg.SMTPTLS,
	}
}

// Send delivers a single HTML email.
func (m *Mailer) Send(to, subject, html string) error {
	if m.host == "" || m.from == "" {
		return fmt.Errorf("smtp not configured")
	}
	addr := net.JoinHostPort(m.host, strconv.Itoa(m.port))
	auth := smtp.PlainAuth("", m.username, m.password, m.host)

	fromName := m.fromName
	if fromName == "" {
		fromName = "Marketing Hub"
	}

	headers := map[string]string{
		"From":         fmt.Sprintf("%s <%s>", encodeRFC2047(fromName), m.from),
		"To":           to,
		"Subject":      encodeRFC2047(subject),
		"MIME-Version": "1.0",
		"Content-Type": "text/html; charset=UTF-8",
	}
	var msg strings.Builder
	for k, v := range headers {
		fmt.Fprintf(&msg, "%s: %s\r\n", k, v)
	}
	msg.WriteString("\r\n")
	msg.WriteString(html)

	if m.useTLS {
		return m.sendSTARTTLS(addr, auth, to, msg.String())
	}
	return smtp.SendMail(addr, auth, m.from, []string{to}, []byte(msg.String()))
}

// sendSTARTTLS dials with timeouts and upgrades the connection when the
// server supports STARTTLS.
func (m *Mailer) sendSTARTTLS(addr string, auth smtp.Auth, to, msg string) error {
	d := net.Dialer{Timeout: 5 * time.Second}
	conn, err := d.Dial("tcp", addr)
	if err != nil {
		return err
	}
	_ = conn.SetDeadline(time.Now().Add(15 * time.Second))
	host, _, _ := net.SplitHostPort(addr)
	c, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return err
	}
	defer c.Close()
	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if m.username != "" {
		if err := c.Auth(auth); err != nil {
			return err
		}
	}
	if err := c.Mail(m.from); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	wc, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := wc.Write([]byte(msg)); err != nil {
		_ = wc.Close()
		return err
	}
	return wc.Close()
}

// encodeRFC2047 encodes a string for non-ASCII mail headers.
func encodeRFC2047(s string) string {
	for i := 0; i < len(s); i++ {
		if s[i] >= 128 {
			return fmt.Sprintf("=?UTF-8?B?%s?=", base64.StdEncoding.EncodeToString([]byte(s)))
		}
	}
	return s
}
